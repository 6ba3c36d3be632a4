package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/noah-isme/loopwar-api/internal/models"
)

func newSubmission(userID, problemID uint, status string, at time.Time) *models.CodeSubmission {
	return &models.CodeSubmission{
		UserID:      userID,
		ProblemID:   problemID,
		Code:        "print(1)",
		Language:    "python",
		Status:      status,
		TestResults: datatypes.JSON(`{"success":true}`),
		Category:    "Algorithms",
		Topic:       "Arrays",
		Subtopic:    "Two Pointers",
		SortOrder:   2,
		CreatedAt:   at,
	}
}

func TestCodeSubmissionRepositoryCreatesProgressOnFirstSubmission(t *testing.T) {
	db := openTestDB(t, &models.CodeSubmission{}, &models.CodeProgress{})
	repo := NewCodeSubmissionRepository(db)

	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	submission := newSubmission(1, 10, "Accepted", at)

	progress, err := repo.CreateWithProgress(context.Background(), submission, true)
	require.NoError(t, err)
	require.NotZero(t, submission.ID)
	require.Equal(t, 1, progress.AttemptsCount)
	require.True(t, progress.IsSolved)
	require.NotNil(t, progress.BestSubmissionID)
	require.Equal(t, submission.ID, *progress.BestSubmissionID)
	require.NotNil(t, progress.FirstSolvedAt)
	require.True(t, at.Equal(*progress.FirstSolvedAt))
	require.Equal(t, "Two Pointers", progress.Subtopic)
}

func TestCodeSubmissionRepositoryUnsolvedFirstAttempt(t *testing.T) {
	db := openTestDB(t, &models.CodeSubmission{}, &models.CodeProgress{})
	repo := NewCodeSubmissionRepository(db)

	progress, err := repo.CreateWithProgress(context.Background(), newSubmission(1, 10, "Wrong Answer", time.Now().UTC()), false)
	require.NoError(t, err)
	require.Equal(t, 1, progress.AttemptsCount)
	require.False(t, progress.IsSolved)
	require.Nil(t, progress.BestSubmissionID)
	require.Nil(t, progress.FirstSolvedAt)
}

func TestCodeSubmissionRepositoryFoldsSequenceWithSingleAccepted(t *testing.T) {
	db := openTestDB(t, &models.CodeSubmission{}, &models.CodeProgress{})
	repo := NewCodeSubmissionRepository(db)
	ctx := context.Background()

	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	statuses := []string{"Wrong Answer", "Runtime Error", "Accepted", "Wrong Answer", "Time Limit Exceeded"}

	var acceptedID uint
	var acceptedAt time.Time
	var progress models.CodeProgress
	for i, status := range statuses {
		at := base.Add(time.Duration(i) * time.Minute)
		submission := newSubmission(7, 42, status, at)

		var err error
		progress, err = repo.CreateWithProgress(ctx, submission, status == "Accepted")
		require.NoError(t, err)
		if status == "Accepted" {
			acceptedID = submission.ID
			acceptedAt = at
		}
	}

	require.Equal(t, len(statuses), progress.AttemptsCount)
	require.True(t, progress.IsSolved)
	require.NotNil(t, progress.BestSubmissionID)
	require.Equal(t, acceptedID, *progress.BestSubmissionID)
	require.NotNil(t, progress.FirstSolvedAt)
	require.True(t, acceptedAt.Equal(*progress.FirstSolvedAt))
	require.True(t, base.Add(4*time.Minute).Equal(progress.LastAttemptAt))

	var rows int64
	require.NoError(t, db.Model(&models.CodeProgress{}).Count(&rows).Error)
	require.Equal(t, int64(1), rows)

	var submissions int64
	require.NoError(t, db.Model(&models.CodeSubmission{}).Where("user_id = ? AND problem_id = ?", 7, 42).Count(&submissions).Error)
	require.GreaterOrEqual(t, int64(progress.AttemptsCount), submissions)
}

func TestCodeSubmissionRepositoryKeepsFirstSolveOnLaterAccepted(t *testing.T) {
	db := openTestDB(t, &models.CodeSubmission{}, &models.CodeProgress{})
	repo := NewCodeSubmissionRepository(db)
	ctx := context.Background()

	first := newSubmission(1, 10, "Accepted", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	_, err := repo.CreateWithProgress(ctx, first, true)
	require.NoError(t, err)

	progress, err := repo.CreateWithProgress(ctx, newSubmission(1, 10, "Wrong Answer", time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)), false)
	require.NoError(t, err)
	require.Equal(t, 2, progress.AttemptsCount)
	require.True(t, progress.IsSolved, "solved never reverts")
	require.Equal(t, first.ID, *progress.BestSubmissionID)

	progress, err = repo.CreateWithProgress(ctx, newSubmission(1, 10, "Accepted", time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC)), true)
	require.NoError(t, err)
	require.Equal(t, 3, progress.AttemptsCount)
	require.Equal(t, first.ID, *progress.BestSubmissionID)
	require.True(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC).Equal(*progress.FirstSolvedAt))
}

func TestCodeSubmissionRepositoryRollsBackSubmissionWhenProgressFails(t *testing.T) {
	db := openTestDB(t, &models.CodeSubmission{})
	repo := NewCodeSubmissionRepository(db)

	_, err := repo.CreateWithProgress(context.Background(), newSubmission(1, 10, "Accepted", time.Now().UTC()), true)
	require.Error(t, err)

	var count int64
	require.NoError(t, db.Model(&models.CodeSubmission{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestCodeSubmissionRepositoryListNewestFirstWithFilterAndLimit(t *testing.T) {
	db := openTestDB(t, &models.CodeSubmission{}, &models.CodeProgress{})
	repo := NewCodeSubmissionRepository(db)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 4; i++ {
		problemID := uint(10)
		if i%2 == 1 {
			problemID = 11
		}
		_, err := repo.CreateWithProgress(ctx, newSubmission(1, problemID, "Wrong Answer", base.Add(time.Duration(i)*time.Minute)), false)
		require.NoError(t, err)
	}
	_, err := repo.CreateWithProgress(ctx, newSubmission(2, 10, "Wrong Answer", base), false)
	require.NoError(t, err)

	items, err := repo.List(ctx, 1, nil, 10)
	require.NoError(t, err)
	require.Len(t, items, 4)
	require.True(t, items[0].CreatedAt.After(items[1].CreatedAt), "expected newest first")
	require.Empty(t, items[0].Code, "list omits source code")

	problemID := uint(10)
	items, err = repo.List(ctx, 1, &problemID, 1)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, uint(10), items[0].ProblemID)

	progress, err := repo.ListProgress(ctx, 1)
	require.NoError(t, err)
	require.Len(t, progress, 2)
}

func TestCodeSubmissionRepositoryStoresResultVerbatim(t *testing.T) {
	db := openTestDB(t, &models.CodeSubmission{}, &models.CodeProgress{})
	repo := NewCodeSubmissionRepository(db)
	ctx := context.Background()

	payload := `{"isCorrect":true,"score":95,"detailedAnalysis":{"testCases":{"passed":5,"total":5}}}`
	submission := newSubmission(1, 10, "Accepted", time.Now().UTC())
	submission.TestResults = datatypes.JSON(payload)
	_, err := repo.CreateWithProgress(ctx, submission, true)
	require.NoError(t, err)

	stored, err := repo.GetByID(ctx, submission.ID)
	require.NoError(t, err)
	require.JSONEq(t, payload, string(stored.TestResults))
	require.Equal(t, "print(1)", stored.Code)
}

func TestCodeSubmissionRepositoryConcurrentSubmissionsKeepEveryAttempt(t *testing.T) {
	db := openTestDB(t, &models.CodeSubmission{}, &models.CodeProgress{})
	repo := NewCodeSubmissionRepository(db)

	const workers = 8
	start := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)

	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			accepted := i == 3
			status := "Wrong Answer"
			if accepted {
				status = "Accepted"
			}
			_, err := repo.CreateWithProgress(context.Background(), newSubmission(4, 40, status, start.Add(time.Duration(i)*time.Second)), accepted)
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	var progress models.CodeProgress
	require.NoError(t, db.Where("user_id = ? AND problem_id = ?", 4, 40).First(&progress).Error)
	require.Equal(t, workers, progress.AttemptsCount)
	require.True(t, progress.IsSolved)
	require.NotNil(t, progress.BestSubmissionID)

	var best models.CodeSubmission
	require.NoError(t, db.First(&best, *progress.BestSubmissionID).Error)
	require.Equal(t, "Accepted", best.Status)

	var count int64
	require.NoError(t, db.Model(&models.CodeSubmission{}).Where("user_id = ?", 4).Count(&count).Error)
	require.Equal(t, int64(workers), count)
}
