package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/loopwar-api/internal/models"
)

// CodeSubmissionRepository persists graded submissions and the per problem progress they feed.
type CodeSubmissionRepository interface {
	CreateWithProgress(ctx context.Context, submission *models.CodeSubmission, solved bool) (models.CodeProgress, error)
	List(ctx context.Context, userID uint, problemID *uint, limit int) ([]models.CodeSubmission, error)
	GetByID(ctx context.Context, id uint) (models.CodeSubmission, error)
	GetProgress(ctx context.Context, userID, problemID uint) (models.CodeProgress, error)
	ListProgress(ctx context.Context, userID uint) ([]models.CodeProgress, error)
}

// NewCodeSubmissionRepository constructs a submission repository backed by GORM.
func NewCodeSubmissionRepository(db *gorm.DB) CodeSubmissionRepository {
	return &codeSubmissionRepository{db: db}
}

type codeSubmissionRepository struct {
	db *gorm.DB
}

// CreateWithProgress inserts the submission and folds it into the progress row inside one
// transaction. The progress write is a single conditional upsert so concurrent submissions for
// the same pair cannot lose increments.
func (r *codeSubmissionRepository) CreateWithProgress(ctx context.Context, submission *models.CodeSubmission, solved bool) (models.CodeProgress, error) {
	var progress models.CodeProgress
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(submission).Error; err != nil {
			return err
		}

		attemptAt := submission.CreatedAt
		if attemptAt.IsZero() {
			attemptAt = time.Now().UTC()
		}

		row := models.CodeProgress{
			UserID:        submission.UserID,
			ProblemID:     submission.ProblemID,
			Category:      submission.Category,
			Topic:         submission.Topic,
			Subtopic:      submission.Subtopic,
			SortOrder:     submission.SortOrder,
			AttemptsCount: 1,
			IsSolved:      solved,
			LastAttemptAt: attemptAt,
		}
		if solved {
			id := submission.ID
			row.BestSubmissionID = &id
			row.FirstSolvedAt = &attemptAt
		}

		err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "problem_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"attempts_count": gorm.Expr("user_code_progress.attempts_count + 1"),
				"is_solved":      gorm.Expr("user_code_progress.is_solved OR excluded.is_solved"),
				"best_submission_id": gorm.Expr("CASE WHEN excluded.is_solved AND (NOT user_code_progress.is_solved OR user_code_progress.best_submission_id IS NULL) " +
					"THEN excluded.best_submission_id ELSE user_code_progress.best_submission_id END"),
				"first_solved_at": gorm.Expr("COALESCE(user_code_progress.first_solved_at, excluded.first_solved_at)"),
				"last_attempt_at": gorm.Expr("excluded.last_attempt_at"),
				"category":        gorm.Expr("excluded.category"),
				"topic":           gorm.Expr("excluded.topic"),
				"subtopic":        gorm.Expr("excluded.subtopic"),
				"sort_order":      gorm.Expr("excluded.sort_order"),
				"updated_at":      attemptAt,
			}),
		}).Create(&row).Error
		if err != nil {
			return err
		}

		return tx.Where("user_id = ? AND problem_id = ?", submission.UserID, submission.ProblemID).
			First(&progress).Error
	})
	if err != nil {
		return models.CodeProgress{}, err
	}
	return progress, nil
}

func (r *codeSubmissionRepository) List(ctx context.Context, userID uint, problemID *uint, limit int) ([]models.CodeSubmission, error) {
	query := r.db.WithContext(ctx).
		Omit("code", "test_results").
		Where("user_id = ?", userID)
	if problemID != nil {
		query = query.Where("problem_id = ?", *problemID)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var submissions []models.CodeSubmission
	if err := query.Order("created_at DESC, id DESC").Find(&submissions).Error; err != nil {
		return nil, err
	}
	return submissions, nil
}

func (r *codeSubmissionRepository) GetByID(ctx context.Context, id uint) (models.CodeSubmission, error) {
	var submission models.CodeSubmission
	if err := r.db.WithContext(ctx).First(&submission, id).Error; err != nil {
		return models.CodeSubmission{}, err
	}
	return submission, nil
}

func (r *codeSubmissionRepository) GetProgress(ctx context.Context, userID, problemID uint) (models.CodeProgress, error) {
	var progress models.CodeProgress
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND problem_id = ?", userID, problemID).
		First(&progress).Error
	if err != nil {
		return models.CodeProgress{}, err
	}
	return progress, nil
}

func (r *codeSubmissionRepository) ListProgress(ctx context.Context, userID uint) ([]models.CodeProgress, error) {
	var items []models.CodeProgress
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("category ASC, topic ASC, subtopic ASC, sort_order ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
