package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/loopwar-api/internal/models"
)

func TestLearningNoteRepositoryMergeCreatesThenUpdates(t *testing.T) {
	db := openTestDB(t, &models.LearningNote{})
	repo := NewLearningNoteRepository(db)
	ctx := context.Background()
	location := NoteLocation{UserID: 1, Category: "Algorithms", Topic: "Arrays", Subtopic: "Two Pointers", SortOrder: 1}

	_, err := repo.Merge(ctx, location, func(note *models.LearningNote) {
		note.KeyInsights = append(note.KeyInsights, "Sort first")
	})
	require.NoError(t, err)

	note, err := repo.Merge(ctx, location, func(note *models.LearningNote) {
		note.KeyInsights = append(note.KeyInsights, "Move the smaller pointer")
	})
	require.NoError(t, err)
	require.Equal(t, []string{"Sort first", "Move the smaller pointer"}, []string(note.KeyInsights))

	stored, err := repo.Get(ctx, location)
	require.NoError(t, err)
	require.Equal(t, note.ID, stored.ID)

	all, err := repo.ListByUser(ctx, 1)
	require.NoError(t, err)
	require.Len(t, all, 1)
}
