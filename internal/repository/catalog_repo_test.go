package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/loopwar-api/internal/models"
)

func seedCatalog(t *testing.T, db *gorm.DB) (models.Subtopic, models.Subtopic) {
	t.Helper()
	algorithms := models.Category{Name: "Algorithms", Slug: "algorithms", SortOrder: 1}
	require.NoError(t, db.Create(&algorithms).Error)
	arrays := models.Topic{CategoryID: algorithms.ID, Name: "Arrays", Slug: "arrays", SortOrder: 2}
	strs := models.Topic{CategoryID: algorithms.ID, Name: "Strings", Slug: "strings", SortOrder: 1}
	require.NoError(t, db.Create(&arrays).Error)
	require.NoError(t, db.Create(&strs).Error)

	pointers := models.Subtopic{TopicID: arrays.ID, Name: "Two Pointers", Slug: "two-pointers", SortOrder: 1}
	palindromes := models.Subtopic{TopicID: strs.ID, Name: "Palindromes", Slug: "palindromes", SortOrder: 1}
	require.NoError(t, db.Create(&pointers).Error)
	require.NoError(t, db.Create(&palindromes).Error)
	return pointers, palindromes
}

func TestCatalogRepositoryTreeOrdersBySortOrder(t *testing.T) {
	db := openTestDB(t, &models.Category{}, &models.Topic{}, &models.Subtopic{}, &models.Problem{})
	repo := NewCatalogRepository(db)
	seedCatalog(t, db)

	tree, err := repo.Tree(context.Background())
	require.NoError(t, err)
	require.Len(t, tree, 1)
	require.Len(t, tree[0].Topics, 2)
	require.Equal(t, "strings", tree[0].Topics[0].Slug)
	require.Equal(t, "arrays", tree[0].Topics[1].Slug)
	require.Len(t, tree[0].Topics[1].Subtopics, 1)
}

func TestCatalogRepositoryListProblemsFiltersAndPaginates(t *testing.T) {
	db := openTestDB(t, &models.Category{}, &models.Topic{}, &models.Subtopic{}, &models.Problem{})
	repo := NewCatalogRepository(db)
	pointers, palindromes := seedCatalog(t, db)
	ctx := context.Background()

	problems := []models.Problem{
		{SubtopicID: pointers.ID, Title: "Pair Sum", Difficulty: models.DifficultyEasy, Kind: models.ProblemKindCode, SortOrder: 1},
		{SubtopicID: pointers.ID, Title: "Trapping Rain Water", Difficulty: models.DifficultyHard, Kind: models.ProblemKindCode, SortOrder: 2},
		{SubtopicID: palindromes.ID, Title: "Valid Palindrome", Difficulty: models.DifficultyEasy, Kind: models.ProblemKindCode, SortOrder: 1,
			TestCases: []models.ProblemTestCase{{Input: "aba", Expected: "true"}}},
	}
	for i := range problems {
		require.NoError(t, repo.CreateProblem(ctx, &problems[i]))
	}

	items, total, err := repo.ListProblems(ctx, ProblemFilter{Difficulty: models.DifficultyEasy, PageSize: 10})
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	require.Len(t, items, 2)
	require.Equal(t, "Valid Palindrome", items[0].Title, "strings topic sorts before arrays")

	items, total, err = repo.ListProblems(ctx, ProblemFilter{Topic: "arrays", Page: 2, PageSize: 1})
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	require.Len(t, items, 1)
	require.Equal(t, "Trapping Rain Water", items[0].Title)

	items, _, err = repo.ListProblems(ctx, ProblemFilter{Search: "rain"})
	require.NoError(t, err)
	require.Len(t, items, 1)

	category, topic, subtopic := items[0].Location()
	require.Equal(t, "Algorithms", category)
	require.Equal(t, "Arrays", topic)
	require.Equal(t, "Two Pointers", subtopic)
}

func TestCatalogRepositoryFindProblemByLocation(t *testing.T) {
	db := openTestDB(t, &models.Category{}, &models.Topic{}, &models.Subtopic{}, &models.Problem{})
	repo := NewCatalogRepository(db)
	_, palindromes := seedCatalog(t, db)
	ctx := context.Background()

	problem := models.Problem{SubtopicID: palindromes.ID, Title: "Valid Palindrome", Difficulty: models.DifficultyEasy, Kind: models.ProblemKindCode, SortOrder: 3,
		TestCases: []models.ProblemTestCase{{Input: "abba", Expected: "true"}}}
	require.NoError(t, repo.CreateProblem(ctx, &problem))

	found, err := repo.FindProblemByLocation(ctx, ProblemLocation{Category: "algorithms", Topic: "strings", Subtopic: "palindromes", SortOrder: 3})
	require.NoError(t, err)
	require.Equal(t, problem.ID, found.ID)
	require.Len(t, found.TestCases, 1)
	require.Equal(t, "abba", found.TestCases[0].Input)

	_, err = repo.FindProblemByLocation(ctx, ProblemLocation{Category: "algorithms", Topic: "strings", Subtopic: "palindromes", SortOrder: 9})
	require.True(t, errors.Is(err, gorm.ErrRecordNotFound))

	require.NoError(t, repo.DeleteProblem(ctx, problem.ID))
	require.True(t, errors.Is(repo.DeleteProblem(ctx, problem.ID), gorm.ErrRecordNotFound))
}
