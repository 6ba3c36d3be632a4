package service

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/loopwar-api/internal/dto"
	"github.com/noah-isme/loopwar-api/internal/models"
	"github.com/noah-isme/loopwar-api/internal/repository"
	"github.com/noah-isme/loopwar-api/internal/utils"
)

func setupCatalogService(t *testing.T, withCache bool) (*gorm.DB, CatalogService, *miniredis.Miniredis) {
	t.Helper()
	db := openServiceDB(t, &models.Category{}, &models.Topic{}, &models.Subtopic{}, &models.Problem{})

	var (
		mr          *miniredis.Miniredis
		redisClient *redis.Client
	)
	if withCache {
		var err error
		mr, err = miniredis.Run()
		require.NoError(t, err)
		t.Cleanup(mr.Close)
		redisClient = redis.NewClient(&redis.Options{Addr: mr.Addr()})
	}

	svc := NewCatalogService(repository.NewCatalogRepository(db), redisClient, time.Minute, utils.NewValidator(), zerolog.Nop())
	return db, svc, mr
}

func seedCatalog(t *testing.T, svc CatalogService) (dto.SubtopicNode, dto.ProblemDetail) {
	t.Helper()
	ctx := context.Background()

	category, err := svc.CreateCategory(ctx, dto.CategoryCreateRequest{Name: "Data Structures", SortOrder: 1})
	require.NoError(t, err)
	require.Equal(t, "data-structures", category.Slug)

	topic, err := svc.CreateTopic(ctx, dto.TopicCreateRequest{CategoryID: category.ID, Name: "Arrays", SortOrder: 1})
	require.NoError(t, err)

	subtopic, err := svc.CreateSubtopic(ctx, dto.SubtopicCreateRequest{TopicID: topic.ID, Name: "Two Pointers", Slug: "two-pointers", SortOrder: 1})
	require.NoError(t, err)

	problem, err := svc.CreateProblem(ctx, dto.ProblemUpsertRequest{
		SubtopicID:  subtopic.ID,
		Title:       "Pair Sum",
		Description: `<p>Find a pair</p><script>alert(1)</script>`,
		Difficulty:  models.DifficultyEasy,
		SortOrder:   1,
		TestCases: []dto.ProblemTestCaseInput{
			{Input: "1 2 3\n5", Expected: "1 2"},
			{Input: "4 4\n8", Expected: "0 1"},
		},
	})
	require.NoError(t, err)
	return subtopic, problem
}

func TestCatalogServiceCreateProblemSanitizesAndHidesTests(t *testing.T) {
	_, svc, _ := setupCatalogService(t, false)
	_, problem := seedCatalog(t, svc)

	require.Equal(t, "<p>Find a pair</p>", problem.Description)
	require.Equal(t, models.ProblemKindCode, problem.Kind)
	require.Equal(t, 2, problem.TestCount)
	require.Len(t, problem.Examples, 1)
	require.Equal(t, "Data Structures", problem.Category)
	require.Equal(t, "Two Pointers", problem.Subtopic)

	byLocation, err := svc.ProblemByLocation(context.Background(), dto.ProblemLocationQuery{
		Category: "data-structures", Topic: "arrays", Subtopic: "two-pointers", SortOrder: 1,
	})
	require.NoError(t, err)
	require.Equal(t, problem.ID, byLocation.ID)

	_, err = svc.ProblemByLocation(context.Background(), dto.ProblemLocationQuery{
		Category: "data-structures", Topic: "arrays", Subtopic: "two-pointers", SortOrder: 9,
	})
	require.ErrorIs(t, err, ErrProblemNotFound)
}

func TestCatalogServiceTreeIsCachedAndInvalidated(t *testing.T) {
	_, svc, mr := setupCatalogService(t, true)
	seedCatalog(t, svc)
	ctx := context.Background()

	tree, err := svc.Tree(ctx)
	require.NoError(t, err)
	require.Len(t, tree, 1)
	require.True(t, mr.Exists(catalogTreeCacheKey))

	_, err = svc.CreateCategory(ctx, dto.CategoryCreateRequest{Name: "Algorithms", SortOrder: 0})
	require.NoError(t, err)
	require.False(t, mr.Exists(catalogTreeCacheKey))

	tree, err = svc.Tree(ctx)
	require.NoError(t, err)
	require.Len(t, tree, 2)
	require.Equal(t, "algorithms", tree[0].Slug)
	require.Len(t, tree[1].Topics, 1)
	require.Len(t, tree[1].Topics[0].Subtopics, 1)
}

func TestCatalogServiceTreeServedFromCache(t *testing.T) {
	db, svc, _ := setupCatalogService(t, true)
	seedCatalog(t, svc)
	ctx := context.Background()

	_, err := svc.Tree(ctx)
	require.NoError(t, err)

	require.NoError(t, db.Model(&models.Category{}).Where("slug = ?", "data-structures").Update("name", "Renamed").Error)

	tree, err := svc.Tree(ctx)
	require.NoError(t, err)
	require.Equal(t, "Data Structures", tree[0].Name)
}

func TestCatalogServiceProblemPagesCachedUntilMutation(t *testing.T) {
	db, svc, mr := setupCatalogService(t, true)
	subtopic, problem := seedCatalog(t, svc)
	ctx := context.Background()

	query := dto.ProblemListQuery{Category: "data-structures"}
	page, err := svc.ListProblems(ctx, query)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	require.Len(t, mr.Keys(), 1)

	require.NoError(t, db.Model(&models.Problem{}).Where("id = ?", problem.ID).Update("title", "Stale").Error)
	page, err = svc.ListProblems(ctx, query)
	require.NoError(t, err)
	require.Equal(t, "Pair Sum", page.Items[0].Title)

	_, err = svc.CreateProblem(ctx, dto.ProblemUpsertRequest{
		SubtopicID: subtopic.ID, Title: "Triplets", Description: "x", Difficulty: models.DifficultyMedium, SortOrder: 2,
	})
	require.NoError(t, err)
	require.Empty(t, mr.Keys())

	page, err = svc.ListProblems(ctx, query)
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	require.Equal(t, "Stale", page.Items[0].Title)
}

func TestCatalogServiceListProblemsPaginates(t *testing.T) {
	_, svc, _ := setupCatalogService(t, false)
	subtopic, _ := seedCatalog(t, svc)
	ctx := context.Background()

	for i := 2; i <= 3; i++ {
		_, err := svc.CreateProblem(ctx, dto.ProblemUpsertRequest{
			SubtopicID:  subtopic.ID,
			Title:       "Problem",
			Description: "text",
			Difficulty:  models.DifficultyHard,
			SortOrder:   i,
		})
		require.NoError(t, err)
	}

	page, err := svc.ListProblems(ctx, dto.ProblemListQuery{PageSize: 2})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	require.Equal(t, int64(3), page.Pagination.TotalItems)
	require.Equal(t, 2, page.Pagination.TotalPages)
	require.Equal(t, 1, page.Pagination.Page)

	hard, err := svc.ListProblems(ctx, dto.ProblemListQuery{Difficulty: models.DifficultyHard})
	require.NoError(t, err)
	require.Len(t, hard.Items, 2)
	require.Equal(t, 20, hard.Pagination.PageSize)

	_, err = svc.ListProblems(ctx, dto.ProblemListQuery{Difficulty: "impossible"})
	require.Error(t, err)
}

func TestCatalogServiceMutationErrors(t *testing.T) {
	_, svc, _ := setupCatalogService(t, false)
	subtopic, problem := seedCatalog(t, svc)
	ctx := context.Background()

	_, err := svc.CreateTopic(ctx, dto.TopicCreateRequest{CategoryID: 999, Name: "Ghost"})
	require.ErrorIs(t, err, ErrCategoryNotFound)

	_, err = svc.CreateProblem(ctx, dto.ProblemUpsertRequest{
		SubtopicID: subtopic.ID, Title: "Dup", Description: "x", Difficulty: models.DifficultyEasy, SortOrder: 1,
	})
	require.ErrorIs(t, err, ErrCatalogConflict)

	updated, err := svc.UpdateProblem(ctx, problem.ID, dto.ProblemUpsertRequest{
		SubtopicID: subtopic.ID, Title: "Pair Sum II", Description: "updated", Difficulty: models.DifficultyMedium, SortOrder: 1,
	})
	require.NoError(t, err)
	require.Equal(t, "Pair Sum II", updated.Title)
	require.Zero(t, updated.TestCount)

	require.NoError(t, svc.DeleteProblem(ctx, problem.ID))
	require.ErrorIs(t, svc.DeleteProblem(ctx, problem.ID), ErrProblemNotFound)
	_, err = svc.GetProblem(ctx, problem.ID)
	require.ErrorIs(t, err, ErrProblemNotFound)
}
