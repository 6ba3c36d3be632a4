package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/loopwar-api/internal/dto"
	"github.com/noah-isme/loopwar-api/internal/models"
	"github.com/noah-isme/loopwar-api/internal/observability"
	"github.com/noah-isme/loopwar-api/internal/repository"
)

const (
	catalogTreeCacheKey        = "catalog:tree"
	catalogProblemsCachePrefix = "catalog:problems:"
)

var (
	// ErrCategoryNotFound indicates the parent category does not exist.
	ErrCategoryNotFound = errors.New("category not found")
	// ErrTopicNotFound indicates the parent topic does not exist.
	ErrTopicNotFound = errors.New("topic not found")
	// ErrSubtopicNotFound indicates the parent subtopic does not exist.
	ErrSubtopicNotFound = errors.New("subtopic not found")
	// ErrProblemNotFound indicates the problem does not exist.
	ErrProblemNotFound = errors.New("problem not found")
	// ErrCatalogConflict indicates a slug or sort order is already used under the same parent.
	ErrCatalogConflict = errors.New("catalog entry already exists")
)

var slugInvalidChars = regexp.MustCompile(`[^a-z0-9]+`)

// CatalogService exposes the problem catalog.
type CatalogService interface {
	Tree(ctx context.Context) ([]dto.CategoryNode, error)
	ListProblems(ctx context.Context, query dto.ProblemListQuery) (dto.ProblemListResponse, error)
	GetProblem(ctx context.Context, id uint) (dto.ProblemDetail, error)
	ProblemByLocation(ctx context.Context, query dto.ProblemLocationQuery) (dto.ProblemDetail, error)
	LoadProblem(ctx context.Context, id uint) (models.Problem, error)
	CreateCategory(ctx context.Context, req dto.CategoryCreateRequest) (dto.CategoryNode, error)
	CreateTopic(ctx context.Context, req dto.TopicCreateRequest) (dto.TopicNode, error)
	CreateSubtopic(ctx context.Context, req dto.SubtopicCreateRequest) (dto.SubtopicNode, error)
	CreateProblem(ctx context.Context, req dto.ProblemUpsertRequest) (dto.ProblemDetail, error)
	UpdateProblem(ctx context.Context, id uint, req dto.ProblemUpsertRequest) (dto.ProblemDetail, error)
	DeleteProblem(ctx context.Context, id uint) error
}

type catalogService struct {
	repo      repository.CatalogRepository
	cache     *redis.Client
	ttl       time.Duration
	validator *validator.Validate
	policy    *bluemonday.Policy
	logger    zerolog.Logger
}

// NewCatalogService constructs the catalog service. cache may be nil.
func NewCatalogService(repo repository.CatalogRepository, cache *redis.Client, ttl time.Duration, validate *validator.Validate, logger zerolog.Logger) CatalogService {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &catalogService{
		repo:      repo,
		cache:     cache,
		ttl:       ttl,
		validator: validate,
		policy:    bluemonday.UGCPolicy(),
		logger:    logger.With().Str("component", "catalog_service").Logger(),
	}
}

func (s *catalogService) Tree(ctx context.Context) ([]dto.CategoryNode, error) {
	var tree []dto.CategoryNode
	if s.readCache(ctx, catalogTreeCacheKey, &tree) {
		observability.CatalogCache().WithLabelValues("hit").Inc()
		return tree, nil
	}

	categories, err := s.repo.Tree(ctx)
	if err != nil {
		observability.CatalogCache().WithLabelValues("error").Inc()
		return nil, fmt.Errorf("load catalog tree: %w", err)
	}
	tree = dto.NewCategoryTree(categories)

	s.writeCache(ctx, catalogTreeCacheKey, tree)
	observability.CatalogCache().WithLabelValues("miss").Inc()
	return tree, nil
}

func (s *catalogService) readCache(ctx context.Context, key string, dest interface{}) bool {
	if s.cache == nil {
		return false
	}
	payload, err := s.cache.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Str("key", key).Msg("failed to read catalog cache")
		}
		return false
	}

	if err := json.Unmarshal(payload, dest); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("failed to decode catalog cache")
		return false
	}
	return true
}

func (s *catalogService) writeCache(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	payload, err := json.Marshal(value)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to encode catalog cache")
		return
	}
	if err := s.cache.Set(ctx, key, payload, s.ttl).Err(); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("failed to store catalog cache")
	}
}

// invalidate drops the cached tree and every cached problem page.
func (s *catalogService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	keys := []string{catalogTreeCacheKey}
	iter := s.cache.Scan(ctx, 0, catalogProblemsCachePrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to scan catalog cache")
	}
	if err := s.cache.Del(ctx, keys...).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to invalidate catalog cache")
	}
}

func problemListCacheKey(filter repository.ProblemFilter) string {
	return fmt.Sprintf("%s%s|%s|%s|%s|%s|%s|%d|%d", catalogProblemsCachePrefix,
		strings.ToLower(filter.Category), strings.ToLower(filter.Topic), strings.ToLower(filter.Subtopic),
		filter.Difficulty, filter.Kind, strings.ToLower(filter.Search), filter.Page, filter.PageSize)
}

func (s *catalogService) ListProblems(ctx context.Context, query dto.ProblemListQuery) (dto.ProblemListResponse, error) {
	if err := s.validator.Struct(query); err != nil {
		return dto.ProblemListResponse{}, err
	}

	filter := repository.ProblemFilter{
		Category:   strings.TrimSpace(query.Category),
		Topic:      strings.TrimSpace(query.Topic),
		Subtopic:   strings.TrimSpace(query.Subtopic),
		Difficulty: query.Difficulty,
		Kind:       query.Kind,
		Search:     strings.TrimSpace(query.Search),
		Page:       normalizePage(query.Page),
		PageSize:   clampPageSize(query.PageSize),
	}

	key := problemListCacheKey(filter)
	var cached dto.ProblemListResponse
	if s.readCache(ctx, key, &cached) {
		observability.CatalogCache().WithLabelValues("hit").Inc()
		return cached, nil
	}

	problems, total, err := s.repo.ListProblems(ctx, filter)
	if err != nil {
		observability.CatalogCache().WithLabelValues("error").Inc()
		return dto.ProblemListResponse{}, fmt.Errorf("list problems: %w", err)
	}

	items := make([]dto.ProblemSummary, 0, len(problems))
	for _, problem := range problems {
		items = append(items, dto.NewProblemSummary(problem))
	}

	page := dto.ProblemListResponse{
		Items: items,
		Pagination: dto.CatalogPagination{
			Page:       filter.Page,
			PageSize:   filter.PageSize,
			TotalItems: total,
			TotalPages: calculateTotalPages(total, filter.PageSize),
		},
	}
	s.writeCache(ctx, key, page)
	observability.CatalogCache().WithLabelValues("miss").Inc()
	return page, nil
}

func (s *catalogService) GetProblem(ctx context.Context, id uint) (dto.ProblemDetail, error) {
	problem, err := s.LoadProblem(ctx, id)
	if err != nil {
		return dto.ProblemDetail{}, err
	}
	return dto.NewProblemDetail(problem), nil
}

// LoadProblem returns the full problem model including every test case.
func (s *catalogService) LoadProblem(ctx context.Context, id uint) (models.Problem, error) {
	problem, err := s.repo.GetProblem(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Problem{}, ErrProblemNotFound
		}
		return models.Problem{}, fmt.Errorf("load problem: %w", err)
	}
	return problem, nil
}

func (s *catalogService) ProblemByLocation(ctx context.Context, query dto.ProblemLocationQuery) (dto.ProblemDetail, error) {
	if err := s.validator.Struct(query); err != nil {
		return dto.ProblemDetail{}, err
	}
	problem, err := s.repo.FindProblemByLocation(ctx, repository.ProblemLocation{
		Category:  strings.TrimSpace(query.Category),
		Topic:     strings.TrimSpace(query.Topic),
		Subtopic:  strings.TrimSpace(query.Subtopic),
		SortOrder: query.SortOrder,
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ProblemDetail{}, ErrProblemNotFound
		}
		return dto.ProblemDetail{}, fmt.Errorf("find problem: %w", err)
	}
	return dto.NewProblemDetail(problem), nil
}

func (s *catalogService) CreateCategory(ctx context.Context, req dto.CategoryCreateRequest) (dto.CategoryNode, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.CategoryNode{}, err
	}
	category := models.Category{
		Name:        strings.TrimSpace(req.Name),
		Slug:        slugOrName(req.Slug, req.Name),
		Description: s.policy.Sanitize(req.Description),
		SortOrder:   req.SortOrder,
	}
	if err := s.repo.CreateCategory(ctx, &category); err != nil {
		return dto.CategoryNode{}, translateCatalogWriteError(err)
	}
	s.invalidate(ctx)
	return dto.CategoryNode{
		ID:          category.ID,
		Name:        category.Name,
		Slug:        category.Slug,
		Description: category.Description,
		SortOrder:   category.SortOrder,
		Topics:      []dto.TopicNode{},
	}, nil
}

func (s *catalogService) CreateTopic(ctx context.Context, req dto.TopicCreateRequest) (dto.TopicNode, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.TopicNode{}, err
	}
	exists, err := s.repo.CategoryExists(ctx, req.CategoryID)
	if err != nil {
		return dto.TopicNode{}, fmt.Errorf("check category: %w", err)
	}
	if !exists {
		return dto.TopicNode{}, ErrCategoryNotFound
	}

	topic := models.Topic{
		CategoryID:  req.CategoryID,
		Name:        strings.TrimSpace(req.Name),
		Slug:        slugOrName(req.Slug, req.Name),
		Description: s.policy.Sanitize(req.Description),
		SortOrder:   req.SortOrder,
	}
	if err := s.repo.CreateTopic(ctx, &topic); err != nil {
		return dto.TopicNode{}, translateCatalogWriteError(err)
	}
	s.invalidate(ctx)
	return dto.TopicNode{
		ID:          topic.ID,
		Name:        topic.Name,
		Slug:        topic.Slug,
		Description: topic.Description,
		SortOrder:   topic.SortOrder,
		Subtopics:   []dto.SubtopicNode{},
	}, nil
}

func (s *catalogService) CreateSubtopic(ctx context.Context, req dto.SubtopicCreateRequest) (dto.SubtopicNode, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.SubtopicNode{}, err
	}
	exists, err := s.repo.TopicExists(ctx, req.TopicID)
	if err != nil {
		return dto.SubtopicNode{}, fmt.Errorf("check topic: %w", err)
	}
	if !exists {
		return dto.SubtopicNode{}, ErrTopicNotFound
	}

	subtopic := models.Subtopic{
		TopicID:     req.TopicID,
		Name:        strings.TrimSpace(req.Name),
		Slug:        slugOrName(req.Slug, req.Name),
		Description: s.policy.Sanitize(req.Description),
		SortOrder:   req.SortOrder,
	}
	if err := s.repo.CreateSubtopic(ctx, &subtopic); err != nil {
		return dto.SubtopicNode{}, translateCatalogWriteError(err)
	}
	s.invalidate(ctx)
	return dto.SubtopicNode{
		ID:          subtopic.ID,
		Name:        subtopic.Name,
		Slug:        subtopic.Slug,
		Description: subtopic.Description,
		SortOrder:   subtopic.SortOrder,
	}, nil
}

func (s *catalogService) CreateProblem(ctx context.Context, req dto.ProblemUpsertRequest) (dto.ProblemDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.ProblemDetail{}, err
	}
	if err := s.ensureSubtopic(ctx, req.SubtopicID); err != nil {
		return dto.ProblemDetail{}, err
	}

	var problem models.Problem
	s.applyProblem(&problem, req)
	if err := s.repo.CreateProblem(ctx, &problem); err != nil {
		return dto.ProblemDetail{}, translateCatalogWriteError(err)
	}
	s.invalidate(ctx)
	s.logger.Info().Uint("problem_id", problem.ID).Msg("problem created")
	return s.GetProblem(ctx, problem.ID)
}

func (s *catalogService) UpdateProblem(ctx context.Context, id uint, req dto.ProblemUpsertRequest) (dto.ProblemDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.ProblemDetail{}, err
	}
	problem, err := s.LoadProblem(ctx, id)
	if err != nil {
		return dto.ProblemDetail{}, err
	}
	if err := s.ensureSubtopic(ctx, req.SubtopicID); err != nil {
		return dto.ProblemDetail{}, err
	}

	s.applyProblem(&problem, req)
	problem.Subtopic = nil
	if err := s.repo.UpdateProblem(ctx, &problem); err != nil {
		return dto.ProblemDetail{}, translateCatalogWriteError(err)
	}
	s.invalidate(ctx)
	return s.GetProblem(ctx, problem.ID)
}

func (s *catalogService) DeleteProblem(ctx context.Context, id uint) error {
	if err := s.repo.DeleteProblem(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProblemNotFound
		}
		return fmt.Errorf("delete problem: %w", err)
	}
	s.invalidate(ctx)
	return nil
}

func (s *catalogService) ensureSubtopic(ctx context.Context, id uint) error {
	exists, err := s.repo.SubtopicExists(ctx, id)
	if err != nil {
		return fmt.Errorf("check subtopic: %w", err)
	}
	if !exists {
		return ErrSubtopicNotFound
	}
	return nil
}

func (s *catalogService) applyProblem(problem *models.Problem, req dto.ProblemUpsertRequest) {
	kind := req.Kind
	if kind == "" {
		kind = models.ProblemKindCode
	}
	testCases := make([]models.ProblemTestCase, 0, len(req.TestCases))
	for _, tc := range req.TestCases {
		testCases = append(testCases, models.ProblemTestCase{
			Input:       tc.Input,
			Expected:    tc.Expected,
			Explanation: strings.TrimSpace(tc.Explanation),
		})
	}

	problem.SubtopicID = req.SubtopicID
	problem.Title = strings.TrimSpace(req.Title)
	problem.Description = s.policy.Sanitize(req.Description)
	problem.Difficulty = req.Difficulty
	problem.Kind = kind
	problem.SortOrder = req.SortOrder
	problem.StarterCode = req.StarterCode
	problem.TestCases = testCases
}

func slugOrName(slug, name string) string {
	if slug = strings.TrimSpace(slug); slug == "" {
		slug = name
	}
	slug = slugInvalidChars.ReplaceAllString(strings.ToLower(slug), "-")
	return strings.Trim(slug, "-")
}

func translateCatalogWriteError(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrCatalogConflict
	}
	message := strings.ToLower(err.Error())
	if strings.Contains(message, "unique") || strings.Contains(message, "duplicate") {
		return ErrCatalogConflict
	}
	return err
}
