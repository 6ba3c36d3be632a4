package repository

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/noah-isme/loopwar-api/internal/models"
)

// ProblemFilter narrows problem list queries.
type ProblemFilter struct {
	Category   string
	Topic      string
	Subtopic   string
	Difficulty string
	Kind       string
	Search     string
	Page       int
	PageSize   int
}

// ProblemLocation addresses a problem by catalog slugs and position.
type ProblemLocation struct {
	Category  string
	Topic     string
	Subtopic  string
	SortOrder int
}

// CatalogRepository persists the category, topic, subtopic and problem hierarchy.
type CatalogRepository interface {
	Tree(ctx context.Context) ([]models.Category, error)
	CreateCategory(ctx context.Context, category *models.Category) error
	CreateTopic(ctx context.Context, topic *models.Topic) error
	CreateSubtopic(ctx context.Context, subtopic *models.Subtopic) error
	CategoryExists(ctx context.Context, id uint) (bool, error)
	TopicExists(ctx context.Context, id uint) (bool, error)
	SubtopicExists(ctx context.Context, id uint) (bool, error)
	CreateProblem(ctx context.Context, problem *models.Problem) error
	UpdateProblem(ctx context.Context, problem *models.Problem) error
	DeleteProblem(ctx context.Context, id uint) error
	GetProblem(ctx context.Context, id uint) (models.Problem, error)
	ListProblems(ctx context.Context, filter ProblemFilter) ([]models.Problem, int64, error)
	FindProblemByLocation(ctx context.Context, location ProblemLocation) (models.Problem, error)
}

type catalogRepository struct {
	db *gorm.DB
}

// NewCatalogRepository constructs the repository implementation.
func NewCatalogRepository(db *gorm.DB) CatalogRepository {
	return &catalogRepository{db: db}
}

func (r *catalogRepository) Tree(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	err := r.db.WithContext(ctx).
		Preload("Topics", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order ASC, id ASC") }).
		Preload("Topics.Subtopics", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order ASC, id ASC") }).
		Order("sort_order ASC, id ASC").
		Find(&categories).Error
	if err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *catalogRepository) CreateCategory(ctx context.Context, category *models.Category) error {
	return r.db.WithContext(ctx).Create(category).Error
}

func (r *catalogRepository) CreateTopic(ctx context.Context, topic *models.Topic) error {
	return r.db.WithContext(ctx).Create(topic).Error
}

func (r *catalogRepository) CreateSubtopic(ctx context.Context, subtopic *models.Subtopic) error {
	return r.db.WithContext(ctx).Create(subtopic).Error
}

func (r *catalogRepository) CategoryExists(ctx context.Context, id uint) (bool, error) {
	return r.exists(ctx, &models.Category{}, id)
}

func (r *catalogRepository) TopicExists(ctx context.Context, id uint) (bool, error) {
	return r.exists(ctx, &models.Topic{}, id)
}

func (r *catalogRepository) SubtopicExists(ctx context.Context, id uint) (bool, error) {
	return r.exists(ctx, &models.Subtopic{}, id)
}

func (r *catalogRepository) exists(ctx context.Context, model interface{}, id uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *catalogRepository) CreateProblem(ctx context.Context, problem *models.Problem) error {
	return r.db.WithContext(ctx).Omit("Subtopic").Create(problem).Error
}

func (r *catalogRepository) UpdateProblem(ctx context.Context, problem *models.Problem) error {
	return r.db.WithContext(ctx).Omit("Subtopic").Save(problem).Error
}

func (r *catalogRepository) DeleteProblem(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Problem{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *catalogRepository) GetProblem(ctx context.Context, id uint) (models.Problem, error) {
	var problem models.Problem
	if err := r.withLocation(r.db.WithContext(ctx)).First(&problem, id).Error; err != nil {
		return models.Problem{}, err
	}
	return problem, nil
}

func (r *catalogRepository) ListProblems(ctx context.Context, filter ProblemFilter) ([]models.Problem, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Problem{}).
		Joins("JOIN subtopics ON subtopics.id = problems.subtopic_id").
		Joins("JOIN topics ON topics.id = subtopics.topic_id").
		Joins("JOIN categories ON categories.id = topics.category_id")

	if filter.Category != "" {
		query = query.Where("categories.slug = ?", filter.Category)
	}
	if filter.Topic != "" {
		query = query.Where("topics.slug = ?", filter.Topic)
	}
	if filter.Subtopic != "" {
		query = query.Where("subtopics.slug = ?", filter.Subtopic)
	}
	if filter.Difficulty != "" {
		query = query.Where("problems.difficulty = ?", filter.Difficulty)
	}
	if filter.Kind != "" {
		query = query.Where("problems.kind = ?", filter.Kind)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := fmt.Sprintf("%%%s%%", strings.ToLower(search))
		query = query.Where("LOWER(problems.title) LIKE ? OR LOWER(problems.description) LIKE ?", like, like)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.PageSize > 0 {
		page := filter.Page
		if page <= 0 {
			page = 1
		}
		query = query.Offset((page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	var problems []models.Problem
	err := r.withLocation(query).
		Select("problems.*").
		Order("categories.sort_order ASC, topics.sort_order ASC, subtopics.sort_order ASC, problems.sort_order ASC").
		Find(&problems).Error
	if err != nil {
		return nil, 0, err
	}
	return problems, total, nil
}

func (r *catalogRepository) FindProblemByLocation(ctx context.Context, location ProblemLocation) (models.Problem, error) {
	var problem models.Problem
	err := r.withLocation(r.db.WithContext(ctx).Model(&models.Problem{})).
		Select("problems.*").
		Joins("JOIN subtopics ON subtopics.id = problems.subtopic_id").
		Joins("JOIN topics ON topics.id = subtopics.topic_id").
		Joins("JOIN categories ON categories.id = topics.category_id").
		Where("categories.slug = ? AND topics.slug = ? AND subtopics.slug = ? AND problems.sort_order = ?",
			location.Category, location.Topic, location.Subtopic, location.SortOrder).
		First(&problem).Error
	if err != nil {
		return models.Problem{}, err
	}
	return problem, nil
}

func (r *catalogRepository) withLocation(db *gorm.DB) *gorm.DB {
	return db.Preload("Subtopic.Topic.Category")
}
