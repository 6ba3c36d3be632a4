package dto

import "github.com/noah-isme/loopwar-api/internal/models"

// CatalogPagination describes page metadata for problem listings.
type CatalogPagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"pageSize"`
	TotalItems int64 `json:"totalItems"`
	TotalPages int   `json:"totalPages"`
}

// CategoryNode is a category with its nested topics.
type CategoryNode struct {
	ID          uint        `json:"id"`
	Name        string      `json:"name"`
	Slug        string      `json:"slug"`
	Description string      `json:"description,omitempty"`
	SortOrder   int         `json:"sortOrder"`
	Topics      []TopicNode `json:"topics"`
}

// TopicNode is a topic with its nested subtopics.
type TopicNode struct {
	ID          uint           `json:"id"`
	Name        string         `json:"name"`
	Slug        string         `json:"slug"`
	Description string         `json:"description,omitempty"`
	SortOrder   int            `json:"sortOrder"`
	Subtopics   []SubtopicNode `json:"subtopics"`
}

// SubtopicNode is a leaf of the catalog tree.
type SubtopicNode struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description,omitempty"`
	SortOrder   int    `json:"sortOrder"`
}

// ProblemListQuery filters problem listings.
type ProblemListQuery struct {
	Category   string `query:"category" validate:"omitempty,max=128"`
	Topic      string `query:"topic" validate:"omitempty,max=128"`
	Subtopic   string `query:"subtopic" validate:"omitempty,max=128"`
	Difficulty string `query:"difficulty" validate:"omitempty,oneof=easy medium hard"`
	Kind       string `query:"kind" validate:"omitempty,oneof=code mcq quiz"`
	Search     string `query:"search" validate:"omitempty,max=128"`
	Page       int    `query:"page" validate:"gte=0"`
	PageSize   int    `query:"pageSize" validate:"gte=0"`
}

// ProblemLocationQuery addresses a problem by slugs and position.
type ProblemLocationQuery struct {
	Category  string `query:"category" validate:"required"`
	Topic     string `query:"topic" validate:"required"`
	Subtopic  string `query:"subtopic" validate:"required"`
	SortOrder int    `query:"sortOrder" validate:"gte=0"`
}

// ProblemSummary is a problem without its statement or test cases.
type ProblemSummary struct {
	ID         uint   `json:"id"`
	Title      string `json:"title"`
	Difficulty string `json:"difficulty"`
	Kind       string `json:"kind"`
	SortOrder  int    `json:"sortOrder"`
	SubtopicID uint   `json:"subtopicId"`
	Category   string `json:"category,omitempty"`
	Topic      string `json:"topic,omitempty"`
	Subtopic   string `json:"subtopic,omitempty"`
}

// ProblemListResponse is a page of problems.
type ProblemListResponse struct {
	Items      []ProblemSummary  `json:"items"`
	Pagination CatalogPagination `json:"pagination"`
}

// ProblemDetail is a full problem. Only the first test case is shown as a sample.
type ProblemDetail struct {
	ProblemSummary
	Description string                   `json:"description"`
	StarterCode string                   `json:"starterCode"`
	Examples    []models.ProblemTestCase `json:"examples"`
	TestCount   int                      `json:"testCount"`
}

// CategoryCreateRequest creates a category.
type CategoryCreateRequest struct {
	Name        string `json:"name" validate:"required,max=128"`
	Slug        string `json:"slug" validate:"omitempty,max=128"`
	Description string `json:"description" validate:"omitempty,max=2000"`
	SortOrder   int    `json:"sortOrder" validate:"gte=0"`
}

// TopicCreateRequest creates a topic inside a category.
type TopicCreateRequest struct {
	CategoryID  uint   `json:"categoryId" validate:"required,gt=0"`
	Name        string `json:"name" validate:"required,max=128"`
	Slug        string `json:"slug" validate:"omitempty,max=128"`
	Description string `json:"description" validate:"omitempty,max=2000"`
	SortOrder   int    `json:"sortOrder" validate:"gte=0"`
}

// SubtopicCreateRequest creates a subtopic inside a topic.
type SubtopicCreateRequest struct {
	TopicID     uint   `json:"topicId" validate:"required,gt=0"`
	Name        string `json:"name" validate:"required,max=128"`
	Slug        string `json:"slug" validate:"omitempty,max=128"`
	Description string `json:"description" validate:"omitempty,max=2000"`
	SortOrder   int    `json:"sortOrder" validate:"gte=0"`
}

// ProblemTestCaseInput is an admin supplied test case.
type ProblemTestCaseInput struct {
	Input       string `json:"input"`
	Expected    string `json:"expected" validate:"required"`
	Explanation string `json:"explanation" validate:"omitempty,max=1000"`
}

// ProblemUpsertRequest creates or replaces a problem.
type ProblemUpsertRequest struct {
	SubtopicID  uint                   `json:"subtopicId" validate:"required,gt=0"`
	Title       string                 `json:"title" validate:"required,max=255"`
	Description string                 `json:"description" validate:"required"`
	Difficulty  string                 `json:"difficulty" validate:"required,oneof=easy medium hard"`
	Kind        string                 `json:"kind" validate:"omitempty,oneof=code mcq quiz"`
	SortOrder   int                    `json:"sortOrder" validate:"gte=0"`
	StarterCode string                 `json:"starterCode"`
	TestCases   []ProblemTestCaseInput `json:"testCases" validate:"dive"`
}

// NewCategoryTree converts loaded categories into the nested response shape.
func NewCategoryTree(categories []models.Category) []CategoryNode {
	tree := make([]CategoryNode, 0, len(categories))
	for _, category := range categories {
		node := CategoryNode{
			ID:          category.ID,
			Name:        category.Name,
			Slug:        category.Slug,
			Description: category.Description,
			SortOrder:   category.SortOrder,
			Topics:      make([]TopicNode, 0, len(category.Topics)),
		}
		for _, topic := range category.Topics {
			topicNode := TopicNode{
				ID:          topic.ID,
				Name:        topic.Name,
				Slug:        topic.Slug,
				Description: topic.Description,
				SortOrder:   topic.SortOrder,
				Subtopics:   make([]SubtopicNode, 0, len(topic.Subtopics)),
			}
			for _, subtopic := range topic.Subtopics {
				topicNode.Subtopics = append(topicNode.Subtopics, SubtopicNode{
					ID:          subtopic.ID,
					Name:        subtopic.Name,
					Slug:        subtopic.Slug,
					Description: subtopic.Description,
					SortOrder:   subtopic.SortOrder,
				})
			}
			node.Topics = append(node.Topics, topicNode)
		}
		tree = append(tree, node)
	}
	return tree
}

// NewProblemSummary converts a problem model.
func NewProblemSummary(problem models.Problem) ProblemSummary {
	category, topic, subtopic := problem.Location()
	return ProblemSummary{
		ID:         problem.ID,
		Title:      problem.Title,
		Difficulty: problem.Difficulty,
		Kind:       problem.Kind,
		SortOrder:  problem.SortOrder,
		SubtopicID: problem.SubtopicID,
		Category:   category,
		Topic:      topic,
		Subtopic:   subtopic,
	}
}

// NewProblemDetail converts a problem model, exposing only the first test case.
func NewProblemDetail(problem models.Problem) ProblemDetail {
	examples := []models.ProblemTestCase{}
	if len(problem.TestCases) > 0 {
		examples = append(examples, problem.TestCases[0])
	}
	return ProblemDetail{
		ProblemSummary: NewProblemSummary(problem),
		Description:    problem.Description,
		StarterCode:    problem.StarterCode,
		Examples:       examples,
		TestCount:      len(problem.TestCases),
	}
}
