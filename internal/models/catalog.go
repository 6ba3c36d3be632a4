package models

import (
	"time"

	"gorm.io/datatypes"
)

// Problem difficulty levels.
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// Problem kinds.
const (
	ProblemKindCode = "code"
	ProblemKindMCQ  = "mcq"
	ProblemKindQuiz = "quiz"
)

// Category is the top level of the problem catalog.
type Category struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:128;not null" json:"name"`
	Slug        string    `gorm:"size:128;uniqueIndex;not null" json:"slug"`
	Description string    `gorm:"type:text" json:"description"`
	SortOrder   int       `gorm:"not null" json:"sort_order"`
	Topics      []Topic   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"topics,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Topic groups subtopics inside a category.
type Topic struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	CategoryID  uint       `gorm:"not null;uniqueIndex:idx_topics_category_slug" json:"category_id"`
	Name        string     `gorm:"size:128;not null" json:"name"`
	Slug        string     `gorm:"size:128;not null;uniqueIndex:idx_topics_category_slug" json:"slug"`
	Description string     `gorm:"type:text" json:"description"`
	SortOrder   int        `gorm:"not null" json:"sort_order"`
	Category    *Category  `json:"category,omitempty"`
	Subtopics   []Subtopic `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"subtopics,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Subtopic holds an ordered run of problems.
type Subtopic struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	TopicID     uint      `gorm:"not null;uniqueIndex:idx_subtopics_topic_slug" json:"topic_id"`
	Name        string    `gorm:"size:128;not null" json:"name"`
	Slug        string    `gorm:"size:128;not null;uniqueIndex:idx_subtopics_topic_slug" json:"slug"`
	Description string    `gorm:"type:text" json:"description"`
	SortOrder   int       `gorm:"not null" json:"sort_order"`
	Topic       *Topic    `json:"topic,omitempty"`
	Problems    []Problem `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"problems,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProblemTestCase is one input/expected-output pair used by the judge and the AI reviewer.
type ProblemTestCase struct {
	Input       string `json:"input"`
	Expected    string `json:"expected"`
	Explanation string `json:"explanation,omitempty"`
}

// Problem is a single exercise positioned by sort order within a subtopic.
type Problem struct {
	ID          uint                                `gorm:"primaryKey" json:"id"`
	SubtopicID  uint                                `gorm:"not null;uniqueIndex:idx_problems_subtopic_order" json:"subtopic_id"`
	Title       string                              `gorm:"size:255;not null" json:"title"`
	Description string                              `gorm:"type:text" json:"description"`
	Difficulty  string                              `gorm:"size:16;not null" json:"difficulty"`
	Kind        string                              `gorm:"size:16;not null" json:"kind"`
	SortOrder   int                                 `gorm:"not null;uniqueIndex:idx_problems_subtopic_order" json:"sort_order"`
	StarterCode string                              `gorm:"type:text" json:"starter_code"`
	TestCases   datatypes.JSONSlice[ProblemTestCase] `json:"test_cases"`
	Subtopic    *Subtopic                           `json:"subtopic,omitempty"`
	CreatedAt   time.Time                           `json:"created_at"`
	UpdatedAt   time.Time                           `json:"updated_at"`
}

// Location returns the category, topic and subtopic names when the parents are loaded.
func (p Problem) Location() (category, topic, subtopic string) {
	if p.Subtopic == nil {
		return "", "", ""
	}
	subtopic = p.Subtopic.Name
	if p.Subtopic.Topic != nil {
		topic = p.Subtopic.Topic.Name
		if p.Subtopic.Topic.Category != nil {
			category = p.Subtopic.Topic.Category.Name
		}
	}
	return category, topic, subtopic
}

// LocationSlugs returns the category, topic and subtopic slugs when the parents are loaded.
func (p Problem) LocationSlugs() (category, topic, subtopic string) {
	if p.Subtopic == nil {
		return "", "", ""
	}
	subtopic = p.Subtopic.Slug
	if p.Subtopic.Topic != nil {
		topic = p.Subtopic.Topic.Slug
		if p.Subtopic.Topic.Category != nil {
			category = p.Subtopic.Topic.Category.Slug
		}
	}
	return category, topic, subtopic
}
