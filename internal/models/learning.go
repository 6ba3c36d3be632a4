package models

import (
	"time"

	"gorm.io/datatypes"
)

// NoteDefinition is a term and its explanation.
type NoteDefinition struct {
	Term       string `json:"term"`
	Definition string `json:"definition"`
}

// NoteAnalogy ties a concept to a familiar comparison.
type NoteAnalogy struct {
	Concept string `json:"concept"`
	Analogy string `json:"analogy"`
}

// NoteExample is an illustrative example for a concept.
type NoteExample struct {
	Concept string `json:"concept"`
	Example string `json:"example"`
}

// LearningNote accumulates notes for one learner at one catalog location.
type LearningNote struct {
	ID          uint                                `gorm:"primaryKey" json:"id"`
	UserID      uint                                `gorm:"not null;uniqueIndex:idx_learning_notes_location" json:"user_id"`
	Category    string                              `gorm:"size:128;not null;uniqueIndex:idx_learning_notes_location" json:"category"`
	Topic       string                              `gorm:"size:128;not null;uniqueIndex:idx_learning_notes_location" json:"topic"`
	Subtopic    string                              `gorm:"size:128;not null;uniqueIndex:idx_learning_notes_location" json:"subtopic"`
	SortOrder   int                                 `gorm:"not null;uniqueIndex:idx_learning_notes_location" json:"sort_order"`
	Definitions datatypes.JSONSlice[NoteDefinition] `json:"definitions"`
	Analogies   datatypes.JSONSlice[NoteAnalogy]    `json:"analogies"`
	KeyInsights datatypes.JSONSlice[string]         `json:"key_insights"`
	Examples    datatypes.JSONSlice[NoteExample]    `json:"examples"`
	CreatedAt   time.Time                           `json:"created_at"`
	UpdatedAt   time.Time                           `json:"updated_at"`
}

// QuizQuestion is a multiple choice question.
type QuizQuestion struct {
	Question    string   `json:"question"`
	Options     []string `json:"options"`
	AnswerIndex int      `json:"answer_index"`
	Explanation string   `json:"explanation"`
}

// Quiz is a generated question set for one problem.
type Quiz struct {
	ID        uint                              `gorm:"primaryKey" json:"id"`
	UserID    uint                              `gorm:"not null;index" json:"user_id"`
	ProblemID uint                              `gorm:"not null;index" json:"problem_id"`
	Questions datatypes.JSONSlice[QuizQuestion] `json:"questions"`
	CreatedAt time.Time                         `json:"created_at"`
}

// QuizAttempt records a learner's answers to a quiz.
type QuizAttempt struct {
	ID        uint                     `gorm:"primaryKey" json:"id"`
	QuizID    uint                     `gorm:"not null;index" json:"quiz_id"`
	UserID    uint                     `gorm:"not null;index" json:"user_id"`
	Answers   datatypes.JSONSlice[int] `json:"answers"`
	Score     int                      `gorm:"not null" json:"score"`
	Total     int                      `gorm:"not null" json:"total"`
	CreatedAt time.Time                `json:"created_at"`
}
