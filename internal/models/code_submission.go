package models

import (
	"time"

	"gorm.io/datatypes"
)

// CodeSubmission is an immutable record of one graded attempt.
type CodeSubmission struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	UserID          uint           `gorm:"not null;index:idx_code_submissions_user_problem" json:"user_id"`
	ProblemID       uint           `gorm:"not null;index:idx_code_submissions_user_problem" json:"problem_id"`
	Code            string         `gorm:"type:text;not null" json:"code"`
	Language        string         `gorm:"size:32;not null" json:"language"`
	Status          string         `gorm:"size:32;not null" json:"status"`
	TestResults     datatypes.JSON `json:"test_results"`
	ExecutionTime   *float64       `json:"execution_time"`
	MemoryUsed      *float64       `json:"memory_used"`
	TotalTestCases  int            `gorm:"not null" json:"total_test_cases"`
	PassedTestCases int            `gorm:"not null" json:"passed_test_cases"`
	Category        string         `gorm:"size:128" json:"category"`
	Topic           string         `gorm:"size:128" json:"topic"`
	Subtopic        string         `gorm:"size:128" json:"subtopic"`
	SortOrder       int            `json:"sort_order"`
	CreatedAt       time.Time      `gorm:"index" json:"created_at"`
}

// CodeProgress is the running per learner, per problem summary.
type CodeProgress struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	UserID           uint       `gorm:"not null;uniqueIndex:idx_user_code_progress_pair" json:"user_id"`
	ProblemID        uint       `gorm:"not null;uniqueIndex:idx_user_code_progress_pair" json:"problem_id"`
	Category         string     `gorm:"size:128" json:"category"`
	Topic            string     `gorm:"size:128" json:"topic"`
	Subtopic         string     `gorm:"size:128" json:"subtopic"`
	SortOrder        int        `json:"sort_order"`
	AttemptsCount    int        `gorm:"not null" json:"attempts_count"`
	IsSolved         bool       `gorm:"not null" json:"is_solved"`
	BestSubmissionID *uint      `json:"best_submission_id"`
	FirstSolvedAt    *time.Time `json:"first_solved_at"`
	LastAttemptAt    time.Time  `json:"last_attempt_at"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// TableName keeps the historical table name.
func (CodeProgress) TableName() string {
	return "user_code_progress"
}
