package dto

import (
	"encoding/json"
	"time"

	"github.com/noah-isme/loopwar-api/internal/models"
)

// CodeSubmissionRequest is the payload for recording a graded attempt.
type CodeSubmissionRequest struct {
	ProblemID uint            `json:"problemId" validate:"required,gt=0"`
	Code      string          `json:"code" validate:"required"`
	Language  string          `json:"language" validate:"required,max=32"`
	Result    json.RawMessage `json:"result" validate:"required"`
	Category  string          `json:"category" validate:"omitempty,max=128"`
	Topic     string          `json:"topic" validate:"omitempty,max=128"`
	Subtopic  string          `json:"subtopic" validate:"omitempty,max=128"`
	SortOrder int             `json:"sortOrder" validate:"gte=0"`
}

// CodeSubmissionResult is returned after a submission has been recorded.
type CodeSubmissionResult struct {
	SubmissionID    uint     `json:"submissionId"`
	Status          string   `json:"status"`
	PassedTestCases int      `json:"passedTestCases"`
	TotalTestCases  int      `json:"totalTestCases"`
	ExecutionTime   *float64 `json:"executionTime"`
	MemoryUsed      *float64 `json:"memoryUsed"`
	Success         bool     `json:"success"`
}

// CodeSubmissionListQuery filters the caller's submission history.
type CodeSubmissionListQuery struct {
	ProblemID *uint
	Limit     int
}

// CodeSubmissionSummary is a submission without its code or raw result.
type CodeSubmissionSummary struct {
	ID              uint      `json:"id"`
	ProblemID       uint      `json:"problemId"`
	Language        string    `json:"language"`
	Status          string    `json:"status"`
	PassedTestCases int       `json:"passedTestCases"`
	TotalTestCases  int       `json:"totalTestCases"`
	ExecutionTime   *float64  `json:"executionTime"`
	MemoryUsed      *float64  `json:"memoryUsed"`
	Category        string    `json:"category"`
	Topic           string    `json:"topic"`
	Subtopic        string    `json:"subtopic"`
	SortOrder       int       `json:"sortOrder"`
	SubmittedAt     time.Time `json:"submittedAt"`
}

// CodeSubmissionDetail is a single submission including code and the stored grading payload.
type CodeSubmissionDetail struct {
	CodeSubmissionSummary
	Code   string          `json:"code"`
	Result json.RawMessage `json:"result"`
}

// CodeProgressResponse is the per-problem progress summary.
type CodeProgressResponse struct {
	ProblemID        uint       `json:"problemId"`
	Category         string     `json:"category"`
	Topic            string     `json:"topic"`
	Subtopic         string     `json:"subtopic"`
	SortOrder        int        `json:"sortOrder"`
	AttemptsCount    int        `json:"attemptsCount"`
	IsSolved         bool       `json:"isSolved"`
	BestSubmissionID *uint      `json:"bestSubmissionId"`
	FirstSolvedAt    *time.Time `json:"firstSolvedAt"`
	LastAttemptAt    time.Time  `json:"lastAttemptAt"`
}

// NewCodeSubmissionSummary converts a model into its list representation.
func NewCodeSubmissionSummary(submission models.CodeSubmission) CodeSubmissionSummary {
	return CodeSubmissionSummary{
		ID:              submission.ID,
		ProblemID:       submission.ProblemID,
		Language:        submission.Language,
		Status:          submission.Status,
		PassedTestCases: submission.PassedTestCases,
		TotalTestCases:  submission.TotalTestCases,
		ExecutionTime:   submission.ExecutionTime,
		MemoryUsed:      submission.MemoryUsed,
		Category:        submission.Category,
		Topic:           submission.Topic,
		Subtopic:        submission.Subtopic,
		SortOrder:       submission.SortOrder,
		SubmittedAt:     submission.CreatedAt,
	}
}

// NewCodeSubmissionDetail converts a model including its code and raw result.
func NewCodeSubmissionDetail(submission models.CodeSubmission) CodeSubmissionDetail {
	return CodeSubmissionDetail{
		CodeSubmissionSummary: NewCodeSubmissionSummary(submission),
		Code:                  submission.Code,
		Result:                json.RawMessage(submission.TestResults),
	}
}

// NewCodeProgressResponse converts a progress row.
func NewCodeProgressResponse(progress models.CodeProgress) CodeProgressResponse {
	return CodeProgressResponse{
		ProblemID:        progress.ProblemID,
		Category:         progress.Category,
		Topic:            progress.Topic,
		Subtopic:         progress.Subtopic,
		SortOrder:        progress.SortOrder,
		AttemptsCount:    progress.AttemptsCount,
		IsSolved:         progress.IsSolved,
		BestSubmissionID: progress.BestSubmissionID,
		FirstSolvedAt:    progress.FirstSolvedAt,
		LastAttemptAt:    progress.LastAttemptAt,
	}
}
