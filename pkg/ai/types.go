package ai

import (
	"context"
	"encoding/json"
)

// TestCase is an input/expected-output pair shown to the model.
type TestCase struct {
	Input    string `json:"input"`
	Expected string `json:"expected"`
}

// ReviewInput contains the artefacts needed to review a coding attempt.
type ReviewInput struct {
	ProblemTitle string
	Description  string
	Language     string
	Code         string
	TestCases    []TestCase
}

// CodeReviewer grades code and returns the model's analysis as a JSON object carrying at least
// isCorrect, score, feedback and detailedAnalysis.
type CodeReviewer interface {
	Review(ctx context.Context, input ReviewInput) (json.RawMessage, error)
}

// Message is one turn of a tutoring conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Tutor produces the next assistant reply for a conversation.
type Tutor interface {
	Reply(ctx context.Context, system string, history []Message) (string, error)
}

// QuizInput describes the problem a quiz is generated for.
type QuizInput struct {
	ProblemTitle string
	Description  string
	Count        int
}

// QuizQuestion is one generated multiple choice question.
type QuizQuestion struct {
	Question    string   `json:"question"`
	Options     []string `json:"options"`
	AnswerIndex int      `json:"answerIndex"`
	Explanation string   `json:"explanation"`
}

// QuizGenerator writes multiple choice questions about a problem.
type QuizGenerator interface {
	GenerateQuiz(ctx context.Context, input QuizInput) ([]QuizQuestion, error)
}
