package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/noah-isme/loopwar-api/internal/dto"
	"github.com/noah-isme/loopwar-api/internal/grading"
	"github.com/noah-isme/loopwar-api/pkg/ai"
)

// ErrAIUnavailable indicates no AI model is configured on this instance.
var ErrAIUnavailable = errors.New("ai assistant is not available")

// ErrAIResponseInvalid indicates the model returned something that is not a grading result.
var ErrAIResponseInvalid = errors.New("ai review returned an invalid result")

// CodeCheckService grades code with the AI reviewer.
type CodeCheckService interface {
	Check(ctx context.Context, req dto.CodeCheckRequest) (json.RawMessage, error)
}

type codeCheckService struct {
	problems  ProblemLoader
	reviewer  ai.CodeReviewer
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewCodeCheckService constructs the check service. reviewer may be nil when no model is configured.
func NewCodeCheckService(problems ProblemLoader, reviewer ai.CodeReviewer, validate *validator.Validate, logger zerolog.Logger) CodeCheckService {
	return &codeCheckService{
		problems:  problems,
		reviewer:  reviewer,
		validator: validate,
		logger:    logger.With().Str("component", "code_check_service").Logger(),
	}
}

func (s *codeCheckService) Check(ctx context.Context, req dto.CodeCheckRequest) (json.RawMessage, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	problem, err := s.problems.LoadProblem(ctx, req.ProblemID)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(req.Code) == "" {
		return emptyCodeReview()
	}
	if s.reviewer == nil {
		return nil, ErrAIUnavailable
	}

	cases := make([]ai.TestCase, 0, len(problem.TestCases))
	for _, tc := range problem.TestCases {
		cases = append(cases, ai.TestCase{Input: tc.Input, Expected: tc.Expected})
	}

	raw, err := s.reviewer.Review(ctx, ai.ReviewInput{
		ProblemTitle: problem.Title,
		Description:  problem.Description,
		Language:     req.Language,
		Code:         req.Code,
		TestCases:    cases,
	})
	if err != nil {
		return nil, fmt.Errorf("review code: %w", err)
	}

	result, err := grading.Decode(raw)
	if err != nil || result.Kind != grading.KindAI {
		s.logger.Warn().Err(err).Uint("problem_id", problem.ID).Msg("ai review did not match the grading shape")
		return nil, ErrAIResponseInvalid
	}
	return result.Raw, nil
}

func emptyCodeReview() (json.RawMessage, error) {
	result, err := grading.FromAI(grading.AIAnalysis{
		Success:   true,
		IsCorrect: false,
		Score:     0,
		Feedback:  "No code was submitted. Write a solution before checking it.",
		DetailedAnalysis: &grading.DetailedAnalysis{
			Syntax: &grading.SyntaxAnalysis{IsValid: false, Issues: []string{"Code is empty"}},
		},
		Hints: []string{"Start from the starter code and implement the function body."},
	})
	if err != nil {
		return nil, err
	}
	return result.Raw, nil
}
