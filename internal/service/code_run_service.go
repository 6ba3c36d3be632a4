package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/noah-isme/loopwar-api/internal/dto"
	"github.com/noah-isme/loopwar-api/internal/models"
	"github.com/noah-isme/loopwar-api/pkg/judge"
)

var (
	// ErrJudgeUnavailable indicates no sandbox is configured on this instance.
	ErrJudgeUnavailable = errors.New("code execution is not available")
	// ErrNoTestCases indicates the problem has nothing to run against.
	ErrNoTestCases = errors.New("problem has no test cases")
)

// ProblemLoader resolves a problem with its full test case list.
type ProblemLoader interface {
	LoadProblem(ctx context.Context, id uint) (models.Problem, error)
}

// CodeRunService executes learner code against a problem's test cases.
type CodeRunService interface {
	Execute(ctx context.Context, req dto.CodeRunRequest) (judge.Result, error)
}

type codeRunService struct {
	problems  ProblemLoader
	judge     judge.Judge
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewCodeRunService constructs the run service. sandbox may be nil when Docker is unavailable.
func NewCodeRunService(problems ProblemLoader, sandbox judge.Judge, validate *validator.Validate, logger zerolog.Logger) CodeRunService {
	return &codeRunService{
		problems:  problems,
		judge:     sandbox,
		validator: validate,
		logger:    logger.With().Str("component", "code_run_service").Logger(),
	}
}

func (s *codeRunService) Execute(ctx context.Context, req dto.CodeRunRequest) (judge.Result, error) {
	if err := s.validator.Struct(req); err != nil {
		return judge.Result{}, err
	}
	if s.judge == nil {
		return judge.Result{}, ErrJudgeUnavailable
	}
	if _, ok := judge.LookupLanguage(req.Language); !ok {
		return judge.Result{}, fmt.Errorf("%w: %s", judge.ErrUnsupportedLanguage, strings.TrimSpace(req.Language))
	}

	problem, err := s.problems.LoadProblem(ctx, req.ProblemID)
	if err != nil {
		return judge.Result{}, err
	}
	if len(problem.TestCases) == 0 {
		return judge.Result{}, ErrNoTestCases
	}

	cases := make([]judge.TestCase, 0, len(problem.TestCases))
	for _, tc := range problem.TestCases {
		cases = append(cases, judge.TestCase{Input: tc.Input, Expected: tc.Expected})
	}

	result, err := s.judge.Run(ctx, judge.RunRequest{
		Language:  req.Language,
		Source:    req.Code,
		TestCases: cases,
	})
	if err != nil {
		return judge.Result{}, fmt.Errorf("run code: %w", err)
	}

	s.logger.Debug().
		Uint("problem_id", problem.ID).
		Str("language", req.Language).
		Bool("success", result.Success).
		Str("overall_status", result.OverallStatus).
		Msg("code executed")
	return result, nil
}
