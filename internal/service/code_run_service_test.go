package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/loopwar-api/internal/dto"
	"github.com/noah-isme/loopwar-api/internal/grading"
	"github.com/noah-isme/loopwar-api/internal/models"
	"github.com/noah-isme/loopwar-api/pkg/ai"
	"github.com/noah-isme/loopwar-api/pkg/judge"
)

type stubProblemLoader struct {
	problems map[uint]models.Problem
}

func (s stubProblemLoader) LoadProblem(_ context.Context, id uint) (models.Problem, error) {
	problem, ok := s.problems[id]
	if !ok {
		return models.Problem{}, ErrProblemNotFound
	}
	return problem, nil
}

func sampleProblems() stubProblemLoader {
	return stubProblemLoader{problems: map[uint]models.Problem{
		1: {
			ID:          1,
			Title:       "Echo",
			Description: "Print the input",
			TestCases: []models.ProblemTestCase{
				{Input: "a", Expected: "a"},
				{Input: "b", Expected: "b"},
			},
		},
		2: {ID: 2, Title: "Empty"},
	}}
}

type stubJudge struct {
	got    judge.RunRequest
	result judge.Result
	err    error
}

func (s *stubJudge) Run(_ context.Context, req judge.RunRequest) (judge.Result, error) {
	s.got = req
	return s.result, s.err
}

func TestCodeRunServiceExecutePassesProblemTestCases(t *testing.T) {
	sandbox := &stubJudge{result: judge.Result{Success: true, OverallStatus: "All 2 tests passed!"}}
	svc := NewCodeRunService(sampleProblems(), sandbox, validator.New(), zerolog.Nop())

	result, err := svc.Execute(context.Background(), dto.CodeRunRequest{ProblemID: 1, Code: "print(input())", Language: "python"})
	require.NoError(t, err)
	require.True(t, result.Success)
	require.Len(t, sandbox.got.TestCases, 2)
	require.Equal(t, "b", sandbox.got.TestCases[1].Expected)
}

func TestCodeRunServiceExecuteErrors(t *testing.T) {
	ctx := context.Background()

	svc := NewCodeRunService(sampleProblems(), nil, validator.New(), zerolog.Nop())
	_, err := svc.Execute(ctx, dto.CodeRunRequest{ProblemID: 1, Code: "x", Language: "python"})
	require.ErrorIs(t, err, ErrJudgeUnavailable)

	sandbox := &stubJudge{err: errors.New("docker daemon gone")}
	svc = NewCodeRunService(sampleProblems(), sandbox, validator.New(), zerolog.Nop())

	_, err = svc.Execute(ctx, dto.CodeRunRequest{ProblemID: 1, Code: "x", Language: "cobol"})
	require.ErrorIs(t, err, judge.ErrUnsupportedLanguage)

	_, err = svc.Execute(ctx, dto.CodeRunRequest{ProblemID: 2, Code: "x", Language: "python"})
	require.ErrorIs(t, err, ErrNoTestCases)

	_, err = svc.Execute(ctx, dto.CodeRunRequest{ProblemID: 404, Code: "x", Language: "python"})
	require.ErrorIs(t, err, ErrProblemNotFound)

	_, err = svc.Execute(ctx, dto.CodeRunRequest{ProblemID: 1, Code: "x", Language: "python"})
	require.ErrorContains(t, err, "docker daemon gone")
}

type stubReviewer struct {
	raw   json.RawMessage
	err   error
	calls int
	input ai.ReviewInput
}

func (s *stubReviewer) Review(_ context.Context, input ai.ReviewInput) (json.RawMessage, error) {
	s.calls++
	s.input = input
	return s.raw, s.err
}

func TestCodeCheckServiceEmptyCodeSkipsModel(t *testing.T) {
	reviewer := &stubReviewer{}
	svc := NewCodeCheckService(sampleProblems(), reviewer, validator.New(), zerolog.Nop())

	raw, err := svc.Check(context.Background(), dto.CodeCheckRequest{ProblemID: 1, Code: "   ", Language: "python"})
	require.NoError(t, err)
	require.Zero(t, reviewer.calls)

	result, err := grading.Decode(raw)
	require.NoError(t, err)
	require.Equal(t, grading.StatusCompilationError, grading.Classify(result))
}

func TestCodeCheckServiceReturnsReviewVerbatim(t *testing.T) {
	payload := `{"success":true,"isCorrect":true,"score":90,"feedback":"Nice"}`
	reviewer := &stubReviewer{raw: json.RawMessage(payload)}
	svc := NewCodeCheckService(sampleProblems(), reviewer, validator.New(), zerolog.Nop())

	raw, err := svc.Check(context.Background(), dto.CodeCheckRequest{ProblemID: 1, Code: "print(1)", Language: "python"})
	require.NoError(t, err)
	require.JSONEq(t, payload, string(raw))
	require.Equal(t, "Echo", reviewer.input.ProblemTitle)
	require.Len(t, reviewer.input.TestCases, 2)
}

func TestCodeCheckServiceRejectsNonAIShape(t *testing.T) {
	reviewer := &stubReviewer{raw: json.RawMessage(`{"success":true}`)}
	svc := NewCodeCheckService(sampleProblems(), reviewer, validator.New(), zerolog.Nop())

	_, err := svc.Check(context.Background(), dto.CodeCheckRequest{ProblemID: 1, Code: "print(1)", Language: "python"})
	require.ErrorIs(t, err, ErrAIResponseInvalid)

	svc = NewCodeCheckService(sampleProblems(), nil, validator.New(), zerolog.Nop())
	_, err = svc.Check(context.Background(), dto.CodeCheckRequest{ProblemID: 1, Code: "print(1)", Language: "python"})
	require.ErrorIs(t, err, ErrAIUnavailable)
}
