// Package judge runs learner code against problem test cases inside sandbox containers and
// reports the outcome in the legacy per-test-case result shape.
package judge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ErrUnsupportedLanguage is returned for language tags the sandbox cannot run.
var ErrUnsupportedLanguage = errors.New("unsupported language")

const outputLimit = 64 * 1024

// TestCase is one stdin/expected-stdout pair.
type TestCase struct {
	Input    string `json:"input"`
	Expected string `json:"expected"`
}

// RunRequest is a program plus the test cases it should pass.
type RunRequest struct {
	Language  string
	Source    string
	TestCases []TestCase
}

// TestResult is the outcome of a single test case.
type TestResult struct {
	TestCase      int    `json:"testCase"`
	Passed        bool   `json:"passed"`
	Input         string `json:"input"`
	Expected      string `json:"expected"`
	Actual        string `json:"actual"`
	Error         string `json:"error,omitempty"`
	ExecutionTime string `json:"executionTime,omitempty"` // milliseconds
	Memory        int64  `json:"memory,omitempty"`        // KB
}

// Result is the judge's verdict over all test cases.
type Result struct {
	Success       bool         `json:"success"`
	Results       []TestResult `json:"results"`
	OverallStatus string       `json:"overallStatus"`
	Error         string       `json:"error,omitempty"`
}

// Judge runs a program against test cases.
type Judge interface {
	Run(ctx context.Context, req RunRequest) (Result, error)
}

// Config groups sandbox limits applied to every run.
type Config struct {
	Timeout       time.Duration
	MemoryLimitMB int64
	CPUShares     int64
	WorkspaceRoot string
	Logger        zerolog.Logger
}

// SandboxJudge implements Judge on top of a container Runner.
type SandboxJudge struct {
	runner Runner
	cfg    Config
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewSandboxJudge constructs a judge that executes through runner.
func NewSandboxJudge(runner Runner, cfg Config) *SandboxJudge {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.MemoryLimitMB <= 0 {
		cfg.MemoryLimitMB = 256
	}
	return &SandboxJudge{
		runner: runner,
		cfg:    cfg,
		tracer: otel.Tracer("github.com/noah-isme/loopwar-api/pkg/judge"),
		logger: cfg.Logger.With().Str("component", "judge").Logger(),
	}
}

// Run compiles the program when the language needs it, then feeds each test case on stdin.
// Compilation failures, timeouts and memory kills stop the run and are reported in Result.Error;
// other failures are recorded per test case.
func (j *SandboxJudge) Run(parent context.Context, req RunRequest) (Result, error) {
	lang, ok := LookupLanguage(req.Language)
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, req.Language)
	}

	ctx, span := j.tracer.Start(parent, "judge.run", trace.WithAttributes(
		attribute.String("judge.language", lang.Name),
		attribute.Int("judge.test_cases", len(req.TestCases)),
	))
	defer span.End()

	workspace, err := os.MkdirTemp(j.cfg.WorkspaceRoot, "loopwar-judge-")
	if err != nil {
		return Result{}, fmt.Errorf("create workspace: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(workspace); err != nil {
			j.logger.Warn().Err(err).Str("workspace", workspace).Msg("failed to remove workspace")
		}
	}()

	if err := os.WriteFile(filepath.Join(workspace, lang.SourceFile), []byte(req.Source), 0o644); err != nil {
		return Result{}, fmt.Errorf("write source: %w", err)
	}

	result := Result{Results: make([]TestResult, 0, len(req.TestCases))}

	if lang.Compile != "" {
		exec, err := j.runner.Run(ctx, j.request(lang, workspace, lang.Compile))
		if err != nil && !errors.Is(err, ErrTimedOut) {
			return Result{}, fmt.Errorf("compile: %w", err)
		}
		if exec.TimedOut || exec.ExitCode != 0 {
			message := strings.TrimSpace(exec.Stderr)
			if message == "" {
				message = strings.TrimSpace(exec.Stdout)
			}
			result.Error = "Compilation failed: " + truncate(message, 2000)
			result.OverallStatus = "Compilation Error"
			return result, nil
		}
	}

	passed := 0
	for i, tc := range req.TestCases {
		n := i + 1
		inputFile := fmt.Sprintf("input_%d.txt", n)
		if err := os.WriteFile(filepath.Join(workspace, inputFile), []byte(tc.Input), 0o644); err != nil {
			return Result{}, fmt.Errorf("write input: %w", err)
		}

		exec, err := j.runner.Run(ctx, j.request(lang, workspace, lang.Run+" < "+inputFile))
		if err != nil && !errors.Is(err, ErrTimedOut) {
			return Result{}, fmt.Errorf("run test %d: %w", n, err)
		}

		actual := truncate(exec.Stdout, outputLimit)
		entry := TestResult{
			TestCase:      n,
			Input:         tc.Input,
			Expected:      tc.Expected,
			Actual:        strings.TrimRight(actual, "\n"),
			ExecutionTime: strconv.FormatFloat(float64(exec.Duration)/float64(time.Millisecond), 'f', 3, 64),
			Memory:        exec.MemoryUsageBytes / 1024,
		}

		switch {
		case exec.TimedOut:
			entry.Error = "Time limit exceeded"
			result.Results = append(result.Results, entry)
			result.Error = fmt.Sprintf("Time limit exceeded on test %d", n)
		case exec.OOMKilled:
			entry.Error = "Memory limit exceeded"
			result.Results = append(result.Results, entry)
			result.Error = fmt.Sprintf("Memory limit exceeded on test %d", n)
		case exec.ExitCode != 0:
			entry.Error = truncate(strings.TrimSpace(exec.Stderr), 2000)
			if entry.Error == "" {
				entry.Error = fmt.Sprintf("exit status %d", exec.ExitCode)
			}
		default:
			entry.Passed = OutputsMatch(actual, tc.Expected)
		}

		if result.Error != "" {
			break
		}
		if entry.Passed {
			passed++
		}
		result.Results = append(result.Results, entry)
	}

	total := len(req.TestCases)
	result.Success = result.Error == "" && passed == total
	switch {
	case result.Error != "":
		result.OverallStatus = result.Error
	case result.Success:
		result.OverallStatus = fmt.Sprintf("All %d tests passed!", total)
	default:
		result.OverallStatus = fmt.Sprintf("%d/%d tests passed", passed, total)
	}

	span.SetAttributes(attribute.Int("judge.passed", passed), attribute.Bool("judge.success", result.Success))
	return result, nil
}

func (j *SandboxJudge) request(lang Language, workspace, command string) ExecutionRequest {
	return ExecutionRequest{
		Image:           lang.Image,
		Cmd:             []string{"sh", "-c", command},
		Env:             lang.Env,
		Timeout:         j.cfg.Timeout,
		Workspace:       workspace,
		MemoryLimitMB:   j.cfg.MemoryLimitMB,
		CPUShares:       j.cfg.CPUShares,
		NetworkDisabled: true,
	}
}

// OutputsMatch compares program output with the expected output. Trailing whitespace on each
// line and trailing blank lines are ignored; outputs that both parse as JSON are compared
// structurally.
func OutputsMatch(actual, expected string) bool {
	a, e := normalizeOutput(actual), normalizeOutput(expected)
	if a == e {
		return true
	}

	var av, ev interface{}
	if json.Unmarshal([]byte(a), &av) != nil || json.Unmarshal([]byte(e), &ev) != nil {
		return false
	}
	ab, errA := json.Marshal(av)
	eb, errE := json.Marshal(ev)
	return errA == nil && errE == nil && bytes.Equal(ab, eb)
}

func normalizeOutput(s string) string {
	lines := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.TrimRight(strings.Join(lines, "\n"), "\n")
}

// truncate cuts s to at most limit bytes without splitting a UTF-8 sequence.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}
