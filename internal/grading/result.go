package grading

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMissingResult indicates no grading payload was supplied.
var ErrMissingResult = errors.New("grading result is required")

// ErrInvalidResult indicates the grading payload is not a JSON object.
var ErrInvalidResult = errors.New("grading result must be a JSON object")

// Kind identifies which grading payload shape a Result carries.
type Kind int

const (
	// KindLegacy is the judge shape: per test case pass/fail records and/or an error message.
	KindLegacy Kind = iota
	// KindAI is the AI review shape carrying an isCorrect flag.
	KindAI
)

func (k Kind) String() string {
	switch k {
	case KindAI:
		return "ai"
	case KindLegacy:
		return "legacy"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Result is a decoded grading payload. Kind selects the variant and only
// drives classification: AI is set only for KindAI, while Legacy and Analysis
// carry whatever judge and detailedAnalysis fields the payload has in either
// kind so aggregates can use them. Raw keeps the payload bytes exactly as
// received.
type Result struct {
	Kind     Kind
	AI       *AIAnalysis
	Legacy   *LegacyReport
	Analysis *DetailedAnalysis
	Raw      json.RawMessage
}

// AIAnalysis is the payload produced by the AI code reviewer.
type AIAnalysis struct {
	Success          bool              `json:"success"`
	IsCorrect        bool              `json:"isCorrect"`
	Score            float64           `json:"score"`
	Feedback         string            `json:"feedback"`
	DetailedAnalysis *DetailedAnalysis `json:"detailedAnalysis,omitempty"`
	Hints            []string          `json:"hints,omitempty"`
	LearningPoints   []string          `json:"learningPoints,omitempty"`
}

// DetailedAnalysis breaks an AI review into its sections. Logic, Efficiency
// and the per-case walk are kept as received since nothing reads them.
type DetailedAnalysis struct {
	Syntax     *SyntaxAnalysis   `json:"syntax,omitempty"`
	Logic      json.RawMessage   `json:"logic,omitempty"`
	Efficiency json.RawMessage   `json:"efficiency,omitempty"`
	TestCases  *TestCaseAnalysis `json:"testCases,omitempty"`
}

// SyntaxAnalysis reports whether the code parses.
type SyntaxAnalysis struct {
	IsValid bool     `json:"isValid"`
	Issues  []string `json:"issues"`
}

// TestCaseAnalysis holds the AI's own count of the problem's test cases.
type TestCaseAnalysis struct {
	Passed  int             `json:"passed"`
	Total   int             `json:"total"`
	Results json.RawMessage `json:"results,omitempty"`
}

// LegacyReport is the payload produced by the code judge.
type LegacyReport struct {
	Success       *bool              `json:"success,omitempty"`
	Results       []LegacyTestResult `json:"results,omitempty"`
	OverallStatus string             `json:"overallStatus,omitempty"`
	Error         string             `json:"error,omitempty"`
}

// LegacyTestResult is one judged test case.
type LegacyTestResult struct {
	TestCase      int     `json:"testCase"`
	Passed        bool    `json:"passed"`
	Input         string  `json:"input"`
	Expected      string  `json:"expected"`
	Actual        string  `json:"actual"`
	Error         string  `json:"error,omitempty"`
	ExecutionTime Measure `json:"executionTime,omitempty"`
	Memory        Measure `json:"memory,omitempty"`
}

// Measure is a numeric judge reading that may arrive as a JSON number or a
// numeric string. Missing, null, empty, non-numeric and numeric zero readings
// count as absent; a numeric string such as "0" is present.
type Measure struct {
	Value float64
	Set   bool
}

// UnmarshalJSON accepts numbers, numeric strings and null.
func (m *Measure) UnmarshalJSON(data []byte) error {
	*m = Measure{}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}

	if trimmed[0] == '"' {
		var text string
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return err
		}
		text = strings.TrimSpace(text)
		if text == "" {
			return nil
		}
		value, err := strconv.ParseFloat(text, 64)
		if err != nil || !finite(value) {
			return nil
		}
		*m = Measure{Value: value, Set: true}
		return nil
	}

	var value float64
	if err := json.Unmarshal(trimmed, &value); err != nil {
		return nil
	}
	if value != 0 {
		*m = Measure{Value: value, Set: true}
	}
	return nil
}

// MarshalJSON renders absent readings as null.
func (m Measure) MarshalJSON() ([]byte, error) {
	if !m.Set {
		return []byte("null"), nil
	}
	return json.Marshal(m.Value)
}

// Decode parses a raw grading payload into its tagged variant. A payload is
// the AI shape when it carries an isCorrect key, otherwise the legacy shape.
// Only the fields grading reads are inspected, and a field of an unexpected
// type is read as absent rather than rejected. Flags follow JSON truthiness:
// false, null, 0 and "" are false.
func Decode(raw json.RawMessage) (Result, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return Result{}, ErrMissingResult
	}

	fields := asObject(trimmed)
	if fields == nil {
		return Result{}, ErrInvalidResult
	}

	stored := make(json.RawMessage, len(raw))
	copy(stored, raw)

	result := Result{
		Kind:     KindLegacy,
		Legacy:   decodeLegacy(fields),
		Analysis: decodeDetails(fields.object("detailedAnalysis")),
		Raw:      stored,
	}

	if fields.has("isCorrect") {
		result.Kind = KindAI
		result.AI = &AIAnalysis{
			Success:          fields.truthy("success"),
			IsCorrect:        fields.truthy("isCorrect"),
			Score:            fields.number("score"),
			Feedback:         fields.text("feedback"),
			DetailedAnalysis: result.Analysis,
			Hints:            fields.texts("hints"),
			LearningPoints:   fields.texts("learningPoints"),
		}
	}

	return result, nil
}

func decodeLegacy(fields object) *LegacyReport {
	report := &LegacyReport{
		OverallStatus: fields.text("overallStatus"),
		Error:         fields.message("error"),
	}
	if fields.has("success") {
		success := fields.truthy("success")
		report.Success = &success
	}

	if items, ok := fields.array("results"); ok {
		report.Results = make([]LegacyTestResult, 0, len(items))
		for _, item := range items {
			test := asObject(item)
			report.Results = append(report.Results, LegacyTestResult{
				TestCase:      int(test.number("testCase")),
				Passed:        test.truthy("passed"),
				Input:         test.text("input"),
				Expected:      test.text("expected"),
				Actual:        test.text("actual"),
				Error:         test.text("error"),
				ExecutionTime: test.measure("executionTime"),
				Memory:        test.measure("memory"),
			})
		}
	}

	return report
}

func decodeDetails(fields object) *DetailedAnalysis {
	if fields == nil {
		return nil
	}

	details := &DetailedAnalysis{
		Logic:      fields["logic"],
		Efficiency: fields["efficiency"],
	}
	if syntax := fields.object("syntax"); syntax != nil {
		details.Syntax = &SyntaxAnalysis{
			IsValid: syntax.truthy("isValid"),
			Issues:  syntax.texts("issues"),
		}
	}
	if tests := fields.object("testCases"); tests != nil {
		details.TestCases = &TestCaseAnalysis{
			Passed:  int(tests.number("passed")),
			Total:   int(tests.number("total")),
			Results: tests["results"],
		}
	}
	return details
}

// FromAI wraps an AI analysis in a Result, encoding it as the raw payload.
func FromAI(analysis AIAnalysis) (Result, error) {
	raw, err := json.Marshal(analysis)
	if err != nil {
		return Result{}, err
	}
	return Result{Kind: KindAI, AI: &analysis, Analysis: analysis.DetailedAnalysis, Raw: raw}, nil
}

// MarshalJSON emits the payload bytes exactly as they were decoded.
func (r Result) MarshalJSON() ([]byte, error) {
	if len(r.Raw) > 0 {
		return r.Raw, nil
	}
	switch r.Kind {
	case KindAI:
		return json.Marshal(r.AI)
	default:
		return json.Marshal(r.Legacy)
	}
}
