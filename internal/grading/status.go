package grading

import "strings"

// Status is the human readable verdict stored on a submission.
type Status string

const (
	StatusAccepted            Status = "Accepted"
	StatusWrongAnswer         Status = "Wrong Answer"
	StatusCompilationError    Status = "Compilation Error"
	StatusTimeLimitExceeded   Status = "Time Limit Exceeded"
	StatusMemoryLimitExceeded Status = "Memory Limit Exceeded"
	StatusRuntimeError        Status = "Runtime Error"
)

// Statuses lists every verdict in display order.
func Statuses() []Status {
	return []Status{
		StatusAccepted,
		StatusWrongAnswer,
		StatusCompilationError,
		StatusTimeLimitExceeded,
		StatusMemoryLimitExceeded,
		StatusRuntimeError,
	}
}

// Solved reports whether the verdict counts as solving the problem.
func (s Status) Solved() bool {
	return s == StatusAccepted
}

// Classify maps a grading result to its verdict. AI fields win over any
// legacy fields travelling with them; the first matching rule decides.
func Classify(result Result) Status {
	switch result.Kind {
	case KindAI:
		return classifyAI(result.AI)
	case KindLegacy:
		return classifyLegacy(result.Legacy)
	default:
		return StatusWrongAnswer
	}
}

func classifyAI(analysis *AIAnalysis) Status {
	if analysis == nil {
		return StatusWrongAnswer
	}
	if analysis.IsCorrect {
		return StatusAccepted
	}
	if details := analysis.DetailedAnalysis; details != nil && details.Syntax != nil && !details.Syntax.IsValid {
		return StatusCompilationError
	}
	return StatusWrongAnswer
}

func classifyLegacy(report *LegacyReport) Status {
	if report == nil {
		return StatusWrongAnswer
	}

	if message := report.Error; message != "" {
		switch {
		case mentions(message, "compilation", "compile"):
			return StatusCompilationError
		case mentions(message, "timeout", "time"):
			return StatusTimeLimitExceeded
		case mentions(message, "memory"):
			return StatusMemoryLimitExceeded
		default:
			return StatusRuntimeError
		}
	}

	if report.Success != nil && *report.Success {
		return StatusAccepted
	}
	return StatusWrongAnswer
}

// mentions matches keywords case-sensitively, in lower case or with a
// capitalised first letter as at the start of a judge sentence.
func mentions(message string, keywords ...string) bool {
	for _, keyword := range keywords {
		if strings.Contains(message, keyword) {
			return true
		}
		if strings.Contains(message, strings.ToUpper(keyword[:1])+keyword[1:]) {
			return true
		}
	}
	return false
}
