package grading

// Summary holds the aggregate figures derived from a grading result.
type Summary struct {
	TotalTestCases  int
	PassedTestCases int
	// ExecutionTime is the mean judge time over test cases that reported one.
	ExecutionTime *float64
	// MemoryUsed is the peak judge memory over test cases that reported one.
	MemoryUsed *float64
}

// Summarize derives test counts and resource figures. Counts come from the
// detailedAnalysis.testCases block whenever the payload has one, whatever its
// kind, else from the legacy per-test list; time and memory come only from
// the legacy list.
func Summarize(result Result) Summary {
	var summary Summary

	if result.Analysis != nil && result.Analysis.TestCases != nil {
		summary.TotalTestCases = result.Analysis.TestCases.Total
		summary.PassedTestCases = result.Analysis.TestCases.Passed
		return summary
	}

	if result.Legacy == nil || result.Legacy.Results == nil {
		return summary
	}

	tests := result.Legacy.Results
	summary.TotalTestCases = len(tests)

	var timeTotal float64
	var timeCount int
	var peakMemory float64
	var memoryCount int

	for _, test := range tests {
		if test.Passed {
			summary.PassedTestCases++
		}
		if test.ExecutionTime.Set {
			timeTotal += test.ExecutionTime.Value
			timeCount++
		}
		if test.Memory.Set {
			if memoryCount == 0 || test.Memory.Value > peakMemory {
				peakMemory = test.Memory.Value
			}
			memoryCount++
		}
	}

	if timeCount > 0 {
		mean := timeTotal / float64(timeCount)
		summary.ExecutionTime = &mean
	}
	if memoryCount > 0 {
		summary.MemoryUsed = &peakMemory
	}

	return summary
}
