// Package grading turns judge results into a single graded outcome. The same runner and
// aggregation are shared by practice, contest and assessment submissions.
package grading

import "github.com/noah-isme/gema-judge-api/pkg/judge"

// Outcome is the closed classification of a single test case verdict.
type Outcome int

const (
	OutcomeOther Outcome = iota
	OutcomeAccepted
	OutcomeRuntimeError
)

// Graded statuses, shared with the persisted ledgers.
const (
	StatusAccepted = "accepted"
	StatusWrong    = "wrong"
	StatusError    = "error"
)

// FromStatus translates a judge status id.
func FromStatus(statusID int) Outcome {
	switch statusID {
	case judge.StatusAccepted:
		return OutcomeAccepted
	case judge.StatusRuntimeError:
		return OutcomeRuntimeError
	default:
		return OutcomeOther
	}
}

func (o Outcome) String() string {
	switch o {
	case OutcomeAccepted:
		return "accepted"
	case OutcomeRuntimeError:
		return "runtime_error"
	default:
		return "other"
	}
}

// Verdict is one test case result.
type Verdict struct {
	Outcome  Outcome
	StatusID int
	Stdout   string
	Stderr   string
	Time     float64
	Memory   int64
}

// Passed reports whether the case was accepted.
func (v Verdict) Passed() bool {
	return v.Outcome == OutcomeAccepted
}

// VerdictFromResult converts a raw judge result.
func VerdictFromResult(result judge.Result) Verdict {
	return Verdict{
		Outcome:  FromStatus(result.StatusID),
		StatusID: result.StatusID,
		Stdout:   result.Stdout,
		Stderr:   result.Stderr,
		Time:     result.Time,
		Memory:   result.Memory,
	}
}

// Result is the aggregated outcome of a graded attempt.
type Result struct {
	Status          string
	TestCasesPassed int
	TestCasesTotal  int
	Runtime         float64
	Memory          int64
	ErrorMessage    string
}

// Accepted reports whether every case passed.
func (r Result) Accepted() bool {
	return r.Status == StatusAccepted
}

// Aggregate reduces ordered verdicts into one result. Runtime is the sum over passed
// cases and memory the peak over passed cases. When cases fail, the last failing case
// decides the status and error message.
func Aggregate(verdicts []Verdict) Result {
	result := Result{
		Status:         StatusAccepted,
		TestCasesTotal: len(verdicts),
	}

	for _, verdict := range verdicts {
		if verdict.Passed() {
			result.TestCasesPassed++
			result.Runtime += verdict.Time
			if verdict.Memory > result.Memory {
				result.Memory = verdict.Memory
			}
			continue
		}

		if verdict.Outcome == OutcomeRuntimeError {
			result.Status = StatusError
		} else {
			result.Status = StatusWrong
		}
		result.ErrorMessage = verdict.Stderr
	}

	return result
}
