package grading

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-judge-api/pkg/judge"
)

func verdictsFor(statuses ...int) []Verdict {
	verdicts := make([]Verdict, 0, len(statuses))
	for i, status := range statuses {
		verdicts = append(verdicts, VerdictFromResult(judge.Result{
			StatusID: status,
			Stderr:   "case " + string(rune('a'+i)),
			Time:     0.01,
			Memory:   int64(100 * (i + 1)),
		}))
	}
	return verdicts
}

func TestAggregateAllPassed(t *testing.T) {
	verdicts := []Verdict{
		{Outcome: OutcomeAccepted, Time: 0.01, Memory: 1000},
		{Outcome: OutcomeAccepted, Time: 0.02, Memory: 1200},
		{Outcome: OutcomeAccepted, Time: 0.01, Memory: 900},
	}

	result := Aggregate(verdicts)
	require.Equal(t, StatusAccepted, result.Status)
	require.True(t, result.Accepted())
	require.Equal(t, 3, result.TestCasesPassed)
	require.Equal(t, 3, result.TestCasesTotal)
	require.InDelta(t, 0.04, result.Runtime, 1e-9)
	require.Equal(t, int64(1200), result.Memory)
	require.Empty(t, result.ErrorMessage)
}

func TestAggregateLastFailureWins(t *testing.T) {
	result := Aggregate(verdictsFor(judge.StatusRuntimeError, judge.StatusAccepted, judge.StatusWrongAnswer))
	require.Equal(t, StatusWrong, result.Status)
	require.Equal(t, "case c", result.ErrorMessage)
	require.Equal(t, 1, result.TestCasesPassed)

	result = Aggregate(verdictsFor(judge.StatusTimeLimitExceeded, judge.StatusRuntimeError, judge.StatusAccepted))
	require.Equal(t, StatusError, result.Status)
	require.Equal(t, "case b", result.ErrorMessage)
}

func TestAggregateOnlyCountsPassedCasesForResources(t *testing.T) {
	verdicts := []Verdict{
		{Outcome: OutcomeAccepted, Time: 0.5, Memory: 100},
		{Outcome: OutcomeOther, Time: 9, Memory: 99999},
	}

	result := Aggregate(verdicts)
	require.InDelta(t, 0.5, result.Runtime, 1e-9)
	require.Equal(t, int64(100), result.Memory)
	require.Equal(t, 2, result.TestCasesTotal)
}

func TestAggregateEmpty(t *testing.T) {
	result := Aggregate(nil)
	require.Equal(t, StatusAccepted, result.Status)
	require.Zero(t, result.TestCasesTotal)
	require.Zero(t, result.TestCasesPassed)
}

func TestFromStatus(t *testing.T) {
	require.Equal(t, OutcomeAccepted, FromStatus(3))
	require.Equal(t, OutcomeRuntimeError, FromStatus(4))
	for _, status := range []int{1, 2, 5, 6, 7, 8, 13} {
		require.Equal(t, OutcomeOther, FromStatus(status))
	}
}
