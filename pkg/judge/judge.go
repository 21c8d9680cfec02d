// Package judge talks to the code-execution service that runs submissions against
// test cases. Two backends are provided: a Judge0-compatible HTTP client and a local
// backend that runs every case in a docker sandbox.
package judge

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Status ids reported per test case. Grading only distinguishes StatusAccepted and
// StatusRuntimeError; every other terminal id counts as a wrong answer.
const (
	StatusInQueue           = 1
	StatusProcessing        = 2
	StatusAccepted          = 3
	StatusRuntimeError      = 4
	StatusTimeLimitExceeded = 5
	StatusCompilationError  = 6
	StatusWrongAnswer       = 8
)

// ErrUnavailable is returned when the execution service cannot be reached, errors out
// or does not resolve every token before the caller's deadline.
var ErrUnavailable = errors.New("judge unavailable")

// ErrUnsupportedLanguage is returned when a request carries an unknown language id.
var ErrUnsupportedLanguage = errors.New("unsupported language")

var (
	roundTripDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "gema",
		Subsystem: "judge",
		Name:      "round_trip_duration_seconds",
		Help:      "Duration of judge submit and poll operations",
		Buckets:   prometheus.DefBuckets,
	}, []string{"backend", "operation"})

	roundTripFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gema",
		Subsystem: "judge",
		Name:      "failures_total",
		Help:      "Number of judge operations that failed",
	}, []string{"backend", "operation"})
)

// Request is one test case execution request.
type Request struct {
	SourceCode     string `json:"source_code"`
	LanguageID     int    `json:"language_id"`
	Stdin          string `json:"stdin"`
	ExpectedOutput string `json:"expected_output"`
}

// Result is the verdict of one executed request. Time is in seconds, Memory in KB.
type Result struct {
	Token    string
	StatusID int
	Stdout   string
	Stderr   string
	Time     float64
	Memory   int64
}

// IsTerminal reports whether the status id is final.
func (r Result) IsTerminal() bool {
	return r.StatusID > StatusProcessing
}

// Client submits batches of requests and waits for their verdicts.
type Client interface {
	SubmitBatch(ctx context.Context, requests []Request) ([]string, error)
	PollResults(ctx context.Context, tokens []string) ([]Result, error)
}
