package grading

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-judge-api/internal/models"
	"github.com/noah-isme/gema-judge-api/pkg/judge"
)

var (
	// ErrUnsupportedLanguage is returned when the language has no judge id.
	ErrUnsupportedLanguage = errors.New("unsupported language")
	// ErrJudgeUnavailable is returned when the judge cannot grade the attempt.
	ErrJudgeUnavailable = errors.New("judge unavailable")
	// ErrNoTestCases is returned when there is nothing to grade against.
	ErrNoTestCases = errors.New("no test cases")
)

// Runner executes code against test cases and aggregates the verdicts.
type Runner struct {
	client  judge.Client
	timeout time.Duration
	logger  zerolog.Logger
}

// NewRunner constructs a runner. Every judge round trip is bounded by timeout.
func NewRunner(client judge.Client, timeout time.Duration, logger zerolog.Logger) *Runner {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Runner{
		client:  client,
		timeout: timeout,
		logger:  logger.With().Str("component", "grading_runner").Logger(),
	}
}

// Run grades code against the cases in order. The returned verdicts line up with cases.
func (r *Runner) Run(ctx context.Context, code, language string, cases []models.TestCase) (Result, []Verdict, error) {
	languageID, ok := judge.LanguageID(language)
	if !ok {
		return Result{}, nil, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, language)
	}

	if len(cases) == 0 {
		return Result{}, nil, ErrNoTestCases
	}

	requests := make([]judge.Request, 0, len(cases))
	for _, tc := range cases {
		requests = append(requests, judge.Request{
			SourceCode:     code,
			LanguageID:     languageID,
			Stdin:          tc.Input,
			ExpectedOutput: tc.Output,
		})
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	tokens, err := r.client.SubmitBatch(ctx, requests)
	if err != nil {
		return Result{}, nil, r.wrap("submit", err)
	}

	results, err := r.client.PollResults(ctx, tokens)
	if err != nil {
		return Result{}, nil, r.wrap("poll", err)
	}
	if len(results) != len(cases) {
		return Result{}, nil, fmt.Errorf("%w: expected %d results, got %d", ErrJudgeUnavailable, len(cases), len(results))
	}

	verdicts := make([]Verdict, 0, len(results))
	for _, res := range results {
		verdicts = append(verdicts, VerdictFromResult(res))
	}

	result := Aggregate(verdicts)
	r.logger.Debug().
		Str("language", language).
		Str("status", result.Status).
		Int("passed", result.TestCasesPassed).
		Int("total", result.TestCasesTotal).
		Dur("elapsed", time.Since(start)).
		Msg("graded attempt")

	return result, verdicts, nil
}

func (r *Runner) wrap(operation string, err error) error {
	if errors.Is(err, judge.ErrUnsupportedLanguage) {
		return fmt.Errorf("%w: %v", ErrUnsupportedLanguage, err)
	}
	r.logger.Error().Err(err).Str("operation", operation).Msg("judge round trip failed")
	return fmt.Errorf("%w: %s", ErrJudgeUnavailable, strings.TrimPrefix(err.Error(), judge.ErrUnavailable.Error()+": "))
}
