package judge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	judge0Backend      = "judge0"
	judge0MaxBatchSize = 20
	judge0ResultFields = "token,status_id,stdout,stderr,time,memory"
)

// Judge0Config configures the Judge0 HTTP client.
type Judge0Config struct {
	BaseURL      string
	APIKey       string
	APIHost      string
	PollInterval time.Duration
	HTTPTimeout  time.Duration
	HTTPClient   *http.Client
	Logger       zerolog.Logger
}

// Judge0Client implements Client against a Judge0-compatible batch API.
type Judge0Client struct {
	baseURL *url.URL
	cfg     Judge0Config
	http    *http.Client
	tracer  trace.Tracer
	logger  zerolog.Logger
}

// NewJudge0Client validates the configuration and builds a client.
func NewJudge0Client(cfg Judge0Config) (*Judge0Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("judge0 base url is required")
	}

	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse judge0 base url: %w", err)
	}

	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 500 * time.Millisecond
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 10 * time.Second
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.HTTPTimeout}
	}

	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	return &Judge0Client{
		baseURL: base,
		cfg:     cfg,
		http:    httpClient,
		tracer:  otel.Tracer("github.com/noah-isme/gema-judge-api/pkg/judge"),
		logger:  logger.With().Str("component", "judge0_client").Logger(),
	}, nil
}

type judge0Token struct {
	Token string `json:"token"`
}

type judge0Submission struct {
	Token    string      `json:"token"`
	StatusID int         `json:"status_id"`
	Stdout   *string     `json:"stdout"`
	Stderr   *string     `json:"stderr"`
	Time     judge0Float `json:"time"`
	Memory   *int64      `json:"memory"`
}

// judge0Float accepts the string encoded decimals Judge0 uses for execution time.
type judge0Float float64

func (f *judge0Float) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if raw == "" || raw == "null" {
		*f = 0
		return nil
	}
	parsed, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("parse judge0 time %q: %w", raw, err)
	}
	*f = judge0Float(parsed)
	return nil
}

// SubmitBatch posts the requests in chunks and returns one token per request, in order.
func (c *Judge0Client) SubmitBatch(ctx context.Context, requests []Request) ([]string, error) {
	ctx, span := c.tracer.Start(ctx, "judge0.submit_batch", trace.WithAttributes(
		attribute.Int("judge.requests", len(requests)),
	))
	defer span.End()

	start := time.Now()
	defer func() {
		roundTripDuration.WithLabelValues(judge0Backend, "submit").Observe(time.Since(start).Seconds())
	}()

	tokens := make([]string, 0, len(requests))
	for offset := 0; offset < len(requests); offset += judge0MaxBatchSize {
		end := offset + judge0MaxBatchSize
		if end > len(requests) {
			end = len(requests)
		}

		chunk, err := c.submitChunk(ctx, requests[offset:end])
		if err != nil {
			roundTripFailures.WithLabelValues(judge0Backend, "submit").Inc()
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		tokens = append(tokens, chunk...)
	}

	return tokens, nil
}

func (c *Judge0Client) submitChunk(ctx context.Context, requests []Request) ([]string, error) {
	payload, err := json.Marshal(map[string][]Request{"submissions": requests})
	if err != nil {
		return nil, fmt.Errorf("encode judge0 batch: %w", err)
	}

	endpoint := c.endpoint("/submissions/batch", url.Values{"base64_encoded": {"false"}})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build judge0 request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var created []judge0Token
	if err := c.do(req, &created); err != nil {
		return nil, err
	}

	if len(created) != len(requests) {
		return nil, fmt.Errorf("%w: judge0 returned %d tokens for %d submissions", ErrUnavailable, len(created), len(requests))
	}

	tokens := make([]string, 0, len(created))
	for idx, item := range created {
		if item.Token == "" {
			return nil, fmt.Errorf("%w: judge0 rejected submission %d", ErrUnavailable, idx)
		}
		tokens = append(tokens, item.Token)
	}
	return tokens, nil
}

// PollResults blocks until every token has a terminal status or ctx is done.
// Results are returned in the order of tokens.
func (c *Judge0Client) PollResults(ctx context.Context, tokens []string) ([]Result, error) {
	ctx, span := c.tracer.Start(ctx, "judge0.poll_results", trace.WithAttributes(
		attribute.Int("judge.tokens", len(tokens)),
	))
	defer span.End()

	start := time.Now()
	defer func() {
		roundTripDuration.WithLabelValues(judge0Backend, "poll").Observe(time.Since(start).Seconds())
	}()

	resolved := make(map[string]Result, len(tokens))
	for {
		pending := make([]string, 0, len(tokens))
		for _, token := range tokens {
			if _, ok := resolved[token]; !ok {
				pending = append(pending, token)
			}
		}

		if len(pending) == 0 {
			break
		}

		if err := c.pollOnce(ctx, pending, resolved); err != nil {
			roundTripFailures.WithLabelValues(judge0Backend, "poll").Inc()
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}

		if len(resolved) == len(tokens) {
			break
		}

		select {
		case <-ctx.Done():
			roundTripFailures.WithLabelValues(judge0Backend, "poll").Inc()
			span.SetStatus(codes.Error, "poll deadline exceeded")
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, ctx.Err())
		case <-time.After(c.cfg.PollInterval):
		}
	}

	results := make([]Result, 0, len(tokens))
	for _, token := range tokens {
		results = append(results, resolved[token])
	}
	return results, nil
}

func (c *Judge0Client) pollOnce(ctx context.Context, pending []string, resolved map[string]Result) error {
	for offset := 0; offset < len(pending); offset += judge0MaxBatchSize {
		end := offset + judge0MaxBatchSize
		if end > len(pending) {
			end = len(pending)
		}

		query := url.Values{
			"tokens":         {strings.Join(pending[offset:end], ",")},
			"base64_encoded": {"false"},
			"fields":         {judge0ResultFields},
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("/submissions/batch", query), nil)
		if err != nil {
			return fmt.Errorf("build judge0 request: %w", err)
		}

		var body struct {
			Submissions []judge0Submission `json:"submissions"`
		}
		if err := c.do(req, &body); err != nil {
			return err
		}

		for _, item := range body.Submissions {
			result := item.toResult()
			if result.IsTerminal() {
				resolved[item.Token] = result
			}
		}
	}
	return nil
}

func (c *Judge0Client) do(req *http.Request, target interface{}) error {
	req.Header.Set("Accept", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("X-RapidAPI-Key", c.cfg.APIKey)
		req.Header.Set("X-Auth-Token", c.cfg.APIKey)
	}
	if c.cfg.APIHost != "" {
		req.Header.Set("X-RapidAPI-Host", c.cfg.APIHost)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Warn().Int("status", resp.StatusCode).Str("body", string(snippet)).Msg("judge0 returned an error status")
		return fmt.Errorf("%w: judge0 responded with status %d", ErrUnavailable, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("%w: decode judge0 response: %v", ErrUnavailable, err)
	}
	return nil
}

func (c *Judge0Client) endpoint(path string, query url.Values) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path
	u.RawQuery = query.Encode()
	return u.String()
}

func (s judge0Submission) toResult() Result {
	result := Result{
		Token:    s.Token,
		StatusID: s.StatusID,
		Time:     float64(s.Time),
	}
	if s.Stdout != nil {
		result.Stdout = *s.Stdout
	}
	if s.Stderr != nil {
		result.Stderr = *s.Stderr
	}
	if s.Memory != nil {
		result.Memory = *s.Memory
	}
	return result
}
