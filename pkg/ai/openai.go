package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	aiDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "gema",
		Subsystem: "ai",
		Name:      "analysis_duration_seconds",
		Help:      "Duration of AI complexity analysis requests",
	}, []string{"model"})

	aiFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gema",
		Subsystem: "ai",
		Name:      "analysis_failures_total",
		Help:      "Number of AI complexity analysis failures",
	}, []string{"model"})
)

// OpenAIConfig defines configuration options for the OpenAI analyzer.
type OpenAIConfig struct {
	APIKey      string
	Model       string
	BaseURL     string
	MaxTokens   int
	Temperature float32
	Logger      zerolog.Logger
}

// OpenAIAnalyzer implements Analyzer against the OpenAI chat completion API.
type OpenAIAnalyzer struct {
	client *openai.Client
	cfg    OpenAIConfig
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewOpenAIAnalyzer builds an analyzer using the provided configuration.
func NewOpenAIAnalyzer(cfg OpenAIConfig) (*OpenAIAnalyzer, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}

	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}

	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 512
	}

	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}

	return &OpenAIAnalyzer{
		client: openai.NewClientWithConfig(config),
		cfg:    cfg,
		tracer: otel.Tracer("github.com/noah-isme/gema-judge-api/pkg/ai/openai"),
		logger: logger.With().Str("component", "openai_analyzer").Logger(),
	}, nil
}

// Analyze asks the model for a JSON complexity review of the submission.
func (a *OpenAIAnalyzer) Analyze(parent context.Context, input AnalysisInput) (AnalysisResult, error) {
	ctx, span := a.tracer.Start(parent, "openai.analyze", trace.WithAttributes(
		attribute.String("model", a.cfg.Model),
		attribute.String("language", input.Language),
	))
	defer span.End()

	start := time.Now()
	request := openai.ChatCompletionRequest{
		Model:       a.cfg.Model,
		MaxTokens:   a.cfg.MaxTokens,
		Temperature: a.cfg.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: analyzerSystemPrompt()},
			{Role: openai.ChatMessageRoleUser, Content: buildUserPrompt(input)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	}

	resp, err := a.client.CreateChatCompletion(ctx, request)
	aiDuration.WithLabelValues(a.cfg.Model).Observe(time.Since(start).Seconds())
	if err != nil {
		return AnalysisResult{}, a.fail(span, fmt.Errorf("openai analyze: %w", err))
	}

	if len(resp.Choices) == 0 {
		return AnalysisResult{}, a.fail(span, fmt.Errorf("no choices returned from openai"))
	}

	result, err := parseAnalysisResponse(strings.TrimSpace(resp.Choices[0].Message.Content))
	if err != nil {
		return AnalysisResult{}, a.fail(span, err)
	}

	result.Raw = map[string]interface{}{
		"usage": resp.Usage,
	}

	return result, nil
}

func (a *OpenAIAnalyzer) fail(span trace.Span, err error) error {
	aiFailures.WithLabelValues(a.cfg.Model).Inc()
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	a.logger.Warn().Err(err).Msg("complexity analysis failed")
	return err
}

func analyzerSystemPrompt() string {
	return "You review competitive programming solutions. Respond with a JSON object containing timeComplexity and " +
		"spaceComplexity in big-O notation, a short summary, and a suggestions array of concrete improvements."
}

func buildUserPrompt(input AnalysisInput) string {
	builder := strings.Builder{}
	builder.WriteString("# Problem\n")
	builder.WriteString(input.ProblemTitle)
	if input.Description != "" {
		builder.WriteString("\n\n")
		builder.WriteString(input.Description)
	}
	builder.WriteString("\n\n## Language\n")
	builder.WriteString(input.Language)
	builder.WriteString("\n\n## Verdict\n")
	builder.WriteString(fmt.Sprintf("%s (runtime %.3fs, memory %d KB)", input.Status, input.Runtime, input.Memory))
	builder.WriteString("\n\n## Submission\n")
	builder.WriteString(input.Source)
	builder.WriteString("\nReturn JSON.")
	return builder.String()
}

func parseAnalysisResponse(content string) (AnalysisResult, error) {
	var result AnalysisResult
	if err := json.Unmarshal([]byte(content), &result); err != nil {
		return AnalysisResult{}, fmt.Errorf("parse analysis json: %w", err)
	}

	result.TimeComplexity = strings.TrimSpace(result.TimeComplexity)
	result.SpaceComplexity = strings.TrimSpace(result.SpaceComplexity)
	if result.TimeComplexity == "" || result.SpaceComplexity == "" {
		return AnalysisResult{}, fmt.Errorf("analysis is missing complexity estimates")
	}
	if result.Suggestions == nil {
		result.Suggestions = []string{}
	}

	return result, nil
}
