package ai

import "context"

// AnalysisInput carries a graded submission to be reviewed.
type AnalysisInput struct {
	ProblemTitle string
	Description  string
	Language     string
	Source       string
	Status       string
	Runtime      float64
	Memory       int64
}

// AnalysisResult is the structured complexity review returned by the model.
type AnalysisResult struct {
	TimeComplexity  string                 `json:"timeComplexity"`
	SpaceComplexity string                 `json:"spaceComplexity"`
	Summary         string                 `json:"summary"`
	Suggestions     []string               `json:"suggestions"`
	Raw             map[string]interface{} `json:"raw,omitempty"`
}

// Analyzer estimates the complexity of submitted code.
type Analyzer interface {
	Analyze(ctx context.Context, input AnalysisInput) (AnalysisResult, error)
}
