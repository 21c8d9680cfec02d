package dto

import (
	"time"

	"github.com/noah-isme/gema-judge-api/internal/models"
)

// SubmitCodeRequest is the payload for grading a practice submission.
type SubmitCodeRequest struct {
	Code     string `json:"code" validate:"required,max=65536"`
	Language string `json:"language" validate:"required,max=32"`
}

// TestCaseInput is a caller supplied test case for dry runs.
type TestCaseInput struct {
	Input  string `json:"input" validate:"max=65536"`
	Output string `json:"output" validate:"max=65536"`
}

// RunCodeRequest is the payload for a dry run against visible or custom cases.
type RunCodeRequest struct {
	Code      string          `json:"code" validate:"required,max=65536"`
	Language  string          `json:"language" validate:"required,max=32"`
	TestCases []TestCaseInput `json:"testCases" validate:"omitempty,max=20,dive"`
}

// StreakSummary is the streak state returned alongside a graded submission.
type StreakSummary struct {
	CurrentStreak      int        `json:"currentStreak"`
	MaxStreak          int        `json:"maxStreak"`
	LastSubmissionDate *time.Time `json:"lastSubmissionDate,omitempty"`
	HasSubmittedToday  bool       `json:"hasSubmittedToday"`
}

// SubmitCodeResponse is returned after a practice submission has been graded.
type SubmitCodeResponse struct {
	SubmissionID    uint           `json:"submissionId"`
	Accepted        bool           `json:"accepted"`
	Status          string         `json:"status"`
	TotalTestCases  int            `json:"totalTestCases"`
	PassedTestCases int            `json:"passedTestCases"`
	Runtime         float64        `json:"runtime"`
	Memory          int64          `json:"memory"`
	ErrorMessage    string         `json:"errorMessage,omitempty"`
	Streak          *StreakSummary `json:"streak"`
	PointsAwarded   int            `json:"pointsAwarded"`
	BadgesUnlocked  []string       `json:"badgesUnlocked"`
}

// RunCaseResult is the outcome of one dry-run test case.
type RunCaseResult struct {
	Input          string  `json:"input"`
	ExpectedOutput string  `json:"expectedOutput"`
	ActualOutput   string  `json:"actualOutput"`
	Passed         bool    `json:"passed"`
	Verdict        string  `json:"verdict"`
	Stderr         string  `json:"stderr,omitempty"`
	Runtime        float64 `json:"runtime"`
	Memory         int64   `json:"memory"`
}

// RunCodeResponse is returned by a dry run.
type RunCodeResponse struct {
	Success         bool            `json:"success"`
	Status          string          `json:"status"`
	PassedTestCases int             `json:"passedTestCases"`
	TotalTestCases  int             `json:"totalTestCases"`
	TestCases       []RunCaseResult `json:"testCases"`
	Runtime         float64         `json:"runtime"`
	Memory          int64           `json:"memory"`
	ErrorMessage    string          `json:"errorMessage,omitempty"`
}

// SubmissionListQuery filters the caller's submission history.
type SubmissionListQuery struct {
	ProblemID uint   `query:"problemId"`
	Status    string `query:"status" validate:"omitempty,oneof=pending accepted wrong error"`
	Page      int    `query:"page" validate:"omitempty,min=1"`
	PageSize  int    `query:"pageSize" validate:"omitempty,min=1,max=100"`
}

// SubmissionResponse is the public representation of a practice submission.
type SubmissionResponse struct {
	ID              uint      `json:"id"`
	ProblemID       uint      `json:"problemId"`
	Code            string    `json:"code"`
	Language        string    `json:"language"`
	Status          string    `json:"status"`
	TestCasesPassed int       `json:"testCasesPassed"`
	TotalTestCases  int       `json:"totalTestCases"`
	Runtime         float64   `json:"runtime"`
	Memory          int64     `json:"memory"`
	ErrorMessage    string    `json:"errorMessage,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// NewSubmissionResponse converts a submission model into a DTO.
func NewSubmissionResponse(model models.Submission) SubmissionResponse {
	return SubmissionResponse{
		ID:              model.ID,
		ProblemID:       model.ProblemID,
		Code:            model.Code,
		Language:        model.Language,
		Status:          model.Status,
		TestCasesPassed: model.TestCasesPassed,
		TotalTestCases:  model.TestCasesTotal,
		Runtime:         model.Runtime,
		Memory:          model.Memory,
		ErrorMessage:    model.ErrorMessage,
		CreatedAt:       model.CreatedAt,
		UpdatedAt:       model.UpdatedAt,
	}
}

// NewSubmissionResponseSlice converts a slice of models into DTOs.
func NewSubmissionResponseSlice(items []models.Submission) []SubmissionResponse {
	out := make([]SubmissionResponse, 0, len(items))
	for _, item := range items {
		out = append(out, NewSubmissionResponse(item))
	}
	return out
}

// AnalysisResponse is the AI complexity review of a submission.
type AnalysisResponse struct {
	SubmissionID    uint     `json:"submissionId"`
	TimeComplexity  string   `json:"timeComplexity"`
	SpaceComplexity string   `json:"spaceComplexity"`
	Summary         string   `json:"summary"`
	Suggestions     []string `json:"suggestions"`
}
