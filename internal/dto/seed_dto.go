package dto

import "time"

// SeedProblem describes a practice problem to upsert.
type SeedProblem struct {
	Title            string            `json:"title" validate:"required,max=255"`
	Slug             string            `json:"slug" validate:"omitempty,max=255"`
	Description      string            `json:"description"`
	Difficulty       string            `json:"difficulty" validate:"required,oneof=easy medium hard"`
	VisibleTestCases []TestCaseInput   `json:"visibleTestCases" validate:"dive"`
	HiddenTestCases  []TestCaseInput   `json:"hiddenTestCases" validate:"required,min=1,dive"`
	StarterCode      map[string]string `json:"starterCode"`
	ReferenceCode    map[string]string `json:"referenceCode"`
}

// SeedContestProblem references a seeded problem by slug.
type SeedContestProblem struct {
	ProblemSlug string `json:"problemSlug" validate:"required"`
	Marks       int    `json:"marks" validate:"min=0"`
}

// SeedContest describes a contest to upsert.
type SeedContest struct {
	Title     string               `json:"title" validate:"required,max=255"`
	Slug      string               `json:"slug" validate:"omitempty,max=255"`
	StartTime time.Time            `json:"startTime" validate:"required"`
	EndTime   time.Time            `json:"endTime" validate:"required,gtfield=StartTime"`
	Problems  []SeedContestProblem `json:"problems" validate:"required,min=1,dive"`
}

// SeedAssessmentQuestion is a question of a seeded assessment. Coding questions
// reference a problem by slug.
type SeedAssessmentQuestion struct {
	Prompt        string   `json:"prompt" validate:"required"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correctAnswer" validate:"min=0"`
	ProblemSlug   string   `json:"problemSlug"`
}

// SeedAssessment describes an assessment to upsert.
type SeedAssessment struct {
	Title           string                   `json:"title" validate:"required,max=255"`
	Slug            string                   `json:"slug" validate:"omitempty,max=255"`
	Type            string                   `json:"type" validate:"required,oneof=mcq coding"`
	IsPremium       bool                     `json:"isPremium"`
	DurationMinutes int                      `json:"durationMinutes" validate:"min=0"`
	Questions       []SeedAssessmentQuestion `json:"questions" validate:"required,min=1,dive"`
}

// SeedResult reports how many rows were written.
type SeedResult struct {
	Affected int64 `json:"affected"`
}
