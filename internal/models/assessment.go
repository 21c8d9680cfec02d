package models

import (
	"time"

	"gorm.io/datatypes"
)

// Assessment types.
const (
	AssessmentTypeMCQ    = "mcq"
	AssessmentTypeCoding = "coding"
)

// Assessment submission states.
const (
	AssessmentStatusInProgress = "in_progress"
	AssessmentStatusCompleted  = "completed"
	AssessmentStatusAbandoned  = "abandoned"
)

// Answer kinds stored on an assessment submission.
const (
	AnswerTypeMCQ    = "mcq"
	AnswerTypeCoding = "coding"
)

// AssessmentQuestion is either a multiple choice question or a reference to a problem.
type AssessmentQuestion struct {
	Prompt        string   `json:"prompt"`
	Options       []string `json:"options,omitempty"`
	CorrectAnswer int      `json:"correctAnswer"`
	ProblemID     uint     `json:"problemId,omitempty"`
}

// Assessment is a timed quiz made of MCQ or coding questions.
type Assessment struct {
	ID              uint                                    `gorm:"primaryKey" json:"id"`
	Title           string                                  `gorm:"size:255;not null" json:"title"`
	Slug            string                                  `gorm:"size:255;uniqueIndex;not null" json:"slug"`
	Type            string                                  `gorm:"size:16;not null" json:"type"`
	IsPremium       bool                                    `gorm:"not null;default:false" json:"is_premium"`
	DurationMinutes int                                     `gorm:"not null;default:0" json:"duration_minutes"`
	Questions       datatypes.JSONSlice[AssessmentQuestion] `json:"questions"`
	CreatedAt       time.Time                               `json:"created_at"`
	UpdatedAt       time.Time                               `json:"updated_at"`
}

// AssessmentAnswer is a stored answer for one question index.
type AssessmentAnswer struct {
	QuestionIndex   int     `json:"questionIndex"`
	Type            string  `json:"type"`
	SelectedOption  *int    `json:"selectedOption,omitempty"`
	IsCorrect       bool    `json:"isCorrect"`
	Code            string  `json:"code,omitempty"`
	Language        string  `json:"language,omitempty"`
	TestCasesPassed int     `json:"testCasesPassed"`
	TotalTestCases  int     `json:"totalTestCases"`
	Runtime         float64 `json:"runtime"`
	Memory          int64   `json:"memory"`
}

// AssessmentSubmission tracks one attempt of a user on an assessment.
type AssessmentSubmission struct {
	ID           uint                                  `gorm:"primaryKey" json:"id"`
	UserID       uint                                  `gorm:"not null;index:idx_assessment_attempt" json:"user_id"`
	AssessmentID uint                                  `gorm:"not null;index:idx_assessment_attempt" json:"assessment_id"`
	Status       string                                `gorm:"size:16;not null;index:idx_assessment_attempt" json:"status"`
	StartTime    time.Time                             `gorm:"not null" json:"start_time"`
	EndTime      *time.Time                            `json:"end_time"`
	Answers      datatypes.JSONSlice[AssessmentAnswer] `json:"answers"`
	Score        float64                               `gorm:"not null;default:0" json:"score"`
	TotalScore   float64                               `gorm:"not null;default:0" json:"total_score"`
	Percentage   float64                               `gorm:"not null;default:0" json:"percentage"`
	CreatedAt    time.Time                             `json:"created_at"`
	UpdatedAt    time.Time                             `json:"updated_at"`
}

// UpsertAnswer replaces the answer with the same question index or appends it.
func (s *AssessmentSubmission) UpsertAnswer(answer AssessmentAnswer) {
	for i := range s.Answers {
		if s.Answers[i].QuestionIndex == answer.QuestionIndex {
			s.Answers[i] = answer
			return
		}
	}
	s.Answers = append(s.Answers, answer)
}
