package dto

import (
	"time"

	"github.com/noah-isme/gema-judge-api/internal/models"
)

// MCQAnswerRequest records the selected option of a multiple choice question.
type MCQAnswerRequest struct {
	SubmissionID   uint `json:"submissionId" validate:"required"`
	QuestionIndex  *int `json:"questionIndex" validate:"required,min=0"`
	SelectedOption *int `json:"selectedOption" validate:"required,min=0"`
}

// CodingAnswerRequest grades code for a coding question.
type CodingAnswerRequest struct {
	SubmissionID  uint   `json:"submissionId" validate:"required"`
	QuestionIndex *int   `json:"questionIndex" validate:"required,min=0"`
	Code          string `json:"code" validate:"required,max=65536"`
	Language      string `json:"language" validate:"required,max=32"`
}

// AssessmentSubmissionRequest identifies an attempt to complete or abandon.
type AssessmentSubmissionRequest struct {
	SubmissionID uint `json:"submissionId" validate:"required"`
}

// AssessmentSubmissionResponse is the public view of an assessment attempt.
type AssessmentSubmissionResponse struct {
	SubmissionID   uint                      `json:"submissionId"`
	AssessmentID   uint                      `json:"assessmentId"`
	Status         string                    `json:"status"`
	StartTime      time.Time                 `json:"startTime"`
	EndTime        *time.Time                `json:"endTime,omitempty"`
	Answers        []models.AssessmentAnswer `json:"answers"`
	Score          float64                   `json:"score"`
	TotalScore     float64                   `json:"totalScore"`
	Percentage     float64                   `json:"percentage"`
	TotalQuestions int                       `json:"totalQuestions"`
}

// NewAssessmentSubmissionResponse converts a model into a DTO.
func NewAssessmentSubmissionResponse(model models.AssessmentSubmission, totalQuestions int) AssessmentSubmissionResponse {
	answers := []models.AssessmentAnswer(model.Answers)
	if answers == nil {
		answers = []models.AssessmentAnswer{}
	}
	return AssessmentSubmissionResponse{
		SubmissionID:   model.ID,
		AssessmentID:   model.AssessmentID,
		Status:         model.Status,
		StartTime:      model.StartTime,
		EndTime:        model.EndTime,
		Answers:        answers,
		Score:          model.Score,
		TotalScore:     model.TotalScore,
		Percentage:     model.Percentage,
		TotalQuestions: totalQuestions,
	}
}

// AssessmentAnswerResponse is returned after an answer has been stored.
type AssessmentAnswerResponse struct {
	SubmissionID uint                    `json:"submissionId"`
	Answer       models.AssessmentAnswer `json:"answer"`
	Status       string                  `json:"status,omitempty"`
	ErrorMessage string                  `json:"errorMessage,omitempty"`
}

// CompleteAssessmentResponse is returned when an attempt is completed.
type CompleteAssessmentResponse struct {
	AssessmentSubmissionResponse
	PointsAwarded int    `json:"pointsAwarded"`
	BadgeUnlocked string `json:"badgeUnlocked,omitempty"`
}
