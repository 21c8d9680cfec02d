package dto

import (
	"time"

	"github.com/noah-isme/gema-judge-api/internal/models"
)

// ContestSubmitRequest is the payload for a contest submission.
type ContestSubmitRequest struct {
	ProblemID uint   `json:"problemId" validate:"required"`
	Code      string `json:"code" validate:"required,max=65536"`
	Language  string `json:"language" validate:"required,max=32"`
}

// ContestSubmissionResponse is the scored view of a contest submission.
type ContestSubmissionResponse struct {
	ProblemID       uint      `json:"problemId"`
	Status          string    `json:"status"`
	TestCasesPassed int       `json:"testCasesPassed"`
	TotalTestCases  int       `json:"totalTestCases"`
	MarksAwarded    int       `json:"marksAwarded"`
	Runtime         float64   `json:"runtime"`
	Memory          int64     `json:"memory"`
	ErrorMessage    string    `json:"errorMessage,omitempty"`
	SubmittedAt     time.Time `json:"submittedAt"`
}

// NewContestSubmissionResponse converts a model into a DTO.
func NewContestSubmissionResponse(model models.ContestSubmission) ContestSubmissionResponse {
	return ContestSubmissionResponse{
		ProblemID:       model.ProblemID,
		Status:          model.Status,
		TestCasesPassed: model.TestCasesPassed,
		TotalTestCases:  model.TestCasesTotal,
		MarksAwarded:    model.MarksAwarded,
		Runtime:         model.Runtime,
		Memory:          model.Memory,
		ErrorMessage:    model.ErrorMessage,
		SubmittedAt:     model.SubmittedAt,
	}
}

// ContestSubmitResponse wraps the stored submission with a status message.
type ContestSubmitResponse struct {
	Message    string                    `json:"message"`
	Submission ContestSubmissionResponse `json:"submission"`
}

// ContestRegistrationResponse describes a user's registration.
type ContestRegistrationResponse struct {
	ContestID    uint      `json:"contestId"`
	Status       string    `json:"status"`
	RegisteredAt time.Time `json:"registeredAt"`
}

// LeaderboardEntry is one ranked participant.
type LeaderboardEntry struct {
	Rank   int  `json:"rank"`
	UserID uint `json:"userId"`
	Score  int  `json:"score"`
}

// LeaderboardResponse lists the standings of a contest.
type LeaderboardResponse struct {
	ContestID uint               `json:"contestId"`
	MaxScore  int                `json:"maxScore"`
	Entries   []LeaderboardEntry `json:"entries"`
}

// RatingResponse is the rating change computed for a finished contest.
type RatingResponse struct {
	OldRating int `json:"oldRating"`
	NewRating int `json:"newRating"`
	Delta     int `json:"delta"`
}

// ContestReportResponse summarises a user's contest performance.
type ContestReportResponse struct {
	ContestID        uint                        `json:"contestId"`
	Score            int                         `json:"score"`
	MaxScore         int                         `json:"maxScore"`
	Rank             int                         `json:"rank"`
	ParticipantCount int                         `json:"participantCount"`
	Ended            bool                        `json:"ended"`
	Submissions      []ContestSubmissionResponse `json:"submissions"`
	Rating           *RatingResponse             `json:"rating,omitempty"`
}
