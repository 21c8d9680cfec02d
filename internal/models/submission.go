package models

import "time"

// Grading statuses shared by practice, contest and assessment ledgers.
const (
	SubmissionStatusPending  = "pending"
	SubmissionStatusAccepted = "accepted"
	SubmissionStatusWrong    = "wrong"
	SubmissionStatusError    = "error"
)

// Submission is one practice grading attempt. A resubmission creates a new row.
type Submission struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	UserID          uint      `gorm:"not null;index" json:"user_id"`
	ProblemID       uint      `gorm:"not null;index" json:"problem_id"`
	Code            string    `gorm:"type:text;not null" json:"code"`
	Language        string    `gorm:"size:32;not null" json:"language"`
	Status          string    `gorm:"size:16;not null;index" json:"status"`
	TestCasesPassed int       `gorm:"not null;default:0" json:"test_cases_passed"`
	TestCasesTotal  int       `gorm:"not null;default:0" json:"test_cases_total"`
	Runtime         float64   `gorm:"not null;default:0" json:"runtime"`
	Memory          int64     `gorm:"not null;default:0" json:"memory"`
	ErrorMessage    string    `gorm:"type:text" json:"error_message"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
	User            User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Problem         Problem   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// IsPending reports whether the judge has not yet finalised the attempt.
func (s Submission) IsPending() bool {
	return s.Status == SubmissionStatusPending
}

// IsAccepted reports whether every hidden test case passed.
func (s Submission) IsAccepted() bool {
	return s.Status == SubmissionStatusAccepted
}
