package models

import "time"

// Contest registration states.
const (
	RegistrationStatusActive    = "active"
	RegistrationStatusCancelled = "cancelled"
)

// Contest is a timed event scoring a fixed set of problems.
type Contest struct {
	ID        uint             `gorm:"primaryKey" json:"id"`
	Title     string           `gorm:"size:255;not null" json:"title"`
	Slug      string           `gorm:"size:255;uniqueIndex;not null" json:"slug"`
	StartTime time.Time        `gorm:"not null" json:"start_time"`
	EndTime   time.Time        `gorm:"not null" json:"end_time"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
	Problems  []ContestProblem `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"problems"`
}

// IsLive reports whether submissions are accepted at the given instant.
// Submitting exactly at EndTime is still allowed.
func (c Contest) IsLive(at time.Time) bool {
	return !at.Before(c.StartTime) && !at.After(c.EndTime)
}

// HasEnded reports whether the contest window has closed.
func (c Contest) HasEnded(at time.Time) bool {
	return at.After(c.EndTime)
}

// MaxScore sums the marks of every contest problem.
func (c Contest) MaxScore() int {
	total := 0
	for _, problem := range c.Problems {
		total += problem.Marks
	}
	return total
}

// ContestProblem attaches a problem to a contest together with its marks.
type ContestProblem struct {
	ID        uint    `gorm:"primaryKey" json:"id"`
	ContestID uint    `gorm:"not null;uniqueIndex:idx_contest_problem" json:"contest_id"`
	ProblemID uint    `gorm:"not null;uniqueIndex:idx_contest_problem" json:"problem_id"`
	Marks     int     `gorm:"not null;default:0" json:"marks"`
	Problem   Problem `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// ContestRegistration records a user's participation in a contest.
type ContestRegistration struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	ContestID    uint      `gorm:"not null;uniqueIndex:idx_contest_registration" json:"contest_id"`
	UserID       uint      `gorm:"not null;uniqueIndex:idx_contest_registration" json:"user_id"`
	Status       string    `gorm:"size:16;not null" json:"status"`
	RegisteredAt time.Time `gorm:"not null" json:"registered_at"`
}

// IsActive reports whether the registration allows submissions.
func (r ContestRegistration) IsActive() bool {
	return r.Status == RegistrationStatusActive
}

// ContestSubmission is the single scored attempt of a user on one contest problem.
// A resubmission overwrites the row.
type ContestSubmission struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	UserID          uint      `gorm:"not null;uniqueIndex:idx_contest_submission" json:"user_id"`
	ContestID       uint      `gorm:"not null;uniqueIndex:idx_contest_submission" json:"contest_id"`
	ProblemID       uint      `gorm:"not null;uniqueIndex:idx_contest_submission" json:"problem_id"`
	Code            string    `gorm:"type:text;not null" json:"code"`
	Language        string    `gorm:"size:32;not null" json:"language"`
	Status          string    `gorm:"size:16;not null" json:"status"`
	Runtime         float64   `gorm:"not null;default:0" json:"runtime"`
	Memory          int64     `gorm:"not null;default:0" json:"memory"`
	ErrorMessage    string    `gorm:"type:text" json:"error_message"`
	TestCasesPassed int       `gorm:"not null;default:0" json:"test_cases_passed"`
	TestCasesTotal  int       `gorm:"not null;default:0" json:"test_cases_total"`
	MarksAwarded    int       `gorm:"not null;default:0" json:"marks_awarded"`
	SubmittedAt     time.Time `gorm:"not null" json:"submitted_at"`
}

// ContestRating is the immutable rating change of a user for one contest.
type ContestRating struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	UserID           uint      `gorm:"not null;uniqueIndex:idx_contest_rating" json:"user_id"`
	ContestID        uint      `gorm:"not null;uniqueIndex:idx_contest_rating" json:"contest_id"`
	OldRating        int       `gorm:"not null" json:"old_rating"`
	NewRating        int       `gorm:"not null" json:"new_rating"`
	Delta            int       `gorm:"not null" json:"delta"`
	Rank             int       `gorm:"not null" json:"rank"`
	ParticipantCount int       `gorm:"not null" json:"participant_count"`
	Score            int       `gorm:"not null" json:"score"`
	MaxScore         int       `gorm:"not null" json:"max_score"`
	CreatedAt        time.Time `json:"created_at"`
}
