package models

import "time"

// DefaultContestRating is the rating assigned to users who never took part in a contest.
const DefaultContestRating = 1200

// User is the platform account the grading pipeline attributes progress to.
type User struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Name          string    `gorm:"size:255;not null" json:"name"`
	Email         string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	IsPremium     bool      `gorm:"not null;default:false" json:"is_premium"`
	Points        int64     `gorm:"not null;default:0" json:"points"`
	ContestRating int       `gorm:"not null;default:1200" json:"contest_rating"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// UserSolvedProblem is one member of a user's problem-solved set.
type UserSolvedProblem struct {
	UserID    uint      `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	ProblemID uint      `gorm:"primaryKey;autoIncrement:false" json:"problem_id"`
	CreatedAt time.Time `json:"created_at"`
	Problem   Problem   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// UserBadge is an unlocked achievement. Names are unique per user.
type UserBadge struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"not null;uniqueIndex:idx_user_badge_name" json:"user_id"`
	Name        string    `gorm:"size:128;not null;uniqueIndex:idx_user_badge_name" json:"name"`
	Description string    `gorm:"size:255" json:"description"`
	EarnedAt    time.Time `gorm:"not null" json:"earned_at"`
}
