package models

import (
	"time"

	"gorm.io/datatypes"
)

// MaxStreakHistory bounds the number of daily snapshots kept per user.
const MaxStreakHistory = 365

// StreakSnapshot records the streak value reached on a given UTC day.
type StreakSnapshot struct {
	Date   time.Time `json:"date"`
	Streak int       `json:"streak"`
}

// UserStreak stores consecutive-day acceptance streaks for a user.
type UserStreak struct {
	ID                 uint                                `gorm:"primaryKey" json:"id"`
	UserID             uint                                `gorm:"not null;uniqueIndex" json:"user_id"`
	CurrentStreak      int                                 `gorm:"not null;default:0" json:"current_streak"`
	MaxStreak          int                                 `gorm:"not null;default:0" json:"max_streak"`
	LastSubmissionDate *time.Time                          `json:"last_submission_date"`
	History            datatypes.JSONSlice[StreakSnapshot] `json:"history"`
	CreatedAt          time.Time                           `json:"created_at"`
	UpdatedAt          time.Time                           `json:"updated_at"`
}

// AppendHistory adds a snapshot and evicts the oldest entries beyond MaxStreakHistory.
func (s *UserStreak) AppendHistory(snapshot StreakSnapshot) {
	s.History = append(s.History, snapshot)
	if overflow := len(s.History) - MaxStreakHistory; overflow > 0 {
		s.History = append(datatypes.JSONSlice[StreakSnapshot]{}, s.History[overflow:]...)
	}
}

// ActivityEntry is one graded practice submission within a day.
type ActivityEntry struct {
	ProblemID  uint      `json:"problemId"`
	Difficulty string    `json:"difficulty"`
	Status     string    `json:"status"`
	At         time.Time `json:"at"`
}

// DailyActivity aggregates a user's practice submissions for one UTC day.
type DailyActivity struct {
	ID        uint                               `gorm:"primaryKey" json:"id"`
	UserID    uint                               `gorm:"not null;uniqueIndex:idx_daily_activity" json:"user_id"`
	Day       string                             `gorm:"size:10;not null;uniqueIndex:idx_daily_activity" json:"day"`
	Date      time.Time                          `gorm:"not null" json:"date"`
	Count     int                                `gorm:"not null;default:0" json:"count"`
	Entries   datatypes.JSONSlice[ActivityEntry] `json:"entries"`
	CreatedAt time.Time                          `json:"created_at"`
	UpdatedAt time.Time                          `json:"updated_at"`
}

// PointActivity is an append-only ledger entry backing the users.points counter.
type PointActivity struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Mission   string    `gorm:"size:128;not null" json:"mission"`
	Points    int       `gorm:"not null" json:"points"`
	CreatedAt time.Time `json:"created_at"`
}

// Notification is a message addressed to a single user.
type Notification struct {
	ID        uint              `gorm:"primaryKey" json:"id"`
	UserID    uint              `gorm:"not null;index" json:"user_id"`
	Type      string            `gorm:"size:64" json:"type"`
	Message   string            `gorm:"type:text" json:"message"`
	Metadata  datatypes.JSONMap `json:"metadata"`
	Read      bool              `gorm:"not null;default:false" json:"read"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// UTCDay truncates an instant to midnight of its UTC calendar day.
func UTCDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// DayKey formats the UTC calendar day of t as YYYY-MM-DD.
func DayKey(t time.Time) string {
	return UTCDay(t).Format("2006-01-02")
}
