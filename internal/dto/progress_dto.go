package dto

import (
	"time"

	"github.com/noah-isme/gema-judge-api/internal/models"
)

// BadgeResponse describes an unlocked badge.
type BadgeResponse struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	EarnedAt    time.Time `json:"earnedAt"`
}

// NewBadgeResponseSlice converts badges into DTOs.
func NewBadgeResponseSlice(items []models.UserBadge) []BadgeResponse {
	out := make([]BadgeResponse, 0, len(items))
	for _, item := range items {
		out = append(out, BadgeResponse{Name: item.Name, Description: item.Description, EarnedAt: item.EarnedAt})
	}
	return out
}

// SolvedSummary counts solved problems by difficulty.
type SolvedSummary struct {
	Total  int64 `json:"total"`
	Easy   int64 `json:"easy"`
	Medium int64 `json:"medium"`
	Hard   int64 `json:"hard"`
}

// ActivityDay is the submission count of one UTC day.
type ActivityDay struct {
	Date     string `json:"date"`
	Count    int    `json:"count"`
	Accepted int    `json:"accepted"`
}

// PointEntry is one ledger line.
type PointEntry struct {
	Mission   string    `json:"mission"`
	Points    int       `json:"points"`
	CreatedAt time.Time `json:"createdAt"`
}

// DashboardResponse aggregates a user's progress.
type DashboardResponse struct {
	UserID         uint            `json:"userId"`
	Points         int64           `json:"points"`
	ContestRating  int             `json:"contestRating"`
	Solved         SolvedSummary   `json:"solved"`
	Streak         StreakSummary   `json:"streak"`
	Badges         []BadgeResponse `json:"badges"`
	RecentActivity []ActivityDay   `json:"recentActivity"`
	RecentPoints   []PointEntry    `json:"recentPoints"`
	GeneratedAt    time.Time       `json:"generatedAt"`
}
