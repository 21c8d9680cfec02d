package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-judge-api/internal/dto"
	"github.com/noah-isme/gema-judge-api/internal/models"
	"github.com/noah-isme/gema-judge-api/internal/repository"
)

const (
	dashboardActivityDays = 7
	dashboardPointEntries = 10
)

// DashboardCacheKey is the redis key holding a user's cached dashboard.
func DashboardCacheKey(userID uint) string {
	return fmt.Sprintf("dashboard:user:%d", userID)
}

// DashboardService produces the aggregated progress view of a user.
type DashboardService interface {
	Get(ctx context.Context, userID uint) (dto.DashboardResponse, error)
}

type dashboardService struct {
	users      repository.UserRepository
	activities repository.ActivityRepository
	points     repository.PointRepository
	streaks    StreakService
	cache      *redis.Client
	cacheTTL   time.Duration
	logger     zerolog.Logger
	now        func() time.Time
}

// NewDashboardService builds the dashboard aggregator.
func NewDashboardService(users repository.UserRepository, activities repository.ActivityRepository, points repository.PointRepository, streaks StreakService, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) DashboardService {
	return &dashboardService{
		users:      users,
		activities: activities,
		points:     points,
		streaks:    streaks,
		cache:      cache,
		cacheTTL:   ttl,
		logger:     logger.With().Str("component", "dashboard_service").Logger(),
		now:        time.Now,
	}
}

func (s *dashboardService) Get(ctx context.Context, userID uint) (dto.DashboardResponse, error) {
	if userID == 0 {
		return dto.DashboardResponse{}, ErrMissingIdentifiers
	}
	cacheKey := DashboardCacheKey(userID)

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var response dto.DashboardResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				s.logger.Debug().Uint("user_id", userID).Msg("dashboard cache hit")
				return response, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Msg("failed to read dashboard cache")
		}
	}

	response, err := s.build(ctx, userID)
	if err != nil {
		return dto.DashboardResponse{}, err
	}

	if s.cache != nil {
		payload, err := json.Marshal(response)
		if err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store dashboard cache")
			}
		}
	}

	return response, nil
}

func (s *dashboardService) build(ctx context.Context, userID uint) (dto.DashboardResponse, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.DashboardResponse{}, ErrUserNotFound
		}
		return dto.DashboardResponse{}, err
	}

	solved, err := s.users.CountSolvedByDifficulty(ctx, userID)
	if err != nil {
		return dto.DashboardResponse{}, err
	}

	streak, err := s.streaks.Get(ctx, userID)
	if err != nil {
		return dto.DashboardResponse{}, err
	}

	badges, err := s.users.ListBadges(ctx, userID)
	if err != nil {
		return dto.DashboardResponse{}, err
	}

	now := s.now().UTC()
	since := models.UTCDay(now).AddDate(0, 0, -(dashboardActivityDays - 1))
	days, err := s.activities.ListSince(ctx, userID, since)
	if err != nil {
		return dto.DashboardResponse{}, err
	}

	ledger, err := s.points.ListByUser(ctx, userID, dashboardPointEntries)
	if err != nil {
		return dto.DashboardResponse{}, err
	}

	response := dto.DashboardResponse{
		UserID:        user.ID,
		Points:        user.Points,
		ContestRating: user.ContestRating,
		Solved: dto.SolvedSummary{
			Easy:   solved[models.DifficultyEasy],
			Medium: solved[models.DifficultyMedium],
			Hard:   solved[models.DifficultyHard],
		},
		Streak:         *streak.Summary(),
		Badges:         dto.NewBadgeResponseSlice(badges),
		RecentActivity: activityDays(days),
		RecentPoints:   make([]dto.PointEntry, 0, len(ledger)),
		GeneratedAt:    now,
	}
	response.Solved.Total = response.Solved.Easy + response.Solved.Medium + response.Solved.Hard

	for _, entry := range ledger {
		response.RecentPoints = append(response.RecentPoints, dto.PointEntry{
			Mission:   entry.Mission,
			Points:    entry.Points,
			CreatedAt: entry.CreatedAt,
		})
	}

	return response, nil
}

func activityDays(days []models.DailyActivity) []dto.ActivityDay {
	out := make([]dto.ActivityDay, 0, len(days))
	for _, day := range days {
		accepted := 0
		for _, entry := range day.Entries {
			if entry.Status == models.SubmissionStatusAccepted {
				accepted++
			}
		}
		out = append(out, dto.ActivityDay{Date: day.Day, Count: day.Count, Accepted: accepted})
	}
	return out
}

func invalidateDashboard(ctx context.Context, cache *redis.Client, logger zerolog.Logger, userID uint) {
	if cache == nil {
		return
	}
	if err := cache.Del(ctx, DashboardCacheKey(userID)).Err(); err != nil {
		logger.Warn().Err(err).Uint("user_id", userID).Msg("failed to invalidate dashboard cache")
	}
}
