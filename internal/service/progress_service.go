package service

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-judge-api/internal/models"
	"github.com/noah-isme/gema-judge-api/internal/repository"
)

// PointsConfig holds the fixed point awards.
type PointsConfig struct {
	DailyCheckIn      int
	Streak2           int
	Streak3           int
	Streak5           int
	AssessmentFree    int
	AssessmentPremium int
}

// DefaultPointsConfig returns the stock point values.
func DefaultPointsConfig() PointsConfig {
	return PointsConfig{
		DailyCheckIn:      5,
		Streak2:           10,
		Streak3:           15,
		Streak5:           25,
		AssessmentFree:    25,
		AssessmentPremium: 50,
	}
}

func (c PointsConfig) streakBonus(streak int) int {
	switch streak {
	case 2:
		return c.Streak2
	case 3:
		return c.Streak3
	case 5:
		return c.Streak5
	default:
		return 0
	}
}

const missionDailyCheckIn = "Daily Check-in"

var streakBadges = map[int]string{
	1: "1 Day Streak",
	2: "2 Day Streak",
	3: "3 Day Streak",
	5: "5 Day Streak",
}

var solvedBadges = map[int64]string{
	1: "First Problem Solved",
	2: "2 Problems Solved",
	3: "3 Problems Solved",
	5: "5 Problems Solved",
}

// ProgressEvent describes a finalised practice submission.
type ProgressEvent struct {
	UserID     uint
	ProblemID  uint
	Difficulty string
	Status     string
	At         time.Time
	// SolvedSetGrew is true when the problem was newly added to the solved set, in
	// which case SolvedCount is the new size of the set.
	SolvedSetGrew bool
	SolvedCount   int64
}

// ProgressResult lists the side effects applied for an event.
type ProgressResult struct {
	Streak         *StreakState
	PointsAwarded  int
	BadgesUnlocked []string
}

// ProgressService applies gamification side effects of graded practice submissions.
type ProgressService interface {
	Record(ctx context.Context, event ProgressEvent) ProgressResult
}

type progressService struct {
	activities repository.ActivityRepository
	streaks    StreakService
	rewards    RewardService
	cache      *redis.Client
	points     PointsConfig
	logger     zerolog.Logger
}

// NewProgressService constructs the progress engine.
func NewProgressService(activities repository.ActivityRepository, streaks StreakService, rewards RewardService, cache *redis.Client, points PointsConfig, logger zerolog.Logger) ProgressService {
	return &progressService{
		activities: activities,
		streaks:    streaks,
		rewards:    rewards,
		cache:      cache,
		points:     points,
		logger:     logger.With().Str("component", "progress_service").Logger(),
	}
}

// Record applies every side effect independently. Failures are logged and never
// returned so that grading results are always delivered.
func (s *progressService) Record(ctx context.Context, event ProgressEvent) ProgressResult {
	logger := s.logger.With().Uint("user_id", event.UserID).Uint("problem_id", event.ProblemID).Logger()
	result := ProgressResult{BadgesUnlocked: []string{}}

	if _, err := s.activities.Record(ctx, event.UserID, models.ActivityEntry{
		ProblemID:  event.ProblemID,
		Difficulty: event.Difficulty,
		Status:     event.Status,
		At:         event.At.UTC(),
	}); err != nil {
		logger.Error().Err(err).Msg("failed to record daily activity")
	}

	if event.Status == models.SubmissionStatusAccepted {
		s.applyStreak(ctx, logger, event, &result)
	}

	if event.SolvedSetGrew {
		if name, ok := solvedBadges[event.SolvedCount]; ok {
			s.grant(ctx, logger, event.UserID, name, fmt.Sprintf("Solved %d problem(s)", event.SolvedCount), &result)
		}
	}

	invalidateDashboard(ctx, s.cache, logger, event.UserID)
	return result
}

func (s *progressService) applyStreak(ctx context.Context, logger zerolog.Logger, event ProgressEvent, result *ProgressResult) {
	streak, err := s.streaks.Update(ctx, event.UserID, event.At)
	if err != nil {
		logger.Error().Err(err).Msg("failed to update streak")
		return
	}
	result.Streak = &streak

	s.award(ctx, logger, event.UserID, missionDailyCheckIn, s.points.DailyCheckIn, result)

	// Milestones are only paid when the streak actually moved today.
	if streak.Advanced {
		if bonus := s.points.streakBonus(streak.CurrentStreak); bonus > 0 {
			s.award(ctx, logger, event.UserID, fmt.Sprintf("%d Day Streak Bonus", streak.CurrentStreak), bonus, result)
		}
	}

	if name, ok := streakBadges[streak.CurrentStreak]; ok {
		s.grant(ctx, logger, event.UserID, name, fmt.Sprintf("Reached a %d day streak", streak.CurrentStreak), result)
	}
}

func (s *progressService) award(ctx context.Context, logger zerolog.Logger, userID uint, mission string, points int, result *ProgressResult) {
	if points <= 0 {
		return
	}
	if _, err := s.rewards.AwardPoints(ctx, userID, mission, points); err != nil {
		logger.Error().Err(err).Str("mission", mission).Msg("failed to award points")
		return
	}
	result.PointsAwarded += points
}

func (s *progressService) grant(ctx context.Context, logger zerolog.Logger, userID uint, name, description string, result *ProgressResult) {
	granted, err := s.rewards.GrantBadge(ctx, userID, name, description)
	if err != nil {
		logger.Error().Err(err).Str("badge", name).Msg("failed to grant badge")
		return
	}
	if granted {
		result.BadgesUnlocked = append(result.BadgesUnlocked, name)
	}
}
