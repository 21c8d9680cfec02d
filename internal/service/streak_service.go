package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-judge-api/internal/dto"
	"github.com/noah-isme/gema-judge-api/internal/models"
	"github.com/noah-isme/gema-judge-api/internal/repository"
)

// StreakState is the streak after an update or read.
type StreakState struct {
	CurrentStreak      int
	MaxStreak          int
	LastSubmissionDate *time.Time
	HasSubmittedToday  bool
	Advanced           bool
}

// Summary converts the state into its response shape.
func (s StreakState) Summary() *dto.StreakSummary {
	return &dto.StreakSummary{
		CurrentStreak:      s.CurrentStreak,
		MaxStreak:          s.MaxStreak,
		LastSubmissionDate: s.LastSubmissionDate,
		HasSubmittedToday:  s.HasSubmittedToday,
	}
}

func newStreakState(streak models.UserStreak) StreakState {
	return StreakState{
		CurrentStreak:      streak.CurrentStreak,
		MaxStreak:          streak.MaxStreak,
		LastSubmissionDate: streak.LastSubmissionDate,
	}
}

// AdvanceStreak applies an accepted submission made at the given instant. It returns
// true when the user already had an accepted submission that UTC day, in which case
// the streak is left untouched.
func AdvanceStreak(streak *models.UserStreak, at time.Time) bool {
	today := models.UTCDay(at)

	if streak.LastSubmissionDate == nil {
		streak.CurrentStreak = 1
	} else {
		days := daysBetween(*streak.LastSubmissionDate, today)
		switch {
		case days <= 0:
			return true
		case days == 1:
			streak.CurrentStreak++
		default:
			streak.CurrentStreak = 1
		}
	}

	if streak.CurrentStreak > streak.MaxStreak {
		streak.MaxStreak = streak.CurrentStreak
	}
	streak.LastSubmissionDate = &today
	streak.AppendHistory(models.StreakSnapshot{Date: today, Streak: streak.CurrentStreak})
	return false
}

func daysBetween(from, to time.Time) int {
	return int(models.UTCDay(to).Sub(models.UTCDay(from)).Hours() / 24)
}

// StreakService maintains consecutive-day acceptance streaks.
type StreakService interface {
	Update(ctx context.Context, userID uint, at time.Time) (StreakState, error)
	Get(ctx context.Context, userID uint) (StreakState, error)
}

type streakService struct {
	repo   repository.StreakRepository
	logger zerolog.Logger
	now    func() time.Time
}

// NewStreakService constructs the streak service.
func NewStreakService(repo repository.StreakRepository, logger zerolog.Logger) StreakService {
	return &streakService{
		repo:   repo,
		logger: logger.With().Str("component", "streak_service").Logger(),
		now:    time.Now,
	}
}

func (s *streakService) load(ctx context.Context, userID uint) (models.UserStreak, error) {
	streak, err := s.repo.GetByUser(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.UserStreak{UserID: userID}, nil
	}
	return streak, err
}

// Update records an accepted submission made at the given instant.
func (s *streakService) Update(ctx context.Context, userID uint, at time.Time) (StreakState, error) {
	streak, err := s.load(ctx, userID)
	if err != nil {
		return StreakState{}, err
	}

	if AdvanceStreak(&streak, at) {
		state := newStreakState(streak)
		state.HasSubmittedToday = true
		return state, nil
	}

	if err := s.repo.Save(ctx, &streak); err != nil {
		return StreakState{}, err
	}

	state := newStreakState(streak)
	state.Advanced = true
	state.HasSubmittedToday = true
	return state, nil
}

// Get returns the streak as of now. A streak whose last accepted day is more than one
// day old is reset to zero and persisted.
func (s *streakService) Get(ctx context.Context, userID uint) (StreakState, error) {
	streak, err := s.load(ctx, userID)
	if err != nil {
		return StreakState{}, err
	}

	if streak.LastSubmissionDate == nil {
		return newStreakState(streak), nil
	}

	days := daysBetween(*streak.LastSubmissionDate, s.now())
	if days > 1 && streak.CurrentStreak != 0 {
		streak.CurrentStreak = 0
		if err := s.repo.Save(ctx, &streak); err != nil {
			return StreakState{}, err
		}
		s.logger.Debug().Uint("user_id", userID).Int("idle_days", days).Msg("streak expired")
	}

	state := newStreakState(streak)
	state.HasSubmittedToday = days <= 0
	return state, nil
}
