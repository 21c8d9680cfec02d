package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-judge-api/internal/models"
	"github.com/noah-isme/gema-judge-api/internal/observability"
	"github.com/noah-isme/gema-judge-api/internal/repository"
)

// RewardService credits points and unlocks badges.
type RewardService interface {
	AwardPoints(ctx context.Context, userID uint, mission string, points int) (int64, error)
	GrantBadge(ctx context.Context, userID uint, name, description string) (bool, error)
}

type rewardService struct {
	points   repository.PointRepository
	users    repository.UserRepository
	notifier Notifier
	logger   zerolog.Logger
	now      func() time.Time
}

// NewRewardService constructs the reward service. A nil notifier disables notifications.
func NewRewardService(points repository.PointRepository, users repository.UserRepository, notifier Notifier, logger zerolog.Logger) RewardService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &rewardService{
		points:   points,
		users:    users,
		notifier: notifier,
		logger:   logger.With().Str("component", "reward_service").Logger(),
		now:      time.Now,
	}
}

// AwardPoints appends a ledger entry, increments the balance and returns the new balance.
func (s *rewardService) AwardPoints(ctx context.Context, userID uint, mission string, points int) (int64, error) {
	if userID == 0 || mission == "" {
		return 0, ErrMissingIdentifiers
	}
	if points <= 0 {
		return 0, newCategoryError(ErrBadRequest, "points must be positive")
	}

	_, balance, err := s.points.Award(ctx, userID, mission, points)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrUserNotFound
		}
		return 0, err
	}

	observability.PointsAwarded().WithLabelValues(mission).Add(float64(points))
	s.notify(ctx, userID, NotificationEvent{
		Type:    NotificationPointsAwarded,
		Message: fmt.Sprintf("You earned %d points: %s", points, mission),
		Metadata: map[string]interface{}{
			"points":  points,
			"mission": mission,
			"balance": balance,
		},
	})

	return balance, nil
}

// GrantBadge unlocks the badge unless the user already holds it. It reports whether
// the badge was newly granted.
func (s *rewardService) GrantBadge(ctx context.Context, userID uint, name, description string) (bool, error) {
	if userID == 0 || name == "" {
		return false, ErrMissingIdentifiers
	}

	held, err := s.users.HasBadge(ctx, userID, name)
	if err != nil {
		return false, err
	}
	if held {
		return false, nil
	}

	created, err := s.users.CreateBadge(ctx, &models.UserBadge{
		UserID:      userID,
		Name:        name,
		Description: description,
		EarnedAt:    s.now().UTC(),
	})
	if err != nil || !created {
		return false, err
	}

	observability.BadgesGranted().WithLabelValues(name).Inc()
	s.notify(ctx, userID, NotificationEvent{
		Type:     NotificationBadgeUnlocked,
		Message:  fmt.Sprintf("Badge unlocked: %s", name),
		Metadata: map[string]interface{}{"badge": name},
	})

	return true, nil
}

func (s *rewardService) notify(ctx context.Context, userID uint, event NotificationEvent) {
	if err := s.notifier.Notify(ctx, userID, event); err != nil {
		s.logger.Warn().Err(err).Uint("user_id", userID).Str("type", event.Type).Msg("failed to deliver notification")
	}
}
