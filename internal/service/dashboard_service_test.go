package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-judge-api/internal/dto"
	"github.com/noah-isme/gema-judge-api/internal/models"
)

func TestDashboardAggregatesAndCaches(t *testing.T) {
	stack := newGradingStack(t)
	user := createUser(t, stack.db, "dash@example.com", false)
	easy := createProblem(t, stack.db, "dash-easy", models.DifficultyEasy, 1)
	hard := createProblem(t, stack.db, "dash-hard", models.DifficultyHard, 1)
	ctx := context.Background()
	payload := dto.SubmitCodeRequest{Code: "print(1)", Language: "python"}

	_, err := stack.submissions.SubmitCode(ctx, user.ID, easy.ID, payload)
	require.NoError(t, err)

	dashboard, err := stack.dashboard.Get(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, int64(5), dashboard.Points)
	require.Equal(t, models.DefaultContestRating, dashboard.ContestRating)
	require.Equal(t, int64(1), dashboard.Solved.Total)
	require.Equal(t, int64(1), dashboard.Solved.Easy)
	require.Equal(t, 1, dashboard.Streak.CurrentStreak)
	require.Len(t, dashboard.Badges, 2)
	require.Len(t, dashboard.RecentActivity, 1)
	require.Equal(t, 1, dashboard.RecentActivity[0].Accepted)
	require.Len(t, dashboard.RecentPoints, 1)
	require.True(t, stack.redis.Exists(DashboardCacheKey(user.ID)))

	require.NoError(t, stack.db.Model(&models.User{}).Where("id = ?", user.ID).Update("points", 999).Error)
	cached, err := stack.dashboard.Get(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, int64(5), cached.Points)

	stack.judge.setResponder(rejectAll)
	_, err = stack.submissions.SubmitCode(ctx, user.ID, hard.ID, payload)
	require.NoError(t, err)
	require.False(t, stack.redis.Exists(DashboardCacheKey(user.ID)))

	fresh, err := stack.dashboard.Get(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, int64(999), fresh.Points)
	require.Equal(t, int64(1), fresh.Solved.Hard)
	require.Equal(t, 2, fresh.RecentActivity[0].Count)
	require.Equal(t, 1, fresh.RecentActivity[0].Accepted)
}

func TestDashboardUnknownUser(t *testing.T) {
	stack := newGradingStack(t)

	_, err := stack.dashboard.Get(context.Background(), 404)
	require.ErrorIs(t, err, ErrUserNotFound)
}
