package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("GEMA_JWT_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "GEMA Judge API", cfg.AppName)
	require.Equal(t, ":8080", cfg.HTTPAddress())
	require.Equal(t, JudgeBackendJudge0, cfg.JudgeBackend)
	require.Equal(t, 500*time.Millisecond, cfg.JudgePollInterval)
	require.Equal(t, 30*time.Second, cfg.JudgeTimeout)
	require.Equal(t, 5*time.Minute, cfg.DashboardCacheTTL)
	require.Equal(t, 5*time.Second, cfg.ExecutionTimeout)
	require.Equal(t, 5, cfg.PointsDailyCheckIn)
	require.Equal(t, 10, cfg.PointsStreak2)
	require.Equal(t, 15, cfg.PointsStreak3)
	require.Equal(t, 25, cfg.PointsStreak5)
	require.Equal(t, 25, cfg.PointsAssessmentFree)
	require.Equal(t, 50, cfg.PointsAssessmentPaid)
	require.Equal(t, 20, cfg.SubmissionsPerMinute)
	require.False(t, cfg.SeedEnabled)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("GEMA_JWT_SECRET", "secret")
	t.Setenv("GEMA_APP_PORT", ":9000")
	t.Setenv("GEMA_JUDGE_BACKEND", "Docker")
	t.Setenv("GEMA_JUDGE_TIMEOUT", "10s")
	t.Setenv("GEMA_POINTS_STREAK_5", "40")
	t.Setenv("GEMA_SEED_ENABLED", "true")
	t.Setenv("GEMA_SEED_TOKEN", "seed-me")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":9000", cfg.HTTPAddress())
	require.Equal(t, JudgeBackendDocker, cfg.JudgeBackend)
	require.Equal(t, 10*time.Second, cfg.JudgeTimeout)
	require.Equal(t, 40, cfg.PointsStreak5)
	require.True(t, cfg.SeedEnabled)
	require.Equal(t, "seed-me", cfg.SeedToken)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Run("missing secret", func(t *testing.T) {
		t.Setenv("GEMA_JWT_SECRET", "")
		_, err := Load()
		require.Error(t, err)
	})

	t.Run("bad duration", func(t *testing.T) {
		t.Setenv("GEMA_JWT_SECRET", "secret")
		t.Setenv("GEMA_JUDGE_POLL_INTERVAL", "soon")
		_, err := Load()
		require.Error(t, err)
	})

	t.Run("unknown backend", func(t *testing.T) {
		t.Setenv("GEMA_JWT_SECRET", "secret")
		t.Setenv("GEMA_JUDGE_BACKEND", "lambda")
		_, err := Load()
		require.Error(t, err)
	})
}
