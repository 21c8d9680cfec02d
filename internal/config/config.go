package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Judge backends.
const (
	JudgeBackendJudge0 = "judge0"
	JudgeBackendDocker = "docker"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName              string
	AppEnv               string
	AppPort              string
	DatabaseURL          string
	RedisURL             string
	NATSURL              string
	NotificationChannel  string
	JWTSecret            string
	DashboardCacheTTL    time.Duration
	JudgeBackend         string
	JudgeURL             string
	JudgeAPIKey          string
	JudgeAPIHost         string
	JudgePollInterval    time.Duration
	JudgeTimeout         time.Duration
	JudgeMaxParallel     int
	DockerHost           string
	ExecutionTimeout     time.Duration
	CodeRunMemoryMB      int
	CodeRunCPUShares     int
	PointsDailyCheckIn   int
	PointsStreak2        int
	PointsStreak3        int
	PointsStreak5        int
	PointsAssessmentFree int
	PointsAssessmentPaid int
	SubmissionsPerMinute int
	SeedEnabled          bool
	SeedToken            string
	AIProvider           string
	OpenAIAPIKey         string
	OpenAIModel          string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("GEMA")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "GEMA Judge API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("notifications.channel", "gema")
	v.SetDefault("dashboard.cache_ttl", "5m")
	v.SetDefault("judge.backend", JudgeBackendJudge0)
	v.SetDefault("judge.poll_interval", "500ms")
	v.SetDefault("judge.timeout", "30s")
	v.SetDefault("judge.max_parallel", 4)
	v.SetDefault("execution_timeout_ms", 5000)
	v.SetDefault("code_run_memory_mb", 256)
	v.SetDefault("code_run_cpu_shares", 512)
	v.SetDefault("points.daily_checkin", 5)
	v.SetDefault("points.streak_2", 10)
	v.SetDefault("points.streak_3", 15)
	v.SetDefault("points.streak_5", 25)
	v.SetDefault("points.assessment_free", 25)
	v.SetDefault("points.assessment_premium", 50)
	v.SetDefault("rate_limit.submissions_per_minute", 20)
	v.SetDefault("seed.enabled", false)
	v.SetDefault("ai.provider", "openai")
	v.SetDefault("openai_model", "gpt-4o-mini")

	ttl, err := parseDuration(v, "dashboard.cache_ttl")
	if err != nil {
		return Config{}, fmt.Errorf("invalid dashboard cache ttl: %w", err)
	}
	pollInterval, err := parseDuration(v, "judge.poll_interval")
	if err != nil {
		return Config{}, fmt.Errorf("invalid judge poll interval: %w", err)
	}
	judgeTimeout, err := parseDuration(v, "judge.timeout")
	if err != nil {
		return Config{}, fmt.Errorf("invalid judge timeout: %w", err)
	}

	timeoutMs := v.GetInt("execution_timeout_ms")
	if timeoutMs <= 0 {
		timeoutMs = 5000
	}

	cfg := Config{
		AppName:              v.GetString("app.name"),
		AppEnv:               v.GetString("app.env"),
		AppPort:              v.GetString("app.port"),
		DatabaseURL:          v.GetString("database.url"),
		RedisURL:             v.GetString("redis.url"),
		NATSURL:              v.GetString("nats.url"),
		NotificationChannel:  v.GetString("notifications.channel"),
		JWTSecret:            v.GetString("jwt.secret"),
		DashboardCacheTTL:    ttl,
		JudgeBackend:         strings.ToLower(strings.TrimSpace(v.GetString("judge.backend"))),
		JudgeURL:             v.GetString("judge.url"),
		JudgeAPIKey:          v.GetString("judge.api_key"),
		JudgeAPIHost:         v.GetString("judge.api_host"),
		JudgePollInterval:    pollInterval,
		JudgeTimeout:         judgeTimeout,
		JudgeMaxParallel:     v.GetInt("judge.max_parallel"),
		DockerHost:           v.GetString("docker_host"),
		ExecutionTimeout:     time.Duration(timeoutMs) * time.Millisecond,
		CodeRunMemoryMB:      v.GetInt("code_run_memory_mb"),
		CodeRunCPUShares:     v.GetInt("code_run_cpu_shares"),
		PointsDailyCheckIn:   v.GetInt("points.daily_checkin"),
		PointsStreak2:        v.GetInt("points.streak_2"),
		PointsStreak3:        v.GetInt("points.streak_3"),
		PointsStreak5:        v.GetInt("points.streak_5"),
		PointsAssessmentFree: v.GetInt("points.assessment_free"),
		PointsAssessmentPaid: v.GetInt("points.assessment_premium"),
		SubmissionsPerMinute: v.GetInt("rate_limit.submissions_per_minute"),
		SeedEnabled:          v.GetBool("seed.enabled"),
		SeedToken:            v.GetString("seed.token"),
		AIProvider:           strings.ToLower(v.GetString("ai.provider")),
		OpenAIAPIKey:         v.GetString("openai_api_key"),
		OpenAIModel:          v.GetString("openai_model"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	switch cfg.JudgeBackend {
	case JudgeBackendJudge0, JudgeBackendDocker:
	default:
		return Config{}, fmt.Errorf("unknown judge backend %q", cfg.JudgeBackend)
	}

	if cfg.JudgeMaxParallel <= 0 {
		cfg.JudgeMaxParallel = 4
	}
	if cfg.CodeRunMemoryMB <= 0 {
		cfg.CodeRunMemoryMB = 256
	}
	if cfg.CodeRunCPUShares <= 0 {
		cfg.CodeRunCPUShares = 512
	}
	if cfg.SubmissionsPerMinute <= 0 {
		cfg.SubmissionsPerMinute = 20
	}

	return cfg, nil
}

func parseDuration(v *viper.Viper, key string) (time.Duration, error) {
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" {
		return 0, nil
	}
	return time.ParseDuration(raw)
}
