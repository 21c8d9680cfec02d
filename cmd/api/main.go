package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-judge-api/internal/config"
	"github.com/noah-isme/gema-judge-api/internal/database"
	"github.com/noah-isme/gema-judge-api/internal/grading"
	"github.com/noah-isme/gema-judge-api/internal/handler"
	"github.com/noah-isme/gema-judge-api/internal/middleware"
	"github.com/noah-isme/gema-judge-api/internal/models"
	"github.com/noah-isme/gema-judge-api/internal/repository"
	"github.com/noah-isme/gema-judge-api/internal/router"
	"github.com/noah-isme/gema-judge-api/internal/service"
	"github.com/noah-isme/gema-judge-api/pkg/ai"
	"github.com/noah-isme/gema-judge-api/pkg/judge"
	"github.com/noah-isme/gema-judge-api/pkg/sandbox"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", cfg.AppName).Logger()

	connectCtx, cancelConnect := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelConnect()

	db, err := database.ConnectPostgres(connectCtx, cfg.DatabaseURL, database.PostgresOptions{
		MaxOpenConns:    cfg.JudgeMaxParallel * 4,
		MaxIdleConns:    cfg.JudgeMaxParallel,
		ConnMaxLifetime: 30 * time.Minute,
		Verbose:         cfg.AppEnv == "development",
	})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(models.All()...); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(connectCtx, cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName)
		if err != nil {
			logger.Warn().Err(err).Msg("nats unavailable, notifications fan out over redis only")
		} else {
			defer natsConn.Drain()
		}
	}

	judgeClient, closeJudge, err := buildJudge(cfg, logger)
	if err != nil {
		log.Fatalf("failed to configure judge: %v", err)
	}
	defer closeJudge()

	var analyzer ai.Analyzer
	if cfg.AIProvider == "openai" && cfg.OpenAIAPIKey != "" {
		openAI, err := ai.NewOpenAIAnalyzer(ai.OpenAIConfig{
			APIKey: cfg.OpenAIAPIKey,
			Model:  cfg.OpenAIModel,
			Logger: logger,
		})
		if err != nil {
			logger.Warn().Err(err).Msg("complexity analysis disabled")
		} else {
			analyzer = openAI
		}
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	points := service.PointsConfig{
		DailyCheckIn:      cfg.PointsDailyCheckIn,
		Streak2:           cfg.PointsStreak2,
		Streak3:           cfg.PointsStreak3,
		Streak5:           cfg.PointsStreak5,
		AssessmentFree:    cfg.PointsAssessmentFree,
		AssessmentPremium: cfg.PointsAssessmentPaid,
	}

	problemRepo := repository.NewProblemRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	userRepo := repository.NewUserRepository(db)
	contestRepo := repository.NewContestRepository(db)
	assessmentRepo := repository.NewAssessmentRepository(db)
	streakRepo := repository.NewStreakRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	pointRepo := repository.NewPointRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	runner := grading.NewRunner(judgeClient, cfg.JudgeTimeout, logger)

	notificationService := service.NewNotificationService(notificationRepo, redisClient, cfg.NotificationChannel, natsConn, logger)
	rewardService := service.NewRewardService(pointRepo, userRepo, notificationService, logger)
	streakService := service.NewStreakService(streakRepo, logger)
	progressService := service.NewProgressService(activityRepo, streakService, rewardService, redisClient, points, logger)
	submissionService := service.NewSubmissionService(problemRepo, submissionRepo, userRepo, runner, progressService, streakService, analyzer, validate, logger)
	contestService := service.NewContestService(contestRepo, problemRepo, userRepo, runner, validate, logger)
	assessmentService := service.NewAssessmentService(assessmentRepo, problemRepo, userRepo, runner, rewardService, redisClient, points, validate, logger)
	dashboardService := service.NewDashboardService(userRepo, activityRepo, pointRepo, streakService, redisClient, cfg.DashboardCacheTTL, logger)
	seedService := service.NewSeedService(problemRepo, contestRepo, assessmentRepo, validate, cfg.SeedEnabled, cfg.SeedToken, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	notificationService.Start(ctx)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{
		Logger:    &logger,
		AccessLog: cfg.AppEnv == "development",
	})
	router.Register(app, cfg, router.Dependencies{
		SubmissionHandler:   handler.NewSubmissionHandler(submissionService, logger),
		ContestHandler:      handler.NewContestHandler(contestService, logger),
		AssessmentHandler:   handler.NewAssessmentHandler(assessmentService, logger),
		ProgressHandler:     handler.NewProgressHandler(streakService, dashboardService, logger),
		NotificationHandler: handler.NewNotificationHandler(notificationService, logger, 30*time.Second),
		SeedHandler:         handler.NewSeedHandler(seedService, logger),
		JWTMiddleware:       middleware.RequireAuth(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func buildJudge(cfg config.Config, logger zerolog.Logger) (judge.Client, func(), error) {
	if cfg.JudgeBackend == config.JudgeBackendDocker {
		executor, err := sandbox.NewDockerExecutor(sandbox.Config{
			Host:          cfg.DockerHost,
			Timeout:       cfg.ExecutionTimeout,
			MemoryLimitMB: int64(cfg.CodeRunMemoryMB),
			CPUShares:     int64(cfg.CodeRunCPUShares),
			Logger:        logger,
		})
		if err != nil {
			return nil, nil, err
		}
		local, err := judge.NewLocalJudge(judge.LocalConfig{
			Executor:      executor,
			Timeout:       cfg.ExecutionTimeout,
			MemoryLimitMB: int64(cfg.CodeRunMemoryMB),
			CPUShares:     int64(cfg.CodeRunCPUShares),
			MaxParallel:   cfg.JudgeMaxParallel,
			Logger:        logger,
		})
		if err != nil {
			_ = executor.Close()
			return nil, nil, err
		}
		return local, func() { _ = executor.Close() }, nil
	}

	client, err := judge.NewJudge0Client(judge.Judge0Config{
		BaseURL:      cfg.JudgeURL,
		APIKey:       cfg.JudgeAPIKey,
		APIHost:      cfg.JudgeAPIHost,
		PollInterval: cfg.JudgePollInterval,
		HTTPTimeout:  cfg.JudgeTimeout,
		Logger:       logger,
	})
	if err != nil {
		return nil, nil, err
	}
	return client, func() {}, nil
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
