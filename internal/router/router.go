package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/gema-judge-api/internal/config"
	"github.com/noah-isme/gema-judge-api/internal/handler"
	"github.com/noah-isme/gema-judge-api/internal/middleware"
	"github.com/noah-isme/gema-judge-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	SubmissionHandler   *handler.SubmissionHandler
	ContestHandler      *handler.ContestHandler
	AssessmentHandler   *handler.AssessmentHandler
	ProgressHandler     *handler.ProgressHandler
	NotificationHandler *handler.NotificationHandler
	SeedHandler         *handler.SeedHandler
	JWTMiddleware       fiber.Handler
	GradingLimiter      fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = middleware.RequireAuth(cfg.JWTSecret)
	}

	grading := deps.GradingLimiter
	if grading == nil {
		grading = middleware.RateLimit("grading", cfg.SubmissionsPerMinute, time.Minute)
	}

	if deps.SubmissionHandler != nil {
		deps.SubmissionHandler.Register(api.Group("/submission", jwtMiddleware), grading)
	}

	if deps.ContestHandler != nil {
		deps.ContestHandler.Register(api.Group("/contest", jwtMiddleware), grading)
	}

	if deps.AssessmentHandler != nil {
		deps.AssessmentHandler.Register(api.Group("/assessment", jwtMiddleware), grading)
	}

	if deps.ProgressHandler != nil {
		deps.ProgressHandler.Register(api.Group("/progress", jwtMiddleware))
	}

	if deps.NotificationHandler != nil {
		deps.NotificationHandler.Register(api.Group("/notifications", jwtMiddleware))
	}

	if deps.SeedHandler != nil {
		deps.SeedHandler.Register(api.Group("/seed", jwtMiddleware, middleware.RequireRole("admin")))
	}
}
