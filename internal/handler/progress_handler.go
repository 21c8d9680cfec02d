package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-judge-api/internal/service"
	"github.com/noah-isme/gema-judge-api/internal/utils"
)

// ProgressHandler exposes streak and dashboard reads.
type ProgressHandler struct {
	streaks   service.StreakService
	dashboard service.DashboardService
	logger    zerolog.Logger
}

// NewProgressHandler creates a new handler instance.
func NewProgressHandler(streaks service.StreakService, dashboard service.DashboardService, logger zerolog.Logger) *ProgressHandler {
	return &ProgressHandler{
		streaks:   streaks,
		dashboard: dashboard,
		logger:    logger.With().Str("component", "progress_handler").Logger(),
	}
}

// Register attaches the progress endpoints.
func (h *ProgressHandler) Register(router fiber.Router) {
	router.Get("/streak", h.getStreak)
	router.Get("/dashboard", h.getDashboard)
}

func (h *ProgressHandler) getStreak(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	state, err := h.streaks.Get(requestContext(c), userID)
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Uint("user_id", userID).Msg("failed to load streak")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to load streak")
	}

	return utils.SendSuccess(c, "streak retrieved", state.Summary())
}

func (h *ProgressHandler) getDashboard(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	dashboard, err := h.dashboard.Get(requestContext(c), userID)
	if err != nil {
		return sendPracticeError(c, requestLogger(h.logger, c), err)
	}

	return utils.SendSuccess(c, "dashboard retrieved", dashboard)
}
