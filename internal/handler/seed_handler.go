package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-judge-api/internal/dto"
	"github.com/noah-isme/gema-judge-api/internal/service"
	"github.com/noah-isme/gema-judge-api/internal/utils"
)

const seedTokenHeader = "X-Seed-Token"

// SeedHandler exposes tooling endpoints for loading problems, contests and assessments.
type SeedHandler struct {
	service service.SeedService
	logger  zerolog.Logger
}

// NewSeedHandler constructs a seed handler.
func NewSeedHandler(service service.SeedService, logger zerolog.Logger) *SeedHandler {
	return &SeedHandler{
		service: service,
		logger:  logger.With().Str("component", "seed_handler").Logger(),
	}
}

// Register wires seed routes.
func (h *SeedHandler) Register(router fiber.Router) {
	router.Post("/problems", h.problems)
	router.Post("/contests", h.contests)
	router.Post("/assessments", h.assessments)
}

type seedProblemsRequest struct {
	Items []dto.SeedProblem `json:"items"`
}

type seedContestsRequest struct {
	Items []dto.SeedContest `json:"items"`
}

type seedAssessmentsRequest struct {
	Items []dto.SeedAssessment `json:"items"`
}

func (h *SeedHandler) problems(c *fiber.Ctx) error {
	var payload seedProblemsRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	result, err := h.service.SeedProblems(requestContext(c), c.Get(seedTokenHeader), payload.Items)
	if err != nil {
		return h.seedError(c, err)
	}

	return utils.SendSuccess(c, "problems seeded", result)
}

func (h *SeedHandler) contests(c *fiber.Ctx) error {
	var payload seedContestsRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	result, err := h.service.SeedContests(requestContext(c), c.Get(seedTokenHeader), payload.Items)
	if err != nil {
		return h.seedError(c, err)
	}

	return utils.SendSuccess(c, "contests seeded", result)
}

func (h *SeedHandler) assessments(c *fiber.Ctx) error {
	var payload seedAssessmentsRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	result, err := h.service.SeedAssessments(requestContext(c), c.Get(seedTokenHeader), payload.Items)
	if err != nil {
		return h.seedError(c, err)
	}

	return utils.SendSuccess(c, "assessments seeded", result)
}

func (h *SeedHandler) seedError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrSeedDisabled):
		return utils.SendError(c, fiber.StatusForbidden, "seeding disabled")
	case errors.Is(err, service.ErrSeedUnauthorized):
		return utils.SendError(c, fiber.StatusForbidden, "invalid token")
	case isValidationError(err):
		return utils.Fail(c, fiber.StatusBadRequest, "invalid seed item", validationDetails(err))
	case errors.Is(err, service.ErrNotFound), errors.Is(err, service.ErrBadRequest):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("seed operation failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "seed operation failed")
	}
}
