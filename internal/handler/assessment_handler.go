package handler

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-judge-api/internal/dto"
	"github.com/noah-isme/gema-judge-api/internal/service"
	"github.com/noah-isme/gema-judge-api/internal/utils"
)

// AssessmentHandler exposes the assessment attempt lifecycle.
type AssessmentHandler struct {
	service service.AssessmentService
	logger  zerolog.Logger
}

// NewAssessmentHandler constructs an assessment handler.
func NewAssessmentHandler(service service.AssessmentService, logger zerolog.Logger) *AssessmentHandler {
	return &AssessmentHandler{
		service: service,
		logger:  logger.With().Str("component", "assessment_handler").Logger(),
	}
}

// Register wires the assessment routes; grading handlers guard the coding answer route.
func (h *AssessmentHandler) Register(router fiber.Router, grading ...fiber.Handler) {
	router.Post("/:assessmentId/start", h.start)
	router.Post("/:assessmentId/mcq-answer", h.mcqAnswer)
	router.Post("/:assessmentId/coding-answer", withHandlers(grading, h.codingAnswer)...)
	router.Post("/:assessmentId/complete", h.complete)
	router.Post("/:assessmentId/abandon", h.abandon)
}

func (h *AssessmentHandler) identifiers(c *fiber.Ctx) (uint, uint, error) {
	userID := userIDFromContext(c)
	if userID == 0 {
		return 0, 0, errUnauthenticated
	}
	assessmentID, err := parseIDParam(c, "assessmentId")
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", service.ErrBadRequest, err)
	}
	return userID, assessmentID, nil
}

func (h *AssessmentHandler) start(c *fiber.Ctx) error {
	userID, assessmentID, err := h.identifiers(c)
	if err != nil {
		return sendScopedError(c, requestLogger(h.logger, c), "invalid request", err)
	}

	attempt, err := h.service.Start(requestContext(c), userID, assessmentID)
	if err != nil {
		return sendScopedError(c, requestLogger(h.logger, c), "failed to start assessment", err)
	}

	return utils.SendSuccess(c, "assessment started", attempt)
}

func (h *AssessmentHandler) mcqAnswer(c *fiber.Ctx) error {
	userID, assessmentID, err := h.identifiers(c)
	if err != nil {
		return sendScopedError(c, requestLogger(h.logger, c), "invalid request", err)
	}

	var payload dto.MCQAnswerRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, "invalid payload", fiber.Map{"error": err.Error()})
	}

	answer, err := h.service.SubmitMCQAnswer(requestContext(c), userID, assessmentID, payload)
	if err != nil {
		return sendScopedError(c, requestLogger(h.logger, c), "failed to record answer", err)
	}

	return utils.SendSuccess(c, "answer recorded", answer)
}

func (h *AssessmentHandler) codingAnswer(c *fiber.Ctx) error {
	userID, assessmentID, err := h.identifiers(c)
	if err != nil {
		return sendScopedError(c, requestLogger(h.logger, c), "invalid request", err)
	}

	var payload dto.CodingAnswerRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, "invalid payload", fiber.Map{"error": err.Error()})
	}

	answer, err := h.service.SubmitCodingAnswer(requestContext(c), userID, assessmentID, payload)
	if err != nil {
		return sendScopedError(c, requestLogger(h.logger, c), "failed to grade answer", err)
	}

	return utils.SendSuccess(c, "answer graded", answer)
}

func (h *AssessmentHandler) complete(c *fiber.Ctx) error {
	userID, assessmentID, err := h.identifiers(c)
	if err != nil {
		return sendScopedError(c, requestLogger(h.logger, c), "invalid request", err)
	}

	var payload dto.AssessmentSubmissionRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, "invalid payload", fiber.Map{"error": err.Error()})
	}

	logger := requestLogger(h.logger, c)
	result, err := h.service.Complete(requestContext(c), userID, assessmentID, payload)
	if err != nil {
		return sendScopedError(c, logger, "failed to complete assessment", err)
	}

	logger.Info().
		Uint("user_id", userID).
		Uint("assessment_id", assessmentID).
		Float64("percentage", result.Percentage).
		Msg("assessment completed")

	return utils.SendSuccess(c, "assessment completed", result)
}

func (h *AssessmentHandler) abandon(c *fiber.Ctx) error {
	userID, assessmentID, err := h.identifiers(c)
	if err != nil {
		return sendScopedError(c, requestLogger(h.logger, c), "invalid request", err)
	}

	var payload dto.AssessmentSubmissionRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, "invalid payload", fiber.Map{"error": err.Error()})
	}

	attempt, err := h.service.Abandon(requestContext(c), userID, assessmentID, payload)
	if err != nil {
		return sendScopedError(c, requestLogger(h.logger, c), "failed to abandon assessment", err)
	}

	return utils.SendSuccess(c, "assessment abandoned", attempt)
}
