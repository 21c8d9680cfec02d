package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-judge-api/internal/dto"
	"github.com/noah-isme/gema-judge-api/internal/service"
	"github.com/noah-isme/gema-judge-api/internal/utils"
)

// SubmissionHandler exposes the practice grading endpoints.
type SubmissionHandler struct {
	service service.SubmissionService
	logger  zerolog.Logger
}

// NewSubmissionHandler constructs a submission handler.
func NewSubmissionHandler(service service.SubmissionService, logger zerolog.Logger) *SubmissionHandler {
	return &SubmissionHandler{
		service: service,
		logger:  logger.With().Str("component", "submission_handler").Logger(),
	}
}

// Register wires the submission routes. The grading handlers run in front of the routes
// that call the judge.
func (h *SubmissionHandler) Register(router fiber.Router, grading ...fiber.Handler) {
	router.Post("/submit/:problemId", withHandlers(grading, h.submit)...)
	router.Post("/run/:problemId", withHandlers(grading, h.run)...)
	router.Get("/", h.list)
	router.Get("/:id", h.get)
	router.Post("/:id/analyze", h.analyze)
}

func (h *SubmissionHandler) submit(c *fiber.Ctx) error {
	logger := requestLogger(h.logger, c)

	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}
	problemID, err := parseIDParam(c, "problemId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.SubmitCodeRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	result, err := h.service.SubmitCode(requestContext(c), userID, problemID, payload)
	if err != nil {
		return sendPracticeError(c, logger, err)
	}

	logger.Info().
		Uint("user_id", userID).
		Uint("problem_id", problemID).
		Uint("submission_id", result.SubmissionID).
		Str("status", result.Status).
		Msg("practice submission graded")

	return utils.SendSuccess(c, "submission graded", result)
}

func (h *SubmissionHandler) run(c *fiber.Ctx) error {
	logger := requestLogger(h.logger, c)

	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}
	problemID, err := parseIDParam(c, "problemId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.RunCodeRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	result, err := h.service.RunCode(requestContext(c), userID, problemID, payload)
	if err != nil {
		return sendPracticeError(c, logger, err)
	}

	return utils.SendSuccess(c, "code executed", result)
}

func (h *SubmissionHandler) get(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	submission, err := h.service.Get(requestContext(c), userID, id)
	if err != nil {
		return sendPracticeError(c, requestLogger(h.logger, c), err)
	}

	return utils.SendSuccess(c, "submission retrieved", submission)
}

func (h *SubmissionHandler) list(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	var query dto.SubmissionListQuery
	if err := c.QueryParser(&query); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid query parameters")
	}

	items, meta, err := h.service.List(requestContext(c), userID, query)
	if err != nil {
		return sendPracticeError(c, requestLogger(h.logger, c), err)
	}

	return utils.OK(c, items, "submissions retrieved", meta)
}

func (h *SubmissionHandler) analyze(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	analysis, err := h.service.Analyze(requestContext(c), userID, id)
	if err != nil {
		return sendPracticeError(c, requestLogger(h.logger, c), err)
	}

	return utils.SendSuccess(c, "analysis generated", analysis)
}
