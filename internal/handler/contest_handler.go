package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-judge-api/internal/dto"
	"github.com/noah-isme/gema-judge-api/internal/service"
	"github.com/noah-isme/gema-judge-api/internal/utils"
)

// ContestHandler exposes contest registration, submission and standings.
type ContestHandler struct {
	service service.ContestService
	logger  zerolog.Logger
}

// NewContestHandler constructs a contest handler.
func NewContestHandler(service service.ContestService, logger zerolog.Logger) *ContestHandler {
	return &ContestHandler{
		service: service,
		logger:  logger.With().Str("component", "contest_handler").Logger(),
	}
}

// Register wires the contest routes; grading handlers guard the submit route.
func (h *ContestHandler) Register(router fiber.Router, grading ...fiber.Handler) {
	router.Post("/:contestId/register", h.register)
	router.Post("/:contestId/submit", withHandlers(grading, h.submit)...)
	router.Get("/:contestId/leaderboard", h.leaderboard)
	router.Get("/:contestId/report", h.report)
}

func (h *ContestHandler) register(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}
	contestID, err := parseIDParam(c, "contestId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	registration, err := h.service.Register(requestContext(c), userID, contestID)
	if err != nil {
		return sendScopedError(c, requestLogger(h.logger, c), "failed to register for contest", err)
	}

	return utils.SendSuccess(c, "registered for contest", registration)
}

func (h *ContestHandler) submit(c *fiber.Ctx) error {
	logger := requestLogger(h.logger, c)

	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}
	contestID, err := parseIDParam(c, "contestId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.ContestSubmitRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, "invalid payload", fiber.Map{"error": err.Error()})
	}

	result, err := h.service.SubmitSolution(requestContext(c), userID, contestID, payload)
	if err != nil {
		return sendScopedError(c, logger, "failed to submit solution", err)
	}

	logger.Info().
		Uint("user_id", userID).
		Uint("contest_id", contestID).
		Uint("problem_id", payload.ProblemID).
		Str("status", result.Submission.Status).
		Msg("contest submission graded")

	return utils.SendSuccess(c, result.Message, result)
}

func (h *ContestHandler) leaderboard(c *fiber.Ctx) error {
	contestID, err := parseIDParam(c, "contestId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	board, err := h.service.Leaderboard(requestContext(c), contestID)
	if err != nil {
		return sendScopedError(c, requestLogger(h.logger, c), "failed to load leaderboard", err)
	}

	return utils.SendSuccess(c, "leaderboard retrieved", board)
}

func (h *ContestHandler) report(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}
	contestID, err := parseIDParam(c, "contestId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	report, err := h.service.Report(requestContext(c), userID, contestID)
	if err != nil {
		return sendScopedError(c, requestLogger(h.logger, c), "failed to load contest report", err)
	}

	return utils.SendSuccess(c, "contest report retrieved", report)
}
