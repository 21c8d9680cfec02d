package handler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-judge-api/internal/middleware"
	"github.com/noah-isme/gema-judge-api/internal/service"
	"github.com/noah-isme/gema-judge-api/internal/utils"
)

var errUnauthenticated = errors.New("user not authenticated")

func withHandlers(before []fiber.Handler, handler fiber.Handler) []fiber.Handler {
	out := make([]fiber.Handler, 0, len(before)+1)
	out = append(out, before...)
	return append(out, handler)
}

func parseQueryInt(c *fiber.Ctx, key string) (int, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return 0, nil
	}
	return strconv.Atoi(value)
}

func parseIDParam(c *fiber.Ctx, key string) (uint, error) {
	value := strings.TrimSpace(c.Params(key))
	if value == "" {
		return 0, fmt.Errorf("%s required", key)
	}
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil || parsed == 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return uint(parsed), nil
}

func userIDFromContext(c *fiber.Ctx) uint {
	switch id := c.Locals(middleware.LocalUserID).(type) {
	case uint:
		return id
	case int:
		if id > 0 {
			return uint(id)
		}
	}
	return 0
}

func requestLogger(base zerolog.Logger, c *fiber.Ctx) *zerolog.Logger {
	logger := base
	if c != nil {
		if correlation := middleware.GetCorrelationID(c); correlation != "" {
			logger = base.With().Str("correlation_id", correlation).Logger()
		}
	}
	return &logger
}

func requestContext(c *fiber.Ctx) context.Context {
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}
	return middleware.ContextWithCorrelation(ctx, middleware.GetCorrelationID(c))
}

func isValidationError(err error) bool {
	var validationErrors validator.ValidationErrors
	return errors.As(err, &validationErrors)
}

func validationDetails(err error) []fiber.Map {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return nil
	}
	out := make([]fiber.Map, 0, len(validationErrors))
	for _, fieldErr := range validationErrors {
		out = append(out, fiber.Map{"field": fieldErr.Field(), "rule": fieldErr.Tag()})
	}
	return out
}

func statusFromError(err error) int {
	switch {
	case errors.Is(err, errUnauthenticated):
		return fiber.StatusUnauthorized
	case isValidationError(err), errors.Is(err, service.ErrBadRequest):
		return fiber.StatusBadRequest
	case errors.Is(err, service.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, service.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, service.ErrConflict):
		return fiber.StatusConflict
	case errors.Is(err, service.ErrJudgeUnavailable):
		return fiber.StatusBadGateway
	case errors.Is(err, service.ErrUnavailable):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

// sendPracticeError renders failures of the practice flow. Server side failures carry
// the underlying detail in the message.
func sendPracticeError(c *fiber.Ctx, logger *zerolog.Logger, err error) error {
	status := statusFromError(err)
	if status >= fiber.StatusInternalServerError {
		logger.Error().Err(err).Int("status", status).Msg("practice request failed")
		if status == fiber.StatusInternalServerError {
			return utils.SendError(c, status, "Internal Server Error: "+err.Error())
		}
		return utils.SendError(c, status, err.Error())
	}
	if isValidationError(err) {
		return utils.Fail(c, status, "invalid payload", validationDetails(err))
	}
	return utils.SendError(c, status, err.Error())
}

// sendScopedError renders contest and assessment failures with the detail under
// details.error.
func sendScopedError(c *fiber.Ctx, logger *zerolog.Logger, message string, err error) error {
	status := statusFromError(err)

	if errors.Is(err, service.ErrPremiumRequired) {
		return utils.Fail(c, status, "premium subscription required", fiber.Map{
			"error":     err.Error(),
			"isPremium": true,
			"hasAccess": false,
		})
	}
	if isValidationError(err) {
		return utils.Fail(c, status, "invalid payload", fiber.Map{
			"error":  err.Error(),
			"fields": validationDetails(err),
		})
	}

	if status >= fiber.StatusInternalServerError {
		logger.Error().Err(err).Int("status", status).Msg(message)
	}
	return utils.Fail(c, status, message, fiber.Map{"error": err.Error()})
}
