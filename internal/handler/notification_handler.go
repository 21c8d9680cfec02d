package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-judge-api/internal/dto"
	"github.com/noah-isme/gema-judge-api/internal/middleware"
	"github.com/noah-isme/gema-judge-api/internal/service"
	"github.com/noah-isme/gema-judge-api/internal/utils"
)

const defaultNotificationPing = 30 * time.Second

// NotificationHandler lists notifications and streams new ones over a websocket.
type NotificationHandler struct {
	service      service.NotificationService
	logger       zerolog.Logger
	pingInterval time.Duration
}

// NewNotificationHandler constructs a handler instance.
func NewNotificationHandler(service service.NotificationService, logger zerolog.Logger, pingInterval time.Duration) *NotificationHandler {
	if pingInterval <= 0 {
		pingInterval = defaultNotificationPing
	}
	return &NotificationHandler{
		service:      service,
		logger:       logger.With().Str("component", "notification_handler").Logger(),
		pingInterval: pingInterval,
	}
}

// Register binds the notification routes.
func (h *NotificationHandler) Register(router fiber.Router) {
	router.Use("/ws", func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		userID := userIDFromContext(c)
		if userID == 0 {
			return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
		}
		c.Locals("socket_user_id", userID)
		c.Locals("socket_correlation_id", middleware.GetCorrelationID(c))
		return c.Next()
	})

	router.Get("/ws", websocket.New(h.stream))
	router.Get("/", h.list)
	router.Patch("/:id/read", h.markRead)
}

func (h *NotificationHandler) list(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	limit, err := parseQueryInt(c, "limit")
	if err != nil || limit < 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
	}
	offset, err := parseQueryInt(c, "offset")
	if err != nil || offset < 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid offset")
	}

	items, unread, err := h.service.List(requestContext(c), userID, limit, offset)
	if err != nil {
		return sendPracticeError(c, requestLogger(h.logger, c), err)
	}

	return utils.OK(c, items, "notifications", fiber.Map{"unread": unread})
}

func (h *NotificationHandler) markRead(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	notification, err := h.service.MarkRead(requestContext(c), id, userID)
	if err != nil {
		return sendPracticeError(c, requestLogger(h.logger, c), err)
	}

	return utils.SendSuccess(c, "notification updated", notification)
}

func (h *NotificationHandler) stream(conn *websocket.Conn) {
	userID, _ := conn.Locals("socket_user_id").(uint)
	logger := h.logger.With().Uint("user_id", userID).Logger()
	if correlation, _ := conn.Locals("socket_correlation_id").(string); correlation != "" {
		logger = logger.With().Str("correlation_id", correlation).Logger()
	}

	events, cleanup := h.service.Subscribe(userID)
	defer cleanup()

	// The read loop only exists to notice the client going away.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()

	logger.Debug().Msg("notification socket connected")
	defer logger.Debug().Msg("notification socket disconnected")

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := writeNotification(conn, event); err != nil {
				logger.Debug().Err(err).Msg("failed to write notification")
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				return
			}
		case <-closed:
			return
		}
	}
}

func writeNotification(conn *websocket.Conn, notification dto.NotificationResponse) error {
	return conn.WriteJSON(fiber.Map{
		"event": "notification",
		"data":  notification,
	})
}
