package handler_test

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-judge-api/internal/dto"
	"github.com/noah-isme/gema-judge-api/internal/handler"
	"github.com/noah-isme/gema-judge-api/internal/router"
	"github.com/noah-isme/gema-judge-api/internal/service"
)

type stubNotificationService struct {
	mu          sync.Mutex
	subscribers map[uint]chan dto.NotificationResponse
	subscribed  chan uint
}

func newStubNotificationService() *stubNotificationService {
	return &stubNotificationService{
		subscribers: make(map[uint]chan dto.NotificationResponse),
		subscribed:  make(chan uint, 1),
	}
}

func (s *stubNotificationService) Notify(_ context.Context, userID uint, event service.NotificationEvent) error {
	s.mu.Lock()
	ch, ok := s.subscribers[userID]
	s.mu.Unlock()
	if ok {
		ch <- dto.NotificationResponse{ID: 1, UserID: userID, Type: event.Type, Message: event.Message, CreatedAt: time.Now().UTC()}
	}
	return nil
}

func (s *stubNotificationService) List(_ context.Context, userID uint, limit, offset int) ([]dto.NotificationResponse, int64, error) {
	return []dto.NotificationResponse{{ID: 4, UserID: userID, Type: service.NotificationPointsAwarded, Message: "+5 points"}}, 1, nil
}

func (s *stubNotificationService) MarkRead(_ context.Context, id uint, userID uint) (dto.NotificationResponse, error) {
	if id != 4 {
		return dto.NotificationResponse{}, service.ErrNotificationNotFound
	}
	return dto.NotificationResponse{ID: id, UserID: userID, Read: true}, nil
}

func (s *stubNotificationService) Subscribe(userID uint) (<-chan dto.NotificationResponse, func()) {
	ch := make(chan dto.NotificationResponse, 4)
	s.mu.Lock()
	s.subscribers[userID] = ch
	s.mu.Unlock()
	s.subscribed <- userID

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subscribers, userID)
			s.mu.Unlock()
		})
	}
}

func (s *stubNotificationService) Start(context.Context) {}

func TestNotificationListAndMarkRead(t *testing.T) {
	svc := newStubNotificationService()
	app := newTestApp(t, router.Dependencies{NotificationHandler: handler.NewNotificationHandler(svc, zerolog.Nop(), time.Second)})

	resp := doJSON(t, app, http.MethodGet, "/api/v1/notifications?limit=10", 3, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list struct {
		Data []dto.NotificationResponse `json:"data"`
		Meta map[string]interface{}     `json:"meta"`
	}
	decodeResponse(t, resp, &list)
	require.Len(t, list.Data, 1)
	require.EqualValues(t, 1, list.Meta["unread"])

	resp = doJSON(t, app, http.MethodPatch, "/api/v1/notifications/4/read", 3, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, app, http.MethodPatch, "/api/v1/notifications/5/read", 3, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = doJSON(t, app, http.MethodGet, "/api/v1/notifications?limit=-1", 3, nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestNotificationWebsocketStreamsEvents(t *testing.T) {
	svc := newStubNotificationService()
	app := newTestApp(t, router.Dependencies{NotificationHandler: handler.NewNotificationHandler(svc, zerolog.Nop(), time.Second)})

	baseURL, shutdown := startFiberServer(t, app)
	defer shutdown()

	url := "ws" + strings.TrimPrefix(baseURL, "http") + "/api/v1/notifications/ws"
	dialer := websocket.Dialer{HandshakeTimeout: 3 * time.Second}
	conn, resp, err := dialer.Dial(url, http.Header{"X-Test-User": {"42"}})
	require.NoError(t, err)
	if resp != nil {
		_ = resp.Body.Close()
	}
	defer conn.Close()

	select {
	case userID := <-svc.subscribed:
		require.Equal(t, uint(42), userID)
	case <-time.After(2 * time.Second):
		t.Fatal("socket never subscribed")
	}

	require.NoError(t, svc.Notify(context.Background(), 42, service.NotificationEvent{
		Type:    service.NotificationBadgeUnlocked,
		Message: "Unlocked First Problem Solved",
	}))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var frame struct {
		Event string                   `json:"event"`
		Data  dto.NotificationResponse `json:"data"`
	}
	require.NoError(t, conn.ReadJSON(&frame))
	require.Equal(t, "notification", frame.Event)
	require.Equal(t, service.NotificationBadgeUnlocked, frame.Data.Type)
	require.Equal(t, uint(42), frame.Data.UserID)
}

func TestNotificationWebsocketRequiresUpgrade(t *testing.T) {
	svc := newStubNotificationService()
	app := newTestApp(t, router.Dependencies{NotificationHandler: handler.NewNotificationHandler(svc, zerolog.Nop(), time.Second)})

	resp := doJSON(t, app, http.MethodGet, "/api/v1/notifications/ws", 42, nil)
	require.Equal(t, http.StatusUpgradeRequired, resp.StatusCode)
}

func startFiberServer(t *testing.T, app *fiber.App) (string, func()) {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		if err := app.Listener(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			t.Logf("fiber listener stopped: %v", err)
		}
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)

	shutdown := func() {
		_ = app.Shutdown()
		_ = listener.Close()
		select {
		case <-done:
		case <-time.After(200 * time.Millisecond):
		}
	}

	return "http://" + listener.Addr().String(), shutdown
}
