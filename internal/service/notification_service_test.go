package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-judge-api/internal/repository"
)

func TestNotificationServiceDeliversToLocalSubscriber(t *testing.T) {
	db := setupServiceDB(t)
	user := createUser(t, db, "notify@example.com", false)
	svc := NewNotificationService(repository.NewNotificationRepository(db), nil, "", nil, zerolog.Nop())
	ctx := context.Background()

	stream, cleanup := svc.Subscribe(user.ID)
	defer cleanup()

	require.NoError(t, svc.Notify(ctx, user.ID, NotificationEvent{
		Type:     NotificationBadgeUnlocked,
		Message:  "Badge unlocked: <script>alert(1)</script>First Problem Solved",
		Metadata: map[string]interface{}{"badge": "First Problem Solved"},
	}))

	select {
	case received := <-stream:
		require.Equal(t, NotificationBadgeUnlocked, received.Type)
		require.Equal(t, "Badge unlocked: First Problem Solved", received.Message)
		require.Equal(t, user.ID, received.UserID)
	case <-time.After(time.Second):
		t.Fatal("notification was not delivered")
	}

	items, unread, err := svc.List(ctx, user.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, int64(1), unread)

	marked, err := svc.MarkRead(ctx, items[0].ID, user.ID)
	require.NoError(t, err)
	require.True(t, marked.Read)

	_, unread, err = svc.List(ctx, user.ID, 10, 0)
	require.NoError(t, err)
	require.Zero(t, unread)

	_, err = svc.MarkRead(ctx, items[0].ID, user.ID+1)
	require.ErrorIs(t, err, ErrNotificationNotFound)

	require.Error(t, svc.Notify(ctx, user.ID, NotificationEvent{Message: "<b></b>"}))
}

func TestNotificationServiceFansOutAcrossNodes(t *testing.T) {
	db := setupServiceDB(t)
	server, client := setupServiceRedis(t)
	user := createUser(t, db, "fanout@example.com", false)
	repo := repository.NewNotificationRepository(db)

	publisher := NewNotificationService(repo, client, "gema", nil, zerolog.Nop())
	consumer := NewNotificationService(repo, client, "gema", nil, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	consumer.Start(ctx)

	require.Eventually(t, func() bool {
		return server.PubSubNumSub("gema:notifications")["gema:notifications"] == 1
	}, time.Second, 10*time.Millisecond)

	stream, cleanup := consumer.Subscribe(user.ID)
	defer cleanup()

	require.NoError(t, publisher.Notify(context.Background(), user.ID, NotificationEvent{
		Type:    NotificationPointsAwarded,
		Message: "You earned 5 points: Daily Check-in",
	}))

	select {
	case received := <-stream:
		require.Equal(t, NotificationPointsAwarded, received.Type)
	case <-time.After(2 * time.Second):
		t.Fatal("notification was not fanned out")
	}
}
