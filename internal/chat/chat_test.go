package chat

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anonto42/memoshare/internal/apperrors"
	"github.com/anonto42/memoshare/internal/events"
	"github.com/anonto42/memoshare/internal/ledger"
	"github.com/anonto42/memoshare/internal/live"
	"github.com/anonto42/memoshare/internal/models"
	"github.com/anonto42/memoshare/internal/repositories"
	"github.com/anonto42/memoshare/internal/social"
	"github.com/anonto42/memoshare/internal/store/memstore"
)

func TestChannelForIsOrderIndependent(t *testing.T) {
	pairs := [][2]string{{"u1", "u2"}, {"b", "a"}, {"zeta", "alpha"}, {"", "x"}}
	for _, p := range pairs {
		assert.Equal(t, ChannelFor(p[0], p[1]), ChannelFor(p[1], p[0]))
	}
	assert.Equal(t, "u1_u2", ChannelFor("u2", "u1"))
}

func TestChannelForSelfDoesNotPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		assert.Equal(t, "u1_u1", ChannelFor("u1", "u1"))
	})
}

type fixture struct {
	svc    *Service
	social *social.Service
	hub    *live.Hub
	pub    *events.MemoryPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	st := memstore.New()
	users := repositories.NewUserRepository(st)
	for _, id := range []string{"u1", "u2", "u3"} {
		require.NoError(t, users.CreateUser(ctx, &models.User{ID: id, DisplayName: id}))
	}
	l := ledger.New(repositories.NewAggregateRepository(st), ledger.WithBackoff(0))
	graph := social.NewService(repositories.NewFollowRepository(st), users, l, nil, nil)
	hub := live.NewHub(nil)
	t.Cleanup(func() { _ = hub.Close() })
	pub := events.NewMemoryPublisher()
	svc := NewService(graph, repositories.NewChatRepository(st), hub, events.NewNotifier(pub, nil, nil), nil)
	return &fixture{svc: svc, social: graph, hub: hub, pub: pub}
}

func (f *fixture) befriend(t *testing.T, a, b string) {
	t.Helper()
	require.NoError(t, f.social.Follow(context.Background(), a, b))
	require.NoError(t, f.social.Follow(context.Background(), b, a))
}

func TestOpenIsGatedOnMutualFollow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	require.NoError(t, f.social.Follow(ctx, "u1", "u2"))
	_, err := f.svc.Open(ctx, "u1", "u2")
	assert.ErrorIs(t, err, apperrors.Unauthorized(apperrors.CodeNotMutual, ""))

	require.NoError(t, f.social.Follow(ctx, "u2", "u1"))
	fromA, err := f.svc.Open(ctx, "u1", "u2")
	require.NoError(t, err)
	fromB, err := f.svc.Open(ctx, "u2", "u1")
	require.NoError(t, err)
	assert.Equal(t, fromA, fromB)
	assert.Equal(t, ChannelFor("u1", "u2"), fromA)

	_, err = f.svc.Open(ctx, "u1", "u1")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestSendAndHistory(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.befriend(t, "u1", "u2")

	clock := time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}

	_, err := f.svc.Send(ctx, "u1", "u2", models.SendMessageRequest{Text: " hi "})
	require.NoError(t, err)
	_, err = f.svc.Send(ctx, "u2", "u1", models.SendMessageRequest{Text: "hello back"})
	require.NoError(t, err)

	history, err := f.svc.History(ctx, "u2", "u1", 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "hi", history[0].Text)
	assert.Equal(t, "u1", history[0].SenderID)
	assert.Equal(t, "hello back", history[1].Text)

	assert.Len(t, f.pub.Events(events.TypeChatMessage), 2)
}

func TestSendRejectsEmptyMessage(t *testing.T) {
	f := newFixture(t)
	f.befriend(t, "u1", "u2")

	_, err := f.svc.Send(context.Background(), "u1", "u2", models.SendMessageRequest{Text: "   "})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestSendRequiresMutualFollow(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Send(context.Background(), "u1", "u3", models.SendMessageRequest{Text: "hey"})
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestSubscribeReceivesNewMessages(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.befriend(t, "u1", "u2")

	var (
		mu       sync.Mutex
		received []models.ChatMessage
	)
	cancel, err := f.svc.Subscribe(ctx, "u2", "u1", func(m models.ChatMessage) {
		mu.Lock()
		received = append(received, m)
		mu.Unlock()
	}, nil)
	require.NoError(t, err)
	defer cancel()

	sent, err := f.svc.Send(ctx, "u1", "u2", models.SendMessageRequest{Text: "ping"})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(received) == 1
	}, time.Second, 5*time.Millisecond)
	mu.Lock()
	assert.Equal(t, sent.ID, received[0].ID)
	assert.Equal(t, "ping", received[0].Text)
	mu.Unlock()
}

func TestSubscribeRequiresMutualFollow(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Subscribe(context.Background(), "u1", "u3", func(models.ChatMessage) {}, nil)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	assert.Equal(t, 0, f.hub.Subscribers(Topic(ChannelFor("u1", "u3"))))
}

func TestSubscribeStopsDeliveringAfterUnfollow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.befriend(t, "u1", "u2")

	var (
		mu       sync.Mutex
		received []models.ChatMessage
	)
	revoked := make(chan struct{})
	cancel, err := f.svc.Subscribe(ctx, "u2", "u1", func(m models.ChatMessage) {
		mu.Lock()
		received = append(received, m)
		mu.Unlock()
	}, func() { close(revoked) })
	require.NoError(t, err)
	defer cancel()

	require.NoError(t, f.social.Unfollow(ctx, "u2", "u1"))

	// Send checks the relation itself, so publish straight to the channel the
	// way a message accepted just before the unfollow would arrive.
	payload, err := json.Marshal(models.ChatMessage{ID: "late", ChannelID: ChannelFor("u1", "u2"), SenderID: "u1", Text: "still there?"})
	require.NoError(t, err)
	require.NoError(t, f.hub.Publish(ctx, Topic(ChannelFor("u1", "u2")), payload))

	select {
	case <-revoked:
	case <-time.After(time.Second):
		t.Fatal("subscription was not revoked")
	}
	require.Eventually(t, func() bool {
		return f.hub.Subscribers(Topic(ChannelFor("u1", "u2"))) == 0
	}, time.Second, 5*time.Millisecond)
	mu.Lock()
	assert.Empty(t, received)
	mu.Unlock()
}
