package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNotifyStampsEvent(t *testing.T) {
	rec := NewMemoryPublisher()
	n := NewNotifier(rec, nil, nil)

	n.Notify(context.Background(), Event{Type: TypeFollow, ActorID: "u1", RecipientID: "u2"})

	got := rec.Events()
	require.Len(t, got, 1)
	assert.NotEmpty(t, got[0].ID)
	assert.False(t, got[0].OccurredAt.IsZero())
}

func TestNotifyDropsSelfEvents(t *testing.T) {
	rec := NewMemoryPublisher()
	n := NewNotifier(rec, nil, nil)

	n.Notify(context.Background(), Event{Type: TypeLike, ActorID: "u1", RecipientID: "u1"})

	assert.Empty(t, rec.Events())
}

func TestNotifyLogsFailures(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	pub := NewMemoryPublisher()
	pub.FailWith(errors.New("broker down"))
	n := NewNotifier(pub, zap.New(core), nil)

	assert.NotPanics(t, func() {
		n.Notify(context.Background(), Event{Type: TypeComment, ActorID: "u1", RecipientID: "u2"})
	})
	assert.Equal(t, 1, logs.FilterMessage("failed to publish event").Len())
}

func TestNilNotifierIsSafe(t *testing.T) {
	var n *Notifier
	assert.NotPanics(t, func() {
		n.Notify(context.Background(), Event{Type: TypeFollow, ActorID: "a", RecipientID: "b"})
	})
}
