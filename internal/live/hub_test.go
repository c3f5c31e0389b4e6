package live

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type collector struct {
	mu   sync.Mutex
	msgs []string
}

func (c *collector) handle(m Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, string(m.Payload))
}

func (c *collector) got() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.msgs...)
}

func TestHubDeliversToTopicSubscribers(t *testing.T) {
	ctx := context.Background()
	hub := NewHub(nil)
	defer hub.Close()

	a, b := &collector{}, &collector{}
	cancelA, err := hub.Subscribe(ctx, "chan-1", a.handle)
	require.NoError(t, err)
	defer cancelA()
	cancelB, err := hub.Subscribe(ctx, "chan-2", b.handle)
	require.NoError(t, err)
	defer cancelB()

	require.NoError(t, hub.Publish(ctx, "chan-1", []byte("one")))
	require.NoError(t, hub.Publish(ctx, "chan-1", []byte("two")))

	require.Eventually(t, func() bool { return len(a.got()) == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"one", "two"}, a.got())
	assert.Empty(t, b.got())
}

func TestCancelStopsDelivery(t *testing.T) {
	ctx := context.Background()
	hub := NewHub(nil)
	defer hub.Close()

	c := &collector{}
	cancel, err := hub.Subscribe(ctx, "t", c.handle)
	require.NoError(t, err)
	assert.Equal(t, 1, hub.Subscribers("t"))

	cancel()
	cancel()
	assert.Equal(t, 0, hub.Subscribers("t"))

	require.NoError(t, hub.Publish(ctx, "t", []byte("late")))
	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, c.got())
}

func TestContextCancelUnsubscribes(t *testing.T) {
	hub := NewHub(nil)
	defer hub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	_, err := hub.Subscribe(ctx, "t", func(Message) {})
	require.NoError(t, err)

	cancel()
	require.Eventually(t, func() bool { return hub.Subscribers("t") == 0 }, time.Second, 5*time.Millisecond)
}

func TestClosedHub(t *testing.T) {
	ctx := context.Background()
	hub := NewHub(nil)
	require.NoError(t, hub.Close())

	assert.ErrorIs(t, hub.Publish(ctx, "t", nil), ErrClosed)
	_, err := hub.Subscribe(ctx, "t", func(Message) {})
	assert.ErrorIs(t, err, ErrClosed)
}
