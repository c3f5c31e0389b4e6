package live

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const subscriberBuffer = 64

type subscriber struct {
	id      string
	topic   string
	send    chan []byte
	done    chan struct{}
	once    sync.Once
	handler Handler
}

func (s *subscriber) stop() {
	s.once.Do(func() { close(s.done) })
}

func (s *subscriber) run() {
	for {
		select {
		case <-s.done:
			return
		case payload := <-s.send:
			s.handler(Message{Topic: s.topic, Payload: payload})
		}
	}
}

// Hub is an in-process Broker. Each subscriber has its own buffered queue
// and goroutine, so a slow handler never blocks publishers; when its queue
// is full the message is dropped for that subscriber.
type Hub struct {
	logger *zap.Logger

	mu     sync.RWMutex
	topics map[string]map[string]*subscriber
	closed bool
}

func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{logger: logger, topics: make(map[string]map[string]*subscriber)}
}

func (h *Hub) Publish(ctx context.Context, topic string, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return ErrClosed
	}
	for _, sub := range h.topics[topic] {
		select {
		case sub.send <- payload:
		default:
			h.logger.Warn("live subscriber queue full, dropping message",
				zap.String("topic", topic),
				zap.String("subscriber_id", sub.id))
		}
	}
	return nil
}

func (h *Hub) Subscribe(ctx context.Context, topic string, handler Handler) (CancelFunc, error) {
	sub := &subscriber{
		id:      uuid.NewString(),
		topic:   topic,
		send:    make(chan []byte, subscriberBuffer),
		done:    make(chan struct{}),
		handler: handler,
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, ErrClosed
	}
	if _, ok := h.topics[topic]; !ok {
		h.topics[topic] = make(map[string]*subscriber)
	}
	h.topics[topic][sub.id] = sub
	h.mu.Unlock()

	go sub.run()

	cancel := func() { h.unsubscribe(sub) }
	stopWatch := context.AfterFunc(ctx, cancel)
	return func() {
		stopWatch()
		cancel()
	}, nil
}

func (h *Hub) unsubscribe(sub *subscriber) {
	h.mu.Lock()
	if subs, ok := h.topics[sub.topic]; ok {
		delete(subs, sub.id)
		if len(subs) == 0 {
			delete(h.topics, sub.topic)
		}
	}
	h.mu.Unlock()
	sub.stop()
}

// Subscribers reports how many subscriptions a topic has.
func (h *Hub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}

// Close ends every subscription.
func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	for _, subs := range h.topics {
		for _, sub := range subs {
			sub.stop()
		}
	}
	h.topics = make(map[string]map[string]*subscriber)
	return nil
}
