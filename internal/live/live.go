// Package live delivers change notifications to subscribers. Delivery is
// at-least-once per connected subscriber and may skip intermediate
// messages, so handlers must tolerate gaps.
package live

import (
	"context"
	"errors"
)

// ErrClosed is returned by operations on a closed broker.
var ErrClosed = errors.New("live: broker closed")

type Message struct {
	Topic   string
	Payload []byte
}

// Handler is invoked sequentially per subscription.
type Handler func(Message)

// CancelFunc ends a subscription. It is safe to call more than once.
type CancelFunc func()

type Broker interface {
	Publish(ctx context.Context, topic string, payload []byte) error
	// Subscribe registers handler for topic until the returned CancelFunc is
	// called or ctx is done.
	Subscribe(ctx context.Context, topic string, handler Handler) (CancelFunc, error)
	Close() error
}
