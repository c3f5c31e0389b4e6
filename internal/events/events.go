// Package events publishes domain notifications. Delivery is best effort:
// the Notifier logs failed publishes and never fails the user operation.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/anonto42/memoshare/internal/metrics"
)

type Type string

const (
	TypeFollow      Type = "follow"
	TypeLike        Type = "like"
	TypeComment     Type = "comment"
	TypeChatMessage Type = "chat_message"
)

// Event is a notification addressed to RecipientID about something ActorID did.
type Event struct {
	ID          string            `json:"id"`
	Type        Type              `json:"type"`
	ActorID     string            `json:"actorId"`
	RecipientID string            `json:"recipientId"`
	SubjectID   string            `json:"subjectId,omitempty"`
	OccurredAt  time.Time         `json:"occurredAt"`
	Payload     map[string]string `json:"payload,omitempty"`
}

// Publisher delivers events to a transport.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// Notifier stamps and publishes events on behalf of services.
type Notifier struct {
	publisher Publisher
	logger    *zap.Logger
	metrics   *metrics.Collector
}

// NewNotifier wraps publisher. A nil publisher drops every event.
func NewNotifier(publisher Publisher, logger *zap.Logger, m *metrics.Collector) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Notifier{publisher: publisher, logger: logger, metrics: m}
}

// Notify publishes event. Self-notifications are dropped.
func (n *Notifier) Notify(ctx context.Context, event Event) {
	if n == nil || n.publisher == nil || event.ActorID == event.RecipientID {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	err := n.publisher.Publish(ctx, event)
	n.metrics.EventPublished(string(event.Type), err)
	if err != nil {
		n.logger.Warn("failed to publish event",
			zap.String("event_type", string(event.Type)),
			zap.String("recipient_id", event.RecipientID),
			zap.Error(err))
	}
}
