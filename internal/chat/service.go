package chat

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/anonto42/memoshare/internal/apperrors"
	"github.com/anonto42/memoshare/internal/events"
	"github.com/anonto42/memoshare/internal/live"
	"github.com/anonto42/memoshare/internal/models"
	"github.com/anonto42/memoshare/internal/repositories"
)

// MutualChecker reports whether two users follow each other.
type MutualChecker interface {
	IsMutual(ctx context.Context, a, b string) (bool, error)
}

// Service gates every channel operation on a fresh mutual-follow check.
type Service struct {
	graph    MutualChecker
	messages repositories.ChatRepository
	broker   live.Broker
	notifier *events.Notifier
	logger   *zap.Logger
	now      func() time.Time
}

func NewService(graph MutualChecker, messages repositories.ChatRepository, broker live.Broker, notifier *events.Notifier, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		graph:    graph,
		messages: messages,
		broker:   broker,
		notifier: notifier,
		logger:   logger,
		now:      models.Now,
	}
}

// Open returns the channel between viewer and peer when they follow each other.
func (s *Service) Open(ctx context.Context, viewerID, peerID string) (string, error) {
	if viewerID == peerID {
		return "", apperrors.InvalidOperation("cannot chat with yourself")
	}
	mutual, err := s.graph.IsMutual(ctx, viewerID, peerID)
	if err != nil {
		return "", err
	}
	if !mutual {
		return "", apperrors.Unauthorized(apperrors.CodeNotMutual, "chat requires a mutual follow")
	}
	return ChannelFor(viewerID, peerID), nil
}

// Send stores a message and pushes it to live subscribers. A failed push is
// logged; the message is already durable and History will return it.
func (s *Service) Send(ctx context.Context, viewerID, peerID string, req models.SendMessageRequest) (*models.ChatMessage, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" && req.AttachmentRef == "" {
		return nil, apperrors.Validation(apperrors.CodeEmptyText, "message is empty")
	}
	channelID, err := s.Open(ctx, viewerID, peerID)
	if err != nil {
		return nil, err
	}

	msg := &models.ChatMessage{
		ChannelID:     channelID,
		SenderID:      viewerID,
		Text:          text,
		AttachmentRef: req.AttachmentRef,
		SentAt:        s.now(),
	}
	if err := s.messages.CreateMessage(ctx, msg); err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(msg); err == nil {
		if err := s.broker.Publish(ctx, Topic(channelID), payload); err != nil {
			s.logger.Warn("failed to push chat message",
				zap.String("channel_id", channelID),
				zap.String("message_id", msg.ID),
				zap.Error(err))
		}
	}
	s.notifier.Notify(ctx, events.Event{
		Type:        events.TypeChatMessage,
		ActorID:     viewerID,
		RecipientID: peerID,
		SubjectID:   channelID,
		Payload:     map[string]string{"messageId": msg.ID},
	})
	return msg, nil
}

// History returns the channel's messages oldest first. limit <= 0 returns all.
func (s *Service) History(ctx context.Context, viewerID, peerID string, limit int) ([]models.ChatMessage, error) {
	channelID, err := s.Open(ctx, viewerID, peerID)
	if err != nil {
		return nil, err
	}
	return s.messages.GetMessagesByChannel(ctx, channelID, limit)
}

// Subscribe delivers new messages of the channel to handler until the
// returned cancel is called or ctx ends. Messages may be missed while
// disconnected; callers reconcile with History.
//
// The follow relation is checked again before every delivery. Once the pair
// is no longer mutual the message is dropped, the subscription ends and
// onRevoke, when set, is called.
func (s *Service) Subscribe(ctx context.Context, viewerID, peerID string, handler func(models.ChatMessage), onRevoke func()) (live.CancelFunc, error) {
	channelID, err := s.Open(ctx, viewerID, peerID)
	if err != nil {
		return nil, err
	}
	subCtx, stop := context.WithCancel(ctx)
	var revokeOnce sync.Once
	revoke := func() {
		revokeOnce.Do(func() {
			s.logger.Info("chat subscription revoked",
				zap.String("user_id", viewerID), zap.String("peer_id", peerID))
			stop()
			if onRevoke != nil {
				onRevoke()
			}
		})
	}
	cancel, err := s.broker.Subscribe(subCtx, Topic(channelID), func(m live.Message) {
		if subCtx.Err() != nil {
			return
		}
		var msg models.ChatMessage
		if err := json.Unmarshal(m.Payload, &msg); err != nil {
			s.logger.Warn("dropping malformed chat payload", zap.String("topic", m.Topic), zap.Error(err))
			return
		}
		mutual, err := s.graph.IsMutual(subCtx, viewerID, peerID)
		if err != nil {
			s.logger.Warn("chat delivery check failed", zap.String("user_id", viewerID), zap.Error(err))
			return
		}
		if !mutual {
			revoke()
			return
		}
		handler(msg)
	})
	if err != nil {
		stop()
		return nil, err
	}
	return func() {
		cancel()
		stop()
	}, nil
}
