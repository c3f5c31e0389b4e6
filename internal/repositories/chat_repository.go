package repositories

import (
	"context"

	"github.com/anonto42/memoshare/internal/models"
	"github.com/anonto42/memoshare/internal/store"
)

// ChatRepository persists chat messages per channel.
type ChatRepository interface {
	CreateMessage(ctx context.Context, msg *models.ChatMessage) error
	// GetMessagesByChannel returns messages oldest first, optionally capped.
	GetMessagesByChannel(ctx context.Context, channelID string, limit int) ([]models.ChatMessage, error)
}

type chatRepository struct {
	repo store.Repository
}

// NewChatRepository creates a new ChatRepository
func NewChatRepository(repo store.Repository) ChatRepository {
	return &chatRepository{repo: repo}
}

func (r *chatRepository) CreateMessage(ctx context.Context, msg *models.ChatMessage) error {
	fields, err := store.Encode(msg)
	if err != nil {
		return translate(err, "chat message", msg.ID)
	}
	id, err := r.repo.Create(ctx, models.CollectionChatMessages, msg.ID, fields)
	if err != nil {
		return translate(err, "chat message", msg.ID)
	}
	msg.ID = id
	return nil
}

func (r *chatRepository) GetMessagesByChannel(ctx context.Context, channelID string, limit int) ([]models.ChatMessage, error) {
	docs, err := r.repo.Query(ctx, models.CollectionChatMessages, store.Query{
		Filters: []store.Filter{store.Eq("channelId", channelID)},
		OrderBy: &store.OrderBy{Field: "sentAt"},
		Limit:   limit,
	})
	if err != nil {
		return nil, translate(err, "chat channel", channelID)
	}
	msgs := make([]models.ChatMessage, 0, len(docs))
	for i := range docs {
		var m models.ChatMessage
		if err := store.Decode(&docs[i], &m); err != nil {
			return nil, err
		}
		m.ID = docs[i].ID
		msgs = append(msgs, m)
	}
	return msgs, nil
}
