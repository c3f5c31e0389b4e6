package feed

import (
	"context"

	"go.uber.org/zap"

	"github.com/anonto42/memoshare/internal/metrics"
	"github.com/anonto42/memoshare/internal/models"
	"github.com/anonto42/memoshare/internal/repositories"
)

const maxPageSize = 50

// Response is one feed page as served to a stateless client.
type Response struct {
	Items      []models.FeedItem `json:"items"`
	NextCursor string            `json:"nextCursor,omitempty"`
	Exhausted  bool              `json:"exhausted"`
}

// Service builds a fresh Paginator for every request so no paginator state
// is shared between callers.
type Service struct {
	memos           repositories.MemoRepository
	users           repositories.UserRepository
	defaultPageSize int
	logger          *zap.Logger
	metrics         *metrics.Collector
}

func NewService(memos repositories.MemoRepository, users repositories.UserRepository, defaultPageSize int, logger *zap.Logger, m *metrics.Collector) *Service {
	if defaultPageSize <= 0 {
		defaultPageSize = 10
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{memos: memos, users: users, defaultPageSize: defaultPageSize, logger: logger, metrics: m}
}

// NewPaginator returns a paginator at the start of the stream.
func (s *Service) NewPaginator(opts ...Option) *Paginator {
	base := []Option{WithLogger(s.logger), WithMetrics(s.metrics)}
	return NewPaginator(s.memos, s.users, append(base, opts...)...)
}

// Page serves the page after token. authorID narrows the stream when set.
func (s *Service) Page(ctx context.Context, token string, limit int, authorID string) (*Response, error) {
	cursor, err := DecodeCursor(token)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = s.defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	p := s.NewPaginator(WithCursor(cursor), WithAuthor(authorID))
	page, err := p.NextPage(ctx, limit)
	if err != nil {
		return nil, err
	}
	resp := &Response{Items: page.Items, Exhausted: page.Exhausted}
	if !page.Exhausted {
		resp.NextCursor = EncodeCursor(page.Cursor)
	}
	return resp, nil
}
