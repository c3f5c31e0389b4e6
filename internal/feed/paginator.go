// Package feed serves the reverse-chronological memo stream joined with
// author profiles.
package feed

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/anonto42/memoshare/internal/apperrors"
	"github.com/anonto42/memoshare/internal/metrics"
	"github.com/anonto42/memoshare/internal/models"
	"github.com/anonto42/memoshare/internal/repositories"
)

// Page is one batch of display-ready items. Exhausted is set when the
// underlying query ran dry, which is distinct from a page whose candidates
// were all excluded.
type Page struct {
	Items     []models.FeedItem
	Exhausted bool
	Cursor    *repositories.MemoCursor
}

// Paginator walks the memo stream newest first. Calls to NextPage are
// serialized so overlapping callers never read the same cursor twice.
type Paginator struct {
	memos repositories.MemoRepository
	users repositories.UserRepository

	authorID string
	logger   *zap.Logger
	metrics  *metrics.Collector

	mu        sync.Mutex
	cursor    *repositories.MemoCursor
	seen      map[string]struct{}
	exhausted bool
}

type Option func(*Paginator)

// WithAuthor restricts the stream to one author's memos.
func WithAuthor(authorID string) Option {
	return func(p *Paginator) { p.authorID = authorID }
}

// WithCursor resumes the stream strictly after c.
func WithCursor(c *repositories.MemoCursor) Option {
	return func(p *Paginator) { p.cursor = c }
}

func WithLogger(logger *zap.Logger) Option {
	return func(p *Paginator) {
		if logger != nil {
			p.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Collector) Option {
	return func(p *Paginator) { p.metrics = m }
}

func NewPaginator(memos repositories.MemoRepository, users repositories.UserRepository, opts ...Option) *Paginator {
	p := &Paginator{
		memos:  memos,
		users:  users,
		logger: zap.NewNop(),
		seen:   make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NextPage fetches up to pageSize raw candidates after the cursor and returns
// those not seen before whose author still exists. The cursor advances to the
// last raw candidate even when every candidate was excluded. On error the
// paginator state is left untouched.
func (p *Paginator) NextPage(ctx context.Context, pageSize int) (*Page, error) {
	if pageSize <= 0 {
		return nil, apperrors.Validation("INVALID_PAGE_SIZE", fmt.Sprintf("page size must be positive, got %d", pageSize))
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.exhausted {
		return &Page{Items: []models.FeedItem{}, Exhausted: true, Cursor: p.cursor}, nil
	}

	raw, err := p.memos.ListMemos(ctx, repositories.MemoQuery{
		AuthorID: p.authorID,
		After:    p.cursor,
		Limit:    pageSize,
	})
	if err != nil {
		return nil, fmt.Errorf("query feed: %w", err)
	}

	fresh := make([]models.Memo, 0, len(raw))
	for _, memo := range raw {
		if _, dup := p.seen[memo.ID]; !dup {
			fresh = append(fresh, memo)
		}
	}

	items, orphans, err := repositories.JoinAuthors(ctx, p.users, fresh)
	if err != nil {
		return nil, fmt.Errorf("join feed authors: %w", err)
	}

	for _, memo := range raw {
		p.seen[memo.ID] = struct{}{}
	}
	if len(raw) > 0 {
		last := raw[len(raw)-1]
		p.cursor = &repositories.MemoCursor{CreatedAt: last.CreatedAt, ID: last.ID}
	}
	p.exhausted = len(raw) < pageSize

	p.metrics.FeedPage(orphans)
	if orphans > 0 {
		p.logger.Debug("excluded orphaned feed items", zap.Int("count", orphans))
	}

	return &Page{Items: items, Exhausted: p.exhausted, Cursor: p.cursor}, nil
}

// Cursor returns the position after the last raw candidate examined.
func (p *Paginator) Cursor() *repositories.MemoCursor {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cursor
}

func (p *Paginator) Exhausted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exhausted
}
