package search

import (
	"context"

	"go.uber.org/zap"

	"github.com/anonto42/memoshare/internal/feed"
	"github.com/anonto42/memoshare/internal/metrics"
)

// Searcher materializes the feed into an Index page by page.
type Searcher struct {
	paginator *feed.Paginator
	index     *Index
	pageSize  int
}

func NewSearcher(p *feed.Paginator, index *Index, pageSize int) *Searcher {
	if pageSize <= 0 {
		pageSize = 10
	}
	return &Searcher{paginator: p, index: index, pageSize: pageSize}
}

// LoadMore fetches the next feed page and re-indexes. It reports whether the
// feed may have more items.
func (s *Searcher) LoadMore(ctx context.Context) (bool, error) {
	page, err := s.paginator.NextPage(ctx, s.pageSize)
	if err != nil {
		return false, err
	}
	s.index.Add(page.Items...)
	return !page.Exhausted, nil
}

// Fill loads pages until the index window is full or the feed runs out.
func (s *Searcher) Fill(ctx context.Context) error {
	for !s.index.Full() {
		more, err := s.LoadMore(ctx)
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
	}
	return nil
}

func (s *Searcher) Search(text string) Result {
	return s.index.Search(text)
}

// Service answers one-shot search requests over the most recent window.
type Service struct {
	feed      *feed.Service
	threshold float64
	window    int
	pageSize  int
	logger    *zap.Logger
	metrics   *metrics.Collector
}

func NewService(feedSvc *feed.Service, window, pageSize int, threshold float64, logger *zap.Logger, m *metrics.Collector) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{feed: feedSvc, threshold: threshold, window: window, pageSize: pageSize, logger: logger, metrics: m}
}

// Search builds a fresh window and matches text against it.
func (s *Service) Search(ctx context.Context, text string) (Result, error) {
	index := NewIndex(WithWindow(s.window), WithThreshold(s.threshold))
	if res := index.Search(text); !res.Active {
		s.metrics.SearchQuery("inactive")
		return res, nil
	}

	searcher := NewSearcher(s.feed.NewPaginator(), index, s.pageSize)
	if err := searcher.Fill(ctx); err != nil {
		return Result{}, err
	}
	res := searcher.Search(text)
	outcome := "hit"
	if len(res.Items) == 0 {
		outcome = "miss"
	}
	s.metrics.SearchQuery(outcome)
	s.logger.Debug("search", zap.Int("indexed", index.Len()), zap.Int("matches", len(res.Items)))
	return res, nil
}
