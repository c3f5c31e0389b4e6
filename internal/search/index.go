// Package search is an in-memory fuzzy index over a bounded window of the
// most recent feed items.
package search

import (
	"slices"
	"strings"
	"sync"

	"github.com/anonto42/memoshare/internal/models"
)

const DefaultWindow = 100

// Result distinguishes "no search active" (blank query) from "no matches".
type Result struct {
	Active bool              `json:"active"`
	Items  []models.FeedItem `json:"items"`
}

type indexedItem struct {
	item    models.FeedItem
	title   []string
	summary []string
}

// Index holds at most window items and is rebuilt from scratch on every change.
type Index struct {
	threshold float64
	window    int

	mu    sync.RWMutex
	items []indexedItem
}

type IndexOption func(*Index)

func WithThreshold(t float64) IndexOption {
	return func(ix *Index) {
		if t >= 0 && t <= 1 {
			ix.threshold = t
		}
	}
}

func WithWindow(n int) IndexOption {
	return func(ix *Index) {
		if n > 0 {
			ix.window = n
		}
	}
}

func NewIndex(opts ...IndexOption) *Index {
	ix := &Index{threshold: DefaultThreshold, window: DefaultWindow}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// Rebuild replaces the indexed items with the first window of items.
func (ix *Index) Rebuild(items []models.FeedItem) {
	built := ix.build(items)
	ix.mu.Lock()
	ix.items = built
	ix.mu.Unlock()
}

// Add appends items after the ones already indexed, skipping ids already
// present, and rebuilds the index.
func (ix *Index) Add(items ...models.FeedItem) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	merged := make([]models.FeedItem, 0, len(ix.items)+len(items))
	seen := make(map[string]struct{}, cap(merged))
	for _, it := range ix.items {
		merged = append(merged, it.item)
		seen[it.item.ID] = struct{}{}
	}
	for _, it := range items {
		if _, dup := seen[it.ID]; dup {
			continue
		}
		seen[it.ID] = struct{}{}
		merged = append(merged, it)
	}
	ix.items = ix.build(merged)
}

func (ix *Index) build(items []models.FeedItem) []indexedItem {
	if len(items) > ix.window {
		items = items[:ix.window]
	}
	out := make([]indexedItem, len(items))
	for i, it := range items {
		out[i] = indexedItem{item: it, title: normalize(it.Title), summary: normalize(it.Summary)}
	}
	return out
}

// Len reports how many items are indexed.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.items)
}

// Full reports whether the window is filled.
func (ix *Index) Full() bool {
	return ix.Len() >= ix.window
}

// Search matches text against titles and summaries. Results are ordered by
// ascending distance; equal distances keep feed order.
func (ix *Index) Search(text string) Result {
	if strings.TrimSpace(text) == "" {
		return Result{Active: false, Items: []models.FeedItem{}}
	}
	query := normalize(text)
	if len(query) == 0 {
		// Only punctuation: a search is active but nothing can match.
		return Result{Active: true, Items: []models.FeedItem{}}
	}

	type hit struct {
		item     models.FeedItem
		distance float64
	}
	ix.mu.RLock()
	hits := make([]hit, 0)
	for _, it := range ix.items {
		d := min(fieldDistance(query, it.title), fieldDistance(query, it.summary))
		if d <= ix.threshold {
			hits = append(hits, hit{item: it.item, distance: d})
		}
	}
	ix.mu.RUnlock()

	slices.SortStableFunc(hits, func(a, b hit) int {
		switch {
		case a.distance < b.distance:
			return -1
		case a.distance > b.distance:
			return 1
		}
		return 0
	})
	items := make([]models.FeedItem, len(hits))
	for i, h := range hits {
		items[i] = h.item
	}
	return Result{Active: true, Items: items}
}
