// Package ledger maintains denormalized counters whose member set is the
// source of truth. Each mutation is a conditional read-modify-write on the
// aggregate record, retried on conflict up to a fixed ceiling.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/anonto42/memoshare/internal/apperrors"
	"github.com/anonto42/memoshare/internal/metrics"
	"github.com/anonto42/memoshare/internal/models"
	"github.com/anonto42/memoshare/internal/repositories"
)

const (
	DefaultMaxRetries = 5
	defaultBaseDelay  = 10 * time.Millisecond
	maxDelay          = 200 * time.Millisecond
)

// Result is the aggregate after a mutation and whether membership changed.
type Result struct {
	Aggregate *models.Aggregate
	Changed   bool
}

// Ledger applies membership-idempotent increments and decrements.
type Ledger struct {
	aggregates repositories.AggregateRepository
	maxRetries int
	baseDelay  time.Duration
	logger     *zap.Logger
	metrics    *metrics.Collector
}

type Option func(*Ledger)

// WithMaxRetries bounds how many conditional writes one call may attempt.
func WithMaxRetries(n int) Option {
	return func(l *Ledger) {
		if n > 0 {
			l.maxRetries = n
		}
	}
}

// WithBackoff sets the base delay between attempts. Zero disables sleeping.
func WithBackoff(d time.Duration) Option {
	return func(l *Ledger) { l.baseDelay = d }
}

func WithLogger(logger *zap.Logger) Option {
	return func(l *Ledger) {
		if logger != nil {
			l.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Collector) Option {
	return func(l *Ledger) { l.metrics = m }
}

// New creates a Ledger over the given aggregate repository.
func New(aggregates repositories.AggregateRepository, opts ...Option) *Ledger {
	l := &Ledger{
		aggregates: aggregates,
		maxRetries: DefaultMaxRetries,
		baseDelay:  defaultBaseDelay,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Get returns the current aggregate. A missing aggregate reads as zero.
func (l *Ledger) Get(ctx context.Context, collection, key string) (*models.Aggregate, error) {
	agg, _, err := l.aggregates.GetAggregate(ctx, collection, key)
	if err != nil {
		return nil, fmt.Errorf("read %s/%s: %w", collection, key, err)
	}
	agg.Count = len(agg.Members)
	return agg, nil
}

// Increment adds memberID to the aggregate's member set. It is a no-op when
// the member is already present.
func (l *Ledger) Increment(ctx context.Context, collection, key, memberID string) (*Result, error) {
	return l.mutate(ctx, collection, key, "increment", false, func(agg *models.Aggregate) (bool, error) {
		return addMember(agg, memberID), nil
	})
}

// Decrement removes memberID from the aggregate's member set. It is a no-op
// when the member is absent.
func (l *Ledger) Decrement(ctx context.Context, collection, key, memberID string) (*Result, error) {
	return l.mutate(ctx, collection, key, "decrement", false, func(agg *models.Aggregate) (bool, error) {
		return removeMember(agg, memberID), nil
	})
}

// Sync makes memberID's membership equal to present, which reads the record
// the aggregate is derived from. present is evaluated after every aggregate
// read and the aggregate is written back conditionally even when unchanged,
// so a sync that read the record before its last change can never commit
// after one that read it afterwards.
func (l *Ledger) Sync(ctx context.Context, collection, key, memberID string, present func(context.Context) (bool, error)) (*Result, error) {
	return l.mutate(ctx, collection, key, "sync", true, func(agg *models.Aggregate) (bool, error) {
		ok, err := present(ctx)
		if err != nil {
			return false, err
		}
		if ok {
			return addMember(agg, memberID), nil
		}
		return removeMember(agg, memberID), nil
	})
}

func addMember(agg *models.Aggregate, memberID string) bool {
	if agg.Has(memberID) {
		return false
	}
	agg.Members = append(agg.Members, memberID)
	return true
}

func removeMember(agg *models.Aggregate, memberID string) bool {
	i := slices.Index(agg.Members, memberID)
	if i < 0 {
		return false
	}
	agg.Members = slices.Delete(agg.Members, i, i+1)
	return true
}

// mutate applies apply under optimistic concurrency. With touch set an
// unchanged aggregate is still written so the version moves.
func (l *Ledger) mutate(ctx context.Context, collection, key, op string, touch bool, apply func(*models.Aggregate) (bool, error)) (*Result, error) {
	for attempt := 0; attempt < l.maxRetries; attempt++ {
		agg, version, err := l.aggregates.GetAggregate(ctx, collection, key)
		if err != nil {
			return nil, fmt.Errorf("read %s/%s: %w", collection, key, err)
		}

		changed, err := apply(agg)
		if err != nil {
			return nil, fmt.Errorf("%s %s/%s: %w", op, collection, key, err)
		}
		if !changed && !touch {
			agg.Count = len(agg.Members)
			return &Result{Aggregate: agg}, nil
		}
		// The count is always derived from the member set.
		agg.Count = len(agg.Members)

		err = l.aggregates.SaveAggregate(ctx, collection, agg, version)
		if err == nil {
			l.metrics.LedgerWrite(collection, op)
			return &Result{Aggregate: agg, Changed: changed}, nil
		}
		if !errors.Is(err, repositories.ErrStaleAggregate) {
			return nil, fmt.Errorf("write %s/%s: %w", collection, key, err)
		}

		l.metrics.LedgerRetry(collection)
		l.logger.Debug("aggregate write conflict, retrying",
			zap.String("collection", collection),
			zap.String("key", key),
			zap.Int("attempt", attempt+1))

		if err := l.wait(ctx, attempt); err != nil {
			return nil, err
		}
	}

	l.metrics.LedgerGaveUp(collection)
	l.logger.Warn("aggregate retry ceiling reached",
		zap.String("collection", collection),
		zap.String("key", key),
		zap.Int("max_retries", l.maxRetries))
	return nil, apperrors.Conflict(apperrors.CodeRetryExhausted,
		fmt.Sprintf("%s/%s changed concurrently %d times", collection, key, l.maxRetries))
}

// wait sleeps with jittered exponential backoff before the next attempt.
func (l *Ledger) wait(ctx context.Context, attempt int) error {
	if l.baseDelay <= 0 {
		return ctx.Err()
	}
	d := l.baseDelay << attempt
	if d > maxDelay || d <= 0 {
		d = maxDelay
	}
	d = d/2 + rand.N(d/2+1)

	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
