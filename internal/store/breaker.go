package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// BreakerConfig tunes the circuit breaker placed in front of a backend.
type BreakerConfig struct {
	Name             string
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	MinRequests      uint32
	FailureThreshold float64
}

// DefaultBreakerConfig trips after half of at least ten calls fail and
// probes again after thirty seconds.
func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:             name,
		MaxRequests:      3,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		MinRequests:      10,
		FailureThreshold: 0.5,
	}
}

type breakerRepository struct {
	next Repository
	cb   *gobreaker.CircuitBreaker
}

// WithCircuitBreaker wraps next so that a failing backend fails fast with
// ErrUnavailable. Not-found, already-exists, version-conflict and invalid
// record outcomes are answers, not failures, and never trip the breaker.
func WithCircuitBreaker(next Repository, cfg BreakerConfig, logger *zap.Logger) Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("store circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
		IsSuccessful: isBackendHealthy,
	})
	return &breakerRepository{next: next, cb: cb}
}

func isBackendHealthy(err error) bool {
	return err == nil ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrAlreadyExists) ||
		errors.Is(err, ErrVersionConflict) ||
		errors.Is(err, ErrInvalidRecord) ||
		errors.Is(err, context.Canceled)
}

func (r *breakerRepository) execute(fn func() (any, error)) (any, error) {
	out, err := r.cb.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return out, err
}

func (r *breakerRepository) Create(ctx context.Context, collection, id string, fields Fields) (string, error) {
	out, err := r.execute(func() (any, error) {
		return r.next.Create(ctx, collection, id, fields)
	})
	if err != nil {
		return "", err
	}
	return out.(string), nil
}

func (r *breakerRepository) Get(ctx context.Context, collection, id string) (*Document, error) {
	out, err := r.execute(func() (any, error) {
		return r.next.Get(ctx, collection, id)
	})
	if err != nil {
		return nil, err
	}
	return out.(*Document), nil
}

func (r *breakerRepository) Update(ctx context.Context, collection, id string, patch Fields, opts ...UpdateOption) error {
	_, err := r.execute(func() (any, error) {
		return nil, r.next.Update(ctx, collection, id, patch, opts...)
	})
	return err
}

func (r *breakerRepository) Delete(ctx context.Context, collection, id string) error {
	_, err := r.execute(func() (any, error) {
		return nil, r.next.Delete(ctx, collection, id)
	})
	return err
}

func (r *breakerRepository) Query(ctx context.Context, collection string, q Query) ([]Document, error) {
	out, err := r.execute(func() (any, error) {
		return r.next.Query(ctx, collection, q)
	})
	if err != nil {
		return nil, err
	}
	return out.([]Document), nil
}
