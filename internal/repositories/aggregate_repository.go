package repositories

import (
	"context"
	"errors"

	"github.com/anonto42/memoshare/internal/models"
	"github.com/anonto42/memoshare/internal/store"
)

// ErrStaleAggregate is returned when a conditional aggregate write lost a race.
var ErrStaleAggregate = errors.New("aggregate changed concurrently")

// AggregateRepository reads and conditionally writes counter aggregates.
// A version of 0 means the aggregate does not exist yet.
type AggregateRepository interface {
	GetAggregate(ctx context.Context, collection, key string) (*models.Aggregate, int64, error)
	// SaveAggregate writes agg only if the stored version still equals
	// expectedVersion, creating the record when expectedVersion is 0.
	SaveAggregate(ctx context.Context, collection string, agg *models.Aggregate, expectedVersion int64) error
}

type aggregateRepository struct {
	repo store.Repository
}

// NewAggregateRepository creates a new AggregateRepository
func NewAggregateRepository(repo store.Repository) AggregateRepository {
	return &aggregateRepository{repo: repo}
}

func (r *aggregateRepository) GetAggregate(ctx context.Context, collection, key string) (*models.Aggregate, int64, error) {
	doc, err := r.repo.Get(ctx, collection, key)
	if errors.Is(err, store.ErrNotFound) {
		return &models.Aggregate{Key: key, Members: []string{}}, 0, nil
	}
	if err != nil {
		return nil, 0, translate(err, "aggregate", key)
	}
	agg := &models.Aggregate{Key: key, Members: store.Strings(doc.Fields["members"])}
	if agg.Members == nil {
		agg.Members = []string{}
	}
	if n, ok := doc.Fields["count"]; ok {
		agg.Count = toInt(n)
	}
	return agg, doc.Version, nil
}

func (r *aggregateRepository) SaveAggregate(ctx context.Context, collection string, agg *models.Aggregate, expectedVersion int64) error {
	fields, err := store.Encode(agg)
	if err != nil {
		return translate(err, "aggregate", agg.Key)
	}
	if expectedVersion == 0 {
		_, err = r.repo.Create(ctx, collection, agg.Key, fields)
	} else {
		err = r.repo.Update(ctx, collection, agg.Key, fields, store.IfVersion(expectedVersion))
	}
	switch {
	case errors.Is(err, store.ErrAlreadyExists), errors.Is(err, store.ErrVersionConflict):
		return ErrStaleAggregate
	case errors.Is(err, store.ErrNotFound):
		// Deleted between read and write; the retry recreates it.
		return ErrStaleAggregate
	}
	return translate(err, "aggregate", agg.Key)
}

func toInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int32:
		return int(n)
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return 0
}
