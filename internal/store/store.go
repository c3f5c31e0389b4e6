// Package store defines the document repository every backend adapter
// implements, and the mapping layer between typed records and documents.
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNotFound        = errors.New("store: record not found")
	ErrAlreadyExists   = errors.New("store: record already exists")
	ErrVersionConflict = errors.New("store: version conflict")
	ErrInvalidRecord   = errors.New("store: invalid record")
	ErrUnavailable     = errors.New("store: backend unavailable")
)

// Fields is the field bag of a stored record.
type Fields map[string]any

// Document is a stored record. Version starts at 1 and grows by one on every
// successful update.
type Document struct {
	ID      string
	Version int64
	Fields  Fields
}

// Filter is an equality predicate on a top-level field.
type Filter struct {
	Field string
	Value any
}

// Eq builds an equality filter.
func Eq(field string, value any) Filter {
	return Filter{Field: field, Value: value}
}

// OrderBy sorts on a single field. Ties are broken by document ID in the
// same direction.
type OrderBy struct {
	Field string
	Desc  bool
}

// Cursor is a resume position: the ordering value and ID of the last record
// already seen. Value is ignored when the query has no OrderBy.
type Cursor struct {
	Value any
	ID    string
}

type Query struct {
	Filters    []Filter
	OrderBy    *OrderBy
	StartAfter *Cursor
	Limit      int
}

// UpdateOptions holds the preconditions of an Update.
type UpdateOptions struct {
	IfVersion *int64
}

type UpdateOption func(*UpdateOptions)

// IfVersion makes an Update conditional on the record still being at version v.
// A mismatch fails with ErrVersionConflict.
func IfVersion(v int64) UpdateOption {
	return func(o *UpdateOptions) {
		o.IfVersion = &v
	}
}

// ApplyUpdateOptions folds opts into an UpdateOptions value.
func ApplyUpdateOptions(opts []UpdateOption) UpdateOptions {
	var o UpdateOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Repository is a generic create/read/update/delete/query primitive over
// named collections.
type Repository interface {
	// Create stores fields under id, generating one when id is empty.
	// It fails with ErrAlreadyExists when the id is taken.
	Create(ctx context.Context, collection, id string, fields Fields) (string, error)
	Get(ctx context.Context, collection, id string) (*Document, error)
	// Update merges patch into the record.
	Update(ctx context.Context, collection, id string, patch Fields, opts ...UpdateOption) error
	Delete(ctx context.Context, collection, id string) error
	Query(ctx context.Context, collection string, q Query) ([]Document, error)
}

// NewID returns a fresh record ID.
func NewID() string {
	return uuid.NewString()
}
