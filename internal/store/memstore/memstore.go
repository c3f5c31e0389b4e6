// Package memstore is an in-process store.Repository. Every operation is
// linearizable, which makes it the reference backend for tests and local runs.
package memstore

import (
	"context"
	"sync"

	"github.com/anonto42/memoshare/internal/store"
)

type Store struct {
	mu          sync.RWMutex
	collections map[string]map[string]*store.Document
}

// New creates an empty Store
func New() *Store {
	return &Store{collections: make(map[string]map[string]*store.Document)}
}

func (s *Store) collection(name string) map[string]*store.Document {
	c, ok := s.collections[name]
	if !ok {
		c = make(map[string]*store.Document)
		s.collections[name] = c
	}
	return c
}

func (s *Store) Create(ctx context.Context, collection, id string, fields store.Fields) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if id == "" {
		id = store.NewID()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.collection(collection)
	if _, exists := c[id]; exists {
		return "", store.ErrAlreadyExists
	}
	c[id] = &store.Document{ID: id, Version: 1, Fields: store.Clone(fields)}
	return id, nil
}

func (s *Store) Get(ctx context.Context, collection, id string) (*store.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.collections[collection][id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return copyDocument(doc), nil
}

func (s *Store) Update(ctx context.Context, collection, id string, patch store.Fields, opts ...store.UpdateOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	o := store.ApplyUpdateOptions(opts)
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.collections[collection][id]
	if !ok {
		return store.ErrNotFound
	}
	if o.IfVersion != nil && *o.IfVersion != doc.Version {
		return store.ErrVersionConflict
	}
	for k, v := range store.Clone(patch) {
		doc.Fields[k] = v
	}
	doc.Version++
	return nil
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.collections[collection]
	if _, ok := c[id]; !ok {
		return store.ErrNotFound
	}
	delete(c, id)
	return nil
}

func (s *Store) Query(ctx context.Context, collection string, q store.Query) ([]store.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	all := make([]store.Document, 0, len(s.collections[collection]))
	for _, doc := range s.collections[collection] {
		all = append(all, *copyDocument(doc))
	}
	s.mu.RUnlock()
	return store.Apply(all, q), nil
}

func copyDocument(doc *store.Document) *store.Document {
	return &store.Document{ID: doc.ID, Version: doc.Version, Fields: store.Clone(doc.Fields)}
}
