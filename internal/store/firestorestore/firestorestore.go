// Package firestorestore implements store.Repository on Cloud Firestore.
package firestorestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/anonto42/memoshare/internal/store"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const versionField = "_version"

// Store implements store.Repository for Firestore
type Store struct {
	client *firestore.Client
}

// New creates a Store over an initialized Firestore client
func New(client *firestore.Client) *Store {
	return &Store{client: client}
}

func (s *Store) Create(ctx context.Context, collection, id string, fields store.Fields) (string, error) {
	if id == "" {
		id = store.NewID()
	}
	data := make(map[string]interface{}, len(fields)+1)
	for k, v := range fields {
		data[k] = v
	}
	data[versionField] = int64(1)
	if _, err := s.client.Collection(collection).Doc(id).Create(ctx, data); err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return "", store.ErrAlreadyExists
		}
		return "", err
	}
	return id, nil
}

func (s *Store) Get(ctx context.Context, collection, id string) (*store.Document, error) {
	snap, err := s.client.Collection(collection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return toDocument(snap), nil
}

// Update runs inside a transaction so the version check and the write are atomic.
func (s *Store) Update(ctx context.Context, collection, id string, patch store.Fields, opts ...store.UpdateOption) error {
	o := store.ApplyUpdateOptions(opts)
	ref := s.client.Collection(collection).Doc(id)
	return s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return store.ErrNotFound
			}
			return err
		}
		current := toDocument(snap)
		if o.IfVersion != nil && *o.IfVersion != current.Version {
			return store.ErrVersionConflict
		}
		updates := make([]firestore.Update, 0, len(patch)+1)
		for k, v := range patch {
			updates = append(updates, firestore.Update{Path: k, Value: v})
		}
		updates = append(updates, firestore.Update{Path: versionField, Value: current.Version + 1})
		return tx.Update(ref, updates)
	})
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	_, err := s.client.Collection(collection).Doc(id).Delete(ctx, firestore.Exists)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return store.ErrNotFound
		}
		return err
	}
	return nil
}

func (s *Store) Query(ctx context.Context, collection string, q store.Query) ([]store.Document, error) {
	query := s.client.Collection(collection).Query
	for _, f := range q.Filters {
		query = query.Where(f.Field, "==", f.Value)
	}
	if q.OrderBy != nil {
		dir := firestore.Asc
		if q.OrderBy.Desc {
			dir = firestore.Desc
		}
		query = query.OrderBy(q.OrderBy.Field, dir).OrderBy(firestore.DocumentID, dir)
		if q.StartAfter != nil {
			query = query.StartAfter(q.StartAfter.Value, q.StartAfter.ID)
		}
	} else {
		query = query.OrderBy(firestore.DocumentID, firestore.Asc)
		if q.StartAfter != nil {
			query = query.StartAfter(q.StartAfter.ID)
		}
	}
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}

	snaps, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}
	docs := make([]store.Document, len(snaps))
	for i, snap := range snaps {
		docs[i] = *toDocument(snap)
	}
	return docs, nil
}

func toDocument(snap *firestore.DocumentSnapshot) *store.Document {
	data := snap.Data()
	doc := &store.Document{ID: snap.Ref.ID}
	if v, ok := data[versionField].(int64); ok {
		doc.Version = v
	}
	delete(data, versionField)
	doc.Fields = store.Normalize(data)
	return doc
}
