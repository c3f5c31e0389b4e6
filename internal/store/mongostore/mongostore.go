// Package mongostore implements store.Repository on MongoDB. Each collection
// maps to a Mongo collection; the record version lives in a reserved field.
package mongostore

import (
	"context"
	"errors"
	"fmt"

	"github.com/anonto42/memoshare/internal/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const versionField = "_version"

// Store implements store.Repository for MongoDB
type Store struct {
	db *mongo.Database
}

// New creates a Store over db
func New(db *mongo.Database) *Store {
	return &Store{db: db}
}

// EnsureIndexes creates the secondary indexes the services query by.
func (s *Store) EnsureIndexes(ctx context.Context, indexes map[string][]string) error {
	for collection, fields := range indexes {
		models := make([]mongo.IndexModel, 0, len(fields))
		for _, f := range fields {
			models = append(models, mongo.IndexModel{Keys: bson.D{{Key: f, Value: 1}}})
		}
		if _, err := s.db.Collection(collection).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", collection, err)
		}
	}
	return nil
}

func (s *Store) Create(ctx context.Context, collection, id string, fields store.Fields) (string, error) {
	if id == "" {
		id = store.NewID()
	}
	doc := bson.M{"_id": id, versionField: int64(1)}
	for k, v := range fields {
		doc[k] = v
	}
	if _, err := s.db.Collection(collection).InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", store.ErrAlreadyExists
		}
		return "", err
	}
	return id, nil
}

func (s *Store) Get(ctx context.Context, collection, id string) (*store.Document, error) {
	var m bson.M
	err := s.db.Collection(collection).FindOne(ctx, bson.M{"_id": id}).Decode(&m)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return toDocument(m), nil
}

func (s *Store) Update(ctx context.Context, collection, id string, patch store.Fields, opts ...store.UpdateOption) error {
	o := store.ApplyUpdateOptions(opts)
	filter := bson.M{"_id": id}
	if o.IfVersion != nil {
		filter[versionField] = *o.IfVersion
	}
	set := bson.M{}
	for k, v := range patch {
		set[k] = v
	}
	update := bson.M{"$inc": bson.M{versionField: 1}}
	if len(set) > 0 {
		update["$set"] = set
	}
	coll := s.db.Collection(collection)
	res, err := coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount > 0 {
		return nil
	}
	if o.IfVersion == nil {
		return store.ErrNotFound
	}
	n, err := coll.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return store.ErrVersionConflict
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	res, err := s.db.Collection(collection).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) Query(ctx context.Context, collection string, q store.Query) ([]store.Document, error) {
	clauses := bson.A{}
	for _, f := range q.Filters {
		clauses = append(clauses, bson.M{f.Field: f.Value})
	}
	if q.StartAfter != nil {
		clauses = append(clauses, afterClause(q.OrderBy, q.StartAfter))
	}
	filter := bson.M{}
	if len(clauses) > 0 {
		filter["$and"] = clauses
	}

	findOptions := options.Find().SetSort(sortSpec(q.OrderBy))
	if q.Limit > 0 {
		findOptions.SetLimit(int64(q.Limit))
	}
	cursor, err := s.db.Collection(collection).Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []bson.M
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	docs := make([]store.Document, len(rows))
	for i, m := range rows {
		docs[i] = *toDocument(m)
	}
	return docs, nil
}

func sortSpec(o *store.OrderBy) bson.D {
	if o == nil {
		return bson.D{{Key: "_id", Value: 1}}
	}
	dir := 1
	if o.Desc {
		dir = -1
	}
	return bson.D{{Key: o.Field, Value: dir}, {Key: "_id", Value: dir}}
}

// afterClause selects records strictly after the cursor in sort order.
func afterClause(o *store.OrderBy, c *store.Cursor) bson.M {
	if o == nil {
		return bson.M{"_id": bson.M{"$gt": c.ID}}
	}
	op := "$gt"
	if o.Desc {
		op = "$lt"
	}
	return bson.M{"$or": bson.A{
		bson.M{o.Field: bson.M{op: c.Value}},
		bson.M{o.Field: c.Value, "_id": bson.M{op: c.ID}},
	}}
}

func toDocument(m bson.M) *store.Document {
	doc := &store.Document{}
	if id, ok := m["_id"].(string); ok {
		doc.ID = id
	}
	switch v := m[versionField].(type) {
	case int64:
		doc.Version = v
	case int32:
		doc.Version = int64(v)
	}
	delete(m, "_id")
	delete(m, versionField)
	doc.Fields = store.Normalize(map[string]any(m))
	return doc
}
