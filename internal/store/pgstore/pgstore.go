// Package pgstore implements store.Repository on PostgreSQL through gorm.
// All collections share one table; record fields live in a JSONB column.
//
// Timestamps are stored as {"$time": "<fixed-width UTC>"} so that ordering
// on the text form matches chronological order. Ordering on other value
// kinds compares their text form.
package pgstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"time"

	"github.com/anonto42/memoshare/internal/store"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	timeKey    = "$time"
	timeLayout = "2006-01-02T15:04:05.000000000Z"
)

var fieldName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

type documentRow struct {
	Collection string `gorm:"primaryKey;size:64"`
	ID         string `gorm:"primaryKey;size:191"`
	Version    int64  `gorm:"not null"`
	Data       []byte `gorm:"type:jsonb;not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (documentRow) TableName() string { return "documents" }

// Store implements store.Repository for PostgreSQL
type Store struct {
	db *gorm.DB
}

// New creates a Store. db must be opened with TranslateError enabled so
// unique violations surface as gorm.ErrDuplicatedKey.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Migrate creates the documents table.
func (s *Store) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(&documentRow{})
}

func (s *Store) Create(ctx context.Context, collection, id string, fields store.Fields) (string, error) {
	if id == "" {
		id = store.NewID()
	}
	data, err := encodeFields(fields)
	if err != nil {
		return "", err
	}
	row := &documentRow{Collection: collection, ID: id, Version: 1, Data: data}
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return "", store.ErrAlreadyExists
		}
		return "", err
	}
	return id, nil
}

func (s *Store) Get(ctx context.Context, collection, id string) (*store.Document, error) {
	var row documentRow
	err := s.db.WithContext(ctx).
		Where("collection = ? AND id = ?", collection, id).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return toDocument(&row)
}

// Update locks the row, merges the patch and bumps the version in one transaction.
func (s *Store) Update(ctx context.Context, collection, id string, patch store.Fields, opts ...store.UpdateOption) error {
	o := store.ApplyUpdateOptions(opts)
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row documentRow
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("collection = ? AND id = ?", collection, id).
			First(&row).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return store.ErrNotFound
			}
			return err
		}
		if o.IfVersion != nil && *o.IfVersion != row.Version {
			return store.ErrVersionConflict
		}
		current, err := toDocument(&row)
		if err != nil {
			return err
		}
		for k, v := range patch {
			current.Fields[k] = v
		}
		data, err := encodeFields(current.Fields)
		if err != nil {
			return err
		}
		return tx.Model(&documentRow{}).
			Where("collection = ? AND id = ? AND version = ?", collection, id, row.Version).
			Updates(map[string]any{"data": data, "version": row.Version + 1}).Error
	})
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	res := s.db.WithContext(ctx).
		Where("collection = ? AND id = ?", collection, id).
		Delete(&documentRow{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) Query(ctx context.Context, collection string, q store.Query) ([]store.Document, error) {
	tx := s.db.WithContext(ctx).Model(&documentRow{}).Where("collection = ?", collection)
	for _, f := range q.Filters {
		if !fieldName.MatchString(f.Field) {
			return nil, fmt.Errorf("pgstore: invalid field name %q", f.Field)
		}
		value, err := json.Marshal(encodeValue(f.Value))
		if err != nil {
			return nil, err
		}
		tx = tx.Where(fmt.Sprintf("data -> '%s' = ?::jsonb", f.Field), string(value))
	}

	if q.OrderBy == nil {
		if q.StartAfter != nil {
			tx = tx.Where("id > ?", q.StartAfter.ID)
		}
		tx = tx.Order("id ASC")
	} else {
		if !fieldName.MatchString(q.OrderBy.Field) {
			return nil, fmt.Errorf("pgstore: invalid field name %q", q.OrderBy.Field)
		}
		key := sortKey(q.OrderBy.Field)
		dir, op := "ASC", ">"
		if q.OrderBy.Desc {
			dir, op = "DESC", "<"
		}
		if q.StartAfter != nil {
			v := sortValue(q.StartAfter.Value)
			tx = tx.Where(fmt.Sprintf("((%s %s ?) OR (%s = ? AND id %s ?))", key, op, key, op), v, v, q.StartAfter.ID)
		}
		tx = tx.Order(fmt.Sprintf("%s %s", key, dir)).Order("id " + dir)
	}
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}

	var rows []documentRow
	if err := tx.Find(&rows).Error; err != nil {
		return nil, err
	}
	docs := make([]store.Document, 0, len(rows))
	for i := range rows {
		doc, err := toDocument(&rows[i])
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	return docs, nil
}

func sortKey(field string) string {
	return fmt.Sprintf("COALESCE(data -> '%s' ->> '%s', data ->> '%s')", field, timeKey, field)
}

func sortValue(v any) string {
	switch t := v.(type) {
	case time.Time:
		return t.UTC().Format(timeLayout)
	case string:
		return t
	}
	return fmt.Sprint(v)
}

func encodeFields(fields store.Fields) ([]byte, error) {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = encodeValue(v)
	}
	return json.Marshal(out)
}

func encodeValue(v any) any {
	switch t := v.(type) {
	case time.Time:
		return map[string]any{timeKey: t.UTC().Format(timeLayout)}
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = encodeValue(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = encodeValue(e)
		}
		return out
	}
	return v
}

func toDocument(row *documentRow) (*store.Document, error) {
	var raw map[string]any
	if err := json.Unmarshal(row.Data, &raw); err != nil {
		return nil, fmt.Errorf("pgstore: decode %s/%s: %w", row.Collection, row.ID, err)
	}
	fields := make(store.Fields, len(raw))
	for k, v := range raw {
		fields[k] = decodeValue(v)
	}
	return &store.Document{ID: row.ID, Version: row.Version, Fields: fields}, nil
}

func decodeValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		if s, ok := t[timeKey].(string); ok && len(t) == 1 {
			if ts, err := time.Parse(timeLayout, s); err == nil {
				return ts
			}
		}
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = decodeValue(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = decodeValue(e)
		}
		return out
	case float64:
		if t == math.Trunc(t) && math.Abs(t) < 1<<53 {
			return int64(t)
		}
	}
	return v
}
