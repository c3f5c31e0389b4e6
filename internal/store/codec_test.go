package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRecord struct {
	ID        string    `bson:"-"`
	Title     string    `bson:"title" validate:"required"`
	Tags      []string  `bson:"tags"`
	Count     int       `bson:"count"`
	CreatedAt time.Time `bson:"createdAt"`
}

func TestEncodeDecode(t *testing.T) {
	createdAt := time.Date(2024, 1, 2, 3, 4, 5, 6_000_000, time.UTC)
	rec := sampleRecord{ID: "r1", Title: "hello", Tags: []string{"a", "b"}, Count: 3, CreatedAt: createdAt}

	fields, err := Encode(rec)
	require.NoError(t, err)
	assert.NotContains(t, fields, "ID")
	assert.Equal(t, "hello", fields["title"])
	assert.Equal(t, createdAt, fields["createdAt"])
	assert.Equal(t, []any{"a", "b"}, fields["tags"])

	var out sampleRecord
	require.NoError(t, Decode(&Document{ID: "r1", Fields: fields}, &out))
	out.ID = "r1"
	assert.Equal(t, rec, out)
}

func TestEncodeValidates(t *testing.T) {
	_, err := Encode(sampleRecord{})
	assert.ErrorIs(t, err, ErrInvalidRecord)
}

func TestStrings(t *testing.T) {
	assert.Equal(t, []string{"u1", "u2"}, Strings([]any{"u1", "u2"}))
	assert.Equal(t, []string{"u1"}, Strings([]string{"u1"}))
	assert.Nil(t, Strings(nil))
}

func TestCompare(t *testing.T) {
	now := time.Now()
	assert.Equal(t, -1, Compare(int64(1), 2.5))
	assert.Equal(t, 0, Compare(int32(7), 7))
	assert.Equal(t, 1, Compare(now.Add(time.Second), now))
	assert.Equal(t, -1, Compare("a", "b"))
	assert.Equal(t, -1, Compare(nil, "a"))
}

func TestApply(t *testing.T) {
	docs := []Document{
		{ID: "a", Fields: Fields{"n": 1, "g": "x"}},
		{ID: "b", Fields: Fields{"n": 3, "g": "x"}},
		{ID: "c", Fields: Fields{"n": 2, "g": "y"}},
		{ID: "d", Fields: Fields{"n": 3, "g": "x"}},
	}

	out := Apply(docs, Query{Filters: []Filter{Eq("g", "x")}, OrderBy: &OrderBy{Field: "n", Desc: true}})
	require.Len(t, out, 3)
	assert.Equal(t, []string{"d", "b", "a"}, []string{out[0].ID, out[1].ID, out[2].ID})

	out = Apply(docs, Query{OrderBy: &OrderBy{Field: "n", Desc: true}, StartAfter: &Cursor{Value: 3, ID: "b"}, Limit: 1})
	require.Len(t, out, 1)
	assert.Equal(t, "c", out[0].ID)

	out = Apply(docs, Query{StartAfter: &Cursor{ID: "b"}})
	assert.Len(t, out, 2)
}
