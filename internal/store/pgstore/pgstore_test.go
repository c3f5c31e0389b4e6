package pgstore

import (
	"testing"
	"time"

	"github.com/anonto42/memoshare/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldEncodingRoundTrip(t *testing.T) {
	at := time.Date(2024, 3, 4, 5, 6, 7, 8_000_000, time.UTC)
	data, err := encodeFields(store.Fields{
		"createdAt": at,
		"count":     int64(2),
		"members":   []any{"u1", "u2"},
		"title":     "hi",
	})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"$time":"2024-03-04T05:06:07.008000000Z"`)

	doc, err := toDocument(&documentRow{Collection: "likes", ID: "m1", Version: 3, Data: data})
	require.NoError(t, err)
	assert.Equal(t, int64(3), doc.Version)
	assert.Equal(t, at, doc.Fields["createdAt"])
	assert.Equal(t, int64(2), doc.Fields["count"])
	assert.Equal(t, []any{"u1", "u2"}, doc.Fields["members"])
	assert.Equal(t, "hi", doc.Fields["title"])
}

func TestSortValueIsChronological(t *testing.T) {
	whole := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	fractional := whole.Add(500 * time.Millisecond)
	assert.Less(t, sortValue(whole), sortValue(fractional))
}
