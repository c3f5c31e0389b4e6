package store

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Compare orders two field values of the same kind. Numbers compare
// numerically across integer and float types; values of different kinds
// compare by their kind name so ordering stays total.
func Compare(a, b any) int {
	if af, ok := toFloat(a); ok {
		if bf, ok := toFloat(b); ok {
			switch {
			case af < bf:
				return -1
			case af > bf:
				return 1
			}
			return 0
		}
	}
	switch av := a.(type) {
	case time.Time:
		if bv, ok := b.(time.Time); ok {
			return av.Compare(bv)
		}
	case string:
		if bv, ok := b.(string); ok {
			return strings.Compare(av, bv)
		}
	case bool:
		if bv, ok := b.(bool); ok {
			switch {
			case av == bv:
				return 0
			case !av:
				return -1
			}
			return 1
		}
	case nil:
		if b == nil {
			return 0
		}
		return -1
	}
	if b == nil {
		return 1
	}
	return strings.Compare(fmt.Sprintf("%T", a), fmt.Sprintf("%T", b))
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	}
	return 0, false
}

// Matches reports whether doc satisfies every filter.
func Matches(doc Document, filters []Filter) bool {
	for _, f := range filters {
		v, ok := doc.Fields[f.Field]
		if !ok || Compare(v, f.Value) != 0 {
			return false
		}
	}
	return true
}

// Less orders documents by o, breaking ties by ID. A nil o orders by ID ascending.
func Less(a, b Document, o *OrderBy) bool {
	if o == nil {
		return a.ID < b.ID
	}
	c := Compare(a.Fields[o.Field], b.Fields[o.Field])
	if c == 0 {
		c = strings.Compare(a.ID, b.ID)
	}
	if o.Desc {
		return c > 0
	}
	return c < 0
}

// After reports whether doc sorts strictly after the cursor position.
func After(doc Document, o *OrderBy, c *Cursor) bool {
	if c == nil {
		return true
	}
	if o == nil {
		return doc.ID > c.ID
	}
	cmp := Compare(doc.Fields[o.Field], c.Value)
	if cmp == 0 {
		cmp = strings.Compare(doc.ID, c.ID)
	}
	if o.Desc {
		return cmp < 0
	}
	return cmp > 0
}

// Apply runs q over an unordered set of documents. Adapters without native
// querying use it directly.
func Apply(docs []Document, q Query) []Document {
	out := make([]Document, 0, len(docs))
	for _, d := range docs {
		if Matches(d, q.Filters) && After(d, q.OrderBy, q.StartAfter) {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return Less(out[i], out[j], q.OrderBy)
	})
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out
}
