package store

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var validate = validator.New()

// Encode validates a typed record and maps it to document fields using its
// bson tags. The record ID is never part of the fields.
func Encode(record any) (Fields, error) {
	if err := validate.Struct(record); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	raw, err := bson.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	var m bson.M
	if err := bson.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	return Normalize(map[string]any(m)), nil
}

// Decode maps document fields onto a typed record. Callers set the ID
// themselves from doc.ID.
func Decode(doc *Document, out any) error {
	raw, err := bson.Marshal(bson.M(doc.Fields))
	if err != nil {
		return fmt.Errorf("decode %s: %w", doc.ID, err)
	}
	if err := bson.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s: %w", doc.ID, err)
	}
	return nil
}

// Normalize converts driver-specific value types into plain Go values:
// times become UTC time.Time, arrays become []any, embedded documents become
// maps and 32-bit integers widen to int64.
func Normalize(m map[string]any) Fields {
	out := make(Fields, len(m))
	for k, v := range m {
		out[k] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v any) any {
	switch t := v.(type) {
	case primitive.DateTime:
		return t.Time().UTC()
	case time.Time:
		return t.UTC()
	case primitive.A:
		return normalizeSlice([]any(t))
	case []any:
		return normalizeSlice(t)
	case primitive.M:
		return map[string]any(Normalize(map[string]any(t)))
	case map[string]any:
		return map[string]any(Normalize(t))
	case primitive.D:
		return map[string]any(Normalize(map[string]any(t.Map())))
	case int32:
		return int64(t)
	case int:
		return int64(t)
	}
	return v
}

func normalizeSlice(in []any) []any {
	out := make([]any, len(in))
	for i, v := range in {
		out[i] = normalizeValue(v)
	}
	return out
}

// Clone returns a deep copy of fields so adapters never share mutable state
// with callers.
func Clone(f Fields) Fields {
	if f == nil {
		return Fields{}
	}
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	case []string:
		return append([]string(nil), t...)
	case map[string]any:
		return map[string]any(Clone(Fields(t)))
	case Fields:
		return Clone(t)
	}
	return v
}

// Strings reads a string-array field regardless of how the backend decoded it.
func Strings(v any) []string {
	switch t := v.(type) {
	case []string:
		return append([]string(nil), t...)
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case primitive.A:
		return Strings([]any(t))
	}
	return nil
}
