package feed

import (
	"encoding/base64"
	"encoding/json"

	"github.com/anonto42/memoshare/internal/apperrors"
	"github.com/anonto42/memoshare/internal/repositories"
)

// EncodeCursor turns a cursor into an opaque URL-safe token. A nil cursor
// encodes as the empty token.
func EncodeCursor(c *repositories.MemoCursor) string {
	if c == nil {
		return ""
	}
	raw, err := json.Marshal(c)
	if err != nil {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(raw)
}

// DecodeCursor parses a token produced by EncodeCursor. The empty token is
// the start of the stream.
func DecodeCursor(token string) (*repositories.MemoCursor, error) {
	if token == "" {
		return nil, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, apperrors.Validation("INVALID_CURSOR", "malformed cursor")
	}
	var c repositories.MemoCursor
	if err := json.Unmarshal(raw, &c); err != nil || c.ID == "" || c.CreatedAt.IsZero() {
		return nil, apperrors.Validation("INVALID_CURSOR", "malformed cursor")
	}
	c.CreatedAt = c.CreatedAt.UTC()
	return &c, nil
}
