// Package identity turns bearer tokens into principals and tracks the
// signed-in principal of a session.
package identity

import (
	"context"
	"errors"
)

// ErrInvalidToken is returned for tokens that fail verification.
var ErrInvalidToken = errors.New("invalid or expired token")

// Principal is an authenticated user. ID is the identity subject and the
// user's profile id.
type Principal struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName,omitempty"`
}

// Verifier validates a bearer token.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Principal, error)
}

type principalKey struct{}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// FromContext returns the principal stored by WithPrincipal.
func FromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*Principal)
	return p, ok && p != nil
}
