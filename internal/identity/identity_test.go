package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTIssueAndVerify(t *testing.T) {
	v := NewJWTVerifier("test-secret")

	token, err := v.Issue(Principal{ID: "u1", DisplayName: "Ada"}, time.Hour)
	require.NoError(t, err)

	p, err := v.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, &Principal{ID: "u1", DisplayName: "Ada"}, p)
}

func TestJWTRejectsWrongSecretAndExpiry(t *testing.T) {
	issuer := NewJWTVerifier("one")
	token, err := issuer.Issue(Principal{ID: "u1"}, time.Hour)
	require.NoError(t, err)

	_, err = NewJWTVerifier("two").Verify(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	issuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, err := issuer.Issue(Principal{ID: "u1"}, time.Hour)
	require.NoError(t, err)
	_, err = issuer.Verify(context.Background(), expired)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = issuer.Verify(context.Background(), "not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

type fakeFirebase struct {
	token *auth.Token
	err   error
}

func (f fakeFirebase) VerifyIDToken(context.Context, string) (*auth.Token, error) {
	return f.token, f.err
}

func TestFirebaseVerifier(t *testing.T) {
	v := NewFirebaseVerifier(fakeFirebase{token: &auth.Token{UID: "fb-1", Claims: map[string]interface{}{"name": "Grace"}}})
	p, err := v.Verify(context.Background(), "id-token")
	require.NoError(t, err)
	assert.Equal(t, "fb-1", p.ID)
	assert.Equal(t, "Grace", p.DisplayName)

	v = NewFirebaseVerifier(fakeFirebase{err: errors.New("expired")})
	_, err = v.Verify(context.Background(), "id-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSessionNotifiesListeners(t *testing.T) {
	s := NewSession()
	assert.Nil(t, s.CurrentUser())

	var seen []*Principal
	stop := s.OnChange(func(p *Principal) { seen = append(seen, p) })

	s.SignIn(Principal{ID: "u1"})
	assert.Equal(t, "u1", s.CurrentUser().ID)
	s.SignOut()
	assert.Nil(t, s.CurrentUser())

	stop()
	s.SignIn(Principal{ID: "u2"})

	require.Len(t, seen, 2)
	assert.Equal(t, "u1", seen[0].ID)
	assert.Nil(t, seen[1])
}

func TestPrincipalContext(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	ctx := WithPrincipal(context.Background(), &Principal{ID: "u1"})
	p, ok := FromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "u1", p.ID)
}
