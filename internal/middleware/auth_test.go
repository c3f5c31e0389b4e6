package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/anonto42/memoshare/internal/identity"
)

func runAuth(t *testing.T, req *http.Request, register Registrar) (string, error) {
	t.Helper()
	v := identity.NewJWTVerifier("secret")
	e := echo.New()
	c := e.NewContext(req, httptest.NewRecorder())

	var seen string
	h := Auth(v, register, zap.NewNop())(func(c echo.Context) error {
		seen = CurrentUserID(c)
		p, ok := identity.FromContext(c.Request().Context())
		require.True(t, ok)
		assert.Equal(t, seen, p.ID)
		return nil
	})
	return seen, h(c)
}

func issue(t *testing.T, id string) string {
	t.Helper()
	tok, err := identity.NewJWTVerifier("secret").Issue(identity.Principal{ID: id}, time.Minute)
	require.NoError(t, err)
	return tok
}

func TestAuthAcceptsBearerHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+issue(t, "u1"))

	var registered string
	id, err := runAuth(t, req, func(c echo.Context, p *identity.Principal) error {
		registered = p.ID
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "u1", id)
	assert.Equal(t, "u1", registered)
}

func TestAuthAcceptsQueryToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?access_token="+issue(t, "u2"), nil)
	id, err := runAuth(t, req, nil)
	require.NoError(t, err)
	assert.Equal(t, "u2", id)
}

func TestAuthRejects(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"missing", ""},
		{"malformed", "Token abc"},
		{"bad token", "Bearer abc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			_, err := runAuth(t, req, nil)
			var httpErr *echo.HTTPError
			require.True(t, errors.As(err, &httpErr))
			assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
		})
	}
}

func TestAuthSurfacesRegistrarError(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+issue(t, "u1"))
	boom := errors.New("store down")

	_, err := runAuth(t, req, func(echo.Context, *identity.Principal) error { return boom })
	assert.ErrorIs(t, err, boom)
}
