package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/anonto42/memoshare/internal/identity"
)

// PrincipalKey is the echo context key holding the *identity.Principal.
const PrincipalKey = "principal"

// Registrar creates the profile of a first-time principal.
type Registrar func(c echo.Context, p *identity.Principal) error

// Auth verifies the bearer token with verifier and stores the principal in
// both the echo context and the request context. The websocket endpoint may
// pass the token as the access_token query parameter instead.
func Auth(verifier identity.Verifier, register Registrar, logger *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, err := bearerToken(c)
			if err != nil {
				return err
			}

			principal, err := verifier.Verify(c.Request().Context(), token)
			if err != nil {
				logger.Debug("token rejected", zap.Error(err))
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired token")
			}

			if register != nil {
				if err := register(c, principal); err != nil {
					return err
				}
			}

			c.Set(PrincipalKey, principal)
			c.SetRequest(c.Request().WithContext(identity.WithPrincipal(c.Request().Context(), principal)))
			return next(c)
		}
	}
}

func bearerToken(c echo.Context) (string, error) {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		if token := c.QueryParam("access_token"); token != "" {
			return token, nil
		}
		return "", echo.NewHTTPError(http.StatusUnauthorized, "Missing Authorization header")
	}

	// Expecting "Bearer <token>"
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "Invalid Authorization header format")
	}
	return parts[1], nil
}

// CurrentUserID returns the authenticated user's id.
func CurrentUserID(c echo.Context) string {
	if p, ok := c.Get(PrincipalKey).(*identity.Principal); ok {
		return p.ID
	}
	return ""
}
