package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

type contextKey string

const identityKey contextKey = "identity"

// SessionCookieName is the cookie carrying the server-side session ID.
const SessionCookieName = "dewini_session"

// SessionRestorer restores an Identity from a stored session ID. Implemented
// by the session manager; declared here to avoid a dependency cycle.
type SessionRestorer interface {
	Restore(ctx context.Context, sessionID string) (*Identity, error)
}

// Middleware authenticates requests from either a bearer token or the session
// cookie and places the Identity in the request context. Requests without
// credentials pass through unauthenticated; route guards decide what that
// means per route.
func Middleware(tokens *TokenIssuer, sessions SessionRestorer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			var ident *Identity

			if authHeader := c.Request().Header.Get("Authorization"); authHeader != "" {
				parts := strings.SplitN(authHeader, " ", 2)
				if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
					return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization format")
				}
				verified, err := tokens.Verify(parts[1])
				if err != nil {
					return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
				}
				ident = verified
			} else if cookie, err := c.Cookie(SessionCookieName); err == nil && cookie.Value != "" && sessions != nil {
				restored, err := sessions.Restore(c.Request().Context(), cookie.Value)
				if err == nil {
					ident = restored
				}
			}

			if ident != nil {
				ctx := context.WithValue(c.Request().Context(), identityKey, ident)
				c.SetRequest(c.Request().WithContext(ctx))
			}
			return next(c)
		}
	}
}

// DevMiddleware is a permissive middleware for development that injects an
// admin-like doctor identity when no credentials are supplied.
func DevMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if IdentityFromContext(c.Request().Context()) == nil {
				ctx := WithIdentity(c.Request().Context(), &Identity{
					Nom:    "Dev",
					Prenom: "User",
					Email:  "dev@localhost",
					Role:   RoleDoctor,
				})
				c.SetRequest(c.Request().WithContext(ctx))
			}
			return next(c)
		}
	}
}

// IdentityFromContext returns the authenticated Identity, or nil.
func IdentityFromContext(ctx context.Context) *Identity {
	ident, _ := ctx.Value(identityKey).(*Identity)
	return ident
}

// WithIdentity returns a context carrying the given Identity. Used by tests
// and the dev middleware.
func WithIdentity(ctx context.Context, ident *Identity) context.Context {
	return context.WithValue(ctx, identityKey, ident)
}
