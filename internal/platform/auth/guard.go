package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// DefaultLoginPath is where unauthenticated navigation lands.
const DefaultLoginPath = "/login/patient"

// HomePath returns the dashboard root for a role. Unknown roles map to the
// default login path.
func HomePath(r Role) string {
	switch r {
	case RolePatient:
		return "/patient"
	case RoleDoctor:
		return "/doctor"
	default:
		return DefaultLoginPath
	}
}

// Decision is the outcome of a route-guard evaluation. Either the view is
// allowed or the caller must redirect.
type Decision struct {
	Allowed    bool
	RedirectTo string
}

// Allow is the decision that renders the requested view.
var Allow = Decision{Allowed: true}

// RedirectTo builds a redirect decision.
func RedirectTo(path string) Decision {
	return Decision{RedirectTo: path}
}

// Evaluate decides whether an identity may access a view restricted to the
// given roles. It is pure; the caller performs the redirect.
//
//   - no identity: redirect to the default login page
//   - corrupted or foreign role: redirect to the default login page (fail closed)
//   - authenticated but wrong role: redirect to the user's own dashboard
//   - otherwise: allow
func Evaluate(ident *Identity, allowed ...Role) Decision {
	if ident == nil {
		return RedirectTo(DefaultLoginPath)
	}
	if !ident.Role.Valid() {
		return RedirectTo(DefaultLoginPath)
	}
	for _, r := range allowed {
		if ident.Role == r {
			return Allow
		}
	}
	return RedirectTo(HomePath(ident.Role))
}

// Guard returns middleware for browser-facing routes: wrong-role or
// unauthenticated navigation is answered with a 303 redirect per Evaluate.
func Guard(allowed ...Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			d := Evaluate(IdentityFromContext(c.Request().Context()), allowed...)
			if !d.Allowed {
				return c.Redirect(http.StatusSeeOther, d.RedirectTo)
			}
			return next(c)
		}
	}
}

// RequireRole returns middleware for API routes: it rejects with 401 when the
// request is unauthenticated and 403 when the role does not match.
func RequireRole(roles ...Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ident := IdentityFromContext(c.Request().Context())
			if ident == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}
			for _, r := range roles {
				if ident.Role == r {
					return next(c)
				}
			}
			names := make([]string, len(roles))
			for i, r := range roles {
				names[i] = string(r)
			}
			return echo.NewHTTPError(http.StatusForbidden,
				fmt.Sprintf("required role: %s", strings.Join(names, " or ")))
		}
	}
}
