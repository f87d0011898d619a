package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type stubRestorer struct {
	ident *Identity
	err   error
}

func (s *stubRestorer) Restore(ctx context.Context, sessionID string) (*Identity, error) {
	return s.ident, s.err
}

func captureIdentity(dst **Identity) echo.HandlerFunc {
	return func(c echo.Context) error {
		*dst = IdentityFromContext(c.Request().Context())
		return c.NoContent(http.StatusOK)
	}
}

func TestMiddleware_BearerToken(t *testing.T) {
	issuer := NewTokenIssuer([]byte("test-secret"), time.Hour)
	ident := &Identity{ID: uuid.New(), Nom: "Dupont", Prenom: "Alice", Email: "alice@example.com", Role: RolePatient}
	token, err := issuer.Issue(ident)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var got *Identity
	if err := Middleware(issuer, nil)(captureIdentity(&got))(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || got.Email != "alice@example.com" || got.Role != RolePatient {
		t.Errorf("expected alice's identity in context, got %+v", got)
	}
}

func TestMiddleware_SessionCookie(t *testing.T) {
	issuer := NewTokenIssuer([]byte("test-secret"), time.Hour)
	ident := &Identity{ID: uuid.New(), Email: "bob@example.com", Role: RolePatient}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "sess-1"})
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var got *Identity
	if err := Middleware(issuer, &stubRestorer{ident: ident})(captureIdentity(&got))(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || got.Email != "bob@example.com" {
		t.Errorf("expected bob's identity from the session cookie, got %+v", got)
	}
}

func TestMiddleware_NoCredentialsPassesThrough(t *testing.T) {
	issuer := NewTokenIssuer([]byte("test-secret"), time.Hour)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var got *Identity
	if err := Middleware(issuer, nil)(captureIdentity(&got))(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Errorf("expected no identity without credentials, got %+v", got)
	}
}

func TestMiddleware_RejectsMalformedAuthorizationHeader(t *testing.T) {
	issuer := NewTokenIssuer([]byte("test-secret"), time.Hour)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "garbage")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var got *Identity
	err := Middleware(issuer, nil)(captureIdentity(&got))(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for malformed header, got %v", err)
	}
}

func TestDevMiddleware_InjectsDoctorWhenUnauthenticated(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var got *Identity
	if err := DevMiddleware()(captureIdentity(&got))(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || got.Role != RoleDoctor {
		t.Errorf("expected injected doctor identity, got %+v", got)
	}
}

func TestDevMiddleware_KeepsAuthenticatedIdentity(t *testing.T) {
	ident := &Identity{ID: uuid.New(), Email: "sarah@example.com", Role: RoleDoctor}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithIdentity(req.Context(), ident))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var got *Identity
	if err := DevMiddleware()(captureIdentity(&got))(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || got.Email != "sarah@example.com" {
		t.Errorf("expected real identity to be preserved, got %+v", got)
	}
}
