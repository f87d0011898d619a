package account

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/samersec/deWin-i/internal/platform/auth"
	"github.com/samersec/deWin-i/internal/platform/session"
)

func newTestHandler(t *testing.T) (*Handler, *echo.Echo, *mockUserRepo) {
	t.Helper()
	svc, users, _, _ := newTestService()
	sessions := session.NewManager(session.NewMemoryStore(), svc, time.Hour, 5*time.Second)
	tokens := auth.NewTokenIssuer([]byte("test-secret"), time.Hour)
	h := NewHandler(svc, sessions, tokens, false)
	return h, echo.New(), users
}

func postJSON(e *echo.Echo, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestHandler_Login(t *testing.T) {
	h, e, users := newTestHandler(t)
	seedUser(t, users, "sarah@example.com", "correct123", auth.RoleDoctor)

	c, rec := postJSON(e, "/api/users/login/medecin", `{"email":"sarah@example.com","password":"correct123"}`)
	c.SetParamNames("portal")
	c.SetParamValues("medecin")

	if err := h.Login(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Message string        `json:"message"`
		User    auth.Identity `json:"user"`
		Token   string        `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.User.Email != "sarah@example.com" || resp.User.Role != auth.RoleDoctor {
		t.Errorf("unexpected user %+v", resp.User)
	}
	if resp.Token == "" {
		t.Error("expected a token in the response")
	}

	var sessionCookie *http.Cookie
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == auth.SessionCookieName {
			sessionCookie = ck
		}
	}
	if sessionCookie == nil || sessionCookie.Value == "" {
		t.Fatal("expected session cookie")
	}
	if !sessionCookie.HttpOnly {
		t.Error("session cookie must be http-only")
	}
}

func TestHandler_Login_WrongPassword(t *testing.T) {
	h, e, users := newTestHandler(t)
	seedUser(t, users, "sarah@example.com", "correct123", auth.RoleDoctor)

	c, _ := postJSON(e, "/api/users/login/medecin", `{"email":"sarah@example.com","password":"wrong"}`)
	c.SetParamNames("portal")
	c.SetParamValues("medecin")

	err := h.Login(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestHandler_Login_UnknownEmailSameError(t *testing.T) {
	h, e, users := newTestHandler(t)
	seedUser(t, users, "sarah@example.com", "correct123", auth.RoleDoctor)

	c1, _ := postJSON(e, "/api/users/login", `{"email":"sarah@example.com","password":"wrong"}`)
	err1 := h.Login(c1)
	c2, _ := postJSON(e, "/api/users/login", `{"email":"nobody@example.com","password":"wrong"}`)
	err2 := h.Login(c2)

	he1, ok1 := err1.(*echo.HTTPError)
	he2, ok2 := err2.(*echo.HTTPError)
	if !ok1 || !ok2 {
		t.Fatalf("expected HTTP errors, got %v / %v", err1, err2)
	}
	if he1.Code != he2.Code || he1.Message != he2.Message {
		t.Error("wrong password and unknown email must be indistinguishable")
	}
}

func TestHandler_Login_WrongPortal(t *testing.T) {
	h, e, users := newTestHandler(t)
	seedUser(t, users, "sarah@example.com", "correct123", auth.RoleDoctor)

	// doctor credentials through the patient portal
	c, rec := postJSON(e, "/api/users/login", `{"email":"sarah@example.com","password":"correct123"}`)

	err := h.Login(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %v", err)
	}
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == auth.SessionCookieName && ck.Value != "" {
			t.Fatal("no session cookie may be set on portal mismatch")
		}
	}
}

func TestHandler_Login_UnknownPortal(t *testing.T) {
	h, e, _ := newTestHandler(t)

	c, _ := postJSON(e, "/api/users/login/admin", `{"email":"a@b.com","password":"x"}`)
	c.SetParamNames("portal")
	c.SetParamValues("admin")

	err := h.Login(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %v", err)
	}
}

func TestHandler_Logout_Idempotent(t *testing.T) {
	h, e, users := newTestHandler(t)
	seedUser(t, users, "sarah@example.com", "correct123", auth.RoleDoctor)

	sess, err := h.sessions.Login(context.Background(), auth.RoleDoctor, "sarah@example.com", "correct123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/users/logout", nil)
		req.AddCookie(&http.Cookie{Name: auth.SessionCookieName, Value: sess.ID})
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		if err := h.Logout(c); err != nil {
			t.Fatalf("logout attempt %d: %v", i+1, err)
		}
		if rec.Code != http.StatusOK {
			t.Fatalf("logout attempt %d: expected 200, got %d", i+1, rec.Code)
		}
	}

	// logout with no cookie at all also succeeds
	req := httptest.NewRequest(http.MethodPost, "/api/users/logout", nil)
	rec := httptest.NewRecorder()
	if err := h.Logout(e.NewContext(req, rec)); err != nil {
		t.Fatalf("logout without cookie: %v", err)
	}
}

func TestHandler_Register(t *testing.T) {
	h, e, _ := newTestHandler(t)

	body := `{"nom":"Martin","prenom":"Bob","email":"bob@example.com","password":"longenough1"}`
	c, rec := postJSON(e, "/api/users/register", body)

	if err := h.Register(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp struct {
		User auth.Identity `json:"user"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.User.Role != auth.RolePatient {
		t.Errorf("default signup portal must produce a patient, got %s", resp.User.Role)
	}
}

func TestHandler_Register_RoleFromPortalNotBody(t *testing.T) {
	h, e, _ := newTestHandler(t)

	// role in the body is ignored; the portal decides
	body := `{"nom":"Martin","prenom":"Bob","email":"bob@example.com","password":"longenough1","role":"medecin"}`
	c, rec := postJSON(e, "/api/users/register", body)

	if err := h.Register(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var resp struct {
		User auth.Identity `json:"user"`
	}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.User.Role != auth.RolePatient {
		t.Errorf("body role must be ignored, got %s", resp.User.Role)
	}
}

func TestHandler_ForgotPassword_UniformResponse(t *testing.T) {
	h, e, users := newTestHandler(t)
	seedUser(t, users, "sarah@example.com", "correct123", auth.RoleDoctor)

	c1, rec1 := postJSON(e, "/api/users/forgot-password", `{"email":"sarah@example.com"}`)
	if err := h.ForgotPassword(c1); err != nil {
		t.Fatalf("known email: %v", err)
	}
	c2, rec2 := postJSON(e, "/api/users/forgot-password", `{"email":"nobody@example.com"}`)
	if err := h.ForgotPassword(c2); err != nil {
		t.Fatalf("unknown email: %v", err)
	}

	if rec1.Code != rec2.Code || rec1.Body.String() != rec2.Body.String() {
		t.Error("forgot-password responses must not reveal whether the email exists")
	}
}

func TestHandler_ResetPassword_BadToken(t *testing.T) {
	h, e, _ := newTestHandler(t)

	c, _ := postJSON(e, "/api/users/reset-password", `{"token":"bogus","password":"newpassword1"}`)
	err := h.ResetPassword(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestHandler_Me(t *testing.T) {
	h, e, users := newTestHandler(t)
	u := seedUser(t, users, "sarah@example.com", "correct123", auth.RoleDoctor)

	req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetRequest(req.WithContext(auth.WithIdentity(req.Context(), u.Identity())))

	if err := h.Me(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "password") {
		t.Error("response must not leak password material")
	}
}
