package account

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/samersec/deWin-i/internal/platform/auth"
	"github.com/samersec/deWin-i/internal/platform/session"
)

type Handler struct {
	svc           *Service
	sessions      *session.Manager
	tokens        *auth.TokenIssuer
	secureCookies bool
}

func NewHandler(svc *Service, sessions *session.Manager, tokens *auth.TokenIssuer, secureCookies bool) *Handler {
	return &Handler{svc: svc, sessions: sessions, tokens: tokens, secureCookies: secureCookies}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/users/register", h.Register)
	api.POST("/users/register/:portal", h.Register)
	api.POST("/users/login", h.Login)
	api.POST("/users/login/:portal", h.Login)
	api.POST("/users/logout", h.Logout)
	api.POST("/users/forgot-password", h.ForgotPassword)
	api.POST("/users/reset-password", h.ResetPassword)

	me := api.Group("", auth.RequireRole(auth.RolePatient, auth.RoleDoctor))
	me.GET("/users/me", h.Me)
	me.PUT("/users/me", h.UpdateProfile)
}

// portalRole resolves the :portal path segment. Requests without a portal
// segment go through the patient portal.
func portalRole(c echo.Context) (auth.Role, error) {
	p := c.Param("portal")
	if p == "" {
		return auth.RolePatient, nil
	}
	return auth.ParseRole(p)
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) Register(c echo.Context) error {
	role, err := portalRole(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "unknown signup portal")
	}

	var in RegisterInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	u, err := h.svc.Register(c.Request().Context(), role, in)
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Account created successfully",
		"user":    u.Identity(),
	})
}

func (h *Handler) Login(c echo.Context) error {
	portal, err := portalRole(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "unknown login portal")
	}

	var creds credentials
	if err := c.Bind(&creds); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if creds.Email == "" || creds.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email and password are required")
	}

	sess, err := h.sessions.Login(c.Request().Context(), portal, creds.Email, creds.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCredentials):
			return echo.NewHTTPError(http.StatusUnauthorized, ErrInvalidCredentials.Error())
		case errors.Is(err, session.ErrWrongPortal):
			return echo.NewHTTPError(http.StatusForbidden, session.ErrWrongPortal.Error())
		case errors.Is(err, session.ErrLoginInProgress):
			return echo.NewHTTPError(http.StatusConflict, session.ErrLoginInProgress.Error())
		case errors.Is(err, session.ErrAuthTimeout):
			return echo.NewHTTPError(http.StatusServiceUnavailable, session.ErrAuthTimeout.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, "login failed")
		}
	}

	token, err := h.tokens.Issue(&sess.Identity)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "login failed")
	}

	h.setSessionCookie(c, sess.ID, sess.ExpiresAt)
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Login successful",
		"user":    sess.Identity,
		"token":   token,
	})
}

func (h *Handler) Logout(c echo.Context) error {
	if cookie, err := c.Cookie(auth.SessionCookieName); err == nil && cookie.Value != "" {
		if err := h.sessions.Logout(c.Request().Context(), cookie.Value); err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "logout failed")
		}
	}
	h.clearSessionCookie(c)
	return c.JSON(http.StatusOK, echo.Map{"message": "Logged out"})
}

func (h *Handler) Me(c echo.Context) error {
	ident := auth.IdentityFromContext(c.Request().Context())
	u, err := h.svc.Get(c.Request().Context(), ident.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "account not found")
	}
	return c.JSON(http.StatusOK, echo.Map{"user": u})
}

func (h *Handler) UpdateProfile(c echo.Context) error {
	ident := auth.IdentityFromContext(c.Request().Context())
	u, err := h.svc.Get(c.Request().Context(), ident.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "account not found")
	}

	var in struct {
		Nom           string     `json:"nom"`
		Prenom        string     `json:"prenom"`
		Telephone     string     `json:"telephone"`
		DateNaissance *time.Time `json:"date_naissance"`
		GrpSang       string     `json:"grp_sang"`
	}
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	u.Nom = in.Nom
	u.Prenom = in.Prenom
	u.Telephone = in.Telephone
	u.DateNaissance = in.DateNaissance
	u.GrpSang = in.GrpSang
	if err := h.svc.UpdateProfile(c.Request().Context(), u); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Profile updated", "user": u})
}

func (h *Handler) ForgotPassword(c echo.Context) error {
	var in struct {
		Email string `json:"email"`
	}
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if in.Email == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email is required")
	}

	if err := h.svc.ForgotPassword(c.Request().Context(), in.Email); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "could not process request")
	}
	// same acknowledgement whether or not the email exists
	return c.JSON(http.StatusOK, echo.Map{
		"message": "If the email is registered, a reset link has been sent",
	})
}

func (h *Handler) ResetPassword(c echo.Context) error {
	var in struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if in.Token == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "token is required")
	}

	if err := h.svc.ResetPassword(c.Request().Context(), in.Token, in.Password); err != nil {
		if errors.Is(err, ErrTokenInvalid) {
			return echo.NewHTTPError(http.StatusBadRequest, ErrTokenInvalid.Error())
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Password updated successfully"})
}

func (h *Handler) setSessionCookie(c echo.Context, sessionID string, expires time.Time) {
	c.SetCookie(&http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    sessionID,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) clearSessionCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}
