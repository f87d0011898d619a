package account

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/samersec/deWin-i/internal/platform/auth"
	"github.com/samersec/deWin-i/internal/platform/notification"
)

var (
	// ErrInvalidCredentials covers both unknown email and wrong password so
	// a failed login never reveals whether the account exists.
	ErrInvalidCredentials = errors.New("invalid email or password")

	ErrEmailTaken   = errors.New("email already registered")
	ErrTokenInvalid = errors.New("reset link is invalid or has expired")
)

// resetTokenTTL bounds how long a password reset link stays valid.
const resetTokenTTL = 24 * time.Hour

const minPasswordLength = 8

type Service struct {
	users        UserRepository
	tokens       ResetTokenRepository
	mailer       notification.Mailer
	resetBaseURL string
}

func NewService(users UserRepository, tokens ResetTokenRepository, mailer notification.Mailer, resetBaseURL string) *Service {
	return &Service{users: users, tokens: tokens, mailer: mailer, resetBaseURL: resetBaseURL}
}

// Authenticate checks the credentials and returns the account identity.
// The bcrypt comparison runs even when the email is unknown so both failure
// paths cost about the same.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*auth.Identity, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup account: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return u.Identity(), nil
}

// dummyHash keeps the unknown-email path doing a real bcrypt comparison.
var dummyHash = []byte("$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy")

// RegisterInput carries the signup form fields.
type RegisterInput struct {
	Nom           string     `json:"nom"`
	Prenom        string     `json:"prenom"`
	Email         string     `json:"email"`
	Telephone     string     `json:"telephone"`
	DateNaissance *time.Time `json:"date_naissance"`
	GrpSang       string     `json:"grp_sang"`
	Password      string     `json:"password"`
}

// Register creates an account with the given role. The role comes from the
// signup portal, never from the request body.
func (s *Service) Register(ctx context.Context, role auth.Role, in RegisterInput) (*User, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("unknown role %q", role)
	}
	if in.Nom == "" || in.Prenom == "" {
		return nil, fmt.Errorf("nom and prenom are required")
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return nil, fmt.Errorf("invalid email address")
	}
	if len(in.Password) < minPasswordLength {
		return nil, fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}

	if _, err := s.users.GetByEmail(ctx, in.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("check email: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &User{
		Nom:           in.Nom,
		Prenom:        in.Prenom,
		Email:         in.Email,
		Telephone:     in.Telephone,
		DateNaissance: in.DateNaissance,
		GrpSang:       in.GrpSang,
		PasswordHash:  string(hash),
		Role:          role,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}

	log.Info().Str("user_id", u.ID.String()).Str("role", string(role)).Msg("account registered")
	return u, nil
}

// Get returns the account for an identity.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.users.GetByID(ctx, id)
}

// UpdateProfile updates the mutable profile fields. Email, role and password
// are changed through their own flows.
func (s *Service) UpdateProfile(ctx context.Context, u *User) error {
	if u.Nom == "" || u.Prenom == "" {
		return fmt.Errorf("nom and prenom are required")
	}
	return s.users.Update(ctx, u)
}

// ForgotPassword issues a reset link when the email matches an account. It
// returns nil either way; the caller answers with the same acknowledgement so
// the endpoint cannot be used to probe for registered emails.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			log.Info().Str("email", email).Msg("password reset requested for unknown email")
			return nil
		}
		return fmt.Errorf("lookup account: %w", err)
	}

	if err := s.tokens.DeleteForUser(ctx, u.ID); err != nil {
		return fmt.Errorf("revoke old tokens: %w", err)
	}

	t := &ResetToken{
		UserID:    u.ID,
		Token:     uuid.NewString(),
		ExpiresAt: time.Now().Add(resetTokenTTL),
	}
	if err := s.tokens.Create(ctx, t); err != nil {
		return fmt.Errorf("create reset token: %w", err)
	}

	resetURL := fmt.Sprintf("%s/reset-password?token=%s", s.resetBaseURL, url.QueryEscape(t.Token))
	if err := s.mailer.SendPasswordReset(ctx, u.Email, u.Prenom, resetURL); err != nil {
		return fmt.Errorf("send reset mail: %w", err)
	}
	return nil
}

// ResetPassword redeems a reset token. Tokens are single-use and expire after
// 24 hours.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}

	t, err := s.tokens.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrTokenInvalid
		}
		return fmt.Errorf("lookup reset token: %w", err)
	}
	if !t.Usable() {
		return ErrTokenInvalid
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, t.UserID, string(hash)); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if err := s.tokens.MarkUsed(ctx, t.ID); err != nil {
		return fmt.Errorf("consume reset token: %w", err)
	}

	log.Info().Str("user_id", t.UserID.String()).Msg("password reset completed")
	return nil
}
