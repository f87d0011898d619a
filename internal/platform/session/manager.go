package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/samersec/deWin-i/internal/platform/auth"
)

var (
	// ErrWrongPortal is returned when credentials are valid but the account's
	// role does not match the portal the login came through. No session is
	// created in that case.
	ErrWrongPortal = errors.New("account does not belong to this login portal")

	// ErrLoginInProgress is returned when a login for the same email is
	// already in flight.
	ErrLoginInProgress = errors.New("login already in progress")

	// ErrAuthTimeout is returned when the credential check exceeds the
	// configured deadline.
	ErrAuthTimeout = errors.New("authentication timed out")
)

// Authenticator checks credentials and returns the matching identity.
// Implemented by the account service.
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (*auth.Identity, error)
}

// Manager owns the session lifecycle: it runs the credential check, enforces
// the portal/role match, persists the session, and restores or clears it on
// later requests.
type Manager struct {
	store       Store
	authn       Authenticator
	ttl         time.Duration
	authTimeout time.Duration

	mu       sync.Mutex
	inflight map[string]struct{}
}

func NewManager(store Store, authn Authenticator, ttl, authTimeout time.Duration) *Manager {
	return &Manager{
		store:       store,
		authn:       authn,
		ttl:         ttl,
		authTimeout: authTimeout,
		inflight:    make(map[string]struct{}),
	}
}

// TTL returns the configured session lifetime. The HTTP layer uses it for
// cookie expiry.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Login authenticates the credentials and, when the account's role matches
// the portal, creates and persists a session. Only one login per email may be
// in flight at a time; concurrent attempts fail fast with ErrLoginInProgress.
//
// The credential check is always performed before the portal check, so the
// response never reveals whether an email exists on the other portal without
// the right password. If the caller's context is cancelled before the session
// is persisted, the result is discarded and no session exists.
func (m *Manager) Login(ctx context.Context, portal auth.Role, email, password string) (*Session, error) {
	m.mu.Lock()
	if _, busy := m.inflight[email]; busy {
		m.mu.Unlock()
		return nil, ErrLoginInProgress
	}
	m.inflight[email] = struct{}{}
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		delete(m.inflight, email)
		m.mu.Unlock()
	}()

	authCtx, cancel := context.WithTimeout(ctx, m.authTimeout)
	defer cancel()

	ident, err := m.authn.Authenticate(authCtx, email, password)
	if err != nil {
		if errors.Is(authCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, ErrAuthTimeout
		}
		return nil, err
	}

	if ident.Role != portal {
		log.Warn().Str("email", email).Str("portal", string(portal)).
			Msg("login rejected: wrong portal for account role")
		return nil, ErrWrongPortal
	}

	// A cancelled request must not leave a live session behind.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := time.Now()
	sess := &Session{
		ID:        uuid.NewString(),
		Identity:  *ident,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}
	if err := m.store.Set(ctx, sess); err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}

	log.Info().Str("user_id", ident.ID.String()).Str("role", string(ident.Role)).
		Msg("session created")
	return sess, nil
}

// Restore looks up a stored session and returns its identity. Sessions with
// a role outside the known set are cleared and treated as absent, so a
// corrupted record can never authenticate a request.
func (m *Manager) Restore(ctx context.Context, sessionID string) (*auth.Identity, error) {
	sess, err := m.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !sess.Identity.Role.Valid() {
		log.Warn().Str("session_id", sessionID).Str("role", string(sess.Identity.Role)).
			Msg("clearing session with unknown role")
		_ = m.store.Clear(ctx, sessionID)
		return nil, ErrNotFound
	}
	ident := sess.Identity
	return &ident, nil
}

// Logout removes the session. Clearing an unknown or already-cleared session
// succeeds; logout is idempotent.
func (m *Manager) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return m.store.Clear(ctx, sessionID)
}
