package session

import (
	"context"
	"errors"
	"time"

	"github.com/samersec/deWin-i/internal/platform/auth"
)

// ErrNotFound is returned by a Store when no session exists for the given ID.
var ErrNotFound = errors.New("session not found")

// Session is the durable record behind a session cookie.
type Session struct {
	ID        string        `json:"id"`
	Identity  auth.Identity `json:"identity"`
	CreatedAt time.Time     `json:"created_at"`
	ExpiresAt time.Time     `json:"expires_at"`
}

// Expired reports whether the session has outlived its TTL.
func (s *Session) Expired() bool {
	return time.Now().After(s.ExpiresAt)
}

// Store is the key-value port sessions persist through. Implementations must
// treat Clear on a missing key as a no-op.
type Store interface {
	Get(ctx context.Context, id string) (*Session, error)
	Set(ctx context.Context, sess *Session) error
	Clear(ctx context.Context, id string) error
}
