package account

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no row matches the lookup.
var ErrNotFound = errors.New("not found")

type UserRepository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	// GetByEmail matches case-insensitively.
	GetByEmail(ctx context.Context, email string) (*User, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	Update(ctx context.Context, u *User) error
}

type ResetTokenRepository interface {
	Create(ctx context.Context, t *ResetToken) error
	GetByToken(ctx context.Context, token string) (*ResetToken, error)
	MarkUsed(ctx context.Context, id uuid.UUID) error
	// DeleteForUser drops outstanding tokens so only the latest link works.
	DeleteForUser(ctx context.Context, userID uuid.UUID) error
}
