package account

import (
	"time"

	"github.com/google/uuid"

	"github.com/samersec/deWin-i/internal/platform/auth"
)

// User is a portal account. The password hash never leaves the package.
type User struct {
	ID            uuid.UUID  `json:"id"`
	Nom           string     `json:"nom"`
	Prenom        string     `json:"prenom"`
	Email         string     `json:"email"`
	Telephone     string     `json:"telephone,omitempty"`
	DateNaissance *time.Time `json:"date_naissance,omitempty"`
	GrpSang       string     `json:"grp_sang,omitempty"`
	PasswordHash  string     `json:"-"`
	Role          auth.Role  `json:"role"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Identity projects the account onto its public authenticated view.
func (u *User) Identity() *auth.Identity {
	return &auth.Identity{
		ID:     u.ID,
		Nom:    u.Nom,
		Prenom: u.Prenom,
		Email:  u.Email,
		Role:   u.Role,
	}
}

// ResetToken is a single-use password reset grant.
type ResetToken struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Token     string
	ExpiresAt time.Time
	UsedAt    *time.Time
	CreatedAt time.Time
}

// Usable reports whether the token can still redeem a password reset.
func (t *ResetToken) Usable() bool {
	return t.UsedAt == nil && time.Now().Before(t.ExpiresAt)
}
