package auth

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Role is the closed set of portal roles. Anything outside the two known
// variants is rejected at the boundary rather than carried through the system.
type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "medecin"
)

// ParseRole validates a raw role string case-insensitively. Unknown values
// fail closed.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(RolePatient):
		return RolePatient, nil
	case string(RoleDoctor):
		return RoleDoctor, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// Valid reports whether the role is one of the two known variants.
func (r Role) Valid() bool {
	return r == RolePatient || r == RoleDoctor
}

// Identity is an authenticated principal's public view. Credential material
// never appears here.
type Identity struct {
	ID     uuid.UUID `json:"id"`
	Nom    string    `json:"nom"`
	Prenom string    `json:"prenom"`
	Email  string    `json:"email"`
	Role   Role      `json:"role"`
}
