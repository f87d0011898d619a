package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims carries the public identity fields inside a signed token.
type Claims struct {
	jwt.RegisteredClaims
	Nom    string `json:"nom"`
	Prenom string `json:"prenom"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

// TokenIssuer signs and verifies HS256 identity tokens. The TTL bounds the
// lifetime of both the token and the matching server-side session.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenIssuer(secret []byte, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: secret, ttl: ttl}
}

// Issue signs a token for the given identity, expiring after the issuer TTL.
func (ti *TokenIssuer) Issue(ident *Identity) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   ident.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ti.ttl)),
		},
		Nom:    ident.Nom,
		Prenom: ident.Prenom,
		Email:  ident.Email,
		Role:   string(ident.Role),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(ti.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a token and reconstructs the Identity. The role
// claim is re-validated so a token minted with a foreign role never yields an
// Identity.
func (ti *TokenIssuer) Verify(tokenStr string) (*Identity, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return ti.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("invalid subject: %w", err)
	}
	role, err := ParseRole(claims.Role)
	if err != nil {
		return nil, err
	}

	return &Identity{
		ID:     id,
		Nom:    claims.Nom,
		Prenom: claims.Prenom,
		Email:  claims.Email,
		Role:   role,
	}, nil
}
