package account

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// -- User Repository --

type userRepoPG struct {
	pool querier
}

func NewUserRepo(pool *pgxpool.Pool) UserRepository {
	return &userRepoPG{pool: pool}
}

const userCols = `id, nom, prenom, email, telephone, date_naissance, grp_sang, password_hash, role, created_at, updated_at`

func (r *userRepoPG) Create(ctx context.Context, u *User) error {
	u.ID = uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO users (id, nom, prenom, email, telephone, date_naissance, grp_sang, password_hash, role)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		u.ID, u.Nom, u.Prenom, strings.ToLower(u.Email), u.Telephone, u.DateNaissance, u.GrpSang, u.PasswordHash, u.Role,
	)
	return err
}

func (r *userRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE id = $1`, id))
}

func (r *userRepoPG) GetByEmail(ctx context.Context, email string) (*User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE email = LOWER($1)`, email))
}

func (r *userRepoPG) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`, id, passwordHash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *userRepoPG) Update(ctx context.Context, u *User) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users SET nom=$2, prenom=$3, telephone=$4, date_naissance=$5, grp_sang=$6, updated_at=NOW()
		WHERE id = $1`,
		u.ID, u.Nom, u.Prenom, u.Telephone, u.DateNaissance, u.GrpSang,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Nom, &u.Prenom, &u.Email, &u.Telephone, &u.DateNaissance,
		&u.GrpSang, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}

// -- Reset Token Repository --

type resetTokenRepoPG struct {
	pool querier
}

func NewResetTokenRepo(pool *pgxpool.Pool) ResetTokenRepository {
	return &resetTokenRepoPG{pool: pool}
}

func (r *resetTokenRepoPG) Create(ctx context.Context, t *ResetToken) error {
	t.ID = uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO reset_tokens (id, user_id, token, expires_at)
		VALUES ($1,$2,$3,$4)`,
		t.ID, t.UserID, t.Token, t.ExpiresAt,
	)
	return err
}

func (r *resetTokenRepoPG) GetByToken(ctx context.Context, token string) (*ResetToken, error) {
	var t ResetToken
	err := r.pool.QueryRow(ctx, `
		SELECT id, user_id, token, expires_at, used_at, created_at
		FROM reset_tokens WHERE token = $1`, token,
	).Scan(&t.ID, &t.UserID, &t.Token, &t.ExpiresAt, &t.UsedAt, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan reset token: %w", err)
	}
	return &t, nil
}

func (r *resetTokenRepoPG) MarkUsed(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `UPDATE reset_tokens SET used_at = NOW() WHERE id = $1 AND used_at IS NULL`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *resetTokenRepoPG) DeleteForUser(ctx context.Context, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM reset_tokens WHERE user_id = $1`, userID)
	return err
}
