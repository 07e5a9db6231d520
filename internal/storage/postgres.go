// Package storage implements the credential store boundary on
// PostgreSQL. Every query is parameterized; no SQL is ever assembled
// from user input.
package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taintedport/taintedport/pkg/authn"
	"github.com/taintedport/taintedport/pkg/pg"
)

// Postgres is a pgx-backed implementation of authn.Storage. The pool is
// safe for concurrent use; per-row write serialization is the
// database's responsibility.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres creates the repository on an established pool.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

const userColumns = "id, name, email, is_admin, totp_enabled, created_at"

func (r *Postgres) CreateUser(ctx context.Context, user *authn.User, passwordHash []byte) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO users (id, name, email, password_hash, is_admin, created_at)
		 VALUES ($1, $2, $3, $4, false, $5)`,
		user.ID, user.Name, user.Email, passwordHash, user.CreatedAt,
	)
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			return authn.ErrEmailAlreadyExists
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *Postgres) GetUserByID(ctx context.Context, id uuid.UUID) (*authn.User, error) {
	return r.scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (r *Postgres) GetUserByEmail(ctx context.Context, email string) (*authn.User, error) {
	return r.scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

func (r *Postgres) GetPasswordHash(ctx context.Context, id uuid.UUID) ([]byte, error) {
	var hash []byte
	err := r.pool.QueryRow(ctx,
		`SELECT password_hash FROM users WHERE id = $1`, id).Scan(&hash)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, authn.ErrUserNotFound
		}
		return nil, fmt.Errorf("select password hash: %w", err)
	}
	return hash, nil
}

func (r *Postgres) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash []byte) error {
	return r.updateOne(ctx,
		`UPDATE users SET password_hash = $2 WHERE id = $1`, id, hash)
}

func (r *Postgres) UpdateEmail(ctx context.Context, id uuid.UUID, email string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE users SET email = $2 WHERE id = $1`, id, email)
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			return authn.ErrEmailAlreadyExists
		}
		return fmt.Errorf("update email: %w", err)
	}
	return nil
}

func (r *Postgres) UpdateName(ctx context.Context, id uuid.UUID, name string) error {
	return r.updateOne(ctx,
		`UPDATE users SET name = $2 WHERE id = $1`, id, name)
}

func (r *Postgres) GetTOTPSecret(ctx context.Context, id uuid.UUID) (string, error) {
	var secret *string
	err := r.pool.QueryRow(ctx,
		`SELECT totp_secret FROM users WHERE id = $1`, id).Scan(&secret)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return "", authn.ErrUserNotFound
		}
		return "", fmt.Errorf("select totp secret: %w", err)
	}
	if secret == nil {
		return "", nil
	}
	return *secret, nil
}

func (r *Postgres) EnableTOTP(ctx context.Context, id uuid.UUID, secret string) error {
	return r.updateOne(ctx,
		`UPDATE users SET totp_secret = $2, totp_enabled = true WHERE id = $1`, id, secret)
}

func (r *Postgres) DisableTOTP(ctx context.Context, id uuid.UUID) error {
	return r.updateOne(ctx,
		`UPDATE users SET totp_secret = NULL, totp_enabled = false WHERE id = $1`, id)
}

// updateOne runs a single-row update and maps a zero-row result to
// authn.ErrUserNotFound.
func (r *Postgres) updateOne(ctx context.Context, sql string, args ...any) error {
	tag, err := r.pool.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return authn.ErrUserNotFound
	}
	return nil
}

func (r *Postgres) scanUser(row interface{ Scan(dest ...any) error }) (*authn.User, error) {
	var u authn.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.IsAdmin, &u.TOTPEnabled, &u.CreatedAt)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, authn.ErrUserNotFound
		}
		return nil, fmt.Errorf("select user: %w", err)
	}
	return &u, nil
}
