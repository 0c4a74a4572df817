package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/denimstock/denimstock/internal/platform/db"
	"github.com/denimstock/denimstock/internal/shared"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const userColumns = `id, username, role, created_at, updated_at`

func scanUser(row pgx.Row) (User, error) {
	var u User
	if err := row.Scan(&u.ID, &u.Username, &u.Role, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return User{}, err
	}
	return u, nil
}

// ListUsers returns all users.
func (r *Repository) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var users []User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// GetUser loads one user.
func (r *Repository) GetUser(ctx context.Context, id int64) (User, error) {
	user, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, fmt.Errorf("user %d: %w", id, shared.ErrNotFound)
	}
	return user, err
}

// UsernameExists reports whether the username is taken by another account.
func (r *Repository) UsernameExists(ctx context.Context, username string, exceptID int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE username = $1 AND id <> $2)`, username, exceptID).Scan(&exists)
	return exists, err
}

// CreateUser inserts the account.
func (r *Repository) CreateUser(ctx context.Context, in NewUser) (User, error) {
	user, err := scanUser(r.pool.QueryRow(ctx, `INSERT INTO users (username, password_hash, role)
VALUES ($1, $2, $3) RETURNING `+userColumns, in.Username, in.PasswordHash, in.Role))
	return user, db.MapError(err)
}

// UpdateProfile changes username and, when hash is non-empty, the password.
func (r *Repository) UpdateProfile(ctx context.Context, id int64, username, passwordHash string) (User, error) {
	user, err := scanUser(r.pool.QueryRow(ctx, `UPDATE users SET
    username = $2,
    password_hash = CASE WHEN $3 = '' THEN password_hash ELSE $3 END,
    updated_at = NOW()
WHERE id = $1 RETURNING `+userColumns, id, username, passwordHash))
	return user, db.MapError(err)
}

// CountUsers returns the number of accounts.
func (r *Repository) CountUsers(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}
