package db

import (
	"context"

	"github.com/Aappo001/AI-Personal-Health-Assistant-sub000/internal/app/model"
)

// CreateUser inserts a new account. A unique violation on username should be
// checked with IsUniqueViolation by the caller.
func (q *Queries) CreateUser(ctx context.Context, username, passwordHash string) (model.User, error) {
	const query = `
		INSERT INTO users (username, password_hash)
		VALUES ($1, $2)
		RETURNING id, username, password_hash, created_at`

	var u model.User
	err := q.pool.QueryRow(ctx, query, username, passwordHash).
		Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt)
	return u, err
}

// GetUserByUsername fetches an account by its unique login name.
func (q *Queries) GetUserByUsername(ctx context.Context, username string) (model.User, error) {
	const query = `
		SELECT id, username, password_hash, created_at
		FROM users
		WHERE username = $1`

	var u model.User
	err := q.pool.QueryRow(ctx, query, username).
		Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt)
	return u, err
}

// GetUserByID fetches an account by primary key.
func (q *Queries) GetUserByID(ctx context.Context, id int64) (model.User, error) {
	const query = `
		SELECT id, username, password_hash, created_at
		FROM users
		WHERE id = $1`

	var u model.User
	err := q.pool.QueryRow(ctx, query, id).
		Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt)
	return u, err
}
