package db

import (
	"github.com/jackc/pgx/v5/pgxpool"
)

// Queries bundles all SQL access behind one receiver, so handlers and the chat
// engine depend on a single storage value instead of raw pool access.
type Queries struct {
	pool *pgxpool.Pool
}

// New wraps an initialized connection pool.
func New(pool *pgxpool.Pool) *Queries {
	return &Queries{pool: pool}
}
