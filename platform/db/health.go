package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PoolAdapter wraps a pgx pool so callers can depend on a narrow Ping interface.
type PoolAdapter struct {
	pool *pgxpool.Pool
}

// NewPoolAdapter returns a health-check adapter over the given pool.
func NewPoolAdapter(pool *pgxpool.Pool) *PoolAdapter {
	return &PoolAdapter{pool: pool}
}

// Ping verifies database connectivity.
func (a *PoolAdapter) Ping(ctx context.Context) error {
	return a.pool.Ping(ctx)
}
