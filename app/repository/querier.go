package repository

import (
	"context"
	"database/sql"
)

// Querier is the subset of *sql.DB / *sql.Tx the repositories need, so
// every repository can run either on the pool or inside a transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
