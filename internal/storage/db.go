// Package storage persists the domain model in SQLite. The query layer
// follows the DBTX/Queries shape: every method works the same against the
// pooled connection or against an open transaction handle, so services can
// run multi-step mutations through Repository.ExecTx without any hidden
// global state.
package storage

import (
	"context"
	"database/sql"
)

// DBTX is the subset of database/sql shared by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Queries bundles every entity query over one DBTX handle.
type Queries struct {
	db DBTX
}

// New creates a query bundle over a connection or transaction.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// WithTx rebinds the bundle to an open transaction.
func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}
