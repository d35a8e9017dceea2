package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"tally/internal/core"
)

// CreateLedger inserts a ledger row and returns it with the assigned ID.
func (q *Queries) CreateLedger(ctx context.Context, l core.Ledger) (core.Ledger, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO ledgers (owner_id, name, notes) VALUES (?, ?, ?)`,
		l.OwnerID, l.Name, l.Notes)
	if err != nil {
		return core.Ledger{}, fmt.Errorf("create ledger: %w", err)
	}
	l.ID, err = res.LastInsertId()
	if err != nil {
		return core.Ledger{}, fmt.Errorf("create ledger id: %w", err)
	}
	return l, nil
}

// GetLedger loads a ledger by ID.
func (q *Queries) GetLedger(ctx context.Context, id int64) (core.Ledger, error) {
	var l core.Ledger
	err := q.db.QueryRowContext(ctx,
		`SELECT id, owner_id, name, notes FROM ledgers WHERE id = ?`, id).
		Scan(&l.ID, &l.OwnerID, &l.Name, &l.Notes)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Ledger{}, core.ErrNotFound
	}
	if err != nil {
		return core.Ledger{}, fmt.Errorf("get ledger: %w", err)
	}
	return l, nil
}

// ListLedgers returns every ledger owned by a user, name order.
func (q *Queries) ListLedgers(ctx context.Context, ownerID int64) ([]core.Ledger, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, owner_id, name, notes FROM ledgers WHERE owner_id = ? ORDER BY name`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list ledgers: %w", err)
	}
	defer rows.Close()

	var out []core.Ledger
	for rows.Next() {
		var l core.Ledger
		if err := rows.Scan(&l.ID, &l.OwnerID, &l.Name, &l.Notes); err != nil {
			return nil, fmt.Errorf("scan ledger: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// DeleteLedger removes the ledger row. Categories and budgets go with it
// through schema cascades; transactions must have been reversed and deleted
// by the caller first.
func (q *Queries) DeleteLedger(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM ledgers WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete ledger: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}
