package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"tally/internal/core"
)

// ListTemplateCategories returns the whole global template taxonomy,
// roots before children so a copy can be built in one pass.
func (q *Queries) ListTemplateCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, name, type, parent_id FROM categories
		 ORDER BY parent_id IS NOT NULL, id`)
	if err != nil {
		return nil, fmt.Errorf("list template categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var (
			c      core.Category
			typ    string
			parent sql.NullInt64
		)
		if err := rows.Scan(&c.ID, &c.Name, &typ, &parent); err != nil {
			return nil, fmt.Errorf("scan template category: %w", err)
		}
		c.Type = core.CategoryType(typ)
		c.ParentID = decOptID(parent)
		out = append(out, c)
	}
	return out, rows.Err()
}

// CreateLedgerCategory inserts a per-ledger category node.
func (q *Queries) CreateLedgerCategory(ctx context.Context, c core.LedgerCategory) (core.LedgerCategory, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO ledger_categories (ledger_id, name, type, parent_id) VALUES (?, ?, ?, ?)`,
		c.LedgerID, c.Name, string(c.Type), encOptID(c.ParentID))
	if err != nil {
		return core.LedgerCategory{}, fmt.Errorf("create ledger category: %w", err)
	}
	c.ID, err = res.LastInsertId()
	if err != nil {
		return core.LedgerCategory{}, fmt.Errorf("create ledger category id: %w", err)
	}
	return c, nil
}

// GetLedgerCategory loads a per-ledger category node by ID.
func (q *Queries) GetLedgerCategory(ctx context.Context, id int64) (core.LedgerCategory, error) {
	var (
		c      core.LedgerCategory
		typ    string
		parent sql.NullInt64
	)
	err := q.db.QueryRowContext(ctx,
		`SELECT id, ledger_id, name, type, parent_id FROM ledger_categories WHERE id = ?`, id).
		Scan(&c.ID, &c.LedgerID, &c.Name, &typ, &parent)
	if errors.Is(err, sql.ErrNoRows) {
		return core.LedgerCategory{}, core.ErrNotFound
	}
	if err != nil {
		return core.LedgerCategory{}, fmt.Errorf("get ledger category: %w", err)
	}
	c.Type = core.CategoryType(typ)
	c.ParentID = decOptID(parent)
	return c, nil
}

// ListLedgerCategories returns every category node of a ledger, roots first.
func (q *Queries) ListLedgerCategories(ctx context.Context, ledgerID int64) ([]core.LedgerCategory, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, ledger_id, name, type, parent_id FROM ledger_categories
		 WHERE ledger_id = ? ORDER BY parent_id IS NOT NULL, id`, ledgerID)
	if err != nil {
		return nil, fmt.Errorf("list ledger categories: %w", err)
	}
	defer rows.Close()
	return scanLedgerCategories(rows)
}

// ListChildCategories returns the direct children of a category node.
func (q *Queries) ListChildCategories(ctx context.Context, parentID int64) ([]core.LedgerCategory, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, ledger_id, name, type, parent_id FROM ledger_categories
		 WHERE parent_id = ? ORDER BY id`, parentID)
	if err != nil {
		return nil, fmt.Errorf("list child categories: %w", err)
	}
	defer rows.Close()
	return scanLedgerCategories(rows)
}

// SiblingExists reports whether another node with the same name sits at the
// same position (ledger, type, parent) of the tree.
func (q *Queries) SiblingExists(ctx context.Context, c core.LedgerCategory, name string) (bool, error) {
	var n int
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM ledger_categories
		 WHERE ledger_id = ? AND type = ? AND name = ? AND id != ?
		   AND ((parent_id IS NULL AND ? IS NULL) OR parent_id = ?)`,
		c.LedgerID, string(c.Type), name, c.ID, encOptID(c.ParentID), encOptID(c.ParentID)).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check sibling: %w", err)
	}
	return n > 0, nil
}

// UpdateLedgerCategory persists name and parent of a node.
func (q *Queries) UpdateLedgerCategory(ctx context.Context, c core.LedgerCategory) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE ledger_categories SET name = ?, parent_id = ? WHERE id = ?`,
		c.Name, encOptID(c.ParentID), c.ID)
	if err != nil {
		return fmt.Errorf("update ledger category: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// DeleteLedgerCategory removes a node; children cascade away with it.
func (q *Queries) DeleteLedgerCategory(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM ledger_categories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete ledger category: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func scanLedgerCategories(rows *sql.Rows) ([]core.LedgerCategory, error) {
	var out []core.LedgerCategory
	for rows.Next() {
		var (
			c      core.LedgerCategory
			typ    string
			parent sql.NullInt64
		)
		if err := rows.Scan(&c.ID, &c.LedgerID, &c.Name, &typ, &parent); err != nil {
			return nil, fmt.Errorf("scan ledger category: %w", err)
		}
		c.Type = core.CategoryType(typ)
		c.ParentID = decOptID(parent)
		out = append(out, c)
	}
	return out, rows.Err()
}
