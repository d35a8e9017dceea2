package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"tally/internal/core"
)

const budgetColumns = `id, ledger_id, category_id, period, amount, start_date, end_date`

// CreateBudget inserts a budget row and returns it with the assigned ID.
func (q *Queries) CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	res, err := q.db.ExecContext(ctx, `INSERT INTO budgets
		(ledger_id, category_id, period, amount, start_date, end_date)
		VALUES (?, ?, ?, ?, ?, ?)`,
		b.LedgerID, encOptID(b.CategoryID), string(b.Period), encDec(b.Amount),
		encDate(b.StartDate), encDate(b.EndDate))
	if err != nil {
		return core.Budget{}, fmt.Errorf("create budget: %w", err)
	}
	b.ID, err = res.LastInsertId()
	if err != nil {
		return core.Budget{}, fmt.Errorf("create budget id: %w", err)
	}
	return b, nil
}

// GetBudget loads a budget by ID.
func (q *Queries) GetBudget(ctx context.Context, id int64) (core.Budget, error) {
	r := q.db.QueryRowContext(ctx, `SELECT `+budgetColumns+` FROM budgets WHERE id = ?`, id)
	b, err := scanBudget(r)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Budget{}, core.ErrNotFound
	}
	if err != nil {
		return core.Budget{}, fmt.Errorf("get budget: %w", err)
	}
	return b, nil
}

// ListLedgerBudgets returns every budget of a ledger.
func (q *Queries) ListLedgerBudgets(ctx context.Context, ledgerID int64) ([]core.Budget, error) {
	return q.listBudgets(ctx,
		`SELECT `+budgetColumns+` FROM budgets WHERE ledger_id = ? ORDER BY id`, ledgerID)
}

// ListBudgetsByPeriod returns the budgets of a ledger for one period.
func (q *Queries) ListBudgetsByPeriod(ctx context.Context, ledgerID int64, p core.Period) ([]core.Budget, error) {
	return q.listBudgets(ctx,
		`SELECT `+budgetColumns+` FROM budgets WHERE ledger_id = ? AND period = ? ORDER BY id`,
		ledgerID, string(p))
}

// ListExpiredBudgets returns every budget whose window no longer contains
// the given day.
func (q *Queries) ListExpiredBudgets(ctx context.Context, today string) ([]core.Budget, error) {
	return q.listBudgets(ctx,
		`SELECT `+budgetColumns+` FROM budgets WHERE ? NOT BETWEEN start_date AND end_date ORDER BY id`,
		today)
}

// UpdateBudget persists amount and window of a budget.
func (q *Queries) UpdateBudget(ctx context.Context, b core.Budget) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE budgets SET amount = ?, start_date = ?, end_date = ? WHERE id = ?`,
		encDec(b.Amount), encDate(b.StartDate), encDate(b.EndDate), b.ID)
	if err != nil {
		return fmt.Errorf("update budget: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// DeleteBudget removes a budget row.
func (q *Queries) DeleteBudget(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM budgets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (q *Queries) listBudgets(ctx context.Context, query string, args ...any) ([]core.Budget, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var out []core.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func scanBudget(r rowScanner) (core.Budget, error) {
	var (
		b                  core.Budget
		period             string
		amount, start, end string
		cat                sql.NullInt64
	)
	err := r.Scan(&b.ID, &b.LedgerID, &cat, &period, &amount, &start, &end)
	if err != nil {
		return core.Budget{}, err
	}
	b.Period = core.Period(period)
	b.CategoryID = decOptID(cat)
	if b.Amount, err = decDec(amount); err != nil {
		return core.Budget{}, fmt.Errorf("decode amount: %w", err)
	}
	if b.StartDate, err = decDate(start); err != nil {
		return core.Budget{}, fmt.Errorf("decode start date: %w", err)
	}
	if b.EndDate, err = decDate(end); err != nil {
		return core.Budget{}, fmt.Errorf("decode end date: %w", err)
	}
	return b, nil
}
