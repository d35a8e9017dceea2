package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"tally/internal/core"
)

const transactionColumns = `id, ledger_id, type, amount, date, note, category_id, from_account_id, to_account_id`

// CreateTransaction inserts a transaction row and returns it with the
// assigned ID. Balance effects are the caller's business.
func (q *Queries) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	res, err := q.db.ExecContext(ctx, `INSERT INTO transactions
		(ledger_id, type, amount, date, note, category_id, from_account_id, to_account_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.LedgerID, string(t.Type), encDec(t.Amount), encDate(t.Date), t.Note,
		encOptID(t.CategoryID), encOptID(t.FromAccountID), encOptID(t.ToAccountID))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}
	t.ID, err = res.LastInsertId()
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction id: %w", err)
	}
	return t, nil
}

// GetTransaction loads a transaction by ID.
func (q *Queries) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	r := q.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id)
	t, err := scanTransaction(r)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

// ListLedgerTransactions returns every transaction of a ledger in insertion
// order.
func (q *Queries) ListLedgerTransactions(ctx context.Context, ledgerID int64) ([]core.Transaction, error) {
	return q.listTransactions(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE ledger_id = ? ORDER BY id`, ledgerID)
}

// ListCategoryTransactions returns every transaction tagged with one of the
// given category nodes.
func (q *Queries) ListCategoryTransactions(ctx context.Context, categoryIDs []int64) ([]core.Transaction, error) {
	if len(categoryIDs) == 0 {
		return nil, nil
	}
	query := `SELECT ` + transactionColumns + ` FROM transactions
		WHERE category_id IN (` + placeholders(len(categoryIDs)) + `) ORDER BY id`
	return q.listTransactions(ctx, query, idArgs(categoryIDs)...)
}

// ListSoleCounterpartyTransactions returns the transactions where the given
// account is the only side: incomes into it and expenses out of it.
// Transfers always have two sides and are never part of the result.
func (q *Queries) ListSoleCounterpartyTransactions(ctx context.Context, accountID int64) ([]core.Transaction, error) {
	return q.listTransactions(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		 WHERE (from_account_id IS NULL AND to_account_id = ?)
		    OR (to_account_id IS NULL AND from_account_id = ?)
		 ORDER BY id`, accountID, accountID)
}

// UpdateTransaction persists every field of the row.
func (q *Queries) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	res, err := q.db.ExecContext(ctx, `UPDATE transactions SET
		type = ?, amount = ?, date = ?, note = ?, category_id = ?, from_account_id = ?, to_account_id = ?
		WHERE id = ?`,
		string(t.Type), encDec(t.Amount), encDate(t.Date), t.Note,
		encOptID(t.CategoryID), encOptID(t.FromAccountID), encOptID(t.ToAccountID), t.ID)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// ReassignTransactionCategory re-points every transaction of the given
// category nodes to the target category.
func (q *Queries) ReassignTransactionCategory(ctx context.Context, categoryIDs []int64, targetID int64) error {
	if len(categoryIDs) == 0 {
		return nil
	}
	_, err := q.db.ExecContext(ctx,
		`UPDATE transactions SET category_id = ? WHERE category_id IN (`+placeholders(len(categoryIDs))+`)`,
		append([]any{targetID}, idArgs(categoryIDs)...)...)
	if err != nil {
		return fmt.Errorf("reassign transaction category: %w", err)
	}
	return nil
}

// DeleteTransaction removes a single row.
func (q *Queries) DeleteTransaction(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// DeleteTransactionsByCategory removes every transaction tagged with one of
// the given category nodes.
func (q *Queries) DeleteTransactionsByCategory(ctx context.Context, categoryIDs []int64) error {
	if len(categoryIDs) == 0 {
		return nil
	}
	_, err := q.db.ExecContext(ctx,
		`DELETE FROM transactions WHERE category_id IN (`+placeholders(len(categoryIDs))+`)`,
		idArgs(categoryIDs)...)
	if err != nil {
		return fmt.Errorf("delete transactions by category: %w", err)
	}
	return nil
}

// SumExpenses totals the expense transactions of a ledger dated inside
// [start, end]. A non-empty categoryIDs restricts the sum to those nodes.
func (q *Queries) SumExpenses(ctx context.Context, ledgerID int64, start, end time.Time, categoryIDs []int64) (decimal.Decimal, error) {
	query := `SELECT amount FROM transactions
		WHERE ledger_id = ? AND type = 'expense' AND date BETWEEN ? AND ?`
	args := []any{ledgerID, encDate(start), encDate(end)}
	if len(categoryIDs) > 0 {
		query += ` AND category_id IN (` + placeholders(len(categoryIDs)) + `)`
		args = append(args, idArgs(categoryIDs)...)
	}

	// Amounts are stored as decimal text; summing in Go keeps them exact
	// where SQLite's SUM would go through floats.
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum expenses: %w", err)
	}
	defer rows.Close()

	sum := decimal.Zero
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return decimal.Zero, fmt.Errorf("scan expense amount: %w", err)
		}
		d, err := decDec(raw)
		if err != nil {
			return decimal.Zero, fmt.Errorf("decode expense amount: %w", err)
		}
		sum = sum.Add(d)
	}
	return sum, rows.Err()
}

func (q *Queries) listTransactions(ctx context.Context, query string, args ...any) ([]core.Transaction, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func scanTransaction(r rowScanner) (core.Transaction, error) {
	var (
		t             core.Transaction
		typ           string
		amount, date  string
		cat, from, to sql.NullInt64
	)
	err := r.Scan(&t.ID, &t.LedgerID, &typ, &amount, &date, &t.Note, &cat, &from, &to)
	if err != nil {
		return core.Transaction{}, err
	}
	t.Type = core.TransactionType(typ)
	if t.Amount, err = decDec(amount); err != nil {
		return core.Transaction{}, fmt.Errorf("decode amount: %w", err)
	}
	if t.Date, err = decDate(date); err != nil {
		return core.Transaction{}, fmt.Errorf("decode date: %w", err)
	}
	t.CategoryID = decOptID(cat)
	t.FromAccountID = decOptID(from)
	t.ToAccountID = decOptID(to)
	return t, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func idArgs(ids []int64) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return out
}
