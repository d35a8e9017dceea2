package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"tally/internal/core"
)

const planColumns = `id, account_id, category_id, total_amount, fee, total_periods, paid_periods, strategy, include_in_debt, start_date`

// CreateInstallmentPlan inserts a plan and returns it with the assigned ID.
func (q *Queries) CreateInstallmentPlan(ctx context.Context, p core.InstallmentPlan) (core.InstallmentPlan, error) {
	res, err := q.db.ExecContext(ctx, `INSERT INTO installment_plans
		(account_id, category_id, total_amount, fee, total_periods, paid_periods, strategy, include_in_debt, start_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.AccountID, encOptID(p.CategoryID), encDec(p.TotalAmount), encDec(p.Fee),
		p.TotalPeriods, p.PaidPeriods, p.Strategy, p.IncludeInDebt, encDate(p.StartDate))
	if err != nil {
		return core.InstallmentPlan{}, fmt.Errorf("create installment plan: %w", err)
	}
	p.ID, err = res.LastInsertId()
	if err != nil {
		return core.InstallmentPlan{}, fmt.Errorf("create installment plan id: %w", err)
	}
	return p, nil
}

// GetInstallmentPlan loads a plan by ID.
func (q *Queries) GetInstallmentPlan(ctx context.Context, id int64) (core.InstallmentPlan, error) {
	r := q.db.QueryRowContext(ctx,
		`SELECT `+planColumns+` FROM installment_plans WHERE id = ?`, id)
	p, err := scanPlan(r)
	if errors.Is(err, sql.ErrNoRows) {
		return core.InstallmentPlan{}, core.ErrNotFound
	}
	if err != nil {
		return core.InstallmentPlan{}, fmt.Errorf("get installment plan: %w", err)
	}
	return p, nil
}

// ListAccountPlans returns every plan linked to a credit account.
func (q *Queries) ListAccountPlans(ctx context.Context, accountID int64) ([]core.InstallmentPlan, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+planColumns+` FROM installment_plans WHERE account_id = ? ORDER BY id`, accountID)
	if err != nil {
		return nil, fmt.Errorf("list installment plans: %w", err)
	}
	defer rows.Close()

	var out []core.InstallmentPlan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan installment plan: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// UpdateInstallmentPlan persists the mutable fields of a plan.
func (q *Queries) UpdateInstallmentPlan(ctx context.Context, p core.InstallmentPlan) error {
	res, err := q.db.ExecContext(ctx, `UPDATE installment_plans SET
		category_id = ?, paid_periods = ?, include_in_debt = ? WHERE id = ?`,
		encOptID(p.CategoryID), p.PaidPeriods, p.IncludeInDebt, p.ID)
	if err != nil {
		return fmt.Errorf("update installment plan: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// DeleteInstallmentPlan removes a plan row.
func (q *Queries) DeleteInstallmentPlan(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM installment_plans WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete installment plan: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func scanPlan(r rowScanner) (core.InstallmentPlan, error) {
	var (
		p          core.InstallmentPlan
		total, fee string
		start      string
		cat        sql.NullInt64
	)
	err := r.Scan(&p.ID, &p.AccountID, &cat, &total, &fee,
		&p.TotalPeriods, &p.PaidPeriods, &p.Strategy, &p.IncludeInDebt, &start)
	if err != nil {
		return core.InstallmentPlan{}, err
	}
	p.CategoryID = decOptID(cat)
	if p.TotalAmount, err = decDec(total); err != nil {
		return core.InstallmentPlan{}, fmt.Errorf("decode total amount: %w", err)
	}
	if p.Fee, err = decDec(fee); err != nil {
		return core.InstallmentPlan{}, fmt.Errorf("decode fee: %w", err)
	}
	if p.StartDate, err = decDate(start); err != nil {
		return core.InstallmentPlan{}, fmt.Errorf("decode start date: %w", err)
	}
	return p, nil
}
