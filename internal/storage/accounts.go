package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"tally/internal/core"
)

const accountColumns = `id, owner_id, name, kind, balance, in_net_worth, hidden, notes,
	credit_limit, current_debt, bill_day, due_day,
	loan_amount, annual_rate, total_periods, repaid_periods, repayment_day, repayment_type, loan_ended,
	party_amount, party_remaining, party_date, party_ended`

// CreateAccount inserts an account with its variant payload and returns it
// with the assigned ID.
func (q *Queries) CreateAccount(ctx context.Context, a core.Account) (core.Account, error) {
	row := accountRow(a)
	res, err := q.db.ExecContext(ctx, `INSERT INTO accounts
		(owner_id, name, kind, balance, in_net_worth, hidden, notes,
		 credit_limit, current_debt, bill_day, due_day,
		 loan_amount, annual_rate, total_periods, repaid_periods, repayment_day, repayment_type, loan_ended,
		 party_amount, party_remaining, party_date, party_ended)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.OwnerID, a.Name, string(a.Kind), encDec(a.Balance), a.InNetWorth, a.Hidden, a.Notes,
		row.creditLimit, row.currentDebt, row.billDay, row.dueDay,
		row.loanAmount, row.annualRate, row.totalPeriods, row.repaidPeriods, row.repaymentDay, row.repaymentType, row.loanEnded,
		row.partyAmount, row.partyRemaining, row.partyDate, row.partyEnded)
	if err != nil {
		return core.Account{}, fmt.Errorf("create account: %w", err)
	}
	a.ID, err = res.LastInsertId()
	if err != nil {
		return core.Account{}, fmt.Errorf("create account id: %w", err)
	}
	return a, nil
}

// GetAccount loads an account by ID.
func (q *Queries) GetAccount(ctx context.Context, id int64) (core.Account, error) {
	r := q.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id)
	a, err := scanAccount(r)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Account{}, core.ErrNotFound
	}
	if err != nil {
		return core.Account{}, fmt.Errorf("get account: %w", err)
	}
	return a, nil
}

// ListAccounts returns every account of a user, name order.
func (q *Queries) ListAccounts(ctx context.Context, ownerID int64) ([]core.Account, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE owner_id = ? ORDER BY name`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var out []core.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// UpdateAccount persists every field of the account, payload included.
func (q *Queries) UpdateAccount(ctx context.Context, a core.Account) error {
	row := accountRow(a)
	res, err := q.db.ExecContext(ctx, `UPDATE accounts SET
		name = ?, kind = ?, balance = ?, in_net_worth = ?, hidden = ?, notes = ?,
		credit_limit = ?, current_debt = ?, bill_day = ?, due_day = ?,
		loan_amount = ?, annual_rate = ?, total_periods = ?, repaid_periods = ?,
		repayment_day = ?, repayment_type = ?, loan_ended = ?,
		party_amount = ?, party_remaining = ?, party_date = ?, party_ended = ?
		WHERE id = ?`,
		a.Name, string(a.Kind), encDec(a.Balance), a.InNetWorth, a.Hidden, a.Notes,
		row.creditLimit, row.currentDebt, row.billDay, row.dueDay,
		row.loanAmount, row.annualRate, row.totalPeriods, row.repaidPeriods, row.repaymentDay, row.repaymentType, row.loanEnded,
		row.partyAmount, row.partyRemaining, row.partyDate, row.partyEnded,
		a.ID)
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// DeleteAccount removes the account row. Transaction references to it are
// nulled by the schema; installment plans cascade away.
func (q *Queries) DeleteAccount(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// flatAccount carries the nullable variant columns between the domain type
// and the single accounts table.
type flatAccount struct {
	creditLimit, currentDebt    sql.NullString
	billDay, dueDay             sql.NullInt64
	loanAmount, annualRate      sql.NullString
	totalPeriods, repaidPeriods sql.NullInt64
	repaymentDay                sql.NullInt64
	repaymentType               sql.NullString
	loanEnded                   sql.NullBool
	partyAmount, partyRemaining sql.NullString
	partyDate                   sql.NullString
	partyEnded                  sql.NullBool
}

func accountRow(a core.Account) flatAccount {
	var row flatAccount
	if c := a.Credit; c != nil {
		row.creditLimit = sql.NullString{String: encDec(c.CreditLimit), Valid: true}
		row.currentDebt = sql.NullString{String: encDec(c.CurrentDebt), Valid: true}
		row.billDay = sql.NullInt64{Int64: int64(c.BillDay), Valid: true}
		row.dueDay = sql.NullInt64{Int64: int64(c.DueDay), Valid: true}
	}
	if l := a.Loan; l != nil {
		row.loanAmount = sql.NullString{String: encDec(l.LoanAmount), Valid: true}
		row.annualRate = sql.NullString{String: encDec(l.AnnualRate), Valid: true}
		row.totalPeriods = sql.NullInt64{Int64: int64(l.TotalPeriods), Valid: true}
		row.repaidPeriods = sql.NullInt64{Int64: int64(l.RepaidPeriods), Valid: true}
		row.repaymentDay = sql.NullInt64{Int64: int64(l.RepaymentDay), Valid: true}
		row.repaymentType = sql.NullString{String: l.RepaymentType, Valid: true}
		row.loanEnded = sql.NullBool{Bool: l.Ended, Valid: true}
	}
	if p := a.Party; p != nil {
		row.partyAmount = sql.NullString{String: encDec(p.Amount), Valid: true}
		row.partyRemaining = sql.NullString{String: encDec(p.Remaining), Valid: true}
		row.partyDate = sql.NullString{String: encDate(p.Date), Valid: true}
		row.partyEnded = sql.NullBool{Bool: p.Ended, Valid: true}
	}
	return row
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(r rowScanner) (core.Account, error) {
	var (
		a       core.Account
		kind    string
		balance string
		row     flatAccount
	)
	err := r.Scan(&a.ID, &a.OwnerID, &a.Name, &kind, &balance, &a.InNetWorth, &a.Hidden, &a.Notes,
		&row.creditLimit, &row.currentDebt, &row.billDay, &row.dueDay,
		&row.loanAmount, &row.annualRate, &row.totalPeriods, &row.repaidPeriods,
		&row.repaymentDay, &row.repaymentType, &row.loanEnded,
		&row.partyAmount, &row.partyRemaining, &row.partyDate, &row.partyEnded)
	if err != nil {
		return core.Account{}, err
	}
	a.Kind = core.AccountKind(kind)
	if a.Balance, err = decDec(balance); err != nil {
		return core.Account{}, fmt.Errorf("decode balance: %w", err)
	}

	if row.creditLimit.Valid {
		c := &core.CreditFields{BillDay: int(row.billDay.Int64), DueDay: int(row.dueDay.Int64)}
		if c.CreditLimit, err = decDec(row.creditLimit.String); err != nil {
			return core.Account{}, fmt.Errorf("decode credit limit: %w", err)
		}
		if c.CurrentDebt, err = decDec(row.currentDebt.String); err != nil {
			return core.Account{}, fmt.Errorf("decode current debt: %w", err)
		}
		a.Credit = c
	}
	if row.loanAmount.Valid {
		l := &core.LoanFields{
			TotalPeriods:  int(row.totalPeriods.Int64),
			RepaidPeriods: int(row.repaidPeriods.Int64),
			RepaymentDay:  int(row.repaymentDay.Int64),
			RepaymentType: row.repaymentType.String,
			Ended:         row.loanEnded.Bool,
		}
		if l.LoanAmount, err = decDec(row.loanAmount.String); err != nil {
			return core.Account{}, fmt.Errorf("decode loan amount: %w", err)
		}
		if l.AnnualRate, err = decDec(row.annualRate.String); err != nil {
			return core.Account{}, fmt.Errorf("decode annual rate: %w", err)
		}
		a.Loan = l
	}
	if row.partyAmount.Valid {
		p := &core.PartyFields{Ended: row.partyEnded.Bool}
		if p.Amount, err = decDec(row.partyAmount.String); err != nil {
			return core.Account{}, fmt.Errorf("decode party amount: %w", err)
		}
		if p.Remaining, err = decDec(row.partyRemaining.String); err != nil {
			return core.Account{}, fmt.Errorf("decode party remaining: %w", err)
		}
		if p.Date, err = decDate(row.partyDate.String); err != nil {
			return core.Account{}, fmt.Errorf("decode party date: %w", err)
		}
		a.Party = p
	}
	return a, nil
}
