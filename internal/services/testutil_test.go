package services

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"tally/internal/core"
	"tally/internal/storage"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func day(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

// testEnv wires every service against a throwaway database with a fixed
// clock, so window math is deterministic.
type testEnv struct {
	repo *storage.Repository
	user core.User

	transactions *TransactionService
	ledgers      *LedgerService
	categories   *CategoryService
	budgets      *BudgetService
	accounts     *AccountService
	installments *InstallmentService
	loans        *LoanService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	repo, err := storage.Open(filepath.Join(t.TempDir(), "tally.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	user, err := repo.CreateUser(context.Background(), "tester")
	if err != nil {
		t.Fatal(err)
	}

	env := &testEnv{
		repo:         repo,
		user:         user,
		transactions: NewTransactionService(repo, nil),
		ledgers:      NewLedgerService(repo, nil),
		categories:   NewCategoryService(repo, nil),
		budgets:      NewBudgetService(repo, nil),
		accounts:     NewAccountService(repo, nil),
		installments: NewInstallmentService(repo, nil),
		loans:        NewLoanService(repo, nil),
	}
	env.setNow(day("2026-03-14"))
	return env
}

func (e *testEnv) setNow(today time.Time) {
	e.ledgers.now = func() time.Time { return today }
	e.budgets.now = func() time.Time { return today }
}

func (e *testEnv) newLedger(t *testing.T, name string) core.Ledger {
	t.Helper()
	l, err := e.ledgers.Create(context.Background(), e.user.ID, name, "")
	if err != nil {
		t.Fatalf("create ledger: %v", err)
	}
	return l
}

func (e *testEnv) newAccount(t *testing.T, name, balance string) core.Account {
	t.Helper()
	a, err := e.accounts.Create(context.Background(), core.Account{
		OwnerID:    e.user.ID,
		Name:       name,
		Kind:       core.KindBasic,
		Balance:    dec(balance),
		InNetWorth: true,
	})
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	return a
}

func (e *testEnv) balance(t *testing.T, accountID int64) decimal.Decimal {
	t.Helper()
	a, err := e.repo.GetAccount(context.Background(), accountID)
	if err != nil {
		t.Fatalf("get account %d: %v", accountID, err)
	}
	return a.Balance
}

// findCategory locates a node of the ledger's tree by name.
func (e *testEnv) findCategory(t *testing.T, ledgerID int64, name string) core.LedgerCategory {
	t.Helper()
	cats, err := e.categories.Tree(context.Background(), e.user.ID, ledgerID)
	if err != nil {
		t.Fatal(err)
	}
	for _, c := range cats {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("category %q not found in ledger %d", name, ledgerID)
	return core.LedgerCategory{}
}

// findBudget locates the ledger's budget for a period and category scope;
// nil categoryID means the ledger-level budget.
func (e *testEnv) findBudget(t *testing.T, ledgerID int64, p core.Period, categoryID *int64) core.Budget {
	t.Helper()
	budgets, err := e.repo.ListBudgetsByPeriod(context.Background(), ledgerID, p)
	if err != nil {
		t.Fatal(err)
	}
	for _, b := range budgets {
		switch {
		case categoryID == nil && b.CategoryID == nil:
			return b
		case categoryID != nil && b.CategoryID != nil && *b.CategoryID == *categoryID:
			return b
		}
	}
	t.Fatalf("budget (period=%s category=%v) not found in ledger %d", p, categoryID, ledgerID)
	return core.Budget{}
}

func (e *testEnv) expense(t *testing.T, ledgerID int64, amount, date string, from int64, categoryID *int64) core.Transaction {
	t.Helper()
	tx, err := e.transactions.Create(context.Background(), e.user.ID, ledgerID, TransactionParams{
		Type:          core.Expense,
		Amount:        dec(amount),
		Date:          day(date),
		CategoryID:    categoryID,
		FromAccountID: &from,
	})
	if err != nil {
		t.Fatalf("post expense: %v", err)
	}
	return tx
}

func (e *testEnv) income(t *testing.T, ledgerID int64, amount, date string, to int64) core.Transaction {
	t.Helper()
	tx, err := e.transactions.Create(context.Background(), e.user.ID, ledgerID, TransactionParams{
		Type:        core.Income,
		Amount:      dec(amount),
		Date:        day(date),
		ToAccountID: &to,
	})
	if err != nil {
		t.Fatalf("post income: %v", err)
	}
	return tx
}

func (e *testEnv) transfer(t *testing.T, ledgerID int64, amount, date string, from, to int64) core.Transaction {
	t.Helper()
	tx, err := e.transactions.Create(context.Background(), e.user.ID, ledgerID, TransactionParams{
		Type:          core.Transfer,
		Amount:        dec(amount),
		Date:          day(date),
		FromAccountID: &from,
		ToAccountID:   &to,
	})
	if err != nil {
		t.Fatalf("post transfer: %v", err)
	}
	return tx
}
