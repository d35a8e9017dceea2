package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"tally/internal/core"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := Open(filepath.Join(t.TempDir(), "tally.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func seedLedger(t *testing.T, repo *Repository) (core.User, core.Ledger) {
	t.Helper()
	ctx := context.Background()
	u, err := repo.CreateUser(ctx, "tester")
	if err != nil {
		t.Fatal(err)
	}
	l, err := repo.CreateLedger(ctx, core.Ledger{OwnerID: u.ID, Name: "Household"})
	if err != nil {
		t.Fatal(err)
	}
	return u, l
}

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

func TestOpen_MigrationsSeedTemplates(t *testing.T) {
	repo := newTestRepo(t)

	cats, err := repo.ListTemplateCategories(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(cats) != 15 {
		t.Fatalf("template categories = %d, want 15", len(cats))
	}

	// Roots come before children so a single pass can rebuild the tree.
	seenRoot := make(map[int64]bool)
	for _, c := range cats {
		if c.ParentID == nil {
			seenRoot[c.ID] = true
			continue
		}
		if !seenRoot[*c.ParentID] {
			t.Errorf("child %q listed before its root", c.Name)
		}
	}
}

func TestAccount_RoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	u, _ := seedLedger(t, repo)
	ctx := context.Background()

	in := core.Account{
		OwnerID:    u.ID,
		Name:       "Visa",
		Kind:       core.KindCredit,
		Balance:    dec("-12.50"),
		InNetWorth: true,
		Credit: &core.CreditFields{
			CreditLimit: dec("1000.00"),
			CurrentDebt: dec("200.00"),
			BillDay:     5,
			DueDay:      25,
		},
	}
	created, err := repo.CreateAccount(ctx, in)
	if err != nil {
		t.Fatal(err)
	}

	got, err := repo.GetAccount(ctx, created.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "Visa" || got.Kind != core.KindCredit {
		t.Errorf("got %q/%s, want Visa/credit", got.Name, got.Kind)
	}
	if !got.Balance.Equal(dec("-12.50")) {
		t.Errorf("balance = %s, want -12.50", got.Balance)
	}
	if got.Credit == nil {
		t.Fatal("credit payload lost in round trip")
	}
	if !got.Credit.CurrentDebt.Equal(dec("200.00")) || got.Credit.DueDay != 25 {
		t.Errorf("credit payload = %+v", got.Credit)
	}
	if got.Loan != nil || got.Party != nil {
		t.Error("unexpected payloads on a credit account")
	}

	got.Balance = dec("87.23")
	got.Credit.CurrentDebt = dec("0")
	if err := repo.UpdateAccount(ctx, got); err != nil {
		t.Fatal(err)
	}
	got, err = repo.GetAccount(ctx, created.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Balance.Equal(dec("87.23")) || !got.Credit.CurrentDebt.IsZero() {
		t.Errorf("update not persisted: balance=%s debt=%s", got.Balance, got.Credit.CurrentDebt)
	}
}

func TestAccount_NotFound(t *testing.T) {
	repo := newTestRepo(t)

	if _, err := repo.GetAccount(context.Background(), 999); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("GetAccount(999) = %v, want ErrNotFound", err)
	}
	if err := repo.DeleteAccount(context.Background(), 999); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("DeleteAccount(999) = %v, want ErrNotFound", err)
	}
}

func TestTransaction_OptionalReferences(t *testing.T) {
	repo := newTestRepo(t)
	u, l := seedLedger(t, repo)
	ctx := context.Background()

	acc, err := repo.CreateAccount(ctx, core.Account{OwnerID: u.ID, Name: "Wallet", Kind: core.KindBasic})
	if err != nil {
		t.Fatal(err)
	}

	in := core.Transaction{
		LedgerID:      l.ID,
		Type:          core.Expense,
		Amount:        dec("19.90"),
		Date:          day("2026-03-10"),
		Note:          "groceries",
		FromAccountID: &acc.ID,
	}
	created, err := repo.CreateTransaction(ctx, in)
	if err != nil {
		t.Fatal(err)
	}

	got, err := repo.GetTransaction(ctx, created.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.CategoryID != nil || got.ToAccountID != nil {
		t.Error("unset references should stay nil")
	}
	if got.FromAccountID == nil || *got.FromAccountID != acc.ID {
		t.Errorf("from account = %v, want %d", got.FromAccountID, acc.ID)
	}
	if !got.Date.Equal(day("2026-03-10")) {
		t.Errorf("date = %s, want 2026-03-10", got.Date)
	}

	// Deleting the account nulls the reference instead of dropping the row.
	if err := repo.DeleteAccount(ctx, acc.ID); err != nil {
		t.Fatal(err)
	}
	got, err = repo.GetTransaction(ctx, created.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.FromAccountID != nil {
		t.Error("account reference should be nulled after account delete")
	}
}

func TestSumExpenses(t *testing.T) {
	repo := newTestRepo(t)
	u, l := seedLedger(t, repo)
	ctx := context.Background()

	acc, err := repo.CreateAccount(ctx, core.Account{OwnerID: u.ID, Name: "Wallet", Kind: core.KindBasic})
	if err != nil {
		t.Fatal(err)
	}
	food, err := repo.CreateLedgerCategory(ctx, core.LedgerCategory{LedgerID: l.ID, Name: "Food", Type: core.CategoryExpense})
	if err != nil {
		t.Fatal(err)
	}

	add := func(typ core.TransactionType, amount, date string, cat *int64) {
		t.Helper()
		tx := core.Transaction{LedgerID: l.ID, Type: typ, Amount: dec(amount), Date: day(date), CategoryID: cat}
		switch typ {
		case core.Income:
			tx.ToAccountID = &acc.ID
		default:
			tx.FromAccountID = &acc.ID
		}
		if _, err := repo.CreateTransaction(ctx, tx); err != nil {
			t.Fatal(err)
		}
	}

	add(core.Expense, "10.10", "2026-03-01", &food.ID)
	add(core.Expense, "20.20", "2026-03-31", nil)
	add(core.Expense, "99.00", "2026-04-01", &food.ID) // outside the window
	add(core.Income, "500.00", "2026-03-15", nil)      // wrong type

	sum, err := repo.SumExpenses(ctx, l.ID, day("2026-03-01"), day("2026-03-31"), nil)
	if err != nil {
		t.Fatal(err)
	}
	if !sum.Equal(dec("30.30")) {
		t.Errorf("march expenses = %s, want 30.30", sum)
	}

	sum, err = repo.SumExpenses(ctx, l.ID, day("2026-03-01"), day("2026-03-31"), []int64{food.ID})
	if err != nil {
		t.Fatal(err)
	}
	if !sum.Equal(dec("10.10")) {
		t.Errorf("march food expenses = %s, want 10.10", sum)
	}
}

func TestBudget_ExpiryQuery(t *testing.T) {
	repo := newTestRepo(t)
	_, l := seedLedger(t, repo)
	ctx := context.Background()

	stale := core.Budget{
		LedgerID: l.ID, Period: core.Monthly, Amount: dec("100"),
		StartDate: day("2026-02-01"), EndDate: day("2026-02-28"),
	}
	fresh := core.Budget{
		LedgerID: l.ID, Period: core.Monthly, Amount: dec("100"),
		StartDate: day("2026-03-01"), EndDate: day("2026-03-31"),
	}
	staleB, err := repo.CreateBudget(ctx, stale)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := repo.CreateBudget(ctx, fresh); err != nil {
		t.Fatal(err)
	}

	expired, err := repo.ListExpiredBudgets(ctx, "2026-03-14")
	if err != nil {
		t.Fatal(err)
	}
	if len(expired) != 1 || expired[0].ID != staleB.ID {
		t.Fatalf("expired budgets = %+v, want only the february one", expired)
	}
}

func TestExecTx_RollbackOnError(t *testing.T) {
	repo := newTestRepo(t)
	u, _ := seedLedger(t, repo)
	ctx := context.Background()

	boom := errors.New("boom")
	err := repo.ExecTx(ctx, func(q *Queries) error {
		if _, err := q.CreateLedger(ctx, core.Ledger{OwnerID: u.ID, Name: "Doomed"}); err != nil {
			return err
		}
		if _, err := q.CreateAccount(ctx, core.Account{OwnerID: u.ID, Name: "Doomed", Kind: core.KindBasic}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("ExecTx error = %v, want boom", err)
	}

	ledgers, err := repo.ListLedgers(ctx, u.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(ledgers) != 1 {
		t.Errorf("ledgers after rollback = %d, want the seeded one only", len(ledgers))
	}
	accounts, err := repo.ListAccounts(ctx, u.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(accounts) != 0 {
		t.Errorf("accounts after rollback = %d, want 0", len(accounts))
	}
}

func TestLedger_DeleteCascadesCategories(t *testing.T) {
	repo := newTestRepo(t)
	_, l := seedLedger(t, repo)
	ctx := context.Background()

	root, err := repo.CreateLedgerCategory(ctx, core.LedgerCategory{LedgerID: l.ID, Name: "Food", Type: core.CategoryExpense})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := repo.CreateLedgerCategory(ctx, core.LedgerCategory{
		LedgerID: l.ID, Name: "Groceries", Type: core.CategoryExpense, ParentID: &root.ID,
	}); err != nil {
		t.Fatal(err)
	}

	if err := repo.DeleteLedger(ctx, l.ID); err != nil {
		t.Fatal(err)
	}
	cats, err := repo.ListLedgerCategories(ctx, l.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(cats) != 0 {
		t.Errorf("categories after ledger delete = %d, want 0", len(cats))
	}
}
