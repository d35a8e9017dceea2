package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"tally/internal/core"
	"tally/internal/storage"
)

// BudgetService tracks period budgets. Windows are corrected lazily: any
// read that finds today outside a budget's window first moves the window to
// the current month or year. Amounts never carry over between windows.
type BudgetService struct {
	store  *storage.Repository
	events EventPublisher
	now    func() time.Time
}

// NewBudgetService creates a BudgetService. events may be nil.
func NewBudgetService(store *storage.Repository, events EventPublisher) *BudgetService {
	return &BudgetService{store: store, events: events, now: time.Now}
}

// seedLedgerBudgets creates the initial zero-amount budgets of a new
// ledger: one per period for the ledger itself and one per period for every
// expense category node. Runs inside the ledger-creation transaction.
func seedLedgerBudgets(ctx context.Context, q *storage.Queries, ledgerID int64, cats []core.LedgerCategory, today time.Time) error {
	for _, p := range core.Periods {
		start, end := p.Window(today)
		base := core.Budget{LedgerID: ledgerID, Period: p, Amount: decimal.Zero, StartDate: start, EndDate: end}

		if _, err := q.CreateBudget(ctx, base); err != nil {
			return err
		}
		for _, c := range cats {
			if c.Type != core.CategoryExpense {
				continue
			}
			b := base
			id := c.ID
			b.CategoryID = &id
			if _, err := q.CreateBudget(ctx, b); err != nil {
				return err
			}
		}
	}
	return nil
}

// refreshIfExpired recomputes the window around today when it has gone
// stale and persists the move. The amount is left untouched.
func refreshIfExpired(ctx context.Context, q *storage.Queries, b *core.Budget, today time.Time) error {
	if b.Contains(today) {
		return nil
	}
	b.StartDate, b.EndDate = b.Period.Window(today)
	return q.UpdateBudget(ctx, *b)
}

// IsOverBudget refreshes the budget's window and reports whether the
// expense sum inside it strictly exceeds the budget amount. Ledger-level
// budgets sum every expense of the ledger; category budgets sum
// transactions tagged with the category or any direct child, one level
// only. The spent sum is returned alongside the verdict.
func (s *BudgetService) IsOverBudget(ctx context.Context, userID, budgetID int64) (bool, decimal.Decimal, error) {
	var (
		over  bool
		spent decimal.Decimal
	)
	err := s.store.ExecTx(ctx, func(q *storage.Queries) error {
		b, err := s.requireBudget(ctx, q, userID, budgetID)
		if err != nil {
			return err
		}
		if err := refreshIfExpired(ctx, q, &b, s.now()); err != nil {
			return err
		}

		var scope []int64
		if b.CategoryID != nil {
			scope = append(scope, *b.CategoryID)
			children, err := q.ListChildCategories(ctx, *b.CategoryID)
			if err != nil {
				return err
			}
			for _, c := range children {
				scope = append(scope, c.ID)
			}
		}
		spent, err = q.SumExpenses(ctx, b.LedgerID, b.StartDate, b.EndDate, scope)
		if err != nil {
			return err
		}
		over = spent.GreaterThan(b.Amount)
		return nil
	})
	if err != nil {
		return false, decimal.Zero, err
	}
	return over, spent, nil
}

// Edit replaces the budget amount. Negative amounts are rejected.
func (s *BudgetService) Edit(ctx context.Context, userID, budgetID int64, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return core.ErrNegativeAmount
	}
	err := s.store.ExecTx(ctx, func(q *storage.Queries) error {
		b, err := s.requireBudget(ctx, q, userID, budgetID)
		if err != nil {
			return err
		}
		if err := refreshIfExpired(ctx, q, &b, s.now()); err != nil {
			return err
		}
		b.Amount = core.Round(amount)
		return q.UpdateBudget(ctx, b)
	})
	if err != nil {
		return err
	}
	publish(ctx, s.events, "budget", budgetID, "updated")
	return nil
}

// Merge consolidates the budgets at or below the target's category (same
// ledger, same period) into the target: their amounts are summed into
// target.Amount and the absorbed rows are deleted. A ledger-level target
// absorbs every category budget of its period.
func (s *BudgetService) Merge(ctx context.Context, userID, targetID int64) error {
	err := s.store.ExecTx(ctx, func(q *storage.Queries) error {
		target, err := s.requireBudget(ctx, q, userID, targetID)
		if err != nil {
			return err
		}
		candidates, err := q.ListBudgetsByPeriod(ctx, target.LedgerID, target.Period)
		if err != nil {
			return err
		}

		// Direct children of the target's category, for subtree matching.
		childSet := make(map[int64]bool)
		if target.CategoryID != nil {
			children, err := q.ListChildCategories(ctx, *target.CategoryID)
			if err != nil {
				return err
			}
			for _, c := range children {
				childSet[c.ID] = true
			}
		}

		total := target.Amount
		for _, b := range candidates {
			if b.ID == target.ID || !absorbedBy(target, b, childSet) {
				continue
			}
			total = total.Add(b.Amount)
			if err := q.DeleteBudget(ctx, b.ID); err != nil {
				return err
			}
		}
		target.Amount = core.Round(total)
		return q.UpdateBudget(ctx, target)
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "Budgets merged", "target", targetID)
	publish(ctx, s.events, "budget", targetID, "updated")
	return nil
}

// absorbedBy reports whether budget b sits at or below the target's
// category. Ledger-level targets absorb every category budget.
func absorbedBy(target, b core.Budget, targetChildren map[int64]bool) bool {
	if b.CategoryID == nil {
		return false
	}
	if target.CategoryID == nil {
		return true
	}
	return *b.CategoryID == *target.CategoryID || targetChildren[*b.CategoryID]
}

// List returns every budget of a ledger with stale windows refreshed.
func (s *BudgetService) List(ctx context.Context, userID, ledgerID int64) ([]core.Budget, error) {
	var out []core.Budget
	err := s.store.ExecTx(ctx, func(q *storage.Queries) error {
		if _, err := requireLedger(ctx, q, userID, ledgerID); err != nil {
			return err
		}
		budgets, err := q.ListLedgerBudgets(ctx, ledgerID)
		if err != nil {
			return err
		}
		for i := range budgets {
			if err := refreshIfExpired(ctx, q, &budgets[i], s.now()); err != nil {
				return err
			}
		}
		out = budgets
		return nil
	})
	return out, err
}

// RefreshExpired moves every stale budget window forward. Used by the
// background worker; the lazy refresh on read stays the source of truth.
func (s *BudgetService) RefreshExpired(ctx context.Context) (int, error) {
	refreshed := 0
	err := s.store.ExecTx(ctx, func(q *storage.Queries) error {
		today := s.now()
		stale, err := q.ListExpiredBudgets(ctx, today.UTC().Format("2006-01-02"))
		if err != nil {
			return err
		}
		for i := range stale {
			if err := refreshIfExpired(ctx, q, &stale[i], today); err != nil {
				return err
			}
		}
		refreshed = len(stale)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return refreshed, nil
}

func (s *BudgetService) requireBudget(ctx context.Context, q *storage.Queries, userID, budgetID int64) (core.Budget, error) {
	b, err := q.GetBudget(ctx, budgetID)
	if err != nil {
		return core.Budget{}, err
	}
	if _, err := requireLedger(ctx, q, userID, b.LedgerID); err != nil {
		return core.Budget{}, err
	}
	return b, nil
}
