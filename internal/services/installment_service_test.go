package services

import (
	"context"
	"errors"
	"testing"

	"tally/internal/amortize"
	"tally/internal/core"
)

func (e *testEnv) newCreditAccount(t *testing.T, name string) core.Account {
	t.Helper()
	a, err := e.accounts.Create(context.Background(), core.Account{
		OwnerID: e.user.ID,
		Name:    name,
		Kind:    core.KindCredit,
		Credit:  &core.CreditFields{CreditLimit: dec("5000.00")},
	})
	if err != nil {
		t.Fatalf("create credit account: %v", err)
	}
	return a
}

func (e *testEnv) debt(t *testing.T, accountID int64) string {
	t.Helper()
	a, err := e.repo.GetAccount(context.Background(), accountID)
	if err != nil {
		t.Fatal(err)
	}
	return a.Credit.CurrentDebt.StringFixed(core.Scale)
}

func TestInstallmentService_CreateAddsDebtUpfront(t *testing.T) {
	env := newTestEnv(t)
	card := env.newCreditAccount(t, "Visa")
	ctx := context.Background()

	p, err := env.installments.Create(ctx, env.user.ID, core.InstallmentPlan{
		AccountID:     card.ID,
		TotalAmount:   dec("1200.00"),
		Fee:           dec("60.00"),
		TotalPeriods:  12,
		Strategy:      string(amortize.FeeUpfront),
		IncludeInDebt: true,
		StartDate:     day("2026-03-01"),
	})
	if err != nil {
		t.Fatalf("create plan: %v", err)
	}
	if p.ID == 0 {
		t.Error("plan ID not assigned")
	}
	if got := env.debt(t, card.ID); got != "1260.00" {
		t.Errorf("debt = %s, want 1260.00 (total plus fee)", got)
	}
}

func TestInstallmentService_CreateRejectsNonCredit(t *testing.T) {
	env := newTestEnv(t)
	wallet := env.newAccount(t, "Wallet", "100.00")

	_, err := env.installments.Create(context.Background(), env.user.ID, core.InstallmentPlan{
		AccountID:    wallet.ID,
		TotalAmount:  dec("100.00"),
		TotalPeriods: 2,
		Strategy:     string(amortize.EvenlySplit),
	})
	if !errors.Is(err, core.ErrKindMismatch) {
		t.Errorf("Create on basic account = %v, want ErrKindMismatch", err)
	}
}

func TestInstallmentService_PayNext(t *testing.T) {
	env := newTestEnv(t)
	card := env.newCreditAccount(t, "Visa")
	wallet := env.newAccount(t, "Wallet", "500.00")
	ctx := context.Background()

	p, err := env.installments.Create(ctx, env.user.ID, core.InstallmentPlan{
		AccountID:     card.ID,
		TotalAmount:   dec("100.00"),
		Fee:           dec("10.00"),
		TotalPeriods:  2,
		Strategy:      string(amortize.EvenlySplit),
		IncludeInDebt: true,
		StartDate:     day("2026-03-01"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := env.debt(t, card.ID); got != "110.00" {
		t.Fatalf("debt = %s, want 110.00", got)
	}

	payment, err := env.installments.PayNext(ctx, env.user.ID, p.ID, &wallet.ID)
	if err != nil {
		t.Fatalf("pay next: %v", err)
	}
	if !payment.Equal(dec("55.00")) {
		t.Errorf("payment = %s, want 55.00", payment)
	}
	if got := env.balance(t, wallet.ID); !got.Equal(dec("445.00")) {
		t.Errorf("funding balance = %s, want 445.00", got)
	}
	if got := env.debt(t, card.ID); got != "55.00" {
		t.Errorf("debt after first payment = %s, want 55.00", got)
	}

	rest, err := env.installments.Remaining(ctx, env.user.ID, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !rest.Equal(dec("55.00")) {
		t.Errorf("remaining = %s, want 55.00", rest)
	}

	// Second payment settles the plan; a third is rejected.
	if _, err := env.installments.PayNext(ctx, env.user.ID, p.ID, nil); err != nil {
		t.Fatalf("pay last: %v", err)
	}
	if got := env.debt(t, card.ID); got != "0.00" {
		t.Errorf("debt after settlement = %s, want 0.00", got)
	}
	if _, err := env.installments.PayNext(ctx, env.user.ID, p.ID, nil); !errors.Is(err, core.ErrSettled) {
		t.Errorf("pay settled plan = %v, want ErrSettled", err)
	}
}

func TestInstallmentService_DeleteRepaysOutstandingDebt(t *testing.T) {
	env := newTestEnv(t)
	card := env.newCreditAccount(t, "Visa")
	ctx := context.Background()

	p, err := env.installments.Create(ctx, env.user.ID, core.InstallmentPlan{
		AccountID:     card.ID,
		TotalAmount:   dec("100.00"),
		Fee:           dec("10.00"),
		TotalPeriods:  2,
		Strategy:      string(amortize.EvenlySplit),
		IncludeInDebt: true,
		StartDate:     day("2026-03-01"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := env.installments.PayNext(ctx, env.user.ID, p.ID, nil); err != nil {
		t.Fatal(err)
	}

	if err := env.installments.Delete(ctx, env.user.ID, p.ID); err != nil {
		t.Fatalf("delete plan: %v", err)
	}
	if got := env.debt(t, card.ID); got != "0.00" {
		t.Errorf("debt after plan delete = %s, want 0.00", got)
	}
	if _, err := env.installments.Remaining(ctx, env.user.ID, p.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("deleted plan still readable: %v", err)
	}
}

func TestInstallmentService_Schedule(t *testing.T) {
	env := newTestEnv(t)
	card := env.newCreditAccount(t, "Visa")
	ctx := context.Background()

	p, err := env.installments.Create(ctx, env.user.ID, core.InstallmentPlan{
		AccountID:    card.ID,
		TotalAmount:  dec("1200.00"),
		Fee:          dec("60.00"),
		TotalPeriods: 12,
		Strategy:     string(amortize.FeeUpfront),
		StartDate:    day("2026-03-01"),
	})
	if err != nil {
		t.Fatal(err)
	}

	schedule, err := env.installments.Schedule(ctx, env.user.ID, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(schedule) != 12 {
		t.Fatalf("schedule length = %d, want 12", len(schedule))
	}
	if !schedule[0].Equal(dec("160.00")) || !schedule[11].Equal(dec("100.00")) {
		t.Errorf("schedule = first %s last %s, want 160.00 and 100.00", schedule[0], schedule[11])
	}
}
