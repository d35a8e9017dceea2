package services

import (
	"context"
	"errors"
	"testing"

	"tally/internal/amortize"
	"tally/internal/core"
)

func (e *testEnv) newLoanAccount(t *testing.T, name string, repaymentType amortize.RepaymentType) core.Account {
	t.Helper()
	a, err := e.accounts.Create(context.Background(), core.Account{
		OwnerID: e.user.ID,
		Name:    name,
		Kind:    core.KindLoan,
		Balance: dec("1200.00"),
		Loan: &core.LoanFields{
			LoanAmount:    dec("1200.00"),
			AnnualRate:    dec("0.12"),
			TotalPeriods:  12,
			RepaymentType: string(repaymentType),
		},
	})
	if err != nil {
		t.Fatalf("create loan account: %v", err)
	}
	return a
}

func TestLoanService_PayNextTracksOutstandingPrincipal(t *testing.T) {
	env := newTestEnv(t)
	loan := env.newLoanAccount(t, "Car loan", amortize.EqualPrincipal)
	wallet := env.newAccount(t, "Checking", "2000.00")
	ctx := context.Background()

	payment, err := env.loans.PayNext(ctx, env.user.ID, loan.ID, &wallet.ID)
	if err != nil {
		t.Fatalf("pay next: %v", err)
	}
	// First equal-principal payment: 100 principal plus 1% on 1200.
	if !payment.Equal(dec("112.00")) {
		t.Errorf("payment = %s, want 112.00", payment)
	}
	if got := env.balance(t, wallet.ID); !got.Equal(dec("1888.00")) {
		t.Errorf("funding balance = %s, want 1888.00", got)
	}
	if got := env.balance(t, loan.ID); !got.Equal(dec("1100.00")) {
		t.Errorf("loan balance = %s, want outstanding 1100.00", got)
	}

	rest, err := env.loans.Remaining(ctx, env.user.ID, loan.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !rest.Equal(dec("1100.00")) {
		t.Errorf("remaining = %s, want 1100.00", rest)
	}
}

func TestLoanService_FullRepaymentEndsLoan(t *testing.T) {
	env := newTestEnv(t)
	loan := env.newLoanAccount(t, "Car loan", amortize.EqualPrincipal)
	ctx := context.Background()

	for k := 1; k <= 12; k++ {
		if _, err := env.loans.PayNext(ctx, env.user.ID, loan.ID, nil); err != nil {
			t.Fatalf("pay period %d: %v", k, err)
		}
	}

	got, err := env.accounts.Get(ctx, env.user.ID, loan.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Balance.IsZero() {
		t.Errorf("balance after full repayment = %s, want 0", got.Balance)
	}
	if got.Loan == nil || !got.Loan.Ended {
		t.Error("loan should be marked ended")
	}
	if got.Loan.RepaidPeriods != 12 {
		t.Errorf("repaid periods = %d, want 12", got.Loan.RepaidPeriods)
	}

	if _, err := env.loans.PayNext(ctx, env.user.ID, loan.ID, nil); !errors.Is(err, core.ErrSettled) {
		t.Errorf("pay ended loan = %v, want ErrSettled", err)
	}
}

func TestLoanService_ScheduleAndTotalRepayment(t *testing.T) {
	env := newTestEnv(t)
	loan := env.newLoanAccount(t, "Car loan", amortize.EqualInstallment)
	ctx := context.Background()

	schedule, err := env.loans.Schedule(ctx, env.user.ID, loan.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(schedule) != 12 {
		t.Fatalf("schedule length = %d, want 12", len(schedule))
	}
	for k, p := range schedule {
		if !p.Equal(schedule[0]) {
			t.Errorf("payment %d = %s, annuity payments should all equal %s", k+1, p, schedule[0])
		}
	}

	total, err := env.loans.TotalRepayment(ctx, env.user.ID, loan.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !total.GreaterThan(dec("1200.00")) {
		t.Errorf("total repayment = %s, should exceed the principal", total)
	}
}

func TestLoanService_RejectsNonLoanAccount(t *testing.T) {
	env := newTestEnv(t)
	wallet := env.newAccount(t, "Wallet", "100.00")

	if _, err := env.loans.PayNext(context.Background(), env.user.ID, wallet.ID, nil); !errors.Is(err, core.ErrKindMismatch) {
		t.Errorf("PayNext on basic account = %v, want ErrKindMismatch", err)
	}
}
