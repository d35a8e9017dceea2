package amortize

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestLoan_RemainingZeroWhenRepaid(t *testing.T) {
	types := []RepaymentType{EqualInstallment, EqualPrincipal, EqualInterest, InterestBeforePrincipal}
	principal := dec("1200.00")
	rate := dec("0.12")

	for _, rt := range types {
		c, err := GetCalculator(rt)
		if err != nil {
			t.Fatal(err)
		}
		for _, n := range []int{1, 12, 36} {
			if rest := c.Remaining(principal, rate, n, n); !rest.IsZero() {
				t.Errorf("%s n=%d: remaining after full repayment = %s, want 0", rt, n, rest)
			}
		}
	}
}

func TestLoan_RemainingDecreases(t *testing.T) {
	for _, rt := range []RepaymentType{EqualInstallment, EqualPrincipal} {
		c, err := GetCalculator(rt)
		if err != nil {
			t.Fatal(err)
		}
		prev := dec("1200.00").Add(dec("1"))
		for m := 0; m <= 12; m++ {
			rest := c.Remaining(dec("1200.00"), dec("0.12"), 12, m)
			if rest.GreaterThanOrEqual(prev) {
				t.Errorf("%s: remaining(%d) = %s, not below %s", rt, m, rest, prev)
			}
			prev = rest
		}
	}
}

func TestEqualInstallment_FixedPayment(t *testing.T) {
	c := EqualInstallmentCalc{}
	principal, rate := dec("1200.00"), dec("0.12")

	first := c.Payment(principal, rate, 12, 1)
	if !first.Equal(dec("106.62")) {
		t.Errorf("annuity payment = %s, want 106.62", first)
	}
	for k := 2; k <= 12; k++ {
		if p := c.Payment(principal, rate, 12, k); !p.Equal(first) {
			t.Errorf("payment(%d) = %s, annuity should stay at %s", k, p, first)
		}
	}
}

func TestEqualInstallment_ZeroRate(t *testing.T) {
	c := EqualInstallmentCalc{}
	sum := decimal.Zero
	for k := 1; k <= 12; k++ {
		sum = sum.Add(c.Payment(dec("1000.00"), decimal.Zero, 12, k))
	}
	if !sum.Equal(dec("1000.00")) {
		t.Errorf("zero-rate payments sum to %s, want 1000.00", sum)
	}
}

func TestEqualPrincipal_PaymentsShrink(t *testing.T) {
	c := EqualPrincipalCalc{}
	principal, rate := dec("1200.00"), dec("0.12")

	if p := c.Payment(principal, rate, 12, 1); !p.Equal(dec("112.00")) {
		t.Errorf("payment(1) = %s, want 112.00", p)
	}
	if p := c.Payment(principal, rate, 12, 12); !p.Equal(dec("101.00")) {
		t.Errorf("payment(12) = %s, want 101.00", p)
	}
	prev := c.Payment(principal, rate, 12, 1)
	for k := 2; k <= 12; k++ {
		p := c.Payment(principal, rate, 12, k)
		if p.GreaterThanOrEqual(prev) {
			t.Errorf("payment(%d) = %s, not below %s", k, p, prev)
		}
		prev = p
	}
}

func TestEqualInterest_BalloonAtEnd(t *testing.T) {
	c := EqualInterestCalc{}
	principal, rate := dec("1000.00"), dec("0.12")

	for k := 1; k < 10; k++ {
		if p := c.Payment(principal, rate, 10, k); !p.Equal(dec("10.00")) {
			t.Errorf("payment(%d) = %s, want 10.00", k, p)
		}
	}
	if p := c.Payment(principal, rate, 10, 10); !p.Equal(dec("1010.00")) {
		t.Errorf("payment(10) = %s, want 1010.00", p)
	}
	if rest := c.Remaining(principal, rate, 10, 9); !rest.Equal(principal) {
		t.Errorf("remaining before balloon = %s, want full principal", rest)
	}
}

func TestInterestBeforePrincipal(t *testing.T) {
	c := InterestBeforePrincipalCalc{}
	principal, rate := dec("1000.00"), dec("0.12")

	// Total interest 100.00 spread over periods 1..9, remainder to the 9th.
	for k := 1; k < 9; k++ {
		if p := c.Payment(principal, rate, 10, k); !p.Equal(dec("11.11")) {
			t.Errorf("payment(%d) = %s, want 11.11", k, p)
		}
	}
	if p := c.Payment(principal, rate, 10, 9); !p.Equal(dec("11.12")) {
		t.Errorf("payment(9) = %s, want 11.12", p)
	}
	if p := c.Payment(principal, rate, 10, 10); !p.Equal(principal) {
		t.Errorf("payment(10) = %s, want bare principal", p)
	}

	// A single-period loan pays everything at once.
	if p := c.Payment(principal, rate, 1, 1); !p.Equal(dec("1010.00")) {
		t.Errorf("single-period payment = %s, want 1010.00", p)
	}
}

func TestTotalRepayment(t *testing.T) {
	tests := []struct {
		typ  RepaymentType
		want string
	}{
		{EqualInterest, "1100.00"},
		{InterestBeforePrincipal, "1100.00"},
	}

	for _, tt := range tests {
		got, err := TotalRepayment(tt.typ, dec("1000.00"), dec("0.12"), 10)
		if err != nil {
			t.Fatal(err)
		}
		if !got.Equal(dec(tt.want)) {
			t.Errorf("TotalRepayment(%s) = %s, want %s", tt.typ, got, tt.want)
		}
	}
}

func TestGetCalculator_Unknown(t *testing.T) {
	if _, err := GetCalculator("reverse_mortgage"); err == nil {
		t.Error("expected error for unknown repayment type")
	}
}
