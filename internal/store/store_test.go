package store

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"giardino/internal/core"
)

// newTestStore pins the clock to 2025-11-20 and makes ids sequential.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	n := 0
	return New(
		WithClock(func() time.Time {
			return time.Date(2025, 11, 20, 10, 0, 0, 0, time.UTC)
		}),
		WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		}),
	)
}

func TestAddDebtDerivesPayment(t *testing.T) {
	s := newTestStore(t)
	d := s.AddDebt(core.Debt{
		Name:    "Credit Card",
		Amount:  decimal.NewFromInt(1200),
		Paid:    decimal.Zero,
		Rate:    decimal.NewFromFloat(18.5),
		DueDate: core.NewDate(2025, 12, 1),
	})

	payments := s.Payments()
	if len(payments) != 1 {
		t.Fatalf("Payments() returned %d entries, want 1", len(payments))
	}
	p := payments[0]
	if p.ID != "payment-"+d.ID {
		t.Errorf("payment id = %q, want %q", p.ID, "payment-"+d.ID)
	}
	if p.DebtID != d.ID || p.DebtName != "Credit Card" {
		t.Errorf("payment debt ref = (%q, %q), want (%q, %q)", p.DebtID, p.DebtName, d.ID, "Credit Card")
	}
	if !p.Amount.Equal(decimal.NewFromInt(100)) {
		t.Errorf("payment amount = %s, want 100", p.Amount)
	}
	if !p.DueDate.Equal(d.DueDate.Time) {
		t.Errorf("payment due date = %s, want %s", p.DueDate, d.DueDate)
	}
	if p.Paid {
		t.Error("freshly derived payment is marked paid")
	}
}

func TestUpdateDebtRecomputesPaymentAmount(t *testing.T) {
	s := newTestStore(t)
	d := s.AddDebt(core.Debt{
		Name:    "Loan",
		Amount:  decimal.NewFromInt(2400),
		DueDate: core.NewDate(2025, 12, 1),
	})

	paid := decimal.NewFromInt(1200)
	if _, err := s.UpdateDebt(d.ID, DebtUpdate{Paid: &paid}); err != nil {
		t.Fatalf("UpdateDebt() error = %v", err)
	}

	p := s.Payments()[0]
	if !p.Amount.Equal(decimal.NewFromInt(100)) {
		t.Errorf("payment amount after update = %s, want 100", p.Amount)
	}

	name := "Renamed Loan"
	if _, err := s.UpdateDebt(d.ID, DebtUpdate{Name: &name}); err != nil {
		t.Fatalf("UpdateDebt() error = %v", err)
	}
	if got := s.Payments()[0].DebtName; got != "Renamed Loan" {
		t.Errorf("payment debt name = %q, want %q", got, "Renamed Loan")
	}
}

func TestUpdateDebtNotFound(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.UpdateDebt("missing", DebtUpdate{}); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("UpdateDebt() error = %v, want ErrNotFound", err)
	}
}

func TestDeleteDebtRemovesPaymentAtomically(t *testing.T) {
	s := newTestStore(t)
	d1 := s.AddDebt(core.Debt{Name: "A", Amount: decimal.NewFromInt(1200), DueDate: core.NewDate(2025, 12, 1)})
	d2 := s.AddDebt(core.Debt{Name: "B", Amount: decimal.NewFromInt(600), DueDate: core.NewDate(2025, 12, 5)})

	if err := s.DeleteDebt(d1.ID); err != nil {
		t.Fatalf("DeleteDebt() error = %v", err)
	}

	payments := s.Payments()
	if len(payments) != 1 {
		t.Fatalf("Payments() returned %d entries after delete, want 1", len(payments))
	}
	if payments[0].DebtID != d2.ID {
		t.Errorf("surviving payment belongs to %q, want %q", payments[0].DebtID, d2.ID)
	}

	if err := s.DeleteDebt(d1.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("DeleteDebt() repeated error = %v, want ErrNotFound", err)
	}
}

func TestMarkPaymentAsPaid(t *testing.T) {
	s := newTestStore(t)
	d := s.AddDebt(core.Debt{
		Name:    "Card",
		Amount:  decimal.NewFromInt(1000),
		Paid:    decimal.Zero,
		DueDate: core.NewDate(2025, 12, 1),
	})

	monthly := s.Payments()[0].Amount // 1000/12

	p, err := s.MarkPaymentAsPaid(core.PaymentIDFor(d.ID))
	if err != nil {
		t.Fatalf("MarkPaymentAsPaid() error = %v", err)
	}
	if !p.Paid {
		t.Error("payment not marked paid")
	}

	debt := s.Debts()[0]
	if !debt.Paid.Equal(monthly) {
		t.Errorf("debt paid = %s, want %s", debt.Paid, monthly)
	}

	// Paying again must not double-credit the debt.
	if _, err := s.MarkPaymentAsPaid(core.PaymentIDFor(d.ID)); err != nil {
		t.Fatalf("MarkPaymentAsPaid() repeat error = %v", err)
	}
	if got := s.Debts()[0].Paid; !got.Equal(monthly) {
		t.Errorf("debt paid after repeat = %s, want %s", got, monthly)
	}
}

func TestMarkPaymentAsPaidUnknownID(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.MarkPaymentAsPaid("payment-ghost"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("MarkPaymentAsPaid() error = %v, want ErrNotFound", err)
	}
}

// The regression case for the derivation policy: marking a payment paid
// credits the debt, and the paid payment keeps its original amount instead
// of being regenerated at (1200-100)/12 = 91.67.
func TestPaidPaymentSurvivesRederivation(t *testing.T) {
	s := newTestStore(t)
	d := s.AddDebt(core.Debt{
		Name:    "Card",
		Amount:  decimal.NewFromInt(1200),
		Paid:    decimal.Zero,
		DueDate: core.NewDate(2025, 12, 1),
	})

	if _, err := s.MarkPaymentAsPaid(core.PaymentIDFor(d.ID)); err != nil {
		t.Fatalf("MarkPaymentAsPaid() error = %v", err)
	}
	if got := s.Debts()[0].Paid; !got.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("debt paid = %s, want 100", got)
	}

	// An unrelated edit to the same debt re-derives the payment set but
	// must not reset the paid flag or rewrite the frozen amount.
	rate := decimal.NewFromFloat(9.9)
	if _, err := s.UpdateDebt(d.ID, DebtUpdate{Rate: &rate}); err != nil {
		t.Fatalf("UpdateDebt() error = %v", err)
	}

	p := s.Payments()[0]
	if !p.Paid {
		t.Error("paid flag reset by unrelated debt edit")
	}
	if !p.Amount.Equal(decimal.NewFromInt(100)) {
		t.Errorf("paid payment amount = %s, want frozen 100", p.Amount)
	}

	// Adding another debt must not disturb it either.
	s.AddDebt(core.Debt{Name: "Other", Amount: decimal.NewFromInt(600), DueDate: core.NewDate(2025, 12, 9)})
	if !s.Payments()[0].Paid {
		t.Error("paid flag reset by adding an unrelated debt")
	}
}

func TestTransactionCRUD(t *testing.T) {
	s := newTestStore(t)
	tx := s.AddTransaction(core.Transaction{
		Type:        core.Income,
		Amount:      decimal.NewFromInt(3000),
		Category:    "Salary",
		Date:        core.NewDate(2025, 11, 1),
		Description: "Monthly paycheck",
	})
	if tx.ID == "" {
		t.Fatal("AddTransaction() assigned no id")
	}

	amount := decimal.NewFromInt(3100)
	updated, err := s.UpdateTransaction(tx.ID, TransactionUpdate{Amount: &amount})
	if err != nil {
		t.Fatalf("UpdateTransaction() error = %v", err)
	}
	if !updated.Amount.Equal(amount) {
		t.Errorf("transaction amount = %s, want %s", updated.Amount, amount)
	}
	if updated.Category != "Salary" {
		t.Errorf("partial update touched category: %q", updated.Category)
	}

	if err := s.DeleteTransaction(tx.ID); err != nil {
		t.Fatalf("DeleteTransaction() error = %v", err)
	}
	if got := len(s.Transactions()); got != 0 {
		t.Errorf("Transactions() has %d entries after delete, want 0", got)
	}
	if err := s.DeleteTransaction(tx.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("DeleteTransaction() repeated error = %v, want ErrNotFound", err)
	}
}

func TestEarnBadge(t *testing.T) {
	s := newTestStore(t)

	badge, earned, err := s.EarnBadge("first-step")
	if err != nil {
		t.Fatalf("EarnBadge() error = %v", err)
	}
	if !earned || !badge.Earned {
		t.Error("EarnBadge() did not mark the badge earned")
	}
	if badge.EarnedOn == nil || badge.EarnedOn.String() != "2025-11-20" {
		t.Errorf("EarnBadge() stamped %v, want 2025-11-20", badge.EarnedOn)
	}

	// Earning twice is a no-op and keeps the original date.
	_, earned, err = s.EarnBadge("first-step")
	if err != nil || earned {
		t.Errorf("EarnBadge() repeat = (earned=%v, err=%v), want no-op", earned, err)
	}

	if _, _, err := s.EarnBadge("no-such-badge"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("EarnBadge() unknown id error = %v, want ErrNotFound", err)
	}
}

func TestUpdateChallengeProgress(t *testing.T) {
	s := newTestStore(t)

	tests := []struct {
		name          string
		progress      int64
		wantCompleted bool
		wantJust      bool
	}{
		{"below target", 200, false, false},
		{"at target completes", 500, true, true},
		{"above target stays completed", 600, true, false},
		{"absolute set reverts completion", 100, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, just, err := s.UpdateChallengeProgress("save-500", decimal.NewFromInt(tt.progress))
			if err != nil {
				t.Fatalf("UpdateChallengeProgress() error = %v", err)
			}
			if c.Completed != tt.wantCompleted || just != tt.wantJust {
				t.Errorf("UpdateChallengeProgress(%d) = (completed=%v, just=%v), want (%v, %v)",
					tt.progress, c.Completed, just, tt.wantCompleted, tt.wantJust)
			}
			if !c.Progress.Equal(decimal.NewFromInt(tt.progress)) {
				t.Errorf("progress = %s, want %d", c.Progress, tt.progress)
			}
		})
	}

	if _, _, err := s.UpdateChallengeProgress("ghost", decimal.NewFromInt(1)); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("UpdateChallengeProgress() unknown id error = %v, want ErrNotFound", err)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := newTestStore(t)
	d := s.AddDebt(core.Debt{Name: "Card", Amount: decimal.NewFromInt(1200), DueDate: core.NewDate(2025, 12, 1)})
	if _, err := s.MarkPaymentAsPaid(core.PaymentIDFor(d.ID)); err != nil {
		t.Fatalf("MarkPaymentAsPaid() error = %v", err)
	}
	s.AddTransaction(core.Transaction{Type: core.Expense, Amount: decimal.NewFromInt(50), Category: "Food", Date: core.NewDate(2025, 11, 19), Description: "Lunch"})

	restored := FromState(s.Snapshot())

	if got, want := len(restored.Debts()), 1; got != want {
		t.Errorf("restored debts = %d, want %d", got, want)
	}
	if got, want := len(restored.Transactions()), 1; got != want {
		t.Errorf("restored transactions = %d, want %d", got, want)
	}
	p := restored.Payments()[0]
	if !p.Paid || !p.Amount.Equal(decimal.NewFromInt(100)) {
		t.Errorf("restored payment = %+v, want paid with frozen amount 100", p)
	}
	if got := restored.Streak(); got != s.Streak() {
		t.Errorf("restored streak = %+v, want %+v", got, s.Streak())
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	s := newTestStore(t)
	s.AddDebt(core.Debt{Name: "Card", Amount: decimal.NewFromInt(100), DueDate: core.NewDate(2025, 12, 1)})

	snap := s.Snapshot()
	snap.Debts[0].Name = "mutated"

	if got := s.Debts()[0].Name; got != "Card" {
		t.Errorf("store debt name = %q after snapshot mutation, want %q", got, "Card")
	}
}
