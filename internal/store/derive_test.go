package store

import (
	"testing"

	"github.com/shopspring/decimal"

	"giardino/internal/core"
)

func debtFixture(id string, amount, paid int64) core.Debt {
	return core.Debt{
		ID:      id,
		Name:    "Debt " + id,
		Amount:  decimal.NewFromInt(amount),
		Paid:    decimal.NewFromInt(paid),
		DueDate: core.NewDate(2025, 12, 1),
	}
}

func TestDerivePayments(t *testing.T) {
	tests := []struct {
		name     string
		debts    []core.Debt
		existing []core.Payment
		wantIDs  []string
	}{
		{
			name:    "empty debts yield empty payments",
			wantIDs: []string{},
		},
		{
			name:    "one payment per debt",
			debts:   []core.Debt{debtFixture("a", 1200, 0), debtFixture("b", 600, 0)},
			wantIDs: []string{"payment-a", "payment-b"},
		},
		{
			name:  "unpaid existing payments are regenerated",
			debts: []core.Debt{debtFixture("a", 1200, 600)},
			existing: []core.Payment{
				{ID: "payment-a", DebtID: "a", Amount: decimal.NewFromInt(100)},
			},
			wantIDs: []string{"payment-a"},
		},
		{
			name:  "payments of removed debts disappear even when paid",
			debts: []core.Debt{debtFixture("b", 600, 0)},
			existing: []core.Payment{
				{ID: "payment-a", DebtID: "a", Amount: decimal.NewFromInt(100), Paid: true},
				{ID: "payment-b", DebtID: "b", Amount: decimal.NewFromInt(50)},
			},
			wantIDs: []string{"payment-b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DerivePayments(tt.debts, tt.existing)
			if len(got) != len(tt.wantIDs) {
				t.Fatalf("DerivePayments() returned %d payments, want %d", len(got), len(tt.wantIDs))
			}
			for i, id := range tt.wantIDs {
				if got[i].ID != id {
					t.Errorf("payment[%d].ID = %q, want %q", i, got[i].ID, id)
				}
			}
		})
	}
}

func TestDerivePaymentsAmounts(t *testing.T) {
	got := DerivePayments([]core.Debt{debtFixture("a", 1200, 600)}, nil)
	if want := decimal.NewFromInt(50); !got[0].Amount.Equal(want) {
		t.Errorf("amount = %s, want %s", got[0].Amount, want)
	}
}

func TestDerivePaymentsCarriesPaidVerbatim(t *testing.T) {
	frozen := core.Payment{
		ID:       "payment-a",
		DebtID:   "a",
		DebtName: "Old Name",
		Amount:   decimal.NewFromInt(100),
		DueDate:  core.NewDate(2025, 12, 1),
		Paid:     true,
	}
	// The debt has since been renamed and partially repaid; the frozen
	// payment must not pick any of that up.
	debt := debtFixture("a", 1200, 100)
	debt.Name = "New Name"
	debt.DueDate = core.NewDate(2026, 1, 15)

	got := DerivePayments([]core.Debt{debt}, []core.Payment{frozen})
	if len(got) != 1 {
		t.Fatalf("DerivePayments() returned %d payments, want 1", len(got))
	}
	if got[0] != frozen {
		t.Errorf("carried payment = %+v, want verbatim %+v", got[0], frozen)
	}
}

// Property check: after an arbitrary add/update/delete sequence the payment
// id set equals {"payment-" + d.ID} over the current debts.
func TestDerivationInvariantAcrossMutations(t *testing.T) {
	s := newTestStore(t)

	a := s.AddDebt(debtFixture("", 1200, 0))
	b := s.AddDebt(debtFixture("", 900, 300))
	paid := decimal.NewFromInt(600)
	if _, err := s.UpdateDebt(a.ID, DebtUpdate{Paid: &paid}); err != nil {
		t.Fatalf("UpdateDebt() error = %v", err)
	}
	if err := s.DeleteDebt(b.ID); err != nil {
		t.Fatalf("DeleteDebt() error = %v", err)
	}
	c := s.AddDebt(debtFixture("", 2400, 0))

	want := map[string]bool{
		core.PaymentIDFor(a.ID): true,
		core.PaymentIDFor(c.ID): true,
	}
	payments := s.Payments()
	if len(payments) != len(want) {
		t.Fatalf("payment set has %d entries, want %d", len(payments), len(want))
	}
	for _, p := range payments {
		if !want[p.ID] {
			t.Errorf("unexpected payment id %q", p.ID)
		}
		if p.Paid {
			continue
		}
		debt := findDebtByID(t, s.Debts(), p.DebtID)
		if wantAmount := debt.Amount.Sub(debt.Paid).Div(decimal.NewFromInt(12)); !p.Amount.Equal(wantAmount) {
			t.Errorf("payment %q amount = %s, want %s", p.ID, p.Amount, wantAmount)
		}
		if !p.DueDate.Equal(debt.DueDate.Time) {
			t.Errorf("payment %q due date = %s, want %s", p.ID, p.DueDate, debt.DueDate)
		}
	}
}

func findDebtByID(t *testing.T, debts []core.Debt, id string) core.Debt {
	t.Helper()
	for _, d := range debts {
		if d.ID == id {
			return d
		}
	}
	t.Fatalf("debt %q not found", id)
	return core.Debt{}
}
