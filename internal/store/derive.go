package store

import (
	"github.com/shopspring/decimal"

	"giardino/internal/core"
)

var months = decimal.NewFromInt(12)

// DerivePayments returns the payment set implied by the debt collection.
// For every debt there is exactly one payment, identified by
// core.PaymentIDFor(debt.ID), carrying the debt name, the debt's due date
// and a monthly amount of (amount - paid) / 12.
//
// Policy for payments already marked paid: they are carried over verbatim
// (amount, due date and debt name frozen at pay time) instead of being
// regenerated, so an unrelated debt edit never un-marks or rewrites a
// completed payment. A paid payment still disappears when its debt is
// deleted, since the set is keyed by the surviving debts.
func DerivePayments(debts []core.Debt, existing []core.Payment) []core.Payment {
	carried := make(map[string]core.Payment, len(existing))
	for _, p := range existing {
		if p.Paid {
			carried[p.DebtID] = p
		}
	}

	payments := make([]core.Payment, 0, len(debts))
	for _, d := range debts {
		if p, ok := carried[d.ID]; ok {
			payments = append(payments, p)
			continue
		}
		payments = append(payments, core.Payment{
			ID:       core.PaymentIDFor(d.ID),
			DebtID:   d.ID,
			DebtName: d.Name,
			Amount:   monthlyAmount(d),
			DueDate:  d.DueDate,
			Paid:     false,
		})
	}
	return payments
}

func monthlyAmount(d core.Debt) decimal.Decimal {
	return d.Amount.Sub(d.Paid).Div(months)
}
