package store

import (
	"github.com/shopspring/decimal"

	"giardino/internal/core"
)

var hundred = decimal.NewFromInt(100)

// debtProgress computes round(100 * sum(paid) / sum(amount)) over all
// debts. An empty collection or a zero total amount yields 0. Overpaid
// debts can push the result past 100; the plant stage caps at its top
// level either way.
func debtProgress(debts []core.Debt) int {
	total := decimal.Zero
	paid := decimal.Zero
	for _, d := range debts {
		total = total.Add(d.Amount)
		paid = paid.Add(d.Paid)
	}
	if total.IsZero() {
		return 0
	}
	return int(paid.Div(total).Mul(hundred).Round(0).IntPart())
}

// plantStage maps a progress percentage onto the six-level garden
// visualization. The cut points at 0, 20, 40, 60 and 80 are relied on by
// badge and UI logic and must not move.
func plantStage(progress int) int {
	switch {
	case progress <= 0:
		return 1 // seed
	case progress < 20:
		return 2 // sprout
	case progress < 40:
		return 3 // young plant
	case progress < 60:
		return 4 // medium plant
	case progress < 80:
		return 5 // mature plant
	default:
		return 6 // flowering plant
	}
}
