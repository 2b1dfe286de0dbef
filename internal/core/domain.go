package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

// PaymentIDPrefix makes payment ids deterministic from the owning debt id.
const PaymentIDPrefix = "payment-"

type (
	TransactionType string

	// Date is a calendar date with day precision. The time component is
	// always midnight UTC so whole-day arithmetic stays exact.
	Date struct {
		time.Time
	}

	// Debt is a tracked liability. Paid may exceed Amount: overpayment is
	// recorded as entered, never clamped.
	Debt struct {
		ID      string          `json:"id"`
		Name    string          `json:"name"`
		Amount  decimal.Decimal `json:"amount"`
		Paid    decimal.Decimal `json:"paid"`
		Rate    decimal.Decimal `json:"rate"`
		DueDate Date            `json:"due_date"`
	}

	// Payment is the monthly reminder derived one-per-debt. It is never
	// created or deleted directly; the store regenerates the set whenever
	// the debt collection changes.
	Payment struct {
		ID       string          `json:"id"`
		DebtID   string          `json:"debt_id"`
		DebtName string          `json:"debt_name"`
		Amount   decimal.Decimal `json:"amount"`
		DueDate  Date            `json:"due_date"`
		Paid     bool            `json:"paid"`
	}

	Transaction struct {
		ID          string          `json:"id"`
		Type        TransactionType `json:"type"`
		Amount      decimal.Decimal `json:"amount"`
		Category    string          `json:"category"`
		Date        Date            `json:"date"`
		Description string          `json:"description"`
	}

	Badge struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		Description string `json:"description"`
		Earned      bool   `json:"earned"`
		EarnedOn    *Date  `json:"earned_on,omitempty"`
		Icon        string `json:"icon"`
	}

	Challenge struct {
		ID          string          `json:"id"`
		Title       string          `json:"title"`
		Description string          `json:"description"`
		Progress    decimal.Decimal `json:"progress"`
		Target      decimal.Decimal `json:"target"`
		Completed   bool            `json:"completed"`
		Reward      string          `json:"reward"`
	}

	// Streak counts consecutive active days. Longest is the historical
	// maximum of Current.
	Streak struct {
		Current          int  `json:"current"`
		Longest          int  `json:"longest"`
		LastActivityDate Date `json:"last_activity_date"`
	}

	// State is the full serializable store content, the unit the
	// persistence layer reads and writes.
	State struct {
		Debts        []Debt        `json:"debts"`
		Payments     []Payment     `json:"payments"`
		Transactions []Transaction `json:"transactions"`
		Badges       []Badge       `json:"badges"`
		Challenges   []Challenge   `json:"challenges"`
		Streak       Streak        `json:"streak"`
	}
)

var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrEmptyName        = errors.New("empty name")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidType      = errors.New("invalid transaction type")
	ErrEmptyDescription = errors.New("empty description")
)

// PaymentIDFor returns the deterministic payment id for a debt.
func PaymentIDFor(debtID string) string {
	return PaymentIDPrefix + debtID
}

const dateLayout = "2006-01-02"

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates an instant to its UTC calendar date.
func DateOf(t time.Time) Date {
	y, m, d := t.UTC().Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

// DaysSince returns the whole calendar days between d and other, truncated
// toward zero. Negative when other is in the future.
func (d Date) DaysSince(other Date) int {
	return int(d.Sub(other.Time).Hours() / 24)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(dateLayout) + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return err
	}
	*d = Date{Time: t}
	return nil
}

// PayoffStatus classifies a debt's repayment lifecycle. It is computed from
// Paid vs Amount, never stored.
type PayoffStatus string

const (
	Unpaid        PayoffStatus = "unpaid"
	PartiallyPaid PayoffStatus = "partial"
	FullyPaid     PayoffStatus = "paid"
)

// PayoffStatus returns the implied lifecycle state of the debt.
func (d Debt) PayoffStatus() PayoffStatus {
	switch {
	case d.Amount.GreaterThan(decimal.Zero) && d.Paid.GreaterThanOrEqual(d.Amount):
		return FullyPaid
	case d.Paid.GreaterThan(decimal.Zero):
		return PartiallyPaid
	default:
		return Unpaid
	}
}

func (t TransactionType) IsValid() bool {
	return t == Income || t == Expense
}

func (tx Transaction) Validate() error {
	if !tx.Type.IsValid() {
		return ErrInvalidType
	}
	if tx.Amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}
	if tx.Date.IsZero() {
		return ErrInvalidDate
	}
	if len(strings.TrimSpace(tx.Description)) == 0 {
		return ErrEmptyDescription
	}
	return nil
}

func (d Debt) Validate() error {
	if len(strings.TrimSpace(d.Name)) == 0 {
		return ErrEmptyName
	}
	if d.Amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}
	if d.DueDate.IsZero() {
		return ErrInvalidDate
	}
	return nil
}
