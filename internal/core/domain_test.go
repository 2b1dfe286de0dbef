package core

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestDateJSONRoundTrip(t *testing.T) {
	d := NewDate(2025, 12, 1)
	data, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(data) != `"2025-12-01"` {
		t.Errorf("Marshal() = %s, want %q", data, "2025-12-01")
	}

	var back Date
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if !back.Equal(d.Time) {
		t.Errorf("round trip = %s, want %s", back, d)
	}
}

func TestDateDaysSince(t *testing.T) {
	tests := []struct {
		name string
		a, b Date
		want int
	}{
		{"same day", NewDate(2025, 11, 20), NewDate(2025, 11, 20), 0},
		{"next day", NewDate(2025, 11, 20), NewDate(2025, 11, 19), 1},
		{"three days", NewDate(2025, 11, 20), NewDate(2025, 11, 17), 3},
		{"across month boundary", NewDate(2025, 12, 1), NewDate(2025, 11, 30), 1},
		{"negative when in the future", NewDate(2025, 11, 20), NewDate(2025, 11, 22), -2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.DaysSince(tt.b); got != tt.want {
				t.Errorf("DaysSince() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestParseDate(t *testing.T) {
	if _, err := ParseDate("12/01/2025"); !errors.Is(err, ErrInvalidDate) {
		t.Errorf("ParseDate() error = %v, want ErrInvalidDate", err)
	}
	d, err := ParseDate("2025-12-01")
	if err != nil {
		t.Fatalf("ParseDate() error = %v", err)
	}
	if d.String() != "2025-12-01" {
		t.Errorf("ParseDate() = %s, want 2025-12-01", d)
	}
}

func TestDebtPayoffStatus(t *testing.T) {
	tests := []struct {
		name         string
		amount, paid int64
		want         PayoffStatus
	}{
		{"nothing paid", 1000, 0, Unpaid},
		{"partially paid", 1000, 400, PartiallyPaid},
		{"fully paid", 1000, 1000, FullyPaid},
		{"overpaid", 1000, 1100, FullyPaid},
		{"zero amount", 0, 0, Unpaid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Debt{Amount: decimal.NewFromInt(tt.amount), Paid: decimal.NewFromInt(tt.paid)}
			if got := d.PayoffStatus(); got != tt.want {
				t.Errorf("PayoffStatus() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTransactionValidate(t *testing.T) {
	valid := Transaction{
		Type:        Income,
		Amount:      decimal.NewFromInt(100),
		Category:    "Salary",
		Date:        NewDate(2025, 11, 1),
		Description: "Paycheck",
	}
	if err := valid.Validate(); err != nil {
		t.Errorf("Validate() on valid transaction = %v", err)
	}

	tests := []struct {
		name    string
		mutate  func(*Transaction)
		wantErr error
	}{
		{"bad type", func(tx *Transaction) { tx.Type = "transfer" }, ErrInvalidType},
		{"zero amount", func(tx *Transaction) { tx.Amount = decimal.Zero }, ErrInvalidAmount},
		{"missing date", func(tx *Transaction) { tx.Date = Date{} }, ErrInvalidDate},
		{"blank description", func(tx *Transaction) { tx.Description = "  " }, ErrEmptyDescription},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := valid
			tt.mutate(&tx)
			if err := tx.Validate(); !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
