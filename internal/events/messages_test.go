package events

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"giardino/internal/core"
)

func TestEnvelopeRoundTrip(t *testing.T) {
	tx := core.Transaction{
		ID:          "t1",
		Type:        core.Expense,
		Amount:      decimal.NewFromInt(50),
		Category:    "Food",
		Date:        core.NewDate(2025, 11, 20),
		Description: "Lunch",
	}

	e, err := NewEnvelope(KindTransactionRecorded, "user-1", TransactionRecorded{Transaction: tx})
	if err != nil {
		t.Fatalf("NewEnvelope() error = %v", err)
	}

	data, err := e.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	back, err := EnvelopeFromJSON(data)
	if err != nil {
		t.Fatalf("EnvelopeFromJSON() error = %v", err)
	}
	if back.Kind != KindTransactionRecorded || back.UserID != "user-1" {
		t.Errorf("envelope = (%q, %q), want (%q, %q)", back.Kind, back.UserID, KindTransactionRecorded, "user-1")
	}

	var payload TransactionRecorded
	if err := back.Decode(&payload); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if payload.Transaction.ID != "t1" || !payload.Transaction.Amount.Equal(decimal.NewFromInt(50)) {
		t.Errorf("decoded transaction = %+v, want the original", payload.Transaction)
	}
}

func TestEnvelopeFromJSONInvalid(t *testing.T) {
	if _, err := EnvelopeFromJSON([]byte("{not json")); err == nil {
		t.Error("EnvelopeFromJSON() accepted malformed input")
	}
}

func TestNilClientPublishIsNoop(t *testing.T) {
	var c *Client
	e, err := NewEnvelope(KindBadgeEarned, "user-1", BadgeEarned{})
	if err != nil {
		t.Fatalf("NewEnvelope() error = %v", err)
	}
	if err := c.Publish(context.Background(), e); err != nil {
		t.Errorf("Publish() on nil client = %v, want nil", err)
	}
}
