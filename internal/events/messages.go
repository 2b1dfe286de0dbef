package events

import (
	"encoding/json"
	"time"

	"giardino/internal/core"
)

// Message kinds carried on the garden events queue.
const (
	KindTransactionRecorded = "transaction.recorded"
	KindBadgeEarned         = "badge.earned"
	KindChallengeCompleted  = "challenge.completed"
	KindStreakMilestone     = "streak.milestone"
)

// Envelope wraps every published event so consumers can dispatch on Kind
// before decoding the payload.
type Envelope struct {
	Kind      string          `json:"kind"`
	UserID    string          `json:"user_id"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

type TransactionRecorded struct {
	Transaction core.Transaction `json:"transaction"`
}

type BadgeEarned struct {
	Badge core.Badge `json:"badge"`
}

type ChallengeCompleted struct {
	Challenge core.Challenge `json:"challenge"`
}

type StreakMilestone struct {
	Streak core.Streak `json:"streak"`
}

// NewEnvelope builds an envelope around an encodable payload.
func NewEnvelope(kind, userID string, payload any) (*Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Envelope{
		Kind:      kind,
		UserID:    userID,
		Timestamp: time.Now(),
		Payload:   raw,
	}, nil
}

// ToJSON converts the envelope to JSON bytes.
func (e *Envelope) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// EnvelopeFromJSON creates an envelope from JSON bytes.
func EnvelopeFromJSON(data []byte) (*Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// Decode unmarshals the payload into out.
func (e *Envelope) Decode(out any) error {
	return json.Unmarshal(e.Payload, out)
}
