// Package storage persists full garden state snapshots, keyed by the
// opaque per-session user token, plus the separate login flag that gates
// whether a session counts as logged in.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"giardino/internal/core"
)

// ErrStateNotFound is returned when no snapshot exists for a user token.
var ErrStateNotFound = errors.New("state not found")

// Repository stores serialized garden states and login flags. The state
// payload is an opaque JSON blob to every implementation.
type Repository interface {
	SaveState(ctx context.Context, userID string, state core.State) error
	LoadState(ctx context.Context, userID string) (core.State, error)
	DeleteState(ctx context.Context, userID string) error

	// SetLoginFlag marks the session logged in. A zero ttl keeps the flag
	// until ClearLoginFlag; a positive ttl lets it lapse on its own.
	SetLoginFlag(ctx context.Context, userID string, ttl time.Duration) error
	ClearLoginFlag(ctx context.Context, userID string) error
	IsLoggedIn(ctx context.Context, userID string) (bool, error)

	Close() error
}

func encodeState(state core.State) ([]byte, error) {
	payload, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("encode state: %w", err)
	}
	return payload, nil
}

func decodeState(payload []byte) (core.State, error) {
	var state core.State
	if err := json.Unmarshal(payload, &state); err != nil {
		return core.State{}, fmt.Errorf("decode state: %w", err)
	}
	return state, nil
}
