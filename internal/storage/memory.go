package storage

import (
	"context"
	"sync"
	"time"

	"giardino/internal/core"
)

// MemoryRepository keeps snapshots and login flags in process memory.
// It is the default backend for local development and the fixture for
// service tests.
type MemoryRepository struct {
	mu     sync.RWMutex
	states map[string][]byte
	logins map[string]time.Time // zero value = no expiry

	now func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		states: make(map[string][]byte),
		logins: make(map[string]time.Time),
		now:    time.Now,
	}
}

func (r *MemoryRepository) SaveState(_ context.Context, userID string, state core.State) error {
	payload, err := encodeState(state)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states[userID] = payload
	return nil
}

func (r *MemoryRepository) LoadState(_ context.Context, userID string) (core.State, error) {
	r.mu.RLock()
	payload, ok := r.states[userID]
	r.mu.RUnlock()
	if !ok {
		return core.State{}, ErrStateNotFound
	}
	return decodeState(payload)
}

func (r *MemoryRepository) DeleteState(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.states, userID)
	return nil
}

func (r *MemoryRepository) SetLoginFlag(_ context.Context, userID string, ttl time.Duration) error {
	var expiry time.Time
	if ttl > 0 {
		expiry = r.now().Add(ttl)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logins[userID] = expiry
	return nil
}

func (r *MemoryRepository) ClearLoginFlag(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.logins, userID)
	return nil
}

func (r *MemoryRepository) IsLoggedIn(_ context.Context, userID string) (bool, error) {
	r.mu.RLock()
	expiry, ok := r.logins[userID]
	r.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if !expiry.IsZero() && r.now().After(expiry) {
		return false, nil
	}
	return true, nil
}

func (r *MemoryRepository) Close() error {
	return nil
}
