// Package store implements the in-memory finance state store: debts with
// their derived payment reminders, transactions, and the gamification
// records (badges, challenges, streak) that drive the garden view.
//
// The store is an explicit handle handed to its consumers, never a
// package-level singleton. It performs no I/O; hosts persist and restore
// it through Snapshot and FromState. All mutations are atomic with the
// payment re-derivation they trigger, so readers can never observe an
// orphan or stale payment between operations.
package store

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"giardino/internal/core"
)

type Store struct {
	mu           sync.RWMutex
	debts        []core.Debt
	payments     []core.Payment
	transactions []core.Transaction
	badges       []core.Badge
	challenges   []core.Challenge
	streak       core.Streak

	now   func() time.Time
	newID func() string
}

// Option customizes a Store at construction time.
type Option func(*Store)

// WithClock overrides the time source. Tests use this to pin calendar
// dates for streak and badge stamping.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides the id source for new debts and transactions.
func WithIDGenerator(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

// New creates a store seeded with the default badge and challenge catalogs,
// an empty debt and transaction book, and a streak starting today.
func New(opts ...Option) *Store {
	s := &Store{
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.badges = core.DefaultBadges()
	s.challenges = core.DefaultChallenges()
	s.streak = core.NewStreak(s.today())
	return s
}

// FromState restores a store from a persisted snapshot. The payment set is
// re-derived against the restored debts so the derivation invariant holds
// even if the snapshot predates a schema change.
func FromState(state core.State, opts ...Option) *Store {
	s := &Store{
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.debts = append([]core.Debt(nil), state.Debts...)
	s.payments = DerivePayments(s.debts, state.Payments)
	s.transactions = append([]core.Transaction(nil), state.Transactions...)
	s.badges = append([]core.Badge(nil), state.Badges...)
	s.challenges = append([]core.Challenge(nil), state.Challenges...)
	s.streak = state.Streak
	return s
}

func (s *Store) today() core.Date {
	return core.DateOf(s.now())
}

// Snapshot returns a deep copy of the full store state, suitable for
// serialization.
func (s *Store) Snapshot() core.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return core.State{
		Debts:        append([]core.Debt(nil), s.debts...),
		Payments:     append([]core.Payment(nil), s.payments...),
		Transactions: append([]core.Transaction(nil), s.transactions...),
		Badges:       append([]core.Badge(nil), s.badges...),
		Challenges:   append([]core.Challenge(nil), s.challenges...),
		Streak:       s.streak,
	}
}

// Debts returns a copy of the debt collection.
func (s *Store) Debts() []core.Debt {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.Debt(nil), s.debts...)
}

// Payments returns a copy of the derived payment collection.
func (s *Store) Payments() []core.Payment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.Payment(nil), s.payments...)
}

// Transactions returns a copy of the transaction collection.
func (s *Store) Transactions() []core.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.Transaction(nil), s.transactions...)
}

// Badges returns a copy of the badge catalog.
func (s *Store) Badges() []core.Badge {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.Badge(nil), s.badges...)
}

// Challenges returns a copy of the challenge catalog.
func (s *Store) Challenges() []core.Challenge {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.Challenge(nil), s.challenges...)
}

// Streak returns the current streak state.
func (s *Store) Streak() core.Streak {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.streak
}

// DebtProgress returns the aggregate repayment percentage across all debts.
func (s *Store) DebtProgress() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return debtProgress(s.debts)
}

// PlantStage returns the 1-6 garden growth stage for the current progress.
func (s *Store) PlantStage() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return plantStage(debtProgress(s.debts))
}

// AddDebt appends a debt under a fresh id and re-derives the payment set.
// The store imposes no numeric validation; callers sanitize input.
func (s *Store) AddDebt(d core.Debt) core.Debt {
	s.mu.Lock()
	defer s.mu.Unlock()
	d.ID = s.newID()
	s.debts = append(s.debts, d)
	s.payments = DerivePayments(s.debts, s.payments)
	return d
}

// DebtUpdate carries the fields UpdateDebt merges into an existing debt.
// Nil fields are left untouched.
type DebtUpdate struct {
	Name    *string
	Amount  *decimal.Decimal
	Paid    *decimal.Decimal
	Rate    *decimal.Decimal
	DueDate *core.Date
}

// UpdateDebt merges the given fields into the matching debt and re-derives
// the payment set. Returns core.ErrNotFound when the id is unknown.
func (s *Store) UpdateDebt(id string, upd DebtUpdate) (core.Debt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.debts {
		if s.debts[i].ID != id {
			continue
		}
		d := &s.debts[i]
		if upd.Name != nil {
			d.Name = *upd.Name
		}
		if upd.Amount != nil {
			d.Amount = *upd.Amount
		}
		if upd.Paid != nil {
			d.Paid = *upd.Paid
		}
		if upd.Rate != nil {
			d.Rate = *upd.Rate
		}
		if upd.DueDate != nil {
			d.DueDate = *upd.DueDate
		}
		s.payments = DerivePayments(s.debts, s.payments)
		return *d, nil
	}
	return core.Debt{}, fmt.Errorf("debt %s: %w", id, core.ErrNotFound)
}

// DeleteDebt removes the debt and its derived payment in one atomic step.
// Returns core.ErrNotFound when the id is unknown.
func (s *Store) DeleteDebt(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.debts {
		if s.debts[i].ID != id {
			continue
		}
		s.debts = append(s.debts[:i], s.debts[i+1:]...)
		s.payments = DerivePayments(s.debts, s.payments)
		return nil
	}
	return fmt.Errorf("debt %s: %w", id, core.ErrNotFound)
}

// MarkPaymentAsPaid flips the payment's paid flag and credits its amount
// to the owning debt's paid total. The sync is one-way: once paid, the
// payment is frozen and later debt edits no longer touch it. Already-paid
// payments are a no-op. A payment whose debt has vanished reports
// core.ErrNotFound without mutating anything; under the derivation
// invariant that can only happen on a stale id.
func (s *Store) MarkPaymentAsPaid(id string) (core.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.payments {
		if s.payments[i].ID != id {
			continue
		}
		if s.payments[i].Paid {
			return s.payments[i], nil
		}
		debt := s.findDebt(s.payments[i].DebtID)
		if debt == nil {
			return core.Payment{}, fmt.Errorf("debt %s for payment %s: %w", s.payments[i].DebtID, id, core.ErrNotFound)
		}
		s.payments[i].Paid = true
		debt.Paid = debt.Paid.Add(s.payments[i].Amount)
		paid := s.payments[i]
		s.payments = DerivePayments(s.debts, s.payments)
		return paid, nil
	}
	return core.Payment{}, fmt.Errorf("payment %s: %w", id, core.ErrNotFound)
}

func (s *Store) findDebt(id string) *core.Debt {
	for i := range s.debts {
		if s.debts[i].ID == id {
			return &s.debts[i]
		}
	}
	return nil
}

// AddTransaction appends a transaction under a fresh id.
func (s *Store) AddTransaction(tx core.Transaction) core.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx.ID = s.newID()
	s.transactions = append(s.transactions, tx)
	return tx
}

// TransactionUpdate carries the fields UpdateTransaction merges into an
// existing transaction. Nil fields are left untouched.
type TransactionUpdate struct {
	Type        *core.TransactionType
	Amount      *decimal.Decimal
	Category    *string
	Date        *core.Date
	Description *string
}

// UpdateTransaction merges the given fields into the matching transaction.
// Returns core.ErrNotFound when the id is unknown.
func (s *Store) UpdateTransaction(id string, upd TransactionUpdate) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.transactions {
		if s.transactions[i].ID != id {
			continue
		}
		tx := &s.transactions[i]
		if upd.Type != nil {
			tx.Type = *upd.Type
		}
		if upd.Amount != nil {
			tx.Amount = *upd.Amount
		}
		if upd.Category != nil {
			tx.Category = *upd.Category
		}
		if upd.Date != nil {
			tx.Date = *upd.Date
		}
		if upd.Description != nil {
			tx.Description = *upd.Description
		}
		return *tx, nil
	}
	return core.Transaction{}, fmt.Errorf("transaction %s: %w", id, core.ErrNotFound)
}

// DeleteTransaction removes the matching transaction. Returns
// core.ErrNotFound when the id is unknown.
func (s *Store) DeleteTransaction(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.transactions {
		if s.transactions[i].ID != id {
			continue
		}
		s.transactions = append(s.transactions[:i], s.transactions[i+1:]...)
		return nil
	}
	return fmt.Errorf("transaction %s: %w", id, core.ErrNotFound)
}

// EarnBadge marks a badge earned and stamps today's date. The reported
// bool is true only when the badge transitions from unearned to earned;
// re-earning is a no-op. Returns core.ErrNotFound when the id is unknown.
func (s *Store) EarnBadge(id string) (core.Badge, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.badges {
		if s.badges[i].ID != id {
			continue
		}
		if s.badges[i].Earned {
			return s.badges[i], false, nil
		}
		today := s.today()
		s.badges[i].Earned = true
		s.badges[i].EarnedOn = &today
		return s.badges[i], true, nil
	}
	return core.Badge{}, false, fmt.Errorf("badge %s: %w", id, core.ErrNotFound)
}

// UpdateChallengeProgress sets the challenge's progress to an absolute
// value and recomputes completion in both directions: dropping progress
// back below the target un-completes the challenge. The reported bool is
// true only when the challenge transitions to completed.
func (s *Store) UpdateChallengeProgress(id string, progress decimal.Decimal) (core.Challenge, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.challenges {
		if s.challenges[i].ID != id {
			continue
		}
		wasCompleted := s.challenges[i].Completed
		s.challenges[i].Progress = progress
		s.challenges[i].Completed = progress.GreaterThanOrEqual(s.challenges[i].Target)
		justCompleted := s.challenges[i].Completed && !wasCompleted
		return s.challenges[i], justCompleted, nil
	}
	return core.Challenge{}, false, fmt.Errorf("challenge %s: %w", id, core.ErrNotFound)
}

// UpdateStreak credits today's activity, idempotently per calendar day.
// The reported bool is false when today was already credited. Hosts call
// this at their activity points; the store never triggers it on its own.
func (s *Store) UpdateStreak() (core.Streak, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var changed bool
	s.streak, changed = advanceStreak(s.streak, s.today())
	return s.streak, changed
}
