// Package services orchestrates garden sessions: it owns one state store
// per session token, persists snapshots after every mutation, and emits
// gamification events for the export pipeline.
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"giardino/internal/core"
	"giardino/internal/events"
	"giardino/internal/log"
	"giardino/internal/storage"
	"giardino/internal/store"
)

// ErrSessionNotFound is returned when a token has no logged-in session.
var ErrSessionNotFound = errors.New("session not found")

// streakMilestoneEvery is the streak length interval that triggers a
// milestone event.
const streakMilestoneEvery = 7

// EventPublisher abstracts the event pipeline. A nil events.Client
// satisfies it as a no-op.
type EventPublisher interface {
	Publish(ctx context.Context, e *events.Envelope) error
}

type GardenService struct {
	repo      storage.Repository
	publisher EventPublisher
	logger    *log.Logger

	sessionTTL time.Duration
	seedDemo   bool
	newToken   func() string
	storeOpts  []store.Option

	mu       sync.Mutex
	sessions map[string]*session
}

// session pairs a live store with the mutex that serializes its
// snapshot-and-persist pairs, so a stale snapshot can never overwrite a
// newer one in the repository.
type session struct {
	store     *store.Store
	persistMu sync.Mutex
}

// Option customizes a GardenService at construction time.
type Option func(*GardenService)

// WithSessionTTL bounds how long a login flag lives. Zero means no expiry.
func WithSessionTTL(ttl time.Duration) Option {
	return func(g *GardenService) { g.sessionTTL = ttl }
}

// WithDemoData seeds every new session with sample debts and transactions.
func WithDemoData(seed bool) Option {
	return func(g *GardenService) { g.seedDemo = seed }
}

// WithTokenGenerator overrides the session token source.
func WithTokenGenerator(newToken func() string) Option {
	return func(g *GardenService) { g.newToken = newToken }
}

// WithStoreOptions forwards options to every store the service creates.
func WithStoreOptions(opts ...store.Option) Option {
	return func(g *GardenService) { g.storeOpts = opts }
}

func NewGardenService(repo storage.Repository, publisher EventPublisher, logger *log.Logger, opts ...Option) *GardenService {
	g := &GardenService{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		newToken:  uuid.NewString,
		sessions:  make(map[string]*session),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Register creates a fresh session: a new token, a store seeded with the
// default catalogs (plus demo data when enabled), a persisted snapshot,
// and a set login flag.
func (g *GardenService) Register(ctx context.Context) (string, core.State, error) {
	token := g.newToken()

	st := store.New(g.storeOpts...)
	if g.seedDemo {
		seeded := st.Snapshot()
		seeded.Debts = core.DemoDebts()
		seeded.Transactions = core.DemoTransactions()
		st = store.FromState(seeded, g.storeOpts...)
	}

	if err := g.repo.SaveState(ctx, token, st.Snapshot()); err != nil {
		return "", core.State{}, fmt.Errorf("persist new session: %w", err)
	}
	if err := g.repo.SetLoginFlag(ctx, token, g.sessionTTL); err != nil {
		return "", core.State{}, fmt.Errorf("set login flag: %w", err)
	}

	g.mu.Lock()
	g.sessions[token] = &session{store: st}
	g.mu.Unlock()

	g.logger.Info("Session registered", "user_id", token, "demo_seeded", g.seedDemo)
	return token, st.Snapshot(), nil
}

// Login restores a previously registered session from its persisted
// snapshot and marks it logged in again.
func (g *GardenService) Login(ctx context.Context, token string) (core.State, error) {
	state, err := g.repo.LoadState(ctx, token)
	if err != nil {
		if errors.Is(err, storage.ErrStateNotFound) {
			return core.State{}, fmt.Errorf("session %s: %w", token, ErrSessionNotFound)
		}
		return core.State{}, fmt.Errorf("load session state: %w", err)
	}
	if err := g.repo.SetLoginFlag(ctx, token, g.sessionTTL); err != nil {
		return core.State{}, fmt.Errorf("set login flag: %w", err)
	}

	g.mu.Lock()
	sess, ok := g.sessions[token]
	if !ok {
		sess = &session{store: store.FromState(state, g.storeOpts...)}
		g.sessions[token] = sess
	}
	g.mu.Unlock()

	g.logger.Info("Session logged in", "user_id", token)
	return sess.store.Snapshot(), nil
}

// Logout clears the login flag. The persisted snapshot stays, so the
// same token can log in again later.
func (g *GardenService) Logout(ctx context.Context, token string) error {
	if err := g.repo.ClearLoginFlag(ctx, token); err != nil {
		return fmt.Errorf("clear login flag: %w", err)
	}

	g.mu.Lock()
	delete(g.sessions, token)
	g.mu.Unlock()

	g.logger.Info("Session logged out", "user_id", token)
	return nil
}

// sessionFor resolves the live session for a logged-in token, rehydrating
// it from the repository after a process restart. Concurrent rehydrations
// of the same token race on LoadState, so the map is re-checked under the
// lock before inserting: the loser adopts the winner's session instead of
// replacing it, which would orphan mutations already applied to it.
func (g *GardenService) sessionFor(ctx context.Context, token string) (*session, error) {
	g.mu.Lock()
	sess, ok := g.sessions[token]
	g.mu.Unlock()
	if ok {
		return sess, nil
	}

	loggedIn, err := g.repo.IsLoggedIn(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("check login flag: %w", err)
	}
	if !loggedIn {
		return nil, fmt.Errorf("session %s: %w", token, ErrSessionNotFound)
	}

	state, err := g.repo.LoadState(ctx, token)
	if err != nil {
		if errors.Is(err, storage.ErrStateNotFound) {
			return nil, fmt.Errorf("session %s: %w", token, ErrSessionNotFound)
		}
		return nil, fmt.Errorf("load session state: %w", err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if sess, ok := g.sessions[token]; ok {
		return sess, nil
	}
	sess = &session{store: store.FromState(state, g.storeOpts...)}
	g.sessions[token] = sess
	return sess, nil
}

// storeFor is the read-only shorthand over sessionFor.
func (g *GardenService) storeFor(ctx context.Context, token string) (*store.Store, error) {
	sess, err := g.sessionFor(ctx, token)
	if err != nil {
		return nil, err
	}
	return sess.store, nil
}

// persist writes the session's snapshot back after a mutation. The
// snapshot and the repository write happen under the session's persist
// mutex, so concurrent mutations cannot land their writes out of order.
// The in-memory state keeps the mutation even when the write fails.
func (g *GardenService) persist(ctx context.Context, token string, sess *session) error {
	sess.persistMu.Lock()
	defer sess.persistMu.Unlock()
	if err := g.repo.SaveState(ctx, token, sess.store.Snapshot()); err != nil {
		g.logger.Error("Failed to persist session state", "user_id", token, "error", err)
		return fmt.Errorf("persist session state: %w", err)
	}
	return nil
}

// publish sends an event best-effort. Event failures never fail the
// mutation that triggered them.
func (g *GardenService) publish(ctx context.Context, kind, token string, payload any) {
	if g.publisher == nil {
		return
	}
	e, err := events.NewEnvelope(kind, token, payload)
	if err != nil {
		g.logger.Error("Failed to build event envelope", "kind", kind, "error", err)
		return
	}
	if err := g.publisher.Publish(ctx, e); err != nil {
		g.logger.Warn("Failed to publish event", "kind", kind, "user_id", token, "error", err)
	}
}

// State returns the full snapshot for a session.
func (g *GardenService) State(ctx context.Context, token string) (core.State, error) {
	st, err := g.storeFor(ctx, token)
	if err != nil {
		return core.State{}, err
	}
	return st.Snapshot(), nil
}

// Debts lists the session's debts.
func (g *GardenService) Debts(ctx context.Context, token string) ([]core.Debt, error) {
	st, err := g.storeFor(ctx, token)
	if err != nil {
		return nil, err
	}
	return st.Debts(), nil
}

// AddDebt validates and records a debt. Registering the first debt earns
// the first-step badge.
func (g *GardenService) AddDebt(ctx context.Context, token string, d core.Debt) (core.Debt, error) {
	if err := d.Validate(); err != nil {
		return core.Debt{}, fmt.Errorf("%w: %w", core.ErrInvalidInput, err)
	}
	sess, err := g.sessionFor(ctx, token)
	if err != nil {
		return core.Debt{}, err
	}
	st := sess.store

	firstDebt := len(st.Debts()) == 0
	created := st.AddDebt(d)

	if firstDebt {
		if badge, earned, err := st.EarnBadge("first-step"); err == nil && earned {
			g.publish(ctx, events.KindBadgeEarned, token, events.BadgeEarned{Badge: badge})
		}
	}

	if err := g.persist(ctx, token, sess); err != nil {
		return core.Debt{}, err
	}
	return created, nil
}

// UpdateDebt merges the given fields into an existing debt.
func (g *GardenService) UpdateDebt(ctx context.Context, token, id string, upd store.DebtUpdate) (core.Debt, error) {
	sess, err := g.sessionFor(ctx, token)
	if err != nil {
		return core.Debt{}, err
	}
	debt, err := sess.store.UpdateDebt(id, upd)
	if err != nil {
		return core.Debt{}, err
	}
	if err := g.persist(ctx, token, sess); err != nil {
		return core.Debt{}, err
	}
	return debt, nil
}

// DeleteDebt removes a debt and its derived payment.
func (g *GardenService) DeleteDebt(ctx context.Context, token, id string) error {
	sess, err := g.sessionFor(ctx, token)
	if err != nil {
		return err
	}
	if err := sess.store.DeleteDebt(id); err != nil {
		return err
	}
	return g.persist(ctx, token, sess)
}

// Payments lists the session's derived payment reminders.
func (g *GardenService) Payments(ctx context.Context, token string) ([]core.Payment, error) {
	st, err := g.storeFor(ctx, token)
	if err != nil {
		return nil, err
	}
	return st.Payments(), nil
}

// MarkPaymentAsPaid settles one payment reminder and credits the debt.
func (g *GardenService) MarkPaymentAsPaid(ctx context.Context, token, id string) (core.Payment, error) {
	sess, err := g.sessionFor(ctx, token)
	if err != nil {
		return core.Payment{}, err
	}
	payment, err := sess.store.MarkPaymentAsPaid(id)
	if err != nil {
		return core.Payment{}, err
	}
	if err := g.persist(ctx, token, sess); err != nil {
		return core.Payment{}, err
	}
	return payment, nil
}

// Transactions lists the session's transactions.
func (g *GardenService) Transactions(ctx context.Context, token string) ([]core.Transaction, error) {
	st, err := g.storeFor(ctx, token)
	if err != nil {
		return nil, err
	}
	return st.Transactions(), nil
}

// AddTransaction validates and records a transaction, then emits a
// transaction.recorded event for the export worker.
func (g *GardenService) AddTransaction(ctx context.Context, token string, tx core.Transaction) (core.Transaction, error) {
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, fmt.Errorf("%w: %w", core.ErrInvalidInput, err)
	}
	sess, err := g.sessionFor(ctx, token)
	if err != nil {
		return core.Transaction{}, err
	}

	created := sess.store.AddTransaction(tx)
	if err := g.persist(ctx, token, sess); err != nil {
		return core.Transaction{}, err
	}

	g.publish(ctx, events.KindTransactionRecorded, token, events.TransactionRecorded{Transaction: created})
	return created, nil
}

// UpdateTransaction merges the given fields into an existing transaction.
func (g *GardenService) UpdateTransaction(ctx context.Context, token, id string, upd store.TransactionUpdate) (core.Transaction, error) {
	sess, err := g.sessionFor(ctx, token)
	if err != nil {
		return core.Transaction{}, err
	}
	tx, err := sess.store.UpdateTransaction(id, upd)
	if err != nil {
		return core.Transaction{}, err
	}
	if err := g.persist(ctx, token, sess); err != nil {
		return core.Transaction{}, err
	}
	return tx, nil
}

// DeleteTransaction removes a transaction.
func (g *GardenService) DeleteTransaction(ctx context.Context, token, id string) error {
	sess, err := g.sessionFor(ctx, token)
	if err != nil {
		return err
	}
	if err := sess.store.DeleteTransaction(id); err != nil {
		return err
	}
	return g.persist(ctx, token, sess)
}

// Badges lists the session's badge catalog.
func (g *GardenService) Badges(ctx context.Context, token string) ([]core.Badge, error) {
	st, err := g.storeFor(ctx, token)
	if err != nil {
		return nil, err
	}
	return st.Badges(), nil
}

// EarnBadge marks a badge earned, emitting badge.earned on the first earn.
func (g *GardenService) EarnBadge(ctx context.Context, token, id string) (core.Badge, error) {
	sess, err := g.sessionFor(ctx, token)
	if err != nil {
		return core.Badge{}, err
	}
	badge, earned, err := sess.store.EarnBadge(id)
	if err != nil {
		return core.Badge{}, err
	}
	if err := g.persist(ctx, token, sess); err != nil {
		return core.Badge{}, err
	}
	if earned {
		g.publish(ctx, events.KindBadgeEarned, token, events.BadgeEarned{Badge: badge})
	}
	return badge, nil
}

// Challenges lists the session's challenge catalog.
func (g *GardenService) Challenges(ctx context.Context, token string) ([]core.Challenge, error) {
	st, err := g.storeFor(ctx, token)
	if err != nil {
		return nil, err
	}
	return st.Challenges(), nil
}

// UpdateChallengeProgress sets a challenge's absolute progress, emitting
// challenge.completed when the target is first reached.
func (g *GardenService) UpdateChallengeProgress(ctx context.Context, token, id string, progress decimal.Decimal) (core.Challenge, error) {
	sess, err := g.sessionFor(ctx, token)
	if err != nil {
		return core.Challenge{}, err
	}
	challenge, completed, err := sess.store.UpdateChallengeProgress(id, progress)
	if err != nil {
		return core.Challenge{}, err
	}
	if err := g.persist(ctx, token, sess); err != nil {
		return core.Challenge{}, err
	}
	if completed {
		g.publish(ctx, events.KindChallengeCompleted, token, events.ChallengeCompleted{Challenge: challenge})
	}
	return challenge, nil
}

// Streak returns the session's current streak.
func (g *GardenService) Streak(ctx context.Context, token string) (core.Streak, error) {
	st, err := g.storeFor(ctx, token)
	if err != nil {
		return core.Streak{}, err
	}
	return st.Streak(), nil
}

// CheckIn credits today's activity on the streak. Hitting a multiple of
// seven days emits streak.milestone, and reaching seven earns the
// streak-7 badge.
func (g *GardenService) CheckIn(ctx context.Context, token string) (core.Streak, error) {
	sess, err := g.sessionFor(ctx, token)
	if err != nil {
		return core.Streak{}, err
	}
	st := sess.store

	streak, changed := st.UpdateStreak()
	if changed && streak.Current >= streakMilestoneEvery {
		if badge, earned, err := st.EarnBadge("streak-7"); err == nil && earned {
			g.publish(ctx, events.KindBadgeEarned, token, events.BadgeEarned{Badge: badge})
		}
	}

	if err := g.persist(ctx, token, sess); err != nil {
		return core.Streak{}, err
	}

	if changed && streak.Current%streakMilestoneEvery == 0 {
		g.publish(ctx, events.KindStreakMilestone, token, events.StreakMilestone{Streak: streak})
	}
	return streak, nil
}

// GardenView is the aggregate the garden screen renders: overall debt
// progress and the plant stage it maps to.
type GardenView struct {
	Progress   int         `json:"progress"`
	PlantStage int         `json:"plant_stage"`
	Streak     core.Streak `json:"streak"`
}

// Garden returns the session's garden view.
func (g *GardenService) Garden(ctx context.Context, token string) (GardenView, error) {
	st, err := g.storeFor(ctx, token)
	if err != nil {
		return GardenView{}, err
	}
	return GardenView{
		Progress:   st.DebtProgress(),
		PlantStage: st.PlantStage(),
		Streak:     st.Streak(),
	}, nil
}
