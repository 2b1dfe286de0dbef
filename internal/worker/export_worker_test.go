package worker

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"

	"giardino/internal/core"
	"giardino/internal/events"
	"giardino/internal/log"
)

type fakeAppenders struct {
	transactions []core.Transaction
	achievements []string
	fail         error
}

func (f *fakeAppenders) AppendTransaction(_ context.Context, _ string, tx core.Transaction) error {
	if f.fail != nil {
		return f.fail
	}
	f.transactions = append(f.transactions, tx)
	return nil
}

func (f *fakeAppenders) AppendAchievement(_ context.Context, _ string, kind, detail string) error {
	if f.fail != nil {
		return f.fail
	}
	f.achievements = append(f.achievements, kind+": "+detail)
	return nil
}

func newTestWorker(appenders *fakeAppenders) *ExportWorker {
	return NewExportWorker(nil, appenders, appenders, log.New(slog.LevelError, "worker"))
}

func mustEnvelope(t *testing.T, kind string, payload any) *events.Envelope {
	t.Helper()
	e, err := events.NewEnvelope(kind, "user-1", payload)
	if err != nil {
		t.Fatalf("NewEnvelope() error = %v", err)
	}
	return e
}

func TestHandleTransactionRecorded(t *testing.T) {
	appenders := &fakeAppenders{}
	w := newTestWorker(appenders)

	tx := core.Transaction{
		ID:          "t1",
		Type:        core.Income,
		Amount:      decimal.NewFromInt(3000),
		Category:    "Salary",
		Date:        core.NewDate(2025, 11, 1),
		Description: "Paycheck",
	}
	e := mustEnvelope(t, events.KindTransactionRecorded, events.TransactionRecorded{Transaction: tx})

	if err := w.Handle(context.Background(), e); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if len(appenders.transactions) != 1 || appenders.transactions[0].ID != "t1" {
		t.Errorf("exported transactions = %+v, want [t1]", appenders.transactions)
	}
}

func TestHandleAchievementKinds(t *testing.T) {
	earnedOn := core.NewDate(2025, 11, 20)
	tests := []struct {
		name string
		e    func(t *testing.T) *events.Envelope
	}{
		{
			name: "badge earned",
			e: func(t *testing.T) *events.Envelope {
				return mustEnvelope(t, events.KindBadgeEarned, events.BadgeEarned{
					Badge: core.Badge{ID: "first-step", Name: "First Step", Earned: true, EarnedOn: &earnedOn},
				})
			},
		},
		{
			name: "challenge completed",
			e: func(t *testing.T) *events.Envelope {
				return mustEnvelope(t, events.KindChallengeCompleted, events.ChallengeCompleted{
					Challenge: core.Challenge{
						ID:        "save-500",
						Title:     "Save $500 this week",
						Progress:  decimal.NewFromInt(500),
						Target:    decimal.NewFromInt(500),
						Completed: true,
					},
				})
			},
		},
		{
			name: "streak milestone",
			e: func(t *testing.T) *events.Envelope {
				return mustEnvelope(t, events.KindStreakMilestone, events.StreakMilestone{
					Streak: core.Streak{Current: 7, Longest: 7, LastActivityDate: earnedOn},
				})
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			appenders := &fakeAppenders{}
			w := newTestWorker(appenders)
			if err := w.Handle(context.Background(), tt.e(t)); err != nil {
				t.Fatalf("Handle() error = %v", err)
			}
			if len(appenders.achievements) != 1 {
				t.Errorf("exported achievements = %v, want one row", appenders.achievements)
			}
		})
	}
}

func TestHandleUnknownKindIsDropped(t *testing.T) {
	appenders := &fakeAppenders{}
	w := newTestWorker(appenders)

	e := mustEnvelope(t, "garden.pruned", struct{}{})
	if err := w.Handle(context.Background(), e); err != nil {
		t.Errorf("Handle() unknown kind error = %v, want nil", err)
	}
	if len(appenders.achievements)+len(appenders.transactions) != 0 {
		t.Error("unknown kind produced an export row")
	}
}

func TestHandleAppenderFailurePropagates(t *testing.T) {
	failure := errors.New("sheets unavailable")
	appenders := &fakeAppenders{fail: failure}
	w := newTestWorker(appenders)

	e := mustEnvelope(t, events.KindTransactionRecorded, events.TransactionRecorded{
		Transaction: core.Transaction{ID: "t1", Type: core.Expense, Amount: decimal.NewFromInt(1)},
	})
	if err := w.Handle(context.Background(), e); !errors.Is(err, failure) {
		t.Errorf("Handle() error = %v, want wrapped %v", err, failure)
	}
}

func TestHandleWithoutAppendersSkips(t *testing.T) {
	w := NewExportWorker(nil, nil, nil, log.New(slog.LevelError, "worker"))

	e := mustEnvelope(t, events.KindBadgeEarned, events.BadgeEarned{Badge: core.Badge{ID: "saver"}})
	if err := w.Handle(context.Background(), e); err != nil {
		t.Errorf("Handle() without appenders error = %v, want nil", err)
	}
}
