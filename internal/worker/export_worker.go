// Package worker drains the garden event queue and exports activity rows
// to Google Sheets.
package worker

import (
	"context"
	"fmt"

	"giardino/internal/events"
	"giardino/internal/log"
	"giardino/internal/sheets"
)

// Consumer feeds queued event envelopes to a handler until the context
// is cancelled.
type Consumer interface {
	Consume(ctx context.Context, handler func(*events.Envelope) error) error
}

// ExportWorker dispatches consumed events onto the sheet appenders.
type ExportWorker struct {
	consumer     Consumer
	transactions sheets.TransactionAppender
	achievements sheets.AchievementAppender
	logger       *log.Logger
}

func NewExportWorker(consumer Consumer, transactions sheets.TransactionAppender, achievements sheets.AchievementAppender, logger *log.Logger) *ExportWorker {
	return &ExportWorker{
		consumer:     consumer,
		transactions: transactions,
		achievements: achievements,
		logger:       logger,
	}
}

// Run consumes events until ctx is cancelled. A handler error requeues
// the delivery, so transient Sheets failures are retried.
func (w *ExportWorker) Run(ctx context.Context) error {
	return w.consumer.Consume(ctx, func(e *events.Envelope) error {
		return w.Handle(ctx, e)
	})
}

// Handle exports one event. Unknown kinds are dropped with a warning so
// a newer producer cannot wedge the queue.
func (w *ExportWorker) Handle(ctx context.Context, e *events.Envelope) error {
	switch e.Kind {
	case events.KindTransactionRecorded:
		return w.handleTransaction(ctx, e)
	case events.KindBadgeEarned:
		return w.handleBadge(ctx, e)
	case events.KindChallengeCompleted:
		return w.handleChallenge(ctx, e)
	case events.KindStreakMilestone:
		return w.handleStreak(ctx, e)
	default:
		w.logger.Warn("Dropping event of unknown kind", "kind", e.Kind, "user_id", e.UserID)
		return nil
	}
}

func (w *ExportWorker) handleTransaction(ctx context.Context, e *events.Envelope) error {
	if w.transactions == nil {
		w.logger.Warn("No transaction appender configured, skipping export", "user_id", e.UserID)
		return nil
	}
	var payload events.TransactionRecorded
	if err := e.Decode(&payload); err != nil {
		return fmt.Errorf("decode transaction payload: %w", err)
	}
	if err := w.transactions.AppendTransaction(ctx, e.UserID, payload.Transaction); err != nil {
		return fmt.Errorf("export transaction %s: %w", payload.Transaction.ID, err)
	}
	return nil
}

func (w *ExportWorker) handleBadge(ctx context.Context, e *events.Envelope) error {
	if w.achievements == nil {
		w.logger.Warn("No achievement appender configured, skipping export", "user_id", e.UserID)
		return nil
	}
	var payload events.BadgeEarned
	if err := e.Decode(&payload); err != nil {
		return fmt.Errorf("decode badge payload: %w", err)
	}
	detail := payload.Badge.Name
	if payload.Badge.EarnedOn != nil {
		detail = fmt.Sprintf("%s (earned %s)", payload.Badge.Name, payload.Badge.EarnedOn)
	}
	if err := w.achievements.AppendAchievement(ctx, e.UserID, e.Kind, detail); err != nil {
		return fmt.Errorf("export badge %s: %w", payload.Badge.ID, err)
	}
	return nil
}

func (w *ExportWorker) handleChallenge(ctx context.Context, e *events.Envelope) error {
	if w.achievements == nil {
		w.logger.Warn("No achievement appender configured, skipping export", "user_id", e.UserID)
		return nil
	}
	var payload events.ChallengeCompleted
	if err := e.Decode(&payload); err != nil {
		return fmt.Errorf("decode challenge payload: %w", err)
	}
	detail := fmt.Sprintf("%s (%s of %s)", payload.Challenge.Title, payload.Challenge.Progress, payload.Challenge.Target)
	if err := w.achievements.AppendAchievement(ctx, e.UserID, e.Kind, detail); err != nil {
		return fmt.Errorf("export challenge %s: %w", payload.Challenge.ID, err)
	}
	return nil
}

func (w *ExportWorker) handleStreak(ctx context.Context, e *events.Envelope) error {
	if w.achievements == nil {
		w.logger.Warn("No achievement appender configured, skipping export", "user_id", e.UserID)
		return nil
	}
	var payload events.StreakMilestone
	if err := e.Decode(&payload); err != nil {
		return fmt.Errorf("decode streak payload: %w", err)
	}
	detail := fmt.Sprintf("%d consecutive days (longest %d)", payload.Streak.Current, payload.Streak.Longest)
	if err := w.achievements.AppendAchievement(ctx, e.UserID, e.Kind, detail); err != nil {
		return fmt.Errorf("export streak milestone: %w", err)
	}
	return nil
}
