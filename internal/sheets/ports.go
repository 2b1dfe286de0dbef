// Package sheets defines the export ports the worker writes through.
package sheets

import (
	"context"

	"giardino/internal/core"
)

// TransactionAppender appends one transaction row to the export target.
type TransactionAppender interface {
	AppendTransaction(ctx context.Context, userID string, tx core.Transaction) error
}

// AchievementAppender appends one gamification milestone row (earned
// badge, completed challenge, streak milestone) to the export target.
type AchievementAppender interface {
	AppendAchievement(ctx context.Context, userID, kind, detail string) error
}
