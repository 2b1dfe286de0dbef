package store

import (
	"testing"
	"time"

	"giardino/internal/core"
)

func TestAdvanceStreak(t *testing.T) {
	today := core.NewDate(2025, 11, 20)

	tests := []struct {
		name        string
		streak      core.Streak
		wantCurrent int
		wantLongest int
		wantChanged bool
	}{
		{
			name:        "already credited today",
			streak:      core.Streak{Current: 5, Longest: 12, LastActivityDate: today},
			wantCurrent: 5,
			wantLongest: 12,
			wantChanged: false,
		},
		{
			name:        "consecutive day extends and raises longest",
			streak:      core.Streak{Current: 5, Longest: 5, LastActivityDate: core.NewDate(2025, 11, 19)},
			wantCurrent: 6,
			wantLongest: 6,
			wantChanged: true,
		},
		{
			name:        "consecutive day below longest",
			streak:      core.Streak{Current: 3, Longest: 12, LastActivityDate: core.NewDate(2025, 11, 19)},
			wantCurrent: 4,
			wantLongest: 12,
			wantChanged: true,
		},
		{
			name:        "skipped days reset current, keep longest",
			streak:      core.Streak{Current: 5, Longest: 10, LastActivityDate: core.NewDate(2025, 11, 17)},
			wantCurrent: 1,
			wantLongest: 10,
			wantChanged: true,
		},
		{
			name:        "future last activity resets",
			streak:      core.Streak{Current: 5, Longest: 10, LastActivityDate: core.NewDate(2025, 11, 22)},
			wantCurrent: 1,
			wantLongest: 10,
			wantChanged: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, changed := advanceStreak(tt.streak, today)
			if changed != tt.wantChanged {
				t.Fatalf("advanceStreak() changed = %v, want %v", changed, tt.wantChanged)
			}
			if got.Current != tt.wantCurrent {
				t.Errorf("advanceStreak() current = %d, want %d", got.Current, tt.wantCurrent)
			}
			if got.Longest != tt.wantLongest {
				t.Errorf("advanceStreak() longest = %d, want %d", got.Longest, tt.wantLongest)
			}
			if changed && !got.LastActivityDate.Equal(today.Time) {
				t.Errorf("advanceStreak() last activity = %s, want %s", got.LastActivityDate, today)
			}
		})
	}
}

func TestUpdateStreakIdempotentPerDay(t *testing.T) {
	now := time.Date(2025, 11, 20, 9, 30, 0, 0, time.UTC)
	s := New(WithClock(func() time.Time { return now }))

	// The fresh store already counts today as its first active day.
	if _, changed := s.UpdateStreak(); changed {
		t.Error("UpdateStreak() on seed day reported a change")
	}

	// Next calendar day extends the run, once.
	now = now.AddDate(0, 0, 1)
	streak, changed := s.UpdateStreak()
	if !changed || streak.Current != 2 || streak.Longest != 2 {
		t.Errorf("UpdateStreak() = %+v changed=%v, want current=2 longest=2 changed=true", streak, changed)
	}
	if _, changed = s.UpdateStreak(); changed {
		t.Error("second UpdateStreak() same day reported a change")
	}

	// Skipping two days breaks the run.
	now = now.AddDate(0, 0, 3)
	streak, _ = s.UpdateStreak()
	if streak.Current != 1 || streak.Longest != 2 {
		t.Errorf("UpdateStreak() after gap = %+v, want current=1 longest=2", streak)
	}
}
