package store

import "giardino/internal/core"

// advanceStreak applies one activity check-in to a streak. The reported
// bool is false when the streak was already credited today.
//
// Whole calendar days between today and the last activity date decide the
// transition: 0 leaves the streak untouched, exactly 1 extends it, and
// anything else (a skipped day, or a negative diff from clock skew) resets
// the run to 1 while preserving the historical longest.
func advanceStreak(s core.Streak, today core.Date) (core.Streak, bool) {
	switch diff := today.DaysSince(s.LastActivityDate); {
	case diff == 0:
		return s, false
	case diff == 1:
		s.Current++
		if s.Current > s.Longest {
			s.Longest = s.Current
		}
		s.LastActivityDate = today
		return s, true
	default:
		s.Current = 1
		s.LastActivityDate = today
		return s, true
	}
}
