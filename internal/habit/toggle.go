package habit

import (
	"slices"
	"time"
)

// ToggleCompletion flips the completion of date's calendar day and returns
// the updated habit. h itself is not modified.
//
// Only toggles of today move the cached counters:
//   - un-completing today resets Streak to 0, whatever the remaining history;
//   - completing today extends Streak when yesterday was completed or when
//     Streak is 0 (a fresh start). Otherwise the chain is considered broken
//     and Streak is left as is.
//
// BestStreak follows Streak upwards and never decreases. Calendar days are
// taken in today's location.
func ToggleCompletion(h Habit, date, today time.Time) Habit {
	date = date.In(today.Location())
	out := h.Clone()
	day := StartOfDay(date)
	isToday := SameDay(today, date)

	if h.IsCompletedOn(day) {
		out.CompletedDates = slices.DeleteFunc(out.CompletedDates, func(d time.Time) bool {
			return SameDay(day, d)
		})
		if isToday {
			out.Streak = 0
		}
		return out
	}

	out.CompletedDates = append(out.CompletedDates, day)
	slices.SortFunc(out.CompletedDates, func(a, b time.Time) int { return a.Compare(b) })

	if !isToday {
		return out
	}

	yesterday := StartOfDay(today).AddDate(0, 0, -1)
	if h.IsCompletedOn(yesterday) || h.Streak == 0 {
		out.Streak = h.Streak + 1
	}
	if out.Streak > out.BestStreak {
		out.BestStreak = out.Streak
	}
	return out
}
