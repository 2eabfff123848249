package habit

import "time"

// IsDue reports whether h is expected to be actioned on date.
//
// Weekly habits are due until they have been completed once in the current
// calendar week, which runs from the most recent Sunday up to date inclusive.
// Unknown frequencies are never due.
func IsDue(h Habit, date time.Time) bool {
	switch h.Frequency {
	case FrequencyDaily:
		return true
	case FrequencyWeekly:
		return !completedBetween(h, WeekStart(date), StartOfDay(date))
	case FrequencyCustom:
		return h.SelectedDays.Has(date.Weekday())
	default:
		return false
	}
}

// completedBetween reports whether any completed day lies in [from, to].
// Both bounds are midnights in the same location.
func completedBetween(h Habit, from, to time.Time) bool {
	for _, d := range h.CompletedDates {
		day := StartOfDay(d.In(from.Location()))
		if !day.Before(from) && !day.After(to) {
			return true
		}
	}
	return false
}
