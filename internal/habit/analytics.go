package habit

import (
	"math"
	"time"
)

// CompletionRate returns the rounded percentage of eligible days among the
// last windowDays days (today included) on which h was completed.
//
// Eligibility differs from IsDue for weekly habits: offsets 0, 7, 14, ...
// from today count, one per rolling 7-day block.
func CompletionRate(h Habit, windowDays int, today time.Time) int {
	if windowDays <= 0 {
		return 0
	}

	start := StartOfDay(today)
	total, completed := 0, 0
	for i := range windowDays {
		day := start.AddDate(0, 0, -i)
		if !eligibleForRate(h, i, day) {
			continue
		}
		total++
		if h.IsCompletedOn(day) {
			completed++
		}
	}

	return percent(completed, total)
}

func eligibleForRate(h Habit, offset int, day time.Time) bool {
	switch h.Frequency {
	case FrequencyDaily:
		return true
	case FrequencyWeekly:
		return offset%7 == 0
	case FrequencyCustom:
		return h.SelectedDays.Has(day.Weekday())
	default:
		return false
	}
}

// percent returns round(n/total*100), or 0 when total is 0.
func percent(n, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(n) / float64(total) * 100))
}
