package habit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"time"
)

const dateLayout = "2006-01-02"

// record is the persisted JSON shape of a Habit.
type record struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Frequency      Frequency `json:"frequency"`
	SelectedDays   Weekdays  `json:"selectedDays"`
	ReminderTime   *string   `json:"reminderTime,omitempty"`
	CreatedAt      string    `json:"createdAt"`
	CompletedDates []string  `json:"completedDates"`
	Streak         int       `json:"streak"`
	BestStreak     int       `json:"bestStreak"`
	Color          string    `json:"color"`
}

// Encode serializes the full collection as a JSON array.
func Encode(habits []Habit) ([]byte, error) {
	records := make([]record, 0, len(habits))
	for _, h := range habits {
		r := record{
			ID:             h.ID,
			Name:           h.Name,
			Frequency:      h.Frequency,
			SelectedDays:   h.SelectedDays,
			CreatedAt:      h.CreatedAt.Format(time.RFC3339),
			CompletedDates: make([]string, 0, len(h.CompletedDates)),
			Streak:         h.Streak,
			BestStreak:     h.BestStreak,
			Color:          h.Color,
		}
		if h.ReminderTime != "" {
			rt := h.ReminderTime
			r.ReminderTime = &rt
		}
		for _, d := range h.CompletedDates {
			r.CompletedDates = append(r.CompletedDates, d.Format(time.RFC3339))
		}
		records = append(records, r)
	}

	data, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("encoding habits: %w", err)
	}
	return data, nil
}

// Decode parses a JSON array of habits. Completion timestamps are reduced to
// calendar days in loc and de-duplicated; negative counters are clamped and
// BestStreak is raised to Streak when needed. Empty input yields no habits.
// A record with an unreadable createdAt and an unreadable completion date are
// skipped with a warning; only malformed JSON fails the whole decode.
func Decode(data []byte, loc *time.Location) ([]Habit, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var records []record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decoding habits: %w", err)
	}

	habits := make([]Habit, 0, len(records))
	for _, r := range records {
		createdAt, err := parseTimestamp(r.CreatedAt, loc)
		if err != nil {
			slog.Warn("skipping habit with invalid createdAt", "habit_id", r.ID, "error", err)
			continue
		}

		h := Habit{
			ID:             r.ID,
			Name:           r.Name,
			Frequency:      r.Frequency,
			SelectedDays:   r.SelectedDays,
			CreatedAt:      createdAt,
			CompletedDates: make([]time.Time, 0, len(r.CompletedDates)),
			Streak:         max(r.Streak, 0),
			BestStreak:     max(r.BestStreak, 0),
			Color:          r.Color,
		}
		if r.ReminderTime != nil {
			h.ReminderTime = *r.ReminderTime
		}
		h.BestStreak = max(h.BestStreak, h.Streak)

		for _, s := range r.CompletedDates {
			t, err := parseTimestamp(s, loc)
			if err != nil {
				slog.Warn("skipping invalid completion date", "habit_id", r.ID, "error", err)
				continue
			}
			day := StartOfDay(t)
			if indexOfDay(h.CompletedDates, day) < 0 {
				h.CompletedDates = append(h.CompletedDates, day)
			}
		}
		slices.SortFunc(h.CompletedDates, func(a, b time.Time) int { return a.Compare(b) })

		habits = append(habits, h)
	}
	return habits, nil
}

// parseTimestamp accepts RFC 3339 timestamps and bare YYYY-MM-DD dates and
// returns the instant in loc.
func parseTimestamp(s string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.In(loc), nil
	}
	t, err := time.ParseInLocation(dateLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
	}
	return t, nil
}

// ParseDate parses a YYYY-MM-DD calendar date in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(dateLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q must be YYYY-MM-DD", s)
	}
	return t, nil
}

// FormatDate renders a calendar date as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}
