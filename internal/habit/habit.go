package habit

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Frequency determines on which days a habit is expected to be actioned.
type Frequency string

const (
	FrequencyDaily  Frequency = "daily"
	FrequencyWeekly Frequency = "weekly"
	FrequencyCustom Frequency = "custom"
)

// Valid reports whether f is one of the known frequencies.
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyCustom:
		return true
	default:
		return false
	}
}

// DefaultColor is assigned to habits created without a color.
const DefaultColor = "#4f46e5"

// reminderLayout is the wall-clock format of Habit.ReminderTime.
const reminderLayout = "15:04"

// Weekdays holds one flag per day of the week. Only consulted for custom habits.
type Weekdays struct {
	Mon bool `json:"mon"`
	Tue bool `json:"tue"`
	Wed bool `json:"wed"`
	Thu bool `json:"thu"`
	Fri bool `json:"fri"`
	Sat bool `json:"sat"`
	Sun bool `json:"sun"`
}

// AllWeekdays returns a Weekdays value with every flag set.
func AllWeekdays() Weekdays {
	return Weekdays{Mon: true, Tue: true, Wed: true, Thu: true, Fri: true, Sat: true, Sun: true}
}

// Has reports whether the flag for d is set.
func (w Weekdays) Has(d time.Weekday) bool {
	switch d {
	case time.Monday:
		return w.Mon
	case time.Tuesday:
		return w.Tue
	case time.Wednesday:
		return w.Wed
	case time.Thursday:
		return w.Thu
	case time.Friday:
		return w.Fri
	case time.Saturday:
		return w.Sat
	case time.Sunday:
		return w.Sun
	default:
		return false
	}
}

// IsZero reports whether no flag is set.
func (w Weekdays) IsZero() bool {
	return w == Weekdays{}
}

// ParseWeekdays builds a Weekdays value from 3-letter abbreviations such as
// "mon", "sat". Matching is case-insensitive.
func ParseWeekdays(names []string) (Weekdays, error) {
	var w Weekdays
	for _, n := range names {
		switch strings.ToLower(strings.TrimSpace(n)) {
		case "mon":
			w.Mon = true
		case "tue":
			w.Tue = true
		case "wed":
			w.Wed = true
		case "thu":
			w.Thu = true
		case "fri":
			w.Fri = true
		case "sat":
			w.Sat = true
		case "sun":
			w.Sun = true
		case "":
		default:
			return Weekdays{}, fmt.Errorf("%w: unknown weekday %q", ErrValidation, n)
		}
	}
	return w, nil
}

// Names returns the abbreviations of the set flags, Monday first.
func (w Weekdays) Names() []string {
	var out []string
	for _, d := range []struct {
		set  bool
		name string
	}{
		{w.Mon, "mon"}, {w.Tue, "tue"}, {w.Wed, "wed"}, {w.Thu, "thu"},
		{w.Fri, "fri"}, {w.Sat, "sat"}, {w.Sun, "sun"},
	} {
		if d.set {
			out = append(out, d.name)
		}
	}
	return out
}

// Habit is one user-defined recurring task.
//
// CompletedDates holds calendar days (midnight in the store's location), at
// most one per day. Streak and BestStreak are cached counters maintained by
// ToggleCompletion and are never recomputed from CompletedDates.
type Habit struct {
	ID             string
	Name           string
	Frequency      Frequency
	SelectedDays   Weekdays
	ReminderTime   string // "HH:MM" or empty
	CreatedAt      time.Time
	CompletedDates []time.Time
	Streak         int
	BestStreak     int
	Color          string
}

// Clone returns a deep copy of h.
func (h Habit) Clone() Habit {
	h.CompletedDates = slices.Clone(h.CompletedDates)
	return h
}

// IsCompletedOn reports whether the calendar day of date is in CompletedDates.
func (h Habit) IsCompletedOn(date time.Time) bool {
	return indexOfDay(h.CompletedDates, date) >= 0
}

// LastCompletion returns the most recent completed day, or the zero time.
func (h Habit) LastCompletion() time.Time {
	var last time.Time
	for _, d := range h.CompletedDates {
		if d.After(last) {
			last = d
		}
	}
	return last
}

// Draft is the user-supplied part of a new habit.
type Draft struct {
	Name         string
	Frequency    Frequency
	SelectedDays Weekdays
	ReminderTime string
	Color        string
}

// GenerateID creates a new opaque habit identifier.
func GenerateID() string {
	return uuid.NewString()
}

// New builds a habit from a validated draft. The caller owns id and creation time.
func New(d Draft, id string, createdAt time.Time) (Habit, error) {
	d, err := d.normalize()
	if err != nil {
		return Habit{}, err
	}
	return Habit{
		ID:             id,
		Name:           d.Name,
		Frequency:      d.Frequency,
		SelectedDays:   d.SelectedDays,
		ReminderTime:   d.ReminderTime,
		CreatedAt:      createdAt,
		CompletedDates: []time.Time{},
		Color:          d.Color,
	}, nil
}

func (d Draft) normalize() (Draft, error) {
	d.Name = strings.TrimSpace(d.Name)
	if d.Name == "" {
		return d, fmt.Errorf("%w: name must not be empty", ErrValidation)
	}
	if d.Frequency == "" {
		d.Frequency = FrequencyDaily
	}
	if !d.Frequency.Valid() {
		return d, fmt.Errorf("%w: unknown frequency %q", ErrValidation, d.Frequency)
	}
	if d.SelectedDays.IsZero() && d.Frequency != FrequencyCustom {
		d.SelectedDays = AllWeekdays()
	}
	d.ReminderTime = strings.TrimSpace(d.ReminderTime)
	if d.ReminderTime != "" {
		if _, err := time.Parse(reminderLayout, d.ReminderTime); err != nil {
			return d, fmt.Errorf("%w: reminder time %q must be HH:MM", ErrValidation, d.ReminderTime)
		}
	}
	if d.Color == "" {
		d.Color = DefaultColor
	}
	return d, nil
}

// applyEdit copies the user-editable fields of edit onto h. History and
// streak counters are left untouched.
func (h Habit) applyEdit(edit Habit) (Habit, error) {
	d, err := Draft{
		Name:         edit.Name,
		Frequency:    edit.Frequency,
		SelectedDays: edit.SelectedDays,
		ReminderTime: edit.ReminderTime,
		Color:        edit.Color,
	}.normalize()
	if err != nil {
		return h, err
	}
	if edit.Color == "" {
		d.Color = h.Color
	}
	out := h.Clone()
	out.Name = d.Name
	out.Frequency = d.Frequency
	out.SelectedDays = d.SelectedDays
	out.ReminderTime = d.ReminderTime
	out.Color = d.Color
	return out, nil
}
