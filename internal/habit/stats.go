package habit

import (
	"math"
	"time"
)

// LongestStreakHabit returns the habit with the highest BestStreak. Ties go
// to the first habit in store order. ok is false when the store is empty.
func (m *Manager) LongestStreakHabit() (Habit, bool) {
	return longestStreak(m.List())
}

func longestStreak(habits []Habit) (Habit, bool) {
	if len(habits) == 0 {
		return Habit{}, false
	}
	best := habits[0]
	for _, h := range habits[1:] {
		if h.BestStreak > best.BestStreak {
			best = h
		}
	}
	return best, true
}

// MostConsistentHabit returns the habit with the highest completion rate over
// windowDays. Ties go to the first habit in store order. ok is false when the
// store is empty or no habit has a rate above zero.
func (m *Manager) MostConsistentHabit(windowDays int) (Habit, bool) {
	return mostConsistent(m.List(), windowDays, m.Today())
}

func mostConsistent(habits []Habit, windowDays int, today time.Time) (Habit, bool) {
	var best Habit
	bestRate := 0
	found := false
	for _, h := range habits {
		if rate := CompletionRate(h, windowDays, today); rate > bestRate {
			best, bestRate, found = h, rate, true
		}
	}
	return best, found
}

// TotalDaysTracked returns the number of days, rounded up, since the oldest
// habit was created. An empty store tracks 0 days.
func (m *Manager) TotalDaysTracked() int {
	return totalDaysTracked(m.List(), m.clock.Now())
}

func totalDaysTracked(habits []Habit, now time.Time) int {
	if len(habits) == 0 {
		return 0
	}
	oldest := habits[0].CreatedAt
	for _, h := range habits[1:] {
		if h.CreatedAt.Before(oldest) {
			oldest = h.CreatedAt
		}
	}
	diff := now.Sub(oldest).Abs()
	return int(math.Ceil(diff.Hours() / 24))
}

// HabitRate pairs a habit with its completion rate over a window.
type HabitRate struct {
	Habit Habit
	Rate  int
}

// Stats is a point-in-time summary for the statistics view.
type Stats struct {
	WindowDays       int
	TotalHabits      int
	TotalDaysTracked int
	TodaysProgress   int
	LongestStreak    *Habit
	MostConsistent   *Habit
	Rates            []HabitRate
}

// Stats computes the statistics view over windowDays from one consistent
// snapshot of the collection.
func (m *Manager) Stats(windowDays int) Stats {
	habits := m.List()
	now := m.clock.Now()
	today := now.In(m.loc)

	var active []Habit
	for _, h := range habits {
		if IsDue(h, today) {
			active = append(active, h)
		}
	}

	s := Stats{
		WindowDays:       windowDays,
		TotalHabits:      len(habits),
		TotalDaysTracked: totalDaysTracked(habits, now),
		TodaysProgress:   todaysProgress(active, today),
		Rates:            make([]HabitRate, 0, len(habits)),
	}
	if h, ok := longestStreak(habits); ok {
		s.LongestStreak = &h
	}
	if h, ok := mostConsistent(habits, windowDays, today); ok {
		s.MostConsistent = &h
	}
	for _, h := range habits {
		s.Rates = append(s.Rates, HabitRate{Habit: h, Rate: CompletionRate(h, windowDays, today)})
	}
	return s
}
