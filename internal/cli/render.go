// Package cli renders habit views for the terminal.
package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/btouchard/habitual/internal/habit"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	doneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true)  // Green
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("226")).Bold(true) // Yellow
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	labelStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
)

const (
	markDone    = "✓"
	markPending = "·"
	barWidth    = 20
	historyDays = 7
)

// ProgressBar renders pct (0-100) as a fixed-width bar.
func ProgressBar(pct, width int) string {
	pct = min(max(pct, 0), 100)
	filled := pct * width / 100
	return doneStyle.Render(strings.Repeat("█", filled)) +
		mutedStyle.Render(strings.Repeat("░", width-filled))
}

// History renders the last days completion marks of h, oldest first.
func History(h habit.Habit, today time.Time, days int) string {
	var sb strings.Builder
	start := habit.StartOfDay(today)
	for i := days - 1; i >= 0; i-- {
		if h.IsCompletedOn(start.AddDate(0, 0, -i)) {
			sb.WriteString(doneStyle.Render("●"))
		} else {
			sb.WriteString(mutedStyle.Render("○"))
		}
	}
	return sb.String()
}

func mark(done bool) string {
	if done {
		return doneStyle.Render(markDone)
	}
	return pendingStyle.Render(markPending)
}

func schedule(h habit.Habit) string {
	if h.Frequency == habit.FrequencyCustom {
		return "custom " + strings.Join(h.SelectedDays.Names(), ",")
	}
	return string(h.Frequency)
}

// nameWidth returns the display width of the longest name.
func nameWidth(habits []habit.Habit) int {
	w := 0
	for _, h := range habits {
		w = max(w, lipgloss.Width(h.Name))
	}
	return w
}

func pad(s string, width int) string {
	return s + strings.Repeat(" ", max(width-lipgloss.Width(s), 0))
}

// RenderList writes every habit with its schedule, streaks and last week.
func RenderList(w io.Writer, habits []habit.Habit, today time.Time) {
	if len(habits) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("No habits yet. Add one with: habitual add NAME"))
		return
	}

	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("Habits (%d)", len(habits))))
	width := nameWidth(habits)
	for _, h := range habits {
		fmt.Fprintf(w, "%s %s  %s  %s  streak %d (best %d)  %s\n",
			mark(h.IsCompletedOn(today)),
			pad(h.Name, width),
			History(h, today, historyDays),
			mutedStyle.Render(pad(schedule(h), 18)),
			h.Streak, h.BestStreak,
			mutedStyle.Render(h.ID))
	}
}

// RenderToday writes the habits due today and the day's progress.
func RenderToday(w io.Writer, active []habit.Habit, today time.Time, progress int) {
	fmt.Fprintln(w, headerStyle.Render(today.Format("Monday 2 January 2006")))
	if len(active) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("Nothing due today."))
		return
	}

	width := nameWidth(active)
	for _, h := range active {
		line := fmt.Sprintf("%s %s  streak %d", mark(h.IsCompletedOn(today)), pad(h.Name, width), h.Streak)
		if h.ReminderTime != "" {
			line += mutedStyle.Render("  ⏰ " + h.ReminderTime)
		}
		fmt.Fprintln(w, line)
	}
	fmt.Fprintf(w, "\n%s %d%%\n", ProgressBar(progress, barWidth), progress)
}

// RenderHabit writes the details of one habit.
func RenderHabit(w io.Writer, h habit.Habit, today time.Time) {
	field := func(label, value string) {
		fmt.Fprintf(w, "%s %s\n", labelStyle.Render(pad(label+":", 12)), value)
	}
	fmt.Fprintln(w, headerStyle.Render(h.Name))
	field("ID", h.ID)
	field("Schedule", schedule(h))
	if h.ReminderTime != "" {
		field("Reminder", h.ReminderTime)
	}
	field("Color", h.Color)
	field("Created", habit.FormatDate(h.CreatedAt))
	field("Streak", fmt.Sprintf("%d (best %d)", h.Streak, h.BestStreak))
	field("Last week", History(h, today, historyDays))
}

// RenderToggle writes the outcome of a completion toggle.
func RenderToggle(w io.Writer, h habit.Habit, date time.Time) {
	done := h.IsCompletedOn(date)
	state := "not done"
	if done {
		state = "done"
	}
	fmt.Fprintf(w, "%s %s marked %s for %s  streak %d (best %d)\n",
		mark(done), h.Name, state, habit.FormatDate(date), h.Streak, h.BestStreak)
}

// RenderStats writes the statistics view.
func RenderStats(w io.Writer, s habit.Stats) {
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("Statistics, last %d days", s.WindowDays)))
	if s.TotalHabits == 0 {
		fmt.Fprintln(w, mutedStyle.Render("No habits yet."))
		return
	}

	fmt.Fprintf(w, "%s %d\n", labelStyle.Render("Habits:"), s.TotalHabits)
	fmt.Fprintf(w, "%s %d\n", labelStyle.Render("Days tracked:"), s.TotalDaysTracked)
	fmt.Fprintf(w, "%s %s %d%%\n", labelStyle.Render("Today:"), ProgressBar(s.TodaysProgress, barWidth), s.TodaysProgress)
	if s.LongestStreak != nil {
		fmt.Fprintf(w, "%s %s (%d days)\n", labelStyle.Render("Longest streak:"), s.LongestStreak.Name, s.LongestStreak.BestStreak)
	}
	if s.MostConsistent != nil {
		fmt.Fprintf(w, "%s %s\n", labelStyle.Render("Most consistent:"), s.MostConsistent.Name)
	}

	fmt.Fprintln(w)
	habits := make([]habit.Habit, 0, len(s.Rates))
	for _, r := range s.Rates {
		habits = append(habits, r.Habit)
	}
	width := nameWidth(habits)
	for _, r := range s.Rates {
		fmt.Fprintf(w, "%s  %s %3d%%\n", pad(r.Habit.Name, width), ProgressBar(r.Rate, barWidth), r.Rate)
	}
}

// RenderCalendar writes the habits for date with their completion state.
func RenderCalendar(w io.Writer, date time.Time, habits []habit.Habit) {
	fmt.Fprintln(w, headerStyle.Render(date.Format("Monday 2 January 2006")))
	if len(habits) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("No habits for this date."))
		return
	}
	done := 0
	for _, h := range habits {
		completed := h.IsCompletedOn(date)
		if completed {
			done++
		}
		fmt.Fprintf(w, "%s %s\n", mark(completed), h.Name)
	}
	fmt.Fprintf(w, "\n%d of %d completed\n", done, len(habits))
}

// RenderError writes err in the error style.
func RenderError(w io.Writer, err error) {
	fmt.Fprintln(w, errorStyle.Render("error: ")+err.Error())
}
