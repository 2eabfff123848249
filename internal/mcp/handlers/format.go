package handlers

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/btouchard/habitual/internal/habit"
)

// MutationRecorder counts store mutations. Defined at the consumer side per Go convention.
type MutationRecorder interface {
	RecordMutation(op string, err error)
}

type noopRecorder struct{}

func (noopRecorder) RecordMutation(string, error) {}

func recorderOrNoop(r MutationRecorder) MutationRecorder {
	if r == nil {
		return noopRecorder{}
	}
	return r
}

// errorResult maps engine errors to tool errors.
func errorResult(action string, err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, habit.ErrNotFound), errors.Is(err, habit.ErrValidation):
		return mcp.NewToolResultError(err.Error())
	default:
		return mcp.NewToolResultError(fmt.Sprintf("Cannot %s: %s", action, err))
	}
}

func stringArg(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return strings.TrimSpace(s)
}

// stringSlice accepts a JSON array of strings or a comma-separated string.
func stringSlice(v any) ([]string, bool) {
	switch vv := v.(type) {
	case []any:
		out := make([]string, 0, len(vv))
		for _, item := range vv {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	case []string:
		return vv, true
	case string:
		return strings.Split(vv, ","), true
	default:
		return nil, false
	}
}

// dateArg parses an optional YYYY-MM-DD argument, defaulting to today.
func dateArg(args map[string]any, key string, hm *habit.Manager) (time.Time, error) {
	s := stringArg(args, key)
	if s == "" {
		return hm.Today(), nil
	}
	return habit.ParseDate(s, hm.Location())
}

func frequencyLabel(h habit.Habit) string {
	if h.Frequency == habit.FrequencyCustom {
		days := h.SelectedDays.Names()
		if len(days) == 0 {
			return "custom (no days)"
		}
		return "custom (" + strings.Join(days, ", ") + ")"
	}
	return string(h.Frequency)
}

func checkbox(done bool) string {
	if done {
		return "✅"
	}
	return "⬜"
}

// writeHabit renders a habit as a short markdown block.
func writeHabit(sb *strings.Builder, h habit.Habit, done bool) {
	fmt.Fprintf(sb, "%s **%s** (%s)\n", checkbox(done), h.Name, h.ID)
	fmt.Fprintf(sb, "  Frequency: %s | Streak: %d | Best: %d\n", frequencyLabel(h), h.Streak, h.BestStreak)
	if h.ReminderTime != "" {
		fmt.Fprintf(sb, "  Reminder: %s\n", h.ReminderTime)
	}
	if last := h.LastCompletion(); !last.IsZero() {
		fmt.Fprintf(sb, "  Last done: %s\n", habit.FormatDate(last))
	}
}
