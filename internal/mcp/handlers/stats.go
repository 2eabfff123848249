package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/btouchard/habitual/internal/habit"
)

// maxWindowDays bounds the completion-rate window accepted from clients.
const maxWindowDays = 3650

// GetStats returns a handler that summarizes streaks and completion rates.
func GetStats(hm *habit.Manager, defaultWindow int) server.ToolHandlerFunc {
	if defaultWindow <= 0 {
		defaultWindow = 30
	}
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()

		window := defaultWindow
		if w, ok := args["window_days"].(float64); ok && int(w) > 0 {
			window = min(int(w), maxWindowDays)
		}

		s := hm.Stats(window)
		if s.TotalHabits == 0 {
			return mcp.NewToolResultText("No habits yet, nothing to report."), nil
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "📊 Statistics (last %d days)\n\n", s.WindowDays)
		fmt.Fprintf(&sb, "- Habits: %d\n", s.TotalHabits)
		fmt.Fprintf(&sb, "- Days tracked: %d\n", s.TotalDaysTracked)
		fmt.Fprintf(&sb, "- Today's progress: %d%%\n", s.TodaysProgress)
		if s.LongestStreak != nil {
			fmt.Fprintf(&sb, "- Longest streak: %s (%d days)\n", s.LongestStreak.Name, s.LongestStreak.BestStreak)
		}
		if s.MostConsistent != nil {
			fmt.Fprintf(&sb, "- Most consistent: %s\n", s.MostConsistent.Name)
		}

		sb.WriteString("\nCompletion rates:\n")
		for _, r := range s.Rates {
			fmt.Fprintf(&sb, "- %s: %d%% (streak %d, best %d)\n", r.Habit.Name, r.Rate, r.Habit.Streak, r.Habit.BestStreak)
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

// GetCalendar returns a handler that lists the habits for a date with their
// completion state on that date.
func GetCalendar(hm *habit.Manager) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		date, err := dateArg(req.GetArguments(), "date", hm)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		habits := hm.HabitsForDate(date)

		var sb strings.Builder
		fmt.Fprintf(&sb, "📅 %s\n\n", date.Format("Monday 2 January 2006"))
		if len(habits) == 0 {
			sb.WriteString("No habits for this date.\n")
			return mcp.NewToolResultText(sb.String()), nil
		}

		done := 0
		for _, h := range habits {
			completed := h.IsCompletedOn(date)
			if completed {
				done++
			}
			fmt.Fprintf(&sb, "%s %s (%s)\n", checkbox(completed), h.Name, h.ID)
		}
		fmt.Fprintf(&sb, "\n%d of %d completed\n", done, len(habits))
		return mcp.NewToolResultText(sb.String()), nil
	}
}
