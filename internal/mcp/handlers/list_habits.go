package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/btouchard/habitual/internal/habit"
)

// ListHabits returns a handler that lists every stored habit.
func ListHabits(hm *habit.Manager) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		habits := hm.List()
		if len(habits) == 0 {
			return mcp.NewToolResultText("No habits yet. Use create_habit to add one."), nil
		}

		today := hm.Today()
		var sb strings.Builder
		fmt.Fprintf(&sb, "📋 Habits (%d)\n\n", len(habits))
		for _, h := range habits {
			writeHabit(&sb, h, h.IsCompletedOn(today))
			if !hm.IsDueToday(h) {
				sb.WriteString("  Not due today\n")
			}
			sb.WriteString("\n")
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

// GetToday returns a handler that lists the habits due today with the
// day's progress.
func GetToday(hm *habit.Manager) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		today := hm.Today()
		active := hm.ActiveHabits()

		var sb strings.Builder
		fmt.Fprintf(&sb, "📅 Today, %s\n\n", today.Format("Monday 2 January 2006"))

		if len(active) == 0 {
			sb.WriteString("Nothing due today.\n")
			return mcp.NewToolResultText(sb.String()), nil
		}

		done := 0
		for _, h := range active {
			completed := h.IsCompletedOn(today)
			if completed {
				done++
			}
			writeHabit(&sb, h, completed)
		}
		fmt.Fprintf(&sb, "\nProgress: %d/%d (%d%%)\n", done, len(active), hm.TodaysProgress())
		return mcp.NewToolResultText(sb.String()), nil
	}
}
