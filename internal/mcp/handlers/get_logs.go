package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/btouchard/habitual/internal/store"
)

// EventReader reads the activity log. Defined at the consumer side per Go convention.
type EventReader interface {
	GetEvents(ctx context.Context, f store.EventFilter) ([]store.Event, error)
}

// GetLogs returns a handler that shows the habit activity log.
func GetLogs(events EventReader) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()

		filter := store.EventFilter{
			HabitID: stringArg(args, "habit_id"),
			Limit:   50,
		}
		if limit, ok := args["limit"].(float64); ok && int(limit) > 0 {
			filter.Limit = min(int(limit), 500)
		}

		entries, err := events.GetEvents(ctx, filter)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Cannot read activity log: %s", err)), nil
		}
		if len(entries) == 0 {
			return mcp.NewToolResultText("No activity recorded."), nil
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "📜 Activity (%d entries)\n\n", len(entries))
		for _, e := range entries {
			fmt.Fprintf(&sb, "[%s] %s %s", e.CreatedAt.Local().Format("2006-01-02 15:04:05"), e.EventType, e.HabitID)
			if e.Message != "" {
				fmt.Fprintf(&sb, ": %s", e.Message)
			}
			sb.WriteString("\n")
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}
