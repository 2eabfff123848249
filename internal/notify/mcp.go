package notify

import (
	"log/slog"
)

// MCPSender abstracts the mcp-go server notification method.
// Defined consumer-side per Go convention.
type MCPSender interface {
	SendNotificationToAllClients(method string, params map[string]any)
}

// MCPNotifier pushes habit updates to connected MCP clients.
type MCPNotifier struct {
	sender MCPSender
}

// NewMCPNotifier creates an MCPNotifier broadcasting through sender.
func NewMCPNotifier(sender MCPSender) *MCPNotifier {
	return &MCPNotifier{sender: sender}
}

// Notify sends a notifications/message for the given event.
func (n *MCPNotifier) Notify(event Event) {
	level, ok := levels[event.Type]
	if !ok {
		slog.Debug("mcp notifier: unknown event type", "type", event.Type)
		return
	}

	params := map[string]any{
		"level":  level,
		"logger": "habitual",
		"data": map[string]any{
			"type":     event.Type,
			"habit_id": event.HabitID,
			"name":     event.Name,
			"message":  event.Message,
		},
	}
	n.sender.SendNotificationToAllClients("notifications/message", params)
}

var levels = map[string]string{
	"habit.created":     "info",
	"habit.updated":     "info",
	"habit.completed":   "info",
	"habit.uncompleted": "info",
	"habit.streak":      "notice",
	"habit.deleted":     "warning",
}
