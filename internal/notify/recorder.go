package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/btouchard/habitual/internal/store"
)

// EventWriter is the part of the store the recorder needs.
type EventWriter interface {
	AddEvent(ctx context.Context, e *store.Event) error
}

// LogRecorder persists every event into the activity log.
type LogRecorder struct {
	events  EventWriter
	timeout time.Duration
}

// NewLogRecorder creates a LogRecorder writing to events.
func NewLogRecorder(events EventWriter) *LogRecorder {
	return &LogRecorder{events: events, timeout: 5 * time.Second}
}

// Notify writes the event. Failures are logged and dropped.
func (r *LogRecorder) Notify(event Event) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	e := &store.Event{
		HabitID:   event.HabitID,
		EventType: event.Type,
		Message:   event.Message,
		CreatedAt: event.At,
	}
	if err := r.events.AddEvent(ctx, e); err != nil {
		slog.Warn("failed to record habit event",
			"habit_id", event.HabitID,
			"type", event.Type,
			"error", err)
	}
}
