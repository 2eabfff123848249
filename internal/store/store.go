package store

import (
	"context"
	"time"
)

// Store is the persistence interface for habitual.
type Store interface {
	// Named slots. LoadSlot returns nil data and a nil error when the slot does not exist.
	LoadSlot(ctx context.Context, key string) ([]byte, error)
	SaveSlot(ctx context.Context, key string, value []byte) error

	// Activity log
	AddEvent(ctx context.Context, e *Event) error
	GetEvents(ctx context.Context, f EventFilter) ([]Event, error)

	// Maintenance
	Cleanup(ctx context.Context, before time.Time) (int64, error)
	Close() error
}

// Event is one entry of the habit activity log.
type Event struct {
	ID        int64
	HabitID   string
	EventType string
	Message   string
	CreatedAt time.Time
}

// EventFilter specifies criteria for listing events.
type EventFilter struct {
	HabitID string
	Limit   int
	Since   time.Time
}
