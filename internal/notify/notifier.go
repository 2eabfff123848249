package notify

import (
	"sync"
	"time"

	"github.com/btouchard/habitual/internal/habit"
)

// Event represents a habit lifecycle notification.
type Event struct {
	Type    string // "habit.created", "habit.completed", "habit.streak", ...
	HabitID string
	Name    string
	Message string
	At      time.Time
}

// Notifier receives habit lifecycle notifications.
type Notifier interface {
	Notify(event Event)
}

// NotifierFunc adapts a plain function to the Notifier interface.
type NotifierFunc func(Event)

// Notify calls f(event).
func (f NotifierFunc) Notify(event Event) { f(event) }

// Hub dispatches events to multiple notifiers. Each delivery runs on its own
// goroutine so a slow notifier never blocks a store mutation.
type Hub struct {
	notifiers []Notifier
	wg        sync.WaitGroup
}

// NewHub creates a Hub with the given notifiers.
func NewHub(notifiers ...Notifier) *Hub {
	return &Hub{notifiers: notifiers}
}

// Notify sends an event to all registered notifiers.
func (h *Hub) Notify(event Event) {
	for _, n := range h.notifiers {
		h.wg.Add(1)
		go func() {
			defer h.wg.Done()
			n.Notify(event)
		}()
	}
}

// Wait blocks until every in-flight delivery has returned.
func (h *Hub) Wait() {
	h.wg.Wait()
}

// FromHabit adapts a Notifier to the habit manager's callback.
func FromHabit(n Notifier) habit.NotifyFunc {
	return func(e habit.Event) {
		n.Notify(Event{
			Type:    e.Type,
			HabitID: e.HabitID,
			Name:    e.Name,
			Message: e.Message,
			At:      e.At,
		})
	}
}
