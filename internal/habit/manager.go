package habit

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"
)

// SlotStore is the durable key-value storage holding the serialized collection.
// LoadSlot returns nil data and a nil error when the slot does not exist.
type SlotStore interface {
	LoadSlot(ctx context.Context, key string) ([]byte, error)
	SaveSlot(ctx context.Context, key string, value []byte) error
}

// Event types emitted by the Manager.
const (
	EventCreated     = "habit.created"
	EventUpdated     = "habit.updated"
	EventDeleted     = "habit.deleted"
	EventCompleted   = "habit.completed"
	EventUncompleted = "habit.uncompleted"
	EventBestStreak  = "habit.streak"
)

// Event represents a habit state change for notification dispatch.
type Event struct {
	Type    string
	HabitID string
	Name    string
	Message string
	At      time.Time
}

// NotifyFunc is called after a mutation has been persisted.
type NotifyFunc func(Event)

// Manager is the Habit Store: it owns the ordered collection, applies the
// engine rules and writes the whole collection back after every mutation.
type Manager struct {
	mu     sync.RWMutex
	habits []Habit

	slots    SlotStore
	slot     string
	clock    Clock
	loc      *time.Location
	onNotify NotifyFunc
}

// NewManager creates an empty Manager. Call Load to read the persisted state.
func NewManager(slots SlotStore, slot string, clock Clock, loc *time.Location) *Manager {
	if clock == nil {
		clock = RealClock{}
	}
	if loc == nil {
		loc = time.Local
	}
	if slot == "" {
		slot = "habits"
	}
	return &Manager{
		slots: slots,
		slot:  slot,
		clock: clock,
		loc:   loc,
	}
}

// SetNotifyFunc sets the callback for habit lifecycle events.
func (m *Manager) SetNotifyFunc(fn NotifyFunc) {
	m.onNotify = fn
}

// Location returns the time zone used to decide calendar days.
func (m *Manager) Location() *time.Location {
	return m.loc
}

// Today returns the current instant in the store's time zone.
func (m *Manager) Today() time.Time {
	return m.clock.Now().In(m.loc)
}

// Load replaces the in-memory collection with the persisted one.
// A missing slot yields an empty collection; read and parse failures are
// logged and also yield an empty collection.
func (m *Manager) Load(ctx context.Context) {
	var habits []Habit

	data, err := m.slots.LoadSlot(ctx, m.slot)
	switch {
	case err != nil:
		slog.Warn("failed to read habits, starting empty", "slot", m.slot, "error", err)
	default:
		habits, err = Decode(data, m.loc)
		if err != nil {
			slog.Warn("failed to parse habits, starting empty", "slot", m.slot, "error", err)
			habits = nil
		}
	}

	m.mu.Lock()
	m.habits = habits
	m.mu.Unlock()

	slog.Info("habits loaded", "slot", m.slot, "count", len(habits))
}

// Create validates d, appends a new habit and persists the collection.
func (m *Manager) Create(ctx context.Context, d Draft) (Habit, error) {
	h, err := New(d, GenerateID(), m.clock.Now().In(m.loc))
	if err != nil {
		return Habit{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	next := append(slices.Clone(m.habits), h)
	if err := m.commit(ctx, next); err != nil {
		return Habit{}, err
	}

	slog.Info("habit created",
		"habit_id", h.ID,
		"name", h.Name,
		"frequency", string(h.Frequency))
	m.emit(EventCreated, h, "habit created")

	return h.Clone(), nil
}

// Update applies the editable fields of edit (name, frequency, selected days,
// reminder, color) to the stored habit with the same ID. Completion history
// and streak counters are never changed by an edit.
func (m *Manager) Update(ctx context.Context, edit Habit) (Habit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOf(edit.ID)
	if i < 0 {
		return Habit{}, fmt.Errorf("%w: %q", ErrNotFound, edit.ID)
	}

	updated, err := m.habits[i].applyEdit(edit)
	if err != nil {
		return Habit{}, err
	}

	next := slices.Clone(m.habits)
	next[i] = updated
	if err := m.commit(ctx, next); err != nil {
		return Habit{}, err
	}

	slog.Info("habit updated", "habit_id", updated.ID)
	m.emit(EventUpdated, updated, "habit updated")

	return updated.Clone(), nil
}

// Delete removes a habit irrevocably.
func (m *Manager) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %q", ErrNotFound, id)
	}

	removed := m.habits[i]
	next := slices.Delete(slices.Clone(m.habits), i, i+1)
	if err := m.commit(ctx, next); err != nil {
		return err
	}

	slog.Info("habit deleted", "habit_id", id)
	m.emit(EventDeleted, removed, "habit deleted")

	return nil
}

// Toggle flips the completion of date's calendar day for habit id.
func (m *Manager) Toggle(ctx context.Context, id string, date time.Time) (Habit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOf(id)
	if i < 0 {
		return Habit{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}

	before := m.habits[i]
	date = date.In(m.loc)
	after := ToggleCompletion(before, date, m.Today())

	next := slices.Clone(m.habits)
	next[i] = after
	if err := m.commit(ctx, next); err != nil {
		return Habit{}, err
	}

	completed := after.IsCompletedOn(date)
	slog.Info("habit toggled",
		"habit_id", id,
		"date", FormatDate(date),
		"completed", completed,
		"streak", after.Streak)

	if completed {
		m.emit(EventCompleted, after, fmt.Sprintf("completed on %s (streak %d)", FormatDate(date), after.Streak))
	} else {
		m.emit(EventUncompleted, after, fmt.Sprintf("un-completed on %s (streak %d)", FormatDate(date), after.Streak))
	}
	if after.BestStreak > before.BestStreak {
		m.emit(EventBestStreak, after, fmt.Sprintf("new best streak: %d", after.BestStreak))
	}

	return after.Clone(), nil
}

// IsCompletedOnDate reports whether habit id was completed on date's calendar day.
func (m *Manager) IsCompletedOnDate(id string, date time.Time) (bool, error) {
	h, err := m.Get(id)
	if err != nil {
		return false, err
	}
	return h.IsCompletedOn(date.In(m.loc)), nil
}

// Get returns a copy of the habit with the given id.
func (m *Manager) Get(id string) (Habit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	i := m.indexOf(id)
	if i < 0 {
		return Habit{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return m.habits[i].Clone(), nil
}

// List returns copies of all habits in store order.
func (m *Manager) List() []Habit {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return cloneAll(m.habits)
}

// Count returns the number of stored habits.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.habits)
}

// IsDueToday reports whether h is due today in the store's time zone.
func (m *Manager) IsDueToday(h Habit) bool {
	return IsDue(h, m.Today())
}

// ActiveHabits returns the habits due today, in store order.
func (m *Manager) ActiveHabits() []Habit {
	today := m.Today()

	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Habit
	for _, h := range m.habits {
		if IsDue(h, today) {
			out = append(out, h.Clone())
		}
	}
	return out
}

// TodaysProgress returns the rounded percentage of today's active habits
// already completed today, or 0 when nothing is due.
func (m *Manager) TodaysProgress() int {
	return todaysProgress(m.ActiveHabits(), m.Today())
}

func todaysProgress(active []Habit, today time.Time) int {
	done := 0
	for _, h := range active {
		if h.IsCompletedOn(today) {
			done++
		}
	}
	return percent(done, len(active))
}

// CompletionRate returns the completion rate of habit id over windowDays days.
func (m *Manager) CompletionRate(id string, windowDays int) (int, error) {
	h, err := m.Get(id)
	if err != nil {
		return 0, err
	}
	return CompletionRate(h, windowDays, m.Today()), nil
}

// HabitsForDate lists the habits to show for a calendar date: the active
// habits for today, every habit for any other date.
func (m *Manager) HabitsForDate(date time.Time) []Habit {
	if SameDay(m.Today(), date) {
		return m.ActiveHabits()
	}
	return m.List()
}

// commit persists next and, on success, makes it the current collection.
// Callers must hold the write lock.
func (m *Manager) commit(ctx context.Context, next []Habit) error {
	data, err := Encode(next)
	if err != nil {
		return err
	}
	if err := m.slots.SaveSlot(ctx, m.slot, data); err != nil {
		return fmt.Errorf("saving habits: %w", err)
	}
	m.habits = next
	return nil
}

func (m *Manager) indexOf(id string) int {
	return slices.IndexFunc(m.habits, func(h Habit) bool { return h.ID == id })
}

// emit sends an event to the notify callback if one is set.
func (m *Manager) emit(eventType string, h Habit, message string) {
	if m.onNotify == nil {
		return
	}
	m.onNotify(Event{
		Type:    eventType,
		HabitID: h.ID,
		Name:    h.Name,
		Message: message,
		At:      m.clock.Now(),
	})
}

func cloneAll(habits []Habit) []Habit {
	out := make([]Habit, len(habits))
	for i, h := range habits {
		out[i] = h.Clone()
	}
	return out
}
