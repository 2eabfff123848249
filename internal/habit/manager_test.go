package habit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memSlots is an in-memory SlotStore for testing.
type memSlots struct {
	mu      sync.Mutex
	data    map[string][]byte
	saves   int
	loadErr error
	saveErr error
}

func newMemSlots() *memSlots {
	return &memSlots{data: make(map[string][]byte)}
}

func (s *memSlots) LoadSlot(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return s.data[key], nil
}

func (s *memSlots) SaveSlot(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.data[key] = value
	s.saves++
	return nil
}

func newTestManager(t *testing.T) (*Manager, *memSlots) {
	t.Helper()
	slots := newMemSlots()
	m := NewManager(slots, "habits", FixedClock(testToday), time.UTC)
	m.Load(context.Background())
	return m, slots
}

func mustCreate(t *testing.T, m *Manager, d Draft) Habit {
	t.Helper()
	h, err := m.Create(context.Background(), d)
	require.NoError(t, err)
	return h
}

func TestManager_Load_AbsentSlot_StartsEmpty(t *testing.T) {
	t.Parallel()

	m, _ := newTestManager(t)
	assert.Empty(t, m.List())
	assert.Equal(t, 0, m.Count())
}

func TestManager_Load_CorruptSlot_StartsEmpty(t *testing.T) {
	t.Parallel()

	slots := newMemSlots()
	slots.data["habits"] = []byte("{{garbage")
	m := NewManager(slots, "habits", FixedClock(testToday), time.UTC)

	m.Load(context.Background())
	assert.Empty(t, m.List())
}

func TestManager_Load_BadRecord_KeepsTheOthers(t *testing.T) {
	t.Parallel()

	slots := newMemSlots()
	slots.data["habits"] = []byte(`[
		{"id":"a","name":"a","frequency":"daily","createdAt":"garbage","completedDates":[]},
		{"id":"b","name":"b","frequency":"daily","createdAt":"2024-06-10T08:00:00Z","completedDates":[]}
	]`)
	m := NewManager(slots, "habits", FixedClock(testToday), time.UTC)
	m.Load(context.Background())

	require.Equal(t, 1, m.Count())
	_, err := m.Create(context.Background(), Draft{Name: "c"})
	require.NoError(t, err)

	reloaded := NewManager(slots, "habits", FixedClock(testToday), time.UTC)
	reloaded.Load(context.Background())
	ids := []string{}
	for _, h := range reloaded.List() {
		ids = append(ids, h.ID)
	}
	assert.Len(t, ids, 2)
	assert.Contains(t, ids, "b")
}

func TestManager_Load_ReadError_StartsEmpty(t *testing.T) {
	t.Parallel()

	slots := newMemSlots()
	slots.loadErr = errors.New("disk on fire")
	m := NewManager(slots, "habits", FixedClock(testToday), time.UTC)

	m.Load(context.Background())
	assert.Empty(t, m.List())
}

func TestManager_Create_PersistsAndReloads(t *testing.T) {
	t.Parallel()

	m, slots := newTestManager(t)
	h := mustCreate(t, m, Draft{Name: "Read", Frequency: FrequencyCustom, SelectedDays: Weekdays{Mon: true}, ReminderTime: "21:00"})

	assert.NotEmpty(t, h.ID)
	assert.Equal(t, testToday, h.CreatedAt)
	assert.Equal(t, 1, slots.saves)

	reloaded := NewManager(slots, "habits", FixedClock(testToday), time.UTC)
	reloaded.Load(context.Background())

	got, err := reloaded.Get(h.ID)
	require.NoError(t, err)
	assert.Equal(t, "Read", got.Name)
	assert.Equal(t, FrequencyCustom, got.Frequency)
	assert.Equal(t, Weekdays{Mon: true}, got.SelectedDays)
	assert.Equal(t, "21:00", got.ReminderTime)
}

func TestManager_Create_InvalidName_LeavesStateUnchanged(t *testing.T) {
	t.Parallel()

	m, slots := newTestManager(t)

	_, err := m.Create(context.Background(), Draft{Name: "   "})
	require.ErrorIs(t, err, ErrValidation)

	assert.Empty(t, m.List())
	assert.Equal(t, 0, slots.saves)
}

func TestManager_Create_KeepsStoreOrder(t *testing.T) {
	t.Parallel()

	m, _ := newTestManager(t)
	a := mustCreate(t, m, Draft{Name: "a"})
	b := mustCreate(t, m, Draft{Name: "b"})
	c := mustCreate(t, m, Draft{Name: "c"})

	list := m.List()
	require.Len(t, list, 3)
	assert.Equal(t, []string{a.ID, b.ID, c.ID}, []string{list[0].ID, list[1].ID, list[2].ID})
}

func TestManager_Update_ChangesFieldsButNotHistory(t *testing.T) {
	t.Parallel()

	m, _ := newTestManager(t)
	h := mustCreate(t, m, Draft{Name: "Run"})
	h, err := m.Toggle(context.Background(), h.ID, testToday)
	require.NoError(t, err)

	edit := h
	edit.Name = "Run 5k"
	edit.Color = "#ef4444"
	edit.Streak = 40
	edit.CompletedDates = nil

	updated, err := m.Update(context.Background(), edit)
	require.NoError(t, err)

	assert.Equal(t, "Run 5k", updated.Name)
	assert.Equal(t, "#ef4444", updated.Color)
	assert.Equal(t, 1, updated.Streak)
	assert.True(t, updated.IsCompletedOn(testToday))
}

func TestManager_Update_Errors(t *testing.T) {
	t.Parallel()

	m, _ := newTestManager(t)
	h := mustCreate(t, m, Draft{Name: "Run"})

	_, err := m.Update(context.Background(), Habit{ID: "missing", Name: "x"})
	require.ErrorIs(t, err, ErrNotFound)

	edit := h
	edit.Name = ""
	_, err = m.Update(context.Background(), edit)
	require.ErrorIs(t, err, ErrValidation)

	got, err := m.Get(h.ID)
	require.NoError(t, err)
	assert.Equal(t, "Run", got.Name)
}

func TestManager_Delete_RemovesHabit(t *testing.T) {
	t.Parallel()

	m, _ := newTestManager(t)
	h := mustCreate(t, m, Draft{Name: "Floss"})
	other := mustCreate(t, m, Draft{Name: "Walk"})

	require.NoError(t, m.Delete(context.Background(), h.ID))

	_, err := m.Get(h.ID)
	require.ErrorIs(t, err, ErrNotFound)

	active := m.ActiveHabits()
	require.Len(t, active, 1)
	assert.Equal(t, other.ID, active[0].ID)

	require.ErrorIs(t, m.Delete(context.Background(), h.ID), ErrNotFound)
}

func TestManager_Toggle_UnknownID_ReturnsNotFound(t *testing.T) {
	t.Parallel()

	m, slots := newTestManager(t)

	_, err := m.Toggle(context.Background(), "nope", testToday)
	require.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 0, slots.saves)

	_, err = m.IsCompletedOnDate("nope", testToday)
	require.ErrorIs(t, err, ErrNotFound)

	_, err = m.CompletionRate("nope", 7)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestManager_Toggle_PersistsAndEmitsEvents(t *testing.T) {
	t.Parallel()

	m, slots := newTestManager(t)

	var events []Event
	m.SetNotifyFunc(func(e Event) { events = append(events, e) })

	h := mustCreate(t, m, Draft{Name: "Journal"})
	toggled, err := m.Toggle(context.Background(), h.ID, testToday)
	require.NoError(t, err)

	assert.Equal(t, 1, toggled.Streak)
	assert.Equal(t, 2, slots.saves)

	done, err := m.IsCompletedOnDate(h.ID, testToday.Add(3*time.Hour))
	require.NoError(t, err)
	assert.True(t, done)

	var types []string
	for _, e := range events {
		types = append(types, e.Type)
	}
	assert.Equal(t, []string{EventCreated, EventCompleted, EventBestStreak}, types)

	_, err = m.Toggle(context.Background(), h.ID, testToday)
	require.NoError(t, err)
	assert.Equal(t, EventUncompleted, events[len(events)-1].Type)
}

func TestManager_SaveFailure_LeavesStateUnchanged(t *testing.T) {
	t.Parallel()

	m, slots := newTestManager(t)
	h := mustCreate(t, m, Draft{Name: "Water"})

	slots.saveErr = errors.New("read-only filesystem")

	_, err := m.Toggle(context.Background(), h.ID, testToday)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "saving habits")

	got, err := m.Get(h.ID)
	require.NoError(t, err)
	assert.False(t, got.IsCompletedOn(testToday))
	assert.Zero(t, got.Streak)

	_, err = m.Create(context.Background(), Draft{Name: "Tea"})
	require.Error(t, err)
	assert.Equal(t, 1, m.Count())

	require.Error(t, m.Delete(context.Background(), h.ID))
	assert.Equal(t, 1, m.Count())
}

func TestManager_Get_ReturnsCopy(t *testing.T) {
	t.Parallel()

	m, _ := newTestManager(t)
	h := mustCreate(t, m, Draft{Name: "Walk"})
	_, err := m.Toggle(context.Background(), h.ID, testToday)
	require.NoError(t, err)

	got, err := m.Get(h.ID)
	require.NoError(t, err)
	got.CompletedDates[0] = day(1999, 1, 1)
	got.Name = "changed"

	again, err := m.Get(h.ID)
	require.NoError(t, err)
	assert.Equal(t, "Walk", again.Name)
	assert.True(t, again.IsCompletedOn(testToday))
}

func TestManager_ActiveHabitsAndProgress(t *testing.T) {
	t.Parallel()

	m, _ := newTestManager(t)
	ctx := context.Background()

	assert.Equal(t, 0, m.TodaysProgress(), "no active habits")

	daily := mustCreate(t, m, Draft{Name: "daily"})
	mustCreate(t, m, Draft{Name: "daily 2"})
	weekly := mustCreate(t, m, Draft{Name: "weekly", Frequency: FrequencyWeekly})
	mustCreate(t, m, Draft{Name: "weekend", Frequency: FrequencyCustom, SelectedDays: Weekdays{Sat: true, Sun: true}})

	// Completing the weekly habit earlier this week (Monday) takes it off today's list.
	_, err := m.Toggle(ctx, weekly.ID, day(2024, 6, 10))
	require.NoError(t, err)

	active := m.ActiveHabits()
	require.Len(t, active, 2)
	assert.Equal(t, "daily", active[0].Name)
	assert.Equal(t, "daily 2", active[1].Name)

	assert.Equal(t, 0, m.TodaysProgress())

	_, err = m.Toggle(ctx, daily.ID, testToday)
	require.NoError(t, err)
	assert.Equal(t, 50, m.TodaysProgress())
}

func TestManager_HabitsForDate(t *testing.T) {
	t.Parallel()

	m, _ := newTestManager(t)
	mustCreate(t, m, Draft{Name: "daily"})
	mustCreate(t, m, Draft{Name: "weekend", Frequency: FrequencyCustom, SelectedDays: Weekdays{Sat: true}})

	assert.Len(t, m.HabitsForDate(testToday), 1, "today uses the due rule")
	assert.Len(t, m.HabitsForDate(day(2024, 6, 1)), 2, "other dates list every habit")
}

func TestManager_LongestStreakHabit(t *testing.T) {
	t.Parallel()

	m, _ := newTestManager(t)

	_, ok := m.LongestStreakHabit()
	assert.False(t, ok, "empty store yields no result")

	first := mustCreate(t, m, Draft{Name: "first"})
	mustCreate(t, m, Draft{Name: "second"})

	h, ok := m.LongestStreakHabit()
	require.True(t, ok)
	assert.Equal(t, first.ID, h.ID, "ties resolve to the first habit")

	third := mustCreate(t, m, Draft{Name: "third"})
	_, err := m.Toggle(context.Background(), third.ID, testToday)
	require.NoError(t, err)

	h, ok = m.LongestStreakHabit()
	require.True(t, ok)
	assert.Equal(t, third.ID, h.ID)
}

func TestManager_MostConsistentHabit(t *testing.T) {
	t.Parallel()

	m, _ := newTestManager(t)
	ctx := context.Background()

	_, ok := m.MostConsistentHabit(7)
	assert.False(t, ok)

	a := mustCreate(t, m, Draft{Name: "a"})
	b := mustCreate(t, m, Draft{Name: "b"})

	_, ok = m.MostConsistentHabit(7)
	assert.False(t, ok, "no habit has a rate above zero")

	_, err := m.Toggle(ctx, b.ID, testToday)
	require.NoError(t, err)
	h, ok := m.MostConsistentHabit(7)
	require.True(t, ok)
	assert.Equal(t, b.ID, h.ID)

	_, err = m.Toggle(ctx, a.ID, testToday)
	require.NoError(t, err)
	h, ok = m.MostConsistentHabit(7)
	require.True(t, ok)
	assert.Equal(t, a.ID, h.ID, "ties resolve to the first habit")

	rate, err := m.CompletionRate(a.ID, 7)
	require.NoError(t, err)
	assert.Equal(t, 14, rate)
}

func TestManager_TotalDaysTracked(t *testing.T) {
	t.Parallel()

	slots := newMemSlots()
	slots.data["habits"] = []byte(`[
		{"id":"a","name":"a","frequency":"daily","createdAt":"2024-06-02T10:00:00Z","completedDates":[],"streak":0,"bestStreak":0,"color":""},
		{"id":"b","name":"b","frequency":"daily","createdAt":"2024-06-10T22:00:00Z","completedDates":[],"streak":0,"bestStreak":0,"color":""}
	]`)
	m := NewManager(slots, "habits", FixedClock(testToday), time.UTC)
	m.Load(context.Background())

	assert.Equal(t, 10, m.TotalDaysTracked())

	empty, _ := newTestManager(t)
	assert.Equal(t, 0, empty.TotalDaysTracked())
}

func TestManager_Stats(t *testing.T) {
	t.Parallel()

	m, _ := newTestManager(t)
	ctx := context.Background()

	a := mustCreate(t, m, Draft{Name: "a"})
	mustCreate(t, m, Draft{Name: "b"})
	_, err := m.Toggle(ctx, a.ID, testToday)
	require.NoError(t, err)

	s := m.Stats(7)

	assert.Equal(t, 7, s.WindowDays)
	assert.Equal(t, 2, s.TotalHabits)
	assert.Equal(t, 50, s.TodaysProgress)
	require.NotNil(t, s.LongestStreak)
	assert.Equal(t, a.ID, s.LongestStreak.ID)
	require.NotNil(t, s.MostConsistent)
	assert.Equal(t, a.ID, s.MostConsistent.ID)
	require.Len(t, s.Rates, 2)
	assert.Equal(t, 14, s.Rates[0].Rate)
	assert.Equal(t, 0, s.Rates[1].Rate)
}

func TestManager_BestStreakInvariant_AcrossOperations(t *testing.T) {
	t.Parallel()

	m, _ := newTestManager(t)
	ctx := context.Background()

	h := mustCreate(t, m, Draft{Name: "a"})
	dates := []time.Time{testToday, day(2024, 6, 11), testToday, testToday, day(2024, 6, 1), testToday}
	for _, d := range dates {
		_, err := m.Toggle(ctx, h.ID, d)
		require.NoError(t, err)
		for _, got := range m.List() {
			require.GreaterOrEqual(t, got.BestStreak, got.Streak)
		}
	}
}
