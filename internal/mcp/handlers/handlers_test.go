package handlers

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/btouchard/habitual/internal/habit"
	"github.com/btouchard/habitual/internal/store"
)

// testNow is a Wednesday.
var testNow = time.Date(2024, 6, 12, 10, 0, 0, 0, time.UTC)

func newTestDeps(t *testing.T) (*habit.Manager, *store.SQLiteStore) {
	t.Helper()
	db, err := store.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	hm := habit.NewManager(db, "habits", habit.FixedClock(testNow), time.UTC)
	hm.Load(context.Background())
	return hm, db
}

func makeReq(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.NotEmpty(t, result.Content)
	return result.Content[0].(mcp.TextContent).Text
}

func mustCreate(t *testing.T, hm *habit.Manager, d habit.Draft) habit.Habit {
	t.Helper()
	h, err := hm.Create(context.Background(), d)
	require.NoError(t, err)
	return h
}

type countingRecorder struct {
	mu    sync.Mutex
	calls map[string]int
}

func (r *countingRecorder) RecordMutation(op string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.calls == nil {
		r.calls = map[string]int{}
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.calls[op+"/"+result]++
}

// --- CreateHabit ---

func TestCreateHabit_WhenValid_CreatesAndReturnsID(t *testing.T) {
	t.Parallel()
	hm, _ := newTestDeps(t)
	rec := &countingRecorder{}

	result, err := CreateHabit(hm, rec)(context.Background(), makeReq(map[string]any{
		"name":          "Read",
		"reminder_time": "07:30",
	}))
	require.NoError(t, err)
	assert.False(t, result.IsError)

	habits := hm.List()
	require.Len(t, habits, 1)
	assert.Equal(t, habit.FrequencyDaily, habits[0].Frequency)
	assert.Contains(t, resultText(t, result), habits[0].ID)
	assert.Equal(t, 1, rec.calls["create/ok"])
}

func TestCreateHabit_WhenCustomDays_ParsesDays(t *testing.T) {
	t.Parallel()
	hm, _ := newTestDeps(t)

	result, err := CreateHabit(hm, nil)(context.Background(), makeReq(map[string]any{
		"name":      "Long run",
		"frequency": "custom",
		"days":      []any{"sat", "sun"},
	}))
	require.NoError(t, err)
	assert.False(t, result.IsError)

	h := hm.List()[0]
	assert.Equal(t, habit.Weekdays{Sat: true, Sun: true}, h.SelectedDays)
	assert.Contains(t, resultText(t, result), "custom (sat, sun)")
}

func TestCreateHabit_WhenMissingName_ReturnsError(t *testing.T) {
	t.Parallel()
	hm, _ := newTestDeps(t)

	result, err := CreateHabit(hm, nil)(context.Background(), makeReq(map[string]any{"name": "   "}))
	require.NoError(t, err)

	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "name is required")
	assert.Zero(t, hm.Count())
}

func TestCreateHabit_WhenUnknownFrequency_ReturnsValidationError(t *testing.T) {
	t.Parallel()
	hm, _ := newTestDeps(t)
	rec := &countingRecorder{}

	result, err := CreateHabit(hm, rec)(context.Background(), makeReq(map[string]any{
		"name":      "Read",
		"frequency": "hourly",
	}))
	require.NoError(t, err)

	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "unknown frequency")
	assert.Equal(t, 1, rec.calls["create/error"])
}

func TestCreateHabit_WhenBadWeekday_ReturnsError(t *testing.T) {
	t.Parallel()
	hm, _ := newTestDeps(t)

	result, err := CreateHabit(hm, nil)(context.Background(), makeReq(map[string]any{
		"name":      "Read",
		"frequency": "custom",
		"days":      []any{"funday"},
	}))
	require.NoError(t, err)

	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "funday")
}

// --- UpdateHabit ---

func TestUpdateHabit_WhenPartialArgs_KeepsOtherFields(t *testing.T) {
	t.Parallel()
	hm, _ := newTestDeps(t)
	h := mustCreate(t, hm, habit.Draft{Name: "Read", ReminderTime: "08:00", Color: "#ff0000"})

	result, err := UpdateHabit(hm, nil)(context.Background(), makeReq(map[string]any{
		"id":   h.ID,
		"name": "Read fiction",
	}))
	require.NoError(t, err)
	assert.False(t, result.IsError)

	got, err := hm.Get(h.ID)
	require.NoError(t, err)
	assert.Equal(t, "Read fiction", got.Name)
	assert.Equal(t, "08:00", got.ReminderTime)
	assert.Equal(t, "#ff0000", got.Color)
}

func TestUpdateHabit_WhenNotFound_ReturnsError(t *testing.T) {
	t.Parallel()
	hm, _ := newTestDeps(t)

	result, err := UpdateHabit(hm, nil)(context.Background(), makeReq(map[string]any{
		"id":   "nope",
		"name": "x",
	}))
	require.NoError(t, err)

	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "not found")
}

func TestUpdateHabit_WhenEmptyName_ReturnsValidationError(t *testing.T) {
	t.Parallel()
	hm, _ := newTestDeps(t)
	h := mustCreate(t, hm, habit.Draft{Name: "Read"})

	result, err := UpdateHabit(hm, nil)(context.Background(), makeReq(map[string]any{
		"id":   h.ID,
		"name": "",
	}))
	require.NoError(t, err)

	assert.True(t, result.IsError)
	got, _ := hm.Get(h.ID)
	assert.Equal(t, "Read", got.Name)
}

// --- DeleteHabit ---

func TestDeleteHabit_RemovesHabit(t *testing.T) {
	t.Parallel()
	hm, _ := newTestDeps(t)
	h := mustCreate(t, hm, habit.Draft{Name: "Read"})

	result, err := DeleteHabit(hm, nil)(context.Background(), makeReq(map[string]any{"id": h.ID}))
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Contains(t, resultText(t, result), "deleted")

	_, err = hm.Get(h.ID)
	assert.ErrorIs(t, err, habit.ErrNotFound)
}

func TestDeleteHabit_WhenMissingID_ReturnsError(t *testing.T) {
	t.Parallel()
	hm, _ := newTestDeps(t)

	result, err := DeleteHabit(hm, nil)(context.Background(), makeReq(map[string]any{}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "id is required")
}

// --- ToggleCompletion ---

func TestToggleCompletion_WhenNoDate_TogglesToday(t *testing.T) {
	t.Parallel()
	hm, _ := newTestDeps(t)
	h := mustCreate(t, hm, habit.Draft{Name: "Read"})

	result, err := ToggleCompletion(hm, nil)(context.Background(), makeReq(map[string]any{"id": h.ID}))
	require.NoError(t, err)
	assert.False(t, result.IsError)

	text := resultText(t, result)
	assert.Contains(t, text, "marked done for 2024-06-12")
	assert.Contains(t, text, "Streak: 1 | Best: 1")

	result, err = ToggleCompletion(hm, nil)(context.Background(), makeReq(map[string]any{"id": h.ID}))
	require.NoError(t, err)
	assert.Contains(t, resultText(t, result), "marked not done")
	assert.Contains(t, resultText(t, result), "Streak: 0 | Best: 1")
}

func TestToggleCompletion_WhenPastDate_DoesNotChangeStreak(t *testing.T) {
	t.Parallel()
	hm, _ := newTestDeps(t)
	h := mustCreate(t, hm, habit.Draft{Name: "Read"})

	result, err := ToggleCompletion(hm, nil)(context.Background(), makeReq(map[string]any{
		"id":   h.ID,
		"date": "2024-06-10",
	}))
	require.NoError(t, err)
	assert.False(t, result.IsError)

	got, _ := hm.Get(h.ID)
	assert.Len(t, got.CompletedDates, 1)
	assert.Zero(t, got.Streak)
}

func TestToggleCompletion_WhenBadDate_ReturnsError(t *testing.T) {
	t.Parallel()
	hm, _ := newTestDeps(t)
	h := mustCreate(t, hm, habit.Draft{Name: "Read"})

	result, err := ToggleCompletion(hm, nil)(context.Background(), makeReq(map[string]any{
		"id":   h.ID,
		"date": "12/06/2024",
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "YYYY-MM-DD")
}

func TestToggleCompletion_WhenUnknownID_ReturnsError(t *testing.T) {
	t.Parallel()
	hm, _ := newTestDeps(t)
	rec := &countingRecorder{}

	result, err := ToggleCompletion(hm, rec)(context.Background(), makeReq(map[string]any{"id": "ghost"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Equal(t, 1, rec.calls["toggle/error"])
}

// --- ListHabits / GetToday ---

func TestListHabits_WhenEmpty_SaysSo(t *testing.T) {
	t.Parallel()
	hm, _ := newTestDeps(t)

	result, err := ListHabits(hm)(context.Background(), makeReq(nil))
	require.NoError(t, err)
	assert.Contains(t, resultText(t, result), "No habits yet")
}

func TestListHabits_ShowsAllWithDueState(t *testing.T) {
	t.Parallel()
	hm, _ := newTestDeps(t)
	mustCreate(t, hm, habit.Draft{Name: "Read"})
	mustCreate(t, hm, habit.Draft{Name: "Long run", Frequency: habit.FrequencyCustom, SelectedDays: habit.Weekdays{Sat: true}})

	result, err := ListHabits(hm)(context.Background(), makeReq(nil))
	require.NoError(t, err)

	text := resultText(t, result)
	assert.Contains(t, text, "Habits (2)")
	assert.Contains(t, text, "Read")
	assert.Contains(t, text, "Not due today")
}

func TestGetToday_ListsOnlyDueHabitsWithProgress(t *testing.T) {
	t.Parallel()
	hm, _ := newTestDeps(t)
	read := mustCreate(t, hm, habit.Draft{Name: "Read"})
	mustCreate(t, hm, habit.Draft{Name: "Stretch"})
	mustCreate(t, hm, habit.Draft{Name: "Long run", Frequency: habit.FrequencyCustom, SelectedDays: habit.Weekdays{Sat: true}})

	_, err := hm.Toggle(context.Background(), read.ID, testNow)
	require.NoError(t, err)

	result, err := GetToday(hm)(context.Background(), makeReq(nil))
	require.NoError(t, err)

	text := resultText(t, result)
	assert.Contains(t, text, "Wednesday 12 June 2024")
	assert.NotContains(t, text, "Long run")
	assert.Contains(t, text, "Progress: 1/2 (50%)")
}

func TestGetToday_WhenNothingDue_SaysSo(t *testing.T) {
	t.Parallel()
	hm, _ := newTestDeps(t)

	result, err := GetToday(hm)(context.Background(), makeReq(nil))
	require.NoError(t, err)
	assert.Contains(t, resultText(t, result), "Nothing due today")
}

// --- GetStats ---

func TestGetStats_ReportsAggregates(t *testing.T) {
	t.Parallel()
	hm, _ := newTestDeps(t)
	read := mustCreate(t, hm, habit.Draft{Name: "Read"})
	mustCreate(t, hm, habit.Draft{Name: "Stretch"})

	_, err := hm.Toggle(context.Background(), read.ID, testNow)
	require.NoError(t, err)

	result, err := GetStats(hm, 30)(context.Background(), makeReq(map[string]any{"window_days": float64(7)}))
	require.NoError(t, err)

	text := resultText(t, result)
	assert.Contains(t, text, "last 7 days")
	assert.Contains(t, text, "Habits: 2")
	assert.Contains(t, text, "Today's progress: 50%")
	assert.Contains(t, text, "Longest streak: Read (1 days)")
	assert.Contains(t, text, "Most consistent: Read")
	assert.Contains(t, text, "Read: 14%")
}

func TestGetStats_FractionalWindow_UsesDefault(t *testing.T) {
	t.Parallel()
	hm, _ := newTestDeps(t)
	read := mustCreate(t, hm, habit.Draft{Name: "Read"})

	_, err := hm.Toggle(context.Background(), read.ID, testNow)
	require.NoError(t, err)

	result, err := GetStats(hm, 1)(context.Background(), makeReq(map[string]any{"window_days": 0.5}))
	require.NoError(t, err)

	text := resultText(t, result)
	assert.Contains(t, text, "last 1 days")
	assert.Contains(t, text, "Read: 100%")
}

func TestGetStats_WhenEmpty_SaysSo(t *testing.T) {
	t.Parallel()
	hm, _ := newTestDeps(t)

	result, err := GetStats(hm, 30)(context.Background(), makeReq(nil))
	require.NoError(t, err)
	assert.Contains(t, resultText(t, result), "nothing to report")
}

// --- GetCalendar ---

func TestGetCalendar_WhenPastDate_ListsAllHabitsWithState(t *testing.T) {
	t.Parallel()
	hm, _ := newTestDeps(t)
	read := mustCreate(t, hm, habit.Draft{Name: "Read"})
	mustCreate(t, hm, habit.Draft{Name: "Long run", Frequency: habit.FrequencyCustom, SelectedDays: habit.Weekdays{Sat: true}})

	_, err := hm.Toggle(context.Background(), read.ID, testNow.AddDate(0, 0, -2))
	require.NoError(t, err)

	result, err := GetCalendar(hm)(context.Background(), makeReq(map[string]any{"date": "2024-06-10"}))
	require.NoError(t, err)

	text := resultText(t, result)
	assert.Contains(t, text, "Monday 10 June 2024")
	assert.Contains(t, text, "✅ Read")
	assert.Contains(t, text, "⬜ Long run")
	assert.Contains(t, text, "1 of 2 completed")
}

// --- GetLogs ---

func TestGetLogs_ShowsRecordedEvents(t *testing.T) {
	t.Parallel()
	_, db := newTestDeps(t)
	ctx := context.Background()

	require.NoError(t, db.AddEvent(ctx, &store.Event{HabitID: "h1", EventType: "habit.created", Message: "habit created", CreatedAt: testNow}))
	require.NoError(t, db.AddEvent(ctx, &store.Event{HabitID: "h2", EventType: "habit.created", CreatedAt: testNow}))

	result, err := GetLogs(db)(ctx, makeReq(map[string]any{"habit_id": "h1"}))
	require.NoError(t, err)

	text := resultText(t, result)
	assert.Contains(t, text, "Activity (1 entries)")
	assert.Contains(t, text, "habit.created h1: habit created")
}

func TestGetLogs_FractionalLimit_UsesDefault(t *testing.T) {
	t.Parallel()
	_, db := newTestDeps(t)
	ctx := context.Background()

	require.NoError(t, db.AddEvent(ctx, &store.Event{HabitID: "h1", EventType: "habit.created", CreatedAt: testNow}))
	require.NoError(t, db.AddEvent(ctx, &store.Event{HabitID: "h2", EventType: "habit.created", CreatedAt: testNow}))

	result, err := GetLogs(db)(ctx, makeReq(map[string]any{"limit": 0.5}))
	require.NoError(t, err)
	assert.Contains(t, resultText(t, result), "Activity (2 entries)")
}

func TestGetLogs_WhenEmpty_SaysSo(t *testing.T) {
	t.Parallel()
	_, db := newTestDeps(t)

	result, err := GetLogs(db)(context.Background(), makeReq(nil))
	require.NoError(t, err)
	assert.Contains(t, resultText(t, result), "No activity recorded")
}

type failingEvents struct{}

func (failingEvents) GetEvents(context.Context, store.EventFilter) ([]store.Event, error) {
	return nil, errors.New("db closed")
}

func TestGetLogs_WhenStoreFails_ReturnsError(t *testing.T) {
	t.Parallel()

	result, err := GetLogs(failingEvents{})(context.Background(), makeReq(nil))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "db closed")
}
