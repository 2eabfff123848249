package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/btouchard/habitual/internal/habit"
)

// CreateHabit returns a handler that adds a new habit.
func CreateHabit(hm *habit.Manager, rec MutationRecorder) server.ToolHandlerFunc {
	rec = recorderOrNoop(rec)
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()

		name := stringArg(args, "name")
		if name == "" {
			return mcp.NewToolResultError("name is required"), nil
		}

		d := habit.Draft{
			Name:         name,
			Frequency:    habit.Frequency(stringArg(args, "frequency")),
			ReminderTime: stringArg(args, "reminder_time"),
			Color:        stringArg(args, "color"),
		}
		if raw, ok := args["days"]; ok {
			names, ok := stringSlice(raw)
			if !ok {
				return mcp.NewToolResultError("days must be a list of weekday names"), nil
			}
			days, err := habit.ParseWeekdays(names)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			d.SelectedDays = days
		}

		h, err := hm.Create(ctx, d)
		rec.RecordMutation("create", err)
		if err != nil {
			return errorResult("create habit", err), nil
		}

		var sb strings.Builder
		sb.WriteString("Habit created\n\n")
		fmt.Fprintf(&sb, "- ID: %s\n", h.ID)
		fmt.Fprintf(&sb, "- Name: %s\n", h.Name)
		fmt.Fprintf(&sb, "- Frequency: %s\n", frequencyLabel(h))
		if h.ReminderTime != "" {
			fmt.Fprintf(&sb, "- Reminder: %s\n", h.ReminderTime)
		}
		fmt.Fprintf(&sb, "\nUse toggle_completion with ID '%s' to mark it done.", h.ID)
		return mcp.NewToolResultText(sb.String()), nil
	}
}

// UpdateHabit returns a handler that edits a habit. Omitted arguments keep
// their current value; completion history is never touched.
func UpdateHabit(hm *habit.Manager, rec MutationRecorder) server.ToolHandlerFunc {
	rec = recorderOrNoop(rec)
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()

		id := stringArg(args, "id")
		if id == "" {
			return mcp.NewToolResultError("id is required"), nil
		}

		edit, err := hm.Get(id)
		if err != nil {
			return errorResult("update habit", err), nil
		}

		if v, ok := args["name"].(string); ok {
			edit.Name = v
		}
		if v, ok := args["frequency"].(string); ok {
			edit.Frequency = habit.Frequency(v)
		}
		if v, ok := args["reminder_time"].(string); ok {
			edit.ReminderTime = v
		}
		if v, ok := args["color"].(string); ok && v != "" {
			edit.Color = v
		}
		if raw, ok := args["days"]; ok {
			names, ok := stringSlice(raw)
			if !ok {
				return mcp.NewToolResultError("days must be a list of weekday names"), nil
			}
			days, err := habit.ParseWeekdays(names)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			edit.SelectedDays = days
		}

		h, err := hm.Update(ctx, edit)
		rec.RecordMutation("update", err)
		if err != nil {
			return errorResult("update habit", err), nil
		}

		var sb strings.Builder
		sb.WriteString("Habit updated\n\n")
		writeHabit(&sb, h, h.IsCompletedOn(hm.Today()))
		return mcp.NewToolResultText(sb.String()), nil
	}
}

// DeleteHabit returns a handler that removes a habit and its history.
func DeleteHabit(hm *habit.Manager, rec MutationRecorder) server.ToolHandlerFunc {
	rec = recorderOrNoop(rec)
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()

		id := stringArg(args, "id")
		if id == "" {
			return mcp.NewToolResultError("id is required"), nil
		}

		h, err := hm.Get(id)
		if err != nil {
			return errorResult("delete habit", err), nil
		}

		err = hm.Delete(ctx, id)
		rec.RecordMutation("delete", err)
		if err != nil {
			return errorResult("delete habit", err), nil
		}

		slog.Debug("habit deleted via mcp", "habit_id", id)
		return mcp.NewToolResultText(fmt.Sprintf("Habit '%s' (%s) deleted.", h.Name, id)), nil
	}
}

// ToggleCompletion returns a handler that flips a habit's completion for a day.
func ToggleCompletion(hm *habit.Manager, rec MutationRecorder) server.ToolHandlerFunc {
	rec = recorderOrNoop(rec)
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()

		id := stringArg(args, "id")
		if id == "" {
			return mcp.NewToolResultError("id is required"), nil
		}

		date, err := dateArg(args, "date", hm)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		h, err := hm.Toggle(ctx, id, date)
		rec.RecordMutation("toggle", err)
		if err != nil {
			return errorResult("toggle completion", err), nil
		}

		state := "not done"
		if h.IsCompletedOn(date) {
			state = "done"
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "%s **%s** marked %s for %s\n", checkbox(state == "done"), h.Name, state, habit.FormatDate(date))
		fmt.Fprintf(&sb, "Streak: %d | Best: %d\n", h.Streak, h.BestStreak)
		return mcp.NewToolResultText(sb.String()), nil
	}
}
