package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/btouchard/habitual/internal/mcp/handlers"
)

var weekdayNames = []string{"mon", "tue", "wed", "thu", "fri", "sat", "sun"}

func registerTools(s *server.MCPServer, deps *Deps) {
	// list_habits — every stored habit
	s.AddTool(
		mcp.NewTool("list_habits",
			mcp.WithDescription("List all habits with their frequency, streaks and whether they are done today."),
		),
		handlers.ListHabits(deps.Habits),
	)

	// get_today — habits due today and progress
	s.AddTool(
		mcp.NewTool("get_today",
			mcp.WithDescription("Show the habits due today, which ones are done, and today's progress percentage."),
		),
		handlers.GetToday(deps.Habits),
	)

	// create_habit
	s.AddTool(
		mcp.NewTool("create_habit",
			mcp.WithDescription("Create a new habit. Returns its ID."),
			mcp.WithString("name",
				mcp.Required(),
				mcp.Description("Habit name, e.g. 'Read 20 pages'"),
			),
			mcp.WithString("frequency",
				mcp.Description("How often the habit is expected (default: daily)"),
				mcp.Enum("daily", "weekly", "custom"),
			),
			mcp.WithArray("days",
				mcp.Description("Weekdays for custom habits, e.g. [\"sat\", \"sun\"]"),
				mcp.WithStringItems(mcp.Enum(weekdayNames...)),
			),
			mcp.WithString("reminder_time",
				mcp.Description("Optional reminder time as HH:MM"),
			),
			mcp.WithString("color",
				mcp.Description("Display color, e.g. '#4f46e5'"),
			),
		),
		handlers.CreateHabit(deps.Habits, deps.Metrics),
	)

	// update_habit
	s.AddTool(
		mcp.NewTool("update_habit",
			mcp.WithDescription("Edit a habit's name, frequency, days, reminder or color. Omitted fields are unchanged. Completion history and streaks are kept."),
			mcp.WithString("id",
				mcp.Required(),
				mcp.Description("Habit ID"),
			),
			mcp.WithString("name",
				mcp.Description("New name"),
			),
			mcp.WithString("frequency",
				mcp.Description("New frequency"),
				mcp.Enum("daily", "weekly", "custom"),
			),
			mcp.WithArray("days",
				mcp.Description("New weekdays for custom habits"),
				mcp.WithStringItems(mcp.Enum(weekdayNames...)),
			),
			mcp.WithString("reminder_time",
				mcp.Description("New reminder time as HH:MM, empty to clear"),
			),
			mcp.WithString("color",
				mcp.Description("New display color"),
			),
		),
		handlers.UpdateHabit(deps.Habits, deps.Metrics),
	)

	// delete_habit
	s.AddTool(
		mcp.NewTool("delete_habit",
			mcp.WithDescription("Delete a habit and its completion history. This cannot be undone."),
			mcp.WithString("id",
				mcp.Required(),
				mcp.Description("Habit ID"),
			),
		),
		handlers.DeleteHabit(deps.Habits, deps.Metrics),
	)

	// toggle_completion
	s.AddTool(
		mcp.NewTool("toggle_completion",
			mcp.WithDescription("Mark a habit done for a day, or undo it if it was already done. Streaks only change when toggling today."),
			mcp.WithString("id",
				mcp.Required(),
				mcp.Description("Habit ID"),
			),
			mcp.WithString("date",
				mcp.Description("Day to toggle as YYYY-MM-DD (default: today)"),
			),
		),
		handlers.ToggleCompletion(deps.Habits, deps.Metrics),
	)

	// get_stats
	s.AddTool(
		mcp.NewTool("get_stats",
			mcp.WithDescription("Summarize streaks, completion rates, the longest streak and the most consistent habit."),
			mcp.WithNumber("window_days",
				mcp.Description("Number of days for completion rates (default from configuration)"),
			),
		),
		handlers.GetStats(deps.Habits, deps.DefaultWindow),
	)

	// get_calendar
	s.AddTool(
		mcp.NewTool("get_calendar",
			mcp.WithDescription("Show the habits for a date and whether each was completed that day."),
			mcp.WithString("date",
				mcp.Description("Date as YYYY-MM-DD (default: today)"),
			),
		),
		handlers.GetCalendar(deps.Habits),
	)

	// get_logs — activity history
	s.AddTool(
		mcp.NewTool("get_logs",
			mcp.WithDescription("Get the activity history: creations, edits, completions and new best streaks."),
			mcp.WithString("habit_id",
				mcp.Description("Only show entries for this habit"),
			),
			mcp.WithNumber("limit",
				mcp.Description("Maximum number of entries to return (default: 50)"),
			),
		),
		handlers.GetLogs(deps.Events),
	)
}
