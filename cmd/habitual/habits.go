package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/btouchard/habitual/internal/calendar"
	"github.com/btouchard/habitual/internal/cli"
	"github.com/btouchard/habitual/internal/habit"
)

// withApp loads configuration, opens the stores for the duration of fn and
// closes them afterwards.
func withApp(cmd *cobra.Command, opts *rootOptions, fn func(ctx context.Context, a *app) error) error {
	setupCLILogging(cmd.ErrOrStderr(), opts.debug)

	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := openApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	return fn(ctx, a)
}

// habitFlags are the editable fields shared by add and edit.
type habitFlags struct {
	frequency string
	days      []string
	reminder  string
	color     string
}

func (f *habitFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.frequency, "frequency", "f", "", "daily, weekly or custom")
	cmd.Flags().StringSliceVar(&f.days, "days", nil, "weekdays for custom habits, e.g. sat,sun")
	cmd.Flags().StringVar(&f.reminder, "reminder", "", "reminder time as HH:MM")
	cmd.Flags().StringVar(&f.color, "color", "", "display color, e.g. #4f46e5")
}

func addHabitCommands(root *cobra.Command, opts *rootOptions) {
	root.AddCommand(
		newAddCmd(opts),
		newEditCmd(opts),
		newShowCmd(opts),
		newListCmd(opts),
		newTodayCmd(opts),
		newDoneCmd(opts),
		newRmCmd(opts),
		newStatsCmd(opts),
		newCalendarCmd(opts),
		newExportCmd(opts),
	)
}

func newAddCmd(opts *rootOptions) *cobra.Command {
	var f habitFlags
	cmd := &cobra.Command{
		Use:   "add NAME",
		Short: "Create a habit",
		Example: `  habitual add "Read 20 pages" --reminder 07:30
  habitual add "Long run" -f custom --days sat,sun`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			days, err := habit.ParseWeekdays(f.days)
			if err != nil {
				return err
			}
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				h, err := a.habits.Create(ctx, habit.Draft{
					Name:         strings.Join(args, " "),
					Frequency:    habit.Frequency(f.frequency),
					SelectedDays: days,
					ReminderTime: f.reminder,
					Color:        f.color,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created %s (%s)\n", h.Name, h.ID)
				return nil
			})
		},
	}
	f.register(cmd)
	return cmd
}

func newEditCmd(opts *rootOptions) *cobra.Command {
	var f habitFlags
	var name string
	cmd := &cobra.Command{
		Use:   "edit ID",
		Short: "Edit a habit's name, schedule, reminder or color",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				edit, err := a.habits.Get(args[0])
				if err != nil {
					return err
				}

				flags := cmd.Flags()
				if flags.Changed("name") {
					edit.Name = name
				}
				if flags.Changed("frequency") {
					edit.Frequency = habit.Frequency(f.frequency)
				}
				if flags.Changed("days") {
					if edit.SelectedDays, err = habit.ParseWeekdays(f.days); err != nil {
						return err
					}
				}
				if flags.Changed("reminder") {
					edit.ReminderTime = f.reminder
				}
				if flags.Changed("color") {
					edit.Color = f.color
				}

				h, err := a.habits.Update(ctx, edit)
				if err != nil {
					return err
				}
				cli.RenderHabit(cmd.OutOrStdout(), h, a.habits.Today())
				return nil
			})
		},
	}
	f.register(cmd)
	cmd.Flags().StringVar(&name, "name", "", "new name")
	return cmd
}

func newShowCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show one habit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(_ context.Context, a *app) error {
				h, err := a.habits.Get(args[0])
				if err != nil {
					return err
				}
				cli.RenderHabit(cmd.OutOrStdout(), h, a.habits.Today())
				return nil
			})
		},
	}
}

func newListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List all habits",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, func(_ context.Context, a *app) error {
				cli.RenderList(cmd.OutOrStdout(), a.habits.List(), a.habits.Today())
				return nil
			})
		},
	}
}

func newTodayCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "today",
		Short: "Show the habits due today",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, func(_ context.Context, a *app) error {
				cli.RenderToday(cmd.OutOrStdout(), a.habits.ActiveHabits(), a.habits.Today(), a.habits.TodaysProgress())
				return nil
			})
		},
	}
}

func newDoneCmd(opts *rootOptions) *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "done ID",
		Short: "Toggle a habit's completion for today or --date",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				day := a.habits.Today()
				if date != "" {
					var err error
					if day, err = habit.ParseDate(date, a.habits.Location()); err != nil {
						return err
					}
				}
				h, err := a.habits.Toggle(ctx, args[0], day)
				if err != nil {
					return err
				}
				cli.RenderToggle(cmd.OutOrStdout(), h, day)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "day to toggle as YYYY-MM-DD (default: today)")
	return cmd
}

func newRmCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rm ID",
		Short: "Delete a habit and its history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				h, err := a.habits.Get(args[0])
				if err != nil {
					return err
				}
				if err := a.habits.Delete(ctx, h.ID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s (%s)\n", h.Name, h.ID)
				return nil
			})
		},
	}
}

func newStatsCmd(opts *rootOptions) *cobra.Command {
	var window int
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show streaks and completion rates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, func(_ context.Context, a *app) error {
				w := window
				if w <= 0 {
					w = a.cfg.Engine.DefaultWindowDays
				}
				cli.RenderStats(cmd.OutOrStdout(), a.habits.Stats(w))
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&window, "window", "w", 0, "days used for completion rates (default from config)")
	return cmd
}

func newCalendarCmd(opts *rootOptions) *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Show habits and completions for a date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, func(_ context.Context, a *app) error {
				day := a.habits.Today()
				if date != "" {
					var err error
					if day, err = habit.ParseDate(date, a.habits.Location()); err != nil {
						return err
					}
				}
				cli.RenderCalendar(cmd.OutOrStdout(), day, a.habits.HabitsForDate(day))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "date as YYYY-MM-DD (default: today)")
	return cmd
}

func newExportCmd(opts *rootOptions) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the completion history as iCalendar",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, func(_ context.Context, a *app) error {
				data, err := calendar.Export(a.habits.List(), time.Now())
				if err != nil {
					return err
				}
				if out == "" || out == "-" {
					_, err = cmd.OutOrStdout().Write(data)
					return err
				}
				if err := os.WriteFile(out, data, 0644); err != nil {
					return fmt.Errorf("writing %s: %w", out, err)
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "calendar written to %s\n", out)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default: stdout)")
	return cmd
}
