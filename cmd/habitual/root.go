package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/btouchard/habitual/internal/config"
	"github.com/btouchard/habitual/internal/habit"
	"github.com/btouchard/habitual/internal/notify"
	"github.com/btouchard/habitual/internal/store"
)

// rootOptions holds the persistent flags shared by every command.
type rootOptions struct {
	configPath string
	debug      bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "habitual",
		Short: "Track daily, weekly and custom habits",
		Long: `habitual tracks recurring habits, their streaks and completion rates.

Use the habit commands (add, list, today, done, stats, ...) locally, or run
'habitual serve' to expose the same store over MCP and an iCalendar feed.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to config file")
	root.PersistentFlags().BoolVar(&opts.debug, "debug", false, "enable debug logging on stderr")

	root.AddCommand(
		newServeCmd(opts),
		newCheckCmd(opts),
		newVersionCmd(),
		newTokenCmd(),
	)
	addHabitCommands(root, opts)

	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "habitual %s\n", version)
		},
	}
}

func newCheckCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := loadConfig(opts.configPath); err != nil {
				return fmt.Errorf("configuration error: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "configuration is valid")
			return nil
		},
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// setupLogging configures the server logger: JSON on stdout plus an optional log file.
func setupLogging(cfg *config.Config) {
	level := parseLevel(cfg.Server.LogLevel)

	handlers := []slog.Handler{
		slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}),
	}

	if cfg.Server.LogFile != "" {
		f, err := os.OpenFile(config.ExpandHome(cfg.Server.LogFile), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0640)
		if err != nil {
			slog.Warn("failed to open log file, using stdout only", "path", cfg.Server.LogFile, "error", err)
		} else {
			handlers = append(handlers, slog.NewJSONHandler(f, &slog.HandlerOptions{Level: level}))
		}
	}

	logger := slog.New(slog.NewMultiHandler(handlers...))
	slog.SetDefault(logger)
}

// setupCLILogging keeps interactive output clean: warnings only, on stderr.
func setupCLILogging(w io.Writer, debug bool) {
	level := slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})))
}

// app bundles the opened stores and the habit manager.
type app struct {
	cfg    *config.Config
	db     *store.SQLiteStore
	redis  *store.RedisSlot
	habits *habit.Manager
	hub    *notify.Hub
}

// openApp opens the activity log database, the configured slot backend and
// loads the habit collection. Events are recorded in the activity log.
func openApp(ctx context.Context, cfg *config.Config) (*app, error) {
	db, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	slog.Debug("database opened", "path", cfg.Database.Path)

	a := &app{cfg: cfg, db: db}

	var slots habit.SlotStore = db
	if cfg.Storage.Backend == config.BackendRedis {
		a.redis, err = store.NewRedisSlot(ctx, store.RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
		})
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		slots = a.redis
		slog.Debug("redis slot store connected", "addr", cfg.Redis.Addr)
	}

	a.habits = habit.NewManager(slots, cfg.Storage.Slot, habit.RealClock{}, cfg.Engine.Location())
	a.habits.Load(ctx)
	a.notifyTo()

	return a, nil
}

// notifyTo routes habit events to the activity log and the extra notifiers.
func (a *app) notifyTo(extra ...notify.Notifier) {
	notifiers := append([]notify.Notifier{notify.NewLogRecorder(a.db)}, extra...)
	a.hub = notify.NewHub(notifiers...)
	a.habits.SetNotifyFunc(notify.FromHabit(a.hub))
}

// Close flushes pending notifications and closes the stores.
func (a *app) Close() error {
	a.hub.Wait()
	if a.redis != nil {
		_ = a.redis.Close()
	}
	return a.db.Close()
}
