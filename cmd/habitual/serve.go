package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/btouchard/habitual/internal/auth"
	"github.com/btouchard/habitual/internal/calendar"
	"github.com/btouchard/habitual/internal/config"
	"github.com/btouchard/habitual/internal/habit"
	habitualmcp "github.com/btouchard/habitual/internal/mcp"
	authmw "github.com/btouchard/habitual/internal/mcp/middleware"
	"github.com/btouchard/habitual/internal/metrics"
	"github.com/btouchard/habitual/internal/notify"
	"github.com/btouchard/habitual/internal/tunnel"
)

const cleanupInterval = 6 * time.Hour

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the habitual server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts.configPath)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			if opts.debug {
				cfg.Server.LogLevel = "debug"
			}
			setupLogging(cfg)

			slog.Info("starting habitual",
				"version", version,
				"host", cfg.Server.Host,
				"port", cfg.Server.Port,
				"backend", cfg.Storage.Backend)

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			return run(ctx, cfg)
		},
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	// --- Stores and habit manager ---
	a, err := openApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	// --- Metrics ---
	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New(a.habits.Count)
	}

	// --- MCP Server ---
	deps := &habitualmcp.Deps{
		Habits:        a.habits,
		Events:        a.db,
		DefaultWindow: cfg.Engine.DefaultWindowDays,
		Version:       version,
	}
	if m != nil {
		deps.Metrics = m
	}
	mcpServer := habitualmcp.NewServer(deps)

	// --- Notifications ---
	notifiers := []notify.Notifier{notify.NewMCPNotifier(mcpServer)}
	if m != nil {
		notifiers = append(notifiers, m)
	}
	a.notifyTo(notifiers...)

	// --- Auth ---
	tokens := auth.NewTokenSet(cfg.Auth.APITokens)
	if tokens.Empty() {
		slog.Warn("no API tokens configured, /mcp and /calendar.ics are unauthenticated",
			"hint", "run 'habitual token NAME' and add the hash to auth.api_tokens")
	}

	handler := newRouter(routerDeps{
		habits:  a.habits,
		tokens:  tokens,
		metrics: m,
		mcp:     server.NewStreamableHTTPServer(mcpServer),
	})

	// --- HTTP Server ---
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  2 * time.Minute,
	}

	// --- Tunnel ---
	var tunnelLn net.Listener
	if cfg.Tunnel.Enabled {
		tun := tunnel.NewNgrok(cfg.Tunnel.AuthToken, cfg.Tunnel.Domain)
		tunnelLn, err = tun.Start(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = tun.Close() }()
		slog.Info("calendar feed published", "url", tun.PublicURL()+"/calendar.ics")
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("habitual is ready", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	if tunnelLn != nil {
		g.Go(func() error {
			if err := srv.Serve(tunnelLn); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("tunnel server: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		a.db.StartCleanupLoop(gctx, cfg.Database.Retention(), cleanupInterval)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

type routerDeps struct {
	habits  *habit.Manager
	tokens  authmw.TokenValidator
	metrics *metrics.Metrics // nil when disabled
	mcp     http.Handler
}

func newRouter(d routerDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(authmw.SecurityHeaders)
	if d.metrics != nil {
		r.Use(d.metrics.Middleware)
		r.Handle("/metrics", d.metrics.Handler())
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// MCP endpoint and calendar feed (Bearer token required)
	r.Group(func(r chi.Router) {
		r.Use(authmw.BearerAuth(d.tokens))
		r.Handle("/mcp", d.mcp)
		r.Get("/calendar.ics", calendarHandler(d.habits))
	})

	return r
}

func calendarHandler(hm *habit.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := calendar.Export(hm.List(), time.Now())
		if err != nil {
			slog.Error("calendar export failed", "error", err)
			http.Error(w, "calendar export failed", http.StatusInternalServerError)
			return
		}
		slog.Debug("calendar feed served", "token", authmw.TokenName(r.Context()), "bytes", len(data))
		w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
		w.Header().Set("Content-Disposition", `inline; filename="habits.ics"`)
		_, _ = w.Write(data)
	}
}
