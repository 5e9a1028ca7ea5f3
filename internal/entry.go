// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/ledger/internal/api"
	"github.com/starford/ledger/internal/mcpserver"
	"github.com/starford/ledger/internal/noteservice"
	"github.com/starford/ledger/internal/session"
	"github.com/starford/ledger/internal/sse"
	"github.com/starford/ledger/internal/vault"
)

func newApplication(opts []Option) (*application, error) {
	app := &application{version: "dev"}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

// newLogger installs a structured JSON logger as the slog default.
func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	return logger
}

// openInitialVault opens the configured vault, or the last session's vault
// when none is configured. Failing to reopen a remembered vault is not fatal.
func openInitialVault(ctx context.Context, cfg *Config, svc *noteservice.Service, sessions *session.Store, logger *slog.Logger) error {
	if cfg.Vault.Path != "" {
		if _, err := svc.OpenVault(ctx, cfg.Vault.Path); err != nil {
			return fmt.Errorf("open vault: %w", err)
		}
		return nil
	}

	d, err := sessions.Load(ctx)
	if err != nil {
		logger.Warn("session load failed", slog.String("error", err.Error()))
		return nil
	}
	if d.LastVaultPath == nil {
		logger.Info("No vault configured; waiting for open_vault")
		return nil
	}
	if _, err := svc.OpenVault(ctx, *d.LastVaultPath); err != nil {
		logger.Warn("reopen last vault failed",
			slog.String("vault_path", *d.LastVaultPath),
			slog.String("error", err.Error()))
	}
	return nil
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	out := app.logOutput
	if out == nil {
		out = os.Stdout
	}
	logger := newLogger(out, cfg.App.LogLevel)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("vault_path", cfg.Vault.Path),
		slog.Bool("vault_watch", cfg.Vault.Watch),
		slog.String("session_path", cfg.Session.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Initialize session store.
	sessions, err := session.Open(cfg.Session.Path)
	if err != nil {
		return fmt.Errorf("init session: %w", err)
	}
	defer sessions.Close()

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	v := vault.New(cfg.Vault.Exclude...)

	var watcher *vault.Watcher
	if cfg.Vault.Watch {
		watcher = vault.NewWatcher(v, logger, func(snap vault.Snapshot) {
			broker.Publish(sse.Event{Type: sse.EventVaultRescanned, Data: snap})
		})
	}

	svc := noteservice.NewService(v,
		noteservice.WithLogger(logger),
		noteservice.WithSessions(sessions),
		noteservice.WithEvents(func(kind, path string) {
			switch kind {
			case noteservice.KindOpened:
				broker.Publish(sse.Event{Type: sse.EventVaultOpened, Data: map[string]string{"root_path": path}})
				if watcher != nil {
					watcher.Follow(path)
				}
			case noteservice.KindRescanned:
				broker.Publish(sse.Event{Type: sse.EventVaultRescanned, Data: map[string]string{"root_path": path}})
			default:
				broker.PublishFileEvent(kind, path)
			}
		}),
	)

	if err := openInitialVault(ctx, cfg, svc, sessions, logger); err != nil {
		return err
	}

	apiRouter := api.NewRouter(svc, sessions, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if _, err := svc.Snapshot(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"no vault open"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Start file watcher; it picks up the vault root from the open event.
	if watcher != nil {
		g.Go(func() error {
			return watcher.Run(gCtx)
		})
	}

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// RunMCP serves the vault tools over stdio. Logs go to stderr so they
// never mix with the protocol stream.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	out := app.logOutput
	if out == nil {
		out = os.Stderr
	}
	logger := newLogger(out, cfg.App.LogLevel)

	sessions, err := session.Open(cfg.Session.Path)
	if err != nil {
		return fmt.Errorf("init session: %w", err)
	}
	defer sessions.Close()

	svc := noteservice.NewService(vault.New(cfg.Vault.Exclude...),
		noteservice.WithLogger(logger),
		noteservice.WithSessions(sessions),
	)
	if err := openInitialVault(ctx, cfg, svc, sessions, logger); err != nil {
		return err
	}

	logger.Info("MCP server starting on stdio")
	return mcpserver.New(svc, app.version).ServeStdio()
}
