// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/starford/mindatlas/internal/api"
	"github.com/starford/mindatlas/internal/mcpserver"
	"github.com/starford/mindatlas/internal/mindmap"
	"github.com/starford/mindatlas/internal/session"
	"github.com/starford/mindatlas/internal/sse"
	"github.com/starford/mindatlas/internal/storage"
)

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(os.Stdout, opts...)
	if err != nil {
		return err
	}
	cfg := app.config
	logger := app.logger()

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("storage_driver", cfg.Storage.Driver),
		slog.String("backend", cfg.Backend.BaseURL),
		slog.Bool("verify_signatures", cfg.Auth.VerifySecret != ""),
		slog.String("log_level", cfg.App.LogLevel.String()))

	c, err := newCore(cfg, logger, true)
	if err != nil {
		return err
	}
	defer c.Close()

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()
	announcer := newSessionAnnouncer(broker, c.gate.Resolve(ctx).Authenticated)

	var limiter *rate.Limiter
	if cfg.Auth.LoginRate.PerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.Auth.LoginRate.PerSecond), cfg.Auth.LoginRate.Burst)
	}

	apiRouter := api.NewRouter(api.Deps{
		Gate:         c.gate,
		Sessions:     c.sessions,
		Codec:        c.codec,
		Backend:      c.backend,
		MindMaps:     mindmap.NewService(c.repo, broker),
		Events:       announcer,
		Paths:        cfg.Auth.Paths(),
		LoginLimiter: limiter,
		SSE:          broker,
	})

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
		if _, _, err := c.store.Get(r.Context(), session.Key); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"storage unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	handler := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "If-Match", "Accept", "Origin"},
		ExposedHeaders:   []string{"ETag", "Location"},
		AllowCredentials: true,
		MaxAge:           86400,
	}).Handler(r)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Other processes sharing the data directory (CLI login/logout, a second
	// server) write the same keys; last writer wins. The watcher is what
	// keeps the cached session slot honest.
	if fs, ok := c.store.(*storage.FS); ok && c.sessions.Memoized() {
		g.Go(func() error {
			return storage.Watch(gCtx, fs, logger, storageChanged(gCtx, c, broker, announcer, logger))
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
		defer signal.Stop(quit)

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

		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the group so the watcher stops with the server.
var errShutdown = errors.New("shutdown")

// sessionAnnouncer publishes session.changed only when the authentication
// state flips. API handlers and the storage watcher share one announcer, so
// the watcher's echo of a write the API already announced is dropped.
type sessionAnnouncer struct {
	broker *sse.Broker

	mu            sync.Mutex
	authenticated bool
}

func newSessionAnnouncer(broker *sse.Broker, authenticated bool) *sessionAnnouncer {
	return &sessionAnnouncer{broker: broker, authenticated: authenticated}
}

// PublishSessionEvent implements api.SessionNotifier.
func (a *sessionAnnouncer) PublishSessionEvent(authenticated bool) {
	a.mu.Lock()
	changed := a.authenticated != authenticated
	a.authenticated = authenticated
	a.mu.Unlock()
	if changed {
		a.broker.PublishSessionEvent(authenticated)
	}
}

func storageChanged(ctx context.Context, c *core, broker *sse.Broker, announcer *sessionAnnouncer, logger *slog.Logger) storage.ChangeCallback {
	return func(kind, key string) {
		logger.Debug("storage key changed", slog.String("kind", kind), slog.String("key", key))
		switch key {
		case session.Key:
			c.sessions.Invalidate()
			announcer.PublishSessionEvent(c.gate.Resolve(ctx).Authenticated)
		case mindmap.Key:
			broker.PublishStorageEvent(kind, key)
		}
	}
}

// RunMCP serves the MCP tools on stdin/stdout. Logs go to stderr.
func RunMCP(_ context.Context, opts ...Option) error {
	app, err := newApplication(os.Stderr, opts...)
	if err != nil {
		return err
	}
	logger := app.logger()

	c, err := newCore(app.config, logger, false)
	if err != nil {
		return err
	}
	defer c.Close()

	srv := mcpserver.New(c.gate, mindmap.NewService(c.repo, nil), app.config.Auth.Paths())
	logger.Info("MCP server starting on stdio", slog.String("storage_driver", app.config.Storage.Driver))
	return srv.ServeStdio()
}
