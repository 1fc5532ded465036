// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/starford/lectern/internal/api"
	"github.com/starford/lectern/internal/citation"
	"github.com/starford/lectern/internal/docservice"
	"github.com/starford/lectern/internal/extract"
	"github.com/starford/lectern/internal/library"
	"github.com/starford/lectern/internal/mcpserver"
	"github.com/starford/lectern/internal/metrics"
	"github.com/starford/lectern/internal/models"
	"github.com/starford/lectern/internal/noteservice"
	"github.com/starford/lectern/internal/sse"
	"github.com/starford/lectern/internal/storage"
	"github.com/starford/lectern/internal/store"
)

// services bundles the components shared by the HTTP and MCP entry points.
type services struct {
	db       *store.DB
	files    *storage.FS
	registry *prometheus.Registry
	docs     *docservice.Service
	notes    *noteservice.Service
}

// setup opens the store and library and wires the services. A nil
// notifier disables change events.
func (a *application) setup(logger *slog.Logger, notifier *sse.Broker) (*services, error) {
	cfg := a.config

	if err := os.MkdirAll(cfg.Library.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create library dir: %w", err)
	}
	files, err := storage.NewFS(cfg.Library.Path)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	db, err := store.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	limits := cfg.Citations.Limits()
	resolver := citation.NewResolver(db,
		citation.WithCache(citation.NewAliasCache(cfg.Citations.CacheTTL, nil)),
		citation.WithLimits(limits),
		citation.WithLogger(logger),
		citation.WithMetrics(m),
	)

	docOpts := []docservice.Option{
		docservice.WithFiles(files),
		docservice.WithMetrics(m),
		docservice.WithLogger(logger),
		docservice.WithLimits(limits),
		docservice.WithDefaultSourceType(cfg.Import.DefaultSourceType),
	}
	noteOpts := []noteservice.Option{noteservice.WithLogger(logger)}
	if notifier != nil {
		docOpts = append(docOpts, docservice.WithNotifier(notifier))
		noteOpts = append(noteOpts, noteservice.WithNotifier(notifier))
	}
	docs := docservice.NewService(db, resolver, docOpts...)
	notes := noteservice.NewService(db, resolver, noteOpts...)

	return &services{db: db, files: files, registry: reg, docs: docs, notes: notes}, nil
}

func (a *application) newLogger(fallback io.Writer) *slog.Logger {
	out := a.logOutput
	if out == nil {
		out = fallback
	}
	return slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level: a.config.App.LogLevel,
	}))
}

func (a *application) init(opts []Option) error {
	for _, opt := range opts {
		opt(a)
	}
	if a.config == nil {
		return fmt.Errorf("config is required")
	}
	return nil
}

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}
	if err := app.init(opts); err != nil {
		return err
	}
	cfg := app.config

	// Initialize structured JSON logger.
	logger := app.newLogger(os.Stdout)
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("library_path", cfg.Library.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	svc, err := app.setup(logger, broker)
	if err != nil {
		return err
	}
	defer svc.db.Close()

	// Import whatever is already in the library.
	if err := library.Sync(ctx, svc.docs, svc.files, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	apiRouter := api.NewRouter(svc.docs, svc.notes, api.RouterConfig{
		AuthEnabled:    cfg.Auth.AuthEnabled(),
		Token:          cfg.Auth.Token,
		MaxUploadBytes: cfg.Import.MaxUploadBytes,
		Events:         broker,
	})

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
	r.Get("/health/ready", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if _, _, err := svc.docs.List(req.Context(), "", 1, 0); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", promhttp.HandlerFor(svc.registry, promhttp.HandlerOpts{}))

	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Watch the library; document events reach the broker through docservice.
	g.Go(func() error {
		err := library.Watch(gCtx, svc.docs, svc.files, logger, func(kind, path string) {
			logger.Debug("library change", slog.String("kind", kind), slog.String("path", path))
		})
		if err != nil {
			logger.Error("library watcher stopped", slog.String("error", err.Error()))
		}
		return nil
	})

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

// errShutdown cancels the group so the watcher exits with the server.
var errShutdown = errors.New("shutdown")

// RunMCP serves the MCP tools over stdio. Logs go to stderr since stdout
// carries the protocol.
func RunMCP(_ context.Context, opts ...Option) error {
	app := &application{}
	if err := app.init(opts); err != nil {
		return err
	}
	logger := app.newLogger(os.Stderr)
	slog.SetDefault(logger)

	svc, err := app.setup(logger, nil)
	if err != nil {
		return err
	}
	defer svc.db.Close()

	return mcpserver.New(svc.docs).ServeStdio()
}

// PreviewFile extracts and parses a source file and writes the preview as
// indented JSON to w. Nothing is stored.
func PreviewFile(w io.Writer, path string, st models.SourceType) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	text, err := extract.File(f, filepath.Base(path))
	if err != nil {
		return fmt.Errorf("extract %s: %w", path, err)
	}
	p, err := docservice.NewService(nil, nil).Preview(text.Body, st)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		Title string `json:"title"`
		*docservice.Preview
	}{Title: text.Title, Preview: p})
}
