package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/UDIEditor/internal/config"
	"github.com/JonMunkholm/UDIEditor/internal/core"
	"github.com/JonMunkholm/UDIEditor/internal/logging"
	"github.com/JonMunkholm/UDIEditor/internal/metrics"
	"github.com/JonMunkholm/UDIEditor/internal/persistence"
	"github.com/JonMunkholm/UDIEditor/internal/web"
	"github.com/JonMunkholm/UDIEditor/internal/websocket"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging based on config
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"ingest_mode", cfg.Ingest.Mode,
		"history_backend", cfg.History.Backend,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)
	slog.Debug("effective configuration", "config", cfg.String())

	ctx := context.Background()

	// Open the history backend
	port, err := persistence.Open(ctx, persistence.Options{
		Backend:     cfg.History.Backend,
		Path:        cfg.History.Path,
		SQLitePath:  cfg.History.SQLitePath,
		DatabaseURL: cfg.History.DatabaseURL,
		RedisURL:    cfg.History.RedisURL,
		Timeout:     cfg.History.Timeout,
	})
	if err != nil {
		slog.Error("failed to open history backend", "backend", cfg.History.Backend, "error", err)
		os.Exit(1)
	}
	port = persistence.WithTimeout(port, cfg.History.Timeout)

	var reg *metrics.Registry
	if cfg.Metrics.Enabled {
		reg = metrics.New(cfg.Metrics.Namespace)
	}

	hub := websocket.NewHub(sameOrigin)
	history := core.NewHistoryStore(port, cfg.History.Limit)
	ingester := core.NewIngester(ingestConfig(cfg.Ingest), core.WithIngestObserver(observer(reg)))
	service := core.NewService(history, ingester,
		core.WithNotifier(hub),
		core.WithObserver(observer(reg)),
	)

	entries := service.LoadHistory(ctx)
	slog.Info("history loaded", "entries", len(entries), "backend", cfg.History.Backend)

	opts := []web.Option{web.WithHub(hub)}
	if reg != nil {
		opts = append(opts, web.WithMetrics(reg))
	}
	server := web.NewServer(service, cfg, opts...)

	// Create cancellable context for background jobs
	jobCtx, cancelJobs := context.WithCancel(context.Background())
	go server.RunMaintenance(jobCtx)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		hub.Close()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
		if err := service.Close(shutdownCtx); err != nil {
			slog.Warn("ingests did not stop in time", "error", err)
		}
		if err := port.Close(); err != nil {
			slog.Warn("closing history backend", "error", err)
		}
	}()

	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// ingestConfig maps the environment settings onto the ingester.
func ingestConfig(c config.IngestConfig) core.IngestConfig {
	return core.IngestConfig{
		Mode:          core.ParseMode(c.Mode),
		MaxFileSize:   c.MaxFileSize,
		FileDelay:     c.FileDelay,
		DemoDelay:     c.DemoDelay,
		DemoCount:     c.DemoCount,
		Timeout:       c.Timeout,
		MaxConcurrent: c.MaxConcurrent,
		MaxWait:       c.MaxWaitTime,
	}
}

// observer avoids handing a typed nil registry to the core.
func observer(reg *metrics.Registry) core.Observer {
	if reg == nil {
		return nil
	}
	return reg
}

// sameOrigin accepts WebSocket upgrades from pages served by this host.
func sameOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return u.Host == r.Host
}
