package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/api"
	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/app"
	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/config"
	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/logging"
	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/scheduler"
	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/version"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logging.Init(cfg.Log.Level)
	slog.Info("starting Kinvo analytics backend", "version", version.Version)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			slog.Error("failed to close resources", "error", err)
		}
	}()

	// Create router
	router := api.NewRouter(api.Services{
		System:     a.System,
		Portfolio:  a.Portfolio,
		Sync:       a.Sync,
		Analysis:   a.Analysis,
		Credential: a.Credential,
		Verifier:   a.Client,
	}, cfg)

	// Scheduled sync
	var sched *scheduler.Scheduler
	if cfg.Sync.Cron != "" {
		sched, err = scheduler.New(cfg.Sync.Cron, a.Sync, cfg.Sync.Timeout)
		if err != nil {
			return err
		}
		sched.Start(ctx)
	}

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute, // POST /sync waits for Kinvo
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	// Wait for interrupt signal for graceful shutdown
	select {
	case err := <-serverErr:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	slog.Info("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if sched != nil {
		if err := sched.Stop(shutdownCtx); err != nil {
			slog.Warn("scheduled sync still running at shutdown", "error", err)
		}
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	slog.Info("server exited")
	return nil
}
