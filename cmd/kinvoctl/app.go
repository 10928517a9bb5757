package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/subcommands"

	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/app"
	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/config"
	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/logging"
)

// loadConfig reads the configuration and sends logs to stderr, keeping stdout
// for command output.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	level, _ := logging.ParseLevel(cfg.Log.Level)
	slog.SetDefault(logging.New(os.Stderr, level))
	return cfg, nil
}

// withApp opens the application, runs fn and closes it again.
// The context passed to fn is cancelled on SIGINT or SIGTERM.
func withApp(ctx context.Context, fn func(context.Context, *app.App) error) subcommands.ExitStatus {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.Close() //nolint:errcheck

	if err := fn(ctx, a); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func usageError(format string, args ...any) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	return subcommands.ExitUsageError
}
