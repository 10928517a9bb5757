// Package scheduler runs the periodic sync of every Kinvo portfolio.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/logging"
)

// Syncer syncs all known portfolios.
type Syncer interface {
	SyncAll(ctx context.Context) error
}

// Scheduler triggers Syncer.SyncAll on a cron schedule.
// A run that is still going when the next one is due causes that one to be skipped.
type Scheduler struct {
	cron    *cron.Cron
	syncer  Syncer
	timeout time.Duration
	logger  *slog.Logger

	baseCtx context.Context
}

// New creates a Scheduler for a standard five-field cron spec or a descriptor
// such as "@hourly" or "@every 30m".
//
// Parameters:
//   - spec: The cron schedule
//   - syncer: What to run on each tick
//   - timeout: Upper bound for a single run
//
// Returns:
//   - *Scheduler: A scheduler that is not started yet
//   - error: If spec cannot be parsed
func New(spec string, syncer Syncer, timeout time.Duration) (*Scheduler, error) {
	logger := logging.WithComponent("scheduler")
	s := &Scheduler{
		cron: cron.New(cron.WithChain(
			cron.Recover(cron.DefaultLogger),
			cron.SkipIfStillRunning(cron.DefaultLogger),
		)),
		syncer:  syncer,
		timeout: timeout,
		logger:  logger,
		baseCtx: context.Background(),
	}

	if _, err := s.cron.AddFunc(spec, s.run); err != nil {
		return nil, fmt.Errorf("schedule sync %q: %w", spec, err)
	}
	return s, nil
}

// Start begins scheduling. Runs are cancelled when ctx is.
func (s *Scheduler) Start(ctx context.Context) {
	s.baseCtx = ctx
	s.cron.Start()

	for _, entry := range s.cron.Entries() {
		s.logger.Info("scheduled sync enabled", "next_run", entry.Next.UTC().Format(time.RFC3339))
	}
}

// Stop stops scheduling and waits for a running sync to return, or for ctx to end.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(s.baseCtx, s.timeout)
	defer cancel()

	start := time.Now()
	s.logger.InfoContext(ctx, "scheduled sync started")

	if err := s.syncer.SyncAll(ctx); err != nil {
		s.logger.ErrorContext(ctx, "scheduled sync failed",
			"error", err,
			"duration_ms", time.Since(start).Milliseconds())
		return
	}

	s.logger.InfoContext(ctx, "scheduled sync finished", "duration_ms", time.Since(start).Milliseconds())
}
