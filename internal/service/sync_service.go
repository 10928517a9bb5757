package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/analytics"
	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/apperrors"
	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/events"
	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/model"
	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/repository"
)

// defaultKeepSnapshots is how many snapshots per portfolio survive pruning.
const defaultKeepSnapshots = 5

// SyncService pulls a portfolio from Kinvo and stores the result as a snapshot.
//
// A sync is all-or-nothing: the snapshot, the portfolio's sync time and the
// sync run are written in one transaction, and a failed sync only records a
// failed run. Only one sync per portfolio runs at a time.
type SyncService struct {
	db               *sql.DB
	portfolioService *PortfolioService
	loader           *LoaderService
	portfolioRepo    *repository.PortfolioRepository
	snapshotRepo     *repository.SnapshotRepository
	syncRunRepo      *repository.SyncRunRepository
	publisher        events.Publisher
	keepSnapshots    int
	now              func() time.Time
	logger           *slog.Logger

	mu      sync.Mutex
	running map[int64]bool
}

// NewSyncService creates a new SyncService with the provided dependencies.
// A nil publisher disables event publishing.
func NewSyncService(
	db *sql.DB,
	portfolioService *PortfolioService,
	loader *LoaderService,
	portfolioRepo *repository.PortfolioRepository,
	snapshotRepo *repository.SnapshotRepository,
	syncRunRepo *repository.SyncRunRepository,
	publisher events.Publisher,
) *SyncService {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &SyncService{
		db:               db,
		portfolioService: portfolioService,
		loader:           loader,
		portfolioRepo:    portfolioRepo,
		snapshotRepo:     snapshotRepo,
		syncRunRepo:      syncRunRepo,
		publisher:        publisher,
		keepSnapshots:    defaultKeepSnapshots,
		now:              time.Now,
		logger:           slog.Default().With("component", "sync"),
		running:          make(map[int64]bool),
	}
}

// SyncPortfolio loads a portfolio from Kinvo, builds a snapshot and stores it.
//
// The returned SyncRun describes the attempt in both the success and the failure
// case; on failure the error is returned as well. A failure to load or build the
// snapshot leaves the previous snapshot in place.
//
// Returns:
//   - model.SyncRun: The recorded run
//   - error: ErrPortfolioNotFound, ErrSyncInProgress, or the load/build/store failure
func (s *SyncService) SyncPortfolio(ctx context.Context, portfolioID int64) (model.SyncRun, error) {
	if _, err := s.portfolioService.GetPortfolio(ctx, portfolioID); err != nil {
		return model.SyncRun{}, err
	}

	if !s.acquire(portfolioID) {
		return model.SyncRun{}, apperrors.ErrSyncInProgress
	}
	defer s.release(portfolioID)

	run := model.SyncRun{
		ID:          uuid.New().String(),
		PortfolioID: portfolioID,
		StartedAt:   s.now().UTC(),
	}

	snapshot, err := s.syncPortfolio(ctx, &run)
	if err != nil {
		s.recordFailure(ctx, &run, err)
		return run, err
	}

	s.logger.InfoContext(ctx, "portfolio synced",
		"portfolio_id", portfolioID,
		"snapshot_id", snapshot.Snapshot.ID,
		"records", snapshot.Snapshot.RecordCount,
		"duration_ms", run.DurationMs)

	if pruned, err := s.snapshotRepo.PruneSnapshots(ctx, portfolioID, s.keepSnapshots); err != nil {
		s.logger.WarnContext(ctx, "failed to prune snapshots", "portfolio_id", portfolioID, "error", err)
	} else if pruned > 0 {
		s.logger.DebugContext(ctx, "pruned snapshots", "portfolio_id", portfolioID, "count", pruned)
	}

	if err := s.publisher.PublishSnapshotSynced(ctx, syncedMessage(run, snapshot)); err != nil {
		s.logger.WarnContext(ctx, "failed to publish snapshot synced event", "portfolio_id", portfolioID, "error", err)
	}

	return run, nil
}

func (s *SyncService) syncPortfolio(ctx context.Context, run *model.SyncRun) (model.SnapshotData, error) {
	data, err := s.loader.LoadPortfolio(ctx, run.PortfolioID)
	if err != nil {
		return model.SnapshotData{}, err
	}

	snapshot, err := BuildSnapshot(data)
	if err != nil {
		return model.SnapshotData{}, err
	}
	snapshot.Snapshot.ID = uuid.New().String()
	snapshot.Snapshot.CreatedAt = s.now().UTC()

	run.FinishedAt = s.now().UTC()
	run.DurationMs = run.FinishedAt.Sub(run.StartedAt).Milliseconds()
	run.Status = model.SyncStatusSuccess
	run.SnapshotID = &snapshot.Snapshot.ID

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.SnapshotData{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := s.snapshotRepo.WithTx(tx).InsertSnapshot(ctx, snapshot); err != nil {
		return model.SnapshotData{}, err
	}
	if err := s.portfolioRepo.WithTx(tx).SetLastSynced(ctx, run.PortfolioID, snapshot.Snapshot.CreatedAt); err != nil {
		return model.SnapshotData{}, err
	}
	if err := s.syncRunRepo.WithTx(tx).InsertSyncRun(ctx, *run); err != nil {
		return model.SnapshotData{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.SnapshotData{}, fmt.Errorf("commit snapshot: %w", err)
	}

	return snapshot, nil
}

func (s *SyncService) recordFailure(ctx context.Context, run *model.SyncRun, cause error) {
	msg := cause.Error()
	run.FinishedAt = s.now().UTC()
	run.DurationMs = run.FinishedAt.Sub(run.StartedAt).Milliseconds()
	run.Status = model.SyncStatusFailed
	run.SnapshotID = nil
	run.Error = &msg

	s.logger.ErrorContext(ctx, "portfolio sync failed", "portfolio_id", run.PortfolioID, "error", cause)

	// The run is recorded even if the caller's context was cancelled
	if err := s.syncRunRepo.InsertSyncRun(context.WithoutCancel(ctx), *run); err != nil {
		s.logger.ErrorContext(ctx, "failed to record sync run", "portfolio_id", run.PortfolioID, "error", err)
	}
}

// SyncAll syncs every known portfolio one after another.
// Failures are collected; one portfolio failing does not stop the others.
func (s *SyncService) SyncAll(ctx context.Context) error {
	portfolios, err := s.portfolioService.GetPortfolios(ctx, false)
	if err != nil {
		return fmt.Errorf("list portfolios: %w", err)
	}

	var errs []error
	for _, p := range portfolios {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		if _, err := s.SyncPortfolio(ctx, p.ID); err != nil {
			errs = append(errs, fmt.Errorf("portfolio %d: %w", p.ID, err))
		}
	}
	return errors.Join(errs...)
}

// GetSyncRuns returns the latest sync runs of a portfolio, newest first.
func (s *SyncService) GetSyncRuns(ctx context.Context, portfolioID int64, limit int) ([]model.SyncRun, error) {
	if _, err := s.portfolioRepo.GetPortfolio(ctx, portfolioID); err != nil {
		return nil, err
	}
	return s.syncRunRepo.GetSyncRuns(ctx, portfolioID, limit)
}

func (s *SyncService) acquire(portfolioID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running[portfolioID] {
		return false
	}
	s.running[portfolioID] = true
	return true
}

func (s *SyncService) release(portfolioID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.running, portfolioID)
}

// BuildSnapshot turns the loaded sources into the stored series.
//
// The monthly series merges capital gain, statements and the monthly benchmark
// chart. The daily profitability series keeps Kinvo's cumulative values with
// ratios attached, as does the annual series, and the daily equity series sums
// product equity per day.
// All series are ascending by date. ID and CreatedAt are left to the caller.
func BuildSnapshot(data *PortfolioData) (model.SnapshotData, error) {
	monthlyBenchmarks, err := analytics.NormalizeBenchmarks(data.Charts[model.ChartMonthly], model.ChartMonthly)
	if err != nil {
		return model.SnapshotData{}, fmt.Errorf("monthly profitability: %w", err)
	}
	daily, err := analytics.NormalizeBenchmarks(data.Charts[model.ChartDaily], model.ChartDaily)
	if err != nil {
		return model.SnapshotData{}, fmt.Errorf("daily profitability: %w", err)
	}
	for i := range daily {
		daily[i].Ratios = analytics.RatiosFor(daily[i].Profitability)
	}
	annual, err := analytics.NormalizeBenchmarks(data.Charts[model.ChartAnnual], model.ChartAnnual)
	if err != nil {
		return model.SnapshotData{}, fmt.Errorf("annual profitability: %w", err)
	}
	for i := range annual {
		annual[i].Ratios = analytics.RatiosFor(annual[i].Profitability)
	}

	monthly := analytics.SortedAscending(analytics.Merge(analytics.Month, analytics.Sources{
		CapitalGain: analytics.NormalizeCapitalGain(data.CapitalGain),
		Statements:  analytics.NormalizeStatements(data.Statements),
		Benchmarks:  monthlyBenchmarks,
	}))

	snapshot := model.Snapshot{
		PortfolioID: data.PortfolioID,
		RecordCount: len(monthly),
	}
	if len(monthly) > 0 {
		snapshot.FirstDate = monthly[0].ReferenceDate
		snapshot.LastDate = monthly[len(monthly)-1].ReferenceDate
	}

	return model.SnapshotData{
		Snapshot:            snapshot,
		Monthly:             monthly,
		DailyProfitability:  analytics.SortedAscending(daily),
		DailyEquity:         analytics.NormalizeDailyEquity(data.DailyEquity),
		AnnualProfitability: analytics.SortedAscending(annual),
		Assets:              data.Assets,
	}, nil
}

func syncedMessage(run model.SyncRun, snapshot model.SnapshotData) *events.SnapshotSyncedMessage {
	msg := &events.SnapshotSyncedMessage{
		PortfolioID: run.PortfolioID,
		SnapshotID:  snapshot.Snapshot.ID,
		SyncRunID:   run.ID,
		RecordCount: snapshot.Snapshot.RecordCount,
		Timestamp:   run.FinishedAt,
	}
	if n := len(snapshot.Monthly); n > 0 {
		msg.FirstDate = snapshot.Snapshot.FirstDate.Format("2006-01-02")
		msg.LastDate = snapshot.Snapshot.LastDate.Format("2006-01-02")
		msg.FinalEquity = snapshot.Monthly[n-1].FinalEquity
	}
	return msg
}
