package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/model"
)

// SyncRunRepository provides data access methods for the sync_run table.
type SyncRunRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewSyncRunRepository creates a new SyncRunRepository with the provided database connection.
func NewSyncRunRepository(db *sql.DB) *SyncRunRepository {
	return &SyncRunRepository{db: db}
}

// WithTx returns a new SyncRunRepository scoped to the provided transaction.
func (r *SyncRunRepository) WithTx(tx *sql.Tx) *SyncRunRepository {
	return &SyncRunRepository{
		db: r.db,
		tx: tx,
	}
}

func (r *SyncRunRepository) getQuerier() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

// InsertSyncRun records one sync attempt.
func (r *SyncRunRepository) InsertSyncRun(ctx context.Context, run model.SyncRun) error {
	_, err := r.getQuerier().ExecContext(ctx, `
        INSERT INTO sync_run (id, portfolio_id, started_at, finished_at, status, snapshot_id, error, duration_ms)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.PortfolioID, formatTimestamp(run.StartedAt), formatTimestamp(run.FinishedAt),
		run.Status, run.SnapshotID, run.Error, run.DurationMs,
	)
	if err != nil {
		return fmt.Errorf("failed to insert sync run: %w", err)
	}
	return nil
}

// GetSyncRuns returns the latest sync runs of a portfolio, newest first.
func (r *SyncRunRepository) GetSyncRuns(ctx context.Context, portfolioID int64, limit int) ([]model.SyncRun, error) {
	query := `
        SELECT id, portfolio_id, started_at, finished_at, status, snapshot_id, error, duration_ms
        FROM sync_run
        WHERE portfolio_id = ?
        ORDER BY started_at DESC
        LIMIT ?`

	rows, err := r.getQuerier().QueryContext(ctx, query, portfolioID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync_run table: %w", err)
	}
	defer rows.Close()

	runs := []model.SyncRun{}
	for rows.Next() {
		var (
			run                 model.SyncRun
			started, finished   string
			snapshotID, errText sql.NullString
		)
		err := rows.Scan(&run.ID, &run.PortfolioID, &started, &finished, &run.Status, &snapshotID, &errText, &run.DurationMs)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sync_run results: %w", err)
		}
		if run.StartedAt, err = ParseTime(started); err != nil {
			return nil, err
		}
		if run.FinishedAt, err = ParseTime(finished); err != nil {
			return nil, err
		}
		run.SnapshotID = stringPtr(snapshotID)
		run.Error = stringPtr(errText)
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sync_run table: %w", err)
	}
	return runs, nil
}
