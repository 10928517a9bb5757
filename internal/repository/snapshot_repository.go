package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/apperrors"
	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/model"
)

// SnapshotRepository provides data access methods for the snapshot,
// snapshot_record and snapshot_asset tables.
type SnapshotRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewSnapshotRepository creates a new SnapshotRepository with the provided database connection.
func NewSnapshotRepository(db *sql.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// WithTx returns a new SnapshotRepository scoped to the provided transaction.
func (r *SnapshotRepository) WithTx(tx *sql.Tx) *SnapshotRepository {
	return &SnapshotRepository{
		db: r.db,
		tx: tx,
	}
}

func (r *SnapshotRepository) getQuerier() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

const recordColumns = `
    reference_date, value_applied, initial_equity, final_equity,
    applications, redemptions, movementations, returns, proceeds, capital_gain,
    income_tax, iof, cost, charges,
    profitability, profitability_cdi, profitability_ibov, profitability_inflation, profitability_savings,
    ratio_cdi, ratio_ibov, ratio_inflation, ratio_savings`

// InsertSnapshot stores a snapshot with all its series and assets.
// Callers wanting atomicity pass a repository obtained from WithTx.
func (r *SnapshotRepository) InsertSnapshot(ctx context.Context, data model.SnapshotData) error {
	s := data.Snapshot
	_, err := r.getQuerier().ExecContext(ctx, `
        INSERT INTO snapshot (id, portfolio_id, created_at, first_date, last_date, record_count)
        VALUES (?, ?, ?, ?, ?, ?)`,
		s.ID, s.PortfolioID, formatTimestamp(s.CreatedAt), nullDate(s.FirstDate), nullDate(s.LastDate), s.RecordCount,
	)
	if err != nil {
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}

	series := []struct {
		name model.RecordSeries
		rows []model.Record
	}{
		{model.SeriesMonthly, data.Monthly},
		{model.SeriesDailyProfitability, data.DailyProfitability},
		{model.SeriesDailyEquity, data.DailyEquity},
		{model.SeriesAnnualProfitability, data.AnnualProfitability},
	}
	for _, sr := range series {
		if err := r.insertRecords(ctx, s.ID, sr.name, sr.rows); err != nil {
			return err
		}
	}

	return r.insertAssets(ctx, s.ID, data.Assets)
}

func (r *SnapshotRepository) insertRecords(ctx context.Context, snapshotID string, series model.RecordSeries, rows []model.Record) error {
	query := `INSERT INTO snapshot_record (snapshot_id, series, ` + recordColumns + `)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	for _, rec := range rows {
		p := rec.Profitability
		_, err := r.getQuerier().ExecContext(ctx, query,
			snapshotID, string(series),
			formatDate(rec.ReferenceDate), rec.ValueApplied, rec.InitialEquity, rec.FinalEquity,
			rec.Applications, rec.Redemptions, rec.Movementations, rec.Returns, rec.Proceeds, rec.CapitalGain,
			rec.IncomeTax, rec.IOF, rec.Cost, rec.Charges,
			p.Portfolio, p.CDI, p.IBOV, p.Inflation, p.Savings,
			nullFloat(rec.Ratios.CDI), nullFloat(rec.Ratios.IBOV), nullFloat(rec.Ratios.Inflation), nullFloat(rec.Ratios.Savings),
		)
		if err != nil {
			return fmt.Errorf("failed to insert %s record %s: %w", series, formatDate(rec.ReferenceDate), err)
		}
	}
	return nil
}

func (r *SnapshotRepository) insertAssets(ctx context.Context, snapshotID string, assets []model.Asset) error {
	query := `
        INSERT INTO snapshot_asset (
            snapshot_id, portfolio_product_id, product_id, product_name, product_type_id, product_type_name,
            financial_institution_id, financial_institution_name, strategy_id, strategy_description,
            value_applied, equity, profitability, portfolio_percentage
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	for _, a := range assets {
		_, err := r.getQuerier().ExecContext(ctx, query,
			snapshotID, a.PortfolioProductID, a.ProductID, a.ProductName, a.ProductTypeID, a.ProductTypeName,
			a.FinancialInstitutionID, a.FinancialInstitutionName, a.StrategyID, a.StrategyDescription,
			a.ValueApplied, a.Equity, a.Profitability, a.PortfolioPercentage,
		)
		if err != nil {
			return fmt.Errorf("failed to insert asset %d: %w", a.PortfolioProductID, err)
		}
	}
	return nil
}

// GetLatestSnapshot returns the most recent snapshot of a portfolio.
// Returns apperrors.ErrSnapshotNotFound if the portfolio was never synced.
func (r *SnapshotRepository) GetLatestSnapshot(ctx context.Context, portfolioID int64) (model.Snapshot, error) {
	query := `
        SELECT id, portfolio_id, created_at, first_date, last_date, record_count
        FROM snapshot
        WHERE portfolio_id = ?
        ORDER BY created_at DESC
        LIMIT 1`

	var (
		s                   model.Snapshot
		createdAt           string
		firstDate, lastDate sql.NullString
	)
	err := r.getQuerier().QueryRowContext(ctx, query, portfolioID).Scan(
		&s.ID, &s.PortfolioID, &createdAt, &firstDate, &lastDate, &s.RecordCount,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Snapshot{}, apperrors.ErrSnapshotNotFound
	}
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("failed to query snapshot: %w", err)
	}

	if s.CreatedAt, err = ParseTime(createdAt); err != nil {
		return model.Snapshot{}, err
	}
	if s.FirstDate, err = parseNullTime(firstDate); err != nil {
		return model.Snapshot{}, err
	}
	if s.LastDate, err = parseNullTime(lastDate); err != nil {
		return model.Snapshot{}, err
	}
	return s, nil
}

// EachRecord streams the records of one series to fn in ascending date order.
// Iteration stops at the first error returned by fn.
func (r *SnapshotRepository) EachRecord(ctx context.Context, snapshotID string, series model.RecordSeries, fn func(model.Record) error) error {
	query := `SELECT ` + recordColumns + `
        FROM snapshot_record
        WHERE snapshot_id = ? AND series = ?
        ORDER BY reference_date ASC`

	rows, err := r.getQuerier().QueryContext(ctx, query, snapshotID, string(series))
	if err != nil {
		return fmt.Errorf("failed to query snapshot_record table: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			rec                   model.Record
			date                  string
			cdi, ibov, ipca, poup sql.NullFloat64
		)
		err := rows.Scan(
			&date, &rec.ValueApplied, &rec.InitialEquity, &rec.FinalEquity,
			&rec.Applications, &rec.Redemptions, &rec.Movementations, &rec.Returns, &rec.Proceeds, &rec.CapitalGain,
			&rec.IncomeTax, &rec.IOF, &rec.Cost, &rec.Charges,
			&rec.Profitability.Portfolio, &rec.Profitability.CDI, &rec.Profitability.IBOV,
			&rec.Profitability.Inflation, &rec.Profitability.Savings,
			&cdi, &ibov, &ipca, &poup,
		)
		if err != nil {
			return fmt.Errorf("failed to scan snapshot_record results: %w", err)
		}
		if rec.ReferenceDate, err = ParseTime(date); err != nil {
			return err
		}
		rec.Ratios = model.Ratios{CDI: floatPtr(cdi), IBOV: floatPtr(ibov), Inflation: floatPtr(ipca), Savings: floatPtr(poup)}

		if err := fn(rec); err != nil {
			return err
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating snapshot_record table: %w", err)
	}
	return nil
}

// GetRecords returns the records of one series in ascending date order.
func (r *SnapshotRepository) GetRecords(ctx context.Context, snapshotID string, series model.RecordSeries) ([]model.Record, error) {
	records := []model.Record{}
	err := r.EachRecord(ctx, snapshotID, series, func(rec model.Record) error {
		records = append(records, rec)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// GetAssets returns the assets stored with a snapshot, largest equity first.
func (r *SnapshotRepository) GetAssets(ctx context.Context, snapshotID string) ([]model.Asset, error) {
	query := `
        SELECT portfolio_product_id, product_id, product_name, product_type_id, product_type_name,
               financial_institution_id, financial_institution_name, strategy_id, strategy_description,
               value_applied, equity, profitability, portfolio_percentage
        FROM snapshot_asset
        WHERE snapshot_id = ?
        ORDER BY equity DESC, portfolio_product_id`

	rows, err := r.getQuerier().QueryContext(ctx, query, snapshotID)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot_asset table: %w", err)
	}
	defer rows.Close()

	assets := []model.Asset{}
	for rows.Next() {
		var a model.Asset
		err := rows.Scan(
			&a.PortfolioProductID, &a.ProductID, &a.ProductName, &a.ProductTypeID, &a.ProductTypeName,
			&a.FinancialInstitutionID, &a.FinancialInstitutionName, &a.StrategyID, &a.StrategyDescription,
			&a.ValueApplied, &a.Equity, &a.Profitability, &a.PortfolioPercentage,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot_asset results: %w", err)
		}
		assets = append(assets, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshot_asset table: %w", err)
	}
	return assets, nil
}

// PruneSnapshots deletes all but the newest keep snapshots of a portfolio.
// Records and assets go with them through ON DELETE CASCADE.
func (r *SnapshotRepository) PruneSnapshots(ctx context.Context, portfolioID int64, keep int) (int64, error) {
	res, err := r.getQuerier().ExecContext(ctx, `
        DELETE FROM snapshot
        WHERE portfolio_id = ?
          AND id NOT IN (
              SELECT id FROM snapshot
              WHERE portfolio_id = ?
              ORDER BY created_at DESC
              LIMIT ?
          )`,
		portfolioID, portfolioID, keep,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to prune snapshots: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n, nil
}
