package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/apperrors"
	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/model"
)

// PortfolioRepository provides data access methods for the portfolio table.
// It holds the Kinvo portfolios known locally and when they were last synced.
type PortfolioRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewPortfolioRepository creates a new PortfolioRepository with the provided database connection.
func NewPortfolioRepository(db *sql.DB) *PortfolioRepository {
	return &PortfolioRepository{db: db}
}

// WithTx returns a new PortfolioRepository scoped to the provided transaction.
func (r *PortfolioRepository) WithTx(tx *sql.Tx) *PortfolioRepository {
	return &PortfolioRepository{
		db: r.db,
		tx: tx,
	}
}

func (r *PortfolioRepository) getQuerier() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

// GetPortfolios retrieves all known portfolios ordered by name.
// Returns an empty slice if none are known yet.
func (r *PortfolioRepository) GetPortfolios(ctx context.Context) ([]model.Portfolio, error) {
	query := `
          SELECT id, name, last_synced_at
          FROM portfolio
          ORDER BY name, id
      `

	rows, err := r.getQuerier().QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolio table: %w", err)
	}
	defer rows.Close()

	portfolios := []model.Portfolio{}

	for rows.Next() {
		p, err := scanPortfolio(rows)
		if err != nil {
			return nil, err
		}
		portfolios = append(portfolios, p)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating portfolio table: %w", err)
	}

	return portfolios, nil
}

// GetPortfolio retrieves a single portfolio.
// Returns apperrors.ErrPortfolioNotFound when the ID is unknown.
func (r *PortfolioRepository) GetPortfolio(ctx context.Context, portfolioID int64) (model.Portfolio, error) {
	query := `
          SELECT id, name, last_synced_at
          FROM portfolio
          WHERE id = ?
      `

	p, err := scanPortfolio(r.getQuerier().QueryRowContext(ctx, query, portfolioID))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Portfolio{}, apperrors.ErrPortfolioNotFound
	}
	if err != nil {
		return model.Portfolio{}, err
	}
	return p, nil
}

// UpsertPortfolios inserts new portfolios and renames existing ones.
// The last sync time of existing portfolios is preserved.
func (r *PortfolioRepository) UpsertPortfolios(ctx context.Context, portfolios []model.Portfolio) error {
	query := `
          INSERT INTO portfolio (id, name)
          VALUES (?, ?)
          ON CONFLICT (id) DO UPDATE SET name = excluded.name
      `

	for _, p := range portfolios {
		if _, err := r.getQuerier().ExecContext(ctx, query, p.ID, p.Name); err != nil {
			return fmt.Errorf("failed to upsert portfolio %d: %w", p.ID, err)
		}
	}
	return nil
}

// SetLastSynced records the time of the latest successful sync.
func (r *PortfolioRepository) SetLastSynced(ctx context.Context, portfolioID int64, at time.Time) error {
	res, err := r.getQuerier().ExecContext(ctx,
		`UPDATE portfolio SET last_synced_at = ? WHERE id = ?`,
		formatTimestamp(at), portfolioID,
	)
	if err != nil {
		return fmt.Errorf("failed to update portfolio sync time: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return apperrors.ErrPortfolioNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPortfolio(row rowScanner) (model.Portfolio, error) {
	var (
		p          model.Portfolio
		lastSynced sql.NullString
	)
	if err := row.Scan(&p.ID, &p.Name, &lastSynced); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Portfolio{}, err
		}
		return model.Portfolio{}, fmt.Errorf("failed to scan portfolio: %w", err)
	}
	if lastSynced.Valid {
		t, err := ParseTime(lastSynced.String)
		if err != nil {
			return model.Portfolio{}, err
		}
		p.LastSyncedAt = &t
	}
	return p, nil
}
