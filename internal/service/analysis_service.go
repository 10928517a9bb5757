package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/analytics"
	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/model"
	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/repository"
)

// Query selects the window and bucket size of an analysis.
// From and To are only used with the Custom interval.
type Query struct {
	Interval    analytics.Interval
	From        time.Time
	To          time.Time
	Granularity analytics.Granularity
}

// Summary is the bucketed monthly series of a portfolio plus its total over the window.
type Summary struct {
	SnapshotID  string                `json:"snapshotId"`
	Range       analytics.DateRange   `json:"range"`
	Granularity analytics.Granularity `json:"granularity"`
	Rows        []model.Record        `json:"rows"`
	Total       *model.Record         `json:"total"`
}

// Profitability is the profitability chart of a portfolio, ascending by date.
type Profitability struct {
	SnapshotID  string                `json:"snapshotId"`
	Range       analytics.DateRange   `json:"range"`
	Granularity analytics.Granularity `json:"granularity"`
	Rows        []model.Record        `json:"rows"`
}

// NetWorth is the net worth chart of a portfolio, ascending by date.
type NetWorth struct {
	SnapshotID  string                `json:"snapshotId"`
	Range       analytics.DateRange   `json:"range"`
	Granularity analytics.Granularity `json:"granularity"`
	Points      []model.NetWorthPoint `json:"points"`
}

// Allocation is the equity breakdown of a portfolio's assets.
type Allocation struct {
	SnapshotID string                       `json:"snapshotId"`
	GroupBy    analytics.AllocationGrouping `json:"groupBy"`
	Slices     []model.AllocationSlice      `json:"slices"`
}

// AnalysisService answers dashboard queries from the latest snapshot of a portfolio.
// It never calls Kinvo; a portfolio that was never synced has no snapshot.
type AnalysisService struct {
	portfolioRepo *repository.PortfolioRepository
	snapshotRepo  *repository.SnapshotRepository
	now           func() time.Time
}

// NewAnalysisService creates a new AnalysisService with the provided repositories.
func NewAnalysisService(portfolioRepo *repository.PortfolioRepository, snapshotRepo *repository.SnapshotRepository) *AnalysisService {
	return &AnalysisService{
		portfolioRepo: portfolioRepo,
		snapshotRepo:  snapshotRepo,
		now:           time.Now,
	}
}

// Summary filters the monthly series to the query window and buckets it.
//
// Parameters:
//   - ctx: Context for cancellation
//   - portfolioID: The Kinvo portfolio ID
//   - q: Window and granularity; Total yields only the total row
//
// Returns:
//   - Summary: Rows descending by date and the Total row (nil when the window is empty)
//   - error: ErrPortfolioNotFound, ErrSnapshotNotFound, ErrInvalidDateRange or a store failure
func (s *AnalysisService) Summary(ctx context.Context, portfolioID int64, q Query) (Summary, error) {
	q = q.withDefaults()
	snapshot, r, err := s.resolve(ctx, portfolioID, q)
	if err != nil {
		return Summary{}, err
	}

	rows, err := s.monthlyInRange(ctx, snapshot.ID, r)
	if err != nil {
		return Summary{}, err
	}

	result := Summary{
		SnapshotID:  snapshot.ID,
		Range:       r,
		Granularity: q.Granularity,
		Rows:        []model.Record{},
	}
	if totals := analytics.Aggregate(rows, analytics.Total); len(totals) > 0 {
		result.Total = &totals[0]
	}
	if q.Granularity != analytics.Total {
		result.Rows = analytics.Aggregate(rows, q.Granularity)
	}
	return result, nil
}

// Profitability returns the portfolio and benchmark returns over the query window.
//
// With Day granularity the stored cumulative daily series is re-based onto the
// window. Yearly rows over the whole history are Kinvo's own annual returns when
// the snapshot has them. Otherwise the monthly series is bucketed, which
// compounds the monthly returns within each bucket.
func (s *AnalysisService) Profitability(ctx context.Context, portfolioID int64, q Query) (Profitability, error) {
	q = q.withDefaults()
	snapshot, r, err := s.resolve(ctx, portfolioID, q)
	if err != nil {
		return Profitability{}, err
	}

	result := Profitability{SnapshotID: snapshot.ID, Range: r, Granularity: q.Granularity}

	if q.Granularity == analytics.Day {
		daily, err := s.snapshotRepo.GetRecords(ctx, snapshot.ID, model.SeriesDailyProfitability)
		if err != nil {
			return Profitability{}, err
		}
		result.Rows, err = analytics.ProfitabilityWindow(daily, r)
		if err != nil {
			return Profitability{}, fmt.Errorf("daily profitability window: %w", err)
		}
		return result, nil
	}

	if q.Granularity == analytics.Year && q.Interval == analytics.SinceStart {
		annual, err := s.snapshotRepo.GetRecords(ctx, snapshot.ID, model.SeriesAnnualProfitability)
		if err != nil {
			return Profitability{}, err
		}
		if len(annual) > 0 {
			result.Rows = analytics.SortedAscending(annual)
			return result, nil
		}
	}

	rows, err := s.monthlyInRange(ctx, snapshot.ID, r)
	if err != nil {
		return Profitability{}, err
	}
	result.Rows = analytics.SortedAscending(analytics.Aggregate(rows, q.Granularity))
	return result, nil
}

// NetWorth returns invested value and equity over the query window.
//
// With Day granularity the daily equity series is laid on a dense calendar from
// its first to its last day within the window, zero-filling days Kinvo has no
// equity for. Otherwise the monthly series is bucketed.
func (s *AnalysisService) NetWorth(ctx context.Context, portfolioID int64, q Query) (NetWorth, error) {
	q = q.withDefaults()
	snapshot, r, err := s.resolve(ctx, portfolioID, q)
	if err != nil {
		return NetWorth{}, err
	}

	var rows []model.Record
	if q.Granularity == analytics.Day {
		daily, err := s.snapshotRepo.GetRecords(ctx, snapshot.ID, model.SeriesDailyEquity)
		if err != nil {
			return NetWorth{}, err
		}
		daily = analytics.SortedAscending(analytics.FilterByDateRange(daily, r))
		if len(daily) > 0 {
			rows = analytics.AggregateDense(daily, analytics.Day, daily[0].ReferenceDate, daily[len(daily)-1].ReferenceDate)
		}
	} else {
		monthly, err := s.monthlyInRange(ctx, snapshot.ID, r)
		if err != nil {
			return NetWorth{}, err
		}
		rows = analytics.Aggregate(monthly, q.Granularity)
	}

	rows = analytics.SortedAscending(rows)
	points := make([]model.NetWorthPoint, len(rows))
	for i, row := range rows {
		points[i] = model.NetWorthPoint{
			ReferenceDate: row.ReferenceDate,
			ValueApplied:  row.ValueApplied,
			FinalEquity:   row.FinalEquity,
		}
	}

	return NetWorth{SnapshotID: snapshot.ID, Range: r, Granularity: q.Granularity, Points: points}, nil
}

// Allocation groups the assets of the latest snapshot by strategy, class or institution.
func (s *AnalysisService) Allocation(ctx context.Context, portfolioID int64, by analytics.AllocationGrouping) (Allocation, error) {
	snapshot, err := s.latestSnapshot(ctx, portfolioID)
	if err != nil {
		return Allocation{}, err
	}

	assets, err := s.snapshotRepo.GetAssets(ctx, snapshot.ID)
	if err != nil {
		return Allocation{}, err
	}

	return Allocation{
		SnapshotID: snapshot.ID,
		GroupBy:    by,
		Slices:     analytics.GroupAllocation(assets, by),
	}, nil
}

// Export writes the summary rows of the query as CSV to w.
// With Total granularity the single total row is written.
func (s *AnalysisService) Export(ctx context.Context, w io.Writer, portfolioID int64, q Query) error {
	q = q.withDefaults()
	summary, err := s.Summary(ctx, portfolioID, q)
	if err != nil {
		return err
	}

	rows := summary.Rows
	if q.Granularity == analytics.Total {
		rows = nil
		if summary.Total != nil {
			rows = []model.Record{*summary.Total}
		}
	}
	return analytics.WriteCSV(w, rows, q.Granularity)
}

// monthlyInRange streams the monthly series and keeps the rows within r.
func (s *AnalysisService) monthlyInRange(ctx context.Context, snapshotID string, r analytics.DateRange) ([]model.Record, error) {
	rows := []model.Record{}
	err := s.snapshotRepo.EachRecord(ctx, snapshotID, model.SeriesMonthly, func(row model.Record) error {
		if r.Contains(row.ReferenceDate) {
			rows = append(rows, row)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// withDefaults fills an unset interval and granularity: since start, by month.
func (q Query) withDefaults() Query {
	if q.Interval == "" {
		q.Interval = analytics.SinceStart
	}
	if q.Granularity == "" {
		q.Granularity = analytics.Month
	}
	return q
}

func (s *AnalysisService) resolve(ctx context.Context, portfolioID int64, q Query) (model.Snapshot, analytics.DateRange, error) {
	snapshot, err := s.latestSnapshot(ctx, portfolioID)
	if err != nil {
		return model.Snapshot{}, analytics.DateRange{}, err
	}

	if q.Interval == analytics.Custom {
		r, err := analytics.CustomRange(q.From, q.To)
		return snapshot, r, err
	}
	return snapshot, q.Interval.Range(s.now(), snapshot.FirstDate, snapshot.LastDate), nil
}

func (s *AnalysisService) latestSnapshot(ctx context.Context, portfolioID int64) (model.Snapshot, error) {
	if _, err := s.portfolioRepo.GetPortfolio(ctx, portfolioID); err != nil {
		return model.Snapshot{}, err
	}
	return s.snapshotRepo.GetLatestSnapshot(ctx, portfolioID)
}
