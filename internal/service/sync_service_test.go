package service_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/apperrors"
	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/kinvo"
	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/model"
	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/repository"
	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/service"
	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/testutil"
)

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

// TestSyncService_SyncPortfolio tests the SyncPortfolio method.
//
// WHY: A sync turns all Kinvo sources into the stored snapshot every analysis
// reads. It must merge the sources into monthly rows, store all series at once,
// and never replace a good snapshot with the result of a failed load.
func TestSyncService_SyncPortfolio(t *testing.T) {
	ctx := context.Background()

	t.Run("stores a snapshot built from all sources", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		publisher := &testutil.MockPublisher{}
		svc := testutil.NewTestSyncService(t, db, testutil.NewMockKinvoClient(), publisher)
		snapshotRepo := repository.NewSnapshotRepository(db)

		// Execute
		run, err := svc.SyncPortfolio(ctx, testutil.MockPortfolioID)

		// Assert
		if err != nil {
			t.Fatalf("SyncPortfolio() returned unexpected error: %v", err)
		}
		if run.Status != model.SyncStatusSuccess || run.SnapshotID == nil {
			t.Fatalf("Expected successful run with snapshot, got %+v", run)
		}

		snapshot, err := snapshotRepo.GetLatestSnapshot(ctx, testutil.MockPortfolioID)
		if err != nil {
			t.Fatalf("GetLatestSnapshot() returned unexpected error: %v", err)
		}
		if snapshot.ID != *run.SnapshotID {
			t.Errorf("Expected snapshot %s, got %s", *run.SnapshotID, snapshot.ID)
		}
		if snapshot.RecordCount != 3 {
			t.Errorf("Expected 3 monthly records, got %d", snapshot.RecordCount)
		}
		if !snapshot.FirstDate.Equal(testutil.Date(2024, 1, 1)) || !snapshot.LastDate.Equal(testutil.Date(2024, 3, 1)) {
			t.Errorf("Expected range 2024-01-01..2024-03-01, got %s..%s", snapshot.FirstDate, snapshot.LastDate)
		}

		monthly, err := snapshotRepo.GetRecords(ctx, snapshot.ID, model.SeriesMonthly)
		if err != nil {
			t.Fatalf("GetRecords() returned unexpected error: %v", err)
		}
		jan, feb, mar := monthly[0], monthly[1], monthly[2]
		if jan.FinalEquity != 3015 || jan.Applications != 3000 || jan.CapitalGain != 15 {
			t.Errorf("Unexpected January row: %+v", jan)
		}
		if !approxEqual(feb.Profitability.Portfolio, 0.01) {
			t.Errorf("Expected February profitability 0.01, got %v", feb.Profitability.Portfolio)
		}
		if mar.Proceeds != 5 || mar.Cost != 1 || mar.Charges != 1 {
			t.Errorf("Expected March proceeds 5 and charges 1, got %+v", mar)
		}
		// Movementations = final - (initial + capital gain)
		if mar.Movementations != 0 || jan.Movementations != 3000 {
			t.Errorf("Expected movementations 3000 and 0, got %v and %v", jan.Movementations, mar.Movementations)
		}

		daily, err := snapshotRepo.GetRecords(ctx, snapshot.ID, model.SeriesDailyProfitability)
		if err != nil {
			t.Fatalf("GetRecords() returned unexpected error: %v", err)
		}
		if len(daily) != 3 || !approxEqual(daily[2].Profitability.Portfolio, 0.015) {
			t.Errorf("Expected 3 cumulative daily rows ending at 0.015, got %+v", daily)
		}
		if daily[0].Ratios.CDI == nil {
			t.Error("Expected daily ratios to be stored")
		}

		equity, err := snapshotRepo.GetRecords(ctx, snapshot.ID, model.SeriesDailyEquity)
		if err != nil {
			t.Fatalf("GetRecords() returned unexpected error: %v", err)
		}
		if len(equity) != 2 || equity[0].FinalEquity != 3039 || equity[1].FinalEquity != 3045 {
			t.Errorf("Expected daily equity 3039, 3045, got %+v", equity)
		}

		assets, err := snapshotRepo.GetAssets(ctx, snapshot.ID)
		if err != nil {
			t.Fatalf("GetAssets() returned unexpected error: %v", err)
		}
		if len(assets) != 2 {
			t.Errorf("Expected 2 assets, got %d", len(assets))
		}

		messages := publisher.Published()
		if len(messages) != 1 {
			t.Fatalf("Expected 1 published event, got %d", len(messages))
		}
		if messages[0].SnapshotID != snapshot.ID || messages[0].FinalEquity != 3045 || messages[0].LastDate != "2024-03-01" {
			t.Errorf("Unexpected event: %+v", messages[0])
		}

		portfolio, err := repository.NewPortfolioRepository(db).GetPortfolio(ctx, testutil.MockPortfolioID)
		if err != nil {
			t.Fatalf("GetPortfolio() returned unexpected error: %v", err)
		}
		if portfolio.LastSyncedAt == nil {
			t.Error("Expected last sync time to be set")
		}
	})

	t.Run("records a failed run and keeps the previous snapshot", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		client := testutil.NewMockKinvoClient()
		svc := testutil.NewTestSyncService(t, db, client, nil)
		first, err := svc.SyncPortfolio(ctx, testutil.MockPortfolioID)
		if err != nil {
			t.Fatalf("First SyncPortfolio() returned unexpected error: %v", err)
		}
		client.WithMethodError(testutil.MethodCapitalGain, &kinvo.SourceError{Endpoint: "capital-gain", StatusCode: 502})

		// Execute
		run, err := svc.SyncPortfolio(ctx, testutil.MockPortfolioID)

		// Assert
		if !errors.Is(err, apperrors.ErrSourceFailure) {
			t.Fatalf("Expected ErrSourceFailure, got %v", err)
		}
		if run.Status != model.SyncStatusFailed || run.Error == nil || run.SnapshotID != nil {
			t.Errorf("Expected failed run with error, got %+v", run)
		}

		snapshot, err := repository.NewSnapshotRepository(db).GetLatestSnapshot(ctx, testutil.MockPortfolioID)
		if err != nil {
			t.Fatalf("GetLatestSnapshot() returned unexpected error: %v", err)
		}
		if snapshot.ID != *first.SnapshotID {
			t.Errorf("Expected previous snapshot %s to remain, got %s", *first.SnapshotID, snapshot.ID)
		}

		runs, err := svc.GetSyncRuns(ctx, testutil.MockPortfolioID, 10)
		if err != nil {
			t.Fatalf("GetSyncRuns() returned unexpected error: %v", err)
		}
		if len(runs) != 2 {
			t.Fatalf("Expected 2 runs, got %d", len(runs))
		}
		if runs[0].Status != model.SyncStatusFailed || runs[1].Status != model.SyncStatusSuccess {
			t.Errorf("Expected newest run first, got %s then %s", runs[0].Status, runs[1].Status)
		}
	})

	t.Run("fails on a missing benchmark without storing anything", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		client := testutil.NewMockKinvoClient()
		charts := client.ProfitabilityCharts
		charts.MonthlyProfitabilityToChart.Series = charts.MonthlyProfitabilityToChart.Series[:2]
		client.WithProfitability(charts)
		svc := testutil.NewTestSyncService(t, db, client, nil)

		// Execute
		_, err := svc.SyncPortfolio(ctx, testutil.MockPortfolioID)

		// Assert
		if !errors.Is(err, apperrors.ErrMissingBenchmark) {
			t.Fatalf("Expected ErrMissingBenchmark, got %v", err)
		}
		if n := testutil.CountRows(t, db, "snapshot"); n != 0 {
			t.Errorf("Expected no snapshot, got %d", n)
		}
		if n := testutil.CountRows(t, db, "snapshot_record"); n != 0 {
			t.Errorf("Expected no records, got %d", n)
		}
	})

	t.Run("returns ErrPortfolioNotFound for unknown portfolios", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestSyncService(t, db, testutil.NewMockKinvoClient(), nil)

		_, err := svc.SyncPortfolio(ctx, 42)
		if !errors.Is(err, apperrors.ErrPortfolioNotFound) {
			t.Errorf("Expected ErrPortfolioNotFound, got %v", err)
		}
		if n := testutil.CountRows(t, db, "sync_run"); n != 0 {
			t.Errorf("Expected no sync run for unknown portfolio, got %d", n)
		}
	})

	t.Run("a failing publisher does not fail the sync", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		publisher := &testutil.MockPublisher{Err: errors.New("broker down")}
		svc := testutil.NewTestSyncService(t, db, testutil.NewMockKinvoClient(), publisher)

		run, err := svc.SyncPortfolio(ctx, testutil.MockPortfolioID)
		if err != nil {
			t.Fatalf("SyncPortfolio() returned unexpected error: %v", err)
		}
		if run.Status != model.SyncStatusSuccess {
			t.Errorf("Expected success, got %s", run.Status)
		}
	})
}

// TestSyncService_SyncAll tests the SyncAll method.
//
// WHY: The scheduler syncs every portfolio in one pass; one failing portfolio
// must not keep the others from being synced.
func TestSyncService_SyncAll(t *testing.T) {
	ctx := context.Background()

	t.Run("syncs every portfolio", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		client := testutil.NewMockKinvoClient().WithPortfolios(
			kinvo.PortfolioItem{ID: 1001, Title: "Carteira A"},
			kinvo.PortfolioItem{ID: 1002, Title: "Carteira B"},
		)
		svc := testutil.NewTestSyncService(t, db, client, nil)

		if err := svc.SyncAll(ctx); err != nil {
			t.Fatalf("SyncAll() returned unexpected error: %v", err)
		}

		if n := testutil.CountRows(t, db, "snapshot"); n != 2 {
			t.Errorf("Expected 2 snapshots, got %d", n)
		}
		if client.CallCount(testutil.MethodConsolidatePortfolio) != 2 {
			t.Errorf("Expected 2 consolidations, got %d", client.CallCount(testutil.MethodConsolidatePortfolio))
		}
	})

	t.Run("collects failures", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		testutil.NewPortfolio().WithID(1001).Build(t, db)
		testutil.NewPortfolio().WithID(1002).Build(t, db)
		client := testutil.NewMockKinvoClient().WithMethodError(testutil.MethodConsolidatePortfolio, apperrors.ErrUnauthorized)
		svc := testutil.NewTestSyncService(t, db, client, nil)

		err := svc.SyncAll(ctx)

		if !errors.Is(err, apperrors.ErrUnauthorized) {
			t.Fatalf("Expected ErrUnauthorized, got %v", err)
		}
		if n := testutil.CountRows(t, db, "sync_run"); n != 2 {
			t.Errorf("Expected a failed run per portfolio, got %d", n)
		}
	})
}

// TestBuildSnapshot tests snapshot construction from loaded sources.
//
// WHY: Benchmark points only attach to months that have balances; a chart month
// without capital gain or statements must not create a row of its own.
func TestBuildSnapshot(t *testing.T) {
	chart := testutil.MockChart(
		[]kinvo.Category{"dez. 23", "jan. 24"},
		[]float64{2, 1}, []float64{1, 1}, []float64{1, 1}, []float64{1, 1}, []float64{1, 1},
	)
	data := &service.PortfolioData{
		PortfolioID: 7,
		CapitalGain: []model.CapitalGainEntry{
			{ReferenceDate: testutil.Date(2024, 1, 1), ValueApplied: 100, FinalEquity: 101, CapitalGain: 1},
		},
		Charts: map[model.ChartPeriod]model.ProfitabilityChart{
			model.ChartMonthly: chart.ToModel(),
			model.ChartDaily:   testutil.MockChart(nil, nil, nil, nil, nil, nil).ToModel(),
			model.ChartAnnual: testutil.MockChart(
				[]kinvo.Category{"2023", "2024"},
				[]float64{3, 1}, []float64{2, 1}, []float64{1, 1}, []float64{1, 1}, []float64{1, 1},
			).ToModel(),
		},
	}

	snapshot, err := service.BuildSnapshot(data)
	if err != nil {
		t.Fatalf("BuildSnapshot() returned unexpected error: %v", err)
	}

	if len(snapshot.Monthly) != 1 {
		t.Fatalf("Expected 1 monthly row, got %d", len(snapshot.Monthly))
	}
	if !approxEqual(snapshot.Monthly[0].Profitability.Portfolio, 0.01) {
		t.Errorf("Expected January profitability 0.01, got %v", snapshot.Monthly[0].Profitability.Portfolio)
	}
	if snapshot.Snapshot.RecordCount != 1 || snapshot.Snapshot.PortfolioID != 7 {
		t.Errorf("Unexpected snapshot header: %+v", snapshot.Snapshot)
	}
	if len(snapshot.DailyProfitability) != 0 {
		t.Errorf("Expected no daily rows, got %d", len(snapshot.DailyProfitability))
	}
	if len(snapshot.AnnualProfitability) != 2 {
		t.Fatalf("Expected 2 annual rows, got %d", len(snapshot.AnnualProfitability))
	}
	year := snapshot.AnnualProfitability[0]
	if !year.ReferenceDate.Equal(testutil.Date(2023, 1, 1)) || !approxEqual(year.Profitability.Portfolio, 0.03) {
		t.Errorf("Expected 2023 first at 0.03, got %+v", year)
	}
	if year.Ratios.CDI == nil || !approxEqual(*year.Ratios.CDI, 1.5) {
		t.Errorf("Expected CDI ratio 1.5 on annual rows, got %v", year.Ratios.CDI)
	}
}
