package testutil

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/analytics"
	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/model"
	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/repository"
)

// PortfolioBuilder provides a fluent interface for creating test portfolios.
//
// Example usage:
//
//	// Simple creation with defaults
//	portfolio := testutil.NewPortfolio().Build(t, db)
//
//	// Customized portfolio
//	portfolio := testutil.NewPortfolio().
//	    WithID(1001).
//	    WithName("Carteira Principal").
//	    Build(t, db)
type PortfolioBuilder struct {
	ID           int64
	Name         string
	LastSyncedAt *time.Time
}

// NewPortfolio creates a PortfolioBuilder with sensible defaults.
func NewPortfolio() *PortfolioBuilder {
	return &PortfolioBuilder{
		ID:   MakePortfolioID(),
		Name: MakePortfolioName("Carteira"),
	}
}

// WithID sets the Kinvo portfolio ID.
func (b *PortfolioBuilder) WithID(id int64) *PortfolioBuilder {
	b.ID = id
	return b
}

// WithName sets a custom name.
func (b *PortfolioBuilder) WithName(name string) *PortfolioBuilder {
	b.Name = name
	return b
}

// SyncedAt marks the portfolio as synced at the given time.
func (b *PortfolioBuilder) SyncedAt(at time.Time) *PortfolioBuilder {
	at = at.UTC()
	b.LastSyncedAt = &at
	return b
}

// Build creates the portfolio in the database and returns it.
func (b *PortfolioBuilder) Build(t *testing.T, db *sql.DB) model.Portfolio {
	t.Helper()

	var syncedAt any
	if b.LastSyncedAt != nil {
		syncedAt = b.LastSyncedAt.Format(time.RFC3339Nano)
	}

	_, err := db.Exec(`INSERT INTO portfolio (id, name, last_synced_at) VALUES (?, ?, ?)`, b.ID, b.Name, syncedAt)
	if err != nil {
		t.Fatalf("Failed to create test portfolio: %v", err)
	}

	return model.Portfolio{
		ID:           b.ID,
		Name:         b.Name,
		LastSyncedAt: b.LastSyncedAt,
	}
}

// CreatePortfolio creates a portfolio with the given name and default values.
//
// Example usage:
//
//	portfolio := testutil.CreatePortfolio(t, db, "Carteira Principal")
func CreatePortfolio(t *testing.T, db *sql.DB, name string) model.Portfolio {
	t.Helper()
	return NewPortfolio().WithName(name).Build(t, db)
}

// RecordBuilder provides a fluent interface for creating records.
// Derived fields are computed by Build, the way the merge computes them.
//
// Example usage:
//
//	row := testutil.NewRecord(testutil.Date(2024, 1, 1)).
//	    WithBalances(1000, 0, 1010).
//	    WithCapitalGain(10).
//	    WithProfitability(0.01, 0.009, 0.02, 0.004, 0.006).
//	    Build()
type RecordBuilder struct {
	r model.Record
}

// NewRecord creates a RecordBuilder for the given reference date.
func NewRecord(date time.Time) *RecordBuilder {
	return &RecordBuilder{r: model.Record{ReferenceDate: date}}
}

// WithBalances sets the invested value and the initial and final equity.
func (b *RecordBuilder) WithBalances(valueApplied, initialEquity, finalEquity float64) *RecordBuilder {
	b.r.ValueApplied = valueApplied
	b.r.InitialEquity = initialEquity
	b.r.FinalEquity = finalEquity
	return b
}

// WithFlows sets applications, redemptions and proceeds.
func (b *RecordBuilder) WithFlows(applications, redemptions, proceeds float64) *RecordBuilder {
	b.r.Applications = applications
	b.r.Redemptions = redemptions
	b.r.Proceeds = proceeds
	return b
}

// WithCapitalGain sets the capital gain and returns of the period.
func (b *RecordBuilder) WithCapitalGain(capitalGain float64) *RecordBuilder {
	b.r.CapitalGain = capitalGain
	b.r.Returns = capitalGain
	return b
}

// WithCosts sets income tax, IOF and other costs.
func (b *RecordBuilder) WithCosts(incomeTax, iof, cost float64) *RecordBuilder {
	b.r.IncomeTax = incomeTax
	b.r.IOF = iof
	b.r.Cost = cost
	return b
}

// WithProfitability sets the portfolio and benchmark returns as fractions.
func (b *RecordBuilder) WithProfitability(portfolio, cdi, ibov, inflation, savings float64) *RecordBuilder {
	b.r.Profitability = model.Profitability{
		Portfolio: portfolio,
		CDI:       cdi,
		IBOV:      ibov,
		Inflation: inflation,
		Savings:   savings,
	}
	return b
}

// Build returns the record with its derived fields filled in.
func (b *RecordBuilder) Build() model.Record {
	r := b.r
	r.Movementations = r.FinalEquity - (r.InitialEquity + r.CapitalGain)
	r.Charges = r.IncomeTax + r.IOF + r.Cost
	r.Ratios = analytics.RatiosFor(r.Profitability)
	return r
}

// AssetBuilder provides a fluent interface for creating snapshot assets.
type AssetBuilder struct {
	a model.Asset
}

// NewAsset creates an AssetBuilder for a product.
func NewAsset(portfolioProductID int64, name string) *AssetBuilder {
	return &AssetBuilder{a: model.Asset{PortfolioProductID: portfolioProductID, ProductName: name}}
}

// WithEquity sets the invested value and current equity.
func (b *AssetBuilder) WithEquity(valueApplied, equity float64) *AssetBuilder {
	b.a.ValueApplied = valueApplied
	b.a.Equity = equity
	return b
}

// WithType sets the product type; the name comes from the lookup table.
func (b *AssetBuilder) WithType(productTypeID int) *AssetBuilder {
	b.a.ProductTypeID = productTypeID
	b.a.ProductTypeName = analytics.ProductTypeNames[productTypeID]
	return b
}

// WithStrategy sets the diversification strategy; the description comes from the lookup table.
func (b *AssetBuilder) WithStrategy(strategyID int) *AssetBuilder {
	b.a.StrategyID = strategyID
	b.a.StrategyDescription = analytics.StrategyDescriptions[strategyID]
	return b
}

// WithInstitution sets the financial institution.
func (b *AssetBuilder) WithInstitution(id int64, name string) *AssetBuilder {
	b.a.FinancialInstitutionID = id
	b.a.FinancialInstitutionName = name
	return b
}

// Build returns the asset.
func (b *AssetBuilder) Build() model.Asset {
	return b.a
}

// SnapshotBuilder provides a fluent interface for storing test snapshots.
//
// Example usage:
//
//	snapshot := testutil.NewSnapshot(portfolio.ID).
//	    WithMonthly(jan, feb).
//	    WithAssets(asset).
//	    Build(t, db)
type SnapshotBuilder struct {
	data model.SnapshotData
}

// NewSnapshot creates a SnapshotBuilder for the given portfolio.
func NewSnapshot(portfolioID int64) *SnapshotBuilder {
	return &SnapshotBuilder{data: model.SnapshotData{
		Snapshot: model.Snapshot{
			ID:          MakeID(),
			PortfolioID: portfolioID,
			CreatedAt:   time.Now().UTC(),
		},
	}}
}

// WithCreatedAt sets the creation time, which decides which snapshot is the latest.
func (b *SnapshotBuilder) WithCreatedAt(at time.Time) *SnapshotBuilder {
	b.data.Snapshot.CreatedAt = at.UTC()
	return b
}

// WithMonthly sets the monthly series. First and last dates follow from it.
func (b *SnapshotBuilder) WithMonthly(rows ...model.Record) *SnapshotBuilder {
	b.data.Monthly = analytics.SortedAscending(rows)
	return b
}

// WithDailyProfitability sets the cumulative daily profitability series.
func (b *SnapshotBuilder) WithDailyProfitability(rows ...model.Record) *SnapshotBuilder {
	b.data.DailyProfitability = analytics.SortedAscending(rows)
	return b
}

// WithDailyEquity sets the daily equity series.
func (b *SnapshotBuilder) WithDailyEquity(rows ...model.Record) *SnapshotBuilder {
	b.data.DailyEquity = analytics.SortedAscending(rows)
	return b
}

// WithAnnualProfitability sets Kinvo's yearly profitability series.
func (b *SnapshotBuilder) WithAnnualProfitability(rows ...model.Record) *SnapshotBuilder {
	b.data.AnnualProfitability = analytics.SortedAscending(rows)
	return b
}

// WithAssets sets the assets.
func (b *SnapshotBuilder) WithAssets(assets ...model.Asset) *SnapshotBuilder {
	b.data.Assets = assets
	return b
}

// Build stores the snapshot and returns it.
func (b *SnapshotBuilder) Build(t *testing.T, db *sql.DB) model.SnapshotData {
	t.Helper()

	data := b.data
	data.Snapshot.RecordCount = len(data.Monthly)
	if n := len(data.Monthly); n > 0 {
		data.Snapshot.FirstDate = data.Monthly[0].ReferenceDate
		data.Snapshot.LastDate = data.Monthly[n-1].ReferenceDate
	}

	if err := repository.NewSnapshotRepository(db).InsertSnapshot(context.Background(), data); err != nil {
		t.Fatalf("Failed to create test snapshot: %v", err)
	}
	return data
}
