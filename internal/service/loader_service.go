package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/analytics"
	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/kinvo"
	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/model"
)

// defaultStatementConcurrency bounds the parallel per-product statement requests.
const defaultStatementConcurrency = 4

// PortfolioData contains every Kinvo source needed to build a snapshot.
//
// Fields are organized by scope:
//   - Product-level: Assets, built from products, consolidated assets and fund snapshots
//   - Record sources: CapitalGain, Statements, DailyEquity
//   - Benchmarks: Charts, one per chart period
type PortfolioData struct {
	PortfolioID int64
	Assets      []model.Asset
	CapitalGain []model.CapitalGainEntry
	Statements  []model.Statement
	DailyEquity []model.DailyEquity
	Charts      map[model.ChartPeriod]model.ProfitabilityChart
}

// LoaderService fetches all Kinvo sources of a portfolio.
// It never aggregates partial data: the first failing source aborts the load.
type LoaderService struct {
	client               kinvo.Client
	statementConcurrency int
	logger               *slog.Logger
}

// NewLoaderService creates a new LoaderService using the given Kinvo client.
func NewLoaderService(client kinvo.Client) *LoaderService {
	return &LoaderService{
		client:               client,
		statementConcurrency: defaultStatementConcurrency,
		logger:               slog.Default().With("component", "loader"),
	}
}

// LoadPortfolio consolidates a portfolio in Kinvo and fetches all of its sources.
//
// The portfolio-level endpoints are fetched concurrently, then the statements of
// every product are fetched with bounded concurrency. Any failure cancels the
// remaining requests and is returned unchanged.
//
// Parameters:
//   - ctx: Context for cancellation
//   - portfolioID: The Kinvo portfolio ID
//
// Returns:
//   - *PortfolioData: All sources converted to model types
//   - error: The first source failure, or a conversion error
func (s *LoaderService) LoadPortfolio(ctx context.Context, portfolioID int64) (*PortfolioData, error) {
	if err := s.client.ConsolidatePortfolio(ctx, portfolioID); err != nil {
		return nil, fmt.Errorf("consolidate portfolio %d: %w", portfolioID, err)
	}

	var (
		products      []kinvo.PortfolioProduct
		consolidated  []kinvo.ConsolidatedAsset
		funds         []kinvo.FundSnapshot
		dailyEquity   []kinvo.FundDailyEquity
		capitalGain   kinvo.CapitalGain
		profitability kinvo.PortfolioProfitability
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		products, err = s.client.PortfolioProducts(gctx, portfolioID)
		return wrapSource("products", err)
	})
	g.Go(func() (err error) {
		consolidated, err = s.client.ConsolidatedAssets(gctx, portfolioID)
		return wrapSource("consolidated assets", err)
	})
	g.Go(func() (err error) {
		funds, err = s.client.FundSnapshots(gctx, portfolioID)
		return wrapSource("fund snapshots", err)
	})
	g.Go(func() (err error) {
		dailyEquity, err = s.client.FundsDailyEquity(gctx, portfolioID)
		return wrapSource("daily equity", err)
	})
	g.Go(func() (err error) {
		capitalGain, err = s.client.CapitalGain(gctx, portfolioID)
		return wrapSource("capital gain", err)
	})
	g.Go(func() (err error) {
		profitability, err = s.client.Profitability(gctx, portfolioID)
		return wrapSource("profitability", err)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	statements, err := s.loadStatements(ctx, products)
	if err != nil {
		return nil, err
	}

	entries, err := capitalGain.Entries()
	if err != nil {
		return nil, err
	}

	equity := make([]model.DailyEquity, len(dailyEquity))
	for i, e := range dailyEquity {
		equity[i] = e.ToModel()
	}

	data := &PortfolioData{
		PortfolioID: portfolioID,
		Assets:      BuildAssets(products, consolidated, funds),
		CapitalGain: entries,
		Statements:  statements,
		DailyEquity: equity,
		Charts: map[model.ChartPeriod]model.ProfitabilityChart{
			model.ChartDaily:   profitability.DailyProfitabilityToChart.ToModel(),
			model.ChartMonthly: profitability.MonthlyProfitabilityToChart.ToModel(),
			model.ChartAnnual:  profitability.AnnualProfitabilityToChart.ToModel(),
		},
	}

	s.logger.InfoContext(ctx, "loaded portfolio",
		"portfolio_id", portfolioID,
		"products", len(products),
		"statements", len(statements),
		"capital_gain_entries", len(entries))

	return data, nil
}

func (s *LoaderService) loadStatements(ctx context.Context, products []kinvo.PortfolioProduct) ([]model.Statement, error) {
	var (
		mu        sync.Mutex
		byProduct = make(map[int64][]model.Statement, len(products))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.statementConcurrency)
	for _, p := range products {
		id := p.PortfolioProductID
		g.Go(func() error {
			items, err := s.client.ProductStatements(gctx, id)
			if err != nil {
				return wrapSource(fmt.Sprintf("statements of product %d", id), err)
			}
			stmts, err := kinvo.ToStatements(id, items)
			if err != nil {
				return err
			}
			mu.Lock()
			byProduct[id] = stmts
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Keep product order so the result does not depend on scheduling
	var statements []model.Statement
	for _, p := range products {
		statements = append(statements, byProduct[p.PortfolioProductID]...)
	}
	return statements, nil
}

func wrapSource(source string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("load %s: %w", source, err)
}

// BuildAssets joins the product list with the consolidated positions and fund snapshots.
//
// The consolidated asset is preferred; a fund snapshot fills in the position of
// products without one. A fund snapshot's sector overrides the diversification
// strategy, and the strategy description always comes from the strategy table.
func BuildAssets(products []kinvo.PortfolioProduct, consolidated []kinvo.ConsolidatedAsset, funds []kinvo.FundSnapshot) []model.Asset {
	consolidatedByID := make(map[int64]kinvo.ConsolidatedAsset, len(consolidated))
	for _, c := range consolidated {
		consolidatedByID[c.PortfolioProductID] = c
	}
	fundsByID := make(map[int64]kinvo.FundSnapshot, len(funds))
	for _, f := range funds {
		fundsByID[f.Fund.PortfolioProductID] = f
	}

	assets := make([]model.Asset, 0, len(products))
	for _, p := range products {
		a := model.Asset{
			PortfolioProductID:       p.PortfolioProductID,
			ProductName:              p.ProductName,
			FinancialInstitutionID:   p.FinancialInstitutionID,
			FinancialInstitutionName: p.FinancialInstitutionName,
		}

		fund, hasFund := fundsByID[p.PortfolioProductID]
		if c, ok := consolidatedByID[p.PortfolioProductID]; ok {
			a.ProductID = c.ProductID
			a.ProductTypeID = c.ProductTypeID
			a.StrategyID = c.StrategyOfDiversificationID
			a.ValueApplied = c.ValueApplied
			a.Equity = c.Equity
			a.Profitability = c.Profitability
			a.PortfolioPercentage = c.PortfolioPercentage
			if c.ProductName != "" {
				a.ProductName = c.ProductName
			}
			if c.FinancialInstitutionName != "" {
				a.FinancialInstitutionID = c.FinancialInstitutionID
				a.FinancialInstitutionName = c.FinancialInstitutionName
			}
		} else if hasFund {
			a.ProductTypeID = 1
			a.ValueApplied = fund.Position.ValueApplied
			a.Equity = fund.Position.Equity
			a.Profitability = fund.Profitability.FromBeginning
			a.PortfolioPercentage = fund.Fund.PortfolioPercentage
			if a.ProductName == "" {
				a.ProductName = fund.Fund.Name
			}
		}

		if hasFund {
			a.StrategyID = analytics.SectorStrategies[fund.Fund.Sector]
		}
		a.ProductTypeName = analytics.ProductTypeNames[a.ProductTypeID]
		a.StrategyDescription = analytics.StrategyDescriptions[a.StrategyID]

		assets = append(assets, a)
	}
	return assets
}
