package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/events"
	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/kinvo"
)

// Fixture portfolio served by NewMockKinvoClient.
const (
	MockPortfolioID   int64 = 1001
	MockPortfolioName       = "Carteira Principal"
)

// Method names accepted by WithMethodError and CallCount.
const (
	MethodLogin                = "Login"
	MethodConsolidatePortfolio = "ConsolidatePortfolio"
	MethodPortfolios           = "Portfolios"
	MethodPortfolioProducts    = "PortfolioProducts"
	MethodConsolidatedAssets   = "ConsolidatedAssets"
	MethodFundSnapshots        = "FundSnapshots"
	MethodFundsDailyEquity     = "FundsDailyEquity"
	MethodCapitalGain          = "CapitalGain"
	MethodProfitability        = "Profitability"
	MethodProductStatements    = "ProductStatements"
)

// MockKinvoClient is a mock implementation of kinvo.Client for testing.
// It returns predefined test data instead of calling the Kinvo API and is safe
// for the concurrent calls the loader makes.
type MockKinvoClient struct {
	mu sync.Mutex

	PortfolioList       []kinvo.PortfolioItem
	Products            []kinvo.PortfolioProduct
	Consolidated        []kinvo.ConsolidatedAsset
	Funds               []kinvo.FundSnapshot
	DailyEquity         []kinvo.FundDailyEquity
	CapitalGainReport   kinvo.CapitalGain
	ProfitabilityCharts kinvo.PortfolioProfitability
	Statements          map[int64][]kinvo.ProductStatement

	// MockError is returned by every method when set
	MockError error

	methodErrors map[string]error
	calls        map[string]int
}

var _ kinvo.Client = (*MockKinvoClient)(nil)

// NewMockKinvoClient creates a mock serving one portfolio with two products and
// three months of data (January to March 2024):
//
//   - product 11, Tesouro Selic 2029: consolidated asset, 1000 invested, 1025 equity
//   - product 12, XP Macro FIM: fund snapshot only, 2000 invested, 2020 equity
//
// Monthly totals: January 0 -> 3015 (gain 15, applications 3000), February
// 3015 -> 3045 (gain 30), March 3045 -> 3045 (gain 0, proceeds 5, cost 1).
func NewMockKinvoClient() *MockKinvoClient {
	m := &MockKinvoClient{
		PortfolioList: []kinvo.PortfolioItem{{ID: MockPortfolioID, Title: MockPortfolioName}},
		Products: []kinvo.PortfolioProduct{
			{FinancialInstitutionID: 1, FinancialInstitutionName: "Tesouro Direto", PortfolioProductID: 11, ProductName: "Tesouro Selic 2029", HasBalance: true},
			{FinancialInstitutionID: 2, FinancialInstitutionName: "XP Investimentos", PortfolioProductID: 12, ProductName: "XP Macro FIM", HasBalance: true},
		},
		Consolidated: []kinvo.ConsolidatedAsset{
			{
				PortfolioProductID:          11,
				ProductID:                   501,
				ProductName:                 "Tesouro Selic 2029",
				ProductTypeID:               4,
				FinancialInstitutionID:      1,
				FinancialInstitutionName:    "Tesouro Direto",
				StrategyOfDiversificationID: 3,
				ValueApplied:                1000,
				Equity:                      1025,
				Profitability:               2.5,
				PortfolioPercentage:         33.66,
			},
		},
		Statements: map[int64][]kinvo.ProductStatement{
			11: {
				{ID: 1, Description: "Aplicação", MovementType: 1, Date: "2024-01-10T00:00:00", Equity: 1000, Amount: 1, Value: 1000},
				{ID: 3, Description: "Rendimento", MovementType: 0, Date: "2024-03-20T00:00:00", Equity: 5, Cost: Float(1)},
			},
			12: {
				{ID: 2, Description: "Aplicação", MovementType: 1, Date: "2024-01-15T00:00:00", Equity: 2000, Amount: 200, Value: 10},
			},
		},
		methodErrors: make(map[string]error),
		calls:        make(map[string]int),
	}

	var fund kinvo.FundSnapshot
	fund.Fund.PortfolioProductID = 12
	fund.Fund.Name = "XP Macro FIM"
	fund.Fund.PortfolioPercentage = 66.34
	fund.Fund.Sector = "Multimercado"
	fund.Position.Equity = 2020
	fund.Position.ValueApplied = 2000
	fund.Profitability.FromBeginning = 1.0
	m.Funds = []kinvo.FundSnapshot{fund}

	m.CapitalGainReport.CapitalGainByProductInTheMonth = []kinvo.CapitalGainByProduct{
		{PortfolioProductID: 11, MonthlyReferenceDate: "2024-01-01T00:00:00", ValueApplied: 1000, InitialEquity: 0, FinalEquity: 1005, Returns: 5, CapitalGain: 5},
		{PortfolioProductID: 11, MonthlyReferenceDate: "2024-02-01T00:00:00", ValueApplied: 1000, InitialEquity: 1005, FinalEquity: 1015, Returns: 10, CapitalGain: 10},
		{PortfolioProductID: 11, MonthlyReferenceDate: "2024-03-01T00:00:00", ValueApplied: 1000, InitialEquity: 1015, FinalEquity: 1025, Returns: 10, CapitalGain: 10},
		{PortfolioProductID: 12, MonthlyReferenceDate: "2024-01-01T00:00:00", ValueApplied: 2000, InitialEquity: 0, FinalEquity: 2010, Returns: 10, CapitalGain: 10},
		{PortfolioProductID: 12, MonthlyReferenceDate: "2024-02-01T00:00:00", ValueApplied: 2000, InitialEquity: 2010, FinalEquity: 2030, Returns: 20, CapitalGain: 20},
		{PortfolioProductID: 12, MonthlyReferenceDate: "2024-03-01T00:00:00", ValueApplied: 2000, InitialEquity: 2030, FinalEquity: 2020, Returns: -10, CapitalGain: -10},
	}

	m.ProfitabilityCharts = kinvo.PortfolioProfitability{
		DailyProfitabilityToChart: MockChart(
			[]kinvo.Category{"2024-03-27", "2024-03-28", "2024-03-29"},
			[]float64{1.40, 1.45, 1.50},
			[]float64{2.55, 2.60, 2.64},
			[]float64{-4.50, -4.40, -4.55},
			[]float64{1.35, 1.39, 1.42},
			[]float64{1.60, 1.62, 1.65},
		),
		MonthlyProfitabilityToChart: MockChart(
			[]kinvo.Category{"jan. 24", "fev. 24", "mar. 24"},
			[]float64{0.5, 1.0, 0.0},
			[]float64{0.97, 0.80, 0.83},
			[]float64{-4.79, 0.99, -0.71},
			[]float64{0.42, 0.83, 0.16},
			[]float64{0.59, 0.51, 0.53},
		),
		AnnualProfitabilityToChart: MockChart(
			[]kinvo.Category{"2024"},
			[]float64{1.505},
			[]float64{2.62},
			[]float64{-4.53},
			[]float64{1.42},
			[]float64{1.64},
		),
	}

	for i, day := range []time.Time{Date(2024, 3, 27), Date(2024, 3, 28)} {
		m.DailyEquity = append(m.DailyEquity,
			kinvo.FundDailyEquity{PortfolioProductID: 11, ProductName: "Tesouro Selic 2029", DailyReferenceDate: day.Unix(), Value: 1024 + float64(i)},
			kinvo.FundDailyEquity{PortfolioProductID: 12, ProductName: "XP Macro FIM", DailyReferenceDate: day.Unix(), Value: 2015 + 5*float64(i)},
		)
	}

	return m
}

// MockChart builds a chart with the five benchmark series in Kinvo's naming.
func MockChart(categories []kinvo.Category, portfolio, cdi, ibov, inflation, savings []float64) kinvo.ChartData {
	return kinvo.ChartData{
		Categories: categories,
		Series: []kinvo.SeriesData{
			{Name: "Carteira", Data: portfolio},
			{Name: "CDI", Data: cdi},
			{Name: "IBOV", Data: ibov},
			{Name: "Inflação (IPCA)", Data: inflation},
			{Name: "Poupança", Data: savings},
		},
	}
}

// WithError configures the mock to return the specified error from every method.
func (m *MockKinvoClient) WithError(err error) *MockKinvoClient {
	m.MockError = err
	return m
}

// WithMethodError configures a single method to return err.
func (m *MockKinvoClient) WithMethodError(method string, err error) *MockKinvoClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.methodErrors[method] = err
	return m
}

// WithPortfolios replaces the portfolio list.
func (m *MockKinvoClient) WithPortfolios(items ...kinvo.PortfolioItem) *MockKinvoClient {
	m.PortfolioList = items
	return m
}

// WithProfitability replaces the profitability charts.
func (m *MockKinvoClient) WithProfitability(p kinvo.PortfolioProfitability) *MockKinvoClient {
	m.ProfitabilityCharts = p
	return m
}

// CallCount returns how many times method was called.
func (m *MockKinvoClient) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[method]
}

// QueryCount returns the total number of calls across all methods.
func (m *MockKinvoClient) QueryCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, n := range m.calls {
		total += n
	}
	return total
}

func (m *MockKinvoClient) record(method string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[method]++
	if m.MockError != nil {
		return m.MockError
	}
	return m.methodErrors[method]
}

// Login mocks signing in.
func (m *MockKinvoClient) Login(_ context.Context) error {
	return m.record(MethodLogin)
}

// ConsolidatePortfolio mocks a consolidation that completes immediately.
func (m *MockKinvoClient) ConsolidatePortfolio(_ context.Context, _ int64) error {
	return m.record(MethodConsolidatePortfolio)
}

// Portfolios returns the configured portfolio list.
func (m *MockKinvoClient) Portfolios(_ context.Context) ([]kinvo.PortfolioItem, error) {
	if err := m.record(MethodPortfolios); err != nil {
		return nil, err
	}
	return m.PortfolioList, nil
}

// PortfolioProducts returns the configured products.
func (m *MockKinvoClient) PortfolioProducts(_ context.Context, _ int64) ([]kinvo.PortfolioProduct, error) {
	if err := m.record(MethodPortfolioProducts); err != nil {
		return nil, err
	}
	return m.Products, nil
}

// ConsolidatedAssets returns the configured consolidated assets.
func (m *MockKinvoClient) ConsolidatedAssets(_ context.Context, _ int64) ([]kinvo.ConsolidatedAsset, error) {
	if err := m.record(MethodConsolidatedAssets); err != nil {
		return nil, err
	}
	return m.Consolidated, nil
}

// FundSnapshots returns the configured fund snapshots.
func (m *MockKinvoClient) FundSnapshots(_ context.Context, _ int64) ([]kinvo.FundSnapshot, error) {
	if err := m.record(MethodFundSnapshots); err != nil {
		return nil, err
	}
	return m.Funds, nil
}

// FundsDailyEquity returns the configured daily equity.
func (m *MockKinvoClient) FundsDailyEquity(_ context.Context, _ int64) ([]kinvo.FundDailyEquity, error) {
	if err := m.record(MethodFundsDailyEquity); err != nil {
		return nil, err
	}
	return m.DailyEquity, nil
}

// CapitalGain returns the configured capital gain report.
func (m *MockKinvoClient) CapitalGain(_ context.Context, _ int64) (kinvo.CapitalGain, error) {
	if err := m.record(MethodCapitalGain); err != nil {
		return kinvo.CapitalGain{}, err
	}
	return m.CapitalGainReport, nil
}

// Profitability returns the configured profitability charts.
func (m *MockKinvoClient) Profitability(_ context.Context, _ int64) (kinvo.PortfolioProfitability, error) {
	if err := m.record(MethodProfitability); err != nil {
		return kinvo.PortfolioProfitability{}, err
	}
	return m.ProfitabilityCharts, nil
}

// ProductStatements returns the configured statements of one product.
func (m *MockKinvoClient) ProductStatements(_ context.Context, portfolioProductID int64) ([]kinvo.ProductStatement, error) {
	if err := m.record(MethodProductStatements); err != nil {
		return nil, err
	}
	return m.Statements[portfolioProductID], nil
}

// MockPublisher records published events.
type MockPublisher struct {
	mu       sync.Mutex
	Messages []events.SnapshotSyncedMessage
	Err      error
}

// PublishSnapshotSynced records msg, or returns Err when set.
func (p *MockPublisher) PublishSnapshotSynced(_ context.Context, msg *events.SnapshotSyncedMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.Messages = append(p.Messages, *msg)
	return nil
}

// Close does nothing.
func (p *MockPublisher) Close() error {
	return nil
}

// Published returns a copy of the recorded messages.
func (p *MockPublisher) Published() []events.SnapshotSyncedMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.SnapshotSyncedMessage(nil), p.Messages...)
}
