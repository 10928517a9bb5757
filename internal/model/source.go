package model

import "time"

// CapitalGainEntry is one product's capital gain figures for a month, as reported by Kinvo.
// Applications, Redemptions and Proceeds are carried for completeness; the merge takes
// flows from product statements instead.
type CapitalGainEntry struct {
	PortfolioProductID int64
	ReferenceDate      time.Time
	ValueApplied       float64
	InitialEquity      float64
	FinalEquity        float64
	Returns            float64
	CapitalGain        float64
	Applications       float64
	Redemptions        float64
	Proceeds           float64
}

// MovementType discriminates what a product statement represents.
type MovementType int

const (
	MovementProceeds       MovementType = 0
	MovementApplication    MovementType = 1
	MovementRedemption     MovementType = 2
	MovementFullRedemption MovementType = 3
)

// Statement is a single movement on a portfolio product.
type Statement struct {
	ID                 int64
	PortfolioProductID int64
	Description        string
	MovementType       MovementType
	Date               time.Time
	Equity             float64
	Amount             float64
	Value              float64
	IncomeTax          float64
	IOF                float64
	Cost               float64
}

// ChartPeriod identifies which of the three Kinvo profitability charts a series comes from.
type ChartPeriod string

const (
	ChartDaily   ChartPeriod = "daily"
	ChartMonthly ChartPeriod = "monthly"
	ChartAnnual  ChartPeriod = "annual"
)

// ChartSeries is one named series of a profitability chart. Values are percentage points.
type ChartSeries struct {
	Name string
	Data []float64
}

// ProfitabilityChart is a set of series aligned to a shared list of category labels.
type ProfitabilityChart struct {
	Categories []string
	Series     []ChartSeries
}

// DailyEquity is the equity of one product on one day.
type DailyEquity struct {
	PortfolioProductID int64
	ReferenceDate      time.Time
	CorrectedQuota     float64
	Value              float64
	MovementTypeID     int
}
