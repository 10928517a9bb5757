package model

import "time"

// Profitability holds the portfolio return and the four benchmark returns for one period.
// Values are fractions (0.0123 = 1.23%). Depending on the series they are either
// periodic returns or cumulative returns since the start of the series.
type Profitability struct {
	Portfolio float64 `json:"portfolio"`
	CDI       float64 `json:"cdi"`
	IBOV      float64 `json:"ibov"`
	Inflation float64 `json:"inflation"`
	Savings   float64 `json:"savings"`
}

// Ratios holds the portfolio return divided by each benchmark return.
// A nil ratio means "not applicable" for the period and is distinct from zero.
type Ratios struct {
	CDI       *float64 `json:"cdi"`
	IBOV      *float64 `json:"ibov"`
	Inflation *float64 `json:"inflation"`
	Savings   *float64 `json:"savings"`
}

// Record is the canonical date-keyed row produced by merging the Kinvo sources
// and consumed by every aggregation.
//
// Field groups:
//   - Snapshot balances: ValueApplied, InitialEquity, FinalEquity
//   - Period flows: Applications, Redemptions, Movementations, Returns, Proceeds, CapitalGain
//   - Period costs: IncomeTax, IOF, Cost, Charges (Charges = IncomeTax + IOF + Cost)
//   - Returns: Profitability, with Ratios derived from it
//
// Movementations is always recomputed as FinalEquity - (InitialEquity + CapitalGain).
type Record struct {
	ReferenceDate time.Time `json:"referenceDate"`

	ValueApplied  float64 `json:"valueApplied"`
	InitialEquity float64 `json:"initialEquity"`
	FinalEquity   float64 `json:"finalEquity"`

	Applications   float64 `json:"applications"`
	Redemptions    float64 `json:"redemptions"`
	Movementations float64 `json:"movementations"`
	Returns        float64 `json:"returns"`
	Proceeds       float64 `json:"proceeds"`
	CapitalGain    float64 `json:"capitalGain"`

	IncomeTax float64 `json:"incomeTax"`
	IOF       float64 `json:"iof"`
	Cost      float64 `json:"cost"`
	Charges   float64 `json:"charges"`

	Profitability Profitability `json:"profitability"`
	Ratios        Ratios        `json:"ratios"`
}

// NetWorthPoint is a single point of the net worth chart.
type NetWorthPoint struct {
	ReferenceDate time.Time `json:"referenceDate"`
	ValueApplied  float64   `json:"valueApplied"`
	FinalEquity   float64   `json:"finalEquity"`
}
