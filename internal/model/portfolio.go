package model

import "time"

// Portfolio is a Kinvo portfolio known to this service.
type Portfolio struct {
	ID           int64      `json:"id"`
	Name         string     `json:"name"`
	LastSyncedAt *time.Time `json:"lastSyncedAt"`
}

// Asset is one product held in a portfolio, as consolidated from the Kinvo
// consolidated-assets and fund-snapshot endpoints.
type Asset struct {
	PortfolioProductID       int64   `json:"portfolioProductId"`
	ProductID                int64   `json:"productId"`
	ProductName              string  `json:"productName"`
	ProductTypeID            int     `json:"productTypeId"`
	ProductTypeName          string  `json:"productTypeName"`
	FinancialInstitutionID   int64   `json:"financialInstitutionId"`
	FinancialInstitutionName string  `json:"financialInstitutionName"`
	StrategyID               int     `json:"strategyId"`
	StrategyDescription      string  `json:"strategyDescription"`
	ValueApplied             float64 `json:"valueApplied"`
	Equity                   float64 `json:"equity"`
	Profitability            float64 `json:"profitability"`
	PortfolioPercentage      float64 `json:"portfolioPercentage"`
}

// AllocationSlice is one slice of an allocation breakdown.
type AllocationSlice struct {
	Label       string  `json:"label"`
	FinalEquity float64 `json:"finalEquity"`
}
