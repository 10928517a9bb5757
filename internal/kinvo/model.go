package kinvo

import (
	"encoding/json"
	"strconv"
)

// Envelope is the wrapper around every Kinvo API response.
type Envelope[T any] struct {
	Success bool    `json:"success"`
	Data    T       `json:"data"`
	Error   *string `json:"error"`
}

// LoginRequest is the body of the login call.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginData is the payload of a successful login.
type LoginData struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// PortfolioItem is one entry of the user's portfolio list.
type PortfolioItem struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// ConsolidationData is the answer to a consolidation request.
type ConsolidationData struct {
	ConsolidationRoute string `json:"consolidationRoute"`
}

// ConsolidationStatus reports whether a queued consolidation is still running.
type ConsolidationStatus struct {
	InProgress bool `json:"inProgress"`
}

// PortfolioProduct is a product held in a portfolio.
type PortfolioProduct struct {
	FinancialInstitutionID   int64  `json:"financialInstitutionId"`
	FinancialInstitutionName string `json:"financialInstitutionName"`
	PortfolioProductID       int64  `json:"portfolioProductId"`
	ProductName              string `json:"productName"`
	HasBalance               bool   `json:"hasBalance"`
	IsPositionProduct        bool   `json:"isPositionProduct"`
}

// ConsolidatedAsset is the consolidated position of one product.
type ConsolidatedAsset struct {
	PortfolioProductID                   int64   `json:"portfolioProductId"`
	ProductID                            int64   `json:"productId"`
	ProductName                          string  `json:"productName"`
	ProductTypeID                        int     `json:"productTypeId"`
	FinancialInstitutionID               int64   `json:"financialInstitutionId"`
	FinancialInstitutionName             string  `json:"financialInstitutionName"`
	StrategyOfDiversificationID          int     `json:"strategyOfDiversificationId"`
	StrategyOfDiversificationDescription string  `json:"strategyOfDiversificationDescription"`
	ValueApplied                         float64 `json:"valueApplied"`
	Equity                               float64 `json:"equity"`
	Profitability                        float64 `json:"profitability"`
	PortfolioPercentage                  float64 `json:"portfolioPercentage"`
}

// FundSnapshot is the current position of a fund product.
type FundSnapshot struct {
	Fund struct {
		PortfolioProductID  int64   `json:"portfolioProductId"`
		Name                string  `json:"name"`
		PortfolioPercentage float64 `json:"portfolioPercentage"`
		Sector              string  `json:"sector"`
	} `json:"fund"`
	Position struct {
		Equity       float64 `json:"equity"`
		ValueApplied float64 `json:"valueApplied"`
	} `json:"position"`
	Profitability struct {
		InTheMonth    float64 `json:"inTheMonth"`
		InTheYear     float64 `json:"inTheYear"`
		In12Months    float64 `json:"in12Months"`
		In24Months    float64 `json:"in24Months"`
		FromBeginning float64 `json:"fromBeginning"`
	} `json:"profitability"`
}

// FundDailyEquity is the equity of a fund product on one day.
// DailyReferenceDate is a unix timestamp in seconds.
type FundDailyEquity struct {
	PortfolioProductID int64   `json:"portfolioProductId"`
	ProductName        string  `json:"productName"`
	DailyReferenceDate int64   `json:"dailyReferenceDate"`
	CorrectedQuota     float64 `json:"correctedQuota"`
	Value              float64 `json:"value"`
	MovementTypeID     int     `json:"movementTypeId"`
}

// CapitalGain is the capital gain report of a portfolio.
type CapitalGain struct {
	BigNumbers struct {
		PreviousEquity   float64 `json:"previousEquity"`
		Applications     float64 `json:"applications"`
		Redemptions      float64 `json:"redemptions"`
		CapitalGain      float64 `json:"capitalGain"`
		PercentageResult float64 `json:"percentageResult"`
	} `json:"bigNumbers"`
	CapitalGainByProductInTheMonth []CapitalGainByProduct `json:"capitalGainByProductInTheMonth"`
}

// CapitalGainByProduct is one product's capital gain for one month.
type CapitalGainByProduct struct {
	PortfolioProductID   int64   `json:"portfolioProductId"`
	MonthlyReferenceDate string  `json:"monthlyReferenceDate"`
	InitialEquity        float64 `json:"initialEquity"`
	FinalEquity          float64 `json:"finalEquity"`
	ValueApplied         float64 `json:"valueApplied"`
	Net                  float64 `json:"net"`
	Applications         float64 `json:"applications"`
	Redemptions          float64 `json:"redemptions"`
	Returns              float64 `json:"returns"`
	Proceeds             float64 `json:"proceeds"`
	CapitalGain          float64 `json:"capitalGain"`
	ProductTypeID        int     `json:"productTypeId"`
	ProductName          string  `json:"productName"`
}

// PortfolioProfitability holds the three profitability charts of a portfolio.
type PortfolioProfitability struct {
	DailyProfitabilityToChart   ChartData `json:"dailyProfitabilityToChart"`
	MonthlyProfitabilityToChart ChartData `json:"monthlyProfitabilityToChart"`
	AnnualProfitabilityToChart  ChartData `json:"annualProfitabilityToChart"`
}

// ChartData is a chart as Kinvo sends it. Values are percentage points.
type ChartData struct {
	Categories []Category   `json:"categories"`
	Series     []SeriesData `json:"series"`
}

// SeriesData is one named series of a chart.
type SeriesData struct {
	Name string    `json:"name"`
	Data []float64 `json:"data"`
}

// Category is a chart category label. Kinvo sends strings for daily and monthly
// charts and numbers for annual charts.
type Category string

// UnmarshalJSON accepts both JSON strings and numbers.
func (c *Category) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*c = Category(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	if i, err := n.Int64(); err == nil {
		*c = Category(strconv.FormatInt(i, 10))
		return nil
	}
	*c = Category(n.String())
	return nil
}

// ProductStatement is one movement on a portfolio product.
type ProductStatement struct {
	ID           int64    `json:"id"`
	Description  string   `json:"description"`
	MovementType int      `json:"movementType"`
	Date         string   `json:"date"`
	Equity       float64  `json:"equity"`
	Amount       float64  `json:"amount"`
	Value        float64  `json:"value"`
	IncomeTax    *float64 `json:"incomeTax"`
	IOF          *float64 `json:"iof"`
	Cost         *float64 `json:"cost"`
}
