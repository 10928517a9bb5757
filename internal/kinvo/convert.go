package kinvo

import (
	"fmt"
	"time"

	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/model"
)

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// parseDate parses the date formats Kinvo uses and returns midnight UTC of that day.
func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// Entries converts the monthly capital gain report into model entries.
func (c CapitalGain) Entries() ([]model.CapitalGainEntry, error) {
	entries := make([]model.CapitalGainEntry, 0, len(c.CapitalGainByProductInTheMonth))
	for _, item := range c.CapitalGainByProductInTheMonth {
		date, err := parseDate(item.MonthlyReferenceDate)
		if err != nil {
			return nil, fmt.Errorf("capital gain of product %d: %w", item.PortfolioProductID, err)
		}
		entries = append(entries, model.CapitalGainEntry{
			PortfolioProductID: item.PortfolioProductID,
			ReferenceDate:      date,
			ValueApplied:       item.ValueApplied,
			InitialEquity:      item.InitialEquity,
			FinalEquity:        item.FinalEquity,
			Returns:            item.Returns,
			CapitalGain:        item.CapitalGain,
			Applications:       item.Applications,
			Redemptions:        item.Redemptions,
			Proceeds:           item.Proceeds,
		})
	}
	return entries, nil
}

// ToStatements converts the statements of one product. Missing tax and cost
// fields become zero.
func ToStatements(portfolioProductID int64, items []ProductStatement) ([]model.Statement, error) {
	stmts := make([]model.Statement, 0, len(items))
	for _, item := range items {
		date, err := parseDate(item.Date)
		if err != nil {
			return nil, fmt.Errorf("statement %d of product %d: %w", item.ID, portfolioProductID, err)
		}
		stmts = append(stmts, model.Statement{
			ID:                 item.ID,
			PortfolioProductID: portfolioProductID,
			Description:        item.Description,
			MovementType:       model.MovementType(item.MovementType),
			Date:               date,
			Equity:             item.Equity,
			Amount:             item.Amount,
			Value:              item.Value,
			IncomeTax:          valueOrZero(item.IncomeTax),
			IOF:                valueOrZero(item.IOF),
			Cost:               valueOrZero(item.Cost),
		})
	}
	return stmts, nil
}

// ToModel converts a chart into its model form.
func (c ChartData) ToModel() model.ProfitabilityChart {
	chart := model.ProfitabilityChart{
		Categories: make([]string, len(c.Categories)),
		Series:     make([]model.ChartSeries, len(c.Series)),
	}
	for i, cat := range c.Categories {
		chart.Categories[i] = string(cat)
	}
	for i, s := range c.Series {
		chart.Series[i] = model.ChartSeries{Name: s.Name, Data: append([]float64(nil), s.Data...)}
	}
	return chart
}

// ToModel converts a daily equity point. The reference date is truncated to the UTC day.
func (e FundDailyEquity) ToModel() model.DailyEquity {
	t := time.Unix(e.DailyReferenceDate, 0).UTC()
	return model.DailyEquity{
		PortfolioProductID: e.PortfolioProductID,
		ReferenceDate:      time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC),
		CorrectedQuota:     e.CorrectedQuota,
		Value:              e.Value,
		MovementTypeID:     e.MovementTypeID,
	}
}

func valueOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
