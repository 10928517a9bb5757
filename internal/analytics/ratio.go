package analytics

import "github.com/ndewijer/Kinvo-Analytics-Backend/internal/model"

// CalcRatioOrNA returns value/total, or nil when the ratio is not applicable:
// a negative value or a total that is zero or negative.
// A negative portfolio return yields nil even when the benchmark also lost money.
func CalcRatioOrNA(value, total float64) *float64 {
	if value < 0 || total <= 0 {
		return nil
	}
	ratio := value / total
	return &ratio
}

// RatiosFor computes the portfolio-vs-benchmark ratios of p.
func RatiosFor(p model.Profitability) model.Ratios {
	return model.Ratios{
		CDI:       CalcRatioOrNA(p.Portfolio, p.CDI),
		IBOV:      CalcRatioOrNA(p.Portfolio, p.IBOV),
		Inflation: CalcRatioOrNA(p.Portfolio, p.Inflation),
		Savings:   CalcRatioOrNA(p.Portfolio, p.Savings),
	}
}
