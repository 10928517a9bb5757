package analytics

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/apperrors"
	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/model"
)

// Names of the fixed series of a Kinvo profitability chart.
const (
	SeriesPortfolio = "Carteira"
	SeriesCDI       = "CDI"
	SeriesIBOV      = "IBOV"
	SeriesInflation = "Inflação (IPCA)"
	SeriesSavings   = "Poupança"
)

// BenchmarkSeries lists the series every profitability chart must carry.
var BenchmarkSeries = []string{SeriesPortfolio, SeriesCDI, SeriesIBOV, SeriesInflation, SeriesSavings}

// MissingBenchmarkError reports a benchmark series absent from a profitability chart.
type MissingBenchmarkError struct {
	Series string
	Period model.ChartPeriod
}

func (e *MissingBenchmarkError) Error() string {
	return fmt.Sprintf("missing benchmark series %q in %s profitability chart", e.Series, e.Period)
}

func (e *MissingBenchmarkError) Unwrap() error {
	return apperrors.ErrMissingBenchmark
}

// NormalizeCapitalGain turns monthly capital gain entries into partial records keyed by month start.
// Only the balances, returns and capital gain are taken; flows come from statements.
func NormalizeCapitalGain(items []model.CapitalGainEntry) []model.Record {
	out := make([]model.Record, 0, len(items))
	for _, item := range items {
		out = append(out, model.Record{
			ReferenceDate: Truncate(item.ReferenceDate, Month),
			ValueApplied:  item.ValueApplied,
			InitialEquity: item.InitialEquity,
			FinalEquity:   item.FinalEquity,
			Returns:       item.Returns,
			CapitalGain:   item.CapitalGain,
		})
	}
	return out
}

// NormalizeStatements turns product statements into partial records keyed by month start.
// The movement type decides which flow the statement equity goes to; taxes and costs
// are kept for every movement type.
func NormalizeStatements(stmts []model.Statement) []model.Record {
	out := make([]model.Record, 0, len(stmts))
	for _, s := range stmts {
		r := model.Record{
			ReferenceDate: Truncate(s.Date, Month),
			IncomeTax:     s.IncomeTax,
			IOF:           s.IOF,
			Cost:          s.Cost,
		}
		switch s.MovementType {
		case model.MovementProceeds:
			r.Proceeds = s.Equity
		case model.MovementApplication:
			r.Applications = s.Equity
		case model.MovementRedemption, model.MovementFullRedemption:
			r.Redemptions = s.Equity
		}
		out = append(out, r)
	}
	return out
}

// NormalizeBenchmarks zips a profitability chart into one record per category,
// converting percentage points to fractions.
//
// Categories are parsed according to period: ISO dates for daily charts, pt-BR
// "MMM. yy" labels for monthly charts and plain years for annual charts.
//
// Returns:
//   - *MissingBenchmarkError if any of BenchmarkSeries is absent
//   - ErrSeriesLengthMismatch if a series does not line up with the categories
//   - ErrInvalidCategory if a category cannot be parsed
func NormalizeBenchmarks(chart model.ProfitabilityChart, period model.ChartPeriod) ([]model.Record, error) {
	data := make(map[string][]float64, len(BenchmarkSeries))
	for _, name := range BenchmarkSeries {
		series, ok := findSeries(chart.Series, name)
		if !ok {
			return nil, &MissingBenchmarkError{Series: name, Period: period}
		}
		if len(series.Data) != len(chart.Categories) {
			return nil, fmt.Errorf("%w: %s series %q has %d points for %d categories",
				apperrors.ErrSeriesLengthMismatch, period, name, len(series.Data), len(chart.Categories))
		}
		data[name] = series.Data
	}

	out := make([]model.Record, 0, len(chart.Categories))
	for i, category := range chart.Categories {
		date, err := ParseCategory(category, period)
		if err != nil {
			return nil, err
		}
		out = append(out, model.Record{
			ReferenceDate: date,
			Profitability: model.Profitability{
				Portfolio: data[SeriesPortfolio][i] / 100,
				CDI:       data[SeriesCDI][i] / 100,
				IBOV:      data[SeriesIBOV][i] / 100,
				Inflation: data[SeriesInflation][i] / 100,
				Savings:   data[SeriesSavings][i] / 100,
			},
		})
	}
	return out, nil
}

// NormalizeDailyEquity sums the equity of all products per day into FinalEquity.
func NormalizeDailyEquity(points []model.DailyEquity) []model.Record {
	var keys []time.Time
	byDay := make(map[time.Time]float64)
	for _, p := range points {
		day := Truncate(p.ReferenceDate, Day)
		if _, ok := byDay[day]; !ok {
			keys = append(keys, day)
		}
		byDay[day] += p.Value
	}

	out := make([]model.Record, 0, len(keys))
	for _, day := range keys {
		r := model.Record{ReferenceDate: day, FinalEquity: byDay[day]}
		derive(&r)
		out = append(out, r)
	}
	return SortedAscending(out)
}

func findSeries(series []model.ChartSeries, name string) (model.ChartSeries, bool) {
	for _, s := range series {
		if s.Name == name {
			return s, true
		}
	}
	return model.ChartSeries{}, false
}

// ptBRMonths maps the pt-BR month abbreviations to months.
var ptBRMonths = map[string]time.Month{
	"jan": time.January,
	"fev": time.February,
	"mar": time.March,
	"abr": time.April,
	"mai": time.May,
	"jun": time.June,
	"jul": time.July,
	"ago": time.August,
	"set": time.September,
	"out": time.October,
	"nov": time.November,
	"dez": time.December,
}

// ParseCategory parses a chart category label into the UTC start of its period.
func ParseCategory(category string, period model.ChartPeriod) (time.Time, error) {
	category = strings.TrimSpace(category)
	switch period {
	case model.ChartDaily:
		return parseDay(category)
	case model.ChartMonthly:
		return parseMonthLabel(category)
	case model.ChartAnnual:
		year, err := strconv.Atoi(category)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %q is not a year", apperrors.ErrInvalidCategory, category)
		}
		return time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC), nil
	default:
		return time.Time{}, fmt.Errorf("%w: unknown chart period %q", apperrors.ErrInvalidCategory, period)
	}
}

func parseDay(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return Truncate(t, Day), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q is not an ISO date", apperrors.ErrInvalidCategory, s)
}

// parseMonthLabel parses labels such as "jan. 24", "Fev 2023" or "set.24".
func parseMonthLabel(s string) (time.Time, error) {
	label := strings.ToLower(strings.ReplaceAll(s, ".", " "))
	parts := strings.Fields(label)
	if len(parts) != 2 || len([]rune(parts[0])) < 3 {
		return time.Time{}, fmt.Errorf("%w: %q is not a month label", apperrors.ErrInvalidCategory, s)
	}

	month, ok := ptBRMonths[string([]rune(parts[0])[:3])]
	if !ok {
		return time.Time{}, fmt.Errorf("%w: unknown month in %q", apperrors.ErrInvalidCategory, s)
	}

	year, err := strconv.Atoi(parts[1])
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: bad year in %q", apperrors.ErrInvalidCategory, s)
	}
	if len(parts[1]) == 2 {
		year += 2000
	}
	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC), nil
}
