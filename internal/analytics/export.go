package analytics

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/model"
)

// ExportHeader is the header row of the CSV export.
var ExportHeader = []string{
	"Data Referência",
	"Valor Investido",
	"Saldo Inicial",
	"Aplicações",
	"Resgates",
	"Movimentações",
	"Rendimentos",
	"Proventos",
	"Ganho de Capital",
	"Saldo Final",
	"IR",
	"IOF",
	"Taxas",
	"Encargos",
	"Rentabilidade Carteira",
	"Rentabilidade CDI",
	"Rentabilidade IBOV",
	"Rentabilidade Inflação",
	"Rentabilidade Poupança",
	"Rentabilidade Carteira x CDI",
	"Rentabilidade Carteira x IBOV",
	"Rentabilidade Carteira x Inflação",
	"Rentabilidade Carteira x Poupança",
}

var hundred = decimal.NewFromInt(100)

// WriteCSV writes rows as ';'-separated text in the given order.
// Numbers carry four decimals with a comma separator. Profitability is written in
// percentage points and ratios as plain ratios; a not-applicable ratio is left blank.
func WriteCSV(w io.Writer, rows []model.Record, g Granularity) error {
	cw := csv.NewWriter(w)
	cw.Comma = ';'

	if err := cw.Write(ExportHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	for _, r := range rows {
		p := r.Profitability
		line := []string{
			FormatExportDate(r, g),
			formatNumber(r.ValueApplied),
			formatNumber(r.InitialEquity),
			formatNumber(r.Applications),
			formatNumber(r.Redemptions),
			formatNumber(r.Movementations),
			formatNumber(r.Returns),
			formatNumber(r.Proceeds),
			formatNumber(r.CapitalGain),
			formatNumber(r.FinalEquity),
			formatNumber(r.IncomeTax),
			formatNumber(r.IOF),
			formatNumber(r.Cost),
			formatNumber(r.Charges),
			formatPercent(p.Portfolio),
			formatPercent(p.CDI),
			formatPercent(p.IBOV),
			formatPercent(p.Inflation),
			formatPercent(p.Savings),
			formatRatio(r.Ratios.CDI),
			formatRatio(r.Ratios.IBOV),
			formatRatio(r.Ratios.Inflation),
			formatRatio(r.Ratios.Savings),
		}
		if err := cw.Write(line); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// FormatExportDate formats the reference date of r for granularity g.
func FormatExportDate(r model.Record, g Granularity) string {
	switch g {
	case Year:
		return r.ReferenceDate.UTC().Format("2006")
	case Day:
		return r.ReferenceDate.UTC().Format("02/01/2006")
	case Total:
		return "Total"
	default:
		return r.ReferenceDate.UTC().Format("01/2006")
	}
}

func formatNumber(v float64) string {
	return formatDecimal(decimal.NewFromFloat(v))
}

func formatPercent(v float64) string {
	return formatDecimal(decimal.NewFromFloat(v).Mul(hundred))
}

func formatRatio(v *float64) string {
	if v == nil {
		return ""
	}
	return formatNumber(*v)
}

func formatDecimal(d decimal.Decimal) string {
	return strings.Replace(d.StringFixed(4), ".", ",", 1)
}
