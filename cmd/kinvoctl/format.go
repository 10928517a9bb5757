package main

import (
	"fmt"
	"math"

	"github.com/Rhymond/go-money"
)

// formatBRL renders an amount in reais, e.g. R$3.045,00.
func formatBRL(v float64) string {
	return money.New(int64(math.Round(v*100)), money.BRL).Display()
}

// formatPercent renders a fraction as a percentage with two decimals.
func formatPercent(v float64) string {
	return fmt.Sprintf("%.2f%%", v*100)
}

// formatRatio renders a benchmark ratio as a percentage of the benchmark,
// or "-" when the ratio is not applicable: the portfolio return was negative
// or the benchmark return was zero or negative.
func formatRatio(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.0f%%", *v*100)
}
