package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/google/subcommands"

	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/analytics"
	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/api/request"
	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/app"
	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/model"
	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/service"
)

// windowFlags are the analysis window flags shared by summary and export.
type windowFlags struct {
	portfolioID int64
	interval    string
	from        string
	to          string
	granularity string
}

func (w *windowFlags) register(f *flag.FlagSet) {
	f.Int64Var(&w.portfolioID, "p", 0, "Kinvo portfolio ID")
	f.StringVar(&w.interval, "i", "", "interval: inicio, ano, mes, 3m, 6m, 12m, 24m, 36m (defaults to inicio)")
	f.StringVar(&w.from, "from", "", "start date of a custom interval (YYYY-MM-DD)")
	f.StringVar(&w.to, "to", "", "end date of a custom interval (YYYY-MM-DD)")
	f.StringVar(&w.granularity, "g", "", "granularity: day, month, year, total (defaults to month)")
}

func (w *windowFlags) query() (service.Query, error) {
	if w.portfolioID <= 0 {
		return service.Query{}, fmt.Errorf("-p is required")
	}
	return request.ParseAnalysisQuery(w.interval, w.from, w.to, w.granularity)
}

type summaryCmd struct {
	window windowFlags
}

func (*summaryCmd) Name() string     { return "summary" }
func (*summaryCmd) Synopsis() string { return "print the summary table of a portfolio" }
func (*summaryCmd) Usage() string {
	return `kinvoctl summary -p <portfolio id> [-i <interval>] [-from <date> -to <date>] [-g <granularity>]

  Prints the bucketed summary of the latest snapshot, newest first, followed by
  the total line of the window.
`
}

func (c *summaryCmd) SetFlags(f *flag.FlagSet) {
	c.window.register(f)
}

func (c *summaryCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	q, err := c.window.query()
	if err != nil {
		return usageError("%v", err)
	}

	return withApp(ctx, func(ctx context.Context, a *app.App) error {
		summary, err := a.Analysis.Summary(ctx, c.window.portfolioID, q)
		if err != nil {
			return err
		}
		return printSummary(os.Stdout, summary)
	})
}

func printSummary(w io.Writer, summary service.Summary) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Data\tPatrimônio inicial\tMovimentações\tGanho de capital\tPatrimônio final\tRentabilidade\t% CDI\t")

	for _, r := range summary.Rows {
		printSummaryRow(tw, analytics.FormatExportDate(r, summary.Granularity), r)
	}
	if summary.Total != nil {
		printSummaryRow(tw, analytics.FormatExportDate(*summary.Total, analytics.Total), *summary.Total)
	}
	return tw.Flush()
}

func printSummaryRow(w io.Writer, label string, r model.Record) {
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
		label,
		formatBRL(r.InitialEquity),
		formatBRL(r.Movementations),
		formatBRL(r.CapitalGain),
		formatBRL(r.FinalEquity),
		formatPercent(r.Profitability.Portfolio),
		formatRatio(r.Ratios.CDI),
	)
}
