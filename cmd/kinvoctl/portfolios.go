package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/google/subcommands"

	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/app"
)

type portfoliosCmd struct {
	refresh bool
}

func (*portfoliosCmd) Name() string     { return "portfolios" }
func (*portfoliosCmd) Synopsis() string { return "list the Kinvo portfolios" }
func (*portfoliosCmd) Usage() string {
	return `kinvoctl portfolios [-refresh]

  Lists the known portfolios and when each was last synced.
`
}

func (c *portfoliosCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.refresh, "refresh", false, "pull the portfolio list from Kinvo first")
}

func (c *portfoliosCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withApp(ctx, func(ctx context.Context, a *app.App) error {
		portfolios, err := a.Portfolio.GetPortfolios(ctx, c.refresh)
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNome\tÚltima sincronização")
		for _, p := range portfolios {
			synced := "-"
			if p.LastSyncedAt != nil {
				synced = p.LastSyncedAt.Local().Format(time.DateTime)
			}
			fmt.Fprintf(tw, "%d\t%s\t%s\n", p.ID, p.Name, synced)
		}
		return tw.Flush()
	})
}
