package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"

	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/app"
)

type syncCmd struct {
	portfolioID int64
	all         bool
}

func (*syncCmd) Name() string     { return "sync" }
func (*syncCmd) Synopsis() string { return "pull a portfolio from Kinvo and store a snapshot" }
func (*syncCmd) Usage() string {
	return `kinvoctl sync -p <portfolio id> | -all

  Loads the portfolio from Kinvo, rebuilds its records and stores them as the
  latest snapshot. With -all every known portfolio is synced.
`
}

func (c *syncCmd) SetFlags(f *flag.FlagSet) {
	f.Int64Var(&c.portfolioID, "p", 0, "Kinvo portfolio ID")
	f.BoolVar(&c.all, "all", false, "sync every known portfolio")
}

func (c *syncCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.all == (c.portfolioID > 0) {
		return usageError("exactly one of -p or -all is required")
	}

	return withApp(ctx, func(ctx context.Context, a *app.App) error {
		if c.all {
			return a.Sync.SyncAll(ctx)
		}

		run, err := a.Sync.SyncPortfolio(ctx, c.portfolioID)
		if err != nil {
			return err
		}
		fmt.Printf("portfolio %d synced: snapshot %s in %d ms\n", run.PortfolioID, *run.SnapshotID, run.DurationMs)
		return nil
	})
}
