package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/subcommands"

	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/app"
)

type exportCmd struct {
	window windowFlags
	output string
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "export the summary rows of a portfolio as CSV" }
func (*exportCmd) Usage() string {
	return `kinvoctl export -p <portfolio id> [-i <interval>] [-from <date> -to <date>] [-g <granularity>] [-o <file>]

  Writes the summary rows of the latest snapshot as CSV, to stdout unless -o is given.
`
}

func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	c.window.register(f)
	f.StringVar(&c.output, "o", "", "output file (defaults to stdout)")
}

func (c *exportCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	q, err := c.window.query()
	if err != nil {
		return usageError("%v", err)
	}

	return withApp(ctx, func(ctx context.Context, a *app.App) error {
		var out io.Writer = os.Stdout
		if c.output != "" {
			f, err := os.Create(c.output)
			if err != nil {
				return err
			}
			defer f.Close()
			out = f
		}

		if err := a.Analysis.Export(ctx, out, c.window.portfolioID, q); err != nil {
			return err
		}
		if c.output != "" {
			fmt.Fprintf(os.Stderr, "wrote %s\n", c.output)
		}
		return nil
	})
}
