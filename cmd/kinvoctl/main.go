// Command kinvoctl syncs Kinvo portfolios and prints their analytics from the
// command line, using the same database and configuration as the server.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))

	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")

	commander.Register(&portfoliosCmd{}, "kinvo")
	commander.Register(&syncCmd{}, "kinvo")
	commander.Register(&watchCmd{}, "kinvo")

	commander.Register(&summaryCmd{}, "analytics")
	commander.Register(&exportCmd{}, "analytics")

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
