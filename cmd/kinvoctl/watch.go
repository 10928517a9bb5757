package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/subcommands"

	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/events"
)

type watchCmd struct{}

func (*watchCmd) Name() string     { return "watch" }
func (*watchCmd) Synopsis() string { return "print snapshot synced events as they arrive" }
func (*watchCmd) Usage() string {
	return `kinvoctl watch

  Consumes the snapshot synced queue configured by AMQP_URL, AMQP_EXCHANGE and
  AMQP_QUEUE and prints one line per event until interrupted.
`
}

func (*watchCmd) SetFlags(*flag.FlagSet) {}

func (*watchCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	if cfg.AMQP.URL == "" {
		return usageError("AMQP_URL is not set")
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := events.NewAMQPClient(cfg.AMQP.URL, cfg.AMQP.Exchange, cfg.AMQP.Queue)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer client.Close()

	err = client.ConsumeSnapshotSynced(ctx, func(msg *events.SnapshotSyncedMessage) error {
		fmt.Println(formatEvent(msg))
		return nil
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func formatEvent(msg *events.SnapshotSyncedMessage) string {
	return fmt.Sprintf("%s portfolio %d: snapshot %s, %d records %s..%s, patrimônio %s",
		msg.Timestamp.Local().Format("2006-01-02 15:04:05"),
		msg.PortfolioID,
		msg.SnapshotID,
		msg.RecordCount,
		msg.FirstDate,
		msg.LastDate,
		formatBRL(msg.FinalEquity),
	)
}
