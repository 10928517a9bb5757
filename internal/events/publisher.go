// Package events publishes sync notifications to a message broker.
package events

import (
	"context"
	"log/slog"
)

// Publisher announces finished syncs.
type Publisher interface {
	PublishSnapshotSynced(ctx context.Context, msg *SnapshotSyncedMessage) error
	Close() error
}

// NoopPublisher is used when no broker is configured. It only logs.
type NoopPublisher struct{}

// PublishSnapshotSynced logs the message at debug level.
func (NoopPublisher) PublishSnapshotSynced(ctx context.Context, msg *SnapshotSyncedMessage) error {
	slog.DebugContext(ctx, "event publishing disabled, dropping message",
		"portfolio_id", msg.PortfolioID,
		"snapshot_id", msg.SnapshotID)
	return nil
}

// Close does nothing.
func (NoopPublisher) Close() error { return nil }
