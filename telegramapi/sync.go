package telegramapi

import (
	"context"
	"log/slog"
	"time"

	"github.com/onnwee/live-relay/stream"
	"github.com/onnwee/live-relay/telemetry"
)

// SyncOnce refreshes the stored channel registry for the configured channel
// ids: title, username, member count, and admin standing. A channel that fails
// to resolve is logged and skipped so one bad id cannot stall the rest.
func (c *Client) SyncOnce(ctx context.Context, store stream.Store, channelIDs []int64) {
	for _, id := range channelIDs {
		ch, err := c.ChannelInfo(ctx, id)
		if err != nil {
			slog.Warn("channel sync skipped channel",
				slog.Int64("channel_id", id),
				slog.Any("error", err),
				slog.String("component", "channel_sync"))
			continue
		}
		ch.IsAdmin = c.IsAdmin(ctx, id)
		if err := store.UpsertChannel(ctx, ch); err != nil {
			slog.Error("channel sync upsert failed",
				slog.Int64("channel_id", id),
				slog.Any("error", err),
				slog.String("component", "channel_sync"))
		}
	}
	telemetry.IncChannelSyncCycle()
}

// StartChannelSyncJob runs SyncOnce immediately and then on every tick of
// interval until ctx is cancelled. Call in a goroutine.
func (c *Client) StartChannelSyncJob(ctx context.Context, store stream.Store, channelIDs []int64, interval time.Duration) {
	if len(channelIDs) == 0 {
		slog.Info("channel sync disabled, no channels configured", slog.String("component", "channel_sync"))
		return
	}
	if interval <= 0 {
		interval = 15 * time.Minute
	}

	slog.Info("channel sync job started",
		slog.Int("channels", len(channelIDs)),
		slog.Duration("interval", interval),
		slog.String("component", "channel_sync"))

	c.SyncOnce(ctx, store, channelIDs)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			slog.Info("channel sync job stopped", slog.String("component", "channel_sync"))
			return
		case <-ticker.C:
			c.SyncOnce(ctx, store, channelIDs)
		}
	}
}
