package stream

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/onnwee/live-relay/telemetry"
)

// Coordinator sequences a relay's external calls and reconciles the outcome
// into the store. Every operation re-reads current state; nothing is cached
// between calls. A failed announcement send always gates persistence: a row
// must never claim "active" without the announcement having gone out.
type Coordinator struct {
	store    Store
	source   MetadataSource
	notifier Notifier
}

// StartResult echoes back the persisted record and the resolved metadata.
type StartResult struct {
	Record    *Record  `json:"record"`
	Metadata  Metadata `json:"stream_info"`
	MessageID int      `json:"message_id"`
}

// StopResult reports whether a record transitioned and which announcement
// message was posted.
type StopResult struct {
	Stopped   bool `json:"stopped"`
	MessageID int  `json:"message_id"`
}

func NewCoordinator(store Store, source MetadataSource, notifier Notifier) *Coordinator {
	return &Coordinator{store: store, source: source, notifier: notifier}
}

// Start begins a relay for channelID from sourceURL.
//
// Precondition order is deliberate and fail-fast: input validation, live
// resolution (NotLive), active-record check (AlreadyActive), announcement
// send (DeliveryFailed), then insert. The insert re-enforces AlreadyActive
// through the store's unique constraint, which is the authoritative guard;
// the earlier read-check only narrows the window.
func (c *Coordinator) Start(ctx context.Context, channelID int64, sourceURL string) (*StartResult, error) {
	if channelID == 0 || sourceURL == "" {
		return nil, fmt.Errorf("%w: channel id and youtube url are required", ErrInvalidInput)
	}
	log := slog.With(slog.Int64("channel_id", channelID), slog.String("url", sourceURL))
	log.Info("starting live stream relay")

	md, err := c.source.ResolveLive(ctx, sourceURL)
	if err != nil {
		telemetry.IncStartFailure()
		log.Error("metadata resolution failed", slog.Any("err", err))
		return nil, err
	}
	if !md.IsLive {
		telemetry.IncStartFailure()
		return nil, fmt.Errorf("%w: %s", ErrNotLive, sourceURL)
	}

	existing, err := c.store.ActiveStream(ctx, channelID)
	if err != nil {
		telemetry.IncStartFailure()
		return nil, err
	}
	if existing != nil {
		telemetry.IncStartFailure()
		return nil, fmt.Errorf("%w: channel %d", ErrAlreadyActive, channelID)
	}

	msgID, err := c.notifier.Send(ctx, channelID, startMessage(md.Title, sourceURL))
	if err != nil {
		telemetry.IncStartFailure()
		telemetry.IncNotificationFailed()
		log.Error("start announcement failed, no record created", slog.Any("err", err))
		return nil, err
	}
	telemetry.IncNotificationSent()

	rec, err := c.store.InsertActive(ctx, channelID, sourceURL, md.Title)
	if err != nil {
		telemetry.IncStartFailure()
		// A lost race here means the announcement went out twice; the record
		// belongs to whichever call won the constrained insert.
		log.Warn("announcement sent but record insert failed", slog.Any("err", err))
		return nil, err
	}

	telemetry.IncStreamStarted()
	log.Info("live stream relay started", slog.Int64("stream_id", rec.ID), slog.Int("message_id", msgID))
	return &StartResult{Record: rec, Metadata: md, MessageID: msgID}, nil
}

// Stop ends the active relay for channelID. The stop announcement is sent
// before the store update: a stuck "active" record is preferable to a record
// marked stopped that never told the channel. Stopping a channel with no
// active relay is a no-op success.
func (c *Coordinator) Stop(ctx context.Context, channelID int64) (*StopResult, error) {
	if channelID == 0 {
		return nil, fmt.Errorf("%w: channel id is required", ErrInvalidInput)
	}
	log := slog.With(slog.Int64("channel_id", channelID))
	log.Info("stopping live stream relay")

	msgID, err := c.notifier.Send(ctx, channelID, stopMessage())
	if err != nil {
		telemetry.IncNotificationFailed()
		log.Error("stop announcement failed, record left untouched", slog.Any("err", err))
		return nil, err
	}
	telemetry.IncNotificationSent()

	stopped, err := c.store.StopActive(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if stopped {
		telemetry.IncStreamStopped()
		log.Info("live stream relay stopped")
	} else {
		log.Info("no active relay to stop")
	}
	return &StopResult{Stopped: stopped, MessageID: msgID}, nil
}

// SearchAndStart finds live streams matching query and relays the most viewed
// result to channelID.
func (c *Coordinator) SearchAndStart(ctx context.Context, channelID int64, query string) (*StartResult, error) {
	if channelID == 0 || query == "" {
		return nil, fmt.Errorf("%w: channel id and search query are required", ErrInvalidInput)
	}
	results, err := c.source.SearchLive(ctx, query, 5)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("%w: no live streams matched %q", ErrNotFound, query)
	}
	return c.Start(ctx, channelID, results[0].URL)
}

// ActiveStreams lists in-progress relays, most recent first.
func (c *Coordinator) ActiveStreams(ctx context.Context) ([]Record, error) {
	list, err := c.store.ActiveStreams(ctx)
	if err != nil {
		return nil, err
	}
	telemetry.SetActiveStreams(len(list))
	return list, nil
}

// Analytics returns the per-channel aggregate.
func (c *Coordinator) Analytics(ctx context.Context, channelID int64) (*Analytics, error) {
	if channelID == 0 {
		return nil, fmt.Errorf("%w: channel id is required", ErrInvalidInput)
	}
	return c.store.Analytics(ctx, channelID)
}

func startMessage(title, url string) string {
	return "🔴 **LIVE STREAM STARTED**\n\n" +
		"📺 **" + title + "**\n" +
		"🔗 YouTube: " + url + "\n\n" +
		"Stream will begin shortly..."
}

func stopMessage() string {
	return "⏹️ **LIVE STREAM ENDED**\n\nStream has been stopped."
}
