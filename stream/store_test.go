package stream_test

import (
	"context"
	"errors"
	"testing"

	"github.com/onnwee/live-relay/stream"
	"github.com/onnwee/live-relay/testutil"
)

func seedChannel(t *testing.T, store *stream.SQLStore, id int64, name string, isAdmin bool) {
	t.Helper()
	err := store.UpsertChannel(context.Background(), stream.Channel{
		ChannelID: id, Name: name, IsAdmin: isAdmin,
	})
	if err != nil {
		t.Fatalf("seed channel: %v", err)
	}
}

func TestInsertActiveEnforcesOnePerChannel(t *testing.T) {
	database := testutil.SetupSQLite(t)
	store := stream.NewSQLStore(database)
	ctx := context.Background()
	seedChannel(t, store, -100123, "test channel", true)

	rec, err := store.InsertActive(ctx, -100123, "https://www.youtube.com/watch?v=a", "first")
	if err != nil {
		t.Fatalf("first insert failed: %v", err)
	}
	if rec.ID == 0 {
		t.Fatalf("expected generated id")
	}

	_, err = store.InsertActive(ctx, -100123, "https://www.youtube.com/watch?v=b", "second")
	if !errors.Is(err, stream.ErrAlreadyActive) {
		t.Fatalf("expected ErrAlreadyActive from constrained insert, got %v", err)
	}

	// A different channel is unaffected.
	seedChannel(t, store, -100456, "other channel", true)
	if _, err := store.InsertActive(ctx, -100456, "https://www.youtube.com/watch?v=c", "other"); err != nil {
		t.Fatalf("insert for a different channel failed: %v", err)
	}
}

func TestStopActiveFreesTheSlot(t *testing.T) {
	database := testutil.SetupSQLite(t)
	store := stream.NewSQLStore(database)
	ctx := context.Background()
	seedChannel(t, store, -100123, "test channel", true)

	if _, err := store.InsertActive(ctx, -100123, "https://www.youtube.com/watch?v=a", "first"); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	stopped, err := store.StopActive(ctx, -100123)
	if err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	if !stopped {
		t.Fatalf("expected a row transition")
	}

	// Second stop is a no-op.
	stopped, err = store.StopActive(ctx, -100123)
	if err != nil {
		t.Fatalf("second stop failed: %v", err)
	}
	if stopped {
		t.Fatalf("nothing should have transitioned on second stop")
	}

	// The slot is free again after stopping.
	if _, err := store.InsertActive(ctx, -100123, "https://www.youtube.com/watch?v=b", "second"); err != nil {
		t.Fatalf("insert after stop failed: %v", err)
	}

	active, err := store.ActiveStream(ctx, -100123)
	if err != nil {
		t.Fatalf("active stream lookup failed: %v", err)
	}
	if active == nil || active.Title != "second" {
		t.Fatalf("expected the new relay to be active, got %+v", active)
	}
}

func TestActiveStreamsJoinsChannelName(t *testing.T) {
	database := testutil.SetupSQLite(t)
	store := stream.NewSQLStore(database)
	ctx := context.Background()
	seedChannel(t, store, -100123, "music channel", true)

	if _, err := store.InsertActive(ctx, -100123, "https://www.youtube.com/watch?v=a", "show"); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	list, err := store.ActiveStreams(ctx)
	if err != nil {
		t.Fatalf("active streams failed: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 active stream, got %d", len(list))
	}
	if list[0].ChannelName != "music channel" {
		t.Fatalf("expected joined channel name, got %q", list[0].ChannelName)
	}
}

func TestAnalyticsAggregatesByStatus(t *testing.T) {
	database := testutil.SetupSQLite(t)
	store := stream.NewSQLStore(database)
	ctx := context.Background()
	seedChannel(t, store, -100123, "test channel", true)

	// Two finished relays and one active.
	for i := 0; i < 2; i++ {
		if _, err := store.InsertActive(ctx, -100123, "https://www.youtube.com/watch?v=a", "old"); err != nil {
			t.Fatalf("insert failed: %v", err)
		}
		if _, err := store.StopActive(ctx, -100123); err != nil {
			t.Fatalf("stop failed: %v", err)
		}
	}
	if _, err := store.InsertActive(ctx, -100123, "https://www.youtube.com/watch?v=b", "current"); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	a, err := store.Analytics(ctx, -100123)
	if err != nil {
		t.Fatalf("analytics failed: %v", err)
	}
	if a.TotalStreams != 3 {
		t.Fatalf("expected 3 total streams, got %d", a.TotalStreams)
	}
	if a.ActiveStreams != 1 {
		t.Fatalf("expected 1 active stream, got %d", a.ActiveStreams)
	}
	if a.StreamsByStatus["stopped"] != 2 {
		t.Fatalf("expected 2 stopped streams, got %d", a.StreamsByStatus["stopped"])
	}
}

func TestAnalyticsEmptyChannel(t *testing.T) {
	database := testutil.SetupSQLite(t)
	store := stream.NewSQLStore(database)

	a, err := store.Analytics(context.Background(), -100999)
	if err != nil {
		t.Fatalf("analytics failed: %v", err)
	}
	if a.TotalStreams != 0 || a.ActiveStreams != 0 || len(a.StreamsByStatus) != 0 {
		t.Fatalf("expected zeroed aggregate, got %+v", a)
	}
}

func TestUpsertChannelUpdatesInPlace(t *testing.T) {
	database := testutil.SetupSQLite(t)
	store := stream.NewSQLStore(database)
	ctx := context.Background()

	seedChannel(t, store, -100123, "old name", false)
	err := store.UpsertChannel(ctx, stream.Channel{
		ChannelID: -100123, Name: "new name", Username: "newuser", ParticipantCount: 250, IsAdmin: true,
	})
	if err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	channels, err := store.Channels(ctx)
	if err != nil {
		t.Fatalf("channels failed: %v", err)
	}
	if len(channels) != 1 {
		t.Fatalf("expected 1 channel, got %d", len(channels))
	}
	ch := channels[0]
	if ch.Name != "new name" || ch.Username != "newuser" || ch.ParticipantCount != 250 || !ch.IsAdmin {
		t.Fatalf("unexpected channel after upsert: %+v", ch)
	}

	known, err := store.IsKnownAdminChannel(ctx, -100123)
	if err != nil {
		t.Fatalf("admin flag lookup failed: %v", err)
	}
	if !known {
		t.Fatalf("expected admin flag to be recorded")
	}
	known, err = store.IsKnownAdminChannel(ctx, -100777)
	if err != nil {
		t.Fatalf("admin flag lookup failed: %v", err)
	}
	if known {
		t.Fatalf("unknown channel must not count as admin")
	}
}

func TestChannelStreamsOrdersNewestFirst(t *testing.T) {
	database := testutil.SetupSQLite(t)
	store := stream.NewSQLStore(database)
	ctx := context.Background()
	seedChannel(t, store, -100123, "test channel", true)

	if _, err := store.InsertActive(ctx, -100123, "https://www.youtube.com/watch?v=a", "first"); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if _, err := store.StopActive(ctx, -100123); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	if _, err := store.InsertActive(ctx, -100123, "https://www.youtube.com/watch?v=b", "second"); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	list, err := store.ChannelStreams(ctx, -100123)
	if err != nil {
		t.Fatalf("channel streams failed: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 records, got %d", len(list))
	}
}
