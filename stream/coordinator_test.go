package stream

import (
	"context"
	"errors"
	"testing"
)

type fakeSource struct {
	md         Metadata
	resolveErr error
	results    []Metadata
	searchErr  error
}

func (f *fakeSource) ResolveLive(ctx context.Context, url string) (Metadata, error) {
	if f.resolveErr != nil {
		return Metadata{}, f.resolveErr
	}
	md := f.md
	if md.URL == "" {
		md.URL = url
	}
	return md, nil
}

func (f *fakeSource) SearchLive(ctx context.Context, query string, maxResults int64) ([]Metadata, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.results, nil
}

type fakeNotifier struct {
	err   error
	msgID int
	sent  []string
}

func (f *fakeNotifier) Send(ctx context.Context, channelID int64, text string) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.sent = append(f.sent, text)
	return f.msgID, nil
}

type fakeStore struct {
	active    map[int64]*Record
	inserted  []Record
	insertErr error
	nextID    int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{active: make(map[int64]*Record)}
}

func (f *fakeStore) ActiveStream(ctx context.Context, channelID int64) (*Record, error) {
	return f.active[channelID], nil
}

func (f *fakeStore) InsertActive(ctx context.Context, channelID int64, sourceURL, title string) (*Record, error) {
	if f.insertErr != nil {
		return nil, f.insertErr
	}
	f.nextID++
	rec := &Record{ID: f.nextID, ChannelID: channelID, SourceURL: sourceURL, Title: title, Status: StatusActive}
	f.active[channelID] = rec
	f.inserted = append(f.inserted, *rec)
	return rec, nil
}

func (f *fakeStore) StopActive(ctx context.Context, channelID int64) (bool, error) {
	if f.active[channelID] == nil {
		return false, nil
	}
	delete(f.active, channelID)
	return true, nil
}

func (f *fakeStore) ActiveStreams(ctx context.Context) ([]Record, error) {
	list := make([]Record, 0, len(f.active))
	for _, rec := range f.active {
		list = append(list, *rec)
	}
	return list, nil
}

func (f *fakeStore) ChannelStreams(ctx context.Context, channelID int64) ([]Record, error) {
	return nil, nil
}

func (f *fakeStore) Analytics(ctx context.Context, channelID int64) (*Analytics, error) {
	return &Analytics{ChannelID: channelID, StreamsByStatus: map[string]int{}}, nil
}

func (f *fakeStore) UpsertChannel(ctx context.Context, ch Channel) error { return nil }

func (f *fakeStore) Channels(ctx context.Context) ([]Channel, error) { return nil, nil }

func TestStartRejectsMissingInput(t *testing.T) {
	c := NewCoordinator(newFakeStore(), &fakeSource{}, &fakeNotifier{})
	if _, err := c.Start(context.Background(), 0, "https://youtube.com/watch?v=abc"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := c.Start(context.Background(), -100123, ""); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestStartRejectsNonLiveVideo(t *testing.T) {
	store := newFakeStore()
	notifier := &fakeNotifier{msgID: 1}
	source := &fakeSource{md: Metadata{VideoID: "abc", Title: "a vod", IsLive: false}}
	c := NewCoordinator(store, source, notifier)

	_, err := c.Start(context.Background(), -100123, "https://youtube.com/watch?v=abc")
	if !errors.Is(err, ErrNotLive) {
		t.Fatalf("expected ErrNotLive, got %v", err)
	}
	if len(notifier.sent) != 0 {
		t.Fatalf("no announcement should be sent for a non-live video")
	}
	if len(store.inserted) != 0 {
		t.Fatalf("no record should be created for a non-live video")
	}
}

func TestStartRejectsSecondActiveRelay(t *testing.T) {
	store := newFakeStore()
	store.active[-100123] = &Record{ID: 7, ChannelID: -100123, Status: StatusActive}
	notifier := &fakeNotifier{msgID: 1}
	source := &fakeSource{md: Metadata{VideoID: "abc", Title: "live", IsLive: true}}
	c := NewCoordinator(store, source, notifier)

	_, err := c.Start(context.Background(), -100123, "https://youtube.com/watch?v=abc")
	if !errors.Is(err, ErrAlreadyActive) {
		t.Fatalf("expected ErrAlreadyActive, got %v", err)
	}
	if len(notifier.sent) != 0 {
		t.Fatalf("no announcement should be sent when a relay is already active")
	}
}

func TestStartDeliveryFailureGatesInsert(t *testing.T) {
	store := newFakeStore()
	notifier := &fakeNotifier{err: ErrDeliveryFailed}
	source := &fakeSource{md: Metadata{VideoID: "abc", Title: "live", IsLive: true}}
	c := NewCoordinator(store, source, notifier)

	_, err := c.Start(context.Background(), -100123, "https://youtube.com/watch?v=abc")
	if !errors.Is(err, ErrDeliveryFailed) {
		t.Fatalf("expected ErrDeliveryFailed, got %v", err)
	}
	if len(store.inserted) != 0 {
		t.Fatalf("a failed announcement must not leave a record behind")
	}
}

func TestStartInsertConflictAfterSend(t *testing.T) {
	store := newFakeStore()
	store.insertErr = ErrAlreadyActive
	notifier := &fakeNotifier{msgID: 9}
	source := &fakeSource{md: Metadata{VideoID: "abc", Title: "live", IsLive: true}}
	c := NewCoordinator(store, source, notifier)

	_, err := c.Start(context.Background(), -100123, "https://youtube.com/watch?v=abc")
	if !errors.Is(err, ErrAlreadyActive) {
		t.Fatalf("expected ErrAlreadyActive from constrained insert, got %v", err)
	}
}

func TestStartSuccess(t *testing.T) {
	store := newFakeStore()
	notifier := &fakeNotifier{msgID: 42}
	source := &fakeSource{md: Metadata{VideoID: "abc", Title: "My Live Show", IsLive: true}}
	c := NewCoordinator(store, source, notifier)

	res, err := c.Start(context.Background(), -100123, "https://youtube.com/watch?v=abc")
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if res.Record == nil || res.Record.ChannelID != -100123 || res.Record.Status != StatusActive {
		t.Fatalf("unexpected record: %+v", res.Record)
	}
	if res.Record.Title != "My Live Show" {
		t.Fatalf("record title should come from resolved metadata, got %q", res.Record.Title)
	}
	if res.MessageID != 42 {
		t.Fatalf("expected message id 42, got %d", res.MessageID)
	}
	if len(notifier.sent) != 1 {
		t.Fatalf("expected exactly one announcement, got %d", len(notifier.sent))
	}
}

func TestStartAnnouncementContent(t *testing.T) {
	store := newFakeStore()
	notifier := &fakeNotifier{msgID: 1}
	source := &fakeSource{md: Metadata{VideoID: "abc", Title: "My Live Show", IsLive: true}}
	c := NewCoordinator(store, source, notifier)

	url := "https://youtube.com/watch?v=abc"
	if _, err := c.Start(context.Background(), -100123, url); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	want := startMessage("My Live Show", url)
	if notifier.sent[0] != want {
		t.Fatalf("announcement mismatch:\ngot:  %q\nwant: %q", notifier.sent[0], want)
	}
}

func TestStopTransitionsActiveRelay(t *testing.T) {
	store := newFakeStore()
	store.active[-100123] = &Record{ID: 1, ChannelID: -100123, Status: StatusActive}
	notifier := &fakeNotifier{msgID: 8}
	c := NewCoordinator(store, &fakeSource{}, notifier)

	res, err := c.Stop(context.Background(), -100123)
	if err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	if !res.Stopped {
		t.Fatalf("expected a record transition")
	}
	if store.active[-100123] != nil {
		t.Fatalf("record should no longer be active")
	}
	if notifier.sent[0] != stopMessage() {
		t.Fatalf("unexpected stop announcement: %q", notifier.sent[0])
	}
}

func TestStopIsIdempotent(t *testing.T) {
	store := newFakeStore()
	notifier := &fakeNotifier{msgID: 8}
	c := NewCoordinator(store, &fakeSource{}, notifier)

	res, err := c.Stop(context.Background(), -100123)
	if err != nil {
		t.Fatalf("stop of an idle channel must succeed, got %v", err)
	}
	if res.Stopped {
		t.Fatalf("nothing should have transitioned")
	}
}

func TestStopDeliveryFailureLeavesRecord(t *testing.T) {
	store := newFakeStore()
	store.active[-100123] = &Record{ID: 1, ChannelID: -100123, Status: StatusActive}
	notifier := &fakeNotifier{err: ErrDeliveryFailed}
	c := NewCoordinator(store, &fakeSource{}, notifier)

	if _, err := c.Stop(context.Background(), -100123); !errors.Is(err, ErrDeliveryFailed) {
		t.Fatalf("expected ErrDeliveryFailed, got %v", err)
	}
	if store.active[-100123] == nil {
		t.Fatalf("record must stay active when the stop announcement fails")
	}
}

func TestSearchAndStartNoResults(t *testing.T) {
	c := NewCoordinator(newFakeStore(), &fakeSource{}, &fakeNotifier{})
	if _, err := c.SearchAndStart(context.Background(), -100123, "nothing live"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSearchAndStartRelaysTopResult(t *testing.T) {
	store := newFakeStore()
	notifier := &fakeNotifier{msgID: 3}
	source := &fakeSource{
		md: Metadata{VideoID: "top", Title: "top stream", IsLive: true},
		results: []Metadata{
			{VideoID: "top", URL: "https://www.youtube.com/watch?v=top", IsLive: true},
			{VideoID: "second", URL: "https://www.youtube.com/watch?v=second", IsLive: true},
		},
	}
	c := NewCoordinator(store, source, notifier)

	res, err := c.SearchAndStart(context.Background(), -100123, "live music")
	if err != nil {
		t.Fatalf("search and start failed: %v", err)
	}
	if res.Record.SourceURL != "https://www.youtube.com/watch?v=top" {
		t.Fatalf("expected top result to be relayed, got %q", res.Record.SourceURL)
	}
}
