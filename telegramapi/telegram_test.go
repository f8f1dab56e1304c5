package telegramapi

import (
	"context"
	"errors"
	"testing"

	"github.com/onnwee/live-relay/stream"
	"github.com/onnwee/live-relay/testutil"
)

func testClient(t *testing.T, m *testutil.MockTelegramServer) *Client {
	t.Helper()
	c, err := New("test-token", m.URL)
	if err != nil {
		t.Fatalf("client init failed: %v", err)
	}
	return c
}

func TestNewAuthenticatesBot(t *testing.T) {
	m := testutil.NewMockTelegramServer(t)
	m.MockGetMe(4242, "relay_bot")

	c := testClient(t, m)
	if c.BotID() != 4242 {
		t.Fatalf("expected bot id 4242, got %d", c.BotID())
	}
}

func TestChannelInfo(t *testing.T) {
	m := testutil.NewMockTelegramServer(t)
	m.MockGetChat(-100123, "Music Channel", "musicchan")
	m.MockChatMemberCount(512)
	c := testClient(t, m)

	ch, err := c.ChannelInfo(context.Background(), -100123)
	if err != nil {
		t.Fatalf("channel info failed: %v", err)
	}
	if ch.Name != "Music Channel" || ch.Username != "musicchan" {
		t.Fatalf("unexpected channel: %+v", ch)
	}
	if ch.ParticipantCount != 512 {
		t.Fatalf("expected 512 members, got %d", ch.ParticipantCount)
	}
}

func TestChannelInfoUpstreamFailure(t *testing.T) {
	m := testutil.NewMockTelegramServer(t)
	// no getChat handler: the mock answers 404
	c := testClient(t, m)

	_, err := c.ChannelInfo(context.Background(), -100123)
	if !errors.Is(err, stream.ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
}

func TestIsAdmin(t *testing.T) {
	m := testutil.NewMockTelegramServer(t)
	m.MockGetMe(1000, "relay_bot")
	m.MockChatAdministrators(555, 1000)
	c := testClient(t, m)

	if !c.IsAdmin(context.Background(), -100123) {
		t.Fatalf("bot is in the admin list, expected true")
	}

	m.MockChatAdministrators(555, 777)
	if c.IsAdmin(context.Background(), -100123) {
		t.Fatalf("bot is not in the admin list, expected false")
	}
}

func TestIsAdminFailsClosed(t *testing.T) {
	m := testutil.NewMockTelegramServer(t)
	// no getChatAdministrators handler: lookup fails
	c := testClient(t, m)

	if c.IsAdmin(context.Background(), -100123) {
		t.Fatalf("a failed lookup must not grant admin")
	}
}

func TestSendReturnsMessageID(t *testing.T) {
	m := testutil.NewMockTelegramServer(t)
	m.MockSendMessage(77)
	c := testClient(t, m)

	id, err := c.Send(context.Background(), -100123, "🔴 **LIVE STREAM STARTED**")
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if id != 77 {
		t.Fatalf("expected message id 77, got %d", id)
	}
}

func TestSendWrapsDeliveryFailure(t *testing.T) {
	m := testutil.NewMockTelegramServer(t)
	m.MockSendMessageError(400, "Bad Request: chat not found")
	c := testClient(t, m)

	_, err := c.Send(context.Background(), -100123, "hello")
	if !errors.Is(err, stream.ErrDeliveryFailed) {
		t.Fatalf("expected ErrDeliveryFailed, got %v", err)
	}
}

func TestSyncOnceUpsertsChannels(t *testing.T) {
	m := testutil.NewMockTelegramServer(t)
	m.MockGetMe(1000, "relay_bot")
	m.MockGetChat(-100123, "Music Channel", "musicchan")
	m.MockChatMemberCount(512)
	m.MockChatAdministrators(1000)
	c := testClient(t, m)

	database := testutil.SetupSQLite(t)
	store := stream.NewSQLStore(database)

	c.SyncOnce(context.Background(), store, []int64{-100123})

	channels, err := store.Channels(context.Background())
	if err != nil {
		t.Fatalf("channels failed: %v", err)
	}
	if len(channels) != 1 {
		t.Fatalf("expected 1 channel after sync, got %d", len(channels))
	}
	ch := channels[0]
	if ch.Name != "Music Channel" || ch.ParticipantCount != 512 || !ch.IsAdmin {
		t.Fatalf("unexpected synced channel: %+v", ch)
	}
}
