package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
)

// MockTelegramServer mocks the Telegram Bot API. Handlers are keyed by method
// name (getMe, sendMessage, getChat, ...); requests arrive on paths shaped
// /bot<token>/<method>.
type MockTelegramServer struct {
	*httptest.Server
	Handlers map[string]http.HandlerFunc
}

// NewMockTelegramServer creates a mock Bot API server with a default getMe
// response, which the client library calls during construction.
func NewMockTelegramServer(t *testing.T) *MockTelegramServer {
	t.Helper()
	m := &MockTelegramServer{
		Handlers: make(map[string]http.HandlerFunc),
	}
	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/"), "/")
		method := parts[len(parts)-1]
		if handler, ok := m.Handlers[method]; ok {
			handler(w, r)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(m.Close)
	m.MockGetMe(1000, "relay_bot")
	return m
}

func (m *MockTelegramServer) respond(method string, result any) {
	m.Handlers[method] = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "result": result}) //nolint:errcheck // test mock response
	}
}

// MockGetMe sets the bot identity returned at client construction.
func (m *MockTelegramServer) MockGetMe(botID int64, username string) {
	m.respond("getMe", map[string]any{
		"id":         botID,
		"is_bot":     true,
		"first_name": "Relay",
		"username":   username,
	})
}

// MockSendMessage makes sendMessage succeed with the given message id.
func (m *MockTelegramServer) MockSendMessage(messageID int) {
	m.respond("sendMessage", map[string]any{
		"message_id": messageID,
		"chat":       map[string]any{"id": -100123, "type": "channel"},
		"date":       1700000000,
	})
}

// MockSendMessageError makes sendMessage fail with a Bot API error.
func (m *MockTelegramServer) MockSendMessageError(code int, description string) {
	m.Handlers["sendMessage"] = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck // test mock response
			"ok":          false,
			"error_code":  code,
			"description": description,
		})
	}
}

// MockGetChat sets the channel profile returned by getChat.
func (m *MockTelegramServer) MockGetChat(chatID int64, title, username string) {
	m.respond("getChat", map[string]any{
		"id":       chatID,
		"type":     "channel",
		"title":    title,
		"username": username,
	})
}

// MockChatAdministrators sets the admin list returned by getChatAdministrators.
func (m *MockTelegramServer) MockChatAdministrators(adminIDs ...int64) {
	admins := make([]map[string]any, 0, len(adminIDs))
	for _, id := range adminIDs {
		admins = append(admins, map[string]any{
			"status": "administrator",
			"user":   map[string]any{"id": id, "is_bot": true, "first_name": "admin"},
		})
	}
	m.respond("getChatAdministrators", admins)
}

// MockChatMemberCount sets the member count returned by getChatMemberCount.
// The client library still calls the legacy getChatMembersCount method name.
func (m *MockTelegramServer) MockChatMemberCount(n int) {
	m.respond("getChatMembersCount", n)
	m.respond("getChatMemberCount", n)
}

// MockYouTubeServer mocks the YouTube Data API v3. Handlers are keyed by
// request path (/youtube/v3/videos, /youtube/v3/search).
type MockYouTubeServer struct {
	*httptest.Server
	Handlers map[string]http.HandlerFunc
}

// NewMockYouTubeServer creates a new mock YouTube API server.
func NewMockYouTubeServer(t *testing.T) *MockYouTubeServer {
	t.Helper()
	m := &MockYouTubeServer{
		Handlers: make(map[string]http.HandlerFunc),
	}
	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if handler, ok := m.Handlers[r.URL.Path]; ok {
			handler(w, r)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(m.Close)
	return m
}

func (m *MockYouTubeServer) respond(path string, body any) {
	m.Handlers[path] = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(body) //nolint:errcheck // test mock response
	}
}

// MockLiveVideo makes videos.list return a currently-live video.
func (m *MockYouTubeServer) MockLiveVideo(videoID, title string, viewers uint64) {
	m.respond("/youtube/v3/videos", map[string]any{
		"kind": "youtube#videoListResponse",
		"items": []map[string]any{{
			"kind": "youtube#video",
			"id":   videoID,
			"snippet": map[string]any{
				"title":        title,
				"description":  "live now",
				"channelTitle": "Some Channel",
				"publishedAt":  "2024-01-15T12:00:00Z",
			},
			"liveStreamingDetails": map[string]any{
				"actualStartTime": "2024-01-15T12:05:00Z",
				// uint64 fields decode with the ,string tag in the generated client
				"concurrentViewers": strconv.FormatUint(viewers, 10),
				"activeLiveChatId":  "chat-" + videoID,
			},
			"statistics": map[string]any{
				"viewCount": "1234",
				"likeCount": "56",
			},
		}},
	})
}

// MockNonLiveVideo makes videos.list return a plain uploaded video.
func (m *MockYouTubeServer) MockNonLiveVideo(videoID, title string) {
	m.respond("/youtube/v3/videos", map[string]any{
		"kind": "youtube#videoListResponse",
		"items": []map[string]any{{
			"kind": "youtube#video",
			"id":   videoID,
			"snippet": map[string]any{
				"title":        title,
				"channelTitle": "Some Channel",
			},
			"statistics": map[string]any{
				"viewCount": "99",
			},
		}},
	})
}

// MockMissingVideo makes videos.list return no items.
func (m *MockYouTubeServer) MockMissingVideo() {
	m.respond("/youtube/v3/videos", map[string]any{
		"kind":  "youtube#videoListResponse",
		"items": []map[string]any{},
	})
}

// MockSearchResults makes search.list return the given video ids, in order.
func (m *MockYouTubeServer) MockSearchResults(videoIDs ...string) {
	items := make([]map[string]any, 0, len(videoIDs))
	for _, id := range videoIDs {
		items = append(items, map[string]any{
			"kind": "youtube#searchResult",
			"id":   map[string]any{"kind": "youtube#video", "videoId": id},
			"snippet": map[string]any{
				"title":        "live " + id,
				"channelTitle": "Some Channel",
			},
		})
	}
	m.respond("/youtube/v3/search", map[string]any{
		"kind":  "youtube#searchListResponse",
		"items": items,
	})
}
