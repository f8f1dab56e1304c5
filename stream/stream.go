// Package stream contains the relay lifecycle core: the coordinator that
// sequences metadata resolution, channel announcements, and persistence, and
// the SQL-backed lifecycle store that owns the live_streams bookkeeping.
package stream

import (
	"context"
	"time"
)

// Status is the lifecycle state of a relay record.
type Status string

const (
	StatusActive  Status = "active"
	StatusStopped Status = "stopped"
	// StatusPaused is reserved in the schema; nothing transitions into it yet.
	StatusPaused Status = "paused"
)

// Valid reports whether s is one of the known lifecycle states.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusPaused, StatusStopped:
		return true
	}
	return false
}

// Channel is a Telegram channel the bot account administers.
type Channel struct {
	ChannelID        int64  `json:"channel_id"`
	Name             string `json:"name"`
	Username         string `json:"username,omitempty"`
	ParticipantCount int    `json:"participant_count"`
	IsAdmin          bool   `json:"is_admin"`
}

// Record is one relay attempt for a channel. Rows are only ever inserted or
// updated, never deleted; a new relay gets a new row.
type Record struct {
	ID          int64     `json:"id"`
	ChannelID   int64     `json:"channel_id"`
	SourceURL   string    `json:"source_url"`
	Title       string    `json:"title"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at,omitempty"`
	ChannelName string    `json:"channel_name,omitempty"`
}

// Metadata is the resolved live-stream view of a YouTube video.
type Metadata struct {
	VideoID           string `json:"video_id"`
	Title             string `json:"title"`
	Description       string `json:"description"`
	ChannelTitle      string `json:"channel_title"`
	PublishedAt       string `json:"published_at,omitempty"`
	URL               string `json:"url"`
	IsLive            bool   `json:"is_live"`
	LiveStartTime     string `json:"live_start_time,omitempty"`
	LiveEndTime       string `json:"live_end_time,omitempty"`
	ConcurrentViewers uint64 `json:"concurrent_viewers,omitempty"`
	LiveChatID        string `json:"active_live_chat_id,omitempty"`
}

// Analytics is a fresh per-channel aggregate over all relay records.
type Analytics struct {
	ChannelID       int64          `json:"channel_id"`
	TotalStreams    int            `json:"total_streams"`
	ActiveStreams   int            `json:"active_streams"`
	StreamsByStatus map[string]int `json:"streams_by_status"`
}

// Store is the persistence boundary for relay lifecycle state. The coordinator
// holds no cached rows; every decision re-reads through this interface.
type Store interface {
	// ActiveStream returns the most recent active record for a channel, or nil.
	ActiveStream(ctx context.Context, channelID int64) (*Record, error)
	// InsertActive creates a new active record. It returns ErrAlreadyActive
	// when the one-active-per-channel constraint rejects the insert.
	InsertActive(ctx context.Context, channelID int64, sourceURL, title string) (*Record, error)
	// StopActive marks the active record for a channel stopped. It reports
	// whether a record was actually transitioned.
	StopActive(ctx context.Context, channelID int64) (bool, error)
	ActiveStreams(ctx context.Context) ([]Record, error)
	ChannelStreams(ctx context.Context, channelID int64) ([]Record, error)
	Analytics(ctx context.Context, channelID int64) (*Analytics, error)
	UpsertChannel(ctx context.Context, ch Channel) error
	Channels(ctx context.Context) ([]Channel, error)
}

// Resolver resolves a video URL into live metadata. Pure query.
type Resolver interface {
	ResolveLive(ctx context.Context, url string) (Metadata, error)
}

// Searcher finds currently-live videos matching a query, most viewed first.
type Searcher interface {
	SearchLive(ctx context.Context, query string, maxResults int64) ([]Metadata, error)
}

// MetadataSource combines the two read paths of the video capability.
type MetadataSource interface {
	Resolver
	Searcher
}

// Notifier delivers one message to a channel. Single attempt, no retry;
// implementations return an error wrapping ErrDeliveryFailed on any failure.
type Notifier interface {
	Send(ctx context.Context, channelID int64, text string) (int, error)
}
