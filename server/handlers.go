// Package server exposes the HTTP API: health, status, metrics, and the
// stream-control endpoints the dashboard frontend calls. It includes
// permissive CORS for development and injects correlation IDs into request
// contexts for consistent logging.
package server

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/onnwee/live-relay/config"
	"github.com/onnwee/live-relay/stream"
	"github.com/onnwee/live-relay/telegramapi"
	"github.com/onnwee/live-relay/youtubeapi"
)

const (
	// Maximum number of dashboard sessions to keep in memory
	maxSessions = 10000
)

// Handlers holds dependencies for all HTTP handlers. coord and tg are nil when
// the Telegram credentials are missing; handlers that need them return 503.
type Handlers struct {
	db        *sql.DB
	ctx       context.Context
	cfg       *config.Config
	store     *stream.SQLStore
	coord     *stream.Coordinator
	yt        *youtubeapi.Service
	tg        *telegramapi.Client
	sessions  map[string]time.Time
	sessionMu sync.RWMutex
}

// NewHandlers creates a new Handlers instance with the given dependencies.
func NewHandlers(ctx context.Context, db *sql.DB, cfg *config.Config, store *stream.SQLStore,
	coord *stream.Coordinator, yt *youtubeapi.Service, tg *telegramapi.Client) *Handlers {
	return &Handlers{
		db:       db,
		ctx:      ctx,
		cfg:      cfg,
		store:    store,
		coord:    coord,
		yt:       yt,
		tg:       tg,
		sessions: make(map[string]time.Time),
	}
}

// cleanExpiredSessions removes expired sessions from the store.
// This should be called with sessionMu locked.
func (h *Handlers) cleanExpiredSessions() {
	now := time.Now()
	for token, expiry := range h.sessions {
		if now.After(expiry) {
			delete(h.sessions, token)
		}
	}
}

// addSession records a new dashboard session token. Returns false when the
// store is full; refusing is better than unbounded growth.
func (h *Handlers) addSession(token string, expiry time.Time) bool {
	h.sessionMu.Lock()
	defer h.sessionMu.Unlock()

	if len(h.sessions)%100 == 0 {
		h.cleanExpiredSessions()
	}
	if len(h.sessions) >= maxSessions {
		return false
	}
	h.sessions[token] = expiry
	return true
}

// validSession reports whether token names a live session.
func (h *Handlers) validSession(token string) bool {
	if token == "" {
		return false
	}
	h.sessionMu.RLock()
	expiry, ok := h.sessions[token]
	h.sessionMu.RUnlock()
	return ok && time.Now().Before(expiry)
}

// dropSession forgets a session token (logout).
func (h *Handlers) dropSession(token string) {
	h.sessionMu.Lock()
	delete(h.sessions, token)
	h.sessionMu.Unlock()
}
