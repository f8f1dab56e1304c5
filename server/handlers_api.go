package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/onnwee/live-relay/db"
	"github.com/onnwee/live-relay/stream"
	"github.com/onnwee/live-relay/telemetry"
)

// HandleLogin opens a dashboard session for a phone number and persists the
// session handle. The token is returned in the body and also set as a cookie
// so both the SPA and curl workflows work.
func (h *Handlers) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Phone string `json:"phone"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Phone == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "phone is required"})
		return
	}

	token := uuid.New().String()
	expiry := time.Now().Add(h.cfg.SessionTTL)
	if !h.addSession(token, expiry) {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "session store full"})
		return
	}
	if err := db.UpsertSession(r.Context(), h.db, req.Phone, token); err != nil {
		h.dropSession(token)
		writeError(w, fmt.Errorf("persist session: %w", err))
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiry,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	telemetry.LoggerWithCorr(r.Context()).Info("dashboard login", slog.String("component", "http"))
	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"token":      token,
		"expires_at": expiry.UTC(),
	})
}

// HandleLogout ends the caller's dashboard session.
func (h *Handlers) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.dropSession(sessionToken(r))
	http.SetCookie(w, &http.Cookie{
		Name:    sessionCookieName,
		Value:   "",
		Path:    "/",
		Expires: time.Unix(0, 0),
	})
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// HandleChannels lists the known channels from the registry.
func (h *Handlers) HandleChannels(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	channels, err := h.store.Channels(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "channels": channels})
}

// HandleStreams lists relays. Without channel_id it returns the in-progress
// relays; with channel_id it returns that channel's full history.
func (h *Handlers) HandleStreams(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	channelID := parseInt64Query(r, "channel_id", 0)
	if channelID != 0 {
		list, err := h.store.ChannelStreams(r.Context(), channelID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "streams": list})
		return
	}

	list, err := h.store.ActiveStreams(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	telemetry.SetActiveStreams(len(list))
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "streams": list})
}

// HandleStreamPreview resolves a YouTube URL to live metadata and statistics
// without starting anything.
func (h *Handlers) HandleStreamPreview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.yt == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "youtube capability not configured"})
		return
	}
	url := r.URL.Query().Get("url")
	if url == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "url is required"})
		return
	}

	md, err := h.yt.ResolveLive(r.Context(), url)
	if err != nil {
		writeError(w, err)
		return
	}
	stats, err := h.yt.Statistics(r.Context(), url)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"stream_info": md,
		"statistics":  stats,
	})
}

// HandleStartStream begins a relay. The caller must name a channel where the
// bot holds admin rights; the check fails closed when Telegram cannot confirm.
func (h *Handlers) HandleStartStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.coord == nil || h.tg == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "telegram capability not configured"})
		return
	}
	var req struct {
		ChannelID int64  `json:"channel_id"`
		URL       string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.ChannelID == 0 || req.URL == "" {
		writeError(w, fmt.Errorf("%w: channel id and youtube url are required", stream.ErrInvalidInput))
		return
	}

	// Registry fast path, live check otherwise. Neither confirming means no.
	known, err := h.store.IsKnownAdminChannel(r.Context(), req.ChannelID)
	if err != nil {
		writeError(w, err)
		return
	}
	if !known && !h.tg.IsAdmin(r.Context(), req.ChannelID) {
		writeError(w, fmt.Errorf("%w: bot is not an admin of channel %d", stream.ErrUnauthorized, req.ChannelID))
		return
	}

	res, err := h.coord.Start(r.Context(), req.ChannelID, req.URL)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"stream":      res.Record,
		"stream_info": res.Metadata,
		"message_id":  res.MessageID,
	})
}

// HandleStopStream ends the active relay for a channel. Stopping a channel
// with nothing active still succeeds.
func (h *Handlers) HandleStopStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.coord == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "telegram capability not configured"})
		return
	}
	var req struct {
		ChannelID int64 `json:"channel_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	res, err := h.coord.Stop(r.Context(), req.ChannelID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"stopped":    res.Stopped,
		"message_id": res.MessageID,
	})
}

// HandleSearchStreams finds currently-live videos for a query. When channel_id
// is present the most viewed result is relayed to that channel immediately.
func (h *Handlers) HandleSearchStreams(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.yt == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "youtube capability not configured"})
		return
	}
	var req struct {
		Query      string `json:"query"`
		ChannelID  int64  `json:"channel_id"`
		MaxResults int64  `json:"max_results"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Query == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "query is required"})
		return
	}

	if req.ChannelID != 0 {
		if h.coord == nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "telegram capability not configured"})
			return
		}
		res, err := h.coord.SearchAndStart(r.Context(), req.ChannelID, req.Query)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success":     true,
			"stream":      res.Record,
			"stream_info": res.Metadata,
			"message_id":  res.MessageID,
		})
		return
	}

	results, err := h.yt.SearchLive(r.Context(), req.Query, req.MaxResults)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "results": results})
}

// HandleAnalytics returns the per-channel relay aggregate, computed fresh.
func (h *Handlers) HandleAnalytics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	channelID := parseInt64Query(r, "channel_id", 0)
	if channelID == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "channel_id is required"})
		return
	}
	a, err := h.store.Analytics(r.Context(), channelID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "analytics": a})
}
