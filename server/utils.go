package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/onnwee/live-relay/stream"
)

// parseIntQuery extracts an int parameter from query string with a default value.
func parseIntQuery(r *http.Request, key string, def int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

// parseInt64Query extracts an int64 parameter from query string with a default value.
func parseInt64Query(r *http.Request, key string, def int64) int64 {
	if v := r.URL.Query().Get(key); v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i
		}
	}
	return def
}

// writeJSON encodes v with the success envelope the frontend expects.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps an error from the lifecycle taxonomy onto an HTTP status
// and the {"error": ...} shape.
func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, errStatus(err), map[string]string{"error": err.Error()})
}

// errStatus maps lifecycle errors to HTTP statuses. Unknown errors are 500;
// their detail still goes to the client because this API is operator-facing.
func errStatus(err error) int {
	switch {
	case errors.Is(err, stream.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, stream.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, stream.ErrAlreadyActive):
		return http.StatusConflict
	case errors.Is(err, stream.ErrInvalidInput),
		errors.Is(err, stream.ErrInvalidURL),
		errors.Is(err, stream.ErrNotLive):
		return http.StatusBadRequest
	case errors.Is(err, stream.ErrUpstream),
		errors.Is(err, stream.ErrDeliveryFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
