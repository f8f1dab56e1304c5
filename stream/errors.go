package stream

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// Failure taxonomy for coordinator and capability operations. Callers match
// with errors.Is; wrapped messages carry the upstream detail for diagnostics.
var (
	// ErrInvalidInput marks missing or malformed caller-supplied fields.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidURL marks a video URL that matches none of the accepted shapes.
	ErrInvalidURL = errors.New("invalid youtube url")
	// ErrNotFound marks a video id (or search) with no matching upstream video.
	ErrNotFound = errors.New("not found")
	// ErrNotLive marks a resolved video that is not currently live.
	ErrNotLive = errors.New("not a live stream")
	// ErrAlreadyActive marks a channel that already has an active relay.
	ErrAlreadyActive = errors.New("channel already has an active live stream")
	// ErrDeliveryFailed marks a failed announcement send.
	ErrDeliveryFailed = errors.New("announcement delivery failed")
	// ErrUpstream marks a transport or quota failure from an external capability.
	ErrUpstream = errors.New("upstream error")
	// ErrUnauthorized marks a caller without admin capability on the channel.
	ErrUnauthorized = errors.New("unauthorized")
)

// isUniqueViolation reports whether err is a uniqueness-constraint rejection.
// Postgres surfaces SQLSTATE 23505 through pgconn; the sqlite driver used in
// unit tests only exposes the message text.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}
