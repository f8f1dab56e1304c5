package stream

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// SQLStore is the lifecycle store over a shared *sql.DB handle. All statements
// are parameterized; the one-active-per-channel invariant lives in the schema
// as a partial unique index on (channel_id) WHERE status='active', so a racing
// second insert fails atomically instead of relying on the read-check alone.
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore wraps an open database handle. The store does not own the
// handle's lifecycle; main opens and closes it.
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) ActiveStream(ctx context.Context, channelID int64) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `
        SELECT id, channel_id, source_url, COALESCE(title,''), status, created_at, updated_at
        FROM live_streams
        WHERE channel_id=$1 AND status='active'
        ORDER BY created_at DESC
        LIMIT 1
    `, channelID)
	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query active stream: %w", err)
	}
	return rec, nil
}

func (s *SQLStore) InsertActive(ctx context.Context, channelID int64, sourceURL, title string) (*Record, error) {
	now := time.Now().UTC()
	rec := &Record{
		ChannelID: channelID,
		SourceURL: sourceURL,
		Title:     title,
		Status:    StatusActive,
		CreatedAt: now,
	}
	err := s.db.QueryRowContext(ctx, `
        INSERT INTO live_streams (channel_id, source_url, title, status, created_at)
        VALUES ($1, $2, $3, 'active', $4)
        RETURNING id
    `, channelID, sourceURL, title, now).Scan(&rec.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: channel %d", ErrAlreadyActive, channelID)
		}
		return nil, fmt.Errorf("insert active stream: %w", err)
	}
	return rec, nil
}

func (s *SQLStore) StopActive(ctx context.Context, channelID int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
        UPDATE live_streams
        SET status='stopped', updated_at=$1
        WHERE channel_id=$2 AND status='active'
    `, time.Now().UTC(), channelID)
	if err != nil {
		return false, fmt.Errorf("stop active stream: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("stop active stream: rows affected: %w", err)
	}
	return n > 0, nil
}

func (s *SQLStore) ActiveStreams(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT ls.id, ls.channel_id, ls.source_url, COALESCE(ls.title,''), ls.status,
               ls.created_at, ls.updated_at, c.name
        FROM live_streams ls
        JOIN channels c ON ls.channel_id = c.channel_id
        WHERE ls.status='active'
        ORDER BY ls.created_at DESC
    `)
	if err != nil {
		return nil, fmt.Errorf("query active streams: %w", err)
	}
	defer closeRows(rows)
	list := make([]Record, 0)
	for rows.Next() {
		var rec Record
		var updated sql.NullTime
		if err := rows.Scan(&rec.ID, &rec.ChannelID, &rec.SourceURL, &rec.Title, &rec.Status,
			&rec.CreatedAt, &updated, &rec.ChannelName); err != nil {
			return nil, fmt.Errorf("scan active stream: %w", err)
		}
		if updated.Valid {
			rec.UpdatedAt = updated.Time
		}
		list = append(list, rec)
	}
	return list, rows.Err()
}

func (s *SQLStore) ChannelStreams(ctx context.Context, channelID int64) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, channel_id, source_url, COALESCE(title,''), status, created_at, updated_at
        FROM live_streams
        WHERE channel_id=$1
        ORDER BY created_at DESC
    `, channelID)
	if err != nil {
		return nil, fmt.Errorf("query channel streams: %w", err)
	}
	defer closeRows(rows)
	list := make([]Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan channel stream: %w", err)
		}
		list = append(list, *rec)
	}
	return list, rows.Err()
}

// Analytics aggregates per-channel relay counts. Computed fresh on every call.
func (s *SQLStore) Analytics(ctx context.Context, channelID int64) (*Analytics, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT status, COUNT(*)
        FROM live_streams
        WHERE channel_id=$1
        GROUP BY status
    `, channelID)
	if err != nil {
		return nil, fmt.Errorf("query analytics: %w", err)
	}
	defer closeRows(rows)
	a := &Analytics{ChannelID: channelID, StreamsByStatus: make(map[string]int)}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan analytics: %w", err)
		}
		a.StreamsByStatus[status] = count
		a.TotalStreams += count
		if Status(status) == StatusActive {
			a.ActiveStreams = count
		}
	}
	return a, rows.Err()
}

func (s *SQLStore) UpsertChannel(ctx context.Context, ch Channel) error {
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO channels (channel_id, name, username, participant_count, is_admin)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (channel_id) DO UPDATE SET
            name=EXCLUDED.name,
            username=EXCLUDED.username,
            participant_count=EXCLUDED.participant_count,
            is_admin=EXCLUDED.is_admin,
            updated_at=CURRENT_TIMESTAMP
    `, ch.ChannelID, ch.Name, ch.Username, ch.ParticipantCount, ch.IsAdmin)
	if err != nil {
		return fmt.Errorf("upsert channel %d: %w", ch.ChannelID, err)
	}
	return nil
}

func (s *SQLStore) Channels(ctx context.Context) ([]Channel, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT channel_id, name, COALESCE(username,''), participant_count, is_admin
        FROM channels
        ORDER BY name
    `)
	if err != nil {
		return nil, fmt.Errorf("query channels: %w", err)
	}
	defer closeRows(rows)
	list := make([]Channel, 0)
	for rows.Next() {
		var ch Channel
		if err := rows.Scan(&ch.ChannelID, &ch.Name, &ch.Username, &ch.ParticipantCount, &ch.IsAdmin); err != nil {
			return nil, fmt.Errorf("scan channel: %w", err)
		}
		list = append(list, ch)
	}
	return list, rows.Err()
}

// IsKnownAdminChannel reports whether the channel is recorded as admin-held.
// The sync job owns upserts; this is the coordinator-facing read.
func (s *SQLStore) IsKnownAdminChannel(ctx context.Context, channelID int64) (bool, error) {
	var isAdmin bool
	err := s.db.QueryRowContext(ctx,
		`SELECT is_admin FROM channels WHERE channel_id=$1`, channelID).Scan(&isAdmin)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query channel admin flag: %w", err)
	}
	return isAdmin, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var rec Record
	var updated sql.NullTime
	if err := row.Scan(&rec.ID, &rec.ChannelID, &rec.SourceURL, &rec.Title, &rec.Status,
		&rec.CreatedAt, &updated); err != nil {
		return nil, err
	}
	if updated.Valid {
		rec.UpdatedAt = updated.Time
	}
	return &rec, nil
}

func closeRows(rows *sql.Rows) {
	if err := rows.Close(); err != nil {
		slog.Warn("failed to close rows", slog.Any("err", err))
	}
}
