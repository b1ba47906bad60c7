package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var _ LogRepository = (*SQLLogRepository)(nil)

type SQLLogRepository struct {
	db *DB
}

func NewLogRepository(db *DB) *SQLLogRepository {
	return &SQLLogRepository{db: db}
}

// AppendLog stores entry, filling in ID and Time when unset.
func (r *SQLLogRepository) AppendLog(ctx context.Context, entry *LogEntry) error {
	if entry.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate log id: %w", err)
		}
		entry.ID = id.String()
	}
	if entry.Time.IsZero() {
		entry.Time = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO feed_logs (id, feed_id, time, success, message)
		VALUES (?, ?, ?, ?, ?)
	`, entry.ID, entry.FeedID, formatTime(entry.Time.UTC()), entry.Success, entry.Message)

	if err != nil {
		return fmt.Errorf("failed to append feed log: %w", err)
	}

	return nil
}

// ListLogs returns the latest entries for a feed, newest first.
func (r *SQLLogRepository) ListLogs(ctx context.Context, feedID string, limit int) ([]LogEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, feed_id, time, success, COALESCE(message, '')
		FROM feed_logs
		WHERE feed_id = ?
		ORDER BY time DESC, id DESC
		LIMIT ?
	`, feedID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list feed logs: %w", err)
	}
	defer rows.Close()

	entries := []LogEntry{}
	for rows.Next() {
		var entry LogEntry
		var at string

		if err := rows.Scan(&entry.ID, &entry.FeedID, &at, &entry.Success, &entry.Message); err != nil {
			return nil, fmt.Errorf("failed to scan feed log row: %w", err)
		}
		if entry.Time, err = parseTime(at); err != nil {
			return nil, err
		}

		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating feed log rows: %w", err)
	}

	return entries, nil
}

// LastSuccess returns the time of the newest successful run, or nil.
func (r *SQLLogRepository) LastSuccess(ctx context.Context, feedID string) (*time.Time, error) {
	var at string
	err := r.db.QueryRowContext(ctx, `
		SELECT time FROM feed_logs
		WHERE feed_id = ? AND success = 1
		ORDER BY time DESC
		LIMIT 1
	`, feedID).Scan(&at)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get last successful run: %w", err)
	}

	t, err := parseTime(at)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
