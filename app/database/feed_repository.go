package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var _ FeedRepository = (*SQLFeedRepository)(nil)

type SQLFeedRepository struct {
	db *DB
}

func NewFeedRepository(db *DB) *SQLFeedRepository {
	return &SQLFeedRepository{db: db}
}

const feedColumns = `id, config_name, url, title, disabled, COALESCE(icon, ''), COALESCE(site_url, ''), created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFeed(row rowScanner) (*Feed, error) {
	var feed Feed
	var createdAt, updatedAt string

	err := row.Scan(&feed.ID, &feed.ConfigName, &feed.URL, &feed.Title, &feed.Disabled,
		&feed.Icon, &feed.SiteURL, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	if feed.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if feed.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}

	return &feed, nil
}

func (r *SQLFeedRepository) GetFeed(ctx context.Context, id string) (*Feed, error) {
	feed, err := scanFeed(r.db.QueryRowContext(ctx,
		`SELECT `+feedColumns+` FROM feeds WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get feed: %w", err)
	}
	return feed, nil
}

func (r *SQLFeedRepository) GetFeedByConfigName(ctx context.Context, name string) (*Feed, error) {
	feed, err := scanFeed(r.db.QueryRowContext(ctx,
		`SELECT `+feedColumns+` FROM feeds WHERE config_name = ?`, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get feed by config name: %w", err)
	}
	return feed, nil
}

func (r *SQLFeedRepository) ListFeeds(ctx context.Context) ([]Feed, error) {
	return r.listFeeds(ctx, `SELECT `+feedColumns+` FROM feeds ORDER BY config_name`)
}

func (r *SQLFeedRepository) ListEnabledFeeds(ctx context.Context) ([]Feed, error) {
	return r.listFeeds(ctx, `SELECT `+feedColumns+` FROM feeds WHERE disabled = 0 ORDER BY config_name`)
}

func (r *SQLFeedRepository) listFeeds(ctx context.Context, query string) ([]Feed, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list feeds: %w", err)
	}
	defer rows.Close()

	feeds := []Feed{}
	for rows.Next() {
		feed, err := scanFeed(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan feed row: %w", err)
		}
		feeds = append(feeds, *feed)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating feed rows: %w", err)
	}

	return feeds, nil
}

func (r *SQLFeedRepository) GetFeedCount(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM feeds").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get feed count: %w", err)
	}
	return count, nil
}

// UpsertFeedConfig creates or updates the feed declared by a subscription
// file. An empty title or site URL in the file keeps the stored value.
func (r *SQLFeedRepository) UpsertFeedConfig(ctx context.Context, cfg FeedConfig) (*Feed, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate feed id: %w", err)
	}
	now := formatTime(time.Now().UTC())

	feed, err := scanFeed(r.db.QueryRowContext(ctx, `
		INSERT INTO feeds (id, config_name, url, title, disabled, site_url, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, NULLIF(?, ''), ?, ?)
		ON CONFLICT (config_name) DO UPDATE SET
			url = excluded.url,
			title = CASE WHEN excluded.title != '' THEN excluded.title ELSE feeds.title END,
			site_url = COALESCE(excluded.site_url, feeds.site_url),
			disabled = excluded.disabled,
			updated_at = excluded.updated_at
		RETURNING `+feedColumns,
		id.String(), cfg.Name, cfg.URL, cfg.Title, cfg.Disabled, cfg.SiteURL, now, now))
	if err != nil {
		return nil, fmt.Errorf("failed to upsert feed: %w", err)
	}

	return feed, nil
}

func (r *SQLFeedRepository) UpdateIcon(ctx context.Context, id string, icon string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE feeds
		SET icon = ?, updated_at = ?
		WHERE id = ?
	`, icon, formatTime(time.Now().UTC()), id)

	if err != nil {
		return fmt.Errorf("failed to update feed icon: %w", err)
	}

	return nil
}

// UpdateMetadata stores what ingestion learned about the feed: the site URL
// when the document declares one, and the title when none is set yet.
func (r *SQLFeedRepository) UpdateMetadata(ctx context.Context, id string, title string, siteURL string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE feeds
		SET title = CASE WHEN title = '' THEN ? ELSE title END,
		    site_url = COALESCE(NULLIF(?, ''), site_url),
		    updated_at = ?
		WHERE id = ?
	`, title, siteURL, formatTime(time.Now().UTC()), id)

	if err != nil {
		return fmt.Errorf("failed to update feed metadata: %w", err)
	}

	return nil
}
