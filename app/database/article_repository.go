package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var _ ArticleRepository = (*SQLArticleRepository)(nil)

type SQLArticleRepository struct {
	db *DB
}

func NewArticleRepository(db *DB) *SQLArticleRepository {
	return &SQLArticleRepository{db: db}
}

func (r *SQLArticleRepository) UpsertArticle(ctx context.Context, article *Article) (bool, error) {
	newID, err := uuid.NewV7()
	if err != nil {
		return false, fmt.Errorf("failed to generate article id: %w", err)
	}
	now := formatTime(time.Now().UTC())

	var link sql.NullString
	if article.Link != nil {
		link = sql.NullString{String: *article.Link, Valid: true}
	}

	var storedID string
	err = r.db.QueryRowContext(ctx, `
		INSERT INTO articles (id, feed_id, entry_key, title, content, link, published_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (feed_id, entry_key) DO UPDATE SET
			title = excluded.title,
			content = excluded.content,
			link = excluded.link,
			published_at = excluded.published_at,
			updated_at = excluded.updated_at
		RETURNING id
	`, newID.String(), article.FeedID, article.EntryKey, article.Title, article.Content, link,
		formatTime(article.PublishedAt), now, now).Scan(&storedID)
	if err != nil {
		return false, fmt.Errorf("failed to upsert article: %w", err)
	}

	article.ID = storedID
	return storedID == newID.String(), nil
}

// ListArticles returns the newest articles of a feed by publish instant.
func (r *SQLArticleRepository) ListArticles(ctx context.Context, feedID string, limit int) ([]Article, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, feed_id, entry_key, title, content, link, published_at, created_at, updated_at
		FROM articles
		WHERE feed_id = ?
		ORDER BY julianday(published_at) DESC, id DESC
		LIMIT ?
	`, feedID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list articles: %w", err)
	}
	defer rows.Close()

	articles := []Article{}
	for rows.Next() {
		var article Article
		var link sql.NullString
		var publishedAt, createdAt, updatedAt string

		err := rows.Scan(&article.ID, &article.FeedID, &article.EntryKey, &article.Title, &article.Content,
			&link, &publishedAt, &createdAt, &updatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan article row: %w", err)
		}

		if link.Valid {
			article.Link = &link.String
		}
		if article.PublishedAt, err = parseTime(publishedAt); err != nil {
			return nil, err
		}
		if article.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		if article.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return nil, err
		}

		articles = append(articles, article)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating article rows: %w", err)
	}

	return articles, nil
}

func (r *SQLArticleRepository) GetArticleCount(ctx context.Context, feedID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM articles WHERE feed_id = ?", feedID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get article count: %w", err)
	}
	return count, nil
}
