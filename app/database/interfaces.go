package database

import (
	"context"
	"time"
)

// FeedConfig carries the fields of a YAML subscription that are synced into
// the feeds table.
type FeedConfig struct {
	Name     string
	URL      string
	Title    string
	SiteURL  string
	Disabled bool
}

type FeedRepository interface {
	GetFeed(ctx context.Context, id string) (*Feed, error)
	GetFeedByConfigName(ctx context.Context, name string) (*Feed, error)
	ListFeeds(ctx context.Context) ([]Feed, error)
	ListEnabledFeeds(ctx context.Context) ([]Feed, error)
	GetFeedCount(ctx context.Context) (int, error)

	UpsertFeedConfig(ctx context.Context, cfg FeedConfig) (*Feed, error)
	UpdateIcon(ctx context.Context, id string, icon string) error
	UpdateMetadata(ctx context.Context, id string, title string, siteURL string) error
}

type ArticleRepository interface {
	// UpsertArticle inserts the article or updates the row with the same
	// (FeedID, EntryKey). ID is set to the stored row's identity.
	UpsertArticle(ctx context.Context, article *Article) (inserted bool, err error)
	ListArticles(ctx context.Context, feedID string, limit int) ([]Article, error)
	GetArticleCount(ctx context.Context, feedID string) (int, error)
}

type LogRepository interface {
	AppendLog(ctx context.Context, entry *LogEntry) error
	ListLogs(ctx context.Context, feedID string, limit int) ([]LogEntry, error)
	LastSuccess(ctx context.Context, feedID string) (*time.Time, error)
}
