package api

import (
	"context"
	"sync"
	"time"

	"github.com/lysyi3m/feed-reader/app/database"
	"github.com/lysyi3m/feed-reader/app/feed"
	"github.com/lysyi3m/feed-reader/app/ingest"
)

// Refresher is the ingestion core as seen by the API.
type Refresher interface {
	RefreshFeed(ctx context.Context, f database.Feed) (*database.LogEntry, error)
	RefreshAllFeeds(ctx context.Context) error
}

var _ Refresher = (*ingest.Coordinator)(nil)

type Handler struct {
	feedRepo    database.FeedRepository
	articleRepo database.ArticleRepository
	logRepo     database.LogRepository
	configCache *feed.ConfigCache
	refresher   Refresher

	// Background refreshes started by the API
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type feedResponse struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	URL          string     `json:"url"`
	Title        string     `json:"title"`
	SiteURL      string     `json:"site_url,omitempty"`
	Icon         string     `json:"icon,omitempty"`
	Disabled     bool       `json:"disabled"`
	ArticleCount int        `json:"article_count"`
	LastSuccess  *time.Time `json:"last_success,omitempty"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

type articleResponse struct {
	ID          string    `json:"id"`
	EntryKey    string    `json:"entry_key"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	Link        *string   `json:"link,omitempty"`
	PublishedAt time.Time `json:"published_at"`
}
