package database

import (
	"time"
)

// Feed represents a subscription record in the database
type Feed struct {
	ID         string // UUID v7
	ConfigName string // YAML file name the subscription was declared in
	URL        string
	Title      string
	Disabled   bool
	Icon       string // data URL, empty when unknown
	SiteURL    string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Article is a persisted feed entry. (FeedID, EntryKey) is unique; ID is
// assigned on first insert and never changes.
type Article struct {
	ID          string
	FeedID      string
	EntryKey    string
	Title       string
	Content     string
	Link        *string
	PublishedAt time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// LogEntry records the outcome of one ingestion attempt. Entries are only
// ever appended.
type LogEntry struct {
	ID      string    `json:"id"`
	FeedID  string    `json:"feed_id"`
	Time    time.Time `json:"time"`
	Success bool      `json:"success"`
	Message string    `json:"message"`
}
