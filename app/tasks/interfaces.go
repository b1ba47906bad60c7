package tasks

import (
	"context"

	"github.com/lysyi3m/feed-reader/app/database"
)

// TaskSchedulerInterface defines the interface for task scheduling operations.
// Example usage:
//
//	scheduler := NewScheduler(configCache, coordinator, feedRepo, logRepo, interval, workers)
//	scheduler.Start()
//	defer scheduler.Stop()
//	scheduler.EnqueueTask(NewRefreshFeedTask(feed, coordinator))
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
}

// FeedRefresher runs one ingestion pass for a feed.
type FeedRefresher interface {
	RefreshFeed(ctx context.Context, f database.Feed) (*database.LogEntry, error)
}
