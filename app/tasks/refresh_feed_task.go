package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lysyi3m/feed-reader/app/database"
)

// RefreshFeedTask runs the coordinator for one feed. An unsuccessful run is
// already recorded in the feed log and is not retried; only a failure to
// record the outcome is.
type RefreshFeedTask struct {
	Task
	Feed        database.Feed
	coordinator FeedRefresher
}

func NewRefreshFeedTask(f database.Feed, coordinator FeedRefresher) *RefreshFeedTask {
	return &RefreshFeedTask{
		Task:        NewTask(TaskTypeRefreshFeed, f.ConfigName),
		Feed:        f,
		coordinator: coordinator,
	}
}

func (t *RefreshFeedTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	entry, err := t.coordinator.RefreshFeed(ctx, t.Feed)
	if err != nil {
		return fmt.Errorf("failed to refresh feed: %w", err)
	}

	slog.Info("Task completed",
		"type", "RefreshFeed",
		"feed", t.FeedName,
		"duration", t.GetDuration(),
		"success", entry.Success)

	return nil
}
