package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lysyi3m/feed-reader/app/database"
	"github.com/lysyi3m/feed-reader/app/feed"
)

// SyncFeedConfigTask writes a YAML subscription into the feeds table and
// hands the stored feed to onSynced.
type SyncFeedConfigTask struct {
	Task
	FeedConfig *feed.Config
	feedRepo   database.FeedRepository
	onSynced   func(f *database.Feed)
}

func NewSyncFeedConfigTask(feedConfig *feed.Config, feedRepo database.FeedRepository, onSynced func(f *database.Feed)) *SyncFeedConfigTask {
	return &SyncFeedConfigTask{
		Task:       NewTask(TaskTypeSyncFeedConfig, feedConfig.Name),
		FeedConfig: feedConfig,
		feedRepo:   feedRepo,
		onSynced:   onSynced,
	}
}

func (t *SyncFeedConfigTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	stored, err := t.feedRepo.UpsertFeedConfig(ctx, database.FeedConfig{
		Name:     t.FeedConfig.Name,
		URL:      t.FeedConfig.URL,
		Title:    t.FeedConfig.Title,
		SiteURL:  t.FeedConfig.SiteURL,
		Disabled: t.FeedConfig.Disabled,
	})
	if err != nil {
		return fmt.Errorf("failed to sync feed config to database: %w", err)
	}

	slog.Info("Task completed",
		"type", "SyncFeedConfig",
		"feed", t.FeedName,
		"id", stored.ID,
		"duration", t.GetDuration())

	if t.onSynced != nil {
		t.onSynced(stored)
	}

	return nil
}
