package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lysyi3m/feed-reader/app/database"
	"github.com/lysyi3m/feed-reader/app/feed"
	"github.com/robfig/cron/v3"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

const taskTimeout = 5 * time.Minute

type Scheduler struct {
	configCache *feed.ConfigCache
	coordinator FeedRefresher
	feedRepo    database.FeedRepository
	logRepo     database.LogRepository
	interval    time.Duration
	workerCount int
	cron        *cron.Cron
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	taskQueue   chan TaskInterface
}

func NewScheduler(configCache *feed.ConfigCache, coordinator FeedRefresher, feedRepo database.FeedRepository,
	logRepo database.LogRepository, interval time.Duration, workerCount int) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	if workerCount < 1 {
		workerCount = 1
	}

	return &Scheduler{
		configCache: configCache,
		coordinator: coordinator,
		feedRepo:    feedRepo,
		logRepo:     logRepo,
		interval:    interval,
		workerCount: workerCount,
		cron:        cron.New(cron.WithLocation(time.UTC)),
		ctx:         ctx,
		cancel:      cancel,
		taskQueue:   make(chan TaskInterface, 300),
	}
}

func (s *Scheduler) Start() {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	if _, err := s.cron.AddFunc("@every "+s.interval.String(), s.enqueueTasks); err != nil {
		slog.Error("Failed to schedule periodic refresh", "interval", s.interval.String(), "error", err)
	} else {
		s.cron.Start()
	}

	s.enqueueStartupTasks()
}

func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.cancel()
	s.wg.Wait()
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	if err := s.ctx.Err(); err != nil {
		return err
	}

	select {
	case s.taskQueue <- task:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
		return fmt.Errorf("task queue is full")
	}
}

// enqueueStartupTasks syncs every subscription file; each synced feed is
// refreshed right away if it is due.
func (s *Scheduler) enqueueStartupTasks() {
	feedConfigs := s.configCache.GetConfigs()
	if len(feedConfigs) == 0 {
		slog.Debug("No feed configurations found")
		return
	}

	slog.Debug("Processing feed configurations", "count", len(feedConfigs))

	for _, feedConfig := range feedConfigs {
		syncTask := NewSyncFeedConfigTask(feedConfig, s.feedRepo, s.enqueueIfDue)
		if err := s.EnqueueTask(syncTask); err != nil {
			slog.Warn("Failed to enqueue SyncFeedConfigTask", "feed", feedConfig.Name, "error", err)
		}
	}
}

func (s *Scheduler) enqueueTasks() {
	feeds, err := s.feedRepo.ListEnabledFeeds(s.ctx)
	if err != nil {
		slog.Error("Failed to list feeds for scheduled refresh", "error", err)
		return
	}

	slog.Debug("Scheduling refresh for enabled feeds", "count", len(feeds))

	for i := range feeds {
		s.enqueueIfDue(&feeds[i])
	}
}

func (s *Scheduler) enqueueIfDue(f *database.Feed) {
	if f.Disabled {
		slog.Debug("Feed disabled, skipping RefreshFeedTask", "feed", f.ConfigName)
		return
	}

	due, err := s.isDue(s.ctx, f)
	if err != nil {
		slog.Warn("Failed to check last refresh, refreshing anyway", "feed", f.ConfigName, "error", err)
	} else if !due {
		slog.Debug("Feed not due for refresh yet", "feed", f.ConfigName)
		return
	}

	if err := s.EnqueueTask(NewRefreshFeedTask(*f, s.coordinator)); err != nil {
		slog.Warn("Failed to enqueue RefreshFeedTask", "feed", f.ConfigName, "error", err)
	}
}

// isDue reports whether the feed has had no successful refresh within the
// interval, less a tenth of slack for cron jitter.
func (s *Scheduler) isDue(ctx context.Context, f *database.Feed) (bool, error) {
	last, err := s.logRepo.LastSuccess(ctx, f.ID)
	if err != nil {
		return false, err
	}
	if last == nil {
		return true, nil
	}
	return time.Since(*last) >= s.interval-s.interval/10, nil
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task := <-s.taskQueue:
			s.executeTask(id, task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, taskTimeout)
	defer cancel()

	err := task.Execute(taskCtx)
	if err == nil {
		return
	}

	slog.Error("Worker task execution failed", "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", err)

	if !task.CanRetry() {
		slog.Error("Task failed after maximum retries", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "last_error", err)
		return
	}

	task.IncrementRetryCount()
	delay := retryDelay(task.GetRetryCount())

	slog.Warn("Task retry scheduled", "type", string(task.GetType()), "feed", task.GetFeedName(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "delay", delay.String())

	go func() {
		select {
		case <-s.ctx.Done():
			slog.Debug("Scheduler stopped, skipping task retry", "type", string(task.GetType()), "id", task.GetID())
		case <-time.After(delay):
			if retryErr := s.EnqueueTask(task); retryErr != nil {
				slog.Error("Failed to re-enqueue task for retry", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", retryErr)
			}
		}
	}()
}
