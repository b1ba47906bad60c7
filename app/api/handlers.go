package api

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lysyi3m/feed-reader/app/database"
	"github.com/lysyi3m/feed-reader/app/feed"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

func NewHandler(configCache *feed.ConfigCache, feedRepo database.FeedRepository,
	articleRepo database.ArticleRepository, logRepo database.LogRepository, refresher Refresher) *Handler {
	ctx, cancel := context.WithCancel(context.Background())

	return &Handler{
		feedRepo:    feedRepo,
		articleRepo: articleRepo,
		logRepo:     logRepo,
		configCache: configCache,
		refresher:   refresher,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Close cancels background refreshes and waits for them to finish.
func (h *Handler) Close() {
	h.cancel()
	h.wg.Wait()
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if feedCount, err := h.feedRepo.GetFeedCount(c.Request.Context()); err == nil {
		health["feeds"] = feedCount
	}

	health["loaded_configurations"] = h.configCache.GetConfigCount()

	c.JSON(http.StatusOK, health)
}

func (h *Handler) APIListFeeds(c *gin.Context) {
	ctx := c.Request.Context()

	feeds, err := h.feedRepo.ListFeeds(ctx)
	if err != nil {
		slog.Error("Database error", "operation", "list_feeds", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	result := make([]feedResponse, 0, len(feeds))
	for _, f := range feeds {
		info := feedResponse{
			ID:        f.ID,
			Name:      f.ConfigName,
			URL:       f.URL,
			Title:     f.Title,
			SiteURL:   f.SiteURL,
			Icon:      f.Icon,
			Disabled:  f.Disabled,
			UpdatedAt: f.UpdatedAt,
		}

		if count, err := h.articleRepo.GetArticleCount(ctx, f.ID); err == nil {
			info.ArticleCount = count
		}
		if last, err := h.logRepo.LastSuccess(ctx, f.ID); err == nil {
			info.LastSuccess = last
		}

		result = append(result, info)
	}

	c.JSON(http.StatusOK, gin.H{
		"feeds": result,
		"total": len(result),
	})
}

func (h *Handler) APIListArticles(c *gin.Context) {
	f, ok := h.lookupFeed(c)
	if !ok {
		return
	}

	articles, err := h.articleRepo.ListArticles(c.Request.Context(), f.ID, listLimit(c))
	if err != nil {
		slog.Error("Database error", "operation", "list_articles", "feed", f.ConfigName, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	result := make([]articleResponse, 0, len(articles))
	for _, a := range articles {
		result = append(result, articleResponse{
			ID:          a.ID,
			EntryKey:    a.EntryKey,
			Title:       a.Title,
			Content:     a.Content,
			Link:        a.Link,
			PublishedAt: a.PublishedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"articles": result,
		"total":    len(result),
	})
}

func (h *Handler) APIListLogs(c *gin.Context) {
	f, ok := h.lookupFeed(c)
	if !ok {
		return
	}

	logs, err := h.logRepo.ListLogs(c.Request.Context(), f.ID, listLimit(c))
	if err != nil {
		slog.Error("Database error", "operation", "list_logs", "feed", f.ConfigName, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"logs":  logs,
		"total": len(logs),
	})
}

// APIRefreshFeed runs ingestion for one feed and returns the log entry it
// produced. A failed run is still a 200; the entry says what went wrong.
func (h *Handler) APIRefreshFeed(c *gin.Context) {
	f, ok := h.lookupFeed(c)
	if !ok {
		return
	}

	entry, err := h.refresher.RefreshFeed(c.Request.Context(), *f)
	if err != nil {
		slog.Error("Feed refresh failed", "feed", f.ConfigName, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Refresh failed"})
		return
	}

	c.JSON(http.StatusOK, entry)
}

// APIRefreshAllFeeds starts a refresh of every enabled feed in the
// background and returns immediately. Close stops it.
func (h *Handler) APIRefreshAllFeeds(c *gin.Context) {
	if h.ctx.Err() != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Shutting down"})
		return
	}

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()

		start := time.Now()
		if err := h.refresher.RefreshAllFeeds(h.ctx); err != nil {
			slog.Error("Refresh of all feeds failed", "error", err)
			return
		}
		slog.Info("Refresh of all feeds completed", "duration", time.Since(start))
	}()

	c.JSON(http.StatusAccepted, gin.H{"status": "refresh started"})
}

func (h *Handler) lookupFeed(c *gin.Context) (*database.Feed, bool) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing feed id parameter"})
		return nil, false
	}

	f, err := h.feedRepo.GetFeed(c.Request.Context(), id)
	if err != nil {
		slog.Error("Database error", "operation", "get_feed", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return nil, false
	}

	if f == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Feed not found"})
		return nil, false
	}

	return f, true
}

func listLimit(c *gin.Context) int {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultListLimit)))
	if err != nil || limit < 1 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}
