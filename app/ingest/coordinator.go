package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/lysyi3m/feed-reader/app/database"
	"github.com/lysyi3m/feed-reader/app/feed"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

type documentFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

type documentParser interface {
	Run(data []byte) (*feed.Document, error)
}

type contentNormalizer interface {
	Normalize(content string, baseURL string) (string, error)
}

type iconResolver interface {
	Resolve(ctx context.Context, doc *feed.Document, siteLink string) (string, error)
}

// Coordinator runs ingestion for feeds: fetch, parse, icon update and the
// entry loop, followed by exactly one appended log entry per run.
type Coordinator struct {
	fetcher     documentFetcher
	parser      documentParser
	normalizer  contentNormalizer
	icons       iconResolver
	dates       *feed.DateResolver
	feedRepo    database.FeedRepository
	articleRepo database.ArticleRepository
	logRepo     database.LogRepository
	concurrency int

	// Concurrent refreshes of one feed share a single run
	runs    singleflight.Group
	mu      sync.Mutex
	flights map[string]*flight
}

// flight is the context of a shared run. It is cancelled once every caller
// waiting on the run has gone away.
type flight struct {
	ctx     context.Context
	cancel  context.CancelFunc
	waiters int
}

func NewCoordinator(fetcher documentFetcher, parser documentParser, normalizer contentNormalizer,
	icons iconResolver, dates *feed.DateResolver, feedRepo database.FeedRepository,
	articleRepo database.ArticleRepository, logRepo database.LogRepository, concurrency int) *Coordinator {
	if concurrency < 1 {
		concurrency = 1
	}
	if dates == nil {
		dates = feed.NewDateResolver(nil)
	}

	return &Coordinator{
		fetcher:     fetcher,
		parser:      parser,
		normalizer:  normalizer,
		icons:       icons,
		dates:       dates,
		feedRepo:    feedRepo,
		articleRepo: articleRepo,
		logRepo:     logRepo,
		concurrency: concurrency,
		flights:     make(map[string]*flight),
	}
}

// RefreshFeed ingests one feed and returns the log entry it appended. Fetch
// and parse failures are reported through the entry, not the error. The
// error is non-nil when the log entry could not be written, or when ctx ends
// while other callers keep the shared run going.
func (c *Coordinator) RefreshFeed(ctx context.Context, f database.Feed) (*database.LogEntry, error) {
	fl := c.join(ctx, f.ID)

	ch := c.runs.DoChan(f.ID, func() (any, error) {
		return c.refresh(fl.ctx, f)
	})

	var res singleflight.Result
	select {
	case res = <-ch:
		c.leave(f.ID, fl)
	case <-ctx.Done():
		if !c.leave(f.ID, fl) {
			return nil, ctx.Err()
		}
		// Last caller out: the run is cancelled and still writes its entry
		res = <-ch
	}

	if res.Shared {
		slog.Debug("Joined in-flight refresh", "feed", f.ConfigName)
	}
	if res.Err != nil {
		return nil, res.Err
	}

	entry := *res.Val.(*database.LogEntry)
	return &entry, nil
}

func (c *Coordinator) join(ctx context.Context, feedID string) *flight {
	c.mu.Lock()
	defer c.mu.Unlock()

	fl := c.flights[feedID]
	if fl == nil || fl.ctx.Err() != nil {
		runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		fl = &flight{ctx: runCtx, cancel: cancel}
		c.flights[feedID] = fl
		if ctx.Err() != nil {
			cancel()
		}
	}
	fl.waiters++
	return fl
}

// leave reports whether the caller was the last one waiting on fl.
func (c *Coordinator) leave(feedID string, fl *flight) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	fl.waiters--
	if fl.waiters > 0 {
		return false
	}
	fl.cancel()
	if c.flights[feedID] == fl {
		delete(c.flights, feedID)
	}
	return true
}

// RefreshAllFeeds refreshes every enabled feed, at most concurrency at a
// time. One feed failing never stops the others.
func (c *Coordinator) RefreshAllFeeds(ctx context.Context) error {
	feeds, err := c.feedRepo.ListEnabledFeeds(ctx)
	if err != nil {
		return fmt.Errorf("failed to list feeds: %w", err)
	}

	var g errgroup.Group
	g.SetLimit(c.concurrency)

	for _, f := range feeds {
		if ctx.Err() != nil {
			slog.Warn("Refresh of all feeds interrupted", "error", ctx.Err())
			break
		}

		g.Go(func() error {
			entry, err := c.RefreshFeed(ctx, f)
			if err != nil {
				slog.Error("Feed refresh failed", "feed", f.ConfigName, "error", err)
				return nil
			}
			if !entry.Success {
				slog.Warn("Feed refresh unsuccessful", "feed", f.ConfigName, "message", entry.Message)
			}
			return nil
		})
	}

	return g.Wait()
}

func (c *Coordinator) refresh(ctx context.Context, f database.Feed) (*database.LogEntry, error) {
	start := time.Now()

	data, err := c.fetcher.Fetch(ctx, f.URL)
	if err != nil {
		return c.fail(ctx, f, start, err)
	}

	doc, err := c.parser.Run(data)
	if err != nil {
		return c.fail(ctx, f, start, err)
	}

	var errs errorList

	siteLink := absoluteURL(f.URL, doc.SiteLink)
	if siteLink == "" {
		siteLink = f.SiteURL
	}

	icon, err := c.icons.Resolve(ctx, doc, siteLink)
	if err != nil {
		errs.add("error getting icon: %v", err)
	} else if icon != "" {
		if err := c.feedRepo.UpdateIcon(ctx, f.ID, icon); err != nil {
			errs.add("error updating icon: %v", err)
		}
	}

	if err := c.feedRepo.UpdateMetadata(ctx, f.ID, doc.Title, absoluteURL(f.URL, doc.SiteLink)); err != nil {
		errs.add("error updating feed metadata: %v", err)
	}

	inserted, updated := 0, 0
	for i, entry := range doc.Entries {
		if err := ctx.Err(); err != nil {
			errs.add("refresh interrupted after %d of %d entries: %v", i, len(doc.Entries), err)
			break
		}

		isNew, err := c.ingestEntry(ctx, f, siteLink, entry)
		if err != nil {
			slog.Warn("Entry ingestion failed", "feed", f.ConfigName, "entry", i+1, "title", entry.Title, "error", err)
			errs.add("error processing entry %d (%s): %v", i+1, entry.Title, err)
			continue
		}

		if isNew {
			inserted++
		} else {
			updated++
		}
	}

	logEntry := &database.LogEntry{
		FeedID:  f.ID,
		Success: true,
		Message: errs.String(),
	}
	// The outcome is recorded even when the run was cancelled
	if err := c.logRepo.AppendLog(context.WithoutCancel(ctx), logEntry); err != nil {
		return nil, fmt.Errorf("failed to write feed log: %w", err)
	}

	recordRun("success", time.Since(start).Seconds())
	recordArticles(inserted, updated, len(errs))

	slog.Info("Feed refreshed",
		"feed", f.ConfigName,
		"duration", time.Since(start),
		"total", len(doc.Entries),
		"inserted", inserted,
		"updated", updated,
		"errors", len(errs))

	return logEntry, nil
}

func (c *Coordinator) fail(ctx context.Context, f database.Feed, start time.Time, cause error) (*database.LogEntry, error) {
	detail := cause.Error()
	var parseErr *feed.ParseError
	if errors.As(cause, &parseErr) {
		detail = parseErr.Detail()
	}
	slog.Error("Feed refresh failed", "feed", f.ConfigName, "url", f.URL, "error", detail)

	logEntry := &database.LogEntry{
		FeedID:  f.ID,
		Success: false,
		Message: cause.Error(),
	}
	if err := c.logRepo.AppendLog(context.WithoutCancel(ctx), logEntry); err != nil {
		return nil, fmt.Errorf("failed to write feed log: %w", err)
	}

	recordRun("failure", time.Since(start).Seconds())

	return logEntry, nil
}

func (c *Coordinator) ingestEntry(ctx context.Context, f database.Feed, siteLink string, entry feed.Entry) (isNew bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	var link *string
	if resolved := absoluteURL(f.URL, entry.Link); resolved != "" {
		link = &resolved
		entry.Link = resolved
	} else {
		entry.Link = ""
	}

	base := f.URL
	switch {
	case link != nil:
		base = *link
	case siteLink != "":
		base = siteLink
	}

	content, err := c.normalizer.Normalize(entry.Body(), base)
	if err != nil {
		return false, fmt.Errorf("failed to normalize content: %w", err)
	}

	article := &database.Article{
		FeedID:      f.ID,
		EntryKey:    feed.EntryKey(entry),
		Title:       entry.Title,
		Content:     content,
		Link:        link,
		PublishedAt: c.dates.Resolve(entry.PublishedRaw, entry.PublishedParsed),
	}

	return c.articleRepo.UpsertArticle(ctx, article)
}

// absoluteURL resolves ref against base and returns it only when the result
// is an absolute http(s) URL.
func absoluteURL(base, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}

	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}

	if !u.IsAbs() {
		b, err := url.Parse(base)
		if err != nil || !b.IsAbs() {
			return ""
		}
		u = b.ResolveReference(u)
	}

	if u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return ""
	}
	return u.String()
}

// errorList collects the non-fatal failures of one run.
type errorList []string

func (l *errorList) add(format string, args ...any) {
	*l = append(*l, fmt.Sprintf(format, args...))
}

func (l errorList) String() string {
	return strings.Join(l, "\n")
}
