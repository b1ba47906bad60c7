package feed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const maxResourceSize = 20 << 20

// Fetcher performs single GET requests for feed documents and icons. There
// is no retry; every request carries the configured timeout.
type Fetcher struct {
	httpClient  *http.Client
	userAgent   string
	timeout     time.Duration
	maxSize     int64
	rateLimiter *HostRateLimiter
}

func NewFetcher(httpClient *http.Client, userAgent string, timeout time.Duration, rateLimiter *HostRateLimiter) *Fetcher {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Fetcher{
		httpClient:  httpClient,
		userAgent:   userAgent,
		timeout:     timeout,
		maxSize:     maxResourceSize,
		rateLimiter: rateLimiter,
	}
}

// Fetch returns the raw bytes of the document at url.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	res, err := f.FetchResource(ctx, url)
	if err != nil {
		return nil, err
	}
	return res.Data, nil
}

// FetchResource returns the body and Content-Type of url. Transport errors
// and non-2xx responses are reported as *FetchError.
func (f *Fetcher) FetchResource(ctx context.Context, url string) (*Resource, error) {
	if err := f.rateLimiter.WaitForHost(ctx, url); err != nil {
		return nil, &FetchError{URL: url, Err: fmt.Errorf("rate limiting failed: %w", err)}
	}

	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{URL: url, Err: fmt.Errorf("failed to create request: %w", err)}
	}

	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{URL: url, StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxSize+1))
	if err != nil {
		return nil, &FetchError{URL: url, Err: fmt.Errorf("failed to read response body: %w", err)}
	}
	if int64(len(data)) > f.maxSize {
		return nil, &FetchError{URL: url, Err: fmt.Errorf("response body exceeds %d bytes", f.maxSize)}
	}

	slog.Debug("Resource fetched", "url", url, "status", resp.StatusCode, "bytes", len(data))

	return &Resource{
		URL:         url,
		Data:        data,
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}
