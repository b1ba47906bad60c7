package feed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestFetchReturnsBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); ua != "test-agent" {
			t.Errorf("Expected User-Agent 'test-agent', got: %s", ua)
		}
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte("<rss/>"))
	}))
	defer server.Close()

	data, err := newTestFetcher().Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if string(data) != "<rss/>" {
		t.Errorf("Expected body '<rss/>', got: %s", data)
	}
}

func TestFetchNon2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := newTestFetcher().Fetch(context.Background(), server.URL)

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("Expected *FetchError, got: %v", err)
	}
	if fetchErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got: %d", fetchErr.StatusCode)
	}
}

func TestFetchBodyLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("0123456789"))
	}))
	defer server.Close()

	fetcher := newTestFetcher()
	fetcher.maxSize = 10
	if data, err := fetcher.Fetch(context.Background(), server.URL); err != nil || len(data) != 10 {
		t.Fatalf("Expected body at the limit to be accepted, got: %d bytes, %v", len(data), err)
	}

	fetcher.maxSize = 8
	_, err := fetcher.Fetch(context.Background(), server.URL)

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("Expected *FetchError, got: %v", err)
	}
	if !strings.Contains(err.Error(), "exceeds 8 bytes") {
		t.Errorf("Expected size limit in error, got: %v", err)
	}
}

func TestFetchTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	fetcher := NewFetcher(nil, "", 50*time.Millisecond, nil)

	start := time.Now()
	_, err := fetcher.Fetch(context.Background(), server.URL)
	if err == nil {
		t.Fatal("Expected timeout error")
	}
	if time.Since(start) > 5*time.Second {
		t.Errorf("Expected fetch to give up quickly, took: %v", time.Since(start))
	}
}

func TestFetchTransportError(t *testing.T) {
	_, err := newTestFetcher().Fetch(context.Background(), "http://127.0.0.1:1/feed")

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("Expected *FetchError, got: %v", err)
	}
	if fetchErr.StatusCode != 0 {
		t.Errorf("Expected no status code, got: %d", fetchErr.StatusCode)
	}
}

func TestHostRateLimiter(t *testing.T) {
	var nilLimiter *HostRateLimiter
	if err := nilLimiter.WaitForHost(context.Background(), "https://example.com"); err != nil {
		t.Errorf("Expected nil limiter to never wait, got: %v", err)
	}

	limiter := NewHostRateLimiter(20 * time.Millisecond)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := limiter.WaitForHost(ctx, "https://example.com/feed"); err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed < 35*time.Millisecond {
		t.Errorf("Expected requests to be spaced out, took: %v", elapsed)
	}

	// Other hosts have their own budget
	if err := limiter.WaitForHost(ctx, "https://other.example.com/"); err != nil {
		t.Errorf("Expected no error, got: %v", err)
	}

	if err := limiter.WaitForHost(ctx, "/no-host"); err == nil {
		t.Error("Expected error for URL without host")
	}
}
