package feed

import (
	"fmt"
)

// FetchError reports a transport failure or a non-2xx response.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("failed to fetch %s: HTTP %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("failed to fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ParseError reports a document that is neither RSS nor Atom.
type ParseError struct {
	RSSErr  error
	AtomErr error
}

func (e *ParseError) Error() string {
	return "invalid feed"
}

// Detail includes the underlying parser errors, for logging.
func (e *ParseError) Detail() string {
	return fmt.Sprintf("invalid feed (rss: %v; atom: %v)", e.RSSErr, e.AtomErr)
}
