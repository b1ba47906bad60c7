package feed

import (
	"time"
)

// Document is the canonical in-memory form of a parsed RSS or Atom feed.
// Nothing format-specific leaves this package.
type Document struct {
	Title    string
	SiteLink string
	ImageURL string
	Entries  []Entry
}

// Entry is one syndicated item in document order.
type Entry struct {
	Title   string
	Content string // format content field (content:encoded, atom:content)
	Summary string // description / atom:summary
	Link    string
	GUID    string

	PublishedRaw    string
	PublishedParsed *time.Time
}

// Body returns the content to store: content, else summary, else "".
func (e Entry) Body() string {
	if e.Content != "" {
		return e.Content
	}
	return e.Summary
}

// Resource is a downloaded HTTP body together with its declared media type.
type Resource struct {
	URL         string
	Data        []byte
	ContentType string
}

// Subscription configuration, one YAML file per feed

type Config struct {
	Name     string // Derived from filename (without .yml extension)
	URL      string `yaml:"url"`
	Title    string `yaml:"title"`
	SiteURL  string `yaml:"site_url"`
	Disabled bool   `yaml:"disabled"`
}
