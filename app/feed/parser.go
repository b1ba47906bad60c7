package feed

import (
	"bytes"
	"strings"
	"time"

	"github.com/mmcdole/gofeed/atom"
	"github.com/mmcdole/gofeed/rss"
)

const untitled = "Untitled"

// Parser detects RSS or Atom by attempting RSS first and Atom second. Many
// servers mislabel feed media types, so the Content-Type header is ignored.
type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

func (p *Parser) Run(data []byte) (*Document, error) {
	// The gofeed sub-parsers keep state on the struct, so each run gets its own.
	rssFeed, rssErr := (&rss.Parser{}).Parse(bytes.NewReader(data))
	if rssErr == nil {
		return fromRSS(rssFeed), nil
	}

	atomFeed, atomErr := (&atom.Parser{}).Parse(bytes.NewReader(data))
	if atomErr == nil {
		return fromAtom(atomFeed), nil
	}

	return nil, &ParseError{RSSErr: rssErr, AtomErr: atomErr}
}

func fromRSS(feed *rss.Feed) *Document {
	doc := &Document{
		Title:    strings.TrimSpace(feed.Title),
		SiteLink: strings.TrimSpace(feed.Link),
	}

	if feed.Image != nil {
		doc.ImageURL = strings.TrimSpace(feed.Image.URL)
	}

	doc.Entries = make([]Entry, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		doc.Entries = append(doc.Entries, rssEntry(item))
	}

	return doc
}

func rssEntry(item *rss.Item) Entry {
	entry := Entry{
		Title:        titleOrDefault(item.Title),
		Content:      item.Content,
		Summary:      item.Description,
		Link:         strings.TrimSpace(item.Link),
		PublishedRaw: strings.TrimSpace(item.PubDate),
	}

	if item.GUID != nil {
		entry.GUID = strings.TrimSpace(item.GUID.Value)
	}

	// pubDate goes through DateResolver as a raw string; dc:date is RFC 3339
	if entry.PublishedRaw == "" && item.DublinCoreExt != nil && len(item.DublinCoreExt.Date) > 0 {
		dcDate := strings.TrimSpace(item.DublinCoreExt.Date[0])
		if parsed, err := time.Parse(time.RFC3339, dcDate); err == nil {
			entry.PublishedParsed = &parsed
		} else {
			entry.PublishedRaw = dcDate
		}
	}

	return entry
}

func fromAtom(feed *atom.Feed) *Document {
	doc := &Document{
		Title:    strings.TrimSpace(feed.Title),
		SiteLink: atomLink(feed.Links),
		ImageURL: strings.TrimSpace(feed.Icon),
	}

	if doc.ImageURL == "" {
		doc.ImageURL = strings.TrimSpace(feed.Logo)
	}

	doc.Entries = make([]Entry, 0, len(feed.Entries))
	for _, e := range feed.Entries {
		if e == nil {
			continue
		}
		doc.Entries = append(doc.Entries, atomEntry(e))
	}

	return doc
}

func atomEntry(e *atom.Entry) Entry {
	entry := Entry{
		Title:   titleOrDefault(e.Title),
		Summary: e.Summary,
		Link:    atomLink(e.Links),
		GUID:    strings.TrimSpace(e.ID),
	}

	if e.Content != nil {
		entry.Content = e.Content.Value
	}

	switch {
	case strings.TrimSpace(e.Published) != "":
		entry.PublishedRaw = strings.TrimSpace(e.Published)
		entry.PublishedParsed = atomDate(entry.PublishedRaw, e.PublishedParsed)
	case strings.TrimSpace(e.Updated) != "":
		entry.PublishedRaw = strings.TrimSpace(e.Updated)
		entry.PublishedParsed = atomDate(entry.PublishedRaw, e.UpdatedParsed)
	}

	return entry
}

// atomDate keeps the offset written in the document; gofeed's parsed value
// is normalized to UTC and only used when the text is not strict RFC 3339.
func atomDate(raw string, parsed *time.Time) *time.Time {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t
	}
	return parsed
}

func atomLink(links []*atom.Link) string {
	var first string
	for _, link := range links {
		if link == nil || strings.TrimSpace(link.Href) == "" {
			continue
		}
		href := strings.TrimSpace(link.Href)
		if link.Rel == "" || link.Rel == "alternate" {
			return href
		}
		if first == "" {
			first = href
		}
	}
	return first
}

func titleOrDefault(title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return untitled
	}
	return title
}
