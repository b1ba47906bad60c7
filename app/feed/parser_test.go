package feed

import (
	"errors"
	"testing"
	"time"
)

func TestParseRSS2(t *testing.T) {
	rssData := `<?xml version="1.0"?>
<rss version="2.0" xmlns:content="http://purl.org/rss/1.0/modules/content/">
  <channel>
    <title>Test Feed</title>
    <link>https://example.com</link>
    <description>Test Description</description>
    <image>
      <url>https://example.com/icon.png</url>
      <title>Test Feed</title>
      <link>https://example.com</link>
    </image>
    <item>
      <title>Test Item 1</title>
      <link>https://example.com/item1</link>
      <description>Test Item 1 Description</description>
      <content:encoded><![CDATA[<p>Full body</p>]]></content:encoded>
      <guid>item-1</guid>
      <pubDate>Mon, 03 Jul 2023 10:00:00 +0000</pubDate>
    </item>
    <item>
      <title>Test Item 2</title>
      <link>https://example.com/item2</link>
      <description>Test Item 2 Description</description>
      <guid>item-2</guid>
    </item>
  </channel>
</rss>`

	doc, err := NewParser().Run([]byte(rssData))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if doc.Title != "Test Feed" {
		t.Errorf("Expected title 'Test Feed', got: %s", doc.Title)
	}
	if doc.SiteLink != "https://example.com" {
		t.Errorf("Expected site link 'https://example.com', got: %s", doc.SiteLink)
	}
	if doc.ImageURL != "https://example.com/icon.png" {
		t.Errorf("Expected image URL 'https://example.com/icon.png', got: %s", doc.ImageURL)
	}

	if len(doc.Entries) != 2 {
		t.Fatalf("Expected 2 entries, got: %d", len(doc.Entries))
	}

	first := doc.Entries[0]
	if first.Title != "Test Item 1" {
		t.Errorf("Expected title 'Test Item 1', got: %s", first.Title)
	}
	if first.GUID != "item-1" {
		t.Errorf("Expected GUID 'item-1', got: %s", first.GUID)
	}
	if first.Body() != "<p>Full body</p>" {
		t.Errorf("Expected content:encoded body, got: %s", first.Body())
	}
	if first.PublishedRaw != "Mon, 03 Jul 2023 10:00:00 +0000" {
		t.Errorf("Expected raw pubDate, got: %s", first.PublishedRaw)
	}
	if first.PublishedParsed != nil {
		t.Errorf("Expected RSS pubDate to stay unparsed, got: %v", first.PublishedParsed)
	}

	second := doc.Entries[1]
	if second.Body() != "Test Item 2 Description" {
		t.Errorf("Expected description as body, got: %s", second.Body())
	}
	if second.PublishedRaw != "" {
		t.Errorf("Expected no date, got: %s", second.PublishedRaw)
	}
}

func TestParseRSSDublinCoreDate(t *testing.T) {
	rssData := `<?xml version="1.0"?>
<rss version="2.0" xmlns:dc="http://purl.org/dc/elements/1.1/">
  <channel>
    <title>DC Feed</title>
    <item>
      <title>Dated</title>
      <dc:date>2024-02-03T04:05:06+02:00</dc:date>
    </item>
  </channel>
</rss>`

	doc, err := NewParser().Run([]byte(rssData))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(doc.Entries) != 1 {
		t.Fatalf("Expected 1 entry, got: %d", len(doc.Entries))
	}

	parsed := doc.Entries[0].PublishedParsed
	if parsed == nil {
		t.Fatal("Expected dc:date to produce a structured date")
	}
	expected := time.Date(2024, 2, 3, 2, 5, 6, 0, time.UTC)
	if !parsed.Equal(expected) {
		t.Errorf("Expected %v, got: %v", expected, parsed)
	}
	if _, offset := parsed.Zone(); offset != 2*60*60 {
		t.Errorf("Expected +02:00 offset to be kept, got: %d", offset)
	}
}

func TestParseAtom(t *testing.T) {
	atomData := `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Atom Feed</title>
  <link rel="self" href="https://example.com/feed.atom"/>
  <link rel="alternate" href="https://example.com/"/>
  <logo>https://example.com/logo.png</logo>
  <updated>2024-01-01T00:00:00Z</updated>
  <id>urn:feed</id>
  <entry>
    <title>Atom Entry</title>
    <link href="https://example.com/a1"/>
    <id>urn:entry:1</id>
    <published>2024-01-01T10:00:00-05:00</published>
    <updated>2024-01-02T10:00:00Z</updated>
    <summary>Short</summary>
    <content type="html">&lt;p&gt;Long&lt;/p&gt;</content>
  </entry>
  <entry>
    <id>urn:entry:2</id>
    <updated>2024-01-03T08:00:00Z</updated>
    <summary>Only summary</summary>
  </entry>
</feed>`

	doc, err := NewParser().Run([]byte(atomData))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if doc.Title != "Atom Feed" {
		t.Errorf("Expected title 'Atom Feed', got: %s", doc.Title)
	}
	if doc.SiteLink != "https://example.com/" {
		t.Errorf("Expected alternate link as site link, got: %s", doc.SiteLink)
	}
	if doc.ImageURL != "https://example.com/logo.png" {
		t.Errorf("Expected logo as image, got: %s", doc.ImageURL)
	}
	if len(doc.Entries) != 2 {
		t.Fatalf("Expected 2 entries, got: %d", len(doc.Entries))
	}

	first := doc.Entries[0]
	if first.GUID != "urn:entry:1" {
		t.Errorf("Expected id 'urn:entry:1', got: %s", first.GUID)
	}
	if first.Link != "https://example.com/a1" {
		t.Errorf("Expected link 'https://example.com/a1', got: %s", first.Link)
	}
	if first.Body() != "<p>Long</p>" {
		t.Errorf("Expected content body, got: %s", first.Body())
	}
	if first.PublishedParsed == nil {
		t.Fatal("Expected published date")
	}
	if !first.PublishedParsed.Equal(time.Date(2024, 1, 1, 15, 0, 0, 0, time.UTC)) {
		t.Errorf("Expected published to win over updated, got: %v", first.PublishedParsed)
	}

	second := doc.Entries[1]
	if second.Title != "Untitled" {
		t.Errorf("Expected default title 'Untitled', got: %s", second.Title)
	}
	if second.Body() != "Only summary" {
		t.Errorf("Expected summary body, got: %s", second.Body())
	}
	if second.PublishedParsed == nil || !second.PublishedParsed.Equal(time.Date(2024, 1, 3, 8, 0, 0, 0, time.UTC)) {
		t.Errorf("Expected updated as fallback date, got: %v", second.PublishedParsed)
	}
}

func TestParseEmptyChannel(t *testing.T) {
	doc, err := NewParser().Run([]byte(`<rss version="2.0"><channel><title>Empty</title></channel></rss>`))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(doc.Entries) != 0 {
		t.Errorf("Expected 0 entries, got: %d", len(doc.Entries))
	}
}

func TestParseInvalidFeed(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"html page", `<html><body><p>not a feed</p></body></html>`},
		{"plain text", `hello world`},
		{"empty", ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := NewParser().Run([]byte(tt.data))
			if err == nil {
				t.Fatalf("Expected error, got document: %+v", doc)
			}

			var parseErr *ParseError
			if !errors.As(err, &parseErr) {
				t.Fatalf("Expected *ParseError, got: %T", err)
			}
			if err.Error() != "invalid feed" {
				t.Errorf("Expected 'invalid feed', got: %s", err.Error())
			}
		})
	}
}
