package feed

import (
	"bytes"
	"context"
	"encoding/base64"
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

type IconResolver struct {
	fetcher   *Fetcher
	discovery bool
}

// NewIconResolver returns a resolver that downloads icons with fetcher.
// With discovery set, the site's home page is searched for a <link rel="icon">
// before falling back to /favicon.ico.
func NewIconResolver(fetcher *Fetcher, discovery bool) *IconResolver {
	return &IconResolver{
		fetcher:   fetcher,
		discovery: discovery,
	}
}

// Resolve returns the feed icon as a data URL. An empty string with a nil
// error means there was nothing to download or the server did not declare
// a Content-Type. The document's own link is resolved against siteLink.
func (r *IconResolver) Resolve(ctx context.Context, doc *Document, siteLink string) (string, error) {
	if doc != nil && doc.SiteLink != "" {
		if resolved := resolveReference(siteLink, doc.SiteLink); resolved != "" {
			siteLink = resolved
		}
	}

	iconURL := r.candidate(ctx, doc, siteLink)
	if iconURL == "" {
		return "", nil
	}

	res, err := r.fetcher.FetchResource(ctx, iconURL)
	if err != nil {
		return "", err
	}

	if res.ContentType == "" {
		slog.Debug("Icon response has no Content-Type", "url", iconURL)
		return "", nil
	}

	return "data:" + res.ContentType + ";base64," + base64.StdEncoding.EncodeToString(res.Data), nil
}

func (r *IconResolver) candidate(ctx context.Context, doc *Document, siteLink string) string {
	if doc != nil && doc.ImageURL != "" {
		if image := resolveReference(siteLink, doc.ImageURL); image != "" {
			return image
		}
	}

	origin := siteOrigin(siteLink)
	if origin == nil {
		return ""
	}

	if r.discovery {
		if href := r.discover(ctx, origin); href != "" {
			return href
		}
	}

	return origin.JoinPath("favicon.ico").String()
}

func (r *IconResolver) discover(ctx context.Context, origin *url.URL) string {
	res, err := r.fetcher.FetchResource(ctx, origin.String())
	if err != nil {
		slog.Debug("Icon discovery failed", "url", origin.String(), "error", err)
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Data))
	if err != nil {
		return ""
	}

	var found string
	doc.Find(`link[rel*="icon"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, ok := s.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return true
		}
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			return true
		}
		found = origin.ResolveReference(ref).String()
		return false
	})

	return found
}

// resolveReference returns ref as an absolute URL, resolving it against base
// when it is relative. It returns "" when neither gives an absolute URL.
func resolveReference(base, ref string) string {
	u, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return ""
	}
	if u.IsAbs() {
		return u.String()
	}

	b, err := url.Parse(base)
	if err != nil || !b.IsAbs() {
		return ""
	}
	return b.ResolveReference(u).String()
}

// siteOrigin returns scheme://host[:port] of link, or nil if link has no
// well-formed origin.
func siteOrigin(link string) *url.URL {
	if link == "" {
		return nil
	}
	u, err := url.Parse(link)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil
	}
	return &url.URL{Scheme: u.Scheme, Host: u.Host, Path: "/"}
}
