package feed

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
)

const hashKeyPrefix = "sha256:"

// EntryKey returns the feed-scoped deduplication key for an entry: its GUID,
// else its absolute link, else a digest of title, content and summary.
// Text is hashed as-is, so cosmetic re-encoding yields a new key.
func EntryKey(e Entry) string {
	if guid := strings.TrimSpace(e.GUID); guid != "" {
		return guid
	}

	if link := strings.TrimSpace(e.Link); isAbsoluteURL(link) {
		return link
	}

	sum := sha256.New()
	sum.Write([]byte(e.Title))
	sum.Write([]byte(e.Content))
	sum.Write([]byte(e.Summary))
	return hashKeyPrefix + hex.EncodeToString(sum.Sum(nil))
}

func isAbsoluteURL(raw string) bool {
	if raw == "" {
		return false
	}
	u, err := url.Parse(raw)
	return err == nil && u.IsAbs() && u.Host != ""
}
