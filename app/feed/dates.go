package feed

import (
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}

var rawDateLayouts = []string{
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04 -0700",
	"2 Jan 2006 15:04 -0700",
}

var trailingZone = regexp.MustCompile(`\s([A-Z]{3,5})$`)

// Fixed offsets for the abbreviations feeds commonly use in place of a
// numeric offset. Daylight variants carry their daylight offset.
var zoneOffsets = map[string]string{
	"PDT": "-0700",
	"PST": "-0800",
	"MDT": "-0600",
	"MST": "-0700",
	"CDT": "-0500",
	"CST": "-0600",
	"EDT": "-0400",
	"EST": "-0500",
	"GMT": "+0000",
	"UTC": "+0000",
}

type DateResolver struct {
	clock Clock
}

func NewDateResolver(clock Clock) *DateResolver {
	if clock == nil {
		clock = SystemClock{}
	}
	return &DateResolver{clock: clock}
}

// Resolve never fails: a date that cannot be read becomes the current time
// in UTC. Parsed dates keep the offset they were written with.
func (r *DateResolver) Resolve(raw string, structured *time.Time) time.Time {
	if structured != nil && !structured.IsZero() {
		return *structured
	}

	raw = strings.TrimSpace(raw)
	if raw != "" {
		if t, ok := parseRawDate(raw); ok {
			return t
		}

		if t, ok := parseLenient(raw); ok {
			return t
		}

		slog.Debug("Unparseable entry date, using current time", "date", raw)
	}

	return r.clock.Now().UTC()
}

// parseLenient replaces a trailing zone name with its offset and retries,
// finishing with dateparse. Names outside zoneOffsets are rejected since
// dateparse reads them as a zero offset.
func parseLenient(raw string) (time.Time, bool) {
	if m := trailingZone.FindStringSubmatch(raw); m != nil {
		offset, known := zoneOffsets[m[1]]
		if !known {
			return time.Time{}, false
		}
		raw = raw[:len(raw)-len(m[1])] + offset
		if t, ok := parseRawDate(raw); ok {
			return t, true
		}
	}

	t, err := dateparse.ParseAny(raw)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func parseRawDate(raw string) (time.Time, bool) {
	for _, layout := range rawDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
