package parser

import (
	"net/mail"
	"regexp"
	"strings"
	"time"
)

// Export dumps and client banners use a wider set of date shapes than RFC
// 5322 allows; layouts are tried in order after the standard parser.
var dateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
	time.RFC822,
	time.RFC3339,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"2 Jan 2006 15:04:05 -0700",
	"Mon, Jan 2, 2006 at 3:04 PM",
	"Jan 2, 2006, 3:04 PM",
	"Jan 2, 2006 at 3:04 PM",
	"January 2, 2006 3:04 PM",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"1/2/2006 3:04 PM",
	"1/2/2006 15:04",
	"2006-01-02",
}

var trailingZoneName = regexp.MustCompile(`\s*\([A-Za-z]{2,5}\)$`)

// ParseDate parses a date header or banner date. Returns false when no known
// shape matches; callers fall back to processing time and record a warning.
func ParseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	// "Mon, 2 Jan 2006 15:04:05 -0700 (UTC)" style annotations.
	raw = trailingZoneName.ReplaceAllString(raw, "")

	if t, err := mail.ParseDate(raw); err == nil {
		return t, true
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
