// Package parse implements the stateless field parsers that recognize dates,
// signed monetary amounts and transaction direction inside raw text.
package parse

import (
	"regexp"
	"strings"
	"time"
)

// DateMatch is the result of a successful date parse. When the source
// fragment carried a time of day, HasTime is set and Datetime holds the full
// timestamp; Date always holds the calendar date at midnight.
type DateMatch struct {
	Date     time.Time
	Datetime time.Time
	Raw      string
	HasTime  bool
}

// dateFormat pairs a layout with whether it carries a time of day. Formats
// are tried in order; first successful parse wins.
type dateFormat struct {
	layout  string
	hasTime bool
}

var dateFormats = []dateFormat{
	{"02/01/2006 15:04:05", true},
	{"02/01/2006 15:04", true},
	{"02-01-2006 15:04:05", true},
	{"02-01-2006 15:04", true},
	{"2006-01-02 15:04:05", true},
	{"2006-01-02 15:04", true},
	{"02/01/2006", false},
	{"02-01-2006", false},
	{"02.01.2006", false},
	{"2006-01-02", false},
	{"02/01/06", false},
	{"02-01-06", false},
}

// Line-scanning patterns, timestamped variants first so the time of day is
// not lost to a shorter date-only match.
var datePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(\d{1,2}[/\-.]\d{1,2}[/\-.]\d{2,4}\s+\d{1,2}:\d{2}(?::\d{2})?)`),
	regexp.MustCompile(`(\d{4}[/\-.]\d{1,2}[/\-.]\d{1,2}\s+\d{1,2}:\d{2}(?::\d{2})?)`),
	regexp.MustCompile(`(\d{1,2}[/\-.]\d{1,2}[/\-.]\d{2,4})`),
	regexp.MustCompile(`(\d{4}[/\-.]\d{1,2}[/\-.]\d{1,2})`),
}

// ParseDate parses a fragment against the supported format list. A fragment
// matching no format is "no date found", never an error or a placeholder.
func ParseDate(fragment string) (DateMatch, bool) {
	trimmed := strings.TrimSpace(fragment)
	if trimmed == "" {
		return DateMatch{}, false
	}

	for _, f := range dateFormats {
		parsed, err := time.Parse(f.layout, trimmed)
		if err != nil {
			continue
		}

		m := DateMatch{
			Date:    time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, time.UTC),
			Raw:     trimmed,
			HasTime: f.hasTime,
		}
		if f.hasTime {
			m.Datetime = parsed
		}
		return m, true
	}

	return DateMatch{}, false
}

// FindDate scans a text line for the first fragment that parses as a date.
func FindDate(line string) (DateMatch, bool) {
	for _, pattern := range datePatterns {
		loc := pattern.FindStringSubmatch(line)
		if loc == nil {
			continue
		}

		if m, ok := ParseDate(loc[1]); ok {
			return m, true
		}
	}

	return DateMatch{}, false
}

// StripDates removes the first date-looking fragment matched by each pattern
// from a line, used when deriving a clean description.
func StripDates(line string) string {
	for _, pattern := range datePatterns {
		line = pattern.ReplaceAllLiteralString(line, "")
	}
	return line
}
