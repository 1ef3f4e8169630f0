package importer

import (
	"strconv"
	"strings"
	"time"

	"github.com/harborapp/harbor/internal/extractor"
)

// Exports disagree on timestamp units. Anything above this is read as
// epoch milliseconds, at or below as epoch seconds.
const millisThreshold = 1e12

var stringTimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTime resolves an arbitrary JSON value to a timestamp. Numbers apply
// the seconds/milliseconds unit rule; strings are tried as numbers first,
// then as calendar dates.
func ParseTime(v any) (time.Time, bool) {
	if f, ok := extractor.AsNumber(v); ok {
		return epochToTime(f), true
	}
	s, ok := extractor.AsString(v)
	if !ok {
		return time.Time{}, false
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return epochToTime(f), true
	}
	for _, layout := range stringTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func epochToTime(f float64) time.Time {
	if f > millisThreshold {
		return time.UnixMilli(int64(f)).UTC()
	}
	// Preserve fractional seconds (ChatGPT uses them).
	sec := int64(f)
	nsec := int64((f - float64(sec)) * 1e9)
	return time.Unix(sec, nsec).UTC()
}

// fieldTime scans candidate fields on an object and returns the first one
// that parses.
func fieldTime(obj any, names ...string) (time.Time, bool) {
	rec := extractor.AsRecord(obj)
	if rec == nil {
		return time.Time{}, false
	}
	for _, name := range names {
		if v, ok := rec[name]; ok {
			if t, ok := ParseTime(v); ok {
				return t, true
			}
		}
	}
	return time.Time{}, false
}
