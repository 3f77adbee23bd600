// Package timeparse turns the site's human timestamps ("3 hours ago",
// "March 4, 2023") into instants.
package timeparse

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const year = 31556952 * time.Second

var reAgo = regexp.MustCompile(`(?i)^\s*(\d+|an?)\s+(mins?|minutes?|hours?|days?|years?)\s+ago\b`)

var layouts = []string{
	"January 2, 2006",
	"Jan 2, 2006",
	"2006-01-02",
	"01/02/2006",
	"2006/01/02",
	"2 January 2006",
	"2 Jan 2006",
	time.RFC3339,
}

// Parse converts s to an instant relative to now. Strings that are neither
// relative ("5 hours ago", "a day ago") nor a known date layout yield now.
func Parse(s string, now time.Time) time.Time {
	if t, ok := parseRelative(s, now); ok {
		return t
	}
	if t, ok := parseAbsolute(s); ok {
		return t
	}

	return now
}

func parseRelative(s string, now time.Time) (time.Time, bool) {
	m := reAgo.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}

	n := int64(1)
	if q := strings.ToLower(m[1]); q != "a" && q != "an" {
		v, err := strconv.ParseInt(q, 10, 64)
		if err != nil {
			// Too many digits for any real timestamp.
			return now, true
		}
		n = v
	}

	var unit time.Duration
	switch u := strings.ToLower(m[2]); {
	case strings.HasPrefix(u, "min"):
		unit = time.Minute
	case strings.HasPrefix(u, "hour"):
		unit = time.Hour
	case strings.HasPrefix(u, "day"):
		unit = 24 * time.Hour
	case strings.HasPrefix(u, "year"):
		unit = year
	default:
		return time.Time{}, false
	}

	if n <= math.MaxInt64/int64(unit) {
		return now.Add(-time.Duration(n) * unit), true
	}

	// Past the range of time.Duration (about 292 years): count whole seconds.
	secs := int64(unit / time.Second)
	if n > (math.MaxInt64-now.Unix())/secs {
		return now, true
	}

	return time.Unix(now.Unix()-n*secs, int64(now.Nanosecond())).In(now.Location()), true
}

func parseAbsolute(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	return time.Time{}, false
}
