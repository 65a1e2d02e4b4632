// Package timeparse turns the free-text timestamps scraped from news sources
// into UTC instants. Every function takes the reference "now" explicitly so
// results are reproducible.
package timeparse

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

const (
	// approximations, not calendar arithmetic
	monthApprox = 30 * 24 * time.Hour
	yearApprox  = 365 * 24 * time.Hour

	// largest span, in days, a relative phrase may name
	maxRelativeDays = 999_999_999

	recentBonus     = 20
	recentWindow    = 2 * time.Hour
	freshBonus      = 10
	freshWindow     = 6 * time.Hour
	humanTimeLayout = "Jan 02, 2006 03:04 PM UTC"
)

var (
	relativePattern = regexp.MustCompile(`(\d+)\s*(second|minute|hour|day|week|month|year)s?\s*ago`)
	epochPattern    = regexp.MustCompile(`^-?\d+(\.\d+)?$`)
)

var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04Z07:00",
	"2006-01-02",
}

var fallbackLayouts = []string{
	"2006-01-02 15:04",
	time.RFC1123Z,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	time.RFC1123,
	"Mon, 2 Jan 2006 15:04:05 MST",
	"02 Jan 2006 15:04:05",
	"2 Jan 2006 15:04:05",
	"Jan 2, 2006",
	"January 2, 2006",
}

// Parse interprets raw relative to now. The second result is false when the
// value could not be understood; the returned instant is always UTC.
//
// Order: epoch seconds, relative phrases, ISO-8601, fixed layouts, then a
// last-resort pass through dateparse.
func Parse(raw string, now time.Time) (time.Time, bool) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return time.Time{}, false
	}
	now = now.UTC()

	if epochPattern.MatchString(value) {
		return parseEpoch(value)
	}
	if isRelative(value) {
		return parseRelative(value, now)
	}
	if ts, ok := parseISO(value); ok {
		return ts, true
	}
	for _, layout := range fallbackLayouts {
		if ts, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return ts.UTC(), true
		}
	}
	return lenientParse(value)
}

// dateparse can panic on malformed input.
func lenientParse(value string) (ts time.Time, ok bool) {
	defer func() {
		if recover() != nil {
			ts, ok = time.Time{}, false
		}
	}()
	parsed, err := dateparse.ParseIn(value, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return parsed.UTC(), true
}

// ParseValue accepts decoded JSON scalars: numbers are epoch seconds,
// strings go through Parse.
func ParseValue(value any, now time.Time) (time.Time, bool) {
	switch v := value.(type) {
	case nil:
		return time.Time{}, false
	case string:
		return Parse(v, now)
	case float64:
		return epochToTime(v)
	case int64:
		return time.Unix(v, 0).UTC(), true
	case int:
		return time.Unix(int64(v), 0).UTC(), true
	default:
		return time.Time{}, false
	}
}

func parseEpoch(value string) (time.Time, bool) {
	seconds, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return time.Time{}, false
	}
	return epochToTime(seconds)
}

func epochToTime(seconds float64) (time.Time, bool) {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || math.Abs(seconds) > 1e12 {
		return time.Time{}, false
	}
	whole, frac := math.Modf(seconds)
	return time.Unix(int64(whole), int64(frac*1e9)).UTC(), true
}

// isRelative reports whether value is a relative phrase. Such values never
// fall through to the absolute parsers.
func isRelative(value string) bool {
	lower := strings.ToLower(value)
	return lower == "today" || lower == "yesterday" || relativePattern.MatchString(lower)
}

func parseRelative(value string, now time.Time) (time.Time, bool) {
	lower := strings.ToLower(value)
	switch lower {
	case "today":
		return noonUTC(now), true
	case "yesterday":
		return noonUTC(now.AddDate(0, 0, -1)), true
	}

	match := relativePattern.FindStringSubmatch(lower)
	if match == nil {
		return time.Time{}, false
	}
	amount, err := strconv.Atoi(match[1])
	if err != nil {
		return time.Time{}, false
	}

	var unit time.Duration
	switch match[2] {
	case "second":
		unit = time.Second
	case "minute":
		unit = time.Minute
	case "hour":
		unit = time.Hour
	case "day":
		unit = 24 * time.Hour
	case "week":
		unit = 7 * 24 * time.Hour
	case "month":
		unit = monthApprox
	case "year":
		unit = yearApprox
	default:
		return time.Time{}, false
	}
	return subtractSpan(now, int64(amount), unit)
}

// subtractSpan moves now back by amount units. Whole-day units go through
// AddDate so spans past the range of time.Duration stay correct; results
// before year 1 are rejected.
func subtractSpan(now time.Time, amount int64, unit time.Duration) (time.Time, bool) {
	const day = 24 * time.Hour
	if unit >= day {
		perUnit := int64(unit / day)
		if amount > maxRelativeDays/perUnit {
			return time.Time{}, false
		}
		ts := now.AddDate(0, 0, -int(amount*perUnit))
		if ts.Year() < 1 {
			return time.Time{}, false
		}
		return ts, true
	}
	if amount > math.MaxInt64/int64(unit) {
		return time.Time{}, false
	}
	return now.Add(-time.Duration(amount) * unit), true
}

func parseISO(value string) (time.Time, bool) {
	candidate := value
	if strings.HasSuffix(candidate, "z") {
		candidate = candidate[:len(candidate)-1] + "Z"
	}
	for _, layout := range isoLayouts {
		if ts, err := time.ParseInLocation(layout, candidate, time.UTC); err == nil {
			return ts.UTC(), true
		}
	}
	return time.Time{}, false
}

func noonUTC(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 12, 0, 0, 0, time.UTC)
}

// ToISO8601 renders raw as an RFC3339 UTC string, or "" when unparseable.
func ToISO8601(raw string, now time.Time) string {
	ts, ok := Parse(raw, now)
	if !ok {
		return ""
	}
	return ts.Format(time.RFC3339)
}

// HoursAgo reports the age of raw in fractional hours.
func HoursAgo(raw string, now time.Time) (float64, bool) {
	ts, ok := Parse(raw, now)
	if !ok {
		return 0, false
	}
	return now.UTC().Sub(ts).Hours(), true
}

// RecencyBonus is +20 under 2h, +10 under 6h, otherwise (or unparseable) 0.
func RecencyBonus(raw string, now time.Time) int {
	ts, ok := Parse(raw, now)
	if !ok {
		return 0
	}
	return RecencyBonusAt(ts, now)
}

func RecencyBonusAt(ts, now time.Time) int {
	age := now.UTC().Sub(ts.UTC())
	switch {
	case age < recentWindow:
		return recentBonus
	case age < freshWindow:
		return freshBonus
	default:
		return 0
	}
}

// HumanReadable formats an ISO timestamp like "Jan 25, 2026 10:30 AM UTC".
// Values that do not parse are returned unchanged.
func HumanReadable(iso string) string {
	trimmed := strings.TrimSpace(iso)
	if trimmed == "" {
		return ""
	}
	ts, ok := parseISO(trimmed)
	if !ok {
		return iso
	}
	return ts.Format(humanTimeLayout)
}
