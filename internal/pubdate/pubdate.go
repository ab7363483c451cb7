// Package pubdate parses feed publication timestamps and decides whether an
// article has outlived the retention window.
package pubdate

import (
	"fmt"
	"strings"
	"time"

	"github.com/jdholdren/newscat/internal/newscat"
)

const (
	// Layout is the canonical feed timestamp, e.g. "Sat, 11 Jan 2025 11:13:50 GMT".
	Layout = "Mon, 02 Jan 2006 15:04:05 GMT"
	// layoutOffset is the same timestamp with a numeric UTC offset.
	layoutOffset = time.RFC1123Z

	// DisplayLayout is how dates are rendered for people.
	DisplayLayout = "Monday 02 January 2006 15:04:05"

	day = 24 * time.Hour
)

// Published is a parsed publication timestamp.
//
// When Valid is false the raw string could not be parsed and the age of the
// article is unknown.
type Published struct {
	Time  time.Time
	Raw   string
	Valid bool
}

// Parse reads a feed timestamp. It never fails outright: a string in an
// unexpected format comes back with Valid unset so callers can report it.
func Parse(raw string) Published {
	s := strings.TrimSpace(raw)
	if t, err := time.Parse(Layout, s); err == nil {
		return Published{Time: t.UTC(), Raw: raw, Valid: true}
	}
	if t, err := time.Parse(layoutOffset, s); err == nil {
		return Published{Time: t.UTC(), Raw: raw, Valid: true}
	}
	// Other zone names do not reliably carry their offset, so only UTC counts.
	if t, err := time.Parse(time.RFC1123, s); err == nil && t.Location() == time.UTC {
		return Published{Time: t, Raw: raw, Valid: true}
	}

	return Published{Raw: raw}
}

// Err describes why the timestamp is unusable, or nil if it parsed.
func (p Published) Err() error {
	if p.Valid {
		return nil
	}
	return fmt.Errorf("%w: %q", newscat.ErrDateParseFailed, p.Raw)
}

// Display renders the timestamp for people, falling back to the raw string.
func (p Published) Display() string {
	if !p.Valid {
		return p.Raw
	}
	return p.Time.Format(DisplayLayout)
}

// Format renders t in the canonical feed layout.
func Format(t time.Time) string {
	return t.UTC().Format(Layout)
}

// AgeDays is the number of whole days between t and now, truncated.
// Seven days and 23 hours is 7.
func AgeDays(now, t time.Time) int {
	return int(now.Sub(t) / day)
}

// Expired reports whether p is older than retentionDays whole days.
// Unparseable timestamps never expire.
func Expired(now time.Time, p Published, retentionDays int) bool {
	if !p.Valid {
		return false
	}
	return AgeDays(now, p.Time) > retentionDays
}

// Newer orders two timestamps newest first. Unparseable timestamps sort
// ahead of everything, the same place a "now" fallback would put them.
func Newer(a, b Published) bool {
	switch {
	case !a.Valid && !b.Valid:
		return false
	case !a.Valid:
		return true
	case !b.Valid:
		return false
	}
	return a.Time.After(b.Time)
}
