package pubdate

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdholdren/newscat/internal/newscat"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		want  time.Time
		valid bool
	}{
		{
			name:  "gmt",
			raw:   "Sat, 11 Jan 2025 11:13:50 GMT",
			want:  time.Date(2025, time.January, 11, 11, 13, 50, 0, time.UTC),
			valid: true,
		},
		{
			name:  "numeric offset",
			raw:   "Sat, 11 Jan 2025 12:13:50 +0100",
			want:  time.Date(2025, time.January, 11, 11, 13, 50, 0, time.UTC),
			valid: true,
		},
		{
			name:  "surrounding whitespace",
			raw:   "  Sat, 11 Jan 2025 11:13:50 GMT\n",
			want:  time.Date(2025, time.January, 11, 11, 13, 50, 0, time.UTC),
			valid: true,
		},
		{
			name:  "utc",
			raw:   "Sat, 11 Jan 2025 11:13:50 UTC",
			want:  time.Date(2025, time.January, 11, 11, 13, 50, 0, time.UTC),
			valid: true,
		},
		{
			name: "other zone name",
			raw:  "Sat, 11 Jan 2025 11:13:50 EST",
		},
		{
			name: "iso 8601",
			raw:  "2025-01-11T11:13:50Z",
		},
		{
			name: "empty",
			raw:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.raw)
			assert.Equal(t, tt.valid, got.Valid)
			assert.Equal(t, tt.raw, got.Raw)
			if tt.valid {
				assert.True(t, tt.want.Equal(got.Time), "got %s", got.Time)
				assert.NoError(t, got.Err())
			} else {
				require.Error(t, got.Err())
				assert.True(t, errors.Is(got.Err(), newscat.ErrDateParseFailed))
			}
		})
	}
}

func TestFormatRoundTrip(t *testing.T) {
	ts := time.Date(2024, time.March, 3, 8, 9, 10, 0, time.FixedZone("x", 3600))

	got := Parse(Format(ts))
	require.True(t, got.Valid)
	assert.True(t, ts.Equal(got.Time))
}

func TestAgeDaysTruncates(t *testing.T) {
	now := time.Date(2025, time.January, 20, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, 7, AgeDays(now, now.Add(-7*day)))
	assert.Equal(t, 7, AgeDays(now, now.Add(-7*day-23*time.Hour)))
	assert.Equal(t, 8, AgeDays(now, now.Add(-8*day)))
	assert.Equal(t, 0, AgeDays(now, now.Add(time.Hour)))
}

func TestExpiredBoundary(t *testing.T) {
	now := time.Date(2025, time.January, 20, 12, 0, 0, 0, time.UTC)
	at := func(d time.Duration) Published {
		return Parse(Format(now.Add(-d)))
	}

	assert.False(t, Expired(now, at(7*day), 7), "exactly seven days is kept")
	assert.False(t, Expired(now, at(7*day+time.Second), 7), "still day seven")
	assert.False(t, Expired(now, at(7*day+23*time.Hour), 7), "still day seven")
	assert.True(t, Expired(now, at(8*day), 7), "eight days is evicted")
	assert.False(t, Expired(now, Parse("not a date"), 7), "unknown age is kept")
}

func TestNewer(t *testing.T) {
	older := Parse("Sat, 11 Jan 2025 11:13:50 GMT")
	newer := Parse("Sun, 12 Jan 2025 11:13:50 GMT")
	broken := Parse("yesterday")

	assert.True(t, Newer(newer, older))
	assert.False(t, Newer(older, newer))
	assert.True(t, Newer(broken, newer))
	assert.False(t, Newer(newer, broken))
	assert.False(t, Newer(broken, broken))
}

func TestDisplay(t *testing.T) {
	assert.Equal(t, "Saturday 11 January 2025 11:13:50", Parse("Sat, 11 Jan 2025 11:13:50 GMT").Display())
	assert.Equal(t, "garbage", Parse("garbage").Display())
}
