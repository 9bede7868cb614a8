package timefmt

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCompleteLiterals(t *testing.T) {
	tests := []struct {
		literal string
		want    time.Time
	}{
		{"2020-06-30T19:25:00Z", time.Date(2020, 6, 30, 19, 25, 0, 0, time.UTC)},
		{"2020-06-30T19:25:00.000Z", time.Date(2020, 6, 30, 19, 25, 0, 0, time.UTC)},
		{"2021-05-04T07:30:12.500Z", time.Date(2021, 5, 4, 7, 30, 12, 500000000, time.UTC)},
	}
	for _, tt := range tests {
		got, err := Parse(tt.literal)
		require.NoError(t, err, tt.literal)
		assert.True(t, got.Equal(tt.want), "parsed %s", tt.literal)
	}
}

func TestParsePartialLiteral(t *testing.T) {
	_, err := Parse("2021-05")
	var perr *PartialTimestampError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "2021-05", perr.Literal)
	assert.Equal(t, "-01T00:00:00Z", perr.Suffix)
}

func TestParseGarbage(t *testing.T) {
	for _, literal := range []string{"yesterday", "2021-13", "20210504", ""} {
		_, err := Parse(literal)
		require.Error(t, err, literal)
		var perr *PartialTimestampError
		assert.False(t, errors.As(err, &perr), "garbage should not be partial: %s", literal)
	}
}

func TestCompleteSuffix(t *testing.T) {
	tests := []struct {
		partial string
		suffix  string
	}{
		{"2021", "-01-01T00:00:00Z'"},
		{"2021-", "01-01T00:00:00Z'"},
		{"2021-05", "-01T00:00:00Z'"},
		{"2021-05-", "01T00:00:00Z'"},
		{"2021-05-04", "T00:00:00Z'"},
		{"2021-05-04T", "00:00:00Z'"},
		{"2021-05-04T07", ":00:00Z'"},
		{"2021-05-04T07:", "00:00Z'"},
		{"2021-05-04T07:30", ":00Z'"},
		{"2021-05-04T07:30:", "00Z'"},
		{"2021-05-04T07:30:00", "Z'"},
		{"2021-05-04T07:30:00Z", "'"},
		{"2021-05-04T07:30:00.123", "Z'"},
		{"2021-05-04T07:30:00.123Z", "'"},
	}
	for _, tt := range tests {
		suffix, ok := CompleteSuffix(tt.partial)
		require.True(t, ok, "partial %q", tt.partial)
		assert.Equal(t, tt.suffix, suffix, "partial %q", tt.partial)
	}
}

func TestCompleteSuffixRejects(t *testing.T) {
	for _, partial := range []string{
		"202",            // year not finished
		"2021-0",         // month cut mid-component
		"2021-13",        // impossible month
		"2021-05-04T25",  // impossible hour
		"2021/05",        // wrong separator
		"2021-05-04T07x", // wrong separator
		"2021-05-04T07:30:00ZZ",
	} {
		_, ok := CompleteSuffix(partial)
		assert.False(t, ok, "partial %q", partial)
	}
}

func TestRangeOverlaps(t *testing.T) {
	window := Range{
		Start: time.Date(2020, 6, 30, 19, 25, 0, 0, time.UTC),
		Stop:  time.Date(2020, 6, 30, 19, 26, 0, 0, time.UTC),
	}
	inside := time.Date(2020, 6, 30, 19, 25, 30, 0, time.UTC)
	before := time.Date(2020, 6, 30, 19, 0, 0, 0, time.UTC)
	after := time.Date(2020, 6, 30, 20, 0, 0, 0, time.UTC)

	assert.True(t, window.Overlaps(inside, inside))
	assert.True(t, window.Overlaps(before, inside), "straddles start")
	assert.True(t, window.Overlaps(inside, after), "straddles stop")
	assert.True(t, window.Overlaps(before, after), "covers window")
	assert.False(t, window.Overlaps(before, before))
	assert.False(t, window.Overlaps(after, after))
}
