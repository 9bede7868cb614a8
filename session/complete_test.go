package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDoCompleteTimestampSuffixes(t *testing.T) {
	tests := []struct {
		partial string
		suffix  string
	}{
		{"t'2021", "-01-01T00:00:00Z'"},
		{"t'2021-", "01-01T00:00:00Z'"},
		{"t'2021-05", "-01T00:00:00Z'"},
		{"t'2021-05-", "01T00:00:00Z'"},
		{"t'2021-05-04", "T00:00:00Z'"},
		{"t'2021-05-04T", "00:00:00Z'"},
		{"t'2021-05-04T07", ":00:00Z'"},
		{"t'2021-05-04T07:", "00:00Z'"},
		{"t'2021-05-04T07:30", ":00Z'"},
		{"t'2021-05-04T07:30:", "00Z'"},
		{"t'2021-05-04T07:30:00", "Z'"},
		{"t'2021-05-04T07:30:00.123", "Z'"},
	}
	sess := newTestSession(t)
	for _, tt := range tests {
		t.Run(tt.partial, func(t *testing.T) {
			script := "START " + tt.partial
			got := sess.DoComplete(script, len(script))
			assert.Equal(t, []string{tt.suffix}, got)

			script = "STOP " + tt.partial
			got = sess.DoComplete(script, len(script))
			assert.Equal(t, []string{tt.suffix}, got)
		})
	}
}

func TestDoCompleteNotApplicable(t *testing.T) {
	sess := newTestSession(t)
	tests := []struct {
		name   string
		script string
	}{
		{"mid component", "START t'2021-0"},
		{"impossible month", "START t'2021-13"},
		{"no start keyword", "WHERE t'2021"},
		{"closed literal", "START t'2021-05-04T07:30:00Z'"},
		{"not a timestamp", "SORT conns by dst_port"},
		{"bare prefix", "GET network"},
		{"empty", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Nil(t, sess.DoComplete(tt.script, len(tt.script)))
		})
	}
}

func TestDoCompleteCursorBounds(t *testing.T) {
	sess := newTestSession(t)
	script := "START t'2021 STOP t'2022-01-01T00:00:00Z'"

	// Cursor inside the open literal completes it; the text after the
	// cursor does not count.
	got := sess.DoComplete(script, len("START t'2021"))
	assert.Equal(t, []string{"-01-01T00:00:00Z'"}, got)

	assert.Nil(t, sess.DoComplete(script, -1))

	// A cursor past the end clamps to the end of the script.
	got = sess.DoComplete("START t'2021", 1000)
	assert.Equal(t, []string{"-01-01T00:00:00Z'"}, got)
}
