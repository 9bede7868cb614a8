// Package timefmt parses huntflow timestamp literals and knows how to
// complete partial ones.
//
// A complete literal looks like 2021-05-04T07:30:00Z, optionally with
// fractional seconds. Scripts quote it as t'...'; the quotes are the
// lexer's business, this package only sees the inner text.
package timefmt

import (
	"fmt"
	"strings"
	"time"
)

// template is the literal shape of a complete timestamp up to the seconds
// component. Digit positions hold the default digit used when the component
// is missing; separators must match exactly.
const template = "0000-01-01T00:00:00"

// componentBoundaries are the prefix lengths at which a partial literal may
// be cut and still be completable: after each finished component and after
// the separator that follows it. Cutting mid-component (e.g. a lone minute
// digit) is not completable because padding could produce an invalid value.
var componentBoundaries = map[int]bool{
	4: true, 5: true, // year, year + "-"
	7: true, 8: true, // month, month + "-"
	10: true, 11: true, // day, day + "T"
	13: true, 14: true, // hour, hour + ":"
	16: true, 17: true, // minute, minute + ":"
	19: true, // second
}

// PartialTimestampError reports a literal that is a valid prefix of a
// timestamp but is not complete. Suffix holds the text that would complete
// it, without the closing quote.
type PartialTimestampError struct {
	Literal string
	Suffix  string
}

func (e *PartialTimestampError) Error() string {
	return fmt.Sprintf("partial timestamp %q (missing %q)", e.Literal, e.Suffix)
}

// Parse resolves a complete timestamp literal into a concrete instant.
// Incomplete but completable literals fail with *PartialTimestampError;
// anything else fails with a plain error.
func Parse(literal string) (time.Time, error) {
	ts, err := time.Parse(time.RFC3339, literal)
	if err == nil {
		return ts.UTC(), nil
	}
	if suffix, ok := CompleteSuffix(literal); ok && suffix != "" {
		return time.Time{}, &PartialTimestampError{Literal: literal, Suffix: strings.TrimSuffix(suffix, "'")}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp literal %q", literal)
}

// CompleteSuffix returns the single literal suffix that turns a partial
// timestamp into a complete, quoted one (closing quote included), following
// the defaulting table: missing month/day become 01, missing time components
// become zero, fractional seconds are omitted. The second return is false
// when the partial text can never become a valid timestamp.
func CompleteSuffix(partial string) (string, bool) {
	n := len(partial)

	// Fractional seconds and the trailing Z are handled past the template.
	if n > len(template) {
		rest := partial[len(template):]
		if _, err := time.Parse(time.RFC3339, partial[:len(template)]+"Z"); err != nil {
			return "", false
		}
		switch {
		case rest == "Z":
			return "'", true
		case strings.HasPrefix(rest, "."):
			frac := strings.TrimSuffix(rest[1:], "Z")
			for _, c := range frac {
				if c < '0' || c > '9' {
					return "", false
				}
			}
			if len(frac) == 0 || len(frac) > 6 {
				return "", false
			}
			if strings.HasSuffix(rest, "Z") {
				return "'", true
			}
			return "Z'", true
		default:
			return "", false
		}
	}

	for i := 0; i < n; i++ {
		t := template[i]
		c := partial[i]
		if t >= '0' && t <= '9' {
			if c < '0' || c > '9' {
				return "", false
			}
			continue
		}
		if c != t {
			return "", false
		}
	}
	if !componentBoundaries[n] {
		return "", false
	}
	// Everything typed so far is valid; parse with defaults to reject
	// impossible component values (month 13, hour 31, ...).
	completed := partial + template[n:]
	if _, err := time.Parse(time.RFC3339, completed+"Z"); err != nil {
		return "", false
	}
	return template[n:] + "Z'", true
}

// Range is an observation time window with inclusive bounds.
type Range struct {
	Start time.Time
	Stop  time.Time
}

// Overlaps reports whether an observation spanning [first, last] intersects
// the window.
func (r Range) Overlaps(first, last time.Time) bool {
	return !first.After(r.Stop) && !last.Before(r.Start)
}
