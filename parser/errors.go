package parser

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/huntflow-lang/huntflow/lexer"
)

// ParseError reports the first malformed token in a script along with its
// position. Suggestions holds likely intended keywords when the offending
// token looks like a misspelling.
type ParseError struct {
	Line        int
	Column      int
	Message     string
	Suggestions []string
}

func (e *ParseError) Error() string {
	msg := fmt.Sprintf("parse error at line %d, column %d: %s", e.Line, e.Column, e.Message)
	if len(e.Suggestions) > 0 {
		msg += fmt.Sprintf(" (did you mean %s?)", strings.Join(e.Suggestions, " or "))
	}
	return msg
}

func errorAt(tok lexer.Token, format string, args ...any) *ParseError {
	return &ParseError{
		Line:    tok.Line,
		Column:  tok.Column,
		Message: fmt.Sprintf(format, args...),
	}
}

// suggestKeywords ranks the keyword set against a stray identifier. Only
// close matches are offered; an unrelated word gets no suggestion.
func suggestKeywords(text string) []string {
	upper := strings.ToUpper(text)

	type ranked struct {
		keyword  string
		distance int
	}
	var candidates []ranked
	for _, kw := range lexer.Keywords() {
		d := fuzzy.LevenshteinDistance(upper, kw)
		if d <= 2 && d < len(kw) {
			candidates = append(candidates, ranked{kw, d})
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].distance != candidates[j].distance {
			return candidates[i].distance < candidates[j].distance
		}
		return candidates[i].keyword < candidates[j].keyword
	})

	var out []string
	for _, c := range candidates {
		out = append(out, c.keyword)
		if len(out) == 2 {
			break
		}
	}
	return out
}
