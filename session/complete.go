package session

import (
	"github.com/huntflow-lang/huntflow/lexer"
	"github.com/huntflow-lang/huntflow/timefmt"
)

// DoComplete proposes literal completions for the token under the cursor.
// It only applies when the cursor sits inside an open t'... timestamp
// literal of a START/STOP clause; everything else yields no suggestions.
// The single suggestion is the suffix that completes the literal per the
// timestamp defaulting table, closing quote included.
func (s *Session) DoComplete(script string, cursor int) []string {
	if cursor < 0 {
		return nil
	}
	if cursor > len(script) {
		cursor = len(script)
	}

	tokens := lexer.Lex(script[:cursor])
	if len(tokens) < 3 {
		return nil
	}

	// An unterminated timestamp at the cursor lexes as the final token
	// before EOF.
	ts := tokens[len(tokens)-2]
	kw := tokens[len(tokens)-3]
	if ts.Type != lexer.TIMESTAMP || ts.Terminated {
		return nil
	}
	if kw.Type != lexer.START && kw.Type != lexer.STOP {
		return nil
	}

	suffix, ok := timefmt.CompleteSuffix(ts.Text)
	if !ok {
		return nil
	}
	return []string{suffix}
}
