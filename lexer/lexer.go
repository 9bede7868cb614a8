// Package lexer turns huntflow script text into a token stream.
//
// The lexer is mostly context-free; the one stateful wrinkle is data source
// URIs. A URI like file:///tmp/bundle.json would otherwise shatter into
// identifiers, colons and dots, so after emitting FROM the lexer switches
// into a path mode that consumes the next whitespace-delimited word as a
// single URI token.
package lexer

// ASCII character lookup tables for fast classification.
var (
	isWhitespace [128]bool
	isDigit      [128]bool
	isIdentStart [128]bool
	isIdentPart  [128]bool
	singleChar   [128]TokenType
)

func init() {
	for i := 0; i < 128; i++ {
		ch := byte(i)
		isWhitespace[i] = ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n' || ch == '\f'
		isDigit[i] = '0' <= ch && ch <= '9'
		letter := ('a' <= ch && ch <= 'z') || ('A' <= ch && ch <= 'Z')
		isIdentStart[i] = letter || ch == '_'
		isIdentPart[i] = letter || isDigit[i] || ch == '_' || ch == '-'
		singleChar[i] = ILLEGAL
	}

	singleChar['='] = EQUALS
	singleChar['['] = LBRACKET
	singleChar[']'] = RBRACKET
	singleChar['('] = LPAREN
	singleChar[')'] = RPAREN
	singleChar[','] = COMMA
	singleChar[':'] = COLON
	singleChar['.'] = DOT
}

// Lexer scans a huntflow script.
type Lexer struct {
	input  string
	pos    int
	line   int
	column int

	// uriPending is set after a FROM keyword: the next word is a URI.
	uriPending bool
}

// New creates a Lexer over the given script text.
func New(input string) *Lexer {
	return &Lexer{input: input, line: 1, column: 1}
}

// Lex scans the whole input and returns every token, ending with EOF.
func Lex(input string) []Token {
	l := New(input)
	var tokens []Token
	for {
		tok := l.Next()
		tokens = append(tokens, tok)
		if tok.Type == EOF {
			return tokens
		}
	}
}

func (l *Lexer) advance() {
	if l.pos < len(l.input) {
		if l.input[l.pos] == '\n' {
			l.line++
			l.column = 1
		} else {
			l.column++
		}
		l.pos++
	}
}

func (l *Lexer) peek() byte {
	if l.pos+1 < len(l.input) {
		return l.input[l.pos+1]
	}
	return 0
}

func (l *Lexer) skipWhitespaceAndComments() {
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		if ch < 128 && isWhitespace[ch] {
			l.advance()
			continue
		}
		if ch == '#' {
			for l.pos < len(l.input) && l.input[l.pos] != '\n' {
				l.advance()
			}
			continue
		}
		return
	}
}

// Next returns the next token in the stream.
func (l *Lexer) Next() Token {
	l.skipWhitespaceAndComments()

	tok := Token{Line: l.line, Column: l.column, Offset: l.pos, Terminated: true}
	if l.pos >= len(l.input) {
		tok.Type = EOF
		return tok
	}

	ch := l.input[l.pos]

	if l.uriPending {
		l.uriPending = false
		start := l.pos
		for l.pos < len(l.input) && !(l.input[l.pos] < 128 && isWhitespace[l.input[l.pos]]) {
			l.advance()
		}
		tok.Type = URI
		tok.Text = l.input[start:l.pos]
		return tok
	}

	switch {
	case ch == 't' && l.peek() == '\'':
		l.advance() // t
		l.advance() // opening quote
		return l.scanQuoted(tok, TIMESTAMP)

	case ch == '\'':
		l.advance()
		return l.scanQuoted(tok, STRING)

	case ch < 128 && isIdentStart[ch]:
		start := l.pos
		for l.pos < len(l.input) && l.input[l.pos] < 128 && isIdentPart[l.input[l.pos]] {
			l.advance()
		}
		tok.Text = l.input[start:l.pos]
		tok.Type = LookupIdent(tok.Text)
		if tok.Type == FROM {
			l.uriPending = true
		}
		return tok

	case ch < 128 && isDigit[ch]:
		start := l.pos
		for l.pos < len(l.input) && l.input[l.pos] < 128 && isDigit[l.input[l.pos]] {
			l.advance()
		}
		if l.pos < len(l.input) && l.input[l.pos] == '.' && l.peek() < 128 && isDigit[l.peek()] {
			l.advance()
			for l.pos < len(l.input) && l.input[l.pos] < 128 && isDigit[l.input[l.pos]] {
				l.advance()
			}
		}
		tok.Type = NUMBER
		tok.Text = l.input[start:l.pos]
		return tok

	case ch == '<':
		l.advance()
		if l.pos < len(l.input) && l.input[l.pos] == '=' {
			l.advance()
			tok.Type, tok.Text = LTE, "<="
			return tok
		}
		tok.Type, tok.Text = LT, "<"
		return tok

	case ch == '>':
		l.advance()
		if l.pos < len(l.input) && l.input[l.pos] == '=' {
			l.advance()
			tok.Type, tok.Text = GTE, ">="
			return tok
		}
		tok.Type, tok.Text = GT, ">"
		return tok
	}

	if ch < 128 && singleChar[ch] != ILLEGAL {
		tok.Type = singleChar[ch]
		tok.Text = string(ch)
		l.advance()
		return tok
	}

	tok.Type = ILLEGAL
	tok.Text = string(ch)
	l.advance()
	return tok
}

// scanQuoted consumes up to the closing single quote. The quote characters
// are not part of the token text. A missing closing quote yields an
// unterminated token rather than an error so that the completion engine can
// inspect the partial literal.
func (l *Lexer) scanQuoted(tok Token, typ TokenType) Token {
	start := l.pos
	for l.pos < len(l.input) && l.input[l.pos] != '\'' {
		l.advance()
	}
	tok.Type = typ
	tok.Text = l.input[start:l.pos]
	if l.pos < len(l.input) {
		l.advance() // closing quote
	} else {
		tok.Terminated = false
	}
	return tok
}
