package lexer

import "strings"

// TokenType identifies a lexical token in a huntflow script.
type TokenType int

const (
	// Special tokens
	EOF TokenType = iota
	ILLEGAL

	// Literals and names
	IDENT     // variable names, SCO types, attribute names
	NUMBER    // 22, 3128, 0.5
	STRING    // '...' content without the quotes
	TIMESTAMP // t'...' content without t' and the closing quote
	URI       // data source URI following FROM

	// Keywords (matched case-insensitively)
	GET
	FROM
	WHERE
	START
	STOP
	SORT
	BY
	ASC
	DESC
	GROUP
	DISP
	ATTR
	AND
	OR
	LIKE

	// Operators and punctuation
	EQUALS   // = (assignment and equality comparison)
	LT       // <
	GT       // >
	LTE      // <=
	GTE      // >=
	LBRACKET // [
	RBRACKET // ]
	LPAREN   // (
	RPAREN   // )
	COMMA    // ,
	COLON    // :
	DOT      // .
)

var tokenNames = map[TokenType]string{
	EOF: "EOF", ILLEGAL: "ILLEGAL",
	IDENT: "IDENT", NUMBER: "NUMBER", STRING: "STRING", TIMESTAMP: "TIMESTAMP", URI: "URI",
	GET: "GET", FROM: "FROM", WHERE: "WHERE", START: "START", STOP: "STOP",
	SORT: "SORT", BY: "BY", ASC: "ASC", DESC: "DESC", GROUP: "GROUP",
	DISP: "DISP", ATTR: "ATTR", AND: "AND", OR: "OR", LIKE: "LIKE",
	EQUALS: "=", LT: "<", GT: ">", LTE: "<=", GTE: ">=",
	LBRACKET: "[", RBRACKET: "]", LPAREN: "(", RPAREN: ")",
	COMMA: ",", COLON: ":", DOT: ".",
}

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return "UNKNOWN"
}

// keywords maps the uppercase spelling to its token type. Identifiers are
// case-sensitive; keywords are not.
var keywords = map[string]TokenType{
	"GET": GET, "FROM": FROM, "WHERE": WHERE, "START": START, "STOP": STOP,
	"SORT": SORT, "BY": BY, "ASC": ASC, "DESC": DESC, "GROUP": GROUP,
	"DISP": DISP, "ATTR": ATTR, "AND": AND, "OR": OR, "LIKE": LIKE,
}

// Keywords returns the keyword spellings, for completion and error
// suggestions.
func Keywords() []string {
	names := make([]string, 0, len(keywords))
	for name := range keywords {
		names = append(names, name)
	}
	return names
}

// LookupIdent resolves an identifier against the keyword table.
func LookupIdent(text string) TokenType {
	if tok, ok := keywords[strings.ToUpper(text)]; ok {
		return tok
	}
	return IDENT
}

// Token is one lexical token with its source position (1-based line and
// column, 0-based byte offset).
type Token struct {
	Type   TokenType
	Text   string
	Line   int
	Column int
	Offset int

	// Terminated is false for STRING and TIMESTAMP literals whose closing
	// quote is missing. The completion engine relies on seeing the
	// unterminated literal rather than an error.
	Terminated bool
}
