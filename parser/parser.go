// Package parser turns huntflow script text into statement nodes.
//
// Parsing is pure: it never touches session state, and the first malformed
// token wins. The grammar is deliberately small — see the package-level
// Parse for the statement forms.
package parser

import (
	"strconv"
	"time"

	"github.com/huntflow-lang/huntflow/ast"
	"github.com/huntflow-lang/huntflow/lexer"
	"github.com/huntflow-lang/huntflow/timefmt"
)

// Parse parses a script into its ordered statement list.
//
// A script is one or more statements separated by whitespace. Each statement
// is either `<name> = <expr>` or a bare `<expr>` whose result binds to `_`:
//
//	GET <sco_type> FROM <uri> [WHERE <pattern>] [START t'<ts>' STOP t'<ts>']
//	SORT <var> BY <path> [ASC|DESC]
//	GROUP <var> BY <path>[, <path>]*
//	DISP <var> [ATTR <path>[, <path>]*]
func Parse(script string) ([]ast.Statement, error) {
	p := &parser{tokens: lexer.Lex(script)}

	var stmts []ast.Statement
	for !p.at(lexer.EOF) {
		stmt, err := p.statement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
	if len(stmts) == 0 {
		return nil, &ParseError{Line: 1, Column: 1, Message: "empty script"}
	}
	return stmts, nil
}

type parser struct {
	tokens []lexer.Token
	pos    int
}

func (p *parser) cur() lexer.Token { return p.tokens[p.pos] }

func (p *parser) peek() lexer.Token {
	if p.pos+1 < len(p.tokens) {
		return p.tokens[p.pos+1]
	}
	return p.tokens[len(p.tokens)-1]
}

func (p *parser) at(t lexer.TokenType) bool { return p.cur().Type == t }

func (p *parser) next() lexer.Token {
	tok := p.cur()
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return tok
}

func (p *parser) expect(t lexer.TokenType, context string) (lexer.Token, error) {
	if !p.at(t) {
		return lexer.Token{}, errorAt(p.cur(), "expected %s in %s, found %q", t, context, p.cur().Text)
	}
	return p.next(), nil
}

func (p *parser) statement() (ast.Statement, error) {
	target := ast.ResultVariable
	if p.at(lexer.IDENT) && p.peek().Type == lexer.EQUALS {
		target = p.next().Text
		p.next() // =
	}

	switch p.cur().Type {
	case lexer.GET:
		return p.getStatement(target)
	case lexer.SORT:
		return p.sortStatement(target)
	case lexer.GROUP:
		return p.groupStatement(target)
	case lexer.DISP:
		if target != ast.ResultVariable {
			return nil, errorAt(p.cur(), "DISP produces display output and cannot be assigned")
		}
		return p.dispStatement()
	case lexer.IDENT:
		err := errorAt(p.cur(), "unknown command %q", p.cur().Text)
		err.Suggestions = suggestKeywords(p.cur().Text)
		return nil, err
	default:
		return nil, errorAt(p.cur(), "expected a command, found %q", p.cur().Text)
	}
}

func (p *parser) getStatement(target string) (ast.Statement, error) {
	p.next() // GET

	scoType, err := p.expect(lexer.IDENT, "GET")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.FROM, "GET"); err != nil {
		return nil, err
	}
	source, err := p.expect(lexer.URI, "GET")
	if err != nil {
		return nil, err
	}

	stmt := &ast.Get{Target: target, SCOType: scoType.Text, Source: source.Text}

	if p.at(lexer.WHERE) {
		p.next()
		expr, err := p.pattern()
		if err != nil {
			return nil, err
		}
		stmt.Where = expr
	}

	if p.at(lexer.START) {
		frame, err := p.timeframe()
		if err != nil {
			return nil, err
		}
		stmt.Frame = frame
	}
	return stmt, nil
}

func (p *parser) timeframe() (*timefmt.Range, error) {
	p.next() // START
	start, err := p.timestamp()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.STOP, "timeframe"); err != nil {
		return nil, err
	}
	stop, err := p.timestamp()
	if err != nil {
		return nil, err
	}
	return &timefmt.Range{Start: start, Stop: stop}, nil
}

func (p *parser) timestamp() (time.Time, error) {
	tok, err := p.expect(lexer.TIMESTAMP, "timeframe")
	if err != nil {
		return time.Time{}, err
	}
	if !tok.Terminated {
		return time.Time{}, errorAt(tok, "unterminated timestamp literal t'%s", tok.Text)
	}
	ts, perr := timefmt.Parse(tok.Text)
	if perr != nil {
		return time.Time{}, errorAt(tok, "%v", perr)
	}
	return ts, nil
}

func (p *parser) sortStatement(target string) (ast.Statement, error) {
	p.next() // SORT

	variable, err := p.expect(lexer.IDENT, "SORT")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.BY, "SORT"); err != nil {
		return nil, err
	}
	field, err := p.path(false)
	if err != nil {
		return nil, err
	}

	stmt := &ast.Sort{Target: target, Variable: variable.Text, Field: field}
	switch p.cur().Type {
	case lexer.ASC:
		p.next()
	case lexer.DESC:
		p.next()
		stmt.Descending = true
	}
	return stmt, nil
}

func (p *parser) groupStatement(target string) (ast.Statement, error) {
	p.next() // GROUP

	variable, err := p.expect(lexer.IDENT, "GROUP")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.BY, "GROUP"); err != nil {
		return nil, err
	}
	fields, err := p.pathList()
	if err != nil {
		return nil, err
	}
	return &ast.Group{Target: target, Variable: variable.Text, Fields: fields}, nil
}

func (p *parser) dispStatement() (ast.Statement, error) {
	p.next() // DISP

	variable, err := p.expect(lexer.IDENT, "DISP")
	if err != nil {
		return nil, err
	}
	stmt := &ast.Disp{Variable: variable.Text}
	if p.at(lexer.ATTR) {
		p.next()
		attrs, err := p.pathList()
		if err != nil {
			return nil, err
		}
		stmt.Attrs = attrs
	}
	return stmt, nil
}

func (p *parser) pathList() ([]ast.Path, error) {
	var paths []ast.Path
	for {
		path, err := p.path(false)
		if err != nil {
			return nil, err
		}
		paths = append(paths, path)
		if !p.at(lexer.COMMA) {
			return paths, nil
		}
		p.next()
	}
}

// path parses `[<sco_type>:]<field>[.<subfield>]*`. In pattern context the
// SCO-type prefix is mandatory; elsewhere it may be omitted and resolves
// against the variable's own type.
func (p *parser) path(requireType bool) (ast.Path, error) {
	first, err := p.expect(lexer.IDENT, "attribute path")
	if err != nil {
		return ast.Path{}, err
	}

	var path ast.Path
	if p.at(lexer.COLON) {
		p.next()
		field, err := p.expect(lexer.IDENT, "attribute path")
		if err != nil {
			return ast.Path{}, err
		}
		path = ast.Path{SCOType: first.Text, Field: field.Text}
	} else {
		if requireType {
			return ast.Path{}, errorAt(first, "pattern paths need an SCO type prefix, e.g. %s:%s", "network-traffic", first.Text)
		}
		path = ast.Path{Field: first.Text}
	}

	for p.at(lexer.DOT) {
		p.next()
		sub, err := p.expect(lexer.IDENT, "attribute path")
		if err != nil {
			return ast.Path{}, err
		}
		path.Field += "." + sub.Text
	}
	return path, nil
}

// pattern parses `[ <or-expr> ]`. AND binds tighter than OR; parentheses
// override.
func (p *parser) pattern() (ast.Expr, error) {
	if _, err := p.expect(lexer.LBRACKET, "WHERE pattern"); err != nil {
		return nil, err
	}
	expr, err := p.orExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.RBRACKET, "WHERE pattern"); err != nil {
		return nil, err
	}
	return expr, nil
}

func (p *parser) orExpr() (ast.Expr, error) {
	left, err := p.andExpr()
	if err != nil {
		return nil, err
	}
	for p.at(lexer.OR) {
		p.next()
		right, err := p.andExpr()
		if err != nil {
			return nil, err
		}
		left = &ast.Binary{Op: ast.Or, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) andExpr() (ast.Expr, error) {
	left, err := p.primaryExpr()
	if err != nil {
		return nil, err
	}
	for p.at(lexer.AND) {
		p.next()
		right, err := p.primaryExpr()
		if err != nil {
			return nil, err
		}
		left = &ast.Binary{Op: ast.And, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) primaryExpr() (ast.Expr, error) {
	if p.at(lexer.LPAREN) {
		p.next()
		expr, err := p.orExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.RPAREN, "pattern group"); err != nil {
			return nil, err
		}
		return expr, nil
	}
	return p.comparison()
}

func (p *parser) comparison() (ast.Expr, error) {
	path, err := p.path(true)
	if err != nil {
		return nil, err
	}

	var op ast.Operator
	switch p.cur().Type {
	case lexer.EQUALS:
		op = ast.OpEqual
	case lexer.LT:
		op = ast.OpLess
	case lexer.GT:
		op = ast.OpGreater
	case lexer.LTE:
		op = ast.OpLessEqual
	case lexer.GTE:
		op = ast.OpGreaterEqual
	case lexer.LIKE:
		op = ast.OpLike
	default:
		return nil, errorAt(p.cur(), "expected a comparison operator, found %q", p.cur().Text)
	}
	p.next()

	value, err := p.value()
	if err != nil {
		return nil, err
	}
	return &ast.Comparison{Path: path, Op: op, Value: value}, nil
}

func (p *parser) value() (ast.Value, error) {
	tok := p.cur()
	switch tok.Type {
	case lexer.STRING:
		if !tok.Terminated {
			return nil, errorAt(tok, "unterminated string literal")
		}
		p.next()
		return ast.StringLit(tok.Text), nil

	case lexer.NUMBER:
		p.next()
		n, err := strconv.ParseFloat(tok.Text, 64)
		if err != nil {
			return nil, errorAt(tok, "invalid number %q", tok.Text)
		}
		return ast.NumberLit(n), nil

	case lexer.IDENT:
		// var.field reference, expanded by the pattern compiler.
		variable := p.next().Text
		if _, err := p.expect(lexer.DOT, "variable field reference"); err != nil {
			return nil, err
		}
		field, err := p.expect(lexer.IDENT, "variable field reference")
		if err != nil {
			return nil, err
		}
		return ast.FieldRef{Variable: variable, Field: field.Text}, nil

	default:
		return nil, errorAt(tok, "expected a literal or variable field reference, found %q", tok.Text)
	}
}
