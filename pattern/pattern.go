// Package pattern compiles WHERE-clause pattern trees into executable row
// predicates.
//
// Comparisons against a literal become direct tests on the row's attribute.
// Comparisons against another variable's column (conns_a.dst_port) become a
// "generated pattern": a disjunction of equality tests over that column's
// distinct values, plus a derived time window from the referenced rows'
// observation timestamps.
package pattern

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/huntflow-lang/huntflow/ast"
	"github.com/huntflow-lang/huntflow/symtable"
	"github.com/huntflow-lang/huntflow/timefmt"
)

// PatternError reports a pattern construct the compiler cannot resolve.
type PatternError struct {
	Msg string
}

func (e *PatternError) Error() string { return "pattern error: " + e.Msg }

// Predicate is a compiled pattern: a row matcher plus an optional time
// window derived from referenced variables.
type Predicate struct {
	match   func(symtable.Row) bool
	derived *timefmt.Range
}

// Match reports whether a row satisfies the pattern.
func (p *Predicate) Match(row symtable.Row) bool {
	return p.match(row)
}

// Window resolves the effective time window for a statement. An explicit
// START/STOP always overrides any window derived from referenced variables.
func (p *Predicate) Window(explicit *timefmt.Range) *timefmt.Range {
	if explicit != nil {
		return explicit
	}
	if p == nil {
		return nil
	}
	return p.derived
}

// Compile turns a pattern tree into a predicate. The store is read to
// expand variable field references; compilation never mutates it.
func Compile(expr ast.Expr, store *symtable.Store) (*Predicate, error) {
	c := &compiler{store: store}
	match, err := c.compile(expr)
	if err != nil {
		return nil, err
	}
	return &Predicate{match: match, derived: c.derived}, nil
}

type compiler struct {
	store   *symtable.Store
	derived *timefmt.Range
}

func (c *compiler) compile(expr ast.Expr) (func(symtable.Row) bool, error) {
	switch e := expr.(type) {
	case *ast.Binary:
		left, err := c.compile(e.Left)
		if err != nil {
			return nil, err
		}
		right, err := c.compile(e.Right)
		if err != nil {
			return nil, err
		}
		if e.Op == ast.And {
			return func(row symtable.Row) bool { return left(row) && right(row) }, nil
		}
		return func(row symtable.Row) bool { return left(row) || right(row) }, nil

	case *ast.Comparison:
		return c.comparison(e)

	default:
		return nil, &PatternError{Msg: fmt.Sprintf("unsupported pattern node %T", expr)}
	}
}

func (c *compiler) comparison(cmp *ast.Comparison) (func(symtable.Row) bool, error) {
	scoType := cmp.Path.SCOType
	field := cmp.Path.Field

	switch v := cmp.Value.(type) {
	case ast.StringLit:
		return literalMatcher(scoType, field, cmp.Op, string(v))

	case ast.NumberLit:
		return literalMatcher(scoType, field, cmp.Op, float64(v))

	case ast.FieldRef:
		return c.generated(cmp, v)

	default:
		return nil, &PatternError{Msg: fmt.Sprintf("unsupported comparison value %T", cmp.Value)}
	}
}

// generated expands a variable field reference into a membership test over
// the referenced column's distinct non-null values. An empty distinct set
// matches nothing; that is a data condition, not an error.
func (c *compiler) generated(cmp *ast.Comparison, ref ast.FieldRef) (func(symtable.Row) bool, error) {
	if cmp.Op != ast.OpEqual {
		return nil, &PatternError{Msg: fmt.Sprintf("variable field references only support =, got %s", cmp.Op)}
	}

	v, err := c.store.Get(ref.Variable)
	if err != nil {
		return nil, err
	}
	values := v.Table().DistinctValues(ref.Field)

	if r, ok := v.Table().ObservedRange(); ok {
		c.mergeDerived(r)
	}

	if len(values) == 0 {
		return func(symtable.Row) bool { return false }, nil
	}

	set := make(map[any]bool, len(values))
	for _, val := range values {
		set[val] = true
	}
	scoType, field := cmp.Path.SCOType, cmp.Path.Field
	return func(row symtable.Row) bool {
		if !typeMatches(row, scoType) {
			return false
		}
		val, ok := row[field]
		if !ok || val == nil {
			return false
		}
		return set[val]
	}, nil
}

// mergeDerived widens the derived window to cover another referenced
// variable's observed range.
func (c *compiler) mergeDerived(r timefmt.Range) {
	if c.derived == nil {
		window := r
		c.derived = &window
		return
	}
	if r.Start.Before(c.derived.Start) {
		c.derived.Start = r.Start
	}
	if r.Stop.After(c.derived.Stop) {
		c.derived.Stop = r.Stop
	}
}

func literalMatcher(scoType, field string, op ast.Operator, literal any) (func(symtable.Row) bool, error) {
	if op == ast.OpLike {
		s, ok := literal.(string)
		if !ok {
			return nil, &PatternError{Msg: "LIKE needs a string pattern"}
		}
		re, err := likeRegexp(s)
		if err != nil {
			return nil, &PatternError{Msg: fmt.Sprintf("bad LIKE pattern %q", s)}
		}
		return func(row symtable.Row) bool {
			if !typeMatches(row, scoType) {
				return false
			}
			val, ok := row[field].(string)
			return ok && re.MatchString(val)
		}, nil
	}

	return func(row symtable.Row) bool {
		if !typeMatches(row, scoType) {
			return false
		}
		val, ok := row[field]
		if !ok || val == nil {
			return false
		}
		return compare(val, op, literal)
	}, nil
}

// typeMatches keeps a comparison scoped to rows of its own SCO type. A
// prefix naming a different type simply never matches; unknown fields
// behave the same way.
func typeMatches(row symtable.Row, scoType string) bool {
	if scoType == "" {
		return true
	}
	rowType, ok := row["type"].(string)
	return !ok || rowType == scoType
}

// compare applies an ordering or equality operator. Numbers compare
// numerically, strings lexicographically; mixed types never match.
func compare(val any, op ast.Operator, literal any) bool {
	if ln, ok := toFloat(literal); ok {
		vn, ok := toFloat(val)
		if !ok {
			return false
		}
		switch op {
		case ast.OpEqual:
			return vn == ln
		case ast.OpLess:
			return vn < ln
		case ast.OpGreater:
			return vn > ln
		case ast.OpLessEqual:
			return vn <= ln
		case ast.OpGreaterEqual:
			return vn >= ln
		}
		return false
	}

	ls, ok := literal.(string)
	if !ok {
		return false
	}
	vs, ok := val.(string)
	if !ok {
		return false
	}
	switch op {
	case ast.OpEqual:
		return vs == ls
	case ast.OpLess:
		return vs < ls
	case ast.OpGreater:
		return vs > ls
	case ast.OpLessEqual:
		return vs <= ls
	case ast.OpGreaterEqual:
		return vs >= ls
	}
	return false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// likeRegexp translates a LIKE pattern into an anchored regexp. Only % is
// special (any run of characters); matching is case-sensitive.
func likeRegexp(pattern string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString("^")
	for i, part := range strings.Split(pattern, "%") {
		if i > 0 {
			b.WriteString(".*")
		}
		b.WriteString(regexp.QuoteMeta(part))
	}
	b.WriteString("$")
	return regexp.Compile(b.String())
}
