package session

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/huntflow-lang/huntflow/ast"
	"github.com/huntflow-lang/huntflow/display"
	"github.com/huntflow-lang/huntflow/parser"
	"github.com/huntflow-lang/huntflow/pattern"
	"github.com/huntflow-lang/huntflow/symtable"
	"github.com/huntflow-lang/huntflow/timefmt"
)

// TypeMismatchError reports a DISP attribute whose explicit SCO-type prefix
// names a different type than the variable's own. This is a script bug,
// not a data condition, so it is raised rather than reported as a result.
type TypeMismatchError struct {
	Variable string
	Declared string
	Prefixed string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("attribute prefix %q does not match type %q of variable %q",
		e.Prefixed, e.Declared, e.Variable)
}

// Execute parses and runs a script, one statement at a time in document
// order. It returns one Result per DISP statement. A data-condition
// failure (missing source, unreadable bundle) appends an ErrorMessage and
// short-circuits; language misuse (bad syntax, unknown variable, type
// mismatch) aborts with a raised error, leaving already-completed bindings
// in place.
func (s *Session) Execute(script string) ([]display.Result, error) {
	stmts, err := parser.Parse(script)
	if err != nil {
		return nil, err
	}

	var results []display.Result
	for _, stmt := range stmts {
		res, err := s.executeStatement(stmt)
		if err != nil {
			return nil, err
		}
		if res != nil {
			results = append(results, res)
			if _, failed := res.(display.ErrorMessage); failed {
				return results, nil
			}
		}
	}
	return results, nil
}

func (s *Session) executeStatement(stmt ast.Statement) (display.Result, error) {
	switch st := stmt.(type) {
	case *ast.Get:
		return s.executeGet(st)
	case *ast.Sort:
		return nil, s.executeSort(st)
	case *ast.Group:
		return nil, s.executeGroup(st)
	case *ast.Disp:
		return s.executeDisp(st)
	default:
		return nil, fmt.Errorf("unhandled statement %T", stmt)
	}
}

// bind stores a statement result under its target and mirrors it into the
// reserved result variable.
func (s *Session) bind(target, scoType string, rows []symtable.Row) {
	s.store.Create(target, scoType, rows)
	if target != ast.ResultVariable {
		s.store.Create(ast.ResultVariable, scoType, rows)
	}
}

func (s *Session) executeGet(st *ast.Get) (display.Result, error) {
	var pred *pattern.Predicate
	if st.Where != nil {
		compiled, err := pattern.Compile(st.Where, s.store)
		if err != nil {
			return nil, err
		}
		pred = compiled
	}

	src, err := s.sources.Lookup(st.Source)
	if err != nil {
		return display.Errorf("%v", err), nil
	}

	raw, err := src.Fetch(context.Background(), st.SCOType, st.Source)
	if err != nil {
		return display.Errorf("fetching %s from %s: %v", st.SCOType, st.Source, err), nil
	}
	s.logger.Debug("fetched entities", "sco_type", st.SCOType, "source", st.Source, "rows", len(raw))

	window := pred.Window(st.Frame)
	var rows []symtable.Row
	for _, row := range raw {
		if pred != nil && !pred.Match(row) {
			continue
		}
		if window != nil && !rowInWindow(row, *window) {
			continue
		}
		rows = append(rows, row)
	}

	// Zero matches still binds a valid, empty variable.
	s.bind(st.Target, st.SCOType, rows)
	s.logger.Debug("variable bound", "name", st.Target, "rows", len(rows))
	return nil, nil
}

// rowInWindow keeps rows whose observation span intersects the window.
// Rows without parseable timestamps are excluded once a window applies.
func rowInWindow(row symtable.Row, window timefmt.Range) bool {
	first, ok := rowTimestamp(row, symtable.FirstObserved)
	if !ok {
		return false
	}
	last, ok := rowTimestamp(row, symtable.LastObserved)
	if !ok {
		return false
	}
	return window.Overlaps(first, last)
}

func rowTimestamp(row symtable.Row, field string) (time.Time, bool) {
	s, ok := row[field].(string)
	if !ok {
		return time.Time{}, false
	}
	ts, err := timefmt.Parse(s)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}

func (s *Session) executeSort(st *ast.Sort) error {
	v, err := s.store.Get(st.Variable)
	if err != nil {
		return err
	}
	if err := checkAttrType(v, st.Field); err != nil {
		return err
	}

	rows := v.Table().Rows()
	field := st.Field.Field
	sort.SliceStable(rows, func(i, j int) bool {
		if st.Descending {
			return valueLess(rows[j][field], rows[i][field])
		}
		return valueLess(rows[i][field], rows[j][field])
	})

	s.bind(st.Target, v.Type, rows)
	return nil
}

// valueLess orders mixed attribute values: missing values first, then
// numbers, then everything else by string form.
func valueLess(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b != nil
	}
	an, aok := numeric(a)
	bn, bok := numeric(b)
	if aok && bok {
		return an < bn
	}
	if aok != bok {
		return aok
	}
	return fmt.Sprintf("%v", a) < fmt.Sprintf("%v", b)
}

func numeric(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func (s *Session) executeGroup(st *ast.Group) error {
	v, err := s.store.Get(st.Variable)
	if err != nil {
		return err
	}
	fields := make([]string, len(st.Fields))
	for i, f := range st.Fields {
		if err := checkAttrType(v, f); err != nil {
			return err
		}
		fields[i] = f.Field
	}

	type group struct {
		row   symtable.Row
		count int
	}
	groups := make(map[string]*group)
	var order []string

	for _, row := range v.Table().Rows() {
		var keyParts []string
		out := symtable.Row{"type": v.Type}
		for _, field := range fields {
			val := row[field]
			keyParts = append(keyParts, fmt.Sprintf("%v", val))
			out[field] = val
		}
		key := strings.Join(keyParts, "\x00")
		g, ok := groups[key]
		if !ok {
			g = &group{row: out}
			groups[key] = g
			order = append(order, key)
		}
		g.count++
	}

	rows := make([]symtable.Row, 0, len(order))
	for _, key := range order {
		g := groups[key]
		g.row["number_observed"] = float64(g.count)
		rows = append(rows, g.row)
	}

	s.bind(st.Target, v.Type, rows)
	return nil
}

func (s *Session) executeDisp(st *ast.Disp) (display.Result, error) {
	v, err := s.store.Get(st.Variable)
	if err != nil {
		return nil, err
	}

	var columns []string
	if st.Attrs != nil {
		for _, attr := range st.Attrs {
			if err := checkAttrType(v, attr); err != nil {
				return nil, err
			}
			columns = append(columns, attr.Field)
		}
	} else {
		columns = naturalColumns(v.Table().Rows())
	}

	rows := v.Table().Rows()
	projected := make([]symtable.Row, len(rows))
	for i, row := range rows {
		out := make(symtable.Row, len(columns))
		for _, col := range columns {
			if val, ok := row[col]; ok {
				out[col] = val
			}
		}
		projected[i] = out
	}

	return &display.Display{Variable: st.Variable, Columns: columns, Rows: projected}, nil
}

// checkAttrType validates an attribute path's explicit SCO-type prefix
// against the variable's declared type. An omitted prefix resolves
// implicitly.
func checkAttrType(v *symtable.Variable, path ast.Path) error {
	if path.SCOType != "" && path.SCOType != v.Type {
		return &TypeMismatchError{Variable: v.Name, Declared: v.Type, Prefixed: path.SCOType}
	}
	return nil
}

// naturalColumns is the attribute order used when DISP has no ATTR clause:
// type first, then the remaining attributes sorted.
func naturalColumns(rows []symtable.Row) []string {
	seen := make(map[string]bool)
	var columns []string
	for _, row := range rows {
		for col := range row {
			if !seen[col] {
				seen[col] = true
				columns = append(columns, col)
			}
		}
	}
	sort.Slice(columns, func(i, j int) bool {
		if (columns[i] == "type") != (columns[j] == "type") {
			return columns[i] == "type"
		}
		return columns[i] < columns[j]
	})
	return columns
}
