// Package symtable owns the named variables of a huntflow session.
//
// A variable pairs a declared SCO type with an entity table. Tables are
// replaced wholesale on rebinding and never mutated in place, so a table
// handed out to a caller stays valid even after the variable moves on.
package symtable

import (
	"fmt"
	"sort"
	"time"

	"github.com/huntflow-lang/huntflow/timefmt"
)

// Row maps flattened attribute paths (dst_port, src_ref.value, ...) to
// values. Numbers are float64, matching JSON decoding.
type Row map[string]any

// Attribute names carrying observation timestamps on fetched rows.
const (
	FirstObserved = "first_observed"
	LastObserved  = "last_observed"
)

// EntityTable is an ordered, immutable collection of rows of one SCO type.
type EntityTable struct {
	rows []Row
}

// NewEntityTable wraps rows in a table. The slice is owned by the table
// afterwards; callers must not keep writing to it.
func NewEntityTable(rows []Row) *EntityTable {
	return &EntityTable{rows: rows}
}

// Len returns the number of rows.
func (t *EntityTable) Len() int { return len(t.rows) }

// Rows returns the rows in order. The returned slice is a copy; the row
// maps themselves are shared and must be treated as read-only.
func (t *EntityTable) Rows() []Row {
	out := make([]Row, len(t.rows))
	copy(out, t.rows)
	return out
}

// DistinctValues returns the distinct non-null values of one attribute, in
// first-seen order.
func (t *EntityTable) DistinctValues(field string) []any {
	seen := make(map[any]bool)
	var out []any
	for _, row := range t.rows {
		v, ok := row[field]
		if !ok || v == nil {
			continue
		}
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

// ObservedRange derives the time window spanned by the table's rows from
// their observation timestamps. It reports false when no row carries a
// parseable timestamp pair.
func (t *EntityTable) ObservedRange() (timefmt.Range, bool) {
	var r timefmt.Range
	found := false
	for _, row := range t.rows {
		first, ok1 := rowTime(row, FirstObserved)
		last, ok2 := rowTime(row, LastObserved)
		if !ok1 || !ok2 {
			continue
		}
		if !found {
			r = timefmt.Range{Start: first, Stop: last}
			found = true
			continue
		}
		if first.Before(r.Start) {
			r.Start = first
		}
		if last.After(r.Stop) {
			r.Stop = last
		}
	}
	return r, found
}

func rowTime(row Row, field string) (time.Time, bool) {
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

// Variable is a named, typed binding of an entity table.
type Variable struct {
	Name string
	Type string

	table *EntityTable
}

// Table returns the variable's current entity table.
func (v *Variable) Table() *EntityTable { return v.table }

// UnknownVariableError reports a reference to a name that is not bound in
// the store.
type UnknownVariableError struct {
	Name string
}

func (e *UnknownVariableError) Error() string {
	return fmt.Sprintf("unknown variable %q", e.Name)
}

// Store is a session's variable symbol table. It is private to one session
// and must not be shared across execution contexts.
type Store struct {
	vars map[string]*Variable
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{vars: make(map[string]*Variable)}
}

// Create binds name to a fresh variable of the given type. An existing
// binding is replaced entirely, dropping its old table and type.
func (s *Store) Create(name, scoType string, rows []Row) *Variable {
	v := &Variable{Name: name, Type: scoType, table: NewEntityTable(rows)}
	s.vars[name] = v
	return v
}

// Get looks up a bound variable.
func (s *Store) Get(name string) (*Variable, error) {
	v, ok := s.vars[name]
	if !ok {
		return nil, &UnknownVariableError{Name: name}
	}
	return v, nil
}

// Rebind replaces a variable's table, keeping its declared type. Changing
// the type requires a full Create.
func (s *Store) Rebind(name string, rows []Row) error {
	v, ok := s.vars[name]
	if !ok {
		return &UnknownVariableError{Name: name}
	}
	v.table = NewEntityTable(rows)
	return nil
}

// Names returns the bound names in sorted order.
func (s *Store) Names() []string {
	names := make([]string, 0, len(s.vars))
	for name := range s.vars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns the current bindings as a name-keyed map copy.
func (s *Store) All() map[string]*Variable {
	out := make(map[string]*Variable, len(s.vars))
	for name, v := range s.vars {
		out[name] = v
	}
	return out
}
