// Package display holds the value types a session execution hands back to
// callers: rendered entity tables and non-fatal error messages.
package display

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/huntflow-lang/huntflow/symtable"
)

// Result is one unit of output from executing a script: either a Display or
// an ErrorMessage. Callers distinguish data-condition failures by checking
// for ErrorMessage (its text carries the [ERROR] marker).
type Result interface {
	fmt.Stringer
	result()
}

// Display is a rendered entity table. Columns fixes the attribute order;
// Rows are projected onto exactly those columns.
type Display struct {
	Variable string
	Columns  []string
	Rows     []symtable.Row
}

func (d *Display) result() {}

// String renders the table as aligned text, columns in declared order.
func (d *Display) String() string {
	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)

	fmt.Fprintln(w, strings.Join(d.Columns, "\t"))
	for _, row := range d.Rows {
		cells := make([]string, len(d.Columns))
		for i, col := range d.Columns {
			if v, ok := row[col]; ok && v != nil {
				cells[i] = formatValue(v)
			}
		}
		fmt.Fprintln(w, strings.Join(cells, "\t"))
	}
	w.Flush()
	return b.String()
}

func formatValue(v any) string {
	if f, ok := v.(float64); ok && f == float64(int64(f)) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%v", v)
}

// ErrorMessage is a non-fatal data-condition failure surfaced as a result
// value rather than a raised error.
type ErrorMessage string

// Errorf builds an ErrorMessage with the [ERROR] marker prefix.
func Errorf(format string, args ...any) ErrorMessage {
	return ErrorMessage("[ERROR] " + fmt.Sprintf(format, args...))
}

func (e ErrorMessage) result() {}

func (e ErrorMessage) String() string { return string(e) }
