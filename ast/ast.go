// Package ast defines the statement and pattern nodes produced by the
// huntflow parser. Both hierarchies are closed sets: the executor and the
// pattern compiler switch over them exhaustively.
package ast

import "github.com/huntflow-lang/huntflow/timefmt"

// ResultVariable is the reserved name that receives the result of a bare
// (unassigned) statement. It is an ordinary symbol table entry.
const ResultVariable = "_"

// Statement is one parsed huntflow statement.
type Statement interface {
	stmtNode()
}

// Path is an attribute reference, optionally qualified with an SCO type,
// e.g. network-traffic:dst_ref.value or the bare dst_port.
type Path struct {
	SCOType string // "" when the prefix was omitted
	Field   string // dotted attribute path
}

func (p Path) String() string {
	if p.SCOType == "" {
		return p.Field
	}
	return p.SCOType + ":" + p.Field
}

// Get retrieves entities of one SCO type from a data source, filtered by an
// optional pattern and time window.
type Get struct {
	Target  string // variable to bind; ResultVariable when unassigned
	SCOType string
	Source  string // data source URI
	Where   Expr   // nil means match everything
	Frame   *timefmt.Range
}

// Sort orders a variable's entity table by one attribute.
type Sort struct {
	Target     string
	Variable   string
	Field      Path
	Descending bool
}

// Group partitions a variable's entity table by one or more attributes,
// producing per-group counts.
type Group struct {
	Target   string
	Variable string
	Fields   []Path
}

// Disp renders a variable's entity table, optionally projected to an
// ordered attribute list.
type Disp struct {
	Variable string
	Attrs    []Path // nil means all attributes
}

func (*Get) stmtNode()   {}
func (*Sort) stmtNode()  {}
func (*Group) stmtNode() {}
func (*Disp) stmtNode()  {}

// Operator is a pattern comparison operator.
type Operator string

const (
	OpEqual        Operator = "="
	OpLess         Operator = "<"
	OpGreater      Operator = ">"
	OpLessEqual    Operator = "<="
	OpGreaterEqual Operator = ">="
	OpLike         Operator = "LIKE"
)

// Logic combines two pattern expressions.
type Logic int

const (
	And Logic = iota
	Or
)

func (l Logic) String() string {
	if l == And {
		return "AND"
	}
	return "OR"
}

// Expr is a node in a WHERE pattern.
type Expr interface {
	exprNode()
}

// Comparison tests one attribute against a value.
type Comparison struct {
	Path  Path // SCO-type prefix is required in pattern context
	Op    Operator
	Value Value
}

// Binary combines two pattern expressions with AND or OR. AND binds tighter
// than OR; the parser encodes precedence in the tree shape.
type Binary struct {
	Op    Logic
	Left  Expr
	Right Expr
}

func (*Comparison) exprNode() {}
func (*Binary) exprNode()     {}

// Value is the right-hand side of a comparison.
type Value interface {
	valueNode()
}

// StringLit is a quoted string literal.
type StringLit string

// NumberLit is a numeric literal. All numbers are carried as float64,
// matching the JSON representation of entity rows.
type NumberLit float64

// FieldRef references a column of a previously bound variable, e.g.
// conns_a.dst_port. The pattern compiler expands it into a disjunction over
// the column's distinct values.
type FieldRef struct {
	Variable string
	Field    string
}

func (StringLit) valueNode() {}
func (NumberLit) valueNode() {}
func (FieldRef) valueNode()  {}
