// Package expr defines the filter and projection expressions of a
// query: a small closed tree of column references, constants and
// function applications. Expressions carry no state; they are
// compiled against a column-name to index map into a form that reads
// from a row record by position.
package expr

import (
	"fmt"

	"github.com/mna/ardoise/store/value"
)

// Expr is a node of an expression tree.
type Expr interface {
	// ColNames adds the column names referenced by the expression to
	// set.
	ColNames(set map[string]struct{})

	// Compile resolves column references against the provided
	// column-name to record-index map. A referenced name absent from
	// the map compiles to a slot that always yields Null.
	Compile(cols map[string]int) Compiled
}

// Compiled is an expression bound to record positions, ready for
// evaluation against successive rows.
type Compiled interface {
	Eval(rec []value.Value) value.Value
}

// A Col is a reference to a column by name.
type Col struct {
	Name string
}

// A Const is a literal value.
type Const struct {
	Value value.Value
}

// A Func applies Op to its operands. Right is nil for the unary
// Negate.
type Func struct {
	Op    FuncOp
	Left  Expr
	Right Expr
}

var (
	_ Expr = (*Col)(nil)
	_ Expr = (*Const)(nil)
	_ Expr = (*Func)(nil)
)

func (c *Col) ColNames(set map[string]struct{}) { set[c.Name] = struct{}{} }
func (c *Const) ColNames(_ map[string]struct{}) {}
func (f *Func) ColNames(set map[string]struct{}) {
	f.Left.ColNames(set)
	if f.Right != nil {
		f.Right.ColNames(set)
	}
}

// FuncOp identifies the operation applied by a Func node.
type FuncOp uint8

const (
	And FuncOp = iota
	Or
	LT
	GT
	Equals
	Negate
	Add
	Subtract

	maxFuncOp = Subtract
)

var funcOpNames = [...]string{
	And:      "and",
	Or:       "or",
	LT:       "lt",
	GT:       "gt",
	Equals:   "equals",
	Negate:   "negate",
	Add:      "add",
	Subtract: "subtract",
}

func (op FuncOp) String() string {
	if op <= maxFuncOp {
		if name := funcOpNames[op]; name != "" {
			return name
		}
	}
	return fmt.Sprintf("illegal func op (%d)", op)
}
