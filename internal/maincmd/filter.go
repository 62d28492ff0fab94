package maincmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mna/ardoise/store/expr"
	"github.com/mna/ardoise/store/value"
)

// parseFilter parses the tiny --where language: one or more
// comparisons of the form <col> <op> <literal> joined with '&&',
// where <op> is one of <, > and =. This is deliberately not a query
// language, just enough surface to drive the evaluator from the
// command line.
func parseFilter(s string) (expr.Expr, error) {
	var filter expr.Expr
	for _, part := range strings.Split(s, "&&") {
		cmp, err := parseComparison(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		if filter == nil {
			filter = cmp
		} else {
			filter = &expr.Func{Op: expr.And, Left: filter, Right: cmp}
		}
	}
	if filter == nil {
		return nil, fmt.Errorf("empty filter")
	}
	return filter, nil
}

func parseComparison(s string) (expr.Expr, error) {
	ix := strings.IndexAny(s, "<>=")
	if ix < 0 {
		return nil, fmt.Errorf("invalid comparison: %q", s)
	}

	var op expr.FuncOp
	switch s[ix] {
	case '<':
		op = expr.LT
	case '>':
		op = expr.GT
	case '=':
		op = expr.Equals
	}

	col := strings.TrimSpace(s[:ix])
	lit := strings.TrimSpace(s[ix+1:])
	if col == "" || lit == "" {
		return nil, fmt.Errorf("invalid comparison: %q", s)
	}

	return &expr.Func{
		Op:    op,
		Left:  &expr.Col{Name: col},
		Right: &expr.Const{Value: parseLiteral(col, lit)},
	}, nil
}

// parseLiteral types the literal to match the column it compares
// against: integers compared to the timestamp column are timestamps
// (cross-variant comparisons are always false, so the literal must
// speak the column's type).
func parseLiteral(col, s string) value.Value {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if col == "timestamp" {
			return value.Time(n)
		}
		return value.Int(n)
	}
	if uq, err := strconv.Unquote(s); err == nil {
		return value.Str(uq)
	}
	return value.Str(s)
}
