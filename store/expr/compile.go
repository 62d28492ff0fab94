package expr

import "github.com/mna/ardoise/store/value"

func (c *Col) Compile(cols map[string]int) Compiled {
	ix, ok := cols[c.Name]
	if !ok {
		ix = -1
	}
	return &compiledCol{ix: ix}
}

func (c *Const) Compile(_ map[string]int) Compiled {
	return &compiledConst{v: c.Value}
}

func (f *Func) Compile(cols map[string]int) Compiled {
	cf := &compiledFunc{op: f.Op, left: f.Left.Compile(cols)}
	if f.Right != nil {
		cf.right = f.Right.Compile(cols)
	}
	return cf
}

type compiledCol struct {
	ix int
}

func (c *compiledCol) Eval(rec []value.Value) value.Value {
	if c.ix < 0 || c.ix >= len(rec) {
		return value.Null
	}
	return rec[c.ix]
}

type compiledConst struct {
	v value.Value
}

func (c *compiledConst) Eval(_ []value.Value) value.Value { return c.v }

type compiledFunc struct {
	op    FuncOp
	left  Compiled
	right Compiled
}

func (c *compiledFunc) Eval(rec []value.Value) value.Value {
	switch c.op {
	case And:
		if l, ok := c.left.Eval(rec).(value.Bool); !ok || !bool(l) {
			return value.False
		}
		if r, ok := c.right.Eval(rec).(value.Bool); ok {
			return r
		}
		return value.False

	case Or:
		if l, ok := c.left.Eval(rec).(value.Bool); ok && bool(l) {
			return value.True
		}
		if r, ok := c.right.Eval(rec).(value.Bool); ok {
			return r
		}
		return value.False

	case LT:
		n, ok := value.Compare(c.left.Eval(rec), c.right.Eval(rec))
		return value.Bool(ok && n < 0)

	case GT:
		n, ok := value.Compare(c.left.Eval(rec), c.right.Eval(rec))
		return value.Bool(ok && n > 0)

	case Equals:
		return value.Bool(value.Equal(c.left.Eval(rec), c.right.Eval(rec)))

	case Negate:
		switch l := c.left.Eval(rec).(type) {
		case value.Bool:
			return !l
		case value.Int:
			return -l
		}
		return value.Null

	case Add, Subtract:
		return arith(c.op, c.left.Eval(rec), c.right.Eval(rec))
	}
	return value.Null
}

// arith implements Add and Subtract: defined for Integer×Integer and
// Timestamp×Integer, Null for every other pairing.
func arith(op FuncOp, x, y value.Value) value.Value {
	n, ok := value.AsInt(y)
	if !ok {
		return value.Null
	}
	if op == Subtract {
		n = -n
	}
	switch xv := x.(type) {
	case value.Int:
		return xv + value.Int(n)
	case value.Time:
		return xv + value.Time(n)
	}
	return value.Null
}
