package expr

import (
	"strings"
	"testing"

	"github.com/mna/ardoise/store/value"
	"github.com/stretchr/testify/require"
)

func TestFuncOpString(t *testing.T) {
	for op := FuncOp(0); op <= maxFuncOp; op++ {
		if s := op.String(); s == "" || strings.Contains(s, "illegal") {
			t.Errorf("missing string representation of func op %d", op)
		}
	}
}

func TestColNames(t *testing.T) {
	e := &Func{Op: And,
		Left:  &Func{Op: LT, Left: &Col{Name: "loadtime"}, Right: &Const{Value: value.Int(1000)}},
		Right: &Func{Op: GT, Left: &Col{Name: "timestamp"}, Right: &Const{Value: value.Time(1000)}},
	}
	set := make(map[string]struct{})
	e.ColNames(set)
	require.Len(t, set, 2)
	require.Contains(t, set, "loadtime")
	require.Contains(t, set, "timestamp")

	set = make(map[string]struct{})
	(&Func{Op: Negate, Left: &Col{Name: "x"}}).ColNames(set)
	require.Len(t, set, 1)
}

func TestEval(t *testing.T) {
	cols := map[string]int{"url": 0, "loadtime": 1, "timestamp": 2}
	rec := []value.Value{value.Str("/"), value.Int(500), value.Time(2000)}

	cases := []struct {
		desc string
		in   Expr
		want value.Value
	}{
		{"col", &Col{Name: "url"}, value.Str("/")},
		{"missing col", &Col{Name: "doesntexist"}, value.Null},
		{"const", &Const{Value: value.Int(7)}, value.Int(7)},

		{"lt true", &Func{Op: LT, Left: &Col{Name: "loadtime"}, Right: &Const{Value: value.Int(1000)}}, value.True},
		{"lt false", &Func{Op: LT, Left: &Const{Value: value.Int(1000)}, Right: &Col{Name: "loadtime"}}, value.False},
		{"lt mismatched variants", &Func{Op: LT, Left: &Col{Name: "loadtime"}, Right: &Const{Value: value.Str("1000")}}, value.False},
		{"gt true", &Func{Op: GT, Left: &Col{Name: "timestamp"}, Right: &Const{Value: value.Time(1000)}}, value.True},
		{"equals", &Func{Op: Equals, Left: &Col{Name: "url"}, Right: &Const{Value: value.Str("/")}}, value.True},
		{"equals mismatched variants", &Func{Op: Equals, Left: &Col{Name: "loadtime"}, Right: &Const{Value: value.Time(500)}}, value.False},

		{"and", &Func{Op: And,
			Left:  &Func{Op: LT, Left: &Col{Name: "loadtime"}, Right: &Const{Value: value.Int(1000)}},
			Right: &Func{Op: GT, Left: &Col{Name: "timestamp"}, Right: &Const{Value: value.Time(1000)}},
		}, value.True},
		{"and short-circuit on non-bool", &Func{Op: And, Left: &Col{Name: "url"}, Right: &Const{Value: value.True}}, value.False},
		{"or", &Func{Op: Or, Left: &Const{Value: value.False}, Right: &Const{Value: value.True}}, value.True},
		{"or non-bool right", &Func{Op: Or, Left: &Const{Value: value.False}, Right: &Col{Name: "url"}}, value.False},

		{"negate bool", &Func{Op: Negate, Left: &Const{Value: value.True}}, value.False},
		{"negate int", &Func{Op: Negate, Left: &Col{Name: "loadtime"}}, value.Int(-500)},
		{"negate string", &Func{Op: Negate, Left: &Col{Name: "url"}}, value.Null},

		{"add ints", &Func{Op: Add, Left: &Col{Name: "loadtime"}, Right: &Const{Value: value.Int(1)}}, value.Int(501)},
		{"add timestamp int", &Func{Op: Add, Left: &Col{Name: "timestamp"}, Right: &Const{Value: value.Int(5)}}, value.Time(2005)},
		{"subtract ints", &Func{Op: Subtract, Left: &Col{Name: "loadtime"}, Right: &Const{Value: value.Int(1)}}, value.Int(499)},
		{"subtract timestamp int", &Func{Op: Subtract, Left: &Col{Name: "timestamp"}, Right: &Const{Value: value.Int(5)}}, value.Time(1995)},
		{"add string", &Func{Op: Add, Left: &Col{Name: "url"}, Right: &Const{Value: value.Int(1)}}, value.Null},
		{"add int to string", &Func{Op: Add, Left: &Col{Name: "loadtime"}, Right: &Const{Value: value.Str("x")}}, value.Null},
	}
	for _, c := range cases {
		t.Run(c.desc, func(t *testing.T) {
			got := c.in.Compile(cols).Eval(rec)
			require.Equal(t, c.want, got)
		})
	}
}
