package value

import "strings"

// Equal reports whether x and y are equal values. Values of different
// variants are never equal; values of the same variant compare by
// content.
func Equal(x, y Value) bool {
	switch xv := x.(type) {
	case NullType:
		_, ok := y.(NullType)
		return ok
	case Bool:
		yv, ok := y.(Bool)
		return ok && xv == yv
	case Int:
		yv, ok := y.(Int)
		return ok && xv == yv
	case Time:
		yv, ok := y.(Time)
		return ok && xv == yv
	case Str:
		yv, ok := y.(Str)
		return ok && xv == yv
	case Set:
		yv, ok := y.(Set)
		if !ok || len(xv) != len(yv) {
			return false
		}
		for i, e := range xv {
			if e != yv[i] {
				return false
			}
		}
		return true
	}
	return false
}

// Compare compares two values of the same ordered variant. It returns
// negative if x < y, positive if x > y, zero if equal, and ok=false
// if the values are of different variants or of an unordered variant
// (null, set).
func Compare(x, y Value) (int, bool) {
	switch xv := x.(type) {
	case Bool:
		yv, ok := y.(Bool)
		if !ok {
			return 0, false
		}
		return b2i(bool(xv)) - b2i(bool(yv)), true
	case Int:
		yv, ok := y.(Int)
		if !ok {
			return 0, false
		}
		return cmp64(int64(xv), int64(yv)), true
	case Time:
		yv, ok := y.(Time)
		if !ok {
			return 0, false
		}
		return cmp64(int64(xv), int64(yv)), true
	case Str:
		yv, ok := y.(Str)
		if !ok {
			return 0, false
		}
		return strings.Compare(string(xv), string(yv)), true
	}
	return 0, false
}

// AsInt returns the integer content of v, or ok=false for any
// non-integer variant.
func AsInt(v Value) (int64, bool) {
	i, ok := v.(Int)
	return int64(i), ok
}

func cmp64(x, y int64) int {
	if x > y {
		return +1
	} else if x < y {
		return -1
	}
	return 0
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}
