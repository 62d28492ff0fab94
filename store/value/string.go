package value

import (
	"strconv"
	"strings"
)

// Str is the type of a text string. It encapsulates an immutable
// sequence of bytes; comparisons are by content.
type Str string

var _ Value = Str("")

func (s Str) String() string { return strconv.Quote(string(s)) }
func (s Str) Type() string   { return "string" }

// A Set represents an immutable set of strings. Two sets are equal if
// they hold the same elements in the same order; sets are not
// ordered relative to each other.
type Set []string

var _ Value = Set(nil)

func (s Set) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, e := range s {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(strconv.Quote(e))
	}
	b.WriteByte('}')
	return b.String()
}

func (s Set) Type() string { return "set" }
