// Package mem implements the in-memory column store: codecs
// describing how encoded columns decode back to logical values, the
// concrete column representations, and the batches that group them.
package mem

import (
	"fmt"
	"strings"

	"github.com/mna/ardoise/store/encoding"
	"github.com/mna/ardoise/store/plan"
	"github.com/mna/ardoise/store/value"
)

// name of a codec not yet stitched to its column.
const unspecifiedColumn = "COLUMN_UNSPECIFIED"

// A Codec describes, per column, how to reconstruct logical values
// from one or more physical data sections. It is a well-formed
// postfix program over CodecOps along with cached aggregate
// properties of the whole program, so that a planner can decide
// whether a filter or aggregate may run directly on the encoded
// form. Codecs are immutable once attached to their column.
type Codec struct {
	ops        []CodecOp
	columnName string
	encType    encoding.Type
	decType    encoding.Basic

	sumPreserving   bool
	orderPreserving bool
	positiveInteger bool
	fixedWidth      bool
}

// NewCodec returns a codec for the provided decode program, computing
// the cached property flags and types. The program must contain at
// least one op that is not an OpData.
func NewCodec(ops []CodecOp) *Codec {
	c := &Codec{
		ops:             ops,
		columnName:      unspecifiedColumn,
		encType:         encodingTypeOf(ops),
		decType:         ops[len(ops)-1].OutputType(),
		sumPreserving:   hasProperty(ops, CodecOp.IsSummationPreserving),
		orderPreserving: hasProperty(ops, CodecOp.IsOrderPreserving),
		positiveInteger: hasProperty(ops, CodecOp.IsPositiveInteger),
		fixedWidth:      hasProperty(ops, CodecOp.IsElementwiseDecodable),
	}
	return c
}

// the encoding type of a program is the input type of its first op
// that is not a data-section push.
func encodingTypeOf(ops []CodecOp) encoding.Type {
	for _, op := range ops {
		if op.Kind != OpData {
			return op.InputType()
		}
	}
	panic("codec has no decoding op")
}

// Identity returns the codec of a column stored fully decoded. Its
// program is empty and every algebraic property holds.
func Identity(t encoding.Basic) *Codec {
	return &Codec{
		columnName:      unspecifiedColumn,
		encType:         t.Encoded(),
		decType:         t,
		sumPreserving:   true,
		orderPreserving: true,
		positiveInteger: true,
		fixedWidth:      true,
	}
}

// IntegerOffset returns the codec of an integer column stored shifted
// down by offset.
func IntegerOffset(t encoding.Type, offset int64) *Codec {
	return NewCodec([]CodecOp{{Kind: OpAdd, Type: t, Arg: offset}})
}

// IntegerCast returns the codec of an integer column stored in a
// narrower width.
func IntegerCast(t encoding.Type) *Codec {
	return NewCodec([]CodecOp{{Kind: OpToI64, Type: t}})
}

// LZ4 returns the codec of a column whose single section holds
// decodedLen elements of type t, LZ4-compressed.
func LZ4(t encoding.Type, decodedLen int) *Codec {
	return NewCodec([]CodecOp{{Kind: OpLZ4, Type: t, Arg: int64(decodedLen)}})
}

// Opaque returns a codec whose decode program is not visible to the
// planner; the caller supplies the property flags verbatim.
func Opaque(encType encoding.Type, decType encoding.Basic, sumPreserving, orderPreserving, positiveInteger, fixedWidth bool) *Codec {
	return &Codec{
		ops:             []CodecOp{{Kind: OpUnknown}},
		columnName:      unspecifiedColumn,
		encType:         encType,
		decType:         decType,
		sumPreserving:   sumPreserving,
		orderPreserving: orderPreserving,
		positiveInteger: positiveInteger,
		fixedWidth:      fixedWidth,
	}
}

// WithLZ4 returns a new codec that decompresses the column's bytes
// before running the receiver's program, inheriting the column name.
func (c *Codec) WithLZ4(decodedLen int) *Codec {
	ops := make([]CodecOp, 0, len(c.ops)+1)
	ops = append(ops, CodecOp{Kind: OpLZ4, Type: c.encType, Arg: int64(decodedLen)})
	ops = append(ops, c.ops...)
	nc := NewCodec(ops)
	nc.setColumnName(c.columnName)
	return nc
}

// Decode lowers the codec's program into a query-plan tree rooted at
// input, the plan producing the column's first data section.
func (c *Codec) Decode(input plan.Node) plan.Node {
	return c.decodeOps(c.ops, input)
}

func (c *Codec) decodeOps(ops []CodecOp, input plan.Node) plan.Node {
	stack := []plan.Node{input}

	pop := func() plan.Node {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		return n
	}

	for _, op := range ops {
		var n plan.Node
		switch op.Kind {
		case OpAdd:
			n = &plan.AddVS{
				Type:     op.Type,
				Input:    pop(),
				Constant: &plan.Constant{Value: value.Int(op.Arg), Immediate: true},
			}
		case OpDelta:
			n = &plan.DeltaDecode{Input: pop(), Type: op.Type}
		case OpToI64:
			n = &plan.Cast{Input: pop(), From: op.Type, To: encoding.I64}
		case OpData:
			n = &plan.ReadColumnSection{Column: c.columnName, Section: int(op.Arg)}
		case OpDict:
			dictData := pop()
			dictIndices := pop()
			indices := pop()
			n = &plan.DictLookup{
				Indices:     indices,
				Type:        op.Type,
				DictIndices: dictIndices,
				DictData:    dictData,
			}
		case OpLZ4:
			n = &plan.LZ4Decode{Input: pop(), DecodedLen: int(op.Arg), Type: op.Type}
		case OpStrUnpack:
			n = &plan.UnpackStrings{Input: pop()}
		default:
			panic(fmt.Sprintf("decode of %s op", op.Kind))
		}
		stack = append(stack, n)
	}

	if len(stack) != 1 {
		panic(fmt.Sprintf("mis-shaped codec program, decode stack has %d entries", len(stack)))
	}
	return stack[0]
}

// EnsureFixedWidth splits decoding of the column in two: the returned
// plan decodes just enough that every element can be addressed in
// constant time, and the returned codec is what remains to fully
// decode the values (identity if nothing remains).
func (c *Codec) EnsureFixedWidth(input plan.Node) (*Codec, plan.Node) {
	rest, preserved := c.ensureProperty(CodecOp.IsElementwiseDecodable)
	var nc *Codec
	if len(preserved) == 0 {
		nc = Identity(c.decType)
	} else {
		nc = NewCodec(preserved)
	}
	nc.setColumnName(c.columnName)
	return nc, c.decodeOps(rest, input)
}

// EncodeStr rewrites a string constant into the encoded domain of the
// column: an inverse dictionary lookup of needle against the
// dictionary sections. It is a programmer error to call it on
// anything but the canonical dictionary program.
func (c *Codec) EncodeStr(needle plan.Node) plan.Node {
	if len(c.ops) == 3 &&
		c.ops[0].Kind == OpData && c.ops[0].Arg == 1 &&
		c.ops[1].Kind == OpData && c.ops[1].Arg == 2 &&
		c.ops[2].Kind == OpDict {
		return &plan.InverseDictLookup{
			DictIndices: &plan.ReadColumnSection{Column: c.columnName, Section: 1},
			DictData:    &plan.ReadColumnSection{Column: c.columnName, Section: 2},
			Needle:      needle,
		}
	}
	panic(fmt.Sprintf("encode string not supported for codec %q", c.Signature(true)))
}

// EncodeInt rewrites an integer constant into the encoded domain of
// the column. It is a programmer error to call it on anything but a
// single-op offset or cast program.
func (c *Codec) EncodeInt(x int64) value.Value {
	if len(c.ops) == 1 {
		switch c.ops[0].Kind {
		case OpAdd:
			return value.Int(x - c.ops[0].Arg)
		case OpToI64:
			return value.Int(x)
		}
	}
	panic(fmt.Sprintf("encode integer not supported for codec %q", c.Signature(true)))
}

// Ops returns the codec's decode program. The caller must not modify
// the result.
func (c *Codec) Ops() []CodecOp { return c.ops }

// EncodingType returns the type consumed by the first op of the
// program that is not a data-section push.
func (c *Codec) EncodingType() encoding.Type { return c.encType }

// DecodedType returns the logical type produced by full decoding.
func (c *Codec) DecodedType() encoding.Basic { return c.decType }

func (c *Codec) IsSummationPreserving() bool { return c.sumPreserving }
func (c *Codec) IsOrderPreserving() bool     { return c.orderPreserving }

// IsPositiveInteger reports whether decoded values are in the
// positive integer range. OpToI64 counts as positive in the property
// walk to keep grouping keys working; do not rely on this flag for
// sign reasoning.
func (c *Codec) IsPositiveInteger() bool { return c.positiveInteger }

func (c *Codec) IsElementwiseDecodable() bool { return c.fixedWidth }

// IsIdentity reports whether the codec's program is empty, i.e. the
// column is stored fully decoded.
func (c *Codec) IsIdentity() bool { return len(c.ops) == 0 }

// Signature returns the debug form of the codec: each op's signature
// joined by single spaces, with a trailing space.
func (c *Codec) Signature(alternate bool) string {
	var b strings.Builder
	for _, op := range c.ops {
		b.WriteString(op.Signature(alternate))
		b.WriteByte(' ')
	}
	return b.String()
}

// setColumnName stitches the codec to its owning column. It runs only
// during column attachment, before any query sees the codec.
func (c *Codec) setColumnName(name string) { c.columnName = name }

// hasProperty reports whether p holds along the leftmost path of the
// program's operator tree: only the leftmost input of an op carries
// the decoded value stream, sibling inputs are the dictionary or
// byte sections the op consumes internally.
func hasProperty(ops []CodecOp, p func(CodecOp) bool) bool {
	stack := append([]CodecOp(nil), ops...)
	for len(stack) > 0 {
		op := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !p(op) {
			return false
		}
		// discard the sibling argument subtrees
		for i := 1; i < op.ArgCount(); i++ {
			stack = popTree(stack)
		}
	}
	return true
}

// popTree removes the operator tree rooted at the top of the stack.
func popTree(stack []CodecOp) []CodecOp {
	if len(stack) == 0 {
		return stack
	}
	op := stack[len(stack)-1]
	stack = stack[:len(stack)-1]
	for i := 0; i < op.ArgCount(); i++ {
		stack = popTree(stack)
	}
	return stack
}

// ensureProperty splits the program into two sequences such that
// rest followed by preserved is the original program: preserved is
// the longest suffix whose leftmost path satisfies p (returned in
// program order, ready for lowering), and rest is what must be
// executed beforehand to restore the property. If rest is non-empty,
// its last op fails p.
func (c *Codec) ensureProperty(p func(CodecOp) bool) (rest, preserved []CodecOp) {
	stack := append([]CodecOp(nil), c.ops...)
	for len(stack) > 0 {
		op := stack[len(stack)-1]
		if !p(op) {
			break
		}
		stack = stack[:len(stack)-1]
		preserved = append(preserved, op)
		// the sibling argument subtrees move along with their consumer
		for i := 1; i < op.ArgCount(); i++ {
			stack, preserved = popPushTree(stack, preserved)
		}
	}
	reverseOps(preserved)
	return stack, preserved
}

// popPushTree moves the operator tree rooted at the top of src onto
// dst.
func popPushTree(src, dst []CodecOp) ([]CodecOp, []CodecOp) {
	if len(src) == 0 {
		return src, dst
	}
	op := src[len(src)-1]
	src = src[:len(src)-1]
	dst = append(dst, op)
	for i := 0; i < op.ArgCount(); i++ {
		src, dst = popPushTree(src, dst)
	}
	return src, dst
}

func reverseOps(ops []CodecOp) {
	for i, j := 0, len(ops)-1; i < j; i, j = i+1, j-1 {
		ops[i], ops[j] = ops[j], ops[i]
	}
}
