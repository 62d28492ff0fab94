package mem

import (
	"fmt"

	"github.com/mna/ardoise/store/encoding"
)

// OpKind identifies one operation of the decode stack machine.
type OpKind uint8

// "bytes LZ4 values" is a "stack picture" that describes the state of
// the stack before and after execution of the operation. OpData is
// the only producer; every other op pops its arguments and pushes one
// result.
const (
	OpAdd       OpKind = iota // values OpAdd        values+k
	OpDelta                   // deltas OpDelta      values
	OpToI64                   // values OpToI64      values as I64
	OpData                    //      - OpData       section <arg>
	OpDict                    // indices dict_indices dict_data OpDict strings
	OpLZ4                     //  bytes OpLZ4        values
	OpStrUnpack               //  bytes OpStrUnpack  strings
	OpUnknown                 // opaque marker, resists all inspection

	maxOpKind = OpUnknown
)

var opKindNames = [...]string{
	OpAdd:       "add",
	OpDelta:     "delta",
	OpToI64:     "toi64",
	OpData:      "data",
	OpDict:      "dict",
	OpLZ4:       "lz4",
	OpStrUnpack: "strunpack",
	OpUnknown:   "unknown",
}

func (k OpKind) String() string {
	if k <= maxOpKind {
		if name := opKindNames[k]; name != "" {
			return name
		}
	}
	return fmt.Sprintf("illegal op kind (%d)", k)
}

// A CodecOp is a single operation of a codec's decode program. Type
// is the element type the op consumes, except for OpLZ4 where it is
// the element type of the decompressed output (unused by OpData,
// OpStrUnpack and OpUnknown); Arg is the added constant for OpAdd,
// the section index for OpData and the decoded length for OpLZ4.
type CodecOp struct {
	Kind OpKind
	Type encoding.Type
	Arg  int64
}

// InputType returns the encoding type consumed by the op. It is a
// programmer error to call it on OpData or OpUnknown.
func (op CodecOp) InputType() encoding.Type {
	switch op.Kind {
	case OpAdd, OpDelta, OpToI64, OpDict:
		return op.Type
	case OpLZ4, OpStrUnpack:
		return encoding.U8
	}
	panic(fmt.Sprintf("input type of %s op", op.Kind))
}

// OutputType returns the basic type produced by the op. It is a
// programmer error to call it on OpData or OpUnknown.
func (op CodecOp) OutputType() encoding.Basic {
	switch op.Kind {
	case OpAdd, OpDelta, OpToI64, OpLZ4:
		return encoding.Integer
	case OpDict, OpStrUnpack:
		return encoding.String
	}
	panic(fmt.Sprintf("output type of %s op", op.Kind))
}

// IsSummationPreserving reports whether the sum of the op's inputs
// equals the sum of its outputs.
func (op CodecOp) IsSummationPreserving() bool {
	switch op.Kind {
	case OpAdd:
		return op.Arg == 0
	case OpToI64, OpData:
		return true
	case OpDelta, OpDict, OpLZ4, OpStrUnpack:
		return false
	}
	panic(fmt.Sprintf("summation-preserving on %s op", op.Kind))
}

// IsOrderPreserving reports whether the op's inputs compare in the
// same order as its outputs.
func (op CodecOp) IsOrderPreserving() bool {
	switch op.Kind {
	case OpAdd, OpToI64, OpData, OpDict:
		return true
	case OpDelta, OpLZ4, OpStrUnpack:
		return false
	}
	panic(fmt.Sprintf("order-preserving on %s op", op.Kind))
}

// IsPositiveInteger reports whether the op's output is in the
// positive integer range. OpToI64 reports true so that grouping keys
// keep working; callers must not rely on it for sign reasoning.
func (op CodecOp) IsPositiveInteger() bool {
	switch op.Kind {
	case OpAdd, OpToI64, OpData, OpDict:
		return true
	case OpDelta, OpLZ4, OpStrUnpack:
		return false
	}
	panic(fmt.Sprintf("positive-integer on %s op", op.Kind))
}

// IsElementwiseDecodable reports whether any element of the op's
// output can be decoded in constant time, without scanning prior
// elements.
func (op CodecOp) IsElementwiseDecodable() bool {
	switch op.Kind {
	case OpAdd, OpToI64, OpData, OpDict:
		return true
	case OpDelta, OpLZ4, OpStrUnpack:
		return false
	}
	panic(fmt.Sprintf("elementwise-decodable on %s op", op.Kind))
}

// ArgCount returns the number of values the op pops off the stack.
func (op CodecOp) ArgCount() int {
	switch op.Kind {
	case OpAdd, OpDelta, OpToI64, OpLZ4, OpStrUnpack:
		return 1
	case OpData:
		return 0
	case OpDict:
		return 3
	}
	panic(fmt.Sprintf("arg count of %s op", op.Kind))
}

// Signature returns the debug form of the op. The alternate form
// includes the constant operands that the compact form elides.
func (op CodecOp) Signature(alternate bool) string {
	switch op.Kind {
	case OpAdd:
		if alternate {
			return fmt.Sprintf("Add(%s, %d)", op.Type, op.Arg)
		}
		return fmt.Sprintf("Add(%s)", op.Type)
	case OpDelta:
		return fmt.Sprintf("Delta(%s)", op.Type)
	case OpToI64:
		return fmt.Sprintf("ToI64(%s)", op.Type)
	case OpData:
		return fmt.Sprintf("Data(%d)", op.Arg)
	case OpDict:
		return fmt.Sprintf("Dict(%s)", op.Type)
	case OpLZ4:
		if alternate {
			return fmt.Sprintf("LZ4(%s, %d)", op.Type, op.Arg)
		}
		return fmt.Sprintf("LZ4(%s)", op.Type)
	case OpStrUnpack:
		return "StrUnpack"
	case OpUnknown:
		return "Unknown"
	}
	panic(fmt.Sprintf("signature of %s op", op.Kind))
}
