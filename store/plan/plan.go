// Package plan defines the query-plan nodes produced when a codec is
// lowered. The nodes are a construction surface consumed by the plan
// executor; only their shape is contractual here.
package plan

import (
	"github.com/mna/ardoise/store/encoding"
	"github.com/mna/ardoise/store/value"
)

// Node is a node of a query-plan tree.
type Node interface {
	// node is unexported to keep the set of plan nodes closed.
	node()
}

// Range restricts a section read to [Start, Start+Len).
type Range struct {
	Start int
	Len   int
}

// AddVS adds a scalar constant to every element of a vector.
type AddVS struct {
	Type     encoding.Type
	Input    Node
	Constant Node
}

// DeltaDecode rebuilds a vector from its consecutive differences.
type DeltaDecode struct {
	Input Node
	Type  encoding.Type
}

// Cast reinterprets every element of a vector as a wider type.
type Cast struct {
	Input Node
	From  encoding.Type
	To    encoding.Type
}

// ReadColumnSection reads one physical data section of a column,
// optionally restricted to a range.
type ReadColumnSection struct {
	Column  string
	Section int
	Range   *Range
}

// DictLookup resolves dictionary indices to strings through an
// offsets section and a data section.
type DictLookup struct {
	Indices     Node
	Type        encoding.Type
	DictIndices Node
	DictData    Node
}

// LZ4Decode decompresses an LZ4-compressed byte section into
// DecodedLen elements of Type.
type LZ4Decode struct {
	Input      Node
	DecodedLen int
	Type       encoding.Type
}

// UnpackStrings splits a raw byte section into strings.
type UnpackStrings struct {
	Input Node
}

// InverseDictLookup finds the dictionary index of a string constant,
// the encoded-domain image of an equality needle.
type InverseDictLookup struct {
	DictIndices Node
	DictData    Node
	Needle      Node
}

// Constant wraps a literal value. Immediate constants are materialized
// inline by the executor instead of being broadcast to a vector.
type Constant struct {
	Value     value.Value
	Immediate bool
}

func (*AddVS) node()             {}
func (*DeltaDecode) node()       {}
func (*Cast) node()              {}
func (*ReadColumnSection) node() {}
func (*DictLookup) node()        {}
func (*LZ4Decode) node()         {}
func (*UnpackStrings) node()     {}
func (*InverseDictLookup) node() {}
func (*Constant) node()          {}
