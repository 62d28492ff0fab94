package mem

import (
	"github.com/mna/ardoise/store/encoding"
	"github.com/mna/ardoise/store/value"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// A Column is a named vertical slice of a batch. Its values are
// produced by a fresh single-pass iterator per query; encoded columns
// decode lazily as the iterator advances.
type Column interface {
	// Name returns the column name.
	Name() string

	// Iter returns a fresh single-pass iterator over the column's
	// decoded values. It must be followed by a call to Iterator.Done.
	Iter() Iterator

	// Codec returns the codec describing the column's physical
	// encoding (identity for columns stored decoded).
	Codec() *Codec
}

// An Iterator produces the successive values of a column.
//
// Example usage:
//
//	it := col.Iter()
//	defer it.Done()
//	var v value.Value
//	for it.Next(&v) {
//		...
//	}
type Iterator interface {
	// If the iterator is exhausted, Next returns false. Otherwise it
	// sets *p to the current value, advances the iterator, and returns
	// true.
	Next(p *value.Value) bool
	// Done must be called on the Iterator once it is no longer needed.
	Done()
}

// A plainColumn stores its values fully decoded.
type plainColumn struct {
	name  string
	vals  []value.Value
	codec *Codec
}

var _ Column = (*plainColumn)(nil)

// NewColumn returns a column holding the provided decoded values of
// the given basic type. Callers should not subsequently modify vals.
func NewColumn(name string, t encoding.Basic, vals []value.Value) Column {
	codec := Identity(t)
	codec.setColumnName(name)
	return &plainColumn{name: name, vals: vals, codec: codec}
}

func (c *plainColumn) Name() string   { return c.name }
func (c *plainColumn) Codec() *Codec  { return c.codec }
func (c *plainColumn) Iter() Iterator { return &plainIterator{vals: c.vals} }

type plainIterator struct{ vals []value.Value }

func (it *plainIterator) Next(p *value.Value) bool {
	if len(it.vals) == 0 {
		return false
	}
	*p = it.vals[0]
	it.vals = it.vals[1:]
	return true
}

func (it *plainIterator) Done() {}

// intElem constrains the physical widths an offset-compressed integer
// column may use for its data section.
type intElem interface {
	~uint8 | ~uint16 | ~uint32
}

// An intColumn stores integers shifted down by base, in the narrowest
// width that fits the shifted range.
type intColumn[T intElem] struct {
	name  string
	base  int64
	data  []T
	codec *Codec
}

// NewIntColumn returns a column for the provided integers,
// offset-compressed against their minimum value when the range fits a
// width narrower than 64 bits, stored decoded otherwise.
func NewIntColumn(name string, vals []int64) Column {
	if len(vals) == 0 {
		return NewColumn(name, encoding.Integer, nil)
	}

	min, max := vals[0], vals[0]
	for _, v := range vals[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}

	// unsigned range after shifting by min
	span := uint64(max - min)
	switch {
	case span <= 1<<8-1:
		return newIntColumn[uint8](name, encoding.U8, min, vals)
	case span <= 1<<16-1:
		return newIntColumn[uint16](name, encoding.U16, min, vals)
	case span <= 1<<32-1:
		return newIntColumn[uint32](name, encoding.U32, min, vals)
	}

	dec := make([]value.Value, len(vals))
	for i, v := range vals {
		dec[i] = value.Int(v)
	}
	return NewColumn(name, encoding.Integer, dec)
}

func newIntColumn[T intElem](name string, t encoding.Type, base int64, vals []int64) Column {
	data := make([]T, len(vals))
	for i, v := range vals {
		data[i] = T(v - base)
	}
	var codec *Codec
	if base == 0 {
		codec = IntegerCast(t)
	} else {
		codec = IntegerOffset(t, base)
	}
	codec.setColumnName(name)
	return &intColumn[T]{name: name, base: base, data: data, codec: codec}
}

func (c *intColumn[T]) Name() string   { return c.name }
func (c *intColumn[T]) Codec() *Codec  { return c.codec }
func (c *intColumn[T]) Iter() Iterator { return &intIterator[T]{base: c.base, data: c.data} }

type intIterator[T intElem] struct {
	base int64
	data []T
}

func (it *intIterator[T]) Next(p *value.Value) bool {
	if len(it.data) == 0 {
		return false
	}
	*p = value.Int(it.base + int64(it.data[0]))
	it.data = it.data[1:]
	return true
}

func (it *intIterator[T]) Done() {}

// A dictColumn stores strings as indices into a sorted dictionary:
// section 1 holds the dictionary offsets, section 2 the dictionary
// bytes. The sorted dictionary makes the encoding order-preserving.
type dictColumn struct {
	name    string
	indices []uint32
	dict    []string
	codec   *Codec
}

var _ Column = (*dictColumn)(nil)

// NewDictColumn returns a dictionary-compressed column for the
// provided strings.
func NewDictColumn(name string, vals []string) Column {
	seen := make(map[string]struct{}, len(vals))
	for _, v := range vals {
		seen[v] = struct{}{}
	}
	dict := maps.Keys(seen)
	slices.Sort(dict)

	ix := make(map[string]uint32, len(dict))
	for i, v := range dict {
		ix[v] = uint32(i)
	}
	indices := make([]uint32, len(vals))
	for i, v := range vals {
		indices[i] = ix[v]
	}

	var t encoding.Type
	switch {
	case len(dict) <= 1<<8:
		t = encoding.U8
	case len(dict) <= 1<<16:
		t = encoding.U16
	default:
		t = encoding.U32
	}
	codec := NewCodec([]CodecOp{
		{Kind: OpData, Arg: 1},
		{Kind: OpData, Arg: 2},
		{Kind: OpDict, Type: t},
	})
	codec.setColumnName(name)
	return &dictColumn{name: name, indices: indices, dict: dict, codec: codec}
}

func (c *dictColumn) Name() string   { return c.name }
func (c *dictColumn) Codec() *Codec  { return c.codec }
func (c *dictColumn) Iter() Iterator { return &dictIterator{col: c} }

type dictIterator struct {
	col *dictColumn
	i   int
}

func (it *dictIterator) Next(p *value.Value) bool {
	if it.i == len(it.col.indices) {
		return false
	}
	// the dictionary entry is shared, not copied
	*p = value.Str(it.col.dict[it.col.indices[it.i]])
	it.i++
	return true
}

func (it *dictIterator) Done() {}
