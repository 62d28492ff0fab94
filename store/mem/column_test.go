package mem

import (
	"testing"

	"github.com/mna/ardoise/store/encoding"
	"github.com/mna/ardoise/store/value"
	"github.com/stretchr/testify/require"
)

func drain(t *testing.T, c Column) []value.Value {
	t.Helper()
	it := c.Iter()
	defer it.Done()

	var vals []value.Value
	var v value.Value
	for it.Next(&v) {
		vals = append(vals, v)
	}
	return vals
}

func TestPlainColumn(t *testing.T) {
	vals := []value.Value{value.Time(2000), value.Time(2000), value.Time(500)}
	c := NewColumn("timestamp", encoding.Timestamp, vals)

	require.Equal(t, "timestamp", c.Name())
	require.True(t, c.Codec().IsIdentity())
	require.Equal(t, encoding.Timestamp, c.Codec().DecodedType())
	require.Equal(t, vals, drain(t, c))

	// iterators are single-pass and independent
	require.Equal(t, vals, drain(t, c))
}

func TestIntColumn(t *testing.T) {
	t.Run("offset compressed", func(t *testing.T) {
		c := NewIntColumn("loadtime", []int64{500, 1500, 900})
		require.Equal(t, "loadtime", c.Name())

		codec := c.Codec()
		require.Equal(t, []CodecOp{{Kind: OpAdd, Type: encoding.U16, Arg: 500}}, codec.Ops())
		require.Equal(t, value.Int(734), codec.EncodeInt(1234))

		require.Equal(t, []value.Value{value.Int(500), value.Int(1500), value.Int(900)}, drain(t, c))
	})

	t.Run("narrow range uses narrow width", func(t *testing.T) {
		c := NewIntColumn("code", []int64{200, 204, 301, 404})
		require.Equal(t, []CodecOp{{Kind: OpAdd, Type: encoding.U8, Arg: 200}}, c.Codec().Ops())
		require.Equal(t, []value.Value{value.Int(200), value.Int(204), value.Int(301), value.Int(404)}, drain(t, c))
	})

	t.Run("zero base uses cast", func(t *testing.T) {
		c := NewIntColumn("n", []int64{0, 3, 250})
		require.Equal(t, []CodecOp{{Kind: OpToI64, Type: encoding.U8}}, c.Codec().Ops())
		require.Equal(t, []value.Value{value.Int(0), value.Int(3), value.Int(250)}, drain(t, c))
	})

	t.Run("wide range stays decoded", func(t *testing.T) {
		c := NewIntColumn("n", []int64{0, 1 << 40})
		require.True(t, c.Codec().IsIdentity())
		require.Equal(t, []value.Value{value.Int(0), value.Int(1 << 40)}, drain(t, c))
	})

	t.Run("negative values", func(t *testing.T) {
		c := NewIntColumn("delta", []int64{-10, -3, 7})
		require.Equal(t, []CodecOp{{Kind: OpAdd, Type: encoding.U8, Arg: -10}}, c.Codec().Ops())
		require.Equal(t, []value.Value{value.Int(-10), value.Int(-3), value.Int(7)}, drain(t, c))
	})

	t.Run("empty", func(t *testing.T) {
		c := NewIntColumn("n", nil)
		require.True(t, c.Codec().IsIdentity())
		require.Empty(t, drain(t, c))
	})
}

func TestDictColumn(t *testing.T) {
	c := NewDictColumn("url", []string{"/", "/x", "/", "/about"})
	require.Equal(t, "url", c.Name())

	codec := c.Codec()
	require.Equal(t, []CodecOp{
		{Kind: OpData, Arg: 1},
		{Kind: OpData, Arg: 2},
		{Kind: OpDict, Type: encoding.U8},
	}, codec.Ops())
	require.Equal(t, encoding.String, codec.DecodedType())
	require.True(t, codec.IsOrderPreserving())
	require.True(t, codec.IsElementwiseDecodable())
	require.False(t, codec.IsSummationPreserving())

	require.Equal(t, []value.Value{
		value.Str("/"), value.Str("/x"), value.Str("/"), value.Str("/about"),
	}, drain(t, c))
}

func TestBatch(t *testing.T) {
	url := NewDictColumn("url", []string{"/", "/x"})
	loadtime := NewIntColumn("loadtime", []int64{500, 1500})
	b := NewBatch([]Column{url, loadtime})

	require.Equal(t, []Column{url, loadtime}, b.Cols())
	require.Equal(t, url, b.Col("url"))
	require.Nil(t, b.Col("doesntexist"))
}
