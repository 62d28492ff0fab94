package query

import (
	"encoding/binary"

	"github.com/dolthub/swiss"
	"github.com/mna/ardoise/store/agg"
	"github.com/mna/ardoise/store/expr"
	"github.com/mna/ardoise/store/mem"
	"github.com/mna/ardoise/store/value"
)

type compiledAgg struct {
	agg  agg.Aggregator
	expr expr.Compiled
}

// runSelect advances every iterator in lockstep, emitting the
// projected row for each filter match. The loop stops at the first
// exhausted iterator; every advanced row counts as scanned, filtered
// or not.
func runSelect(selects []expr.Compiled, filter expr.Compiled, iters []mem.Iterator, limit *LimitClause) ([][]value.Value, uint64) {
	if len(iters) == 0 {
		return nil, 0
	}
	if limit != nil && limit.Limit == 0 {
		return nil, 0
	}

	var rows [][]value.Value
	var scanned, matched, emitted uint64
	record := make([]value.Value, len(iters))
	for {
		for i, it := range iters {
			if !it.Next(&record[i]) {
				return rows, scanned
			}
		}
		scanned++

		if !filterTrue(filter, record) {
			continue
		}
		matched++
		if limit != nil && matched <= limit.Offset {
			continue
		}

		row := make([]value.Value, len(selects))
		for i, s := range selects {
			row[i] = s.Eval(record)
		}
		rows = append(rows, row)
		emitted++
		if limit != nil && emitted == limit.Limit {
			return rows, scanned
		}
	}
}

// runAggregation advances every iterator in lockstep, folding each
// filter match into the accumulator vector of its group, keyed by the
// projected tuple.
func runAggregation(selects []expr.Compiled, filter expr.Compiled, aggs []compiledAgg, iters []mem.Iterator) ([][]value.Value, uint64) {
	if len(iters) == 0 {
		return nil, 0
	}

	groups := newGroupTable()
	var scanned uint64
	record := make([]value.Value, len(iters))
	key := make([]value.Value, len(selects))
	for {
		for i, it := range iters {
			if !it.Next(&record[i]) {
				return groups.rows(), scanned
			}
		}
		scanned++

		if !filterTrue(filter, record) {
			continue
		}
		for i, s := range selects {
			key[i] = s.Eval(record)
		}
		g, _ := groups.getOrInsert(key, func() []value.Value {
			accs := make([]value.Value, len(aggs))
			for i, a := range aggs {
				accs[i] = a.agg.Zero()
			}
			return accs
		})
		for i, a := range aggs {
			g.accs[i] = a.agg.Reduce(g.accs[i], a.expr.Eval(record))
		}
	}
}

// a row passes the filter only on an exact Bool(true); any other
// value skips the row.
func filterTrue(filter expr.Compiled, record []value.Value) bool {
	if filter == nil {
		return true
	}
	b, ok := filter.Eval(record).(value.Bool)
	return ok && bool(b)
}

// A groupTable maps group keys to their accumulator vectors. The
// swiss table is keyed by a binary encoding of the key tuple, which
// hashes and equates componentwise; the decoded tuple is kept on the
// entry for emission.
type groupTable struct {
	m *swiss.Map[string, *group]
}

type group struct {
	key  []value.Value
	accs []value.Value
}

func newGroupTable() *groupTable {
	return &groupTable{m: swiss.NewMap[string, *group](16)}
}

// getOrInsert returns the group of key, inserting a new entry with
// the accumulators produced by mkAccs if the key was not present.
func (t *groupTable) getOrInsert(key []value.Value, mkAccs func() []value.Value) (*group, bool) {
	enc := encodeKey(key)
	if g, ok := t.m.Get(enc); ok {
		return g, true
	}
	g := &group{
		key:  append([]value.Value(nil), key...),
		accs: mkAccs(),
	}
	t.m.Put(enc, g)
	return g, false
}

// rows emits one row per group: the key tuple followed by the final
// accumulators. Group order is undefined.
func (t *groupTable) rows() [][]value.Value {
	if t.m.Count() == 0 {
		return nil
	}
	rows := make([][]value.Value, 0, t.m.Count())
	t.m.Iter(func(_ string, g *group) bool {
		row := make([]value.Value, 0, len(g.key)+len(g.accs))
		row = append(row, g.key...)
		row = append(row, g.accs...)
		rows = append(rows, row)
		return false
	})
	return rows
}

// encodeKey produces the hashable form of a group key: a tag byte per
// element followed by a fixed-width or length-prefixed payload, so
// that distinct tuples never collide.
func encodeKey(key []value.Value) string {
	var buf []byte
	for _, v := range key {
		switch vv := v.(type) {
		case value.NullType:
			buf = append(buf, 'n')
		case value.Bool:
			b := byte(0)
			if vv {
				b = 1
			}
			buf = append(buf, 'b', b)
		case value.Int:
			buf = append(buf, 'i')
			buf = binary.BigEndian.AppendUint64(buf, uint64(vv))
		case value.Time:
			buf = append(buf, 't')
			buf = binary.BigEndian.AppendUint64(buf, uint64(vv))
		case value.Str:
			buf = append(buf, 's')
			buf = binary.AppendUvarint(buf, uint64(len(vv)))
			buf = append(buf, vv...)
		case value.Set:
			buf = append(buf, 'S')
			buf = binary.AppendUvarint(buf, uint64(len(vv)))
			for _, e := range vv {
				buf = binary.AppendUvarint(buf, uint64(len(e)))
				buf = append(buf, e...)
			}
		}
	}
	return string(buf)
}
