package query

import (
	"testing"
	"time"

	"github.com/mna/ardoise/store/agg"
	"github.com/mna/ardoise/store/encoding"
	"github.com/mna/ardoise/store/expr"
	"github.com/mna/ardoise/store/mem"
	"github.com/mna/ardoise/store/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stepClock returns a clock advancing by step on every call, for
// deterministic runtime stats.
func stepClock(step time.Duration) func() time.Time {
	t := time.Unix(0, 0)
	return func() time.Time {
		t = t.Add(step)
		return t
	}
}

func demoBatch() *mem.Batch {
	return mem.NewBatch([]mem.Column{
		mem.NewDictColumn("url", []string{"/", "/x", "/"}),
		mem.NewIntColumn("loadtime", []int64{500, 1500, 900}),
		mem.NewColumn("timestamp", encoding.Timestamp, []value.Value{
			value.Time(2000), value.Time(2000), value.Time(500),
		}),
	})
}

func TestSelectConjunction(t *testing.T) {
	q := &Query{
		Select: []expr.Expr{&expr.Col{Name: "url"}},
		Filter: &expr.Func{Op: expr.And,
			Left:  &expr.Func{Op: expr.LT, Left: &expr.Col{Name: "loadtime"}, Right: &expr.Const{Value: value.Int(1000)}},
			Right: &expr.Func{Op: expr.GT, Left: &expr.Col{Name: "timestamp"}, Right: &expr.Const{Value: value.Time(1000)}},
		},
		Clock: stepClock(10 * time.Nanosecond),
	}
	res := q.Run(demoBatch())

	require.Equal(t, []string{"url"}, res.ColNames)
	require.Equal(t, [][]value.Value{{value.Str("/")}}, res.Rows)
	require.Equal(t, uint64(3), res.Stats.RowsScanned)
	require.Equal(t, uint64(10), res.Stats.RuntimeNs)
}

func TestSelectStringEquality(t *testing.T) {
	q := &Query{
		Select: []expr.Expr{&expr.Col{Name: "timestamp"}, &expr.Col{Name: "loadtime"}},
		Filter: &expr.Func{Op: expr.Equals, Left: &expr.Col{Name: "url"}, Right: &expr.Const{Value: value.Str("/")}},
	}
	res := q.Run(demoBatch())

	require.Equal(t, []string{"timestamp", "loadtime"}, res.ColNames)
	require.Equal(t, [][]value.Value{
		{value.Time(2000), value.Int(500)},
		{value.Time(500), value.Int(900)},
	}, res.Rows)
	require.Equal(t, uint64(3), res.Stats.RowsScanned)
}

func TestCountAggregate(t *testing.T) {
	q := &Query{
		Select:    []expr.Expr{&expr.Col{Name: "url"}},
		Aggregate: []Aggregation{{Agg: agg.Count, Expr: &expr.Const{Value: value.Int(0)}}},
	}
	res := q.Run(demoBatch())

	require.Equal(t, []string{"url", "count_0"}, res.ColNames)
	require.ElementsMatch(t, [][]value.Value{
		{value.Str("/"), value.Int(2)},
		{value.Str("/x"), value.Int(1)},
	}, res.Rows)
	require.Equal(t, uint64(3), res.Stats.RowsScanned)
}

func TestSumAggregate(t *testing.T) {
	q := &Query{
		Select:    []expr.Expr{&expr.Col{Name: "url"}},
		Aggregate: []Aggregation{{Agg: agg.Sum, Expr: &expr.Col{Name: "loadtime"}}},
	}
	res := q.Run(demoBatch())

	require.Equal(t, []string{"url", "sum_0"}, res.ColNames)
	require.ElementsMatch(t, [][]value.Value{
		{value.Str("/"), value.Int(1400)},
		{value.Str("/x"), value.Int(1500)},
	}, res.Rows)
}

func TestAggregateWithoutSelect(t *testing.T) {
	q := &Query{
		Aggregate: []Aggregation{{Agg: agg.Sum, Expr: &expr.Col{Name: "loadtime"}}},
	}
	res := q.Run(demoBatch())

	require.Equal(t, []string{"sum_0"}, res.ColNames)
	require.Equal(t, [][]value.Value{{value.Int(2900)}}, res.Rows)
}

func TestSumOverMissingColumn(t *testing.T) {
	q := &Query{
		Aggregate: []Aggregation{{Agg: agg.Sum, Expr: &expr.Col{Name: "doesntexist"}}},
	}
	res := q.Run(demoBatch())

	// the referenced column is not present: no iterators open, no
	// rows come out
	require.Equal(t, []string{"sum_0"}, res.ColNames)
	require.Empty(t, res.Rows)
	require.Equal(t, uint64(0), res.Stats.RowsScanned)
}

func TestSelectOverMissingColumn(t *testing.T) {
	q := &Query{Select: []expr.Expr{&expr.Col{Name: "doesntexist"}}}
	res := q.Run(demoBatch())
	require.Empty(t, res.Rows)
	require.Equal(t, uint64(0), res.Stats.RowsScanned)
}

func TestNonBoolFilterSkipsRows(t *testing.T) {
	q := &Query{
		Select: []expr.Expr{&expr.Col{Name: "url"}},
		Filter: &expr.Col{Name: "url"}, // evaluates to a string, never Bool(true)
	}
	res := q.Run(demoBatch())
	require.Empty(t, res.Rows)
	require.Equal(t, uint64(3), res.Stats.RowsScanned)
}

func TestUnequalColumnsTruncate(t *testing.T) {
	b := mem.NewBatch([]mem.Column{
		mem.NewDictColumn("url", []string{"/", "/x", "/"}),
		mem.NewIntColumn("loadtime", []int64{500, 1500}),
	})
	q := &Query{Select: []expr.Expr{&expr.Col{Name: "url"}, &expr.Col{Name: "loadtime"}}}
	res := q.Run(b)

	require.Len(t, res.Rows, 2)
	require.Equal(t, uint64(2), res.Stats.RowsScanned)
}

func TestResultColNames(t *testing.T) {
	q := &Query{
		Select: []expr.Expr{
			&expr.Col{Name: "url"},
			&expr.Func{Op: expr.Add, Left: &expr.Col{Name: "loadtime"}, Right: &expr.Const{Value: value.Int(1)}},
			&expr.Col{Name: "loadtime"},
			&expr.Const{Value: value.Int(7)},
		},
		Aggregate: []Aggregation{
			{Agg: agg.Count, Expr: &expr.Const{Value: value.Int(0)}},
			{Agg: agg.Sum, Expr: &expr.Col{Name: "loadtime"}},
		},
	}
	require.Equal(t, []string{"url", "col_0", "loadtime", "col_1", "count_0", "sum_1"}, q.ResultColNames())

	res := q.Run(demoBatch())
	require.Len(t, res.ColNames, len(q.Select)+len(q.Aggregate))
}

func TestStatsAdd(t *testing.T) {
	a := Stats{RuntimeNs: 10, RowsScanned: 3}
	b := Stats{RuntimeNs: 32, RowsScanned: 4}
	require.Equal(t, Stats{RuntimeNs: 42, RowsScanned: 7}, a.Add(b))
	require.Equal(t, a.Add(b), b.Add(a))
	require.Equal(t, a, a.Add(Stats{}))
}

func TestLimit(t *testing.T) {
	b := mem.NewBatch([]mem.Column{
		mem.NewIntColumn("n", []int64{1, 2, 3, 4, 5}),
	})

	t.Run("limit", func(t *testing.T) {
		q := &Query{
			Select: []expr.Expr{&expr.Col{Name: "n"}},
			Limit:  &LimitClause{Limit: 2},
		}
		res := q.Run(b)
		require.Equal(t, [][]value.Value{{value.Int(1)}, {value.Int(2)}}, res.Rows)
		require.Equal(t, uint64(2), res.Stats.RowsScanned)
	})

	t.Run("limit and offset", func(t *testing.T) {
		q := &Query{
			Select: []expr.Expr{&expr.Col{Name: "n"}},
			Limit:  &LimitClause{Limit: 2, Offset: 1},
		}
		res := q.Run(b)
		require.Equal(t, [][]value.Value{{value.Int(2)}, {value.Int(3)}}, res.Rows)
	})

	t.Run("offset past the end", func(t *testing.T) {
		q := &Query{
			Select: []expr.Expr{&expr.Col{Name: "n"}},
			Limit:  &LimitClause{Limit: 2, Offset: 10},
		}
		res := q.Run(b)
		require.Empty(t, res.Rows)
	})

	t.Run("limit ignores filtered rows", func(t *testing.T) {
		q := &Query{
			Select: []expr.Expr{&expr.Col{Name: "n"}},
			Filter: &expr.Func{Op: expr.GT, Left: &expr.Col{Name: "n"}, Right: &expr.Const{Value: value.Int(2)}},
			Limit:  &LimitClause{Limit: 2},
		}
		res := q.Run(b)
		require.Equal(t, [][]value.Value{{value.Int(3)}, {value.Int(4)}}, res.Rows)
		require.Equal(t, uint64(4), res.Stats.RowsScanned)
	})
}

func TestRunBatchesSelect(t *testing.T) {
	b1 := mem.NewBatch([]mem.Column{mem.NewIntColumn("n", []int64{1, 2})})
	b2 := mem.NewBatch([]mem.Column{mem.NewIntColumn("n", []int64{3, 4, 5})})

	q := &Query{
		Select: []expr.Expr{&expr.Col{Name: "n"}},
		Clock:  stepClock(10 * time.Nanosecond),
	}
	res := q.RunBatches([]*mem.Batch{b1, b2})

	require.Equal(t, [][]value.Value{
		{value.Int(1)}, {value.Int(2)}, {value.Int(3)}, {value.Int(4)}, {value.Int(5)},
	}, res.Rows)
	require.Equal(t, uint64(5), res.Stats.RowsScanned)
	// the composed runtime is the sum of the sub-runtimes
	require.Equal(t, uint64(20), res.Stats.RuntimeNs)
}

func TestRunBatchesLimit(t *testing.T) {
	b1 := mem.NewBatch([]mem.Column{mem.NewIntColumn("n", []int64{1, 2})})
	b2 := mem.NewBatch([]mem.Column{mem.NewIntColumn("n", []int64{3, 4, 5})})

	q := &Query{
		Select: []expr.Expr{&expr.Col{Name: "n"}},
		Limit:  &LimitClause{Limit: 3},
	}
	res := q.RunBatches([]*mem.Batch{b1, b2})

	require.Equal(t, [][]value.Value{{value.Int(1)}, {value.Int(2)}, {value.Int(3)}}, res.Rows)
	// the second batch stops as soon as the composed result is full
	require.Equal(t, uint64(3), res.Stats.RowsScanned)
}

func TestRunBatchesMergesGroups(t *testing.T) {
	b1 := mem.NewBatch([]mem.Column{
		mem.NewDictColumn("url", []string{"/", "/x"}),
		mem.NewIntColumn("loadtime", []int64{500, 1500}),
	})
	b2 := mem.NewBatch([]mem.Column{
		mem.NewDictColumn("url", []string{"/", "/", "/y"}),
		mem.NewIntColumn("loadtime", []int64{900, 100, 42}),
	})

	q := &Query{
		Select: []expr.Expr{&expr.Col{Name: "url"}},
		Aggregate: []Aggregation{
			{Agg: agg.Count, Expr: &expr.Const{Value: value.Int(0)}},
			{Agg: agg.Sum, Expr: &expr.Col{Name: "loadtime"}},
		},
	}
	res := q.RunBatches([]*mem.Batch{b1, b2})

	require.Equal(t, []string{"url", "count_0", "sum_1"}, res.ColNames)
	// groups spanning batches are merged, not concatenated
	assert.ElementsMatch(t, [][]value.Value{
		{value.Str("/"), value.Int(3), value.Int(1500)},
		{value.Str("/x"), value.Int(1), value.Int(1500)},
		{value.Str("/y"), value.Int(1), value.Int(42)},
	}, res.Rows)
	require.Equal(t, uint64(5), res.Stats.RowsScanned)
}

func TestRunBatchesEmpty(t *testing.T) {
	q := &Query{Select: []expr.Expr{&expr.Col{Name: "n"}}}
	res := q.RunBatches(nil)
	require.Equal(t, []string{"n"}, res.ColNames)
	require.Empty(t, res.Rows)
	require.Equal(t, Stats{}, res.Stats)
}

func TestGroupKeyVariants(t *testing.T) {
	// an integer and a timestamp of the same magnitude must land in
	// distinct groups
	b := mem.NewBatch([]mem.Column{
		mem.NewColumn("k", encoding.Integer, []value.Value{
			value.Int(1000), value.Time(1000), value.Int(1000),
		}),
	})
	q := &Query{
		Select:    []expr.Expr{&expr.Col{Name: "k"}},
		Aggregate: []Aggregation{{Agg: agg.Count, Expr: &expr.Const{Value: value.Int(0)}}},
	}
	res := q.Run(b)
	require.ElementsMatch(t, [][]value.Value{
		{value.Int(1000), value.Int(2)},
		{value.Time(1000), value.Int(1)},
	}, res.Rows)
}
