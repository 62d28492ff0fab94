// Package query implements the batched query evaluator: given a
// filter expression, a projection list and an optional aggregation
// list, it walks the referenced columns of a batch in lockstep,
// evaluates the predicate per row, and produces either a row set or a
// grouped-aggregate table. Results from multiple batches compose.
package query

import (
	"fmt"
	"time"

	"github.com/mna/ardoise/store/agg"
	"github.com/mna/ardoise/store/expr"
	"github.com/mna/ardoise/store/mem"
	"github.com/mna/ardoise/store/value"
)

// An Aggregation pairs a reduction kernel with the expression
// producing its per-row input.
type Aggregation struct {
	Agg  agg.Aggregator
	Expr expr.Expr
}

// A LimitClause bounds the rows emitted by a non-aggregate query:
// the first Offset matching rows are skipped, emission stops after
// Limit rows. Aggregate queries ignore the clause, as grouping has no
// defined order to truncate against.
type LimitClause struct {
	Limit  uint64
	Offset uint64
}

// A Query describes one pass over a batch. A nil Filter matches every
// row. Queries hold no state across runs and may be reused.
type Query struct {
	Select    []expr.Expr
	Filter    expr.Expr
	Aggregate []Aggregation
	Limit     *LimitClause

	// Clock reports the current time for the runtime statistic; nil
	// means time.Now. It exists so that tests can run with a
	// deterministic clock.
	Clock func() time.Time
}

// Stats records the cost of one or more query runs. It is a monoid
// under Add.
type Stats struct {
	RuntimeNs   uint64
	RowsScanned uint64
}

// Add combines the stats of two runs.
func (s Stats) Add(other Stats) Stats {
	return Stats{
		RuntimeNs:   s.RuntimeNs + other.RuntimeNs,
		RowsScanned: s.RowsScanned + other.RowsScanned,
	}
}

// A Result holds the rows produced by a query run. The result columns
// are the selects followed by the aggregates, named per
// ResultColNames.
type Result struct {
	ColNames []string
	Rows     [][]value.Value
	Stats    Stats
}

// Run evaluates the query over a single batch.
func (q *Query) Run(source *mem.Batch) Result {
	return q.run(source, q.Limit)
}

func (q *Query) run(source *mem.Batch, limit *LimitClause) Result {
	referenced := q.referencedCols()

	var cols []mem.Column
	for _, c := range source.Cols() {
		if _, ok := referenced[c.Name()]; ok {
			cols = append(cols, c)
		}
	}

	colIx := make(map[string]int, len(cols))
	for i, c := range cols {
		colIx[c.Name()] = i
	}

	selects := make([]expr.Compiled, len(q.Select))
	for i, e := range q.Select {
		selects[i] = e.Compile(colIx)
	}
	var filter expr.Compiled
	if q.Filter != nil {
		filter = q.Filter.Compile(colIx)
	}
	aggs := make([]compiledAgg, len(q.Aggregate))
	for i, a := range q.Aggregate {
		aggs[i] = compiledAgg{agg: a.Agg, expr: a.Expr.Compile(colIx)}
	}

	iters := make([]mem.Iterator, len(cols))
	for i, c := range cols {
		iters[i] = c.Iter()
	}
	defer func() {
		for _, it := range iters {
			it.Done()
		}
	}()

	now := q.Clock
	if now == nil {
		now = time.Now
	}

	start := now()
	var rows [][]value.Value
	var scanned uint64
	if len(q.Aggregate) == 0 {
		rows, scanned = runSelect(selects, filter, iters, limit)
	} else {
		rows, scanned = runAggregation(selects, filter, aggs, iters)
	}

	return Result{
		ColNames: q.ResultColNames(),
		Rows:     rows,
		Stats: Stats{
			RuntimeNs:   uint64(now().Sub(start).Nanoseconds()),
			RowsScanned: scanned,
		},
	}
}

// RunBatches evaluates the query over every batch in order and
// composes the results: concatenated rows for plain selections,
// groups merged by key for aggregations, stats summed either way.
func (q *Query) RunBatches(batches []*mem.Batch) Result {
	if len(q.Aggregate) > 0 {
		return q.runBatchesAggregate(batches)
	}

	// each per-batch run is bounded by the rows still needed (offset
	// plus limit, minus the rows already composed); the offset and
	// limit are applied to the composed row set, and batches stop
	// early once enough rows accumulated.
	var need uint64
	if q.Limit != nil {
		need = q.Limit.Offset + q.Limit.Limit
	}

	var combined [][]value.Value
	var stats Stats
	for _, b := range batches {
		var clause *LimitClause
		if q.Limit != nil {
			clause = &LimitClause{Limit: need - uint64(len(combined))}
		}
		res := q.run(b, clause)
		combined = append(combined, res.Rows...)
		stats = stats.Add(res.Stats)
		if q.Limit != nil && uint64(len(combined)) >= need {
			break
		}
	}
	if q.Limit != nil {
		combined = cutRows(combined, q.Limit)
	}

	return Result{ColNames: q.ResultColNames(), Rows: combined, Stats: stats}
}

func (q *Query) runBatchesAggregate(batches []*mem.Batch) Result {
	groups := newGroupTable()
	var stats Stats
	for _, b := range batches {
		res := q.run(b, nil)
		stats = stats.Add(res.Stats)
		for _, row := range res.Rows {
			key, accs := row[:len(q.Select)], row[len(q.Select):]
			g, existed := groups.getOrInsert(key, func() []value.Value {
				return append([]value.Value(nil), accs...)
			})
			if existed {
				for i, a := range q.Aggregate {
					g.accs[i] = a.Agg.Combine(g.accs[i], accs[i])
				}
			}
		}
	}

	return Result{ColNames: q.ResultColNames(), Rows: groups.rows(), Stats: stats}
}

func cutRows(rows [][]value.Value, clause *LimitClause) [][]value.Value {
	if uint64(len(rows)) <= clause.Offset {
		return nil
	}
	rows = rows[clause.Offset:]
	if uint64(len(rows)) > clause.Limit {
		rows = rows[:clause.Limit]
	}
	return rows
}

func (q *Query) referencedCols() map[string]struct{} {
	set := make(map[string]struct{})
	for _, e := range q.Select {
		e.ColNames(set)
	}
	if q.Filter != nil {
		q.Filter.ColNames(set)
	}
	for _, a := range q.Aggregate {
		a.Expr.ColNames(set)
	}
	return set
}

// ResultColNames returns the names of the result columns: bare column
// references keep their name, other projections are named col_0,
// col_1, … in order of first occurrence, and aggregates are named
// count_k or sum_k with k counting across all aggregates.
func (q *Query) ResultColNames() []string {
	names := make([]string, 0, len(q.Select)+len(q.Aggregate))
	anon := 0
	for _, e := range q.Select {
		if col, ok := e.(*expr.Col); ok {
			names = append(names, col.Name)
		} else {
			names = append(names, fmt.Sprintf("col_%d", anon))
			anon++
		}
	}
	for i, a := range q.Aggregate {
		names = append(names, fmt.Sprintf("%s_%d", a.Agg, i))
	}
	return names
}
