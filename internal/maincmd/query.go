package maincmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/mna/ardoise/internal/tabular"
	"github.com/mna/ardoise/store/agg"
	"github.com/mna/ardoise/store/expr"
	"github.com/mna/ardoise/store/ingest"
	"github.com/mna/ardoise/store/mem"
	"github.com/mna/ardoise/store/query"
	"github.com/mna/ardoise/store/value"
	"github.com/mna/mainer"
	"go.uber.org/zap"
	"golang.org/x/exp/slices"
	"golang.org/x/sync/errgroup"
)

func (c *Cmd) Query(ctx context.Context, stdio mainer.Stdio, args []string) error {
	logger := c.logger()
	defer logger.Sync() //nolint:errcheck

	q, err := c.buildQuery()
	if err != nil {
		return printError(stdio, err)
	}

	batches, err := c.load(ctx, logger, args)
	if err != nil {
		return printError(stdio, err)
	}

	res := q.RunBatches(batches)
	logger.Info("query done",
		zap.Uint64("rows_scanned", res.Stats.RowsScanned),
		zap.Int("rows_emitted", len(res.Rows)),
		zap.String("runtime", tabular.FormatRuntime(res.Stats.RuntimeNs)))

	printResult(stdio, res)
	return nil
}

func (c *Cmd) logger() *zap.Logger {
	if !c.Verbose {
		return zap.NewNop()
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// load ingests the files concurrently, one goroutine per file, and
// returns their batches in file order.
func (c *Cmd) load(ctx context.Context, logger *zap.Logger, files []string) ([]*mem.Batch, error) {
	perFile := make([][]*mem.Batch, len(files))

	g, ctx := errgroup.WithContext(ctx)
	for i, path := range files {
		i, path := i, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			bs, err := ingest.File(path, c.BatchSize)
			if err != nil {
				return err
			}
			logger.Info("ingested", zap.String("file", path), zap.Int("batches", len(bs)))
			perFile[i] = bs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var batches []*mem.Batch
	for _, bs := range perFile {
		batches = append(batches, bs...)
	}
	return batches, nil
}

func (c *Cmd) buildQuery() (*query.Query, error) {
	var q query.Query

	for _, name := range splitList(c.Select) {
		q.Select = append(q.Select, &expr.Col{Name: name})
	}
	if c.Where != "" {
		filter, err := parseFilter(c.Where)
		if err != nil {
			return nil, err
		}
		q.Filter = filter
	}
	if c.Count {
		q.Aggregate = append(q.Aggregate, query.Aggregation{
			Agg:  agg.Count,
			Expr: &expr.Const{Value: value.Int(0)},
		})
	}
	for _, name := range splitList(c.Sum) {
		q.Aggregate = append(q.Aggregate, query.Aggregation{
			Agg:  agg.Sum,
			Expr: &expr.Col{Name: name},
		})
	}
	if c.Limit > 0 {
		q.Limit = &query.LimitClause{Limit: c.Limit, Offset: c.Offset}
	}

	if len(q.Select) == 0 && len(q.Aggregate) == 0 {
		return nil, fmt.Errorf("query: nothing to select, provide 'select', 'count' or 'sum'")
	}
	return &q, nil
}

func printResult(stdio mainer.Stdio, res query.Result) {
	rows := make([][]string, len(res.Rows))
	for i, row := range res.Rows {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = v.String()
		}
		rows[i] = cells
	}
	// group order is undefined, sort for a stable display
	slices.SortFunc(rows, func(a, b []string) int { return slices.Compare(a, b) })

	fmt.Fprintf(stdio.Stdout, "Scanned %d rows in %s!\n\n", res.Stats.RowsScanned, tabular.FormatRuntime(res.Stats.RuntimeNs))
	fmt.Fprint(stdio.Stdout, tabular.Format(res.ColNames, rows))
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	names := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			names = append(names, p)
		}
	}
	return names
}
