package maincmd

import (
	"context"
	"fmt"

	"github.com/mna/ardoise/internal/tabular"
	"github.com/mna/ardoise/store/ingest"
	"github.com/mna/mainer"
)

func (c *Cmd) Describe(ctx context.Context, stdio mainer.Stdio, args []string) error {
	for _, path := range args {
		if err := ctx.Err(); err != nil {
			return printError(stdio, err)
		}

		batches, err := ingest.File(path, c.BatchSize)
		if err != nil {
			return printError(stdio, err)
		}
		if len(batches) == 0 {
			fmt.Fprintf(stdio.Stdout, "%s: no rows\n", path)
			continue
		}

		var rows [][]string
		for _, col := range batches[0].Cols() {
			codec := col.Codec()
			sig := codec.Signature(true)
			if codec.IsIdentity() {
				sig = "identity"
			}
			rows = append(rows, []string{
				col.Name(),
				codec.DecodedType().String(),
				sig,
				flags(codec.IsSummationPreserving(), codec.IsOrderPreserving(), codec.IsPositiveInteger(), codec.IsElementwiseDecodable()),
			})
		}

		fmt.Fprintf(stdio.Stdout, "%s (%d batches)\n\n", path, len(batches))
		fmt.Fprint(stdio.Stdout, tabular.Format([]string{"column", "type", "codec", "properties"}, rows))
		fmt.Fprintln(stdio.Stdout)
	}
	return nil
}

// flags renders the algebraic property flags as a compact
// sum/order/positive/elementwise string, e.g. "-o-e".
func flags(sum, order, positive, elementwise bool) string {
	b := []byte("----")
	if sum {
		b[0] = 's'
	}
	if order {
		b[1] = 'o'
	}
	if positive {
		b[2] = 'p'
	}
	if elementwise {
		b[3] = 'e'
	}
	return string(b)
}
