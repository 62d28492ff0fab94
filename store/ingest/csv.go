// Package ingest loads raw tabular data into encoded in-memory
// batches. Column types are inferred from the data: all-integer
// columns are stored offset-compressed when their range fits 32 bits,
// everything else is dictionary-compressed, and an all-integer column
// named "timestamp" is stored decoded and exposed as timestamps.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/mna/ardoise/store/encoding"
	"github.com/mna/ardoise/store/mem"
	"github.com/mna/ardoise/store/value"
)

// the column exposed as timestamps when its values are all integers.
const timestampColumn = "timestamp"

// File reads the CSV file at path into batches of at most batchSize
// rows. A batchSize of zero or less loads everything into a single
// batch.
func File(path string, batchSize int) ([]*mem.Batch, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	bs, err := Read(f, batchSize)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return bs, nil
}

// Read reads CSV data with a header row into batches of at most
// batchSize rows. Column types are inferred over the whole input so
// that every batch of a column shares a logical type.
func Read(r io.Reader, batchSize int) ([]*mem.Batch, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = false

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("missing header row")
	}
	if err != nil {
		return nil, err
	}

	cols := make([][]string, len(header))
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		for i, v := range rec {
			cols[i] = append(cols[i], v)
		}
	}

	isInt := make([]bool, len(header))
	for i, vals := range cols {
		isInt[i] = allIntegers(vals)
	}

	nrows := 0
	if len(cols) > 0 {
		nrows = len(cols[0])
	}
	if batchSize <= 0 {
		batchSize = nrows
	}

	var batches []*mem.Batch
	for start := 0; start < nrows; start += batchSize {
		end := start + batchSize
		if end > nrows {
			end = nrows
		}
		bcols := make([]mem.Column, len(header))
		for i, name := range header {
			bcols[i] = buildColumn(name, cols[i][start:end], isInt[i])
		}
		batches = append(batches, mem.NewBatch(bcols))
	}
	return batches, nil
}

func buildColumn(name string, vals []string, isInt bool) mem.Column {
	if !isInt {
		return mem.NewDictColumn(name, vals)
	}

	if name == timestampColumn {
		ts := make([]value.Value, len(vals))
		for i, v := range vals {
			n, _ := strconv.ParseInt(v, 10, 64)
			ts[i] = value.Time(n)
		}
		return mem.NewColumn(name, encoding.Timestamp, ts)
	}

	ints := make([]int64, len(vals))
	for i, v := range vals {
		ints[i], _ = strconv.ParseInt(v, 10, 64)
	}
	return mem.NewIntColumn(name, ints)
}

func allIntegers(vals []string) bool {
	if len(vals) == 0 {
		return false
	}
	for _, v := range vals {
		if _, err := strconv.ParseInt(v, 10, 64); err != nil {
			return false
		}
	}
	return true
}
