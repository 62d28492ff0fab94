// Package tabular renders query results as plain-text tables for the
// command-line surface.
package tabular

import (
	"fmt"
	"strings"
)

// Format renders the rows as a fixed-width table with a header line.
// Every row must have len(colnames) cells.
func Format(colnames []string, rows [][]string) string {
	widths := make([]int, len(colnames))
	for i, name := range colnames {
		widths[i] = len(name)
	}
	for _, row := range rows {
		for i, cell := range row {
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	var b strings.Builder
	writeRow := func(cells []string) {
		for i, cell := range cells {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString(cell)
			if i < len(cells)-1 {
				b.WriteString(strings.Repeat(" ", widths[i]-len(cell)))
			}
		}
		b.WriteByte('\n')
	}

	writeRow(colnames)
	for i, w := range widths {
		if i > 0 {
			b.WriteString("-+-")
		}
		b.WriteString(strings.Repeat("-", w))
	}
	b.WriteByte('\n')
	for _, row := range rows {
		writeRow(row)
	}
	return b.String()
}

// FormatRuntime renders a duration in nanoseconds with a unit scaled
// to its magnitude.
func FormatRuntime(ns uint64) string {
	switch {
	case ns < 10_000:
		return fmt.Sprintf("%dns", ns)
	case ns < 10_000_000:
		return fmt.Sprintf("%dμs", ns/1_000)
	case ns < 10_000_000_000:
		return fmt.Sprintf("%dms", ns/1_000_000)
	}
	return fmt.Sprintf("%ds", ns/1_000_000_000)
}
