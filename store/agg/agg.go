// Package agg defines the reduction kernels available to aggregation
// queries. Each kernel is a monoid over integer accumulators: an
// identity, a per-row reduce, and a combine used to merge the
// accumulators of two partial runs.
package agg

import (
	"fmt"

	"github.com/mna/ardoise/store/value"
)

// Aggregator identifies a reduction kernel.
type Aggregator uint8

const (
	Count Aggregator = iota
	Sum

	maxAggregator = Sum
)

var aggregatorNames = [...]string{
	Count: "count",
	Sum:   "sum",
}

func (a Aggregator) String() string {
	if a <= maxAggregator {
		if name := aggregatorNames[a]; name != "" {
			return name
		}
	}
	return fmt.Sprintf("illegal aggregator (%d)", a)
}

// Zero returns the identity accumulator.
func (a Aggregator) Zero() value.Value { return value.Int(0) }

// Reduce folds one input row into the accumulator. Count ignores the
// input entirely; Sum coerces non-integer inputs to 0.
func (a Aggregator) Reduce(acc, input value.Value) value.Value {
	n, _ := value.AsInt(acc)
	switch a {
	case Count:
		return value.Int(n + 1)
	case Sum:
		in, _ := value.AsInt(input)
		return value.Int(n + in)
	}
	panic(fmt.Sprintf("reduce on %s", a))
}

// Combine merges the accumulators of two partial runs of the same
// aggregation. Both kernels combine by addition: counts and sums of
// disjoint row sets add.
func (a Aggregator) Combine(x, y value.Value) value.Value {
	if a > maxAggregator {
		panic(fmt.Sprintf("combine on %s", a))
	}
	xn, _ := value.AsInt(x)
	yn, _ := value.AsInt(y)
	return value.Int(xn + yn)
}
