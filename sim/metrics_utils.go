// sim/metrics_utils.go
package sim

import (
	"slices"

	"gonum.org/v1/gonum/stat"
)

type IntOrFloat64 interface {
	int | int64 | float64
}

// sortedFloat64s returns a sorted float64 copy of data.
func sortedFloat64s[T IntOrFloat64](data []T) []float64 {
	out := make([]float64, len(data))
	for i, v := range data {
		out[i] = float64(v)
	}
	slices.Sort(out)
	return out
}

// CalculatePercentile returns the p-th percentile (0-100) of data using the
// empirical distribution, so the result is always one of the observed values.
// Returns 0 for empty data.
func CalculatePercentile[T IntOrFloat64](data []T, p float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Quantile(p/100, stat.Empirical, sortedFloat64s(data), nil)
}

// CalculateMean returns the arithmetic mean of data, or 0 for empty data.
func CalculateMean[T IntOrFloat64](data []T) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(sortedFloat64s(data), nil)
}

// NewWaitStats summarizes wait times. Returns nil for empty input.
// The median is the upper middle element for even-sized inputs.
func NewWaitStats(waits []int64) *WaitStats {
	if len(waits) == 0 {
		return nil
	}
	sorted := slices.Clone(waits)
	slices.Sort(sorted)

	var total int64
	for _, w := range sorted {
		total += w
	}
	asFloat := sortedFloat64s(sorted)

	return &WaitStats{
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
		Median: sorted[len(sorted)/2],
		Total:  total,
		Mean:   stat.Mean(asFloat, nil),
		P90:    stat.Quantile(0.90, stat.Empirical, asFloat, nil),
		P99:    stat.Quantile(0.99, stat.Empirical, asFloat, nil),
	}
}
