package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculatePercentile_EmptyInput_ReturnsZero(t *testing.T) {
	// GIVEN empty slices
	// WHEN CalculatePercentile is called
	// THEN it returns 0 (not panic)
	assert.Equal(t, 0.0, CalculatePercentile([]float64{}, 99))
	assert.Equal(t, 0.0, CalculatePercentile([]int64{}, 50), "generic constraint covers int64")
}

func TestCalculatePercentile_ReturnsObservedValue(t *testing.T) {
	// GIVEN 1..10 in shuffled order
	data := []int64{7, 3, 10, 1, 5, 9, 2, 8, 4, 6}

	// THEN the empirical quantile picks a sample, never an interpolation
	assert.Equal(t, 1.0, CalculatePercentile(data, 0))
	assert.Equal(t, 5.0, CalculatePercentile(data, 50))
	assert.Equal(t, 9.0, CalculatePercentile(data, 90))
	assert.Equal(t, 10.0, CalculatePercentile(data, 99))
	assert.Equal(t, 10.0, CalculatePercentile(data, 100))
}

func TestCalculatePercentile_DoesNotReorderInput(t *testing.T) {
	data := []int{3, 1, 2}
	CalculatePercentile(data, 50)
	assert.Equal(t, []int{3, 1, 2}, data)
}

func TestCalculateMean(t *testing.T) {
	assert.Equal(t, 0.0, CalculateMean([]int64{}))
	assert.InDelta(t, 2.5, CalculateMean([]int{1, 2, 3, 4}), 1e-12)
}

func TestNewWaitStats_EmptyIsNil(t *testing.T) {
	assert.Nil(t, NewWaitStats(nil))
	assert.Nil(t, NewWaitStats([]int64{}))
}

func TestNewWaitStats_Summarizes(t *testing.T) {
	// GIVEN an even number of waits
	waits := []int64{5, 1, 3, 9}

	stats := NewWaitStats(waits)

	// THEN the median is the upper middle element
	require.NotNil(t, stats)
	assert.Equal(t, int64(1), stats.Min)
	assert.Equal(t, int64(9), stats.Max)
	assert.Equal(t, int64(5), stats.Median)
	assert.Equal(t, int64(18), stats.Total)
	assert.InDelta(t, 4.5, stats.Mean, 1e-12)
	assert.Equal(t, 9.0, stats.P90)
	assert.Equal(t, 9.0, stats.P99)
	assert.Equal(t, []int64{5, 1, 3, 9}, waits, "input must not be sorted in place")
}

func TestNewWaitStats_OddCount_Median(t *testing.T) {
	stats := NewWaitStats([]int64{4, 0, 2})
	require.NotNil(t, stats)
	assert.Equal(t, int64(2), stats.Median)
}
