package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescribeOneToFive(t *testing.T) {
	d := Describe([]float64{5, 3, 1, 4, 2})

	assert.Equal(t, 5, d.Count)
	assert.InDelta(t, 3, d.Mean, 1e-12)
	assert.InDelta(t, 3, d.Median, 1e-12)
	assert.InDelta(t, 2, d.Variance, 1e-12)
	assert.InDelta(t, math.Sqrt2, d.Std, 1e-12)
	assert.Equal(t, 1.0, d.Min)
	assert.Equal(t, 5.0, d.Max)
	assert.Equal(t, Quartiles{Q1: 2, Q2: 3, Q3: 4}, d.Quartiles)
	assert.InDelta(t, 0, d.Skewness, 1e-12)
	assert.InDelta(t, -1.3, d.Kurtosis, 1e-12)
}

func TestDescribeEvenMedianAndInputUntouched(t *testing.T) {
	in := []float64{4, 1, 3, 2}
	d := Describe(in)
	assert.InDelta(t, 2.5, d.Median, 1e-12)
	assert.Equal(t, 2.5, d.Quartiles.Q2)
	// floor(0.25*4)=1, floor(0.75*4)=3
	assert.Equal(t, 2.0, d.Quartiles.Q1)
	assert.Equal(t, 4.0, d.Quartiles.Q3)
	assert.Equal(t, []float64{4, 1, 3, 2}, in)
}

func TestDescribeEmpty(t *testing.T) {
	assert.Equal(t, Descriptive{}, Describe(nil))
	assert.Equal(t, Descriptive{}, Describe([]float64{}))
}

func TestDescribeConstantGuardsMoments(t *testing.T) {
	d := Describe([]float64{7, 7, 7})
	assert.Equal(t, 0.0, d.Std)
	assert.Equal(t, 0.0, d.Skewness)
	assert.Equal(t, 0.0, d.Kurtosis)
	assert.Equal(t, 7.0, d.Mode)
	assert.False(t, math.IsNaN(d.Skewness))
}

func TestModeTieKeepsFirstSeen(t *testing.T) {
	assert.Equal(t, 2.0, Describe([]float64{2, 1, 1, 2}).Mode)
	assert.Equal(t, 1.0, Describe([]float64{2, 1, 1, 3}).Mode)
}

func TestDescribeProperties(t *testing.T) {
	samples := [][]float64{
		{1},
		{-5, 0, 5},
		{1.5, 2.25, 100, -42, 3, 3, 3},
		{10, 9, 8, 7, 6, 5, 4, 3, 2, 1, 0.5},
	}
	for _, s := range samples {
		d := Describe(s)
		assert.LessOrEqual(t, d.Min, d.Median)
		assert.LessOrEqual(t, d.Median, d.Max)
		assert.GreaterOrEqual(t, d.Variance, 0.0)
		assert.InDelta(t, math.Sqrt(d.Variance), d.Std, 1e-12)
	}
}

func TestHistogram(t *testing.T) {
	values := []float64{0, 10, 20, 30, 40, 50, 60, 70, 80, 90, 100}
	bins := Histogram(values, DefaultBins)
	require.Len(t, bins, DefaultBins)
	for i, b := range bins {
		assert.Equal(t, float64(i*10), b.RangeStart)
		assert.Equal(t, float64(i*10+10), b.RangeEnd)
		assert.Equal(t, 1, b.Count, "bin %d", i)
	}
	// the maximum falls outside every half-open bin
	assert.Equal(t, len(values)-1, Total(bins))
	assert.Equal(t, "0.00 - 10.00", bins[0].Label)
}

func TestHistogramRebinBoundaries(t *testing.T) {
	bins := Histogram([]float64{0, 25, 50, 75, 100}, DefaultBins)
	starts := make([]float64, len(bins))
	for i, b := range bins {
		starts[i] = b.RangeStart
	}
	again := Histogram(starts, DefaultBins)
	require.Len(t, again, DefaultBins)
	assert.Equal(t, len(starts)-1, Total(again))
}

func TestHistogramDegenerateAndEmpty(t *testing.T) {
	bins := Histogram([]float64{3, 3, 3}, 0)
	require.Len(t, bins, DefaultBins)
	for _, b := range bins {
		assert.Equal(t, 0, b.Count)
		assert.Equal(t, 3.0, b.RangeStart)
		assert.Equal(t, 3.0, b.RangeEnd)
	}
	assert.Empty(t, Histogram(nil, DefaultBins))
}
