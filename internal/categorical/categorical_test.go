package categorical

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeScenario(t *testing.T) {
	d := Analyze([]string{"a", "a", "b"}, 3)

	require.Len(t, d.Distribution, 2)
	assert.Equal(t, 2, d.UniqueValues)
	assert.Equal(t, "a", d.Distribution[0].Category)
	assert.Equal(t, 2, d.Distribution[0].Count)
	assert.InDelta(t, 66.67, d.Distribution[0].Percentage, 0.005)
	assert.Equal(t, "b", d.Distribution[1].Category)
	assert.InDelta(t, 33.33, d.Distribution[1].Percentage, 0.005)
	assert.Equal(t, d.Distribution[0], d.MostCommon)
	assert.Equal(t, d.Distribution[1], d.LeastCommon)
}

func TestAnalyzePercentagesSumToHundred(t *testing.T) {
	values := []string{"x", "y", "z", "x", "w", "y", "x"}
	d := Analyze(values, len(values))
	var pct, rel float64
	for _, c := range d.Distribution {
		pct += c.Percentage
		rel += c.RelativeFrequency
	}
	assert.InDelta(t, 100, pct, 1e-9)
	assert.InDelta(t, 1, rel, 1e-9)
}

func TestAnalyzeEmptyRowsInPercentageDenominator(t *testing.T) {
	// four rows, one of them empty
	d := Analyze([]string{"a", "b", "a"}, 4)
	assert.InDelta(t, 50, d.MostCommon.Percentage, 1e-9)
	assert.InDelta(t, 2.0/3.0, d.MostCommon.RelativeFrequency, 1e-9)
}

func TestAnalyzeTiesKeepFirstSeen(t *testing.T) {
	d := Analyze([]string{"b", "c", "a", "c", "b", "a"}, 6)
	got := []string{}
	for _, c := range d.Distribution {
		got = append(got, c.Category)
	}
	assert.Equal(t, []string{"b", "c", "a"}, got)
}

func TestAnalyzeEmpty(t *testing.T) {
	d := Analyze(nil, 0)
	assert.Empty(t, d.Distribution)
	assert.NotNil(t, d.Distribution)
	assert.Equal(t, 0, d.UniqueValues)
	assert.Equal(t, Category{}, d.MostCommon)
	assert.Equal(t, Category{}, d.LeastCommon)
	assert.Equal(t, 0.0, d.Entropy)
	assert.Equal(t, 0.0, d.Gini)
}

func TestEntropy(t *testing.T) {
	assert.InDelta(t, 1, Entropy([]float64{0.5, 0.5}), 1e-12)
	assert.InDelta(t, 2, Entropy([]float64{0.25, 0.25, 0.25, 0.25}), 1e-12)
	assert.InDelta(t, 0, Entropy([]float64{1}), 1e-12)
	d := Analyze([]string{"a", "a", "b"}, 3)
	want := -(2.0/3.0)*math.Log2(2.0/3.0) - (1.0/3.0)*math.Log2(1.0/3.0)
	assert.InDelta(t, want, d.Entropy, 1e-12)
}

func TestGini(t *testing.T) {
	// n=2, sorted [1/3, 2/3]: sum = 2*(1/3) + 1*(2/3) = 4/3; 1 - (8/3)/2 = -1/3
	assert.InDelta(t, -1.0/3.0, Gini([]float64{2.0 / 3.0, 1.0 / 3.0}), 1e-12)
	// uniform: sum = f*(n(n+1)/2); 1 - (n+1)/n
	assert.InDelta(t, -0.25, Gini([]float64{0.25, 0.25, 0.25, 0.25}), 1e-12)
	assert.Equal(t, 0.0, Gini(nil))
	assert.Equal(t, 0.0, Gini([]float64{0, 0}))
}

func TestCounts(t *testing.T) {
	assert.Equal(t, []Count{{"x", 2}, {"y", 1}}, Counts([]string{"y", "x", "x"}))
	assert.Equal(t, []Count{}, Counts(nil))
}
