// Package categorical builds frequency distributions and information measures
// for categorical columns.
package categorical

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Category is one entry of a frequency distribution.
type Category struct {
	Category          string  `json:"category" yaml:"category"`
	Count             int     `json:"count" yaml:"count"`
	Percentage        float64 `json:"percentage" yaml:"percentage"`
	RelativeFrequency float64 `json:"relativeFrequency" yaml:"relativeFrequency"`
}

// Distribution summarizes a categorical column. Distribution is sorted by
// count descending; equal counts keep first-observed order.
type Distribution struct {
	Distribution []Category `json:"distribution" yaml:"distribution"`
	UniqueValues int        `json:"uniqueValues" yaml:"uniqueValues"`
	MostCommon   Category   `json:"mostCommon" yaml:"mostCommon"`
	LeastCommon  Category   `json:"leastCommon" yaml:"leastCommon"`
	Entropy      float64    `json:"entropy" yaml:"entropy"`
	Gini         float64    `json:"gini" yaml:"gini"`
}

// Count is a chart-ready category/count pair.
type Count struct {
	Category string `json:"category" yaml:"category"`
	Count    int    `json:"count" yaml:"count"`
}

// Analyze builds the distribution of values (non-empty cells only).
// totalRows is the row count of the whole column, empty cells included, and
// is the denominator for Percentage; RelativeFrequency divides by len(values).
func Analyze(values []string, totalRows int) Distribution {
	counts := Counts(values)
	d := Distribution{
		Distribution: make([]Category, len(counts)),
		UniqueValues: len(counts),
	}
	nonEmpty := len(values)
	for i, c := range counts {
		d.Distribution[i] = Category{
			Category:          c.Category,
			Count:             c.Count,
			Percentage:        ratio(c.Count, totalRows) * 100,
			RelativeFrequency: ratio(c.Count, nonEmpty),
		}
	}
	if len(d.Distribution) > 0 {
		d.MostCommon = d.Distribution[0]
		d.LeastCommon = d.Distribution[len(d.Distribution)-1]
	}
	freqs := make([]float64, len(d.Distribution))
	for i, c := range d.Distribution {
		freqs[i] = c.RelativeFrequency
	}
	d.Entropy = Entropy(freqs)
	d.Gini = Gini(freqs)
	return d
}

// Counts tallies values, sorted by count descending with first-seen order on ties.
func Counts(values []string) []Count {
	idx := make(map[string]int)
	out := []Count{}
	for _, v := range values {
		if i, ok := idx[v]; ok {
			out[i].Count++
			continue
		}
		idx[v] = len(out)
		out = append(out, Count{Category: v, Count: 1})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

// Entropy is the Shannon entropy in bits of the relative frequencies.
func Entropy(freqs []float64) float64 {
	if len(freqs) == 0 {
		return 0
	}
	return stat.Entropy(freqs) / math.Ln2
}

// Gini is 1 - 2*sum((n-i)*f_i) / (n*sum(f)) over frequencies sorted ascending.
func Gini(freqs []float64) float64 {
	n := len(freqs)
	if n == 0 {
		return 0
	}
	sorted := make([]float64, n)
	copy(sorted, freqs)
	sort.Float64s(sorted)
	total := floats.Sum(sorted)
	if total == 0 {
		return 0
	}
	var sum float64
	for i, f := range sorted {
		sum += float64(n-i) * f
	}
	return 1 - (2*sum)/(float64(n)*total)
}

func ratio(a, b int) float64 {
	if b == 0 {
		return 0
	}
	return float64(a) / float64(b)
}
