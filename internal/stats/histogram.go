package stats

import (
	"fmt"

	mstats "github.com/montanaflynn/stats"
)

// DefaultBins is the fixed number of histogram bins.
const DefaultBins = 10

// Bin is one equal-width histogram bucket covering [RangeStart, RangeEnd).
type Bin struct {
	RangeStart float64 `json:"rangeStart" yaml:"rangeStart"`
	RangeEnd   float64 `json:"rangeEnd" yaml:"rangeEnd"`
	Count      int     `json:"count" yaml:"count"`
	Label      string  `json:"range" yaml:"range"`
}

// Histogram splits [min, max] into bins equal-width buckets. Membership is
// start <= v < end for every bucket, so values equal to the global max are
// not counted. When max == min the width is 0 and every bucket is empty.
// Empty input yields no bins; bins <= 0 uses DefaultBins.
func Histogram(values []float64, bins int) []Bin {
	if len(values) == 0 {
		return []Bin{}
	}
	if bins <= 0 {
		bins = DefaultBins
	}
	lo, _ := mstats.Min(values)
	hi, _ := mstats.Max(values)
	width := (hi - lo) / float64(bins)

	out := make([]Bin, bins)
	for i := range out {
		start := lo + float64(i)*width
		end := start + width
		out[i] = Bin{RangeStart: start, RangeEnd: end, Label: fmt.Sprintf("%.2f - %.2f", start, end)}
	}
	if width == 0 {
		return out
	}
	for i := range out {
		for _, v := range values {
			if v >= out[i].RangeStart && v < out[i].RangeEnd {
				out[i].Count++
			}
		}
	}
	return out
}

// Total sums the bin counts.
func Total(bins []Bin) int {
	n := 0
	for _, b := range bins {
		n += b.Count
	}
	return n
}
