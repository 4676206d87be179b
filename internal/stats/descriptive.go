// Package stats computes descriptive statistics and equal-width histograms
// over the numeric values of a column.
package stats

import (
	"math"
	"sort"

	mstats "github.com/montanaflynn/stats"
)

// Quartiles are taken by floor index into the sorted values (q1, q3) and the
// median (q2); no interpolation.
type Quartiles struct {
	Q1 float64 `json:"q1" yaml:"q1"`
	Q2 float64 `json:"q2" yaml:"q2"`
	Q3 float64 `json:"q3" yaml:"q3"`
}

// Descriptive summarizes a numeric column. Variance and Std are population
// measures. With Count == 0 every field is 0.
type Descriptive struct {
	Count     int       `json:"count" yaml:"count"`
	Mean      float64   `json:"mean" yaml:"mean"`
	Median    float64   `json:"median" yaml:"median"`
	Mode      float64   `json:"mode" yaml:"mode"`
	Std       float64   `json:"std" yaml:"std"`
	Min       float64   `json:"min" yaml:"min"`
	Max       float64   `json:"max" yaml:"max"`
	Quartiles Quartiles `json:"quartiles" yaml:"quartiles"`
	Variance  float64   `json:"variance" yaml:"variance"`
	Skewness  float64   `json:"skewness" yaml:"skewness"`
	Kurtosis  float64   `json:"kurtosis" yaml:"kurtosis"`
}

// Describe computes Descriptive over values. The input is not modified.
func Describe(values []float64) Descriptive {
	if len(values) == 0 {
		return Descriptive{}
	}
	data := mstats.Float64Data(values)

	// montanaflynn/stats only errors on empty input, which is handled above.
	mean, _ := mstats.Mean(data)
	median, _ := mstats.Median(data)
	variance, _ := mstats.PopulationVariance(data)
	lo, _ := mstats.Min(data)
	hi, _ := mstats.Max(data)
	std := math.Sqrt(variance)

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	n := len(sorted)

	return Descriptive{
		Count:    n,
		Mean:     mean,
		Median:   median,
		Mode:     mode(values),
		Std:      std,
		Min:      lo,
		Max:      hi,
		Variance: variance,
		Quartiles: Quartiles{
			Q1: sorted[int(math.Floor(0.25*float64(n)))],
			Q2: median,
			Q3: sorted[int(math.Floor(0.75*float64(n)))],
		},
		Skewness: standardMoment(values, mean, std, 3),
		Kurtosis: excessKurtosis(values, mean, std),
	}
}

// mode returns the most frequent value. On ties the value that entered the
// frequency table first wins.
func mode(values []float64) float64 {
	counts := make(map[float64]int, len(values))
	order := make([]float64, 0, len(values))
	for _, v := range values {
		if _, ok := counts[v]; !ok {
			order = append(order, v)
		}
		counts[v]++
	}
	var best float64
	bestCount := 0
	for _, v := range order {
		if counts[v] > bestCount {
			best, bestCount = v, counts[v]
		}
	}
	return best
}

// standardMoment is mean((x-mean)^k) / std^k, 0 when std is 0.
func standardMoment(values []float64, mean, std float64, k float64) float64 {
	if len(values) == 0 || std == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += math.Pow(v-mean, k)
	}
	return (sum / float64(len(values))) / math.Pow(std, k)
}

func excessKurtosis(values []float64, mean, std float64) float64 {
	if len(values) == 0 || std == 0 {
		return 0
	}
	return standardMoment(values, mean, std, 4) - 3
}
