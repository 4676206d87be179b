package analysis

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/KaramelBytes/dataloom-cli/internal/dataset"
)

const (
	maxTopValues = 8
	maxRFMRows   = 20
)

// Markdown renders a compact report suitable for terminals or standalone docs.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if r.Name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", r.Name))
	}
	b.WriteString(fmt.Sprintf("Rows: %d\n", r.Rows))
	numeric, categ := 0, 0
	for _, c := range r.Columns {
		if c.Type == dataset.Numeric {
			numeric++
		} else {
			categ++
		}
	}
	b.WriteString(fmt.Sprintf("Columns: %d (numeric %d, categorical %d)\n", len(r.Columns), numeric, categ))
	if !r.AsOf.IsZero() {
		b.WriteString(fmt.Sprintf("As of: %s\n", r.AsOf.Format("2006-01-02 15:04:05 MST")))
	}
	b.WriteString("\n")

	b.WriteString("[SCHEMA]\n")
	for _, c := range r.Columns {
		total := c.NonNull + c.Missing
		missPct := 0.0
		if total > 0 {
			missPct = float64(c.Missing) * 100.0 / float64(total)
		}
		b.WriteString(fmt.Sprintf("- %s: %s (non-null %d, missing %.1f%%)\n", safeName(c.Name), c.Type, c.NonNull, missPct))
	}

	if len(r.DescriptiveStats) > 0 {
		b.WriteString("\n[DESCRIPTIVE STATISTICS]\n")
		for _, c := range r.Columns {
			s, ok := r.DescriptiveStats[c.Name]
			if !ok {
				continue
			}
			b.WriteString(fmt.Sprintf("- %s: count %d, mean %.4g, median %.4g, mode %.4g, std %.4g, variance %.4g, min %.4g, max %.4g\n",
				safeName(c.Name), s.Count, s.Mean, s.Median, s.Mode, s.Std, s.Variance, s.Min, s.Max))
			b.WriteString(fmt.Sprintf("  • quartiles q1 %.4g, q2 %.4g, q3 %.4g; skewness %.3f, kurtosis %.3f\n",
				s.Quartiles.Q1, s.Quartiles.Q2, s.Quartiles.Q3, s.Skewness, s.Kurtosis))
		}
	}

	if len(r.CategoricalAnalysis) > 0 {
		b.WriteString("\n[CATEGORICAL ANALYSIS]\n")
		for _, c := range r.Columns {
			d, ok := r.CategoricalAnalysis[c.Name]
			if !ok {
				continue
			}
			b.WriteString(fmt.Sprintf("- %s: unique=%d, entropy %.3f bits, gini %.3f", safeName(c.Name), d.UniqueValues, d.Entropy, d.Gini))
			if d.UniqueValues > 0 {
				b.WriteString(fmt.Sprintf("; most common %s (%d, %.2f%%), least common %s (%d, %.2f%%)",
					safeVal(d.MostCommon.Category), d.MostCommon.Count, d.MostCommon.Percentage,
					safeVal(d.LeastCommon.Category), d.LeastCommon.Count, d.LeastCommon.Percentage))
			}
			b.WriteString("\n")
			if len(d.Distribution) > 0 {
				b.WriteString("  • top: ")
				for i, kv := range d.Distribution {
					if i == maxTopValues {
						break
					}
					if i > 0 {
						b.WriteString(", ")
					}
					b.WriteString(fmt.Sprintf("%s(%d)", safeVal(kv.Category), kv.Count))
				}
				b.WriteString("\n")
			}
		}
	}

	if len(r.Distributions.Numeric) > 0 {
		b.WriteString("\n[DISTRIBUTIONS]\n")
		for _, c := range r.Columns {
			bins, ok := r.Distributions.Numeric[c.Name]
			if !ok || len(bins) == 0 {
				continue
			}
			b.WriteString(fmt.Sprintf("- %s: ", safeName(c.Name)))
			for i, bin := range bins {
				if i > 0 {
					b.WriteString(", ")
				}
				b.WriteString(fmt.Sprintf("[%s]=%d", bin.Label, bin.Count))
			}
			b.WriteString("\n")
		}
	}

	m := r.BusinessMetrics
	b.WriteString("\n[BUSINESS METRICS]\n")
	b.WriteString(fmt.Sprintf("- Growth rate: %.2f%%\n", m.GrowthRate))
	b.WriteString(fmt.Sprintf("- Average transaction value: %.2f\n", m.CustomerMetrics.AverageTransactionValue))
	b.WriteString(fmt.Sprintf("- Customer lifetime value: %.2f\n", m.CustomerMetrics.CustomerLifetimeValue))
	b.WriteString(fmt.Sprintf("- Churn rate: %.2f%%; retention rate: %.2f%%\n", m.CustomerMetrics.ChurnRate, m.CustomerMetrics.RetentionRate))
	b.WriteString(fmt.Sprintf("- Conversion rate: %.2f%%\n", m.PerformanceIndicators.ConversionRate))
	b.WriteString(fmt.Sprintf("- Average order value: %.2f\n", m.PerformanceIndicators.AverageOrderValue))
	b.WriteString(fmt.Sprintf("- Revenue per user: %.2f\n", m.PerformanceIndicators.RevenuePerUser))

	if len(m.Segmentation) > 0 {
		b.WriteString("\n[RFM SEGMENTATION]\n")
		b.WriteString("| customer | recency (days) | frequency | monetary |\n")
		b.WriteString("| --- | --- | --- | --- |\n")
		for i, s := range m.Segmentation {
			if i == maxRFMRows {
				break
			}
			b.WriteString(fmt.Sprintf("| %s | %.1f | %d | %.2f |\n", safeVal(s.CustomerID), s.Recency, s.Frequency, s.Monetary))
		}
		if len(m.Segmentation) > maxRFMRows {
			b.WriteString(fmt.Sprintf("(%d more customers)\n", len(m.Segmentation)-maxRFMRows))
		}
	}

	if len(r.Samples) > 0 {
		b.WriteString("\n[HEAD AND SAMPLE ROWS]\n")
		// Header
		b.WriteString("| ")
		for i, c := range r.Columns {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString(safeName(c.Name))
		}
		b.WriteString(" |\n")
		b.WriteString("| ")
		for i := range r.Columns {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString("---")
		}
		b.WriteString(" |\n")
		for _, row := range r.Samples {
			b.WriteString("| ")
			for i := range r.Columns {
				if i > 0 {
					b.WriteString(" | ")
				}
				val := ""
				if i < len(row) {
					val = row[i]
				}
				val = truncate(val, 80)
				b.WriteString(safeVal(val))
			}
			b.WriteString(" |\n")
		}
	}
	if len(r.Warnings) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range r.Warnings {
			b.WriteString("- ")
			b.WriteString(w)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}
// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n-3]) + "..."
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
