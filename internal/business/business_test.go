package business

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/dataloom-cli/internal/dataset"
)

var headers = []string{"date", "customerId", "revenue", "status", "visitors"}

func sample(records ...[]string) *dataset.Dataset {
	return dataset.FromStrings("tx.csv", headers, records, dataset.ParseOptions{})
}

func TestGrowthRateSortsByDate(t *testing.T) {
	ds := sample(
		[]string{"2024-06-01", "c1", "150", "", ""},
		[]string{"2024-01-01", "c2", "100", "", ""},
	)
	assert.InDelta(t, 50, Compute(ds, DefaultFields()).GrowthRate, 1e-9)
}

func TestGrowthRateGuards(t *testing.T) {
	ds := sample(
		[]string{"2024-01-01", "c1", "0", "", ""},
		[]string{"2024-02-01", "c1", "100", "", ""},
	)
	assert.Equal(t, 0.0, Compute(ds, DefaultFields()).GrowthRate)

	// undated rows sort last
	ds = sample(
		[]string{"someday", "c1", "999", "", ""},
		[]string{"2024-02-01", "c1", "100", "", ""},
		[]string{"2024-01-01", "c1", "50", "", ""},
	)
	assert.InDelta(t, (999.0-50.0)/50.0*100, Compute(ds, DefaultFields()).GrowthRate, 1e-9)
}

func TestChurnAndRetention(t *testing.T) {
	ds := sample(
		[]string{"2024-01-01", "c1", "10", "active", ""},
		[]string{"2024-01-02", "c2", "10", "churned", ""},
	)
	m := Compute(ds, DefaultFields())
	assert.InDelta(t, 50, m.CustomerMetrics.ChurnRate, 1e-9)
	assert.InDelta(t, 50, m.CustomerMetrics.RetentionRate, 1e-9)
}

func TestCustomerAndPerformanceMetrics(t *testing.T) {
	ds := sample(
		[]string{"2024-01-01", "c1", "100", "", "10"},
		[]string{"2024-01-05", "c1", "50", "", "20"},
		[]string{"2024-01-07", "c2", "30", "", "10.9"},
		[]string{"2024-01-09", "c3", "oops", "", "x"},
	)
	m := Compute(ds, DefaultFields())

	atv := 180.0 / 4.0
	assert.InDelta(t, atv, m.CustomerMetrics.AverageTransactionValue, 1e-9)
	assert.InDelta(t, atv*(4.0/3.0)*12, m.CustomerMetrics.CustomerLifetimeValue, 1e-9)
	assert.InDelta(t, atv, m.PerformanceIndicators.AverageOrderValue, 1e-9)
	assert.InDelta(t, 60, m.PerformanceIndicators.RevenuePerUser, 1e-9)
	// visitors are truncated like integers: 10 + 20 + 10
	assert.InDelta(t, 4.0/40.0*100, m.PerformanceIndicators.ConversionRate, 1e-9)
	assert.Equal(t, 0.0, m.CustomerMetrics.ChurnRate)
	assert.Equal(t, 100.0, m.CustomerMetrics.RetentionRate)
}

func TestComputeEmptyAndMissingFields(t *testing.T) {
	m := Compute(sample(), DefaultFields())
	assert.Equal(t, Metrics{Segmentation: []RFMRecord{}}, m)

	ds := dataset.FromStrings("x", []string{"other"}, [][]string{{"1"}, {"2"}}, dataset.ParseOptions{})
	m = Compute(ds, DefaultFields())
	assert.Equal(t, 0.0, m.CustomerMetrics.CustomerLifetimeValue)
	assert.Equal(t, 0.0, m.CustomerMetrics.ChurnRate)
	assert.Equal(t, 100.0, m.CustomerMetrics.RetentionRate)
	assert.Equal(t, 0.0, m.PerformanceIndicators.ConversionRate)
	assert.Equal(t, 0.0, m.PerformanceIndicators.RevenuePerUser)
}

func TestCustomFields(t *testing.T) {
	ds := dataset.FromStrings("x", []string{"when", "who", "amount", "state"}, [][]string{
		{"2024-01-01", "a", "10", "lost"},
		{"2024-03-01", "b", "15", "ok"},
	}, dataset.ParseOptions{})
	f := Fields{Revenue: "amount", Date: "when", CustomerID: "who", Status: "state", ChurnStatus: "lost", LifespanMonths: 6}
	m := Compute(ds, f)
	assert.InDelta(t, 50, m.GrowthRate, 1e-9)
	assert.InDelta(t, 50, m.CustomerMetrics.ChurnRate, 1e-9)
	assert.InDelta(t, 12.5*1*6, m.CustomerMetrics.CustomerLifetimeValue, 1e-9)
}

func TestSegment(t *testing.T) {
	asOf := time.Date(2024, 1, 11, 0, 0, 0, 0, time.UTC)
	ds := sample(
		[]string{"2024-01-01", "c2", "20", "", ""},
		[]string{"2024-01-06", "c1", "5", "", ""},
		[]string{"2024-01-10T12:00:00Z", "c2", "x", "", ""},
		[]string{"", "", "99", "", ""},
		[]string{"bad", "c3", "7", "", ""},
	)
	got := Segment(ds, DefaultFields(), asOf)
	require.Len(t, got, 3)
	assert.Equal(t, RFMRecord{CustomerID: "c2", Recency: 0.5, Frequency: 2, Monetary: 20}, got[0])
	assert.Equal(t, RFMRecord{CustomerID: "c1", Recency: 5, Frequency: 1, Monetary: 5}, got[1])
	assert.Equal(t, RFMRecord{CustomerID: "c3", Recency: 0, Frequency: 1, Monetary: 7}, got[2])

	assert.Empty(t, Segment(sample(), DefaultFields(), asOf))
}
