// Package business derives revenue, customer and conversion metrics and RFM
// segmentation from a transaction-shaped dataset.
package business

import (
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/KaramelBytes/dataloom-cli/internal/dataset"
)

// DefaultLifespanMonths is the assumed customer lifespan used for CLV.
const DefaultLifespanMonths = 12

// Fields names the columns the metrics read and the churn marker.
type Fields struct {
	Revenue     string `mapstructure:"revenue" yaml:"revenue"`
	Date        string `mapstructure:"date" yaml:"date"`
	CustomerID  string `mapstructure:"customer_id" yaml:"customer_id"`
	Status      string `mapstructure:"status" yaml:"status"`
	Visitors    string `mapstructure:"visitors" yaml:"visitors"`
	ChurnStatus string `mapstructure:"churn_status" yaml:"churn_status"`
	// LifespanMonths multiplies CLV; 0 means DefaultLifespanMonths.
	LifespanMonths float64 `mapstructure:"lifespan_months" yaml:"lifespan_months"`
}

// DefaultFields returns the conventional column names.
func DefaultFields() Fields {
	return Fields{
		Revenue:        "revenue",
		Date:           "date",
		CustomerID:     "customerId",
		Status:         "status",
		Visitors:       "visitors",
		ChurnStatus:    "churned",
		LifespanMonths: DefaultLifespanMonths,
	}
}

func (f Fields) withDefaults() Fields {
	d := DefaultFields()
	if f.Revenue == "" {
		f.Revenue = d.Revenue
	}
	if f.Date == "" {
		f.Date = d.Date
	}
	if f.CustomerID == "" {
		f.CustomerID = d.CustomerID
	}
	if f.Status == "" {
		f.Status = d.Status
	}
	if f.Visitors == "" {
		f.Visitors = d.Visitors
	}
	if f.ChurnStatus == "" {
		f.ChurnStatus = d.ChurnStatus
	}
	if f.LifespanMonths <= 0 {
		f.LifespanMonths = d.LifespanMonths
	}
	return f
}

// CustomerMetrics groups per-transaction and retention measures.
type CustomerMetrics struct {
	AverageTransactionValue float64 `json:"averageTransactionValue" yaml:"averageTransactionValue"`
	CustomerLifetimeValue   float64 `json:"customerLifetimeValue" yaml:"customerLifetimeValue"`
	ChurnRate               float64 `json:"churnRate" yaml:"churnRate"`
	RetentionRate           float64 `json:"retentionRate" yaml:"retentionRate"`
}

// PerformanceIndicators groups conversion and revenue-per-head measures.
type PerformanceIndicators struct {
	ConversionRate    float64 `json:"conversionRate" yaml:"conversionRate"`
	AverageOrderValue float64 `json:"averageOrderValue" yaml:"averageOrderValue"`
	RevenuePerUser    float64 `json:"revenuePerUser" yaml:"revenuePerUser"`
}

// Metrics is the business section of a report. Rates are percentages.
type Metrics struct {
	GrowthRate            float64               `json:"growthRate" yaml:"growthRate"`
	CustomerMetrics       CustomerMetrics       `json:"customerMetrics" yaml:"customerMetrics"`
	PerformanceIndicators PerformanceIndicators `json:"performanceIndicators" yaml:"performanceIndicators"`
	Segmentation          []RFMRecord           `json:"segmentation" yaml:"segmentation"`
}

// Compute derives growth, customer and performance metrics. Segmentation is
// left empty; see Segment. Missing or unparsable revenue and visitors count
// as 0 and every ratio with a zero denominator is 0.
func Compute(ds *dataset.Dataset, f Fields) Metrics {
	f = f.withDefaults()
	m := Metrics{Segmentation: []RFMRecord{}}
	rows := ds.Len()
	if rows == 0 {
		return m
	}

	revenue := make([]float64, rows)
	visitors := make([]float64, rows)
	churned := 0
	customers := make(map[string]struct{})
	for i := 0; i < rows; i++ {
		revenue[i] = amount(ds.Get(i, f.Revenue))
		visitors[i] = math.Trunc(amount(ds.Get(i, f.Visitors)))
		if id := ds.Get(i, f.CustomerID); !id.IsMissing() {
			customers[id.String()] = struct{}{}
		}
		if st := ds.Get(i, f.Status); !st.IsMissing() && st.String() == f.ChurnStatus {
			churned++
		}
	}
	totalRevenue, totalVisitors := floats.Sum(revenue), floats.Sum(visitors)
	n := float64(rows)
	distinct := float64(len(customers))
	atv := totalRevenue / n

	m.GrowthRate = growthRate(ds, f)
	m.CustomerMetrics = CustomerMetrics{
		AverageTransactionValue: atv,
		CustomerLifetimeValue:   safeDiv(atv*n*f.LifespanMonths, distinct),
	}
	m.CustomerMetrics.ChurnRate = safeDiv(float64(churned)*100, distinct)
	m.CustomerMetrics.RetentionRate = 100 - m.CustomerMetrics.ChurnRate
	m.PerformanceIndicators = PerformanceIndicators{
		ConversionRate:    safeDiv(n*100, totalVisitors),
		AverageOrderValue: atv,
		RevenuePerUser:    safeDiv(totalRevenue, distinct),
	}
	return m
}

// growthRate compares the revenue of the latest and earliest rows by date.
// Rows whose date does not parse sort after every dated row, in input order.
func growthRate(ds *dataset.Dataset, f Fields) float64 {
	type dated struct {
		row int
		at  time.Time
		ok  bool
	}
	rows := make([]dated, ds.Len())
	for i := range rows {
		t, ok := dataset.ParseTime(ds.Get(i, f.Date))
		rows[i] = dated{row: i, at: t, ok: ok}
	}
	if len(rows) == 0 {
		return 0
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].ok != rows[j].ok {
			return rows[i].ok
		}
		return rows[i].ok && rows[i].at.Before(rows[j].at)
	})
	first := amount(ds.Get(rows[0].row, f.Revenue))
	last := amount(ds.Get(rows[len(rows)-1].row, f.Revenue))
	if first == 0 {
		return 0
	}
	return (last - first) / first * 100
}

func amount(v dataset.Value) float64 {
	x, _ := v.Float()
	return x
}

func safeDiv(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}
