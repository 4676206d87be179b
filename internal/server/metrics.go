package server

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the service's Prometheus collectors.
type Metrics struct {
	requests *prometheus.CounterVec
	analyses *prometheus.CounterVec
	duration prometheus.Histogram
	rows     prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dataloom",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dataloom",
			Name:      "analyses_total",
			Help:      "Dataset analyses by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "dataloom",
			Name:      "analysis_duration_seconds",
			Help:      "Time spent building a report.",
			Buckets:   prometheus.DefBuckets,
		}),
		rows: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "dataloom",
			Name:      "analysis_rows",
			Help:      "Rows per analyzed dataset.",
			Buckets:   prometheus.ExponentialBuckets(10, 10, 6),
		}),
	}
	reg.MustRegister(m.requests, m.analyses, m.duration, m.rows)
	return m
}

func (m *Metrics) observeRequest(method, route string, status int) {
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}

func (m *Metrics) observeAnalysis(outcome string, rows int, elapsed time.Duration) {
	m.analyses.WithLabelValues(outcome).Inc()
	if outcome == "ok" {
		m.duration.Observe(elapsed.Seconds())
		m.rows.Observe(float64(rows))
	}
}
