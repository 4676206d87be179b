package business

import (
	"time"

	"github.com/KaramelBytes/dataloom-cli/internal/dataset"
)

const msPerDay = 24 * 60 * 60 * 1000

// RFMRecord aggregates one customer's recency (days since the latest
// purchase, relative to the reference instant), purchase count and revenue.
type RFMRecord struct {
	CustomerID string  `json:"customerId" yaml:"customerId"`
	Recency    float64 `json:"recency" yaml:"recency"`
	Frequency  int     `json:"frequency" yaml:"frequency"`
	Monetary   float64 `json:"monetary" yaml:"monetary"`
}

// Segment groups rows by customer in first-seen order. Recency is the
// minimum of asOf-date over the customer's rows, in milliseconds converted to
// days; a customer without any parseable date has recency 0. Rows without a
// customer id are skipped.
func Segment(ds *dataset.Dataset, f Fields, asOf time.Time) []RFMRecord {
	f = f.withDefaults()
	type acc struct {
		id        string
		recencyMs int64
		dated     bool
		frequency int
		monetary  float64
	}
	idx := make(map[string]int)
	var accs []*acc
	for i := 0; i < ds.Len(); i++ {
		idv := ds.Get(i, f.CustomerID)
		if idv.IsMissing() {
			continue
		}
		id := idv.String()
		j, ok := idx[id]
		if !ok {
			j = len(accs)
			idx[id] = j
			accs = append(accs, &acc{id: id})
		}
		a := accs[j]
		a.frequency++
		a.monetary += amount(ds.Get(i, f.Revenue))
		if t, ok := dataset.ParseTime(ds.Get(i, f.Date)); ok {
			r := asOf.Sub(t).Milliseconds()
			if !a.dated || r < a.recencyMs {
				a.recencyMs = r
				a.dated = true
			}
		}
	}

	out := make([]RFMRecord, len(accs))
	for i, a := range accs {
		out[i] = RFMRecord{
			CustomerID: a.id,
			Recency:    float64(a.recencyMs) / msPerDay,
			Frequency:  a.frequency,
			Monetary:   a.monetary,
		}
	}
	return out
}
