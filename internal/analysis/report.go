// Package analysis assembles per-column statistics, distributions and
// business metrics into a single Report and renders it.
package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/KaramelBytes/dataloom-cli/internal/business"
	"github.com/KaramelBytes/dataloom-cli/internal/categorical"
	"github.com/KaramelBytes/dataloom-cli/internal/dataset"
	"github.com/KaramelBytes/dataloom-cli/internal/stats"
)

var tracer = otel.Tracer("github.com/KaramelBytes/dataloom-cli/internal/analysis")

// Options controls report assembly.
type Options struct {
	// Types are column types declared by the caller. Unless TrustTypes is
	// set they are re-validated against the data and mismatches are noted.
	Types      map[string]dataset.ColumnType
	TrustTypes bool
	// Business toggles business metrics and RFM segmentation.
	Business bool
	Fields   business.Fields
	// AsOf is the reference instant for RFM recency; zero means time.Now().
	AsOf time.Time
	// Bins per numeric histogram; 0 means stats.DefaultBins.
	Bins int
	// Workers bounds concurrent column computations; 0 means GOMAXPROCS.
	Workers int
	// SampleRows determines how many example rows to include in the report.
	SampleRows int
	Logger     *slog.Logger
}

// DefaultOptions returns reasonable defaults for report assembly.
func DefaultOptions() Options {
	return Options{
		Business:   true,
		Fields:     business.DefaultFields(),
		Bins:       stats.DefaultBins,
		SampleRows: 5,
	}
}

// ColumnSummary captures the resolved type and fill of one column.
type ColumnSummary struct {
	Name    string             `json:"name" yaml:"name"`
	Type    dataset.ColumnType `json:"type" yaml:"type"`
	NonNull int                `json:"nonNull" yaml:"nonNull"`
	Missing int                `json:"missing" yaml:"missing"`
}

// Distributions holds chart-ready data: histogram bins for numeric columns
// and category counts for categorical columns.
type Distributions struct {
	Numeric     map[string][]stats.Bin         `json:"numeric" yaml:"numeric"`
	Categorical map[string][]categorical.Count `json:"categorical" yaml:"categorical"`
}

// Report is the result of one analysis run. It is built fresh by Build and
// must be treated as read-only by consumers.
type Report struct {
	ID                  string                              `json:"id" yaml:"id"`
	Name                string                              `json:"name" yaml:"name"`
	GeneratedAt         time.Time                           `json:"generatedAt" yaml:"generatedAt"`
	AsOf                time.Time                           `json:"asOf" yaml:"asOf"`
	Rows                int                                 `json:"rows" yaml:"rows"`
	Headers             []string                            `json:"headers" yaml:"headers"`
	Columns             []ColumnSummary                     `json:"columns" yaml:"columns"`
	DescriptiveStats    map[string]stats.Descriptive        `json:"descriptiveStats" yaml:"descriptiveStats"`
	CategoricalAnalysis map[string]categorical.Distribution `json:"categoricalAnalysis" yaml:"categoricalAnalysis"`
	Distributions       Distributions                       `json:"distributions" yaml:"distributions"`
	BusinessMetrics     business.Metrics                    `json:"businessMetrics" yaml:"businessMetrics"`
	Samples             [][]string                          `json:"samples,omitempty" yaml:"samples,omitempty"`
	Warnings            []string                            `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// Types returns the resolved type of every column, keyed by name.
func (r *Report) Types() map[string]dataset.ColumnType {
	out := make(map[string]dataset.ColumnType, len(r.Columns))
	for _, c := range r.Columns {
		out[c.Name] = c.Type
	}
	return out
}

type columnResult struct {
	summary ColumnSummary
	desc    stats.Descriptive
	bins    []stats.Bin
	dist    categorical.Distribution
	counts  []categorical.Count
	note    string
}

// Build analyzes ds. Columns are processed concurrently and business
// metrics run alongside them; results are merged once all work finishes.
// An empty dataset yields an empty report, not an error. The only error is
// cancellation of ctx.
func Build(ctx context.Context, ds *dataset.Dataset, opt Options) (*Report, error) {
	ctx, span := tracer.Start(ctx, "analysis.Build")
	defer span.End()

	if ds == nil {
		ds = dataset.New("", nil, nil)
	}
	log := opt.Logger
	if log == nil {
		log = slog.Default()
	}
	workers := opt.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	asOf := opt.AsOf
	if asOf.IsZero() {
		asOf = time.Now()
	}

	results := make([]columnResult, len(ds.Headers))
	var (
		metrics  = business.Metrics{Segmentation: []business.RFMRecord{}}
		segments = []business.RFMRecord{}
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, h := range ds.Headers {
		i, h := i, h
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = analyzeColumn(ds, h, opt)
			log.Debug("column analyzed", slog.String("column", h), slog.String("type", string(results[i].summary.Type)))
			return nil
		})
	}
	if opt.Business {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			metrics = business.Compute(ds, opt.Fields)
			return nil
		})
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			segments = business.Segment(ds, opt.Fields, asOf)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("build report: %w", err)
	}

	rep := &Report{
		ID:                  uuid.NewString(),
		Name:                ds.Name,
		GeneratedAt:         time.Now(),
		AsOf:                asOf,
		Rows:                ds.Len(),
		Headers:             append([]string{}, ds.Headers...),
		Columns:             make([]ColumnSummary, 0, len(results)),
		DescriptiveStats:    make(map[string]stats.Descriptive),
		CategoricalAnalysis: make(map[string]categorical.Distribution),
		Distributions: Distributions{
			Numeric:     make(map[string][]stats.Bin),
			Categorical: make(map[string][]categorical.Count),
		},
		BusinessMetrics: metrics,
		Samples:         samples(ds, opt.SampleRows),
		Warnings:        append([]string(nil), ds.Warnings...),
	}
	rep.BusinessMetrics.Segmentation = segments
	for _, res := range results {
		name := res.summary.Name
		rep.Columns = append(rep.Columns, res.summary)
		if res.note != "" {
			rep.Warnings = append(rep.Warnings, res.note)
		}
		switch res.summary.Type {
		case dataset.Numeric:
			rep.DescriptiveStats[name] = res.desc
			rep.Distributions.Numeric[name] = res.bins
		default:
			rep.CategoricalAnalysis[name] = res.dist
			rep.Distributions.Categorical[name] = res.counts
		}
	}

	span.SetAttributes(
		attribute.String("report.id", rep.ID),
		attribute.Int("report.rows", rep.Rows),
		attribute.Int("report.columns", len(rep.Columns)),
	)
	log.Debug("report built", slog.String("id", rep.ID), slog.String("name", rep.Name), slog.Int("rows", rep.Rows))
	return rep, nil
}

func analyzeColumn(ds *dataset.Dataset, name string, opt Options) columnResult {
	res := columnResult{summary: ColumnSummary{Name: name}}
	for _, v := range ds.Column(name) {
		if v.IsMissing() {
			res.summary.Missing++
		} else {
			res.summary.NonNull++
		}
	}

	typ := dataset.Classify(ds, name)
	if declared, ok := opt.Types[name]; ok && declared != typ {
		if opt.TrustTypes {
			typ = declared
		} else {
			res.note = fmt.Sprintf("column %q declared %s but classified %s", name, declared, typ)
		}
	}
	res.summary.Type = typ

	switch typ {
	case dataset.Numeric:
		values := ds.Numbers(name)
		res.desc = stats.Describe(values)
		res.bins = stats.Histogram(values, opt.Bins)
	default:
		values := ds.Strings(name)
		res.dist = categorical.Analyze(values, ds.Len())
		res.counts = categorical.Counts(values)
	}
	return res
}

func samples(ds *dataset.Dataset, n int) [][]string {
	if n <= 0 || ds.Len() == 0 {
		return nil
	}
	if n > ds.Len() {
		n = ds.Len()
	}
	out := make([][]string, n)
	for i := 0; i < n; i++ {
		row := make([]string, len(ds.Headers))
		for j := range row {
			row[j] = ds.Cell(i, j).String()
		}
		out[i] = row
	}
	return out
}
