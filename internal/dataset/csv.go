package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("github.com/KaramelBytes/dataloom-cli/internal/dataset")

// ErrUnsupportedFormat is returned by Load for file types other than CSV/TSV/XLSX.
var ErrUnsupportedFormat = errors.New("unsupported dataset format")

// Options controls ingestion of tabular files.
type Options struct {
	// MaxRows limits rows loaded; 0 means unlimited.
	MaxRows int
	// Delimiter for CSV. If 0, picks '\t' for .tsv and ',' otherwise.
	Delimiter rune
	// Numeric parsing locale; see ParseOptions.
	Parse ParseOptions
	// XLSX sheet selection. SheetName wins over SheetIndex (1-based).
	SheetName  string
	SheetIndex int
}

// DefaultOptions returns reasonable defaults for dataset ingestion.
func DefaultOptions() Options {
	return Options{SheetIndex: 1}
}

// Load picks a loader by file extension.
func Load(ctx context.Context, path string, opt Options) (*Dataset, error) {
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".xlsx"):
		return LoadXLSX(ctx, path, opt)
	case strings.HasSuffix(lower, ".csv"), strings.HasSuffix(lower, ".tsv"), strings.HasSuffix(lower, ".txt"):
		return LoadCSV(ctx, path, opt)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
}

// Read picks a reader by the extension of name, for content that does not
// live on disk (uploads).
func Read(ctx context.Context, r io.Reader, name string, opt Options) (*Dataset, error) {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".xlsx"):
		return ReadXLSX(ctx, r, name, opt)
	case strings.HasSuffix(lower, ".csv"), strings.HasSuffix(lower, ".tsv"), strings.HasSuffix(lower, ".txt"):
		if opt.Delimiter == 0 {
			opt.Delimiter = sniffDelimiter(name)
		}
		return ReadCSV(ctx, r, name, opt)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(name))
}

// LoadCSV reads a CSV/TSV file into a Dataset.
func LoadCSV(ctx context.Context, path string, opt Options) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	if opt.Delimiter == 0 {
		opt.Delimiter = sniffDelimiter(path)
	}
	return ReadCSV(ctx, f, filepath.Base(path), opt)
}

// ReadCSV reads CSV records from r. The first record is the header row.
// Blank lines are skipped; short records are padded with Missing.
func ReadCSV(ctx context.Context, r io.Reader, name string, opt Options) (*Dataset, error) {
	_, span := tracer.Start(ctx, "dataset.ReadCSV")
	defer span.End()

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.Comma = ','
	if opt.Delimiter != 0 {
		cr.Comma = opt.Delimiter
	}

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return New(name, nil, nil), nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	header = append([]string(nil), header...)

	maxRows := opt.MaxRows
	if maxRows <= 0 {
		maxRows = math.MaxInt
	}
	var (
		records [][]string
		total   int
	)
	for {
		rec, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w", total+1, err)
		}
		if blankRecord(rec) {
			continue
		}
		total++
		if len(records) >= maxRows {
			continue
		}
		records = append(records, rec)
	}

	ds := FromStrings(name, header, records, opt.Parse)
	if len(records) < total {
		ds.Warnings = append(ds.Warnings, fmt.Sprintf("loaded only %d/%d rows due to MaxRows", len(records), total))
	}
	span.SetAttributes(
		attribute.String("dataset.name", name),
		attribute.Int("dataset.rows", ds.Len()),
		attribute.Int("dataset.columns", len(ds.Headers)),
	)
	return ds, nil
}

func blankRecord(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func sniffDelimiter(path string) rune {
	name := strings.ToLower(path)
	if strings.HasSuffix(name, ".tsv") {
		return '\t'
	}
	// Default to comma; the filename is the only hint we use.
	return ','
}
