package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"

	"github.com/xuri/excelize/v2"
	"go.opentelemetry.io/otel/attribute"
)

// ErrSheetNotFound is returned when the requested XLSX sheet does not exist.
var ErrSheetNotFound = errors.New("sheet not found")

// LoadXLSX reads one worksheet of an XLSX workbook into a Dataset.
// The first non-blank row is the header.
func LoadXLSX(ctx context.Context, path string, opt Options) (*Dataset, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()
	return readWorkbook(ctx, f, filepath.Base(path), opt)
}

// ReadXLSX is LoadXLSX for an in-memory or streamed workbook.
func ReadXLSX(ctx context.Context, r io.Reader, name string, opt Options) (*Dataset, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()
	return readWorkbook(ctx, f, name, opt)
}

func readWorkbook(ctx context.Context, f *excelize.File, name string, opt Options) (*Dataset, error) {
	_, span := tracer.Start(ctx, "dataset.ReadXLSX")
	defer span.End()

	sheet, err := pickSheet(f.GetSheetList(), opt.SheetName, opt.SheetIndex)
	if err != nil {
		return nil, err
	}
	shown, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	raw, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}

	maxRows := opt.MaxRows
	if maxRows <= 0 {
		maxRows = math.MaxInt
	}
	var (
		header  []string
		records [][]string
		total   int
	)
	for i, cols := range shown {
		if blankRecord(cols) {
			continue
		}
		if header == nil {
			header = cols
			continue
		}
		total++
		if len(records) >= maxRows {
			continue
		}
		var rawCols []string
		if i < len(raw) {
			rawCols = raw[i]
		}
		records = append(records, mergeCells(cols, rawCols))
	}

	ds := FromStrings(name, header, records, opt.Parse)
	if len(records) < total {
		ds.Warnings = append(ds.Warnings, fmt.Sprintf("loaded only %d/%d rows due to MaxRows", len(records), total))
	}
	span.SetAttributes(
		attribute.String("dataset.name", name),
		attribute.String("dataset.sheet", sheet),
		attribute.Int("dataset.rows", ds.Len()),
	)
	return ds, nil
}

// mergeCells prefers a cell's stored value when its displayed text is a number
// dressed in a number format ("1,234.50", "$5", "12%"). Other cells, dates
// included, keep their displayed text.
func mergeCells(shown, raw []string) []string {
	out := make([]string, len(shown))
	for j, s := range shown {
		out[j] = s
		if j >= len(raw) || s == raw[j] || !formattedNumber(s) {
			continue
		}
		if _, err := strconv.ParseFloat(strings.TrimSpace(raw[j]), 64); err == nil {
			out[j] = raw[j]
		}
	}
	return out
}

// formattedNumber reports whether s is a number once grouping, currency and
// percent decoration is removed.
func formattedNumber(s string) bool {
	stripped := strings.Map(func(r rune) rune {
		if r == ',' || r == '%' || unicode.IsSpace(r) || unicode.Is(unicode.Sc, r) {
			return -1
		}
		return r
	}, s)
	if stripped == "" {
		return false
	}
	_, err := strconv.ParseFloat(stripped, 64)
	return err == nil
}

func pickSheet(sheets []string, name string, index int) (string, error) {
	if name != "" {
		for _, s := range sheets {
			if s == name {
				return s, nil
			}
		}
		return "", fmt.Errorf("%w: %q", ErrSheetNotFound, name)
	}
	if index <= 0 {
		index = 1
	}
	if index > len(sheets) {
		return "", fmt.Errorf("%w: index %d (workbook has %d)", ErrSheetNotFound, index, len(sheets))
	}
	return sheets[index-1], nil
}
