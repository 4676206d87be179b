// Package dataset holds the typed tabular model consumed by the analysis core
// and the loaders that build it from CSV and XLSX files.
package dataset

import (
	"errors"
	"fmt"
	"strings"
)

// ColumnType classifies a column for analysis dispatch.
type ColumnType string

const (
	Numeric     ColumnType = "numeric"
	Categorical ColumnType = "categorical"
)

// ErrUnknownColumnType is returned by ParseColumnType for unrecognized names.
var ErrUnknownColumnType = errors.New("unknown column type")

// ParseColumnType accepts "numeric"/"number" and "categorical"/"category"/"text".
func ParseColumnType(s string) (ColumnType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "numeric", "number", "num":
		return Numeric, nil
	case "categorical", "category", "cat", "text":
		return Categorical, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownColumnType, s)
}

// ParseTypeOverrides parses "column=type" pairs into a type map.
func ParseTypeOverrides(specs []string) (map[string]ColumnType, error) {
	if len(specs) == 0 {
		return nil, nil
	}
	out := make(map[string]ColumnType, len(specs))
	for _, override := range specs {
		col, typ, ok := strings.Cut(override, "=")
		col = strings.TrimSpace(col)
		if !ok || col == "" {
			return nil, fmt.Errorf("invalid type override %q (use column=numeric|categorical)", override)
		}
		ct, err := ParseColumnType(typ)
		if err != nil {
			return nil, err
		}
		out[col] = ct
	}
	return out, nil
}

// Row is one record, aligned with the owning Dataset's Headers.
type Row []Value

// Dataset is an ordered, fully materialized table.
// The analysis core never mutates it.
type Dataset struct {
	Name    string
	Headers []string
	Rows    []Row
	// Warnings collected at ingestion (row caps, renamed headers).
	Warnings []string

	index map[string]int
}

// New builds a Dataset. Header names are made unique and rows are padded or
// truncated to the header width.
func New(name string, headers []string, rows []Row) *Dataset {
	hs, renamed := uniqueHeaders(headers)
	d := &Dataset{Name: name, Headers: hs, index: make(map[string]int, len(hs))}
	for i, h := range hs {
		d.index[h] = i
	}
	if renamed {
		d.Warnings = append(d.Warnings, "duplicate or empty header names were renamed")
	}
	d.Rows = make([]Row, len(rows))
	for i, r := range rows {
		d.Rows[i] = fitRow(r, len(hs))
	}
	return d
}

// FromStrings parses raw string records into a Dataset.
func FromStrings(name string, headers []string, records [][]string, opt ParseOptions) *Dataset {
	rows := make([]Row, len(records))
	for i, rec := range records {
		row := make(Row, len(rec))
		for j, cell := range rec {
			row[j] = ParseValue(cell, opt)
		}
		rows[i] = row
	}
	return New(name, headers, rows)
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Rows)
}

// Index returns the position of a column. Datasets assembled by hand or
// whose Headers changed after New fall back to a scan of Headers.
func (d *Dataset) Index(col string) (int, bool) {
	if d == nil {
		return 0, false
	}
	if i, ok := d.index[col]; ok && i < len(d.Headers) && d.Headers[i] == col {
		return i, true
	}
	for i, h := range d.Headers {
		if h == col {
			return i, true
		}
	}
	return 0, false
}

// Cell returns the value at row i, column j; Missing when either is out of range.
func (d *Dataset) Cell(i, j int) Value {
	if d == nil || i < 0 || i >= len(d.Rows) || j < 0 || j >= len(d.Rows[i]) {
		return Value{}
	}
	return d.Rows[i][j]
}

// Get returns the value of col in row i; Missing if the column is unknown.
func (d *Dataset) Get(i int, col string) Value {
	j, ok := d.Index(col)
	if !ok {
		return Value{}
	}
	return d.Cell(i, j)
}

// Column returns every row's value for col, including Missing entries.
func (d *Dataset) Column(col string) []Value {
	j, ok := d.Index(col)
	if !ok {
		return nil
	}
	out := make([]Value, len(d.Rows))
	for i := range d.Rows {
		out[i] = d.Cell(i, j)
	}
	return out
}

// Numbers returns the Number values of col, dropping text and missing cells.
func (d *Dataset) Numbers(col string) []float64 {
	var out []float64
	for _, v := range d.Column(col) {
		if f, ok := v.Float(); ok {
			out = append(out, f)
		}
	}
	return out
}

// Strings returns the non-missing values of col as their source text.
func (d *Dataset) Strings(col string) []string {
	var out []string
	for _, v := range d.Column(col) {
		if !v.IsMissing() {
			out = append(out, v.String())
		}
	}
	return out
}

// Classify reports whether col is numeric: every non-empty value must be a
// Number. A column with no non-empty values is categorical.
func Classify(d *Dataset, col string) ColumnType {
	seen := false
	for _, v := range d.Column(col) {
		switch v.Kind() {
		case Missing:
			continue
		case Text:
			return Categorical
		}
		seen = true
	}
	if !seen {
		return Categorical
	}
	return Numeric
}

// ClassifyAll classifies every header.
func ClassifyAll(d *Dataset) map[string]ColumnType {
	out := make(map[string]ColumnType, len(d.Headers))
	for _, h := range d.Headers {
		out[h] = Classify(d, h)
	}
	return out
}

func fitRow(r Row, n int) Row {
	if len(r) == n {
		return r
	}
	out := make(Row, n)
	copy(out, r)
	return out
}

func uniqueHeaders(in []string) ([]string, bool) {
	out := make([]string, len(in))
	seen := make(map[string]int, len(in))
	renamed := false
	for i, h := range in {
		name := strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if name == "" {
			name = fmt.Sprintf("column_%d", i+1)
			renamed = true
		}
		if n, ok := seen[name]; ok {
			renamed = true
			for {
				n++
				cand := fmt.Sprintf("%s_%d", name, n)
				if _, taken := seen[cand]; !taken {
					seen[name] = n
					name = cand
					break
				}
			}
		}
		seen[name] = 1
		out[i] = name
	}
	return out, renamed
}
