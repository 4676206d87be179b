package dataset

import (
	"math"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// Kind tags the semantic form of a cell.
type Kind uint8

const (
	Missing Kind = iota
	Number
	Text
)

func (k Kind) String() string {
	switch k {
	case Number:
		return "number"
	case Text:
		return "text"
	default:
		return "missing"
	}
}

// Value is a single parsed cell: a number, a text string, or missing.
// The trimmed source text is kept for every kind so categorical analysis
// can report the spelling found in the file.
type Value struct {
	kind Kind
	num  float64
	raw  string
}

// NumberValue wraps a float. Non-finite inputs become Text.
func NumberValue(f float64) Value {
	raw := strconv.FormatFloat(f, 'f', -1, 64)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Value{kind: Text, raw: raw}
	}
	return Value{kind: Number, num: f, raw: raw}
}

// TextValue wraps a string; an empty (after trim) string is Missing.
func TextValue(s string) Value {
	s = strings.TrimSpace(s)
	if s == "" {
		return Value{}
	}
	return Value{kind: Text, raw: s}
}

func (v Value) Kind() Kind      { return v.kind }
func (v Value) IsMissing() bool { return v.kind == Missing }
func (v Value) IsNumber() bool  { return v.kind == Number }

// Float returns the numeric payload and whether the value is a Number.
func (v Value) Float() (float64, bool) {
	if v.kind != Number {
		return 0, false
	}
	return v.num, true
}

// String returns the trimmed source text ("" for Missing).
func (v Value) String() string { return v.raw }

// MarshalJSON encodes numbers as JSON numbers, text as strings and missing as null.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case Number:
		return []byte(strconv.FormatFloat(v.num, 'f', -1, 64)), nil
	case Text:
		return json.Marshal(v.raw)
	default:
		return []byte("null"), nil
	}
}

// ParseOptions controls numeric parsing of raw cells.
type ParseOptions struct {
	// DecimalSeparator and ThousandsSeparator enable locale-aware parsing
	// ("1.234,5"). When both are 0, cells must parse with strconv.ParseFloat as-is.
	DecimalSeparator   rune
	ThousandsSeparator rune
}

// ParseValue coerces a raw cell to Number, Text or Missing. It never fails:
// anything that is not a finite number is Text.
func ParseValue(raw string, opt ParseOptions) Value {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Value{}
	}
	if f, ok := parseNumeric(s, opt); ok {
		return Value{kind: Number, num: f, raw: s}
	}
	return Value{kind: Text, raw: s}
}

func parseNumeric(s string, opt ParseOptions) (float64, bool) {
	raw := s
	if opt.DecimalSeparator != 0 || opt.ThousandsSeparator != 0 {
		raw = strings.ReplaceAll(raw, "\u00A0", " ")
		dec := opt.DecimalSeparator
		if dec == 0 {
			dec = '.'
		}
		if thou := opt.ThousandsSeparator; thou != 0 && thou != dec {
			raw = strings.ReplaceAll(raw, string(thou), "")
		}
		if dec != '.' {
			if strings.Contains(raw, ".") {
				return 0, false
			}
			raw = strings.ReplaceAll(raw, string(dec), ".")
		}
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
