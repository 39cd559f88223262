package formula

import (
	"math"
	"strconv"
	"strings"
)

// Error sentinels produced instead of Go errors.
const (
	// ErrorValue is the result of any failed evaluation.
	ErrorValue = "#ERROR"
	// CycleValue is the result of a formula that depends on itself.
	CycleValue = "#CYCLE"
)

// Kind classifies a Value.
type Kind uint8

const (
	KindEmpty Kind = iota
	KindNumber
	KindString
	KindBool
	KindList
	KindError
)

// Value is an evaluated scalar, a numeric list produced by a range, or an
// error sentinel.
type Value struct {
	Kind Kind
	Num  float64
	// Str holds string content, the error sentinel, or for literal numbers
	// the original cell text so that "007" reads back unchanged.
	Str  string
	Bool bool
	List []float64
}

// Number returns a numeric value.
func Number(f float64) Value { return Value{Kind: KindNumber, Num: f} }

// String returns a string value.
func String(s string) Value { return Value{Kind: KindString, Str: s} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// Error returns an error value carrying sentinel.
func Error(sentinel string) Value { return Value{Kind: KindError, Str: sentinel} }

// IsError reports whether v is an error sentinel.
func (v Value) IsError() bool { return v.Kind == KindError }

// String renders the value the way a reader of the sheet sees it.
func (v Value) String() string {
	switch v.Kind {
	case KindNumber:
		if v.Str != "" {
			return v.Str
		}
		return FormatNumber(v.Num)
	case KindString, KindError:
		return v.Str
	case KindBool:
		if v.Bool {
			return "TRUE"
		}
		return "FALSE"
	case KindList:
		parts := make([]string, len(v.List))
		for i, f := range v.List {
			parts[i] = FormatNumber(f)
		}
		return strings.Join(parts, ",")
	}
	return ""
}

// toNumber coerces a scalar to a number. Empty reads as zero.
func (v Value) toNumber() (float64, bool) {
	switch v.Kind {
	case KindNumber:
		return v.Num, true
	case KindEmpty:
		return 0, true
	case KindBool:
		if v.Bool {
			return 1, true
		}
		return 0, true
	case KindString:
		return ParseNumber(v.Str)
	}
	return 0, false
}

func (v Value) truthy() bool {
	switch v.Kind {
	case KindNumber:
		return v.Num != 0
	case KindString:
		return v.Str != ""
	case KindBool:
		return v.Bool
	case KindList:
		return len(v.List) > 0
	}
	return false
}

// ParseNumber parses a finite decimal number, ignoring surrounding spaces.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// FormatNumber renders f without trailing zeros or exponent notation.
func FormatNumber(f float64) string {
	if f == 0 {
		return "0"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// round8 removes floating-point noise beyond 8 decimal places.
func round8(f float64) float64 {
	r := math.Round(f*1e8) / 1e8
	if math.IsInf(r, 0) || math.IsNaN(r) {
		return f
	}
	return r
}

// literal converts raw non-formula cell content into a value.
func literal(raw string) Value {
	if raw == "" {
		return Value{}
	}
	if f, ok := ParseNumber(raw); ok {
		return Value{Kind: KindNumber, Num: f, Str: raw}
	}
	return String(raw)
}
