// Package query filters evaluated rows with a small condition language and
// runs ad-hoc SQL against a throwaway table built from them.
package query

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ukaji3/sheetcore-go/pkg/sheet/codec"
	"github.com/ukaji3/sheetcore-go/pkg/sheet/formula"
)

// ErrInvalidCondition indicates condition text that cannot be parsed.
var ErrInvalidCondition = errors.New("invalid condition")

// Operator is a comparison in the condition language.
type Operator string

const (
	OpEq       Operator = "="
	OpNe       Operator = "!="
	OpGt       Operator = ">"
	OpLt       Operator = "<"
	OpGe       Operator = ">="
	OpLe       Operator = "<="
	OpContains Operator = "contains"
)

// Two-character operators come first so ">=" is not read as ">".
var spacedOps = []Operator{OpGe, OpLe, OpNe, OpContains, OpEq, OpGt, OpLt}

var tightOps = []Operator{OpGe, OpLe, OpNe, OpEq, OpGt, OpLt}

// Condition is a parsed "<column> <op> <value>" filter.
type Condition struct {
	Column string   `json:"column"`
	Op     Operator `json:"op"`
	Value  string   `json:"value"`
}

// ParseCondition parses condition text. Space-delimited operators are tried
// first, then operators written without surrounding spaces. Only "contains"
// matches case-insensitively.
func ParseCondition(where string) (Condition, error) {
	text := strings.TrimSpace(where)

	for _, op := range spacedOps {
		needle := " " + string(op) + " "
		var i int
		if op == OpContains {
			i = indexFold(text, needle)
		} else {
			i = strings.Index(text, needle)
		}
		if i > 0 {
			return newCondition(text[:i], op, text[i+len(needle):], where)
		}
	}
	for _, op := range tightOps {
		if i := strings.Index(text, string(op)); i > 0 {
			return newCondition(text[:i], op, text[i+len(op):], where)
		}
	}
	return Condition{}, fmt.Errorf("%w: %q", ErrInvalidCondition, where)
}

// indexFold is strings.Index with case-insensitive matching of needle. The
// returned offset indexes s itself.
func indexFold(s, needle string) int {
	for i := 0; i+len(needle) <= len(s); i++ {
		if strings.EqualFold(s[i:i+len(needle)], needle) {
			return i
		}
	}
	return -1
}

func newCondition(column string, op Operator, value, where string) (Condition, error) {
	column = strings.TrimSpace(column)
	if column == "" {
		return Condition{}, fmt.Errorf("%w: missing column in %q", ErrInvalidCondition, where)
	}
	return Condition{Column: column, Op: op, Value: unquote(strings.TrimSpace(value))}, nil
}

func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}

// Match reports whether an evaluated cell value satisfies the condition.
func (c Condition) Match(value string) bool {
	if c.Op == OpContains {
		return strings.Contains(strings.ToLower(value), strings.ToLower(c.Value))
	}

	var cmp int
	a, okA := formula.ParseNumber(value)
	b, okB := formula.ParseNumber(c.Value)
	if okA && okB {
		switch {
		case a < b:
			cmp = -1
		case a > b:
			cmp = 1
		}
	} else {
		cmp = strings.Compare(value, c.Value)
	}

	switch c.Op {
	case OpEq:
		return cmp == 0
	case OpNe:
		return cmp != 0
	case OpGt:
		return cmp > 0
	case OpLt:
		return cmp < 0
	case OpGe:
		return cmp >= 0
	case OpLe:
		return cmp <= 0
	}
	return false
}

// Filter returns the 0-based indices of non-empty rows whose value in col
// matches, in original order, stopping after limit matches when limit > 0.
func Filter(rows [][]string, col int, cond Condition, limit int) []int {
	var out []int
	for i, row := range rows {
		if codec.IsEmptyRow(row) || col >= len(row) || !cond.Match(row[col]) {
			continue
		}
		out = append(out, i)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}
