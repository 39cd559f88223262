package grid

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ukaji3/sheetcore-go/pkg/sheet/address"
	"github.com/ukaji3/sheetcore-go/pkg/sheet/formula"
)

// Order is a sort direction.
type Order string

const (
	Asc  Order = "asc"
	Desc Order = "desc"
)

// ParseOrder accepts "asc" or "desc" (any case); empty means ascending.
func ParseOrder(s string) (Order, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "asc":
		return Asc, nil
	case "desc":
		return Desc, nil
	}
	return "", fmt.Errorf("%w: sort order %q", ErrInvalidArgument, s)
}

// ValueFunc returns the evaluated value of a 0-based cell.
type ValueFunc func(row, col int) string

// Sort stably reorders rows by the evaluated value of a column. Values that
// both parse as numbers compare numerically, others lexicographically, and
// empty values sort last in either direction.
func (g *Grid) Sort(column string, order Order, value ValueFunc) error {
	col, err := g.Column(column)
	if err != nil {
		return err
	}

	// Evaluate against the current layout before any row moves.
	keys := make([]string, len(g.rows))
	for i := range g.rows {
		keys[i] = value(i, col)
	}
	perm := make([]int, len(g.rows))
	for i := range perm {
		perm[i] = i
	}

	sort.SliceStable(perm, func(a, b int) bool {
		ka, kb := keys[perm[a]], keys[perm[b]]
		if ka == "" || kb == "" {
			return ka != "" && kb == ""
		}
		c := CompareValues(ka, kb)
		if order == Desc {
			return c > 0
		}
		return c < 0
	})

	rows := make([][]string, len(g.rows))
	for i, p := range perm {
		rows[i] = g.rows[p]
	}
	g.rows = rows
	return nil
}

// CompareValues compares numerically when both values parse as numbers and
// lexicographically otherwise. NaN and infinities are text.
func CompareValues(a, b string) int {
	fa, okA := formula.ParseNumber(a)
	fb, okB := formula.ParseNumber(b)
	if okA && okB {
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
		return 0
	}
	return strings.Compare(a, b)
}

// Fill cycles a comma-separated pattern across a range in row-major order,
// widening the grid to cover it. It returns the number of cells written.
func (g *Grid) Fill(rangeRef, pattern string) (int, error) {
	r, err := address.CellOrRange(rangeRef, len(g.rows))
	if err != nil {
		return 0, err
	}
	items := strings.Split(pattern, ",")
	for i := range items {
		items[i] = strings.TrimSpace(items[i])
	}

	g.ensureSize(r.End.Row+1, r.End.Col+1)
	n := 0
	for i := r.Start.Row; i <= r.End.Row; i++ {
		for j := r.Start.Col; j <= r.End.Col; j++ {
			g.rows[i][j] = items[n%len(items)]
			n++
		}
	}
	return n, nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortByColumn(values []colValue) {
	sort.Slice(values, func(i, j int) bool { return values[i].col < values[j].col })
}
