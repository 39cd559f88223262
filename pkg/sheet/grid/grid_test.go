package grid

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/ukaji3/sheetcore-go/pkg/sheet/address"
	"github.com/ukaji3/sheetcore-go/pkg/sheet/codec"
	"github.com/ukaji3/sheetcore-go/pkg/sheet/models"
)

func newTestGrid(rows ...[]string) *Grid {
	return FromDocument(&codec.Document{
		Headers: []string{"Name", "Age", "City"},
		Rows:    rows,
	})
}

func rawRows(g *Grid) [][]string {
	return g.Document().Rows
}

func TestSetWidens(t *testing.T) {
	g := newTestGrid([]string{"Alice", "30", "Oslo"})
	if err := g.Set("E3", "x"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if g.Rows() != 3 || g.Cols() != 5 {
		t.Fatalf("expected 3x5 grid, got %dx%d", g.Rows(), g.Cols())
	}
	if diff := cmp.Diff([]string{"Name", "Age", "City", "D", "E"}, g.Headers()); diff != "" {
		t.Errorf("headers mismatch (-want +got):\n%s", diff)
	}
	if raw, _ := g.Raw(2, 4); raw != "x" {
		t.Errorf("Raw(2,4) = %q, expected x", raw)
	}
	for i := 0; i < g.Rows(); i++ {
		if len(rawRows(g)[i]) != 5 {
			t.Errorf("row %d has %d cells, expected 5", i, len(rawRows(g)[i]))
		}
	}

	if err := g.Set("5A", "x"); !errors.Is(err, address.ErrInvalidReference) {
		t.Errorf("expected ErrInvalidReference, got %v", err)
	}
}

func TestSetStoresFormulaUnevaluated(t *testing.T) {
	g := newTestGrid()
	if err := g.Set("B1", "=1+1"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if raw, _ := g.Raw(0, 1); raw != "=1+1" {
		t.Errorf("Raw = %q", raw)
	}
}

func TestAdd(t *testing.T) {
	g := newTestGrid(
		[]string{"Alice", "30", "Oslo"},
		[]string{"", "", ""},
		[]string{"Bob", "25", "Rome"},
	)

	row, err := g.Add(map[string]string{"name": "Carol", "C": "Lima"})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if row != 2 {
		t.Errorf("expected first empty row 2, got %d", row)
	}

	row, err = g.Add(map[string]string{"Name": "Dan"})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if row != 4 {
		t.Errorf("expected appended row 4, got %d", row)
	}

	expected := [][]string{
		{"Alice", "30", "Oslo"},
		{"Carol", "", "Lima"},
		{"Bob", "25", "Rome"},
		{"Dan", "", ""},
	}
	if diff := cmp.Diff(expected, rawRows(g)); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}

	if _, err := g.Add(map[string]string{"Salary": "1"}); !errors.Is(err, address.ErrUnknownColumn) {
		t.Errorf("expected ErrUnknownColumn, got %v", err)
	}
	if _, err := g.Add(map[string]string{"Nope": "1"}); !errors.Is(err, address.ErrUnknownColumn) {
		t.Errorf("letters beyond the grid must be rejected, got %v", err)
	}
}

func TestRemoveAndUpdate(t *testing.T) {
	g := newTestGrid(
		[]string{"Alice", "30", "Oslo"},
		[]string{"Bob", "25", "Rome"},
		[]string{"Carol", "41", "Lima"},
	)
	if err := g.Remove(2); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if raw, _ := g.Raw(1, 0); raw != "Carol" {
		t.Errorf("expected Carol to shift up, got %q", raw)
	}
	if err := g.Remove(5); !errors.Is(err, ErrRowOutOfRange) {
		t.Errorf("expected ErrRowOutOfRange, got %v", err)
	}

	changes, err := g.Update(1, map[string]string{"City": "Bergen", "Age": "31"})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	expected := []string{"Age: 30 → 31", "City: Oslo → Bergen"}
	if diff := cmp.Diff(expected, changes); diff != "" {
		t.Errorf("changes mismatch (-want +got):\n%s", diff)
	}
	if _, err := g.Update(0, map[string]string{"Age": "1"}); !errors.Is(err, ErrRowOutOfRange) {
		t.Errorf("expected ErrRowOutOfRange, got %v", err)
	}
}

func TestSort(t *testing.T) {
	g := newTestGrid(
		[]string{"a", "30", ""},
		[]string{"b", "", ""},
		[]string{"c", "100", ""},
		[]string{"d", "4", ""},
		[]string{"e", "", ""},
		[]string{"f", "30", ""},
	)
	value := func(row, col int) string {
		raw, _ := g.Raw(row, col)
		return raw
	}
	names := func() []string {
		var out []string
		for i := 0; i < g.Rows(); i++ {
			raw, _ := g.Raw(i, 0)
			out = append(out, raw)
		}
		return out
	}

	if err := g.Sort("Age", Desc, value); err != nil {
		t.Fatalf("Sort failed: %v", err)
	}
	if diff := cmp.Diff([]string{"c", "a", "f", "d", "b", "e"}, names()); diff != "" {
		t.Errorf("desc order mismatch (-want +got):\n%s", diff)
	}

	if err := g.Sort("Age", Asc, value); err != nil {
		t.Fatalf("Sort failed: %v", err)
	}
	if diff := cmp.Diff([]string{"d", "a", "f", "c", "b", "e"}, names()); diff != "" {
		t.Errorf("asc order mismatch (-want +got):\n%s", diff)
	}

	if err := g.Sort("Missing Col", Asc, value); !errors.Is(err, address.ErrUnknownColumn) {
		t.Errorf("expected ErrUnknownColumn, got %v", err)
	}
}

func TestCompareValues(t *testing.T) {
	tests := []struct {
		a, b     string
		expected int
	}{
		{"9", "10", -1},
		{"10", "9", 1},
		{"2.5", "2.50", 0},
		{"apple", "banana", -1},
		{"9", "apple", -1},
		{"b", "a", 1},
		{" 7 ", "10", -1},
		{"NaN", "5", 1},
		{"5", "NaN", -1},
		{"Inf", "5", 1},
	}
	for _, tt := range tests {
		if got := CompareValues(tt.a, tt.b); got != tt.expected {
			t.Errorf("CompareValues(%q, %q) = %d, expected %d", tt.a, tt.b, got, tt.expected)
		}
	}
}

func TestParseOrder(t *testing.T) {
	if o, _ := ParseOrder("DESC"); o != Desc {
		t.Errorf("expected desc, got %q", o)
	}
	if o, _ := ParseOrder(""); o != Asc {
		t.Errorf("expected asc, got %q", o)
	}
	if _, err := ParseOrder("sideways"); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestFill(t *testing.T) {
	g := newTestGrid()
	n, err := g.Fill("A1:C2", "x, y")
	if err != nil {
		t.Fatalf("Fill failed: %v", err)
	}
	if n != 6 {
		t.Errorf("expected 6 cells, got %d", n)
	}
	expected := [][]string{{"x", "y", "x"}, {"y", "x", "y"}}
	if diff := cmp.Diff(expected, rawRows(g)); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestResize(t *testing.T) {
	g := newTestGrid([]string{"Alice", "30", "Oslo"}, []string{"Bob", "25", "Rome"})
	if err := g.Resize(3, 4); err != nil {
		t.Fatalf("Resize failed: %v", err)
	}
	if g.Rows() != 3 || g.Cols() != 4 {
		t.Fatalf("expected 3x4, got %dx%d", g.Rows(), g.Cols())
	}
	if err := g.Resize(1, 2); err != nil {
		t.Fatalf("Resize failed: %v", err)
	}
	if diff := cmp.Diff([][]string{{"Alice", "30"}}, rawRows(g)); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
	if len(g.Formats()) != 2 {
		t.Errorf("expected formats to follow columns, got %d", len(g.Formats()))
	}
	if err := g.Resize(1, 0); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestClear(t *testing.T) {
	g := newTestGrid([]string{"Alice", "30", "Oslo"}, []string{"Bob", "25", "Rome"})
	if err := g.Clear("B1:C1"); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if diff := cmp.Diff([][]string{{"Alice", "", ""}, {"Bob", "25", "Rome"}}, rawRows(g)); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}

	if err := g.Clear(""); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if g.Rows() != 2 || g.Cols() != 3 {
		t.Errorf("clear must keep dimensions, got %dx%d", g.Rows(), g.Cols())
	}
	if diff := cmp.Diff([]string{"Name", "Age", "City"}, g.Headers()); diff != "" {
		t.Errorf("headers mismatch (-want +got):\n%s", diff)
	}
	for _, row := range rawRows(g) {
		if !codec.IsEmptyRow(row) {
			t.Errorf("expected blank row, got %v", row)
		}
	}
}

func TestRenameAndFormat(t *testing.T) {
	g := newTestGrid()
	old, err := g.Rename("age", "Years")
	if err != nil {
		t.Fatalf("Rename failed: %v", err)
	}
	if old != "Age" || g.Headers()[1] != "Years" {
		t.Errorf("Rename: old=%q headers=%v", old, g.Headers())
	}

	typ := models.ColumnType("weird")
	width := 140
	f, err := g.SetFormat("Years", models.FormatOptions{Type: &typ, Width: &width})
	if err != nil {
		t.Fatalf("SetFormat failed: %v", err)
	}
	align := models.AlignRight
	f, err = g.SetFormat("B", models.FormatOptions{Align: &align})
	if err != nil {
		t.Fatalf("SetFormat failed: %v", err)
	}
	expected := models.ColumnFormat{Type: "weird", Align: models.AlignRight, Width: 140}
	if f != expected {
		t.Errorf("format = %+v, expected %+v", f, expected)
	}
}
