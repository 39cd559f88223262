package sheet

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/ukaji3/sheetcore-go/pkg/sheet/models"
)

// newTestSheet writes content to a temporary backing file and opens it.
func newTestSheet(t *testing.T, content string, opts Options) *Sheet {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.csv")
	if content != "" {
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write backing file: %v", err)
		}
	}
	s, err := Open(path, opts)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read backing file: %v", err)
	}
	return string(data)
}

func TestMissingFileStartsEmpty(t *testing.T) {
	s := newTestSheet(t, "", DefaultOptions())

	view, err := s.View("")
	if err != nil {
		t.Fatalf("View failed: %v", err)
	}
	if diff := cmp.Diff([]string{"A", "B", "C", "D", "E"}, view.Headers); diff != "" {
		t.Errorf("headers mismatch (-want +got):\n%s", diff)
	}
	if len(view.Rows) != 0 {
		t.Errorf("expected no rows, got %d", len(view.Rows))
	}
	if _, err := os.Stat(s.Path()); !os.IsNotExist(err) {
		t.Errorf("expected no backing file before the first write, got %v", err)
	}

	if err := s.Set("A1", "hello"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if got := readFile(t, s.Path()); got != "A,B,C,D,E\nhello,,,,\n" {
		t.Errorf("unexpected file content %q", got)
	}
}

func TestLoadMissingFileFails(t *testing.T) {
	s := newTestSheet(t, "", DefaultOptions())
	if err := s.Load(); err == nil {
		t.Error("expected explicit Load of a missing file to fail")
	}
}

func TestSetPersistsFormulaText(t *testing.T) {
	s := newTestSheet(t, "Name,Amount\nalpha,10\n", DefaultOptions())

	if err := s.Set("B2", "=B1*2"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if got, want := readFile(t, s.Path()), "Name,Amount\nalpha,10\n,\"=B1*2\"\n"; got != want {
		t.Errorf("file content = %q, expected %q", got, want)
	}

	info, err := s.Get("b2")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	want := &models.CellInfo{Ref: "B2", Raw: "=B1*2", Value: "20", Formula: true}
	if diff := cmp.Diff(want, info); diff != "" {
		t.Errorf("Get mismatch (-want +got):\n%s", diff)
	}
}

func TestFormatLikeDataRowSurvivesReopen(t *testing.T) {
	s := newTestSheet(t, "Note,Qty\n", DefaultOptions())
	for ref, v := range map[string]string{"A1": "::todo", "A2": "x", "B2": "5"} {
		if err := s.Set(ref, v); err != nil {
			t.Fatalf("Set(%s) failed: %v", ref, err)
		}
	}

	reopened, err := Open(s.Path(), DefaultOptions())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer reopened.Close()
	view, err := reopened.View("")
	if err != nil {
		t.Fatalf("View failed: %v", err)
	}
	want := [][]string{{"::todo", ""}, {"x", "5"}}
	if diff := cmp.Diff(want, view.Rows); diff != "" {
		t.Errorf("rows after reopen mismatch (-want +got):\n%s", diff)
	}
}

func TestAggregatesThroughSheet(t *testing.T) {
	s := newTestSheet(t, "A,B\n1,=SUM(A1:A3)\n2,=AVG(A1:A3)\n3,=SUM(A1:A4)\nn/a,\n", DefaultOptions())

	view, err := s.View("B1:B3")
	if err != nil {
		t.Fatalf("View failed: %v", err)
	}
	if diff := cmp.Diff([][]string{{"6"}, {"2"}, {"6"}}, view.Rows); diff != "" {
		t.Errorf("aggregate mismatch (-want +got):\n%s", diff)
	}
	if view.FirstRow != 1 {
		t.Errorf("FirstRow = %d, expected 1", view.FirstRow)
	}
}

func TestOperationErrors(t *testing.T) {
	s := newTestSheet(t, "Name,Age\nAnn,20\n", DefaultOptions())

	err := s.Set("1A", "x")
	if !errors.Is(err, ErrInvalidReference) {
		t.Errorf("expected ErrInvalidReference, got %v", err)
	}
	var opErr *OperationError
	if !errors.As(err, &opErr) || opErr.Op != "set" {
		t.Errorf("expected *OperationError for set, got %#v", err)
	}

	if _, err := s.Add(map[string]string{"Nope": "1"}); !errors.Is(err, ErrUnknownColumn) {
		t.Errorf("expected ErrUnknownColumn, got %v", err)
	}
	if err := s.Remove(5); !errors.Is(err, ErrRowOutOfRange) {
		t.Errorf("expected ErrRowOutOfRange, got %v", err)
	}
	if _, err := s.Query("Age", 0); !errors.Is(err, ErrInvalidCondition) {
		t.Errorf("expected ErrInvalidCondition, got %v", err)
	}
	if err := s.Sort("Age", "sideways"); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestAddPushUpdateRemove(t *testing.T) {
	s := newTestSheet(t, "Name,Age\nAnn,20\n,\nCid,40\n", DefaultOptions())

	row, err := s.Add(map[string]string{"name": "Ben", "Age": "30"})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if row != 2 {
		t.Errorf("Add wrote row %d, expected the empty row 2", row)
	}

	row, err = s.Push([]string{"Dee", "50"})
	if err != nil {
		t.Fatalf("Push failed: %v", err)
	}
	if row != 4 {
		t.Errorf("Push wrote row %d, expected 4", row)
	}

	changes, err := s.Update(1, map[string]string{"Age": "21"})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if diff := cmp.Diff([]string{"Age: 20 → 21"}, changes); diff != "" {
		t.Errorf("Update changes mismatch (-want +got):\n%s", diff)
	}

	if err := s.Remove(3); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	view, err := s.View("")
	if err != nil {
		t.Fatalf("View failed: %v", err)
	}
	want := [][]string{{"Ann", "21"}, {"Ben", "30"}, {"Dee", "50"}}
	if diff := cmp.Diff(want, view.Rows); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestQuery(t *testing.T) {
	s := newTestSheet(t, "Name,Age\nAnn,20\nBen,30\nCid,40\n", DefaultOptions())

	records, err := s.Query("Age > 25", 0)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	want := []models.Record{
		{Row: 2, Values: map[string]string{"Name": "Ben", "Age": "30"}},
		{Row: 3, Values: map[string]string{"Name": "Cid", "Age": "40"}},
	}
	if diff := cmp.Diff(want, records); diff != "" {
		t.Errorf("Query mismatch (-want +got):\n%s", diff)
	}

	records, err = s.Query("Age > 25", 1)
	if err != nil {
		t.Fatalf("Query with limit failed: %v", err)
	}
	if diff := cmp.Diff(want[:1], records); diff != "" {
		t.Errorf("Query with limit mismatch (-want +got):\n%s", diff)
	}
}

func TestSortEmptyLast(t *testing.T) {
	s := newTestSheet(t, "Name,Age\nAnn,30\nBen,\nCid,4\nDee,100\n", DefaultOptions())

	names := func() []string {
		view, err := s.View("A:A")
		if err != nil {
			t.Fatalf("View failed: %v", err)
		}
		var out []string
		for _, row := range view.Rows {
			out = append(out, row[0])
		}
		return out
	}

	if err := s.Sort("Age", "desc"); err != nil {
		t.Fatalf("Sort desc failed: %v", err)
	}
	if diff := cmp.Diff([]string{"Dee", "Ann", "Cid", "Ben"}, names()); diff != "" {
		t.Errorf("desc order mismatch (-want +got):\n%s", diff)
	}
	if err := s.Sort("Age", "asc"); err != nil {
		t.Fatalf("Sort asc failed: %v", err)
	}
	if diff := cmp.Diff([]string{"Cid", "Ann", "Dee", "Ben"}, names()); diff != "" {
		t.Errorf("asc order mismatch (-want +got):\n%s", diff)
	}
}

func TestFillResizeClear(t *testing.T) {
	s := newTestSheet(t, "A,B\n1,2\n3,4\n", DefaultOptions())

	n, err := s.Fill("A1:B2", "x, y, z")
	if err != nil {
		t.Fatalf("Fill failed: %v", err)
	}
	if n != 4 {
		t.Errorf("Fill wrote %d cells, expected 4", n)
	}
	view, _ := s.View("")
	if diff := cmp.Diff([][]string{{"x", "y"}, {"z", "x"}}, view.Rows); diff != "" {
		t.Errorf("Fill mismatch (-want +got):\n%s", diff)
	}

	if err := s.Resize(3, 3); err != nil {
		t.Fatalf("Resize failed: %v", err)
	}
	if err := s.Clear(""); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	view, _ = s.View("")
	if diff := cmp.Diff([]string{"A", "B", "C"}, view.Headers); diff != "" {
		t.Errorf("headers after clear mismatch (-want +got):\n%s", diff)
	}
	want := [][]string{{"", "", ""}, {"", "", ""}, {"", "", ""}}
	if diff := cmp.Diff(want, view.Rows); diff != "" {
		t.Errorf("rows after clear mismatch (-want +got):\n%s", diff)
	}
}

func TestRenameLeavesFormulasDangling(t *testing.T) {
	s := newTestSheet(t, "Amount,Double\n4,=Amount1*2\n", DefaultOptions())

	info, err := s.Get("B1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if info.Value != "8" {
		t.Fatalf("B1 = %q before rename, expected 8", info.Value)
	}

	old, err := s.Rename("A", "Total")
	if err != nil {
		t.Fatalf("Rename failed: %v", err)
	}
	if old != "Amount" {
		t.Errorf("Rename returned %q, expected Amount", old)
	}
	info, _ = s.Get("B1")
	if info.Raw != "=Amount1*2" || info.Value != "#ERROR" {
		t.Errorf("after rename got raw %q value %q, expected untouched formula evaluating to #ERROR", info.Raw, info.Value)
	}
}

func TestFormatAndSchema(t *testing.T) {
	s := newTestSheet(t, "Name,Amount,Double\nalpha,10,=B1*2\nbeta,20,=B2*2\n", DefaultOptions())

	typ, align, width := models.TypeCurrency, models.AlignRight, 120
	f, err := s.Format("Amount", models.FormatOptions{Type: &typ, Align: &align, Width: &width})
	if err != nil {
		t.Fatalf("Format failed: %v", err)
	}
	want := models.ColumnFormat{Type: models.TypeCurrency, Align: models.AlignRight, Width: 120}
	if diff := cmp.Diff(want, f); diff != "" {
		t.Errorf("Format mismatch (-want +got):\n%s", diff)
	}

	schema, err := s.Schema()
	if err != nil {
		t.Fatalf("Schema failed: %v", err)
	}
	if schema.Rows != 2 || len(schema.Columns) != 3 {
		t.Fatalf("unexpected schema shape: %+v", schema)
	}
	if schema.Size == 0 {
		t.Error("expected a non-zero file size")
	}
	wantCols := []models.ColumnSchema{
		{Index: 0, Letter: "A", Name: "Name", Inferred: "text"},
		{Index: 1, Letter: "B", Name: "Amount", Inferred: "number", Format: want},
		{Index: 2, Letter: "C", Name: "Double", Inferred: "formula"},
	}
	if diff := cmp.Diff(wantCols, schema.Columns); diff != "" {
		t.Errorf("schema columns mismatch (-want +got):\n%s", diff)
	}

	if got := readFile(t, s.Path()); got != "Name,Amount,Double\n,::currency;right;120;,\nalpha,10,\"=B1*2\"\nbeta,20,\"=B2*2\"\n" {
		t.Errorf("unexpected file content with format row %q", got)
	}
}

func TestDumpIngestRoundTrip(t *testing.T) {
	src := newTestSheet(t, "Name,Amount,Note\nalpha,10,\"a, b\"\nbeta,=B1*3,\"say \"\"hi\"\"\"\n", DefaultOptions())
	if _, err := src.Format("Amount", models.FormatOptions{Width: ptr(80)}); err != nil {
		t.Fatalf("Format failed: %v", err)
	}
	text, err := src.Dump()
	if err != nil {
		t.Fatalf("Dump failed: %v", err)
	}

	dst := newTestSheet(t, "", DefaultOptions())
	if err := dst.Ingest(text); err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	again, err := dst.Dump()
	if err != nil {
		t.Fatalf("Dump failed: %v", err)
	}
	if diff := cmp.Diff(text, again); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}

	info, _ := dst.Get("B2")
	if info.Raw != "=B1*3" || info.Value != "30" {
		t.Errorf("B2 = %+v, expected formula text preserved", info)
	}
}

func TestEventsEmitted(t *testing.T) {
	events := make(ChannelSink, 8)
	opts := DefaultOptions()
	opts.Events = events
	s := newTestSheet(t, "Name\nAnn\n", opts)

	if err := s.Set("A2", "Ben"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	select {
	case e := <-events:
		if e.Type != models.EventChanged || e.Operation != "set" || e.Sheet != s.Path() || e.ID == "" {
			t.Errorf("unexpected event %+v", e)
		}
	default:
		t.Fatal("expected a changed event")
	}

	if err := s.Set("?", "x"); err == nil {
		t.Fatal("expected Set to fail")
	}
	if len(events) != 0 {
		t.Errorf("failed mutation emitted %d events", len(events))
	}
}

func TestRegistrySharesInstances(t *testing.T) {
	dir := t.TempDir()
	r := NewRegistry(DefaultOptions())
	defer r.Close()

	a, err := r.Open(filepath.Join(dir, "data.csv"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	b, err := r.Open(filepath.Join(dir, ".", "sub", "..", "data.csv"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if a != b {
		t.Error("expected the same sheet for equivalent paths")
	}
	c, err := r.Open(filepath.Join(dir, "other.csv"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if a == c {
		t.Error("expected distinct sheets for distinct files")
	}

	if err := r.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := a.Set("A1", "x"); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed after registry close, got %v", err)
	}
}

func ptr[T any](v T) *T { return &v }
