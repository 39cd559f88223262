package query

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRunSQL(t *testing.T) {
	headers := []string{"Name", "Amount", "Note"}
	rows := [][]string{
		{"alpha", "500", ""},
		{"beta", "1500", "big"},
		{"", "", ""},
		{"gamma", "2500.5", "bigger"},
	}

	res, err := RunSQL(context.Background(), headers, rows, "SELECT Name, Amount FROM data WHERE Amount > 1000 ORDER BY Amount")
	if err != nil {
		t.Fatalf("RunSQL failed: %v", err)
	}
	expected := []map[string]any{
		{"Name": "beta", "Amount": 1500.0},
		{"Name": "gamma", "Amount": 2500.5},
	}
	if diff := cmp.Diff(expected, res.Rows); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Name", "Amount"}, res.Columns); diff != "" {
		t.Errorf("columns mismatch (-want +got):\n%s", diff)
	}

	count, err := RunSQL(context.Background(), headers, rows, "SELECT COUNT(*) AS n FROM data WHERE Note IS NULL")
	if err != nil {
		t.Fatalf("RunSQL failed: %v", err)
	}
	if got := count.Rows[0]["n"]; got != int64(1) {
		t.Errorf("expected 1 row with NULL note, got %v (%T)", got, got)
	}
}

func TestRunSQLEmptyResult(t *testing.T) {
	res, err := RunSQL(context.Background(), []string{"A"}, nil, "SELECT * FROM data")
	if err != nil {
		t.Fatalf("RunSQL failed: %v", err)
	}
	if len(res.Rows) != 0 {
		t.Errorf("expected no rows, got %d", len(res.Rows))
	}
}

func TestRunSQLError(t *testing.T) {
	if _, err := RunSQL(context.Background(), []string{"A"}, nil, "SELECT * FROM nowhere"); err == nil {
		t.Error("expected error for unknown table")
	}
}

func TestColumnNames(t *testing.T) {
	got := ColumnNames([]string{"Name", "", "name", "Total \"x\""})
	expected := []string{"Name", "B", "name_2", "Total \"x\""}
	if diff := cmp.Diff(expected, got); diff != "" {
		t.Errorf("ColumnNames mismatch (-want +got):\n%s", diff)
	}
	if q := quoteIdent(got[3]); q != `"Total ""x"""` {
		t.Errorf("quoteIdent = %s", q)
	}
}
