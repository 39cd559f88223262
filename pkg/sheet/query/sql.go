package query

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/ukaji3/sheetcore-go/pkg/sheet/address"
	"github.com/ukaji3/sheetcore-go/pkg/sheet/codec"
	"github.com/ukaji3/sheetcore-go/pkg/sheet/formula"

	_ "modernc.org/sqlite"
)

// TableName is the name of the virtual table queries run against.
const TableName = "data"

// Result holds the rows returned by an ad-hoc query.
type Result struct {
	Columns []string         `json:"columns"`
	Rows    []map[string]any `json:"rows"`
}

// RunSQL loads evaluated rows into a fresh in-memory table named "data" and
// runs query against it. Numeric cells are stored as numbers, empty cells as
// NULL and everything else as text. Nothing survives the call.
func RunSQL(ctx context.Context, headers []string, rows [][]string, query string) (*Result, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	defer db.Close()
	// Each connection has its own memory database.
	db.SetMaxOpenConns(1)

	columns := ColumnNames(headers)
	if err := loadTable(ctx, db, columns, rows); err != nil {
		return nil, err
	}

	result, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer result.Close()

	names, err := result.Columns()
	if err != nil {
		return nil, err
	}
	out := &Result{Columns: names, Rows: []map[string]any{}}
	for result.Next() {
		values := make([]any, len(names))
		ptrs := make([]any, len(names))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := result.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		row := make(map[string]any, len(names))
		for i, name := range names {
			if b, ok := values[i].([]byte); ok {
				values[i] = string(b)
			}
			row[name] = values[i]
		}
		out.Rows = append(out.Rows, row)
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	return out, nil
}

func loadTable(ctx context.Context, db *sql.DB, columns []string, rows [][]string) error {
	quoted := make([]string, len(columns))
	marks := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = quoteIdent(c)
		marks[i] = "?"
	}
	create := fmt.Sprintf("CREATE TABLE %s (%s)", TableName, strings.Join(quoted, ", "))
	if _, err := db.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("create table: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s VALUES (%s)", TableName, strings.Join(marks, ", ")))
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	args := make([]any, len(columns))
	for _, row := range rows {
		if codec.IsEmptyRow(row) {
			continue
		}
		for i := range args {
			args[i] = nil
			if i < len(row) {
				args[i] = sqlValue(row[i])
			}
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert row: %w", err)
		}
	}
	return tx.Commit()
}

func sqlValue(s string) any {
	if s == "" {
		return nil
	}
	if f, ok := formula.ParseNumber(s); ok {
		return f
	}
	return s
}

// ColumnNames makes headers usable as SQL column names: blank headers take
// their column letter and duplicates get a numeric suffix.
func ColumnNames(headers []string) []string {
	seen := make(map[string]int, len(headers))
	out := make([]string, len(headers))
	for i, h := range headers {
		name := strings.TrimSpace(h)
		if name == "" {
			name = address.IndexToColumn(i)
		}
		key := strings.ToLower(name)
		if n := seen[key]; n > 0 {
			name = fmt.Sprintf("%s_%d", name, n+1)
		}
		seen[key]++
		out[i] = name
	}
	return out
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
