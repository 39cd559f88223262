package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/ukaji3/sheetcore-go/internal/ctxlog"
	"github.com/ukaji3/sheetcore-go/pkg/sheet"
	"github.com/ukaji3/sheetcore-go/pkg/sheet/models"
	"github.com/ukaji3/sheetcore-go/pkg/sheet/query"
)

func (a *app) printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("serialization failed: %w", err)
	}
	fmt.Fprintln(a.stdout, string(data))
	return nil
}

func (a *app) printJSONLine(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("serialization failed: %w", err)
	}
	fmt.Fprintln(a.stdout, string(data))
	return nil
}

func (a *app) newTable(headers []string) *tablewriter.Table {
	table := tablewriter.NewWriter(a.stdout)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader(headers)
	return table
}

func (a *app) printView(view *models.View) {
	table := a.newTable(append([]string{"#"}, view.Headers...))
	for i, row := range view.Rows {
		table.Append(append([]string{strconv.Itoa(view.FirstRow + i)}, row...))
	}
	table.Render()
}

func (a *app) printRecords(headers []string, records []models.Record) {
	table := a.newTable(append([]string{"#"}, headers...))
	for _, rec := range records {
		row := []string{strconv.Itoa(rec.Row)}
		for _, h := range headers {
			row = append(row, rec.Values[h])
		}
		table.Append(row)
	}
	table.Render()
	fmt.Fprintf(a.stdout, "%d row(s)\n", len(records))
}

func (a *app) printResult(res *query.Result) {
	table := a.newTable(res.Columns)
	for _, r := range res.Rows {
		row := make([]string, 0, len(res.Columns))
		for _, c := range res.Columns {
			row = append(row, formatSQLValue(r[c]))
		}
		table.Append(row)
	}
	table.Render()
	fmt.Fprintf(a.stdout, "%d row(s)\n", len(res.Rows))
}

func formatSQLValue(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

func (a *app) printSchema(schema *models.Schema) {
	fmt.Fprintf(a.stdout, "%s: %d rows, %d columns, %s\n",
		schema.Path, schema.Rows, len(schema.Columns), humanize.Bytes(uint64(schema.Size)))
	table := a.newTable([]string{"Col", "Name", "Inferred", "Format"})
	for _, c := range schema.Columns {
		table.Append([]string{c.Letter, c.Name, c.Inferred, describeFormat(c.Format)})
	}
	table.Render()
}

func (a *app) printWatches(watches []models.WatchDef) {
	table := a.newTable([]string{"Name", "Query", "Action", "Once"})
	for _, w := range watches {
		table.Append([]string{w.Name, w.Query, w.Action, strconv.FormatBool(w.Once)})
	}
	table.Render()
}

// describeFormat renders a column format for humans; a zero format is "-".
func describeFormat(f models.ColumnFormat) string {
	if f.IsZero() {
		return "-"
	}
	var parts []string
	if f.Type != "" {
		parts = append(parts, "type="+string(f.Type))
	}
	if f.Align != "" {
		parts = append(parts, "align="+string(f.Align))
	}
	if f.Width != 0 {
		parts = append(parts, fmt.Sprintf("width=%dpx", f.Width))
	}
	if f.Wrap {
		parts = append(parts, "wrap")
	}
	return strings.Join(parts, " ")
}

// actions returns the watch actions available from the command line.
func (a *app) actions() *sheet.ActionRegistry {
	r := sheet.NewActionRegistry()
	r.Register("log", func(ctx context.Context, params map[string]any) error {
		rows, _ := params["rows"].([]map[string]any)
		attrs := []any{"rows", len(rows)}
		for k, v := range params {
			if k != "rows" && k != "watch" {
				attrs = append(attrs, k, v)
			}
		}
		ctxlog.FromContext(ctx).Info("Watch alert", attrs...)
		return nil
	})
	return r
}
