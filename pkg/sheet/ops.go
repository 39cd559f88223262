package sheet

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/ukaji3/sheetcore-go/pkg/sheet/address"
	"github.com/ukaji3/sheetcore-go/pkg/sheet/formula"
	"github.com/ukaji3/sheetcore-go/pkg/sheet/grid"
	"github.com/ukaji3/sheetcore-go/pkg/sheet/models"
	"github.com/ukaji3/sheetcore-go/pkg/sheet/query"
)

// View returns evaluated values for rangeRef, or the whole sheet when
// rangeRef is empty. Rows beyond the current extent are omitted.
func (s *Sheet) View(rangeRef string) (*models.View, error) {
	var view *models.View
	err := s.read("view", func(g *grid.Grid) error {
		r := address.Range{End: address.Index{Row: g.Rows() - 1, Col: g.Cols() - 1}}
		if rangeRef != "" {
			var err error
			if r, err = address.CellOrRange(rangeRef, g.Rows()); err != nil {
				return err
			}
		}
		headers := g.Headers()
		view = &models.View{FirstRow: r.Start.Row + 1}
		for c := r.Start.Col; c <= r.End.Col; c++ {
			if c < len(headers) {
				view.Headers = append(view.Headers, headers[c])
			} else {
				view.Headers = append(view.Headers, address.IndexToColumn(c))
			}
		}
		ev := formula.New(g)
		for row := r.Start.Row; row <= r.End.Row && row < g.Rows(); row++ {
			values := make([]string, 0, r.Cols())
			for c := r.Start.Col; c <= r.End.Col; c++ {
				values = append(values, ev.Display(row, c))
			}
			view.Rows = append(view.Rows, values)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// Get returns the raw and evaluated content of one cell.
func (s *Sheet) Get(ref string) (*models.CellInfo, error) {
	var info *models.CellInfo
	err := s.read("get", func(g *grid.Grid) error {
		idx, err := address.CellToIndex(ref)
		if err != nil {
			return err
		}
		raw, _ := g.Raw(idx.Row, idx.Col)
		info = &models.CellInfo{
			Ref:     address.IndexToCell(idx),
			Raw:     raw,
			Value:   formula.New(g).Display(idx.Row, idx.Col),
			Formula: strings.HasPrefix(raw, "="),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return info, nil
}

// Set stores raw text at ref, widening the sheet if needed.
func (s *Sheet) Set(ref, raw string) error {
	return s.mutate("set", func(g *grid.Grid) error {
		return g.Set(ref, raw)
	})
}

// Add writes values into the first empty row, or a new row, and returns its
// 1-based number.
func (s *Sheet) Add(values map[string]string) (int, error) {
	var row int
	err := s.mutate("add", func(g *grid.Grid) error {
		var err error
		row, err = g.Add(values)
		return err
	})
	return row, err
}

// Push appends a positional row at the end and returns its 1-based number.
func (s *Sheet) Push(values []string) (int, error) {
	var row int
	err := s.mutate("push", func(g *grid.Grid) error {
		row = g.Push(values)
		return nil
	})
	return row, err
}

// Remove deletes a 1-based row.
func (s *Sheet) Remove(row int) error {
	return s.mutate("remove", func(g *grid.Grid) error {
		return g.Remove(row)
	})
}

// Update changes fields of a 1-based row and describes each change as
// "Column: old → new".
func (s *Sheet) Update(row int, values map[string]string) ([]string, error) {
	var changes []string
	err := s.mutate("update", func(g *grid.Grid) error {
		var err error
		changes, err = g.Update(row, values)
		return err
	})
	return changes, err
}

// Sort orders rows by the evaluated value of column. order is "asc" or "desc".
func (s *Sheet) Sort(column, order string) error {
	return s.mutate("sort", func(g *grid.Grid) error {
		o, err := grid.ParseOrder(order)
		if err != nil {
			return err
		}
		return g.Sort(column, o, formula.New(g).Display)
	})
}

// Fill cycles the comma-separated pattern across rangeRef and returns the
// number of cells written.
func (s *Sheet) Fill(rangeRef, pattern string) (int, error) {
	var n int
	err := s.mutate("fill", func(g *grid.Grid) error {
		var err error
		n, err = g.Fill(rangeRef, pattern)
		return err
	})
	return n, err
}

// Resize sets the sheet dimensions. Shrinking discards data.
func (s *Sheet) Resize(rows, cols int) error {
	return s.mutate("resize", func(g *grid.Grid) error {
		return g.Resize(rows, cols)
	})
}

// Clear blanks the cells in rangeRef, or every cell when rangeRef is empty.
func (s *Sheet) Clear(rangeRef string) error {
	return s.mutate("clear", func(g *grid.Grid) error {
		return g.Clear(rangeRef)
	})
}

// Rename changes a column header and returns the previous name. Formulas
// that refer to the old header name are not rewritten; such references
// evaluate to #ERROR afterwards.
func (s *Sheet) Rename(column, name string) (string, error) {
	var old string
	err := s.mutate("rename", func(g *grid.Grid) error {
		var err error
		old, err = g.Rename(column, name)
		return err
	})
	return old, err
}

// Format updates the display metadata of column and returns the result.
func (s *Sheet) Format(column string, opts models.FormatOptions) (models.ColumnFormat, error) {
	var f models.ColumnFormat
	err := s.mutate("format", func(g *grid.Grid) error {
		var err error
		f, err = g.SetFormat(column, opts)
		return err
	})
	return f, err
}

// Ingest replaces the whole sheet with delimited text.
func (s *Sheet) Ingest(text string) error {
	return s.mutate("ingest", func(g *grid.Grid) error {
		doc, err := s.codec.Parse(text)
		if err != nil {
			return err
		}
		*g = *grid.FromDocument(doc)
		return nil
	})
}

// Dump returns the sheet serialized as it would be written to disk, with
// formula text rather than evaluated values.
func (s *Sheet) Dump() (string, error) {
	var text string
	err := s.read("dump", func(g *grid.Grid) error {
		text = s.codec.Serialize(g.Document(), s.opts.FormatMode)
		return nil
	})
	return text, err
}

// Query returns the evaluated rows matching a "<column> <op> <value>"
// condition, in sheet order. A positive limit caps the result.
func (s *Sheet) Query(where string, limit int) ([]models.Record, error) {
	var records []models.Record
	err := s.read("query", func(g *grid.Grid) error {
		cond, err := query.ParseCondition(where)
		if err != nil {
			return err
		}
		col, err := g.Column(cond.Column)
		if err != nil {
			return err
		}
		rows := evaluate(g)
		names := query.ColumnNames(g.Headers())
		for _, i := range query.Filter(rows, col, cond, limit) {
			values := make(map[string]string, len(names))
			for c, name := range names {
				values[name] = rows[i][c]
			}
			records = append(records, models.Record{Row: i + 1, Values: values})
		}
		return nil
	})
	return records, err
}

// SQL runs q against a table named "data" built from the evaluated sheet.
func (s *Sheet) SQL(ctx context.Context, q string) (*query.Result, error) {
	var res *query.Result
	err := s.read("sql", func(g *grid.Grid) error {
		var err error
		res, err = query.RunSQL(ctx, g.Headers(), evaluate(g), q)
		return err
	})
	return res, err
}

// Schema describes the columns, dimensions and file size of the sheet.
func (s *Sheet) Schema() (*models.Schema, error) {
	var schema *models.Schema
	err := s.read("schema", func(g *grid.Grid) error {
		schema = &models.Schema{Path: s.path, Rows: g.Rows()}
		info, err := os.Stat(s.path)
		switch {
		case err == nil:
			schema.Size = info.Size()
		case !errors.Is(err, fs.ErrNotExist):
			return fmt.Errorf("stat backing file: %w", err)
		}
		headers, formats := g.Headers(), g.Formats()
		for c, name := range headers {
			schema.Columns = append(schema.Columns, models.ColumnSchema{
				Index:    c,
				Letter:   address.IndexToColumn(c),
				Name:     name,
				Inferred: inferType(g, c),
				Format:   formats[c],
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return schema, nil
}

// inferType classifies a column by the majority of its non-empty cells.
// Ties prefer formula, then number.
func inferType(g *grid.Grid, col int) string {
	var formulas, numbers, texts int
	for r := 0; r < g.Rows(); r++ {
		raw, _ := g.Raw(r, col)
		switch {
		case raw == "":
		case strings.HasPrefix(raw, "="):
			formulas++
		default:
			if _, ok := formula.ParseNumber(raw); ok {
				numbers++
			} else {
				texts++
			}
		}
	}
	switch {
	case formulas+numbers+texts == 0:
		return "empty"
	case formulas >= numbers && formulas >= texts:
		return "formula"
	case numbers >= texts:
		return "number"
	default:
		return "text"
	}
}
