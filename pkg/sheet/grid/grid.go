// Package grid holds the raw cell contents of a sheet and the mutation
// primitives that keep it rectangular.
package grid

import (
	"errors"
	"fmt"

	"github.com/ukaji3/sheetcore-go/pkg/sheet/address"
	"github.com/ukaji3/sheetcore-go/pkg/sheet/codec"
	"github.com/ukaji3/sheetcore-go/pkg/sheet/models"
)

// ErrRowOutOfRange indicates a 1-based row number outside the grid.
var ErrRowOutOfRange = errors.New("row out of range")

// ErrInvalidArgument indicates a malformed operation parameter.
var ErrInvalidArgument = errors.New("invalid argument")

// Grid is a rectangular table of raw cell strings with named columns.
// Every row has exactly len(headers) cells.
type Grid struct {
	headers []string
	formats []models.ColumnFormat
	rows    [][]string
}

// New returns an empty grid with the given headers.
func New(headers []string) *Grid {
	h := make([]string, len(headers))
	copy(h, headers)
	return &Grid{
		headers: h,
		formats: make([]models.ColumnFormat, len(h)),
	}
}

// FromDocument builds a grid from a parsed backing file.
func FromDocument(doc *codec.Document) *Grid {
	g := New(doc.Headers)
	copy(g.formats, doc.Formats)
	for _, row := range doc.Rows {
		g.rows = append(g.rows, codec.Pad(row, len(g.headers)))
	}
	return g
}

// Document returns a copy of the grid suitable for serialization.
func (g *Grid) Document() *codec.Document {
	doc := &codec.Document{
		Headers: g.Headers(),
		Formats: make([]models.ColumnFormat, len(g.formats)),
		Rows:    make([][]string, len(g.rows)),
	}
	copy(doc.Formats, g.formats)
	for i, row := range g.rows {
		doc.Rows[i] = append([]string(nil), row...)
	}
	return doc
}

// Headers returns a copy of the column names.
func (g *Grid) Headers() []string {
	return append([]string(nil), g.headers...)
}

// Formats returns a copy of the column formats.
func (g *Grid) Formats() []models.ColumnFormat {
	return append([]models.ColumnFormat(nil), g.formats...)
}

// Rows returns the number of data rows.
func (g *Grid) Rows() int { return len(g.rows) }

// Cols returns the number of columns.
func (g *Grid) Cols() int { return len(g.headers) }

// Raw returns the stored content at a 0-based position. ok is false when the
// position is outside the grid.
func (g *Grid) Raw(row, col int) (string, bool) {
	if row < 0 || row >= len(g.rows) || col < 0 || col >= len(g.headers) {
		return "", false
	}
	return g.rows[row][col], true
}

// Column resolves a header name or column letter to an index inside the grid.
func (g *Grid) Column(name string) (int, error) {
	col, err := address.ResolveColumnIndex(name, g.headers)
	if err != nil {
		return 0, err
	}
	if col >= len(g.headers) {
		return 0, fmt.Errorf("%w: %q", address.ErrUnknownColumn, name)
	}
	return col, nil
}

// ensureSize grows the grid to at least rows x cols.
func (g *Grid) ensureSize(rows, cols int) {
	for i := len(g.headers); i < cols; i++ {
		g.headers = append(g.headers, address.IndexToColumn(i))
		g.formats = append(g.formats, models.ColumnFormat{})
	}
	for i, row := range g.rows {
		if len(row) < len(g.headers) {
			g.rows[i] = codec.Pad(row, len(g.headers))
		}
	}
	for len(g.rows) < rows {
		g.rows = append(g.rows, make([]string, len(g.headers)))
	}
}

// Set stores raw content at an A1 reference, widening the grid as needed.
func (g *Grid) Set(ref, raw string) error {
	idx, err := address.CellToIndex(ref)
	if err != nil {
		return err
	}
	g.SetAt(idx, raw)
	return nil
}

// SetAt stores raw content at a 0-based position, widening the grid as needed.
func (g *Grid) SetAt(idx address.Index, raw string) {
	g.ensureSize(idx.Row+1, idx.Col+1)
	g.rows[idx.Row][idx.Col] = raw
}

// Add writes values keyed by column name into the first fully-empty row, or
// appends a new row. It returns the 1-based row number written.
func (g *Grid) Add(values map[string]string) (int, error) {
	if len(values) == 0 {
		return 0, fmt.Errorf("%w: no values to add", ErrInvalidArgument)
	}
	cols, err := g.resolveValues(values)
	if err != nil {
		return 0, err
	}

	target := -1
	for i, row := range g.rows {
		if codec.IsEmptyRow(row) {
			target = i
			break
		}
	}
	if target < 0 {
		g.rows = append(g.rows, make([]string, len(g.headers)))
		target = len(g.rows) - 1
	}
	for _, cv := range cols {
		g.rows[target][cv.col] = cv.value
	}
	return target + 1, nil
}

// Push appends positional values as a new last row, widening if needed.
// It returns the 1-based row number written.
func (g *Grid) Push(values []string) int {
	g.ensureSize(0, len(values))
	g.rows = append(g.rows, codec.Pad(values, len(g.headers)))
	return len(g.rows)
}

// AppendRecords appends parsed records as new rows and returns how many were added.
func (g *Grid) AppendRecords(records [][]string) int {
	n := 0
	for _, record := range records {
		if codec.IsEmptyRow(record) {
			continue
		}
		g.Push(record)
		n++
	}
	return n
}

// Remove deletes a 1-based row, shifting later rows up.
func (g *Grid) Remove(row int) error {
	if err := g.checkRow(row); err != nil {
		return err
	}
	g.rows = append(g.rows[:row-1], g.rows[row:]...)
	return nil
}

// Update sets fields of a 1-based row in place and describes each change as
// "Column: old → new", in column order.
func (g *Grid) Update(row int, values map[string]string) ([]string, error) {
	if err := g.checkRow(row); err != nil {
		return nil, err
	}
	cols, err := g.resolveValues(values)
	if err != nil {
		return nil, err
	}

	changes := make([]string, 0, len(cols))
	for _, cv := range cols {
		old := g.rows[row-1][cv.col]
		g.rows[row-1][cv.col] = cv.value
		changes = append(changes, fmt.Sprintf("%s: %s → %s", g.headers[cv.col], old, cv.value))
	}
	return changes, nil
}

func (g *Grid) checkRow(row int) error {
	if row < 1 || row > len(g.rows) {
		return fmt.Errorf("%w: %d (have %d rows)", ErrRowOutOfRange, row, len(g.rows))
	}
	return nil
}

// Resize grows or truncates the grid. Truncation discards data.
func (g *Grid) Resize(rows, cols int) error {
	if rows < 0 || cols < 1 {
		return fmt.Errorf("%w: resize to %dx%d", ErrInvalidArgument, rows, cols)
	}
	if cols < len(g.headers) {
		g.headers = g.headers[:cols]
		g.formats = g.formats[:cols]
		for i, row := range g.rows {
			g.rows[i] = row[:cols]
		}
	}
	if rows < len(g.rows) {
		g.rows = g.rows[:rows]
	}
	g.ensureSize(rows, cols)
	return nil
}

// Clear blanks the cells of a range, or of the whole grid when rangeRef is
// empty. Headers and dimensions are untouched.
func (g *Grid) Clear(rangeRef string) error {
	if rangeRef == "" {
		for _, row := range g.rows {
			for j := range row {
				row[j] = ""
			}
		}
		return nil
	}
	r, err := address.CellOrRange(rangeRef, len(g.rows))
	if err != nil {
		return err
	}
	for i := r.Start.Row; i <= r.End.Row && i < len(g.rows); i++ {
		for j := r.Start.Col; j <= r.End.Col && j < len(g.headers); j++ {
			g.rows[i][j] = ""
		}
	}
	return nil
}

// Rename changes a column header and returns the previous name. Formulas that
// refer to the old name are left as they are.
func (g *Grid) Rename(column, name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("%w: empty column name", ErrInvalidArgument)
	}
	col, err := g.Column(column)
	if err != nil {
		return "", err
	}
	old := g.headers[col]
	g.headers[col] = name
	return old, nil
}

// SetFormat merges opts into a column's display metadata.
func (g *Grid) SetFormat(column string, opts models.FormatOptions) (models.ColumnFormat, error) {
	col, err := g.Column(column)
	if err != nil {
		return models.ColumnFormat{}, err
	}
	g.formats[col] = opts.Apply(g.formats[col])
	return g.formats[col], nil
}

type colValue struct {
	col   int
	value string
}

// resolveValues maps column names to indices, ordered by column.
func (g *Grid) resolveValues(values map[string]string) ([]colValue, error) {
	seen := make(map[int]bool, len(values))
	out := make([]colValue, 0, len(values))
	for _, name := range sortedKeys(values) {
		col, err := g.Column(name)
		if err != nil {
			return nil, err
		}
		if seen[col] {
			return nil, fmt.Errorf("%w: column %q given twice", ErrInvalidArgument, g.headers[col])
		}
		seen[col] = true
		out = append(out, colValue{col: col, value: values[name]})
	}
	sortByColumn(out)
	return out, nil
}
