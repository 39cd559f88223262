// Package address converts between A1 notation and 0-based grid indices.
package address

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrInvalidReference indicates a malformed cell or range reference.
var ErrInvalidReference = errors.New("invalid reference")

// ErrUnknownColumn indicates a column name that matches no header or letter.
var ErrUnknownColumn = errors.New("unknown column")

var (
	cellPattern   = regexp.MustCompile(`^\$?([A-Za-z]{1,3})\$?([1-9][0-9]*)$`)
	columnPattern = regexp.MustCompile(`^\$?([A-Za-z]{1,3})$`)
)

// Index is a 0-based cell position.
type Index struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Range is an inclusive rectangle of cells. End.Row may be below Start.Row
// for a whole-column range over an empty grid, which covers no cells.
type Range struct {
	Start Index
	End   Index
}

// Rows returns the number of rows covered.
func (r Range) Rows() int {
	if r.End.Row < r.Start.Row {
		return 0
	}
	return r.End.Row - r.Start.Row + 1
}

// Cols returns the number of columns covered.
func (r Range) Cols() int {
	return r.End.Col - r.Start.Col + 1
}

// Contains reports whether idx lies inside the range.
func (r Range) Contains(idx Index) bool {
	return idx.Row >= r.Start.Row && idx.Row <= r.End.Row &&
		idx.Col >= r.Start.Col && idx.Col <= r.End.Col
}

// ColumnToIndex converts column letters ("A", "AB") to a 0-based index.
func ColumnToIndex(letters string) (int, error) {
	if !columnPattern.MatchString(letters) {
		return 0, fmt.Errorf("%w: column %q", ErrInvalidReference, letters)
	}
	n, err := excelize.ColumnNameToNumber(strings.ToUpper(strings.TrimPrefix(letters, "$")))
	if err != nil {
		return 0, fmt.Errorf("%w: column %q: %v", ErrInvalidReference, letters, err)
	}
	return n - 1, nil
}

// IndexToColumn converts a 0-based column index to letters. It returns an
// empty string for indices outside the addressable range.
func IndexToColumn(col int) string {
	name, err := excelize.ColumnNumberToName(col + 1)
	if err != nil {
		return ""
	}
	return name
}

// CellToIndex parses an A1 reference ("B3") into a 0-based index ({2, 1}).
func CellToIndex(ref string) (Index, error) {
	m := cellPattern.FindStringSubmatch(strings.TrimSpace(ref))
	if m == nil {
		return Index{}, fmt.Errorf("%w: cell %q", ErrInvalidReference, ref)
	}
	col, err := ColumnToIndex(m[1])
	if err != nil {
		return Index{}, err
	}
	row, err := strconv.Atoi(m[2])
	if err != nil || row > excelize.TotalRows {
		return Index{}, fmt.Errorf("%w: row out of range in %q", ErrInvalidReference, ref)
	}
	return Index{Row: row - 1, Col: col}, nil
}

// IndexToCell formats a 0-based index as an A1 reference.
func IndexToCell(idx Index) string {
	name, err := excelize.CoordinatesToCellName(idx.Col+1, idx.Row+1)
	if err != nil {
		return ""
	}
	return name
}

// RangeToIndices parses "A1:C5" or a whole-column range "B:B". Whole-column
// ranges cover rows 0 through rows-1. Corners are normalized so Start is the
// top-left cell.
func RangeToIndices(ref string, rows int) (Range, error) {
	ref = strings.TrimSpace(ref)
	parts := strings.Split(ref, ":")
	if len(parts) != 2 {
		return Range{}, fmt.Errorf("%w: range %q", ErrInvalidReference, ref)
	}

	if columnPattern.MatchString(parts[0]) && columnPattern.MatchString(parts[1]) {
		c1, err := ColumnToIndex(parts[0])
		if err != nil {
			return Range{}, err
		}
		c2, err := ColumnToIndex(parts[1])
		if err != nil {
			return Range{}, err
		}
		if c1 > c2 {
			c1, c2 = c2, c1
		}
		return Range{Start: Index{Row: 0, Col: c1}, End: Index{Row: rows - 1, Col: c2}}, nil
	}

	start, err := CellToIndex(parts[0])
	if err != nil {
		return Range{}, err
	}
	end, err := CellToIndex(parts[1])
	if err != nil {
		return Range{}, err
	}
	return normalize(start, end), nil
}

// CellOrRange parses either a single cell or a range into a Range.
func CellOrRange(ref string, rows int) (Range, error) {
	if strings.Contains(ref, ":") {
		return RangeToIndices(ref, rows)
	}
	idx, err := CellToIndex(ref)
	if err != nil {
		return Range{}, err
	}
	return Range{Start: idx, End: idx}, nil
}

func normalize(a, b Index) Range {
	if a.Row > b.Row {
		a.Row, b.Row = b.Row, a.Row
	}
	if a.Col > b.Col {
		a.Col, b.Col = b.Col, a.Col
	}
	return Range{Start: a, End: b}
}

// ResolveColumnIndex finds a column by exact header match, then by
// case-insensitive header match, then by interpreting name as column letters.
func ResolveColumnIndex(name string, headers []string) (int, error) {
	for i, h := range headers {
		if h == name {
			return i, nil
		}
	}
	for i, h := range headers {
		if strings.EqualFold(h, name) {
			return i, nil
		}
	}
	if col, err := ColumnToIndex(name); err == nil {
		return col, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownColumn, name)
}

// DefaultHeaders returns n auto-generated column names: A, B, ... Z, AA, ...
func DefaultHeaders(n int) []string {
	headers := make([]string, n)
	for i := range headers {
		headers[i] = IndexToColumn(i)
	}
	return headers
}
