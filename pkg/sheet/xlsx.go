package sheet

import (
	"fmt"
	"math"
	"strconv"

	"github.com/ukaji3/sheetcore-go/pkg/sheet/address"
	"github.com/ukaji3/sheetcore-go/pkg/sheet/codec"
	"github.com/ukaji3/sheetcore-go/pkg/sheet/grid"
	"github.com/xuri/excelize/v2"
)

// xlsxSheetName is the worksheet written by DumpXLSX.
const xlsxSheetName = "Sheet1"

// pixelsPerChar converts format widths (pixels) to Excel column widths
// (characters of the default font).
const pixelsPerChar = 7.0

// DumpXLSX writes the evaluated sheet to an xlsx workbook at path. Headers
// go to row 1; numeric values are stored as numbers. Column widths come
// from the format metadata.
func (s *Sheet) DumpXLSX(path string) error {
	return s.read("dump_xlsx", func(g *grid.Grid) error {
		f := excelize.NewFile()
		defer f.Close()

		formats := g.Formats()
		for c, name := range g.Headers() {
			cell, err := excelize.CoordinatesToCellName(c+1, 1)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(xlsxSheetName, cell, name); err != nil {
				return err
			}
			if w := formats[c].Width; w > 0 {
				col := address.IndexToColumn(c)
				if err := f.SetColWidth(xlsxSheetName, col, col, float64(w)/pixelsPerChar); err != nil {
					return err
				}
			}
		}
		for r, row := range evaluate(g) {
			for c, value := range row {
				if value == "" {
					continue
				}
				cell, err := excelize.CoordinatesToCellName(c+1, r+2)
				if err != nil {
					return err
				}
				if err := f.SetCellValue(xlsxSheetName, cell, parseValue(value)); err != nil {
					return err
				}
			}
		}
		if err := f.SaveAs(path); err != nil {
			return fmt.Errorf("save %s: %w", path, err)
		}
		return nil
	})
}

// IngestXLSX replaces the sheet with the cell values of one worksheet of an
// xlsx workbook. An empty sheetName selects the first worksheet. Leading
// empty rows and columns are skipped; the first remaining row is the header.
func (s *Sheet) IngestXLSX(path, sheetName string) error {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return newOperationError("ingest_xlsx", s.path, err)
	}
	defer f.Close()

	if sheetName == "" {
		sheetName = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheetName)
	if err != nil {
		return newOperationError("ingest_xlsx", s.path, err)
	}
	doc := s.documentFromRows(rows)

	return s.mutate("ingest_xlsx", func(g *grid.Grid) error {
		*g = *grid.FromDocument(doc)
		return nil
	})
}

// documentFromRows crops rows to the bounding box of non-empty cells.
func (s *Sheet) documentFromRows(rows [][]string) *codec.Document {
	minRow, maxRow, minCol, maxCol := findDataBounds(rows)
	if minRow < 0 {
		return &codec.Document{Headers: address.DefaultHeaders(s.opts.InitialColumns)}
	}
	width := maxCol - minCol + 1
	crop := func(row []string) []string {
		out := make([]string, width)
		for c := minCol; c <= maxCol && c < len(row); c++ {
			out[c-minCol] = row[c]
		}
		return out
	}

	doc := &codec.Document{Headers: crop(rows[minRow])}
	for c, h := range doc.Headers {
		if h == "" {
			doc.Headers[c] = address.IndexToColumn(c)
		}
	}
	for r := minRow + 1; r <= maxRow; r++ {
		doc.Rows = append(doc.Rows, crop(rows[r]))
	}
	return doc
}

// findDataBounds finds the bounding box of non-empty cells. minRow is -1
// when every cell is empty.
func findDataBounds(rows [][]string) (minRow, maxRow, minCol, maxCol int) {
	minRow, maxRow = -1, -1
	minCol, maxCol = -1, -1

	for rowIdx, row := range rows {
		for colIdx, cell := range row {
			if cell == "" {
				continue
			}
			if minRow < 0 {
				minRow = rowIdx
			}
			maxRow = rowIdx
			if minCol < 0 || colIdx < minCol {
				minCol = colIdx
			}
			if colIdx > maxCol {
				maxCol = colIdx
			}
		}
	}
	return
}

// parseValue returns int64 for integers, float64 for decimals, or the
// original string.
func parseValue(s string) any {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
		return f
	}
	return s
}
