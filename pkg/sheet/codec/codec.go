// Package codec reads and writes the delimited text backing store.
package codec

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ukaji3/sheetcore-go/pkg/sheet/address"
	"github.com/ukaji3/sheetcore-go/pkg/sheet/models"
)

// FormatMode controls when the format row is written.
type FormatMode string

const (
	// FormatAuto writes the format row only when some column carries metadata.
	FormatAuto FormatMode = "auto"
	// FormatAlways writes the format row unconditionally.
	FormatAlways FormatMode = "always"
	// FormatNever never writes the format row.
	FormatNever FormatMode = "never"
)

// Document is a parsed backing file.
type Document struct {
	Headers []string
	Formats []models.ColumnFormat
	Rows    [][]string
}

// Codec parses and serializes documents.
type Codec struct {
	// Delimiter separates fields. Zero means ','.
	Delimiter rune
	// DefaultColumns is the column count of a document parsed from empty input.
	DefaultColumns int
}

func (c Codec) delimiter() rune {
	if c.Delimiter == 0 {
		return ','
	}
	return c.Delimiter
}

// ParseRecords splits text into records. Blank lines are skipped, quoted
// fields may span lines and contain escaped ("") quotes.
func (c Codec) ParseRecords(text string) ([][]string, error) {
	r := csv.NewReader(strings.NewReader(text))
	r.Comma = c.delimiter()
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var records [][]string
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse delimited text: %w", err)
		}
		records = append(records, record)
	}
	return records, nil
}

// Parse reads a whole backing file. The first record is the header row, an
// optional format row may follow it, and every data row is padded to the
// header width. Rows wider than the header extend it with letter names.
func (c Codec) Parse(text string) (*Document, error) {
	records, err := c.ParseRecords(text)
	if err != nil {
		return nil, err
	}

	doc := &Document{}
	if len(records) == 0 {
		doc.Headers = address.DefaultHeaders(c.DefaultColumns)
		doc.Formats = make([]models.ColumnFormat, len(doc.Headers))
		return doc, nil
	}

	doc.Headers = records[0]
	records = records[1:]
	if len(records) > 0 && IsFormatRow(records[0]) {
		doc.Formats = DecodeFormats(records[0])
		records = records[1:]
	}

	width := len(doc.Headers)
	for _, record := range records {
		if len(record) > width {
			width = len(record)
		}
	}
	for i := len(doc.Headers); i < width; i++ {
		doc.Headers = append(doc.Headers, address.IndexToColumn(i))
	}

	formats := make([]models.ColumnFormat, width)
	copy(formats, doc.Formats)
	doc.Formats = formats

	doc.Rows = make([][]string, 0, len(records))
	for _, record := range records {
		doc.Rows = append(doc.Rows, Pad(record, width))
	}
	return doc, nil
}

// Pad returns record extended with empty strings to width.
func Pad(record []string, width int) []string {
	row := make([]string, width)
	copy(row, record)
	return row
}

// Serialize writes a document. Trailing all-empty rows are dropped and the
// output ends with a single newline.
func (c Codec) Serialize(doc *Document, mode FormatMode) string {
	var b strings.Builder
	c.writeRecord(&b, doc.Headers)

	rows := TrimTrailingEmpty(doc.Rows)
	if writeFormats(doc.Formats, mode, rows) {
		c.writeRecord(&b, EncodeFormats(doc.Formats, len(doc.Headers)))
	}

	for _, row := range rows {
		c.writeRecord(&b, row)
	}
	return b.String()
}

// writeFormats decides whether Serialize emits a format row. A first data
// row that looks like a format row always gets one in front of it, whatever
// the mode, or Parse would consume it as metadata.
func writeFormats(formats []models.ColumnFormat, mode FormatMode, rows [][]string) bool {
	if len(rows) > 0 && IsFormatRow(rows[0]) {
		return true
	}
	switch mode {
	case FormatAlways:
		return true
	case FormatNever:
		return false
	}
	for _, f := range formats {
		if !f.IsZero() {
			return true
		}
	}
	return false
}

func (c Codec) writeRecord(b *strings.Builder, record []string) {
	delim := c.delimiter()
	// A lone empty field would read back as a blank line and be skipped.
	if len(record) == 1 && record[0] == "" {
		b.WriteString(`""`)
		b.WriteByte('\n')
		return
	}
	for i, field := range record {
		if i > 0 {
			b.WriteRune(delim)
		}
		if c.needsQuotes(field) {
			b.WriteByte('"')
			b.WriteString(strings.ReplaceAll(field, `"`, `""`))
			b.WriteByte('"')
		} else {
			b.WriteString(field)
		}
	}
	b.WriteByte('\n')
}

func (c Codec) needsQuotes(field string) bool {
	if field == "" {
		return false
	}
	return strings.HasPrefix(field, "=") ||
		strings.ContainsRune(field, c.delimiter()) ||
		strings.ContainsAny(field, "\"\r\n")
}

// TrimTrailingEmpty returns rows without its trailing all-empty rows.
func TrimTrailingEmpty(rows [][]string) [][]string {
	end := len(rows)
	for end > 0 && IsEmptyRow(rows[end-1]) {
		end--
	}
	return rows[:end]
}

// IsEmptyRow reports whether every field of row is empty.
func IsEmptyRow(row []string) bool {
	for _, v := range row {
		if v != "" {
			return false
		}
	}
	return true
}
