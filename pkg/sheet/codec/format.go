package codec

import (
	"strconv"
	"strings"

	"github.com/ukaji3/sheetcore-go/pkg/sheet/models"
)

// formatPrefix marks a cell of the format row.
const formatPrefix = "::"

// IsFormatRow reports whether record is a format row: every field is empty or
// starts with "::", and at least one field does.
func IsFormatRow(record []string) bool {
	found := false
	for _, field := range record {
		switch {
		case field == "":
		case strings.HasPrefix(field, formatPrefix):
			found = true
		default:
			return false
		}
	}
	return found
}

// EncodeFormat renders one column format as "::type;align;width;wrap".
// A zero format encodes as an empty field.
func EncodeFormat(f models.ColumnFormat) string {
	if f.IsZero() {
		return ""
	}
	width := ""
	if f.Width != 0 {
		width = strconv.Itoa(f.Width)
	}
	wrap := ""
	if f.Wrap {
		wrap = "wrap"
	}
	return formatPrefix + strings.Join([]string{string(f.Type), string(f.Align), width, wrap}, ";")
}

// DecodeFormat parses a format row field. Unknown or malformed parts are ignored.
func DecodeFormat(field string) models.ColumnFormat {
	var f models.ColumnFormat
	if !strings.HasPrefix(field, formatPrefix) {
		return f
	}
	parts := strings.Split(strings.TrimPrefix(field, formatPrefix), ";")
	if len(parts) > 0 {
		f.Type = models.ColumnType(strings.TrimSpace(parts[0]))
	}
	if len(parts) > 1 {
		f.Align = models.Alignment(strings.TrimSpace(parts[1]))
	}
	if len(parts) > 2 {
		if w, err := strconv.Atoi(strings.TrimSpace(parts[2])); err == nil {
			f.Width = w
		}
	}
	if len(parts) > 3 {
		f.Wrap = strings.EqualFold(strings.TrimSpace(parts[3]), "wrap")
	}
	return f
}

// EncodeFormats renders a format row of the given width.
func EncodeFormats(formats []models.ColumnFormat, width int) []string {
	record := make([]string, width)
	for i := 0; i < width && i < len(formats); i++ {
		record[i] = EncodeFormat(formats[i])
	}
	// Keep an all-default row recognizable on the way back in.
	if width > 0 && !IsFormatRow(record) {
		record[0] = formatPrefix
	}
	return record
}

// DecodeFormats parses a format row.
func DecodeFormats(record []string) []models.ColumnFormat {
	formats := make([]models.ColumnFormat, len(record))
	for i, field := range record {
		formats[i] = DecodeFormat(field)
	}
	return formats
}
