// Package sheet provides a CSV-backed spreadsheet engine with formulas,
// queries, watches and live file sync.
package sheet

import (
	"io"
	"log/slog"
	"time"

	"github.com/ukaji3/sheetcore-go/pkg/sheet/codec"
)

// DefaultDebounce is the quiet period after a file change before it is read.
const DefaultDebounce = 200 * time.Millisecond

// DefaultColumns is the number of columns created for an empty sheet.
const DefaultColumns = 5

// Options configures a sheet.
type Options struct {
	// Delimiter separates fields in the backing file. Zero means ','.
	Delimiter rune
	// FormatMode controls when the column format row is written.
	FormatMode codec.FormatMode
	// Debounce is the file sync quiet period. Zero means DefaultDebounce.
	Debounce time.Duration
	// InitialColumns is the width of a sheet with no backing content.
	// Zero means DefaultColumns.
	InitialColumns int
	// Logger receives operational logs. Nil discards them.
	Logger *slog.Logger
	// Events receives change, alert and sync notifications. May be nil.
	Events EventSink
	// Actions executes watch actions. May be nil, in which case triggered
	// actions are logged and skipped.
	Actions Invoker
	// Now returns the current time. Nil means time.Now.
	Now func() time.Time
}

// DefaultOptions returns default sheet options.
func DefaultOptions() Options {
	return Options{
		Delimiter:      ',',
		FormatMode:     codec.FormatAuto,
		Debounce:       DefaultDebounce,
		InitialColumns: DefaultColumns,
	}
}

func (o Options) withDefaults() Options {
	if o.Delimiter == 0 {
		o.Delimiter = ','
	}
	if o.FormatMode == "" {
		o.FormatMode = codec.FormatAuto
	}
	if o.Debounce <= 0 {
		o.Debounce = DefaultDebounce
	}
	if o.InitialColumns <= 0 {
		o.InitialColumns = DefaultColumns
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

func (o Options) codec() codec.Codec {
	return codec.Codec{Delimiter: o.Delimiter, DefaultColumns: o.InitialColumns}
}
