// Package models defines data structures shared by the sheet engine and its callers.
package models

// CellInfo describes a single cell as seen by a reader.
type CellInfo struct {
	// Ref is the A1 reference of the cell.
	Ref string `json:"ref"`
	// Raw is the stored content (literal or formula text).
	Raw string `json:"raw"`
	// Value is the evaluated value.
	Value string `json:"value"`
	// Formula reports whether Raw starts with "=".
	Formula bool `json:"formula,omitempty"`
}

// Record is one evaluated data row keyed by header name.
type Record struct {
	// Row is the 1-based data row number.
	Row int `json:"row"`
	// Values maps header name to evaluated value.
	Values map[string]string `json:"values"`
}

// View is a rectangular evaluated slice of the grid.
type View struct {
	// Headers holds the column names covered by the view.
	Headers []string `json:"headers"`
	// FirstRow is the 1-based row number of Rows[0].
	FirstRow int `json:"first_row"`
	// Rows holds evaluated values, one slice per row.
	Rows [][]string `json:"rows"`
}
