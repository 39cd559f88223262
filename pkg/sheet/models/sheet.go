package models

// ColumnSchema describes one column of a sheet.
type ColumnSchema struct {
	// Index is the 0-based column index.
	Index int `json:"index"`
	// Letter is the column letter (A, B, ... AA).
	Letter string `json:"letter"`
	// Name is the header text.
	Name string `json:"name"`
	// Inferred is the type guessed from evaluated values: number, text, formula or empty.
	Inferred string `json:"inferred"`
	// Format is the recorded display metadata.
	Format ColumnFormat `json:"format"`
}

// Schema summarizes a sheet's shape.
type Schema struct {
	// Path is the resolved backing file path.
	Path string `json:"path"`
	// Rows is the number of data rows.
	Rows int `json:"rows"`
	// Columns describes each column in order.
	Columns []ColumnSchema `json:"columns"`
	// Size is the backing file size in bytes (0 if missing).
	Size int64 `json:"size"`
}
