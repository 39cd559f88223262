package models

// Alignment is the horizontal alignment of a column.
type Alignment string

const (
	AlignLeft   Alignment = "left"
	AlignCenter Alignment = "center"
	AlignRight  Alignment = "right"
)

// ColumnType is the declared display type of a column. The engine stores it
// verbatim and does not validate it against the known values.
type ColumnType string

const (
	TypeText     ColumnType = "text"
	TypeNumber   ColumnType = "number"
	TypeCurrency ColumnType = "currency"
	TypePercent  ColumnType = "percent"
	TypeDate     ColumnType = "date"
	TypeBool     ColumnType = "bool"
	TypeSelect   ColumnType = "select"
	TypeFormula  ColumnType = "formula"
	TypeMarkdown ColumnType = "markdown"
	TypeLongText ColumnType = "longtext"
)

// ColumnFormat holds per-column display metadata.
type ColumnFormat struct {
	// Type is the declared column type.
	Type ColumnType `json:"type,omitempty" yaml:"type,omitempty"`
	// Align is the horizontal alignment.
	Align Alignment `json:"align,omitempty" yaml:"align,omitempty"`
	// Width is the column width in pixels (0 means unset).
	Width int `json:"width,omitempty" yaml:"width,omitempty"`
	// Wrap enables text wrapping.
	Wrap bool `json:"wrap,omitempty" yaml:"wrap,omitempty"`
}

// IsZero reports whether the format carries no metadata.
func (f ColumnFormat) IsZero() bool {
	return f == ColumnFormat{}
}

// FormatOptions is a partial update applied by the format operation.
// Nil fields are left untouched.
type FormatOptions struct {
	Type  *ColumnType `json:"type,omitempty"`
	Align *Alignment  `json:"align,omitempty"`
	Width *int        `json:"width,omitempty"`
	Wrap  *bool       `json:"wrap,omitempty"`
}

// Apply returns f with every non-nil option written over it.
func (o FormatOptions) Apply(f ColumnFormat) ColumnFormat {
	if o.Type != nil {
		f.Type = *o.Type
	}
	if o.Align != nil {
		f.Align = *o.Align
	}
	if o.Width != nil {
		f.Width = *o.Width
	}
	if o.Wrap != nil {
		f.Wrap = *o.Wrap
	}
	return f
}
