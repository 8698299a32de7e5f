// Package swe provides the typed, self-describing data component model
// (scalars, ranges, vectors, records and arrays) and the delimited text
// codec used for bulk array values.
package swe

import (
	"fmt"

	"github.com/52North/SOS-sub005/internal/decode"
	"github.com/52North/SOS-sub005/internal/ir"
)

// Component is a sealed interface over data components.
type Component interface {
	component() // Sealed
	Common() *Metadata
}

// Metadata is shared by every component. XML holds the original document
// text of the component's subtree.
type Metadata struct {
	ID          string      `json:"id,omitempty"`
	Definition  string      `json:"definition,omitempty"`
	Label       string      `json:"label,omitempty"`
	Description string      `json:"description,omitempty"`
	Identifier  string      `json:"identifier,omitempty"`
	Optional    bool        `json:"optional,omitempty"`
	Constraint  *Constraint `json:"constraint,omitempty"`
	XML         string      `json:"-"`
}

// Common returns the shared metadata for in-place updates.
func (m *Metadata) Common() *Metadata { return m }

// Constraint is either an inline allowed-value set or an external
// reference. Exactly one field is set.
type Constraint struct {
	Inline    *InlineConstraint `json:"inline,omitempty"`
	Reference *ir.Reference     `json:"reference,omitempty"`
}

// Constraint kinds.
const (
	AllowedValues = "AllowedValues"
	AllowedTokens = "AllowedTokens"
	AllowedTimes  = "AllowedTimes"
)

// InlineConstraint lists permitted values. Values and intervals keep their
// lexical form; the owning component's type gives them meaning.
type InlineConstraint struct {
	Kind               string      `json:"kind"`
	Values             []string    `json:"values,omitempty"`
	Intervals          [][2]string `json:"intervals,omitempty"`
	Pattern            string      `json:"pattern,omitempty"`
	SignificantFigures int         `json:"significant_figures,omitempty"`
}

// Field is a named member of a record or vector.
type Field struct {
	Name      string    `json:"name"`
	Component Component `json:"component"`
}

// Boolean component.
type Boolean struct {
	Metadata
	Value *bool `json:"value,omitempty"`
}

// Category component.
type Category struct {
	Metadata
	CodeSpace string  `json:"code_space,omitempty"`
	Value     *string `json:"value,omitempty"`
}

// Count component. Values are 32-bit.
type Count struct {
	Metadata
	Value *int32 `json:"value,omitempty"`
}

// CountRange component.
type CountRange struct {
	Metadata
	Value *[2]int32 `json:"value,omitempty"`
}

// Quantity component.
type Quantity struct {
	Metadata
	UOM   string   `json:"uom,omitempty"`
	Value *float64 `json:"value,omitempty"`
}

// QuantityRange component.
type QuantityRange struct {
	Metadata
	UOM   string      `json:"uom,omitempty"`
	Value *[2]float64 `json:"value,omitempty"`
}

// Text component.
type Text struct {
	Metadata
	Value *string `json:"value,omitempty"`
}

// Time component. Value is an ISO 8601 instant or an indeterminate keyword.
type Time struct {
	Metadata
	UOM            string  `json:"uom,omitempty"`
	ReferenceFrame string  `json:"reference_frame,omitempty"`
	Value          ir.Time `json:"value,omitempty"`
}

// TimeRange component.
type TimeRange struct {
	Metadata
	UOM            string     `json:"uom,omitempty"`
	ReferenceFrame string     `json:"reference_frame,omitempty"`
	Value          *ir.Period `json:"value,omitempty"`
}

// Vector component. Coordinates are ordered.
type Vector struct {
	Metadata
	ReferenceFrame string  `json:"reference_frame,omitempty"`
	LocalFrame     string  `json:"local_frame,omitempty"`
	Coordinates    []Field `json:"coordinates"`
}

// Record component. Field names are unique.
type Record struct {
	Metadata
	Fields []Field `json:"fields"`
}

// FieldNames returns the field names in order.
func (r *Record) FieldNames() []string {
	names := make([]string, len(r.Fields))
	for i, f := range r.Fields {
		names[i] = f.Name
	}
	return names
}

// Array component. Values is decoded only when ElementType is a Record and
// Encoding is delimited text.
type Array struct {
	Metadata
	ElementCount *Count    `json:"element_count,omitempty"`
	ElementType  Field     `json:"element_type"`
	Encoding     *Encoding `json:"encoding,omitempty"`
	Values       Table     `json:"values,omitempty"`
}

func (*Boolean) component()       {}
func (*Category) component()      {}
func (*Count) component()         {}
func (*CountRange) component()    {}
func (*Quantity) component()      {}
func (*QuantityRange) component() {}
func (*Text) component()          {}
func (*Time) component()          {}
func (*TimeRange) component()     {}
func (*Vector) component()        {}
func (*Record) component()        {}
func (*Array) component()         {}

// Encoding configures the delimited text layout of bulk values.
type Encoding struct {
	BlockSeparator     string `json:"block_separator"`
	TokenSeparator     string `json:"token_separator"`
	DecimalSeparator   string `json:"decimal_separator"`
	CollapseWhiteSpace bool   `json:"collapse_white_space"`
}

// DefaultDecimalSeparator is used when an encoding does not name one.
const DefaultDecimalSeparator = "."

// Validate checks that the separators are usable: block and token
// separators are non-empty and differ from the decimal separator.
func (e Encoding) Validate() error {
	dec := e.DecimalSeparator
	if dec == "" {
		dec = DefaultDecimalSeparator
	}
	if e.BlockSeparator == "" {
		return decode.MissingParameter("blockSeparator")
	}
	if e.TokenSeparator == "" {
		return decode.MissingParameter("tokenSeparator")
	}
	if e.BlockSeparator == dec {
		return decode.InvalidParameterValue("blockSeparator",
			fmt.Sprintf("block separator %q equals the decimal separator", e.BlockSeparator))
	}
	if e.TokenSeparator == dec {
		return decode.InvalidParameterValue("tokenSeparator",
			fmt.Sprintf("token separator %q equals the decimal separator", e.TokenSeparator))
	}
	return nil
}
