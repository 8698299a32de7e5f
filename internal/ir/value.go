package ir

import (
	"encoding/json"
	"math"
	"strconv"
)

// Value is a sealed interface over decoded scalar leaf values.
// Only Boolean, Count, Quantity, Text, Category, Geometry, Reference and
// Opaque implement it.
type Value interface {
	value() // Sealed
}

// Boolean is a decoded xs:boolean.
type Boolean bool

func (Boolean) value() {}

// Count is a decoded integer. Decoders that read 32-bit schema types reject
// values outside that range before constructing a Count.
type Count int64

func (Count) value() {}

// Quantity is a decoded measurement with an optional unit of measure.
type Quantity struct {
	Value float64 `json:"value"`
	UOM   string  `json:"uom,omitempty"`
}

func (Quantity) value() {}

// MarshalJSON renders NaN and the infinities as strings, which JSON numbers
// cannot represent.
func (q Quantity) MarshalJSON() ([]byte, error) {
	type plain struct {
		Value any    `json:"value"`
		UOM   string `json:"uom,omitempty"`
	}
	return json.Marshal(plain{Value: JSONNumber(q.Value), UOM: q.UOM})
}

// JSONNumber returns f unchanged when it is finite and its XML Schema
// lexical form (NaN, INF, -INF) otherwise.
func JSONNumber(f float64) any {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "INF"
	case math.IsInf(f, -1):
		return "-INF"
	}
	return f
}

// FormatNumber renders f in the shortest form that parses back to f.
func FormatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "INF"
	case math.IsInf(f, -1):
		return "-INF"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Text is a decoded string.
type Text string

func (Text) value() {}

// Category is a term with an optional code space.
type Category struct {
	Value     string `json:"value"`
	CodeSpace string `json:"code_space,omitempty"`
}

func (Category) value() {}

// Reference is an xlink reference to an external resource.
type Reference struct {
	Href  string `json:"href"`
	Title string `json:"title,omitempty"`
	Role  string `json:"role,omitempty"`
}

func (Reference) value() {}

// Opaque holds an element no decoder interprets, as raw document text.
type Opaque struct {
	Name string `json:"name"`
	XML  string `json:"xml"`
}

func (Opaque) value() {}
