package filter

import (
	"encoding/json"

	"github.com/52North/SOS-sub005/internal/ir"
)

// Filter is a node of a predicate tree.
//
// This is a sealed interface - only types in this package implement it.
type Filter interface {
	filterNode() // Marker method - seals interface to this package
}

// SpatialOp names a spatial operator. Only BBOX is decodable.
type SpatialOp string

const (
	SpatialBBOX SpatialOp = "BBOX"
)

// Spatial tests the referenced geometry against a bounding box.
//
// Semantics:
//
//	<value_reference> intersects envelope(<geometry>)
type Spatial struct {
	Op             SpatialOp   `json:"op"`
	ValueReference string      `json:"value_reference,omitempty"`
	Geometry       ir.Geometry `json:"geometry"`
}

func (Spatial) filterNode() {}

// TemporalOp names a temporal relation. The value is the local element name
// of the operator in filter documents.
type TemporalOp string

const (
	TemporalAfter        TemporalOp = "After"
	TemporalBefore       TemporalOp = "Before"
	TemporalBegins       TemporalOp = "Begins"
	TemporalBegunBy      TemporalOp = "BegunBy"
	TemporalContains     TemporalOp = "TContains"
	TemporalDuring       TemporalOp = "During"
	TemporalEndedBy      TemporalOp = "EndedBy"
	TemporalEnds         TemporalOp = "Ends"
	TemporalEquals       TemporalOp = "TEquals"
	TemporalMeets        TemporalOp = "Meets"
	TemporalMetBy        TemporalOp = "MetBy"
	TemporalOverlaps     TemporalOp = "TOverlaps"
	TemporalOverlappedBy TemporalOp = "OverlappedBy"
	TemporalAnyInteracts TemporalOp = "AnyInteracts"
)

// TemporalOps lists every temporal operator in declaration order.
var TemporalOps = []TemporalOp{
	TemporalAfter, TemporalBefore, TemporalBegins, TemporalBegunBy,
	TemporalContains, TemporalDuring, TemporalEndedBy, TemporalEnds,
	TemporalEquals, TemporalMeets, TemporalMetBy, TemporalOverlaps,
	TemporalOverlappedBy, TemporalAnyInteracts,
}

// ParseTemporalOp matches an element local name case-sensitively.
func ParseTemporalOp(local string) (TemporalOp, bool) {
	for _, op := range TemporalOps {
		if string(op) == local {
			return op, true
		}
	}
	return "", false
}

// Temporal relates the referenced time to a literal Time.
type Temporal struct {
	Op             TemporalOp `json:"op"`
	ValueReference string     `json:"value_reference,omitempty"`
	Time           ir.Time    `json:"time"`
}

func (Temporal) filterNode() {}

// ComparisonOp names a comparison operator. The value is the local element
// name of the operator in filter documents.
type ComparisonOp string

const (
	ComparisonEqual          ComparisonOp = "PropertyIsEqualTo"
	ComparisonNotEqual       ComparisonOp = "PropertyIsNotEqualTo"
	ComparisonLess           ComparisonOp = "PropertyIsLessThan"
	ComparisonGreater        ComparisonOp = "PropertyIsGreaterThan"
	ComparisonLessOrEqual    ComparisonOp = "PropertyIsLessThanOrEqualTo"
	ComparisonGreaterOrEqual ComparisonOp = "PropertyIsGreaterThanOrEqualTo"
	ComparisonLike           ComparisonOp = "PropertyIsLike"
	ComparisonNull           ComparisonOp = "PropertyIsNull"
	ComparisonNil            ComparisonOp = "PropertyIsNil"
	ComparisonBetween        ComparisonOp = "PropertyIsBetween"
)

var comparisonOps = []ComparisonOp{
	ComparisonEqual, ComparisonNotEqual, ComparisonLess, ComparisonGreater,
	ComparisonLessOrEqual, ComparisonGreaterOrEqual, ComparisonLike,
	ComparisonNull, ComparisonNil, ComparisonBetween,
}

// ComparisonOps returns every comparison operator, including the
// unimplemented ones.
func ComparisonOps() []ComparisonOp {
	return append([]ComparisonOp(nil), comparisonOps...)
}

// ParseComparisonOp matches an element local name case-sensitively.
func ParseComparisonOp(local string) (ComparisonOp, bool) {
	for _, op := range comparisonOps {
		if string(op) == local {
			return op, true
		}
	}
	return "", false
}

// Implemented reports whether decoders produce this operator. Null, Nil
// and Between are recognised but rejected.
func (op ComparisonOp) Implemented() bool {
	switch op {
	case ComparisonNull, ComparisonNil, ComparisonBetween:
		return false
	}
	return true
}

// Comparison relates the referenced property to a literal.
//
// For Like, WildCard, SingleChar and Escape carry the pattern
// metacharacters; zero means unset.
type Comparison struct {
	Op             ComparisonOp
	ValueReference string
	Literal        string
	MatchCase      bool
	WildCard       rune
	SingleChar     rune
	Escape         rune
}

func (Comparison) filterNode() {}

// MarshalJSON renders the metacharacters as one-character strings.
func (c Comparison) MarshalJSON() ([]byte, error) {
	type wire struct {
		Op             ComparisonOp `json:"op"`
		ValueReference string       `json:"value_reference,omitempty"`
		Literal        string       `json:"literal"`
		MatchCase      bool         `json:"match_case"`
		WildCard       string       `json:"wild_card,omitempty"`
		SingleChar     string       `json:"single_char,omitempty"`
		Escape         string       `json:"escape,omitempty"`
	}
	return json.Marshal(wire{
		Op:             c.Op,
		ValueReference: c.ValueReference,
		Literal:        c.Literal,
		MatchCase:      c.MatchCase,
		WildCard:       runeString(c.WildCard),
		SingleChar:     runeString(c.SingleChar),
		Escape:         runeString(c.Escape),
	})
}

func runeString(r rune) string {
	if r == 0 {
		return ""
	}
	return string(r)
}

// LogicalOp names a logical combinator.
type LogicalOp string

const (
	LogicalNot LogicalOp = "Not"
	LogicalAnd LogicalOp = "And"
	LogicalOr  LogicalOp = "Or"
)

// Unary negates exactly one nested filter.
type Unary struct {
	Child Filter `json:"child"`
}

func (Unary) filterNode() {}

// Binary combines two or more nested filters. Child order follows the
// document but carries no meaning.
type Binary struct {
	Op       LogicalOp `json:"op"`
	Children []Filter  `json:"children"`
}

func (Binary) filterNode() {}
