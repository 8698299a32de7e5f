package filter

import (
	"fmt"

	"github.com/52North/SOS-sub005/internal/decode"
)

// Validate checks the structural invariants of a filter tree and returns
// the first violation as a decode error.
//
// Rules:
//  1. Binary has at least two children (NoApplicableCode)
//  2. Unary has a child
//  3. Temporal carries a Time
//  4. Comparison uses an implemented operator (UnsupportedInput otherwise)
//  5. Like carries a wildcard and single-character metacharacter
//
// Validate is a pure function with no side effects.
func Validate(f Filter) error {
	switch f := f.(type) {
	case nil:
		return decode.MissingParameter("filter")
	case Spatial:
		if f.Op != SpatialBBOX {
			return decode.UnsupportedValue("spatialOperator", fmt.Sprintf("spatial operator %s is not supported", f.Op))
		}
		if len(f.Geometry.Coords) == 0 {
			return decode.InvalidParameterValue("spatialFilter", "empty geometry")
		}
	case Temporal:
		if _, ok := ParseTemporalOp(string(f.Op)); !ok {
			return decode.InvalidParameterValuef("temporalOperator", "unknown temporal operator %q", f.Op)
		}
		if f.Time == nil {
			return decode.MissingParameter("temporalFilter")
		}
	case Comparison:
		if _, ok := ParseComparisonOp(string(f.Op)); !ok {
			return decode.InvalidParameterValuef("comparisonOperator", "unknown comparison operator %q", f.Op)
		}
		if !f.Op.Implemented() {
			return decode.UnsupportedValue("comparisonOperator", fmt.Sprintf("%s is not supported", f.Op))
		}
		if f.Op == ComparisonLike && (f.WildCard == 0 || f.SingleChar == 0) {
			return decode.MissingParameter("wildCard")
		}
	case Unary:
		if f.Child == nil {
			return decode.MissingParameter("Not")
		}
		return Validate(f.Child)
	case Binary:
		if f.Op != LogicalAnd && f.Op != LogicalOr {
			return decode.InvalidParameterValuef("logicalOperator", "unknown binary operator %q", f.Op)
		}
		if len(f.Children) < 2 {
			return decode.NoApplicableCode("binary logic filter requires at least two predicates", nil)
		}
		for _, c := range f.Children {
			if err := Validate(c); err != nil {
				return err
			}
		}
	default:
		return decode.InvalidParameterValuef("filter", "unknown filter type %T", f)
	}
	return nil
}

// Walk visits f and every nested filter depth first.
func Walk(f Filter, fn func(Filter)) {
	if f == nil {
		return
	}
	fn(f)
	switch f := f.(type) {
	case Unary:
		Walk(f.Child, fn)
	case Binary:
		for _, c := range f.Children {
			Walk(c, fn)
		}
	}
}

// ValueReferences returns the distinct value references used in f in the
// order first seen.
func ValueReferences(f Filter) []string {
	seen := map[string]bool{}
	var out []string
	add := func(ref string) {
		if ref != "" && !seen[ref] {
			seen[ref] = true
			out = append(out, ref)
		}
	}
	Walk(f, func(n Filter) {
		switch n := n.(type) {
		case Spatial:
			add(n.ValueReference)
		case Temporal:
			add(n.ValueReference)
		case Comparison:
			add(n.ValueReference)
		}
	})
	return out
}
