// Package filter provides the predicate tree produced by the filter
// expression decoder and consumed by query translation.
//
// Filter is a sealed interface using the marker method pattern. Only the
// types in this package implement it:
//
//	Spatial     bounding-box test against a geometry
//	Temporal    one of the fourteen temporal relations against a Time
//	Comparison  binary relation or Like against a literal
//	Unary       negation of one nested filter
//	Binary      And/Or over two or more nested filters
//
// Filters are built once per decode call and never mutated afterwards.
// Validate checks the structural invariants; the decoder calls it before
// returning so no partially built tree escapes.
//
// Example:
//
//	switch f := f.(type) {
//	case Spatial:
//	    // bbox
//	case Binary:
//	    for _, c := range f.Children { ... }
//	}
package filter
