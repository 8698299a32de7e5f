// Package fes decodes OGC Filter Encoding 2.0 documents into filter trees.
//
// Every operator element is registered with the decode registry, so nested
// operators and their literal operands (GML geometries and times) are
// decoded through the dispatcher rather than by direct calls.
package fes

import (
	"github.com/52North/SOS-sub005/internal/decode"
	"github.com/52North/SOS-sub005/internal/filter"
	"github.com/52North/SOS-sub005/internal/xmltree"
)

// Namespace is the FES 2.0 namespace.
const Namespace = "http://www.opengis.net/fes/2.0"

// ContentType of FES filter documents.
const ContentType = "application/xml"

// ConformanceClasses advertised by the decoder.
var ConformanceClasses = []string{
	"http://www.opengis.net/spec/FES/2.0/conf/Query",
	"http://www.opengis.net/spec/FES/2.0/conf/Minimum Spatial Filter",
	"http://www.opengis.net/spec/FES/2.0/conf/Minimum Temporal filter",
	"http://www.opengis.net/spec/FES/2.0/conf/Minimum Standard Filter",
}

// spatialOperators lists the FES 2.0 spatial operator names. Only BBOX is
// decoded; the rest are recognised and rejected.
var spatialOperators = []string{
	"BBOX", "Equals", "Disjoint", "Touches", "Within", "Overlaps",
	"Crosses", "Intersects", "Contains", "DWithin", "Beyond",
}

// rejectedOperators are recognised but not supported.
var rejectedOperators = []string{"ResourceId", "Extension", "Function"}

func init() {
	decode.Register(NewDecoder)
}

// Decoder decodes fes:Filter and every operator element.
type Decoder struct {
	d decode.Dispatcher
}

// NewDecoder is the registry factory for the FES decoder.
func NewDecoder(d decode.Dispatcher) decode.Decoder {
	return &Decoder{d: d}
}

// Keys implements decode.Decoder.
func (dec *Decoder) Keys() []decode.Key {
	names := []string{"Filter"}
	for _, op := range filter.TemporalOps {
		names = append(names, string(op))
	}
	for _, op := range filter.ComparisonOps() {
		names = append(names, string(op))
	}
	names = append(names, string(filter.LogicalAnd), string(filter.LogicalOr), string(filter.LogicalNot))
	names = append(names, spatialOperators...)
	names = append(names, rejectedOperators...)
	return decode.ElementKeys(Namespace, names...)
}

// ContentTypes implements decode.Decoder.
func (dec *Decoder) ContentTypes() []string { return []string{ContentType} }

// ConformanceClasses implements decode.Decoder.
func (dec *Decoder) ConformanceClasses() []string { return ConformanceClasses }

// Decode implements decode.Decoder. The result is always a filter.Filter.
func (dec *Decoder) Decode(n *xmltree.Node) (any, error) {
	f, err := dec.decodeFilter(n)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (dec *Decoder) decodeFilter(n *xmltree.Node) (filter.Filter, error) {
	local := n.Name.Local
	if local == "Filter" {
		return dec.decodeRoot(n)
	}
	if op, ok := filter.ParseTemporalOp(local); ok {
		return dec.decodeTemporal(op, n)
	}
	if op, ok := filter.ParseComparisonOp(local); ok {
		return dec.decodeComparison(op, n)
	}
	switch filter.LogicalOp(local) {
	case filter.LogicalAnd, filter.LogicalOr:
		return dec.decodeBinary(filter.LogicalOp(local), n)
	case filter.LogicalNot:
		return dec.decodeUnary(n)
	}
	for _, op := range spatialOperators {
		if op == local {
			return dec.decodeSpatial(n)
		}
	}
	return nil, decode.UnsupportedInput(n.Name, "filter operator is not supported")
}

// decodeRoot unwraps fes:Filter, which holds exactly one operator.
func (dec *Decoder) decodeRoot(n *xmltree.Node) (filter.Filter, error) {
	switch len(n.Children) {
	case 0:
		return nil, decode.MissingParameter("Filter")
	case 1:
		return dec.child(n.Children[0])
	default:
		return nil, decode.InvalidParameterValuef("Filter", "filter holds %d operators, expected one", len(n.Children))
	}
}

// child decodes a nested operator through the dispatcher.
func (dec *Decoder) child(n *xmltree.Node) (filter.Filter, error) {
	return decode.As[filter.Filter](dec.d, n, n.Name.Local)
}
