// Package gml decodes GML geometry and time literals: points, curves,
// surfaces, envelopes and their multi-part forms into WKT with an SRID, and
// time instants and periods including indeterminate positions.
package gml

import (
	"github.com/52North/SOS-sub005/internal/decode"
	"github.com/52North/SOS-sub005/internal/ir"
	"github.com/52North/SOS-sub005/internal/xmltree"
)

// Supported GML namespaces.
const (
	Namespace    = "http://www.opengis.net/gml/3.2"
	Namespace311 = "http://www.opengis.net/gml"
)

// ContentType of GML documents.
const ContentType = "application/gml+xml; version=3.2"

// ConformanceClasses advertised by the decoder.
var ConformanceClasses = []string{
	"http://www.opengis.net/spec/GML/3.2/conf/geometry",
	"http://www.opengis.net/spec/GML/3.2/conf/temporal",
}

var elementNames = []string{
	"Point", "LineString", "Polygon", "Envelope",
	"MultiPoint", "MultiCurve", "MultiSurface", "CompositeSurface",
	"TimeInstant", "TimePeriod",
}

func init() {
	for _, ns := range []string{Namespace, Namespace311} {
		decode.Register(Factory(ns))
		decode.Register(decode.PropertyFactory(ns, ContentType))
	}
}

// Factory returns the registry factory for one GML namespace.
func Factory(ns string) decode.Factory {
	return func(decode.Dispatcher) decode.Decoder { return &Decoder{ns: ns} }
}

// Decoder decodes GML geometry and time elements of one namespace.
type Decoder struct {
	ns string
}

// Keys implements decode.Decoder.
func (d *Decoder) Keys() []decode.Key {
	keys := decode.ElementKeys(d.ns, elementNames...)
	// gml:coordinates is property-shaped; decoded standalone, nested or as
	// the document element, it yields the legacy coordinate list.
	return append(keys,
		decode.Key{Namespace: d.ns, Shape: decode.ShapeProperty, Local: "coordinates"},
		decode.Key{Namespace: d.ns, Shape: decode.ShapeDocument, Local: "coordinates"},
	)
}

// ContentTypes implements decode.Decoder.
func (d *Decoder) ContentTypes() []string { return []string{ContentType} }

// ConformanceClasses implements decode.Decoder.
func (d *Decoder) ConformanceClasses() []string { return ConformanceClasses }

// Decode implements decode.Decoder.
func (d *Decoder) Decode(n *xmltree.Node) (any, error) {
	switch n.Name.Local {
	case "TimeInstant":
		return decodeTimeInstant(d.ns, n)
	case "TimePeriod":
		return decodeTimePeriod(d.ns, n)
	case "coordinates":
		list, err := FormatCoordinateList(n)
		if err != nil {
			return nil, err
		}
		return ir.Text(list), nil
	}
	return decodeGeometry(d.ns, n)
}
