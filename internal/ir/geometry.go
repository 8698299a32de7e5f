package ir

import (
	"math"
	"strings"
)

// Geometry type names, as used in WKT.
const (
	GeometryPoint           = "POINT"
	GeometryLineString      = "LINESTRING"
	GeometryPolygon         = "POLYGON"
	GeometryMultiPoint      = "MULTIPOINT"
	GeometryMultiLineString = "MULTILINESTRING"
	GeometryMultiPolygon    = "MULTIPOLYGON"
)

// Coord is one position: two or three ordinates in the order given by the
// coordinate reference system.
type Coord []float64

// Geometry is a decoded geometry literal: well-known text plus SRID.
// Coords holds every vertex in document order and backs Bounds.
type Geometry struct {
	Type   string  `json:"type"`
	SRID   int     `json:"srid"`
	WKT    string  `json:"wkt"`
	Coords []Coord `json:"-"`
}

func (Geometry) value() {}

// Box is an axis-aligned bounding box in the first two ordinates.
type Box struct {
	MinX, MinY, MaxX, MaxY float64
}

// Bounds returns the bounding box of all vertices. It reports false for an
// empty geometry.
func (g Geometry) Bounds() (Box, bool) {
	if len(g.Coords) == 0 {
		return Box{}, false
	}
	b := Box{MinX: math.Inf(1), MinY: math.Inf(1), MaxX: math.Inf(-1), MaxY: math.Inf(-1)}
	for _, c := range g.Coords {
		if len(c) < 2 {
			continue
		}
		b.MinX = math.Min(b.MinX, c[0])
		b.MinY = math.Min(b.MinY, c[1])
		b.MaxX = math.Max(b.MaxX, c[0])
		b.MaxY = math.Max(b.MaxY, c[1])
	}
	return b, true
}

// NewPoint builds a POINT.
func NewPoint(srid int, c Coord) Geometry {
	return Geometry{Type: GeometryPoint, SRID: srid, WKT: GeometryPoint + " " + wktSeq([]Coord{c}), Coords: []Coord{c}}
}

// NewLineString builds a LINESTRING.
func NewLineString(srid int, cs []Coord) Geometry {
	return Geometry{Type: GeometryLineString, SRID: srid, WKT: GeometryLineString + " " + wktSeq(cs), Coords: cs}
}

// NewPolygon builds a POLYGON from an exterior ring followed by interior rings.
func NewPolygon(srid int, rings [][]Coord) Geometry {
	return Geometry{Type: GeometryPolygon, SRID: srid, WKT: GeometryPolygon + " " + wktRings(rings), Coords: flatten(rings)}
}

// NewEnvelope builds the POLYGON covering lower and upper corners.
func NewEnvelope(srid int, lower, upper Coord) Geometry {
	ring := []Coord{
		{lower[0], lower[1]},
		{upper[0], lower[1]},
		{upper[0], upper[1]},
		{lower[0], upper[1]},
		{lower[0], lower[1]},
	}
	return NewPolygon(srid, [][]Coord{ring})
}

// NewMultiPoint builds a MULTIPOINT.
func NewMultiPoint(srid int, cs []Coord) Geometry {
	parts := make([]string, len(cs))
	for i, c := range cs {
		parts[i] = wktSeq([]Coord{c})
	}
	return Geometry{Type: GeometryMultiPoint, SRID: srid, WKT: GeometryMultiPoint + " (" + strings.Join(parts, ", ") + ")", Coords: cs}
}

// NewMultiLineString builds a MULTILINESTRING.
func NewMultiLineString(srid int, lines [][]Coord) Geometry {
	return Geometry{Type: GeometryMultiLineString, SRID: srid, WKT: GeometryMultiLineString + " " + wktRings(lines), Coords: flatten(lines)}
}

// NewMultiPolygon builds a MULTIPOLYGON.
func NewMultiPolygon(srid int, polys [][][]Coord) Geometry {
	parts := make([]string, len(polys))
	var all []Coord
	for i, p := range polys {
		parts[i] = wktRings(p)
		all = append(all, flatten(p)...)
	}
	return Geometry{Type: GeometryMultiPolygon, SRID: srid, WKT: GeometryMultiPolygon + " (" + strings.Join(parts, ", ") + ")", Coords: all}
}

func wktCoord(c Coord) string {
	parts := make([]string, len(c))
	for i, v := range c {
		parts[i] = FormatNumber(v)
	}
	return strings.Join(parts, " ")
}

func wktSeq(cs []Coord) string {
	parts := make([]string, len(cs))
	for i, c := range cs {
		parts[i] = wktCoord(c)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func wktRings(rings [][]Coord) string {
	parts := make([]string, len(rings))
	for i, r := range rings {
		parts[i] = wktSeq(r)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func flatten(rings [][]Coord) []Coord {
	var out []Coord
	for _, r := range rings {
		out = append(out, r...)
	}
	return out
}
