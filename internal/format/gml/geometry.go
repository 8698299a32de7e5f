package gml

import (
	"github.com/52North/SOS-sub005/internal/decode"
	"github.com/52North/SOS-sub005/internal/ir"
	"github.com/52North/SOS-sub005/internal/xmltree"
)

// geometryReader decodes the coordinate structure of one geometry element.
// The SRID is resolved once at the outermost element; members inherit it.
type geometryReader func(ns string, n *xmltree.Node, srid int) (ir.Geometry, error)

var geometryReaders = map[string]geometryReader{
	"Point":            readPoint,
	"LineString":       readLineString,
	"Polygon":          readPolygon,
	"Envelope":         readEnvelope,
	"MultiPoint":       readMultiPoint,
	"MultiCurve":       readMultiCurve,
	"MultiSurface":     readMultiSurface,
	"CompositeSurface": readMultiSurface,
}

// decodeGeometry resolves the SRID of n and reads its coordinates.
func decodeGeometry(ns string, n *xmltree.Node) (ir.Geometry, error) {
	read, ok := geometryReaders[n.Name.Local]
	if !ok {
		return ir.Geometry{}, decode.UnsupportedInput(n.Name, "not a supported geometry")
	}
	srid, err := resolveSRID(n)
	if err != nil {
		return ir.Geometry{}, err
	}
	return read(ns, n, srid)
}

func readPoint(ns string, n *xmltree.Node, srid int) (ir.Geometry, error) {
	cs, err := positions(n, ns)
	if err != nil {
		return ir.Geometry{}, err
	}
	if len(cs) != 1 {
		return ir.Geometry{}, decode.InvalidParameterValuef("Point", "point has %d positions", len(cs))
	}
	return ir.NewPoint(srid, cs[0]), nil
}

func readLineString(ns string, n *xmltree.Node, srid int) (ir.Geometry, error) {
	cs, err := positions(n, ns)
	if err != nil {
		return ir.Geometry{}, err
	}
	if len(cs) < 2 {
		return ir.Geometry{}, decode.InvalidParameterValuef("LineString", "line string has %d positions, needs at least 2", len(cs))
	}
	return ir.NewLineString(srid, cs), nil
}

// readRing reads the LinearRing inside an exterior or interior element.
func readRing(ns string, boundary *xmltree.Node) ([]ir.Coord, error) {
	ring := boundary.Child(ns, "LinearRing")
	if ring == nil {
		return nil, decode.MissingParameter("LinearRing")
	}
	cs, err := positions(ring, ns)
	if err != nil {
		return nil, err
	}
	if len(cs) < 4 {
		return nil, decode.InvalidParameterValuef("LinearRing", "ring has %d positions, needs at least 4", len(cs))
	}
	first, last := cs[0], cs[len(cs)-1]
	for i := range first {
		if i >= len(last) || first[i] != last[i] {
			return nil, decode.InvalidParameterValue("LinearRing", "ring is not closed")
		}
	}
	return cs, nil
}

func polygonRings(ns string, n *xmltree.Node) ([][]ir.Coord, error) {
	ext := n.Child(ns, "exterior")
	if ext == nil {
		return nil, decode.MissingParameter("exterior")
	}
	shell, err := readRing(ns, ext)
	if err != nil {
		return nil, err
	}
	rings := [][]ir.Coord{shell}
	for _, in := range n.ChildrenNamed(ns, "interior") {
		hole, err := readRing(ns, in)
		if err != nil {
			return nil, err
		}
		rings = append(rings, hole)
	}
	return rings, nil
}

func readPolygon(ns string, n *xmltree.Node, srid int) (ir.Geometry, error) {
	rings, err := polygonRings(ns, n)
	if err != nil {
		return ir.Geometry{}, err
	}
	return ir.NewPolygon(srid, rings), nil
}

func readEnvelope(ns string, n *xmltree.Node, srid int) (ir.Geometry, error) {
	corner := func(local string) (ir.Coord, error) {
		c, err := decode.RequireChild(n, ns, local)
		if err != nil {
			return nil, err
		}
		cs, err := parseOrdinates(c)
		if err != nil {
			return nil, err
		}
		if len(cs) != 1 {
			return nil, decode.InvalidParameterValuef(local, "corner has %d positions", len(cs))
		}
		return cs[0], nil
	}
	lower, err := corner("lowerCorner")
	if err != nil {
		return ir.Geometry{}, err
	}
	upper, err := corner("upperCorner")
	if err != nil {
		return ir.Geometry{}, err
	}
	return ir.NewEnvelope(srid, lower, upper), nil
}

// members returns the geometries inside the single and plural member
// properties of a multi-geometry, in document order.
func members(ns string, n *xmltree.Node, single, plural string) []*xmltree.Node {
	var out []*xmltree.Node
	for _, c := range n.Children {
		if c.Name.Space != ns {
			continue
		}
		switch c.Name.Local {
		case single:
			if g := c.FirstElement(); g != nil {
				out = append(out, g)
			}
		case plural:
			out = append(out, c.Children...)
		}
	}
	return out
}

func readMultiPoint(ns string, n *xmltree.Node, srid int) (ir.Geometry, error) {
	var cs []ir.Coord
	for _, m := range members(ns, n, "pointMember", "pointMembers") {
		p, err := readMember(ns, m, "Point", readPoint)
		if err != nil {
			return ir.Geometry{}, err
		}
		cs = append(cs, p.Coords...)
	}
	if len(cs) == 0 {
		return ir.Geometry{}, decode.MissingParameter("pointMember")
	}
	return ir.NewMultiPoint(srid, cs), nil
}

func readMultiCurve(ns string, n *xmltree.Node, srid int) (ir.Geometry, error) {
	var lines [][]ir.Coord
	for _, m := range members(ns, n, "curveMember", "curveMembers") {
		l, err := readMember(ns, m, "LineString", readLineString)
		if err != nil {
			return ir.Geometry{}, err
		}
		lines = append(lines, l.Coords)
	}
	if len(lines) == 0 {
		return ir.Geometry{}, decode.MissingParameter("curveMember")
	}
	return ir.NewMultiLineString(srid, lines), nil
}

func readMultiSurface(ns string, n *xmltree.Node, srid int) (ir.Geometry, error) {
	var polys [][][]ir.Coord
	for _, m := range members(ns, n, "surfaceMember", "surfaceMembers") {
		if m.Name.Space != ns || m.Name.Local != "Polygon" {
			return ir.Geometry{}, decode.UnsupportedInput(m.Name, "surface members must be polygons")
		}
		rings, err := polygonRings(ns, m)
		if err != nil {
			return ir.Geometry{}, err
		}
		polys = append(polys, rings)
	}
	if len(polys) == 0 {
		return ir.Geometry{}, decode.MissingParameter("surfaceMember")
	}
	return ir.NewMultiPolygon(srid, polys), nil
}

func readMember(ns string, m *xmltree.Node, local string, read geometryReader) (ir.Geometry, error) {
	if m.Name.Space != ns || m.Name.Local != local {
		return ir.Geometry{}, decode.UnsupportedInput(m.Name, "expected "+local+" member")
	}
	return read(ns, m, 0)
}
