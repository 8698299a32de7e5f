package gml

import (
	"strconv"
	"strings"

	"github.com/52North/SOS-sub005/internal/decode"
	"github.com/52North/SOS-sub005/internal/format/xsd"
	"github.com/52North/SOS-sub005/internal/ir"
	"github.com/52North/SOS-sub005/internal/xmltree"
)

// Default separators of gml:coordinates.
const (
	DefaultCS      = ","
	DefaultTS      = " "
	DefaultDecimal = "."
)

// coordinateSeparators reads the cs, ts and decimal attributes of a
// gml:coordinates element.
func coordinateSeparators(n *xmltree.Node) (cs, ts, decimal string) {
	cs, ts, decimal = DefaultCS, DefaultTS, DefaultDecimal
	if v, ok := n.AttrLocal("cs"); ok && v != "" {
		cs = v
	}
	if v, ok := n.AttrLocal("ts"); ok && v != "" {
		ts = v
	}
	if v, ok := n.AttrLocal("decimal"); ok && v != "" {
		decimal = v
	}
	return cs, ts, decimal
}

// splitTuples splits on sep. Whitespace separators match any run of
// whitespace.
func splitTuples(s, sep string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if strings.TrimSpace(sep) == "" {
		return strings.Fields(s)
	}
	parts := strings.Split(s, sep)
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseCoordinates reads a gml:coordinates element into positions.
func parseCoordinates(n *xmltree.Node) ([]ir.Coord, error) {
	cs, ts, decimal := coordinateSeparators(n)
	tuples := splitTuples(n.Text(), ts)
	if len(tuples) == 0 {
		return nil, decode.MissingParameter("coordinates")
	}
	out := make([]ir.Coord, 0, len(tuples))
	dim := -1
	for _, tuple := range tuples {
		ords := splitTuples(tuple, cs)
		if dim == -1 {
			dim = len(ords)
		}
		if len(ords) != dim || dim < 2 {
			return nil, decode.InvalidParameterValuef("coordinates",
				"tuple %q has %d ordinates, expected %d", tuple, len(ords), max(dim, 2))
		}
		c := make(ir.Coord, dim)
		for i, o := range ords {
			if decimal != DefaultDecimal {
				o = strings.Replace(o, decimal, DefaultDecimal, 1)
			}
			v, err := xsd.ParseQuantity("coordinates", o)
			if err != nil {
				return nil, err
			}
			c[i] = v
		}
		out = append(out, c)
	}
	return out, nil
}

// FormatCoordinateList renders a gml:coordinates element in the legacy
// list form: ordinates joined by ",", tuples joined by ", ", wrapped in
// parentheses. "1,2 3,4" with default separators becomes "(1,2, 3,4)".
func FormatCoordinateList(n *xmltree.Node) (string, error) {
	coords, err := parseCoordinates(n)
	if err != nil {
		return "", err
	}
	tuples := make([]string, len(coords))
	for i, c := range coords {
		ords := make([]string, len(c))
		for j, v := range c {
			ords[j] = ir.FormatNumber(v)
		}
		tuples[i] = strings.Join(ords, ",")
	}
	return "(" + strings.Join(tuples, ", ") + ")", nil
}

// srsDimension reads the srsDimension attribute from n or its ancestors,
// defaulting to 2.
func srsDimension(n *xmltree.Node) (int, error) {
	for cur := n; cur != nil; cur = cur.Parent {
		v, ok := cur.AttrLocal("srsDimension")
		if !ok {
			continue
		}
		d, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || d < 2 || d > 3 {
			return 0, decode.InvalidParameterValuef("srsDimension", "unsupported dimension %q", v)
		}
		return d, nil
	}
	return 2, nil
}

// parseOrdinates reads the whitespace separated numbers of a pos, posList,
// lowerCorner or upperCorner element and groups them by dimension. An
// ordinate count that is not a multiple of the dimension is invalid.
func parseOrdinates(n *xmltree.Node) ([]ir.Coord, error) {
	dim, err := srsDimension(n)
	if err != nil {
		return nil, err
	}
	fields := strings.Fields(n.Text())
	if len(fields) == 0 {
		return nil, decode.MissingParameter(n.Name.Local)
	}
	if len(fields)%dim != 0 {
		return nil, decode.InvalidParameterValuef(n.Name.Local,
			"%d ordinates cannot form positions of dimension %d", len(fields), dim)
	}
	out := make([]ir.Coord, 0, len(fields)/dim)
	for i := 0; i < len(fields); i += dim {
		c := make(ir.Coord, dim)
		for j := 0; j < dim; j++ {
			v, err := xsd.ParseQuantity(n.Name.Local, fields[i+j])
			if err != nil {
				return nil, err
			}
			c[j] = v
		}
		out = append(out, c)
	}
	return out, nil
}

// positions reads the coordinate content of a geometry element: a posList,
// a sequence of pos elements, or a gml:coordinates element.
func positions(n *xmltree.Node, ns string) ([]ir.Coord, error) {
	if pl := n.Child(ns, "posList"); pl != nil {
		return parseOrdinates(pl)
	}
	if c := n.Child(ns, "coordinates"); c != nil {
		return parseCoordinates(c)
	}
	var out []ir.Coord
	for _, p := range n.ChildrenNamed(ns, "pos") {
		cs, err := parseOrdinates(p)
		if err != nil {
			return nil, err
		}
		out = append(out, cs...)
	}
	if len(out) == 0 {
		return nil, decode.MissingParameter("posList")
	}
	return out, nil
}
