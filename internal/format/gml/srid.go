package gml

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/52North/SOS-sub005/internal/decode"
	"github.com/52North/SOS-sub005/internal/xmltree"
)

// UnresolvedSRID is returned by ParseSRSName for names without a numeric
// code.
const UnresolvedSRID = -1

// ParseSRSName extracts the EPSG code from the common srsName forms:
//
//	EPSG:4326
//	urn:ogc:def:crs:EPSG::4326
//	urn:ogc:def:crs:EPSG:6.6:4326
//	http://www.opengis.net/def/crs/EPSG/0/4326
//	http://www.opengis.net/gml/srs/epsg.xml#4326
func ParseSRSName(name string) int {
	name = strings.TrimSpace(name)
	i := strings.LastIndexAny(name, ":/#")
	code := name[i+1:]
	if code == "" {
		return UnresolvedSRID
	}
	n, err := strconv.Atoi(code)
	if err != nil {
		return UnresolvedSRID
	}
	return n
}

// positionChildren name the direct children of a geometry that may carry
// its srsName.
var positionChildren = map[string]bool{
	"pos": true, "posList": true, "coordinates": true,
	"lowerCorner": true, "upperCorner": true, "exterior": true,
}

// resolveSRID looks for srsName on the element itself, then its direct
// position children, then the subtree of the first member. Later members
// are never consulted. An SRID that is zero or unresolved is never replaced
// by a default.
func resolveSRID(n *xmltree.Node) (int, error) {
	name, found := srsNameOf(n)
	if !found {
		for _, c := range n.Children {
			if c.Name.Space == n.Name.Space && positionChildren[c.Name.Local] {
				if name, found = findSRSName(c); found {
					break
				}
			}
		}
	}
	if !found {
		if m := firstMember(n); m != nil {
			name, found = findSRSName(m)
		}
	}
	if !found {
		return 0, noSRID(n, decode.MissingParameter("srsName"))
	}
	srid := ParseSRSName(name)
	if srid <= 0 {
		return 0, noSRID(n, decode.InvalidParameterValuef("srsName", "%q does not name a usable SRID", name))
	}
	return srid, nil
}

func srsNameOf(n *xmltree.Node) (string, bool) {
	if v, ok := n.AttrLocal("srsName"); ok && strings.TrimSpace(v) != "" {
		return v, true
	}
	return "", false
}

// findSRSName returns the first srsName in n's subtree, in document order.
func findSRSName(n *xmltree.Node) (name string, found bool) {
	n.Walk(func(c *xmltree.Node) bool {
		if found {
			return false
		}
		name, found = srsNameOf(c)
		return !found
	})
	return name, found
}

// firstMember returns the first member geometry of a multi-geometry: the
// content of the first xxxMember property, or the first child of the first
// xxxMembers property.
func firstMember(n *xmltree.Node) *xmltree.Node {
	for _, c := range n.Children {
		if c.Name.Space != n.Name.Space {
			continue
		}
		if strings.HasSuffix(c.Name.Local, "Member") || strings.HasSuffix(c.Name.Local, "Members") {
			return c.FirstElement()
		}
	}
	return nil
}

func noSRID(n *xmltree.Node, cause error) error {
	return decode.NoApplicableCode(fmt.Sprintf("geometry %s has no usable SRID", n.Name.Local), cause)
}
