package decode

import (
	"fmt"
	"unicode"
	"unicode/utf8"

	"github.com/52North/SOS-sub005/internal/xmltree"
)

// Shape discriminates the node kinds a decoder accepts.
type Shape uint8

const (
	// ShapeElement is a bare typed element such as gml:Point.
	ShapeElement Shape = iota

	// ShapeDocument is the document element of a parsed document.
	ShapeDocument

	// ShapeProperty is a property-wrapper element such as gml:pointMember.
	ShapeProperty

	// ShapeElementArray is a homogeneous sequence of sibling elements.
	ShapeElementArray
)

var shapeNames = [...]string{
	ShapeElement:      "element",
	ShapeDocument:     "document",
	ShapeProperty:     "property",
	ShapeElementArray: "element-array",
}

func (s Shape) String() string {
	if int(s) < len(shapeNames) {
		return shapeNames[s]
	}
	return fmt.Sprintf("shape(%d)", uint8(s))
}

// ShapeOf classifies a single node. Document elements are ShapeDocument;
// elements whose local name starts with a lower-case letter follow the GML
// property naming convention and are ShapeProperty; everything else is
// ShapeElement.
func ShapeOf(n *xmltree.Node) Shape {
	if n.IsRoot() {
		return ShapeDocument
	}
	r, _ := utf8.DecodeRuneInString(n.Name.Local)
	if unicode.IsLower(r) {
		return ShapeProperty
	}
	return ShapeElement
}

// Key identifies what a decoder accepts. An empty Local matches every
// element of the namespace with the given shape.
type Key struct {
	Namespace string
	Shape     Shape
	Local     string
}

// KeyOf returns the exact key for a node.
func KeyOf(n *xmltree.Node) Key {
	return Key{Namespace: n.Name.Space, Shape: ShapeOf(n), Local: n.Name.Local}
}

// IsWildcard reports whether the key matches a whole namespace.
func (k Key) IsWildcard() bool { return k.Local == "" }

// Wildcard returns the namespace-wide key with the same shape.
func (k Key) Wildcard() Key { return Key{Namespace: k.Namespace, Shape: k.Shape} }

func (k Key) String() string {
	local := k.Local
	if local == "" {
		local = "*"
	}
	return fmt.Sprintf("{%s}%s/%s", k.Namespace, local, k.Shape)
}

// ElementKeys builds ShapeElement keys for each local name.
func ElementKeys(namespace string, locals ...string) []Key {
	return shapeKeys(namespace, ShapeElement, locals)
}

// DocumentKeys builds ShapeDocument keys for each local name.
func DocumentKeys(namespace string, locals ...string) []Key {
	return shapeKeys(namespace, ShapeDocument, locals)
}

func shapeKeys(namespace string, shape Shape, locals []string) []Key {
	keys := make([]Key, 0, len(locals))
	for _, l := range locals {
		keys = append(keys, Key{Namespace: namespace, Shape: shape, Local: l})
	}
	return keys
}

func lessKey(a, b Key) bool {
	if a.Namespace != b.Namespace {
		return a.Namespace < b.Namespace
	}
	if a.Shape != b.Shape {
		return a.Shape < b.Shape
	}
	return a.Local < b.Local
}
