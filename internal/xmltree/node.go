// Package xmltree provides the generic, already-parsed XML node tree that the
// decoders walk. It never interprets any schema: it only records element
// names (with resolved namespace URIs), attributes, child elements, direct
// character data and the raw text of every element's subtree.
package xmltree

import "strings"

// XLinkNamespace is the namespace of xlink attributes (href, title, role).
const XLinkNamespace = "http://www.w3.org/1999/xlink"

// XSINamespace is the XML Schema instance namespace (xsi:type, xsi:nil).
const XSINamespace = "http://www.w3.org/2001/XMLSchema-instance"

// Name is a namespace-qualified XML name.
type Name struct {
	Space string
	Local string
}

// String renders the name in Clark notation: {namespace}local.
func (n Name) String() string {
	if n.Space == "" {
		return n.Local
	}
	return "{" + n.Space + "}" + n.Local
}

// Attr is a single non-namespace-declaration attribute.
type Attr struct {
	Name  Name
	Value string
}

// Node is one element of a parsed document.
type Node struct {
	Name     Name
	Attrs    []Attr
	Children []*Node
	Parent   *Node

	text string
	raw  string
	root bool
}

// IsRoot reports whether the node is the document element.
func (n *Node) IsRoot() bool { return n.root }

// Text returns the element's direct character data with surrounding
// whitespace removed.
func (n *Node) Text() string { return strings.TrimSpace(n.text) }

// RawText returns the element's direct character data untouched.
func (n *Node) RawText() string { return n.text }

// Raw returns the original document text of the element's subtree.
// Namespace declarations made on ancestors are not repeated.
func (n *Node) Raw() string { return n.raw }

// Attr looks up an attribute by namespace and local name.
func (n *Node) Attr(space, local string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name.Space == space && a.Name.Local == local {
			return a.Value, true
		}
	}
	return "", false
}

// AttrLocal looks up the first attribute with the given local name in any
// namespace. Unqualified attributes are preferred.
func (n *Node) AttrLocal(local string) (string, bool) {
	if v, ok := n.Attr("", local); ok {
		return v, true
	}
	for _, a := range n.Attrs {
		if a.Name.Local == local {
			return a.Value, true
		}
	}
	return "", false
}

// Href returns the xlink:href attribute.
func (n *Node) Href() (string, bool) {
	return n.Attr(XLinkNamespace, "href")
}

// Child returns the first child element with the given qualified name.
func (n *Node) Child(space, local string) *Node {
	for _, c := range n.Children {
		if c.Name.Space == space && c.Name.Local == local {
			return c
		}
	}
	return nil
}

// ChildLocal returns the first child element with the given local name in
// any namespace.
func (n *Node) ChildLocal(local string) *Node {
	for _, c := range n.Children {
		if c.Name.Local == local {
			return c
		}
	}
	return nil
}

// ChildrenNamed returns all child elements with the given qualified name,
// in document order.
func (n *Node) ChildrenNamed(space, local string) []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.Name.Space == space && c.Name.Local == local {
			out = append(out, c)
		}
	}
	return out
}

// FirstElement returns the first child element, or nil.
func (n *Node) FirstElement() *Node {
	if len(n.Children) == 0 {
		return nil
	}
	return n.Children[0]
}

// Walk visits the node and all of its descendants depth first. Returning
// false from fn stops descending into that node's children.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		c.Walk(fn)
	}
}
