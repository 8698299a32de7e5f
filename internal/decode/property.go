package decode

import (
	"github.com/52North/SOS-sub005/internal/ir"
	"github.com/52North/SOS-sub005/internal/xmltree"
)

// PropertyFactory returns a factory for the generic property-wrapper
// decoder of a namespace. A wrapper carrying only xlink attributes decodes
// to an ir.Reference; otherwise its single child element is decoded through
// the dispatcher.
func PropertyFactory(namespace string, contentTypes ...string) Factory {
	return func(d Dispatcher) Decoder {
		return &propertyDecoder{ns: namespace, contentTypes: contentTypes, d: d}
	}
}

type propertyDecoder struct {
	ns           string
	contentTypes []string
	d            Dispatcher
}

func (p *propertyDecoder) Keys() []Key {
	return []Key{{Namespace: p.ns, Shape: ShapeProperty}}
}

func (p *propertyDecoder) ContentTypes() []string       { return p.contentTypes }
func (p *propertyDecoder) ConformanceClasses() []string { return nil }

func (p *propertyDecoder) Decode(n *xmltree.Node) (any, error) {
	switch len(n.Children) {
	case 0:
		if ref, ok := ReferenceOf(n); ok {
			return ref, nil
		}
		return nil, MissingParameter(n.Name.Local)
	case 1:
		return p.d.Decode(n.Children[0])
	default:
		return nil, InvalidParameterValuef(n.Name.Local,
			"property holds %d elements, expected one", len(n.Children))
	}
}

// ReferenceOf reads the xlink attributes of n. It reports false when n has
// no xlink:href.
func ReferenceOf(n *xmltree.Node) (ir.Reference, bool) {
	href, ok := n.Href()
	if !ok || href == "" {
		return ir.Reference{}, false
	}
	title, _ := n.Attr(xmltree.XLinkNamespace, "title")
	role, _ := n.Attr(xmltree.XLinkNamespace, "role")
	return ir.Reference{Href: href, Title: title, Role: role}, true
}

// RequireChild returns the named child or MissingParameter(local).
func RequireChild(n *xmltree.Node, space, local string) (*xmltree.Node, error) {
	c := n.Child(space, local)
	if c == nil {
		return nil, MissingParameter(local)
	}
	return c, nil
}

// RequireText returns the trimmed text of the named child. An absent child
// or empty text is MissingParameter(local).
func RequireText(n *xmltree.Node, space, local string) (string, error) {
	c, err := RequireChild(n, space, local)
	if err != nil {
		return "", err
	}
	if c.Text() == "" {
		return "", MissingParameter(local)
	}
	return c.Text(), nil
}

// OptionalText returns the trimmed text of the named child, or "".
func OptionalText(n *xmltree.Node, space, local string) string {
	if c := n.Child(space, local); c != nil {
		return c.Text()
	}
	return ""
}

// Texts returns the trimmed text of every child with the given name.
func Texts(n *xmltree.Node, space, local string) []string {
	var out []string
	for _, c := range n.ChildrenNamed(space, local) {
		if t := c.Text(); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// HrefOrText returns the xlink:href of the named child, falling back to its
// text. Used for elements such as sos:procedure that may be either.
func HrefOrText(n *xmltree.Node) string {
	if href, ok := n.Href(); ok && href != "" {
		return href
	}
	return n.Text()
}
