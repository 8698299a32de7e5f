package xsd

import (
	"github.com/52North/SOS-sub005/internal/decode"
	"github.com/52North/SOS-sub005/internal/ir"
	"github.com/52North/SOS-sub005/internal/xmltree"
)

// Namespace is the XML Schema namespace.
const Namespace = "http://www.w3.org/2001/XMLSchema"

// ConformanceClass advertised by the leaf value decoder.
const ConformanceClass = "http://www.opengis.net/spec/SWE/2.0/conf/core"

func init() {
	decode.Register(NewDecoder)
}

// leafTypes maps XML Schema element names to their value parser.
var leafTypes = map[string]func(n *xmltree.Node) (any, error){
	"boolean": func(n *xmltree.Node) (any, error) { return ParseBoolean(n.Name.Local, n.Text()) },
	"int":     decodeInteger(32),
	"integer": decodeInteger(64),
	"long":    decodeInteger(64),
	"short":   decodeInteger(16),
	"double":  decodeQuantity,
	"float":   decodeQuantity,
	"decimal": decodeQuantity,
	"string":  func(n *xmltree.Node) (any, error) { return ParseText(n.RawText()), nil },
	"anyType": decodeAny,
}

func decodeInteger(bits int) func(n *xmltree.Node) (any, error) {
	return func(n *xmltree.Node) (any, error) {
		return ParseInteger(n.Name.Local, n.Text(), bits)
	}
}

// decodeAny infers a scalar from text content. Element content is kept
// verbatim.
func decodeAny(n *xmltree.Node) (any, error) {
	if n.FirstElement() != nil {
		return ir.Opaque{Name: n.Name.String(), XML: n.Raw()}, nil
	}
	return ParseAny(n.Text()), nil
}

func decodeQuantity(n *xmltree.Node) (any, error) {
	f, err := ParseQuantity(n.Name.Local, n.Text())
	if err != nil {
		return nil, err
	}
	uom, _ := n.AttrLocal("uom")
	return ir.Quantity{Value: f, UOM: uom}, nil
}

// Decoder decodes XML Schema typed leaf elements such as
// <xs:double uom="m">1.5</xs:double>.
type Decoder struct{}

// NewDecoder is the registry factory.
func NewDecoder(decode.Dispatcher) decode.Decoder { return Decoder{} }

// Keys implements decode.Decoder. XML Schema type names start lower-case,
// so nested elements are property-shaped.
func (Decoder) Keys() []decode.Key {
	keys := make([]decode.Key, 0, 2*len(leafTypes))
	for local := range leafTypes {
		keys = append(keys,
			decode.Key{Namespace: Namespace, Shape: decode.ShapeProperty, Local: local},
			decode.Key{Namespace: Namespace, Shape: decode.ShapeDocument, Local: local},
		)
	}
	return keys
}

// ContentTypes implements decode.Decoder.
func (Decoder) ContentTypes() []string { return []string{"text/xml"} }

// ConformanceClasses implements decode.Decoder.
func (Decoder) ConformanceClasses() []string { return []string{ConformanceClass} }

// Decode implements decode.Decoder.
func (Decoder) Decode(n *xmltree.Node) (any, error) {
	parse, ok := leafTypes[n.Name.Local]
	if !ok {
		return nil, decode.UnsupportedInput(n.Name, "not an XML Schema leaf type")
	}
	return parse(n)
}
