package om

import (
	"errors"

	"github.com/52North/SOS-sub005/internal/decode"
	"github.com/52North/SOS-sub005/internal/format/xsd"
	"github.com/52North/SOS-sub005/internal/ir"
	"github.com/52North/SOS-sub005/internal/xmltree"
)

// result decodes om:result according to the observation type. Scalar
// results are read from the element text; geometry and complex results
// are decoded through the dispatcher.
func (dec *Decoder) result(typ string, n *xmltree.Node) (any, error) {
	switch typ {
	case TypeMeasurement:
		v, err := xsd.ParseQuantity("result", n.Text())
		if err != nil {
			return nil, err
		}
		uom, _ := n.AttrLocal("uom")
		return ir.Quantity{Value: v, UOM: uom}, nil
	case TypeCount:
		return xsd.ParseCount("result", n.Text())
	case TypeTruth:
		return xsd.ParseBoolean("result", n.Text())
	case TypeCategory:
		if n.Text() == "" {
			if ref, ok := decode.ReferenceOf(n); ok {
				return ir.Category{Value: ref.Href}, nil
			}
			return nil, decode.MissingParameter("result")
		}
		cs, _ := n.AttrLocal("codeSpace")
		return ir.Category{Value: n.Text(), CodeSpace: cs}, nil
	case TypeText:
		return ir.Text(n.RawText()), nil
	case TypeGeometry:
		el := n.FirstElement()
		if el == nil {
			return nil, decode.MissingParameter("result")
		}
		return decode.As[ir.Geometry](dec.d, el, "result")
	case TypeComplex, TypeSWEArray:
		el := n.FirstElement()
		if el == nil {
			return nil, decode.MissingParameter("result")
		}
		return dec.d.Decode(el)
	}
	if el := n.FirstElement(); el != nil {
		return dec.unknownElement(el)
	}
	return xsd.ParseAny(n.Text()), nil
}

// unknownElement decodes the result of an unrecognised observation type.
// An element no decoder accepts is kept verbatim as ir.Opaque.
func (dec *Decoder) unknownElement(el *xmltree.Node) (any, error) {
	v, err := dec.d.Decode(el)
	var de *decode.Error
	if errors.As(err, &de) && de.Kind == decode.KindUnsupportedInput && de.Name == el.Name.String() {
		return ir.Opaque{Name: el.Name.String(), XML: el.Raw()}, nil
	}
	return v, err
}
