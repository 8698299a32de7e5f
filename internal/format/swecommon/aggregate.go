package swecommon

import (
	"fmt"

	"github.com/52North/SOS-sub005/internal/decode"
	"github.com/52North/SOS-sub005/internal/swe"
	"github.com/52North/SOS-sub005/internal/xmltree"
)

// fields decodes the named member properties of a record or vector in
// document order. Names are required and unique.
func (dec *Decoder) fields(n *xmltree.Node, member string) ([]swe.Field, error) {
	props := n.ChildrenNamed(Namespace, member)
	if len(props) == 0 {
		return nil, decode.MissingParameter(member)
	}
	seen := make(map[string]bool, len(props))
	out := make([]swe.Field, 0, len(props))
	for _, p := range props {
		name, _ := p.AttrLocal("name")
		if name == "" {
			return nil, decode.MissingParameter("name")
		}
		if seen[name] {
			return nil, decode.InvalidParameterValuef(member, "duplicate %s name %q", member, name)
		}
		seen[name] = true
		c, err := decode.As[swe.Component](dec.d, p, member)
		if err != nil {
			return nil, err
		}
		out = append(out, swe.Field{Name: name, Component: c})
	}
	return out, nil
}

func (dec *Decoder) readVector(n *xmltree.Node) (swe.Component, error) {
	coords, err := dec.fields(n, "coordinate")
	if err != nil {
		return nil, err
	}
	v := &swe.Vector{Coordinates: coords}
	v.ReferenceFrame, _ = n.AttrLocal("referenceFrame")
	v.LocalFrame, _ = n.AttrLocal("localFrame")
	return v, nil
}

func (dec *Decoder) readRecord(n *xmltree.Node) (swe.Component, error) {
	fields, err := dec.fields(n, "field")
	if err != nil {
		return nil, err
	}
	return &swe.Record{Fields: fields}, nil
}

// readArray runs the DataArray pipeline: element count, element type,
// encoding, then the bulk values. Any component may be the element type;
// bulk values are only read for a record with a delimited text encoding.
func (dec *Decoder) readArray(n *xmltree.Node) (swe.Component, error) {
	a := &swe.Array{}

	if p := n.Child(Namespace, "elementCount"); p != nil {
		count, err := decode.As[*swe.Count](dec.d, p, "elementCount")
		if err != nil {
			return nil, err
		}
		a.ElementCount = count
	}

	typeProp, err := decode.RequireChild(n, Namespace, "elementType")
	if err != nil {
		return nil, err
	}
	a.ElementType.Name, _ = typeProp.AttrLocal("name")
	elementType, err := decode.As[swe.Component](dec.d, typeProp, "elementType")
	if err != nil {
		return nil, err
	}
	a.ElementType.Component = elementType

	values := n.Child(Namespace, "values")
	record, ok := elementType.(*swe.Record)
	if values != nil && !ok {
		return nil, decode.UnsupportedOperation("elementType",
			fmt.Sprintf("values of array element type %T are not supported, expected a record", elementType))
	}
	encProp := n.Child(Namespace, "encoding")
	if encProp == nil {
		if values != nil {
			return nil, decode.MissingParameter("encoding")
		}
		return a, nil
	}
	enc, err := decode.As[*swe.Encoding](dec.d, encProp, "encoding")
	if err != nil {
		return nil, err
	}
	a.Encoding = enc
	if values == nil {
		return a, nil
	}

	table := swe.DecodeTable(values.RawText(), *enc)
	width := leafCount(record)
	for i, row := range table {
		if len(row) != width {
			return nil, decode.InvalidParameterValuef("values",
				"block %d has %d tokens, the element type has %d fields", i+1, len(row), width)
		}
	}
	if a.ElementCount != nil && a.ElementCount.Value != nil && int(*a.ElementCount.Value) != len(table) {
		return nil, decode.InvalidParameterValuef("elementCount",
			"element count %d does not match %d blocks", *a.ElementCount.Value, len(table))
	}
	a.Values = table
	return a, nil
}

// leafCount returns the number of tokens one block of c occupies.
func leafCount(c swe.Component) int {
	switch c := c.(type) {
	case *swe.Record:
		n := 0
		for _, f := range c.Fields {
			n += leafCount(f.Component)
		}
		return n
	case *swe.Vector:
		n := 0
		for _, f := range c.Coordinates {
			n += leafCount(f.Component)
		}
		return n
	case *swe.CountRange, *swe.QuantityRange, *swe.TimeRange:
		return 2
	default:
		return 1
	}
}

// readEncoding decodes TextEncoding. Other encodings are recognised but
// not supported.
func readEncoding(n *xmltree.Node) (any, error) {
	if n.Name.Local != "TextEncoding" {
		return nil, decode.UnsupportedOperation("encoding",
			fmt.Sprintf("%s is not supported, only TextEncoding", n.Name.Local))
	}
	enc := &swe.Encoding{DecimalSeparator: swe.DefaultDecimalSeparator}
	enc.BlockSeparator, _ = n.AttrLocal("blockSeparator")
	enc.TokenSeparator, _ = n.AttrLocal("tokenSeparator")
	if v, ok := n.AttrLocal("decimalSeparator"); ok && v != "" {
		enc.DecimalSeparator = v
	}
	enc.CollapseWhiteSpace = true
	if v, ok := n.AttrLocal("collapseWhiteSpaces"); ok {
		enc.CollapseWhiteSpace = v == "true" || v == "1"
	}
	if err := enc.Validate(); err != nil {
		return nil, err
	}
	return enc, nil
}
