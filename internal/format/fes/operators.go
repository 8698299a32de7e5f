package fes

import (
	"fmt"
	"unicode/utf8"

	"github.com/52North/SOS-sub005/internal/decode"
	"github.com/52North/SOS-sub005/internal/filter"
	"github.com/52North/SOS-sub005/internal/ir"
	"github.com/52North/SOS-sub005/internal/xmltree"
)

// isValueReference classifies a child by local name only. PropertyName is
// the FES 1.1 spelling.
func isValueReference(n *xmltree.Node) bool {
	return n.Name.Local == "ValueReference" || n.Name.Local == "PropertyName"
}

func valueReference(n *xmltree.Node) string {
	for _, c := range n.Children {
		if isValueReference(c) {
			return c.Text()
		}
	}
	return ""
}

func checked(f filter.Filter) (filter.Filter, error) {
	if err := filter.Validate(f); err != nil {
		return nil, err
	}
	return f, nil
}

// decodeSpatial decodes BBOX. The geometry operand must be an Envelope.
func (dec *Decoder) decodeSpatial(n *xmltree.Node) (filter.Filter, error) {
	if n.Name.Local != string(filter.SpatialBBOX) {
		return nil, decode.UnsupportedInput(n.Name, "only the BBOX spatial operator is supported")
	}
	var env *xmltree.Node
	for _, c := range n.Children {
		if !isValueReference(c) {
			env = c
			break
		}
	}
	if env == nil {
		return nil, decode.InvalidParameterValue("spatialFilter", "BBOX has no envelope")
	}
	if env.Name.Local != "Envelope" {
		return nil, decode.InvalidParameterValuef("spatialFilter", "BBOX operand %s is not an envelope", env.Name.Local)
	}
	g, err := decode.As[ir.Geometry](dec.d, env, "spatialFilter")
	if err != nil {
		return nil, err
	}
	f := filter.Spatial{Op: filter.SpatialBBOX, ValueReference: valueReference(n), Geometry: g}
	return checked(f)
}

// decodeTemporal takes the operator from the element name. The first
// child that decodes to a time is the operand; later siblings are not
// examined.
func (dec *Decoder) decodeTemporal(op filter.TemporalOp, n *xmltree.Node) (filter.Filter, error) {
	f := filter.Temporal{Op: op, ValueReference: valueReference(n)}
	for _, c := range n.Children {
		if isValueReference(c) {
			continue
		}
		v, err := dec.d.Decode(c)
		if err != nil {
			return nil, err
		}
		if t, ok := v.(ir.Time); ok {
			f.Time = t
			break
		}
	}
	if f.Time == nil {
		return nil, decode.MissingParameter("temporalFilter")
	}
	return checked(f)
}

// decodeComparison decodes a binary comparison or PropertyIsLike. When
// several Literal children are present the last one wins.
func (dec *Decoder) decodeComparison(op filter.ComparisonOp, n *xmltree.Node) (filter.Filter, error) {
	if !op.Implemented() {
		return nil, decode.UnsupportedInput(n.Name, fmt.Sprintf("%s is recognised but not supported", op))
	}
	f := filter.Comparison{Op: op, MatchCase: true}
	var hasLiteral bool
	for _, c := range n.Children {
		switch {
		case isValueReference(c):
			f.ValueReference = c.Text()
		case c.Name.Local == "Literal":
			f.Literal = c.Text()
			hasLiteral = true
		}
	}
	if f.ValueReference == "" {
		return nil, decode.MissingParameter("ValueReference")
	}
	if !hasLiteral {
		return nil, decode.MissingParameter("Literal")
	}
	if v, ok := n.AttrLocal("matchCase"); ok {
		switch v {
		case "true", "1":
			f.MatchCase = true
		case "false", "0":
			f.MatchCase = false
		default:
			return nil, decode.InvalidParameterValuef("matchCase", "%q is not a boolean", v)
		}
	}
	if op == filter.ComparisonLike {
		var err error
		if f.WildCard, err = metaChar(n, "wildCard"); err != nil {
			return nil, err
		}
		if f.SingleChar, err = metaChar(n, "singleChar"); err != nil {
			return nil, err
		}
		if f.Escape, err = metaChar(n, "escapeChar"); err != nil {
			return nil, err
		}
	}
	return checked(f)
}

// metaChar reads a single-character attribute. Absent is zero.
func metaChar(n *xmltree.Node, attr string) (rune, error) {
	v, ok := n.AttrLocal(attr)
	if !ok || v == "" {
		return 0, nil
	}
	if utf8.RuneCountInString(v) != 1 {
		return 0, decode.InvalidParameterValuef(attr, "%q must be a single character", v)
	}
	r, _ := utf8.DecodeRuneInString(v)
	return r, nil
}

// decodeBinary decodes And and Or. The child count is checked before any
// child is decoded.
func (dec *Decoder) decodeBinary(op filter.LogicalOp, n *xmltree.Node) (filter.Filter, error) {
	if len(n.Children) < 2 {
		return nil, decode.NoApplicableCode("binary logic filter requires at least two predicates", nil)
	}
	children := make([]filter.Filter, 0, len(n.Children))
	for _, c := range n.Children {
		f, err := dec.child(c)
		if err != nil {
			return nil, err
		}
		children = append(children, f)
	}
	f := filter.Binary{Op: op, Children: children}
	return checked(f)
}

func (dec *Decoder) decodeUnary(n *xmltree.Node) (filter.Filter, error) {
	switch len(n.Children) {
	case 0:
		return nil, decode.MissingParameter("Not")
	case 1:
	default:
		return nil, decode.InvalidParameterValuef("Not", "negation holds %d operators, expected one", len(n.Children))
	}
	child, err := dec.child(n.Children[0])
	if err != nil {
		return nil, err
	}
	f := filter.Unary{Child: child}
	return checked(f)
}
