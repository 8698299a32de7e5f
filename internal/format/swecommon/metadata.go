package swecommon

import (
	"strconv"
	"strings"

	"github.com/52North/SOS-sub005/internal/decode"
	"github.com/52North/SOS-sub005/internal/swe"
	"github.com/52North/SOS-sub005/internal/xmltree"
)

// readMetadata fills the fields every component shares. It runs after the
// type-specific read so that a failing value is reported first.
func readMetadata(n *xmltree.Node, m *swe.Metadata) error {
	m.ID, _ = n.AttrLocal("id")
	m.Definition, _ = n.AttrLocal("definition")
	if v, ok := n.AttrLocal("optional"); ok {
		m.Optional = v == "true" || v == "1"
	}
	m.Label = decode.OptionalText(n, Namespace, "label")
	m.Description = decode.OptionalText(n, Namespace, "description")
	m.Identifier = decode.OptionalText(n, Namespace, "identifier")
	m.XML = n.Raw()

	c := n.Child(Namespace, "constraint")
	if c == nil {
		return nil
	}
	constraint, err := readConstraint(c)
	if err != nil {
		return err
	}
	m.Constraint = constraint
	return nil
}

// readConstraint reads a constraint property: either an xlink reference or
// one inline AllowedValues, AllowedTokens or AllowedTimes element.
func readConstraint(n *xmltree.Node) (*swe.Constraint, error) {
	if ref, ok := decode.ReferenceOf(n); ok && len(n.Children) == 0 {
		return &swe.Constraint{Reference: &ref}, nil
	}
	inner := n.FirstElement()
	if inner == nil {
		return nil, decode.MissingParameter("constraint")
	}
	switch inner.Name.Local {
	case swe.AllowedValues, swe.AllowedTokens, swe.AllowedTimes:
	default:
		return nil, decode.UnsupportedInput(inner.Name, "unknown constraint")
	}
	ic := &swe.InlineConstraint{
		Kind:    inner.Name.Local,
		Values:  decode.Texts(inner, Namespace, "value"),
		Pattern: decode.OptionalText(inner, Namespace, "pattern"),
	}
	for _, iv := range inner.ChildrenNamed(Namespace, "interval") {
		parts := strings.Fields(iv.Text())
		if len(parts) != 2 {
			return nil, decode.InvalidParameterValuef("interval", "interval %q needs two bounds", iv.Text())
		}
		ic.Intervals = append(ic.Intervals, [2]string{parts[0], parts[1]})
	}
	if s := decode.OptionalText(inner, Namespace, "significantFigures"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 0 {
			return nil, decode.InvalidParameterValuef("significantFigures", "%q is not a non-negative integer", s)
		}
		ic.SignificantFigures = v
	}
	return &swe.Constraint{Inline: ic}, nil
}

// uom reads the uom child as its code attribute or xlink:href.
func uom(n *xmltree.Node) string {
	u := n.Child(Namespace, "uom")
	if u == nil {
		return ""
	}
	if code, ok := u.AttrLocal("code"); ok && code != "" {
		return code
	}
	return decode.HrefOrText(u)
}

// value returns the trimmed text of the value child and whether it holds
// any.
func value(n *xmltree.Node) (string, bool) {
	v := decode.OptionalText(n, Namespace, "value")
	return v, v != ""
}
