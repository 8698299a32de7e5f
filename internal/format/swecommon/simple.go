package swecommon

import (
	"strings"

	"github.com/52North/SOS-sub005/internal/decode"
	"github.com/52North/SOS-sub005/internal/format/xsd"
	"github.com/52North/SOS-sub005/internal/ir"
	"github.com/52North/SOS-sub005/internal/swe"
	"github.com/52North/SOS-sub005/internal/xmltree"
)

func (dec *Decoder) readBoolean(n *xmltree.Node) (swe.Component, error) {
	c := &swe.Boolean{}
	if v, ok := value(n); ok {
		b, err := xsd.ParseBoolean("value", v)
		if err != nil {
			return nil, err
		}
		bv := bool(b)
		c.Value = &bv
	}
	return c, nil
}

func (dec *Decoder) readCategory(n *xmltree.Node) (swe.Component, error) {
	c := &swe.Category{}
	if cs := n.Child(Namespace, "codeSpace"); cs != nil {
		c.CodeSpace = decode.HrefOrText(cs)
	}
	if v, ok := value(n); ok {
		c.Value = &v
	}
	return c, nil
}

func (dec *Decoder) readCount(n *xmltree.Node) (swe.Component, error) {
	c := &swe.Count{}
	if v, ok := value(n); ok {
		i, err := xsd.ParseCount("value", v)
		if err != nil {
			return nil, err
		}
		iv := int32(i)
		c.Value = &iv
	}
	return c, nil
}

// pair splits a range value into its two bounds.
func pair(v string) (string, string, error) {
	parts := strings.Fields(v)
	if len(parts) != 2 {
		return "", "", decode.InvalidParameterValuef("value", "range %q needs two bounds", v)
	}
	return parts[0], parts[1], nil
}

func (dec *Decoder) readCountRange(n *xmltree.Node) (swe.Component, error) {
	c := &swe.CountRange{}
	if v, ok := value(n); ok {
		lo, hi, err := pair(v)
		if err != nil {
			return nil, err
		}
		a, err := xsd.ParseCount("value", lo)
		if err != nil {
			return nil, err
		}
		b, err := xsd.ParseCount("value", hi)
		if err != nil {
			return nil, err
		}
		c.Value = &[2]int32{int32(a), int32(b)}
	}
	return c, nil
}

func (dec *Decoder) readQuantity(n *xmltree.Node) (swe.Component, error) {
	c := &swe.Quantity{UOM: uom(n)}
	if v, ok := value(n); ok {
		f, err := xsd.ParseQuantity("value", v)
		if err != nil {
			return nil, err
		}
		c.Value = &f
	}
	return c, nil
}

func (dec *Decoder) readQuantityRange(n *xmltree.Node) (swe.Component, error) {
	c := &swe.QuantityRange{UOM: uom(n)}
	if v, ok := value(n); ok {
		lo, hi, err := pair(v)
		if err != nil {
			return nil, err
		}
		a, err := xsd.ParseQuantity("value", lo)
		if err != nil {
			return nil, err
		}
		b, err := xsd.ParseQuantity("value", hi)
		if err != nil {
			return nil, err
		}
		c.Value = &[2]float64{a, b}
	}
	return c, nil
}

func (dec *Decoder) readText(n *xmltree.Node) (swe.Component, error) {
	c := &swe.Text{}
	if v := n.Child(Namespace, "value"); v != nil {
		s := v.RawText()
		c.Value = &s
	}
	return c, nil
}

// timeValue reads an ISO 8601 instant or an indeterminate keyword.
func timeValue(s string) (ir.Instant, error) {
	if kw, ok := ir.ParseIndeterminate(s); ok {
		return ir.Instant{Indeterminate: kw}, nil
	}
	t, err := ir.ParseISOInstant(s)
	if err != nil {
		return ir.Instant{}, decode.InvalidParameterValuef("value", "%q is not an ISO 8601 time", s)
	}
	return ir.Instant{Position: t}, nil
}

func (dec *Decoder) readTime(n *xmltree.Node) (swe.Component, error) {
	c := &swe.Time{UOM: uom(n)}
	c.ReferenceFrame, _ = n.AttrLocal("referenceFrame")
	if v, ok := value(n); ok {
		inst, err := timeValue(v)
		if err != nil {
			return nil, err
		}
		c.Value = inst
	}
	return c, nil
}

func (dec *Decoder) readTimeRange(n *xmltree.Node) (swe.Component, error) {
	c := &swe.TimeRange{UOM: uom(n)}
	c.ReferenceFrame, _ = n.AttrLocal("referenceFrame")
	if v, ok := value(n); ok {
		lo, hi, err := pair(v)
		if err != nil {
			return nil, err
		}
		begin, err := timeValue(lo)
		if err != nil {
			return nil, err
		}
		end, err := timeValue(hi)
		if err != nil {
			return nil, err
		}
		if !begin.IsIndeterminate() && !end.IsIndeterminate() && end.Position.Before(begin.Position) {
			return nil, decode.InvalidParameterValue("value", "time range ends before it begins")
		}
		c.Value = &ir.Period{Begin: begin, End: end}
	}
	return c, nil
}
