package gml

import (
	"github.com/52North/SOS-sub005/internal/decode"
	"github.com/52North/SOS-sub005/internal/ir"
	"github.com/52North/SOS-sub005/internal/xmltree"
)

// decodePosition reads a timePosition, beginPosition or endPosition
// element. Three literal forms are checked in priority order: ISO 8601
// text, an indeterminate keyword as text, and the indeterminatePosition
// attribute when the element has no text.
func decodePosition(n *xmltree.Node) (ir.Instant, error) {
	text := n.Text()
	if text != "" {
		if t, err := ir.ParseISOInstant(text); err == nil {
			return ir.Instant{Position: t}, nil
		}
		if kw, ok := ir.ParseIndeterminate(text); ok {
			return ir.Instant{Indeterminate: kw}, nil
		}
		return ir.Instant{}, decode.InvalidParameterValuef(n.Name.Local, "%q is neither an ISO 8601 time nor an indeterminate value", text)
	}
	if attr, ok := n.AttrLocal("indeterminatePosition"); ok {
		kw, ok := ir.ParseIndeterminate(attr)
		if !ok {
			return ir.Instant{}, decode.InvalidParameterValuef("indeterminatePosition", "unknown indeterminate value %q", attr)
		}
		return ir.Instant{Indeterminate: kw}, nil
	}
	return ir.Instant{}, decode.MissingParameter(n.Name.Local)
}

func gmlID(ns string, n *xmltree.Node) string {
	id, _ := n.Attr(ns, "id")
	return id
}

// decodeTimeInstant reads a TimeInstant and its gml:id.
func decodeTimeInstant(ns string, n *xmltree.Node) (ir.Instant, error) {
	pos, err := decode.RequireChild(n, ns, "timePosition")
	if err != nil {
		return ir.Instant{}, err
	}
	inst, err := decodePosition(pos)
	if err != nil {
		return ir.Instant{}, err
	}
	inst.ID = gmlID(ns, n)
	return inst, nil
}

// decodeTimePeriod reads a TimePeriod given either by begin/endPosition or
// by nested begin/end TimeInstants.
func decodeTimePeriod(ns string, n *xmltree.Node) (ir.Period, error) {
	begin, err := periodBound(ns, n, "beginPosition", "begin")
	if err != nil {
		return ir.Period{}, err
	}
	end, err := periodBound(ns, n, "endPosition", "end")
	if err != nil {
		return ir.Period{}, err
	}
	if !begin.IsIndeterminate() && !end.IsIndeterminate() && end.Position.Before(begin.Position) {
		return ir.Period{}, decode.InvalidParameterValue("TimePeriod", "period ends before it begins")
	}
	return ir.Period{ID: gmlID(ns, n), Begin: begin, End: end}, nil
}

func periodBound(ns string, n *xmltree.Node, position, property string) (ir.Instant, error) {
	if p := n.Child(ns, position); p != nil {
		return decodePosition(p)
	}
	prop := n.Child(ns, property)
	if prop == nil {
		return ir.Instant{}, decode.MissingParameter(position)
	}
	inst := prop.Child(ns, "TimeInstant")
	if inst == nil {
		return ir.Instant{}, decode.MissingParameter("TimeInstant")
	}
	return decodeTimeInstant(ns, inst)
}
