package om

import (
	"strings"

	"github.com/52North/SOS-sub005/internal/decode"
	"github.com/52North/SOS-sub005/internal/format/xsd"
	"github.com/52North/SOS-sub005/internal/ir"
	"github.com/52North/SOS-sub005/internal/xmltree"
)

// Namespace is the O&M 2.0 namespace.
const Namespace = "http://www.opengis.net/om/2.0"

// ContentType of O&M documents.
const ContentType = "http://www.opengis.net/om/2.0"

// ConformanceClasses advertised by the decoder.
var ConformanceClasses = []string{
	"http://www.opengis.net/spec/OMXML/2.0/conf/observation",
	"http://www.opengis.net/spec/OMXML/2.0/conf/measurement",
	"http://www.opengis.net/spec/OMXML/2.0/conf/categoryObservation",
	"http://www.opengis.net/spec/OMXML/2.0/conf/countObservation",
	"http://www.opengis.net/spec/OMXML/2.0/conf/truthObservation",
	"http://www.opengis.net/spec/OMXML/2.0/conf/geometryObservation",
	"http://www.opengis.net/spec/OMXML/2.0/conf/textObservation",
	"http://www.opengis.net/spec/OMXML/2.0/conf/complexObservation",
}

const gmlNamespace = "http://www.opengis.net/gml/3.2"

func init() {
	decode.Register(NewDecoder)
	decode.Register(decode.PropertyFactory(Namespace, ContentType))
}

// Decoder decodes OM_Observation, alone or as a run of siblings.
type Decoder struct {
	d decode.Dispatcher
}

// NewDecoder is the registry factory for the O&M decoder.
func NewDecoder(d decode.Dispatcher) decode.Decoder {
	return &Decoder{d: d}
}

// Keys implements decode.Decoder.
func (dec *Decoder) Keys() []decode.Key {
	return []decode.Key{
		{Namespace: Namespace, Shape: decode.ShapeElement, Local: "OM_Observation"},
		{Namespace: Namespace, Shape: decode.ShapeElementArray, Local: "OM_Observation"},
	}
}

// ContentTypes implements decode.Decoder.
func (dec *Decoder) ContentTypes() []string { return []string{ContentType} }

// ConformanceClasses implements decode.Decoder.
func (dec *Decoder) ConformanceClasses() []string { return ConformanceClasses }

// Decode implements decode.Decoder.
func (dec *Decoder) Decode(n *xmltree.Node) (any, error) {
	return dec.observation(n, timeRefs{})
}

// DecodeArray implements decode.ArrayDecoder. Observations in one run may
// reference each other's times by gml:id.
func (dec *Decoder) DecodeArray(nodes []*xmltree.Node) ([]any, error) {
	refs := timeRefs{}
	out := make([]any, 0, len(nodes))
	for _, n := range nodes {
		o, err := dec.observation(n, refs)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

// timeRefs maps gml:id to decoded times for xlink:href="#id" reuse.
type timeRefs map[string]ir.Time

func (r timeRefs) remember(t ir.Time) {
	switch t := t.(type) {
	case ir.Instant:
		if t.ID != "" {
			r[t.ID] = t
		}
	case ir.Period:
		if t.ID != "" {
			r[t.ID] = t
		}
	}
}

func (dec *Decoder) observation(n *xmltree.Node, refs timeRefs) (*Observation, error) {
	o := &Observation{}
	o.ID, _ = n.Attr(gmlNamespace, "id")

	typ, err := decode.RequireChild(n, Namespace, "type")
	if err != nil {
		return nil, err
	}
	o.Type = decode.HrefOrText(typ)

	if o.PhenomenonTime, err = dec.timeProperty(n, "phenomenonTime", refs); err != nil {
		return nil, err
	}
	if n.Child(Namespace, "resultTime") != nil {
		t, err := dec.timeProperty(n, "resultTime", refs)
		if err != nil {
			return nil, err
		}
		inst, ok := t.(ir.Instant)
		if !ok {
			return nil, decode.InvalidParameterValue("resultTime", "result time must be an instant")
		}
		o.ResultTime = &inst
	}
	if n.Child(Namespace, "validTime") != nil {
		t, err := dec.timeProperty(n, "validTime", refs)
		if err != nil {
			return nil, err
		}
		p, ok := t.(ir.Period)
		if !ok {
			return nil, decode.InvalidParameterValue("validTime", "valid time must be a period")
		}
		o.ValidTime = &p
	}

	if o.Procedure, err = reference(n, "procedure"); err != nil {
		return nil, err
	}
	if o.ObservedProperty, err = reference(n, "observedProperty"); err != nil {
		return nil, err
	}
	if o.FeatureOfInterest, err = dec.feature(n); err != nil {
		return nil, err
	}
	if o.Parameters, err = dec.parameters(n); err != nil {
		return nil, err
	}

	res, err := decode.RequireChild(n, Namespace, "result")
	if err != nil {
		return nil, err
	}
	if o.Result, err = dec.result(shortType(o.Type), res); err != nil {
		return nil, err
	}
	return o, nil
}

// timeProperty decodes a time property. An xlink:href of the form "#id"
// reuses a time decoded earlier in the same run.
func (dec *Decoder) timeProperty(n *xmltree.Node, local string, refs timeRefs) (ir.Time, error) {
	p, err := decode.RequireChild(n, Namespace, local)
	if err != nil {
		return nil, err
	}
	if href, ok := p.Href(); ok && len(p.Children) == 0 {
		id, isLocal := strings.CutPrefix(href, "#")
		t, ok := refs[id]
		if !isLocal || !ok {
			return nil, decode.InvalidParameterValuef(local, "unresolved time reference %q", href)
		}
		return t, nil
	}
	t, err := decode.As[ir.Time](dec.d, p, local)
	if err != nil {
		return nil, err
	}
	refs.remember(t)
	return t, nil
}

// reference reads a by-reference property: its xlink:href, or its text.
func reference(n *xmltree.Node, local string) (string, error) {
	p, err := decode.RequireChild(n, Namespace, local)
	if err != nil {
		return "", err
	}
	if ref := decode.HrefOrText(p); ref != "" {
		return ref, nil
	}
	if c := p.FirstElement(); c != nil {
		if id := decode.OptionalText(c, gmlNamespace, "identifier"); id != "" {
			return id, nil
		}
	}
	return "", decode.MissingParameter(local)
}

// feature reads featureOfInterest by reference or as an inline sampling
// feature with an optional shape.
func (dec *Decoder) feature(n *xmltree.Node) (Feature, error) {
	p, err := decode.RequireChild(n, Namespace, "featureOfInterest")
	if err != nil {
		return Feature{}, err
	}
	if href, ok := p.Href(); ok && href != "" {
		title, _ := p.Attr(xmltree.XLinkNamespace, "title")
		return Feature{Identifier: href, Name: title}, nil
	}
	sf := p.FirstElement()
	if sf == nil {
		return Feature{}, decode.MissingParameter("featureOfInterest")
	}
	f := Feature{
		Identifier: decode.OptionalText(sf, gmlNamespace, "identifier"),
		Name:       decode.OptionalText(sf, gmlNamespace, "name"),
	}
	if f.Identifier == "" {
		return Feature{}, decode.MissingParameter("identifier")
	}
	if shape := sf.ChildLocal("shape"); shape != nil {
		geom := shape.FirstElement()
		if geom == nil {
			return Feature{}, decode.MissingParameter("shape")
		}
		g, err := decode.As[ir.Geometry](dec.d, geom, "shape")
		if err != nil {
			return Feature{}, err
		}
		f.Shape = &g
	}
	return f, nil
}

func (dec *Decoder) parameters(n *xmltree.Node) ([]NamedValue, error) {
	var out []NamedValue
	for _, p := range n.ChildrenNamed(Namespace, "parameter") {
		nv := p.Child(Namespace, "NamedValue")
		if nv == nil {
			return nil, decode.MissingParameter("NamedValue")
		}
		name, err := reference(nv, "name")
		if err != nil {
			return nil, err
		}
		vp, err := decode.RequireChild(nv, Namespace, "value")
		if err != nil {
			return nil, err
		}
		var v any
		if el := vp.FirstElement(); el != nil {
			if v, err = dec.d.Decode(el); err != nil {
				return nil, err
			}
		} else {
			v = xsd.ParseAny(vp.Text())
		}
		out = append(out, NamedValue{Name: name, Value: v})
	}
	return out, nil
}
