package sos

import (
	"github.com/52North/SOS-sub005/internal/decode"
	"github.com/52North/SOS-sub005/internal/filter"
	"github.com/52North/SOS-sub005/internal/ir"
	"github.com/52North/SOS-sub005/internal/xmltree"
)

// Namespaces of SOS 2.0 and the SWE service model it builds on.
const (
	Namespace     = "http://www.opengis.net/sos/2.0"
	SWESNamespace = "http://www.opengis.net/swes/2.0"
)

// Service and Version are the only accepted request values.
const (
	Service = "SOS"
	Version = "2.0.0"
)

// ContentType of SOS KVP-over-XML requests.
const ContentType = "application/xml"

// ConformanceClasses advertised by the decoder.
var ConformanceClasses = []string{
	"http://www.opengis.net/spec/SOS/2.0/conf/core",
	"http://www.opengis.net/spec/SOS/2.0/conf/xml",
	"http://www.opengis.net/spec/SOS/2.0/conf/foiRetrieval",
}

func init() {
	decode.Register(NewDecoder)
}

// Decoder decodes SOS request documents.
type Decoder struct {
	d decode.Dispatcher
}

// NewDecoder is the registry factory for the SOS request decoder.
func NewDecoder(d decode.Dispatcher) decode.Decoder {
	return &Decoder{d: d}
}

// Keys implements decode.Decoder.
func (dec *Decoder) Keys() []decode.Key {
	keys := decode.ElementKeys(Namespace, "GetObservation", "GetFeatureOfInterest")
	return append(keys, decode.ElementKeys(SWESNamespace, "DescribeSensor")...)
}

// ContentTypes implements decode.Decoder.
func (dec *Decoder) ContentTypes() []string { return []string{ContentType} }

// ConformanceClasses implements decode.Decoder.
func (dec *Decoder) ConformanceClasses() []string { return ConformanceClasses }

// Decode implements decode.Decoder.
func (dec *Decoder) Decode(n *xmltree.Node) (any, error) {
	service, version, err := serviceAndVersion(n)
	if err != nil {
		return nil, err
	}
	switch n.Name.Local {
	case "GetObservation":
		return dec.getObservation(n, service, version)
	case "GetFeatureOfInterest":
		return dec.getFeatureOfInterest(n, service, version)
	case "DescribeSensor":
		return dec.describeSensor(n, service, version)
	}
	return nil, decode.UnsupportedInput(n.Name, "not a supported request")
}

func serviceAndVersion(n *xmltree.Node) (string, string, error) {
	service, ok := n.AttrLocal("service")
	if !ok || service == "" {
		return "", "", decode.MissingParameter("service")
	}
	if service != Service {
		return "", "", decode.InvalidParameterValuef("service", "unsupported service %q", service)
	}
	version, ok := n.AttrLocal("version")
	if !ok || version == "" {
		return "", "", decode.MissingParameter("version")
	}
	if version != Version {
		return "", "", decode.InvalidParameterValuef("version", "unsupported version %q", version)
	}
	return service, version, nil
}

// identifiers reads repeated by-reference or text elements.
func identifiers(n *xmltree.Node, space, local string) []string {
	var out []string
	for _, c := range n.ChildrenNamed(space, local) {
		if v := decode.HrefOrText(c); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// operand decodes the single element inside a filter property.
func operand[T filter.Filter](dec *Decoder, p *xmltree.Node) (T, error) {
	var zero T
	el := p.FirstElement()
	if el == nil {
		return zero, decode.MissingParameter(p.Name.Local)
	}
	return decode.As[T](dec.d, el, p.Name.Local)
}

func (dec *Decoder) getObservation(n *xmltree.Node, service, version string) (*GetObservation, error) {
	g := &GetObservation{
		Service:            service,
		Version:            version,
		Procedures:         identifiers(n, Namespace, "procedure"),
		Offerings:          identifiers(n, Namespace, "offering"),
		ObservedProperties: identifiers(n, Namespace, "observedProperty"),
		FeaturesOfInterest: identifiers(n, Namespace, "featureOfInterest"),
		ResponseFormat:     decode.OptionalText(n, Namespace, "responseFormat"),
	}
	for _, p := range n.ChildrenNamed(Namespace, "temporalFilter") {
		t, err := operand[filter.Temporal](dec, p)
		if err != nil {
			return nil, err
		}
		g.TemporalFilters = append(g.TemporalFilters, t)
	}
	if p := n.Child(Namespace, "spatialFilter"); p != nil {
		s, err := operand[filter.Spatial](dec, p)
		if err != nil {
			return nil, err
		}
		g.SpatialFilter = &s
	}
	return g, nil
}

func (dec *Decoder) getFeatureOfInterest(n *xmltree.Node, service, version string) (*GetFeatureOfInterest, error) {
	g := &GetFeatureOfInterest{
		Service:            service,
		Version:            version,
		Procedures:         identifiers(n, Namespace, "procedure"),
		ObservedProperties: identifiers(n, Namespace, "observedProperty"),
		FeaturesOfInterest: identifiers(n, Namespace, "featureOfInterest"),
	}
	for _, p := range n.ChildrenNamed(Namespace, "spatialFilter") {
		s, err := operand[filter.Spatial](dec, p)
		if err != nil {
			return nil, err
		}
		g.SpatialFilters = append(g.SpatialFilters, s)
	}
	return g, nil
}

func (dec *Decoder) describeSensor(n *xmltree.Node, service, version string) (*DescribeSensor, error) {
	procedure, err := decode.RequireText(n, SWESNamespace, "procedure")
	if err != nil {
		return nil, err
	}
	format, err := decode.RequireText(n, SWESNamespace, "procedureDescriptionFormat")
	if err != nil {
		return nil, err
	}
	ds := &DescribeSensor{
		Service:                    service,
		Version:                    version,
		Procedure:                  procedure,
		ProcedureDescriptionFormat: format,
	}
	if p := n.Child(SWESNamespace, "validTime"); p != nil {
		el := p.FirstElement()
		if el == nil {
			return nil, decode.MissingParameter("validTime")
		}
		t, err := decode.As[ir.Time](dec.d, el, "validTime")
		if err != nil {
			return nil, err
		}
		ds.ValidTime = t
	}
	return ds, nil
}
