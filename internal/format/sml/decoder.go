// Package sml decodes SensorML 2.0 process descriptions. Inputs, outputs,
// positions and nested components are decoded through the dispatcher, so
// any registered SWE Common or GML content is accepted.
package sml

import (
	"github.com/52North/SOS-sub005/internal/decode"
	"github.com/52North/SOS-sub005/internal/xmltree"
)

// Namespace is the SensorML 2.0 namespace.
const Namespace = "http://www.opengis.net/sensorml/2.0"

// ContentType is the procedure description format of SensorML 2.0.
const ContentType = "http://www.opengis.net/sensorml/2.0"

// ConformanceClasses advertised by the decoder.
var ConformanceClasses = []string{
	"http://www.opengis.net/spec/SensorML/2.0/conf/core",
	"http://www.opengis.net/spec/SensorML/2.0/conf/xml/simple-process",
	"http://www.opengis.net/spec/SensorML/2.0/conf/xml/physical-component",
	"http://www.opengis.net/spec/SensorML/2.0/conf/xml/physical-system",
}

const gmlNamespace = "http://www.opengis.net/gml/3.2"

// Process kinds.
const (
	KindPhysicalSystem    = "PhysicalSystem"
	KindPhysicalComponent = "PhysicalComponent"
	KindSimpleProcess     = "SimpleProcess"
)

func init() {
	decode.Register(NewDecoder)
	decode.Register(decode.PropertyFactory(Namespace, ContentType))
}

// Decoder decodes SensorML processes.
type Decoder struct {
	d decode.Dispatcher
}

// NewDecoder is the registry factory for the SensorML decoder.
func NewDecoder(d decode.Dispatcher) decode.Decoder {
	return &Decoder{d: d}
}

// Keys implements decode.Decoder.
func (dec *Decoder) Keys() []decode.Key {
	return decode.ElementKeys(Namespace,
		KindPhysicalSystem, KindPhysicalComponent, KindSimpleProcess, "ObservableProperty")
}

// ContentTypes implements decode.Decoder.
func (dec *Decoder) ContentTypes() []string { return []string{ContentType} }

// ConformanceClasses implements decode.Decoder.
func (dec *Decoder) ConformanceClasses() []string { return ConformanceClasses }

// Decode implements decode.Decoder.
func (dec *Decoder) Decode(n *xmltree.Node) (any, error) {
	if n.Name.Local == "ObservableProperty" {
		def, _ := n.AttrLocal("definition")
		if def == "" {
			return nil, decode.MissingParameter("definition")
		}
		return ObservableProperty{Definition: def, Label: decode.OptionalText(n, "http://www.opengis.net/swe/2.0", "label")}, nil
	}
	return dec.process(n)
}
