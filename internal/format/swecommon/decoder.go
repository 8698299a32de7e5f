// Package swecommon decodes SWE Common 2.0 data components into the swe
// model. Nested components (record fields, vector coordinates, array
// element types and encodings) are decoded through the dispatcher.
package swecommon

import (
	"github.com/52North/SOS-sub005/internal/decode"
	"github.com/52North/SOS-sub005/internal/swe"
	"github.com/52North/SOS-sub005/internal/xmltree"
)

// Namespace is the SWE Common 2.0 namespace.
const Namespace = "http://www.opengis.net/swe/2.0"

// ContentType of SWE Common documents.
const ContentType = "application/xml"

// ConformanceClasses advertised by the decoder.
var ConformanceClasses = []string{
	"http://www.opengis.net/spec/SWE/2.0/conf/core",
	"http://www.opengis.net/spec/SWE/2.0/conf/uml-simple-components",
	"http://www.opengis.net/spec/SWE/2.0/conf/uml-record-components",
	"http://www.opengis.net/spec/SWE/2.0/conf/uml-block-components",
	"http://www.opengis.net/spec/SWE/2.0/conf/uml-simple-encodings",
}

func init() {
	decode.Register(NewDecoder)
	decode.Register(decode.PropertyFactory(Namespace, ContentType))
}

type componentReader func(dec *Decoder, n *xmltree.Node) (swe.Component, error)

var componentReaders = map[string]componentReader{
	"Boolean":       (*Decoder).readBoolean,
	"Category":      (*Decoder).readCategory,
	"Count":         (*Decoder).readCount,
	"CountRange":    (*Decoder).readCountRange,
	"Quantity":      (*Decoder).readQuantity,
	"QuantityRange": (*Decoder).readQuantityRange,
	"Text":          (*Decoder).readText,
	"Time":          (*Decoder).readTime,
	"TimeRange":     (*Decoder).readTimeRange,
	"Vector":        (*Decoder).readVector,
	"DataRecord":    (*Decoder).readRecord,
	"DataArray":     (*Decoder).readArray,
}

var encodingNames = []string{"TextEncoding", "BinaryEncoding", "XMLEncoding"}

// Decoder decodes SWE Common components and encodings.
type Decoder struct {
	d decode.Dispatcher
}

// NewDecoder is the registry factory for the SWE Common decoder.
func NewDecoder(d decode.Dispatcher) decode.Decoder {
	return &Decoder{d: d}
}

// Keys implements decode.Decoder.
func (dec *Decoder) Keys() []decode.Key {
	names := make([]string, 0, len(componentReaders)+len(encodingNames))
	for name := range componentReaders {
		names = append(names, name)
	}
	names = append(names, encodingNames...)
	return decode.ElementKeys(Namespace, names...)
}

// ContentTypes implements decode.Decoder.
func (dec *Decoder) ContentTypes() []string { return []string{ContentType} }

// ConformanceClasses implements decode.Decoder.
func (dec *Decoder) ConformanceClasses() []string { return ConformanceClasses }

// Decode implements decode.Decoder. Components decode to swe.Component,
// encodings to *swe.Encoding.
func (dec *Decoder) Decode(n *xmltree.Node) (any, error) {
	if read, ok := componentReaders[n.Name.Local]; ok {
		c, err := read(dec, n)
		if err != nil {
			return nil, err
		}
		if err := readMetadata(n, c.Common()); err != nil {
			return nil, err
		}
		return c, nil
	}
	return readEncoding(n)
}
