// Package om decodes O&M 2.0 OM_Observation elements. Times, geometries
// and complex results are decoded through the dispatcher.
package om

import (
	"strings"

	"github.com/52North/SOS-sub005/internal/ir"
)

// Observation types, matched on the last path segment of om:type.
const (
	TypeMeasurement = "OM_Measurement"
	TypeCount       = "OM_CountObservation"
	TypeTruth       = "OM_TruthObservation"
	TypeCategory    = "OM_CategoryObservation"
	TypeText        = "OM_TextObservation"
	TypeGeometry    = "OM_GeometryObservation"
	TypeComplex     = "OM_ComplexObservation"
	TypeSWEArray    = "OM_SWEArrayObservation"
)

// TypePrefix is the common prefix of observation type URIs.
const TypePrefix = "http://www.opengis.net/def/observationType/OGC-OM/2.0/"

// Observation is a decoded OM_Observation.
type Observation struct {
	ID                string       `json:"id,omitempty"`
	Type              string       `json:"type"`
	PhenomenonTime    ir.Time      `json:"phenomenon_time"`
	ResultTime        *ir.Instant  `json:"result_time,omitempty"`
	ValidTime         *ir.Period   `json:"valid_time,omitempty"`
	Procedure         string       `json:"procedure"`
	ObservedProperty  string       `json:"observed_property"`
	FeatureOfInterest Feature      `json:"feature_of_interest"`
	Result            any          `json:"result"`
	Parameters        []NamedValue `json:"parameters,omitempty"`
}

// Feature identifies the feature of interest. Shape is set when the
// feature is given inline with a geometry.
type Feature struct {
	Identifier string       `json:"identifier"`
	Name       string       `json:"name,omitempty"`
	Shape      *ir.Geometry `json:"shape,omitempty"`
}

// NamedValue is an om:parameter.
type NamedValue struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// ShortType returns the observation type without the URI prefix.
func (o Observation) ShortType() string {
	return shortType(o.Type)
}

func shortType(uri string) string {
	if i := strings.LastIndexAny(uri, "/#:"); i >= 0 {
		return uri[i+1:]
	}
	return uri
}
