// Package sos decodes SOS 2.0 request documents. Their filter and time
// children are decoded through the dispatcher.
package sos

import (
	"github.com/52North/SOS-sub005/internal/filter"
	"github.com/52North/SOS-sub005/internal/ir"
)

// Value references used when a request is expressed as a filter.
const (
	RefProcedure         = "om:procedure"
	RefOffering          = "sos:offering"
	RefObservedProperty  = "om:observedProperty"
	RefFeatureOfInterest = "om:featureOfInterest"
)

// GetObservation is a decoded sos:GetObservation request.
type GetObservation struct {
	Service            string            `json:"service"`
	Version            string            `json:"version"`
	Procedures         []string          `json:"procedures,omitempty"`
	Offerings          []string          `json:"offerings,omitempty"`
	ObservedProperties []string          `json:"observed_properties,omitempty"`
	FeaturesOfInterest []string          `json:"features_of_interest,omitempty"`
	TemporalFilters    []filter.Temporal `json:"temporal_filters,omitempty"`
	SpatialFilter      *filter.Spatial   `json:"spatial_filter,omitempty"`
	ResponseFormat     string            `json:"response_format,omitempty"`
}

// Filter expresses the request's constraints as one predicate tree: each
// identifier list becomes a disjunction of equality tests, and the parts
// are conjoined. It returns nil when the request is unconstrained.
func (g *GetObservation) Filter() filter.Filter {
	var parts []filter.Filter
	parts = appendAnyOf(parts, RefProcedure, g.Procedures)
	parts = appendAnyOf(parts, RefOffering, g.Offerings)
	parts = appendAnyOf(parts, RefObservedProperty, g.ObservedProperties)
	parts = appendAnyOf(parts, RefFeatureOfInterest, g.FeaturesOfInterest)
	for _, t := range g.TemporalFilters {
		parts = append(parts, t)
	}
	if g.SpatialFilter != nil {
		parts = append(parts, *g.SpatialFilter)
	}
	return combine(filter.LogicalAnd, parts)
}

func appendAnyOf(parts []filter.Filter, ref string, values []string) []filter.Filter {
	eqs := make([]filter.Filter, 0, len(values))
	for _, v := range values {
		eqs = append(eqs, filter.Comparison{Op: filter.ComparisonEqual, ValueReference: ref, Literal: v, MatchCase: true})
	}
	if f := combine(filter.LogicalOr, eqs); f != nil {
		parts = append(parts, f)
	}
	return parts
}

// combine returns nil, the only element, or a Binary over all elements.
func combine(op filter.LogicalOp, fs []filter.Filter) filter.Filter {
	switch len(fs) {
	case 0:
		return nil
	case 1:
		return fs[0]
	}
	return filter.Binary{Op: op, Children: fs}
}

// DescribeSensor is a decoded swes:DescribeSensor request.
type DescribeSensor struct {
	Service                    string  `json:"service"`
	Version                    string  `json:"version"`
	Procedure                  string  `json:"procedure"`
	ProcedureDescriptionFormat string  `json:"procedure_description_format"`
	ValidTime                  ir.Time `json:"valid_time,omitempty"`
}

// GetFeatureOfInterest is a decoded sos:GetFeatureOfInterest request.
type GetFeatureOfInterest struct {
	Service            string           `json:"service"`
	Version            string           `json:"version"`
	Procedures         []string         `json:"procedures,omitempty"`
	ObservedProperties []string         `json:"observed_properties,omitempty"`
	FeaturesOfInterest []string         `json:"features_of_interest,omitempty"`
	SpatialFilters     []filter.Spatial `json:"spatial_filters,omitempty"`
}
