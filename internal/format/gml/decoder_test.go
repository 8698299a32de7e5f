package gml

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/52North/SOS-sub005/internal/decode"
	"github.com/52North/SOS-sub005/internal/ir"
	"github.com/52North/SOS-sub005/internal/xmltree"
)

func newFacade() *decode.Facade {
	b := decode.NewBuilder()
	b.Register(Factory(Namespace))
	b.Register(decode.PropertyFactory(Namespace))
	return b.Build()
}

func decodeString(t *testing.T, doc string) (any, error) {
	t.Helper()
	n, err := xmltree.ParseString(doc)
	require.NoError(t, err)
	return newFacade().Decode(n)
}

const gmlNS = `xmlns:gml="http://www.opengis.net/gml/3.2"`

func TestDecodeGeometry(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want ir.Geometry
	}{
		{
			name: "point pos",
			doc:  `<gml:Point ` + gmlNS + ` srsName="http://www.opengis.net/def/crs/EPSG/0/4326"><gml:pos>52.0 7.5</gml:pos></gml:Point>`,
			want: ir.NewPoint(4326, ir.Coord{52, 7.5}),
		},
		{
			name: "point srs on pos",
			doc:  `<gml:Point ` + gmlNS + `><gml:pos srsName="EPSG:31467">1 2</gml:pos></gml:Point>`,
			want: ir.NewPoint(31467, ir.Coord{1, 2}),
		},
		{
			name: "point coordinates",
			doc:  `<gml:Point ` + gmlNS + ` srsName="urn:ogc:def:crs:EPSG::4326"><gml:coordinates>1,2</gml:coordinates></gml:Point>`,
			want: ir.NewPoint(4326, ir.Coord{1, 2}),
		},
		{
			name: "line string",
			doc:  `<gml:LineString ` + gmlNS + ` srsName="EPSG:4326"><gml:posList>1 2 3 4 5 6</gml:posList></gml:LineString>`,
			want: ir.NewLineString(4326, []ir.Coord{{1, 2}, {3, 4}, {5, 6}}),
		},
		{
			name: "line string 3d",
			doc:  `<gml:LineString ` + gmlNS + ` srsName="EPSG:4979" srsDimension="3"><gml:posList>1 2 3 4 5 6</gml:posList></gml:LineString>`,
			want: ir.NewLineString(4979, []ir.Coord{{1, 2, 3}, {4, 5, 6}}),
		},
		{
			name: "polygon with hole",
			doc: `<gml:Polygon ` + gmlNS + ` srsName="EPSG:4326">
			  <gml:exterior><gml:LinearRing><gml:posList>0 0 10 0 10 10 0 10 0 0</gml:posList></gml:LinearRing></gml:exterior>
			  <gml:interior><gml:LinearRing><gml:posList>2 2 4 2 4 4 2 2</gml:posList></gml:LinearRing></gml:interior>
			</gml:Polygon>`,
			want: ir.NewPolygon(4326, [][]ir.Coord{
				{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0}},
				{{2, 2}, {4, 2}, {4, 4}, {2, 2}},
			}),
		},
		{
			name: "envelope",
			doc:  `<gml:Envelope ` + gmlNS + ` srsName="EPSG:4326"><gml:lowerCorner>50 7</gml:lowerCorner><gml:upperCorner>53 10</gml:upperCorner></gml:Envelope>`,
			want: ir.NewEnvelope(4326, ir.Coord{50, 7}, ir.Coord{53, 10}),
		},
		{
			name: "multi point srs from first member",
			doc: `<gml:MultiPoint ` + gmlNS + `>
			  <gml:pointMember><gml:Point srsName="EPSG:25832"><gml:pos>1 2</gml:pos></gml:Point></gml:pointMember>
			  <gml:pointMember><gml:Point srsName="EPSG:4326"><gml:pos>3 4</gml:pos></gml:Point></gml:pointMember>
			</gml:MultiPoint>`,
			want: ir.NewMultiPoint(25832, []ir.Coord{{1, 2}, {3, 4}}),
		},
		{
			name: "multi curve",
			doc: `<gml:MultiCurve ` + gmlNS + ` srsName="EPSG:4326">
			  <gml:curveMember><gml:LineString><gml:posList>1 2 3 4</gml:posList></gml:LineString></gml:curveMember>
			</gml:MultiCurve>`,
			want: ir.NewMultiLineString(4326, [][]ir.Coord{{{1, 2}, {3, 4}}}),
		},
		{
			name: "composite surface",
			doc: `<gml:CompositeSurface ` + gmlNS + ` srsName="EPSG:4326">
			  <gml:surfaceMember><gml:Polygon><gml:exterior><gml:LinearRing><gml:posList>0 0 1 0 1 1 0 0</gml:posList></gml:LinearRing></gml:exterior></gml:Polygon></gml:surfaceMember>
			  <gml:surfaceMember><gml:Polygon><gml:exterior><gml:LinearRing><gml:posList>5 5 6 5 6 6 5 5</gml:posList></gml:LinearRing></gml:exterior></gml:Polygon></gml:surfaceMember>
			</gml:CompositeSurface>`,
			want: ir.NewMultiPolygon(4326, [][][]ir.Coord{
				{{{0, 0}, {1, 0}, {1, 1}, {0, 0}}},
				{{{5, 5}, {6, 5}, {6, 6}, {5, 5}}},
			}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeString(t, tt.doc)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeGeometry_SRIDNeverDefaulted(t *testing.T) {
	docs := []string{
		`<gml:Point ` + gmlNS + `><gml:pos>1 2</gml:pos></gml:Point>`,
		`<gml:Point ` + gmlNS + ` srsName="EPSG:0"><gml:pos>1 2</gml:pos></gml:Point>`,
		`<gml:Point ` + gmlNS + ` srsName="EPSG:-1"><gml:pos>1 2</gml:pos></gml:Point>`,
		`<gml:Point ` + gmlNS + ` srsName="urn:ogc:def:crs:OGC:1.3:CRS84"><gml:pos>1 2</gml:pos></gml:Point>`,
		`<gml:MultiPoint ` + gmlNS + `><gml:pointMember><gml:Point><gml:pos>1 2</gml:pos></gml:Point></gml:pointMember><gml:pointMember><gml:Point><gml:pos>3 4</gml:pos></gml:Point></gml:pointMember></gml:MultiPoint>`,
		// Only the second member names a CRS.
		`<gml:MultiPoint ` + gmlNS + `><gml:pointMember><gml:Point><gml:pos>1 2</gml:pos></gml:Point></gml:pointMember><gml:pointMember><gml:Point srsName="EPSG:4326"><gml:pos>3 4</gml:pos></gml:Point></gml:pointMember></gml:MultiPoint>`,
		`<gml:MultiPoint ` + gmlNS + `><gml:pointMembers><gml:Point><gml:pos>1 2</gml:pos></gml:Point><gml:Point srsName="EPSG:4326"><gml:pos>3 4</gml:pos></gml:Point></gml:pointMembers></gml:MultiPoint>`,
	}
	for _, doc := range docs {
		_, err := decodeString(t, doc)
		require.Error(t, err, doc)
		assert.True(t, decode.IsNoApplicableCode(err), "doc %s: %v", doc, err)

		var de *decode.Error
		require.True(t, errors.As(errors.Unwrap(err), &de), "cause is a decode error")
		assert.Equal(t, "srsName", de.Parameter)
	}
}

func TestDecodeGeometry_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		doc   string
		check func(error) bool
	}{
		{"odd ordinate count", `<gml:LineString ` + gmlNS + ` srsName="EPSG:4326"><gml:posList>1 2 3</gml:posList></gml:LineString>`, decode.IsInvalidParameterValue},
		{"non numeric", `<gml:Point ` + gmlNS + ` srsName="EPSG:4326"><gml:pos>1 x</gml:pos></gml:Point>`, decode.IsInvalidParameterValue},
		{"no positions", `<gml:Point ` + gmlNS + ` srsName="EPSG:4326"/>`, decode.IsMissingParameter},
		{"open ring", `<gml:Polygon ` + gmlNS + ` srsName="EPSG:4326"><gml:exterior><gml:LinearRing><gml:posList>0 0 1 0 1 1 0 1</gml:posList></gml:LinearRing></gml:exterior></gml:Polygon>`, decode.IsInvalidParameterValue},
		{"missing exterior", `<gml:Polygon ` + gmlNS + ` srsName="EPSG:4326"/>`, decode.IsMissingParameter},
		{"bad dimension", `<gml:Point ` + gmlNS + ` srsName="EPSG:4326" srsDimension="5"><gml:pos>1 2</gml:pos></gml:Point>`, decode.IsInvalidParameterValue},
		{"unknown element", `<gml:Curve ` + gmlNS + ` srsName="EPSG:4326"/>`, decode.IsUnsupportedInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeString(t, tt.doc)
			require.Error(t, err)
			assert.True(t, tt.check(err), "unexpected error: %v", err)
		})
	}
}

func TestFormatCoordinateList(t *testing.T) {
	tests := []struct {
		doc  string
		want string
	}{
		{`<gml:coordinates ` + gmlNS + `>1,2 3,4</gml:coordinates>`, "(1,2, 3,4)"},
		{`<gml:coordinates ` + gmlNS + ` cs=";" ts="|" decimal=",">1,5;2|3;4,25</gml:coordinates>`, "(1.5,2, 3,4.25)"},
		{`<gml:coordinates ` + gmlNS + `>  1,2
		    3,4  </gml:coordinates>`, "(1,2, 3,4)"},
	}
	for _, tt := range tests {
		n, err := xmltree.ParseString(tt.doc)
		require.NoError(t, err)
		got, err := FormatCoordinateList(n)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	// Through the dispatcher, as a nested property element.
	root, err := xmltree.ParseString(`<gml:Point ` + gmlNS + `><gml:coordinates>1,2 3,4</gml:coordinates></gml:Point>`)
	require.NoError(t, err)
	out, err := newFacade().Decode(root.FirstElement())
	require.NoError(t, err)
	assert.Equal(t, ir.Text("(1,2, 3,4)"), out)

	// As the document element.
	root, err = xmltree.ParseString(`<gml:coordinates ` + gmlNS + `>1,2 3,4</gml:coordinates>`)
	require.NoError(t, err)
	out, err = newFacade().Decode(root)
	require.NoError(t, err)
	assert.Equal(t, ir.Text("(1,2, 3,4)"), out)
}

func TestParseSRSName(t *testing.T) {
	tests := map[string]int{
		"EPSG:4326":                     4326,
		"urn:ogc:def:crs:EPSG::4326":    4326,
		"urn:ogc:def:crs:EPSG:6.6:4326": 4326,
		"http://www.opengis.net/def/crs/EPSG/0/31467":  31467,
		"http://www.opengis.net/gml/srs/epsg.xml#4326": 4326,
		"4326":        4326,
		"EPSG:":       UnresolvedSRID,
		"urn:x:CRS84": UnresolvedSRID,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseSRSName(in), in)
	}
}

func TestDecodeTime(t *testing.T) {
	at := func(s string) time.Time {
		tm, err := ir.ParseISOInstant(s)
		require.NoError(t, err)
		return tm
	}
	tests := []struct {
		name string
		doc  string
		want any
	}{
		{
			name: "instant",
			doc:  `<gml:TimeInstant ` + gmlNS + ` gml:id="t1"><gml:timePosition>2012-11-19T13:00:00Z</gml:timePosition></gml:TimeInstant>`,
			want: ir.Instant{ID: "t1", Position: at("2012-11-19T13:00:00Z")},
		},
		{
			name: "keyword text",
			doc:  `<gml:TimeInstant ` + gmlNS + `><gml:timePosition>now</gml:timePosition></gml:TimeInstant>`,
			want: ir.Instant{Indeterminate: ir.IndeterminateNow},
		},
		{
			name: "indeterminate attribute",
			doc:  `<gml:TimeInstant ` + gmlNS + `><gml:timePosition indeterminatePosition="unknown"/></gml:TimeInstant>`,
			want: ir.Instant{Indeterminate: ir.IndeterminateUnknown},
		},
		{
			name: "text beats attribute",
			doc:  `<gml:TimeInstant ` + gmlNS + `><gml:timePosition indeterminatePosition="after">2012-01-01T00:00:00Z</gml:timePosition></gml:TimeInstant>`,
			want: ir.Instant{Position: at("2012-01-01T00:00:00Z")},
		},
		{
			name: "period positions",
			doc: `<gml:TimePeriod ` + gmlNS + ` gml:id="p1">
			  <gml:beginPosition>2012-11-19T13:00:00Z</gml:beginPosition>
			  <gml:endPosition indeterminatePosition="now"/>
			</gml:TimePeriod>`,
			want: ir.Period{ID: "p1", Begin: ir.Instant{Position: at("2012-11-19T13:00:00Z")}, End: ir.Instant{Indeterminate: ir.IndeterminateNow}},
		},
		{
			name: "period instants",
			doc: `<gml:TimePeriod ` + gmlNS + `>
			  <gml:begin><gml:TimeInstant gml:id="b"><gml:timePosition>2012-01-01</gml:timePosition></gml:TimeInstant></gml:begin>
			  <gml:end><gml:TimeInstant gml:id="e"><gml:timePosition>2012-02-01</gml:timePosition></gml:TimeInstant></gml:end>
			</gml:TimePeriod>`,
			want: ir.Period{Begin: ir.Instant{ID: "b", Position: at("2012-01-01")}, End: ir.Instant{ID: "e", Position: at("2012-02-01")}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeString(t, tt.doc)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeTime_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		doc   string
		check func(error) bool
	}{
		{"garbage", `<gml:TimeInstant ` + gmlNS + `><gml:timePosition>soon</gml:timePosition></gml:TimeInstant>`, decode.IsInvalidParameterValue},
		{"bad attribute", `<gml:TimeInstant ` + gmlNS + `><gml:timePosition indeterminatePosition="later"/></gml:TimeInstant>`, decode.IsInvalidParameterValue},
		{"empty", `<gml:TimeInstant ` + gmlNS + `><gml:timePosition/></gml:TimeInstant>`, decode.IsMissingParameter},
		{"no position", `<gml:TimeInstant ` + gmlNS + `/>`, decode.IsMissingParameter},
		{"reversed", `<gml:TimePeriod ` + gmlNS + `><gml:beginPosition>2013-01-01</gml:beginPosition><gml:endPosition>2012-01-01</gml:endPosition></gml:TimePeriod>`, decode.IsInvalidParameterValue},
		{"missing end", `<gml:TimePeriod ` + gmlNS + `><gml:beginPosition>2013-01-01</gml:beginPosition></gml:TimePeriod>`, decode.IsMissingParameter},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeString(t, tt.doc)
			require.Error(t, err)
			assert.True(t, tt.check(err), "unexpected error: %v", err)
		})
	}
}

func TestPropertyWrapper(t *testing.T) {
	root, err := xmltree.ParseString(`<gml:pointMember ` + gmlNS + `><gml:Point srsName="EPSG:4326"><gml:pos>1 2</gml:pos></gml:Point></gml:pointMember>`)
	require.NoError(t, err)
	// The document element is Document-shaped; decode its nested property.
	f := newFacade()
	_, err = f.Decode(root)
	assert.True(t, decode.IsUnsupportedInput(err), "document-shaped wrapper has no decoder")

	wrapped, err := xmltree.ParseString(`<x ` + gmlNS + `><gml:pointMember><gml:Point srsName="EPSG:4326"><gml:pos>1 2</gml:pos></gml:Point></gml:pointMember></x>`)
	require.NoError(t, err)
	out, err := f.Decode(wrapped.FirstElement())
	require.NoError(t, err)
	assert.Equal(t, ir.NewPoint(4326, ir.Coord{1, 2}), out)
}
