package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/52North/SOS-sub005/internal/decode"
	_ "github.com/52North/SOS-sub005/internal/format/all"
	"github.com/52North/SOS-sub005/internal/format/om"
	"github.com/52North/SOS-sub005/internal/metrics"
	"github.com/52North/SOS-sub005/internal/store"
	"github.com/52North/SOS-sub005/internal/testutil"
)

const observationDoc = `<om:OM_Observation xmlns:om="http://www.opengis.net/om/2.0" xmlns:gml="http://www.opengis.net/gml/3.2" xmlns:xlink="http://www.w3.org/1999/xlink" gml:id="o1">
  <om:type xlink:href="http://www.opengis.net/def/observationType/OGC-OM/2.0/OM_Measurement"/>
  <om:phenomenonTime><gml:TimeInstant gml:id="t1"><gml:timePosition>2012-11-19T13:05:00Z</gml:timePosition></gml:TimeInstant></om:phenomenonTime>
  <om:procedure xlink:href="http://www.52north.org/test/procedure/1"/>
  <om:observedProperty xlink:href="http://www.52north.org/test/observableProperty/1"/>
  <om:featureOfInterest xlink:href="http://www.52north.org/test/featureOfInterest/1"/>
  <om:result uom="Cel">12.5</om:result>
</om:OM_Observation>`

const getObservationDoc = `<sos:GetObservation xmlns:sos="http://www.opengis.net/sos/2.0" service="SOS" version="2.0.0">
  <sos:procedure>%s</sos:procedure>
</sos:GetObservation>`

func newTestServer(t *testing.T, opts ...Option) http.Handler {
	t.Helper()
	return New(decode.Default(), opts...).Handler()
}

func newStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open("sqlite3", ":memory:", store.WithIDGenerator(testutil.NewIDGenerator("obs").Next))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func TestDecode(t *testing.T) {
	h := newTestServer(t)

	rr := do(t, h, http.MethodPost, "/decode", observationDoc)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	resp := decodeBody[struct {
		Type  string         `json:"type"`
		Value map[string]any `json:"value"`
	}](t, rr)
	assert.Equal(t, "*om.Observation", resp.Type)
	assert.Equal(t, "http://www.52north.org/test/procedure/1", resp.Value["procedure"])
}

func TestDecode_Errors(t *testing.T) {
	h := newTestServer(t)

	tests := []struct {
		name   string
		body   string
		status int
		code   string
		param  string
	}{
		{"malformed", "<om:OM_Observation", http.StatusBadRequest, CodeMalformedXML, ""},
		{"unknown root", `<x:Thing xmlns:x="urn:x"/>`, http.StatusUnsupportedMediaType, string(decode.KindUnsupportedInput), ""},
		{"invalid value", `<xs:boolean xmlns:xs="http://www.w3.org/2001/XMLSchema">maybe</xs:boolean>`, http.StatusBadRequest, string(decode.KindInvalidParameterValue), "boolean"},
		{"missing service", `<sos:GetObservation xmlns:sos="http://www.opengis.net/sos/2.0" version="2.0.0"/>`, http.StatusBadRequest, string(decode.KindMissingParameter), "service"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, h, http.MethodPost, "/decode", tt.body)
			assert.Equal(t, tt.status, rr.Code, rr.Body.String())
			resp := decodeBody[ErrorResponse](t, rr)
			assert.Equal(t, tt.code, resp.Code)
			assert.Equal(t, tt.param, resp.Parameter)
			assert.NotEmpty(t, resp.Message)
		})
	}
}

func TestDecode_Ceilings(t *testing.T) {
	h := newTestServer(t, WithLimits(64, 3))

	rr := do(t, h, http.MethodPost, "/decode", "<r>"+strings.Repeat(" ", 100)+"</r>")
	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
	assert.Equal(t, CodeRequestTooLarge, decodeBody[ErrorResponse](t, rr).Code)

	rr = do(t, h, http.MethodPost, "/decode", "<r><a/><b/><c/></r>")
	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
	assert.Contains(t, decodeBody[ErrorResponse](t, rr).Message, "3 elements")
}

func TestIngestAndQuery(t *testing.T) {
	h := newTestServer(t, WithStore(newStore(t)))

	rr := do(t, h, http.MethodPost, "/observations?offering=urn:offering:1", observationDoc)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.Equal(t, "obs-1", decodeBody[IngestResponse](t, rr).ID)

	rr = do(t, h, http.MethodPost, "/observations/query",
		strings.Replace(getObservationDoc, "%s", "http://www.52north.org/test/procedure/1", 1))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	resp := decodeBody[QueryResponse](t, rr)
	require.Len(t, resp.Observations, 1)
	assert.Equal(t, "obs-1", resp.Observations[0].ID)
	assert.Equal(t, "urn:offering:1", resp.Observations[0].Offering)

	rr = do(t, h, http.MethodPost, "/observations/query",
		strings.Replace(getObservationDoc, "%s", "http://www.52north.org/test/procedure/2", 1))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, decodeBody[QueryResponse](t, rr).Observations)

	rr = do(t, h, http.MethodPost, "/observations/query", observationDoc)
	assert.Equal(t, http.StatusBadRequest, rr.Code, "an observation is not a request")
	assert.Equal(t, "request", decodeBody[ErrorResponse](t, rr).Parameter)
}

func TestObservationEndpointsRequireStore(t *testing.T) {
	h := newTestServer(t)
	for _, path := range []string{"/observations", "/observations/query"} {
		rr := do(t, h, http.MethodPost, path, observationDoc)
		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
		assert.Equal(t, CodeStoreUnavailable, decodeBody[ErrorResponse](t, rr).Code)
	}
}

func TestCapabilities(t *testing.T) {
	rr := do(t, newTestServer(t), http.MethodGet, "/capabilities", "")
	require.Equal(t, http.StatusOK, rr.Code)

	resp := decodeBody[CapabilitiesResponse](t, rr)
	assert.Contains(t, resp.ContentTypes, om.ContentType)
	assert.NotEmpty(t, resp.ConformanceClasses)
	assert.NotEmpty(t, resp.Keys)
}

func TestHealthAndRequestID(t *testing.T) {
	h := newTestServer(t, WithStore(newStore(t)))

	req := httptest.NewRequest(http.MethodGet, "/healthz", http.NoBody)
	req.Header.Set(RequestIDHeader, "req-42")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
	assert.Equal(t, "req-42", rr.Header().Get(RequestIDHeader))

	rr = do(t, h, http.MethodGet, "/healthz", "")
	assert.Len(t, rr.Header().Get(RequestIDHeader), 36, "generated ids are UUIDs")
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := metrics.NewDecodeMetrics(reg)
	require.NoError(t, err)
	d := decode.DefaultBuilder().Build(decode.WithObserver(m))

	h := New(d, WithGatherer(reg)).Handler()
	rr := do(t, h, http.MethodPost, "/decode", observationDoc)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `sosdecode_decode_total{element="OM_Observation"`)
}

func TestNotFoundAndMethodNotAllowed(t *testing.T) {
	h := newTestServer(t)

	rr := do(t, h, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = do(t, h, http.MethodGet, "/decode", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}
