// Package server is the HTTP binding of the decoding engine.
package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/52North/SOS-sub005/internal/decode"
	"github.com/52North/SOS-sub005/internal/format/om"
	"github.com/52North/SOS-sub005/internal/format/sos"
	"github.com/52North/SOS-sub005/internal/ir"
	"github.com/52North/SOS-sub005/internal/logger"
	"github.com/52North/SOS-sub005/internal/metrics"
	"github.com/52North/SOS-sub005/internal/store"
	"github.com/52North/SOS-sub005/internal/xmltree"
)

// Defaults for the request ceilings.
const (
	DefaultMaxBodyBytes = 10 << 20
	DefaultMaxNodes     = 100_000
)

// Transport-level error codes. Decode failures use their decode.Kind.
const (
	CodeRequestTooLarge  = "request_too_large"
	CodeMalformedXML     = "malformed_xml"
	CodeStoreUnavailable = "store_unavailable"
	CodeInternal         = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code      string `json:"code"`
	Parameter string `json:"parameter,omitempty"`
	Locator   string `json:"locator,omitempty"`
	Message   string `json:"message"`
}

// DecodeResponse is the body of a successful POST /decode.
type DecodeResponse struct {
	Type  string `json:"type"`
	Value any    `json:"value"`
}

// CapabilitiesResponse lists what the registry can decode.
type CapabilitiesResponse struct {
	Keys               []string `json:"keys"`
	ContentTypes       []string `json:"content_types"`
	ConformanceClasses []string `json:"conformance_classes"`
}

// QueryResponse is the body of a successful POST /observations/query.
type QueryResponse struct {
	Observations []store.ObservationRecord `json:"observations"`
}

// IngestResponse is the body of a successful POST /observations.
type IngestResponse struct {
	ID string `json:"id"`
}

// Server serves decoding over HTTP.
type Server struct {
	d            *decode.Facade
	store        *store.Store
	logger       *zap.Logger
	gatherer     prometheus.Gatherer
	maxBodyBytes int64
	maxNodes     int
}

// Option configures a Server.
type Option func(*Server)

// WithStore enables the observation endpoints.
func WithStore(st *store.Store) Option {
	return func(s *Server) { s.store = st }
}

// WithLogger sets the server logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithLimits sets the request body and element ceilings. Non-positive
// values keep the defaults.
func WithLimits(maxBodyBytes int64, maxNodes int) Option {
	return func(s *Server) {
		if maxBodyBytes > 0 {
			s.maxBodyBytes = maxBodyBytes
		}
		if maxNodes > 0 {
			s.maxNodes = maxNodes
		}
	}
}

// WithGatherer sets the registry served on /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) { s.gatherer = g }
}

// New creates a server decoding through d.
func New(d *decode.Facade, opts ...Option) *Server {
	s := &Server{
		d:            d,
		logger:       zap.NewNop(),
		gatherer:     prometheus.DefaultGatherer,
		maxBodyBytes: DefaultMaxBodyBytes,
		maxNodes:     DefaultMaxNodes,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed handler with middleware installed.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(jsonRecoverer(s.logger))
	r.Use(requestID)
	r.Use(wideEventMiddleware(s.logger))
	r.Use(metrics.Middleware())

	r.Post("/decode", s.handleDecode)
	r.Post("/observations", s.handleIngest)
	r.Post("/observations/query", s.handleQuery)
	r.Get("/capabilities", s.handleCapabilities)
	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, ErrorResponse{Code: "not_found", Message: "no such endpoint"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, ErrorResponse{Code: "method_not_allowed", Message: "method not allowed"})
	})
	return r
}

// handleDecode handles POST /decode.
func (s *Server) handleDecode(w http.ResponseWriter, r *http.Request) {
	root, ok := s.readDocument(w, r)
	if !ok {
		return
	}
	v, err := s.d.Decode(root)
	if err != nil {
		s.writeDecodeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, DecodeResponse{Type: fmt.Sprintf("%T", v), Value: v})
}

// handleIngest handles POST /observations.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	root, ok := s.readDocument(w, r)
	if !ok {
		return
	}
	o, err := decode.As[*om.Observation](s.d, root, "observation")
	if err != nil {
		s.writeDecodeError(w, r, err)
		return
	}
	id, err := s.store.InsertObservation(r.Context(), o, r.URL.Query().Get("offering"))
	if err != nil {
		s.writeDecodeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, IngestResponse{ID: id})
}

// handleQuery handles POST /observations/query with a GetObservation body.
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	root, ok := s.readDocument(w, r)
	if !ok {
		return
	}
	req, err := decode.As[*sos.GetObservation](s.d, root, "request")
	if err != nil {
		s.writeDecodeError(w, r, err)
		return
	}
	records, err := s.store.QueryObservations(r.Context(), req.Filter())
	if err != nil {
		s.writeDecodeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, QueryResponse{Observations: records})
}

// handleCapabilities handles GET /capabilities.
func (s *Server) handleCapabilities(w http.ResponseWriter, _ *http.Request) {
	reg := s.d.Registry()
	keys := reg.Keys()
	resp := CapabilitiesResponse{Keys: make([]string, len(keys))}
	for i, k := range keys {
		resp.Keys[i] = k.String()
	}
	resp.ContentTypes, resp.ConformanceClasses = reg.Capabilities()
	writeJSON(w, http.StatusOK, resp)
}

// handleHealth handles GET /healthz.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.store != nil {
		if err := s.store.DB().PingContext(r.Context()); err != nil {
			logger.FromContext(r.Context()).Warn("store ping failed", zap.Error(err))
			writeError(w, http.StatusServiceUnavailable, ErrorResponse{Code: CodeStoreUnavailable, Message: "store unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// readDocument applies the body and element ceilings and parses the body.
// It writes the error response itself and reports false on failure.
func (s *Server) readDocument(w http.ResponseWriter, r *http.Request) (*xmltree.Node, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, ErrorResponse{
				Code:    CodeRequestTooLarge,
				Message: fmt.Sprintf("request body exceeds %d bytes", s.maxBodyBytes),
			})
			return nil, false
		}
		writeError(w, http.StatusBadRequest, ErrorResponse{Code: CodeMalformedXML, Message: "failed to read request body"})
		return nil, false
	}

	root, err := xmltree.Parse(body, xmltree.WithMaxNodes(s.maxNodes))
	if errors.Is(err, xmltree.ErrTooManyNodes) {
		writeError(w, http.StatusRequestEntityTooLarge, ErrorResponse{
			Code:    CodeRequestTooLarge,
			Message: fmt.Sprintf("document exceeds %d elements", s.maxNodes),
		})
		return nil, false
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponse{Code: CodeMalformedXML, Message: err.Error()})
		return nil, false
	}
	return root, true
}

func (s *Server) requireStore(w http.ResponseWriter) bool {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, ErrorResponse{Code: CodeStoreUnavailable, Message: "no observation store configured"})
		return false
	}
	return true
}

// writeDecodeError maps a decode.Error to its status. Errors of other types
// are internal and their text is not exposed.
func (s *Server) writeDecodeError(w http.ResponseWriter, r *http.Request, err error) {
	var de *decode.Error
	if !errors.As(err, &de) {
		logger.FromContext(r.Context()).Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, ErrorResponse{Code: CodeInternal, Message: "internal error"})
		return
	}
	if de.Kind.Fault() == "server" {
		logger.FromContext(r.Context()).Error("decode failed", zap.Error(err))
	}
	writeError(w, statusFor(de.Kind), ErrorResponse{
		Code:      string(de.Kind),
		Parameter: de.Parameter,
		Locator:   de.Name,
		Message:   de.Error(),
	})
}

func statusFor(k decode.Kind) int {
	switch k {
	case decode.KindNoApplicableCode:
		return http.StatusInternalServerError
	case decode.KindUnsupportedOperation:
		return http.StatusNotImplemented
	case decode.KindUnsupportedInput:
		return http.StatusUnsupportedMediaType
	default:
		return http.StatusBadRequest
	}
}

// writeJSON writes v as canonical JSON.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := ir.MarshalCanonical(v)
	if err != nil {
		status = http.StatusInternalServerError
		data = []byte(`{"code":"internal_error","message":"failed to encode response"}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func writeError(w http.ResponseWriter, status int, resp ErrorResponse) {
	writeJSON(w, status, resp)
}
