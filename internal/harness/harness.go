package harness

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/52North/SOS-sub005/internal/decode"
	_ "github.com/52North/SOS-sub005/internal/format/all"
	"github.com/52North/SOS-sub005/internal/format/om"
	"github.com/52North/SOS-sub005/internal/store"
	"github.com/52North/SOS-sub005/internal/testutil"
	"github.com/52North/SOS-sub005/internal/xmltree"
)

// DefaultMaxNodes bounds the element count of scenario documents.
const DefaultMaxNodes = 100_000

// Harness runs scenarios against a dispatcher.
type Harness struct {
	d        decode.Dispatcher
	logger   *zap.Logger
	maxNodes int
}

// Option configures a Harness.
type Option func(*Harness)

// WithLogger sets the logger used for per-document progress.
func WithLogger(l *zap.Logger) Option {
	return func(h *Harness) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithMaxNodes overrides DefaultMaxNodes.
func WithMaxNodes(n int) Option {
	return func(h *Harness) { h.maxNodes = n }
}

// New creates a harness decoding through d.
func New(d decode.Dispatcher, opts ...Option) *Harness {
	h := &Harness{d: d, logger: zap.NewNop(), maxNodes: DefaultMaxNodes}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run executes a scenario with the default dispatcher.
func Run(scenario *Scenario) (*Result, error) {
	return New(decode.Default()).Run(context.Background(), scenario)
}

// Run executes a test scenario and returns the result.
//
// Execution flow:
//  1. Open a fresh in-memory store if the scenario asks for one
//  2. Decode every document and check its expectation
//  3. Store decoded observations
//  4. Evaluate assertions
//
// An error is returned only when the scenario cannot be executed (for
// example an unreadable document file); failed expectations are recorded
// in the result.
func (h *Harness) Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	var st *store.Store
	if scenario.Store {
		ids := testutil.NewIDGenerator("obs")
		clock := testutil.NewDeterministicClock()
		var err error
		st, err = store.Open("sqlite3", ":memory:", store.WithIDGenerator(ids.Next), store.WithClock(clock.Now))
		if err != nil {
			return nil, fmt.Errorf("failed to create in-memory store: %w", err)
		}
		defer st.Close()
	}

	result := NewResult()
	values := make([]any, len(scenario.Documents))
	for i, doc := range scenario.Documents {
		data, err := documentBytes(doc)
		if err != nil {
			return nil, fmt.Errorf("documents[%d]: %w", i, err)
		}

		v, outcome := h.decode(doc.Name(), data)
		values[i] = v
		result.AddOutcome(outcome)
		if msg := checkExpectation(doc.Expect, outcome); msg != "" {
			result.AddError(fmt.Sprintf("documents[%d] (%s): %s", i, doc.Name(), msg))
		}
		h.logger.Debug("document decoded",
			zap.String("scenario", scenario.Name),
			zap.String("document", doc.Name()),
			zap.String("type", outcome.Type),
			zap.String("error", outcome.Error),
		)

		if st == nil {
			continue
		}
		if o, ok := v.(*om.Observation); ok {
			id, err := st.InsertObservation(ctx, o, scenario.Offering)
			if err != nil {
				result.AddError(fmt.Sprintf("documents[%d] (%s): store: %v", i, doc.Name(), err))
				continue
			}
			result.Stored = append(result.Stored, id)
		}
	}

	actx := &AssertionContext{Ctx: ctx, Store: st, Values: values, Outcomes: result.Outcomes}
	for _, msg := range EvaluateAssertions(scenario.Assertions, actx) {
		result.AddError(msg)
	}
	return result, nil
}

func documentBytes(doc DocumentStep) ([]byte, error) {
	if doc.Path == "" {
		return []byte(doc.XML), nil
	}
	data, err := os.ReadFile(doc.Path)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	return data, nil
}

// decode parses and decodes one document. Parse failures are reported as
// NoApplicableCode outcomes.
func (h *Harness) decode(name string, data []byte) (any, Outcome) {
	out := Outcome{Document: name}
	root, err := xmltree.Parse(data, xmltree.WithMaxNodes(h.maxNodes))
	if err != nil {
		err = decode.NoApplicableCode("document is not well-formed", err)
	} else {
		var v any
		if v, err = h.d.Decode(root); err == nil {
			out.Type = fmt.Sprintf("%T", v)
			out.Value = v
			return v, out
		}
	}

	out.Error = string(decode.KindNoApplicableCode)
	var de *decode.Error
	if errors.As(err, &de) {
		out.Error = string(de.Kind)
		out.Parameter = de.Parameter
	}
	out.Message = err.Error()
	return nil, out
}

// checkExpectation returns a failure message, or "" when the outcome
// matches.
func checkExpectation(want Expectation, got Outcome) string {
	switch {
	case want.Type != "" && got.Failed():
		return fmt.Sprintf("expected %s, got error %s", want.Type, got.Message)
	case want.Type != "" && got.Type != want.Type:
		return fmt.Sprintf("expected %s, got %s", want.Type, got.Type)
	case want.Error != "" && !got.Failed():
		return fmt.Sprintf("expected error %s, got %s", want.Error, got.Type)
	case want.Error != "" && got.Error != want.Error:
		return fmt.Sprintf("expected error %s, got %s", want.Error, got.Message)
	case want.Parameter != "" && got.Parameter != want.Parameter:
		return fmt.Sprintf("expected parameter %q, got %q", want.Parameter, got.Parameter)
	}
	return ""
}
