package harness

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/52North/SOS-sub005/internal/filter"
	"github.com/52North/SOS-sub005/internal/format/sos"
	"github.com/52North/SOS-sub005/internal/ir"
	"github.com/52North/SOS-sub005/internal/store"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string    // Assertion type for categorization
	Expected string    // Human-readable expected outcome
	Actual   string    // Human-readable actual outcome
	Outcomes []Outcome // Per-document outcomes for context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Outcomes) > 0 {
		fmt.Fprintf(&buf, "\nDocuments:\n")
		for i, o := range e.Outcomes {
			if o.Failed() {
				fmt.Fprintf(&buf, "  [%d] %s: %s\n", i, o.Document, o.Message)
			} else {
				fmt.Fprintf(&buf, "  [%d] %s: %s\n", i, o.Document, o.Type)
			}
		}
	}

	return buf.String()
}

// AssertionContext provides the decoded values and, for query_count, the
// scenario store.
type AssertionContext struct {
	Ctx      context.Context
	Store    *store.Store
	Values   []any
	Outcomes []Outcome
}

// EvaluateAssertions evaluates all assertions.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(assertions []Assertion, actx *AssertionContext) []string {
	var errs []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertFieldEquals:
			err = assertFieldEquals(actx, assertion)
		case AssertDecodedCount:
			err = assertDecodedCount(actx, assertion)
		case AssertQueryCount:
			if actx.Store == nil {
				err = fmt.Errorf("assertion[%d]: query_count requires a store", i)
			} else {
				err = assertQueryCount(actx, assertion)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errs = append(errs, err.Error())
		}
	}

	return errs
}

// assertFieldEquals compares one field of a decoded value, addressed by a
// dotted path through its JSON form.
func assertFieldEquals(actx *AssertionContext, a Assertion) error {
	v, err := decodedValue(actx, a.Document)
	if err != nil {
		return err
	}
	generic, err := toGeneric(v)
	if err != nil {
		return fmt.Errorf("documents[%d]: %w", a.Document, err)
	}
	actual, ok := lookupPath(generic, a.Path)
	if !ok {
		return &AssertionError{
			Type:     AssertFieldEquals,
			Expected: fmt.Sprintf("field %s = %v", a.Path, a.Value),
			Actual:   fmt.Sprintf("field %s not present", a.Path),
			Outcomes: actx.Outcomes,
		}
	}
	expected, err := toGeneric(a.Value)
	if err != nil {
		return fmt.Errorf("assertion value: %w", err)
	}
	if !reflect.DeepEqual(expected, actual) {
		return &AssertionError{
			Type:     AssertFieldEquals,
			Expected: fmt.Sprintf("field %s = %v", a.Path, expected),
			Actual:   fmt.Sprintf("field %s = %v", a.Path, actual),
			Outcomes: actx.Outcomes,
		}
	}
	return nil
}

func assertDecodedCount(actx *AssertionContext, a Assertion) error {
	count := 0
	for _, o := range actx.Outcomes {
		if !o.Failed() {
			count++
		}
	}
	if count != a.Count {
		return &AssertionError{
			Type:     AssertDecodedCount,
			Expected: fmt.Sprintf("%d decoded documents", a.Count),
			Actual:   fmt.Sprintf("%d decoded documents", count),
			Outcomes: actx.Outcomes,
		}
	}
	return nil
}

// assertQueryCount runs the filter carried by a decoded document against
// the scenario store. GetObservation requests contribute their combined
// filter; a bare filter document is used as is.
func assertQueryCount(actx *AssertionContext, a Assertion) error {
	v, err := decodedValue(actx, a.Document)
	if err != nil {
		return err
	}

	var f filter.Filter
	switch val := v.(type) {
	case *sos.GetObservation:
		f = val.Filter()
	case filter.Filter:
		f = val
	default:
		return fmt.Errorf("documents[%d]: %T carries no filter", a.Document, v)
	}

	records, err := actx.Store.QueryObservations(actx.Ctx, f)
	if err != nil {
		return fmt.Errorf("documents[%d]: query: %w", a.Document, err)
	}
	if len(records) != a.Count {
		ids := make([]string, len(records))
		for i, r := range records {
			ids[i] = r.ID
		}
		return &AssertionError{
			Type:     AssertQueryCount,
			Expected: fmt.Sprintf("%d matching observations", a.Count),
			Actual:   fmt.Sprintf("%d matching observations %v", len(records), ids),
			Outcomes: actx.Outcomes,
		}
	}
	return nil
}

func decodedValue(actx *AssertionContext, i int) (any, error) {
	if i < 0 || i >= len(actx.Values) {
		return nil, fmt.Errorf("document index %d out of range", i)
	}
	if actx.Outcomes[i].Failed() {
		return nil, fmt.Errorf("documents[%d] did not decode: %s", i, actx.Outcomes[i].Message)
	}
	return actx.Values[i], nil
}

// toGeneric converts v to the map/slice/json.Number form produced by
// decoding its canonical JSON, so that YAML scalars and decoded values
// compare equal when they denote the same JSON.
func toGeneric(v any) (any, error) {
	raw, err := ir.MarshalCanonical(v)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// lookupPath walks a dotted path; numeric segments index arrays.
func lookupPath(v any, path string) (any, bool) {
	for _, seg := range strings.Split(path, ".") {
		switch node := v.(type) {
		case map[string]any:
			next, ok := node[seg]
			if !ok {
				return nil, false
			}
			v = next
		case []any:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(node) {
				return nil, false
			}
			v = node[i]
		default:
			return nil, false
		}
	}
	return v, true
}
