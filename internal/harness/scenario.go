package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/52North/SOS-sub005/internal/decode"
)

// Scenario defines a conformance scenario: documents to decode, the
// outcome expected of each, and assertions over the decoded values.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Documents are decoded in order. Paths are relative to the scenario
	// file location.
	Documents []DocumentStep `yaml:"documents"`

	// Store writes every decoded observation to a fresh in-memory store,
	// which query_count assertions run against.
	Store bool `yaml:"store,omitempty"`

	// Offering is recorded with stored observations.
	Offering string `yaml:"offering,omitempty"`

	// Assertions validate the decoded values.
	// Supported types: field_equals, decoded_count, query_count
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// DocumentStep names one document to decode, by path or inline.
type DocumentStep struct {
	// Path to an XML document.
	Path string `yaml:"path,omitempty"`

	// XML is an inline document, used when Path is empty.
	XML string `yaml:"xml,omitempty"`

	// Expect is the expected outcome.
	Expect Expectation `yaml:"expect"`

	// name is the display name: the path as written or inline[i].
	name string
}

// Name returns the display name of the document.
func (d DocumentStep) Name() string { return d.name }

// Expectation is the expected outcome of decoding a document: a decoded
// Go type such as "*sos.GetObservation", or an error kind optionally naming
// the offending parameter.
type Expectation struct {
	Type      string `yaml:"type,omitempty"`
	Error     string `yaml:"error,omitempty"`
	Parameter string `yaml:"parameter,omitempty"`
}

// Assertion validates the decoded values or the scenario store.
type Assertion struct {
	// Type specifies the assertion type:
	// - "field_equals": a field of a decoded value equals Value
	// - "decoded_count": exactly Count documents decoded without error
	// - "query_count": the filter decoded from Document matches Count stored observations
	Type string `yaml:"type"`

	// Document is the index of the document the assertion refers to.
	Document int `yaml:"document,omitempty"`

	// Path is a dotted path into the decoded value's JSON form; numeric
	// segments index arrays (used by field_equals).
	Path string `yaml:"path,omitempty"`

	// Value is the expected field value (used by field_equals).
	Value any `yaml:"value,omitempty"`

	// Count is the expected number (used by decoded_count, query_count).
	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertFieldEquals  = "field_equals"
	AssertDecodedCount = "decoded_count"
	AssertQueryCount   = "query_count"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
// Document paths are resolved relative to the scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data, filepath.Dir(path))
}

// ParseScenario parses scenario YAML, resolving document paths against
// basePath.
func ParseScenario(data []byte, basePath string) (*Scenario, error) {
	// Parse YAML with strict field validation (catches typos like "assertion:" vs "assertions:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	for i := range scenario.Documents {
		doc := &scenario.Documents[i]
		doc.name = doc.Path
		if doc.Path == "" {
			doc.name = fmt.Sprintf("inline[%d]", i)
		} else if !filepath.IsAbs(doc.Path) && basePath != "" {
			doc.Path = filepath.Join(basePath, doc.Path)
		}
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// errorKinds are the error kinds an expectation may name.
var errorKinds = map[string]bool{
	string(decode.KindUnsupportedInput):      true,
	string(decode.KindInvalidParameterValue): true,
	string(decode.KindMissingParameter):      true,
	string(decode.KindNoApplicableCode):      true,
	string(decode.KindUnsupportedOperation):  true,
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Documents) == 0 {
		return fmt.Errorf("documents list is required and must be non-empty")
	}

	for i, doc := range s.Documents {
		if (doc.Path == "") == (doc.XML == "") {
			return fmt.Errorf("documents[%d]: exactly one of path and xml is required", i)
		}
		if doc.Path != "" {
			if _, err := os.Stat(doc.Path); os.IsNotExist(err) {
				return fmt.Errorf("documents[%d]: file not found: %s", i, doc.Path)
			}
		}
		if (doc.Expect.Type == "") == (doc.Expect.Error == "") {
			return fmt.Errorf("documents[%d].expect: exactly one of type and error is required", i)
		}
		if doc.Expect.Error != "" && !errorKinds[doc.Expect.Error] {
			return fmt.Errorf("documents[%d].expect: unknown error kind %q", i, doc.Expect.Error)
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a, len(s.Documents), s.Store); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion, documents int, store bool) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}
	if a.Document < 0 || a.Document >= documents {
		return fmt.Errorf("assertions[%d]: document index %d out of range", index, a.Document)
	}

	switch a.Type {
	case AssertFieldEquals:
		if a.Path == "" {
			return fmt.Errorf("assertions[%d]: path is required for field_equals", index)
		}
	case AssertDecodedCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for decoded_count", index)
		}
	case AssertQueryCount:
		if !store {
			return fmt.Errorf("assertions[%d]: query_count requires store: true", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for query_count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
