package harness

// Outcome is what decoding one scenario document produced. Exactly one of
// Value and Error is meaningful.
type Outcome struct {
	Document  string `json:"document"`
	Type      string `json:"type,omitempty"`
	Error     string `json:"error,omitempty"`
	Parameter string `json:"parameter,omitempty"`
	Message   string `json:"-"`
	Value     any    `json:"value,omitempty"`
}

// Failed reports whether decoding produced an error.
func (o Outcome) Failed() bool { return o.Error != "" }

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall success: every expectation and assertion held.
	Pass bool `json:"pass"`

	// Outcomes holds one entry per document, in scenario order.
	Outcomes []Outcome `json:"outcomes"`

	// Errors contains expectation and assertion failures.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Stored lists the ids of observations written to the scenario store.
	Stored []string `json:"stored,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:     true,
		Outcomes: []Outcome{},
		Errors:   []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddOutcome appends the outcome of one document.
func (r *Result) AddOutcome(o Outcome) {
	r.Outcomes = append(r.Outcomes, o)
}
