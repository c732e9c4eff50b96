package harness

// OutcomeOK is the outcome of a step that succeeded.
const OutcomeOK = "ok"

// TraceEvent records one executed step.
type TraceEvent struct {
	Seq      int          `json:"seq"`
	Op       string       `json:"op"`
	Username string       `json:"username,omitempty"`
	Verb     string       `json:"verb,omitempty"`
	Context  string       `json:"context,omitempty"` // label, see package doc
	Outcome  string       `json:"outcome"`           // OutcomeOK or an error kind
	Entries  []EntryTrace `json:"entries,omitempty"`
}

// EntryTrace is a ledger entry as shown in a trace.
type EntryTrace struct {
	ID        string `json:"id"`
	Verb      string `json:"verb"`
	Context   string `json:"context"`
	Key       string `json:"key"`
	Value     string `json:"value"`
	Timestamp string `json:"timestamp"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if all expect clauses and assertions hold.
	Pass bool `json:"pass"`

	// Trace contains one event per executed step, in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends a step event.
func (r *Result) AddTrace(ev TraceEvent) {
	r.Trace = append(r.Trace, ev)
}
