package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/thisme/internal/ir"
)

// Scenario defines a conformance test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Steps run in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final trace.
	// Supported types: context_stable, trace_order, trace_count, pages_disjoint
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step operations.
const (
	OpCreate         = "create"
	OpLoad           = "load"
	OpChangePassword = "change_password"
	OpLock           = "lock"
	OpRecord         = "record"
	OpGet            = "get"
)

// Step is one operation.
type Step struct {
	// Op is one of the Op* constants.
	Op string `yaml:"op"`

	// Username and Password are used by create, load and change_password.
	// change_password treats Password as the current password.
	Username    string `yaml:"username,omitempty"`
	Password    string `yaml:"password,omitempty"`
	NewPassword string `yaml:"new_password,omitempty"`

	// As selects the primary context of an identity created or loaded in
	// an earlier step. Context gives a literal context id instead.
	As      string `yaml:"as,omitempty"`
	Context string `yaml:"context,omitempty"`

	// Verb, Key and Value describe a record step. Attrs, if set, replaces
	// Value with canonical JSON.
	Verb  string            `yaml:"verb,omitempty"`
	Key   string            `yaml:"key,omitempty"`
	Value string            `yaml:"value,omitempty"`
	Attrs map[string]string `yaml:"attrs,omitempty"`

	// Repeat records the entry this many times, suffixing Value with a
	// zero-padded index ("step-000", "step-001", ...).
	Repeat int `yaml:"repeat,omitempty"`

	// Filter is the query of a get step.
	Filter *ir.Filter `yaml:"filter,omitempty"`

	// Expect validates the outcome. If nil, the step must succeed.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect specifies the expected outcome of a step.
type Expect struct {
	// Error is the expected error kind ("VALIDATION", "NOT_FOUND", ...).
	// Empty means success.
	Error string `yaml:"error,omitempty"`

	// Count is the expected number of entries returned by get.
	Count *int `yaml:"count,omitempty"`

	// Keys are the expected entry keys returned by get, in order.
	Keys []string `yaml:"keys,omitempty"`
}

// Assertion validates the trace after all steps ran.
type Assertion struct {
	// Type specifies the assertion type:
	// - "context_stable": every context seen for Username is the same
	// - "trace_order": Ops appear in this order
	// - "trace_count": Op appears exactly Count times
	// - "pages_disjoint": get steps Steps (1-indexed) share no entry ids
	Type string `yaml:"type"`

	Username string   `yaml:"username,omitempty"`
	Op       string   `yaml:"op,omitempty"`
	Ops      []string `yaml:"ops,omitempty"`
	Count    int      `yaml:"count,omitempty"`
	Steps    []int    `yaml:"steps,omitempty"`
}

// Assertion type constants.
const (
	AssertContextStable = "context_stable"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertPagesDisjoint = "pages_disjoint"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a, len(s.Steps)); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(i int, step *Step) error {
	switch step.Op {
	case OpCreate, OpLoad:
		if step.Username == "" {
			return fmt.Errorf("steps[%d]: username is required for %s", i, step.Op)
		}
	case OpChangePassword:
		if step.Username == "" || step.NewPassword == "" {
			return fmt.Errorf("steps[%d]: username and new_password are required for change_password", i)
		}
	case OpLock:
		if step.Username == "" {
			return fmt.Errorf("steps[%d]: username is required for lock", i)
		}
	case OpRecord:
		if step.Verb == "" {
			return fmt.Errorf("steps[%d]: verb is required for record", i)
		}
		if step.Value != "" && step.Attrs != nil {
			return fmt.Errorf("steps[%d]: value and attrs are mutually exclusive", i)
		}
		if step.Repeat < 0 {
			return fmt.Errorf("steps[%d]: repeat must be non-negative", i)
		}
	case OpGet:
		if step.Filter == nil {
			return fmt.Errorf("steps[%d]: filter is required for get", i)
		}
	case "":
		return fmt.Errorf("steps[%d]: op is required", i)
	default:
		return fmt.Errorf("steps[%d]: unknown op %q", i, step.Op)
	}

	if step.As != "" && step.Context != "" {
		return fmt.Errorf("steps[%d]: as and context are mutually exclusive", i)
	}
	if step.Expect != nil && step.Expect.Error != "" && (step.Expect.Count != nil || step.Expect.Keys != nil) {
		return fmt.Errorf("steps[%d].expect: error excludes count and keys", i)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion, steps int) error {
	switch a.Type {
	case AssertContextStable:
		if a.Username == "" {
			return fmt.Errorf("assertions[%d]: username is required for context_stable", index)
		}
	case AssertTraceOrder:
		if len(a.Ops) == 0 {
			return fmt.Errorf("assertions[%d]: ops list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Op == "" {
			return fmt.Errorf("assertions[%d]: op is required for trace_count", index)
		}
	case AssertPagesDisjoint:
		if len(a.Steps) < 2 {
			return fmt.Errorf("assertions[%d]: at least two steps are required for pages_disjoint", index)
		}
		for _, n := range a.Steps {
			if n < 1 || n > steps {
				return fmt.Errorf("assertions[%d]: step %d out of range", index, n)
			}
		}
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	default:
		return fmt.Errorf("assertions[%d]: unknown type %q", index, a.Type)
	}
	return nil
}
