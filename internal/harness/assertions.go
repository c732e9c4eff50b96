package harness

import (
	"fmt"
	"strings"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for _, event := range e.Trace {
		fmt.Fprintf(&buf, "  [%d] %s %s%s -> %s\n", event.Seq, event.Op, event.Username, event.Verb, event.Outcome)
	}

	return buf.String()
}

// assertContextStable checks that every successful step naming the
// username saw the same context label.
func assertContextStable(trace []TraceEvent, assertion Assertion) error {
	seen := ""
	for _, event := range trace {
		if event.Username != assertion.Username || event.Outcome != OutcomeOK || event.Context == "" {
			continue
		}
		if seen == "" {
			seen = event.Context
			continue
		}
		if event.Context != seen {
			return &AssertionError{
				Type:     AssertContextStable,
				Expected: fmt.Sprintf("%s always in %s", assertion.Username, seen),
				Actual:   fmt.Sprintf("step %d (%s) in %s", event.Seq, event.Op, event.Context),
				Trace:    trace,
			}
		}
	}
	if seen == "" {
		return &AssertionError{
			Type:     AssertContextStable,
			Expected: fmt.Sprintf("at least one successful step for %s", assertion.Username),
			Actual:   "none found",
			Trace:    trace,
		}
	}
	return nil
}

// assertTraceOrder checks if ops appear in the specified order.
// Ops don't need to be consecutive (intervening steps are allowed).
func assertTraceOrder(trace []TraceEvent, assertion Assertion) error {
	// Find first position of each expected op
	positions := make(map[string]int)
	for i, event := range trace {
		for _, op := range assertion.Ops {
			if event.Op == op && positions[op] == 0 {
				positions[op] = i + 1 // 1-indexed for readability
			}
		}
	}

	for _, op := range assertion.Ops {
		if positions[op] == 0 {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("all ops present: %v", assertion.Ops),
				Actual:   fmt.Sprintf("missing op: %s", op),
				Trace:    trace,
			}
		}
	}

	for i := 1; i < len(assertion.Ops); i++ {
		prev := assertion.Ops[i-1]
		curr := assertion.Ops[i]
		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("ops in order: %v", assertion.Ops),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Trace: trace,
			}
		}
	}
	return nil
}

// assertTraceCount checks if the op appears exactly the specified number of times.
func assertTraceCount(trace []TraceEvent, assertion Assertion) error {
	count := 0
	for _, event := range trace {
		if event.Op == assertion.Op {
			count++
		}
	}
	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%s appears %d times", assertion.Op, assertion.Count),
			Actual:   fmt.Sprintf("%s appears %d times", assertion.Op, count),
			Trace:    trace,
		}
	}
	return nil
}

// assertPagesDisjoint checks that the listed get steps returned no entry
// id twice.
func assertPagesDisjoint(trace []TraceEvent, assertion Assertion) error {
	owner := make(map[string]int)
	for _, n := range assertion.Steps {
		if n < 1 || n > len(trace) || trace[n-1].Op != OpGet {
			return &AssertionError{
				Type:     AssertPagesDisjoint,
				Expected: fmt.Sprintf("step %d is a get", n),
				Actual:   "not a get step",
				Trace:    trace,
			}
		}
		for _, e := range trace[n-1].Entries {
			if prev, ok := owner[e.ID]; ok {
				return &AssertionError{
					Type:     AssertPagesDisjoint,
					Expected: fmt.Sprintf("steps %v share no entries", assertion.Steps),
					Actual:   fmt.Sprintf("entry %s returned by steps %d and %d", e.ID, prev, n),
					Trace:    trace,
				}
			}
			owner[e.ID] = n
		}
	}
	return nil
}

// EvaluateAssertions runs all assertions and returns error messages.
// Returns an empty slice if all assertions pass.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errs []string
	for _, a := range assertions {
		var err error
		switch a.Type {
		case AssertContextStable:
			err = assertContextStable(result.Trace, a)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, a)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, a)
		case AssertPagesDisjoint:
			err = assertPagesDisjoint(result.Trace, a)
		default:
			err = fmt.Errorf("unknown assertion type: %s", a.Type)
		}
		if err != nil {
			errs = append(errs, err.Error())
		}
	}
	return errs
}
