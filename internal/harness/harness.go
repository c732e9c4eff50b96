package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"time"

	"github.com/roach88/thisme/internal/identity"
	"github.com/roach88/thisme/internal/ir"
	"github.com/roach88/thisme/internal/keys"
	"github.com/roach88/thisme/internal/ledger"
	"github.com/roach88/thisme/internal/store"
	"github.com/roach88/thisme/internal/testutil"
)

// Harness is the test execution engine.
// It runs one scenario with a deterministic clock, ids and key material.
type Harness struct {
	ids    *identity.Manager
	ledger *ledger.Ledger
	logger *slog.Logger

	// loaded holds the latest identity per username.
	loaded map[string]*identity.Identity
	// contexts holds the latest primary context per username.
	contexts map[string]string
	// labels maps identity context ids to trace labels.
	labels map[string]string
}

// Run executes a scenario against st and returns the result.
//
// st should be empty; scenarios assume no prior identities or entries.
// Run returns an error only when the scenario cannot be executed at all.
// Failed expectations and assertions are reported in Result.Errors.
func Run(ctx context.Context, scenario *Scenario, st store.Store) (*Result, error) {
	if scenario == nil || st == nil {
		return nil, fmt.Errorf("scenario and store are required")
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // Suppress logs in tests

	h := &Harness{
		ids: &identity.Manager{
			Store:  st,
			KDF:    keys.FastKDFParams,
			Logger: logger,
			Rand:   testutil.NewSeededReader(scenario.Name),
		},
		ledger: ledger.New(st,
			ledger.WithClock(testutil.NewStepClock(time.Time{}, time.Second)),
			ledger.WithIDGenerator(testutil.NewSequentialIDs()),
			ledger.WithLogger(logger),
		),
		logger:   logger,
		loaded:   make(map[string]*identity.Identity),
		contexts: make(map[string]string),
		labels:   make(map[string]string),
	}
	defer h.lockAll()

	result := NewResult()
	for i, step := range scenario.Steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ev, entries, err := h.execute(ctx, step)
		ev.Seq = i + 1
		ev.Op = step.Op
		ev.Outcome = outcome(err)
		result.AddTrace(ev)

		checkExpect(result, i, step, ev, entries, err)
	}

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

func (h *Harness) lockAll() {
	for _, id := range h.loaded {
		id.Lock()
	}
}

// execute runs one step. The returned event carries the step-specific
// fields; Run fills in Seq, Op and Outcome.
func (h *Harness) execute(ctx context.Context, step Step) (TraceEvent, []ir.Entry, error) {
	switch step.Op {
	case OpCreate:
		ev := TraceEvent{Username: step.Username}
		id, err := h.ids.Create(ctx, step.Username, step.Password)
		if err != nil {
			return ev, nil, err
		}
		ev.Context = h.remember(id)
		return ev, nil, nil

	case OpLoad:
		ev := TraceEvent{Username: step.Username}
		id, err := h.ids.Load(ctx, step.Username, step.Password)
		if err != nil {
			return ev, nil, err
		}
		ev.Context = h.remember(id)
		return ev, nil, nil

	case OpChangePassword:
		ev := TraceEvent{Username: step.Username}
		id, ok := h.loaded[step.Username]
		if !ok {
			return ev, nil, fmt.Errorf("%s is not loaded", step.Username)
		}
		if err := id.ChangePassword(ctx, step.Password, step.NewPassword); err != nil {
			return ev, nil, err
		}
		ev.Context = h.label(id.ContextID())
		return ev, nil, nil

	case OpLock:
		ev := TraceEvent{Username: step.Username}
		id, ok := h.loaded[step.Username]
		if !ok {
			return ev, nil, fmt.Errorf("%s is not loaded", step.Username)
		}
		id.Lock()
		return ev, nil, nil

	case OpRecord:
		return h.record(ctx, step)

	case OpGet:
		return h.get(ctx, step)

	default:
		return TraceEvent{}, nil, fmt.Errorf("unknown op %q", step.Op)
	}
}

func (h *Harness) record(ctx context.Context, step Step) (TraceEvent, []ir.Entry, error) {
	ev := TraceEvent{Verb: step.Verb}
	contextID, err := h.resolveContext(step)
	if err != nil {
		return ev, nil, err
	}
	ev.Context = h.label(contextID)

	n := max(step.Repeat, 1)
	var entries []ir.Entry
	for i := 0; i < n; i++ {
		value := step.Value
		if step.Repeat > 0 {
			value = fmt.Sprintf("%s-%03d", step.Value, i)
		}

		var e ir.Entry
		if step.Attrs != nil {
			attrs := make(map[string]any, len(step.Attrs))
			for k, v := range step.Attrs {
				attrs[k] = v
			}
			e, err = h.ledger.RecordJSON(ctx, ir.Verb(step.Verb), contextID, step.Key, attrs)
		} else {
			e, err = h.ledger.Record(ctx, ir.Verb(step.Verb), contextID, step.Key, value)
		}
		if err != nil {
			return ev, entries, err
		}
		entries = append(entries, e)
	}

	// Repeated records would bloat the trace; keep the first and last.
	if len(entries) > 2 {
		ev.Entries = h.traceEntries([]ir.Entry{entries[0], entries[len(entries)-1]})
	} else {
		ev.Entries = h.traceEntries(entries)
	}
	return ev, entries, nil
}

func (h *Harness) get(ctx context.Context, step Step) (TraceEvent, []ir.Entry, error) {
	filter := *step.Filter
	ev := TraceEvent{Verb: filter.Verb}

	contextID, err := h.resolveContext(step)
	if err != nil {
		return ev, nil, err
	}
	if contextID != "" {
		filter.ContextID = contextID
	}
	ev.Context = h.label(filter.ContextID)

	entries, err := h.ledger.Get(ctx, filter)
	if err != nil {
		return ev, nil, err
	}
	ev.Entries = h.traceEntries(entries)
	return ev, entries, nil
}

// resolveContext returns the context selected by As or Context.
func (h *Harness) resolveContext(step Step) (string, error) {
	if step.As == "" {
		return step.Context, nil
	}
	c, ok := h.contexts[step.As]
	if !ok {
		return "", fmt.Errorf("no identity %q has been created or loaded", step.As)
	}
	return c, nil
}

// remember stores a freshly created or loaded identity and returns the
// label of its context.
func (h *Harness) remember(id *identity.Identity) string {
	if prev, ok := h.loaded[id.Username()]; ok && prev != id {
		prev.Lock()
	}
	h.loaded[id.Username()] = id
	h.contexts[id.Username()] = id.ContextID()

	if _, ok := h.labels[id.ContextID()]; !ok {
		h.labels[id.ContextID()] = fmt.Sprintf("ctx-%d", len(h.labels)+1)
	}
	return h.labels[id.ContextID()]
}

// label returns the trace label of an identity context, or the context id
// itself for literal contexts.
func (h *Harness) label(contextID string) string {
	if l, ok := h.labels[contextID]; ok {
		return l
	}
	return contextID
}

func (h *Harness) traceEntries(entries []ir.Entry) []EntryTrace {
	out := make([]EntryTrace, len(entries))
	for i, e := range entries {
		out[i] = EntryTrace{
			ID:        e.ID,
			Verb:      string(e.Verb),
			Context:   h.label(e.ContextID),
			Key:       e.Key,
			Value:     e.Value,
			Timestamp: e.Timestamp,
		}
	}
	return out
}

func outcome(err error) string {
	if err == nil {
		return OutcomeOK
	}
	if kind := store.KindOf(err); kind != "" {
		return string(kind)
	}
	return "ERROR"
}

// checkExpect compares a step's outcome with its expect clause.
func checkExpect(result *Result, i int, step Step, ev TraceEvent, entries []ir.Entry, err error) {
	want := OutcomeOK
	if step.Expect != nil && step.Expect.Error != "" {
		want = step.Expect.Error
	}
	if ev.Outcome != want {
		msg := fmt.Sprintf("step %d (%s): expected %s, got %s", i+1, step.Op, want, ev.Outcome)
		if err != nil {
			msg += ": " + err.Error()
		}
		result.AddError(msg)
		return
	}
	if step.Expect == nil || err != nil {
		return
	}

	if step.Expect.Count != nil && len(entries) != *step.Expect.Count {
		result.AddError(fmt.Sprintf("step %d (%s): expected %d entries, got %d",
			i+1, step.Op, *step.Expect.Count, len(entries)))
	}
	if step.Expect.Keys != nil {
		got := make([]string, len(entries))
		for j, e := range entries {
			got[j] = e.Key
		}
		if !slices.Equal(got, step.Expect.Keys) {
			result.AddError(fmt.Sprintf("step %d (%s): expected keys %v, got %v",
				i+1, step.Op, step.Expect.Keys, got))
		}
	}
}
