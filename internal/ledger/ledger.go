package ledger

import (
	"context"
	"log/slog"

	"github.com/roach88/thisme/internal/ir"
	"github.com/roach88/thisme/internal/store"
)

// Ledger appends verb entries to a store and reads them back.
//
// Thread-safety: a Ledger is safe for concurrent use when its Store, Clock
// and IDGenerator are.
type Ledger struct {
	store  store.Store
	clock  Clock
	ids    IDGenerator
	logger *slog.Logger
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock sets the clock used for entry timestamps.
//
// Default: SystemClock
func WithClock(c Clock) Option {
	return func(l *Ledger) {
		l.clock = c
	}
}

// WithIDGenerator sets the entry id source.
//
// Default: UUIDv7Generator
func WithIDGenerator(g IDGenerator) Option {
	return func(l *Ledger) {
		l.ids = g
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) {
		l.logger = logger
	}
}

// New creates a Ledger over s.
func New(s store.Store, opts ...Option) *Ledger {
	l := &Ledger{
		store:  s,
		clock:  SystemClock{},
		ids:    UUIDv7Generator{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Record appends one entry and returns it as stored.
//
// For relate, react and communicate, key is the interaction target and
// value is the payload (relationship, emoji, message body).
func (l *Ledger) Record(ctx context.Context, verb ir.Verb, contextID, key, value string) (ir.Entry, error) {
	const op = "record"

	v, err := ir.ParseVerb(string(verb))
	if err != nil {
		return ir.Entry{}, store.Wrap(store.KindValidation, op, err)
	}
	if contextID == "" {
		return ir.Entry{}, store.Errorf(store.KindValidation, op, "context_id is required")
	}
	if key == "" {
		return ir.Entry{}, store.Errorf(store.KindValidation, op, "key is required")
	}

	entry := ir.Entry{
		ID:        l.ids.Generate(),
		Verb:      v,
		ContextID: contextID,
		Key:       key,
		Value:     value,
		Timestamp: ir.FormatTimestamp(l.clock.Now()),
	}
	if err := l.store.Insert(ctx, entry); err != nil {
		return ir.Entry{}, err
	}

	l.logger.Debug("verb recorded",
		"verb", string(v),
		"context_id", contextID,
		"id", entry.ID,
	)
	return entry, nil
}

// RecordJSON encodes attrs as canonical JSON and records it as the value,
// so "json:<field>=<literal>" filters can match it on every engine.
func (l *Ledger) RecordJSON(ctx context.Context, verb ir.Verb, contextID, key string, attrs map[string]any) (ir.Entry, error) {
	value, err := ir.MarshalCanonical(attrs)
	if err != nil {
		return ir.Entry{}, store.Wrap(store.KindValidation, "record json", err)
	}
	return l.Record(ctx, verb, contextID, key, string(value))
}

// Be records an identity statement ("name" = "Ada").
func (l *Ledger) Be(ctx context.Context, contextID, key, value string) (ir.Entry, error) {
	return l.Record(ctx, ir.VerbBe, contextID, key, value)
}

// Have records a possession or attribute.
func (l *Ledger) Have(ctx context.Context, contextID, key, value string) (ir.Entry, error) {
	return l.Record(ctx, ir.VerbHave, contextID, key, value)
}

// Do records an action.
func (l *Ledger) Do(ctx context.Context, contextID, key, value string) (ir.Entry, error) {
	return l.Record(ctx, ir.VerbDo, contextID, key, value)
}

// At records a place or time anchor.
func (l *Ledger) At(ctx context.Context, contextID, key, value string) (ir.Entry, error) {
	return l.Record(ctx, ir.VerbAt, contextID, key, value)
}

// Relate records a relationship to target.
func (l *Ledger) Relate(ctx context.Context, contextID, target, relation string) (ir.Entry, error) {
	return l.Record(ctx, ir.VerbRelate, contextID, target, relation)
}

// React records an emoji reaction to target.
func (l *Ledger) React(ctx context.Context, contextID, target, emoji string) (ir.Entry, error) {
	return l.Record(ctx, ir.VerbReact, contextID, target, emoji)
}

// Communicate records a message sent to target.
func (l *Ledger) Communicate(ctx context.Context, contextID, target, message string) (ir.Entry, error) {
	return l.Record(ctx, ir.VerbCommunicate, contextID, target, message)
}

// Get returns entries matching f, newest first.
//
// Limit and Offset apply to each verb table before the results are merged,
// so an "all" query may return up to seven times Limit entries. Use
// Truncate for a global cut.
func (l *Ledger) Get(ctx context.Context, f ir.Filter) ([]ir.Entry, error) {
	norm, err := f.Normalize()
	if err != nil {
		return nil, store.Wrap(store.KindValidation, "get", err)
	}

	entries, err := l.store.Get(ctx, norm)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []ir.Entry{}
	}

	l.logger.Debug("ledger query",
		"verb", norm.Verb,
		"context_id", norm.ContextID,
		"results", len(entries),
	)
	return entries, nil
}

// Truncate returns at most n entries of a merged result. n <= 0 returns
// entries unchanged.
func Truncate(entries []ir.Entry, n int) []ir.Entry {
	if n <= 0 || len(entries) <= n {
		return entries
	}
	return entries[:n]
}
