package store

import (
	"github.com/roach88/thisme/internal/ir"
)

// PrepareEntry validates an entry for Insert and fills an empty ID and
// Timestamp. newID and now supply the defaults.
func PrepareEntry(e ir.Entry, newID func() (string, error), now func() string) (ir.Entry, ir.Table, error) {
	const op = "insert"

	v, err := ir.ParseVerb(string(e.Verb))
	if err != nil {
		return ir.Entry{}, ir.Table{}, Wrap(KindValidation, op, err)
	}
	e.Verb = v

	table, err := ir.TableFor(v)
	if err != nil {
		return ir.Entry{}, ir.Table{}, Wrap(KindValidation, op, err)
	}
	if e.ContextID == "" {
		return ir.Entry{}, ir.Table{}, Errorf(KindValidation, op, "context_id is required")
	}
	if e.Key == "" {
		return ir.Entry{}, ir.Table{}, Errorf(KindValidation, op, "key is required")
	}

	if e.ID == "" {
		id, err := newID()
		if err != nil {
			return ir.Entry{}, ir.Table{}, Wrap(KindConnectivity, op, err)
		}
		e.ID = id
	}
	if e.Timestamp == "" {
		e.Timestamp = now()
	} else {
		ts, err := ir.NormalizeTimestamp(e.Timestamp)
		if err != nil {
			return ir.Entry{}, ir.Table{}, Wrap(KindValidation, op, err)
		}
		e.Timestamp = ts
	}
	return e, table, nil
}
