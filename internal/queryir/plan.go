package queryir

import (
	"fmt"

	"github.com/roach88/thisme/internal/ir"
)

// Plan turns a filter into one Select per requested verb, in the fixed verb
// order for "all".
//
// Limit and Offset apply to each Select independently. A query over "all"
// with limit 10 can therefore return up to 70 rows before the caller merges
// and truncates.
func Plan(f ir.Filter) ([]Select, error) {
	f, err := f.Normalize()
	if err != nil {
		return nil, err
	}

	verbs, err := f.Verbs()
	if err != nil {
		return nil, err
	}

	selects := make([]Select, 0, len(verbs))
	for _, v := range verbs {
		sel, err := planVerb(v, f)
		if err != nil {
			return nil, err
		}
		selects = append(selects, sel)
	}
	return selects, nil
}

// planVerb builds the Select for one verb. f must already be normalized.
func planVerb(v ir.Verb, f ir.Filter) (Select, error) {
	table, err := ir.TableFor(v)
	if err != nil {
		return Select{}, err
	}

	var preds []Predicate
	if f.ContextID != "" {
		preds = append(preds, Equals{Column: "context_id", Value: f.ContextID})
	}

	key, ok, err := ir.ParseMatch(f.Key, false)
	if err != nil {
		return Select{}, fmt.Errorf("key: %w", err)
	}
	if ok {
		preds = append(preds, matchPredicate(table.KeyColumn, key))
	}

	value, ok, err := ir.ParseMatch(f.Value, true)
	if err != nil {
		return Select{}, fmt.Errorf("value: %w", err)
	}
	if ok {
		preds = append(preds, matchPredicate(table.ValueColumn, value))
	}

	if f.Since != "" {
		preds = append(preds, AtLeast{Column: "timestamp", Value: f.Since})
	}
	if f.Until != "" {
		preds = append(preds, AtMost{Column: "timestamp", Value: f.Until})
	}

	sel := Select{
		Verb:    v,
		Table:   table.Name,
		Columns: table.Columns(),
		OrderBy: append([]OrderKey(nil), DefaultOrder...),
		Limit:   f.Limit,
		Offset:  f.Offset,
	}
	if len(preds) > 0 {
		sel.Filter = And{Predicates: preds}
	}
	return sel, nil
}

func matchPredicate(column string, m ir.Match) Predicate {
	switch m.Mode {
	case ir.MatchLike:
		return Contains{Column: column, Value: m.Text}
	case ir.MatchJSONField:
		return JSONFieldEquals{Column: column, Field: m.Field, Value: m.Text}
	default:
		return Equals{Column: column, Value: m.Text}
	}
}
