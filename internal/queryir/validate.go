package queryir

import (
	"fmt"
	"regexp"

	"github.com/roach88/thisme/internal/ir"
)

var jsonFieldPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Validate checks that a Select only references its verb table and its own
// columns. Backends call it before compiling so that no identifier outside
// the fixed verb table map ever reaches SQL text.
//
// Validate is a pure function with no side effects.
func Validate(q Query) error {
	switch sel := q.(type) {
	case Select:
		return validateSelect(sel)
	case *Select:
		if sel == nil {
			return fmt.Errorf("nil select")
		}
		return validateSelect(*sel)
	case nil:
		return fmt.Errorf("nil query")
	default:
		return fmt.Errorf("unknown query type %T", q)
	}
}

func validateSelect(sel Select) error {
	table, err := ir.TableFor(sel.Verb)
	if err != nil {
		return err
	}
	if sel.Table != table.Name {
		return fmt.Errorf("table %q does not belong to verb %q", sel.Table, sel.Verb)
	}
	if len(sel.Columns) == 0 {
		return fmt.Errorf("select on %s has no columns", sel.Table)
	}
	for _, c := range sel.Columns {
		if !table.HasColumn(c) {
			return fmt.Errorf("column %q is not in table %s", c, sel.Table)
		}
	}
	if len(sel.OrderBy) == 0 {
		return fmt.Errorf("select on %s has no ordering", sel.Table)
	}
	for _, k := range sel.OrderBy {
		if !table.HasColumn(k.Column) {
			return fmt.Errorf("order column %q is not in table %s", k.Column, sel.Table)
		}
	}
	if sel.Limit < 0 || sel.Offset < 0 {
		return fmt.Errorf("limit and offset must be non-negative")
	}
	if sel.Filter == nil {
		return nil
	}
	return validatePredicate(table, sel.Filter)
}

func validatePredicate(table ir.Table, p Predicate) error {
	column := ""
	switch pred := p.(type) {
	case Equals:
		column = pred.Column
	case Contains:
		column = pred.Column
	case AtLeast:
		column = pred.Column
	case AtMost:
		column = pred.Column
	case JSONFieldEquals:
		if !jsonFieldPattern.MatchString(pred.Field) {
			return fmt.Errorf("json field %q must match %s", pred.Field, jsonFieldPattern)
		}
		column = pred.Column
	case And:
		for _, sub := range pred.Predicates {
			if err := validatePredicate(table, sub); err != nil {
				return err
			}
		}
		return nil
	case nil:
		return fmt.Errorf("nil predicate")
	default:
		return fmt.Errorf("unknown predicate type %T", p)
	}

	if !table.HasColumn(column) {
		return fmt.Errorf("column %q is not in table %s", column, table.Name)
	}
	return nil
}
