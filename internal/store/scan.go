package store

import (
	"fmt"

	"github.com/roach88/thisme/internal/ir"
	"github.com/roach88/thisme/internal/queryir"
)

// ScanTargets returns scan destinations into e for the columns of sel, in
// order. The key and target columns both land in e.Key; the verb's value
// column lands in e.Value.
func ScanTargets(e *ir.Entry, sel queryir.Select) ([]any, error) {
	table, err := ir.TableFor(sel.Verb)
	if err != nil {
		return nil, err
	}

	dest := make([]any, len(sel.Columns))
	for i, col := range sel.Columns {
		switch col {
		case "id":
			dest[i] = &e.ID
		case "context_id":
			dest[i] = &e.ContextID
		case "key", table.TargetColumn:
			dest[i] = &e.Key
		case table.ValueColumn:
			dest[i] = &e.Value
		case "timestamp":
			dest[i] = &e.Timestamp
		default:
			return nil, fmt.Errorf("no entry field for column %q", col)
		}
	}
	return dest, nil
}
