package queryir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/thisme/internal/ir"
)

func validSelect() Select {
	return Select{
		Verb:    ir.VerbBe,
		Table:   "be",
		Columns: []string{"id", "key", "value"},
		OrderBy: DefaultOrder,
		Limit:   10,
	}
}

func TestValidate_ValidSelect(t *testing.T) {
	sel := validSelect()
	require.NoError(t, Validate(sel))
	require.NoError(t, Validate(&sel))
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Select)
	}{
		{"unknown verb", func(s *Select) { s.Verb = "say" }},
		{"table mismatch", func(s *Select) { s.Table = "identities" }},
		{"no columns", func(s *Select) { s.Columns = nil }},
		{"foreign column", func(s *Select) { s.Columns = []string{"emoji"} }},
		{"no ordering", func(s *Select) { s.OrderBy = nil }},
		{"foreign order column", func(s *Select) { s.OrderBy = []OrderKey{{Column: "seq"}} }},
		{"negative offset", func(s *Select) { s.Offset = -1 }},
		{"foreign filter column", func(s *Select) {
			s.Filter = And{Predicates: []Predicate{Equals{Column: "target", Value: "x"}}}
		}},
		{"injected column", func(s *Select) {
			s.Filter = Equals{Column: "value; DROP TABLE be", Value: "x"}
		}},
		{"bad json field", func(s *Select) {
			s.Filter = JSONFieldEquals{Column: "value", Field: `a"b`, Value: "x"}
		}},
		{"nil nested predicate", func(s *Select) {
			s.Filter = And{Predicates: []Predicate{nil}}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel := validSelect()
			tt.mutate(&sel)
			assert.Error(t, Validate(sel))
		})
	}
}

func TestValidate_NilQuery(t *testing.T) {
	assert.Error(t, Validate(nil))
	var sel *Select
	assert.Error(t, Validate(sel))
}

func TestValidate_TargetTableColumns(t *testing.T) {
	sel := Select{
		Verb:    ir.VerbCommunicate,
		Table:   "communicate",
		Columns: []string{"id", "target", "message"},
		Filter: And{Predicates: []Predicate{
			Contains{Column: "message", Value: "hi"},
			AtMost{Column: "timestamp", Value: "2025"},
		}},
		OrderBy: DefaultOrder,
	}
	assert.NoError(t, Validate(sel))
}
