package queryir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/thisme/internal/ir"
)

func TestPlan_SingleVerbNoFilter(t *testing.T) {
	selects, err := Plan(ir.Filter{Verb: "be"})
	require.NoError(t, err)
	require.Len(t, selects, 1)

	sel := selects[0]
	assert.Equal(t, ir.VerbBe, sel.Verb)
	assert.Equal(t, "be", sel.Table)
	assert.Equal(t, []string{"id", "context_id", "key", "value", "timestamp"}, sel.Columns)
	assert.Nil(t, sel.Filter)
	assert.Equal(t, DefaultOrder, sel.OrderBy)
	assert.Equal(t, ir.DefaultLimit, sel.Limit)
	assert.Zero(t, sel.Offset)
}

func TestPlan_AllVerbsInFixedOrder(t *testing.T) {
	selects, err := Plan(ir.Filter{Verb: "all", Limit: 10, Offset: 5})
	require.NoError(t, err)
	require.Len(t, selects, 7)

	var tables []string
	for _, sel := range selects {
		tables = append(tables, sel.Table)
		assert.Equal(t, 10, sel.Limit, "limit is per table")
		assert.Equal(t, 5, sel.Offset, "offset is per table")
	}
	assert.Equal(t, []string{"be", "have", "do_", "at", "relate", "react", "communicate"}, tables)
}

func TestPlan_PredicatesMapToPhysicalColumns(t *testing.T) {
	selects, err := Plan(ir.Filter{
		Verb:      "react",
		ContextID: "ctx",
		Key:       "like:bo",
		Value:     "👍",
		Since:     "2024-01-01",
		Until:     "2024-12-31",
	})
	require.NoError(t, err)
	require.Len(t, selects, 1)

	assert.Equal(t, And{Predicates: []Predicate{
		Equals{Column: "context_id", Value: "ctx"},
		Contains{Column: "target", Value: "bo"},
		Equals{Column: "emoji", Value: "👍"},
		AtLeast{Column: "timestamp", Value: "2024-01-01T00:00:00.000000000Z"},
		AtMost{Column: "timestamp", Value: "2024-12-31T23:59:59.999999999Z"},
	}}, selects[0].Filter)
}

func TestPlan_JSONValueFilter(t *testing.T) {
	selects, err := Plan(ir.Filter{Verb: "have", Value: "json:shade=red"})
	require.NoError(t, err)
	require.Len(t, selects, 1)

	assert.Equal(t, And{Predicates: []Predicate{
		JSONFieldEquals{Column: "value", Field: "shade", Value: "red"},
	}}, selects[0].Filter)
}

func TestPlan_CommunicateValueIsMessage(t *testing.T) {
	selects, err := Plan(ir.Filter{Verb: "communicate", Key: "bob", Value: "like:hello"})
	require.NoError(t, err)

	assert.Equal(t, And{Predicates: []Predicate{
		Equals{Column: "target", Value: "bob"},
		Contains{Column: "message", Value: "hello"},
	}}, selects[0].Filter)
}

func TestPlan_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		filter ir.Filter
	}{
		{"missing verb", ir.Filter{}},
		{"unknown verb", ir.Filter{Verb: "say"}},
		{"json on key", ir.Filter{Verb: "be", Key: "json:a=b"}},
		{"bad json field", ir.Filter{Verb: "be", Value: "json:a;b=1"}},
		{"negative limit", ir.Filter{Verb: "be", Limit: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Plan(tt.filter)
			assert.Error(t, err)
		})
	}
}

func TestPlan_OutputValidates(t *testing.T) {
	selects, err := Plan(ir.Filter{Verb: "all", ContextID: "c", Key: "k", Value: "like:v", Since: "2024-01-01"})
	require.NoError(t, err)
	for _, sel := range selects {
		assert.NoError(t, Validate(sel), sel.Table)
	}
}
