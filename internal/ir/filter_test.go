package ir

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMatch(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		allowJSON bool
		wantOK    bool
		want      Match
		wantErr   bool
	}{
		{name: "empty", input: "", wantOK: false},
		{name: "exact", input: "red", wantOK: true, want: Match{Mode: MatchExact, Text: "red"}},
		{name: "like", input: "like:col", wantOK: true, want: Match{Mode: MatchLike, Text: "col"}},
		{name: "like empty", input: "like:", wantOK: true, want: Match{Mode: MatchLike, Text: ""}},
		{
			name: "json", input: "json:shade=red", allowJSON: true, wantOK: true,
			want: Match{Mode: MatchJSONField, Field: "shade", Text: "red"},
		},
		{
			name: "json value with equals", input: "json:expr=a=b", allowJSON: true, wantOK: true,
			want: Match{Mode: MatchJSONField, Field: "expr", Text: "a=b"},
		},
		{name: "json on key", input: "json:shade=red", allowJSON: false, wantErr: true},
		{name: "json missing equals", input: "json:shade", allowJSON: true, wantErr: true},
		{name: "json bad field", input: "json:a.b=1", allowJSON: true, wantErr: true},
		{name: "json quote in field", input: `json:a"=1`, allowJSON: true, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok, err := ParseMatch(tt.input, tt.allowJSON)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFilterVerbs(t *testing.T) {
	verbs, err := Filter{Verb: "all"}.Verbs()
	require.NoError(t, err)
	assert.Equal(t, AllVerbs, verbs)
	assert.Len(t, verbs, 7)

	verbs, err = Filter{Verb: "react"}.Verbs()
	require.NoError(t, err)
	assert.Equal(t, []Verb{VerbReact}, verbs)

	verbs, err = Filter{Verb: "do_"}.Verbs()
	require.NoError(t, err)
	assert.Equal(t, []Verb{VerbDo}, verbs)

	_, err = Filter{Verb: "say"}.Verbs()
	assert.Error(t, err)

	_, err = Filter{}.Verbs()
	assert.Error(t, err)
}

func TestFilterNormalize(t *testing.T) {
	f, err := Filter{Verb: "be", Since: "2024-01-01", Until: "2024-01-02T10:00:00+02:00"}.Normalize()
	require.NoError(t, err)
	assert.Equal(t, DefaultLimit, f.Limit)
	assert.Equal(t, "2024-01-01T00:00:00.000000000Z", f.Since)
	assert.Equal(t, "2024-01-02T08:00:00.000000000Z", f.Until)

	f, err = Filter{Verb: "be", Limit: 5, Offset: 10}.Normalize()
	require.NoError(t, err)
	assert.Equal(t, 5, f.Limit)
	assert.Equal(t, 10, f.Offset)
}

func TestFilterNormalizeDateUntilCoversWholeDay(t *testing.T) {
	f, err := Filter{Verb: "be", Since: "2024-01-01", Until: "2024-01-01"}.Normalize()
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01T00:00:00.000000000Z", f.Since)
	assert.Equal(t, "2024-01-01T23:59:59.999999999Z", f.Until)

	noon := FormatTimestamp(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	assert.LessOrEqual(t, f.Since, noon)
	assert.LessOrEqual(t, noon, f.Until)

	f, err = Filter{Verb: "be", Until: "2024-02-29T00:00:00Z"}.Normalize()
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29T00:00:00.000000000Z", f.Until, "explicit times are kept as given")
}

func TestNormalizeUpperBound(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"2024-02-28", "2024-02-28T23:59:59.999999999Z"},
		{"2024-12-31", "2024-12-31T23:59:59.999999999Z"},
		{"2024-12-31T08:30:00", "2024-12-31T08:30:00.000000000Z"},
		{"2024-12-31T08:30:00+01:00", "2024-12-31T07:30:00.000000000Z"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := NormalizeUpperBound(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := NormalizeUpperBound("tomorrow")
	assert.Error(t, err)
}

func TestFilterNormalizeRejects(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
	}{
		{"unknown verb", Filter{Verb: "say"}},
		{"negative limit", Filter{Verb: "be", Limit: -1}},
		{"negative offset", Filter{Verb: "be", Offset: -1}},
		{"bad since", Filter{Verb: "be", Since: "yesterday"}},
		{"inverted range", Filter{Verb: "be", Since: "2024-02-01", Until: "2024-01-01"}},
		{"json key", Filter{Verb: "be", Key: "json:a=b"}},
		{"bad json value", Filter{Verb: "be", Value: "json:nofield"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.filter.Normalize()
			assert.Error(t, err)
		})
	}
}

func TestTimestampOrderingIsTextOrdering(t *testing.T) {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	earlier := FormatTimestamp(base)
	later := FormatTimestamp(base.Add(500 * time.Millisecond))
	latest := FormatTimestamp(base.Add(time.Second))

	assert.Len(t, earlier, len(TimestampLayout))
	assert.Less(t, earlier, later)
	assert.Less(t, later, latest)
}

func TestFormatTimestampUTC(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*3600)
	ts := FormatTimestamp(time.Date(2024, 1, 1, 5, 0, 0, 0, loc))
	assert.Equal(t, "2024-01-01T00:00:00.000000000Z", ts)
}

func TestVerbTables(t *testing.T) {
	for _, v := range AllVerbs {
		table, err := TableFor(v)
		require.NoError(t, err, v)
		assert.Equal(t, v, table.Verb)
		assert.True(t, table.HasColumn("context_id"))
		assert.True(t, table.HasColumn(table.KeyColumn))
		assert.True(t, table.HasColumn(table.ValueColumn))
		assert.Equal(t, v.HasTarget(), table.TargetColumn != "")
	}

	do, err := TableFor(VerbDo)
	require.NoError(t, err)
	assert.Equal(t, "do_", do.Name)

	react, err := TableFor(VerbReact)
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "context_id", "key", "target", "emoji", "timestamp"}, react.Columns())

	_, err = TableFor("say")
	assert.Error(t, err)
}

func TestInsertValuesDuplicateTarget(t *testing.T) {
	e := Entry{ID: "1", ContextID: "ctx", Key: "bob", Value: "friend", Timestamp: "t"}

	relate, err := TableFor(VerbRelate)
	require.NoError(t, err)
	assert.Equal(t, []any{"1", "ctx", "bob", "bob", "friend", "t"}, relate.InsertValues(e))

	be, err := TableFor(VerbBe)
	require.NoError(t, err)
	assert.Equal(t, []any{"1", "ctx", "bob", "friend", "t"}, be.InsertValues(e))
}
