package querysql

import (
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/thisme/internal/ir"
	"github.com/roach88/thisme/internal/queryir"
)

func planOne(t *testing.T, f ir.Filter) queryir.Select {
	t.Helper()
	selects, err := queryir.Plan(f)
	require.NoError(t, err)
	require.Len(t, selects, 1)
	return selects[0]
}

func TestCompile_SimpleSelectSQLite(t *testing.T) {
	sel := planOne(t, ir.Filter{Verb: "be", ContextID: "ctx"})

	sql, args, err := Compiler{Dialect: DialectSQLite}.Compile(sel)
	require.NoError(t, err)

	assert.Equal(t,
		`SELECT "id", "context_id", "key", "value", "timestamp" FROM "be" `+
			`WHERE "context_id" = ? `+
			`ORDER BY "timestamp" COLLATE BINARY DESC, "id" COLLATE BINARY DESC LIMIT ?`,
		sql)
	assert.Equal(t, []any{"ctx", int64(100)}, args)
}

func TestCompile_SimpleSelectPostgres(t *testing.T) {
	sel := planOne(t, ir.Filter{Verb: "do", ContextID: "ctx", Offset: 100})

	sql, args, err := Compiler{Dialect: DialectPostgres, Schema: "me"}.Compile(&sel)
	require.NoError(t, err)

	assert.Equal(t,
		`SELECT "id", "context_id", "key", "value", "timestamp" FROM "me"."do_" `+
			`WHERE "context_id" = $1 `+
			`ORDER BY "timestamp" COLLATE "C" DESC, "id" COLLATE "C" DESC LIMIT $2 OFFSET $3`,
		sql)
	assert.Equal(t, []any{"ctx", int64(100), int64(100)}, args)
}

func TestCompile_NoFilterOmitsWhere(t *testing.T) {
	sel := planOne(t, ir.Filter{Verb: "at"})

	sql, args, err := Compiler{}.Compile(sel)
	require.NoError(t, err)
	assert.NotContains(t, sql, "WHERE")
	assert.Equal(t, []any{int64(100)}, args)

	sel.Filter = queryir.And{}
	sql, _, err = Compiler{}.Compile(sel)
	require.NoError(t, err)
	assert.NotContains(t, sql, "WHERE")
}

func TestCompile_OffsetWithoutLimitSQLite(t *testing.T) {
	sel := planOne(t, ir.Filter{Verb: "at"})
	sel.Limit = 0
	sel.Offset = 5

	sql, args, err := Compiler{}.Compile(sel)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(sql, "LIMIT -1 OFFSET ?"), sql)
	assert.Equal(t, []any{int64(5)}, args)

	sql, _, err = Compiler{Dialect: DialectPostgres}.Compile(sel)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(sql, `DESC OFFSET $1`), sql)
}

func TestCompile_OrderByMandatory(t *testing.T) {
	sel := planOne(t, ir.Filter{Verb: "be"})
	sel.OrderBy = nil

	_, _, err := Compiler{}.Compile(sel)
	assert.Error(t, err)
}

func TestCompile_ValuesNeverInterpolated(t *testing.T) {
	hostile := `x'); DROP TABLE be; --`
	for _, d := range []Dialect{DialectSQLite, DialectPostgres} {
		t.Run(d.String(), func(t *testing.T) {
			sel := planOne(t, ir.Filter{
				Verb:      "be",
				ContextID: hostile,
				Key:       "like:" + hostile,
				Value:     "json:f=" + hostile,
			})

			sql, args, err := Compiler{Dialect: d}.Compile(sel)
			require.NoError(t, err)
			assert.NotContains(t, sql, "DROP")
			assert.Contains(t, args, hostile)
		})
	}
}

func TestCompile_PostgresJSONSkipsNulEscapes(t *testing.T) {
	sel := planOne(t, ir.Filter{Verb: "have", Value: "json:shade=red"})

	sql, args, err := Compiler{Dialect: DialectPostgres}.Compile(sel)
	require.NoError(t, err)
	assert.Contains(t, sql, `"value" IS JSON OBJECT AND strpos("value", $1) = 0 THEN "value"::jsonb`)
	require.NotEmpty(t, args)
	assert.Equal(t, `\u0000`, args[0])
	assert.Len(t, args[0], 6)
}

func TestCompile_RejectsUnvalidatedIdentifiers(t *testing.T) {
	sel := planOne(t, ir.Filter{Verb: "be"})
	sel.Filter = queryir.Equals{Column: `value" OR 1=1 --`, Value: "x"}

	_, _, err := Compiler{}.Compile(sel)
	assert.Error(t, err)

	sel = planOne(t, ir.Filter{Verb: "be"})
	sel.Table = "identities"
	_, _, err = Compiler{}.Compile(sel)
	assert.Error(t, err)
}

func TestCompile_Nil(t *testing.T) {
	_, _, err := Compiler{}.Compile(nil)
	assert.Error(t, err)
}

func TestEscapeLike(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{"50%", `50\%`},
		{"a_b", `a\_b`},
		{`back\slash`, `back\\slash`},
		{`%_\`, `\%\_\\`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, EscapeLike(tt.in), tt.in)
	}
}

// TestCompile_Golden pins the full SQL for a filter that exercises every
// predicate on a target verb.
func TestCompile_Golden(t *testing.T) {
	f := ir.Filter{
		Verb:      "relate",
		ContextID: "ctx",
		Key:       "like:50%_off",
		Value:     "json:kind=friend",
		Since:     "2024-01-01",
		Limit:     20,
		Offset:    40,
	}
	sel := planOne(t, f)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)

	for _, c := range []Compiler{
		{Dialect: DialectSQLite},
		{Dialect: DialectPostgres, Schema: "me"},
	} {
		sql, args, err := c.Compile(sel)
		require.NoError(t, err)
		g.Assert(t, "relate_"+c.Dialect.String(), render(sql, args))
	}
}

func render(sql string, args []any) []byte {
	var sb strings.Builder
	sb.WriteString(sql)
	sb.WriteString("\n-- args\n")
	for i, a := range args {
		fmt.Fprintf(&sb, "%d: %v\n", i+1, a)
	}
	return []byte(sb.String())
}
