package querysql

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/thisme/internal/queryir"
)

// Dialect selects placeholder style and engine-specific predicate forms.
type Dialect int

const (
	// DialectSQLite uses ? placeholders and SQLite's JSON1 functions.
	DialectSQLite Dialect = iota
	// DialectPostgres uses $n placeholders, ILIKE and IS JSON (PostgreSQL 16+).
	DialectPostgres
)

func (d Dialect) String() string {
	switch d {
	case DialectSQLite:
		return "sqlite"
	case DialectPostgres:
		return "postgres"
	default:
		return fmt.Sprintf("Dialect(%d)", int(d))
	}
}

// Compiler compiles queryir Selects to parameterized SQL.
//
// CRITICAL: every query carries ORDER BY from the Select; Validate rejects
// Selects without one.
// CRITICAL: values are always parameters, never interpolated. Identifiers
// come only from the verb table map and are double quoted.
type Compiler struct {
	Dialect Dialect
	// Schema qualifies table names when set (Postgres "me").
	Schema string
}

// Compile converts a query to SQL and its positional arguments.
func (c Compiler) Compile(q queryir.Query) (string, []any, error) {
	if err := queryir.Validate(q); err != nil {
		return "", nil, fmt.Errorf("compile: %w", err)
	}

	var sel queryir.Select
	switch query := q.(type) {
	case queryir.Select:
		sel = query
	case *queryir.Select:
		sel = *query
	default:
		return "", nil, fmt.Errorf("unsupported query type: %T", q)
	}

	b := &builder{dialect: c.Dialect}

	cols := make([]string, len(sel.Columns))
	for i, col := range sel.Columns {
		cols[i] = quoteIdent(col)
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(strings.Join(cols, ", "))
	sb.WriteString(" FROM ")
	sb.WriteString(c.tableName(sel.Table))

	if sel.Filter != nil {
		where, err := b.predicate(sel.Filter)
		if err != nil {
			return "", nil, fmt.Errorf("compile filter: %w", err)
		}
		if where != "" {
			sb.WriteString(" WHERE ")
			sb.WriteString(where)
		}
	}

	sb.WriteString(" ORDER BY ")
	sb.WriteString(c.orderBy(sel.OrderBy))

	switch {
	case sel.Limit > 0:
		sb.WriteString(" LIMIT ")
		sb.WriteString(b.param(int64(sel.Limit)))
	case sel.Offset > 0 && c.Dialect == DialectSQLite:
		// SQLite only accepts OFFSET after a LIMIT clause.
		sb.WriteString(" LIMIT -1")
	}
	if sel.Offset > 0 {
		sb.WriteString(" OFFSET ")
		sb.WriteString(b.param(int64(sel.Offset)))
	}

	return sb.String(), b.args, nil
}

func (c Compiler) tableName(name string) string {
	if c.Schema == "" {
		return quoteIdent(name)
	}
	return quoteIdent(c.Schema) + "." + quoteIdent(name)
}

// orderBy renders ORDER BY terms with byte-wise collation so ordering does
// not depend on the server locale.
func (c Compiler) orderBy(keys []queryir.OrderKey) string {
	collate := "COLLATE BINARY"
	if c.Dialect == DialectPostgres {
		collate = `COLLATE "C"`
	}

	parts := make([]string, len(keys))
	for i, k := range keys {
		dir := "ASC"
		if k.Descending {
			dir = "DESC"
		}
		parts[i] = fmt.Sprintf("%s %s %s", quoteIdent(k.Column), collate, dir)
	}
	return strings.Join(parts, ", ")
}

// builder accumulates positional arguments while rendering predicates.
type builder struct {
	dialect Dialect
	args    []any
}

// param appends v and returns its placeholder.
func (b *builder) param(v any) string {
	b.args = append(b.args, v)
	if b.dialect == DialectPostgres {
		return "$" + strconv.Itoa(len(b.args))
	}
	return "?"
}

func (b *builder) predicate(p queryir.Predicate) (string, error) {
	switch pred := p.(type) {
	case queryir.Equals:
		return fmt.Sprintf("%s = %s", quoteIdent(pred.Column), b.param(pred.Value)), nil
	case *queryir.Equals:
		return b.predicate(*pred)
	case queryir.Contains:
		return b.contains(pred), nil
	case *queryir.Contains:
		return b.predicate(*pred)
	case queryir.JSONFieldEquals:
		return b.jsonFieldEquals(pred), nil
	case *queryir.JSONFieldEquals:
		return b.predicate(*pred)
	case queryir.AtLeast:
		return fmt.Sprintf("%s >= %s", quoteIdent(pred.Column), b.param(pred.Value)), nil
	case *queryir.AtLeast:
		return b.predicate(*pred)
	case queryir.AtMost:
		return fmt.Sprintf("%s <= %s", quoteIdent(pred.Column), b.param(pred.Value)), nil
	case *queryir.AtMost:
		return b.predicate(*pred)
	case queryir.And:
		return b.and(pred)
	case *queryir.And:
		return b.and(*pred)
	default:
		return "", fmt.Errorf("unsupported predicate type: %T", p)
	}
}

// and joins sub-predicates with AND. An empty conjunction renders as ""
// and the caller omits WHERE.
func (b *builder) and(and queryir.And) (string, error) {
	parts := make([]string, 0, len(and.Predicates))
	for _, sub := range and.Predicates {
		sql, err := b.predicate(sub)
		if err != nil {
			return "", err
		}
		if sql == "" {
			continue
		}
		if _, nested := sub.(queryir.And); nested {
			sql = "(" + sql + ")"
		}
		parts = append(parts, sql)
	}
	return strings.Join(parts, " AND "), nil
}

func (b *builder) contains(c queryir.Contains) string {
	op := "LIKE"
	if b.dialect == DialectPostgres {
		op = "ILIKE"
	}
	pattern := "%" + EscapeLike(c.Value) + "%"
	return fmt.Sprintf(`%s %s %s ESCAPE '\'`, quoteIdent(c.Column), op, b.param(pattern))
}

// jsonNullEscape is the JSON escape for U+0000. Postgres accepts it in
// json text but refuses to cast it to jsonb.
const jsonNullEscape = `\u0000`

// jsonFieldEquals renders a field comparison that yields NULL (no match)
// for rows that are not JSON objects, so malformed rows never raise a
// query error. On Postgres, objects containing a NUL escape are excluded
// as well since the jsonb cast would fail for them.
func (b *builder) jsonFieldEquals(j queryir.JSONFieldEquals) string {
	col := quoteIdent(j.Column)

	if b.dialect == DialectPostgres {
		nul := b.param(jsonNullEscape)
		field := b.param(j.Field)
		value := b.param(j.Value)
		return fmt.Sprintf("CASE WHEN %s IS JSON OBJECT AND strpos(%s, %s) = 0 THEN %s::jsonb ->> %s::text END = %s",
			col, col, nul, col, field, value)
	}

	path := `$."` + j.Field + `"`
	typePath := b.param(path)
	extractPath := b.param(path)
	value := b.param(j.Value)
	return fmt.Sprintf(
		"CASE WHEN json_valid(%s) THEN (CASE WHEN json_type(%s) = 'object' THEN "+
			"(CASE json_type(%s, %s) WHEN 'true' THEN 'true' WHEN 'false' THEN 'false' "+
			"ELSE CAST(json_extract(%s, %s) AS TEXT) END) END) END = %s",
		col, col, col, typePath, col, extractPath, value)
}

// EscapeLike escapes LIKE metacharacters so s matches literally under
// ESCAPE '\'.
func EscapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// quoteIdent double-quotes an identifier. Identifiers reaching here have
// passed queryir.Validate and contain no quotes.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
