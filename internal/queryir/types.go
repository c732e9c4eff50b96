package queryir

import "github.com/roach88/thisme/internal/ir"

// Query is a planned read against one backend table.
//
// Sealed: only Select implements it.
type Query interface {
	queryNode()
}

// Predicate is a filter condition over the columns of a Select's table.
//
// Sealed: only the predicate types in this package implement it.
type Predicate interface {
	predicateNode()
}

// Select reads Columns from Table, keeps rows matching Filter, orders them
// by OrderBy and returns at most Limit rows after skipping Offset.
//
// Conceptual SQL:
//
//	SELECT <columns> FROM <table> WHERE <filter>
//	ORDER BY <order by> LIMIT <limit> OFFSET <offset>
//
// Limit 0 means unbounded; Plan always sets a positive limit.
type Select struct {
	Verb    ir.Verb
	Table   string
	Columns []string
	Filter  Predicate // nil = no filter
	OrderBy []OrderKey
	Limit   int
	Offset  int
}

func (Select) queryNode() {}

// OrderKey is one ORDER BY term.
type OrderKey struct {
	Column     string
	Descending bool
}

// DefaultOrder is the ordering every planned Select carries: newest first,
// id as tiebreaker.
var DefaultOrder = []OrderKey{
	{Column: "timestamp", Descending: true},
	{Column: "id", Descending: true},
}

// Equals matches rows whose column equals Value exactly.
type Equals struct {
	Column string
	Value  string
}

func (Equals) predicateNode() {}

// Contains matches rows whose column contains Value as a substring,
// ignoring ASCII case. Value is a literal: % and _ carry no meaning.
type Contains struct {
	Column string
	Value  string
}

func (Contains) predicateNode() {}

// JSONFieldEquals matches rows whose column holds a JSON object with a
// top-level Field whose value, rendered as text, equals Value. Strings
// compare by content, true/false by their literal spelling, numbers by their
// JSON text. Rows whose column is not a JSON object never match.
//
// Field is restricted to [A-Za-z0-9_-]+ by ir.ParseMatch.
type JSONFieldEquals struct {
	Column string
	Field  string
	Value  string
}

func (JSONFieldEquals) predicateNode() {}

// AtLeast matches rows whose column is >= Value under text comparison.
type AtLeast struct {
	Column string
	Value  string
}

func (AtLeast) predicateNode() {}

// AtMost matches rows whose column is <= Value under text comparison.
type AtMost struct {
	Column string
	Value  string
}

func (AtMost) predicateNode() {}

// And is a conjunction. An empty And is always true.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}
