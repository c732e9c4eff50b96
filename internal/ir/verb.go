package ir

import "fmt"

// Verb names one of the fixed fact types recorded in the ledger.
type Verb string

// The fixed verb vocabulary.
const (
	VerbBe          Verb = "be"
	VerbHave        Verb = "have"
	VerbDo          Verb = "do"
	VerbAt          Verb = "at"
	VerbRelate      Verb = "relate"
	VerbReact       Verb = "react"
	VerbCommunicate Verb = "communicate"
)

// VerbAll is the filter sentinel that fans a query out across every verb table.
const VerbAll = "all"

// AllVerbs lists every verb in fan-out order.
// Callers must not modify the returned slice.
var AllVerbs = []Verb{
	VerbBe,
	VerbHave,
	VerbDo,
	VerbAt,
	VerbRelate,
	VerbReact,
	VerbCommunicate,
}

// ParseVerb converts a verb name to a Verb.
// "do_" is accepted as an alias for "do" because that is the table name.
func ParseVerb(s string) (Verb, error) {
	if s == "do_" {
		return VerbDo, nil
	}
	v := Verb(s)
	if _, ok := verbTables[v]; !ok {
		return "", fmt.Errorf("unknown verb %q", s)
	}
	return v, nil
}

// HasTarget reports whether the verb overloads the entry key as an
// interaction target (relate, react, communicate).
func (v Verb) HasTarget() bool {
	return verbTables[v].TargetColumn != ""
}

// Table describes the physical table that stores one verb.
//
// Logical entry fields map onto physical columns: the entry key is read from
// KeyColumn and the entry value from ValueColumn. For target verbs the key is
// written to both the key column and TargetColumn, and filters address the
// target column.
type Table struct {
	Verb         Verb
	Name         string
	KeyColumn    string
	ValueColumn  string
	TargetColumn string // empty for attribute verbs
}

// Columns returns the physical columns written on insert, in order.
func (t Table) Columns() []string {
	cols := []string{"id", "context_id", "key"}
	if t.TargetColumn != "" {
		cols = append(cols, t.TargetColumn)
	}
	return append(cols, t.ValueColumn, "timestamp")
}

// HasColumn reports whether the table has the named physical column.
func (t Table) HasColumn(name string) bool {
	for _, c := range t.Columns() {
		if c == name {
			return true
		}
	}
	return false
}

var verbTables = map[Verb]Table{
	VerbBe:          {Verb: VerbBe, Name: "be", KeyColumn: "key", ValueColumn: "value"},
	VerbHave:        {Verb: VerbHave, Name: "have", KeyColumn: "key", ValueColumn: "value"},
	VerbDo:          {Verb: VerbDo, Name: "do_", KeyColumn: "key", ValueColumn: "value"},
	VerbAt:          {Verb: VerbAt, Name: "at", KeyColumn: "key", ValueColumn: "value"},
	VerbRelate:      {Verb: VerbRelate, Name: "relate", KeyColumn: "target", ValueColumn: "value", TargetColumn: "target"},
	VerbReact:       {Verb: VerbReact, Name: "react", KeyColumn: "target", ValueColumn: "emoji", TargetColumn: "target"},
	VerbCommunicate: {Verb: VerbCommunicate, Name: "communicate", KeyColumn: "target", ValueColumn: "message", TargetColumn: "target"},
}

// TableFor returns the table descriptor for a verb.
func TableFor(v Verb) (Table, error) {
	t, ok := verbTables[v]
	if !ok {
		return Table{}, fmt.Errorf("unknown verb %q", v)
	}
	return t, nil
}

// InsertValues returns the values for Table.Columns for an entry, in order.
func (t Table) InsertValues(e Entry) []any {
	vals := []any{e.ID, e.ContextID, e.Key}
	if t.TargetColumn != "" {
		vals = append(vals, e.Key)
	}
	return append(vals, e.Value, e.Timestamp)
}
