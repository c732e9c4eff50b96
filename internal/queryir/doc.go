// Package queryir is the engine-neutral query representation for ledger
// reads.
//
// A user-facing ir.Filter is planned into one Select per verb table. Each
// Select names its physical table, the columns to read, a conjunction of
// portable predicates and a mandatory ordering. Backends (internal/querysql)
// compile a Select for their dialect; nothing in this package knows SQL.
//
//	[ir.Filter] → Plan → [Select per verb] → querysql.Compiler → SQL + args
//
// PREDICATES:
//
//	Equals           column = literal
//	Contains         column contains literal as a case-insensitive substring
//	JSONFieldEquals  column parses as a JSON object whose field equals literal
//	AtLeast          column >= literal (text comparison)
//	AtMost           column <= literal (text comparison)
//	And              conjunction, empty = always true
//
// There is no OR and no NULL comparison. Predicate and Query are sealed
// interfaces using the marker method pattern so backends can switch on them
// exhaustively.
//
// ORDERING:
//
// Every Select is ordered by timestamp DESC, id DESC. Timestamps are fixed
// width UTC text so text order is time order, and the UUIDv7 id breaks ties
// between entries written in the same nanosecond.
package queryir
