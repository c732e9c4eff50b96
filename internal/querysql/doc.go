// Package querysql compiles queryir Selects to parameterized SQL for the
// SQLite and PostgreSQL ledger stores.
package querysql
