// Package store defines the storage contract for identities and the verb
// ledger, and the error taxonomy every engine reports through.
//
// Engines live in subpackages:
//   - store/sqlite: embedded single-file engine (mattn/go-sqlite3)
//   - store/postgres: networked engine (jackc/pgx pgxpool)
//
// store/storetest holds the conformance suite both engines run.
//
// # Critical Patterns
//
// Append-only ledger
//   - Insert is the only write path for verb rows; no engine exposes
//     UPDATE or DELETE on verb tables
//   - Each Insert is a single INSERT statement, so a cancelled call never
//     leaves a partial row
//
// Deterministic reads
//   - Every verb query orders by timestamp DESC, id DESC with byte-wise
//     collation
//   - Timestamps are fixed width UTC text (ir.TimestampLayout)
//
// Classified failures
//   - Engines wrap every error in *Error with a Kind
//   - Only KindConnectivity is retryable
//
// Private keys are stored only as the sealed blob produced by
// internal/keys. The store never sees plaintext key material.
package store
