// Package ir provides the shared data types for the identity store and the
// verb ledger.
//
// This package contains type definitions and pure helpers only. All other
// internal packages import ir; ir imports nothing internal. This keeps the
// ledger vocabulary (verbs, entries, filters, timestamps) in one place that
// both storage engines and the query compiler agree on.
//
// Key design constraints:
//   - The verb set is fixed; every verb maps to exactly one table
//   - Timestamps are fixed-width UTC text so text order equals time order
//   - Entries are append-only; no type in this package models an update
//   - JSON tags use snake_case
package ir
