// Package harness runs conformance scenarios against a store.
//
// A scenario is a YAML list of steps (create, load, change_password, lock,
// record, get) with optional expectations, followed by assertions over the
// resulting trace. Every step really executes through identity.Manager and
// ledger.Ledger against the store under test, so the same scenario checks
// each backend for identical behavior.
//
// Runs are deterministic: key material comes from a reader seeded with the
// scenario name, entry ids from testutil.SequentialIDs and timestamps from
// testutil.StepClock. Context ids are random-looking hashes, so traces show
// them as labels ("ctx-1", "ctx-2", ...) in order of first appearance. A
// context that changed across loads shows up as a new label.
//
// Golden traces live in testdata/golden. To regenerate them:
//
//	go test ./internal/harness -update
package harness
