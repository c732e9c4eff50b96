// Package testutil provides deterministic clocks, id generators and
// randomness for tests and golden traces.
package testutil
