package store

import (
	"slices"
	"strings"

	"github.com/roach88/thisme/internal/ir"
)

// MergeEntries concatenates per-verb results and sorts them newest first,
// id descending on equal timestamps. The result is never nil.
func MergeEntries(perVerb ...[]ir.Entry) []ir.Entry {
	n := 0
	for _, entries := range perVerb {
		n += len(entries)
	}
	merged := make([]ir.Entry, 0, n)
	for _, entries := range perVerb {
		merged = append(merged, entries...)
	}
	slices.SortStableFunc(merged, CompareEntries)
	return merged
}

// CompareEntries orders entries by timestamp descending, then id descending.
func CompareEntries(a, b ir.Entry) int {
	if c := strings.Compare(b.Timestamp, a.Timestamp); c != 0 {
		return c
	}
	return strings.Compare(b.ID, a.ID)
}
