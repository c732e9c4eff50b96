package testutil

import (
	"fmt"
	"sync"
)

// SequentialIDs generates deterministic, sortable entry ids.
//
// Ids have UUIDv7 shape with the counter in the low bits, so they sort in
// generation order like real UUIDv7 ids and golden traces stay stable:
//
//	00000000-0000-7000-8000-000000000001
//
// Thread-safety: SequentialIDs is safe for concurrent use via internal mutex.
type SequentialIDs struct {
	mu sync.Mutex
	n  uint64
}

// NewSequentialIDs creates a generator whose first id ends in 1.
func NewSequentialIDs() *SequentialIDs {
	return &SequentialIDs{}
}

// Generate returns the next id.
func (g *SequentialIDs) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("00000000-0000-7000-8000-%012x", g.n)
}

// Reset restarts the sequence.
func (g *SequentialIDs) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n = 0
}
