package testutil

import (
	"crypto/sha256"
	"encoding/binary"
	"sync"
)

// SeededReader is a deterministic byte stream for tests that need
// reproducible key material. It expands a seed with SHA-256 in counter
// mode. Never use it outside tests.
type SeededReader struct {
	mu      sync.Mutex
	seed    []byte
	counter uint64
	buf     []byte
}

// NewSeededReader creates a reader for seed.
func NewSeededReader(seed string) *SeededReader {
	return &SeededReader{seed: []byte(seed)}
}

// Read fills p. It never fails.
func (r *SeededReader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for n < len(p) {
		if len(r.buf) == 0 {
			var ctr [8]byte
			binary.BigEndian.PutUint64(ctr[:], r.counter)
			r.counter++
			sum := sha256.Sum256(append(append([]byte(nil), r.seed...), ctr[:]...))
			r.buf = sum[:]
		}
		c := copy(p[n:], r.buf)
		r.buf = r.buf[c:]
		n += c
	}
	return n, nil
}
