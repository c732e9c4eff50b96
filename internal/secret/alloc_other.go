//go:build !linux

package secret

// allocate falls back to the heap where mmap, mlock and MADV_DONTDUMP are
// not all available. Close still zeroes the bytes.
func allocate(size int) ([]byte, error) {
	return make([]byte, size), nil
}

func release([]byte) error { return nil }
