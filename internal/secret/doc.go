// Package secret holds key material in memory the garbage collector never
// sees.
//
// [Buffer] allocates its bytes outside the Go heap with mmap, locks them
// into RAM with mlock and excludes them from core dumps with
// MADV_DONTDUMP. Close zeroes the bytes and releases the mapping, so no
// copy of the secret survives it. Platforms without these calls fall back
// to a heap slice that is still zeroed on Close.
//
// Strings cannot be wiped. Anything that must be wiped stays a []byte from
// the moment it is created until [Buffer.Close].
package secret
