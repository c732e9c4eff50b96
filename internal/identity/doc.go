// Package identity manages password-protected signing identities.
//
// An identity is a username plus an Ed25519 key pair. The public key is
// stored in the clear; the 32-byte seed is base64 encoded and sealed under
// a key derived from (username, password). The context id is the base64
// SHA-256 of the seed, so it is stable across password changes and changes
// only if the key pair does.
//
// Lifecycle:
//
//	NonExistent --Create--> Unlocked --Lock--> Locked
//	Locked --Manager.Load--> Unlocked
//
// Locked is not persisted: it means the seed has been wiped from memory.
// The sealed blob is the only stored form of the private key.
package identity
