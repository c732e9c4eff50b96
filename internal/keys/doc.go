// Package keys provides the cryptographic leaves of the identity store:
// password key derivation, authenticated encryption of the signing key,
// Ed25519 key pair generation and context id derivation.
//
// Every function here is pure and stateless. Nothing in this package
// performs I/O other than reading from the supplied randomness source.
//
// # Blob format
//
// Sealed blobs are versioned so the cipher can change without silently
// breaking stored identities:
//
//	[Version: 1 byte (0x01)] [Nonce: 12 bytes] [Ciphertext] [Tag: 16 bytes]
//
// The version byte is passed to the AEAD as associated data, so altering it
// fails authentication like any other tampering.
//
// # Failure reporting
//
// Open returns ErrAuthenticationFailed for every failure: short input,
// unknown version, wrong key or tampered bytes. Callers cannot learn why a
// blob was rejected, which keeps password guessing from getting feedback.
package keys
