package keys

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/roach88/thisme/internal/secret"
)

// BlobVersion is the version byte prepended to every sealed blob.
// 0x01 is ChaCha20-Poly1305 with a 96-bit random nonce.
const BlobVersion byte = 0x01

// minBlobSize is version + nonce + tag + at least one byte of ciphertext.
const minBlobSize = 1 + chacha20poly1305.NonceSize + chacha20poly1305.Overhead + 1

var (
	// ErrAuthenticationFailed is returned by Open for any blob that does not
	// authenticate under the key. It deliberately carries no detail.
	ErrAuthenticationFailed = errors.New("authentication failed")

	// ErrEncryptionFailed is returned by Seal when the cipher or the
	// randomness source fails.
	ErrEncryptionFailed = errors.New("encryption failed")
)

// Sealer encrypts with a configurable randomness source.
// The zero value reads nonces from crypto/rand.
type Sealer struct {
	Rand io.Reader
}

// Seal encrypts plaintext under key with a fresh random nonce.
func Seal(key [KeySize]byte, plaintext []byte) ([]byte, error) {
	return Sealer{}.Seal(key, plaintext)
}

// Seal encrypts plaintext under key with a fresh nonce read from s.Rand.
func (s Sealer) Seal(key [KeySize]byte, plaintext []byte) ([]byte, error) {
	r := s.Rand
	if r == nil {
		r = rand.Reader
	}

	aead, err := chacha20poly1305.New(key[:])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncryptionFailed, err)
	}

	out := make([]byte, 1+chacha20poly1305.NonceSize, 1+chacha20poly1305.NonceSize+len(plaintext)+aead.Overhead())
	out[0] = BlobVersion
	nonce := out[1 : 1+chacha20poly1305.NonceSize]
	if _, err := io.ReadFull(r, nonce); err != nil {
		return nil, fmt.Errorf("%w: reading nonce: %v", ErrEncryptionFailed, err)
	}

	return aead.Seal(out, nonce, plaintext, out[:1]), nil
}

// Open authenticates and decrypts a blob produced by Seal.
// Every failure returns ErrAuthenticationFailed.
func Open(key [KeySize]byte, blob []byte) ([]byte, error) {
	if len(blob) < minBlobSize || blob[0] != BlobVersion {
		return nil, ErrAuthenticationFailed
	}

	aead, err := chacha20poly1305.New(key[:])
	if err != nil {
		return nil, ErrAuthenticationFailed
	}

	nonce := blob[1 : 1+chacha20poly1305.NonceSize]
	plaintext, err := aead.Open(nil, nonce, blob[1+chacha20poly1305.NonceSize:], blob[:1])
	if err != nil {
		return nil, ErrAuthenticationFailed
	}
	return plaintext, nil
}

// SealString seals plaintext and returns the blob as standard base64, the
// persisted text form of encrypted_private_key.
func (s Sealer) SealString(key [KeySize]byte, plaintext []byte) (string, error) {
	blob, err := s.Seal(key, plaintext)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(blob), nil
}

// OpenString decodes a base64 blob and decrypts it directly into a
// secret.Buffer, so the plaintext never sits on the Go heap. Malformed
// base64 is reported as ErrAuthenticationFailed like any other bad blob.
// The caller closes the returned buffer.
func OpenString(key [KeySize]byte, encoded string) (*secret.Buffer, error) {
	blob, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil || len(blob) < minBlobSize || blob[0] != BlobVersion {
		return nil, ErrAuthenticationFailed
	}

	aead, err := chacha20poly1305.New(key[:])
	if err != nil {
		return nil, ErrAuthenticationFailed
	}

	nonce := blob[1 : 1+chacha20poly1305.NonceSize]
	ciphertext := blob[1+chacha20poly1305.NonceSize:]
	out, err := secret.New(len(ciphertext) - aead.Overhead())
	if err != nil {
		return nil, err
	}
	// out has exactly the plaintext's capacity, so Open writes in place.
	if _, err := aead.Open(out.Bytes()[:0], nonce, ciphertext, blob[:1]); err != nil {
		out.Close()
		return nil, ErrAuthenticationFailed
	}
	return out, nil
}
