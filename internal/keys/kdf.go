package keys

import (
	"crypto/sha256"
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/thisme/internal/secret"
)

// KeySize is the size in bytes of every symmetric key.
const KeySize = 32

// domainKDFSalt separates the KDF salt from any other SHA-256 use of the
// username. Changing it invalidates every stored identity.
const domainKDFSalt = "thisme/kdf/v1"

// KDFParams are the Argon2id cost parameters.
type KDFParams struct {
	Time      uint32 `yaml:"time" json:"time"`
	MemoryKiB uint32 `yaml:"memory_kib" json:"memory_kib"`
	Threads   uint8  `yaml:"threads" json:"threads"`
}

// DefaultKDFParams follow the RFC 9106 first recommended option scaled to
// 64 MiB.
var DefaultKDFParams = KDFParams{Time: 1, MemoryKiB: 64 * 1024, Threads: 4}

// FastKDFParams are cheap parameters for tests. Never use them for real identities.
var FastKDFParams = KDFParams{Time: 1, MemoryKiB: 64, Threads: 1}

// OrDefault returns DefaultKDFParams for the zero value and p otherwise.
func (p KDFParams) OrDefault() KDFParams {
	if p == (KDFParams{}) {
		return DefaultKDFParams
	}
	return p
}

// Validate rejects parameters Argon2 cannot run with.
func (p KDFParams) Validate() error {
	if p.Time == 0 {
		return fmt.Errorf("kdf time must be at least 1")
	}
	if p.Threads == 0 {
		return fmt.Errorf("kdf threads must be at least 1")
	}
	if p.MemoryKiB < 8*uint32(p.Threads) {
		return fmt.Errorf("kdf memory must be at least %d KiB for %d threads", 8*uint32(p.Threads), p.Threads)
	}
	return nil
}

// DeriveKey derives the 32-byte key that seals an identity's signing key.
//
// The password is NFC normalized so the same password typed on different
// platforms derives the same key. The salt binds the key to the username:
//
//	salt = SHA256("thisme/kdf/v1" + 0x00 + username)
//
// Deterministic and one-way. Zero-valued params fall back to
// DefaultKDFParams; any other invalid params are an error. The caller
// zeroes the returned key.
func DeriveKey(username, password string, p KDFParams) ([KeySize]byte, error) {
	var key [KeySize]byte
	p = p.OrDefault()
	if err := p.Validate(); err != nil {
		return key, err
	}

	raw := []byte(password)
	normalized := norm.NFC.Bytes(raw)
	derived := argon2.IDKey(normalized, kdfSalt(username), p.Time, p.MemoryKiB, p.Threads, KeySize)
	copy(key[:], derived)
	secret.Zero(derived)
	secret.Zero(normalized)
	secret.Zero(raw)
	return key, nil
}

// kdfSalt computes the domain-separated salt for a username.
// The null byte separator prevents domain/data boundary ambiguity.
func kdfSalt(username string) []byte {
	h := sha256.New()
	h.Write([]byte(domainKDFSalt))
	h.Write([]byte{0x00})
	h.Write([]byte(username))
	return h.Sum(nil)
}
