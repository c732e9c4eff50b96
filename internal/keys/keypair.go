package keys

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/thisme/internal/secret"
)

// SeedSize is the number of random bytes behind every key pair.
const SeedSize = ed25519.SeedSize

// ErrKeyZeroed is returned when signing with a key pair whose seed was wiped.
var ErrKeyZeroed = errors.New("key pair has been zeroed")

// KeyPair is an Ed25519 signing key pair. The seed lives in a
// secret.Buffer; Zero wipes and releases it. Copies of a KeyPair share
// the same seed.
type KeyPair struct {
	Public ed25519.PublicKey
	seed   *secret.Buffer
}

// GenerateKeyPair reads SeedSize bytes from r straight into protected
// memory and expands them into a key pair. A nil r reads from crypto/rand.
// A short read is an error.
func GenerateKeyPair(r io.Reader) (KeyPair, error) {
	if r == nil {
		r = rand.Reader
	}
	buf, err := secret.New(SeedSize)
	if err != nil {
		return KeyPair{}, err
	}
	if _, err := io.ReadFull(r, buf.Bytes()); err != nil {
		buf.Close()
		return KeyPair{}, fmt.Errorf("reading key seed: %w", err)
	}
	return fromBuffer(buf), nil
}

// KeyPairFromSeed rebuilds the key pair for a 32-byte seed.
// The seed is copied; the caller keeps ownership of its slice.
func KeyPairFromSeed(seed []byte) (KeyPair, error) {
	if len(seed) != SeedSize {
		return KeyPair{}, fmt.Errorf("seed must be %d bytes, got %d", SeedSize, len(seed))
	}
	buf, err := secret.New(SeedSize)
	if err != nil {
		return KeyPair{}, err
	}
	copy(buf.Bytes(), seed)
	return fromBuffer(buf), nil
}

// KeyPairFromEncodedSeed decodes a base64 seed, the sealed plaintext form,
// and rebuilds the pair. The decoded bytes never leave protected memory.
func KeyPairFromEncodedSeed(encoded []byte) (KeyPair, error) {
	if len(encoded) == 0 {
		return KeyPair{}, fmt.Errorf("decoding seed: empty input")
	}
	decoded, err := secret.New(base64.StdEncoding.DecodedLen(len(encoded)))
	if err != nil {
		return KeyPair{}, err
	}
	defer decoded.Close()

	n, err := base64.StdEncoding.Decode(decoded.Bytes(), encoded)
	if err != nil {
		return KeyPair{}, fmt.Errorf("decoding seed: %w", err)
	}
	return KeyPairFromSeed(decoded.Bytes()[:n])
}

func fromBuffer(buf *secret.Buffer) KeyPair {
	priv := ed25519.NewKeyFromSeed(buf.Bytes())
	pub := make(ed25519.PublicKey, ed25519.PublicKeySize)
	copy(pub, priv[SeedSize:])
	secret.Zero(priv)
	return KeyPair{Public: pub, seed: buf}
}

// Seed returns the raw seed, or nil once the pair is zeroed. The slice
// points into protected memory and is only valid until Zero.
func (kp KeyPair) Seed() []byte {
	if kp.Zeroed() {
		return nil
	}
	return kp.seed.Bytes()
}

// EncodeSeed returns the seed in standard base64, the plaintext sealed
// under the password key. The caller closes the returned buffer.
func (kp KeyPair) EncodeSeed() (*secret.Buffer, error) {
	if kp.Zeroed() {
		return nil, ErrKeyZeroed
	}
	out, err := secret.New(base64.StdEncoding.EncodedLen(SeedSize))
	if err != nil {
		return nil, err
	}
	base64.StdEncoding.Encode(out.Bytes(), kp.seed.Bytes())
	return out, nil
}

// SeedEqual reports in constant time whether seed is this pair's seed.
func (kp KeyPair) SeedEqual(seed []byte) bool {
	if kp.Zeroed() {
		return false
	}
	return kp.seed.Equal(seed)
}

// PublicKeyBase64 returns the verification key in standard base64.
func (kp KeyPair) PublicKeyBase64() string {
	return base64.StdEncoding.EncodeToString(kp.Public)
}

// MatchesPublicKey reports whether encoded is this pair's public key.
func (kp KeyPair) MatchesPublicKey(encoded string) bool {
	return subtle.ConstantTimeCompare([]byte(kp.PublicKeyBase64()), []byte(encoded)) == 1
}

// Sign signs msg with the private key.
func (kp KeyPair) Sign(msg []byte) ([]byte, error) {
	if kp.Zeroed() {
		return nil, ErrKeyZeroed
	}
	priv := ed25519.NewKeyFromSeed(kp.seed.Bytes())
	defer secret.Zero(priv)
	return ed25519.Sign(priv, msg), nil
}

// Zero wipes and releases the seed. The public key stays usable.
func (kp *KeyPair) Zero() {
	if kp.seed != nil {
		kp.seed.Close()
		kp.seed = nil
	}
}

// Zeroed reports whether the seed is gone.
func (kp KeyPair) Zeroed() bool {
	return kp.seed == nil || kp.seed.Closed()
}

// Verify checks an Ed25519 signature against a base64 public key.
// Returns false for any malformed input.
func Verify(publicKey string, msg, sig []byte) bool {
	pub, err := base64.StdEncoding.DecodeString(publicKey)
	if err != nil || len(pub) != ed25519.PublicKeySize || len(sig) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(pub, msg, sig)
}
