package keys

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"

	"github.com/roach88/thisme/internal/secret"
)

// DeriveContext returns the public, non-secret context id for raw key
// material: base64(SHA256(raw)). Equal input always yields an equal id.
func DeriveContext(raw []byte) string {
	sum := sha256.Sum256(raw)
	return base64.StdEncoding.EncodeToString(sum[:])
}

// DeriveSharedContext derives one context id from several secrets, hashed
// as their concatenation in argument order. Two parties holding the same
// secrets in the same order arrive at the same id.
func DeriveSharedContext(secrets ...[]byte) string {
	joined := bytes.Join(secrets, nil)
	defer secret.Zero(joined)
	return DeriveContext(joined)
}
