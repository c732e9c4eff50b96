package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorKindHelpers(t *testing.T) {
	err := fmt.Errorf("outer: %w", Errorf(KindNotFound, "load keys", "identity %q not found", "bob"))

	assert.Equal(t, KindNotFound, KindOf(err))
	assert.True(t, IsNotFound(err))
	assert.False(t, IsAlreadyExists(err))
	assert.False(t, IsRetryable(err))
	assert.Equal(t, ErrorKind(""), KindOf(errors.New("plain")))
}

func TestOnlyConnectivityIsRetryable(t *testing.T) {
	kinds := []ErrorKind{
		KindValidation, KindAlreadyExists, KindNotFound,
		KindAuthenticationFailed, KindEncryptionFailed, KindSerialization,
	}
	for _, k := range kinds {
		assert.False(t, IsRetryable(&Error{Kind: k, Op: "op"}), k)
	}
	assert.True(t, IsRetryable(&Error{Kind: KindConnectivity, Op: "op"}))
}

func TestWrapKeepsExistingKind(t *testing.T) {
	inner := Errorf(KindAlreadyExists, "create identity", "taken")
	assert.Equal(t, KindAlreadyExists, KindOf(Wrap(KindConnectivity, "outer", inner)))
	assert.Nil(t, Wrap(KindConnectivity, "op", nil))
}

func TestErrorMessageAndUnwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap(KindConnectivity, "insert", cause)
	assert.Equal(t, "insert: disk full", err.Error())
	assert.ErrorIs(t, err, cause)

	assert.Equal(t, "load: NOT_FOUND", (&Error{Kind: KindNotFound, Op: "load"}).Error())
}
