package store

import (
	"errors"
	"fmt"
)

// ErrorKind classifies store and identity failures.
type ErrorKind string

const (
	// KindValidation indicates malformed input caught before any I/O.
	KindValidation ErrorKind = "VALIDATION"

	// KindAlreadyExists indicates a unique key (username) is taken.
	KindAlreadyExists ErrorKind = "ALREADY_EXISTS"

	// KindNotFound indicates the requested record does not exist.
	KindNotFound ErrorKind = "NOT_FOUND"

	// KindAuthenticationFailed indicates a sealed blob did not authenticate.
	KindAuthenticationFailed ErrorKind = "AUTHENTICATION_FAILED"

	// KindEncryptionFailed indicates the cipher or randomness source failed.
	KindEncryptionFailed ErrorKind = "ENCRYPTION_FAILED"

	// KindConnectivity indicates an engine, disk or network failure.
	KindConnectivity ErrorKind = "CONNECTIVITY"

	// KindSerialization indicates malformed persisted data.
	KindSerialization ErrorKind = "SERIALIZATION"
)

// Error is a classified failure. Op names the operation that failed
// ("create identity", "insert", ...).
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Errorf builds a classified error with a formatted cause.
func Errorf(kind ErrorKind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// Wrap classifies err. A nil err returns nil. An err that is already an
// *Error keeps its kind.
func Wrap(kind ErrorKind, op string, err error) error {
	if err == nil {
		return nil
	}
	var se *Error
	if errors.As(err, &se) {
		return err
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the kind of err, or "" if err is not classified.
// Uses errors.As to handle wrapped errors.
func KindOf(err error) ErrorKind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}

// IsRetryable reports whether the caller may retry the operation.
// Only connectivity failures are retryable; semantic failures never are.
func IsRetryable(err error) bool {
	return KindOf(err) == KindConnectivity
}

// IsNotFound returns true if err is a KindNotFound error.
func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }

// IsAlreadyExists returns true if err is a KindAlreadyExists error.
func IsAlreadyExists(err error) bool { return KindOf(err) == KindAlreadyExists }

// IsValidation returns true if err is a KindValidation error.
func IsValidation(err error) bool { return KindOf(err) == KindValidation }

// IsAuthenticationFailed returns true if err is a KindAuthenticationFailed error.
func IsAuthenticationFailed(err error) bool { return KindOf(err) == KindAuthenticationFailed }
