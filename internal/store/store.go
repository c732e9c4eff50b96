package store

import (
	"context"

	"github.com/roach88/thisme/internal/ir"
)

// Store is the backend-neutral contract for identities and verb entries.
// Implementations must be safe for concurrent use.
type Store interface {
	// CreateIdentity persists a new identity. Returns KindAlreadyExists if
	// the username is taken; the check and the write are one statement.
	CreateIdentity(ctx context.Context, username, publicKey, encryptedPrivateKey string) error

	// LoadKeys returns the stored keys for username, or KindNotFound.
	LoadKeys(ctx context.Context, username string) (ir.Keys, error)

	// UpdateEncryptedPrivate replaces the sealed private key in a single
	// statement. Returns KindNotFound if the username does not exist.
	UpdateEncryptedPrivate(ctx context.Context, username, encryptedPrivateKey string) error

	// ListIdentities returns public data for every identity, ordered by
	// username.
	ListIdentities(ctx context.Context) ([]ir.IdentitySummary, error)

	// Insert appends one immutable entry to its verb table. An empty ID
	// is filled with a UUIDv7 and an empty Timestamp with the current time.
	Insert(ctx context.Context, entry ir.Entry) error

	// Get runs a filter and returns the matching entries merged across verb
	// tables, newest first. Limit and offset apply per verb table. Returns
	// an empty slice, not nil, when nothing matches.
	Get(ctx context.Context, f ir.Filter) ([]ir.Entry, error)

	// Close releases the engine's connections.
	Close() error
}
