package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/thisme/internal/ir"
	"github.com/roach88/thisme/internal/store"
)

// CreateIdentity inserts a new identity row. The PRIMARY KEY on username
// makes the existence check and the write a single atomic statement.
func (s *Store) CreateIdentity(ctx context.Context, username, publicKey, encryptedPrivateKey string) error {
	const op = "create identity"

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO identities (username, public_key, encrypted_private_key, created_at)
		VALUES (?, ?, ?, ?)
	`, username, publicKey, encryptedPrivateKey, s.timestamp())
	if err != nil {
		err = classify(op, err)
		if store.IsAlreadyExists(err) {
			return store.Errorf(store.KindAlreadyExists, op, "identity %q already exists", username)
		}
		return err
	}
	return nil
}

// UpdateEncryptedPrivate overwrites the sealed private key in one UPDATE.
// A failed statement leaves the previous blob in place.
func (s *Store) UpdateEncryptedPrivate(ctx context.Context, username, encryptedPrivateKey string) error {
	const op = "update encrypted private key"

	res, err := s.db.ExecContext(ctx, `
		UPDATE identities SET encrypted_private_key = ? WHERE username = ?
	`, encryptedPrivateKey, username)
	if err != nil {
		return classify(op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return classify(op, err)
	}
	if n == 0 {
		return store.Errorf(store.KindNotFound, op, "identity %q not found", username)
	}
	return nil
}

// Insert appends one verb entry with a single INSERT statement.
func (s *Store) Insert(ctx context.Context, entry ir.Entry) error {
	const op = "insert"

	e, table, err := store.PrepareEntry(entry, s.newID, s.timestamp)
	if err != nil {
		return err
	}

	cols := table.Columns()
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = `"` + c + `"`
	}
	stmt := fmt.Sprintf(`INSERT INTO "%s" (%s) VALUES (%s)`,
		table.Name,
		strings.Join(quoted, ", "),
		strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", "))

	if _, err := s.db.ExecContext(ctx, stmt, table.InsertValues(e)...); err != nil {
		return classify(op, err)
	}
	return nil
}
