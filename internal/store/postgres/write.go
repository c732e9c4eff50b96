package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/thisme/internal/ir"
	"github.com/roach88/thisme/internal/store"
)

// CreateIdentity inserts a new identity. A unique violation on username
// reports KindAlreadyExists.
func (s *Store) CreateIdentity(ctx context.Context, username, publicKey, encryptedPrivateKey string) error {
	const op = "create identity"

	_, err := s.pool.Exec(ctx, `
		INSERT INTO me.identities (username, public_key, encrypted_private_key, created_at)
		VALUES ($1, $2, $3, $4)
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
func (s *Store) UpdateEncryptedPrivate(ctx context.Context, username, encryptedPrivateKey string) error {
	const op = "update encrypted private key"

	tag, err := s.pool.Exec(ctx, `
		UPDATE me.identities SET encrypted_private_key = $1 WHERE username = $2
	`, encryptedPrivateKey, username)
	if err != nil {
		return classify(op, err)
	}
	if tag.RowsAffected() == 0 {
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
	placeholders := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = `"` + c + `"`
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	stmt := fmt.Sprintf(`INSERT INTO %s."%s" (%s) VALUES (%s)`,
		Schema, table.Name, strings.Join(quoted, ", "), strings.Join(placeholders, ", "))

	if _, err := s.pool.Exec(ctx, stmt, table.InsertValues(e)...); err != nil {
		return classify(op, err)
	}
	return nil
}
