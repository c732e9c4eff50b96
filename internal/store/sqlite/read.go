package sqlite

import (
	"context"
	"database/sql"

	"github.com/roach88/thisme/internal/ir"
	"github.com/roach88/thisme/internal/queryir"
	"github.com/roach88/thisme/internal/store"
)

// LoadKeys retrieves the keys for a username.
// Returns a KindNotFound error if the identity does not exist.
func (s *Store) LoadKeys(ctx context.Context, username string) (ir.Keys, error) {
	const op = "load keys"

	var k ir.Keys
	err := s.db.QueryRowContext(ctx, `
		SELECT public_key, encrypted_private_key, created_at
		FROM identities
		WHERE username = ?
	`, username).Scan(&k.PublicKey, &k.EncryptedPrivateKey, &k.CreatedAt)
	if err == sql.ErrNoRows {
		return ir.Keys{}, store.Errorf(store.KindNotFound, op, "identity %q not found", username)
	}
	if err != nil {
		return ir.Keys{}, classify(op, err)
	}
	return k, nil
}

// ListIdentities returns public data for every identity ordered by username.
//
// Returns an empty slice (not nil) if no identities exist.
func (s *Store) ListIdentities(ctx context.Context) ([]ir.IdentitySummary, error) {
	const op = "list identities"

	rows, err := s.db.QueryContext(ctx, `
		SELECT username, public_key, created_at
		FROM identities
		ORDER BY username COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, classify(op, err)
	}
	defer rows.Close()

	out := []ir.IdentitySummary{}
	for rows.Next() {
		var sum ir.IdentitySummary
		if err := rows.Scan(&sum.Username, &sum.PublicKey, &sum.CreatedAt); err != nil {
			return nil, classify(op, err)
		}
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(op, err)
	}
	return out, nil
}

// Get plans the filter, runs one query per verb table and merges the
// results newest first.
func (s *Store) Get(ctx context.Context, f ir.Filter) ([]ir.Entry, error) {
	const op = "get"

	selects, err := queryir.Plan(f)
	if err != nil {
		return nil, store.Wrap(store.KindValidation, op, err)
	}

	perVerb := make([][]ir.Entry, 0, len(selects))
	for _, sel := range selects {
		entries, err := s.runSelect(ctx, sel)
		if err != nil {
			return nil, classify(op, err)
		}
		perVerb = append(perVerb, entries)
	}
	return store.MergeEntries(perVerb...), nil
}

// runSelect executes one planned Select. Column order is the table's
// Columns(): id, context_id, key, [target], value column, timestamp.
func (s *Store) runSelect(ctx context.Context, sel queryir.Select) ([]ir.Entry, error) {
	query, args, err := s.compiler.Compile(sel)
	if err != nil {
		return nil, store.Wrap(store.KindValidation, "compile", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []ir.Entry
	for rows.Next() {
		e, err := scanEntry(rows, sel)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func scanEntry(rows *sql.Rows, sel queryir.Select) (ir.Entry, error) {
	e := ir.Entry{Verb: sel.Verb}
	dest, err := store.ScanTargets(&e, sel)
	if err != nil {
		return ir.Entry{}, err
	}
	if err := rows.Scan(dest...); err != nil {
		return ir.Entry{}, store.Wrap(store.KindSerialization, "scan", err)
	}
	return e, nil
}
