package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/roach88/thisme/internal/ir"
	"github.com/roach88/thisme/internal/queryir"
	"github.com/roach88/thisme/internal/store"
)

// LoadKeys retrieves the keys for a username, or KindNotFound.
func (s *Store) LoadKeys(ctx context.Context, username string) (ir.Keys, error) {
	const op = "load keys"

	var k ir.Keys
	err := s.pool.QueryRow(ctx, `
		SELECT public_key, encrypted_private_key, created_at
		FROM me.identities
		WHERE username = $1
	`, username).Scan(&k.PublicKey, &k.EncryptedPrivateKey, &k.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ir.Keys{}, store.Errorf(store.KindNotFound, op, "identity %q not found", username)
	}
	if err != nil {
		return ir.Keys{}, classify(op, err)
	}
	return k, nil
}

// ListIdentities returns public data for every identity ordered by username.
func (s *Store) ListIdentities(ctx context.Context) ([]ir.IdentitySummary, error) {
	const op = "list identities"

	rows, err := s.pool.Query(ctx, `
		SELECT username, public_key, created_at
		FROM me.identities
		ORDER BY username COLLATE "C" ASC
	`)
	if err != nil {
		return nil, classify(op, err)
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (ir.IdentitySummary, error) {
		var sum ir.IdentitySummary
		err := row.Scan(&sum.Username, &sum.PublicKey, &sum.CreatedAt)
		return sum, err
	})
	if err != nil {
		return nil, classify(op, err)
	}
	if out == nil {
		out = []ir.IdentitySummary{}
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

func (s *Store) runSelect(ctx context.Context, sel queryir.Select) ([]ir.Entry, error) {
	query, args, err := s.compiler.Compile(sel)
	if err != nil {
		return nil, store.Wrap(store.KindValidation, "compile", err)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (ir.Entry, error) {
		e := ir.Entry{Verb: sel.Verb}
		dest, err := store.ScanTargets(&e, sel)
		if err != nil {
			return ir.Entry{}, err
		}
		if err := row.Scan(dest...); err != nil {
			return ir.Entry{}, store.Wrap(store.KindSerialization, "scan", err)
		}
		return e, nil
	})
}
