package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/roach88/thisme/internal/store"
)

// SQLSTATE codes the store distinguishes.
const (
	codeUniqueViolation   = "23505"
	codeInvalidTextRep    = "22P02"
	codeInvalidJSONText   = "22032"
	codeUndefinedDatabase = "3D000"
)

// classify maps a pgx error onto the store taxonomy. Server-reported
// semantic failures are never retryable; everything that did not reach a
// SQL verdict is connectivity.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if store.KindOf(err) != "" {
		return err
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return store.Wrap(store.KindNotFound, op, err)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return store.Wrap(store.KindConnectivity, op, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			return store.Wrap(store.KindAlreadyExists, op, err)
		case codeInvalidTextRep, codeInvalidJSONText:
			return store.Wrap(store.KindSerialization, op, err)
		case codeUndefinedDatabase:
			return store.Wrap(store.KindConnectivity, op, err)
		}
		switch pgErr.Code[:2] {
		case "22", "23", "42":
			// data exception, integrity constraint, syntax or access rule
			return store.Wrap(store.KindValidation, op, err)
		case "08", "53", "57":
			// connection exception, insufficient resources, operator intervention
			return store.Wrap(store.KindConnectivity, op, err)
		}
	}
	return store.Wrap(store.KindConnectivity, op, err)
}
