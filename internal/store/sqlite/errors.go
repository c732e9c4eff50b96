package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/mattn/go-sqlite3"

	"github.com/roach88/thisme/internal/store"
)

// classify maps a driver error onto the store taxonomy.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if store.KindOf(err) != "" {
		return err
	}
	if errors.Is(err, sql.ErrNoRows) {
		return store.Wrap(store.KindNotFound, op, err)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return store.Wrap(store.KindConnectivity, op, err)
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.ExtendedCode {
		case sqlite3.ErrConstraintPrimaryKey, sqlite3.ErrConstraintUnique:
			return store.Wrap(store.KindAlreadyExists, op, err)
		}
		switch sqliteErr.Code {
		case sqlite3.ErrConstraint, sqlite3.ErrMismatch, sqlite3.ErrRange:
			return store.Wrap(store.KindValidation, op, err)
		case sqlite3.ErrCorrupt, sqlite3.ErrNotADB, sqlite3.ErrFormat:
			return store.Wrap(store.KindSerialization, op, err)
		}
	}
	return store.Wrap(store.KindConnectivity, op, err)
}
