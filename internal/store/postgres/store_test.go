package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/thisme/internal/ir"
	"github.com/roach88/thisme/internal/store"
	"github.com/roach88/thisme/internal/store/storetest"
)

// dsnEnv names the variable holding a disposable PostgreSQL 16+ database.
// Tests truncate every table in schema me.
const dsnEnv = "THISME_TEST_POSTGRES_DSN"

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv(dsnEnv)
	if dsn == "" {
		t.Skipf("%s not set", dsnEnv)
	}

	ctx := context.Background()
	s, err := Open(ctx, dsn, Options{MaxConns: 4})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	tables := []string{"me.identities"}
	for _, v := range ir.AllVerbs {
		table, err := ir.TableFor(v)
		require.NoError(t, err)
		tables = append(tables, "me."+table.Name)
	}
	for _, table := range tables {
		_, err := s.Pool().Exec(ctx, "TRUNCATE "+table)
		require.NoError(t, err)
	}
	return s
}

func TestConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		return openTestStore(t)
	})
}

func TestOpen_Idempotent(t *testing.T) {
	openTestStore(t)
	s := openTestStore(t)

	var n int
	err := s.Pool().QueryRow(context.Background(),
		`SELECT count(*) FROM information_schema.tables WHERE table_schema = 'me'`).Scan(&n)
	require.NoError(t, err)
	require.Equal(t, 8, n)
}

func TestAppendOnlyTrigger(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Insert(ctx, ir.Entry{Verb: ir.VerbBe, ContextID: "c", Key: "k", Value: "v"}))

	_, err := s.Pool().Exec(ctx, `UPDATE me.be SET value = 'changed'`)
	require.Error(t, err)
	require.True(t, store.IsValidation(classify("update", err)))

	_, err = s.Pool().Exec(ctx, `DELETE FROM me.be`)
	require.Error(t, err)
}

func TestOpen_BadDSN(t *testing.T) {
	_, err := Open(context.Background(), "postgres://%zz", Options{})
	require.Error(t, err)
	require.True(t, store.IsValidation(err), "got %v", err)
}
