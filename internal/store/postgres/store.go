package postgres

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/roach88/thisme/internal/ir"
	"github.com/roach88/thisme/internal/querysql"
	"github.com/roach88/thisme/internal/store"
)

//go:embed schema.sql
var schemaSQL string

// Schema is the PostgreSQL schema holding every table.
const Schema = "me"

// Options tune the connection pool. Zero values keep pgxpool defaults.
type Options struct {
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	Logger          *slog.Logger
}

// Store is the networked ledger engine. Operations are multiplexed over a
// pgx connection pool and are safe for concurrent use.
type Store struct {
	pool     *pgxpool.Pool
	compiler querysql.Compiler
	now      func() time.Time
	logger   *slog.Logger
}

var _ store.Store = (*Store)(nil)

// Open connects to dsn, verifies the server is reachable and applies the
// schema. Safe to call against an already initialized database.
//
// The JSON field filter needs PostgreSQL 16 or newer (IS JSON).
func Open(ctx context.Context, dsn string, opts Options) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, store.Wrap(store.KindValidation, "open", fmt.Errorf("parse dsn: %w", err))
	}
	if opts.MaxConns > 0 {
		cfg.MaxConns = opts.MaxConns
	}
	if opts.MinConns > 0 {
		cfg.MinConns = opts.MinConns
	}
	if opts.MaxConnLifetime > 0 {
		cfg.MaxConnLifetime = opts.MaxConnLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, classify("open", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, classify("open", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Store{
		pool:     pool,
		compiler: querysql.Compiler{Dialect: querysql.DialectPostgres, Schema: Schema},
		now:      time.Now,
		logger:   logger,
	}
	if err := s.applySchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// Close releases every pooled connection.
func (s *Store) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

// Pool exposes the pool for tests and administrative queries.
func (s *Store) Pool() *pgxpool.Pool {
	return s.pool
}

func (s *Store) newID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

func (s *Store) timestamp() string {
	return ir.FormatTimestamp(s.now())
}

// applySchema runs the idempotent DDL and installs append-only triggers.
// A transaction-scoped advisory lock serializes concurrent first opens.
func (s *Store) applySchema(ctx context.Context) error {
	const op = "apply schema"

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return classify(op, err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended('thisme.schema', 0))`); err != nil {
		return classify(op, err)
	}
	if _, err := tx.Exec(ctx, schemaSQL); err != nil {
		return classify(op, err)
	}

	for _, v := range ir.AllVerbs {
		table, err := ir.TableFor(v)
		if err != nil {
			return store.Wrap(store.KindValidation, op, err)
		}
		stmt := fmt.Sprintf(
			`CREATE OR REPLACE TRIGGER "%s_append_only" BEFORE UPDATE OR DELETE ON %s."%s" `+
				`FOR EACH ROW EXECUTE FUNCTION %s.reject_ledger_mutation()`,
			table.Name, Schema, table.Name, Schema)
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return classify(op, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return classify(op, err)
	}
	s.logger.Debug("postgres schema ready", "schema", Schema)
	return nil
}
