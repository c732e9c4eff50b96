package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/thisme/internal/keys"
	"github.com/roach88/thisme/internal/store"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, BackendSQLite, cfg.Backend)
	assert.Equal(t, "me.db", filepath.Base(cfg.SQLite.Path))
	assert.Equal(t, keys.DefaultKDFParams, cfg.KDF)
	require.NoError(t, cfg.Validate())
}

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(`
backend: postgres
postgres:
  dsn: postgres://me@localhost/me
  max_conns: 8
kdf:
  time: 2
  memory_kib: 1024
  threads: 2
log:
  level: debug
`))
	require.NoError(t, err)
	assert.Equal(t, BackendPostgres, cfg.Backend)
	assert.Equal(t, "postgres://me@localhost/me", cfg.Postgres.DSN)
	assert.Equal(t, int32(8), cfg.Postgres.MaxConns)
	assert.Equal(t, keys.KDFParams{Time: 2, MemoryKiB: 1024, Threads: 2}, cfg.KDF)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "postgres", cfg.String(), "dsn never printed")
}

func TestParse_EmptyKeepsDefaults(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParse_PartialOverride(t *testing.T) {
	cfg, err := Parse([]byte("sqlite:\n  path: /tmp/other.db\n"))
	require.NoError(t, err)
	assert.Equal(t, "/tmp/other.db", cfg.SQLite.Path)
	assert.Equal(t, keys.DefaultKDFParams, cfg.KDF)
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown field", "backnd: sqlite\n"},
		{"unknown backend", "backend: mysql\n"},
		{"postgres without dsn", "backend: postgres\n"},
		{"empty sqlite path", "sqlite:\n  path: \"\"\n"},
		{"zero kdf time", "kdf:\n  time: 0\n  memory_kib: 1024\n  threads: 1\n"},
		{"tiny kdf memory", "kdf:\n  time: 1\n  memory_kib: 4\n  threads: 1\n"},
		{"bad log level", "log:\n  level: loud\n"},
		{"negative max conns", "postgres:\n  max_conns: -1\n"},
		{"malformed", "backend: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sqlite:\n  path: /from/file.db\n"), 0o600))

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "/from/file.db", cfg.SQLite.Path)

	cfg, err = Load(path, envMap(map[string]string{EnvSQLitePath: "/from/env.db"}))
	require.NoError(t, err)
	assert.Equal(t, "/from/env.db", cfg.SQLite.Path)

	cfg, err = Load("", envMap(map[string]string{
		EnvBackend:     "POSTGRES",
		EnvPostgresDSN: "postgres://localhost/me",
	}))
	require.NoError(t, err)
	assert.Equal(t, BackendPostgres, cfg.Backend)
	assert.Equal(t, "postgres://localhost/me", cfg.Postgres.DSN)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	assert.Error(t, err)
}

func TestLogLevel(t *testing.T) {
	for level, want := range map[string]string{
		"debug": "DEBUG",
		"info":  "INFO",
		"warn":  "WARN",
		"error": "ERROR",
		"":      "INFO",
	} {
		cfg := Config{Log: LogConfig{Level: level}}
		assert.Equal(t, want, cfg.LogLevel().String(), level)
	}
}

func TestOpen_SQLiteCreatesDirectory(t *testing.T) {
	cfg := Default()
	cfg.SQLite.Path = filepath.Join(t.TempDir(), "nested", "dir", "me.db")

	s, err := Open(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(cfg.SQLite.Path)
	assert.NoError(t, err)

	list, err := s.ListIdentities(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestOpen_UnknownBackend(t *testing.T) {
	_, err := Open(context.Background(), Config{Backend: "mysql"}, nil)
	assert.True(t, store.IsValidation(err), "got %v", err)
}

func TestOpen_PostgresBadDSN(t *testing.T) {
	cfg := Default()
	cfg.Backend = BackendPostgres
	cfg.Postgres.DSN = "postgres://%zz"

	_, err := Open(context.Background(), cfg, nil)
	assert.True(t, store.IsValidation(err), "got %v", err)
}
