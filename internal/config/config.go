package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/roach88/thisme/internal/keys"
)

//go:embed schema.cue
var schemaCUE string

// Backend names a store engine.
type Backend string

const (
	BackendSQLite   Backend = "sqlite"
	BackendPostgres Backend = "postgres"
)

// Environment variables that override file settings.
const (
	EnvBackend     = "THISME_BACKEND"
	EnvSQLitePath  = "THISME_SQLITE_PATH"
	EnvPostgresDSN = "THISME_POSTGRES_DSN"
)

// Config is the full runtime configuration.
type Config struct {
	Backend  Backend        `yaml:"backend" json:"backend"`
	SQLite   SQLiteConfig   `yaml:"sqlite" json:"sqlite"`
	Postgres PostgresConfig `yaml:"postgres" json:"postgres"`
	KDF      keys.KDFParams `yaml:"kdf" json:"kdf"`
	Log      LogConfig      `yaml:"log" json:"log"`
}

// SQLiteConfig configures the embedded engine.
type SQLiteConfig struct {
	Path string `yaml:"path" json:"path"`
}

// PostgresConfig configures the networked engine.
type PostgresConfig struct {
	DSN      string `yaml:"dsn" json:"dsn"`
	MaxConns int32  `yaml:"max_conns" json:"max_conns"`
}

// LogConfig configures the default slog handler.
type LogConfig struct {
	Level string `yaml:"level" json:"level"`
}

// DefaultDir returns ~/.this/me, the home of the default database.
// Falls back to a relative .this/me when the home directory is unknown.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".this", "me")
	}
	return filepath.Join(home, ".this", "me")
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Backend: BackendSQLite,
		SQLite:  SQLiteConfig{Path: filepath.Join(DefaultDir(), "me.db")},
		KDF:     keys.DefaultKDFParams,
		Log:     LogConfig{Level: "info"},
	}
}

// Load resolves the configuration. An empty path skips the file layer.
// getenv is usually os.Getenv; nil skips the environment layer.
func Load(path string, getenv func(string) string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := decode(data, &cfg); err != nil {
			return Config{}, err
		}
	}

	if getenv != nil {
		cfg.ApplyEnv(getenv)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Parse decodes YAML over Default and validates the result. The
// environment is not consulted.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := decode(data, &cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decode(data []byte, cfg *Config) error {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}
	return nil
}

// ApplyEnv overrides fields from the THISME_* variables that are set.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv(EnvBackend); v != "" {
		c.Backend = Backend(strings.ToLower(v))
	}
	if v := getenv(EnvSQLitePath); v != "" {
		c.SQLite.Path = v
	}
	if v := getenv(EnvPostgresDSN); v != "" {
		c.Postgres.DSN = v
	}
}

// Validate checks c against the embedded CUE schema.
func (c Config) Validate() error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compiling config schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))

	value := ctx.Encode(c)
	if err := value.Err(); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := def.Unify(value).Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// LogLevel returns the slog level for c.Log.Level. Unknown names map to
// info.
func (c Config) LogLevel() slog.Level {
	switch strings.ToLower(c.Log.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
