// Package config loads runtime configuration and opens the configured
// store backend.
//
// Configuration is resolved in three layers, later layers winning:
//
//  1. Default(): SQLite at ~/.this/me/me.db with production KDF costs
//  2. A YAML file, decoded strictly (unknown fields are errors)
//  3. THISME_BACKEND, THISME_SQLITE_PATH and THISME_POSTGRES_DSN
//
// The merged result is checked against an embedded CUE schema
// (schema.cue) before it is used.
package config
