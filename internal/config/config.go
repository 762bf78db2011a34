// Package config provides configuration management for adopt with layered precedence.
//
// Configuration sources are loaded in the following order (highest precedence first):
//  1. CLI flags (passed via LoadWithOverrides)
//  2. Environment variables (ADOPT_* prefix, e.g. ADOPT_STORAGE_BACKEND)
//  3. Project config (.adopt/config.yaml)
//  4. Global config (~/.adopt/config.yaml)
//  5. Built-in defaults
//
// Each higher level completely overrides the lower level for the same key.
//
// IMPORTANT: This package may import internal/constants and internal/errors,
// but MUST NOT import internal/domain or other internal packages.
package config

import "time"

// Storage backends.
const (
	StorageBackendFile   = "file"
	StorageBackendSQLite = "sqlite"
)

// Lock backends.
const (
	LockBackendLocal = "local"
	LockBackendRedis = "redis"
)

// Config is the root configuration structure for adopt.
type Config struct {
	// Home is the adopt data directory. Empty means $ADOPT_HOME or ~/.adopt.
	Home string `yaml:"home" mapstructure:"home"`

	// Storage selects where adoption plans are persisted.
	Storage StorageConfig `yaml:"storage" mapstructure:"storage"`

	// Lock selects how concurrent writers to one plan are serialized.
	Lock LockConfig `yaml:"lock" mapstructure:"lock"`

	// Catalog locates the product and solution template catalog.
	Catalog CatalogConfig `yaml:"catalog" mapstructure:"catalog"`

	// Telemetry tunes telemetry imports.
	Telemetry TelemetryConfig `yaml:"telemetry" mapstructure:"telemetry"`
}

// StorageConfig contains persistence settings.
type StorageConfig struct {
	// Backend is "file" (one JSON document per plan) or "sqlite".
	// Default: "file"
	Backend string `yaml:"backend" mapstructure:"backend"`

	// Dir is the root of the file store. Empty means the adopt home.
	Dir string `yaml:"dir" mapstructure:"dir"`

	// SQLitePath is the database file. Empty means <home>/adopt.db.
	SQLitePath string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
}

// LockConfig contains per-plan lock settings.
type LockConfig struct {
	// Backend is "local" (in-process) or "redis" (shared between processes).
	// Default: "local"
	Backend string `yaml:"backend" mapstructure:"backend"`

	// RedisAddr is host:port of the redis server for the redis backend.
	RedisAddr string `yaml:"redis_addr" mapstructure:"redis_addr"`

	// RedisPassword authenticates to redis. Prefer ADOPT_LOCK_REDIS_PASSWORD
	// over writing it to a config file.
	RedisPassword string `yaml:"redis_password" mapstructure:"redis_password"`

	// RedisDB selects the redis logical database.
	RedisDB int `yaml:"redis_db" mapstructure:"redis_db"`

	// TTL bounds how long a redis lock outlives a crashed holder.
	// Default: 30s
	TTL time.Duration `yaml:"ttl" mapstructure:"ttl"`

	// Timeout is how long an operation waits for a plan lock.
	// Default: 5s
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// RetryInterval is the pause between lock attempts.
	// Default: 50ms
	RetryInterval time.Duration `yaml:"retry_interval" mapstructure:"retry_interval"`
}

// CatalogConfig contains template catalog settings.
type CatalogConfig struct {
	// Path is the YAML or JSON catalog. Empty means <home>/catalog.yaml.
	Path string `yaml:"path" mapstructure:"path"`
}

// TelemetryConfig contains telemetry import settings.
type TelemetryConfig struct {
	// AutoCompleteNote is recorded on tasks completed by telemetry.
	AutoCompleteNote string `yaml:"auto_complete_note" mapstructure:"auto_complete_note"`

	// MaxBatchRows rejects larger import batches.
	// Default: 50000
	MaxBatchRows int `yaml:"max_batch_rows" mapstructure:"max_batch_rows"`
}
