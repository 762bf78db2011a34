package config

import (
	"github.com/mrz1836/adopt/internal/constants"
)

// DefaultConfig returns a new Config with the built-in default values.
// These defaults are the base layer that config files, environment
// variables, and CLI flags override.
func DefaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			Backend: StorageBackendFile,
		},
		Lock: LockConfig{
			Backend:       LockBackendLocal,
			TTL:           constants.DefaultLockTTL,
			Timeout:       constants.DefaultLockTimeout,
			RetryInterval: constants.DefaultLockRetryInterval,
		},
		Telemetry: TelemetryConfig{
			AutoCompleteNote: constants.AutoCompleteNote,
			MaxBatchRows:     constants.DefaultMaxBatchRows,
		},
	}
}
