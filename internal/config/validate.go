package config

import (
	"github.com/mrz1836/adopt/internal/errors"
)

// Validate checks the configuration for invalid or inconsistent values.
// It returns an error describing the first validation failure found.
//
// Validation rules:
//   - storage.backend must be "file" or "sqlite"
//   - lock.backend must be "local" or "redis"; redis requires lock.redis_addr
//   - lock timeouts must be positive and the retry interval below the timeout
//   - telemetry.max_batch_rows must be positive
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.ErrConfigNil
	}

	if err := validateStorageConfig(&cfg.Storage); err != nil {
		return err
	}
	if err := validateLockConfig(&cfg.Lock); err != nil {
		return err
	}
	return validateTelemetryConfig(&cfg.Telemetry)
}

func validateStorageConfig(cfg *StorageConfig) error {
	switch cfg.Backend {
	case StorageBackendFile, StorageBackendSQLite:
		return nil
	default:
		return errors.Wrapf(errors.ErrConfigInvalidStorage,
			"storage.backend must be %q or %q, got %q", StorageBackendFile, StorageBackendSQLite, cfg.Backend)
	}
}

func validateLockConfig(cfg *LockConfig) error {
	switch cfg.Backend {
	case LockBackendLocal:
	case LockBackendRedis:
		if cfg.RedisAddr == "" {
			return errors.Wrap(errors.ErrConfigInvalidLock,
				"lock.redis_addr is required when lock.backend is redis")
		}
		if cfg.TTL <= 0 {
			return errors.Wrapf(errors.ErrConfigInvalidLock,
				"lock.ttl must be positive, got %s", cfg.TTL)
		}
		if cfg.RedisDB < 0 {
			return errors.Wrapf(errors.ErrConfigInvalidLock,
				"lock.redis_db cannot be negative, got %d", cfg.RedisDB)
		}
	default:
		return errors.Wrapf(errors.ErrConfigInvalidLock,
			"lock.backend must be %q or %q, got %q", LockBackendLocal, LockBackendRedis, cfg.Backend)
	}

	if cfg.Timeout <= 0 {
		return errors.Wrapf(errors.ErrConfigInvalidLock,
			"lock.timeout must be positive, got %s", cfg.Timeout)
	}
	if cfg.RetryInterval <= 0 || cfg.RetryInterval >= cfg.Timeout {
		return errors.Wrapf(errors.ErrConfigInvalidLock,
			"lock.retry_interval must be positive and below lock.timeout, got %s", cfg.RetryInterval)
	}
	return nil
}

func validateTelemetryConfig(cfg *TelemetryConfig) error {
	if cfg.MaxBatchRows < 1 {
		return errors.Wrapf(errors.ErrConfigInvalidTelemetry,
			"telemetry.max_batch_rows must be positive, got %d", cfg.MaxBatchRows)
	}
	return nil
}
