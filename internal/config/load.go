package config

import (
	"context"
	stderrors "errors"
	"os"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/mrz1836/adopt/internal/constants"
	"github.com/mrz1836/adopt/internal/errors"
)

// newViperInstance creates a new Viper instance with the adopt environment
// prefix (ADOPT_), key replacer, and defaults.
func newViperInstance() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// isConfigNotFoundError returns true if the error is a viper config file not found error.
func isConfigNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	var configNotFoundErr viper.ConfigFileNotFoundError
	return stderrors.As(err, &configNotFoundErr)
}

// unmarshalAndValidate unmarshals viper config into Config struct and validates it.
func unmarshalAndValidate(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg, viperDecoderOption()); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	if err := Validate(&cfg); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return &cfg, nil
}

// Load reads configuration from all available sources with proper precedence.
// Missing config files are not an error.
func Load(ctx context.Context) (*Config, error) {
	v := newViperInstance()

	if err := loadGlobalConfig(v); err != nil {
		return nil, err
	}
	if err := loadProjectConfig(v); err != nil {
		return nil, err
	}

	cfg, err := unmarshalAndValidate(v)
	if err != nil {
		return nil, err
	}

	logger := zerolog.Ctx(ctx).With().Str("component", "config").Logger()
	logger.Debug().
		Str("storage.backend", cfg.Storage.Backend).
		Str("lock.backend", cfg.Lock.Backend).
		Dur("lock.timeout", cfg.Lock.Timeout).
		Int("telemetry.max_batch_rows", cfg.Telemetry.MaxBatchRows).
		Msg("configuration loaded")

	return cfg, nil
}

// loadGlobalConfig reads ~/.adopt/config.yaml when it exists.
func loadGlobalConfig(v *viper.Viper) error {
	path, err := GlobalConfigPath()
	if err != nil || !fileExists(path) {
		return nil //nolint:nilerr // an unknown home directory just means no global config
	}

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil && !isConfigNotFoundError(err) {
		return errors.Wrap(err, "failed to read global config file")
	}
	return nil
}

// loadProjectConfig merges .adopt/config.yaml when it exists.
func loadProjectConfig(v *viper.Viper) error {
	path := ProjectConfigPath()
	if !fileExists(path) {
		return nil
	}

	v.SetConfigFile(path)
	if err := v.MergeInConfig(); err != nil && !isConfigNotFoundError(err) {
		return errors.Wrap(err, "failed to read project config file")
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// LoadWithOverrides loads configuration and applies CLI flag overrides.
// Only non-zero values in overrides are applied.
func LoadWithOverrides(ctx context.Context, overrides *Config) (*Config, error) {
	cfg, err := Load(ctx)
	if err != nil {
		return nil, err
	}

	if overrides != nil {
		applyOverrides(cfg, overrides)
	}

	if err := Validate(cfg); err != nil {
		return nil, errors.Wrap(err, "invalid configuration after overrides")
	}
	return cfg, nil
}

// LoadFromPaths loads configuration from specific file paths. Either path
// can be empty to skip that level. Environment variables still apply.
func LoadFromPaths(_ context.Context, projectConfigPath, globalConfigPath string) (*Config, error) {
	v := newViperInstance()

	if globalConfigPath != "" {
		v.SetConfigFile(globalConfigPath)
		if err := v.ReadInConfig(); err != nil && !isConfigNotFoundError(err) && !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "failed to read global config: %s", globalConfigPath)
		}
	}

	if projectConfigPath != "" {
		v.SetConfigFile(projectConfigPath)
		if err := v.MergeInConfig(); err != nil && !isConfigNotFoundError(err) && !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "failed to read project config: %s", projectConfigPath)
		}
	}

	return unmarshalAndValidate(v)
}

// setDefaults configures all default values on the Viper instance.
// Keys must match the mapstructure tags exactly so AutomaticEnv can see them.
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()

	v.SetDefault("home", d.Home)

	v.SetDefault("storage.backend", d.Storage.Backend)
	v.SetDefault("storage.dir", d.Storage.Dir)
	v.SetDefault("storage.sqlite_path", d.Storage.SQLitePath)

	v.SetDefault("lock.backend", d.Lock.Backend)
	v.SetDefault("lock.redis_addr", d.Lock.RedisAddr)
	v.SetDefault("lock.redis_password", d.Lock.RedisPassword)
	v.SetDefault("lock.redis_db", d.Lock.RedisDB)
	v.SetDefault("lock.ttl", d.Lock.TTL.String())
	v.SetDefault("lock.timeout", d.Lock.Timeout.String())
	v.SetDefault("lock.retry_interval", d.Lock.RetryInterval.String())

	v.SetDefault("catalog.path", d.Catalog.Path)

	v.SetDefault("telemetry.auto_complete_note", d.Telemetry.AutoCompleteNote)
	v.SetDefault("telemetry.max_batch_rows", d.Telemetry.MaxBatchRows)
}

// applyOverrides merges non-zero override values into the config.
func applyOverrides(cfg, overrides *Config) {
	if overrides.Home != "" {
		cfg.Home = overrides.Home
	}
	if overrides.Storage.Backend != "" {
		cfg.Storage.Backend = overrides.Storage.Backend
	}
	if overrides.Storage.Dir != "" {
		cfg.Storage.Dir = overrides.Storage.Dir
	}
	if overrides.Storage.SQLitePath != "" {
		cfg.Storage.SQLitePath = overrides.Storage.SQLitePath
	}
	if overrides.Lock.Backend != "" {
		cfg.Lock.Backend = overrides.Lock.Backend
	}
	if overrides.Lock.RedisAddr != "" {
		cfg.Lock.RedisAddr = overrides.Lock.RedisAddr
	}
	if overrides.Lock.Timeout != 0 {
		cfg.Lock.Timeout = overrides.Lock.Timeout
	}
	if overrides.Catalog.Path != "" {
		cfg.Catalog.Path = overrides.Catalog.Path
	}
}

// viperDecoderOption configures mapstructure to decode durations from strings.
func viperDecoderOption() viper.DecoderConfigOption {
	return viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
		),
	)
}
