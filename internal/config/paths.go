package config

import (
	"os"
	"path/filepath"

	"github.com/mrz1836/adopt/internal/constants"
	"github.com/mrz1836/adopt/internal/errors"
)

// HomeDir returns the adopt data directory: $ADOPT_HOME when set,
// otherwise ~/.adopt.
func HomeDir() (string, error) {
	if home := os.Getenv(constants.EnvHome); home != "" {
		return home, nil
	}
	userHome, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to get home directory")
	}
	return filepath.Join(userHome, constants.AdoptHome), nil
}

// GlobalConfigPath returns the full path to the global configuration file.
func GlobalConfigPath() (string, error) {
	dir, err := HomeDir()
	if err != nil {
		return "", errors.Wrap(err, "get global config path")
	}
	return filepath.Join(dir, constants.GlobalConfigName), nil
}

// ProjectConfigPath returns the relative path to the project configuration file.
// This is always .adopt/config.yaml relative to the working directory.
func ProjectConfigPath() string {
	return filepath.Join(constants.AdoptHome, constants.GlobalConfigName)
}

// ResolvedHome returns cfg.Home, falling back to HomeDir.
func (c *Config) ResolvedHome() (string, error) {
	if c.Home != "" {
		return c.Home, nil
	}
	return HomeDir()
}

// StorageDir returns the file store root.
func (c *Config) StorageDir() (string, error) {
	if c.Storage.Dir != "" {
		return c.Storage.Dir, nil
	}
	return c.ResolvedHome()
}

// SQLitePath returns the sqlite database file.
func (c *Config) SQLitePath() (string, error) {
	if c.Storage.SQLitePath != "" {
		return c.Storage.SQLitePath, nil
	}
	dir, err := c.StorageDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, constants.SQLiteFileName), nil
}

// CatalogPath returns the template catalog file.
func (c *Config) CatalogPath() (string, error) {
	if c.Catalog.Path != "" {
		return c.Catalog.Path, nil
	}
	home, err := c.ResolvedHome()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, constants.CatalogFileName), nil
}

// LogDir returns the directory for the rotating CLI log.
func (c *Config) LogDir() (string, error) {
	home, err := c.ResolvedHome()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, constants.LogsDir), nil
}
