package constants

// Log file names.
const (
	// CLILogFileName is the name of the global CLI log file.
	// This file is located in ~/.adopt/logs/adopt.log
	CLILogFileName = "adopt.log"

	// LogMaxSizeMB is the size at which the CLI log file is rotated.
	LogMaxSizeMB = 10

	// LogMaxBackups is the number of rotated log files kept on disk.
	LogMaxBackups = 5

	// LogMaxAgeDays is the number of days rotated log files are kept.
	LogMaxAgeDays = 30

	// LogCompress controls gzip compression of rotated log files.
	LogCompress = true
)

// Configuration file names.
const (
	// GlobalConfigName is the name of the global configuration file.
	// This file is located in the adopt home directory.
	GlobalConfigName = "config.yaml"

	// CatalogFileName is the default template catalog file name.
	CatalogFileName = "catalog.yaml"
)

// Environment variables.
const (
	// EnvHome overrides the adopt home directory.
	EnvHome = "ADOPT_HOME"

	// EnvPrefix is the viper environment prefix (ADOPT_STORAGE_BACKEND, ...).
	EnvPrefix = "ADOPT"
)
