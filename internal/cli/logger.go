package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/mrz1836/adopt/internal/constants"
	"github.com/mrz1836/adopt/internal/logging"
)

// logFileWriter holds the log file writer so it can be closed on shutdown.
var logFileWriter io.WriteCloser //nolint:gochecknoglobals // Needed for cleanup

// logFileMu protects logFileWriter.
var logFileMu sync.Mutex //nolint:gochecknoglobals // Protects logFileWriter

// zerologGlobalMu protects concurrent writes to the zerolog global logger.
var zerologGlobalMu sync.Mutex //nolint:gochecknoglobals // Protects zerolog global

// InitLogger creates a zerolog.Logger based on verbosity flags.
//
// Log levels are set as follows:
//   - verbose=true: Debug level (most detailed)
//   - quiet=true: Warn level (errors and warnings only)
//   - default: Info level (normal operation)
//
// Console output uses the pretty writer on a TTY without NO_COLOR and JSON on
// stderr otherwise. When logDir is not empty, entries are also written to
// logDir/adopt.log with rotation and credential redaction. A log file that
// cannot be opened is skipped.
func InitLogger(verbose, quiet bool, logDir string) zerolog.Logger {
	var writer io.Writer = selectOutput()

	if logDir != "" {
		fileWriter, err := createLogFileWriter(logDir)
		if err == nil {
			setLogFileWriter(fileWriter)
			writer = zerolog.MultiLevelWriter(writer, fileWriter)
		}
	}

	logger := buildLogger(selectLevel(verbose, quiet), writer)
	setGlobalLogger(logger)
	return logger
}

// InitLoggerWithWriter creates a logger writing only to w.
// This is primarily intended for testing purposes.
func InitLoggerWithWriter(verbose, quiet bool, w io.Writer) zerolog.Logger {
	logger := buildLogger(selectLevel(verbose, quiet), w)
	setGlobalLogger(logger)
	return logger
}

func buildLogger(level zerolog.Level, w io.Writer) zerolog.Logger {
	return zerolog.New(w).
		Level(level).
		Hook(logging.NewSensitiveDataHook()).
		With().Timestamp().Logger()
}

// setGlobalLogger points the zerolog/log package logger at the CLI logger.
func setGlobalLogger(cliLogger zerolog.Logger) {
	zerologGlobalMu.Lock()
	defer zerologGlobalMu.Unlock()
	log.Logger = cliLogger
}

func setLogFileWriter(w io.WriteCloser) {
	logFileMu.Lock()
	defer logFileMu.Unlock()
	if logFileWriter != nil {
		_ = logFileWriter.Close()
	}
	logFileWriter = w
}

// CloseLogFile closes the log file writer if it was opened.
func CloseLogFile() {
	setLogFileWriter(nil)
}

// selectLevel determines the appropriate log level based on flags.
func selectLevel(verbose, quiet bool) zerolog.Level {
	switch {
	case verbose:
		return zerolog.DebugLevel
	case quiet:
		return zerolog.WarnLevel
	default:
		return zerolog.InfoLevel
	}
}

// selectOutput determines the console writer from terminal capabilities.
func selectOutput() io.Writer {
	if term.IsTerminal(int(os.Stderr.Fd())) && os.Getenv("NO_COLOR") == "" {
		return zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.Kitchen,
		}
	}
	return os.Stderr
}

// createLogFileWriter creates a rotating, redacting writer for the CLI log.
func createLogFileWriter(logDir string) (io.WriteCloser, error) {
	if err := os.MkdirAll(logDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	lj := &lumberjack.Logger{
		Filename:   filepath.Join(logDir, constants.CLILogFileName),
		MaxSize:    constants.LogMaxSizeMB,
		MaxBackups: constants.LogMaxBackups,
		MaxAge:     constants.LogMaxAgeDays,
		Compress:   constants.LogCompress,
	}
	return logging.NewFilteringWriteCloser(lj), nil
}
