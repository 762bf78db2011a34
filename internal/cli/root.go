// Package cli provides the command-line interface for adopt.
package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mrz1836/adopt/internal/config"
	"github.com/mrz1836/adopt/internal/errors"
	"github.com/mrz1836/adopt/internal/tui"
)

// BuildInfo contains version information set at build time via ldflags.
type BuildInfo struct {
	// Version is the semantic version (e.g., "1.0.0").
	Version string
	// Commit is the git commit hash.
	Commit string
	// Date is the build date.
	Date string
}

// globalLogger stores the logger initialized in PersistentPreRunE.
var (
	globalLogger   zerolog.Logger //nolint:gochecknoglobals // CLI logger requires global access
	globalLoggerMu sync.RWMutex   //nolint:gochecknoglobals // Protects globalLogger
)

// GetLogger returns the initialized logger for use by subcommands.
//
// It MUST only be called after the root command's PersistentPreRunE has
// executed. Before that it returns a zero-value logger that discards output.
func GetLogger() zerolog.Logger {
	globalLoggerMu.RLock()
	defer globalLoggerMu.RUnlock()
	return globalLogger
}

func setGlobalCLILogger(logger zerolog.Logger) {
	globalLoggerMu.Lock()
	globalLogger = logger
	globalLoggerMu.Unlock()
}

// newRootCmd creates and returns the root command for the adopt CLI.
func newRootCmd(flags *GlobalFlags, info BuildInfo) *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "adopt",
		Short: "adopt - customer adoption plan tracking",
		Long: `adopt turns product templates into per-customer adoption plans and
tracks their progress.

A plan holds the template tasks a customer is entitled to by license level,
outcomes, and releases. Task status changes come from people or from
telemetry imports that evaluate each task's success criteria. When a
template or an entitlement changes, 'adopt plan sync' reconciles the plan
without losing progress.`,
		Version: formatVersion(info),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := BindGlobalFlags(v, cmd); err != nil {
				return fmt.Errorf("failed to bind flags: %w", err)
			}
			applyBoundFlags(v, flags)

			if !IsValidOutputFormat(flags.Output) {
				return fmt.Errorf("%w: %q must be one of %v", errors.ErrInvalidOutputFormat, flags.Output, ValidOutputFormats())
			}

			tui.CheckNoColor()
			setGlobalCLILogger(InitLogger(flags.Verbose, flags.Quiet, logDir(flags)))
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	AddGlobalFlags(cmd, flags)

	addTemplateCommand(cmd, flags)
	addPlanCommand(cmd, flags)
	addTaskCommand(cmd, flags)
	addTelemetryCommand(cmd, flags)
	addSolutionCommand(cmd, flags)

	return cmd
}

// logDir resolves the log directory without loading the full config, so
// config problems are still logged. Returns "" when no home is known.
func logDir(flags *GlobalFlags) string {
	cfg := config.DefaultConfig()
	cfg.Home = flags.Home
	dir, err := cfg.LogDir()
	if err != nil {
		return ""
	}
	return dir
}

// formatVersion creates the version string from build info.
func formatVersion(info BuildInfo) string {
	if info.Version == "" {
		info.Version = "dev"
	}
	if info.Commit == "" {
		info.Commit = "none"
	}
	if info.Date == "" {
		info.Date = "unknown"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", info.Version, info.Commit, info.Date)
}

// Execute runs the root command with the provided context and build info.
// Errors are printed to stderr unless they were already written as JSON.
func Execute(ctx context.Context, info BuildInfo) error {
	flags := &GlobalFlags{}
	//nolint:contextcheck // Cobra command pattern uses cmd.Context() internally
	cmd := newRootCmd(flags, info)
	err := cmd.ExecuteContext(ctx)
	if err != nil && !stderrors.Is(err, errors.ErrJSONErrorOutput) {
		tui.NewTTYOutput(cmd.ErrOrStderr()).Error(err)
	}
	return err
}

// runWithApp opens the app for a command, runs fn, and reports failures in
// the selected output format.
func runWithApp(cmd *cobra.Command, flags *GlobalFlags, fn func(ctx context.Context, a *app) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := openApp(ctx, flags, cmd.OutOrStdout())
	if err != nil {
		if flags.Output == OutputJSON {
			tui.NewJSONOutput(cmd.OutOrStdout()).Error(err)
			return jsonReported(err)
		}
		return err
	}
	defer a.close()

	if err := fn(a.actorContext(ctx), a); err != nil {
		return a.fail(err)
	}
	return nil
}
