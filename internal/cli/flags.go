package cli

import (
	stderrors "errors"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mrz1836/adopt/internal/constants"
	"github.com/mrz1836/adopt/internal/errors"
	"github.com/mrz1836/adopt/internal/tui"
)

// Exit codes for the CLI.
const (
	// ExitSuccess indicates successful execution.
	ExitSuccess = 0
	// ExitError indicates a general error.
	ExitError = 1
	// ExitInvalidInput indicates invalid user input.
	ExitInvalidInput = 2
)

// Output format constants.
const (
	// OutputText is the default human-readable output format.
	OutputText = tui.FormatText
	// OutputJSON is the machine-readable JSON output format.
	OutputJSON = tui.FormatJSON
)

// GlobalFlags holds flags available to all commands.
type GlobalFlags struct {
	// Output specifies the output format (text or json).
	Output string
	// Verbose enables debug-level logging.
	Verbose bool
	// Quiet suppresses non-essential output (warn level only).
	Quiet bool

	// Actor is recorded on manual status changes. Defaults to $USER.
	Actor string

	// Home, Catalog, and Storage override the matching config keys.
	Home    string
	Catalog string
	Storage string
}

// AddGlobalFlags adds global flags to a command.
// These flags are available to all subcommands via PersistentFlags.
func AddGlobalFlags(cmd *cobra.Command, flags *GlobalFlags) {
	pf := cmd.PersistentFlags()
	pf.StringVarP(&flags.Output, "output", "o", OutputText, "output format (text|json)")
	pf.BoolVarP(&flags.Verbose, "verbose", "v", false, "enable verbose output")
	pf.BoolVarP(&flags.Quiet, "quiet", "q", false, "suppress non-essential output")
	pf.StringVar(&flags.Actor, "actor", "", "acting principal recorded on status changes (default $USER)")
	pf.StringVar(&flags.Home, "home", "", "adopt home directory (default $ADOPT_HOME or ~/.adopt)")
	pf.StringVar(&flags.Catalog, "catalog", "", "template catalog file")
	pf.StringVar(&flags.Storage, "storage", "", "storage backend (file|sqlite)")
	cmd.MarkFlagsMutuallyExclusive("verbose", "quiet")
}

// BindGlobalFlags binds global flags to Viper so they can also be set with
// ADOPT_OUTPUT, ADOPT_VERBOSE, ADOPT_QUIET, and ADOPT_ACTOR.
func BindGlobalFlags(v *viper.Viper, cmd *cobra.Command) error {
	// Root().PersistentFlags() finds root flags from a subcommand's hooks.
	rootFlags := cmd.Root().PersistentFlags()

	for _, name := range []string{"output", "verbose", "quiet", "actor"} {
		if err := v.BindPFlag(name, rootFlags.Lookup(name)); err != nil {
			return err
		}
	}

	v.SetEnvPrefix(constants.EnvPrefix)
	v.AutomaticEnv()
	return nil
}

// applyBoundFlags copies values set through the environment back into flags.
func applyBoundFlags(v *viper.Viper, flags *GlobalFlags) {
	flags.Output = v.GetString("output")
	flags.Verbose = v.GetBool("verbose")
	flags.Quiet = v.GetBool("quiet")
	flags.Actor = v.GetString("actor")
}

// ValidOutputFormats returns the list of valid output format values.
func ValidOutputFormats() []string {
	return []string{OutputText, OutputJSON}
}

// IsValidOutputFormat checks if the given format is a valid output format.
func IsValidOutputFormat(format string) bool {
	return slices.Contains(ValidOutputFormats(), format)
}

// ExitCodeForError returns the appropriate exit code for the given error.
// Returns ExitSuccess (0) for nil errors, ExitInvalidInput (2) for user input
// errors (invalid flags, bad arguments, rejected values), and ExitError (1)
// for all other errors.
func ExitCodeForError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	if errors.IsExitCode2Error(err) {
		return ExitInvalidInput
	}

	if stderrors.Is(err, errors.ErrInvalidOutputFormat) || errors.IsValidation(err) {
		return ExitInvalidInput
	}

	if isInvalidInputError(err.Error()) {
		return ExitInvalidInput
	}

	return ExitError
}

// isInvalidInputError checks if an error message indicates invalid user input.
// This catches Cobra's built-in flag validation errors.
func isInvalidInputError(errMsg string) bool {
	invalidInputPatterns := []string{
		"unknown flag",
		"unknown shorthand flag",
		"flag needs an argument",
		"invalid argument",
		"if any flags in the group",
		"required flag",
		"unknown command",
		"accepts ",
		"requires at least",
	}

	for _, pattern := range invalidInputPatterns {
		if strings.Contains(errMsg, pattern) {
			return true
		}
	}
	return false
}
