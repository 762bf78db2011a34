// Package tui renders adopt command output for terminals.
//
// Colors use AdaptiveColor for light and dark terminals. Every status is shown
// with an icon, a color, and its text so output stays readable without color.
//
// Call CheckNoColor() before rendering to respect NO_COLOR and TERM=dumb.
package tui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/mrz1836/adopt/internal/constants"
)

//nolint:gochecknoglobals // Intentional package-level constants for styling API
var (
	// ColorPrimary is blue, used for headers and in-progress work.
	ColorPrimary = lipgloss.AdaptiveColor{Light: "#0087AF", Dark: "#00D7FF"}

	// ColorSuccess is green, used for completed work.
	ColorSuccess = lipgloss.AdaptiveColor{Light: "#008700", Dark: "#00FF87"}

	// ColorWarning is yellow, used for warnings and stale plans.
	ColorWarning = lipgloss.AdaptiveColor{Light: "#AF8700", Dark: "#FFD700"}

	// ColorError is red, used for errors.
	ColorError = lipgloss.AdaptiveColor{Light: "#AF0000", Dark: "#FF5F5F"}

	// ColorMuted is gray, used for excluded and secondary items.
	ColorMuted = lipgloss.AdaptiveColor{Light: "#585858", Dark: "#6C6C6C"}

	// StyleBold applies bold formatting to text.
	StyleBold = lipgloss.NewStyle().Bold(true)

	// StyleDim applies faint formatting to text.
	StyleDim = lipgloss.NewStyle().Faint(true)
)

// TableStyles holds lipgloss styles for table rendering.
type TableStyles struct {
	Header lipgloss.Style
	Cell   lipgloss.Style
	Dim    lipgloss.Style
}

// NewTableStyles creates styles for table rendering.
func NewTableStyles() *TableStyles {
	return &TableStyles{
		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#333333", Dark: "#DDDDDD"}),
		Cell: lipgloss.NewStyle(),
		Dim: lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#666666", Dark: "#888888"}),
	}
}

// OutputStyles holds common output styles.
type OutputStyles struct {
	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style
	Dim     lipgloss.Style
}

// NewOutputStyles creates common output styles.
func NewOutputStyles() *OutputStyles {
	return &OutputStyles{
		Success: lipgloss.NewStyle().
			Foreground(ColorSuccess).
			Bold(true),
		Error: lipgloss.NewStyle().
			Foreground(ColorError).
			Bold(true),
		Warning: lipgloss.NewStyle().
			Foreground(ColorWarning),
		Info: lipgloss.NewStyle().
			Foreground(ColorPrimary),
		Dim: lipgloss.NewStyle().
			Foreground(ColorMuted),
	}
}

// CheckNoColor switches lipgloss to plain ASCII when color is unsupported.
func CheckNoColor() {
	if !HasColorSupport() {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
}

// HasColorSupport returns false when NO_COLOR is set (any value, including
// empty) or TERM=dumb. See https://no-color.org/.
func HasColorSupport() bool {
	if _, exists := os.LookupEnv("NO_COLOR"); exists {
		return false
	}
	return os.Getenv("TERM") != "dumb"
}

// TaskStatusColors returns the color for each task status.
func TaskStatusColors() map[constants.TaskStatus]lipgloss.AdaptiveColor {
	return map[constants.TaskStatus]lipgloss.AdaptiveColor{
		constants.TaskStatusNotStarted:    ColorMuted,
		constants.TaskStatusInProgress:    ColorPrimary,
		constants.TaskStatusDone:          ColorSuccess,
		constants.TaskStatusCompleted:     ColorSuccess,
		constants.TaskStatusNotApplicable: ColorMuted,
		constants.TaskStatusNoLongerUsing: ColorWarning,
	}
}

// TaskStatusIcon returns the symbol shown next to a task status.
func TaskStatusIcon(status constants.TaskStatus) string {
	switch status {
	case constants.TaskStatusNotStarted:
		return "○"
	case constants.TaskStatusInProgress:
		return "●"
	case constants.TaskStatusDone, constants.TaskStatusCompleted:
		return "✓"
	case constants.TaskStatusNotApplicable:
		return "–"
	case constants.TaskStatusNoLongerUsing:
		return "↺"
	default:
		return "?"
	}
}

// FormatTaskStatus renders a status as icon plus text in its color.
func FormatTaskStatus(status constants.TaskStatus) string {
	text := TaskStatusIcon(status) + " " + status.String()
	color, ok := TaskStatusColors()[status]
	if !ok || !HasColorSupport() {
		return text
	}
	return lipgloss.NewStyle().Foreground(color).Render(text)
}
