package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// DefaultProgressWidth is the bar width used by plan and solution views.
const DefaultProgressWidth = 24

// ProgressBar renders a static, single-line progress bar.
type ProgressBar struct {
	width  int
	filled lipgloss.Style
	empty  lipgloss.Style
}

// ProgressOption is a functional option for configuring a ProgressBar.
type ProgressOption func(*ProgressBar)

// WithWidth sets the progress bar width in cells.
func WithWidth(w int) ProgressOption {
	return func(pb *ProgressBar) {
		if w > 0 {
			pb.width = w
		}
	}
}

// NewProgressBar creates a progress bar. Without color support the bar is
// drawn with plain characters.
func NewProgressBar(opts ...ProgressOption) *ProgressBar {
	pb := &ProgressBar{
		width:  DefaultProgressWidth,
		filled: lipgloss.NewStyle(),
		empty:  lipgloss.NewStyle(),
	}
	if HasColorSupport() {
		pb.filled = pb.filled.Foreground(ColorSuccess)
		pb.empty = pb.empty.Foreground(ColorMuted)
	}
	for _, opt := range opts {
		opt(pb)
	}
	return pb
}

// Render returns the bar followed by the percentage for a value in 0-100.
// Values outside the range are clamped.
func (pb *ProgressBar) Render(percent float64) string {
	percent = max(0, min(100, percent))
	filled := int(percent / 100 * float64(pb.width))

	return fmt.Sprintf("%s%s %5.1f%%",
		pb.filled.Render(strings.Repeat("█", filled)),
		pb.empty.Render(strings.Repeat("░", pb.width-filled)),
		percent,
	)
}

// Width returns the bar width in cells.
func (pb *ProgressBar) Width() int {
	return pb.width
}
