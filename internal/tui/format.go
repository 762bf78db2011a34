package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/mrz1836/adopt/internal/clock"
)

// RelativeTime formats t relative to the wall clock, e.g. "3 hours ago".
// The zero time renders as "never".
func RelativeTime(t time.Time) string {
	return RelativeTimeWith(t, clock.RealClock{})
}

// RelativeTimeWith formats t relative to c.
func RelativeTimeWith(t time.Time, c clock.Clock) string {
	if t.IsZero() {
		return "never"
	}
	diff := c.Now().Sub(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return plural(int(diff.Minutes()), "minute")
	case diff < 24*time.Hour:
		return plural(int(diff.Hours()), "hour")
	case diff < 7*24*time.Hour:
		return plural(int(diff.Hours()/24), "day")
	default:
		return plural(int(diff.Hours()/24/7), "week")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}

// ColorOffset returns the number of invisible bytes styling added to plain,
// for use as extra padding in fmt width verbs.
func ColorOffset(rendered, plain string) int {
	return len(rendered) - len(plain)
}

// Truncate shortens s to width cells, ending with an ellipsis when cut.
func Truncate(s string, width int) string {
	if width <= 0 || lipgloss.Width(s) <= width {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && lipgloss.Width(string(runes)) > width-1 {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "…"
}
