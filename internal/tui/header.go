package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// headerState is the summary strip above the grid.
type headerState struct {
	title     string
	spin      string
	suspended bool
	widgets   int
	paused    int
	failing   int
}

// renderHeader draws a single line: dashboard title, activity
// indicator, widget counters, and a right-aligned clock.
func renderHeader(theme Theme, width int, hs headerState) string {
	left := " " + theme.Title.Render(hs.title)
	if hs.spin != "" {
		left += " " + hs.spin
	}
	if hs.suspended {
		left += " " + theme.Error.Render("PAUSED")
	}
	left += " " + theme.Muted.Render(fmt.Sprintf("%d widgets", hs.widgets))
	if hs.paused > 0 {
		left += " " + theme.Accent.Render(fmt.Sprintf("%d paused", hs.paused))
	}
	if hs.failing > 0 {
		left += " " + theme.Error.Render(fmt.Sprintf("%d failing", hs.failing))
	}

	clock := theme.Muted.Render(time.Now().Format("15:04:05"))
	pad := width - lipgloss.Width(left) - lipgloss.Width(clock) - 1
	if pad < 1 {
		pad = 1
	}
	line := left + strings.Repeat(" ", pad) + clock + " "
	return lipgloss.NewStyle().MaxWidth(width).Render(line)
}

// renderFooter draws the key help with the last bus event on the right.
func renderFooter(theme Theme, width int, helpView, lastEvent string) string {
	left := " " + helpView
	if lastEvent == "" {
		return lipgloss.NewStyle().MaxWidth(width).Render(left)
	}

	right := theme.Muted.Render(lastEvent)
	pad := width - lipgloss.Width(left) - lipgloss.Width(right) - 1
	if pad < 1 {
		pad = 1
	}
	return lipgloss.NewStyle().MaxWidth(width).Render(left + strings.Repeat(" ", pad) + right + " ")
}

func formatAgo(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return fmt.Sprintf("%s ago", time.Since(t).Round(time.Second))
}
