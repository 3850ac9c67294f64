// Package tui renders the dashboard as a full-screen bubbletea program:
// one bordered box per widget region, a status header above the grid,
// and a help line with the last bus event below it.
package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/mattjoyce/mosaic/internal/config"
)

// Theme centralizes the dashboard styles. Colors come from the theme
// section of the config, so users restyle without rebuilding.
type Theme struct {
	Border      lipgloss.Style
	BorderFocus lipgloss.Style
	BorderError lipgloss.Style

	Title  lipgloss.Style
	Accent lipgloss.Style
	Muted  lipgloss.Style
	Error  lipgloss.Style
}

// NewTheme builds lipgloss styles from configured color values.
func NewTheme(tc config.ThemeConfig) Theme {
	border := lipgloss.RoundedBorder()
	return Theme{
		Border: lipgloss.NewStyle().
			Border(border).
			BorderForeground(lipgloss.Color(tc.Border)),
		BorderFocus: lipgloss.NewStyle().
			Border(border).
			BorderForeground(lipgloss.Color(tc.BorderFocus)),
		BorderError: lipgloss.NewStyle().
			Border(border).
			BorderForeground(lipgloss.Color(tc.Error)),

		Title:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(tc.Title)),
		Accent: lipgloss.NewStyle().Foreground(lipgloss.Color(tc.Accent)),
		Muted:  lipgloss.NewStyle().Foreground(lipgloss.Color(tc.Muted)),
		Error:  lipgloss.NewStyle().Foreground(lipgloss.Color(tc.Error)),
	}
}
