package tui

import "github.com/charmbracelet/lipgloss"

type theme struct {
	header   lipgloss.Style
	panel    lipgloss.Style
	title    lipgloss.Style
	status   lipgloss.Style
	warning  lipgloss.Style
	muted    lipgloss.Style
	selected lipgloss.Style
	item     lipgloss.Style
}

func newTheme() theme {
	accent := lipgloss.Color("#05d9e8")
	warm := lipgloss.Color("#ffd166")
	muted := lipgloss.Color("#7f8c98")

	return theme{
		header: lipgloss.NewStyle().
			Bold(true).
			Foreground(accent).
			Padding(0, 1),
		panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(muted).
			Padding(0, 1),
		title:    lipgloss.NewStyle().Foreground(muted).Bold(true),
		status:   lipgloss.NewStyle().Foreground(accent),
		warning:  lipgloss.NewStyle().Foreground(warm).Bold(true),
		muted:    lipgloss.NewStyle().Foreground(muted),
		selected: lipgloss.NewStyle().Foreground(warm).Bold(true),
		item:     lipgloss.NewStyle(),
	}
}
