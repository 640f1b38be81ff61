package tui

import "github.com/charmbracelet/lipgloss"

type theme struct {
	Header   lipgloss.Style
	Heading  lipgloss.Style
	Cursor   lipgloss.Style
	Enabled  lipgloss.Style
	Disabled lipgloss.Style
	Muted    lipgloss.Style
	Status   lipgloss.Style
	Frame    lipgloss.Style
}

func defaultTheme() theme {
	accent := lipgloss.Color("#00FFFF")
	secondary := lipgloss.Color("#7D7D7D")
	success := lipgloss.Color("#00FF00")
	alert := lipgloss.Color("#FFBF00")

	return theme{
		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(accent),
		Heading: lipgloss.NewStyle().
			Bold(true).
			Foreground(secondary),
		Cursor: lipgloss.NewStyle().
			Foreground(accent),
		Enabled: lipgloss.NewStyle().
			Foreground(success),
		Disabled: lipgloss.NewStyle().
			Foreground(secondary),
		Muted: lipgloss.NewStyle().
			Foreground(secondary),
		Status: lipgloss.NewStyle().
			Foreground(alert),
		Frame: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Padding(0, 1),
	}
}
