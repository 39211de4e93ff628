// Package themes holds the TUI colour themes.
package themes

import "github.com/charmbracelet/lipgloss"

// Theme defines the visual style for the TUI.
type Theme struct {
	Title       lipgloss.Style
	Subtitle    lipgloss.Style
	Normal      lipgloss.Style
	Selected    lipgloss.Style
	Header      lipgloss.Style
	Footer      lipgloss.Style
	StatusPass  lipgloss.Style
	StatusFail  lipgloss.Style
	StatusError lipgloss.Style
	StatusSkip  lipgloss.Style
	Primary     lipgloss.Color
	Border      lipgloss.Color
	Muted       lipgloss.Color
}

// Default is the default theme, keyed to the report's header and status fills.
var Default = Theme{
	Primary: lipgloss.Color("#1F4E79"),
	Border:  lipgloss.Color("#404040"),
	Muted:   lipgloss.Color("#737373"),

	Title: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#fafafa")).
		Background(lipgloss.Color("#1F4E79")).
		Padding(0, 1),
	Subtitle: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#a3a3a3")),
	Normal: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#fafafa")),
	Selected: lipgloss.NewStyle().
		Background(lipgloss.Color("#1F4E79")).
		Foreground(lipgloss.Color("#fafafa")).
		Bold(true),
	Header: lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("#404040")).
		BorderBottom(true).
		Bold(true),
	Footer: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#737373")).
		MarginTop(1),
	StatusPass:  lipgloss.NewStyle().Foreground(lipgloss.Color("#10b981")),
	StatusFail:  lipgloss.NewStyle().Foreground(lipgloss.Color("#ef4444")).Bold(true),
	StatusError: lipgloss.NewStyle().Foreground(lipgloss.Color("#f59e0b")),
	StatusSkip:  lipgloss.NewStyle().Foreground(lipgloss.Color("#737373")),
}
