package status

import "github.com/charmbracelet/lipgloss"

type styles struct {
	title      lipgloss.Style
	header     lipgloss.Style
	vault      lipgloss.Style
	detail     lipgloss.Style
	key        lipgloss.Style
	warning    lipgloss.Style
	section    lipgloss.Style
	empty      lipgloss.Style
	glyph      lipgloss.Style
	user       lipgloss.Style
	reflection lipgloss.Style
}

func newStyles() styles {
	return styles{
		title:      lipgloss.NewStyle().Bold(true),
		header:     lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		vault:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		detail:     lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		key:        lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
		warning:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203")),
		section:    lipgloss.NewStyle().MarginTop(1),
		empty:      lipgloss.NewStyle().Faint(true),
		glyph:      lipgloss.NewStyle().Foreground(lipgloss.Color("141")),
		user:       lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("69")),
		reflection: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("141")),
	}
}
