package status

import "github.com/charmbracelet/lipgloss"

// UserHeader and ReflectionHeader label the two halves of an exchange in the
// terminal, mirroring the transcript headings.
func UserHeader() string {
	return newStyles().user.Render("### User")
}

func ReflectionHeader(placeholder bool) string {
	s := newStyles()
	header := s.reflection.Render("### Reflection")
	if placeholder {
		header = lipgloss.JoinHorizontal(lipgloss.Top, header, " ", s.empty.Render("(placeholder)"))
	}
	return header
}
