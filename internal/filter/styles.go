package filter

import "github.com/charmbracelet/lipgloss"

// Styles decorates text the filters insert into the stream. Nil fields
// leave text unstyled.
type Styles struct {
	Header  func(string) string
	Added   func(string) string
	Removed func(string) string
	Hunk    func(string) string
}

// ColorStyles returns Styles backed by lipgloss. The active color profile
// decides whether any escape codes are written.
func ColorStyles() Styles {
	render := func(s lipgloss.Style) func(string) string {
		return func(text string) string { return s.Render(text) }
	}
	return Styles{
		Header:  render(lipgloss.NewStyle().Bold(true)),
		Added:   render(lipgloss.NewStyle().Foreground(lipgloss.Color("2"))),
		Removed: render(lipgloss.NewStyle().Foreground(lipgloss.Color("1"))),
		Hunk:    render(lipgloss.NewStyle().Foreground(lipgloss.Color("6"))),
	}
}

func apply(style func(string) string, text string) string {
	if style == nil {
		return text
	}
	return style(text)
}
