package components

import (
	"github.com/charmbracelet/lipgloss"
)

// Panel is a bordered box with an optional title and footer line
type Panel struct {
	Title   string
	Content string
	Footer  string
	Width   int
	Height  int
	Style   lipgloss.Style
}

// View renders the panel
func (p *Panel) View() string {
	if p.Width <= 0 || p.Height <= 0 {
		return ""
	}

	style := p.Style.
		Width(p.Width).
		Height(p.Height).
		Border(lipgloss.RoundedBorder())

	content := p.Content
	if p.Title != "" {
		titleStyle := lipgloss.NewStyle().Bold(true).Padding(0, 1)
		content = titleStyle.Render(p.Title) + "\n" + content
	}
	if p.Footer != "" {
		// keep the footer on the last line of the box
		used := lipgloss.Height(content)
		if gap := p.Height - used - 1; gap > 0 {
			for i := 0; i < gap; i++ {
				content += "\n"
			}
		}
		content += "\n" + lipgloss.NewStyle().Faint(true).Render(p.Footer)
	}

	return style.Render(content)
}
