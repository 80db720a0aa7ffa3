package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rebeliceyang/lazycrm/internal/ui/theme"
)

// ErrorOverlay is a modal box showing the last failure
type ErrorOverlay struct {
	Title   string
	Message string
	// Hint is an optional second line, e.g. that the previous results are kept
	Hint  string
	Theme theme.Theme
}

// NewErrorOverlay creates an overlay for err
func NewErrorOverlay(th theme.Theme, title string, err error) *ErrorOverlay {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return &ErrorOverlay{Title: title, Message: msg, Theme: th}
}

// View renders the overlay at the given maximum width
func (e *ErrorOverlay) View(width int) string {
	boxWidth := width * 2 / 3
	if boxWidth < 40 {
		boxWidth = 40
	}
	if boxWidth > width-4 && width > 8 {
		boxWidth = width - 4
	}

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(e.Theme.Error)
	msgStyle := lipgloss.NewStyle().Foreground(e.Theme.Foreground).Width(boxWidth - 4)
	hintStyle := lipgloss.NewStyle().Foreground(e.Theme.Muted).Italic(true)

	var b strings.Builder
	b.WriteString(titleStyle.Render("✗ " + e.Title))
	b.WriteString("\n\n")
	b.WriteString(msgStyle.Render(e.Message))
	if e.Hint != "" {
		b.WriteString("\n\n")
		b.WriteString(hintStyle.Render(e.Hint))
	}
	b.WriteString("\n\n")
	b.WriteString(hintStyle.Render("Esc/Enter: dismiss"))

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(e.Theme.Error).
		Padding(1, 2).
		Width(boxWidth).
		Render(b.String())
}
