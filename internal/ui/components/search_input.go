package components

import (
	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rebeliceyang/lazycrm/internal/ui/theme"
)

// SearchInputMsg is sent when the search text is submitted.
// An empty query clears the search.
type SearchInputMsg struct {
	Query string
}

// CloseSearchMsg is sent when search should be closed
type CloseSearchMsg struct{}

// SearchInput provides a search input box
type SearchInput struct {
	Input   textinput.Model
	Theme   theme.Theme
	Width   int
	Visible bool
}

// NewSearchInput creates a new search input
func NewSearchInput(th theme.Theme) *SearchInput {
	ti := textinput.New()
	ti.Placeholder = "name, message, email, phone, contact..."
	ti.Focus()
	ti.CharLimit = 256
	ti.Width = 40
	ti.Cursor.SetMode(cursor.CursorStatic)

	return &SearchInput{
		Input: ti,
		Theme: th,
	}
}

// Open shows the input pre-filled with the current search
func (s *SearchInput) Open(current string) {
	s.Input.SetValue(current)
	s.Input.CursorEnd()
	s.Input.Focus()
	s.Visible = true
}

// Reset clears the search input
func (s *SearchInput) Reset() {
	s.Input.SetValue("")
	s.Visible = false
}

// Update handles messages
func (s *SearchInput) Update(msg tea.Msg) (*SearchInput, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "enter":
			query := s.Input.Value()
			s.Visible = false
			return s, func() tea.Msg {
				return SearchInputMsg{Query: query}
			}
		case "esc":
			s.Visible = false
			return s, func() tea.Msg {
				return CloseSearchMsg{}
			}
		}
	}

	var cmd tea.Cmd
	s.Input, cmd = s.Input.Update(msg)
	return s, cmd
}

// View renders the search input
func (s *SearchInput) View() string {
	labelStyle := lipgloss.NewStyle().
		Foreground(s.Theme.Info).
		Bold(true)

	inputWidth := s.Width - 16
	if inputWidth < 20 {
		inputWidth = 20
	}
	s.Input.Width = inputWidth

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(s.Theme.BorderFocused).
		Padding(0, 1).
		Width(s.Width)

	helpStyle := lipgloss.NewStyle().
		Foreground(s.Theme.Muted).
		Italic(true)

	content := labelStyle.Render("Search") + " " + s.Input.View()
	helpText := helpStyle.Render("Enter: apply │ empty clears │ Esc: cancel")

	return boxStyle.Render(content + "\n" + helpText)
}
