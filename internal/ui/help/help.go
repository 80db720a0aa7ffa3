package help

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rebeliceyang/lazycrm/internal/ui/theme"
)

// KeyBinding represents a keyboard shortcut
type KeyBinding struct {
	Key         string
	Description string
}

// Section is a titled group of bindings
type Section struct {
	Title string
	Keys  []KeyBinding
}

// GetGlobalKeys returns global key bindings
func GetGlobalKeys() []KeyBinding {
	return []KeyBinding{
		{"?", "Toggle help"},
		{"q, Ctrl+C", "Quit application"},
		{"Esc/Enter", "Dismiss error"},
		{"Tab", "Switch panel focus"},
		{"r, F5", "Re-run filters"},
	}
}

// GetCatalogKeys returns bindings of the field catalog panel
func GetCatalogKeys() []KeyBinding {
	return []KeyBinding{
		{"↑/k", "Move up"},
		{"↓/j", "Move down"},
		{"Enter", "Edit rule for field"},
		{"x", "Remove rule on field"},
		{"X", "Clear rules in category"},
	}
}

// GetFilterKeys returns bindings that change the filter state
func GetFilterKeys() []KeyBinding {
	return []KeyBinding{
		{"/", "Search conversations"},
		{"f", "Open advanced rule editor"},
		{"u", "Cycle unread: all, unread, read"},
		{"m", "Cycle last message: all, recent, older"},
		{"c", "Clear basic filters"},
		{"Shift+C", "Clear all filters"},
		{"o", "Cycle ordering column"},
		{"Shift+O", "Flip ordering direction"},
	}
}

// GetResultKeys returns bindings of the conversation table
func GetResultKeys() []KeyBinding {
	return []KeyBinding{
		{"n, PgDn", "Next page"},
		{"p, PgUp", "Previous page"},
		{"y", "Copy conversation id"},
		{"e", "Export page to CSV"},
		{"Shift+E", "Export page to JSON"},
		{"v", "Show query plan"},
	}
}

// Sections returns every binding group in display order
func Sections() []Section {
	return []Section{
		{"Global", GetGlobalKeys()},
		{"Catalog", GetCatalogKeys()},
		{"Filters", GetFilterKeys()},
		{"Results", GetResultKeys()},
	}
}

// Render creates the help view
func Render(width, height int, th theme.Theme) string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(th.BorderFocused).
		Padding(1, 0)

	sectionStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(th.Category).
		Padding(0, 0, 0, 2)

	keyStyle := lipgloss.NewStyle().
		Foreground(th.Warning).
		Width(20)

	descStyle := lipgloss.NewStyle().
		Foreground(th.Foreground)

	var b strings.Builder

	b.WriteString(titleStyle.Render("lazycrm - Keyboard Shortcuts"))
	b.WriteString("\n\n")

	for _, s := range Sections() {
		b.WriteString(sectionStyle.Render(s.Title))
		b.WriteString("\n")
		for _, kb := range s.Keys {
			b.WriteString("  ")
			b.WriteString(keyStyle.Render(kb.Key))
			b.WriteString(descStyle.Render(kb.Description))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString(lipgloss.NewStyle().Faint(true).Render("Press '?' or Esc to close help"))

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(th.BorderFocused).
		Padding(1, 2).
		Width(width - 4).
		Height(height - 4)

	return boxStyle.Render(b.String())
}
