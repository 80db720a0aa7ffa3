package theme

import "github.com/charmbracelet/lipgloss"

// CatppuccinMochaTheme returns the Catppuccin Mocha palette
// Based on: https://github.com/catppuccin/catppuccin
func CatppuccinMochaTheme() Theme {
	return Theme{
		Name: "catppuccin-mocha",

		Background: lipgloss.Color("#1e1e2e"), // Base
		Foreground: lipgloss.Color("#cdd6f4"), // Text

		Border:        lipgloss.Color("#45475a"), // Surface1
		BorderFocused: lipgloss.Color("#89b4fa"), // Blue
		Selection:     lipgloss.Color("#313244"), // Surface0
		Cursor:        lipgloss.Color("#f5e0dc"), // Rosewater
		Muted:         lipgloss.Color("#6c7086"), // Overlay0

		Success: lipgloss.Color("#a6e3a1"), // Green
		Warning: lipgloss.Color("#f9e2af"), // Yellow
		Error:   lipgloss.Color("#f38ba8"), // Red
		Info:    lipgloss.Color("#89dceb"), // Sky

		FieldName: lipgloss.Color("#89b4fa"), // Blue
		Operator:  lipgloss.Color("#94e2d5"), // Teal
		Value:     lipgloss.Color("#a6e3a1"), // Green

		TableHeader:      lipgloss.Color("#89b4fa"),
		TableRowEven:     lipgloss.Color("#1e1e2e"),
		TableRowOdd:      lipgloss.Color("#181825"), // Mantle
		TableRowSelected: lipgloss.Color("#313244"),

		Category:     lipgloss.Color("#cba6f7"), // Mauve
		ActiveFilter: lipgloss.Color("#a6e3a1"),
		Unread:       lipgloss.Color("#fab387"), // Peach
		Tag:          lipgloss.Color("#f9e2af"),

		ChromaStyle: "catppuccin-mocha",
	}
}
