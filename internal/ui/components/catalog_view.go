package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/rebeliceyang/lazycrm/internal/filter"
	"github.com/rebeliceyang/lazycrm/internal/models"
	"github.com/rebeliceyang/lazycrm/internal/ui/theme"
)

var categoryTitles = map[string]string{
	models.CategoryConversation: "Conversation",
	models.CategoryBasic:        "Basic",
	models.CategoryKanban:       "Kanban",
	models.CategoryCommercial:   "Commercial",
	models.CategoryTemporal:     "Temporal",
	models.CategoryCustom:       "Custom fields",
}

// CategoryTitle returns the display name of a catalog category
func CategoryTitle(category string) string {
	if t, ok := categoryTitles[category]; ok {
		return t
	}
	return category
}

// catalogLine is one rendered row: a category header or a field
type catalogLine struct {
	header string
	field  models.Field
}

// CatalogView lists the filterable fields grouped by category and marks
// the ones that carry a rule
type CatalogView struct {
	Width  int
	Height int
	Theme  theme.Theme

	catalog *models.FieldCatalog
	state   models.FilterState
	lines   []catalogLine
	// fieldRows indexes lines that hold a field
	fieldRows []int
	cursor    int
	top       int
}

// NewCatalogView creates the catalog panel
func NewCatalogView(th theme.Theme, catalog *models.FieldCatalog) *CatalogView {
	cv := &CatalogView{Theme: th, catalog: catalog}
	for _, cat := range catalog.Categories() {
		cv.lines = append(cv.lines, catalogLine{header: CategoryTitle(cat)})
		for _, f := range catalog.ByCategory(cat) {
			cv.fieldRows = append(cv.fieldRows, len(cv.lines))
			cv.lines = append(cv.lines, catalogLine{field: f})
		}
	}
	return cv
}

// SetState updates the rule markers
func (cv *CatalogView) SetState(state models.FilterState) {
	cv.state = state
}

// MoveCursor moves between fields, skipping headers
func (cv *CatalogView) MoveCursor(delta int) {
	if len(cv.fieldRows) == 0 {
		return
	}
	cv.cursor += delta
	if cv.cursor < 0 {
		cv.cursor = 0
	}
	if cv.cursor >= len(cv.fieldRows) {
		cv.cursor = len(cv.fieldRows) - 1
	}
}

// Cursor returns the index of the selected field
func (cv *CatalogView) Cursor() int {
	return cv.cursor
}

// SelectedField returns the field under the cursor
func (cv *CatalogView) SelectedField() (models.Field, bool) {
	if len(cv.fieldRows) == 0 {
		return models.Field{}, false
	}
	return cv.lines[cv.fieldRows[cv.cursor]].field, true
}

// View renders the field list followed by the residual filters
func (cv *CatalogView) View() string {
	headerStyle := lipgloss.NewStyle().Foreground(cv.Theme.Category).Bold(true)
	activeStyle := lipgloss.NewStyle().Foreground(cv.Theme.ActiveFilter)
	selectedStyle := lipgloss.NewStyle().Background(cv.Theme.Selection).Foreground(cv.Theme.Foreground).Bold(true)
	mutedStyle := lipgloss.NewStyle().Foreground(cv.Theme.Muted)

	width := cv.Width - 2
	if width < 10 {
		width = 10
	}

	summary := cv.summary()
	rows := cv.Height - len(summary) - 1
	if rows < 3 {
		rows = 3
	}

	selectedLine := -1
	if len(cv.fieldRows) > 0 {
		selectedLine = cv.fieldRows[cv.cursor]
	}
	if selectedLine >= 0 {
		if selectedLine < cv.top {
			cv.top = selectedLine
			// keep the category header visible
			if cv.top > 0 && cv.lines[cv.top-1].header != "" {
				cv.top--
			}
		}
		if selectedLine >= cv.top+rows {
			cv.top = selectedLine - rows + 1
		}
	}

	var out []string
	end := cv.top + rows
	if end > len(cv.lines) {
		end = len(cv.lines)
	}
	for i := cv.top; i < end; i++ {
		l := cv.lines[i]
		if l.header != "" {
			out = append(out, headerStyle.Render(l.header))
			continue
		}
		marker := "  "
		text := l.field.Name
		if r, ok := cv.state.RuleFor(l.field.ID); ok {
			marker = "● "
			text = filter.Describe(cv.catalog, r)
		}
		text = runewidth.Truncate(marker+text, width, "…")
		switch {
		case i == selectedLine:
			out = append(out, selectedStyle.Render(runewidth.FillRight(text, width)))
		case marker != "  ":
			out = append(out, activeStyle.Render(text))
		default:
			out = append(out, text)
		}
	}

	if len(summary) > 0 {
		out = append(out, "")
		for _, s := range summary {
			out = append(out, mutedStyle.Render(runewidth.Truncate(s, width, "…")))
		}
	}
	return strings.Join(out, "\n")
}

// summary lists the filters that are not simple field rules
func (cv *CatalogView) summary() []string {
	var out []string
	if cv.state.Search != "" {
		out = append(out, fmt.Sprintf("search: %q", cv.state.Search))
	}
	if cv.state.Unread != "" && cv.state.Unread != models.UnreadAll {
		out = append(out, "unread: "+string(cv.state.Unread))
	}
	if cv.state.LastMessage != "" && cv.state.LastMessage != models.WindowAll {
		out = append(out, "last message: "+string(cv.state.LastMessage))
	}
	if g := cv.state.Advanced; g != nil && !g.IsEmpty() {
		if rules, err := g.Flatten(); err == nil {
			out = append(out, fmt.Sprintf("advanced: %d rules", len(rules)))
		}
	}
	for _, note := range cv.catalog.Degraded() {
		out = append(out, "! "+note)
	}
	return out
}
