package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rebeliceyang/lazycrm/internal/filter"
	"github.com/rebeliceyang/lazycrm/internal/models"
	"github.com/rebeliceyang/lazycrm/internal/ui/theme"
)

// ApplyRuleGroupMsg is sent after the advanced group was handed to the hooks
type ApplyRuleGroupMsg struct {
	Group models.RuleGroup
}

// ClearRuleGroupMsg is sent after the advanced group was dropped
type ClearRuleGroupMsg struct{}

// SetRuleMsg is sent when a single field rule was edited
type SetRuleMsg struct {
	Rule models.Rule
}

// CloseRuleEditorMsg is sent when the editor should close
type CloseRuleEditorMsg struct{}

type editMode string

const (
	modeNavigate editMode = ""
	modeField    editMode = "field"
	modeOperator editMode = "operator"
	modeValue    editMode = "value"
)

// RuleEditor builds either the advanced AND group or a single field rule
type RuleEditor struct {
	Width  int
	Height int
	Theme  theme.Theme

	catalog *models.FieldCatalog
	hooks   filter.AdvancedHooks

	group        models.RuleGroup
	currentIndex int
	editMode     editMode
	// single edits one rule for a preselected field and closes
	single bool

	fieldInput      string
	fieldMatches    []models.Field
	fieldIndex      int
	selectedField   models.Field
	availableOps    []models.FilterOperator
	operatorIndex   int
	valueInput      textinput.Model
	validationError string
}

// NewRuleEditor creates an editor over catalog. hooks receive the group
// on apply and clear.
func NewRuleEditor(th theme.Theme, catalog *models.FieldCatalog, hooks filter.AdvancedHooks) *RuleEditor {
	ti := textinput.New()
	ti.Placeholder = "value (comma separated for lists)"
	ti.CharLimit = 512
	ti.Width = 40
	ti.Cursor.SetMode(cursor.CursorStatic)
	return &RuleEditor{
		Width:      80,
		Height:     30,
		Theme:      th,
		catalog:    catalog,
		hooks:      hooks,
		group:      models.NewRuleGroup(),
		valueInput: ti,
	}
}

// Load starts editing the advanced group, or a fresh one when g is nil
func (re *RuleEditor) Load(g *models.RuleGroup) {
	re.single = false
	re.editMode = modeNavigate
	re.currentIndex = 0
	re.validationError = ""
	if g == nil {
		re.group = models.NewRuleGroup()
		return
	}
	re.group = g.Clone()
}

// EditField starts a single rule edit on field, seeded from existing
func (re *RuleEditor) EditField(field models.Field, existing *models.Rule) {
	re.single = true
	re.validationError = ""
	re.selectField(field)
	if existing != nil {
		for i, op := range re.availableOps {
			if op == existing.Operator {
				re.operatorIndex = i
			}
		}
		re.valueInput.SetValue(strings.Join(existing.Value.Strings(), ", "))
	}
}

// Group returns a copy of the group being edited
func (re *RuleEditor) Group() models.RuleGroup {
	return re.group.Clone()
}

// Mode returns the current edit step
func (re *RuleEditor) Mode() string {
	return string(re.editMode)
}

func (re *RuleEditor) selectField(f models.Field) {
	re.selectedField = f
	re.availableOps = filter.OperatorsForKind(f.Kind)
	if f.Target == models.TargetOwnerCustom {
		var ops []models.FilterOperator
		for _, op := range re.availableOps {
			if filter.Supports(f, op) {
				ops = append(ops, op)
			}
		}
		re.availableOps = ops
	}
	re.operatorIndex = 0
	re.editMode = modeOperator
	re.valueInput.SetValue("")
}

// Update handles keyboard input
func (re *RuleEditor) Update(msg tea.KeyMsg) (*RuleEditor, tea.Cmd) {
	switch re.editMode {
	case modeField:
		return re.handleFieldMode(msg)
	case modeOperator:
		return re.handleOperatorMode(msg)
	case modeValue:
		return re.handleValueMode(msg)
	default:
		return re.handleNavigationMode(msg)
	}
}

func (re *RuleEditor) handleNavigationMode(msg tea.KeyMsg) (*RuleEditor, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if re.currentIndex > 0 {
			re.currentIndex--
		}
	case "down", "j":
		if re.currentIndex < len(re.group.Rules)-1 {
			re.currentIndex++
		}
	case "a", "n":
		re.editMode = modeField
		re.fieldInput = ""
		re.updateMatches()
	case "d", "x":
		if re.currentIndex < len(re.group.Rules) {
			re.group.Rules = append(re.group.Rules[:re.currentIndex], re.group.Rules[re.currentIndex+1:]...)
			if re.currentIndex > 0 && re.currentIndex >= len(re.group.Rules) {
				re.currentIndex--
			}
		}
	case "D":
		re.group = models.NewRuleGroup()
		re.currentIndex = 0
		re.hooks.ClearGroup()
		return re, func() tea.Msg { return ClearRuleGroupMsg{} }
	case "enter":
		if re.group.IsEmpty() {
			re.validationError = "Add at least one rule, or press D to clear the advanced filter"
			return re, nil
		}
		if _, err := filter.Route(re.catalog, re.group.Rules); err != nil {
			re.validationError = err.Error()
			return re, nil
		}
		re.validationError = ""
		g := re.group.Clone()
		re.hooks.ApplyGroup(g)
		return re, func() tea.Msg { return ApplyRuleGroupMsg{Group: g} }
	case "esc":
		return re, func() tea.Msg { return CloseRuleEditorMsg{} }
	}
	return re, nil
}

func (re *RuleEditor) handleFieldMode(msg tea.KeyMsg) (*RuleEditor, tea.Cmd) {
	switch msg.String() {
	case "esc":
		re.editMode = modeNavigate
		re.fieldInput = ""
		re.validationError = ""
	case "up":
		if re.fieldIndex > 0 {
			re.fieldIndex--
		}
	case "down":
		if re.fieldIndex < len(re.fieldMatches)-1 {
			re.fieldIndex++
		}
	case "enter":
		if len(re.fieldMatches) == 0 {
			re.validationError = fmt.Sprintf("Field '%s' not found", re.fieldInput)
			return re, nil
		}
		re.validationError = ""
		re.selectField(re.fieldMatches[re.fieldIndex])
	case "backspace":
		if len(re.fieldInput) > 0 {
			r := []rune(re.fieldInput)
			re.fieldInput = string(r[:len(r)-1])
			re.updateMatches()
		}
	default:
		switch msg.Type {
		case tea.KeyRunes:
			re.fieldInput += string(msg.Runes)
			re.updateMatches()
		case tea.KeySpace:
			re.fieldInput += " "
			re.updateMatches()
		}
	}
	return re, nil
}

// updateMatches filters the catalog by the typed text
func (re *RuleEditor) updateMatches() {
	needle := strings.ToLower(re.fieldInput)
	re.fieldMatches = re.fieldMatches[:0]
	for _, f := range re.catalog.Fields() {
		if needle == "" || strings.Contains(strings.ToLower(f.Name), needle) || strings.Contains(strings.ToLower(f.ID), needle) {
			re.fieldMatches = append(re.fieldMatches, f)
		}
	}
	re.fieldIndex = 0
}

func (re *RuleEditor) handleOperatorMode(msg tea.KeyMsg) (*RuleEditor, tea.Cmd) {
	switch msg.String() {
	case "esc":
		if re.single {
			return re, func() tea.Msg { return CloseRuleEditorMsg{} }
		}
		re.editMode = modeField
	case "up", "k":
		if re.operatorIndex > 0 {
			re.operatorIndex--
		}
	case "down", "j":
		if re.operatorIndex < len(re.availableOps)-1 {
			re.operatorIndex++
		}
	case "enter":
		re.editMode = modeValue
		re.valueInput.Focus()
	}
	return re, nil
}

func (re *RuleEditor) handleValueMode(msg tea.KeyMsg) (*RuleEditor, tea.Cmd) {
	switch msg.String() {
	case "esc":
		re.editMode = modeOperator
		re.valueInput.Blur()
		return re, nil
	case "enter":
		rule, err := filter.ParseInput(re.selectedField, re.availableOps[re.operatorIndex], re.valueInput.Value())
		if err != nil {
			re.validationError = err.Error()
			return re, nil
		}
		re.validationError = ""
		re.valueInput.Blur()
		re.valueInput.SetValue("")
		if re.single {
			re.editMode = modeNavigate
			return re, func() tea.Msg { return SetRuleMsg{Rule: rule} }
		}
		re.group.Rules = append(re.group.Rules, rule)
		re.currentIndex = len(re.group.Rules) - 1
		re.editMode = modeNavigate
		return re, nil
	}

	var cmd tea.Cmd
	re.valueInput, cmd = re.valueInput.Update(msg)
	return re, cmd
}

// Preview renders the group as one AND expression
func (re *RuleEditor) Preview() string {
	if len(re.group.Rules) == 0 {
		return "(no rules)"
	}
	parts := make([]string, len(re.group.Rules))
	for i, r := range re.group.Rules {
		parts[i] = filter.Describe(re.catalog, r)
	}
	return strings.Join(parts, " AND ")
}

// View renders the rule editor
func (re *RuleEditor) View() string {
	var sections []string

	title := "Advanced Filter"
	if re.single {
		title = "Edit Rule: " + re.selectedField.Name
	}
	titleStyle := lipgloss.NewStyle().
		Foreground(re.Theme.Background).
		Background(re.Theme.Info).
		Padding(0, 1).
		Bold(true)
	sections = append(sections, titleStyle.Render(title))

	instructionStyle := lipgloss.NewStyle().
		Foreground(re.Theme.Muted).
		Padding(0, 1)

	var instructions string
	switch re.editMode {
	case modeField:
		instructions = "Type to filter fields, ↑↓ select, Enter confirm, Esc cancel"
	case modeOperator:
		instructions = "↑↓ Select operator, Enter confirm, Esc back"
	case modeValue:
		instructions = "Type value, Enter confirm, Esc back"
	default:
		instructions = "a=Add d=Delete D=Clear all Enter=Apply Esc=Close"
	}
	sections = append(sections, instructionStyle.Render(instructions))

	if re.validationError != "" {
		errorStyle := lipgloss.NewStyle().
			Foreground(re.Theme.Error).
			Padding(0, 1).
			Bold(true)
		sections = append(sections, errorStyle.Render("Error: "+re.validationError))
	}

	fieldStyle := lipgloss.NewStyle().Foreground(re.Theme.FieldName)
	opStyle := lipgloss.NewStyle().Foreground(re.Theme.Operator)

	if !re.single && len(re.group.Rules) > 0 {
		sections = append(sections, "\nRules (all must match):")
		for i, r := range re.group.Rules {
			style := lipgloss.NewStyle().Padding(0, 1)
			if i == re.currentIndex && re.editMode == modeNavigate {
				style = style.Background(re.Theme.Selection).Foreground(re.Theme.Foreground)
			}
			sections = append(sections, style.Render(fmt.Sprintf(" %d. %s", i+1, filter.Describe(re.catalog, r))))
		}
	}

	switch re.editMode {
	case modeField:
		sections = append(sections, "", fmt.Sprintf("Field: %s_", re.fieldInput))
		limit := re.Height - 12
		if limit < 5 {
			limit = 5
		}
		for i, f := range re.fieldMatches {
			if i >= limit {
				sections = append(sections, fmt.Sprintf("   ... %d more", len(re.fieldMatches)-limit))
				break
			}
			style := lipgloss.NewStyle().Padding(0, 1)
			if i == re.fieldIndex {
				style = style.Background(re.Theme.Selection).Foreground(re.Theme.Foreground)
			}
			sections = append(sections, style.Render(fmt.Sprintf("  %s  [%s]", f.Name, f.Category)))
		}
	case modeOperator:
		sections = append(sections, "", "Field: "+fieldStyle.Render(re.selectedField.Name), "Select operator:")
		for i, op := range re.availableOps {
			style := lipgloss.NewStyle().Padding(0, 1)
			if i == re.operatorIndex {
				style = style.Background(re.Theme.Selection).Foreground(re.Theme.Foreground)
			}
			sections = append(sections, style.Render(fmt.Sprintf("  %-3s %s", op.Symbol(), op)))
		}
	case modeValue:
		op := re.availableOps[re.operatorIndex]
		sections = append(sections, "", fieldStyle.Render(re.selectedField.Name)+" "+opStyle.Render(op.Symbol()))
		if len(re.selectedField.Options) > 0 {
			labels := make([]string, len(re.selectedField.Options))
			for i, o := range re.selectedField.Options {
				labels[i] = o.Label
			}
			sections = append(sections, instructionStyle.Render("Options: "+strings.Join(labels, ", ")))
		}
		sections = append(sections, re.valueInput.View())
	}

	if !re.single {
		sections = append(sections, "\nPreview:")
		previewStyle := lipgloss.NewStyle().
			Foreground(re.Theme.Value).
			Padding(0, 1).
			Italic(true)
		sections = append(sections, previewStyle.Render(re.Preview()))
	}

	containerStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(re.Theme.BorderFocused).
		Width(re.Width).
		Height(re.Height).
		Padding(1)

	return containerStyle.Render(strings.Join(sections, "\n"))
}
