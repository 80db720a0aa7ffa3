package components

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/rebeliceyang/lazycrm/internal/filter"
	"github.com/rebeliceyang/lazycrm/internal/models"
	"github.com/rebeliceyang/lazycrm/internal/ui/theme"
)

func editorCatalog(t *testing.T) *models.FieldCatalog {
	t.Helper()
	c, err := models.NewFieldCatalog([]models.Field{
		{ID: "status", Name: "Conversation status", Kind: models.FieldSingleSelect, Category: models.CategoryConversation, Target: models.TargetPrimary, Column: "status",
			Options: []models.Option{{Value: "open", Label: "Open"}, {Value: "closed", Label: "Closed"}}},
		{ID: "tags", Name: "Tags", Kind: models.FieldMultiSelect, Category: models.CategoryKanban, Target: models.TargetOwnerFixed, Column: "tags", MultiValued: true},
		{ID: models.CustomFieldKey("industry"), Name: "Industry", Kind: models.FieldMultiSelect, Category: models.CategoryCustom, Target: models.TargetOwnerCustom, CustomFieldID: "industry"},
	})
	if err != nil {
		t.Fatalf("failed to build catalog: %v", err)
	}
	return c
}

func typeText(re *RuleEditor, s string) {
	for _, r := range s {
		re.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func press(re *RuleEditor, k tea.KeyType) tea.Cmd {
	_, cmd := re.Update(tea.KeyMsg{Type: k})
	return cmd
}

func TestRuleEditor_BuildAndApplyGroup(t *testing.T) {
	var applied *models.RuleGroup
	hooks := filter.AdvancedHooks{Apply: func(g models.RuleGroup) { applied = &g }}
	re := NewRuleEditor(theme.DefaultTheme(), editorCatalog(t), hooks)
	re.Load(nil)

	typeText(re, "a")
	if re.Mode() != "field" {
		t.Fatalf("expected field mode, got %q", re.Mode())
	}
	typeText(re, "indus")
	press(re, tea.KeyEnter) // pick Industry
	press(re, tea.KeyEnter) // first operator: overlaps
	typeText(re, "Legal, Tech")
	press(re, tea.KeyEnter)

	if re.Mode() != "" {
		t.Fatalf("expected navigation mode, got %q", re.Mode())
	}
	if got := re.Preview(); got != "Industry && (Legal, Tech)" {
		t.Errorf("unexpected preview %q", got)
	}

	cmd := press(re, tea.KeyEnter)
	if cmd == nil {
		t.Fatal("expected apply command")
	}
	if _, ok := cmd().(ApplyRuleGroupMsg); !ok {
		t.Errorf("expected ApplyRuleGroupMsg")
	}
	if applied == nil || len(applied.Rules) != 1 {
		t.Fatalf("expected hooks to receive one rule, got %v", applied)
	}
	if applied.Rules[0].Operator != models.OpOverlaps {
		t.Errorf("expected overlaps, got %s", applied.Rules[0].Operator)
	}
}

func TestRuleEditor_EmptyGroupNotApplied(t *testing.T) {
	called := false
	re := NewRuleEditor(theme.DefaultTheme(), editorCatalog(t), filter.AdvancedHooks{Apply: func(models.RuleGroup) { called = true }})
	re.Load(nil)
	if cmd := press(re, tea.KeyEnter); cmd != nil {
		t.Error("expected no command for empty group")
	}
	if called {
		t.Error("expected hooks not to be called")
	}
}

func TestRuleEditor_ClearCallsHook(t *testing.T) {
	cleared := false
	re := NewRuleEditor(theme.DefaultTheme(), editorCatalog(t), filter.AdvancedHooks{Clear: func() { cleared = true }})
	g := models.NewRuleGroup(models.Rule{ID: "r", Field: "tags", Operator: models.OpOverlaps, Value: models.Texts("vip")})
	re.Load(&g)

	typeText(re, "D")
	if !cleared {
		t.Error("expected clear hook")
	}
	if !re.Group().IsEmpty() {
		t.Error("expected empty group after clear")
	}
}

func TestRuleEditor_SingleFieldMapsLabel(t *testing.T) {
	c := editorCatalog(t)
	field, _ := c.Lookup("status")
	re := NewRuleEditor(theme.DefaultTheme(), c, filter.AdvancedHooks{})
	re.EditField(field, nil)

	press(re, tea.KeyEnter) // equals
	typeText(re, "Closed")
	cmd := press(re, tea.KeyEnter)
	if cmd == nil {
		t.Fatal("expected a command")
	}
	msg, ok := cmd().(SetRuleMsg)
	if !ok {
		t.Fatal("expected SetRuleMsg")
	}
	if msg.Rule.Field != "status" || msg.Rule.Value.Strings()[0] != "closed" {
		t.Errorf("expected status = closed, got %s %v", msg.Rule.Field, msg.Rule.Value.Strings())
	}
}

func TestRuleEditor_InvalidValueStays(t *testing.T) {
	c := editorCatalog(t)
	field, _ := c.Lookup("tags")
	re := NewRuleEditor(theme.DefaultTheme(), c, filter.AdvancedHooks{})
	re.EditField(field, nil)

	press(re, tea.KeyEnter)
	if cmd := press(re, tea.KeyEnter); cmd != nil {
		t.Error("expected no command for blank value")
	}
	if re.Mode() != "value" {
		t.Errorf("expected to stay in value mode, got %q", re.Mode())
	}
}
