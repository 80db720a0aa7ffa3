package models

import (
	"encoding/json"
	"errors"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestNewRule_Valid(t *testing.T) {
	r, err := NewRule("tags", OpOverlaps, Texts("vip"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.ID == "" {
		t.Error("expected rule id to be set")
	}
	if len(r.Candidates()) != 1 {
		t.Errorf("expected 1 candidate, got %d", len(r.Candidates()))
	}
}

func TestNewRule_EqualsRejectsList(t *testing.T) {
	_, err := NewRule("status", OpEquals, Texts("open", "closed"))
	if !errors.Is(err, ErrInvalidValue) {
		t.Errorf("expected ErrInvalidValue, got %v", err)
	}
}

func TestNewRule_UnknownOperator(t *testing.T) {
	_, err := NewRule("status", FilterOperator("like"), Text("open"))
	if !errors.Is(err, ErrUnsupportedOperator) {
		t.Errorf("expected ErrUnsupportedOperator, got %v", err)
	}
}

func TestNewRule_MissingValue(t *testing.T) {
	_, err := NewRule("status", OpEquals, Value{})
	if !errors.Is(err, ErrInvalidValue) {
		t.Errorf("expected ErrInvalidValue, got %v", err)
	}
}

func TestRuleGroup_FlattenNested(t *testing.T) {
	a, _ := NewRule("status", OpEquals, Text("open"))
	b, _ := NewRule("tags", OpOverlaps, Texts("vip"))
	c, _ := NewRule("client_type", OpIn, Texts("pf", "pj"))

	g := NewRuleGroup(a)
	inner := NewRuleGroup(b, c)
	g.Groups = append(g.Groups, inner)

	rules, err := g.Flatten()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rules) != 3 {
		t.Fatalf("expected 3 rules, got %d", len(rules))
	}
	if rules[0].Field != "status" || rules[2].Field != "client_type" {
		t.Errorf("unexpected flatten order: %v", rules)
	}
}

func TestRuleGroup_FlattenRejectsOr(t *testing.T) {
	g := NewRuleGroup()
	g.Groups = []RuleGroup{{ID: "x", Condition: ConditionOr}}
	if _, err := g.Flatten(); !errors.Is(err, ErrUnsupportedCondition) {
		t.Errorf("expected ErrUnsupportedCondition, got %v", err)
	}
}

func TestFilterState_SetRuleReplacesByField(t *testing.T) {
	var s FilterState
	first, _ := NewRule("status", OpEquals, Text("open"))
	second, _ := NewRule("status", OpEquals, Text("closed"))
	s.SetRule(first)
	s.SetRule(second)

	if len(s.Rules) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(s.Rules))
	}
	if got := s.Rules[0].Value.Strings()[0]; got != "closed" {
		t.Errorf("expected 'closed', got '%s'", got)
	}
	if !s.RemoveRule("status") {
		t.Error("expected RemoveRule to report true")
	}
	if s.HasActiveFilters() {
		t.Error("expected no active filters")
	}
}

func TestFilterState_ClearScopes(t *testing.T) {
	fixed, _ := NewRule("tags", OpOverlaps, Texts("vip"))
	custom, _ := NewRule(CustomFieldKey("f1"), OpIn, Texts("Legal"))
	s := FilterState{
		Search:      "acme",
		Unread:      UnreadOnly,
		LastMessage: WindowRecent,
		Rules:       []Rule{fixed, custom},
		Page:        Pagination{Offset: 40, Limit: 20},
	}
	s.SetAdvanced(NewRuleGroup(fixed))

	basic := s.Clone()
	basic.Clear(ClearBasic)
	if basic.Search != "" || basic.Unread != UnreadAll || basic.LastMessage != WindowAll {
		t.Error("expected basic clear to reset search and toggles")
	}
	if len(basic.Rules) != 1 || basic.Rules[0].Field != custom.Field {
		t.Errorf("expected only the custom rule to remain, got %v", basic.Rules)
	}
	if basic.Advanced == nil {
		t.Error("expected basic clear to keep the advanced group")
	}
	if basic.Page.Offset != 0 {
		t.Errorf("expected offset reset, got %d", basic.Page.Offset)
	}

	customOnly := s.Clone()
	customOnly.Clear(ClearCustom)
	if len(customOnly.Rules) != 1 || customOnly.Rules[0].Field != "tags" {
		t.Errorf("expected only the fixed rule to remain, got %v", customOnly.Rules)
	}

	all := s.Clone()
	all.Clear(ClearAll)
	if all.HasActiveFilters() {
		t.Error("expected clear all to remove every filter")
	}

	if len(s.Rules) != 2 || s.Search != "acme" {
		t.Error("expected the original state to be untouched by clones")
	}
}

func TestValue_JSON(t *testing.T) {
	var v Value
	if err := json.Unmarshal([]byte(`["Legal", 3, true]`), &v); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !v.IsList() || len(v.Scalars()) != 3 {
		t.Fatalf("expected a 3 element list, got %v", v.Strings())
	}
	if v.Scalars()[1].Kind() != KindNumber {
		t.Errorf("expected number kind, got %v", v.Scalars()[1].Kind())
	}

	var single Value
	if err := json.Unmarshal([]byte(`"vip"`), &single); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s, ok := single.Scalar(); !ok || s.String() != "vip" {
		t.Errorf("expected scalar 'vip', got %v", single.Strings())
	}

	var nested Value
	if err := json.Unmarshal([]byte(`[["a"]]`), &nested); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("expected ErrInvalidValue for nested list, got %v", err)
	}
}

func TestValue_YAML(t *testing.T) {
	var holder struct {
		V Value `yaml:"v"`
	}
	if err := yaml.Unmarshal([]byte("v: [Legal, Tech]\n"), &holder); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := holder.V.Strings(); len(got) != 2 || got[1] != "Tech" {
		t.Errorf("expected [Legal Tech], got %v", got)
	}

	out, err := yaml.Marshal(holder)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var again struct {
		V Value `yaml:"v"`
	}
	if err := yaml.Unmarshal(out, &again); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !again.V.IsList() || len(again.V.Scalars()) != 2 {
		t.Errorf("expected list to survive yaml, got %s", out)
	}

	if err := yaml.Unmarshal([]byte("v: {a: 1}\n"), &holder); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("expected ErrInvalidValue for mapping, got %v", err)
	}
}

func TestFieldCatalog_RejectsDuplicates(t *testing.T) {
	_, err := NewFieldCatalog([]Field{{ID: "status"}, {ID: "status"}})
	if err == nil {
		t.Error("expected duplicate id error")
	}
}

func TestFieldCatalog_ReturnsCopies(t *testing.T) {
	c, err := NewFieldCatalog([]Field{
		{ID: "tags", Category: CategoryBasic, Options: []Option{{Value: "vip", Label: "vip"}}},
		{ID: CustomFieldKey("f1"), Category: CategoryCustom},
	}, "tags: discovery failed")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f, _ := c.Lookup("tags")
	f.Options[0].Label = "changed"
	again, _ := c.Lookup("tags")
	if again.Options[0].Label != "vip" {
		t.Error("expected catalog entry to be immutable")
	}

	if got := c.Categories(); len(got) != 2 || got[0] != CategoryBasic {
		t.Errorf("unexpected categories: %v", got)
	}
	if !c.IsDegraded() {
		t.Error("expected catalog to be degraded")
	}
	if id, ok := ParseCustomFieldKey(CustomFieldKey("f1")); !ok || id != "f1" {
		t.Errorf("expected 'f1', got '%s'", id)
	}
}
