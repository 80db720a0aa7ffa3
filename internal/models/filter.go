package models

import (
	"fmt"

	"github.com/google/uuid"
)

// FilterOperator represents a rule comparison operator
type FilterOperator string

const (
	OpEquals       FilterOperator = "equals"
	OpIn           FilterOperator = "in"
	OpOverlaps     FilterOperator = "overlaps"
	OpGreaterThan  FilterOperator = "greater_than"
	OpGreaterEqual FilterOperator = "greater_equal"
	OpLessThan     FilterOperator = "less_than"
	OpLessEqual    FilterOperator = "less_equal"
)

// Valid reports whether op is a known operator
func (op FilterOperator) Valid() bool {
	switch op {
	case OpEquals, OpIn, OpOverlaps, OpGreaterThan, OpGreaterEqual, OpLessThan, OpLessEqual:
		return true
	}
	return false
}

// IsRange reports whether op compares ordered values
func (op FilterOperator) IsRange() bool {
	switch op {
	case OpGreaterThan, OpGreaterEqual, OpLessThan, OpLessEqual:
		return true
	}
	return false
}

// Symbol returns a short form used in previews
func (op FilterOperator) Symbol() string {
	switch op {
	case OpEquals:
		return "="
	case OpIn:
		return "IN"
	case OpOverlaps:
		return "&&"
	case OpGreaterThan:
		return ">"
	case OpGreaterEqual:
		return ">="
	case OpLessThan:
		return "<"
	case OpLessEqual:
		return "<="
	default:
		return string(op)
	}
}

// Rule is a single filter predicate on one catalog field
type Rule struct {
	ID       string         `json:"id" yaml:"id"`
	Field    string         `json:"field" yaml:"field"`
	Operator FilterOperator `json:"operator" yaml:"operator"`
	Value    Value          `json:"value" yaml:"value"`
}

// NewRule builds a validated rule with a fresh id
func NewRule(field string, op FilterOperator, value Value) (Rule, error) {
	r := Rule{
		ID:       uuid.New().String(),
		Field:    field,
		Operator: op,
		Value:    value,
	}
	if err := r.Validate(); err != nil {
		return Rule{}, err
	}
	return r, nil
}

// Validate checks the shape of the rule. Field existence is checked by the router.
func (r Rule) Validate() error {
	if r.Field == "" {
		return fmt.Errorf("%w: rule has no field", ErrInvalidValue)
	}
	if !r.Operator.Valid() {
		return fmt.Errorf("%w: operator %q", ErrUnsupportedOperator, r.Operator)
	}
	if err := r.Value.Validate(); err != nil {
		return fmt.Errorf("rule %s: %w", r.Field, err)
	}
	// in and overlaps accept a single value as a one element list
	if r.Operator != OpIn && r.Operator != OpOverlaps && r.Value.IsList() {
		return fmt.Errorf("%w: %s expects a single value", ErrInvalidValue, r.Operator)
	}
	return nil
}

// Candidates returns the rule operand as a list of alternatives
func (r Rule) Candidates() []Scalar {
	return r.Value.Scalars()
}

// Condition is the boolean connective of a rule group
type Condition string

const (
	ConditionAnd Condition = "AND"
	ConditionOr  Condition = "OR"
)

// RuleGroup is an AND composition of rules and nested groups
type RuleGroup struct {
	ID        string      `json:"id" yaml:"id"`
	Condition Condition   `json:"condition" yaml:"condition"`
	Rules     []Rule      `json:"rules,omitempty" yaml:"rules,omitempty"`
	Groups    []RuleGroup `json:"groups,omitempty" yaml:"groups,omitempty"`
}

// NewRuleGroup creates an AND group
func NewRuleGroup(rules ...Rule) RuleGroup {
	return RuleGroup{
		ID:        uuid.New().String(),
		Condition: ConditionAnd,
		Rules:     append([]Rule(nil), rules...),
	}
}

// Flatten returns every leaf rule of the group in depth-first order.
// Only AND groups can be flattened; an empty condition is read as AND.
func (g RuleGroup) Flatten() ([]Rule, error) {
	if g.Condition != "" && g.Condition != ConditionAnd {
		return nil, fmt.Errorf("%w: group %s uses %s", ErrUnsupportedCondition, g.ID, g.Condition)
	}
	out := make([]Rule, 0, len(g.Rules))
	out = append(out, g.Rules...)
	for _, child := range g.Groups {
		rules, err := child.Flatten()
		if err != nil {
			return nil, err
		}
		out = append(out, rules...)
	}
	return out, nil
}

// IsEmpty reports whether the group holds no rules at any depth
func (g RuleGroup) IsEmpty() bool {
	if len(g.Rules) > 0 {
		return false
	}
	for _, child := range g.Groups {
		if !child.IsEmpty() {
			return false
		}
	}
	return true
}

// Clone deep copies the group
func (g RuleGroup) Clone() RuleGroup {
	out := RuleGroup{ID: g.ID, Condition: g.Condition}
	if g.Rules != nil {
		out.Rules = append([]Rule(nil), g.Rules...)
	}
	for _, child := range g.Groups {
		out.Groups = append(out.Groups, child.Clone())
	}
	return out
}

// UnreadFilter selects conversations by derived unread state
type UnreadFilter string

const (
	UnreadAll  UnreadFilter = "all"
	UnreadOnly UnreadFilter = "unread"
	UnreadNone UnreadFilter = "read"
)

// Next cycles all -> unread -> read
func (u UnreadFilter) Next() UnreadFilter {
	switch u {
	case UnreadOnly:
		return UnreadNone
	case UnreadNone:
		return UnreadAll
	default:
		return UnreadOnly
	}
}

// WindowFilter selects conversations by last message age
type WindowFilter string

const (
	WindowAll    WindowFilter = "all"
	WindowRecent WindowFilter = "recent"
	WindowOlder  WindowFilter = "older"
)

// Next cycles all -> recent -> older
func (w WindowFilter) Next() WindowFilter {
	switch w {
	case WindowRecent:
		return WindowOlder
	case WindowOlder:
		return WindowAll
	default:
		return WindowRecent
	}
}

// Pagination is an offset/limit window over the primary records
type Pagination struct {
	Offset int `json:"offset" yaml:"offset"`
	Limit  int `json:"limit" yaml:"limit"`
}

// Ordering selects the sort column of the primary query
type Ordering struct {
	Field      string `json:"field,omitempty" yaml:"field,omitempty"`
	Descending bool   `json:"descending" yaml:"descending"`
}

// ClearScope names which part of the filter state to reset
type ClearScope string

const (
	ClearBasic    ClearScope = "basic"
	ClearCustom   ClearScope = "custom"
	ClearAdvanced ClearScope = "advanced"
	ClearAll      ClearScope = "all"
)

// FilterState is the complete filter selection of one session
type FilterState struct {
	Search      string       `json:"search,omitempty" yaml:"search,omitempty"`
	Rules       []Rule       `json:"rules,omitempty" yaml:"rules,omitempty"`
	Advanced    *RuleGroup   `json:"advanced,omitempty" yaml:"advanced,omitempty"`
	Unread      UnreadFilter `json:"unread,omitempty" yaml:"unread,omitempty"`
	LastMessage WindowFilter `json:"last_message,omitempty" yaml:"last_message,omitempty"`
	Page        Pagination   `json:"page" yaml:"page"`
	Order       Ordering     `json:"order" yaml:"order"`
}

// AllRules returns the simple rules followed by the flattened advanced group
func (s FilterState) AllRules() ([]Rule, error) {
	out := append([]Rule(nil), s.Rules...)
	if s.Advanced != nil {
		rules, err := s.Advanced.Flatten()
		if err != nil {
			return nil, err
		}
		out = append(out, rules...)
	}
	return out, nil
}

// SetRule replaces the simple rule on the same field, or appends it
func (s *FilterState) SetRule(r Rule) {
	for i := range s.Rules {
		if s.Rules[i].Field == r.Field {
			s.Rules[i] = r
			return
		}
	}
	s.Rules = append(s.Rules, r)
}

// RemoveRule drops the simple rule on field; it reports whether one existed
func (s *FilterState) RemoveRule(field string) bool {
	for i := range s.Rules {
		if s.Rules[i].Field == field {
			s.Rules = append(s.Rules[:i], s.Rules[i+1:]...)
			return true
		}
	}
	return false
}

// RuleFor returns the simple rule on field
func (s FilterState) RuleFor(field string) (Rule, bool) {
	for _, r := range s.Rules {
		if r.Field == field {
			return r, true
		}
	}
	return Rule{}, false
}

// SetAdvanced installs the advanced rule group
func (s *FilterState) SetAdvanced(g RuleGroup) {
	c := g.Clone()
	s.Advanced = &c
}

// ClearAdvanced drops the advanced rule group
func (s *FilterState) ClearAdvanced() {
	s.Advanced = nil
}

// Clear resets the given scope. Basic clears the search, the residual
// toggles and every fixed-field rule; custom clears custom-field rules.
func (s *FilterState) Clear(scope ClearScope) {
	switch scope {
	case ClearBasic:
		s.Search = ""
		s.Unread = UnreadAll
		s.LastMessage = WindowAll
		s.Rules = filterRules(s.Rules, func(r Rule) bool { return IsCustomFieldKey(r.Field) })
	case ClearCustom:
		s.Rules = filterRules(s.Rules, func(r Rule) bool { return !IsCustomFieldKey(r.Field) })
	case ClearAdvanced:
		s.Advanced = nil
	case ClearAll:
		s.Search = ""
		s.Unread = UnreadAll
		s.LastMessage = WindowAll
		s.Rules = nil
		s.Advanced = nil
	}
	s.Page.Offset = 0
}

func filterRules(rules []Rule, keep func(Rule) bool) []Rule {
	var out []Rule
	for _, r := range rules {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

// HasActiveFilters reports whether anything narrows the result set
func (s FilterState) HasActiveFilters() bool {
	if s.Search != "" || len(s.Rules) > 0 {
		return true
	}
	if s.Advanced != nil && !s.Advanced.IsEmpty() {
		return true
	}
	if s.Unread != "" && s.Unread != UnreadAll {
		return true
	}
	return s.LastMessage != "" && s.LastMessage != WindowAll
}

// Clone deep copies the state
func (s FilterState) Clone() FilterState {
	out := s
	if s.Rules != nil {
		out.Rules = append([]Rule(nil), s.Rules...)
	}
	if s.Advanced != nil {
		g := s.Advanced.Clone()
		out.Advanced = &g
	}
	return out
}
