package models

import (
	"fmt"
	"strings"
)

// FieldKind is the value domain of a filterable field
type FieldKind string

const (
	FieldText         FieldKind = "text"
	FieldSingleSelect FieldKind = "single_select"
	FieldMultiSelect  FieldKind = "multi_select"
	FieldNumber       FieldKind = "number"
	FieldDate         FieldKind = "date"
	FieldBoolean      FieldKind = "boolean"
)

// Target identifies where a field is evaluated
type Target int

const (
	// TargetPrimary fields are native conversation columns
	TargetPrimary Target = iota
	// TargetOwnerFixed fields are contact columns
	TargetOwnerFixed
	// TargetOwnerCustom fields are EAV custom attributes of the contact
	TargetOwnerCustom
)

func (t Target) String() string {
	switch t {
	case TargetPrimary:
		return "PRIMARY"
	case TargetOwnerFixed:
		return "OWNER_FIXED"
	case TargetOwnerCustom:
		return "OWNER_CUSTOM"
	default:
		return "UNKNOWN"
	}
}

// Field categories used to group the catalog
const (
	CategoryBasic        = "basic"
	CategoryKanban       = "kanban"
	CategoryCommercial   = "commercial"
	CategoryTemporal     = "temporal"
	CategoryConversation = "conversation"
	CategoryCustom       = "custom"
)

// CustomFieldPrefix namespaces custom field ids in the catalog
const CustomFieldPrefix = "custom:"

// CustomFieldKey returns the catalog id of a custom field definition
func CustomFieldKey(fieldID string) string {
	return CustomFieldPrefix + fieldID
}

// IsCustomFieldKey reports whether id is namespaced as a custom field
func IsCustomFieldKey(id string) bool {
	return strings.HasPrefix(id, CustomFieldPrefix)
}

// ParseCustomFieldKey extracts the definition id from a custom field key
func ParseCustomFieldKey(id string) (string, bool) {
	if !IsCustomFieldKey(id) {
		return "", false
	}
	rest := strings.TrimPrefix(id, CustomFieldPrefix)
	if rest == "" {
		return "", false
	}
	return rest, true
}

// Option is one selectable value of a field
type Option struct {
	Value string `json:"value" yaml:"value"`
	Label string `json:"label" yaml:"label"`
}

// Field is one filterable catalog entry
type Field struct {
	ID       string    `json:"id" yaml:"id"`
	Name     string    `json:"name" yaml:"name"`
	Kind     FieldKind `json:"kind" yaml:"kind"`
	Options  []Option  `json:"options,omitempty" yaml:"options,omitempty"`
	Category string    `json:"category" yaml:"category"`
	Target   Target    `json:"-" yaml:"-"`
	// Column is the storage column for fixed fields
	Column string `json:"-" yaml:"-"`
	// CustomFieldID is the definition id for custom fields
	CustomFieldID string `json:"-" yaml:"-"`
	// MultiValued marks array columns, which always match by overlap
	MultiValued bool `json:"multi_valued,omitempty" yaml:"multi_valued,omitempty"`
}

// OptionLabel returns the display label of value, or value itself
func (f Field) OptionLabel(value string) string {
	for _, o := range f.Options {
		if o.Value == value {
			return o.Label
		}
	}
	return value
}

func (f Field) clone() Field {
	out := f
	if f.Options != nil {
		out.Options = append([]Option(nil), f.Options...)
	}
	return out
}

// FieldCatalog is the immutable set of filterable fields of one session
type FieldCatalog struct {
	fields   []Field
	index    map[string]int
	degraded []string
}

// NewFieldCatalog builds a catalog; ids must be unique.
// degraded lists human readable notes about discovery that failed.
func NewFieldCatalog(fields []Field, degraded ...string) (*FieldCatalog, error) {
	c := &FieldCatalog{
		fields: make([]Field, 0, len(fields)),
		index:  make(map[string]int, len(fields)),
	}
	for _, f := range fields {
		if f.ID == "" {
			return nil, fmt.Errorf("catalog field %q has no id", f.Name)
		}
		if _, dup := c.index[f.ID]; dup {
			return nil, fmt.Errorf("duplicate catalog field id %q", f.ID)
		}
		c.index[f.ID] = len(c.fields)
		c.fields = append(c.fields, f.clone())
	}
	c.degraded = append([]string(nil), degraded...)
	return c, nil
}

// Lookup returns a copy of the field with the given id
func (c *FieldCatalog) Lookup(id string) (Field, bool) {
	if c == nil {
		return Field{}, false
	}
	i, ok := c.index[id]
	if !ok {
		return Field{}, false
	}
	return c.fields[i].clone(), true
}

// Fields returns a copy of every field in catalog order
func (c *FieldCatalog) Fields() []Field {
	if c == nil {
		return nil
	}
	out := make([]Field, len(c.fields))
	for i, f := range c.fields {
		out[i] = f.clone()
	}
	return out
}

// Len returns the number of fields
func (c *FieldCatalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.fields)
}

// Categories returns the distinct categories in first-seen order
func (c *FieldCatalog) Categories() []string {
	if c == nil {
		return nil
	}
	seen := make(map[string]bool)
	var out []string
	for _, f := range c.fields {
		if !seen[f.Category] {
			seen[f.Category] = true
			out = append(out, f.Category)
		}
	}
	return out
}

// ByCategory returns copies of the fields in one category
func (c *FieldCatalog) ByCategory(category string) []Field {
	if c == nil {
		return nil
	}
	var out []Field
	for _, f := range c.fields {
		if f.Category == category {
			out = append(out, f.clone())
		}
	}
	return out
}

// Degraded returns the discovery failures recorded while building
func (c *FieldCatalog) Degraded() []string {
	if c == nil {
		return nil
	}
	return append([]string(nil), c.degraded...)
}

// IsDegraded reports whether any discovery step failed
func (c *FieldCatalog) IsDegraded() bool {
	return c != nil && len(c.degraded) > 0
}
