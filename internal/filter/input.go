package filter

import (
	"fmt"
	"strings"

	"github.com/rebeliceyang/lazycrm/internal/models"
)

// AcceptsList reports whether op takes a list operand
func AcceptsList(op models.FilterOperator) bool {
	return op == models.OpIn || op == models.OpOverlaps
}

// ParseInput turns typed text into a rule on field. List operators split
// the text on commas. Option labels are mapped to their stored values.
func ParseInput(field models.Field, op models.FilterOperator, text string) (models.Rule, error) {
	if !Supports(field, op) {
		return models.Rule{}, &ValidationError{
			Field: field.ID,
			Err:   fmt.Errorf("%w: %s does not accept %s", ErrUnsupportedOperator, field.Name, op),
		}
	}

	parts := []string{text}
	if AcceptsList(op) {
		parts = strings.Split(text, ",")
	}
	var vals []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		vals = append(vals, optionValue(field, p))
	}
	if len(vals) == 0 {
		return models.Rule{}, &ValidationError{
			Field: field.ID,
			Err:   fmt.Errorf("%w: no value given", ErrInvalidValue),
		}
	}

	value := models.Text(vals[0])
	if AcceptsList(op) {
		value = models.Texts(vals...)
	}
	for _, s := range value.Scalars() {
		if _, err := coerce(field.Kind, s); err != nil {
			return models.Rule{}, &ValidationError{Field: field.ID, Err: err}
		}
	}

	rule, err := models.NewRule(field.ID, op, value)
	if err != nil {
		return models.Rule{}, &ValidationError{Field: field.ID, Err: err}
	}
	return rule, nil
}

// optionValue maps a label to its option value, case-insensitively
func optionValue(field models.Field, text string) string {
	for _, o := range field.Options {
		if o.Value == text {
			return text
		}
	}
	for _, o := range field.Options {
		if strings.EqualFold(o.Label, text) {
			return o.Value
		}
	}
	return text
}

// Describe renders a rule for display using catalog names and labels
func Describe(catalog *models.FieldCatalog, r models.Rule) string {
	field, ok := catalog.Lookup(r.Field)
	if !ok {
		return fmt.Sprintf("%s %s %s", r.Field, r.Operator.Symbol(), strings.Join(r.Value.Strings(), ", "))
	}
	labels := make([]string, 0, len(r.Value.Scalars()))
	for _, v := range r.Value.Strings() {
		labels = append(labels, field.OptionLabel(v))
	}
	operand := strings.Join(labels, ", ")
	if r.Value.IsList() {
		operand = "(" + operand + ")"
	}
	return fmt.Sprintf("%s %s %s", field.Name, r.Operator.Symbol(), operand)
}
