package filter

import (
	"fmt"

	"github.com/rebeliceyang/lazycrm/internal/models"
)

// Bound is a validated rule paired with its catalog field. Rule.Operator
// holds the normalized operator.
type Bound struct {
	Rule  models.Rule
	Field models.Field
}

// Target returns where the rule is evaluated
func (b Bound) Target() models.Target {
	return b.Field.Target
}

// Plan buckets rules by where they are evaluated
type Plan struct {
	Primary     []Bound
	OwnerFixed  []Bound
	OwnerCustom []Bound
}

// HasOwnerRules reports whether any rule needs owner id resolution
func (p *Plan) HasOwnerRules() bool {
	return len(p.OwnerFixed) > 0 || len(p.OwnerCustom) > 0
}

// Len returns the total number of routed rules
func (p *Plan) Len() int {
	return len(p.Primary) + len(p.OwnerFixed) + len(p.OwnerCustom)
}

// Classify returns the bucket of a rule. Custom field keys must also be
// present in the catalog, so a deleted definition is an unknown field.
func Classify(catalog *models.FieldCatalog, rule models.Rule) (models.Target, error) {
	field, ok := catalog.Lookup(rule.Field)
	if !ok {
		return 0, invalid(rule, ErrUnknownField)
	}
	if models.IsCustomFieldKey(rule.Field) != (field.Target == models.TargetOwnerCustom) {
		return 0, invalid(rule, fmt.Errorf("%w: %s is registered as %s", ErrUnknownField, rule.Field, field.Target))
	}
	return field.Target, nil
}

// Route validates every rule against the catalog and buckets it.
// The first invalid rule aborts routing.
func Route(catalog *models.FieldCatalog, rules []models.Rule) (*Plan, error) {
	plan := &Plan{}
	for _, rule := range rules {
		b, err := bind(catalog, rule)
		if err != nil {
			return nil, err
		}
		switch b.Field.Target {
		case models.TargetPrimary:
			plan.Primary = append(plan.Primary, b)
		case models.TargetOwnerFixed:
			plan.OwnerFixed = append(plan.OwnerFixed, b)
		case models.TargetOwnerCustom:
			plan.OwnerCustom = append(plan.OwnerCustom, b)
		}
	}
	return plan, nil
}

// RouteState flattens the state's simple and advanced rules and routes them
func RouteState(catalog *models.FieldCatalog, state models.FilterState) (*Plan, error) {
	rules, err := state.AllRules()
	if err != nil {
		return nil, &ValidationError{Err: err}
	}
	return Route(catalog, rules)
}

func bind(catalog *models.FieldCatalog, rule models.Rule) (Bound, error) {
	if err := rule.Validate(); err != nil {
		return Bound{}, invalid(rule, err)
	}
	if _, err := Classify(catalog, rule); err != nil {
		return Bound{}, err
	}
	field, _ := catalog.Lookup(rule.Field)

	if !Supports(field, rule.Operator) {
		return Bound{}, invalid(rule, fmt.Errorf("%w: %s on %s field", ErrUnsupportedOperator, rule.Operator, field.Kind))
	}

	// array columns always match by overlap
	if field.MultiValued && field.Target != models.TargetOwnerCustom {
		rule.Operator = models.OpOverlaps
	}

	if err := checkValueKind(field, rule.Value); err != nil {
		return Bound{}, invalid(rule, err)
	}
	return Bound{Rule: rule, Field: field}, nil
}

// checkValueKind rejects operands that cannot be coerced to the field kind
func checkValueKind(field models.Field, v models.Value) error {
	for _, s := range v.Scalars() {
		if _, err := coerce(field.Kind, s); err != nil {
			return err
		}
	}
	return nil
}
