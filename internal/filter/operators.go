package filter

import "github.com/rebeliceyang/lazycrm/internal/models"

// OperatorsForKind returns the operators a field of the given kind accepts
func OperatorsForKind(kind models.FieldKind) []models.FilterOperator {
	switch kind {
	case models.FieldMultiSelect:
		return []models.FilterOperator{
			models.OpOverlaps, models.OpIn, models.OpEquals,
		}
	case models.FieldSingleSelect, models.FieldText:
		return []models.FilterOperator{
			models.OpEquals, models.OpIn,
		}
	case models.FieldNumber, models.FieldDate:
		return []models.FilterOperator{
			models.OpEquals, models.OpIn,
			models.OpGreaterThan, models.OpGreaterEqual,
			models.OpLessThan, models.OpLessEqual,
		}
	case models.FieldBoolean:
		return []models.FilterOperator{
			models.OpEquals,
		}
	default:
		return []models.FilterOperator{
			models.OpEquals,
		}
	}
}

// Supports reports whether the field accepts op
func Supports(field models.Field, op models.FilterOperator) bool {
	// custom attributes are stored as JSON and only compare by value
	if field.Target == models.TargetOwnerCustom && op.IsRange() {
		return false
	}
	for _, allowed := range OperatorsForKind(field.Kind) {
		if allowed == op {
			return true
		}
	}
	return false
}
