package filter

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/rebeliceyang/lazycrm/internal/models"
	"github.com/rebeliceyang/lazycrm/internal/store"
)

const dayLayout = "2006-01-02"

var dateLayouts = []string{time.RFC3339, "2006-01-02 15:04", dayLayout}

// Predicate renders a fixed-field rule as native predicates on its
// column, all of which must hold. A date given without a time covers the
// whole UTC day, so equals becomes a half-open range.
func Predicate(b Bound) ([]store.Predicate, error) {
	if b.Field.Target == models.TargetOwnerCustom {
		return nil, fmt.Errorf("field %s is a custom attribute", b.Field.ID)
	}
	col := b.Field.Column
	if col == "" {
		col = b.Field.ID
	}
	scalars := b.Rule.Value.Scalars()

	switch b.Rule.Operator {
	case models.OpOverlaps:
		return []store.Predicate{store.Overlaps(col, dedupStrings(b.Rule.Value.Strings()))}, nil
	case models.OpIn:
		list, err := coerceList(b.Field.Kind, scalars)
		if err != nil {
			return nil, err
		}
		return []store.Predicate{store.In(col, list)}, nil
	}

	if len(scalars) != 1 {
		return nil, fmt.Errorf("%w: %s expects one value", ErrInvalidValue, b.Rule.Operator)
	}
	if b.Field.Kind == models.FieldDate {
		if day, ok := parseDay(scalars[0]); ok {
			return dayPredicates(col, b.Rule.Operator, day)
		}
	}
	v, err := coerce(b.Field.Kind, scalars[0])
	if err != nil {
		return nil, err
	}
	p, err := compare(col, b.Rule.Operator, v)
	if err != nil {
		return nil, err
	}
	return []store.Predicate{p}, nil
}

func compare(col string, op models.FilterOperator, v any) (store.Predicate, error) {
	switch op {
	case models.OpEquals:
		return store.Eq(col, v), nil
	case models.OpGreaterThan:
		return store.Predicate{Column: col, Op: store.OpGt, Value: v}, nil
	case models.OpGreaterEqual:
		return store.Predicate{Column: col, Op: store.OpGte, Value: v}, nil
	case models.OpLessThan:
		return store.Predicate{Column: col, Op: store.OpLt, Value: v}, nil
	case models.OpLessEqual:
		return store.Predicate{Column: col, Op: store.OpLte, Value: v}, nil
	default:
		return store.Predicate{}, fmt.Errorf("%w: %s", ErrUnsupportedOperator, op)
	}
}

// dayPredicates compares against the day [day, day+1)
func dayPredicates(col string, op models.FilterOperator, day time.Time) ([]store.Predicate, error) {
	next := day.AddDate(0, 0, 1)
	switch op {
	case models.OpEquals:
		return []store.Predicate{
			{Column: col, Op: store.OpGte, Value: day},
			{Column: col, Op: store.OpLt, Value: next},
		}, nil
	case models.OpGreaterThan:
		return []store.Predicate{{Column: col, Op: store.OpGte, Value: next}}, nil
	case models.OpLessEqual:
		return []store.Predicate{{Column: col, Op: store.OpLt, Value: next}}, nil
	}
	p, err := compare(col, op, day)
	if err != nil {
		return nil, err
	}
	return []store.Predicate{p}, nil
}

func parseDay(s models.Scalar) (time.Time, bool) {
	if s.Kind() != models.KindString {
		return time.Time{}, false
	}
	t, err := time.Parse(dayLayout, s.String())
	return t, err == nil
}

// Predicates renders every bound rule
func Predicates(bounds []Bound) ([]store.Predicate, error) {
	out := make([]store.Predicate, 0, len(bounds))
	for _, b := range bounds {
		p, err := Predicate(b)
		if err != nil {
			return nil, invalid(b.Rule, err)
		}
		out = append(out, p...)
	}
	return out, nil
}

// CandidatePredicates renders one field_value predicate per distinct
// candidate of a custom-field rule. Multi-select values are arrays, so
// they match by containment of a one element array; other kinds compare
// the stored JSON scalar for equality.
func CandidatePredicates(b Bound) ([]store.Predicate, error) {
	if b.Field.Target != models.TargetOwnerCustom {
		return nil, fmt.Errorf("field %s is not a custom attribute", b.Field.ID)
	}
	seen := make(map[string]bool)
	var out []store.Predicate
	for _, s := range b.Rule.Value.Scalars() {
		raw, err := json.Marshal(s)
		if err != nil {
			return nil, err
		}
		key := string(raw)
		if seen[key] {
			continue
		}
		seen[key] = true

		if b.Field.Kind == models.FieldMultiSelect {
			out = append(out, store.Contains(store.ColFieldValue, json.RawMessage("["+key+"]")))
		} else {
			out = append(out, store.Eq(store.ColFieldValue, json.RawMessage(raw)))
		}
	}
	return out, nil
}

// coerce converts a scalar to the Go type stored for kind
func coerce(kind models.FieldKind, s models.Scalar) (any, error) {
	switch kind {
	case models.FieldNumber:
		switch s.Kind() {
		case models.KindNumber:
			return s.Any(), nil
		case models.KindString:
			f, err := strconv.ParseFloat(s.String(), 64)
			if err != nil {
				return nil, fmt.Errorf("%w: %q is not a number", ErrInvalidValue, s.String())
			}
			return f, nil
		}
		return nil, fmt.Errorf("%w: %q is not a number", ErrInvalidValue, s.String())
	case models.FieldDate:
		if s.Kind() != models.KindString {
			return nil, fmt.Errorf("%w: %q is not a date", ErrInvalidValue, s.String())
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s.String()); err == nil {
				return t, nil
			}
		}
		return nil, fmt.Errorf("%w: %q is not a date", ErrInvalidValue, s.String())
	case models.FieldBoolean:
		if s.Kind() == models.KindBool {
			return s.Any(), nil
		}
		b, err := strconv.ParseBool(s.String())
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a boolean", ErrInvalidValue, s.String())
		}
		return b, nil
	default:
		return s.String(), nil
	}
}

// coerceList builds a typed slice so drivers can encode it as an array
func coerceList(kind models.FieldKind, scalars []models.Scalar) (any, error) {
	switch kind {
	case models.FieldNumber:
		out := make([]float64, 0, len(scalars))
		for _, s := range scalars {
			v, err := coerce(kind, s)
			if err != nil {
				return nil, err
			}
			out = append(out, v.(float64))
		}
		return out, nil
	case models.FieldDate:
		out := make([]time.Time, 0, len(scalars))
		for _, s := range scalars {
			v, err := coerce(kind, s)
			if err != nil {
				return nil, err
			}
			out = append(out, v.(time.Time))
		}
		return out, nil
	default:
		out := make([]string, 0, len(scalars))
		for _, s := range scalars {
			out = append(out, s.String())
		}
		return dedupStrings(out), nil
	}
}

func dedupStrings(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
