package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

var (
	// ErrInvalidValue is returned when a rule value is not a scalar or a flat list of scalars
	ErrInvalidValue = errors.New("invalid rule value")
	// ErrUnsupportedOperator is returned for unknown operators or operators the field kind does not allow
	ErrUnsupportedOperator = errors.New("unsupported operator")
	// ErrUnsupportedCondition is returned for rule groups that are not AND
	ErrUnsupportedCondition = errors.New("unsupported group condition")
)

// ScalarKind identifies the concrete type held by a Scalar
type ScalarKind uint8

const (
	KindString ScalarKind = iota + 1
	KindNumber
	KindBool
)

// Scalar is a single string, number or boolean rule operand
type Scalar struct {
	kind ScalarKind
	str  string
	num  float64
	b    bool
}

// StringScalar creates a string scalar
func StringScalar(s string) Scalar {
	return Scalar{kind: KindString, str: s}
}

// NumberScalar creates a numeric scalar
func NumberScalar(f float64) Scalar {
	return Scalar{kind: KindNumber, num: f}
}

// BoolScalar creates a boolean scalar
func BoolScalar(b bool) Scalar {
	return Scalar{kind: KindBool, b: b}
}

// Kind returns the scalar kind, zero for an unset scalar
func (s Scalar) Kind() ScalarKind {
	return s.kind
}

// IsZero reports whether the scalar was never set
func (s Scalar) IsZero() bool {
	return s.kind == 0
}

// Any returns the scalar as string, float64 or bool
func (s Scalar) Any() any {
	switch s.kind {
	case KindString:
		return s.str
	case KindNumber:
		return s.num
	case KindBool:
		return s.b
	default:
		return nil
	}
}

// String renders the scalar for display and for text comparison
func (s Scalar) String() string {
	switch s.kind {
	case KindString:
		return s.str
	case KindNumber:
		return strconv.FormatFloat(s.num, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(s.b)
	default:
		return ""
	}
}

// MarshalJSON implements json.Marshaler
func (s Scalar) MarshalJSON() ([]byte, error) {
	if s.kind == 0 {
		return nil, fmt.Errorf("%w: empty scalar", ErrInvalidValue)
	}
	return json.Marshal(s.Any())
}

// UnmarshalJSON implements json.Unmarshaler
func (s *Scalar) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	sc, err := scalarFromAny(raw)
	if err != nil {
		return err
	}
	*s = sc
	return nil
}

// MarshalYAML implements yaml.Marshaler
func (s Scalar) MarshalYAML() (interface{}, error) {
	if s.kind == 0 {
		return nil, fmt.Errorf("%w: empty scalar", ErrInvalidValue)
	}
	return s.Any(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler
func (s *Scalar) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("%w: expected scalar at line %d", ErrInvalidValue, node.Line)
	}
	var raw any
	if err := node.Decode(&raw); err != nil {
		return err
	}
	sc, err := scalarFromAny(raw)
	if err != nil {
		return err
	}
	*s = sc
	return nil
}

func scalarFromAny(raw any) (Scalar, error) {
	switch v := raw.(type) {
	case string:
		return StringScalar(v), nil
	case float64:
		return NumberScalar(v), nil
	case int:
		return NumberScalar(float64(v)), nil
	case int64:
		return NumberScalar(float64(v)), nil
	case bool:
		return BoolScalar(v), nil
	default:
		return Scalar{}, fmt.Errorf("%w: unsupported scalar %T", ErrInvalidValue, raw)
	}
}

// Value is the operand of a rule: either one scalar or a flat list of scalars
type Value struct {
	list  bool
	items []Scalar
}

// Single wraps one scalar
func Single(s Scalar) Value {
	return Value{items: []Scalar{s}}
}

// List wraps a list of scalars
func List(items ...Scalar) Value {
	out := make([]Scalar, len(items))
	copy(out, items)
	return Value{list: true, items: out}
}

// Text is shorthand for a single string scalar
func Text(s string) Value {
	return Single(StringScalar(s))
}

// Texts is shorthand for a list of string scalars
func Texts(vals ...string) Value {
	items := make([]Scalar, len(vals))
	for i, v := range vals {
		items[i] = StringScalar(v)
	}
	return Value{list: true, items: items}
}

// IsList reports whether the value was given as a list
func (v Value) IsList() bool {
	return v.list
}

// IsEmpty reports whether the value holds no scalars
func (v Value) IsEmpty() bool {
	return len(v.items) == 0
}

// Scalars returns the held scalars; a single value yields one element
func (v Value) Scalars() []Scalar {
	out := make([]Scalar, len(v.items))
	copy(out, v.items)
	return out
}

// Scalar returns the single scalar, false for lists
func (v Value) Scalar() (Scalar, bool) {
	if v.list || len(v.items) != 1 {
		return Scalar{}, false
	}
	return v.items[0], true
}

// Strings renders every scalar as text
func (v Value) Strings() []string {
	out := make([]string, len(v.items))
	for i, s := range v.items {
		out[i] = s.String()
	}
	return out
}

// Anys returns every scalar in its native Go type
func (v Value) Anys() []any {
	out := make([]any, len(v.items))
	for i, s := range v.items {
		out[i] = s.Any()
	}
	return out
}

// Validate checks that every held scalar is set
func (v Value) Validate() error {
	if !v.list && len(v.items) != 1 {
		return fmt.Errorf("%w: missing value", ErrInvalidValue)
	}
	for _, s := range v.items {
		if s.IsZero() {
			return fmt.Errorf("%w: empty scalar", ErrInvalidValue)
		}
	}
	return nil
}

// MarshalJSON implements json.Marshaler
func (v Value) MarshalJSON() ([]byte, error) {
	if v.list {
		if v.items == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.items)
	}
	if len(v.items) != 1 {
		return []byte("null"), nil
	}
	return json.Marshal(v.items[0])
}

// UnmarshalJSON implements json.Unmarshaler
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var items []Scalar
		if err := json.Unmarshal(data, &items); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidValue, err)
		}
		*v = List(items...)
		return nil
	}
	if bytes.Equal(data, []byte("null")) {
		*v = Value{}
		return nil
	}
	var s Scalar
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*v = Single(s)
	return nil
}

// MarshalYAML implements yaml.Marshaler
func (v Value) MarshalYAML() (interface{}, error) {
	if v.list {
		if v.items == nil {
			return []Scalar{}, nil
		}
		return v.items, nil
	}
	if len(v.items) != 1 {
		return nil, nil
	}
	return v.items[0], nil
}

// UnmarshalYAML implements yaml.Unmarshaler
func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.SequenceNode:
		items := make([]Scalar, 0, len(node.Content))
		for _, child := range node.Content {
			var s Scalar
			if err := s.UnmarshalYAML(child); err != nil {
				return err
			}
			items = append(items, s)
		}
		*v = List(items...)
		return nil
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			*v = Value{}
			return nil
		}
		var s Scalar
		if err := s.UnmarshalYAML(node); err != nil {
			return err
		}
		*v = Single(s)
		return nil
	default:
		return fmt.Errorf("%w: expected scalar or list at line %d", ErrInvalidValue, node.Line)
	}
}
