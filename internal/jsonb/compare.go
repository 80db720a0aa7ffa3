package jsonb

import (
	"reflect"
)

// Equal reports whether two JSON documents are equal after decoding.
// Object key order and number formatting do not matter.
func Equal(a, b interface{}) bool {
	da, err := Decode(a)
	if err != nil {
		return false
	}
	db, err := Decode(b)
	if err != nil {
		return false
	}
	return reflect.DeepEqual(normalize(da), normalize(db))
}

// Contains implements PostgreSQL jsonb containment (doc @> sub):
// arrays contain every element of sub, objects contain every key of sub
// with a contained value, scalars must be equal. As in PostgreSQL a
// top-level array also contains a bare scalar it holds.
func Contains(doc, sub interface{}) bool {
	d, err := Decode(doc)
	if err != nil {
		return false
	}
	s, err := Decode(sub)
	if err != nil {
		return false
	}
	d, s = normalize(d), normalize(s)
	if arr, ok := d.([]interface{}); ok {
		if _, subIsArray := s.([]interface{}); !subIsArray {
			if _, subIsObject := s.(map[string]interface{}); !subIsObject {
				return containsElement(arr, s)
			}
		}
	}
	return contains(d, s)
}

func contains(doc, sub interface{}) bool {
	switch s := sub.(type) {
	case []interface{}:
		arr, ok := doc.([]interface{})
		if !ok {
			return false
		}
		for _, want := range s {
			if !containsElement(arr, want) {
				return false
			}
		}
		return true
	case map[string]interface{}:
		obj, ok := doc.(map[string]interface{})
		if !ok {
			return false
		}
		for k, want := range s {
			got, ok := obj[k]
			if !ok || !contains(got, want) {
				return false
			}
		}
		return true
	default:
		return reflect.DeepEqual(doc, sub)
	}
}

func containsElement(arr []interface{}, want interface{}) bool {
	for _, item := range arr {
		if contains(item, want) {
			return true
		}
	}
	return false
}

// normalize converts numeric Go types to float64 so values decoded from
// JSON compare equal to values built in code.
func normalize(v interface{}) interface{} {
	switch t := v.(type) {
	case int:
		return float64(t)
	case int32:
		return float64(t)
	case int64:
		return float64(t)
	case float32:
		return float64(t)
	case []string:
		out := make([]interface{}, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, item := range t {
			out[i] = normalize(item)
		}
		return out
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, item := range t {
			out[k] = normalize(item)
		}
		return out
	default:
		return v
	}
}
