package jsonb

import (
	"encoding/json"
	"fmt"
)

// Compact formats JSONB as compact (single-line) JSON
func Compact(value interface{}) (string, error) {
	parsed, err := Decode(value)
	if err != nil {
		return "", fmt.Errorf("invalid JSON: %w", err)
	}
	out, err := json.Marshal(parsed)
	if err != nil {
		return "", fmt.Errorf("failed to compact: %w", err)
	}
	return string(out), nil
}

