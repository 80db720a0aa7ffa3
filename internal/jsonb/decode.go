package jsonb

import "encoding/json"

// Decode parses raw JSON (string, []byte or json.RawMessage) into Go values.
// Values that are already decoded are returned unchanged.
func Decode(value interface{}) (interface{}, error) {
	var raw []byte
	switch v := value.(type) {
	case nil:
		return nil, nil
	case json.RawMessage:
		raw = v
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return v, nil
	}
	var parsed interface{}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, err
	}
	return parsed, nil
}
