package jsonb

import (
	"encoding/json"
	"testing"
)

func TestContains_ArrayElement(t *testing.T) {
	doc := json.RawMessage(`["Legal","Tech"]`)

	if !Contains(doc, json.RawMessage(`["Tech"]`)) {
		t.Error("expected array to contain [\"Tech\"]")
	}
	if Contains(doc, json.RawMessage(`["Retail"]`)) {
		t.Error("expected array not to contain [\"Retail\"]")
	}
	if !Contains(doc, json.RawMessage(`"Legal"`)) {
		t.Error("expected top-level array to contain bare scalar")
	}
}

func TestContains_ScalarDocument(t *testing.T) {
	if Contains(json.RawMessage(`"Legal"`), json.RawMessage(`["Legal"]`)) {
		t.Error("expected scalar document not to contain an array")
	}
	if !Contains(json.RawMessage(`"Legal"`), json.RawMessage(`"Legal"`)) {
		t.Error("expected equal scalars to be contained")
	}
}

func TestContains_Object(t *testing.T) {
	doc := json.RawMessage(`{"a":1,"b":[1,2]}`)
	if !Contains(doc, json.RawMessage(`{"b":[2]}`)) {
		t.Error("expected object containment")
	}
	if Contains(doc, json.RawMessage(`{"c":1}`)) {
		t.Error("expected missing key not to be contained")
	}
}

func TestEqual_Normalizes(t *testing.T) {
	if !Equal(json.RawMessage(`3`), 3) {
		t.Error("expected 3 and 3.0 to be equal")
	}
	if !Equal(json.RawMessage(`{"a":1,"b":2}`), `{"b":2,"a":1}`) {
		t.Error("expected key order not to matter")
	}
	if Equal(json.RawMessage(`"x"`), json.RawMessage(`["x"]`)) {
		t.Error("expected scalar and array to differ")
	}
}

func TestCompact(t *testing.T) {
	got, err := Compact(json.RawMessage("[ \"Legal\",\n \"Tech\" ]"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != `["Legal","Tech"]` {
		t.Errorf("expected '[\"Legal\",\"Tech\"]', got '%s'", got)
	}
	if _, err := Compact("{broken"); err == nil {
		t.Error("expected error for invalid JSON")
	}
}
