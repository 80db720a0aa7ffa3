package metadata

import (
	"testing"

	"github.com/rebeliceyang/lazycrm/internal/store"
)

func satisfying(required map[string][]Requirement) map[string][]Column {
	found := make(map[string][]Column)
	for table, reqs := range required {
		for _, r := range reqs {
			udt := r.UDTName
			if udt == "" {
				udt = "text"
			}
			found[table] = append(found[table], Column{Name: r.Column, UDTName: udt})
		}
	}
	return found
}

func TestCompare_Satisfied(t *testing.T) {
	req := Requirements()
	if problems := Compare(req, satisfying(req)); len(problems) != 0 {
		t.Errorf("expected no problems, got %v", problems)
	}
}

func TestCompare_ReportsProblems(t *testing.T) {
	req := Requirements()
	found := satisfying(req)
	delete(found, store.TableProfiles)
	for i, c := range found[store.TableContacts] {
		if c.Name == store.ColTags {
			found[store.TableContacts][i].UDTName = "text"
		}
	}
	found[store.TableCustomValues] = found[store.TableCustomValues][:2]

	problems := Compare(req, found)
	want := []string{
		"client_custom_values.field_value is missing",
		"contacts.tags is text, expected _text",
		"table profiles is missing",
	}
	if len(problems) != len(want) {
		t.Fatalf("expected %v, got %v", want, problems)
	}
	for i := range want {
		if problems[i] != want[i] {
			t.Errorf("expected '%s', got '%s'", want[i], problems[i])
		}
	}
}

func TestColumn_IsJSONB(t *testing.T) {
	if !(Column{UDTName: "jsonb"}).IsJSONB() {
		t.Error("expected jsonb")
	}
	if (Column{UDTName: "json"}).IsJSONB() {
		t.Error("expected json not to count as jsonb")
	}
}
