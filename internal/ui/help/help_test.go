package help

import (
	"strings"
	"testing"

	"github.com/rebeliceyang/lazycrm/internal/ui/theme"
)

func TestSections_NoDuplicateKeys(t *testing.T) {
	seen := make(map[string]string)
	for _, s := range Sections() {
		if len(s.Keys) == 0 {
			t.Errorf("section %s has no bindings", s.Title)
		}
		for _, kb := range s.Keys {
			if prev, ok := seen[kb.Key]; ok {
				t.Errorf("key %q bound in both %s and %s", kb.Key, prev, s.Title)
			}
			seen[kb.Key] = s.Title
		}
	}
}

func TestRender_ListsSections(t *testing.T) {
	out := Render(100, 60, theme.DefaultTheme())
	for _, s := range Sections() {
		if !strings.Contains(out, s.Title) {
			t.Errorf("expected help to contain section %q", s.Title)
		}
	}
}
