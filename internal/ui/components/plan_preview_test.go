package components

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/rebeliceyang/lazycrm/internal/ui/theme"
)

func TestPlanPreview_Text(t *testing.T) {
	p := NewPlanPreview(theme.DefaultTheme())
	p.SetSteps([]PlanStep{
		{Title: "owners by tags", SQL: `SELECT "id" FROM "public"."contacts" WHERE "tags" && $1`, Args: []any{[]string{"vip", "o'neil"}}},
		{Title: "conversations", SQL: `SELECT "id" FROM "public"."conversations" WHERE "user_id" = $1`, Args: []any{"t1"}},
	})

	text := p.Text()
	for _, want := range []string{
		"-- 1. owners by tags",
		`"tags" && $1;`,
		"--   $1 = {'vip','o''neil'}",
		"-- 2. conversations",
		"--   $1 = 't1'",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("expected plan to contain %q, got:\n%s", want, text)
		}
	}
}

func TestFormatArg(t *testing.T) {
	cases := []struct {
		in   any
		want string
	}{
		{nil, "NULL"},
		{42, "42"},
		{json.RawMessage(`[ "Legal" ]`), `'["Legal"]'::jsonb`},
	}
	for _, tc := range cases {
		if got := FormatArg(tc.in); got != tc.want {
			t.Errorf("FormatArg(%v): expected %q, got %q", tc.in, tc.want, got)
		}
	}
}

func TestPlanPreview_ScrollBounds(t *testing.T) {
	p := NewPlanPreview(theme.DefaultTheme())
	p.Height = 8
	p.SetSteps([]PlanStep{{Title: "one", SQL: "SELECT 1"}})

	p.ScrollUp()
	for i := 0; i < 10; i++ {
		p.ScrollDown()
	}
	if p.scrollY > len(p.lines) {
		t.Errorf("scrolled past content: %d of %d", p.scrollY, len(p.lines))
	}
	if !strings.Contains(p.View(), "Query plan (1 queries)") {
		t.Error("expected title in view")
	}
}
