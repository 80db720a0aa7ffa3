package components

import (
	"strings"
	"testing"

	"github.com/rebeliceyang/lazycrm/internal/models"
	"github.com/rebeliceyang/lazycrm/internal/ui/theme"
)

func TestCatalogView_CursorSkipsHeaders(t *testing.T) {
	cv := NewCatalogView(theme.DefaultTheme(), editorCatalog(t))

	f, ok := cv.SelectedField()
	if !ok || f.ID != "status" {
		t.Fatalf("expected first field status, got %v", f.ID)
	}
	cv.MoveCursor(1)
	f, _ = cv.SelectedField()
	if f.ID != "tags" {
		t.Errorf("expected tags, got %s", f.ID)
	}
	cv.MoveCursor(10)
	f, _ = cv.SelectedField()
	if f.ID != models.CustomFieldKey("industry") {
		t.Errorf("expected industry, got %s", f.ID)
	}
	cv.MoveCursor(-10)
	if cv.Cursor() != 0 {
		t.Errorf("expected cursor 0, got %d", cv.Cursor())
	}
}

func TestCatalogView_MarksActiveRules(t *testing.T) {
	cv := NewCatalogView(theme.DefaultTheme(), editorCatalog(t))
	cv.Width, cv.Height = 60, 20

	state := models.FilterState{Search: "ana", Unread: models.UnreadOnly}
	state.SetRule(models.Rule{ID: "r1", Field: "tags", Operator: models.OpOverlaps, Value: models.Texts("vip")})
	cv.SetState(state)

	out := cv.View()
	for _, want := range []string{"Kanban", "Custom fields", "● Tags && (vip)", `search: "ana"`, "unread: unread"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected view to contain %q, got:\n%s", want, out)
		}
	}
}
