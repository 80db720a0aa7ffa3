package refine

import (
	"testing"
	"time"

	"github.com/rebeliceyang/lazycrm/internal/models"
)

var now = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func at(ago time.Duration) *time.Time {
	t := now.Add(-ago)
	return &t
}

func testPage() *models.Page {
	return &models.Page{
		Conversations: []models.Conversation{
			{ID: "1", Name: "Contract review", LastMessageTime: at(2 * time.Hour), UnreadCount: 2,
				Owner: &models.Contact{Name: "Ana Souza", ClientName: "Souza Advocacia"}},
			{ID: "2", Name: "Invoice question", LastMessage: "Thanks, all clear.", LastMessageTime: at(72 * time.Hour)},
			{ID: "3", Name: "Kickoff"},
			{ID: "4", Name: "Support", Email: "diego@example.com", LastMessageTime: at(10 * time.Minute), UnreadCount: 4},
		},
		Total:  40,
		Offset: 0,
		Limit:  4,
	}
}

func ids(p *models.FilteredPage) []string {
	out := make([]string, len(p.Conversations))
	for i, c := range p.Conversations {
		out[i] = c.ID
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestRefine_NoResidual(t *testing.T) {
	out := Refine(testPage(), Residual{}, now)
	if len(out.Conversations) != 4 {
		t.Errorf("expected 4 rows, got %d", len(out.Conversations))
	}
	if out.Approximate {
		t.Error("expected exact page when nothing was removed")
	}
	if out.Total != 40 || out.Fetched != 4 {
		t.Errorf("expected total 40 fetched 4, got %d/%d", out.Total, out.Fetched)
	}
}

func TestRefine_SearchIsCaseInsensitive(t *testing.T) {
	tests := []struct {
		search string
		want   []string
	}{
		{"CONTRACT", []string{"1"}},
		{"advocacia", []string{"1"}},
		{"all clear", []string{"2"}},
		{"DIEGO@", []string{"4"}},
		{"nothing matches", []string{}},
	}
	for _, tt := range tests {
		got := ids(Refine(testPage(), Residual{Search: tt.search}, now))
		if !equal(got, tt.want) {
			t.Errorf("search %q: expected %v, got %v", tt.search, tt.want, got)
		}
	}
}

func TestRefine_Unread(t *testing.T) {
	got := ids(Refine(testPage(), Residual{Unread: models.UnreadOnly}, now))
	if !equal(got, []string{"1", "4"}) {
		t.Errorf("expected [1 4], got %v", got)
	}
	got = ids(Refine(testPage(), Residual{Unread: models.UnreadNone}, now))
	if !equal(got, []string{"2", "3"}) {
		t.Errorf("expected [2 3], got %v", got)
	}
}

func TestRefine_WindowSkipsMissingTimes(t *testing.T) {
	out := Refine(testPage(), Residual{LastMessage: models.WindowRecent}, now)
	if got := ids(out); !equal(got, []string{"1", "4"}) {
		t.Errorf("expected [1 4], got %v", got)
	}
	if !out.Approximate {
		t.Error("expected approximate page after removal")
	}
	if got := ids(Refine(testPage(), Residual{LastMessage: models.WindowOlder}, now)); !equal(got, []string{"2"}) {
		t.Errorf("expected [2], got %v", got)
	}
}

func TestRefine_CustomWindow(t *testing.T) {
	res := Residual{LastMessage: models.WindowRecent, RecentWindow: time.Hour}
	if got := ids(Refine(testPage(), res, now)); !equal(got, []string{"4"}) {
		t.Errorf("expected [4], got %v", got)
	}
}

func TestRefine_Combined(t *testing.T) {
	res := Residual{Search: "o", Unread: models.UnreadOnly, LastMessage: models.WindowRecent}
	if got := ids(Refine(testPage(), res, now)); !equal(got, []string{"1", "4"}) {
		t.Errorf("expected [1 4], got %v", got)
	}
}

func TestRefine_NilPage(t *testing.T) {
	out := Refine(nil, Residual{}, now)
	if out == nil || len(out.Conversations) != 0 {
		t.Error("expected empty page")
	}
}

func TestResidual_IsZero(t *testing.T) {
	if !(Residual{Unread: models.UnreadAll}).IsZero() {
		t.Error("expected zero residual")
	}
	if (Residual{Search: "x"}).IsZero() {
		t.Error("expected non-zero residual")
	}
}
