package components

import (
	"strings"
	"testing"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/rebeliceyang/lazycrm/internal/models"
	"github.com/rebeliceyang/lazycrm/internal/ui/theme"
)

func testPage(now time.Time) *models.FilteredPage {
	recent := now.Add(-90 * time.Minute)
	return &models.FilteredPage{
		Conversations: []models.Conversation{
			{ID: "c1", Name: "Contract review", Status: "open", UnreadCount: 2, LastMessageTime: &recent,
				Owner: &models.Contact{Name: "Ana Souza", ClientName: "Souza Advocacia"}},
			{ID: "c2", Name: "Kickoff", Status: "closed"},
		},
		Total:       11,
		Fetched:     2,
		Offset:      4,
		Limit:       2,
		Approximate: true,
	}
}

func TestTableView_SetPage(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	tv := NewTableView(theme.DefaultTheme())
	tv.SetPage(testPage(now), now)

	if len(tv.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(tv.Rows))
	}
	if tv.Rows[0][1] != "Ana Souza" {
		t.Errorf("expected owner name in contact column, got %q", tv.Rows[0][1])
	}
	if tv.Rows[0][4] != "2" {
		t.Errorf("expected unread count 2, got %q", tv.Rows[0][4])
	}
	if tv.Rows[0][6] != "1h" {
		t.Errorf("expected relative time 1h, got %q", tv.Rows[0][6])
	}
	if tv.Rows[1][6] != "-" {
		t.Errorf("expected '-' for conversation without messages, got %q", tv.Rows[1][6])
	}

	c, ok := tv.Selected()
	if !ok || c.ID != "c1" {
		t.Errorf("expected c1 selected, got %v", c.ID)
	}
}

func TestTableView_StatusShowsApproximateTotal(t *testing.T) {
	now := time.Now()
	tv := NewTableView(theme.DefaultTheme())
	tv.Width, tv.Height = 120, 10
	tv.SetPage(testPage(now), now)

	out := tv.View()
	if !strings.Contains(out, "5-6 of ~11") {
		t.Errorf("expected status '5-6 of ~11', got:\n%s", out)
	}
}

func TestTableView_EmptyPage(t *testing.T) {
	tv := NewTableView(theme.DefaultTheme())
	tv.Width, tv.Height = 80, 5
	tv.SetPage(&models.FilteredPage{}, time.Now())

	if _, ok := tv.Selected(); ok {
		t.Error("expected no selection on empty page")
	}
	if !strings.Contains(tv.View(), "No conversations") {
		t.Error("expected empty message")
	}
}

func TestTableView_MoveSelectionClamps(t *testing.T) {
	now := time.Now()
	tv := NewTableView(theme.DefaultTheme())
	tv.SetPage(testPage(now), now)
	tv.VisibleRows = 1

	tv.MoveSelection(5)
	if tv.SelectedRow != 1 {
		t.Errorf("expected row 1, got %d", tv.SelectedRow)
	}
	if tv.TopRow != 1 {
		t.Errorf("expected top row 1, got %d", tv.TopRow)
	}
	tv.MoveSelection(-5)
	if tv.SelectedRow != 0 {
		t.Errorf("expected row 0, got %d", tv.SelectedRow)
	}
}

func TestPad_WideRunes(t *testing.T) {
	got := pad("日本語テキスト", 8)
	if w := runewidth.StringWidth(got); w > 8 {
		t.Errorf("expected at most 8 cells, got %d (%q)", w, got)
	}
	got = pad("ab", 5)
	if got != "ab   " {
		t.Errorf("expected padded 'ab   ', got %q", got)
	}
}
