package export

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rebeliceyang/lazycrm/internal/models"
)

func testPage() *models.FilteredPage {
	at := time.Date(2024, 1, 3, 12, 0, 0, 0, time.UTC)
	return &models.FilteredPage{
		Conversations: []models.Conversation{
			{
				ID:              "c-1",
				ContactID:       "p-1",
				Name:            "Contract review",
				Status:          "open",
				LastMessage:     `Can we move "signing", please?`,
				LastMessageTime: &at,
				UnreadCount:     2,
				Owner: &models.Contact{
					ID:         "p-1",
					Name:       "Ana Souza",
					ClientName: "Souza Advocacia",
					Tags:       []string{"vip", "renewal"},
				},
			},
			{ID: "c-2", Name: "Kickoff", Status: "closed"},
		},
		Total:   12,
		Fetched: 2,
		Limit:   50,
	}
}

func TestExportToCSV(t *testing.T) {
	csvPath := filepath.Join(t.TempDir(), "test.csv")

	if err := ExportToCSV(testPage(), csvPath); err != nil {
		t.Fatalf("ExportToCSV failed: %v", err)
	}

	info, err := os.Stat(csvPath)
	if err != nil {
		t.Fatalf("Failed to stat file: %v", err)
	}
	if info.Mode().Perm()&0600 != 0600 {
		t.Errorf("Expected owner read/write, got %o", info.Mode().Perm())
	}

	file, err := os.Open(csvPath)
	if err != nil {
		t.Fatalf("Failed to open CSV: %v", err)
	}
	defer func() { _ = file.Close() }()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("Failed to read CSV: %v", err)
	}

	if len(records) != 3 { // header + 2 rows
		t.Fatalf("Expected 3 records, got %d", len(records))
	}
	if records[0][0] != "ID" || len(records[0]) != len(Header) {
		t.Errorf("Unexpected header: %v", records[0])
	}

	first := records[1]
	if first[3] != `Can we move "signing", please?` {
		t.Errorf("Expected quoted message to round-trip, got '%s'", first[3])
	}
	if first[4] != "2024-01-03 12:00:00" {
		t.Errorf("Expected formatted time, got '%s'", first[4])
	}
	if first[9] != "Ana Souza" || first[13] != "vip, renewal" {
		t.Errorf("Expected owner columns, got %v", first[9:])
	}

	second := records[2]
	if second[4] != "" || second[9] != "" {
		t.Errorf("Expected empty time and owner, got %v", second)
	}
}

func TestExportToJSON(t *testing.T) {
	jsonPath := filepath.Join(t.TempDir(), "test.json")

	if err := ExportToJSON(testPage(), jsonPath); err != nil {
		t.Fatalf("ExportToJSON failed: %v", err)
	}

	data, err := os.ReadFile(jsonPath)
	if err != nil {
		t.Fatalf("Failed to read JSON: %v", err)
	}

	var page models.FilteredPage
	if err := json.Unmarshal(data, &page); err != nil {
		t.Fatalf("Failed to unmarshal JSON: %v", err)
	}
	if page.Total != 12 || len(page.Conversations) != 2 {
		t.Errorf("Expected total 12 with 2 rows, got %d/%d", page.Total, len(page.Conversations))
	}
	if page.Conversations[0].Owner == nil || page.Conversations[0].Owner.Name != "Ana Souza" {
		t.Error("Expected owner to be exported")
	}
}

func TestExport_ByExtension(t *testing.T) {
	dir := t.TempDir()
	if err := Export(testPage(), filepath.Join(dir, "out.JSON")); err != nil {
		t.Errorf("Expected .JSON to be accepted, got %v", err)
	}
	if err := Export(testPage(), filepath.Join(dir, "out.xlsx")); err == nil {
		t.Error("Expected error for unsupported extension")
	}
}
