// Package export writes filtered pages to CSV or JSON files.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rebeliceyang/lazycrm/internal/models"
)

const timeLayout = "2006-01-02 15:04:05"

// Header is the CSV column order
var Header = []string{
	"ID", "Conversation", "Status", "Last Message", "Last Message At", "Unread",
	"Phone", "Email", "Contact ID", "Contact", "Client", "Client Type", "Stage", "Tags",
}

// Export writes page to path, choosing the format by extension
func Export(page *models.FilteredPage, path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return ExportToJSON(page, path)
	case ".csv":
		return ExportToCSV(page, path)
	default:
		return fmt.Errorf("unsupported export format %q (use .csv or .json)", filepath.Ext(path))
	}
}

// ExportToCSV exports the page's conversations to a CSV file
func ExportToCSV(page *models.FilteredPage, path string) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer func() { _ = file.Close() }()

	return WriteCSV(file, page)
}

// WriteCSV writes the page as CSV to w
func WriteCSV(w io.Writer, page *models.FilteredPage) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(Header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	if page != nil {
		for _, c := range page.Conversations {
			if err := writer.Write(row(c)); err != nil {
				return fmt.Errorf("failed to write CSV row: %w", err)
			}
		}
	}

	writer.Flush()
	return writer.Error()
}

func row(c models.Conversation) []string {
	lastAt := ""
	if c.LastMessageTime != nil {
		lastAt = c.LastMessageTime.Format(timeLayout)
	}
	out := []string{
		c.ID,
		c.Name,
		c.Status,
		c.LastMessage,
		lastAt,
		strconv.Itoa(c.UnreadCount),
		c.Phone,
		c.Email,
		c.ContactID,
	}
	if o := c.Owner; o != nil {
		out = append(out, o.Name, o.ClientName, o.ClientType, o.ConsultationStage, strings.Join(o.Tags, ", "))
	} else {
		out = append(out, "", "", "", "", "")
	}
	return out
}

// ExportToJSON exports the page, including paging metadata, to a JSON file
func ExportToJSON(page *models.FilteredPage, path string) error {
	if page == nil {
		page = &models.FilteredPage{}
	}
	data, err := json.MarshalIndent(page, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal page to JSON: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write JSON file: %w", err)
	}

	return nil
}
