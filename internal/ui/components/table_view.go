package components

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/rebeliceyang/lazycrm/internal/models"
	"github.com/rebeliceyang/lazycrm/internal/ui/theme"
)

// ConversationColumns is the header of the result table
var ConversationColumns = []string{"Conversation", "Contact", "Client", "Status", "Unread", "Last Message", "When"}

// TableView displays a page of conversations with virtual scrolling
type TableView struct {
	Columns []string
	Rows    [][]string
	Width   int
	Height  int
	Style   lipgloss.Style
	Theme   theme.Theme

	// Virtual scrolling state
	TopRow      int
	VisibleRows int
	SelectedRow int

	// Page position in storage
	Offset      int
	TotalRows   int
	Approximate bool

	// Column widths (calculated)
	ColumnWidths []int

	conversations []models.Conversation
	unread        []bool
}

// NewTableView creates a new table view
func NewTableView(th theme.Theme) *TableView {
	return &TableView{
		Columns:      ConversationColumns,
		Rows:         [][]string{},
		ColumnWidths: []int{},
		Theme:        th,
	}
}

// SetPage loads a filtered page. now is used for relative times.
func (tv *TableView) SetPage(page *models.FilteredPage, now time.Time) {
	if page == nil {
		tv.conversations = nil
		tv.Rows = nil
		tv.unread = nil
		tv.TotalRows = 0
		tv.Offset = 0
		tv.Approximate = false
		tv.SelectedRow = 0
		tv.TopRow = 0
		tv.calculateColumnWidths()
		return
	}
	tv.conversations = page.Conversations
	tv.Rows = make([][]string, len(page.Conversations))
	tv.unread = make([]bool, len(page.Conversations))
	for i, c := range page.Conversations {
		tv.Rows[i] = conversationCells(c, now)
		tv.unread[i] = c.HasUnread()
	}
	tv.Offset = page.Offset
	tv.TotalRows = page.Total
	tv.Approximate = page.Approximate
	if tv.SelectedRow >= len(tv.Rows) {
		tv.SelectedRow = len(tv.Rows) - 1
	}
	if tv.SelectedRow < 0 {
		tv.SelectedRow = 0
	}
	if tv.TopRow > tv.SelectedRow {
		tv.TopRow = tv.SelectedRow
	}
	tv.calculateColumnWidths()
}

// Selected returns the conversation under the cursor
func (tv *TableView) Selected() (models.Conversation, bool) {
	if tv.SelectedRow < 0 || tv.SelectedRow >= len(tv.conversations) {
		return models.Conversation{}, false
	}
	return tv.conversations[tv.SelectedRow], true
}

func conversationCells(c models.Conversation, now time.Time) []string {
	var contact, client string
	if c.Owner != nil {
		contact = c.Owner.Name
		client = c.Owner.ClientName
	}
	unread := ""
	if c.UnreadCount > 0 {
		unread = strconv.Itoa(c.UnreadCount)
	}
	return []string{c.Name, contact, client, c.Status, unread, c.LastMessage, relativeTime(c.LastMessageTime, now)}
}

// relativeTime renders t as a short age such as "5m" or "3d"
func relativeTime(t *time.Time, now time.Time) string {
	if t == nil {
		return "-"
	}
	d := now.Sub(*t)
	switch {
	case d < time.Minute:
		return "now"
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}

// calculateColumnWidths sizes each column to its widest cell
func (tv *TableView) calculateColumnWidths() {
	tv.ColumnWidths = make([]int, len(tv.Columns))

	for i, col := range tv.Columns {
		tv.ColumnWidths[i] = runewidth.StringWidth(col)
	}

	for _, row := range tv.Rows {
		for i, cell := range row {
			if i < len(tv.ColumnWidths) {
				if w := runewidth.StringWidth(cell); w > tv.ColumnWidths[i] {
					tv.ColumnWidths[i] = w
				}
			}
		}
	}

	maxWidth := 40
	for i := range tv.ColumnWidths {
		if tv.ColumnWidths[i] > maxWidth {
			tv.ColumnWidths[i] = maxWidth
		}
		if tv.ColumnWidths[i] < 6 {
			tv.ColumnWidths[i] = 6
		}
	}
}

// View renders the table
func (tv *TableView) View() string {
	if len(tv.Rows) == 0 {
		empty := lipgloss.NewStyle().Foreground(tv.Theme.Muted).Italic(true)
		return tv.Style.Width(tv.Width).Height(tv.Height).Render(
			tv.renderHeader() + "\n" + tv.renderSeparator() + "\n" + empty.Render(" No conversations match the current filters"))
	}

	var b strings.Builder

	b.WriteString(tv.renderHeader())
	b.WriteString("\n")
	b.WriteString(tv.renderSeparator())
	b.WriteString("\n")

	tv.VisibleRows = tv.Height - 3 // Header + separator + status
	if tv.VisibleRows < 1 {
		tv.VisibleRows = 1
	}

	endRow := tv.TopRow + tv.VisibleRows
	if endRow > len(tv.Rows) {
		endRow = len(tv.Rows)
	}

	for i := tv.TopRow; i < endRow; i++ {
		b.WriteString(tv.renderRow(i))
		if i < endRow-1 {
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(tv.renderStatus())

	return tv.Style.Width(tv.Width).Height(tv.Height).Render(b.String())
}

func (tv *TableView) renderHeader() string {
	var parts []string
	for i, col := range tv.Columns {
		parts = append(parts, pad(col, tv.ColumnWidths[i]))
	}
	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(tv.Theme.TableHeader).
		Background(tv.Theme.TableRowOdd)
	return headerStyle.Render(" " + strings.Join(parts, " │ ") + " ")
}

func (tv *TableView) renderSeparator() string {
	var parts []string
	for _, width := range tv.ColumnWidths {
		parts = append(parts, strings.Repeat("─", width))
	}
	return lipgloss.NewStyle().
		Foreground(tv.Theme.Border).
		Render("─" + strings.Join(parts, "─┼─") + "─")
}

func (tv *TableView) renderRow(i int) string {
	row := tv.Rows[i]
	var parts []string
	for j, cell := range row {
		if j >= len(tv.ColumnWidths) {
			break
		}
		parts = append(parts, pad(cell, tv.ColumnWidths[j]))
	}

	line := " " + strings.Join(parts, " │ ") + " "

	if i == tv.SelectedRow {
		return lipgloss.NewStyle().
			Background(tv.Theme.TableRowSelected).
			Foreground(tv.Theme.Foreground).
			Bold(true).
			Render(line)
	}
	if tv.unread[i] {
		return lipgloss.NewStyle().Foreground(tv.Theme.Unread).Render(line)
	}
	return line
}

func (tv *TableView) renderStatus() string {
	first := tv.Offset + 1
	last := tv.Offset + len(tv.Rows)
	total := fmt.Sprintf("%d", tv.TotalRows)
	if tv.Approximate {
		total = "~" + total
	}
	showing := fmt.Sprintf(" %d-%d of %s conversations", first, last, total)
	return lipgloss.NewStyle().
		Foreground(tv.Theme.Muted).
		Italic(true).
		Render(showing)
}

// pad fits s into width terminal cells
func pad(s string, width int) string {
	if runewidth.StringWidth(s) > width {
		return runewidth.Truncate(s, width, "...")
	}
	return runewidth.FillRight(s, width)
}

// MoveSelection moves the selection up or down
func (tv *TableView) MoveSelection(delta int) {
	tv.SelectedRow += delta

	if tv.SelectedRow >= len(tv.Rows) {
		tv.SelectedRow = len(tv.Rows) - 1
	}
	if tv.SelectedRow < 0 {
		tv.SelectedRow = 0
	}

	if tv.SelectedRow < tv.TopRow {
		tv.TopRow = tv.SelectedRow
	}
	if tv.VisibleRows > 0 && tv.SelectedRow >= tv.TopRow+tv.VisibleRows {
		tv.TopRow = tv.SelectedRow - tv.VisibleRows + 1
	}
}
