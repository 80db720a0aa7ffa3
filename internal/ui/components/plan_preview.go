package components

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/atotto/clipboard"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/rebeliceyang/lazycrm/internal/jsonb"
	"github.com/rebeliceyang/lazycrm/internal/ui/theme"
)

// PlanStep is one storage query of a filter run
type PlanStep struct {
	Title string
	SQL   string
	Args  []any
}

// PlanPreview shows the queries a filter state issues
type PlanPreview struct {
	Width  int
	Height int
	Theme  theme.Theme

	steps   []PlanStep
	lines   []string
	scrollY int

	lexer     chroma.Lexer
	style     *chroma.Style
	formatter chroma.Formatter
}

// NewPlanPreview creates a plan preview
func NewPlanPreview(th theme.Theme) *PlanPreview {
	lexer := lexers.Get("postgresql")
	if lexer == nil {
		lexer = lexers.Get("sql")
	}
	if lexer != nil {
		lexer = chroma.Coalesce(lexer)
	}
	style := styles.Get(th.ChromaStyle)
	if style == nil {
		style = styles.Fallback
	}
	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}
	return &PlanPreview{
		Width:     80,
		Height:    20,
		Theme:     th,
		lexer:     lexer,
		style:     style,
		formatter: formatter,
	}
}

// SetSteps replaces the displayed plan
func (p *PlanPreview) SetSteps(steps []PlanStep) {
	p.steps = steps
	p.scrollY = 0
	p.lines = nil
}

// Text returns the plan as plain SQL with arguments in comments
func (p *PlanPreview) Text() string {
	var b strings.Builder
	for i, s := range p.steps {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "-- %d. %s\n", i+1, s.Title)
		b.WriteString(s.SQL)
		b.WriteString(";\n")
		for j, a := range s.Args {
			fmt.Fprintf(&b, "--   $%d = %s\n", j+1, FormatArg(a))
		}
	}
	return b.String()
}

// FormatArg renders a bind argument for display
func FormatArg(a any) string {
	switch v := a.(type) {
	case nil:
		return "NULL"
	case string:
		return "'" + strings.ReplaceAll(v, "'", "''") + "'"
	case json.RawMessage:
		if s, err := jsonb.Compact(v); err == nil {
			return "'" + s + "'::jsonb"
		}
		return string(v)
	case []string:
		quoted := make([]string, len(v))
		for i, s := range v {
			quoted[i] = FormatArg(s)
		}
		return "{" + strings.Join(quoted, ",") + "}"
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Copy puts the plan text on the clipboard
func (p *PlanPreview) Copy() error {
	return clipboard.WriteAll(p.Text())
}

func (p *PlanPreview) highlight(line string) string {
	if line == "" || p.lexer == nil {
		return line
	}
	if strings.HasPrefix(line, "--") {
		return lipgloss.NewStyle().Foreground(p.Theme.Muted).Render(line)
	}
	iterator, err := p.lexer.Tokenise(nil, line)
	if err != nil {
		return line
	}
	var buf bytes.Buffer
	if err := p.formatter.Format(&buf, p.style, iterator); err != nil {
		return line
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

// format wraps the plan to the content width; lines are highlighted after wrapping
func (p *PlanPreview) format() {
	width := p.Width - 4
	if width < 10 {
		width = 10
	}
	p.lines = p.lines[:0]
	for _, line := range strings.Split(p.Text(), "\n") {
		for runewidth.StringWidth(line) > width {
			cut := runewidth.Truncate(line, width, "")
			if cut == "" {
				break
			}
			p.lines = append(p.lines, cut)
			line = "    " + strings.TrimPrefix(line, cut)
		}
		p.lines = append(p.lines, line)
	}
}

func (p *PlanPreview) visibleLines() int {
	n := p.Height - 6
	if n < 1 {
		n = 1
	}
	return n
}

// ScrollUp scrolls one line up
func (p *PlanPreview) ScrollUp() {
	if p.scrollY > 0 {
		p.scrollY--
	}
}

// ScrollDown scrolls one line down
func (p *PlanPreview) ScrollDown() {
	if p.lines == nil {
		p.format()
	}
	if p.scrollY < len(p.lines)-p.visibleLines() {
		p.scrollY++
	}
}

// View renders the plan
func (p *PlanPreview) View() string {
	if p.lines == nil {
		p.format()
	}

	titleStyle := lipgloss.NewStyle().Foreground(p.Theme.Info).Bold(true)
	parts := []string{titleStyle.Render(fmt.Sprintf("Query plan (%d queries)", len(p.steps))), ""}

	end := p.scrollY + p.visibleLines()
	if end > len(p.lines) {
		end = len(p.lines)
	}
	for i := p.scrollY; i < end; i++ {
		parts = append(parts, p.highlight(p.lines[i]))
	}

	help := lipgloss.NewStyle().Foreground(p.Theme.Muted).Italic(true).
		Render("↑↓: Scroll │ y: Copy SQL │ Esc: Close")
	parts = append(parts, "", help)

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.Theme.BorderFocused).
		Padding(0, 1).
		Width(p.Width).
		Height(p.Height).
		Render(strings.Join(parts, "\n"))
}
