package app

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/sirupsen/logrus"

	"github.com/rebeliceyang/lazycrm/internal/config"
	"github.com/rebeliceyang/lazycrm/internal/db/query"
	"github.com/rebeliceyang/lazycrm/internal/engine"
	"github.com/rebeliceyang/lazycrm/internal/executor"
	"github.com/rebeliceyang/lazycrm/internal/export"
	"github.com/rebeliceyang/lazycrm/internal/filter"
	"github.com/rebeliceyang/lazycrm/internal/logging"
	"github.com/rebeliceyang/lazycrm/internal/models"
	"github.com/rebeliceyang/lazycrm/internal/ui/components"
	"github.com/rebeliceyang/lazycrm/internal/ui/help"
	"github.com/rebeliceyang/lazycrm/internal/ui/theme"
)

// App is the main application model
type App struct {
	state      models.AppState
	config     *config.Config
	theme      theme.Theme
	leftPanel  components.Panel
	rightPanel components.Panel

	engine  *engine.Engine
	session *engine.Session
	logger  *logrus.Entry
	now     func() time.Time

	// Error overlay
	showError    bool
	errorOverlay *components.ErrorOverlay

	catalogView *components.CatalogView
	tableView   *components.TableView
	searchInput *components.SearchInput
	ruleEditor  *components.RuleEditor
	planPreview *components.PlanPreview
	planBuilder *query.Builder

	// ExportDir receives exported pages
	ExportDir string

	statusMsg string
	loading   bool
}

// RefreshMsg requests a new evaluation of the filter state
type RefreshMsg struct{}

// RefreshedMsg carries the outcome of a refresh
type RefreshedMsg struct {
	Result engine.Result
}

// ErrorMsg is sent when an error occurs
type ErrorMsg struct {
	Title string
	Err   error
}

// New creates the dashboard over an engine. initial seeds the session.
func New(cfg *config.Config, eng *engine.Engine, initial models.FilterState, logger *logrus.Entry) *App {
	if cfg == nil {
		cfg = config.GetDefaults()
	}
	state := models.NewAppState()
	th := theme.GetTheme(cfg.UI.Theme)

	if cfg.UI.PanelWidthRatio > 0 && cfg.UI.PanelWidthRatio < 100 {
		state.LeftPanelWidth = cfg.UI.PanelWidthRatio
	}

	session := engine.NewSession(eng, initial)

	app := &App{
		state:       state,
		config:      cfg,
		theme:       th,
		engine:      eng,
		session:     session,
		logger:      logging.Component(logger, "app"),
		now:         time.Now,
		catalogView: components.NewCatalogView(th, eng.Catalog()),
		tableView:   components.NewTableView(th),
		searchInput: components.NewSearchInput(th),
		ruleEditor:  components.NewRuleEditor(th, eng.Catalog(), session.Hooks()),
		planPreview: components.NewPlanPreview(th),
		planBuilder: query.NewBuilder(query.DefaultSchema),
		ExportDir:   ".",
		leftPanel: components.Panel{
			Title: "Filters",
			Style: lipgloss.NewStyle().BorderForeground(th.BorderFocused),
		},
		rightPanel: components.Panel{
			Title: "Conversations",
			Style: lipgloss.NewStyle().BorderForeground(th.Border),
		},
	}
	app.catalogView.SetState(initial)

	app.updatePanelDimensions()
	app.updatePanelStyles()

	return app
}

// Session returns the filter session driving the dashboard
func (a *App) Session() *engine.Session {
	return a.session
}

// Init implements tea.Model
func (a *App) Init() tea.Cmd {
	return a.refresh()
}

// refresh evaluates the current state in the background
func (a *App) refresh() tea.Cmd {
	a.loading = true
	session := a.session
	return func() tea.Msg {
		return RefreshedMsg{Result: session.Refresh(context.Background())}
	}
}

// mutate applies fn to the session state and schedules a refresh
func (a *App) mutate(fn func(*models.FilterState)) tea.Cmd {
	a.session.Update(fn)
	st, _ := a.session.State()
	a.catalogView.SetState(st)
	return a.refresh()
}

// Update implements tea.Model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ErrorMsg:
		a.ShowError(msg.Title, msg.Err, "")
		return a, nil

	case RefreshMsg:
		return a, a.refresh()

	case RefreshedMsg:
		return a, a.handleRefreshed(msg.Result)

	case components.SearchInputMsg:
		a.state.ViewMode = models.NormalMode
		text := msg.Query
		return a, a.mutate(func(s *models.FilterState) {
			s.Search = text
			s.Page.Offset = 0
		})

	case components.CloseSearchMsg:
		a.state.ViewMode = models.NormalMode
		return a, nil

	case components.ApplyRuleGroupMsg, components.ClearRuleGroupMsg:
		// the editor hooks already updated the session
		a.state.ViewMode = models.NormalMode
		st, _ := a.session.State()
		a.catalogView.SetState(st)
		return a, a.refresh()

	case components.SetRuleMsg:
		a.state.ViewMode = models.NormalMode
		rule := msg.Rule
		return a, a.mutate(func(s *models.FilterState) {
			s.SetRule(rule)
			s.Page.Offset = 0
		})

	case components.CloseRuleEditorMsg:
		a.state.ViewMode = models.NormalMode
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case tea.WindowSizeMsg:
		a.state.Width = msg.Width
		a.state.Height = msg.Height
		a.updatePanelDimensions()
	}
	return a, nil
}

func (a *App) handleRefreshed(res engine.Result) tea.Cmd {
	if res.Stale {
		// a newer refresh is on its way
		return nil
	}
	a.loading = false
	if res.Err != nil {
		hint := ""
		if res.Page != nil {
			hint = "Showing the previous results."
		}
		title := "Filter Failed"
		if filter.IsValidation(res.Err) {
			title = "Invalid Filter"
		}
		a.logger.WithError(res.Err).Warn("refresh failed")
		a.ShowError(title, res.Err, hint)
		return nil
	}
	a.tableView.SetPage(res.Page, a.now())
	a.statusMsg = ""
	return nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.showError {
		key := msg.String()
		if key == "esc" || key == "enter" {
			a.DismissError()
			return a, nil
		}
		if key == "ctrl+c" {
			return a, tea.Quit
		}
		return a, nil
	}

	switch a.state.ViewMode {
	case models.SearchMode:
		var cmd tea.Cmd
		a.searchInput, cmd = a.searchInput.Update(msg)
		return a, cmd
	case models.RuleEditorMode:
		var cmd tea.Cmd
		a.ruleEditor, cmd = a.ruleEditor.Update(msg)
		return a, cmd
	case models.PlanMode:
		return a.handlePlanKey(msg)
	}

	switch msg.String() {
	case "q", "ctrl+c":
		if a.state.ViewMode == models.HelpMode {
			a.state.ViewMode = models.NormalMode
			return a, nil
		}
		return a, tea.Quit
	case "?":
		if a.state.ViewMode == models.HelpMode {
			a.state.ViewMode = models.NormalMode
		} else {
			a.state.ViewMode = models.HelpMode
		}
		return a, nil
	case "esc":
		if a.state.ViewMode == models.HelpMode {
			a.state.ViewMode = models.NormalMode
		}
		return a, nil
	}

	if a.state.ViewMode != models.NormalMode {
		return a, nil
	}

	switch msg.String() {
	case "tab":
		if a.state.FocusedPanel == models.LeftPanel {
			a.state.FocusedPanel = models.RightPanel
		} else {
			a.state.FocusedPanel = models.LeftPanel
		}
		a.updatePanelStyles()
		return a, nil
	case "r", "f5":
		return a, a.refresh()
	case "/":
		st, _ := a.session.State()
		a.searchInput.Open(st.Search)
		a.state.ViewMode = models.SearchMode
		return a, nil
	case "f":
		st, _ := a.session.State()
		a.ruleEditor.Load(st.Advanced)
		a.state.ViewMode = models.RuleEditorMode
		return a, nil
	case "u":
		return a, a.mutate(func(s *models.FilterState) {
			s.Unread = s.Unread.Next()
			s.Page.Offset = 0
		})
	case "m":
		return a, a.mutate(func(s *models.FilterState) {
			s.LastMessage = s.LastMessage.Next()
			s.Page.Offset = 0
		})
	case "c":
		return a, a.mutate(func(s *models.FilterState) { s.Clear(models.ClearBasic) })
	case "C":
		return a, a.mutate(func(s *models.FilterState) { s.Clear(models.ClearAll) })
	case "o":
		return a, a.mutate(func(s *models.FilterState) {
			s.Order.Field = nextOrderField(s.Order.Field)
			s.Page.Offset = 0
		})
	case "O":
		return a, a.mutate(func(s *models.FilterState) {
			s.Order.Descending = !s.Order.Descending
			s.Page.Offset = 0
		})
	case "n", "pgdown":
		return a, a.turnPage(1)
	case "p", "pgup":
		return a, a.turnPage(-1)
	case "y":
		a.copySelectedID()
		return a, nil
	case "e":
		a.exportPage(".csv")
		return a, nil
	case "E":
		a.exportPage(".json")
		return a, nil
	case "v":
		a.openPlan()
		return a, nil
	}

	if a.state.FocusedPanel == models.LeftPanel {
		return a, a.handleCatalogKey(msg)
	}
	switch msg.String() {
	case "up", "k":
		a.tableView.MoveSelection(-1)
	case "down", "j":
		a.tableView.MoveSelection(1)
	}
	return a, nil
}

func (a *App) handleCatalogKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "up", "k":
		a.catalogView.MoveCursor(-1)
	case "down", "j":
		a.catalogView.MoveCursor(1)
	case "enter":
		field, ok := a.catalogView.SelectedField()
		if !ok {
			return nil
		}
		st, _ := a.session.State()
		var existing *models.Rule
		if r, ok := st.RuleFor(field.ID); ok {
			existing = &r
		}
		a.ruleEditor.EditField(field, existing)
		a.state.ViewMode = models.RuleEditorMode
	case "x":
		field, ok := a.catalogView.SelectedField()
		if !ok {
			return nil
		}
		st, _ := a.session.State()
		if _, ok := st.RuleFor(field.ID); !ok {
			return nil
		}
		return a.mutate(func(s *models.FilterState) {
			s.RemoveRule(field.ID)
			s.Page.Offset = 0
		})
	case "X":
		field, ok := a.catalogView.SelectedField()
		if !ok {
			return nil
		}
		catalog := a.engine.Catalog()
		return a.mutate(func(s *models.FilterState) {
			filter.ClearCategory(s, catalog, field.Category)
		})
	}
	return nil
}

func (a *App) handlePlanKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "v", "q":
		a.state.ViewMode = models.NormalMode
	case "up", "k":
		a.planPreview.ScrollUp()
	case "down", "j":
		a.planPreview.ScrollDown()
	case "y":
		if err := a.planPreview.Copy(); err != nil {
			a.ShowError("Copy Failed", err, "")
			return a, nil
		}
		a.statusMsg = "Query plan copied"
	}
	return a, nil
}

// turnPage moves the offset by one page when the neighbour exists
func (a *App) turnPage(dir int) tea.Cmd {
	page := a.session.Last()
	if page == nil {
		return nil
	}
	if dir > 0 && !page.HasNext() {
		return nil
	}
	if dir < 0 && !page.HasPrev() {
		return nil
	}
	limit := page.Limit
	return a.mutate(func(s *models.FilterState) {
		if s.Page.Limit <= 0 {
			s.Page.Limit = limit
		}
		s.Page.Offset += dir * s.Page.Limit
		if s.Page.Offset < 0 {
			s.Page.Offset = 0
		}
	})
}

func nextOrderField(current string) string {
	cols := executor.SortableColumns()
	for i, c := range cols {
		if c == current {
			return cols[(i+1)%len(cols)]
		}
	}
	// an empty field means the default, which is the first column
	if len(cols) > 1 {
		return cols[1]
	}
	return cols[0]
}

func (a *App) copySelectedID() {
	c, ok := a.tableView.Selected()
	if !ok {
		return
	}
	if err := clipboard.WriteAll(c.ID); err != nil {
		a.ShowError("Copy Failed", err, "")
		return
	}
	a.statusMsg = "Copied conversation id " + c.ID
}

func (a *App) exportPage(ext string) {
	page := a.session.Last()
	if page == nil {
		a.statusMsg = "Nothing to export yet"
		return
	}
	name := fmt.Sprintf("conversations-%s%s", a.now().Format("20060102-150405"), ext)
	path := filepath.Join(a.ExportDir, name)
	if err := export.Export(page, path); err != nil {
		a.ShowError("Export Failed", err, "")
		return
	}
	a.logger.WithField("path", path).Info("page exported")
	a.statusMsg = fmt.Sprintf("Exported %d conversations to %s", len(page.Conversations), path)
}

func (a *App) openPlan() {
	st, _ := a.session.State()
	steps, err := PlanSteps(a.engine, a.planBuilder, st)
	if err != nil {
		a.ShowError("Invalid Filter", err, "")
		return
	}
	a.planPreview.SetSteps(steps)
	a.state.ViewMode = models.PlanMode
}

// ShowError displays the error overlay. The result table is left as is.
func (a *App) ShowError(title string, err error, hint string) {
	a.errorOverlay = components.NewErrorOverlay(a.theme, title, err)
	a.errorOverlay.Hint = hint
	a.showError = true
}

// DismissError hides the error overlay
func (a *App) DismissError() {
	a.showError = false
	a.errorOverlay = nil
}

// View implements tea.Model
func (a *App) View() string {
	if a.showError && a.errorOverlay != nil {
		return lipgloss.Place(
			a.state.Width, a.state.Height,
			lipgloss.Center, lipgloss.Center,
			a.errorOverlay.View(a.state.Width),
		)
	}

	switch a.state.ViewMode {
	case models.HelpMode:
		return help.Render(a.state.Width, a.state.Height, a.theme)
	case models.SearchMode:
		a.searchInput.Width = min(70, a.state.Width-4)
		return a.renderDialog(a.searchInput.View())
	case models.RuleEditorMode:
		a.ruleEditor.Width = min(90, a.state.Width-4)
		a.ruleEditor.Height = min(30, a.state.Height-4)
		return a.renderDialog(a.ruleEditor.View())
	case models.PlanMode:
		a.planPreview.Width = a.state.Width - 4
		a.planPreview.Height = a.state.Height - 4
		return a.renderDialog(a.planPreview.View())
	}

	return a.renderNormalView()
}

func (a *App) renderNormalView() string {
	st, version := a.session.State()

	filters := "no filters"
	if st.HasActiveFilters() {
		filters = "filtered"
	}
	topBarLeft := "lazycrm │ " + filters
	topBarRight := fmt.Sprintf("v%d", version)
	if a.loading {
		topBarRight = "loading… " + topBarRight
	}
	topBar := lipgloss.NewStyle().
		Width(a.state.Width).
		Background(a.theme.BorderFocused).
		Foreground(a.theme.Foreground).
		Padding(0, 2).
		Render(a.formatStatusBar(topBarLeft, topBarRight))

	bottomBarLeft := a.statusMsg
	if bottomBarLeft == "" {
		bottomBarLeft = "[/] Search │ [f] Rules │ [u] Unread │ [m] Recent │ [tab] Switch panel │ [q] Quit"
	}
	bottomBar := lipgloss.NewStyle().
		Width(a.state.Width).
		Background(a.theme.Selection).
		Foreground(a.theme.Foreground).
		Padding(0, 2).
		Render(a.formatStatusBar(bottomBarLeft, "[?] Help"))

	a.catalogView.Width = a.leftPanel.Width
	a.catalogView.Height = a.leftPanel.Height - 1
	a.leftPanel.Content = a.catalogView.View()

	a.tableView.Width = a.rightPanel.Width
	a.tableView.Height = a.rightPanel.Height - 1
	a.rightPanel.Content = a.tableView.View()

	panels := lipgloss.JoinHorizontal(
		lipgloss.Top,
		a.leftPanel.View(),
		a.rightPanel.View(),
	)

	return lipgloss.JoinVertical(
		lipgloss.Left,
		topBar,
		panels,
		bottomBar,
	)
}

// renderDialog centers content on the screen
func (a *App) renderDialog(content string) string {
	return lipgloss.Place(a.state.Width, a.state.Height, lipgloss.Center, lipgloss.Center, content)
}

func (a *App) updatePanelDimensions() {
	if a.state.Width <= 0 || a.state.Height <= 0 {
		return
	}

	// top bar, bottom bar and two border lines
	contentHeight := a.state.Height - 4
	if contentHeight < 5 {
		contentHeight = 5
	}

	leftWidth := (a.state.Width * a.state.LeftPanelWidth) / 100
	if leftWidth < 20 {
		leftWidth = 20
	}

	rightWidth := a.state.Width - leftWidth - 4
	if rightWidth < 20 {
		rightWidth = 20
		leftWidth = a.state.Width - rightWidth - 4
	}

	a.leftPanel.Width = leftWidth
	a.leftPanel.Height = contentHeight
	a.rightPanel.Width = rightWidth
	a.rightPanel.Height = contentHeight
}

func (a *App) updatePanelStyles() {
	if a.state.FocusedPanel == models.LeftPanel {
		a.leftPanel.Style = lipgloss.NewStyle().BorderForeground(a.theme.BorderFocused)
		a.rightPanel.Style = lipgloss.NewStyle().BorderForeground(a.theme.Border)
	} else {
		a.leftPanel.Style = lipgloss.NewStyle().BorderForeground(a.theme.Border)
		a.rightPanel.Style = lipgloss.NewStyle().BorderForeground(a.theme.BorderFocused)
	}
}

func (a *App) formatStatusBar(left, right string) string {
	availableWidth := a.state.Width - 4
	if availableWidth < 0 {
		availableWidth = 0
	}

	leftWidth := runewidth.StringWidth(left)
	rightWidth := runewidth.StringWidth(right)

	if leftWidth+rightWidth > availableWidth {
		if availableWidth > rightWidth {
			return runewidth.Truncate(left, availableWidth-rightWidth, "") + right
		}
		return runewidth.Truncate(left, availableWidth, "")
	}

	return left + runewidth.FillLeft("", availableWidth-leftWidth-rightWidth) + right
}
