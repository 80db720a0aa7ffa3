package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rebeliceyang/lazycrm/internal/app"
	"github.com/rebeliceyang/lazycrm/internal/db/query"
	"github.com/rebeliceyang/lazycrm/internal/export"
	"github.com/rebeliceyang/lazycrm/internal/filter"
	"github.com/rebeliceyang/lazycrm/internal/models"
	"github.com/rebeliceyang/lazycrm/internal/ui/components"
	"github.com/rebeliceyang/lazycrm/internal/ui/theme"
)

func newApplyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Apply a filter state and print one page of conversations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			output, _ := cmd.Flags().GetString("output")
			exportPath, _ := cmd.Flags().GetString("export")
			search, _ := cmd.Flags().GetString("search")
			limit, _ := cmd.Flags().GetInt("limit")
			offset, _ := cmd.Flags().GetInt("offset")

			p, err := newPrinter(output)
			if err != nil {
				return err
			}
			state, err := loadState(cmd)
			if err != nil {
				return err
			}
			if search != "" {
				state.Search = search
			}
			if cmd.Flags().Changed("limit") {
				state.Page.Limit = limit
			}
			if cmd.Flags().Changed("offset") {
				state.Page.Offset = offset
			}

			rt, err := openRuntime(cmd.Context(), cmd, false)
			if err != nil {
				return err
			}
			defer rt.Close()

			page, err := rt.engine.ApplyFilters(cmd.Context(), state)
			if err != nil {
				return err
			}
			if exportPath != "" {
				if err := export.Export(page, exportPath); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(os.Stderr, "exported %d conversations to %s\n", len(page.Conversations), exportPath)
			}
			if p.format == "table" {
				_, _ = fmt.Fprintf(p.w, "filters: %s\n\n", describeState(rt.engine.Catalog(), state))
			}
			return printPage(p, page)
		},
	}
	cmd.Flags().String("state", "", "filter state file (.yaml or .json)")
	cmd.Flags().String("search", "", "free-text search (overrides the state file)")
	cmd.Flags().Int("limit", 0, "page size")
	cmd.Flags().Int("offset", 0, "page offset")
	cmd.Flags().String("export", "", "also write the page to a .csv or .json file")
	cmd.Flags().StringP("output", "o", "table", "output format: table, json or yaml")
	return cmd
}

func printPage(p *printer, page *models.FilteredPage) error {
	if ok, err := p.structured(page); ok {
		return err
	}
	rows := make([][]string, 0, len(page.Conversations))
	for _, c := range page.Conversations {
		contact := ""
		if c.Owner != nil {
			contact = c.Owner.Name
		}
		last := "-"
		if c.LastMessageTime != nil {
			last = c.LastMessageTime.Local().Format("2006-01-02 15:04")
		}
		rows = append(rows, []string{c.ID, c.Name, contact, c.Status, strconv.Itoa(c.UnreadCount), last})
	}
	p.table([]string{"ID", "CONVERSATION", "CONTACT", "STATUS", "UNREAD", "LAST MESSAGE"}, rows)

	total := strconv.Itoa(page.Total)
	if page.Approximate {
		total = "~" + total
	}
	_, _ = fmt.Fprintf(p.w, "\n%d of %s conversations (offset %d)\n", len(page.Conversations), total, page.Offset)
	return nil
}

func newCatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List the filterable fields of the tenant",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			output, _ := cmd.Flags().GetString("output")
			p, err := newPrinter(output)
			if err != nil {
				return err
			}
			rt, err := openRuntime(cmd.Context(), cmd, false)
			if err != nil {
				return err
			}
			defer rt.Close()

			fields := rt.engine.Catalog()
			if ok, err := p.structured(fields.Fields()); ok {
				return err
			}

			var rows [][]string
			for _, category := range fields.Categories() {
				for _, f := range fields.ByCategory(category) {
					rows = append(rows, []string{
						components.CategoryTitle(category),
						f.ID,
						f.Name,
						string(f.Kind),
						f.Target.String(),
						optionSummary(f.Options),
					})
				}
			}
			p.table([]string{"CATEGORY", "ID", "NAME", "KIND", "TARGET", "OPTIONS"}, rows)
			for _, note := range fields.Degraded() {
				_, _ = fmt.Fprintf(os.Stderr, "warning: %s\n", note)
			}
			return nil
		},
	}
	cmd.Flags().StringP("output", "o", "table", "output format: table, json or yaml")
	return cmd
}

func optionSummary(opts []models.Option) string {
	if len(opts) == 0 {
		return "-"
	}
	labels := make([]string, 0, 4)
	for i, o := range opts {
		if i == 3 {
			labels = append(labels, fmt.Sprintf("+%d", len(opts)-3))
			break
		}
		labels = append(labels, o.Label)
	}
	return strings.Join(labels, ", ")
}

func newExplainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "explain",
		Short: "Print the SQL a filter state issues, without running it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			state, err := loadState(cmd)
			if err != nil {
				return err
			}
			rt, err := openRuntime(cmd.Context(), cmd, false)
			if err != nil {
				return err
			}
			defer rt.Close()

			steps, err := app.PlanSteps(rt.engine, query.NewBuilder(query.DefaultSchema), state)
			if err != nil {
				return err
			}
			preview := components.NewPlanPreview(theme.GetTheme(rt.cfg.UI.Theme))
			preview.SetSteps(steps)
			_, _ = fmt.Fprintln(os.Stdout, preview.Text())
			return nil
		},
	}
	cmd.Flags().String("state", "", "filter state file (.yaml or .json)")
	return cmd
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent filter runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			output, _ := cmd.Flags().GetString("output")
			search, _ := cmd.Flags().GetString("search")
			limit, _ := cmd.Flags().GetInt("limit")

			p, err := newPrinter(output)
			if err != nil {
				return err
			}
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			hs, err := openHistory(cfg)
			if err != nil {
				return err
			}
			defer hs.Close()

			entries, err := hs.GetRecent(limit)
			if search != "" {
				entries, err = hs.Search(search, limit)
			}
			if err != nil {
				return err
			}

			if ok, err := p.structured(entries); ok {
				return err
			}
			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				status := "ok"
				if !e.Success {
					status = "error: " + e.ErrorMessage
				}
				rows = append(rows, []string{
					e.ExecutedAt.Local().Format("2006-01-02 15:04:05"),
					e.Duration.Round(time.Millisecond).String(),
					strconv.Itoa(e.Queries),
					strconv.Itoa(e.Rows),
					strconv.Itoa(e.Total),
					e.Summary,
					status,
				})
			}
			p.table([]string{"WHEN", "TOOK", "QUERIES", "ROWS", "TOTAL", "FILTERS", "STATUS"}, rows)
			return nil
		},
	}
	cmd.Flags().String("search", "", "only runs whose filters mention this text")
	cmd.Flags().Int("limit", 20, "number of runs")
	cmd.Flags().StringP("output", "o", "table", "output format: table, json or yaml")
	return cmd
}

// describeState renders the active rules of state on one line
func describeState(catalog *models.FieldCatalog, state models.FilterState) string {
	rules, err := state.AllRules()
	if err != nil {
		return err.Error()
	}
	parts := make([]string, 0, len(rules)+1)
	if state.Search != "" {
		parts = append(parts, fmt.Sprintf("search %q", state.Search))
	}
	for _, r := range rules {
		parts = append(parts, filter.Describe(catalog, r))
	}
	if len(parts) == 0 {
		return "(no filters)"
	}
	return strings.Join(parts, "; ")
}
