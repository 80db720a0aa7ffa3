package main

import (
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/rebeliceyang/lazycrm/internal/app"
	"github.com/rebeliceyang/lazycrm/internal/ui/theme"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "lazycrm",
		Short: "Terminal browser for CRM conversations",
		Long: `lazycrm filters the conversations of one tenant by conversation,
contact and custom contact attributes.

Without a subcommand it opens the interactive browser.`,
		SilenceUsage: true,
		RunE:         runBrowser,
	}

	rootCmd.PersistentFlags().String("config", "", "config file (default: search the usual locations)")
	rootCmd.PersistentFlags().Bool("demo", false, "use the built-in demo dataset instead of PostgreSQL")
	rootCmd.PersistentFlags().String("tenant", "", "tenant id (overrides tenant.id)")
	rootCmd.Flags().String("state", "", "filter state file (.yaml or .json) to start from")
	rootCmd.Flags().String("theme", "", "color theme: "+strings.Join(theme.Names(), ", "))

	rootCmd.AddCommand(
		newApplyCmd(),
		newCatalogCmd(),
		newExplainCmd(),
		newHistoryCmd(),
	)
	return rootCmd
}

func runBrowser(cmd *cobra.Command, args []string) error {
	rt, err := openRuntime(cmd.Context(), cmd, true)
	if err != nil {
		return err
	}
	defer rt.Close()

	initial, err := loadState(cmd)
	if err != nil {
		return err
	}

	if name, _ := cmd.Flags().GetString("theme"); name != "" {
		rt.cfg.UI.Theme = name
	}

	model := app.New(rt.cfg, rt.engine, initial, rt.logger)

	opts := []tea.ProgramOption{tea.WithAltScreen()}
	if rt.cfg.UI.MouseEnabled {
		opts = append(opts, tea.WithMouseCellMotion())
	}

	p := tea.NewProgram(model, opts...)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running program: %w", err)
	}
	return nil
}
