package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/tgienger/plan/internal/ui"
)

func runTUI(cmd *cobra.Command, args []string) error {
	// the UI owns the terminal, so logs only go to a configured file
	e, err := openEnv(nil)
	if err != nil {
		return err
	}
	defer e.Close()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	if err := e.follow(ctx); err != nil {
		return err
	}
	filters, err := e.filters()
	if err != nil {
		return err
	}

	app := ui.NewApp(ctx, e.planner, ui.WithChanges(e.changes), ui.WithFilters(filters))
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running application: %w", err)
	}
	return nil
}
