package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/johntango/milonga/internal/shared"
	"github.com/johntango/milonga/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive terminal UI for plan browsing and generation.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	_, assembler, store, err := r.buildEngine()
	if err != nil {
		return err
	}
	plans, err := r.openPlans()
	if err != nil {
		return err
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/milonga-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	model := ui.NewModel(ctx, store, assembler, plans, r.config.Plan)
	p := tea.NewProgram(model)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
