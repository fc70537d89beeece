package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gistlabs/gistctl/internal/shared"
	"github.com/gistlabs/gistctl/internal/tracker"
	"github.com/gistlabs/gistctl/internal/ui"
	"github.com/urfave/cli/v3"
)

// Watch launches the interactive tracker. With a URL argument it submits
// a new job; without one it resumes whatever job can be found for the
// configured project.
func (r *Runner) Watch(ctx context.Context, cmd *cli.Command) error {
	sourceURL := stringArg(cmd, "url")
	mode := cmd.String("mode")

	return r.runWatch(ctx, sourceURL, mode)
}

func (r *Runner) runWatch(ctx context.Context, sourceURL, mode string) error {
	if r.backend == nil {
		return fmt.Errorf("%w: backend not initialized", shared.ErrBackendUnavailable)
	}

	var store tracker.SnapshotStore
	if r.config.Project.ID != "" {
		db, repo, err := r.openStore()
		if err != nil {
			r.logger.Warn("continuing without local persistence", "error", err)
		} else {
			defer db.Close()
			store = repo
		}
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/gistctl-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	engine := r.newEngine(store)
	defer engine.Close()

	model := ui.NewModel(ctx, engine, sourceURL, mode)
	p := tea.NewProgram(model)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
