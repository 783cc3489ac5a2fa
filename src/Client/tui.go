package main

import (
	"context"
	"fmt"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/nteezflix/nteezflix/src/internal/client"
	"github.com/nteezflix/nteezflix/src/internal/logger"
	"github.com/nteezflix/nteezflix/src/internal/ui"
)

func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "tui",
		Usage:  "Launch the interactive terminal UI",
		Action: r.TUI,
	}
}

func guestCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "guest",
		Usage:  "Launch the terminal UI in guest mode; nothing is saved",
		Action: r.Guest,
	}
}

// TUI launches the interactive terminal UI.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	return r.runTUI(ctx, cmd, ui.Options{})
}

// Guest launches the terminal UI with a local-only guest session.
func (r *Runner) Guest(ctx context.Context, cmd *cli.Command) error {
	return r.runTUI(ctx, cmd, ui.Options{Guest: true})
}

func (r *Runner) runTUI(ctx context.Context, cmd *cli.Command, opts ui.Options) error {
	cfg, err := r.load(cmd.String("config"), cmd.String("env-file"))
	if err != nil {
		return err
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	path := cfg.Log.File
	if path == "" {
		path = filepath.Join(cfg.DataDir, "logs", "client.log")
	}
	fileLogger, closer, err := logger.NewFile(path)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	defer closer.Close()
	if level, err := logger.ParseLevel(cfg.Log.Level); err == nil {
		fileLogger.SetLevel(level)
	}
	r.SetLogger(fileLogger)

	inbox := ui.NewInbox()
	c, err := r.open(ctx, cfg, client.Options{Logger: fileLogger, Notifier: inbox, SkipResume: opts.Guest})
	if err != nil {
		return err
	}
	defer c.Close()

	model := ui.NewModel(ctx, c, inbox, opts)
	defer model.Close()

	if _, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}
