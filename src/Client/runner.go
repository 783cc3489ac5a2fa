package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/nteezflix/nteezflix/src/internal/client"
	"github.com/nteezflix/nteezflix/src/internal/config"
	"github.com/nteezflix/nteezflix/src/internal/logger"
	"github.com/nteezflix/nteezflix/src/internal/ports"
)

// Runner holds the dependencies shared by the CLI commands and provides a
// method for each command action.
type Runner struct {
	logger *log.Logger
	output io.Writer
	// open builds a client for one command. Replaced in tests.
	open func(ctx context.Context, cfg *config.Config, opts client.Options) (*client.Client, error)
	// load reads the configuration. Replaced in tests.
	load func(path, envFile string) (*config.Config, error)
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Logger *log.Logger
	Output io.Writer
}

// NewRunner creates a Runner, defaulting to stderr logging and stdout
// output.
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = logger.New(os.Stderr)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	return &Runner{
		logger: opts.Logger,
		output: opts.Output,
		open: func(ctx context.Context, cfg *config.Config, opts client.Options) (*client.Client, error) {
			opts.Config = cfg
			return client.Open(ctx, opts)
		},
		load: loadConfig,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, signUpCommand, signInCommand, signOutCommand, whoamiCommand,
		browseCommand, searchCommand, detailsCommand, watchlistCommand, curatedCommand,
		tuiCommand, guestCommand,
	} {
		commands = append(commands, fn(r))
	}
	return commands
}

// SetLogger replaces the logger, e.g. with a file logger while the TUI
// owns the terminal.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

// loadConfig reads path when it exists. A missing file at the default
// location is not an error: defaults and environment still apply.
func loadConfig(path, envFile string) (*config.Config, error) {
	if path != "" {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			if path != config.DefaultPath() {
				return nil, fmt.Errorf("config file %s does not exist", path)
			}
			path = ""
		}
	}
	return config.LoadClient(path, envFile)
}

// client loads configuration and opens a client printing notices to the
// output. Callers close it.
func (r *Runner) client(ctx context.Context, cmd *cli.Command) (*client.Client, error) {
	cfg, err := r.load(cmd.String("config"), cmd.String("env-file"))
	if err != nil {
		return nil, err
	}

	if level, err := logger.ParseLevel(cfg.Log.Level); err == nil {
		r.logger.SetLevel(level)
	}

	return r.open(ctx, cfg, client.Options{
		Logger:   r.logger,
		Notifier: ports.NotifierFunc(r.printNotice),
	})
}

func (r *Runner) printNotice(n ports.Notice) {
	switch n.Level {
	case ports.NoticeError:
		r.logger.Error(n.Title, "detail", n.Detail)
	case ports.NoticeSuccess:
		r.writePlain("✓ %s\n", joinNotice(n))
	default:
		r.writePlain("%s\n", joinNotice(n))
	}
}

func joinNotice(n ports.Notice) string {
	if n.Detail == "" {
		return n.Title
	}
	return n.Title + ": " + n.Detail
}

func (r *Runner) writeJSON(data any) error {
	output, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	if _, err := r.output.Write(append(output, '\n')); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	if _, err := fmt.Fprintf(r.output, format, args...); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
