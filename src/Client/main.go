package main

import (
	"context"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/nteezflix/nteezflix/src/internal/config"
	"github.com/nteezflix/nteezflix/src/internal/logger"
)

var version = "dev"

func main() {
	l := logger.New(os.Stderr)
	runner := NewRunner(RunnerOpts{Logger: l})

	if err := newApp(runner).Run(context.Background(), os.Args); err != nil {
		l.Fatal("command failed", "err", err)
	}
}

func newApp(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "nteezflix",
		Usage:   "Browse movies and TV and keep a synced watchlist",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file (yaml, toml or json)",
				Value:   config.DefaultPath(),
				Sources: cli.EnvVars("NTEEZFLIX_CONFIG"),
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Load environment variables from this file",
				Value: ".env",
			},
		},
		Commands: r.register(),
	}
}
