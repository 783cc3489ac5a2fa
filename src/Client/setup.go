package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/nteezflix/nteezflix/src/internal/config"
)

func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Write an example configuration file to the --config path",
		Action: r.Setup,
	}
}

// Setup writes the example configuration. It never overwrites a file.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("config")
	if err := config.CreateConfigFile(path); err != nil {
		return err
	}
	return r.writePlain("Wrote example configuration to %s\n", path)
}
