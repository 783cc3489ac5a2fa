package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/nteezflix/nteezflix/src/internal/errors"
)

func watchlistCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "watchlist",
		Aliases: []string{"wl"},
		Usage:   "Manage your watchlist",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List saved titles",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "details",
						Usage: "Fetch catalog details for every title",
					},
					jsonFlag(),
				},
				Action: r.WatchlistList,
			},
			{
				Name:  "add",
				Usage: "Add a title to the watchlist",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "kind", UsageText: "movie or tv"},
					&cli.StringArg{Name: "id", UsageText: "Catalog id"},
				},
				Action: r.WatchlistAdd,
			},
			{
				Name:  "remove",
				Usage: "Remove a title from the watchlist",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id", UsageText: "Catalog id"},
				},
				Action: r.WatchlistRemove,
			},
		},
	}
}

func (r *Runner) WatchlistList(ctx context.Context, cmd *cli.Command) error {
	c, err := r.client(ctx, cmd)
	if err != nil {
		return err
	}
	defer c.Close()

	if !c.Session().Authenticated() {
		return errors.LoginRequired("sign in to see your watchlist")
	}

	items := c.Watchlist.Items()
	if !cmd.Bool("details") {
		if cmd.Bool("json") {
			return r.writeJSON(items)
		}
		r.writePlainHeader("Watchlist")
		if len(items) == 0 {
			return r.writePlain("  (empty)\n")
		}
		for _, it := range items {
			r.writePlain("  %-5s %-8d %s\n", it.MediaType, it.ID, it.Title)
		}
		return nil
	}

	entries := c.Browse.Hydrate(ctx, items)
	if cmd.Bool("json") {
		return r.writeJSON(entries)
	}
	r.writePlainHeader("Watchlist")
	for _, e := range entries {
		if e.Details == nil {
			r.writePlain("  %-5s %-8d %s (details unavailable)\n", e.Item.MediaType, e.Item.ID, e.Item.Title)
			continue
		}
		line := e.Details.Name
		if y := e.Details.Year(); y != "" {
			line += " (" + y + ")"
		}
		if l := e.Details.Length(); l != "" {
			line += ", " + l
		}
		r.writePlain("  %-5s %-8d %s\n", e.Item.MediaType, e.Item.ID, line)
	}
	return nil
}

// WatchlistAdd looks the title up so the stored entry carries its name.
func (r *Runner) WatchlistAdd(ctx context.Context, cmd *cli.Command) error {
	c, err := r.client(ctx, cmd)
	if err != nil {
		return err
	}
	defer c.Close()

	kind, id, err := parseRef(cmd.StringArg("kind"), cmd.StringArg("id"))
	if err != nil {
		return err
	}
	if !c.Session().Authenticated() {
		return errors.LoginRequired("sign in to add titles to your watchlist")
	}

	d, err := c.Browse.Details(ctx, kind, id)
	if err != nil {
		return err
	}
	return c.Sync.Add(ctx, d.WatchlistItem())
}

func (r *Runner) WatchlistRemove(ctx context.Context, cmd *cli.Command) error {
	c, err := r.client(ctx, cmd)
	if err != nil {
		return err
	}
	defer c.Close()

	id, err := parseID(cmd.StringArg("id"))
	if err != nil {
		return err
	}
	if !c.Session().Authenticated() {
		return errors.LoginRequired("sign in to change your watchlist")
	}
	return c.Sync.Remove(ctx, id)
}
