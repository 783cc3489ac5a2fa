package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/nteezflix/nteezflix/src/internal/domain"
	"github.com/nteezflix/nteezflix/src/internal/errors"
)

func jsonFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  "json",
		Usage: "Print JSON instead of text",
	}
}

func pageFlag() cli.Flag {
	return &cli.IntFlag{
		Name:  "page",
		Usage: "Result page, starting at 1",
		Value: 1,
	}
}

func browseCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "browse",
		Usage: "Show the home shelves, or one catalog list with --kind and --category",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "kind",
				Aliases: []string{"k"},
				Usage:   "movie or tv",
			},
			&cli.StringFlag{
				Name:  "category",
				Usage: "popular, top_rated, trending, now_playing (movie) or on_the_air (tv)",
				Value: string(domain.CategoryPopular),
			},
			pageFlag(),
			jsonFlag(),
		},
		Action: r.Browse,
	}
}

func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "search",
		Usage: "Search movies and tv",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name:      "query",
				UsageText: "Search terms; empty shows what is trending",
			},
		},
		Flags:  []cli.Flag{pageFlag(), jsonFlag()},
		Action: r.Search,
	}
}

func detailsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "details",
		Usage: "Show one title and count the visit towards its genres",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "kind", UsageText: "movie or tv"},
			&cli.StringArg{Name: "id", UsageText: "Catalog id"},
		},
		Flags:  []cli.Flag{jsonFlag()},
		Action: r.Details,
	}
}

func curatedCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "curated",
		Usage:  "Show picks from your most visited genres",
		Flags:  []cli.Flag{jsonFlag()},
		Action: r.Curated,
	}
}

// Browse prints either the home shelves or a single list.
func (r *Runner) Browse(ctx context.Context, cmd *cli.Command) error {
	c, err := r.client(ctx, cmd)
	if err != nil {
		return err
	}
	defer c.Close()

	if cmd.String("kind") == "" {
		rows, err := c.Browse.Home(ctx, nil)
		if err != nil {
			return err
		}
		if cmd.Bool("json") {
			return r.writeJSON(rows)
		}
		for _, row := range rows {
			r.writePlainHeader(row.Label)
			if row.Err != nil {
				r.writePlain("  unavailable: %v\n", row.Err)
				continue
			}
			r.printTitles(row.Titles)
		}
		return nil
	}

	kind, err := domain.ParseMediaType(cmd.String("kind"))
	if err != nil {
		return errors.Validation(err.Error())
	}
	category := domain.Category(cmd.String("category"))
	page, err := c.Browse.List(ctx, kind, category, int(cmd.Int("page")))
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(page)
	}
	r.writePlainHeader(fmt.Sprintf("%s %s (page %d of %d)", kind, category, page.Page, page.TotalPages))
	r.printTitles(page.Results)
	return nil
}

func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	c, err := r.client(ctx, cmd)
	if err != nil {
		return err
	}
	defer c.Close()

	query := cmd.StringArg("query")
	page, err := c.Browse.Search(ctx, query, int(cmd.Int("page")))
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(page)
	}
	if strings.TrimSpace(query) == "" {
		r.writePlainHeader("Trending movies")
	} else {
		r.writePlainHeader(fmt.Sprintf("Results for %q (%d)", query, page.TotalResults))
	}
	r.printTitles(page.Results)
	return nil
}

func (r *Runner) Details(ctx context.Context, cmd *cli.Command) error {
	c, err := r.client(ctx, cmd)
	if err != nil {
		return err
	}
	defer c.Close()

	kind, id, err := parseRef(cmd.StringArg("kind"), cmd.StringArg("id"))
	if err != nil {
		return err
	}
	d, err := c.Browse.Details(ctx, kind, id)
	if err != nil {
		return err
	}
	if err := c.Sync.RecordTitleView(ctx, d); err != nil {
		r.logger.Warn("recording visit failed", "err", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(d)
	}
	r.printDetails(d, c.Watchlist.Contains(d.ID))
	return nil
}

func (r *Runner) Curated(ctx context.Context, cmd *cli.Command) error {
	c, err := r.client(ctx, cmd)
	if err != nil {
		return err
	}
	defer c.Close()

	feed, err := c.Curation.Feed(ctx)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(feed)
	}
	if len(feed.Rows) == 0 {
		return r.writePlain("No picks yet. Look at a few titles with `details` first.\n")
	}
	for _, row := range feed.Rows {
		r.writePlainHeader(fmt.Sprintf("Because you like %s (%s)", row.Genre.Name, row.MediaType))
		if row.Err != nil {
			r.writePlain("  unavailable: %v\n", row.Err)
			continue
		}
		r.printTitles(row.Titles)
	}
	return nil
}

func (r *Runner) printTitles(titles []domain.Title) {
	if len(titles) == 0 {
		r.writePlain("  (nothing here)\n")
		return
	}
	for _, t := range titles {
		line := fmt.Sprintf("  %-5s %-8d %s", t.MediaType, t.ID, t.Name)
		if y := t.Year(); y != "" {
			line += " (" + y + ")"
		}
		if t.Rating > 0 {
			line += fmt.Sprintf("  ★ %.1f", t.Rating)
		}
		r.writePlain("%s\n", line)
	}
}

func (r *Runner) printDetails(d *domain.Details, saved bool) {
	header := d.Name
	if y := d.Year(); y != "" {
		header += " (" + y + ")"
	}
	r.writePlainHeader(header)
	if d.Tagline != "" {
		r.writePlain("%s\n\n", d.Tagline)
	}

	meta := []string{string(d.MediaType)}
	if l := d.Length(); l != "" {
		meta = append(meta, l)
	}
	if d.Rating > 0 {
		meta = append(meta, fmt.Sprintf("★ %.1f", d.Rating))
	}
	if len(d.GenreNames) > 0 {
		meta = append(meta, strings.Join(d.GenreNames, ", "))
	}
	r.writePlain("%s\n\n", strings.Join(meta, " • "))

	if d.Overview != "" {
		r.writePlain("%s\n\n", d.Overview)
	}
	if len(d.Cast) > 0 {
		names := make([]string, 0, len(d.Cast))
		for _, c := range d.Cast {
			names = append(names, c.Name)
		}
		r.writePlain("Cast: %s\n", strings.Join(names, ", "))
	}
	for _, v := range d.Trailers {
		r.writePlain("Trailer: https://www.youtube.com/watch?v=%s\n", v.Key)
	}
	if saved {
		r.writePlain("\n✓ On your watchlist\n")
	}
}

// parseRef parses a "<kind> <id>" pair from the command line.
func parseRef(kind, id string) (domain.MediaType, int, error) {
	m, err := domain.ParseMediaType(kind)
	if err != nil {
		return "", 0, errors.Validation(err.Error())
	}
	n, err := parseID(id)
	if err != nil {
		return "", 0, err
	}
	return m, n, nil
}

func parseID(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return 0, errors.Validation(fmt.Sprintf("invalid id %q", s))
	}
	return n, nil
}
