// Package curation derives the "picked for you" feed from the activity
// counters: one discover query per top genre, merged in rank order.
package curation

import (
	"context"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/nteezflix/nteezflix/src/internal/domain"
	"github.com/nteezflix/nteezflix/src/internal/errors"
	"github.com/nteezflix/nteezflix/src/internal/logger"
	"github.com/nteezflix/nteezflix/src/internal/ports"
	"github.com/nteezflix/nteezflix/src/internal/services/activity"
)

const (
	// DefaultTopN is the number of genres queried per media type.
	DefaultTopN = 3

	maxConcurrentQueries = 4
)

// Query is one discover request derived from a ranked genre.
type Query struct {
	MediaType domain.MediaType
	Genre     domain.GenreCounter
}

// Row holds the results of one query, before de-duplication.
type Row struct {
	Query
	Titles []domain.Title
	Err    error
}

// Feed is the curated result. Titles is de-duplicated across rows and
// keeps first-seen order.
type Feed struct {
	Rows   []Row
	Titles []domain.Title
}

// Queries ranks movie genres first, then tv, n of each.
func Queries(act domain.Activity, n int) []Query {
	if n <= 0 {
		n = DefaultTopN
	}
	var out []Query
	for _, kind := range []domain.MediaType{domain.MediaTypeMovie, domain.MediaTypeTV} {
		for _, g := range activity.TopGenres(act.Counters(kind), n) {
			out = append(out, Query{MediaType: kind, Genre: g})
		}
	}
	return out
}

// Curate runs the queries for act concurrently. A failing query leaves
// its row empty; Curate fails only when every query does.
func Curate(ctx context.Context, catalog ports.Catalog, act domain.Activity, n int) (*Feed, error) {
	queries := Queries(act, n)
	rows := make([]Row, len(queries))

	var g errgroup.Group
	g.SetLimit(maxConcurrentQueries)
	for i, q := range queries {
		g.Go(func() error {
			rows[i] = Row{Query: q}
			page, err := catalog.Discover(ctx, q.MediaType, q.Genre.ID, 1)
			if err != nil {
				rows[i].Err = errors.Classify(err)
				return nil
			}
			rows[i].Titles = page.Results
			return nil
		})
	}
	_ = g.Wait()

	feed := &Feed{Rows: rows}
	var firstErr error
	failed := 0
	for _, r := range rows {
		if r.Err != nil {
			failed++
			if firstErr == nil {
				firstErr = r.Err
			}
		}
	}
	if len(rows) > 0 && failed == len(rows) {
		return nil, firstErr
	}

	feed.Titles = merge(rows)
	return feed, nil
}

type key struct {
	kind domain.MediaType
	id   int
}

func merge(rows []Row) []domain.Title {
	seen := make(map[key]bool)
	var out []domain.Title
	for _, r := range rows {
		for _, t := range r.Titles {
			if t.MediaType == "" {
				t.MediaType = r.MediaType
			}
			k := key{t.MediaType, t.ID}
			if seen[k] {
				continue
			}
			seen[k] = true
			out = append(out, t)
		}
	}
	return out
}

// Service builds feeds from the live Activity Store.
type Service struct {
	catalog  ports.Catalog
	activity *activity.Store
	topN     int
	logger   *log.Logger
}

func New(catalog ports.Catalog, act *activity.Store, topN int, l *log.Logger) *Service {
	if topN <= 0 {
		topN = DefaultTopN
	}
	return &Service{
		catalog:  catalog,
		activity: act,
		topN:     topN,
		logger:   logger.Component(l, "curation"),
	}
}

// Feed curates from the current activity snapshot.
func (s *Service) Feed(ctx context.Context) (*Feed, error) {
	feed, err := Curate(ctx, s.catalog, s.activity.Snapshot(), s.topN)
	if err != nil {
		s.logger.Warn("curation failed", "err", err)
		return nil, err
	}
	for _, r := range feed.Rows {
		if r.Err != nil {
			s.logger.Warn("curated query failed", "kind", r.MediaType, "genre", r.Genre.Name, "err", r.Err)
		}
	}
	s.logger.Debug("curated feed built", "queries", len(feed.Rows), "titles", len(feed.Titles))
	return feed, nil
}
