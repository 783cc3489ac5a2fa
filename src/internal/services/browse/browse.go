// Package browse serves the catalog screens: the home rows, category
// lists, search and title details, with genre names resolved.
package browse

import (
	"context"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/nteezflix/nteezflix/src/internal/domain"
	"github.com/nteezflix/nteezflix/src/internal/errors"
	"github.com/nteezflix/nteezflix/src/internal/logger"
	"github.com/nteezflix/nteezflix/src/internal/ports"
)

const maxConcurrentRequests = 4

// Shelf names one row of the home screen.
type Shelf struct {
	Label     string
	MediaType domain.MediaType
	Category  domain.Category
}

// HomeShelves is the home screen layout.
var HomeShelves = []Shelf{
	{"Trending movies", domain.MediaTypeMovie, domain.CategoryTrending},
	{"Popular movies", domain.MediaTypeMovie, domain.CategoryPopular},
	{"Now playing", domain.MediaTypeMovie, domain.CategoryNowPlaying},
	{"Top rated movies", domain.MediaTypeMovie, domain.CategoryTopRated},
	{"Trending shows", domain.MediaTypeTV, domain.CategoryTrending},
	{"Popular shows", domain.MediaTypeTV, domain.CategoryPopular},
	{"On the air", domain.MediaTypeTV, domain.CategoryOnTheAir},
	{"Top rated shows", domain.MediaTypeTV, domain.CategoryTopRated},
}

// Row is a loaded shelf. Err is set when the shelf failed to load.
type Row struct {
	Shelf
	Titles []domain.Title
	Err    error
}

// Entry is a watchlist item expanded with its catalog details.
type Entry struct {
	Item    domain.WatchlistItem
	Details *domain.Details
	Err     error
}

type Service struct {
	catalog ports.Catalog
	logger  *log.Logger
}

func New(catalog ports.Catalog, l *log.Logger) *Service {
	return &Service{catalog: catalog, logger: logger.Component(l, "browse")}
}

// Home loads every shelf concurrently. It fails only when all shelves do.
func (s *Service) Home(ctx context.Context, shelves []Shelf) ([]Row, error) {
	if shelves == nil {
		shelves = HomeShelves
	}
	rows := make([]Row, len(shelves))

	var g errgroup.Group
	g.SetLimit(maxConcurrentRequests)
	for i, shelf := range shelves {
		g.Go(func() error {
			rows[i] = Row{Shelf: shelf}
			page, err := s.catalog.List(ctx, shelf.MediaType, shelf.Category, 1)
			if err != nil {
				rows[i].Err = errors.Classify(err)
				s.logger.Warn("shelf failed", "shelf", shelf.Label, "err", err)
				return nil
			}
			rows[i].Titles = page.Results
			return nil
		})
	}
	_ = g.Wait()

	var firstErr error
	loaded := 0
	for _, r := range rows {
		if r.Err == nil {
			loaded++
		} else if firstErr == nil {
			firstErr = r.Err
		}
	}
	if len(rows) > 0 && loaded == 0 {
		return nil, firstErr
	}

	names := s.genreNames(ctx)
	for i := range rows {
		rows[i].Titles = applyNames(rows[i].Titles, names)
	}
	return rows, nil
}

// List returns one page of a category with genre names resolved.
func (s *Service) List(ctx context.Context, kind domain.MediaType, category domain.Category, page int) (*domain.Page, error) {
	p, err := s.catalog.List(ctx, kind, category, page)
	if err != nil {
		return nil, errors.Classify(err)
	}
	p.Results = s.ResolveGenres(ctx, p.Results)
	return p, nil
}

// Search runs a multi search. An empty query shows trending movies.
func (s *Service) Search(ctx context.Context, query string, page int) (*domain.Page, error) {
	var (
		p   *domain.Page
		err error
	)
	if query == "" {
		p, err = s.catalog.List(ctx, domain.MediaTypeMovie, domain.CategoryTrending, page)
	} else {
		p, err = s.catalog.Search(ctx, query, page)
	}
	if err != nil {
		return nil, errors.Classify(err)
	}
	p.Results = s.ResolveGenres(ctx, p.Results)
	return p, nil
}

// Details fetches a single title.
func (s *Service) Details(ctx context.Context, kind domain.MediaType, id int) (*domain.Details, error) {
	d, err := s.catalog.Details(ctx, kind, id)
	if err != nil {
		return nil, errors.Classify(err)
	}
	return d, nil
}

// ResolveGenres fills GenreNames from the genre tables. Titles are left
// without names when a table cannot be loaded.
func (s *Service) ResolveGenres(ctx context.Context, titles []domain.Title) []domain.Title {
	if len(titles) == 0 {
		return titles
	}
	return applyNames(titles, s.genreNames(ctx))
}

// Hydrate expands watchlist items with their catalog details, keeping
// order. A failed lookup is reported on its entry.
func (s *Service) Hydrate(ctx context.Context, items []domain.WatchlistItem) []Entry {
	entries := make([]Entry, len(items))

	var g errgroup.Group
	g.SetLimit(maxConcurrentRequests)
	for i, item := range items {
		g.Go(func() error {
			entries[i].Item = item
			d, err := s.catalog.Details(ctx, item.MediaType, item.ID)
			if err != nil {
				entries[i].Err = errors.Classify(err)
				s.logger.Debug("hydrate failed", "id", item.ID, "err", err)
				return nil
			}
			entries[i].Details = d
			return nil
		})
	}
	_ = g.Wait()
	return entries
}

type genreKey struct {
	kind domain.MediaType
	id   int
}

func (s *Service) genreNames(ctx context.Context) map[genreKey]string {
	kinds := []domain.MediaType{domain.MediaTypeMovie, domain.MediaTypeTV}
	tables := make([][]domain.Genre, len(kinds))

	g, gctx := errgroup.WithContext(ctx)
	for i, kind := range kinds {
		g.Go(func() error {
			genres, err := s.catalog.Genres(gctx, kind)
			if err != nil {
				return err
			}
			tables[i] = genres
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.Warn("loading genre tables failed", "err", err)
	}

	names := make(map[genreKey]string)
	for i, kind := range kinds {
		for _, genre := range tables[i] {
			names[genreKey{kind, genre.ID}] = genre.Name
		}
	}
	return names
}

func applyNames(titles []domain.Title, names map[genreKey]string) []domain.Title {
	for i := range titles {
		t := &titles[i]
		t.GenreNames = t.GenreNames[:0]
		for _, id := range t.GenreIDs {
			if name, ok := names[genreKey{t.MediaType, id}]; ok {
				t.GenreNames = append(t.GenreNames, name)
			}
		}
	}
	return titles
}
