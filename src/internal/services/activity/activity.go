// Package activity keeps the per-genre visit counters used for curation.
package activity

import (
	"slices"
	"sort"

	"github.com/nteezflix/nteezflix/src/internal/domain"
	"github.com/nteezflix/nteezflix/src/internal/store"
)

// Track counts one visit to each genre under kind. Existing counters are
// incremented; new ones are appended with one visit.
func Track(kind domain.MediaType, genres ...domain.Genre) store.Action[domain.Activity] {
	return func(cur domain.Activity) domain.Activity {
		counters := slices.Clone(cur.Counters(kind))
		for _, g := range genres {
			i := slices.IndexFunc(counters, func(c domain.GenreCounter) bool { return c.ID == g.ID })
			if i >= 0 {
				counters[i].Visits++
				continue
			}
			counters = append(counters, domain.GenreCounter{ID: g.ID, Name: g.Name, Visits: 1})
		}

		next := cur
		if kind == domain.MediaTypeTV {
			next.TVGenre = counters
		} else {
			next.MovieGenre = counters
		}
		return next
	}
}

// Set replaces both collections.
func Set(a domain.Activity) store.Action[domain.Activity] {
	return func(domain.Activity) domain.Activity {
		return normalize(a)
	}
}

// Clear empties both collections.
func Clear() store.Action[domain.Activity] {
	return func(domain.Activity) domain.Activity {
		return empty()
	}
}

func empty() domain.Activity {
	return domain.Activity{MovieGenre: []domain.GenreCounter{}, TVGenre: []domain.GenreCounter{}}
}

func normalize(a domain.Activity) domain.Activity {
	out := empty()
	out.MovieGenre = append(out.MovieGenre, a.MovieGenre...)
	out.TVGenre = append(out.TVGenre, a.TVGenre...)
	return out
}

// TopGenres returns up to n counters ranked by visits, highest first.
// Ties keep insertion order.
func TopGenres(counters []domain.GenreCounter, n int) []domain.GenreCounter {
	ranked := slices.Clone(counters)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Visits > ranked[j].Visits })
	if n >= 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// Store is the Activity Store.
type Store struct {
	s *store.Store[domain.Activity]
}

func NewStore() *Store {
	return &Store{s: store.New(empty())}
}

// Snapshot returns a copy of both collections.
func (a *Store) Snapshot() domain.Activity {
	return normalize(a.s.State())
}

// Track records a visit and returns the resulting snapshot.
func (a *Store) Track(kind domain.MediaType, genres ...domain.Genre) domain.Activity {
	return normalize(a.s.Dispatch(Track(kind, genres...)))
}

func (a *Store) Replace(act domain.Activity) {
	a.s.Dispatch(Set(act))
}

func (a *Store) Clear() {
	a.s.Dispatch(Clear())
}

// Top returns the n most visited genres for kind.
func (a *Store) Top(kind domain.MediaType, n int) []domain.GenreCounter {
	return TopGenres(a.s.State().Counters(kind), n)
}

// Subscribe registers fn for every change.
func (a *Store) Subscribe(fn func(domain.Activity)) func() {
	return a.s.Subscribe(func(act domain.Activity) { fn(normalize(act)) })
}
