// Package watchlist holds the local projection of a user's watchlist.
package watchlist

import (
	"slices"

	"github.com/nteezflix/nteezflix/src/internal/domain"
	"github.com/nteezflix/nteezflix/src/internal/store"
)

// Set replaces the whole list, dropping later duplicates of an id.
func Set(items []domain.WatchlistItem) store.Action[[]domain.WatchlistItem] {
	return func([]domain.WatchlistItem) []domain.WatchlistItem {
		out := make([]domain.WatchlistItem, 0, len(items))
		for _, it := range items {
			if indexOf(out, it.ID) < 0 {
				out = append(out, it)
			}
		}
		return out
	}
}

// Insert appends item unless an entry with the same id exists.
func Insert(item domain.WatchlistItem) store.Action[[]domain.WatchlistItem] {
	return func(cur []domain.WatchlistItem) []domain.WatchlistItem {
		if indexOf(cur, item.ID) >= 0 {
			return cur
		}
		out := make([]domain.WatchlistItem, len(cur), len(cur)+1)
		copy(out, cur)
		return append(out, item)
	}
}

// Remove drops the entry with id, if any.
func Remove(id int) store.Action[[]domain.WatchlistItem] {
	return func(cur []domain.WatchlistItem) []domain.WatchlistItem {
		i := indexOf(cur, id)
		if i < 0 {
			return cur
		}
		return slices.Delete(slices.Clone(cur), i, i+1)
	}
}

// Clear empties the list.
func Clear() store.Action[[]domain.WatchlistItem] {
	return func([]domain.WatchlistItem) []domain.WatchlistItem {
		return []domain.WatchlistItem{}
	}
}

func indexOf(items []domain.WatchlistItem, id int) int {
	return slices.IndexFunc(items, func(it domain.WatchlistItem) bool { return it.ID == id })
}

// Store is the Watchlist Store: an ordered set of entries keyed by id.
type Store struct {
	s *store.Store[[]domain.WatchlistItem]
}

func NewStore() *Store {
	return &Store{s: store.New([]domain.WatchlistItem{})}
}

// Items returns a copy of the current entries.
func (w *Store) Items() []domain.WatchlistItem {
	return slices.Clone(w.s.State())
}

// Get returns the entry with id.
func (w *Store) Get(id int) (domain.WatchlistItem, bool) {
	items := w.s.State()
	if i := indexOf(items, id); i >= 0 {
		return items[i], true
	}
	return domain.WatchlistItem{}, false
}

func (w *Store) Contains(id int) bool {
	_, ok := w.Get(id)
	return ok
}

func (w *Store) Len() int {
	return len(w.s.State())
}

// Insert adds item unless its id is present and reports whether it did.
func (w *Store) Insert(item domain.WatchlistItem) bool {
	inserted := false
	w.s.Dispatch(func(cur []domain.WatchlistItem) []domain.WatchlistItem {
		next := Insert(item)(cur)
		inserted = len(next) != len(cur)
		return next
	})
	return inserted
}

// Remove drops the entry with id and reports whether one was present.
func (w *Store) Remove(id int) bool {
	removed := false
	w.s.Dispatch(func(cur []domain.WatchlistItem) []domain.WatchlistItem {
		next := Remove(id)(cur)
		removed = len(next) != len(cur)
		return next
	})
	return removed
}

func (w *Store) Replace(items []domain.WatchlistItem) {
	w.s.Dispatch(Set(items))
}

func (w *Store) Clear() {
	w.s.Dispatch(Clear())
}

// Subscribe registers fn for every change.
func (w *Store) Subscribe(fn func([]domain.WatchlistItem)) func() {
	return w.s.Subscribe(func(items []domain.WatchlistItem) { fn(slices.Clone(items)) })
}
