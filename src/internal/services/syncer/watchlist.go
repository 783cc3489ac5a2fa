package syncer

import (
	"context"
	"fmt"

	"github.com/nteezflix/nteezflix/src/internal/domain"
	"github.com/nteezflix/nteezflix/src/internal/errors"
	"github.com/nteezflix/nteezflix/src/internal/ports"
)

// Add puts item on the watchlist.
//
// Signed out, it fails with LOGIN_REQUIRED. In guest mode it changes the
// local store only. Otherwise the entry is inserted locally right away,
// then unioned into the remote array; if that write fails the local
// insert is undone and NETWORK_UNAVAILABLE or UNKNOWN is returned.
func (s *Syncer) Add(ctx context.Context, item domain.WatchlistItem) error {
	if err := s.validator.Validate(item); err != nil {
		return err
	}
	if err := s.settle(ctx); err != nil {
		return err
	}

	sess, epoch := s.sessions.Snapshot()
	switch {
	case sess.Guest:
		s.applyIfCurrent(epoch, func() { s.watchlist.Insert(item) })
		s.notifyAdded(item)
		return nil
	case !sess.Authenticated():
		e := errors.LoginRequired("sign in to add titles to your watchlist")
		n := ports.NewNotice(ports.NoticeInfo, "Login required")
		n.Detail = e.Message
		n.Login = true
		s.notifier.Notify(n)
		return e
	}

	inserted := false
	stored := item
	ok := s.applyIfCurrent(epoch, func() {
		inserted = s.watchlist.Insert(item)
		if !inserted {
			// Union the value we already hold so the remote array never
			// gets a second entry for the same id.
			stored, _ = s.watchlist.Get(item.ID)
		}
	})
	if !ok {
		return errors.Unknown("session changed before the title was added")
	}

	s.watchlistMu.Lock()
	err := s.unionWatchlist(ctx, sess, stored)
	if err == nil {
		// A remove that completed meanwhile may have dropped the local
		// entry. Restore it before another write can start.
		s.applyIfCurrent(epoch, func() { s.watchlist.Insert(stored) })
	}
	s.watchlistMu.Unlock()

	if err != nil {
		e := remoteFailure(err)
		if inserted {
			s.applyIfCurrent(epoch, func() { s.watchlist.Remove(item.ID) })
		}
		s.logger.Warn("watchlist add failed", "user", sess.UserID, "id", item.ID, "err", e)
		s.notifyFailure(fmt.Sprintf("Could not add %s", label(item)), e, func(ctx context.Context) error {
			return s.Add(ctx, item)
		})
		return e
	}

	s.logger.Debug("watchlist add synced", "user", sess.UserID, "id", item.ID)
	s.notifyAdded(stored)
	return nil
}

// Remove takes the entry with id off the watchlist.
//
// Signed out, it does nothing. Otherwise the remote array is read, the
// stored entry located (ITEM_NOT_FOUND if absent) and removed by value,
// and only then dropped locally. A failure leaves local state unchanged.
func (s *Syncer) Remove(ctx context.Context, id int) error {
	if err := s.settle(ctx); err != nil {
		return err
	}

	sess, epoch := s.sessions.Snapshot()
	switch {
	case sess.Guest:
		removed := false
		s.applyIfCurrent(epoch, func() { removed = s.watchlist.Remove(id) })
		if !removed {
			return errors.ItemNotFoundf("item %d not found in watchlist", id)
		}
		s.notifyRemoved(id)
		return nil
	case !sess.Authenticated():
		return nil
	}

	s.watchlistMu.Lock()
	defer s.watchlistMu.Unlock()

	ctx, cancel := s.remoteContext(ctx)
	defer cancel()

	doc, err := s.docs.GetDocument(ctx, sess.UserID)
	if errors.Is(err, errors.ErrNotFound) {
		return s.notFound(id)
	}
	if err != nil {
		return s.removeFailed(sess, id, err)
	}

	entry, found := findEntry(doc, id)
	if !found {
		return s.notFound(id)
	}

	if err := s.docs.ArrayRemove(ctx, sess.UserID, domain.FieldWatchlist, entry); err != nil {
		return s.removeFailed(sess, id, err)
	}

	title := titleOf(entry)
	s.applyIfCurrent(epoch, func() { s.watchlist.Remove(id) })
	s.logger.Debug("watchlist remove synced", "user", sess.UserID, "id", id)

	n := ports.NewNotice(ports.NoticeSuccess, "Removed from watchlist")
	n.Detail = title
	s.notifier.Notify(n)
	return nil
}

// unionWatchlist adds item to the remote array, creating the document
// first when it does not exist yet.
func (s *Syncer) unionWatchlist(ctx context.Context, sess domain.Session, item domain.WatchlistItem) error {
	ctx, cancel := s.remoteContext(ctx)
	defer cancel()

	err := s.docs.ArrayUnion(ctx, sess.UserID, domain.FieldWatchlist, item)
	if !errors.Is(err, errors.ErrNotFound) {
		return err
	}
	if err := s.docs.SetDocument(ctx, sess.UserID, domain.Document{domain.FieldEmail: sess.Email}); err != nil {
		return err
	}
	return s.docs.ArrayUnion(ctx, sess.UserID, domain.FieldWatchlist, item)
}

func (s *Syncer) notFound(id int) error {
	e := errors.ItemNotFoundf("item %d not found in watchlist", id)
	n := ports.NewNotice(ports.NoticeError, "Could not remove title")
	n.Detail = e.Message
	s.notifier.Notify(n)
	return e
}

func (s *Syncer) removeFailed(sess domain.Session, id int, err error) error {
	e := remoteFailure(err)
	s.logger.Warn("watchlist remove failed", "user", sess.UserID, "id", id, "err", e)
	s.notifyFailure("Could not remove title", e, func(ctx context.Context) error {
		return s.Remove(ctx, id)
	})
	return e
}

func (s *Syncer) notifyAdded(item domain.WatchlistItem) {
	n := ports.NewNotice(ports.NoticeSuccess, "Added to watchlist")
	n.Detail = label(item)
	n.Undo = func(ctx context.Context) error { return s.Remove(ctx, item.ID) }
	s.notifier.Notify(n)
}

func (s *Syncer) notifyRemoved(id int) {
	n := ports.NewNotice(ports.NoticeSuccess, "Removed from watchlist")
	n.Detail = fmt.Sprintf("#%d", id)
	s.notifier.Notify(n)
}

// findEntry returns the stored array element whose id matches, exactly
// as stored, so a by-value remove matches it.
func findEntry(doc domain.Document, id int) (any, bool) {
	arr, _ := doc[domain.FieldWatchlist].([]any)
	for _, el := range arr {
		m, ok := el.(map[string]any)
		if !ok {
			continue
		}
		if n, ok := m["id"].(float64); ok && int(n) == id {
			return el, true
		}
	}
	return nil, false
}

func titleOf(entry any) string {
	if m, ok := entry.(map[string]any); ok {
		if t, ok := m["title"].(string); ok {
			return t
		}
	}
	return ""
}

func label(item domain.WatchlistItem) string {
	if item.Title != "" {
		return item.Title
	}
	return fmt.Sprintf("#%d", item.ID)
}
