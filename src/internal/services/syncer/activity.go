package syncer

import (
	"context"

	"github.com/nteezflix/nteezflix/src/internal/domain"
	"github.com/nteezflix/nteezflix/src/internal/errors"
)

// TrackVisit counts one visit to genre under kind.
func (s *Syncer) TrackVisit(ctx context.Context, kind domain.MediaType, genre domain.Genre) error {
	return s.track(ctx, kind, genre)
}

// RecordTitleView counts a visit to every genre of the viewed title with
// a single remote write.
func (s *Syncer) RecordTitleView(ctx context.Context, d *domain.Details) error {
	if d == nil {
		return nil
	}
	return s.track(ctx, d.MediaType, d.Genres...)
}

// track updates the local counters, then writes the whole activity
// snapshot to the remote document when a user is signed in. Remote
// failures are logged and returned but never rolled back.
func (s *Syncer) track(ctx context.Context, kind domain.MediaType, genres ...domain.Genre) error {
	if !kind.Valid() {
		return errors.Validation("unknown media type " + string(kind))
	}
	if len(genres) == 0 {
		return nil
	}
	if err := s.settle(ctx); err != nil {
		return err
	}

	sess, epoch := s.sessions.Snapshot()
	if !s.applyIfCurrent(epoch, func() { s.activity.Track(kind, genres...) }) {
		return nil
	}
	if !sess.Authenticated() {
		return nil
	}

	s.activityMu.Lock()
	defer s.activityMu.Unlock()

	// Read the snapshot under the lock so the last write carries every
	// increment made before it, and never another session's counters.
	var snapshot domain.Activity
	if !s.applyIfCurrent(epoch, func() { snapshot = s.activity.Snapshot() }) {
		return nil
	}

	if err := s.writeActivity(ctx, sess, snapshot); err != nil {
		e := errors.Classify(err)
		s.logger.Warn("activity sync failed", "user", sess.UserID, "kind", kind, "err", e)
		return e
	}
	return nil
}

func (s *Syncer) writeActivity(ctx context.Context, sess domain.Session, snapshot domain.Activity) error {
	ctx, cancel := s.remoteContext(ctx)
	defer cancel()

	err := s.docs.UpdateField(ctx, sess.UserID, domain.FieldActivity, snapshot)
	if !errors.Is(err, errors.ErrNotFound) {
		return err
	}
	if err := s.docs.SetDocument(ctx, sess.UserID, domain.Document{domain.FieldEmail: sess.Email}); err != nil {
		return err
	}
	return s.docs.UpdateField(ctx, sess.UserID, domain.FieldActivity, snapshot)
}
