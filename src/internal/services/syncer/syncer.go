// Package syncer reconciles the local watchlist and activity stores with
// the user's remote document.
//
// Watchlist adds are optimistic and rolled back on failure. Removes are
// confirmed remotely before the local entry goes. Activity counters update
// locally first and are written wholesale, best effort. Every completion
// checks the session epoch captured when the operation started and leaves
// local state alone if the session has changed since.
package syncer

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/nteezflix/nteezflix/src/internal/adapters/document"
	"github.com/nteezflix/nteezflix/src/internal/domain"
	"github.com/nteezflix/nteezflix/src/internal/errors"
	"github.com/nteezflix/nteezflix/src/internal/logger"
	"github.com/nteezflix/nteezflix/src/internal/ports"
	"github.com/nteezflix/nteezflix/src/internal/services/activity"
	"github.com/nteezflix/nteezflix/src/internal/services/session"
	"github.com/nteezflix/nteezflix/src/internal/services/watchlist"
	"github.com/nteezflix/nteezflix/src/internal/validation"
)

const defaultTimeout = 15 * time.Second

// Options configures a Syncer. Zero values select defaults.
type Options struct {
	Notifier ports.Notifier
	Logger   *log.Logger
	// Timeout bounds each remote call.
	Timeout time.Duration
}

// Syncer is the Sync Layer.
type Syncer struct {
	sessions  *session.Service
	watchlist *watchlist.Store
	activity  *activity.Store
	docs      ports.DocumentStore
	notifier  ports.Notifier
	logger    *log.Logger
	validator *validation.Validator
	timeout   time.Duration

	// stateMu makes "epoch still current" checks and the local mutation
	// that follows them atomic with respect to session clears.
	stateMu sync.Mutex
	// One remote write per field at a time.
	watchlistMu sync.Mutex
	activityMu  sync.Mutex

	mu        sync.Mutex
	unobserve func()

	// The pull started by the latest sign-in, if any.
	pullCancel context.CancelFunc
	pullDone   chan struct{}
}

func New(sessions *session.Service, wl *watchlist.Store, act *activity.Store, docs ports.DocumentStore, opts Options) *Syncer {
	if opts.Notifier == nil {
		opts.Notifier = ports.NoopNotifier{}
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	return &Syncer{
		sessions:  sessions,
		watchlist: wl,
		activity:  act,
		docs:      docs,
		notifier:  opts.Notifier,
		logger:    logger.Component(opts.Logger, "sync"),
		validator: validation.New(),
		timeout:   opts.Timeout,
	}
}

// Start registers the syncer as the session observer. From then on every
// session change pulls or clears the local stores.
func (s *Syncer) Start() {
	unobserve := s.sessions.Observe(s.handleSession)

	s.mu.Lock()
	prev := s.unobserve
	s.unobserve = unobserve
	s.mu.Unlock()

	if prev != nil {
		prev()
	}
}

// Close stops observing the session and cancels a session-start pull
// that is still running.
func (s *Syncer) Close() {
	s.mu.Lock()
	unobserve := s.unobserve
	s.unobserve = nil
	s.mu.Unlock()

	if unobserve != nil {
		unobserve()
	}
	if done := s.cancelPull(); done != nil {
		<-done
	}
}

// Wait blocks until the pull started by the latest sign-in has finished,
// or ctx is done.
func (s *Syncer) Wait(ctx context.Context) error {
	s.mu.Lock()
	done := s.pullDone
	s.mu.Unlock()

	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// handleSession runs inside the session transition, so it must not block
// on remote calls: a sign-out arriving mid-pull clears the stores at once
// and the pull's late result is dropped by the epoch check.
func (s *Syncer) handleSession(sess domain.Session) {
	epoch := s.sessions.Epoch()
	s.cancelPull()
	if !sess.Authenticated() {
		// Sign-out and guest entry both start from empty stores. Nothing
		// is written remotely.
		s.clearIfCurrent(epoch)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	s.mu.Lock()
	s.pullCancel = cancel
	s.pullDone = done
	s.mu.Unlock()

	go func() {
		defer close(done)
		defer cancel()
		_ = s.pull(ctx, sess, epoch)
	}()
}

// settle lets a pending session-start pull land before a local edit, so
// the pull cannot replace the edit it never saw.
func (s *Syncer) settle(ctx context.Context) error {
	if err := s.Wait(ctx); err != nil {
		return errors.Classify(err)
	}
	return nil
}

// cancelPull cancels the running session-start pull and returns its done
// channel, or nil when none was started.
func (s *Syncer) cancelPull() chan struct{} {
	s.mu.Lock()
	cancel, done := s.pullCancel, s.pullDone
	s.pullCancel, s.pullDone = nil, nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	return done
}

// Pull re-reads the remote document and replaces the local stores.
func (s *Syncer) Pull(ctx context.Context) error {
	sess, epoch := s.sessions.Snapshot()
	if !sess.Authenticated() {
		return errors.LoginRequired("sign in to load your watchlist")
	}
	return s.pull(ctx, sess, epoch)
}

func (s *Syncer) pull(ctx context.Context, sess domain.Session, epoch uint64) error {
	ctx, cancel := s.remoteContext(ctx)
	defer cancel()

	var user domain.UserDocument
	doc, err := s.docs.GetDocument(ctx, sess.UserID)
	switch {
	case errors.Is(err, errors.ErrNotFound):
		s.logger.Debug("no remote document yet", "user", sess.UserID)
	case err != nil:
		e := errors.Classify(err)
		// Never show the previous session's entries under this user.
		if !s.clearIfCurrent(epoch) {
			s.logger.Debug("dropping stale pull failure", "user", sess.UserID, "err", e)
			return e
		}
		s.logger.Error("pull failed", "user", sess.UserID, "err", e)
		s.notifyFailure("Could not load your watchlist", e, func(ctx context.Context) error { return s.Pull(ctx) })
		return e
	default:
		if err := document.Into(doc, &user); err != nil {
			e := errors.Wrap(err, errors.CodeUnknown, "remote document is malformed")
			s.logger.Error("pull failed", "user", sess.UserID, "err", e)
			s.clearIfCurrent(epoch)
			return e
		}
	}

	applied := s.applyIfCurrent(epoch, func() {
		s.watchlist.Replace(user.Watchlist)
		s.activity.Replace(user.Activity)
	})
	if applied {
		s.logger.Info("pulled remote document", "user", sess.UserID,
			"watchlist", len(user.Watchlist),
			"movie_genres", len(user.Activity.MovieGenre),
			"tv_genres", len(user.Activity.TVGenre))
	}
	return nil
}

// applyIfCurrent runs fn only while the session epoch still equals epoch.
func (s *Syncer) applyIfCurrent(epoch uint64, fn func()) bool {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	if s.sessions.Epoch() != epoch {
		return false
	}
	fn()
	return true
}

func (s *Syncer) clearIfCurrent(epoch uint64) bool {
	return s.applyIfCurrent(epoch, func() {
		s.watchlist.Clear()
		s.activity.Clear()
	})
}

func (s *Syncer) remoteContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

// remoteFailure narrows a collaborator error to the kinds a failed write
// may report: NETWORK_UNAVAILABLE or UNKNOWN.
func remoteFailure(err error) *errors.Error {
	e := errors.Classify(err)
	if e.Code == errors.CodeNetworkUnavailable || e.Code == errors.CodeUnknown {
		return e
	}
	return errors.Wrap(err, errors.CodeUnknown, e.Message)
}

func (s *Syncer) notifyFailure(title string, e *errors.Error, retry func(context.Context) error) {
	n := ports.NewNotice(ports.NoticeError, title)
	n.Detail = e.Message
	if e.Retryable() {
		n.Retry = retry
	}
	s.notifier.Notify(n)
}
