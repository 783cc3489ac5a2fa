// Package session implements the Session Store: the single source of
// truth for who is acting.
package session

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/nteezflix/nteezflix/src/internal/domain"
	"github.com/nteezflix/nteezflix/src/internal/errors"
	"github.com/nteezflix/nteezflix/src/internal/logger"
	"github.com/nteezflix/nteezflix/src/internal/ports"
	"github.com/nteezflix/nteezflix/src/internal/store"
	"github.com/nteezflix/nteezflix/src/internal/validation"
)

// GuestWarning is shown when entering guest mode.
const GuestWarning = "Guest mode: your watchlist is kept in memory only and is lost when you quit. Sign in to keep it."

// minPasswordLength matches what the hosted identity service enforced.
const minPasswordLength = 6

// Service owns the current session. Session changes reported by the
// identity provider and guest transitions all flow through one path that
// bumps the epoch, updates the store and then calls the observer.
type Service struct {
	provider  ports.IdentityProvider
	docs      ports.DocumentStore
	logger    *log.Logger
	validator *validation.Validator
	timeout   time.Duration
	state     *store.Store[domain.Session]

	// notifyMu serializes session transitions end to end, observer
	// included, so observers see them in epoch order.
	notifyMu sync.Mutex

	mu            sync.Mutex
	epoch         uint64
	current       domain.Session
	identity      *domain.Identity
	observer      func(domain.Session)
	observerGen   uint64
	providerUnsub func()
}

// New creates the service and registers it with the provider. Close
// releases that registration.
func New(provider ports.IdentityProvider, docs ports.DocumentStore, l *log.Logger, timeout time.Duration) *Service {
	s := &Service{
		provider:  provider,
		docs:      docs,
		logger:    logger.Component(l, "session"),
		validator: validation.New(),
		timeout:   timeout,
		state:     store.New(domain.Session{}),
	}
	s.providerUnsub = provider.OnSessionChange(s.handleIdentity)
	return s
}

// Close unregisters from the identity provider and drops the observer.
// Safe to call more than once.
func (s *Service) Close() {
	s.mu.Lock()
	unsub := s.providerUnsub
	s.providerUnsub = nil
	s.observer = nil
	s.observerGen++
	s.mu.Unlock()

	if unsub != nil {
		unsub()
	}
}

// Observe registers cb for every session change. Only one registration is
// active at a time: registering again replaces the previous callback. The
// returned function unregisters cb and is idempotent; it does nothing once
// cb has been replaced.
func (s *Service) Observe(cb func(domain.Session)) func() {
	s.mu.Lock()
	s.observerGen++
	gen := s.observerGen
	s.observer = cb
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if s.observerGen == gen {
				s.observer = nil
				s.observerGen++
			}
		})
	}
}

// Subscribe registers a render listener on the session state. Unlike
// Observe, any number of subscribers may exist.
func (s *Service) Subscribe(fn func(domain.Session)) func() {
	return s.state.Subscribe(fn)
}

// Current returns the current session.
func (s *Service) Current() domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Snapshot returns the current session together with its epoch. The epoch
// changes on every transition, so a completion carrying an older epoch
// belongs to a session that is gone.
func (s *Service) Snapshot() (domain.Session, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current, s.epoch
}

// Epoch returns the current transition counter.
func (s *Service) Epoch() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epoch
}

// Identity returns the live provider identity, or nil.
func (s *Service) Identity() *domain.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.identity == nil {
		return nil
	}
	id := *s.identity
	return &id
}

// SignIn authenticates. On success the new session arrives through the
// provider notification path before SignIn returns.
func (s *Service) SignIn(ctx context.Context, email, password string) error {
	if err := s.validator.Var("email", email, "required,email"); err != nil {
		return err
	}
	if err := s.validator.Var("password", password, "required"); err != nil {
		return err
	}

	ctx, cancel := s.remoteContext(ctx)
	defer cancel()

	if _, err := s.provider.SignIn(ctx, email, password); err != nil {
		e := errors.Classify(err)
		s.logger.Info("sign in failed", "email", email, "code", e.Code)
		return e
	}
	s.logger.Info("signed in", "email", email)
	return nil
}

// SignUp creates an account and the user's empty remote document.
func (s *Service) SignUp(ctx context.Context, email, password string) error {
	if err := s.validator.Var("email", email, "required,email"); err != nil {
		return err
	}
	if err := s.validator.Var("password", password, "required,min="+strconv.Itoa(minPasswordLength)); err != nil {
		return err
	}

	ctx, cancel := s.remoteContext(ctx)
	defer cancel()

	id, err := s.provider.SignUp(ctx, email, password)
	if err != nil {
		e := errors.Classify(err)
		s.logger.Info("sign up failed", "email", email, "code", e.Code)
		return e
	}

	// The watchlist and activity fields are created on first write.
	if err := s.docs.SetDocument(ctx, id.UserID, domain.Document{domain.FieldEmail: email}); err != nil {
		s.logger.Warn("creating user document failed", "user", id.UserID, "err", err)
	}
	s.logger.Info("signed up", "email", email, "user", id.UserID)
	return nil
}

// SignOut ends the session. Leaving guest mode is local only.
func (s *Service) SignOut(ctx context.Context) error {
	cur := s.Current()
	switch {
	case cur.Guest:
		s.transition(domain.Session{}, nil)
		s.logger.Info("left guest mode")
		return nil
	case cur.SignedOut():
		return nil
	}

	ctx, cancel := s.remoteContext(ctx)
	defer cancel()

	if err := s.provider.SignOut(ctx); err != nil {
		return errors.Classify(err)
	}
	s.logger.Info("signed out")
	return nil
}

// EnterGuest switches to a local-only guest session, signing out first
// when a user is signed in.
func (s *Service) EnterGuest(ctx context.Context) error {
	if s.Current().Authenticated() {
		if err := s.SignOut(ctx); err != nil {
			return err
		}
	}
	s.transition(domain.Session{Guest: true}, nil)
	s.logger.Warn(GuestWarning)
	return nil
}

// Resume restores a session from a stored token.
func (s *Service) Resume(ctx context.Context, token string) error {
	ctx, cancel := s.remoteContext(ctx)
	defer cancel()

	if _, err := s.provider.Resume(ctx, token); err != nil {
		return errors.Classify(err)
	}
	return nil
}

func (s *Service) handleIdentity(id *domain.Identity) {
	s.transition(domain.SessionFromIdentity(id), id)
}

func (s *Service) transition(next domain.Session, id *domain.Identity) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	s.epoch++
	s.current = next
	if id != nil {
		copied := *id
		s.identity = &copied
	} else {
		s.identity = nil
	}
	observer := s.observer
	s.mu.Unlock()

	s.state.Dispatch(func(domain.Session) domain.Session { return next })

	s.logger.Debug("session changed", "user", next.UserID, "guest", next.Guest)
	if observer != nil {
		observer(next)
	}
}

func (s *Service) remoteContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}
