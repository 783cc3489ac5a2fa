package testutil

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/nteezflix/nteezflix/src/internal/domain"
	"github.com/nteezflix/nteezflix/src/internal/errors"
)

// FakeIdentity is an in-process identity provider. Notifications are
// delivered synchronously on the calling goroutine, like the real
// adapters do.
type FakeIdentity struct {
	mu        sync.Mutex
	accounts  map[string]string
	current   *domain.Identity
	listeners map[int]func(*domain.Identity)
	nextID    int

	// Err, when set, fails every SignUp, SignIn and SignOut call.
	Err error
}

func NewFakeIdentity() *FakeIdentity {
	return &FakeIdentity{
		accounts:  make(map[string]string),
		listeners: make(map[int]func(*domain.Identity)),
	}
}

// UserID returns the id the fake assigns to email.
func UserID(email string) string {
	return "uid-" + strings.ToLower(email)
}

func (f *FakeIdentity) SignUp(_ context.Context, email, password string) (*domain.Identity, error) {
	f.mu.Lock()
	if f.Err != nil {
		defer f.mu.Unlock()
		return nil, f.Err
	}
	key := strings.ToLower(email)
	if _, taken := f.accounts[key]; taken {
		f.mu.Unlock()
		return nil, errors.EmailAlreadyInUse("email already in use")
	}
	f.accounts[key] = password
	f.mu.Unlock()

	return f.establish(email), nil
}

func (f *FakeIdentity) SignIn(_ context.Context, email, password string) (*domain.Identity, error) {
	f.mu.Lock()
	if f.Err != nil {
		defer f.mu.Unlock()
		return nil, f.Err
	}
	stored, ok := f.accounts[strings.ToLower(email)]
	f.mu.Unlock()
	if !ok || stored != password {
		return nil, errors.InvalidCredentials("invalid email or password")
	}
	return f.establish(email), nil
}

func (f *FakeIdentity) SignOut(context.Context) error {
	f.mu.Lock()
	if f.Err != nil {
		defer f.mu.Unlock()
		return f.Err
	}
	f.current = nil
	f.mu.Unlock()

	f.Emit(nil)
	return nil
}

func (f *FakeIdentity) Resume(_ context.Context, token string) (*domain.Identity, error) {
	f.mu.Lock()
	cur := f.current
	f.mu.Unlock()
	if cur == nil || cur.Token != token {
		f.Emit(nil)
		return nil, errors.InvalidCredentials("session expired")
	}
	f.Emit(cur)
	return cur, nil
}

func (f *FakeIdentity) OnSessionChange(fn func(*domain.Identity)) func() {
	f.mu.Lock()
	id := f.nextID
	f.nextID++
	f.listeners[id] = fn
	f.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.listeners, id)
			f.mu.Unlock()
		})
	}
}

// Listeners returns the number of registered listeners.
func (f *FakeIdentity) Listeners() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.listeners)
}

// AddAccount registers credentials without signing in.
func (f *FakeIdentity) AddAccount(email, password string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accounts[strings.ToLower(email)] = password
}

// Emit notifies every listener as if the provider reported a change,
// for example an expired session.
func (f *FakeIdentity) Emit(id *domain.Identity) {
	f.mu.Lock()
	listeners := make([]func(*domain.Identity), 0, len(f.listeners))
	for _, l := range f.listeners {
		listeners = append(listeners, l)
	}
	f.mu.Unlock()

	for _, l := range listeners {
		l(id)
	}
}

func (f *FakeIdentity) establish(email string) *domain.Identity {
	id := &domain.Identity{
		UserID:    UserID(email),
		Email:     email,
		Token:     "token-" + UserID(email),
		ExpiresAt: time.Now().Add(time.Hour),
	}
	f.mu.Lock()
	f.current = id
	f.mu.Unlock()

	f.Emit(id)
	return id
}
