// Package store provides a small reactive state container.
//
// A Store holds one immutable state value. Changes go through Dispatch,
// which applies an Action under the store lock and then notifies every
// subscriber with the new state. Actions must not mutate the state they
// receive; they return a fresh value instead.
package store

import "sync"

// Action computes the next state from the current one.
type Action[S any] func(S) S

// Listener is called after every dispatched action with the new state.
type Listener[S any] func(S)

// Store is a mutex-guarded state value with subscriber notification.
type Store[S any] struct {
	mu        sync.Mutex
	state     S
	listeners map[uint64]Listener[S]
	nextID    uint64
}

// New creates a store holding initial.
func New[S any](initial S) *Store[S] {
	return &Store[S]{
		state:     initial,
		listeners: make(map[uint64]Listener[S]),
	}
}

// State returns the current state.
func (s *Store[S]) State() S {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Dispatch applies action and returns the resulting state. Listeners run
// on the calling goroutine after the lock is released.
func (s *Store[S]) Dispatch(action Action[S]) S {
	s.mu.Lock()
	next := action(s.state)
	s.state = next
	listeners := make([]Listener[S], 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.Unlock()

	for _, l := range listeners {
		l(next)
	}
	return next
}

// Subscribe registers listener and returns a function that removes it.
// The returned function is safe to call more than once.
func (s *Store[S]) Subscribe(listener Listener[S]) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = listener
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}
