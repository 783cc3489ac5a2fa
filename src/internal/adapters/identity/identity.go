// Package identity holds what the identity provider adapters share: the
// session change listener set and the expiry timer.
package identity

import (
	"sync"
	"time"

	"github.com/nteezflix/nteezflix/src/internal/domain"
)

// Listeners is a set of session change callbacks. Callbacks run on the
// goroutine that calls Emit, in registration order.
type Listeners struct {
	mu     sync.Mutex
	nextID int
	fns    map[int]func(*domain.Identity)
	order  []int
}

// Add registers fn. The returned function unregisters it and may be
// called any number of times.
func (l *Listeners) Add(fn func(*domain.Identity)) func() {
	l.mu.Lock()
	if l.fns == nil {
		l.fns = make(map[int]func(*domain.Identity))
	}
	id := l.nextID
	l.nextID++
	l.fns[id] = fn
	l.order = append(l.order, id)
	l.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			delete(l.fns, id)
			for i, o := range l.order {
				if o == id {
					l.order = append(l.order[:i], l.order[i+1:]...)
					break
				}
			}
		})
	}
}

// Emit calls every registered listener with a copy of id.
func (l *Listeners) Emit(id *domain.Identity) {
	l.mu.Lock()
	fns := make([]func(*domain.Identity), 0, len(l.order))
	for _, o := range l.order {
		fns = append(fns, l.fns[o])
	}
	l.mu.Unlock()

	for _, fn := range fns {
		if id == nil {
			fn(nil)
			continue
		}
		copied := *id
		fn(&copied)
	}
}

// Len returns the number of registered listeners.
func (l *Listeners) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.order)
}

// Current tracks the live identity and fires onExpire when it expires.
type Current struct {
	mu    sync.Mutex
	id    *domain.Identity
	timer *time.Timer
	now   func() time.Time
}

func NewCurrent(now func() time.Time) *Current {
	if now == nil {
		now = time.Now
	}
	return &Current{now: now}
}

// Set replaces the live identity. onExpire runs once the identity's
// expiry passes, unless it has been replaced or cleared by then.
func (c *Current) Set(id *domain.Identity, onExpire func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()

	copied := *id
	c.id = &copied
	if id.ExpiresAt.IsZero() || onExpire == nil {
		return
	}

	var timer *time.Timer
	timer = time.AfterFunc(id.ExpiresAt.Sub(c.now()), func() {
		c.mu.Lock()
		if c.timer != timer {
			c.mu.Unlock()
			return
		}
		c.id = nil
		c.timer = nil
		c.mu.Unlock()
		onExpire()
	})
	c.timer = timer
}

// Clear drops the live identity and reports whether there was one.
func (c *Current) Clear() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	had := c.id != nil
	c.id = nil
	c.stopLocked()
	return had
}

// Get returns a copy of the live identity, or nil.
func (c *Current) Get() *domain.Identity {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.id == nil {
		return nil
	}
	copied := *c.id
	return &copied
}

func (c *Current) stopLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}
