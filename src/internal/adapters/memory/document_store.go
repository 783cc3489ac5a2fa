package memory

import (
	"context"
	"sync"

	"github.com/nteezflix/nteezflix/src/internal/adapters/document"
	"github.com/nteezflix/nteezflix/src/internal/domain"
	"github.com/nteezflix/nteezflix/src/internal/errors"
)

// Document store operation names, as passed to hooks and counted by Calls.
const (
	OpGet         = "get"
	OpSet         = "set"
	OpUpdateField = "update_field"
	OpArrayUnion  = "array_union"
	OpArrayRemove = "array_remove"
)

// Hook runs before every operation. A non-nil error fails the operation
// without touching the stored document. Hooks may block to simulate
// latency; they receive the operation context.
type Hook func(ctx context.Context, op, userID string) error

// InMemoryDocumentStore keeps encoded documents in a map. It stands in for
// the hosted document database in tests and in the "memory" driver.
type InMemoryDocumentStore struct {
	docs  map[string][]byte
	calls map[string]int
	hook  Hook
	mu    sync.RWMutex
}

func NewDocumentStore() *InMemoryDocumentStore {
	return &InMemoryDocumentStore{
		docs:  make(map[string][]byte),
		calls: make(map[string]int),
	}
}

// SetHook installs h, replacing any previous hook. nil removes it.
func (s *InMemoryDocumentStore) SetHook(h Hook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hook = h
}

// FailWith makes every subsequent call to the named operations fail with
// err. No names means all operations.
func (s *InMemoryDocumentStore) FailWith(err error, ops ...string) {
	s.SetHook(func(_ context.Context, op, _ string) error {
		if len(ops) == 0 {
			return err
		}
		for _, o := range ops {
			if o == op {
				return err
			}
		}
		return nil
	})
}

// Calls returns how many times op was invoked, including failed calls.
func (s *InMemoryDocumentStore) Calls(op string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.calls[op]
}

// TotalCalls returns the number of operations of any kind.
func (s *InMemoryDocumentStore) TotalCalls() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := 0
	for _, n := range s.calls {
		total += n
	}
	return total
}

// Put stores doc directly, bypassing hooks and counters. For test setup.
func (s *InMemoryDocumentStore) Put(userID string, doc domain.Document) error {
	data, err := document.Encode(doc)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[userID] = data
	return nil
}

func (s *InMemoryDocumentStore) GetDocument(ctx context.Context, userID string) (domain.Document, error) {
	if err := s.before(ctx, OpGet, userID); err != nil {
		return nil, err
	}

	s.mu.RLock()
	data, ok := s.docs[userID]
	s.mu.RUnlock()
	if !ok {
		return nil, errors.NotFoundf("document %s not found", userID)
	}
	return document.Decode(data)
}

func (s *InMemoryDocumentStore) SetDocument(ctx context.Context, userID string, fields domain.Document) error {
	return s.mutate(ctx, OpSet, userID, false, func(doc domain.Document) (domain.Document, error) {
		return document.Merge(doc, fields)
	})
}

func (s *InMemoryDocumentStore) UpdateField(ctx context.Context, userID, path string, value any) error {
	return s.mutate(ctx, OpUpdateField, userID, true, func(doc domain.Document) (domain.Document, error) {
		return document.SetField(doc, path, value)
	})
}

func (s *InMemoryDocumentStore) ArrayUnion(ctx context.Context, userID, field string, values ...any) error {
	return s.mutate(ctx, OpArrayUnion, userID, true, func(doc domain.Document) (domain.Document, error) {
		return document.Union(doc, field, values...)
	})
}

func (s *InMemoryDocumentStore) ArrayRemove(ctx context.Context, userID, field string, values ...any) error {
	return s.mutate(ctx, OpArrayRemove, userID, true, func(doc domain.Document) (domain.Document, error) {
		return document.Remove(doc, field, values...)
	})
}

func (s *InMemoryDocumentStore) before(ctx context.Context, op, userID string) error {
	s.mu.Lock()
	s.calls[op]++
	hook := s.hook
	s.mu.Unlock()

	if hook != nil {
		if err := hook(ctx, op, userID); err != nil {
			return err
		}
	}
	return ctx.Err()
}

func (s *InMemoryDocumentStore) mutate(ctx context.Context, op, userID string, mustExist bool, fn func(domain.Document) (domain.Document, error)) error {
	if err := s.before(ctx, op, userID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok := s.docs[userID]
	if !ok && mustExist {
		return errors.NotFoundf("document %s not found", userID)
	}
	doc, err := document.Decode(data)
	if err != nil {
		return err
	}
	next, err := fn(doc)
	if err != nil {
		return err
	}
	encoded, err := document.Encode(next)
	if err != nil {
		return err
	}
	s.docs[userID] = encoded
	return nil
}
