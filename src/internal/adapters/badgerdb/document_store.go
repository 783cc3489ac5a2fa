package badgerdb

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/nteezflix/nteezflix/src/internal/adapters/document"
	"github.com/nteezflix/nteezflix/src/internal/domain"
	domainerrors "github.com/nteezflix/nteezflix/src/internal/errors"
)

const docPrefix = "doc:"

// maxConflictRetries bounds optimistic transaction retries.
const maxConflictRetries = 10

// DocumentStore keeps one JSON value per user under "doc:<userID>".
type DocumentStore struct {
	db *badger.DB
}

func NewDocumentStore(db *badger.DB) *DocumentStore {
	return &DocumentStore{db: db}
}

func docKey(userID string) []byte {
	return []byte(docPrefix + userID)
}

func (s *DocumentStore) GetDocument(ctx context.Context, userID string) (domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var doc domain.Document
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(docKey(userID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			var decodeErr error
			doc, decodeErr = document.Decode(val)
			return decodeErr
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, domainerrors.NotFoundf("document %s not found", userID)
	}
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	return doc, nil
}

func (s *DocumentStore) SetDocument(ctx context.Context, userID string, fields domain.Document) error {
	return s.mutate(ctx, userID, false, func(doc domain.Document) (domain.Document, error) {
		return document.Merge(doc, fields)
	})
}

func (s *DocumentStore) UpdateField(ctx context.Context, userID, path string, value any) error {
	return s.mutate(ctx, userID, true, func(doc domain.Document) (domain.Document, error) {
		return document.SetField(doc, path, value)
	})
}

func (s *DocumentStore) ArrayUnion(ctx context.Context, userID, field string, values ...any) error {
	return s.mutate(ctx, userID, true, func(doc domain.Document) (domain.Document, error) {
		return document.Union(doc, field, values...)
	})
}

func (s *DocumentStore) ArrayRemove(ctx context.Context, userID, field string, values ...any) error {
	return s.mutate(ctx, userID, true, func(doc domain.Document) (domain.Document, error) {
		return document.Remove(doc, field, values...)
	})
}

// mutate runs a read-modify-write in one transaction, retrying when a
// concurrent writer commits first.
func (s *DocumentStore) mutate(ctx context.Context, userID string, mustExist bool, fn func(domain.Document) (domain.Document, error)) error {
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := s.db.Update(func(txn *badger.Txn) error {
			var current []byte
			item, err := txn.Get(docKey(userID))
			switch {
			case errors.Is(err, badger.ErrKeyNotFound):
				if mustExist {
					return domainerrors.NotFoundf("document %s not found", userID)
				}
			case err != nil:
				return err
			default:
				if current, err = item.ValueCopy(nil); err != nil {
					return err
				}
			}

			doc, err := document.Decode(current)
			if err != nil {
				return err
			}
			next, err := fn(doc)
			if err != nil {
				return err
			}
			data, err := document.Encode(next)
			if err != nil {
				return err
			}
			return txn.Set(docKey(userID), data)
		})
		if errors.Is(err, badger.ErrConflict) && attempt < maxConflictRetries {
			continue
		}
		return err
	}
}
