package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/nteezflix/nteezflix/src/internal/adapters/document"
	"github.com/nteezflix/nteezflix/src/internal/domain"
	domainerrors "github.com/nteezflix/nteezflix/src/internal/errors"
)

// DocumentStore keeps each user document as JSON text in user_documents.
type DocumentStore struct {
	d *DB
}

func NewDocumentStore(d *DB) *DocumentStore {
	return &DocumentStore{d: d}
}

func (s *DocumentStore) GetDocument(ctx context.Context, userID string) (domain.Document, error) {
	var body string
	err := s.d.db.QueryRowContext(ctx, `SELECT body FROM user_documents WHERE user_id = ?`, userID).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domainerrors.NotFoundf("document %s not found", userID)
	}
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	return document.Decode([]byte(body))
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

func (s *DocumentStore) mutate(ctx context.Context, userID string, mustExist bool, fn func(domain.Document) (domain.Document, error)) error {
	s.d.writeMu.Lock()
	defer s.d.writeMu.Unlock()

	tx, err := s.d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var body string
	err = tx.QueryRowContext(ctx, `SELECT body FROM user_documents WHERE user_id = ?`, userID).Scan(&body)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if mustExist {
			return domainerrors.NotFoundf("document %s not found", userID)
		}
	case err != nil:
		return fmt.Errorf("read document: %w", err)
	}

	doc, err := document.Decode([]byte(body))
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

	_, err = tx.ExecContext(ctx, `
		INSERT INTO user_documents (user_id, body, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			body = excluded.body,
			updated_at = excluded.updated_at`,
		userID, string(data), time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("write document: %w", err)
	}
	return tx.Commit()
}
