package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/nteezflix/nteezflix/src/internal/adapters/document"
	"github.com/nteezflix/nteezflix/src/internal/domain"
	domainerrors "github.com/nteezflix/nteezflix/src/internal/errors"
)

// PostgresDocumentRepo keeps each user document in a JSONB column. Every
// mutation locks the row with SELECT ... FOR UPDATE for its duration.
type PostgresDocumentRepo struct {
	db *sql.DB
}

func NewDocumentRepo(db *sql.DB) *PostgresDocumentRepo {
	return &PostgresDocumentRepo{db: db}
}

func (r *PostgresDocumentRepo) InitSchema() error {
	_, err := r.db.Exec(`
		CREATE TABLE IF NOT EXISTS user_documents (
			user_id TEXT PRIMARY KEY,
			body JSONB NOT NULL DEFAULT '{}'::jsonb,
			updated_at TIMESTAMPTZ DEFAULT NOW()
		);
	`)
	return err
}

func (r *PostgresDocumentRepo) GetDocument(ctx context.Context, userID string) (domain.Document, error) {
	var body []byte
	err := r.db.QueryRowContext(ctx, `SELECT body FROM user_documents WHERE user_id = $1`, userID).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domainerrors.NotFoundf("document %s not found", userID)
	}
	if err != nil {
		return nil, err
	}
	return document.Decode(body)
}

func (r *PostgresDocumentRepo) SetDocument(ctx context.Context, userID string, fields domain.Document) error {
	return r.mutate(ctx, userID, false, func(doc domain.Document) (domain.Document, error) {
		return document.Merge(doc, fields)
	})
}

func (r *PostgresDocumentRepo) UpdateField(ctx context.Context, userID, path string, value any) error {
	return r.mutate(ctx, userID, true, func(doc domain.Document) (domain.Document, error) {
		return document.SetField(doc, path, value)
	})
}

func (r *PostgresDocumentRepo) ArrayUnion(ctx context.Context, userID, field string, values ...any) error {
	return r.mutate(ctx, userID, true, func(doc domain.Document) (domain.Document, error) {
		return document.Union(doc, field, values...)
	})
}

func (r *PostgresDocumentRepo) ArrayRemove(ctx context.Context, userID, field string, values ...any) error {
	return r.mutate(ctx, userID, true, func(doc domain.Document) (domain.Document, error) {
		return document.Remove(doc, field, values...)
	})
}

func (r *PostgresDocumentRepo) mutate(ctx context.Context, userID string, mustExist bool, fn func(domain.Document) (domain.Document, error)) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if !mustExist {
		// Make sure a row exists so concurrent creators serialize on its lock.
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO user_documents (user_id, body)
			VALUES ($1, '{}'::jsonb)
			ON CONFLICT (user_id) DO NOTHING;
		`, userID); err != nil {
			return err
		}
	}

	var body []byte
	err = tx.QueryRowContext(ctx, `SELECT body FROM user_documents WHERE user_id = $1 FOR UPDATE`, userID).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return domainerrors.NotFoundf("document %s not found", userID)
	}
	if err != nil {
		return err
	}

	doc, err := document.Decode(body)
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

	if _, err := tx.ExecContext(ctx, `
		UPDATE user_documents
		SET body = $2::jsonb, updated_at = NOW()
		WHERE user_id = $1;
	`, userID, string(data)); err != nil {
		return fmt.Errorf("write document: %w", err)
	}
	return tx.Commit()
}
