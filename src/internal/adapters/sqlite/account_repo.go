package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nteezflix/nteezflix/src/internal/domain"
	domainerrors "github.com/nteezflix/nteezflix/src/internal/errors"
)

type AccountRepo struct {
	d *DB
}

func NewAccountRepo(d *DB) *AccountRepo {
	return &AccountRepo{d: d}
}

func (r *AccountRepo) Create(ctx context.Context, account *domain.Account) error {
	_, err := r.d.db.ExecContext(ctx, `
		INSERT INTO accounts (id, email, password_hash, created_at, last_seen)
		VALUES (?, ?, ?, ?, ?)`,
		account.ID, strings.TrimSpace(account.Email), account.PasswordHash,
		account.CreatedAt.UnixMilli(), account.LastSeen.UnixMilli())
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return domainerrors.ErrEmailAlreadyInUse
		}
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

func (r *AccountRepo) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	return r.get(ctx, `WHERE id = ?`, id)
}

func (r *AccountRepo) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return r.get(ctx, `WHERE email = ?`, strings.TrimSpace(email))
}

func (r *AccountRepo) Save(ctx context.Context, account *domain.Account) error {
	_, err := r.d.db.ExecContext(ctx, `
		INSERT INTO accounts (id, email, password_hash, created_at, last_seen)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			email = excluded.email,
			password_hash = excluded.password_hash,
			last_seen = excluded.last_seen`,
		account.ID, strings.TrimSpace(account.Email), account.PasswordHash,
		account.CreatedAt.UnixMilli(), account.LastSeen.UnixMilli())
	if err != nil {
		return fmt.Errorf("save account: %w", err)
	}
	return nil
}

func (r *AccountRepo) get(ctx context.Context, where string, arg any) (*domain.Account, error) {
	row := r.d.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, created_at, last_seen
		FROM accounts `+where, arg)

	var account domain.Account
	var createdAt, lastSeen int64
	err := row.Scan(&account.ID, &account.Email, &account.PasswordHash, &createdAt, &lastSeen)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domainerrors.NotFound("account not found")
	}
	if err != nil {
		return nil, fmt.Errorf("scan account: %w", err)
	}
	account.CreatedAt = time.UnixMilli(createdAt).UTC()
	account.LastSeen = time.UnixMilli(lastSeen).UTC()
	return &account, nil
}
