package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/lib/pq"

	"github.com/nteezflix/nteezflix/src/internal/domain"
	domainerrors "github.com/nteezflix/nteezflix/src/internal/errors"
)

// uniqueViolation is the SQLSTATE for unique constraint failures.
const uniqueViolation = "23505"

type PostgresUserRepo struct {
	db *sql.DB
}

func NewUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

func (r *PostgresUserRepo) InitSchema() error {
	_, err := r.db.Exec(`
		CREATE TABLE IF NOT EXISTS accounts (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			created_at TIMESTAMPTZ DEFAULT NOW(),
			last_seen TIMESTAMPTZ DEFAULT NOW()
		);
		CREATE UNIQUE INDEX IF NOT EXISTS accounts_email_idx ON accounts (LOWER(email));
	`)
	return err
}

func (r *PostgresUserRepo) Create(ctx context.Context, account *domain.Account) error {
	query := `
		INSERT INTO accounts (id, email, password_hash, created_at, last_seen)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.ExecContext(ctx, query,
		account.ID,
		strings.TrimSpace(account.Email),
		account.PasswordHash,
		account.CreatedAt,
		account.LastSeen,
	)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return domainerrors.ErrEmailAlreadyInUse
	}
	return err
}

func (r *PostgresUserRepo) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	return r.get(ctx, `WHERE id = $1`, id)
}

func (r *PostgresUserRepo) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return r.get(ctx, `WHERE LOWER(email) = LOWER($1)`, strings.TrimSpace(email))
}

func (r *PostgresUserRepo) get(ctx context.Context, where string, arg string) (*domain.Account, error) {
	query := `
		SELECT id, email, password_hash, created_at, last_seen
		FROM accounts
	` + where
	row := r.db.QueryRowContext(ctx, query, arg)

	var account domain.Account
	err := row.Scan(&account.ID, &account.Email, &account.PasswordHash, &account.CreatedAt, &account.LastSeen)
	if err == sql.ErrNoRows {
		return nil, domainerrors.NotFound("account not found")
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *PostgresUserRepo) Save(ctx context.Context, account *domain.Account) error {
	query := `
		INSERT INTO accounts (id, email, password_hash, created_at, last_seen)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email,
			password_hash = EXCLUDED.password_hash,
			last_seen = EXCLUDED.last_seen;
	`
	_, err := r.db.ExecContext(ctx, query,
		account.ID,
		strings.TrimSpace(account.Email),
		account.PasswordHash,
		account.CreatedAt,
		account.LastSeen,
	)
	return err
}
