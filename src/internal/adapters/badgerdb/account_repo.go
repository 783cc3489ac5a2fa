package badgerdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/nteezflix/nteezflix/src/internal/domain"
	domainerrors "github.com/nteezflix/nteezflix/src/internal/errors"
)

const (
	accountPrefix      = "account:"
	accountEmailPrefix = "idx:account:email:"
)

// AccountRepo stores accounts as JSON with a case-insensitive email index.
type AccountRepo struct {
	db *badger.DB
}

func NewAccountRepo(db *badger.DB) *AccountRepo {
	return &AccountRepo{db: db}
}

func accountKey(id string) []byte {
	return []byte(accountPrefix + id)
}

func emailKey(email string) []byte {
	return []byte(accountEmailPrefix + normalizeEmail(email))
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *AccountRepo) Create(ctx context.Context, account *domain.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(account)
	if err != nil {
		return fmt.Errorf("failed to marshal account: %w", err)
	}

	err = r.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(emailKey(account.Email)); err == nil {
			return domainerrors.ErrEmailAlreadyInUse
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		if err := txn.Set(accountKey(account.ID), data); err != nil {
			return err
		}
		return txn.Set(emailKey(account.Email), []byte(account.ID))
	})
	if errors.Is(err, badger.ErrConflict) {
		// Another writer raced us to the same email index entry.
		return domainerrors.ErrEmailAlreadyInUse
	}
	return err
}

func (r *AccountRepo) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var account domain.Account
	err := r.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, accountKey(id), &account)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, domainerrors.NotFound("account not found")
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *AccountRepo) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var account domain.Account
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(emailKey(email))
		if err != nil {
			return err
		}
		id, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		return getJSON(txn, accountKey(string(id)), &account)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, domainerrors.NotFound("account not found")
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *AccountRepo) Save(ctx context.Context, account *domain.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(account)
	if err != nil {
		return fmt.Errorf("failed to marshal account: %w", err)
	}

	return r.db.Update(func(txn *badger.Txn) error {
		var prev domain.Account
		if err := getJSON(txn, accountKey(account.ID), &prev); err == nil {
			if normalizeEmail(prev.Email) != normalizeEmail(account.Email) {
				if err := txn.Delete(emailKey(prev.Email)); err != nil {
					return err
				}
			}
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		if err := txn.Set(accountKey(account.ID), data); err != nil {
			return err
		}
		return txn.Set(emailKey(account.Email), []byte(account.ID))
	})
}

func getJSON(txn *badger.Txn, key []byte, dest any) error {
	item, err := txn.Get(key)
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, dest)
	})
}
