package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/nteezflix/nteezflix/src/internal/domain"
	"github.com/nteezflix/nteezflix/src/internal/errors"
)

type InMemoryAccountRepo struct {
	accounts map[string]domain.Account
	byEmail  map[string]string
	mu       sync.RWMutex
}

func NewAccountRepo() *InMemoryAccountRepo {
	return &InMemoryAccountRepo{
		accounts: make(map[string]domain.Account),
		byEmail:  make(map[string]string),
	}
}

func (r *InMemoryAccountRepo) Create(ctx context.Context, account *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	email := normalizeEmail(account.Email)
	if _, taken := r.byEmail[email]; taken {
		return errors.ErrEmailAlreadyInUse
	}
	r.accounts[account.ID] = *account
	r.byEmail[email] = account.ID
	return nil
}

func (r *InMemoryAccountRepo) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	account, ok := r.accounts[id]
	if !ok {
		return nil, errors.NotFound("account not found")
	}
	return &account, nil
}

func (r *InMemoryAccountRepo) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[normalizeEmail(email)]
	if !ok {
		return nil, errors.NotFound("account not found")
	}
	account := r.accounts[id]
	return &account, nil
}

func (r *InMemoryAccountRepo) Save(ctx context.Context, account *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.accounts[account.ID]; ok {
		delete(r.byEmail, normalizeEmail(prev.Email))
	}
	r.accounts[account.ID] = *account
	r.byEmail[normalizeEmail(account.Email)] = account.ID
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
