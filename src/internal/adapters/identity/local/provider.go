// Package local is an identity provider backed by an account repository:
// argon2id password hashes and PASETO v4.local session tokens.
package local

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/nteezflix/nteezflix/src/internal/adapters/identity"
	"github.com/nteezflix/nteezflix/src/internal/domain"
	"github.com/nteezflix/nteezflix/src/internal/errors"
	"github.com/nteezflix/nteezflix/src/internal/logger"
	"github.com/nteezflix/nteezflix/src/internal/ports"
)

const userIDPrefix = "usr-"

// Options configures a Provider.
type Options struct {
	// Key is the 32 byte session token key.
	Key      []byte
	TokenTTL time.Duration
	Logger   *log.Logger
	// Now overrides the clock. Tests only.
	Now func() time.Time
}

type Provider struct {
	accounts  ports.AccountRepository
	tokens    *tokenService
	logger    *log.Logger
	now       func() time.Time
	current   *identity.Current
	listeners identity.Listeners
}

func New(accounts ports.AccountRepository, opts Options) (*Provider, error) {
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = 30 * 24 * time.Hour
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	tokens, err := newTokenService(opts.Key, opts.TokenTTL)
	if err != nil {
		return nil, err
	}
	return &Provider{
		accounts: accounts,
		tokens:   tokens,
		logger:   logger.Component(opts.Logger, "identity"),
		now:      opts.Now,
		current:  identity.NewCurrent(opts.Now),
	}, nil
}

func (p *Provider) SignUp(ctx context.Context, email, password string) (*domain.Identity, error) {
	email = normalizeEmail(email)
	if _, err := p.accounts.GetByEmail(ctx, email); err == nil {
		return nil, errors.EmailAlreadyInUse("an account with this email already exists")
	} else if !errors.Is(err, errors.ErrNotFound) {
		return nil, errors.Classify(err)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, errors.Validation(err.Error())
	}
	id, err := gonanoid.New()
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeUnknown, "generate user id")
	}

	now := p.now()
	account := &domain.Account{
		ID:           userIDPrefix + id,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		LastSeen:     now,
	}
	if err := p.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, errors.ErrEmailAlreadyInUse) {
			return nil, errors.EmailAlreadyInUse("an account with this email already exists")
		}
		return nil, errors.Classify(err)
	}

	p.logger.Info("account created", "user", account.ID)
	return p.establish(account), nil
}

func (p *Provider) SignIn(ctx context.Context, email, password string) (*domain.Identity, error) {
	account, err := p.accounts.GetByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, errors.ErrNotFound) {
		return nil, errors.InvalidCredentials("invalid email or password")
	}
	if err != nil {
		return nil, errors.Classify(err)
	}
	if !VerifyPassword(account.PasswordHash, password) {
		return nil, errors.InvalidCredentials("invalid email or password")
	}

	account.LastSeen = p.now()
	if err := p.accounts.Save(ctx, account); err != nil {
		p.logger.Warn("updating last seen failed", "user", account.ID, "err", err)
	}
	return p.establish(account), nil
}

func (p *Provider) SignOut(context.Context) error {
	if p.current.Clear() {
		p.listeners.Emit(nil)
	}
	return nil
}

// Resume restores the session carried by token. An invalid or expired
// token reports a signed out session.
func (p *Provider) Resume(ctx context.Context, token string) (*domain.Identity, error) {
	c, err := p.tokens.verify(token, p.now())
	if err != nil {
		p.logger.Debug("session token rejected", "err", err)
		p.current.Clear()
		p.listeners.Emit(nil)
		return nil, errors.InvalidCredentials("session expired, sign in again")
	}

	if _, err := p.accounts.GetByID(ctx, c.UserID); err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			p.current.Clear()
			p.listeners.Emit(nil)
			return nil, errors.InvalidCredentials("account no longer exists")
		}
		return nil, errors.Classify(err)
	}

	id := &domain.Identity{UserID: c.UserID, Email: c.Email, Token: token, ExpiresAt: c.ExpiresAt}
	p.activate(id)
	return id, nil
}

func (p *Provider) OnSessionChange(fn func(*domain.Identity)) func() {
	return p.listeners.Add(fn)
}

// Close stops the expiry timer without notifying listeners.
func (p *Provider) Close() error {
	p.current.Clear()
	return nil
}

func (p *Provider) establish(account *domain.Account) *domain.Identity {
	token, exp := p.tokens.issue(account.ID, account.Email, p.now())
	id := &domain.Identity{UserID: account.ID, Email: account.Email, Token: token, ExpiresAt: exp}
	p.activate(id)
	p.logger.Info("session started", "user", account.ID, "expires", exp.Format(time.RFC3339))
	return id
}

func (p *Provider) activate(id *domain.Identity) {
	p.current.Set(id, func() {
		p.logger.Info("session expired", "user", id.UserID)
		p.listeners.Emit(nil)
	})
	p.listeners.Emit(id)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
