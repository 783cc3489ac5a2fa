// Package oidc signs users in against an OpenID Connect provider with the
// resource owner password grant. Accounts are provisioned on first sign
// in.
package oidc

import (
	"context"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"github.com/nteezflix/nteezflix/src/internal/adapters/identity"
	"github.com/nteezflix/nteezflix/src/internal/domain"
	"github.com/nteezflix/nteezflix/src/internal/errors"
	"github.com/nteezflix/nteezflix/src/internal/logger"
	"github.com/nteezflix/nteezflix/src/internal/ports"
)

type Options struct {
	ProviderURL  string
	ClientID     string
	ClientSecret string
	Scopes       []string
	// Accounts, when set, receives a record for every user that signs in.
	Accounts ports.AccountRepository
	Logger   *log.Logger
}

type Provider struct {
	oauth    oauth2.Config
	verifier *oidc.IDTokenVerifier
	accounts ports.AccountRepository
	logger   *log.Logger

	current   *identity.Current
	listeners identity.Listeners
}

type idClaims struct {
	Sub               string `json:"sub"`
	Email             string `json:"email"`
	PreferredUsername string `json:"preferred_username"`
}

// New discovers the provider configuration at opts.ProviderURL.
func New(ctx context.Context, opts Options) (*Provider, error) {
	if opts.ProviderURL == "" {
		return nil, errors.Validation("oidc provider url is required")
	}
	p, err := oidc.NewProvider(ctx, opts.ProviderURL)
	if err != nil {
		return nil, errors.NetworkUnavailable("query oidc provider", err)
	}
	verifier := p.Verifier(&oidc.Config{ClientID: opts.ClientID})
	return NewWithVerifier(p.Endpoint(), verifier, opts), nil
}

// NewWithVerifier builds a provider from a known token endpoint and
// verifier, skipping discovery.
func NewWithVerifier(endpoint oauth2.Endpoint, verifier *oidc.IDTokenVerifier, opts Options) *Provider {
	scopes := opts.Scopes
	if len(scopes) == 0 {
		scopes = []string{oidc.ScopeOpenID, "profile", "email"}
	}
	return &Provider{
		oauth: oauth2.Config{
			ClientID:     opts.ClientID,
			ClientSecret: opts.ClientSecret,
			Endpoint:     endpoint,
			Scopes:       scopes,
		},
		verifier: verifier,
		accounts: opts.Accounts,
		logger:   logger.Component(opts.Logger, "identity"),
		current:  identity.NewCurrent(nil),
	}
}

// SignUp is not part of a generic OIDC provider; accounts are created
// there.
func (p *Provider) SignUp(context.Context, string, string) (*domain.Identity, error) {
	return nil, errors.Unknown("sign up is handled by the identity provider")
}

func (p *Provider) SignIn(ctx context.Context, email, password string) (*domain.Identity, error) {
	token, err := p.oauth.PasswordCredentialsToken(ctx, email, password)
	if err != nil {
		return nil, p.grantError(err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		return nil, errors.Unknown("identity provider returned no id token")
	}

	id, err := p.verify(ctx, rawIDToken)
	if err != nil {
		return nil, err
	}
	if id.Email == "" {
		id.Email = email
	}

	p.provision(ctx, id)
	p.activate(id)
	p.logger.Info("signed in", "user", id.UserID)
	return id, nil
}

func (p *Provider) SignOut(context.Context) error {
	if p.current.Clear() {
		p.listeners.Emit(nil)
	}
	return nil
}

// Resume accepts a previously issued ID token while it is still valid.
func (p *Provider) Resume(ctx context.Context, token string) (*domain.Identity, error) {
	id, err := p.verify(ctx, token)
	if err != nil {
		p.current.Clear()
		p.listeners.Emit(nil)
		return nil, err
	}
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

func (p *Provider) verify(ctx context.Context, raw string) (*domain.Identity, error) {
	idToken, err := p.verifier.Verify(ctx, raw)
	if err != nil {
		p.logger.Debug("id token rejected", "err", err)
		var expired *oidc.TokenExpiredError
		if stderrors.As(err, &expired) {
			return nil, errors.InvalidCredentials("session expired, sign in again")
		}
		return nil, errors.InvalidCredentials("invalid id token")
	}

	var claims idClaims
	if err := idToken.Claims(&claims); err != nil {
		return nil, errors.Wrap(err, errors.CodeUnknown, "invalid id token claims")
	}
	email := claims.Email
	if email == "" {
		email = claims.PreferredUsername
	}
	return &domain.Identity{
		UserID:    claims.Sub,
		Email:     email,
		Token:     raw,
		ExpiresAt: idToken.Expiry,
	}, nil
}

// provision records the user locally, creating the account on first
// sign in and refreshing email and last seen afterwards.
func (p *Provider) provision(ctx context.Context, id *domain.Identity) {
	if p.accounts == nil {
		return
	}
	now := time.Now()

	account, err := p.accounts.GetByID(ctx, id.UserID)
	if err != nil {
		account = &domain.Account{ID: id.UserID, Email: id.Email, CreatedAt: now, LastSeen: now}
		if err := p.accounts.Create(ctx, account); err != nil {
			p.logger.Warn("provisioning account failed", "user", id.UserID, "err", err)
			return
		}
		p.logger.Info("provisioned account", "user", id.UserID, "email", id.Email)
		return
	}

	account.LastSeen = now
	if id.Email != "" {
		account.Email = id.Email
	}
	if err := p.accounts.Save(ctx, account); err != nil {
		p.logger.Warn("updating account failed", "user", id.UserID, "err", err)
	}
}

func (p *Provider) activate(id *domain.Identity) {
	p.current.Set(id, func() {
		p.logger.Info("session expired", "user", id.UserID)
		p.listeners.Emit(nil)
	})
	p.listeners.Emit(id)
}

func (p *Provider) grantError(err error) error {
	var rerr *oauth2.RetrieveError
	if stderrors.As(err, &rerr) {
		p.logger.Info("password grant rejected", "code", rerr.ErrorCode)
		if rerr.ErrorCode == "invalid_grant" || rerr.ErrorCode == "invalid_client" ||
			(rerr.Response != nil && (rerr.Response.StatusCode == http.StatusBadRequest || rerr.Response.StatusCode == http.StatusUnauthorized)) {
			return errors.InvalidCredentials("invalid email or password")
		}
		if rerr.Response != nil && rerr.Response.StatusCode >= 500 {
			return errors.NetworkUnavailable("identity provider unavailable", err)
		}
		return errors.Wrap(err, errors.CodeUnknown, "sign in failed")
	}
	return errors.Classify(err)
}
