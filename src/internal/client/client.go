// Package client assembles a running NteezFlix client from configuration:
// the document store driver, the identity provider, the catalog and the
// services built on top of them.
package client

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/nteezflix/nteezflix/src/internal/adapters/badgerdb"
	"github.com/nteezflix/nteezflix/src/internal/adapters/identity/local"
	"github.com/nteezflix/nteezflix/src/internal/adapters/identity/oidc"
	"github.com/nteezflix/nteezflix/src/internal/adapters/memory"
	"github.com/nteezflix/nteezflix/src/internal/adapters/metadata/tmdb"
	"github.com/nteezflix/nteezflix/src/internal/adapters/postgres"
	"github.com/nteezflix/nteezflix/src/internal/adapters/sqlite"
	"github.com/nteezflix/nteezflix/src/internal/config"
	"github.com/nteezflix/nteezflix/src/internal/domain"
	"github.com/nteezflix/nteezflix/src/internal/errors"
	"github.com/nteezflix/nteezflix/src/internal/logger"
	"github.com/nteezflix/nteezflix/src/internal/ports"
	"github.com/nteezflix/nteezflix/src/internal/services/activity"
	"github.com/nteezflix/nteezflix/src/internal/services/browse"
	"github.com/nteezflix/nteezflix/src/internal/services/curation"
	"github.com/nteezflix/nteezflix/src/internal/services/session"
	"github.com/nteezflix/nteezflix/src/internal/services/syncer"
	"github.com/nteezflix/nteezflix/src/internal/services/watchlist"
)

// Provider is an identity provider that holds resources until closed.
type Provider interface {
	ports.IdentityProvider
	Close() error
}

// Options configures Open. Config is required; the rest default.
type Options struct {
	Config   *config.Config
	Logger   *log.Logger
	Notifier ports.Notifier
	// Catalog replaces the TMDB client. Tests only.
	Catalog    ports.Catalog
	HTTPClient *http.Client
	// SkipResume leaves the session signed out even if a token is saved.
	SkipResume bool
}

// Client is a wired client. Close releases every resource Open acquired.
type Client struct {
	Config    *config.Config
	Catalog   ports.Catalog
	Documents ports.DocumentStore
	Provider  Provider
	Sessions  *session.Service
	Watchlist *watchlist.Store
	Activity  *activity.Store
	Sync      *syncer.Syncer
	Browse    *browse.Service
	Curation  *curation.Service

	logger    *log.Logger
	tokenPath string
	closers   []func() error
	closeOnce sync.Once
}

// Open wires a client. When a session token was saved by an earlier run
// it is resumed, and Open returns once the user's document is pulled.
func Open(ctx context.Context, opts Options) (*Client, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("client: config is required")
	}
	if opts.Notifier == nil {
		opts.Notifier = ports.NoopNotifier{}
	}
	cfg := opts.Config
	l := opts.Logger
	if l == nil {
		l = logger.Discard()
	}

	c := &Client{
		Config:    cfg,
		logger:    logger.Component(l, "client"),
		tokenPath: cfg.SessionTokenPath(),
	}

	docs, accounts, closeStore, err := openStores(cfg.DocStore, l)
	if err != nil {
		return nil, err
	}
	c.Documents = docs
	c.onClose(closeStore)

	provider, err := openProvider(ctx, cfg, accounts, l)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.Provider = provider
	c.onClose(provider.Close)

	c.Catalog = opts.Catalog
	if c.Catalog == nil {
		c.Catalog = tmdb.NewTMDBClient(tmdb.Options{
			BaseURL:      cfg.Catalog.BaseURL,
			ImageBaseURL: cfg.Catalog.ImageBaseURL,
			Token:        cfg.Catalog.Token,
			APIKey:       cfg.Catalog.APIKey,
			Language:     cfg.Catalog.Language,
			Timeout:      cfg.Catalog.Timeout.Std(),
			HTTPClient:   opts.HTTPClient,
			Logger:       l,
		})
	}

	timeout := cfg.Sync.RemoteTimeout.Std()
	c.Sessions = session.New(provider, docs, l, timeout)
	c.onClose(func() error { c.Sessions.Close(); return nil })

	unsub := provider.OnSessionChange(c.saveToken)
	c.onClose(func() error { unsub(); return nil })

	c.Watchlist = watchlist.NewStore()
	c.Activity = activity.NewStore()
	c.Sync = syncer.New(c.Sessions, c.Watchlist, c.Activity, docs, syncer.Options{
		Notifier: opts.Notifier,
		Logger:   l,
		Timeout:  timeout,
	})
	c.Sync.Start()
	c.onClose(func() error { c.Sync.Close(); return nil })

	c.Browse = browse.New(c.Catalog, l)
	c.Curation = curation.New(c.Catalog, c.Activity, cfg.Curation.TopN, l)

	if !opts.SkipResume {
		c.resume(ctx)
	}

	c.logger.Debug("client ready", "docstore", cfg.DocStore.Driver, "identity", cfg.Identity.Mode)
	return c, nil
}

// Close stops the services and releases the store. Safe to call more
// than once.
func (c *Client) Close() error {
	var errs []error
	c.closeOnce.Do(func() {
		for i := len(c.closers) - 1; i >= 0; i-- {
			if err := c.closers[i](); err != nil {
				errs = append(errs, err)
			}
		}
	})
	return errors.Join(errs...)
}

// Session returns the current session.
func (c *Client) Session() domain.Session {
	return c.Sessions.Current()
}

func (c *Client) onClose(fn func() error) {
	if fn != nil {
		c.closers = append(c.closers, fn)
	}
}

// resume restores the saved session. A rejected token is removed by the
// sign-out notification; a network failure keeps it for the next run.
func (c *Client) resume(ctx context.Context) {
	data, err := os.ReadFile(c.tokenPath)
	if err != nil {
		if !os.IsNotExist(err) {
			c.logger.Warn("reading session token failed", "err", err)
		}
		return
	}
	token := strings.TrimSpace(string(data))
	if token == "" {
		return
	}
	if err := c.Sessions.Resume(ctx, token); err != nil {
		c.logger.Info("session not resumed", "code", errors.CodeOf(err), "err", err)
		return
	}
	// Commands read the stores right after Open.
	if err := c.Sync.Wait(ctx); err != nil {
		c.logger.Warn("waiting for the initial pull failed", "err", err)
	}
}

// saveToken keeps the token file in step with the provider session.
func (c *Client) saveToken(id *domain.Identity) {
	if id == nil {
		if err := os.Remove(c.tokenPath); err != nil && !os.IsNotExist(err) {
			c.logger.Warn("removing session token failed", "err", err)
		}
		return
	}
	if id.Token == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(c.tokenPath), 0o700); err != nil {
		c.logger.Warn("creating session directory failed", "err", err)
		return
	}
	if err := os.WriteFile(c.tokenPath, []byte(id.Token), 0o600); err != nil {
		c.logger.Warn("saving session token failed", "err", err)
	}
}

func openStores(cfg config.DocStoreConfig, l *log.Logger) (ports.DocumentStore, ports.AccountRepository, func() error, error) {
	switch cfg.Driver {
	case "memory":
		return memory.NewDocumentStore(), memory.NewAccountRepo(), nil, nil

	case "badger":
		db, err := badgerdb.Open(cfg.DSN, l)
		if err != nil {
			return nil, nil, nil, err
		}
		return badgerdb.NewDocumentStore(db), badgerdb.NewAccountRepo(db), db.Close, nil

	case "sqlite":
		db, err := sqlite.Open(cfg.DSN)
		if err != nil {
			return nil, nil, nil, err
		}
		return sqlite.NewDocumentStore(db), sqlite.NewAccountRepo(db), db.Close, nil

	case "postgres":
		db, err := postgres.NewConnection(cfg.DSN)
		if err != nil {
			return nil, nil, nil, err
		}
		docs := postgres.NewDocumentRepo(db)
		if err := docs.InitSchema(); err != nil {
			db.Close()
			return nil, nil, nil, fmt.Errorf("failed to init document schema: %w", err)
		}
		users := postgres.NewUserRepo(db)
		if err := users.InitSchema(); err != nil {
			db.Close()
			return nil, nil, nil, fmt.Errorf("failed to init user schema: %w", err)
		}
		return docs, users, db.Close, nil

	default:
		return nil, nil, nil, fmt.Errorf("unknown docstore driver %q", cfg.Driver)
	}
}

func openProvider(ctx context.Context, cfg *config.Config, accounts ports.AccountRepository, l *log.Logger) (Provider, error) {
	switch cfg.Identity.Mode {
	case "local":
		key, err := local.LoadOrCreateKey(cfg.Identity.KeyFile)
		if err != nil {
			return nil, err
		}
		p, err := local.New(accounts, local.Options{
			Key:      key,
			TokenTTL: cfg.Identity.TokenTTL.Std(),
			Logger:   l,
		})
		if err != nil {
			return nil, err
		}
		return p, nil

	case "oidc":
		o := cfg.Identity.OIDC
		p, err := oidc.New(ctx, oidc.Options{
			ProviderURL:  o.ProviderURL,
			ClientID:     o.ClientID,
			ClientSecret: o.ClientSecret,
			Scopes:       o.Scopes,
			Accounts:     accounts,
			Logger:       l,
		})
		if err != nil {
			return nil, err
		}
		return p, nil

	default:
		return nil, fmt.Errorf("unknown identity mode %q", cfg.Identity.Mode)
	}
}
