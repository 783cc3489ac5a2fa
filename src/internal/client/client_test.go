package client

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nteezflix/nteezflix/src/internal/config"
	"github.com/nteezflix/nteezflix/src/internal/domain"
	"github.com/nteezflix/nteezflix/src/internal/testutil"
)

func testConfig(t *testing.T, driver string) *config.Config {
	t.Helper()
	dir := t.TempDir()

	cfg := config.Default()
	cfg.DataDir = dir
	cfg.DocStore.Driver = driver
	switch driver {
	case "badger":
		cfg.DocStore.DSN = filepath.Join(dir, "docs")
	case "sqlite":
		cfg.DocStore.DSN = filepath.Join(dir, "nteezflix.db")
	}
	cfg.Identity.KeyFile = filepath.Join(dir, "identity.key")
	return cfg
}

func open(t *testing.T, cfg *config.Config) *Client {
	t.Helper()
	c, err := Open(context.Background(), Options{Config: cfg, Catalog: testutil.NewFakeCatalog()})
	require.NoError(t, err)
	return c
}

func TestOpen_ResumesSavedSession(t *testing.T) {
	for _, driver := range []string{"badger", "sqlite"} {
		t.Run(driver, func(t *testing.T) {
			ctx := context.Background()
			cfg := testConfig(t, driver)

			first := open(t, cfg)
			require.NoError(t, first.Sessions.SignUp(ctx, "a@example.com", "secret1"))
			require.NoError(t, first.Sync.Add(ctx, domain.WatchlistItem{ID: 27205, Title: "Inception", MediaType: domain.MediaTypeMovie}))
			require.NoError(t, first.Close())

			second := open(t, cfg)
			t.Cleanup(func() { second.Close() })

			sess := second.Session()
			assert.True(t, sess.Authenticated())
			assert.Equal(t, "a@example.com", sess.Email)
			assert.True(t, second.Watchlist.Contains(27205), "resume pulls the remote document")
		})
	}
}

func TestOpen_SkipResume(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t, "sqlite")

	first := open(t, cfg)
	require.NoError(t, first.Sessions.SignUp(ctx, "a@example.com", "secret1"))
	require.NoError(t, first.Close())

	c, err := Open(ctx, Options{Config: cfg, Catalog: testutil.NewFakeCatalog(), SkipResume: true})
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })

	assert.True(t, c.Session().SignedOut())
	assert.FileExists(t, cfg.SessionTokenPath())
}

func TestSignOut_RemovesSavedToken(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t, "sqlite")
	c := open(t, cfg)
	t.Cleanup(func() { c.Close() })

	require.NoError(t, c.Sessions.SignUp(ctx, "a@example.com", "secret1"))
	assert.FileExists(t, cfg.SessionTokenPath())

	require.NoError(t, c.Sessions.SignOut(ctx))
	assert.NoFileExists(t, cfg.SessionTokenPath())
}

func TestOpen_RejectedTokenIsDiscarded(t *testing.T) {
	cfg := testConfig(t, "sqlite")
	require.NoError(t, os.MkdirAll(cfg.DataDir, 0o700))
	require.NoError(t, os.WriteFile(cfg.SessionTokenPath(), []byte("v4.local.garbage"), 0o600))

	c := open(t, cfg)
	t.Cleanup(func() { c.Close() })

	assert.True(t, c.Session().SignedOut())
	assert.NoFileExists(t, cfg.SessionTokenPath())
}

func TestOpen_GuestNeverSavesToken(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t, "memory")
	c := open(t, cfg)
	t.Cleanup(func() { c.Close() })

	require.NoError(t, c.Sessions.EnterGuest(ctx))
	require.NoError(t, c.Sync.Add(ctx, domain.WatchlistItem{ID: 1, Title: "Local", MediaType: domain.MediaTypeTV}))

	assert.True(t, c.Session().Guest)
	assert.NoFileExists(t, cfg.SessionTokenPath())
}

func TestOpen_UnknownDriver(t *testing.T) {
	cfg := testConfig(t, "memory")
	cfg.DocStore.Driver = "cassandra"

	_, err := Open(context.Background(), Options{Config: cfg})
	assert.ErrorContains(t, err, "unknown docstore driver")
}

func TestOpen_UnknownIdentityMode(t *testing.T) {
	cfg := testConfig(t, "memory")
	cfg.Identity.Mode = "saml"

	_, err := Open(context.Background(), Options{Config: cfg})
	assert.ErrorContains(t, err, "unknown identity mode")
}

func TestOpen_RequiresConfig(t *testing.T) {
	_, err := Open(context.Background(), Options{})
	assert.Error(t, err)
}

func TestClose_Idempotent(t *testing.T) {
	c := open(t, testConfig(t, "badger"))
	require.NoError(t, c.Close())
	assert.NoError(t, c.Close())
}
