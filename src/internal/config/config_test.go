package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nteezflix/nteezflix/src/internal/errors"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_ByExtension(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"yaml", "config.yaml", "catalog:\n  token: abc\nsync:\n  remote_timeout: 20s\n"},
		{"toml", "config.toml", "[catalog]\ntoken = \"abc\"\n[sync]\nremote_timeout = \"20s\"\n"},
		{"json", "config.json", `{"catalog":{"token":"abc"},"sync":{"remote_timeout":"20s"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			require.NoError(t, Load(writeFile(t, tt.file, tt.content), cfg))

			assert.Equal(t, "abc", cfg.Catalog.Token)
			assert.Equal(t, 20*time.Second, cfg.Sync.RemoteTimeout.Std())
			assert.Equal(t, defaultBaseURL, cfg.Catalog.BaseURL, "defaults survive partial files")
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	err := Load(filepath.Join(t.TempDir(), "nope.yaml"), Default())
	assert.Error(t, err)
}

func TestLoadClient_Defaults(t *testing.T) {
	dataDir := t.TempDir()
	t.Setenv("NTEEZFLIX_DATA_DIR", dataDir)

	cfg, err := LoadClient("", "")
	require.NoError(t, err)

	assert.Equal(t, "badger", cfg.DocStore.Driver)
	assert.Equal(t, filepath.Join(dataDir, "docs"), cfg.DocStore.DSN)
	assert.Equal(t, filepath.Join(dataDir, "identity.key"), cfg.Identity.KeyFile)
	assert.Equal(t, filepath.Join(dataDir, "session.token"), cfg.SessionTokenPath())
	assert.Equal(t, 15*time.Second, cfg.Sync.RemoteTimeout.Std())
	assert.Equal(t, 3, cfg.Curation.TopN)
	assert.Equal(t, 300*time.Millisecond, cfg.Search.Debounce.Std())
}

func TestLoadClient_EnvOverridesFile(t *testing.T) {
	path := writeFile(t, "config.yaml", "docstore:\n  driver: sqlite\ncatalog:\n  token: from-file\n")
	env := writeFile(t, ".env", "NTEEZFLIX_TMDB_TOKEN=from-env\n")
	t.Setenv("NTEEZFLIX_DATA_DIR", t.TempDir())
	t.Setenv("NTEEZFLIX_SYNC_TIMEOUT", "25s")
	t.Cleanup(func() { os.Unsetenv("NTEEZFLIX_TMDB_TOKEN") })

	cfg, err := LoadClient(path, env)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Catalog.Token)
	assert.Equal(t, "sqlite", cfg.DocStore.Driver)
	assert.Equal(t, 25*time.Second, cfg.Sync.RemoteTimeout.Std())
}

func TestLoadClient_MissingEnvFileIgnored(t *testing.T) {
	t.Setenv("NTEEZFLIX_DATA_DIR", t.TempDir())

	_, err := LoadClient("", filepath.Join(t.TempDir(), ".env"))
	assert.NoError(t, err)
}

func TestLoadClient_ValidationFails(t *testing.T) {
	t.Setenv("NTEEZFLIX_DATA_DIR", t.TempDir())

	tests := []struct {
		name    string
		content string
		field   string
	}{
		{"bad driver", "docstore:\n  driver: mongo\n", "docstore.driver"},
		{"postgres needs dsn", "docstore:\n  driver: postgres\n", "docstore.dsn"},
		{"bad identity mode", "identity:\n  mode: ldap\n", "identity.mode"},
		{"bad top n", "curation:\n  top_n: -1\n", "curation.top_n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadClient(writeFile(t, "config.yaml", tt.content), "")
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrValidation))
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestLoadClient_InvalidEnvDuration(t *testing.T) {
	t.Setenv("NTEEZFLIX_DATA_DIR", t.TempDir())
	t.Setenv("NTEEZFLIX_SYNC_TIMEOUT", "soon")

	_, err := LoadClient("", "")
	assert.ErrorContains(t, err, "NTEEZFLIX_SYNC_TIMEOUT")
}

func TestClampRemoteTimeout(t *testing.T) {
	tests := []struct {
		in, want time.Duration
	}{
		{0, 15 * time.Second},
		{time.Second, 10 * time.Second},
		{12 * time.Second, 12 * time.Second},
		{time.Minute, 30 * time.Second},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClampRemoteTimeout(tt.in), "in=%s", tt.in)
	}
}

func TestDuration_UnmarshalText(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalText([]byte("90s")))
	assert.Equal(t, 90*time.Second, d.Std())

	require.NoError(t, d.UnmarshalText([]byte("12")))
	assert.Equal(t, 12*time.Second, d.Std())

	assert.Error(t, d.UnmarshalText([]byte("later")))
}

func TestCreateConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	require.NoError(t, CreateConfigFile(path))
	assert.Error(t, CreateConfigFile(path), "must not overwrite")

	cfg := Default()
	require.NoError(t, Load(path, cfg))
	assert.Equal(t, "badger", cfg.DocStore.Driver)
	assert.Equal(t, 3, cfg.Curation.TopN)
}
