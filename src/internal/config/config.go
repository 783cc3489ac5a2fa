package config

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/nteezflix/nteezflix/src/internal/validation"
)

//go:embed config.example.yaml
var exampleConf []byte

const (
	defaultDataDir       = "~/.local/share/nteezflix"
	defaultBaseURL       = "https://api.themoviedb.org/3"
	defaultImageBaseURL  = "https://image.tmdb.org/t/p"
	defaultLanguage      = "en-US"
	defaultCatalogTimout = 10 * time.Second
	defaultRemoteTimeout = 15 * time.Second
	minRemoteTimeout     = 10 * time.Second
	maxRemoteTimeout     = 30 * time.Second
	defaultTokenTTL      = 30 * 24 * time.Hour
	defaultTopN          = 3
	defaultDebounce      = 300 * time.Millisecond
)

// Config holds configuration for the NteezFlix client.
type Config struct {
	DataDir  string         `json:"data_dir" yaml:"data_dir" toml:"data_dir"`
	Catalog  CatalogConfig  `json:"catalog" yaml:"catalog" toml:"catalog"`
	DocStore DocStoreConfig `json:"docstore" yaml:"docstore" toml:"docstore"`
	Identity IdentityConfig `json:"identity" yaml:"identity" toml:"identity"`
	Sync     SyncConfig     `json:"sync" yaml:"sync" toml:"sync"`
	Curation CurationConfig `json:"curation" yaml:"curation" toml:"curation"`
	Search   SearchConfig   `json:"search" yaml:"search" toml:"search"`
	Log      LogConfig      `json:"log" yaml:"log" toml:"log"`
}

// CatalogConfig configures the TMDB client. Token is a v4 read access
// token; APIKey is the v3 key used when no token is set.
type CatalogConfig struct {
	Token        string   `json:"token" yaml:"token" toml:"token"`
	APIKey       string   `json:"api_key" yaml:"api_key" toml:"api_key"`
	BaseURL      string   `json:"base_url" yaml:"base_url" toml:"base_url" validate:"required,url"`
	ImageBaseURL string   `json:"image_base_url" yaml:"image_base_url" toml:"image_base_url" validate:"required,url"`
	Language     string   `json:"language" yaml:"language" toml:"language"`
	Timeout      Duration `json:"timeout" yaml:"timeout" toml:"timeout"`
}

// DocStoreConfig selects the document store backend. DSN is a directory
// for badger, a file path for sqlite and a connection string for postgres.
type DocStoreConfig struct {
	Driver string `json:"driver" yaml:"driver" toml:"driver" validate:"required,oneof=memory badger sqlite postgres"`
	DSN    string `json:"dsn" yaml:"dsn" toml:"dsn" validate:"required_if=Driver postgres"`
}

type IdentityConfig struct {
	Mode     string     `json:"mode" yaml:"mode" toml:"mode" validate:"required,oneof=local oidc"`
	KeyFile  string     `json:"key_file" yaml:"key_file" toml:"key_file"`
	TokenTTL Duration   `json:"token_ttl" yaml:"token_ttl" toml:"token_ttl"`
	OIDC     OIDCConfig `json:"oidc" yaml:"oidc" toml:"oidc"`
}

type OIDCConfig struct {
	ProviderURL  string   `json:"provider_url" yaml:"provider_url" toml:"provider_url"`
	ClientID     string   `json:"client_id" yaml:"client_id" toml:"client_id"`
	ClientSecret string   `json:"client_secret" yaml:"client_secret" toml:"client_secret"`
	Scopes       []string `json:"scopes" yaml:"scopes" toml:"scopes"`
}

type SyncConfig struct {
	// RemoteTimeout bounds every document store call. Clamped to 10s..30s.
	RemoteTimeout Duration `json:"remote_timeout" yaml:"remote_timeout" toml:"remote_timeout"`
}

type CurationConfig struct {
	TopN int `json:"top_n" yaml:"top_n" toml:"top_n" validate:"gte=1,lte=20"`
}

type SearchConfig struct {
	Debounce Duration `json:"debounce" yaml:"debounce" toml:"debounce"`
}

type LogConfig struct {
	Level string `json:"level" yaml:"level" toml:"level" validate:"omitempty,oneof=debug info warn warning error"`
	File  string `json:"file" yaml:"file" toml:"file"`
}

// Default returns a Config populated with defaults.
func Default() *Config {
	return &Config{
		DataDir: defaultDataDir,
		Catalog: CatalogConfig{
			BaseURL:      defaultBaseURL,
			ImageBaseURL: defaultImageBaseURL,
			Language:     defaultLanguage,
			Timeout:      Duration(defaultCatalogTimout),
		},
		DocStore: DocStoreConfig{Driver: "badger"},
		Identity: IdentityConfig{
			Mode:     "local",
			TokenTTL: Duration(defaultTokenTTL),
			OIDC:     OIDCConfig{Scopes: []string{"openid", "email"}},
		},
		Sync:     SyncConfig{RemoteTimeout: Duration(defaultRemoteTimeout)},
		Curation: CurationConfig{TopN: defaultTopN},
		Search:   SearchConfig{Debounce: Duration(defaultDebounce)},
		Log:      LogConfig{Level: "info"},
	}
}

// Load loads the configuration from a file (YAML, TOML or JSON)
func Load(path string, cfg interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to open config file %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to decode YAML config file %s: %w", path, err)
		}
	case ".toml":
		if err := toml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to decode TOML config file %s: %w", path, err)
		}
	default:
		// Default to JSON for compatibility or other extensions
		if err := json.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to decode JSON config file %s: %w", path, err)
		}
	}

	return nil
}

// LoadClient builds the client configuration with precedence:
// 1. Environment variables (including those from envFile).
// 2. The config file at path, when path is not empty.
// 3. Default values.
// A missing envFile is ignored. The result is normalized and validated.
func LoadClient(path, envFile string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := Load(expandHome(path), cfg); err != nil {
			return nil, err
		}
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks struct constraints.
func (c *Config) Validate() error {
	return validation.New().Validate(c)
}

func (c *Config) applyEnv() error {
	strs := map[string]*string{
		"NTEEZFLIX_DATA_DIR":           &c.DataDir,
		"NTEEZFLIX_TMDB_TOKEN":         &c.Catalog.Token,
		"NTEEZFLIX_TMDB_API_KEY":       &c.Catalog.APIKey,
		"NTEEZFLIX_TMDB_BASE_URL":      &c.Catalog.BaseURL,
		"NTEEZFLIX_TMDB_LANGUAGE":      &c.Catalog.Language,
		"NTEEZFLIX_DOCSTORE_DRIVER":    &c.DocStore.Driver,
		"NTEEZFLIX_DOCSTORE_DSN":       &c.DocStore.DSN,
		"NTEEZFLIX_IDENTITY_MODE":      &c.Identity.Mode,
		"NTEEZFLIX_IDENTITY_KEY_FILE":  &c.Identity.KeyFile,
		"NTEEZFLIX_OIDC_PROVIDER_URL":  &c.Identity.OIDC.ProviderURL,
		"NTEEZFLIX_OIDC_CLIENT_ID":     &c.Identity.OIDC.ClientID,
		"NTEEZFLIX_OIDC_CLIENT_SECRET": &c.Identity.OIDC.ClientSecret,
		"NTEEZFLIX_LOG_LEVEL":          &c.Log.Level,
		"NTEEZFLIX_LOG_FILE":           &c.Log.File,
	}
	for key, dst := range strs {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}

	durations := map[string]*Duration{
		"NTEEZFLIX_TMDB_TIMEOUT":    &c.Catalog.Timeout,
		"NTEEZFLIX_SYNC_TIMEOUT":    &c.Sync.RemoteTimeout,
		"NTEEZFLIX_SEARCH_DEBOUNCE": &c.Search.Debounce,
		"NTEEZFLIX_TOKEN_TTL":       &c.Identity.TokenTTL,
	}
	for key, dst := range durations {
		v, ok := os.LookupEnv(key)
		if !ok || v == "" {
			continue
		}
		if err := dst.UnmarshalText([]byte(v)); err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
	}
	return nil
}

// normalize fills derived paths and clamps out-of-range values.
func (c *Config) normalize() {
	if strings.TrimSpace(c.DataDir) == "" {
		c.DataDir = defaultDataDir
	}
	c.DataDir = expandHome(c.DataDir)

	c.DocStore.Driver = strings.ToLower(strings.TrimSpace(c.DocStore.Driver))
	if c.DocStore.DSN == "" {
		switch c.DocStore.Driver {
		case "badger":
			c.DocStore.DSN = filepath.Join(c.DataDir, "docs")
		case "sqlite":
			c.DocStore.DSN = filepath.Join(c.DataDir, "nteezflix.db")
		}
	} else if c.DocStore.Driver != "postgres" {
		c.DocStore.DSN = expandHome(c.DocStore.DSN)
	}

	if c.Identity.KeyFile == "" {
		c.Identity.KeyFile = filepath.Join(c.DataDir, "identity.key")
	}
	c.Identity.KeyFile = expandHome(c.Identity.KeyFile)
	if c.Identity.TokenTTL <= 0 {
		c.Identity.TokenTTL = Duration(defaultTokenTTL)
	}

	if c.Catalog.Timeout <= 0 {
		c.Catalog.Timeout = Duration(defaultCatalogTimout)
	}
	c.Sync.RemoteTimeout = Duration(ClampRemoteTimeout(c.Sync.RemoteTimeout.Std()))
	if c.Search.Debounce <= 0 {
		c.Search.Debounce = Duration(defaultDebounce)
	}
	if c.Curation.TopN == 0 {
		c.Curation.TopN = defaultTopN
	}
	if c.Log.File != "" {
		c.Log.File = expandHome(c.Log.File)
	}
}

// ClampRemoteTimeout keeps remote call timeouts within 10s..30s. Zero
// selects the 15s default.
func ClampRemoteTimeout(d time.Duration) time.Duration {
	switch {
	case d <= 0:
		return defaultRemoteTimeout
	case d < minRemoteTimeout:
		return minRemoteTimeout
	case d > maxRemoteTimeout:
		return maxRemoteTimeout
	default:
		return d
	}
}

// SessionTokenPath is where the client keeps the resumable session token.
func (c *Config) SessionTokenPath() string {
	return filepath.Join(c.DataDir, "session.token")
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "nteezflix", "config.yaml")
	}
	return expandHome("~/.config/nteezflix/config.yaml")
}

// CreateConfigFile writes the example config to path. It refuses to
// overwrite an existing file.
func CreateConfigFile(path string) error {
	path = expandHome(path)
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, exampleConf, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path
}
