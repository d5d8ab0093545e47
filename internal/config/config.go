// Package config loads the eventdesk configuration from a YAML file, an
// optional .env file and EVENTDESK_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	APIKeysBackendDatabase = "database"
	APIKeysBackendKeyring  = "keyring"
)

// APIConfig points at the scheduling backend.
type APIConfig struct {
	// BaseURL is the API root without the version segment.
	BaseURL string `yaml:"base_url"`
	Version string `yaml:"version"`
	// Timeout bounds every backend request; zero leaves it to the transport.
	Timeout time.Duration `yaml:"timeout"`
}

type AppConfig struct {
	// Origin is prefixed to relative search result URLs.
	Origin string `yaml:"origin"`
}

type SearchConfig struct {
	Debounce time.Duration `yaml:"debounce"`
	// DiscardStale drops responses of superseded searches instead of applying them.
	DiscardStale bool `yaml:"discard_stale"`
}

type StorageConfig struct {
	// DatabasePath empty means the build's default location.
	DatabasePath string `yaml:"database_path"`
	// APIKeysBackend is "database" (shared local table) or "keyring".
	APIKeysBackend string `yaml:"api_keys_backend"`
	KeyringDir     string `yaml:"keyring_dir"`
}

type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

type Config struct {
	API     APIConfig     `yaml:"api"`
	App     AppConfig     `yaml:"app"`
	Search  SearchConfig  `yaml:"search"`
	Storage StorageConfig `yaml:"storage"`
	Log     LogConfig     `yaml:"log"`
}

func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL: "http://127.0.0.1:8000/api",
			Version: "v1",
			Timeout: 20 * time.Second,
		},
		App: AppConfig{
			Origin: "http://localhost:5173",
		},
		Search: SearchConfig{
			Debounce: 300 * time.Millisecond,
		},
		Storage: StorageConfig{
			APIKeysBackend: APIKeysBackendDatabase,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Normalize fills zero values with defaults so partial files still work.
func (c *Config) Normalize() {
	def := DefaultConfig()
	if strings.TrimSpace(c.API.BaseURL) == "" {
		c.API.BaseURL = def.API.BaseURL
	}
	c.API.BaseURL = strings.TrimRight(c.API.BaseURL, "/")
	if strings.TrimSpace(c.API.Version) == "" {
		c.API.Version = def.API.Version
	}
	if c.API.Timeout < 0 {
		c.API.Timeout = def.API.Timeout
	}
	if strings.TrimSpace(c.App.Origin) == "" {
		c.App.Origin = def.App.Origin
	}
	c.App.Origin = strings.TrimRight(c.App.Origin, "/")
	if c.Search.Debounce <= 0 {
		c.Search.Debounce = def.Search.Debounce
	}
	switch c.Storage.APIKeysBackend {
	case APIKeysBackendDatabase, APIKeysBackendKeyring:
	default:
		c.Storage.APIKeysBackend = APIKeysBackendDatabase
	}
	if strings.TrimSpace(c.Log.Level) == "" {
		c.Log.Level = def.Log.Level
	}
}

// Validate rejects values that Normalize cannot repair.
func (c *Config) Validate() error {
	if _, err := url.ParseRequestURI(c.API.BaseURL); err != nil {
		return fmt.Errorf("api.base_url: %w", err)
	}
	u, err := url.Parse(c.App.Origin)
	if err != nil {
		return fmt.Errorf("app.origin: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("app.origin must be absolute, got %q", c.App.Origin)
	}
	return nil
}

// APIRoot returns the versioned API root with a trailing slash.
func (c *Config) APIRoot() string {
	return c.API.BaseURL + "/" + strings.Trim(c.API.Version, "/") + "/"
}

// DefaultPath returns $EVENTDESK_CONFIG, or config.yaml under the user
// config directory.
func DefaultPath() (string, error) {
	if v := os.Getenv("EVENTDESK_CONFIG"); v != "" {
		return v, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(dir, "eventdesk", "config.yaml"), nil
}

// Load reads the YAML file at path. A missing file is created with defaults.
// Environment overrides are applied last.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if err := cfg.Save(path); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("EVENTDESK_API_BASE_URL"); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv("EVENTDESK_API_VERSION"); v != "" {
		c.API.Version = v
	}
	if v := os.Getenv("EVENTDESK_ORIGIN"); v != "" {
		c.App.Origin = v
	}
	if v := os.Getenv("EVENTDESK_DB"); v != "" {
		c.Storage.DatabasePath = v
	}
	if v := os.Getenv("EVENTDESK_API_KEYS_BACKEND"); v != "" {
		c.Storage.APIKeysBackend = strings.ToLower(v)
	}
	if v := os.Getenv("EVENTDESK_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("EVENTDESK_SEARCH_DEBOUNCE"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Search.Debounce = d
		}
	}
}
