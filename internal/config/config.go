package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/homebardev/homebar/internal/sheet"
)

const FileName = "config.yaml"

//go:embed data/defaults.yaml
var defaultsYAML []byte

type Config struct {
	DrinksPath string        `yaml:"drinks_path"`
	Store      StoreConfig   `yaml:"store"`
	Persist    PersistConfig `yaml:"persist"`
	Sync       SyncConfig    `yaml:"sync"`
	Server     ServerConfig  `yaml:"server"`
	Log        LogConfig     `yaml:"log"`

	// Source is the user config file that was merged, empty when none was.
	Source string `yaml:"-"`
}

type StoreConfig struct {
	Backend      string        `yaml:"backend"`
	Path         string        `yaml:"path"`
	Worksheet    string        `yaml:"worksheet"`
	URL          string        `yaml:"url"`
	CacheTTL     time.Duration `yaml:"cache_ttl"`
	WriteRetries int           `yaml:"write_retries"`
	RetryBackoff time.Duration `yaml:"retry_backoff"`
}

// PersistConfig selects which mutations write the user state back right away.
type PersistConfig struct {
	Favorites   bool `yaml:"favorites"`
	Inventory   bool `yaml:"inventory"`
	Ingredients bool `yaml:"ingredients"`
}

type SyncConfig struct {
	APIURL            string        `yaml:"api_url"`
	Concurrency       int           `yaml:"concurrency"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Timeout           time.Duration `yaml:"timeout"`
}

type ServerConfig struct {
	Addr        string   `yaml:"addr"`
	RateLimit   float64  `yaml:"rate_limit"`
	RateBurst   int      `yaml:"rate_burst"`
	CORSOrigins []string `yaml:"cors_origins"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	Path  string `yaml:"path"`
}

// StoreOptions converts the store section for sheet.Open.
func (c *Config) StoreOptions() sheet.Options {
	return sheet.Options{
		Backend:   c.Store.Backend,
		Path:      c.Store.Path,
		Worksheet: c.Store.Worksheet,
		URL:       c.Store.URL,
		CacheTTL:  c.Store.CacheTTL,
	}
}

// Dir returns the homebar directory, ~/.homebar unless HOMEBAR_HOME is set.
func Dir() string {
	if dir := os.Getenv("HOMEBAR_HOME"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".homebar"
	}
	return filepath.Join(home, ".homebar")
}

func DefaultPath() string {
	return filepath.Join(Dir(), FileName)
}

// Defaults returns the embedded configuration with paths expanded.
func Defaults() (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(defaultsYAML, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse built-in defaults: %w", err)
	}
	cfg.expandPaths()
	return &cfg, nil
}

// Load builds the effective configuration: embedded defaults, then the YAML
// file at path (DefaultPath when empty; a missing default file is fine), then
// a .env file in the working directory, then HOMEBAR_* environment variables.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(defaultsYAML, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse built-in defaults: %w", err)
	}

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		cfg.Source = path
	case os.IsNotExist(err) && !explicit:
	case os.IsNotExist(err):
		return nil, fmt.Errorf("config file not found: %s", path)
	default:
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	// .env is optional; variables already set in the environment win.
	_ = godotenv.Load()

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.expandPaths()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) applyEnv() error {
	strVars := map[string]*string{
		"HOMEBAR_DRINKS_PATH":   &c.DrinksPath,
		"HOMEBAR_STORE_BACKEND": &c.Store.Backend,
		"HOMEBAR_STORE_PATH":    &c.Store.Path,
		"HOMEBAR_STORE_URL":     &c.Store.URL,
		"HOMEBAR_API_URL":       &c.Sync.APIURL,
		"HOMEBAR_SERVER_ADDR":   &c.Server.Addr,
		"HOMEBAR_LOG_LEVEL":     &c.Log.Level,
		"HOMEBAR_LOG_PATH":      &c.Log.Path,
	}
	for name, dst := range strVars {
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}

	if v := os.Getenv("HOMEBAR_STORE_CACHE_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid HOMEBAR_STORE_CACHE_TTL %q: %w", v, err)
		}
		c.Store.CacheTTL = d
	}
	if v := os.Getenv("HOMEBAR_STORE_WRITE_RETRIES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid HOMEBAR_STORE_WRITE_RETRIES %q: %w", v, err)
		}
		c.Store.WriteRetries = n
	}
	return nil
}

func (c *Config) expandPaths() {
	dir := Dir()
	c.DrinksPath = resolvePath(dir, c.DrinksPath)
	c.Store.Path = resolvePath(dir, c.Store.Path)
	c.Log.Path = resolvePath(dir, c.Log.Path)
}

func resolvePath(dir, path string) string {
	if path == "" {
		return ""
	}
	path = ExpandHome(path)
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// Validate checks backend names and the fields each backend requires.
func (c *Config) Validate() error {
	if c.DrinksPath == "" {
		return fmt.Errorf("drinks_path is required")
	}

	switch c.Store.Backend {
	case sheet.BackendXLSX:
		if c.Store.Path == "" {
			return fmt.Errorf("store.path is required for the xlsx backend")
		}
		if ext := strings.ToLower(filepath.Ext(c.Store.Path)); ext != ".xlsx" {
			return fmt.Errorf("store.path must end in .xlsx, got %q", filepath.Base(c.Store.Path))
		}
	case sheet.BackendJSON, sheet.BackendSQLite:
		if c.Store.Path == "" {
			return fmt.Errorf("store.path is required for the %s backend", c.Store.Backend)
		}
	case sheet.BackendHTTP:
		if c.Store.URL == "" {
			return fmt.Errorf("store.url is required for the http backend")
		}
		if !IsAllowedAPIURL(c.Store.URL) {
			return fmt.Errorf("store.url must use https or target localhost: %s", c.Store.URL)
		}
	default:
		return fmt.Errorf("unknown store backend %q (valid: %s)", c.Store.Backend, strings.Join(sheet.Backends, ", "))
	}

	if c.Store.WriteRetries < 0 {
		return fmt.Errorf("store.write_retries must not be negative")
	}
	if c.Store.CacheTTL < 0 {
		return fmt.Errorf("store.cache_ttl must not be negative")
	}

	if !IsAllowedAPIURL(c.Sync.APIURL) {
		return fmt.Errorf("sync.api_url must use https or target localhost: %s", c.Sync.APIURL)
	}
	if c.Sync.Concurrency < 1 {
		return fmt.Errorf("sync.concurrency must be at least 1")
	}
	if c.Sync.RequestsPerSecond <= 0 {
		return fmt.Errorf("sync.requests_per_second must be positive")
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q (valid: debug, info, warn, error)", c.Log.Level)
	}
	return nil
}

// Save writes the config as YAML, creating the directory when needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
