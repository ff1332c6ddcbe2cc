// Package config loads the rincon configuration: built-in defaults, an
// optional YAML file, then RINCON_* environment overrides.
package config

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/erazemk/rincon/internal/meta"
	"github.com/erazemk/rincon/internal/price"
)

// DefaultPath is the config file read when none is given.
const DefaultPath = "rincon.yaml"

// Page variants produced by the builder.
const (
	VariantRedirect   = "redirect"
	VariantStandalone = "standalone"
)

// Config is the full configuration.
type Config struct {
	Site     Site     `yaml:"site"`
	Catalog  Catalog  `yaml:"catalog"`
	Build    Build    `yaml:"build"`
	Serve    Serve    `yaml:"serve"`
	Facebook Facebook `yaml:"facebook"`
	Migrate  Migrate  `yaml:"migrate"`
}

// Site holds the values shown on every page.
type Site struct {
	Name         string   `yaml:"name"`
	BaseURL      string   `yaml:"base_url"`
	Locale       string   `yaml:"locale"`
	Currency     string   `yaml:"currency"`
	DefaultImage string   `yaml:"default_image"`
	Defaults     Defaults `yaml:"defaults"`
}

// Defaults are the descriptors used when no book is shown.
type Defaults struct {
	Title              string `yaml:"title"`
	Description        string `yaml:"description"`
	TwitterTitle       string `yaml:"twitter_title"`
	TwitterDescription string `yaml:"twitter_description"`
	DocumentTitle      string `yaml:"document_title"`
}

// Catalog points at the books.json source.
type Catalog struct {
	Source string `yaml:"source"`
	// Timeout bounds fetching a remote source.
	Timeout time.Duration `yaml:"timeout"`
}

// Build configures the static site builder.
type Build struct {
	OutputDir string `yaml:"output_dir"`
	ImagesDir string `yaml:"images_dir"`
	Variant   string `yaml:"variant"`
	Previews  bool   `yaml:"previews"`
	URLsFile  string `yaml:"urls_file"`
}

// Serve configures the HTTP server.
type Serve struct {
	Addr       string `yaml:"addr"`
	DB         string `yaml:"db"`
	Log        string `yaml:"log"`
	SessionKey string `yaml:"session_key"`
	CSRFKey    string `yaml:"csrf_key"`
	Secure     bool   `yaml:"secure"`
}

// Facebook configures share cache warming.
type Facebook struct {
	GraphURL    string        `yaml:"graph_url"`
	AccessToken string        `yaml:"access_token"`
	BatchSize   int           `yaml:"batch_size"`
	Pause       time.Duration `yaml:"pause"`
	Timeout     time.Duration `yaml:"timeout"`
}

// Migrate configures the base64 image migration.
type Migrate struct {
	BackupSuffix string `yaml:"backup_suffix"`
	LogFile      string `yaml:"log_file"`
}

// Default returns the built-in configuration.
func Default() Config {
	site := meta.DefaultSite()
	return Config{
		Site: Site{
			Name:         site.Name,
			BaseURL:      "http://localhost:8080",
			Locale:       "es-CO",
			Currency:     "COP",
			DefaultImage: site.DefaultImage,
			Defaults: Defaults{
				Title:              site.Title,
				Description:        site.Description,
				TwitterTitle:       site.TwitterTitle,
				TwitterDescription: site.TwitterDescription,
				DocumentTitle:      site.DocumentTitle,
			},
		},
		Catalog: Catalog{Source: "books.json", Timeout: 15 * time.Second},
		Build: Build{
			OutputDir: "public",
			ImagesDir: "images",
			Variant:   VariantRedirect,
			URLsFile:  "urls-facebook.txt",
		},
		Serve: Serve{
			Addr: ":8080",
			DB:   "rincon.sqlite3",
		},
		Facebook: Facebook{
			GraphURL:  "https://graph.facebook.com/",
			BatchSize: 3,
			Pause:     2 * time.Second,
			Timeout:   15 * time.Second,
		},
		Migrate: Migrate{
			BackupSuffix: ".backup",
			LogFile:      "migracion-log.txt",
		},
	}
}

// Load reads path over the defaults and applies environment overrides. A
// missing file is not an error when path is DefaultPath or empty.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != "" && path != DefaultPath
	if path == "" {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
		slog.Info("no config file, using defaults", "path", path)
	default:
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg.applyEnv()
	return &cfg, nil
}

func (c *Config) applyEnv() {
	c.Site.BaseURL = getEnv("RINCON_BASE_URL", c.Site.BaseURL)
	c.Catalog.Source = getEnv("RINCON_CATALOG", c.Catalog.Source)
	c.Build.OutputDir = getEnv("RINCON_OUTPUT_DIR", c.Build.OutputDir)
	c.Build.Variant = getEnv("RINCON_VARIANT", c.Build.Variant)
	c.Serve.Addr = getEnv("RINCON_ADDR", c.Serve.Addr)
	c.Serve.DB = getEnv("RINCON_DB", c.Serve.DB)
	c.Serve.SessionKey = getEnv("RINCON_SESSION_KEY", c.Serve.SessionKey)
	c.Serve.CSRFKey = getEnv("RINCON_CSRF_KEY", c.Serve.CSRFKey)
	c.Facebook.AccessToken = getEnv("RINCON_FACEBOOK_TOKEN", c.Facebook.AccessToken)
	if v, ok := os.LookupEnv("RINCON_COOKIE_SECURE"); ok {
		c.Serve.Secure, _ = strconv.ParseBool(v)
	}
}

// Validate checks the fields every command relies on.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Site.BaseURL) == "" {
		return errors.New("site.base_url is required")
	}
	if !strings.HasPrefix(c.Site.BaseURL, "http://") && !strings.HasPrefix(c.Site.BaseURL, "https://") {
		return fmt.Errorf("site.base_url must be an http(s) URL, got %q", c.Site.BaseURL)
	}
	if c.Build.Variant != VariantRedirect && c.Build.Variant != VariantStandalone {
		return fmt.Errorf("build.variant must be %q or %q, got %q", VariantRedirect, VariantStandalone, c.Build.Variant)
	}
	if strings.TrimSpace(c.Catalog.Source) == "" {
		return errors.New("catalog.source is required")
	}
	if c.Facebook.BatchSize < 1 {
		return fmt.Errorf("facebook.batch_size must be at least 1, got %d", c.Facebook.BatchSize)
	}
	if c.Facebook.Pause < 0 {
		return errors.New("facebook.pause must not be negative")
	}
	if _, err := price.New(c.Site.Locale, c.Site.Currency); err != nil {
		return err
	}
	return nil
}

// MetaSite returns the site values the descriptors are built from.
func (c *Config) MetaSite() meta.Site {
	return meta.Site{
		Name:               c.Site.Name,
		BaseURL:            c.Site.BaseURL,
		DefaultImage:       c.Site.DefaultImage,
		Title:              c.Site.Defaults.Title,
		Description:        c.Site.Defaults.Description,
		TwitterTitle:       c.Site.Defaults.TwitterTitle,
		TwitterDescription: c.Site.Defaults.TwitterDescription,
		DocumentTitle:      c.Site.Defaults.DocumentTitle,
	}
}

// Prices returns the configured price formatter.
func (c *Config) Prices() *price.Formatter {
	f, err := price.New(c.Site.Locale, c.Site.Currency)
	if err != nil {
		slog.Warn("invalid locale or currency, using defaults", "error", err)
		return price.Default()
	}
	return f
}

// SessionKeyBytes decodes the session key, generating a random one when it
// is unset or invalid.
func (c *Config) SessionKeyBytes() []byte {
	return decodeKey("session_key", c.Serve.SessionKey)
}

// CSRFKeyBytes decodes the CSRF key, generating a random one when it is
// unset or invalid.
func (c *Config) CSRFKeyBytes() []byte {
	return decodeKey("csrf_key", c.Serve.CSRFKey)
}

func decodeKey(name, value string) []byte {
	if value == "" {
		slog.Warn("key not set, generating a random one; it changes on every restart", "key", name)
		return randomKey()
	}
	key, err := base64.StdEncoding.DecodeString(value)
	if err != nil || len(key) < 32 {
		slog.Warn("key is invalid or shorter than 32 bytes, generating a random one", "key", name)
		return randomKey()
	}
	return key
}

func randomKey() []byte {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("reading random bytes: %v", err))
	}
	return b
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
