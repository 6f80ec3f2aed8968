// Package config loads the deckforge YAML configuration and persists the
// user's search settings between runs.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"

	"deckforge/internal/domain"
)

// Config is the application configuration, read from deckforge.yaml.
// Command-line flags override individual fields, so validation runs after
// the merge, not at load time.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Log     LogConfig     `yaml:"log"`
	Project ProjectConfig `yaml:"project"`
	Import  ImportConfig  `yaml:"import"`
}

// Validate validates the merged configuration.
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return err
	}
	if err := c.Log.Validate(); err != nil {
		return err
	}
	return c.Import.Validate()
}

// ServerConfig names the card search backend.
type ServerConfig struct {
	URL string `yaml:"url"`
}

// Validate validates the server configuration.
func (c *ServerConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.URL, validation.Required, validation.By(validBaseURL)),
	)
}

func validBaseURL(value interface{}) error {
	raw, _ := value.(string)
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("not a URL: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("must be an http(s) URL with a host, got %q", raw)
	}
	return nil
}

// LogConfig controls the log file location and verbosity.
type LogConfig struct {
	File  string `yaml:"file"`  // empty means the default state-dir location
	Level string `yaml:"level"` // debug, info, warn, error
}

// Validate validates the log configuration.
func (c *LogConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Level, validation.Required, validation.In("debug", "info", "warn", "error")),
	)
}

// ProjectConfig controls local project persistence.
type ProjectConfig struct {
	// DataDir holds projects.db; empty means the user data dir.
	DataDir string `yaml:"data_dir"`
	// AutosaveOnExit saves the working project when the app quits.
	AutosaveOnExit bool `yaml:"autosave_on_exit"`
}

// DatabasePath returns the SQLite file the project store persists to.
func (c ProjectConfig) DatabasePath() string {
	dir := c.DataDir
	if dir == "" {
		dir = DefaultDataDir()
	}
	return filepath.Join(dir, "projects.db")
}

// ImportConfig bounds decklist imports.
type ImportConfig struct {
	// MaxCards caps a single import batch. The project size cap still
	// applies on top.
	MaxCards int `yaml:"max_cards"`
}

// Validate validates the import configuration.
func (c *ImportConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.MaxCards, validation.Required, validation.Min(1), validation.Max(domain.MaxProjectSize)),
	)
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Log:     LogConfig{Level: "info"},
		Project: ProjectConfig{AutosaveOnExit: true},
		Import:  ImportConfig{MaxCards: domain.MaxProjectSize},
	}
}

// Load reads the YAML file at path, expands environment variables, and
// layers it over Default.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadOrDefault is Load, except a missing file yields Default.
func LoadOrDefault(path string) (Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return Load(path)
}

// DefaultPath returns the default config file location,
// ~/.config/deckforge/deckforge.yaml or the platform equivalent.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "deckforge.yaml"
	}
	return filepath.Join(dir, "deckforge", "deckforge.yaml")
}

// DefaultStatePath returns the default location of the persisted
// search-settings file.
func DefaultStatePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "settings.toml"
	}
	return filepath.Join(dir, "deckforge", "settings.toml")
}

// DefaultDataDir returns the default directory for local project data,
// $XDG_DATA_HOME/deckforge or the home equivalent.
func DefaultDataDir() string {
	dir := os.Getenv("XDG_DATA_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "."
		}
		dir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dir, "deckforge")
}
