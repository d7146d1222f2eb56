// Package config loads reqtrack settings from an optional TOML file with
// REQTRACK_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
)

// Config is the top-level configuration.
type Config struct {
	DBPath string    `toml:"db_path" validate:"required"`
	Author string    `toml:"author,omitempty"`
	Log    LogConfig `toml:"log"`
	// MetricsTextfile, when set, receives a Prometheus text exposition on
	// exit for node_exporter's textfile collector.
	MetricsTextfile string `toml:"metrics_textfile,omitempty"`
}

// LogConfig controls the zerolog logger.
type LogConfig struct {
	Level    string `toml:"level" validate:"oneof=debug info warn error disabled"`
	Pretty   bool   `toml:"pretty"`
	UseCases bool   `toml:"use_cases"` // log one line per service use case
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Dir returns the reqtrack state directory under home.
func Dir(home string) string {
	return filepath.Join(home, ".reqtrack")
}

// DefaultPath returns the default config file location.
func DefaultPath(home string) string {
	return filepath.Join(Dir(home), "config.toml")
}

// DefaultConfig returns a Config with defaults rooted at home.
func DefaultConfig(home string) *Config {
	return &Config{
		DBPath: filepath.Join(Dir(home), "reqtrack.db"),
		Log:    LogConfig{Level: "warn"},
	}
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from r on top of base.
func (m *Manager) Read(r io.Reader, base *Config) (*Config, error) {
	cfg := *base
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Write encodes a Config to w.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// Load builds the effective configuration: defaults, then the file at path
// when it exists, then environment overrides.
func Load(path, home string) (*Config, error) {
	cfg := DefaultConfig(home)

	f, err := os.Open(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("opening config file: %w", err)
	default:
		defer f.Close()
		m := &Manager{}
		if cfg, err = m.Read(f, cfg); err != nil {
			return nil, fmt.Errorf("reading config from %s: %w", path, err)
		}
	}

	applyEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("REQTRACK_DB"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("REQTRACK_AUTHOR"); v != "" {
		cfg.Author = v
	}
	if v := os.Getenv("REQTRACK_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("REQTRACK_LOG_PRETTY"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Log.Pretty = b
		}
	}
	if v := os.Getenv("REQTRACK_LOG_USE_CASES"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Log.UseCases = b
		}
	}
	if v := os.Getenv("REQTRACK_METRICS_TEXTFILE"); v != "" {
		cfg.MetricsTextfile = v
	}
}

// ResolveAuthor picks the author recorded on mutations: the explicit flag,
// then the configured author, then the login name.
func (c *Config) ResolveAuthor(flag string) string {
	if flag != "" {
		return flag
	}
	if c.Author != "" {
		return c.Author
	}
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "unknown"
}

func writeToFile(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init writes cfg to path. It refuses to overwrite an existing file.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
