// Package config handles layered YAML configuration with environment overrides.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds all rolodex configuration.
type Config struct {
	Database Database `yaml:"database"`
	Logging  Logging  `yaml:"logging"`
	List     List     `yaml:"list"`
}

// Database holds persistence settings.
type Database struct {
	Path string `yaml:"path"` // file path or sqlite:// connection string
}

// Logging holds log output settings.
type Logging struct {
	File   string `yaml:"file"`   // "" = stderr, "-" = stdout, else append to file
	Level  string `yaml:"level"`  // "debug" | "info" | "warn" | "error"
	Format string `yaml:"format"` // "text" | "json"
}

// List holds pagination defaults for listing contacts.
type List struct {
	PerPage int `yaml:"per_page"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Database: Database{
			Path: "contacts.db",
		},
		Logging: Logging{
			Level:  "info",
			Format: "text",
		},
		List: List{
			PerPage: 10,
		},
	}
}

// Load reads a single YAML config file at path and returns a Config.
// For merging multiple config sources, use LoadLayered instead.
// If the file does not exist, defaults are returned without error.
// If the file contains invalid YAML or unknown fields, an error is returned.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &cfg, nil
		}
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	if len(data) == 0 {
		return &cfg, nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		// Comment-only YAML files produce EOF with no decoded content.
		if errors.Is(err, io.EOF) {
			return &cfg, nil
		}
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	return &cfg, nil
}

// LoadLayered loads config from multiple paths with increasing priority.
// Later paths override earlier ones. Missing files are skipped.
func LoadLayered(paths ...string) (*Config, error) {
	cfg := DefaultConfig()

	for _, path := range paths {
		layer, err := loadLayer(path)
		if err != nil {
			return nil, err
		}
		if layer == nil {
			continue
		}
		cfg.merge(layer)
	}

	return &cfg, nil
}

// Validate checks that config values are usable.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return errors.New("config: database.path cannot be empty")
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
		// valid
	default:
		return fmt.Errorf("config: logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "", "text", "json":
		// valid
	default:
		return fmt.Errorf("config: logging.format must be \"text\" or \"json\", got %q", c.Logging.Format)
	}
	if c.List.PerPage < 1 {
		return fmt.Errorf("config: list.per_page must be at least 1, got %d", c.List.PerPage)
	}
	return nil
}

// ApplyEnv applies environment variable overrides to the config.
// Supported variables: ROLODEX_DB, ROLODEX_LOG_FILE, ROLODEX_LOG_LEVEL,
// ROLODEX_LOG_FORMAT.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("ROLODEX_DB"); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv("ROLODEX_LOG_FILE"); v != "" {
		c.Logging.File = v
	}
	if v := os.Getenv("ROLODEX_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("ROLODEX_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
}

// rawConfig mirrors Config but uses pointers to distinguish set vs unset fields.
type rawConfig struct {
	Database *rawDatabase `yaml:"database"`
	Logging  *rawLogging  `yaml:"logging"`
	List     *rawList     `yaml:"list"`
}

type rawDatabase struct {
	Path *string `yaml:"path"`
}

type rawLogging struct {
	File   *string `yaml:"file"`
	Level  *string `yaml:"level"`
	Format *string `yaml:"format"`
}

type rawList struct {
	PerPage *int `yaml:"per_page"`
}

// loadLayer reads a single config file into a rawConfig for selective merging.
// Returns nil if the file does not exist. Rejects unknown fields.
func loadLayer(path string) (*rawConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	if len(data) == 0 {
		return nil, nil
	}

	var raw rawConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	return &raw, nil
}

// merge applies non-nil fields from a rawConfig layer onto this Config.
func (c *Config) merge(layer *rawConfig) {
	if layer.Database != nil {
		if layer.Database.Path != nil {
			c.Database.Path = *layer.Database.Path
		}
	}
	if layer.Logging != nil {
		if layer.Logging.File != nil {
			c.Logging.File = *layer.Logging.File
		}
		if layer.Logging.Level != nil {
			c.Logging.Level = *layer.Logging.Level
		}
		if layer.Logging.Format != nil {
			c.Logging.Format = *layer.Logging.Format
		}
	}
	if layer.List != nil {
		if layer.List.PerPage != nil {
			c.List.PerPage = *layer.List.PerPage
		}
	}
}
