// Package config implements paren configuration loading.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// File names searched by Load.
const (
	ProjectFile = ".paren.yaml"
	UserDir     = ".paren"
	UserFile    = "config.yaml"
)

// Allowed policy values.
const (
	UnknownIgnore = "ignore"
	UnknownWarn   = "warn"
	UnknownError  = "error"

	ArityStrict  = "strict"
	ArityLenient = "lenient"
)

// Config holds interpreter settings.
type Config struct {
	UnknownOperator string `yaml:"unknownOperator"`
	Arity           string `yaml:"arity"`
	MaxSteps        int64  `yaml:"maxSteps"`
	TimeMs          int64  `yaml:"timeMs"`
	TabWidth        int    `yaml:"tabWidth"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		UnknownOperator: UnknownIgnore,
		Arity:           ArityStrict,
	}
}

// Load reads configuration from project and user config files.
// Precedence: project (.paren.yaml) → user (~/.paren/config.yaml) → defaults.
// It returns the path the settings came from, or "" for the defaults.
func Load(projectDir string) (*Config, string, error) {
	// Try project config
	projectPath := filepath.Join(projectDir, ProjectFile)
	if cfg, err := loadFile(projectPath); !errors.Is(err, fs.ErrNotExist) {
		return cfg, projectPath, err
	}

	// Try user config
	homeDir, err := os.UserHomeDir()
	if err == nil {
		userPath := filepath.Join(homeDir, UserDir, UserFile)
		if cfg, err := loadFile(userPath); !errors.Is(err, fs.ErrNotExist) {
			return cfg, userPath, err
		}
	}

	return Default(), "", nil
}

// LoadFile reads a single config file. Unset fields keep their defaults.
func LoadFile(path string) (*Config, error) {
	return loadFile(path)
}

func loadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes YAML config data on top of the defaults and validates it.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field values.
func (c *Config) Validate() error {
	switch c.UnknownOperator {
	case UnknownIgnore, UnknownWarn, UnknownError:
	default:
		return fmt.Errorf("config: unknownOperator must be ignore, warn or error, got %q", c.UnknownOperator)
	}
	switch c.Arity {
	case ArityStrict, ArityLenient:
	default:
		return fmt.Errorf("config: arity must be strict or lenient, got %q", c.Arity)
	}
	if c.MaxSteps < 0 {
		return fmt.Errorf("config: maxSteps must not be negative, got %d", c.MaxSteps)
	}
	if c.TimeMs < 0 {
		return fmt.Errorf("config: timeMs must not be negative, got %d", c.TimeMs)
	}
	if c.TabWidth < 0 {
		return fmt.Errorf("config: tabWidth must not be negative, got %d", c.TabWidth)
	}
	return nil
}

// Indent returns the indentation unit used by the formatter.
func (c *Config) Indent() string {
	if c.TabWidth == 0 {
		return "\t"
	}
	return strings.Repeat(" ", c.TabWidth)
}

// YAML renders the configuration.
func (c *Config) YAML() (string, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
