// Package config loads scorekit configuration from
// <workspace>/.scorekit/config.yaml with environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all scorekit configuration.
type Config struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	Corpus   CorpusConfig   `yaml:"corpus"`
	Analysis AnalysisConfig `yaml:"analysis"`
	Braille  BrailleConfig  `yaml:"braille"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// CorpusConfig configures corpus indexing and watching.
type CorpusConfig struct {
	// SQLite metadata index, relative paths resolve against the workspace.
	DatabasePath string `yaml:"database_path"`

	// Parallel extraction workers.
	Workers int `yaml:"workers"`

	// Debounce window for the filesystem watcher.
	WatchDebounce string `yaml:"watch_debounce"`

	// File extensions treated as scores.
	Extensions []string `yaml:"extensions"`
}

// AnalysisConfig configures voice-leading checks.
type AnalysisConfig struct {
	// Maximum spacing in semitones between adjacent upper voices.
	MaxSpacingSemis int `yaml:"max_spacing_semis"`
}

// BrailleConfig configures transcription output.
type BrailleConfig struct {
	// Cells per output line.
	LineWidth int `yaml:"line_width"`
}

// LoggingConfig configures categorized file logging.
type LoggingConfig struct {
	DebugMode  bool            `yaml:"debug_mode"`
	Level      string          `yaml:"level"` // debug, info, warn, error
	Categories map[string]bool `yaml:"categories"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "scorekit",
		Version: "0.3.0",

		Corpus: CorpusConfig{
			DatabasePath:  filepath.Join(".scorekit", "corpus.db"),
			Workers:       8,
			WatchDebounce: "500ms",
			Extensions:    []string{".xml", ".musicxml", ".mxl"},
		},

		Analysis: AnalysisConfig{
			MaxSpacingSemis: 12,
		},

		Braille: BrailleConfig{
			LineWidth: 32,
		},

		Logging: LoggingConfig{
			DebugMode: false,
			Level:     "info",
		},
	}
}

// Path returns the config file location for a workspace.
func Path(workspace string) string {
	return filepath.Join(workspace, ".scorekit", "config.yaml")
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies SCOREKIT_* environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if path := os.Getenv("SCOREKIT_DB"); path != "" {
		c.Corpus.DatabasePath = path
	}
	if v := os.Getenv("SCOREKIT_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Corpus.Workers = n
		}
	}
	if v := os.Getenv("SCOREKIT_DEBUG"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Logging.DebugMode = b
		}
	}
	if v := os.Getenv("SCOREKIT_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// DatabasePath resolves the index path against the workspace.
func (c *Config) DatabasePath(workspace string) string {
	if filepath.IsAbs(c.Corpus.DatabasePath) {
		return c.Corpus.DatabasePath
	}
	return filepath.Join(workspace, c.Corpus.DatabasePath)
}

// WatchDebounce returns the watcher debounce window as a duration.
func (c *Config) WatchDebounce() time.Duration {
	d, err := time.ParseDuration(c.Corpus.WatchDebounce)
	if err != nil || d <= 0 {
		return 500 * time.Millisecond
	}
	return d
}
