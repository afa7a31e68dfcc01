// Package config loads and validates pdffind configuration.
//
// Configuration is resolved in order of increasing priority:
//  1. Built-in defaults
//  2. YAML config file (<user-config-dir>/pdffind/config.yaml)
//  3. Environment variables (PDFFIND_*)
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete pdffind configuration.
type Config struct {
	// DBPath is the SQLite index file location.
	DBPath string `yaml:"db_path"`

	// LogLevel is the minimum log level (debug, info, warn, error).
	LogLevel string `yaml:"log_level"`

	Index  IndexConfig  `yaml:"index"`
	Search SearchConfig `yaml:"search"`
	Watch  WatchConfig  `yaml:"watch"`
}

// IndexConfig configures the indexing pipeline.
type IndexConfig struct {
	// Workers bounds the parallel extraction pool (default: NumCPU).
	Workers int `yaml:"workers"`

	// MinFileSize in bytes; smaller files are treated as likely corrupt.
	MinFileSize int64 `yaml:"min_file_size"`

	// MaxFileSize in bytes; larger files are skipped to bound memory.
	MaxFileSize int64 `yaml:"max_file_size"`
}

// SearchConfig configures result generation.
type SearchConfig struct {
	// HighlightStart/HighlightEnd wrap match spans inside snippets.
	HighlightStart string `yaml:"highlight_start"`
	HighlightEnd   string `yaml:"highlight_end"`

	// Ellipsis marks snippet truncation.
	Ellipsis string `yaml:"ellipsis"`

	// SnippetTokens is the approximate snippet length in tokens.
	SnippetTokens int `yaml:"snippet_tokens"`

	// MaxResults caps the ranked result list.
	MaxResults int `yaml:"max_results"`
}

// WatchConfig configures the folder watcher.
type WatchConfig struct {
	// Debounce is the window for coalescing file events (e.g. "2s").
	Debounce string `yaml:"debounce"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		DBPath:   DefaultDBPath(),
		LogLevel: "info",
		Index: IndexConfig{
			Workers:     runtime.NumCPU(),
			MinFileSize: 100,
			MaxFileSize: 100 * 1024 * 1024,
		},
		Search: SearchConfig{
			HighlightStart: "<mark>",
			HighlightEnd:   "</mark>",
			Ellipsis:       "...",
			SnippetTokens:  64,
			MaxResults:     100,
		},
		Watch: WatchConfig{
			Debounce: "2s",
		},
	}
}

// Load reads the config file at path, merging it over defaults and applying
// environment overrides. A missing file is not an error; defaults are used.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = DefaultConfigPath()
	}
	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("invalid config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv applies PDFFIND_* environment overrides.
func (c *Config) applyEnv() {
	if v := os.Getenv("PDFFIND_DB_PATH"); v != "" {
		c.DBPath = v
	}
	if v := os.Getenv("PDFFIND_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("PDFFIND_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Index.Workers = n
		}
	}
}

// Validate checks configuration invariants.
func (c *Config) Validate() error {
	if c.Index.Workers <= 0 {
		c.Index.Workers = runtime.NumCPU()
	}
	if c.Index.MinFileSize < 0 {
		return fmt.Errorf("index.min_file_size must be >= 0, got %d", c.Index.MinFileSize)
	}
	if c.Index.MaxFileSize <= c.Index.MinFileSize {
		return fmt.Errorf("index.max_file_size (%d) must exceed min_file_size (%d)",
			c.Index.MaxFileSize, c.Index.MinFileSize)
	}
	if c.Search.MaxResults <= 0 {
		return fmt.Errorf("search.max_results must be > 0, got %d", c.Search.MaxResults)
	}
	if c.Search.SnippetTokens <= 0 {
		return fmt.Errorf("search.snippet_tokens must be > 0, got %d", c.Search.SnippetTokens)
	}
	if _, err := time.ParseDuration(c.Watch.Debounce); err != nil {
		return fmt.Errorf("watch.debounce invalid: %w", err)
	}
	return nil
}

// DebounceDuration returns the parsed watch debounce window.
func (c *Config) DebounceDuration() time.Duration {
	d, err := time.ParseDuration(c.Watch.Debounce)
	if err != nil {
		return 2 * time.Second
	}
	return d
}

// DataDir returns the per-user application data directory.
// Falls back to the temp directory when no config dir is available.
func DataDir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		base = os.TempDir()
	}
	return filepath.Join(base, "pdffind")
}

// DefaultDBPath returns the default index database location.
func DefaultDBPath() string {
	return filepath.Join(DataDir(), "index.db")
}

// DefaultConfigPath returns the default config file location.
func DefaultConfigPath() string {
	return filepath.Join(DataDir(), "config.yaml")
}
