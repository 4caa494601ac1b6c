// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"slices"

	"gopkg.in/yaml.v3"
)

// Environment represents the deployment environment.
type Environment string

const (
	// Development is for local development machines.
	Development Environment = "development"
	// Production is for production deployments.
	Production Environment = "production"
)

// Config is the master configuration for storekit tools.
type Config struct {
	// Environment identifies the deployment type (development, production).
	Environment Environment `yaml:"environment"`

	// Segment configures segment file writing.
	Segment SegmentConfig `yaml:"segment"`

	// Filter configures the membership filter stored in each segment.
	Filter FilterConfig `yaml:"filter"`

	// Log configures the CLI's structured logger.
	Log LogConfig `yaml:"log"`

	// Dump configures the output of storekit dump.
	Dump DumpConfig `yaml:"dump"`

	// EnvironmentOverrides contains per-environment overrides.
	// These are applied after the base config is loaded.
	Development *ConfigOverrides `yaml:"development,omitempty"`
	Production  *ConfigOverrides `yaml:"production,omitempty"`
}

// ConfigOverrides contains fields that can be overridden per environment.
type ConfigOverrides struct {
	Segment *SegmentConfig `yaml:"segment,omitempty"`
	Filter  *FilterConfig  `yaml:"filter,omitempty"`
	Log     *LogConfig     `yaml:"log,omitempty"`
}

// SegmentConfig configures segment file writing.
type SegmentConfig struct {
	// Directory is where segment files live when a command is given
	// a bare file name rather than a path.
	// Default: ${HOME}/.cache/storekit/segments
	Directory string `yaml:"directory"`

	// BlockSize is the target uncompressed size of one block in bytes.
	// A block is closed once it reaches this size.
	// Default: 65536
	BlockSize int `yaml:"block_size"`

	// Compression selects the block codec.
	// Values: "none", "lz4", "zstd", "auto"
	// Default: auto
	Compression string `yaml:"compression"`
}

// FilterConfig configures the membership filter.
type FilterConfig struct {
	// Kind selects the filter.
	// Values: "bloom", "none"
	// Default: bloom
	Kind string `yaml:"kind"`

	// FalsePositiveRate is the target false positive rate for Bloom
	// filters, in (0, 1).
	// Default: 0.01
	FalsePositiveRate float64 `yaml:"false_positive_rate"`

	// ExpectedEntries sizes the Bloom filter when the entry count is
	// not known up front.
	// Default: 100000
	ExpectedEntries int `yaml:"expected_entries"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is the minimum level logged.
	// Values: "debug", "info", "warn", "error"
	// Default: info (development), warn (production)
	Level string `yaml:"level"`

	// Format selects the slog handler.
	// Values: "text", "json"
	// Default: text
	Format string `yaml:"format"`
}

// DumpConfig configures storekit dump.
type DumpConfig struct {
	// Format selects how items are printed.
	// Values: "diagnostic", "hex"
	// Default: diagnostic
	Format string `yaml:"format"`
}

// Default returns the default configuration.
// These defaults are used as a base before loading the config file.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()

	return &Config{
		Environment: Development,
		Segment: SegmentConfig{
			Directory:   filepath.Join(homeDir, ".cache", "storekit", "segments"),
			BlockSize:   64 << 10,
			Compression: "auto",
		},
		Filter: FilterConfig{
			Kind:              "bloom",
			FalsePositiveRate: 0.01,
			ExpectedEntries:   100000,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Dump: DumpConfig{
			Format: "diagnostic",
		},
	}
}

// Load loads configuration from the STOREKIT_CONFIG environment
// variable. There are no fallbacks: if STOREKIT_CONFIG is not set,
// this fails.
func Load() (*Config, error) {
	configPath := os.Getenv("STOREKIT_CONFIG")
	if configPath == "" {
		return nil, fmt.Errorf("STOREKIT_CONFIG environment variable not set; " +
			"set it to the path of your storekit.yaml config file, or use --config flag")
	}

	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path.
//
// The only expansion performed is ${HOME} and similar path variables
// for portability.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}

	cfg.applyEnvironmentOverrides()
	cfg.expandVariables()

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

// applyEnvironmentOverrides applies the environment-specific overrides.
func (c *Config) applyEnvironmentOverrides() {
	var overrides *ConfigOverrides

	switch c.Environment {
	case Development:
		overrides = c.Development
	case Production:
		overrides = c.Production
		// Production defaults: quieter logs.
		if overrides == nil {
			overrides = &ConfigOverrides{
				Log: &LogConfig{Level: "warn"},
			}
		}
	}

	if overrides == nil {
		return
	}

	if overrides.Segment != nil {
		if overrides.Segment.Directory != "" {
			c.Segment.Directory = overrides.Segment.Directory
		}
		if overrides.Segment.BlockSize != 0 {
			c.Segment.BlockSize = overrides.Segment.BlockSize
		}
		if overrides.Segment.Compression != "" {
			c.Segment.Compression = overrides.Segment.Compression
		}
	}

	if overrides.Filter != nil {
		if overrides.Filter.Kind != "" {
			c.Filter.Kind = overrides.Filter.Kind
		}
		if overrides.Filter.FalsePositiveRate != 0 {
			c.Filter.FalsePositiveRate = overrides.Filter.FalsePositiveRate
		}
		if overrides.Filter.ExpectedEntries != 0 {
			c.Filter.ExpectedEntries = overrides.Filter.ExpectedEntries
		}
	}

	if overrides.Log != nil {
		if overrides.Log.Level != "" {
			c.Log.Level = overrides.Log.Level
		}
		if overrides.Log.Format != "" {
			c.Log.Format = overrides.Log.Format
		}
	}
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in paths.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}
	c.Segment.Directory = expandVars(c.Segment.Directory, vars)
}

// varPattern matches ${VAR} and ${VAR:-default}.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		// Check provided vars first, then environment.
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors. All problems are
// reported together.
func (c *Config) Validate() error {
	var errs []error

	if c.Environment != Development && c.Environment != Production {
		errs = append(errs, fmt.Errorf("invalid environment: %s", c.Environment))
	}

	if c.Segment.BlockSize < 512 || c.Segment.BlockSize > 64<<20 {
		errs = append(errs, fmt.Errorf("segment.block_size must be between 512 and %d, got %d", 64<<20, c.Segment.BlockSize))
	}

	compressionValues := []string{"none", "lz4", "zstd", "auto"}
	if !slices.Contains(compressionValues, c.Segment.Compression) {
		errs = append(errs, fmt.Errorf("segment.compression must be one of: %v", compressionValues))
	}

	filterKinds := []string{"bloom", "none"}
	if !slices.Contains(filterKinds, c.Filter.Kind) {
		errs = append(errs, fmt.Errorf("filter.kind must be one of: %v", filterKinds))
	}
	if c.Filter.Kind == "bloom" {
		if c.Filter.FalsePositiveRate <= 0 || c.Filter.FalsePositiveRate >= 1 {
			errs = append(errs, fmt.Errorf("filter.false_positive_rate must be in (0, 1), got %v", c.Filter.FalsePositiveRate))
		}
		if c.Filter.ExpectedEntries <= 0 {
			errs = append(errs, fmt.Errorf("filter.expected_entries must be positive, got %d", c.Filter.ExpectedEntries))
		}
	}

	if _, err := c.Log.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	logFormats := []string{"text", "json"}
	if !slices.Contains(logFormats, c.Log.Format) {
		errs = append(errs, fmt.Errorf("log.format must be one of: %v", logFormats))
	}

	dumpFormats := []string{"diagnostic", "hex"}
	if !slices.Contains(dumpFormats, c.Dump.Format) {
		errs = append(errs, fmt.Errorf("dump.format must be one of: %v", dumpFormats))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// SlogLevel parses Level.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}

// SegmentPath resolves a segment file name against Segment.Directory.
// Absolute paths are returned unchanged; callers decide which relative
// names count as bare file names.
func (c *Config) SegmentPath(name string) string {
	if filepath.IsAbs(name) || c.Segment.Directory == "" {
		return name
	}
	return filepath.Join(c.Segment.Directory, name)
}

// EnsurePaths creates the segment directory if it doesn't exist.
func (c *Config) EnsurePaths() error {
	if c.Segment.Directory == "" {
		return nil
	}
	if err := os.MkdirAll(c.Segment.Directory, 0755); err != nil {
		return fmt.Errorf("creating %s: %w", c.Segment.Directory, err)
	}
	return nil
}
