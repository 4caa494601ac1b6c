// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Environment != Development {
		t.Errorf("expected environment=development, got %s", cfg.Environment)
	}

	if cfg.Segment.BlockSize != 65536 {
		t.Errorf("expected block_size=65536, got %d", cfg.Segment.BlockSize)
	}

	if cfg.Segment.Compression != "auto" {
		t.Errorf("expected compression=auto, got %s", cfg.Segment.Compression)
	}

	if cfg.Filter.Kind != "bloom" {
		t.Errorf("expected filter kind=bloom, got %s", cfg.Filter.Kind)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config does not validate: %v", err)
	}
}

func TestLoad_RequiresStorekitConfig(t *testing.T) {
	t.Setenv("STOREKIT_CONFIG", "")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error when STOREKIT_CONFIG not set, got nil")
	}

	expectedMsg := "STOREKIT_CONFIG environment variable not set"
	if !strings.HasPrefix(err.Error(), expectedMsg) {
		t.Errorf("expected error message to start with %q, got %q", expectedMsg, err.Error())
	}
}

func TestLoad_WithStorekitConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "storekit.yaml")

	configContent := `
environment: development
segment:
  block_size: 4096
  compression: zstd
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	t.Setenv("STOREKIT_CONFIG", configPath)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Segment.BlockSize != 4096 {
		t.Errorf("expected block_size=4096, got %d", cfg.Segment.BlockSize)
	}
	if cfg.Segment.Compression != "zstd" {
		t.Errorf("expected compression=zstd, got %s", cfg.Segment.Compression)
	}
	// Unset fields keep their defaults.
	if cfg.Filter.FalsePositiveRate != 0.01 {
		t.Errorf("expected false_positive_rate=0.01, got %v", cfg.Filter.FalsePositiveRate)
	}
}

func TestLoadFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "storekit.yaml")

	configContent := `
environment: development

segment:
  directory: /custom/segments
  compression: lz4

filter:
  kind: none

log:
  level: debug
  format: json

dump:
  format: hex
`

	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if cfg.Segment.Directory != "/custom/segments" {
		t.Errorf("expected directory=/custom/segments, got %s", cfg.Segment.Directory)
	}
	if cfg.Segment.Compression != "lz4" {
		t.Errorf("expected compression=lz4, got %s", cfg.Segment.Compression)
	}
	if cfg.Filter.Kind != "none" {
		t.Errorf("expected filter kind=none, got %s", cfg.Filter.Kind)
	}
	if cfg.Log.Format != "json" {
		t.Errorf("expected log format=json, got %s", cfg.Log.Format)
	}
	if cfg.Dump.Format != "hex" {
		t.Errorf("expected dump format=hex, got %s", cfg.Dump.Format)
	}

	level, err := cfg.Log.SlogLevel()
	if err != nil {
		t.Fatalf("SlogLevel: %v", err)
	}
	if level != slog.LevelDebug {
		t.Errorf("expected level=debug, got %s", level)
	}
}

func TestLoadFileMalformed(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "storekit.yaml")
	if err := os.WriteFile(configPath, []byte("segment: [unclosed"), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	if _, err := LoadFile(configPath); err == nil {
		t.Fatal("expected error for malformed YAML")
	}
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "storekit.yaml")

	configContent := `
environment: production

segment:
  block_size: 8192
  compression: none

production:
  segment:
    compression: zstd
  filter:
    false_positive_rate: 0.001
  log:
    level: error
`

	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if cfg.Segment.Compression != "zstd" {
		t.Errorf("expected compression=zstd from production override, got %s", cfg.Segment.Compression)
	}
	if cfg.Segment.BlockSize != 8192 {
		t.Errorf("expected block_size=8192 from base, got %d", cfg.Segment.BlockSize)
	}
	if cfg.Filter.FalsePositiveRate != 0.001 {
		t.Errorf("expected false_positive_rate=0.001, got %v", cfg.Filter.FalsePositiveRate)
	}
	if cfg.Log.Level != "error" {
		t.Errorf("expected level=error, got %s", cfg.Log.Level)
	}
}

func TestProductionDefaults(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "storekit.yaml")
	if err := os.WriteFile(configPath, []byte("environment: production\n"), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("expected production level=warn, got %s", cfg.Log.Level)
	}
}

func TestDirectoryExpansion(t *testing.T) {
	t.Setenv("HOME", "/home/tester")

	configPath := filepath.Join(t.TempDir(), "storekit.yaml")
	configContent := `
segment:
  directory: ${HOME}/data/${STOREKIT_TEST_SUBDIR:-runs}
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if cfg.Segment.Directory != "/home/tester/data/runs" {
		t.Errorf("expected directory=/home/tester/data/runs, got %s", cfg.Segment.Directory)
	}
	if got := cfg.SegmentPath("a.seg"); got != "/home/tester/data/runs/a.seg" {
		t.Errorf("SegmentPath(a.seg) = %s", got)
	}
	if got := cfg.SegmentPath("/abs/a.seg"); got != "/abs/a.seg" {
		t.Errorf("SegmentPath(/abs/a.seg) = %s", got)
	}
}

func TestExpandVars(t *testing.T) {
	tests := []struct {
		input    string
		vars     map[string]string
		expected string
	}{
		{
			input:    "${HOME}/storekit",
			vars:     map[string]string{"HOME": "/home/user"},
			expected: "/home/user/storekit",
		},
		{
			input:    "${STOREKIT_TEST_MISSING:-default}",
			vars:     map[string]string{},
			expected: "default",
		},
		{
			input:    "${PRESENT:-default}",
			vars:     map[string]string{"PRESENT": "value"},
			expected: "value",
		},
		{
			input:    "${A}/${B}",
			vars:     map[string]string{"A": "first", "B": "second"},
			expected: "first/second",
		},
		{
			input:    "no variables here",
			vars:     map[string]string{},
			expected: "no variables here",
		},
	}

	for _, tt := range tests {
		result := expandVars(tt.input, tt.vars)
		if result != tt.expected {
			t.Errorf("expandVars(%q) = %q, want %q", tt.input, result, tt.expected)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid default config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name: "invalid environment",
			modify: func(c *Config) {
				c.Environment = "staging"
			},
			wantErr: true,
		},
		{
			name: "block size too small",
			modify: func(c *Config) {
				c.Segment.BlockSize = 16
			},
			wantErr: true,
		},
		{
			name: "unknown compression",
			modify: func(c *Config) {
				c.Segment.Compression = "brotli"
			},
			wantErr: true,
		},
		{
			name: "false positive rate out of range",
			modify: func(c *Config) {
				c.Filter.FalsePositiveRate = 1.5
			},
			wantErr: true,
		},
		{
			name: "rate ignored without bloom",
			modify: func(c *Config) {
				c.Filter.Kind = "none"
				c.Filter.FalsePositiveRate = 0
			},
			wantErr: false,
		},
		{
			name: "bad log level",
			modify: func(c *Config) {
				c.Log.Level = "verbose"
			},
			wantErr: true,
		},
		{
			name: "bad dump format",
			modify: func(c *Config) {
				c.Dump.Format = "yaml"
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateReportsEveryProblem(t *testing.T) {
	cfg := Default()
	cfg.Segment.Compression = "brotli"
	cfg.Dump.Format = "yaml"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, field := range []string{"segment.compression", "dump.format"} {
		if !strings.Contains(err.Error(), field) {
			t.Errorf("error %q does not mention %s", err, field)
		}
	}
}

func TestEnsurePaths(t *testing.T) {
	cfg := Default()
	cfg.Segment.Directory = filepath.Join(t.TempDir(), "storekit", "segments")

	if err := cfg.EnsurePaths(); err != nil {
		t.Fatalf("EnsurePaths failed: %v", err)
	}

	info, err := os.Stat(cfg.Segment.Directory)
	if err != nil {
		t.Fatalf("path %s not created: %v", cfg.Segment.Directory, err)
	}
	if !info.IsDir() {
		t.Errorf("path %s is not a directory", cfg.Segment.Directory)
	}
}
