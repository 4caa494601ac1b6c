// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"io"
	"log/slog"

	"github.com/bureau-foundation/storekit/lib/config"
)

// NewLogger creates the structured logger for a storekit run, writing
// to w with the level and format from the log configuration. The
// configuration is expected to have passed Validate; an unparseable
// level falls back to info.
//
// Callers scope it with command-specific context via With():
//
//	logger := cli.NewLogger(os.Stderr, cfg.Log).With("command", "segment/build")
func NewLogger(w io.Writer, cfg config.LogConfig) *slog.Logger {
	level, err := cfg.SlogLevel()
	if err != nil {
		level = slog.LevelInfo
	}
	options := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, options))
	}
	return slog.New(slog.NewTextHandler(w, options))
}
