// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for storekit
// tools.
//
// Configuration is loaded from a single file specified by either the
// STOREKIT_CONFIG environment variable (via [Load]) or a --config flag
// (via [LoadFile]). There are no fallbacks and no automatic file
// search. Commands that run without a config file use [Default].
//
// The file supports environment-specific sections (development,
// production) that override base values when [Config].Environment
// matches. Production defaults to warn-level logging.
//
// ${HOME} and ${VAR:-default} patterns in the segment directory are
// expanded after loading. No other environment variables override
// config values.
//
// Key exports:
//
//   - [Config] -- master struct with Segment, Filter, Log, Dump
//   - [Default] -- returns a Config with development defaults
//   - [Load] and [LoadFile] -- the two entry points for loading
//
// This package depends on no other storekit packages.
package config
