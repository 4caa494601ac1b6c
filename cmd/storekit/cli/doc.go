// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli provides the command-line framework for the storekit
// binary.
//
// The central type is [Command], which represents a named subcommand
// with optional nested [Command.Subcommands], a [pflag.FlagSet]
// factory, and a Run function. The tree is assembled in
// cmd/storekit/commands and dispatched via [Command.Execute], which
// handles flag parsing, subcommand routing, and help output with
// examples.
//
// When a user types an unknown subcommand or flag, the framework
// computes Levenshtein edit distance against the known names and
// suggests the closest match (distance <= 3).
//
// [NewLogger] builds the slog.Logger commands log through, from the
// log section of the storekit configuration.
package cli
