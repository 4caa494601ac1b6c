// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands assembles the storekit command tree.
//
// Subcommands:
//
//   - dump: print each item of a CBOR sequence in diagnostic notation
//     or hex, optionally cross-checked against the fxamacker decoder.
//   - encode: convert JSON, JSONC or YAML to canonical storekit CBOR.
//   - validate: check that input is canonical storekit CBOR.
//   - segment build, get, verify: write and query segment files.
//
// Commands read from a file argument or stdin and write through an
// [Environment], so tests drive them with buffers.
package commands
