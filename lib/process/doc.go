// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package process provides binary entrypoint helpers for storekit
// binaries. It covers the raw I/O that happens before the structured
// logger exists or after main has given up:
//
//   - Fatal error reporting to stderr.
//   - Exit with the code an error asks for.
package process
