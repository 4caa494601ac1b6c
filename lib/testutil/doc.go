// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for storekit packages.
//
// [RequireReceive], [RequireSend], and [RequireClosed] encapsulate the
// timeout safety valve pattern (select with time.After fallback) so
// that worker tests do not need direct time.After calls. These are the
// only place in the test suite where real wall-clock timeouts are used.
//
// [WriteFile] and [ReadFile] wrap file fixtures for segment and CLI
// tests, and [UniqueID] generates monotonically increasing names for
// fixtures that share a directory.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
//
// This package has no storekit-internal dependencies.
package testutil
