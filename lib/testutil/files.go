// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"os"
	"path/filepath"
)

// WriteFile writes data to name inside directory and returns the full
// path.
//
//	input := testutil.WriteFile(t, t.TempDir(), "entries.yaml", []byte(document))
func WriteFile(t interface {
	Helper()
	Fatalf(format string, args ...any)
}, directory, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(directory, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("writing fixture %s: %v", path, err)
	}
	return path
}

// ReadFile returns the contents of path, failing the test if it
// cannot be read.
func ReadFile(t interface {
	Helper()
	Fatalf(format string, args ...any)
}, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return data
}
