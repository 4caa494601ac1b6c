// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"bytes"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/bureau-foundation/storekit/lib/config"
)

type testEnvironment struct {
	*Environment
	stdout *bytes.Buffer
	stderr *bytes.Buffer
}

// newTestEnvironment returns an environment with default configuration,
// a temporary segment directory, and captured output.
func newTestEnvironment(t *testing.T, stdin string) *testEnvironment {
	t.Helper()
	cfg := config.Default()
	cfg.Segment.Directory = t.TempDir()
	cfg.Segment.BlockSize = 512

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	return &testEnvironment{
		Environment: &Environment{
			Config: cfg,
			Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
			Stdin:  strings.NewReader(stdin),
			Stdout: stdout,
			Stderr: stderr,
		},
		stdout: stdout,
		stderr: stderr,
	}
}

// run executes the storekit command tree with args.
func (env *testEnvironment) run(args ...string) error {
	return Root(env.Environment).Execute(args)
}
