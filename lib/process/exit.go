// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// ExitCoder is implemented by errors that carry their own exit code.
// Such errors have already reported themselves, so Exit prints nothing
// for them.
type ExitCoder interface {
	ExitCode() int
}

// Fatal reports err to stderr and exits. Use it in main() for errors
// where the structured logger may not be initialized.
func Fatal(err error) {
	os.Exit(Report(os.Stderr, err))
}

// Report writes err to w unless it carries an exit code, and returns
// the process exit code for it: 0 for nil, the carried code for an
// ExitCoder, 1 otherwise.
func Report(w io.Writer, err error) int {
	if err == nil {
		return 0
	}
	var coder ExitCoder
	if errors.As(err, &coder) {
		return coder.ExitCode()
	}
	fmt.Fprintf(w, "error: %v\n", err)
	return 1
}
