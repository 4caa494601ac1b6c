// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"unicode"
)

// readInput reads the file named by the single optional argument, or
// stdin when there is none. With hexMode the input is hex text:
// whitespace is stripped and the rest decoded to bytes.
func readInput(env *Environment, command string, args []string, hexMode bool) ([]byte, error) {
	var data []byte
	var err error
	switch len(args) {
	case 0:
		data, err = io.ReadAll(env.Stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
	case 1:
		data, err = os.ReadFile(args[0])
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", args[0], err)
		}
	default:
		return nil, fmt.Errorf("%s takes at most one file argument, got %d", command, len(args))
	}

	if hexMode {
		if data, err = decodeHexInput(data); err != nil {
			return nil, err
		}
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty input")
	}
	return data, nil
}

// decodeHexInput strips whitespace from hex text and decodes it.
// Whitespace between digit pairs is allowed ("a1 63 6b" or "a1636b").
func decodeHexInput(data []byte) ([]byte, error) {
	cleaned := bytes.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, data)
	if len(cleaned) == 0 {
		return nil, fmt.Errorf("empty input after stripping whitespace from hex")
	}

	decoded := make([]byte, hex.DecodedLen(len(cleaned)))
	count, err := hex.Decode(decoded, cleaned)
	if err != nil {
		return nil, fmt.Errorf("decode hex: %w", err)
	}
	return decoded[:count], nil
}

// writeOutput writes data to path, or to stdout when path is empty.
// Binary output to a terminal is refused.
func writeOutput(env *Environment, path string, data []byte) error {
	if path == "" {
		if env.stdoutIsTerminal() {
			return fmt.Errorf("refusing to write binary CBOR to a terminal; use -o FILE or redirect stdout")
		}
		_, err := env.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
