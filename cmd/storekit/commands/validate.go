// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"bytes"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/storekit/cmd/storekit/cli"
	"github.com/bureau-foundation/storekit/lib/cbor"
)

func validateCommand(env *Environment) *cli.Command {
	var hexInput bool

	return &cli.Command{
		Name:    "validate",
		Summary: "Check that CBOR is canonical storekit encoding",
		Description: `Read a CBOR sequence and check that every item is in canonical
storekit form:

  - every head uses the minimal width for its argument
  - no indefinite-length strings, arrays or maps
  - map keys strictly increasing in key order (no duplicates)

Prints "valid" and exits 0, or reports the first violation and exits 1.
Output of "storekit encode" is always canonical.`,
		Usage: "storekit validate [--hex] [FILE]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("validate", pflag.ContinueOnError)
			flagSet.BoolVarP(&hexInput, "hex", "x", false, "treat input as hex-encoded CBOR")
			return flagSet
		},
		Examples: []cli.Example{
			{Description: "Validate encoder output", Command: `echo '{"b":1,"a":2}' | storekit encode | storekit validate`},
		},
		Run: func(args []string) error {
			data, err := readInput(env, "validate", args, hexInput)
			if err != nil {
				return err
			}
			count, err := validateItems(data)
			if err != nil {
				return err
			}
			fmt.Fprintf(env.Stdout, "valid: %d item(s)\n", count)
			return nil
		},
	}
}

// validateItems checks every item in data and returns how many there
// were.
func validateItems(data []byte) (int, error) {
	remaining := data
	count := 0
	for len(remaining) > 0 {
		offset := len(data) - len(remaining)
		value, rest, err := cbor.UnmarshalFirst(remaining)
		if err != nil {
			return count, fmt.Errorf("item %d at byte %d: %w", count, offset, err)
		}
		if err := checkCanonical(value, "$"); err != nil {
			return count, fmt.Errorf("item %d at byte %d: not canonical: %w", count, offset, err)
		}

		item := remaining[:len(remaining)-len(rest)]
		reencoded, err := cbor.Marshal(value)
		if err != nil {
			return count, fmt.Errorf("item %d: re-encode: %w", count, err)
		}
		if !bytes.Equal(item, reencoded) {
			return count, fmt.Errorf("item %d at byte %d: not canonical: first non-minimal head at byte %d",
				count, offset, offset+firstDifference(item, reencoded))
		}

		remaining = rest
		count++
	}
	return count, nil
}

// checkCanonical reports indefinite lengths and unsorted maps; path
// names the offending position.
func checkCanonical(v cbor.Value, path string) error {
	switch v := v.(type) {
	case cbor.Bytes:
		if v.Info == cbor.InfoIndefinite {
			return fmt.Errorf("%s: indefinite-length byte string", path)
		}
	case cbor.Text:
		if v.Info == cbor.InfoIndefinite {
			return fmt.Errorf("%s: indefinite-length text string", path)
		}
	case cbor.Array:
		if v.Info == cbor.InfoIndefinite {
			return fmt.Errorf("%s: indefinite-length array", path)
		}
		for index, item := range v.Items {
			if err := checkCanonical(item, fmt.Sprintf("%s[%d]", path, index)); err != nil {
				return err
			}
		}
	case cbor.Map:
		if v.Info == cbor.InfoIndefinite {
			return fmt.Errorf("%s: indefinite-length map", path)
		}
		for index, pair := range v.Pairs {
			if index > 0 && v.Pairs[index-1].Key.Compare(pair.Key) >= 0 {
				return fmt.Errorf("%s: key %s does not follow %s", path, pair.Key, v.Pairs[index-1].Key)
			}
			if err := checkCanonical(pair.Value, fmt.Sprintf("%s[%s]", path, pair.Key)); err != nil {
				return err
			}
		}
	case cbor.Tagged:
		if v.Tag.IsIdentifier() {
			return checkCanonical(v.Tag.Payload(), path+".id")
		}
	}
	return nil
}

func firstDifference(a, b []byte) int {
	limit := min(len(a), len(b))
	for i := range limit {
		if a[i] != b[i] {
			return i
		}
	}
	return limit
}
