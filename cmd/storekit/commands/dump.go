// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/storekit/cmd/storekit/cli"
	"github.com/bureau-foundation/storekit/lib/cbor"
	"github.com/bureau-foundation/storekit/lib/codec"
)

type dumpOptions struct {
	hexInput bool
	format   string
	diagnose bool
}

func dumpCommand(env *Environment) *cli.Command {
	var options dumpOptions

	return &cli.Command{
		Name:    "dump",
		Summary: "Print each item of a CBOR sequence",
		Description: `Read a CBOR sequence from a file (or stdin) and print one line per item.

The default format is extended diagnostic notation: float sizes and
indefinite lengths are shown as encoded, and identifier tags print as
39(...). With --format hex each item is
printed as the hex of its bytes instead.

With --diagnose, every item is also decoded by the independent
fxamacker/cbor implementation and its notation printed underneath.
The command fails if the two decoders disagree on where an item ends.`,
		Usage: "storekit dump [--hex] [--format diagnostic|hex] [--diagnose] [FILE]",
		Flags: func() *pflag.FlagSet {
			options = dumpOptions{format: env.Config.Dump.Format}
			flagSet := pflag.NewFlagSet("dump", pflag.ContinueOnError)
			flagSet.BoolVarP(&options.hexInput, "hex", "x", false, "treat input as hex-encoded CBOR")
			flagSet.StringVar(&options.format, "format", options.format, "output format: diagnostic or hex")
			flagSet.BoolVar(&options.diagnose, "diagnose", false, "cross-check each item with the reference decoder")
			return flagSet
		},
		Examples: []cli.Example{
			{Description: "Dump a CBOR file", Command: "storekit dump message.cbor"},
			{Description: "Dump hex from a wire capture", Command: "echo 'd8 27 61 78' | storekit dump --hex"},
		},
		Run: func(args []string) error {
			data, err := readInput(env, "dump", args, options.hexInput)
			if err != nil {
				return err
			}
			return dumpItems(env, data, options)
		},
	}
}

func dumpItems(env *Environment, data []byte, options dumpOptions) error {
	if options.format != "diagnostic" && options.format != "hex" {
		return fmt.Errorf("unknown format %q (want diagnostic or hex)", options.format)
	}

	remaining := data
	for index := 0; len(remaining) > 0; index++ {
		offset := len(data) - len(remaining)
		value, rest, err := cbor.UnmarshalFirst(remaining)
		if err != nil {
			return fmt.Errorf("item %d at byte %d: %w", index, offset, err)
		}
		item := remaining[:len(remaining)-len(rest)]

		if options.format == "hex" {
			fmt.Fprintln(env.Stdout, hex.EncodeToString(item))
		} else {
			fmt.Fprintln(env.Stdout, cbor.Diagnose(value))
		}

		if options.diagnose {
			notation, referenceRest, err := codec.DiagnoseFirst(remaining)
			if err != nil {
				fmt.Fprintf(env.Stdout, "  reference: error: %v\n", err)
			} else {
				fmt.Fprintf(env.Stdout, "  reference: %s\n", notation)
				if len(referenceRest) != len(rest) {
					return fmt.Errorf("item %d at byte %d: decoders disagree on its length (%d bytes, reference %d)",
						index, offset, len(item), len(remaining)-len(referenceRest))
				}
			}
		}
		remaining = rest
	}
	env.Logger.Debug("dump complete", "bytes", len(data))
	return nil
}
