// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"io"
	"log/slog"

	"github.com/bureau-foundation/storekit/cmd/storekit/cli"
	"github.com/bureau-foundation/storekit/lib/config"
)

// Environment is everything a command touches outside its arguments.
type Environment struct {
	Config *config.Config
	Logger *slog.Logger

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// StdoutIsTerminal reports whether Stdout is an interactive
	// terminal. Nil means it is not.
	StdoutIsTerminal func() bool
}

func (env *Environment) stdoutIsTerminal() bool {
	return env.StdoutIsTerminal != nil && env.StdoutIsTerminal()
}

// Root returns the storekit command tree.
func Root(env *Environment) *cli.Command {
	return &cli.Command{
		Name:    "storekit",
		Summary: "Inspect CBOR data and segment files",
		Description: `storekit reads and writes the storekit CBOR profile and the segment
files built on it.

Global flags (before the command):
  --config PATH   configuration file (default: $STOREKIT_CONFIG, else built-in defaults)
  --version       print version information`,
		Output: env.Stderr,
		Subcommands: []*cli.Command{
			dumpCommand(env),
			encodeCommand(env),
			validateCommand(env),
			segmentCommand(env),
		},
		Examples: []cli.Example{
			{
				Description: "Show a CBOR file in diagnostic notation",
				Command:     "storekit dump message.cbor",
			},
			{
				Description: "Convert YAML to CBOR",
				Command:     "storekit encode --from yaml config.yaml -o config.cbor",
			},
			{
				Description: "Build a segment and look up a key",
				Command:     "storekit segment build --input entries.yaml -o data.sks && storekit segment get data.sks alpha",
			},
		},
	}
}
