// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/bureau-foundation/storekit/cmd/storekit/cli"
	"github.com/bureau-foundation/storekit/cmd/storekit/commands"
	"github.com/bureau-foundation/storekit/lib/config"
	"github.com/bureau-foundation/storekit/lib/process"
	"github.com/bureau-foundation/storekit/lib/version"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		process.Fatal(err)
	}
}

func run(args []string) error {
	var (
		configPath  string
		showVersion bool
	)
	flagSet := pflag.NewFlagSet("storekit", pflag.ContinueOnError)
	flagSet.SetInterspersed(false)
	flagSet.SetOutput(io.Discard)
	flagSet.StringVar(&configPath, "config", "", "configuration file")
	flagSet.BoolVar(&showVersion, "version", false, "print version information")
	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return commands.Root(&commands.Environment{Config: config.Default(), Stderr: os.Stderr}).Execute([]string{"--help"})
		}
		return err
	}
	if showVersion {
		version.Print(os.Stdout, "storekit")
		return nil
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	env := &commands.Environment{
		Config: cfg,
		Logger: cli.NewLogger(os.Stderr, cfg.Log),
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		StdoutIsTerminal: func() bool {
			return term.IsTerminal(int(os.Stdout.Fd()))
		},
	}
	return commands.Root(env).Execute(flagSet.Args())
}

// loadConfig reads --config when given, then $STOREKIT_CONFIG, and
// falls back to the built-in defaults.
func loadConfig(path string) (*config.Config, error) {
	switch {
	case path != "":
		return config.LoadFile(path)
	case os.Getenv("STOREKIT_CONFIG") != "":
		return config.Load()
	default:
		return config.Default(), nil
	}
}
