// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/storekit/cmd/storekit/cli"
	"github.com/bureau-foundation/storekit/lib/cbor"
	"github.com/bureau-foundation/storekit/lib/config"
	"github.com/bureau-foundation/storekit/lib/entry"
	"github.com/bureau-foundation/storekit/lib/filter"
	"github.com/bureau-foundation/storekit/lib/segment"
	"github.com/bureau-foundation/storekit/lib/worker"
)

// Segments built by the CLI hold arbitrary values with full-value
// history.
type (
	valueEntry  = entry.Entry[cbor.Value, cbor.Value]
	valueReader = segment.Reader[cbor.Value, cbor.Value]
)

func segmentCommand(env *Environment) *cli.Command {
	return &cli.Command{
		Name:    "segment",
		Summary: "Build, query and verify segment files",
		Description: `Segment files are immutable sorted runs of versioned entries, split
into checksummed compressed blocks, with a block index and a membership
filter in the footer.

A SEGMENT argument that is a bare file name (no directory part) is
resolved against segment.directory from the configuration.`,
		Subcommands: []*cli.Command{
			segmentBuildCommand(env),
			segmentGetCommand(env),
			segmentVerifyCommand(env),
		},
	}
}

// segmentPath resolves bare file names against the configured segment
// directory.
func segmentPath(cfg *config.Config, path string) string {
	if strings.ContainsRune(path, os.PathSeparator) {
		return path
	}
	return cfg.SegmentPath(path)
}

func segmentBuildCommand(env *Environment) *cli.Command {
	var (
		input       string
		output      string
		compression string
	)

	return &cli.Command{
		Name:    "build",
		Summary: "Write a segment from a YAML description",
		Description: `Read entries from a YAML file and write them as a segment.

The input has one list, entries. Each entry has a key (a string,
integer, boolean or float) and either a single version:

  - key: alpha
    value: {count: 1}
    seqno: 1

or a history of versions, oldest first, with increasing seqnos:

  - key: 7
    versions:
      - {value: first, seqno: 1}
      - {value: second, seqno: 4}
      - {deleted: true, seqno: 9}

Entries may appear in any order; they are sorted by key. Block size,
compression and the filter come from the configuration.`,
		Usage: "storekit segment build --input FILE.yaml -o SEGMENT",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("build", pflag.ContinueOnError)
			flagSet.StringVar(&input, "input", "", "YAML file describing the entries (required)")
			flagSet.StringVarP(&output, "output", "o", "", "segment file to write (required)")
			flagSet.StringVar(&compression, "compression", "", "override segment.compression: none, lz4, zstd or auto")
			return flagSet
		},
		Examples: []cli.Example{
			{Description: "Build into the configured segment directory", Command: "storekit segment build --input entries.yaml -o users.sks"},
		},
		Run: func(args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("build takes no positional arguments, got %q", args[0])
			}
			if input == "" || output == "" {
				return fmt.Errorf("--input and -o are required")
			}
			data, err := os.ReadFile(input)
			if err != nil {
				return fmt.Errorf("read %s: %w", input, err)
			}
			entries, err := parseEntries(data)
			if err != nil {
				return fmt.Errorf("%s: %w", input, err)
			}
			if compression == "" {
				compression = env.Config.Segment.Compression
			}
			path := segmentPath(env.Config, output)
			if path != output {
				if err := env.Config.EnsurePaths(); err != nil {
					return err
				}
			}
			if err := buildSegment(context.Background(), env, path, compression, entries); err != nil {
				return err
			}
			fmt.Fprintf(env.Stdout, "wrote %d entries to %s\n", len(entries), path)
			return nil
		},
	}
}

type versionInput struct {
	Value   any    `yaml:"value"`
	Seqno   uint64 `yaml:"seqno"`
	Deleted bool   `yaml:"deleted"`
}

type entryInput struct {
	Key          any `yaml:"key"`
	versionInput `yaml:",inline"`
	Versions     []versionInput `yaml:"versions"`
}

type buildInput struct {
	Entries []entryInput `yaml:"entries"`
}

// parseEntries decodes the build input and returns its entries sorted
// by key.
func parseEntries(data []byte) ([]valueEntry, error) {
	var document buildInput
	if err := yaml.Unmarshal(data, &document); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}

	differ := entry.Snapshot[cbor.Value]{}
	entries := make([]valueEntry, 0, len(document.Entries))
	for index, item := range document.Entries {
		key, err := toKey(item.Key)
		if err != nil {
			return nil, fmt.Errorf("entry %d: key: %w", index, err)
		}
		versions := item.Versions
		if len(versions) == 0 {
			versions = []versionInput{item.versionInput}
		}

		var built valueEntry
		for position, version := range versions {
			if position > 0 && version.Seqno <= versions[position-1].Seqno {
				return nil, fmt.Errorf("entry %s: seqno %d does not follow %d", key, version.Seqno, versions[position-1].Seqno)
			}
			var value cbor.Value
			if !version.Deleted {
				if value, err = toValue(version.Value); err != nil {
					return nil, fmt.Errorf("entry %s: value: %w", key, err)
				}
			}
			switch {
			case position == 0 && version.Deleted:
				built = entry.NewDeleted[cbor.Value, cbor.Value](key, version.Seqno)
			case position == 0:
				built = entry.New[cbor.Value, cbor.Value](key, value, version.Seqno)
			case version.Deleted:
				built.Delete(differ, version.Seqno)
			default:
				built.Insert(differ, value, version.Seqno)
			}
		}
		entries = append(entries, built)
	}

	slices.SortFunc(entries, func(a, b valueEntry) int { return a.Key.Compare(b.Key) })
	for index := 1; index < len(entries); index++ {
		if entries[index-1].Key == entries[index].Key {
			return nil, fmt.Errorf("duplicate key %s", entries[index].Key)
		}
	}
	return entries, nil
}

// buildSegment writes entries to path. The segment writer lives on a
// worker goroutine; this goroutine only feeds it.
func buildSegment(ctx context.Context, env *Environment, path, compressionName string, entries []valueEntry) error {
	compression, err := segment.ParseCompression(compressionName)
	if err != nil {
		return err
	}
	membership, err := newFilter(env.Config.Filter, len(entries))
	if err != nil {
		return err
	}
	writer, err := segment.Create(path, entry.ValueCodec(), segment.WriterOptions{
		BlockSize:   env.Config.Segment.BlockSize,
		Compression: compression,
		Filter:      membership,
		Logger:      env.Logger,
	})
	if err != nil {
		return err
	}

	builder := worker.Start(ctx, func(ctx context.Context, inbox <-chan worker.Message[valueEntry, error]) error {
		var failure error
		for message := range inbox {
			if failure == nil {
				failure = writer.Append(message.Request)
			}
		}
		if failure != nil {
			writer.Abort()
			return failure
		}
		return writer.Close()
	}, worker.Options{Name: "segment-build", Logger: env.Logger})

	for _, e := range entries {
		if err := builder.Post(ctx, e); err != nil {
			builder.Close()
			return err
		}
	}
	return builder.Close()
}

func newFilter(cfg config.FilterConfig, count int) (filter.Filter, error) {
	if cfg.Kind != "bloom" {
		return &filter.NoFilter{}, nil
	}
	expected := cfg.ExpectedEntries
	if count > 0 {
		expected = count
	}
	return filter.NewBloom(expected, cfg.FalsePositiveRate)
}

func openSegment(env *Environment, path string) (*valueReader, error) {
	return segment.Open(segmentPath(env.Config, path), entry.ValueCodec(), env.Logger)
}

func segmentGetCommand(env *Environment) *cli.Command {
	return &cli.Command{
		Name:    "get",
		Summary: "Print the entry for one key",
		Description: `Look up KEY and print its entry in diagnostic notation.

KEY is read as a YAML scalar: 42 is an integer, true a boolean, 1.5 a
float, and anything else text. Quote it to force text: '42'.

Exits 1 without other output on stdout if the key is absent.`,
		Usage: "storekit segment get SEGMENT KEY",
		Examples: []cli.Example{
			{Description: "Look up a text key", Command: "storekit segment get users.sks alice"},
			{Description: "Look up the text \"7\" rather than the integer 7", Command: "storekit segment get users.sks \"'7'\""},
		},
		Run: func(args []string) error {
			if len(args) != 2 {
				return fmt.Errorf("get takes SEGMENT and KEY, got %d arguments", len(args))
			}
			key, err := parseKeyArgument(args[1])
			if err != nil {
				return err
			}
			reader, err := openSegment(env, args[0])
			if err != nil {
				return err
			}
			defer reader.Close()

			found, ok, err := reader.Get(key)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintf(env.Stderr, "key %s not found\n", key)
				return &cli.ExitError{Code: 1}
			}
			value, err := entry.ValueCodec().Marshal(found)
			if err != nil {
				return err
			}
			fmt.Fprintln(env.Stdout, cbor.Diagnose(value))
			return nil
		},
	}
}

// parseKeyArgument reads a command-line key as a YAML scalar.
func parseKeyArgument(text string) (cbor.Key, error) {
	if text == "" {
		return cbor.TextKey(""), nil
	}
	var scalar any
	if err := yaml.Unmarshal([]byte(text), &scalar); err != nil {
		return cbor.Key{}, fmt.Errorf("key %q: %w", text, err)
	}
	key, err := toKey(scalar)
	if err != nil {
		return cbor.Key{}, fmt.Errorf("key %q: %w", text, err)
	}
	return key, nil
}

func segmentVerifyCommand(env *Environment) *cli.Command {
	return &cli.Command{
		Name:    "verify",
		Summary: "Check every block checksum and the file digest",
		Usage:   "storekit segment verify SEGMENT",
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("verify takes one SEGMENT argument, got %d", len(args))
			}
			reader, err := openSegment(env, args[0])
			if err != nil {
				return err
			}
			defer reader.Close()

			if err := reader.Verify(); err != nil {
				return err
			}
			fmt.Fprintf(env.Stdout, "ok: %d entries in %d blocks, digest %s\n",
				reader.Len(), len(reader.Blocks()), reader.Digest())
			return nil
		},
	}
}
