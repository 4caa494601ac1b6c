// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/pflag"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/storekit/cmd/storekit/cli"
	"github.com/bureau-foundation/storekit/lib/cbor"
)

func encodeCommand(env *Environment) *cli.Command {
	var (
		from   string
		output string
	)

	return &cli.Command{
		Name:    "encode",
		Summary: "Convert JSON, JSONC or YAML to CBOR",
		Description: `Read a document and write its canonical storekit CBOR encoding.

Integers stay integers (JSON numbers are not routed through float64),
every map is sorted by key order, and every head uses the minimal
width. JSONC input may contain comments and trailing commas. YAML maps
may use integer or boolean keys; they are kept as such.

A file containing several documents (a JSON value stream or a
multi-document YAML file) becomes a CBOR sequence.

The output is binary: it goes to -o FILE, or to stdout when stdout is
not a terminal.`,
		Usage: "storekit encode --from json|jsonc|yaml [-o OUT] [FILE]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("encode", pflag.ContinueOnError)
			flagSet.StringVar(&from, "from", "json", "input format: json, jsonc or yaml")
			flagSet.StringVarP(&output, "output", "o", "", "output file (default: stdout)")
			return flagSet
		},
		Examples: []cli.Example{
			{Description: "Encode JSON from stdin", Command: `echo '{"count":42}' | storekit encode > count.cbor`},
			{Description: "Encode a commented config file", Command: "storekit encode --from jsonc settings.jsonc -o settings.cbor"},
		},
		Run: func(args []string) error {
			data, err := readInput(env, "encode", args, false)
			if err != nil {
				return err
			}
			encoded, err := encodeDocuments(data, from)
			if err != nil {
				return err
			}
			env.Logger.Debug("encoded", "format", from, "bytes", len(encoded))
			return writeOutput(env, output, encoded)
		},
	}
}

// encodeDocuments converts every document in data to CBOR and
// concatenates the results.
func encodeDocuments(data []byte, from string) ([]byte, error) {
	var documents []any
	var err error
	switch from {
	case "json":
		documents, err = decodeJSON(data)
	case "jsonc":
		documents, err = decodeJSON(jsonc.ToJSON(data))
	case "yaml":
		documents, err = decodeYAML(data)
	default:
		return nil, fmt.Errorf("unknown input format %q (want json, jsonc or yaml)", from)
	}
	if err != nil {
		return nil, err
	}
	if len(documents) == 0 {
		return nil, fmt.Errorf("no documents in input")
	}

	var buffer bytes.Buffer
	for index, document := range documents {
		value, err := toValue(document)
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", index, err)
		}
		if _, err := cbor.Encode(&buffer, value); err != nil {
			return nil, fmt.Errorf("document %d: %w", index, err)
		}
	}
	return buffer.Bytes(), nil
}

func decodeJSON(data []byte) ([]any, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	var documents []any
	for {
		var document any
		if err := decoder.Decode(&document); err != nil {
			if errors.Is(err, io.EOF) {
				return documents, nil
			}
			return nil, fmt.Errorf("decode JSON document %d: %w", len(documents), err)
		}
		documents = append(documents, document)
	}
}

func decodeYAML(data []byte) ([]any, error) {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	var documents []any
	for {
		var document any
		if err := decoder.Decode(&document); err != nil {
			if errors.Is(err, io.EOF) {
				return documents, nil
			}
			return nil, fmt.Errorf("decode YAML document %d: %w", len(documents), err)
		}
		documents = append(documents, document)
	}
}
