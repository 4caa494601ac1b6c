// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"bytes"
	"encoding/hex"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bureau-foundation/storekit/lib/testutil"
)

func TestEncode(t *testing.T) {
	tests := []struct {
		name  string
		from  string
		input string
		want  string
	}{
		{"json map sorted", "json", `{"b":1,"a":2}`, "a2616102616201"},
		{"json nested", "json", `{"list":[1,-1,null,true]}`, "a1646c6973748401 20f6f5"},
		{"json large unsigned", "json", `18446744073709551615`, "1bffffffffffffffff"},
		{"json large negative", "json", `-18446744073709551616`, "3bffffffffffffffff"},
		{"json value stream", "json", "1 2\n3", "010203"},
		{"jsonc comments and trailing commas", "jsonc", "{/* count */ \"a\": [1, 2,],}", "a161618201 02"},
		{"yaml integer keys", "yaml", "2: two\n1: one\n", "a2 01 636f6e65 02 6374776f"},
		{"yaml documents", "yaml", "a: 1\n---\n- x\n", "a1616101 816178"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnvironment(t, tt.input)
			if err := env.run("encode", "--from", tt.from); err != nil {
				t.Fatalf("encode: %v", err)
			}
			want, err := hex.DecodeString(strings.ReplaceAll(tt.want, " ", ""))
			if err != nil {
				t.Fatalf("bad test hex: %v", err)
			}
			if !bytes.Equal(env.stdout.Bytes(), want) {
				t.Errorf("encode = %x, want %x", env.stdout.Bytes(), want)
			}
		})
	}
}

func TestEncodeOutputIsCanonical(t *testing.T) {
	input := `{"zeta": {"y": [1.5, "x"], "b": false}, "alpha": -70000, "m": {"k": null}}`
	encoded, err := encodeDocuments([]byte(input), "json")
	if err != nil {
		t.Fatalf("encodeDocuments: %v", err)
	}
	count, err := validateItems(encoded)
	if err != nil {
		t.Fatalf("validateItems: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
}

func TestEncodeToFile(t *testing.T) {
	env := newTestEnvironment(t, "")
	directory := t.TempDir()
	input := testutil.WriteFile(t, directory, "in.yaml", []byte("name: storekit\n"))
	output := filepath.Join(directory, "out.cbor")

	if err := env.run("encode", "--from", "yaml", "-o", output, input); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if env.stdout.Len() != 0 {
		t.Errorf("stdout = %q, want nothing", env.stdout.String())
	}
	want := []byte{0xa1, 0x64, 'n', 'a', 'm', 'e', 0x68, 's', 't', 'o', 'r', 'e', 'k', 'i', 't'}
	if got := testutil.ReadFile(t, output); !bytes.Equal(got, want) {
		t.Errorf("file = %x, want %x", got, want)
	}
}

func TestEncodeRefusesTerminal(t *testing.T) {
	env := newTestEnvironment(t, "1")
	env.StdoutIsTerminal = func() bool { return true }
	err := env.run("encode")
	if err == nil || !strings.Contains(err.Error(), "refusing") {
		t.Fatalf("encode to terminal: got %v, want refusal", err)
	}
	if env.stdout.Len() != 0 {
		t.Errorf("stdout = %x, want nothing", env.stdout.Bytes())
	}
}

func TestEncodeErrors(t *testing.T) {
	tests := []struct {
		name  string
		from  string
		input string
		want  string
	}{
		{"unknown format", "toml", "a = 1", "unknown input format"},
		{"bad json", "json", `{"a":`, "decode JSON document 0"},
		{"bad yaml", "yaml", "a: [1", "decode YAML document 0"},
		{"null key", "yaml", "~: 1\n", "null cannot be a key"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := encodeDocuments([]byte(tt.input), tt.from)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("encodeDocuments: got %v, want error containing %q", err, tt.want)
			}
		})
	}
}
