// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package segment

import (
	"strings"
	"testing"
)

func TestDomainKeysAreDistinct(t *testing.T) {
	input := []byte("the same input bytes for both domains")
	if hashBlock(input) == keyedHash(fileDomainKey, input) {
		t.Error("block and file domain produced the same hash for identical input")
	}
	if blockDomainKey == fileDomainKey {
		t.Error("block and file domain keys are identical")
	}
	for name, key := range map[string]domainKey{"block": blockDomainKey, "file": fileDomainKey} {
		want := "storekit.segment." + name
		if got := strings.TrimRight(string(key[:]), "\x00"); got != want {
			t.Errorf("%s domain key = %q, want %q", name, got, want)
		}
	}
}

func TestHashBlockDeterministic(t *testing.T) {
	input := []byte("deterministic input")
	if hashBlock(input) != hashBlock(input) {
		t.Error("hashBlock produced different results for the same input")
	}
	if hashBlock(input) == hashBlock([]byte("deterministic inpuT")) {
		t.Error("hashBlock collided on different input")
	}
}

func TestFileDigest(t *testing.T) {
	a, b, c := hashBlock([]byte("a")), hashBlock([]byte("b")), hashBlock([]byte("c"))

	if fileDigest(nil) != keyedHash(fileDomainKey, nil) {
		t.Error("empty digest should hash the empty input")
	}
	if fileDigest([]Hash{a}) != keyedHash(fileDomainKey, a[:]) {
		t.Error("single-block digest should hash the one checksum")
	}

	pair := keyedHash(fileDomainKey, append(a[:], b[:]...))
	if got := fileDigest([]Hash{a, b}); got != pair {
		t.Errorf("two-block digest = %s, want %s", got, pair)
	}

	// The odd block is promoted, then paired with the first pair.
	want := keyedHash(fileDomainKey, append(pair[:], c[:]...))
	if got := fileDigest([]Hash{a, b, c}); got != want {
		t.Errorf("three-block digest = %s, want %s", got, want)
	}

	if fileDigest([]Hash{a, b}) == fileDigest([]Hash{b, a}) {
		t.Error("digest should depend on block order")
	}
}

func TestHashString(t *testing.T) {
	var hash Hash
	hash[0] = 0xab
	got := hash.String()
	if len(got) != 64 || !strings.HasPrefix(got, "ab00") {
		t.Errorf("String() = %q", got)
	}
}
