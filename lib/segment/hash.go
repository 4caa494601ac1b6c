// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package segment

import (
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// Hash is a 32-byte BLAKE3 digest.
type Hash [32]byte

func (h Hash) String() string { return hex.EncodeToString(h[:]) }

// domainKey is a 32-byte key for BLAKE3 keyed hashing, so block
// checksums and file digests never collide with each other. The bytes
// are the ASCII domain name, zero-padded; changing them invalidates
// every existing segment.
type domainKey [32]byte

var (
	blockDomainKey = domainKey{
		's', 't', 'o', 'r', 'e', 'k', 'i', 't', '.', 's', 'e', 'g', 'm', 'e', 'n', 't',
		'.', 'b', 'l', 'o', 'c', 'k', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	}

	fileDomainKey = domainKey{
		's', 't', 'o', 'r', 'e', 'k', 'i', 't', '.', 's', 'e', 'g', 'm', 'e', 'n', 't',
		'.', 'f', 'i', 'l', 'e', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	}
)

// hashBlock returns the checksum of an uncompressed block.
func hashBlock(data []byte) Hash {
	return keyedHash(blockDomainKey, data)
}

// fileDigest returns the digest of a segment: the file-domain Merkle
// root over its block checksums in order. An empty segment hashes the
// empty input.
func fileDigest(blocks []Hash) Hash {
	if len(blocks) == 0 {
		return keyedHash(fileDomainKey, nil)
	}
	return merkleRoot(fileDomainKey, blocks)
}

// merkleRoot builds a binary Merkle tree bottom-up. Adjacent pairs are
// concatenated and hashed; an odd node at the end of a level is
// promoted without hashing, never duplicated.
func merkleRoot(key domainKey, hashes []Hash) Hash {
	if len(hashes) == 1 {
		return keyedHash(key, hashes[0][:])
	}

	hasher, err := blake3.NewKeyed(key[:])
	if err != nil {
		panic("segment: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	var combined [64]byte
	hashPair := func(left, right Hash) Hash {
		copy(combined[:32], left[:])
		copy(combined[32:], right[:])
		hasher.Reset()
		hasher.Write(combined[:])
		var result Hash
		copy(result[:], hasher.Sum(nil))
		return result
	}

	level := make([]Hash, len(hashes))
	copy(level, hashes)
	for len(level) > 1 {
		next := make([]Hash, (len(level)+1)/2)
		for i := 0; i < len(level)-1; i += 2 {
			next[i/2] = hashPair(level[i], level[i+1])
		}
		if len(level)%2 == 1 {
			next[len(next)-1] = level[len(level)-1]
		}
		level = next
	}
	return level[0]
}

func keyedHash(key domainKey, data []byte) Hash {
	// NewKeyed only fails for keys that are not 32 bytes.
	hasher, err := blake3.NewKeyed(key[:])
	if err != nil {
		panic("segment: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	hasher.Write(data)
	var hash Hash
	copy(hash[:], hasher.Sum(nil))
	return hash
}
