// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package segment reads and writes segment files: immutable sorted
// runs of [entry.Entry] values.
//
// File layout:
//
//	magic "SKSEG1\x00\x00"
//	block*         tag(1) rawSize(4) storedSize(4) checksum(32) payload
//	footer         [39("segment-footer/1"), [[firstKey, offset, count]...],
//	                filter, entryCount, digest]
//	footerOffset   8 bytes, big-endian
//	magic
//
// A block payload is the canonical encodings of consecutive entries,
// concatenated, then compressed with LZ4 or zstd when that shrinks it.
// The checksum is a BLAKE3 keyed hash of the uncompressed payload; the
// digest is the Merkle root of all block checksums in file order.
//
// A [Writer] takes entries in strictly increasing key order and
// produces the file atomically: nothing appears at the destination
// path until [Writer.Close] succeeds. A [Reader] answers point lookups
// through the filter and the block index, iterates in key order, and
// re-checks every checksum with [Reader.Verify]. Structural damage is
// reported as an error wrapping [ErrCorrupt].
package segment
