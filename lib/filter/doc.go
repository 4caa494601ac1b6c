// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package filter provides approximate membership filters for segment
// files: a Bloom filter backed by github.com/ipfs/bbloom and [NoFilter],
// which answers yes to everything.
//
// Filters are fed [KeyDigest] of each key, the key's canonical
// encoding, so two keys collide only if they are the same Key. Filters
// persist through the value model as identifier-tagged records and are
// restored with [Unmarshal].
package filter
