// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec bridges arbitrary Go values and the storekit value
// model through github.com/fxamacker/cbor/v2.
//
// The storekit codec (lib/cbor) only knows its own Value tree and the
// explicit conversion routines. Tools that start from plain Go data,
// such as decoded JSON or YAML documents or struct literals, go through
// this package instead of writing conversions by hand:
//
//	value, err := codec.FromNative(document)
//	data, err := cbor.Marshal(value)
//
// and back:
//
//	err = codec.ToNative(value, &target)
//
// The fxamacker encoder runs in Core Deterministic mode with float
// shortening disabled, so its output is always decodable by lib/cbor:
// map keys are sorted, integers are minimal and floats keep their Go
// width.
package codec
