// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cbor implements storekit's self-describing binary value
// format: a CBOR-shaped encoding molded to the needs of the storage
// primitives built on top of it.
//
// Every encode and decode passes through the generic value model:
//
//	native value -> ValueMarshaler / FromInt / FromString ... -> Value -> Encode -> bytes
//	bytes -> Decode -> Value -> ValueUnmarshaler / ToInt / ToString ... -> native value
//
// # Wire format
//
// Each item starts with one header byte, major<<5 | info. Info 0-23
// carries a magnitude inline; 24, 25, 26 and 27 mean the magnitude
// follows in 1, 2, 4 or 8 big-endian bytes; 28-30 are reserved and
// always rejected; 31 starts an indefinite-length item closed by a
// break. The encoder always picks the smallest width class.
//
// This is not a conformant RFC 8949 implementation. Half-precision
// floats, undefined, one-byte simple values and all unassigned simple
// values are rejected on both sides. Tags other than 39 are carried as
// bare numbers; their payload is the caller's business.
//
// # Keys
//
// Map keys are a restricted union, [Key], with a total order: bool,
// then integers (negative before unsigned, compared numerically), then
// f32, f64, byte strings and text. Floats order by bit pattern, so NaN
// is ordered and equal to itself. Maps keep insertion order on the wire;
// callers that need canonical output sort with [SortPairs] first.
//
// # Records
//
// Structured types encode as arrays prefixed by an Identifier tag (39)
// naming the type, see [NewRecord] and [NewVariant]. Decoding checks
// the identifier and arity strictly: a payload of the wrong type or
// shape is an error, never a best-effort partial value.
//
// # Limits and errors
//
// Values nest at most [RecursionLimit] levels on both encode and
// decode. Failures wrap one of [ErrIO], [ErrStructural],
// [ErrConversion] or [ErrKey]. There is no partial decode.
//
// The codec holds no shared state. Concurrent calls are safe as long as
// each uses its own reader, writer and value tree.
package cbor
