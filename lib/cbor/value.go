// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cbor

import (
	"bytes"
	"slices"
)

// Value is the generic value model: a closed union of the eight major
// types plus Raw, an already-encoded item passed through untouched.
// Every encode and decode goes through a Value tree.
//
// Implementations are the value types Uint, Nint, Bytes, Text, Array,
// Map, Tagged, Simple and Raw. Pointers to them are not Values as far
// as the engine is concerned.
type Value interface {
	// Major returns the major type the value encodes as.
	Major() Major
	isValue()
}

// Uint is major type 0: an unsigned integer.
type Uint struct {
	Info Info
	N    uint64
}

// Nint is major type 1: the negative integer -(N+1).
type Nint struct {
	Info Info
	N    uint64
}

// Bytes is major type 2: a byte string.
type Bytes struct {
	Info Info
	Data []byte
}

// Text is major type 3: a text string. The bytes are not checked for
// UTF-8 validity until they are converted to a Go string.
type Text struct {
	Info Info
	Data []byte
}

// Array is major type 4: an ordered sequence of values.
type Array struct {
	Info  Info
	Items []Value
}

// Pair is one map entry.
type Pair struct {
	Key   Key
	Value Value
}

// Map is major type 5: key/value pairs kept in insertion order. The
// encoder writes pairs exactly as stored; see SortPairs.
type Map struct {
	Info  Info
	Pairs []Pair
}

// Tagged is major type 6.
type Tagged struct {
	Info Info
	Tag  Tag
}

// Simple is major type 7: booleans, null, floats and break.
type Simple struct {
	Info  Info
	Value SimpleValue
}

// Raw is a single already-encoded item. Its major type is read from the
// first byte at construction; the rest is not validated until Decode is
// called.
type Raw struct {
	major Major
	data  []byte
}

func (Uint) Major() Major   { return MajorUint }
func (Nint) Major() Major   { return MajorNint }
func (Bytes) Major() Major  { return MajorBytes }
func (Text) Major() Major   { return MajorText }
func (Array) Major() Major  { return MajorArray }
func (Map) Major() Major    { return MajorMap }
func (Tagged) Major() Major { return MajorTag }
func (Simple) Major() Major { return MajorSimple }
func (r Raw) Major() Major  { return r.major }

func (Uint) isValue()   {}
func (Nint) isValue()   {}
func (Bytes) isValue()  {}
func (Text) isValue()   {}
func (Array) isValue()  {}
func (Map) isValue()    {}
func (Tagged) isValue() {}
func (Simple) isValue() {}
func (Raw) isValue()    {}

// NewUint returns n as a major type 0 value.
func NewUint(n uint64) Uint { return Uint{Info: InfoFor(n), N: n} }

// NewNint returns the negative integer -(magnitude+1).
func NewNint(magnitude uint64) Nint { return Nint{Info: InfoFor(magnitude), N: magnitude} }

// NewBytes returns data as a byte string. The slice is not copied.
func NewBytes(data []byte) Bytes {
	return Bytes{Info: InfoFor(uint64(len(data))), Data: data}
}

// NewText returns s as a text string.
func NewText(s string) Text {
	return Text{Info: InfoFor(uint64(len(s))), Data: []byte(s)}
}

// NewArray returns items as an array.
func NewArray(items ...Value) Array {
	return Array{Info: InfoFor(uint64(len(items))), Items: items}
}

// NewMap returns pairs as a map in the given order.
func NewMap(pairs ...Pair) Map {
	return Map{Info: InfoFor(uint64(len(pairs))), Pairs: pairs}
}

// NewTagged returns t as a tag value.
func NewTagged(t Tag) Tagged {
	return Tagged{Info: InfoFor(t.Number()), Tag: t}
}

// NewSimple returns s as a simple value. The info of kinds that cannot
// be encoded is left as zero.
func NewSimple(s SimpleValue) Simple {
	info, _ := s.info()
	return Simple{Info: info, Value: s}
}

// NewRaw wraps one pre-encoded item. data must be non-empty and is not
// copied.
func NewRaw(data []byte) (Raw, error) {
	if len(data) == 0 {
		return Raw{}, conversionf("raw value is empty")
	}
	return Raw{major: Major(data[0] >> 5), data: data}, nil
}

// Bytes returns the encoded bytes of r.
func (r Raw) Bytes() []byte { return r.data }

// Decode fully parses r. The raw bytes must hold exactly one item.
func (r Raw) Decode() (Value, error) {
	return Unmarshal(r.data)
}

func isBreak(v Value) bool {
	simple, ok := v.(Simple)
	return ok && simple.Value.Kind == SimpleBreak
}

// Equal reports whether a and b are the same value tree. Infos must
// match, map pairs are compared in order, and floats compare by bit
// pattern.
func Equal(a, b Value) bool {
	switch a := a.(type) {
	case Uint:
		b, ok := b.(Uint)
		return ok && a == b
	case Nint:
		b, ok := b.(Nint)
		return ok && a == b
	case Bytes:
		b, ok := b.(Bytes)
		return ok && a.Info == b.Info && bytes.Equal(a.Data, b.Data)
	case Text:
		b, ok := b.(Text)
		return ok && a.Info == b.Info && bytes.Equal(a.Data, b.Data)
	case Array:
		b, ok := b.(Array)
		return ok && a.Info == b.Info && slices.EqualFunc(a.Items, b.Items, Equal)
	case Map:
		b, ok := b.(Map)
		return ok && a.Info == b.Info && slices.EqualFunc(a.Pairs, b.Pairs, func(x, y Pair) bool {
			return x.Key == y.Key && Equal(x.Value, y.Value)
		})
	case Tagged:
		b, ok := b.(Tagged)
		if !ok || a.Info != b.Info || a.Tag.Number() != b.Tag.Number() || a.Tag.IsIdentifier() != b.Tag.IsIdentifier() {
			return false
		}
		return !a.Tag.IsIdentifier() || Equal(a.Tag.Payload(), b.Tag.Payload())
	case Simple:
		b, ok := b.(Simple)
		return ok && a == b
	case Raw:
		b, ok := b.(Raw)
		return ok && bytes.Equal(a.data, b.data)
	case nil:
		return b == nil
	default:
		return false
	}
}
