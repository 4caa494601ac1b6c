// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cbor

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"
)

// KeyKind identifies which variant a Key holds.
type KeyKind uint8

const (
	KeyBool KeyKind = iota + 1
	KeyNint
	KeyUint
	KeyF32
	KeyF64
	KeyBytes
	KeyText
)

func (kind KeyKind) String() string {
	switch kind {
	case KeyBool:
		return "bool"
	case KeyNint:
		return "nint"
	case KeyUint:
		return "uint"
	case KeyF32:
		return "f32"
	case KeyF64:
		return "f64"
	case KeyBytes:
		return "bytes"
	case KeyText:
		return "text"
	default:
		return fmt.Sprintf("key(%d)", uint8(kind))
	}
}

// rank groups kinds for ordering. Signed and unsigned integers share a
// rank and compare numerically.
func (kind KeyKind) rank() int {
	switch kind {
	case KeyBool:
		return 4
	case KeyNint, KeyUint:
		return 8
	case KeyF32:
		return 12
	case KeyF64:
		return 16
	case KeyBytes:
		return 20
	case KeyText:
		return 24
	default:
		return 0
	}
}

// Key is the restricted, totally ordered set of values legal as map
// keys. Keys are comparable with == and usable as Go map keys; float
// keys compare by bit pattern.
//
// The zero Key is invalid.
type Key struct {
	kind KeyKind
	// num holds the bool (0/1), the unsigned value, the negative
	// magnitude m of -(m+1), or the float bits.
	num uint64
	// str holds byte and text keys.
	str string
}

// BoolKey returns a boolean key.
func BoolKey(b bool) Key {
	if b {
		return Key{kind: KeyBool, num: 1}
	}
	return Key{kind: KeyBool}
}

// UintKey returns an unsigned integer key.
func UintKey(n uint64) Key { return Key{kind: KeyUint, num: n} }

// IntKey returns an integer key. Non-negative values become unsigned
// keys, so a negative key always holds a negative number.
func IntKey(n int64) Key {
	if n >= 0 {
		return UintKey(uint64(n))
	}
	return Key{kind: KeyNint, num: uint64(-(n + 1))}
}

// F32Key returns a single-precision float key.
func F32Key(f float32) Key { return Key{kind: KeyF32, num: uint64(math.Float32bits(f))} }

// F64Key returns a double-precision float key.
func F64Key(f float64) Key { return Key{kind: KeyF64, num: math.Float64bits(f)} }

// BytesKey returns a byte-string key holding a copy of b.
func BytesKey(b []byte) Key { return Key{kind: KeyBytes, str: string(b)} }

// TextKey returns a text key.
func TextKey(s string) Key { return Key{kind: KeyText, str: s} }

// Kind returns the key's variant.
func (k Key) Kind() KeyKind { return k.kind }

// Bool returns the value of a KeyBool key.
func (k Key) Bool() bool { return k.num == 1 }

// Uint returns the value of a KeyUint key.
func (k Key) Uint() uint64 { return k.num }

// Int returns the value of a KeyNint or KeyUint key. Unsigned values
// above math.MaxInt64 are reported with ok false.
func (k Key) Int() (n int64, ok bool) {
	switch k.kind {
	case KeyNint:
		return -int64(k.num) - 1, true
	case KeyUint:
		if k.num > math.MaxInt64 {
			return 0, false
		}
		return int64(k.num), true
	default:
		return 0, false
	}
}

// Float32 returns the value of a KeyF32 key.
func (k Key) Float32() float32 { return math.Float32frombits(uint32(k.num)) }

// Float64 returns the value of a KeyF64 key.
func (k Key) Float64() float64 { return math.Float64frombits(k.num) }

// Bytes returns a copy of a KeyBytes key.
func (k Key) Bytes() []byte { return []byte(k.str) }

// Text returns the value of a KeyText key.
func (k Key) Text() string { return k.str }

// Compare returns -1, 0 or +1. Keys order first by rank
// (bool < integer < f32 < f64 < bytes < text), then by value; every
// negative integer sorts before every unsigned one, and floats use
// total bit-pattern order.
func (k Key) Compare(other Key) int {
	if r := cmp.Compare(k.kind.rank(), other.kind.rank()); r != 0 {
		return r
	}
	switch {
	case k.kind == KeyNint && other.kind == KeyUint:
		return -1
	case k.kind == KeyUint && other.kind == KeyNint:
		return 1
	}
	switch k.kind {
	case KeyBool, KeyUint:
		return cmp.Compare(k.num, other.num)
	case KeyNint:
		// Larger magnitude means more negative.
		return cmp.Compare(other.num, k.num)
	case KeyF32:
		return cmp.Compare(totalOrder32(k.Float32()), totalOrder32(other.Float32()))
	case KeyF64:
		return cmp.Compare(totalOrder64(k.Float64()), totalOrder64(other.Float64()))
	default:
		return strings.Compare(k.str, other.str)
	}
}

// Less reports whether k sorts before other.
func (k Key) Less(other Key) bool { return k.Compare(other) < 0 }

// Value returns the Value representation of k.
func (k Key) Value() Value {
	switch k.kind {
	case KeyBool:
		if k.Bool() {
			return NewSimple(True)
		}
		return NewSimple(False)
	case KeyUint:
		return NewUint(k.num)
	case KeyNint:
		return NewNint(k.num)
	case KeyF32:
		return NewSimple(SimpleValue{Kind: SimpleF32, Bits: k.num})
	case KeyF64:
		return NewSimple(SimpleValue{Kind: SimpleF64, Bits: k.num})
	case KeyBytes:
		return NewBytes([]byte(k.str))
	case KeyText:
		return NewText(k.str)
	default:
		return nil
	}
}

// String renders the key in diagnostic notation.
func (k Key) String() string {
	switch k.kind {
	case KeyBool:
		return strconv.FormatBool(k.Bool())
	case KeyUint:
		return strconv.FormatUint(k.num, 10)
	case KeyNint:
		return nintString(k.num)
	case KeyF32:
		return formatFloat(float64(k.Float32()), 32)
	case KeyF64:
		return formatFloat(k.Float64(), 64)
	case KeyBytes:
		return fmt.Sprintf("h'%x'", k.str)
	case KeyText:
		return strconv.Quote(k.str)
	default:
		return "invalid-key"
	}
}

// KeyFromValue converts a decoded Value into a Key. Arrays, maps,
// tags, null, break and raw values are not key-capable. Text keys must
// be valid UTF-8.
func KeyFromValue(v Value) (Key, error) {
	switch v := v.(type) {
	case Uint:
		return UintKey(v.N), nil
	case Nint:
		if v.N > math.MaxInt64 {
			return Key{}, keyf("negative integer -1-%d overflows int64", v.N)
		}
		return Key{kind: KeyNint, num: v.N}, nil
	case Bytes:
		return BytesKey(v.Data), nil
	case Text:
		if !utf8.Valid(v.Data) {
			return Key{}, keyf("text key is not valid utf-8")
		}
		return TextKey(string(v.Data)), nil
	case Simple:
		switch v.Value.Kind {
		case SimpleTrue:
			return BoolKey(true), nil
		case SimpleFalse:
			return BoolKey(false), nil
		case SimpleF32, SimpleF64:
			kind := KeyF32
			if v.Value.Kind == SimpleF64 {
				kind = KeyF64
			}
			return Key{kind: kind, num: v.Value.Bits}, nil
		}
		return Key{}, keyf("simple value %s is not a valid key", v.Value.Kind)
	case nil:
		return Key{}, keyf("nil value is not a valid key")
	default:
		return Key{}, keyf("%s is not a valid key", v.Major())
	}
}

// SortPairs sorts map pairs by key order. Pairs with equal keys keep
// their relative order. Use this before building a Map when canonical
// output is required; the encoder itself never reorders.
func SortPairs(pairs []Pair) {
	slices.SortStableFunc(pairs, func(a, b Pair) int {
		return a.Key.Compare(b.Key)
	})
}

// SearchPairs binary-searches pairs sorted with SortPairs for key.
func SearchPairs(pairs []Pair, key Key) (Value, bool) {
	index, found := slices.BinarySearchFunc(pairs, key, func(pair Pair, target Key) int {
		return pair.Key.Compare(target)
	})
	if !found {
		return nil, false
	}
	return pairs[index].Value, true
}
