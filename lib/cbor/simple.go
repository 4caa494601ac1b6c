// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cbor

import (
	"cmp"
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// SimpleKind enumerates the major type 7 values the model knows about.
type SimpleKind uint8

const (
	SimpleUnassigned SimpleKind = iota
	SimpleTrue
	SimpleFalse
	SimpleNull
	SimpleUndefined
	SimpleReserved24
	SimpleF16
	SimpleF32
	SimpleF64
	SimpleBreak
)

func (kind SimpleKind) String() string {
	switch kind {
	case SimpleUnassigned:
		return "unassigned"
	case SimpleTrue:
		return "true"
	case SimpleFalse:
		return "false"
	case SimpleNull:
		return "null"
	case SimpleUndefined:
		return "undefined"
	case SimpleReserved24:
		return "reserved24"
	case SimpleF16:
		return "f16"
	case SimpleF32:
		return "f32"
	case SimpleF64:
		return "f64"
	case SimpleBreak:
		return "break"
	default:
		return fmt.Sprintf("simple(%d)", uint8(kind))
	}
}

// SimpleValue is a major type 7 value. Floats are held as raw bit
// patterns, so == is total bit-pattern equality: NaN equals itself and
// +0 differs from -0.
//
// Unassigned, Undefined, Reserved24 and F16 exist so the model can name
// what a decoder saw; none of them can be encoded.
type SimpleValue struct {
	Kind SimpleKind
	Bits uint64
}

// Simple value singletons.
var (
	True  = SimpleValue{Kind: SimpleTrue}
	False = SimpleValue{Kind: SimpleFalse}
	Null  = SimpleValue{Kind: SimpleNull}
	Break = SimpleValue{Kind: SimpleBreak}
)

// F32 returns the simple value for a single-precision float.
func F32(f float32) SimpleValue {
	return SimpleValue{Kind: SimpleF32, Bits: uint64(math.Float32bits(f))}
}

// F64 returns the simple value for a double-precision float.
func F64(f float64) SimpleValue {
	return SimpleValue{Kind: SimpleF64, Bits: math.Float64bits(f)}
}

// Float32 returns the float held by an F32 value.
func (s SimpleValue) Float32() float32 { return math.Float32frombits(uint32(s.Bits)) }

// Float64 returns the float held by an F64 value.
func (s SimpleValue) Float64() float64 { return math.Float64frombits(s.Bits) }

// info returns the header info a simple value is written with.
func (s SimpleValue) info() (Info, error) {
	switch s.Kind {
	case SimpleTrue:
		return 20, nil
	case SimpleFalse:
		return 21, nil
	case SimpleNull:
		return 22, nil
	case SimpleF32:
		return InfoU32, nil
	case SimpleF64:
		return InfoU64, nil
	case SimpleBreak:
		return InfoIndefinite, nil
	default:
		return 0, conversionf("simple value %s cannot be encoded", s.Kind)
	}
}

// Compare orders simple values by kind, then floats by total
// bit-pattern order.
func (s SimpleValue) Compare(other SimpleValue) int {
	if s.Kind != other.Kind {
		return cmp.Compare(s.Kind, other.Kind)
	}
	switch s.Kind {
	case SimpleF32:
		return cmp.Compare(totalOrder32(s.Float32()), totalOrder32(other.Float32()))
	case SimpleF64:
		return cmp.Compare(totalOrder64(s.Float64()), totalOrder64(other.Float64()))
	default:
		return cmp.Compare(s.Bits, other.Bits)
	}
}

// encodeSimple writes the header and payload of a simple value.
func encodeSimple(w io.Writer, s SimpleValue) (int, error) {
	info, err := s.info()
	if err != nil {
		return 0, err
	}
	written, err := encodeHeader(w, MajorSimple, info)
	if err != nil {
		return written, err
	}
	var scratch [8]byte
	switch s.Kind {
	case SimpleF32:
		binary.BigEndian.PutUint32(scratch[:], uint32(s.Bits))
		n, err := write(w, scratch[:4])
		return written + n, err
	case SimpleF64:
		binary.BigEndian.PutUint64(scratch[:], s.Bits)
		n, err := write(w, scratch[:8])
		return written + n, err
	}
	return written, nil
}

// decodeSimple reads the payload of a simple value whose header info
// has already been consumed.
func decodeSimple(info Info, r io.Reader) (SimpleValue, int, error) {
	var scratch [8]byte
	switch {
	case info == 20:
		return True, 0, nil
	case info == 21:
		return False, 0, nil
	case info == 22:
		return Null, 0, nil
	case info == 23:
		return SimpleValue{}, 0, structuralf("simple value undefined is not supported")
	case info.IsTiny():
		return SimpleValue{}, 0, structuralf("simple value %d is unassigned", uint8(info))
	case info == InfoU8:
		return SimpleValue{}, 0, structuralf("one-byte simple values are not supported")
	case info == InfoU16:
		return SimpleValue{}, 0, structuralf("half-precision floats are not supported")
	case info == InfoU32:
		if _, err := io.ReadFull(r, scratch[:4]); err != nil {
			return SimpleValue{}, 0, ioError("reading f32", err)
		}
		return SimpleValue{Kind: SimpleF32, Bits: uint64(binary.BigEndian.Uint32(scratch[:]))}, 4, nil
	case info == InfoU64:
		if _, err := io.ReadFull(r, scratch[:8]); err != nil {
			return SimpleValue{}, 0, ioError("reading f64", err)
		}
		return SimpleValue{Kind: SimpleF64, Bits: binary.BigEndian.Uint64(scratch[:])}, 8, nil
	case info == InfoIndefinite:
		return Break, 0, nil
	default:
		return SimpleValue{}, 0, structuralf("reserved simple value info %d", uint8(info))
	}
}

// totalOrder32 maps a float32 to an int32 whose signed order is the
// IEEE 754 totalOrder of the float.
func totalOrder32(f float32) int32 {
	bits := int32(math.Float32bits(f))
	return bits ^ int32(uint32(bits>>31)>>1)
}

// totalOrder64 is the float64 counterpart of totalOrder32.
func totalOrder64(f float64) int64 {
	bits := int64(math.Float64bits(f))
	return bits ^ int64(uint64(bits>>63)>>1)
}
