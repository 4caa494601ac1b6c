// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cbor

import (
	"errors"
	"math"
	"testing"
)

func TestIntegerRange(t *testing.T) {
	if _, err := ToInt[uint8](FromInt(255)); err != nil {
		t.Errorf("ToInt[uint8](255): %v", err)
	}
	if _, err := ToInt[uint8](FromInt(256)); !errors.Is(err, ErrConversion) {
		t.Errorf("ToInt[uint8](256): got %v, want ErrConversion", err)
	}
	if _, err := ToInt[int8](FromInt(-129)); !errors.Is(err, ErrConversion) {
		t.Errorf("ToInt[int8](-129): got %v, want ErrConversion", err)
	}
	if got, err := ToInt[int8](FromInt(-128)); err != nil || got != -128 {
		t.Errorf("ToInt[int8](-128) = %d, %v", got, err)
	}
	if _, err := ToInt[uint32](FromInt(-1)); !errors.Is(err, ErrConversion) {
		t.Errorf("ToInt[uint32](-1): got %v, want ErrConversion", err)
	}
	if _, err := ToInt[int64](FromInt(uint64(math.MaxUint64))); !errors.Is(err, ErrConversion) {
		t.Errorf("ToInt[int64](MaxUint64): got %v, want ErrConversion", err)
	}
	if got, err := ToInt[int64](FromInt(int64(math.MinInt64))); err != nil || got != math.MinInt64 {
		t.Errorf("ToInt[int64](MinInt64) = %d, %v", got, err)
	}
	if _, err := ToInt[int64](NewNint(math.MaxUint64)); !errors.Is(err, ErrConversion) {
		t.Errorf("ToInt[int64](-2^64): got %v, want ErrConversion", err)
	}
	if _, err := ToInt[int](FromString("1")); !errors.Is(err, ErrConversion) {
		t.Errorf("ToInt[int](text): got %v, want ErrConversion", err)
	}
}

func TestIntegerRoundTripThroughBytes(t *testing.T) {
	for _, n := range []int64{0, 1, 23, 24, -24, -25, 1 << 40, -(1 << 40), math.MaxInt64, math.MinInt64} {
		data, err := Marshal(FromInt(n))
		if err != nil {
			t.Fatalf("Marshal(%d): %v", n, err)
		}
		value, err := Unmarshal(data)
		if err != nil {
			t.Fatalf("Unmarshal(%d): %v", n, err)
		}
		got, err := ToInt[int64](value)
		if err != nil || got != n {
			t.Errorf("round trip %d = %d, %v", n, got, err)
		}
	}
}

func TestStrictScalarConversions(t *testing.T) {
	if _, err := ToBool(FromString("true")); !errors.Is(err, ErrConversion) {
		t.Errorf("ToBool(text): got %v, want ErrConversion", err)
	}
	if _, err := ToFloat32(FromFloat64(1)); !errors.Is(err, ErrConversion) {
		t.Errorf("ToFloat32(f64): got %v, want ErrConversion", err)
	}
	if _, err := ToFloat64(FromInt(1)); !errors.Is(err, ErrConversion) {
		t.Errorf("ToFloat64(int): got %v, want ErrConversion", err)
	}
	if _, err := ToString(Text{Info: 2, Data: []byte{0xc3, 0x28}}); !errors.Is(err, ErrConversion) {
		t.Errorf("ToString(invalid utf-8): got %v, want ErrConversion", err)
	}
	if _, err := ToBytes(FromString("x")); !errors.Is(err, ErrConversion) {
		t.Errorf("ToBytes(text): got %v, want ErrConversion", err)
	}

	if b, err := ToBool(FromBool(true)); err != nil || !b {
		t.Errorf("ToBool(true) = %v, %v", b, err)
	}
	if f, err := ToFloat32(FromFloat32(-2.5)); err != nil || f != -2.5 {
		t.Errorf("ToFloat32(-2.5) = %v, %v", f, err)
	}
	nan, err := ToFloat64(FromFloat64(math.NaN()))
	if err != nil || !math.IsNaN(nan) {
		t.Errorf("ToFloat64(NaN) = %v, %v", nan, err)
	}
}

func TestBytesVersusSequence(t *testing.T) {
	buffer := FromBytes([]byte{1, 2, 3})
	if buffer.Major() != MajorBytes {
		t.Errorf("FromBytes major = %s, want bytes", buffer.Major())
	}

	sequence, err := ValueOf([]byte{1, 2, 3})
	if err != nil {
		t.Fatalf("ValueOf([]byte): %v", err)
	}
	if sequence.Major() != MajorArray {
		t.Fatalf("ValueOf([]byte) major = %s, want array", sequence.Major())
	}
	items, err := ToSlice(sequence, ToInt[uint8])
	if err != nil {
		t.Fatalf("ToSlice: %v", err)
	}
	if len(items) != 3 || items[2] != 3 {
		t.Errorf("ToSlice = %v, want [1 2 3]", items)
	}
}

func TestSliceAndArray(t *testing.T) {
	value, err := FromSlice([]string{"a", "b"}, func(s string) (Value, error) { return FromString(s), nil })
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}
	if _, err := ToArray(value, 3, ToString); !errors.Is(err, ErrConversion) {
		t.Errorf("ToArray arity 3: got %v, want ErrConversion", err)
	}
	got, err := ToArray(value, 2, ToString)
	if err != nil {
		t.Fatalf("ToArray: %v", err)
	}
	if got[0] != "a" || got[1] != "b" {
		t.Errorf("ToArray = %v, want [a b]", got)
	}

	mixed := NewArray(FromString("a"), FromInt(1))
	if _, err := ToSlice(mixed, ToString); !errors.Is(err, ErrConversion) {
		t.Errorf("ToSlice mixed: got %v, want ErrConversion", err)
	}
}

func TestOptional(t *testing.T) {
	n := 5
	present, err := FromOptional(&n, func(n int) (Value, error) { return FromInt(n), nil })
	if err != nil {
		t.Fatalf("FromOptional: %v", err)
	}
	got, err := ToOptional(present, ToInt[int])
	if err != nil || got == nil || *got != 5 {
		t.Errorf("ToOptional(5) = %v, %v", got, err)
	}

	absent, err := FromOptional[int](nil, func(n int) (Value, error) { return FromInt(n), nil })
	if err != nil {
		t.Fatalf("FromOptional(nil): %v", err)
	}
	if !IsNull(absent) {
		t.Errorf("absent = %s, want null", Diagnose(absent))
	}
	if got, err := ToOptional(absent, ToInt[int]); err != nil || got != nil {
		t.Errorf("ToOptional(null) = %v, %v, want nil", got, err)
	}
}

type point struct{ x, y int32 }

func (p point) MarshalValue() (Value, error) {
	return NewRecord(FromString("point"), FromInt(p.x), FromInt(p.y)), nil
}

func (p *point) UnmarshalValue(v Value) error {
	fields, err := OpenRecord(v, FromString("point"), 2)
	if err != nil {
		return err
	}
	if p.x, err = ToInt[int32](fields[0]); err != nil {
		return err
	}
	p.y, err = ToInt[int32](fields[1])
	return err
}

func TestValueOf(t *testing.T) {
	value, err := ValueOf(map[string]any{
		"b":     []any{int8(-1), uint16(2), "three", nil},
		"a":     true,
		"point": point{x: 1, y: -1},
		"f":     float32(0.5),
	})
	if err != nil {
		t.Fatalf("ValueOf: %v", err)
	}
	want := `{"a": true, "b": [-1, 2, "three", null], "f": 0.5_2, "point": [39("point"), 1, -1]}`
	if got := Diagnose(value); got != want {
		t.Errorf("ValueOf = %s, want %s", got, want)
	}

	if _, err := ValueOf(struct{}{}); !errors.Is(err, ErrConversion) {
		t.Errorf("ValueOf(struct{}): got %v, want ErrConversion", err)
	}
	if _, err := ValueOf(Key{}); !errors.Is(err, ErrKey) {
		t.Errorf("ValueOf(zero Key): got %v, want ErrKey", err)
	}
}
