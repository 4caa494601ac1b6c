// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cbor

import (
	"fmt"
	"math"
	"unicode/utf8"
)

// ValueMarshaler is implemented by types that can convert themselves
// into the value model.
type ValueMarshaler interface {
	MarshalValue() (Value, error)
}

// ValueUnmarshaler is implemented by types that can populate
// themselves from the value model. It is separate from ValueMarshaler
// so write-only or read-only types need implement only one side.
type ValueUnmarshaler interface {
	UnmarshalValue(Value) error
}

// Integer is every Go integer type. FromInt and ToInt handle all of
// them with one routine parameterized over width and signedness.
type Integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr
}

// FromInt converts n to major type 0 when non-negative, else to major
// type 1 with magnitude -(n+1), the same layout IntKey uses.
func FromInt[T Integer](n T) Value {
	if n < 0 {
		return NewNint(uint64(-(int64(n) + 1)))
	}
	return NewUint(uint64(n))
}

// ToInt converts a major type 0 or 1 value to T, failing when the value
// is out of T's range.
func ToInt[T Integer](v Value) (T, error) {
	var zero T
	switch v := v.(type) {
	case Uint:
		t := T(v.N)
		if t < 0 || uint64(t) != v.N {
			return zero, conversionf("%d overflows %T", v.N, zero)
		}
		return t, nil
	case Nint:
		if v.N > math.MaxInt64 {
			return zero, conversionf("%s overflows %T", nintString(v.N), zero)
		}
		n := -int64(v.N) - 1
		t := T(n)
		if t >= 0 || int64(t) != n {
			return zero, conversionf("%d overflows %T", n, zero)
		}
		return t, nil
	default:
		return zero, mismatch(v, "integer")
	}
}

// FromBool converts b to a true or false simple value.
func FromBool(b bool) Value {
	if b {
		return NewSimple(True)
	}
	return NewSimple(False)
}

// ToBool converts a true or false simple value.
func ToBool(v Value) (bool, error) {
	if simple, ok := v.(Simple); ok {
		switch simple.Value.Kind {
		case SimpleTrue:
			return true, nil
		case SimpleFalse:
			return false, nil
		}
	}
	return false, mismatch(v, "bool")
}

// FromFloat32 converts f to an F32 simple value.
func FromFloat32(f float32) Value { return NewSimple(F32(f)) }

// ToFloat32 converts an F32 simple value. F64 values are not narrowed.
func ToFloat32(v Value) (float32, error) {
	if simple, ok := v.(Simple); ok && simple.Value.Kind == SimpleF32 {
		return simple.Value.Float32(), nil
	}
	return 0, mismatch(v, "float32")
}

// FromFloat64 converts f to an F64 simple value.
func FromFloat64(f float64) Value { return NewSimple(F64(f)) }

// ToFloat64 converts an F64 simple value.
func ToFloat64(v Value) (float64, error) {
	if simple, ok := v.(Simple); ok && simple.Value.Kind == SimpleF64 {
		return simple.Value.Float64(), nil
	}
	return 0, mismatch(v, "float64")
}

// FromString converts s to a text string.
func FromString(s string) Value { return NewText(s) }

// ToString converts a text string, checking that it is valid UTF-8.
func ToString(v Value) (string, error) {
	text, ok := v.(Text)
	if !ok {
		return "", mismatch(v, "string")
	}
	if !utf8.Valid(text.Data) {
		return "", conversionf("text is not valid utf-8")
	}
	return string(text.Data), nil
}

// FromBytes is the byte-buffer entry point: it converts b to a major
// type 2 byte string. The generic sequence path, FromSlice, instead
// produces an array of integers; callers choose which they mean.
func FromBytes(b []byte) Value { return NewBytes(b) }

// ToBytes converts a major type 2 byte string.
func ToBytes(v Value) ([]byte, error) {
	b, ok := v.(Bytes)
	if !ok {
		return nil, mismatch(v, "bytes")
	}
	return b.Data, nil
}

// FromSlice converts items into an array using convert on each element.
func FromSlice[T any](items []T, convert func(T) (Value, error)) (Value, error) {
	values := make([]Value, 0, len(items))
	for i, item := range items {
		value, err := convert(item)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		values = append(values, value)
	}
	return NewArray(values...), nil
}

// ToSlice converts an array into a slice using convert on each element.
func ToSlice[T any](v Value, convert func(Value) (T, error)) ([]T, error) {
	array, ok := v.(Array)
	if !ok {
		return nil, mismatch(v, "slice")
	}
	items := make([]T, 0, len(array.Items))
	for i, value := range array.Items {
		item, err := convert(value)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		items = append(items, item)
	}
	return items, nil
}

// ToArray is ToSlice for fixed-arity arrays: the array must hold
// exactly n elements.
func ToArray[T any](v Value, n int, convert func(Value) (T, error)) ([]T, error) {
	array, ok := v.(Array)
	if !ok {
		return nil, mismatch(v, "array")
	}
	if len(array.Items) != n {
		return nil, conversionf("array arity %d, want %d", len(array.Items), n)
	}
	return ToSlice(v, convert)
}

// FromOptional converts nil to null and a present value to its own
// encoding. A present value that itself encodes as null is therefore
// indistinguishable from absence.
func FromOptional[T any](p *T, convert func(T) (Value, error)) (Value, error) {
	if p == nil {
		return NewSimple(Null), nil
	}
	return convert(*p)
}

// ToOptional converts null to nil and anything else through convert.
func ToOptional[T any](v Value, convert func(Value) (T, error)) (*T, error) {
	if simple, ok := v.(Simple); ok && simple.Value.Kind == SimpleNull {
		return nil, nil
	}
	item, err := convert(v)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// IsNull reports whether v is the null simple value.
func IsNull(v Value) bool {
	simple, ok := v.(Simple)
	return ok && simple.Value.Kind == SimpleNull
}

// ToValues returns the elements of an array.
func ToValues(v Value) ([]Value, error) {
	array, ok := v.(Array)
	if !ok {
		return nil, mismatch(v, "array")
	}
	return array.Items, nil
}

// ToPairs returns the pairs of a map.
func ToPairs(v Value) ([]Pair, error) {
	m, ok := v.(Map)
	if !ok {
		return nil, mismatch(v, "map")
	}
	return m.Pairs, nil
}

// ValueOf converts common Go values into the value model: integers,
// floats, bool, string, nil (null), []byte (via the generic sequence
// path, as an array of integers), []any, []Value, map[string]any
// (pairs sorted by key), Key, Value and ValueMarshaler.
func ValueOf(x any) (Value, error) {
	switch x := x.(type) {
	case nil:
		return NewSimple(Null), nil
	case Value:
		return x, nil
	case ValueMarshaler:
		return x.MarshalValue()
	case Key:
		if x.Kind() == 0 {
			return nil, keyf("zero Key")
		}
		return x.Value(), nil
	case bool:
		return FromBool(x), nil
	case int:
		return FromInt(x), nil
	case int8:
		return FromInt(x), nil
	case int16:
		return FromInt(x), nil
	case int32:
		return FromInt(x), nil
	case int64:
		return FromInt(x), nil
	case uint:
		return FromInt(x), nil
	case uint8:
		return FromInt(x), nil
	case uint16:
		return FromInt(x), nil
	case uint32:
		return FromInt(x), nil
	case uint64:
		return FromInt(x), nil
	case float32:
		return FromFloat32(x), nil
	case float64:
		return FromFloat64(x), nil
	case string:
		return FromString(x), nil
	case []byte:
		return FromSlice(x, func(b byte) (Value, error) { return FromInt(b), nil })
	case []Value:
		return NewArray(x...), nil
	case []any:
		return FromSlice(x, ValueOf)
	case map[string]any:
		pairs := make([]Pair, 0, len(x))
		for name, item := range x {
			value, err := ValueOf(item)
			if err != nil {
				return nil, fmt.Errorf("map key %q: %w", name, err)
			}
			pairs = append(pairs, Pair{Key: TextKey(name), Value: value})
		}
		SortPairs(pairs)
		return NewMap(pairs...), nil
	default:
		return nil, conversionf("no conversion for %T", x)
	}
}

func mismatch(v Value, want string) error {
	if v == nil {
		return conversionf("cannot convert nil value to %s", want)
	}
	return conversionf("cannot convert %s to %s", v.Major(), want)
}
