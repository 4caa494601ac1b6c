// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"fmt"
	"reflect"

	fxcbor "github.com/fxamacker/cbor/v2"

	"github.com/bureau-foundation/storekit/lib/cbor"
)

// encMode is Core Deterministic Encoding (RFC 8949 §4.2) with float
// shortening disabled: the value model has no half-precision floats, so
// every float must stay at the width Go gave it.
var encMode fxcbor.EncMode

// decMode decodes into map[string]any for any-typed targets. Unknown
// struct fields are ignored.
var decMode fxcbor.DecMode

func init() {
	var err error

	encOptions := fxcbor.CoreDetEncOptions()
	encOptions.ShortestFloat = fxcbor.ShortestFloatNone
	encOptions.TextMarshaler = fxcbor.TextMarshalerTextString
	encMode, err = encOptions.EncMode()
	if err != nil {
		panic("codec: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = fxcbor.DecOptions{
		DefaultMapType:  reflect.TypeOf(map[string]any(nil)),
		TextUnmarshaler: fxcbor.TextUnmarshalerTextString,
	}.DecMode()
	if err != nil {
		panic("codec: CBOR decoder initialization failed: " + err.Error())
	}
}

// Marshal encodes v with the deterministic encoder.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes data into v.
func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}

// FromNative converts an arbitrary Go value into the value model by
// encoding it with the deterministic encoder and decoding the bytes
// with the storekit codec. Struct fields follow fxamacker's cbor and
// json tag conventions. Values that need encodings the codec rejects,
// such as undefined, fail with the codec's error.
func FromNative(v any) (cbor.Value, error) {
	data, err := encMode.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding %T: %w", v, err)
	}
	value, err := cbor.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("decoding %T into the value model: %w", v, err)
	}
	return value, nil
}

// ToNative populates target, which must be a non-nil pointer, from a
// value tree.
func ToNative(value cbor.Value, target any) error {
	data, err := cbor.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding value: %w", err)
	}
	if err := decMode.Unmarshal(data, target); err != nil {
		return fmt.Errorf("decoding into %T: %w", target, err)
	}
	return nil
}

// Diagnose returns fxamacker's diagnostic notation (RFC 8949 §8) for
// the entire contents of data. It is independent of cbor.Diagnose and
// serves as a cross-check.
func Diagnose(data []byte) (string, error) {
	return fxcbor.Diagnose(data)
}

// DiagnoseFirst returns the diagnostic notation for the first item in
// data and the bytes that follow it.
func DiagnoseFirst(data []byte) (string, []byte, error) {
	return fxcbor.DiagnoseFirst(data)
}
