// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cbor

import (
	"bytes"
	"io"
)

// RecursionLimit bounds how deeply values may nest, counting the
// outermost value as depth 1. Both Encode and Decode enforce it.
const RecursionLimit = 1000

// Encode writes v to w and returns the number of bytes written.
//
// Definite lengths and magnitudes are always written in the minimal
// width class, whatever Info the value carries. A Bytes, Text, Array
// or Map whose Info is InfoIndefinite is written in streaming form and
// terminated by a break. Map pairs are written in stored order.
func Encode(w io.Writer, v Value) (int, error) {
	return encode(w, v, 1)
}

// Marshal encodes v into a new byte slice.
func Marshal(v Value) ([]byte, error) {
	var buffer bytes.Buffer
	if _, err := Encode(&buffer, v); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

func encode(w io.Writer, v Value, depth int) (int, error) {
	if depth > RecursionLimit {
		return 0, structuralf("encode recursion limit %d exceeded", RecursionLimit)
	}

	switch v := v.(type) {
	case Uint:
		return encodeHead(w, MajorUint, v.N)
	case Nint:
		return encodeHead(w, MajorNint, v.N)
	case Bytes:
		return encodeString(w, MajorBytes, v.Info, v.Data, depth)
	case Text:
		return encodeString(w, MajorText, v.Info, v.Data, depth)
	case Array:
		return encodeArray(w, v, depth)
	case Map:
		return encodeMap(w, v, depth)
	case Tagged:
		written, err := encodeHeader(w, MajorTag, InfoFor(v.Tag.Number()))
		if err != nil {
			return written, err
		}
		more, err := encodeTag(w, v.Tag, depth)
		return written + more, err
	case Simple:
		return encodeSimple(w, v.Value)
	case Raw:
		if len(v.data) == 0 {
			return 0, conversionf("raw value is empty")
		}
		return write(w, v.data)
	case nil:
		return 0, conversionf("cannot encode nil value")
	default:
		return 0, conversionf("cannot encode %T", v)
	}
}

// checkStreamDepth rejects a streaming item whose chunks and Break
// would sit past the recursion limit; decode reads them one level down.
func checkStreamDepth(depth int) error {
	if depth+1 > RecursionLimit {
		return structuralf("encode recursion limit %d exceeded by indefinite-length contents", RecursionLimit)
	}
	return nil
}

func encodeString(w io.Writer, major Major, info Info, data []byte, depth int) (int, error) {
	if info != InfoIndefinite {
		written, err := encodeHead(w, major, uint64(len(data)))
		if err != nil {
			return written, err
		}
		payload, err := write(w, data)
		return written + payload, err
	}

	// Streaming form: one definite chunk, skipped when empty.
	if err := checkStreamDepth(depth); err != nil {
		return 0, err
	}
	written, err := encodeHeader(w, major, InfoIndefinite)
	if err != nil {
		return written, err
	}
	if len(data) > 0 {
		chunk, err := encodeString(w, major, 0, data, depth+1)
		written += chunk
		if err != nil {
			return written, err
		}
	}
	end, err := encodeSimple(w, Break)
	return written + end, err
}

func encodeArray(w io.Writer, array Array, depth int) (int, error) {
	indefinite := array.Info == InfoIndefinite
	var written int
	var err error
	if indefinite {
		if err := checkStreamDepth(depth); err != nil {
			return 0, err
		}
		written, err = encodeHeader(w, MajorArray, InfoIndefinite)
	} else {
		written, err = encodeHead(w, MajorArray, uint64(len(array.Items)))
	}
	if err != nil {
		return written, err
	}

	for _, item := range array.Items {
		if indefinite && isBreak(item) {
			return written, conversionf("break inside an indefinite array")
		}
		n, err := encode(w, item, depth+1)
		written += n
		if err != nil {
			return written, err
		}
	}

	if indefinite {
		end, err := encodeSimple(w, Break)
		return written + end, err
	}
	return written, nil
}

func encodeMap(w io.Writer, m Map, depth int) (int, error) {
	indefinite := m.Info == InfoIndefinite
	var written int
	var err error
	if indefinite {
		if err := checkStreamDepth(depth); err != nil {
			return 0, err
		}
		written, err = encodeHeader(w, MajorMap, InfoIndefinite)
	} else {
		written, err = encodeHead(w, MajorMap, uint64(len(m.Pairs)))
	}
	if err != nil {
		return written, err
	}

	for _, pair := range m.Pairs {
		key := pair.Key.Value()
		if key == nil {
			return written, keyf("map key is the zero Key")
		}
		n, err := encode(w, key, depth+1)
		written += n
		if err != nil {
			return written, err
		}
		if indefinite && isBreak(pair.Value) {
			return written, conversionf("break inside an indefinite map")
		}
		n, err = encode(w, pair.Value, depth+1)
		written += n
		if err != nil {
			return written, err
		}
	}

	if indefinite {
		end, err := encodeSimple(w, Break)
		return written + end, err
	}
	return written, nil
}
