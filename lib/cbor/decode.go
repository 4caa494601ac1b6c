// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cbor

import (
	"bytes"
	"io"
	"math"
)

// Decode reads one value from r and returns it with the number of
// bytes consumed. Any short read, reserved info code, recursion-limit
// breach, malformed indefinite item or non-key-capable map key fails
// the whole decode.
func Decode(r io.Reader) (Value, int, error) {
	return decode(r, 1)
}

// Unmarshal decodes data, which must hold exactly one item.
func Unmarshal(data []byte) (Value, error) {
	value, rest, err := UnmarshalFirst(data)
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, structuralf("%d trailing bytes after item", len(rest))
	}
	return value, nil
}

// UnmarshalFirst decodes the first item in data and returns the bytes
// that follow it.
func UnmarshalFirst(data []byte) (Value, []byte, error) {
	value, n, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, nil, err
	}
	return value, data[n:], nil
}

// ReadRaw reads one complete item from r without keeping its parsed
// form, returning it as a Raw value for later passthrough. The item is
// still fully validated.
func ReadRaw(r io.Reader) (Raw, int, error) {
	var captured bytes.Buffer
	_, n, err := Decode(io.TeeReader(r, &captured))
	if err != nil {
		return Raw{}, n, err
	}
	raw, err := NewRaw(captured.Bytes())
	return raw, n, err
}

func decode(r io.Reader, depth int) (Value, int, error) {
	if depth > RecursionLimit {
		return nil, 0, structuralf("decode recursion limit %d exceeded", RecursionLimit)
	}

	major, info, read, err := decodeHeader(r)
	if err != nil {
		return nil, read, err
	}

	var value Value
	var n int
	switch major {
	case MajorUint, MajorNint:
		if info == InfoIndefinite {
			return nil, read, structuralf("indefinite length is not valid for %s", major)
		}
		var magnitude uint64
		magnitude, n, err = decodeAdditional(info, r)
		if major == MajorUint {
			value = Uint{Info: info, N: magnitude}
		} else {
			value = Nint{Info: info, N: magnitude}
		}
	case MajorBytes, MajorText:
		value, n, err = decodeString(r, major, info, depth)
	case MajorArray:
		value, n, err = decodeArray(r, info, depth)
	case MajorMap:
		value, n, err = decodeMap(r, info, depth)
	case MajorTag:
		var tag Tag
		tag, n, err = decodeTag(info, r, depth)
		value = Tagged{Info: info, Tag: tag}
	default:
		var simple SimpleValue
		simple, n, err = decodeSimple(info, r)
		value = Simple{Info: info, Value: simple}
	}
	if err != nil {
		return nil, read + n, err
	}
	return value, read + n, nil
}

func decodeString(r io.Reader, major Major, info Info, depth int) (Value, int, error) {
	var data []byte
	var read int

	if info == InfoIndefinite {
		data = []byte{}
		for {
			chunk, n, err := decode(r, depth+1)
			read += n
			if err != nil {
				return nil, read, err
			}
			if isBreak(chunk) {
				break
			}
			part, ok := definiteChunk(chunk, major)
			if !ok {
				return nil, read, structuralf("expected definite %s chunk, got %s", major, chunk.Major())
			}
			data = append(data, part...)
		}
	} else {
		length, n, err := decodeAdditional(info, r)
		read += n
		if err != nil {
			return nil, read, err
		}
		data, n, err = readPayload(r, length)
		read += n
		if err != nil {
			return nil, read, err
		}
	}

	if major == MajorBytes {
		return Bytes{Info: info, Data: data}, read, nil
	}
	return Text{Info: info, Data: data}, read, nil
}

// definiteChunk returns the payload of chunk if it is a definite-length
// string of the given major type.
func definiteChunk(chunk Value, major Major) ([]byte, bool) {
	switch chunk := chunk.(type) {
	case Bytes:
		return chunk.Data, major == MajorBytes && chunk.Info != InfoIndefinite
	case Text:
		return chunk.Data, major == MajorText && chunk.Info != InfoIndefinite
	}
	return nil, false
}

// payloadStep caps the up-front allocation for a string payload, so a
// forged length cannot allocate more than the input can supply.
const payloadStep = 64 << 10

func readPayload(r io.Reader, length uint64) ([]byte, int, error) {
	if length > math.MaxInt32 {
		return nil, 0, structuralf("string length %d too large", length)
	}
	if length <= payloadStep {
		data := make([]byte, length)
		n, err := io.ReadFull(r, data)
		if err != nil {
			return nil, n, ioError("reading string payload", err)
		}
		return data, n, nil
	}

	var buffer bytes.Buffer
	buffer.Grow(payloadStep)
	copied, err := io.CopyN(&buffer, r, int64(length))
	if err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, int(copied), ioError("reading string payload", err)
	}
	return buffer.Bytes(), int(copied), nil
}

func decodeArray(r io.Reader, info Info, depth int) (Value, int, error) {
	if info == InfoIndefinite {
		items := []Value{}
		var read int
		for {
			item, n, err := decode(r, depth+1)
			read += n
			if err != nil {
				return nil, read, err
			}
			if isBreak(item) {
				return Array{Info: info, Items: items}, read, nil
			}
			items = append(items, item)
		}
	}

	count, read, err := decodeAdditional(info, r)
	if err != nil {
		return nil, read, err
	}
	items := make([]Value, 0, min(count, 1024))
	for range count {
		item, n, err := decode(r, depth+1)
		read += n
		if err != nil {
			return nil, read, err
		}
		items = append(items, item)
	}
	return Array{Info: info, Items: items}, read, nil
}

func decodeMap(r io.Reader, info Info, depth int) (Value, int, error) {
	indefinite := info == InfoIndefinite
	var count uint64
	var read int
	if !indefinite {
		var err error
		count, read, err = decodeAdditional(info, r)
		if err != nil {
			return nil, read, err
		}
	}

	pairs := make([]Pair, 0, min(count, 1024))
	for i := uint64(0); indefinite || i < count; i++ {
		keyValue, n, err := decode(r, depth+1)
		read += n
		if err != nil {
			return nil, read, err
		}
		// In streaming mode the terminator sits where the next key
		// would start.
		if indefinite && isBreak(keyValue) {
			return Map{Info: info, Pairs: pairs}, read, nil
		}
		value, n, err := decode(r, depth+1)
		read += n
		if err != nil {
			return nil, read, err
		}
		if indefinite && isBreak(value) {
			return nil, read, structuralf("break in map value position")
		}
		key, err := KeyFromValue(keyValue)
		if err != nil {
			return nil, read, err
		}
		pairs = append(pairs, Pair{Key: key, Value: value})
	}
	return Map{Info: info, Pairs: pairs}, read, nil
}
