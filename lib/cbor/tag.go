// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cbor

import "io"

// IdentifierTag is the tag number that wraps a type identifier ahead of
// a record's fields.
const IdentifierTag = 39

// Tag is a major type 6 value: either a bare tag number whose payload
// the caller encodes separately, or an Identifier wrapping exactly one
// nested Value.
type Tag struct {
	number     uint64
	identifier Value
}

// NewTag returns a generic tag. The engine treats the number as opaque.
// Number 39 is reserved for identifiers and fails to encode.
func NewTag(number uint64) Tag {
	return Tag{number: number}
}

// NewIdentifier returns an Identifier tag wrapping id.
func NewIdentifier(id Value) Tag {
	return Tag{number: IdentifierTag, identifier: id}
}

// Number returns the tag number.
func (t Tag) Number() uint64 { return t.number }

// IsIdentifier reports whether the tag wraps a nested identifier value.
func (t Tag) IsIdentifier() bool { return t.identifier != nil }

// Payload returns the nested identifier value, or nil for generic tags.
func (t Tag) Payload() Value { return t.identifier }

// encodeTag writes the tag number and, for identifiers, the nested
// value. The header byte has already been written by the caller.
func encodeTag(w io.Writer, t Tag, depth int) (int, error) {
	if !t.IsIdentifier() && t.number == IdentifierTag {
		return 0, conversionf("tag %d is reserved for identifiers", IdentifierTag)
	}
	written, err := encodeAdditional(w, t.number)
	if err != nil || !t.IsIdentifier() {
		return written, err
	}
	nested, err := encode(w, t.identifier, depth+1)
	return written + nested, err
}

// decodeTag reads the tag number selected by info and, for tag 39, the
// nested identifier value.
func decodeTag(info Info, r io.Reader, depth int) (Tag, int, error) {
	if info == InfoIndefinite {
		return Tag{}, 0, structuralf("indefinite length is not valid for tags")
	}
	number, read, err := decodeAdditional(info, r)
	if err != nil {
		return Tag{}, read, err
	}
	if number != IdentifierTag {
		return NewTag(number), read, nil
	}
	id, nested, err := decode(r, depth+1)
	if err != nil {
		return Tag{}, read + nested, err
	}
	return NewIdentifier(id), read + nested, nil
}
