// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cbor

// Records are how structured types travel through the value model: an
// array whose first element is an Identifier tag naming the type,
// followed by the fields in declaration order. Tagged unions add the
// variant name as a text element after the identifier. Decoders check
// the identifier, the variant name and the field count strictly.

// NewRecord returns [39(id), fields...].
func NewRecord(id Value, fields ...Value) Array {
	items := make([]Value, 0, len(fields)+1)
	items = append(items, NewTagged(NewIdentifier(id)))
	items = append(items, fields...)
	return NewArray(items...)
}

// OpenRecord checks that v is a record for id with exactly arity fields
// and returns the fields.
func OpenRecord(v Value, id Value, arity int) ([]Value, error) {
	fields, err := openIdentified(v, id)
	if err != nil {
		return nil, err
	}
	if err := CheckArity(Diagnose(id), fields, arity); err != nil {
		return nil, err
	}
	return fields, nil
}

// NewVariant returns [39(id), name, fields...] for one variant of a
// tagged union.
func NewVariant(id Value, name string, fields ...Value) Array {
	items := make([]Value, 0, len(fields)+2)
	items = append(items, NewTagged(NewIdentifier(id)), NewText(name))
	items = append(items, fields...)
	return NewArray(items...)
}

// OpenVariant checks that v is a variant record for id and returns the
// variant name and its fields. Callers dispatch on the name and check
// the field count with CheckArity.
func OpenVariant(v Value, id Value) (string, []Value, error) {
	items, err := openIdentified(v, id)
	if err != nil {
		return "", nil, err
	}
	if len(items) == 0 {
		return "", nil, conversionf("variant record %s has no discriminant", Diagnose(id))
	}
	name, err := ToString(items[0])
	if err != nil {
		return "", nil, conversionf("variant record %s: bad discriminant: %v", Diagnose(id), err)
	}
	return name, items[1:], nil
}

// CheckArity fails unless fields holds exactly n values.
func CheckArity(name string, fields []Value, n int) error {
	if len(fields) != n {
		return conversionf("%s: arity %d, want %d", name, len(fields), n)
	}
	return nil
}

func openIdentified(v Value, id Value) ([]Value, error) {
	array, ok := v.(Array)
	if !ok {
		return nil, mismatch(v, "record")
	}
	if len(array.Items) == 0 {
		return nil, conversionf("empty record for %s", Diagnose(id))
	}
	tagged, ok := array.Items[0].(Tagged)
	if !ok || !tagged.Tag.IsIdentifier() {
		return nil, conversionf("record for %s has no identifier", Diagnose(id))
	}
	if !sameIdentifier(tagged.Tag.Payload(), id) {
		return nil, conversionf("record identifier %s, want %s", Diagnose(tagged.Tag.Payload()), Diagnose(id))
	}
	return array.Items[1:], nil
}

// sameIdentifier compares identifiers by content, ignoring the width
// class a decoder happened to see.
func sameIdentifier(a, b Value) bool {
	encodedA, errA := Marshal(a)
	encodedB, errB := Marshal(b)
	return errA == nil && errB == nil && string(encodedA) == string(encodedB)
}
