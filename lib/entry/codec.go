// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package entry

import (
	"fmt"

	"github.com/bureau-foundation/storekit/lib/cbor"
)

// Record identifiers. Changing them breaks every stored entry.
var (
	entryID   = cbor.FromString("entry/1")
	versionID = cbor.FromString("version/1")
	deltaID   = cbor.FromString("delta/1")
)

// Variant names shared by versions and deltas.
const (
	variantUpsert = "U"
	variantDelete = "D"
)

// Codec converts entries to and from the value model. Entries encode
// as
//
//	[39("entry/1"), key, version, [delta...]]
//
// where version is [39("version/1"), "U", value, seqno] or
// [39("version/1"), "D", seqno], and each delta is the same shape
// tagged "delta/1".
type Codec[V, D any] struct {
	FromValue func(V) (cbor.Value, error)
	ToValue   func(cbor.Value) (V, error)
	FromDelta func(D) (cbor.Value, error)
	ToDelta   func(cbor.Value) (D, error)
}

// SnapshotCodec returns a Codec for entries whose deltas are full
// values, as produced by Snapshot.
func SnapshotCodec[V any](from func(V) (cbor.Value, error), to func(cbor.Value) (V, error)) Codec[V, V] {
	return Codec[V, V]{FromValue: from, ToValue: to, FromDelta: from, ToDelta: to}
}

// ValueCodec stores cbor.Value payloads unchanged.
func ValueCodec() Codec[cbor.Value, cbor.Value] {
	identity := func(v cbor.Value) (cbor.Value, error) { return v, nil }
	return SnapshotCodec(identity, identity)
}

// Marshal converts e to its record form.
func (c Codec[V, D]) Marshal(e Entry[V, D]) (cbor.Value, error) {
	if e.Key.Kind() == 0 {
		return nil, fmt.Errorf("entry has no key")
	}

	current, err := marshalVersion(versionID, e.Current.Deleted, e.Current.Seqno, func() (cbor.Value, error) {
		return c.FromValue(e.Current.Value)
	})
	if err != nil {
		return nil, fmt.Errorf("entry %s: current version: %w", e.Key, err)
	}

	deltas := make([]cbor.Value, 0, len(e.Deltas))
	for i, delta := range e.Deltas {
		value, err := marshalVersion(deltaID, delta.Deleted, delta.Seqno, func() (cbor.Value, error) {
			return c.FromDelta(delta.Delta)
		})
		if err != nil {
			return nil, fmt.Errorf("entry %s: delta %d: %w", e.Key, i, err)
		}
		deltas = append(deltas, value)
	}

	return cbor.NewRecord(entryID, e.Key.Value(), current, cbor.NewArray(deltas...)), nil
}

// Unmarshal converts a record back into an entry. Any deviation from
// the record layout is an error.
func (c Codec[V, D]) Unmarshal(v cbor.Value) (Entry[V, D], error) {
	var e Entry[V, D]

	fields, err := cbor.OpenRecord(v, entryID, 3)
	if err != nil {
		return e, err
	}
	if e.Key, err = cbor.KeyFromValue(fields[0]); err != nil {
		return e, fmt.Errorf("entry key: %w", err)
	}

	var payload cbor.Value
	e.Current.Deleted, e.Current.Seqno, payload, err = unmarshalVersion(versionID, fields[1])
	if err != nil {
		return e, fmt.Errorf("entry %s: current version: %w", e.Key, err)
	}
	if payload != nil {
		if e.Current.Value, err = c.ToValue(payload); err != nil {
			return e, fmt.Errorf("entry %s: current value: %w", e.Key, err)
		}
	}

	items, err := cbor.ToValues(fields[2])
	if err != nil {
		return e, fmt.Errorf("entry %s: deltas: %w", e.Key, err)
	}
	if len(items) > 0 {
		e.Deltas = make([]Delta[D], 0, len(items))
	}
	for i, item := range items {
		var delta Delta[D]
		delta.Deleted, delta.Seqno, payload, err = unmarshalVersion(deltaID, item)
		if err != nil {
			return e, fmt.Errorf("entry %s: delta %d: %w", e.Key, i, err)
		}
		if payload != nil {
			if delta.Delta, err = c.ToDelta(payload); err != nil {
				return e, fmt.Errorf("entry %s: delta %d payload: %w", e.Key, i, err)
			}
		}
		e.Deltas = append(e.Deltas, delta)
	}
	return e, nil
}

// Encode marshals e and encodes it to bytes.
func (c Codec[V, D]) Encode(e Entry[V, D]) ([]byte, error) {
	value, err := c.Marshal(e)
	if err != nil {
		return nil, err
	}
	return cbor.Marshal(value)
}

// Decode decodes the first entry in data and returns the bytes that
// follow it.
func (c Codec[V, D]) Decode(data []byte) (Entry[V, D], []byte, error) {
	value, rest, err := cbor.UnmarshalFirst(data)
	if err != nil {
		return Entry[V, D]{}, nil, err
	}
	e, err := c.Unmarshal(value)
	return e, rest, err
}

func marshalVersion(id cbor.Value, deleted bool, seqno uint64, payload func() (cbor.Value, error)) (cbor.Value, error) {
	if deleted {
		return cbor.NewVariant(id, variantDelete, cbor.FromInt(seqno)), nil
	}
	value, err := payload()
	if err != nil {
		return nil, err
	}
	return cbor.NewVariant(id, variantUpsert, value, cbor.FromInt(seqno)), nil
}

// unmarshalVersion returns the payload as nil for deletions.
func unmarshalVersion(id cbor.Value, v cbor.Value) (bool, uint64, cbor.Value, error) {
	name, fields, err := cbor.OpenVariant(v, id)
	if err != nil {
		return false, 0, nil, err
	}
	switch name {
	case variantUpsert:
		if err := cbor.CheckArity(name, fields, 2); err != nil {
			return false, 0, nil, err
		}
		seqno, err := cbor.ToInt[uint64](fields[1])
		if err != nil {
			return false, 0, nil, fmt.Errorf("seqno: %w", err)
		}
		return false, seqno, fields[0], nil
	case variantDelete:
		if err := cbor.CheckArity(name, fields, 1); err != nil {
			return false, 0, nil, err
		}
		seqno, err := cbor.ToInt[uint64](fields[0])
		if err != nil {
			return false, 0, nil, fmt.Errorf("seqno: %w", err)
		}
		return true, seqno, nil, nil
	default:
		return false, 0, nil, fmt.Errorf("unknown variant %q", name)
	}
}
