// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package entry

import (
	"cmp"
	"slices"

	"github.com/bureau-foundation/storekit/lib/cbor"
)

// Differ computes and applies deltas between consecutive versions of a
// value.
type Differ[V, D any] interface {
	// Diff returns the delta that turns newer back into older.
	Diff(newer, older V) D

	// Merge applies delta to newer and returns the older value.
	Merge(newer V, delta D) V

	// Full returns a delta that carries all of value. It is used when
	// the newer side is a deletion and there is nothing to diff
	// against.
	Full(value V) D

	// Restore reverses Full.
	Restore(delta D) V
}

// Snapshot is the trivial Differ: each delta is a full copy of the
// older value.
type Snapshot[V any] struct{}

func (Snapshot[V]) Diff(newer, older V) V { return older }
func (Snapshot[V]) Merge(newer, delta V) V { return delta }
func (Snapshot[V]) Full(value V) V         { return value }
func (Snapshot[V]) Restore(delta V) V      { return delta }

// Version is one state of an entry: a value, or a deletion.
type Version[V any] struct {
	Value   V
	Seqno   uint64
	Deleted bool
}

// Delta is an older version in compact form. Deleted deltas carry no
// payload.
type Delta[D any] struct {
	Delta   D
	Seqno   uint64
	Deleted bool
}

// Entry is a key with its current version and older versions, newest
// delta first.
type Entry[V, D any] struct {
	Key     cbor.Key
	Current Version[V]
	Deltas  []Delta[D]
}

// New returns a live entry with no history.
func New[V, D any](key cbor.Key, value V, seqno uint64) Entry[V, D] {
	return Entry[V, D]{Key: key, Current: Version[V]{Value: value, Seqno: seqno}}
}

// NewDeleted returns a tombstone with no history.
func NewDeleted[V, D any](key cbor.Key, seqno uint64) Entry[V, D] {
	return Entry[V, D]{Key: key, Current: Version[V]{Seqno: seqno, Deleted: true}}
}

// Insert makes value the current version and pushes the previous one
// onto the delta chain.
func (e *Entry[V, D]) Insert(differ Differ[V, D], value V, seqno uint64) {
	var delta Delta[D]
	if e.Current.Deleted {
		delta = Delta[D]{Seqno: e.Current.Seqno, Deleted: true}
	} else {
		delta = Delta[D]{Delta: differ.Diff(value, e.Current.Value), Seqno: e.Current.Seqno}
	}
	e.Current = Version[V]{Value: value, Seqno: seqno}
	e.Deltas = slices.Insert(e.Deltas, 0, delta)
}

// Delete makes a tombstone the current version. A live previous value
// is kept in full on the delta chain.
func (e *Entry[V, D]) Delete(differ Differ[V, D], seqno uint64) {
	var delta Delta[D]
	if e.Current.Deleted {
		delta = Delta[D]{Seqno: e.Current.Seqno, Deleted: true}
	} else {
		delta = Delta[D]{Delta: differ.Full(e.Current.Value), Seqno: e.Current.Seqno}
	}
	e.Current = Version[V]{Seqno: seqno, Deleted: true}
	e.Deltas = slices.Insert(e.Deltas, 0, delta)
}

// Seqno returns the seqno of the current version.
func (e Entry[V, D]) Seqno() uint64 { return e.Current.Seqno }

// Value returns the current value, or false for a tombstone.
func (e Entry[V, D]) Value() (V, bool) {
	if e.Current.Deleted {
		var zero V
		return zero, false
	}
	return e.Current.Value, true
}

// IsDeleted reports whether the current version is a tombstone.
func (e Entry[V, D]) IsDeleted() bool { return e.Current.Deleted }

// Versions reconstructs every version of the entry, oldest first.
func (e Entry[V, D]) Versions(differ Differ[V, D]) []Version[V] {
	versions := make([]Version[V], 0, len(e.Deltas)+1)
	versions = append(versions, e.Current)

	newer := e.Current
	for _, delta := range e.Deltas {
		older := Version[V]{Seqno: delta.Seqno, Deleted: delta.Deleted}
		switch {
		case delta.Deleted:
		case newer.Deleted:
			older.Value = differ.Restore(delta.Delta)
		default:
			older.Value = differ.Merge(newer.Value, delta.Delta)
		}
		versions = append(versions, older)
		newer = older
	}

	slices.Reverse(versions)
	return versions
}

// Contains reports whether every version of other is also a version of
// e, comparing values with equal.
func (e Entry[V, D]) Contains(differ Differ[V, D], other Entry[V, D], equal func(a, b V) bool) bool {
	mine := e.Versions(differ)
	for _, theirs := range other.Versions(differ) {
		found := slices.ContainsFunc(mine, func(version Version[V]) bool {
			if version.Seqno != theirs.Seqno || version.Deleted != theirs.Deleted {
				return false
			}
			return version.Deleted || equal(version.Value, theirs.Value)
		})
		if !found {
			return false
		}
	}
	return true
}

// Merge combines the histories of e and other into one entry, ordered
// by seqno. A seqno present in both is kept once, from e. Entries for
// different keys are not merged: e is returned unchanged.
func (e Entry[V, D]) Merge(differ Differ[V, D], other Entry[V, D]) Entry[V, D] {
	if e.Key != other.Key {
		return e
	}

	versions := append(e.Versions(differ), other.Versions(differ)...)
	slices.SortStableFunc(versions, func(a, b Version[V]) int {
		return cmp.Compare(a.Seqno, b.Seqno)
	})
	versions = slices.CompactFunc(versions, func(a, b Version[V]) bool {
		return a.Seqno == b.Seqno
	})

	first := versions[0]
	var merged Entry[V, D]
	if first.Deleted {
		merged = NewDeleted[V, D](e.Key, first.Seqno)
	} else {
		merged = New[V, D](e.Key, first.Value, first.Seqno)
	}
	for _, version := range versions[1:] {
		if version.Deleted {
			merged.Delete(differ, version.Seqno)
		} else {
			merged.Insert(differ, version.Value, version.Seqno)
		}
	}
	return merged
}

// Purge drops the versions cutoff selects. It returns false when the
// whole entry is gone.
func (e Entry[V, D]) Purge(cutoff Cutoff) (Entry[V, D], bool) {
	switch cutoff.Kind {
	case CutoffMono:
		if e.Current.Deleted {
			return Entry[V, D]{}, false
		}
		e.Deltas = nil
		return e, true

	case CutoffTombstone:
		if e.Current.Deleted && cutoff.Bound.Covers(e.Current.Seqno) {
			return Entry[V, D]{}, false
		}
		return e, true

	case CutoffLsm:
		bound := cutoff.Bound
		if bound.Kind != Unbounded && bound.Seqno == 0 {
			return e, true
		}
		if bound.Covers(e.Current.Seqno) {
			return Entry[V, D]{}, false
		}
		// Deltas are newest first: keep the prefix after the cutoff.
		keep := 0
		for keep < len(e.Deltas) && !bound.Covers(e.Deltas[keep].Seqno) {
			keep++
		}
		e.Deltas = slices.Clone(e.Deltas[:keep])
		return e, true
	}
	return e, true
}
