// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package entry

import "fmt"

// BoundKind says how a Bound treats its seqno.
type BoundKind uint8

const (
	// Unbounded covers every seqno.
	Unbounded BoundKind = iota
	// Included covers seqnos at or below the bound.
	Included
	// Excluded covers seqnos strictly below the bound.
	Excluded
)

// Bound is an upper limit on the seqnos a Cutoff purges.
type Bound struct {
	Kind  BoundKind
	Seqno uint64
}

// IncludedBound returns a Bound covering seqno and everything older.
func IncludedBound(seqno uint64) Bound { return Bound{Kind: Included, Seqno: seqno} }

// ExcludedBound returns a Bound covering everything older than seqno.
func ExcludedBound(seqno uint64) Bound { return Bound{Kind: Excluded, Seqno: seqno} }

// UnboundedBound returns a Bound covering every seqno.
func UnboundedBound() Bound { return Bound{Kind: Unbounded} }

// Covers reports whether seqno falls inside the bound.
func (b Bound) Covers(seqno uint64) bool {
	switch b.Kind {
	case Included:
		return seqno <= b.Seqno
	case Excluded:
		return seqno < b.Seqno
	default:
		return true
	}
}

func (b Bound) String() string {
	switch b.Kind {
	case Included:
		return fmt.Sprintf("..=%d", b.Seqno)
	case Excluded:
		return fmt.Sprintf("..%d", b.Seqno)
	default:
		return ".."
	}
}

// CutoffKind selects a compaction behavior.
type CutoffKind uint8

const (
	// CutoffMono deduplicates: tombstones go away and live entries
	// lose their history. For snapshots that keep no old versions.
	CutoffMono CutoffKind = iota

	// CutoffTombstone purges only tombstones whose seqno the bound
	// covers. Live entries and history are untouched.
	CutoffTombstone

	// CutoffLsm purges entries whose current version the bound covers,
	// and trims older versions the bound covers from the rest.
	CutoffLsm
)

// Cutoff describes what compaction may discard.
type Cutoff struct {
	Kind  CutoffKind
	Bound Bound
}

// Mono returns a deduplicating cutoff.
func Mono() Cutoff { return Cutoff{Kind: CutoffMono} }

// Tombstone returns a tombstone-compaction cutoff.
func Tombstone(bound Bound) Cutoff { return Cutoff{Kind: CutoffTombstone, Bound: bound} }

// Lsm returns an lsm-compaction cutoff.
func Lsm(bound Bound) Cutoff { return Cutoff{Kind: CutoffLsm, Bound: bound} }

func (c Cutoff) String() string {
	switch c.Kind {
	case CutoffMono:
		return "mono"
	case CutoffTombstone:
		return "tombstone(" + c.Bound.String() + ")"
	case CutoffLsm:
		return "lsm(" + c.Bound.String() + ")"
	default:
		return fmt.Sprintf("cutoff(%d)", c.Kind)
	}
}
