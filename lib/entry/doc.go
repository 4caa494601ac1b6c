// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package entry implements versioned key/value entries: the unit stored
// in segment files.
//
// An [Entry] holds the current [Version] of a key and a chain of older
// versions encoded as [Delta] values, newest first. A [Differ] computes
// deltas between consecutive values and reconstructs older values from
// them:
//
//	delta = Diff(newer, older)
//	older = Merge(newer, delta)
//
// Deletions are versions too. Deleting a live entry pushes the full
// previous value onto the chain ([Differ].Full) so it can be restored
// later ([Differ].Restore).
//
// Every mutation carries a sequence number. [Entry.Merge] combines two
// histories of the same key in seqno order, and [Entry.Purge] drops
// versions older than a [Cutoff] during compaction.
//
// Entries travel through the value model as identifier-tagged records
// via a [Codec]. A payload that does not decode exactly is an error;
// there is no partial entry.
package entry
