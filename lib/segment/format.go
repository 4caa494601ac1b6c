// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package segment

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/bureau-foundation/storekit/lib/cbor"
	"github.com/bureau-foundation/storekit/lib/filter"
)

// ErrCorrupt is wrapped by every error caused by a damaged or
// malformed segment file.
var ErrCorrupt = errors.New("segment corrupt")

// magic opens and closes every segment file: "SKSEG" + format version
// + two reserved bytes.
var magic = [8]byte{'S', 'K', 'S', 'E', 'G', '1', 0, 0}

const (
	// blockHeaderSize is tag(1) + rawSize(4) + storedSize(4) +
	// checksum(32).
	blockHeaderSize = 41

	// trailerSize is the footer offset (8) followed by the magic (8).
	trailerSize = 16

	// maxBlockSize bounds rawSize so a forged header cannot make the
	// reader allocate without limit.
	maxBlockSize = 256 << 20
)

var footerID = cbor.FromString("segment-footer/1")

// BlockHandle locates one block.
type BlockHandle struct {
	// FirstKey is the key of the first entry in the block.
	FirstKey cbor.Key

	// Offset is the file offset of the block header.
	Offset uint64

	// Count is the number of entries in the block.
	Count int
}

type blockHeader struct {
	compression Compression
	rawSize     uint32
	storedSize  uint32
	checksum    Hash
}

func (h blockHeader) append(buffer []byte) []byte {
	buffer = append(buffer, byte(h.compression))
	buffer = binary.BigEndian.AppendUint32(buffer, h.rawSize)
	buffer = binary.BigEndian.AppendUint32(buffer, h.storedSize)
	return append(buffer, h.checksum[:]...)
}

func parseBlockHeader(data []byte) (blockHeader, error) {
	if len(data) < blockHeaderSize {
		return blockHeader{}, fmt.Errorf("%w: truncated block header", ErrCorrupt)
	}
	h := blockHeader{
		compression: Compression(data[0]),
		rawSize:     binary.BigEndian.Uint32(data[1:5]),
		storedSize:  binary.BigEndian.Uint32(data[5:9]),
	}
	copy(h.checksum[:], data[9:blockHeaderSize])

	switch h.compression {
	case CompressionNone, CompressionLZ4, CompressionZstd:
	default:
		return blockHeader{}, fmt.Errorf("%w: unknown block compression %s", ErrCorrupt, h.compression)
	}
	if h.rawSize > maxBlockSize {
		return blockHeader{}, fmt.Errorf("%w: block size %d exceeds limit", ErrCorrupt, h.rawSize)
	}
	return h, nil
}

type footer struct {
	blocks  []BlockHandle
	filter  filter.Filter
	entries int
	digest  Hash
}

func (f footer) marshal() (cbor.Value, error) {
	handles := make([]cbor.Value, len(f.blocks))
	for i, block := range f.blocks {
		handles[i] = cbor.NewArray(block.FirstKey.Value(), cbor.FromInt(block.Offset), cbor.FromInt(block.Count))
	}
	filterValue, err := f.filter.MarshalValue()
	if err != nil {
		return nil, fmt.Errorf("encoding filter: %w", err)
	}
	return cbor.NewRecord(footerID,
		cbor.NewArray(handles...),
		filterValue,
		cbor.FromInt(f.entries),
		cbor.FromBytes(f.digest[:]),
	), nil
}

// unmarshalFooter decodes the footer record and checks that the block
// index is consistent with a file whose footer starts at end.
func unmarshalFooter(v cbor.Value, end uint64) (footer, error) {
	var f footer
	fields, err := cbor.OpenRecord(v, footerID, 4)
	if err != nil {
		return f, fmt.Errorf("%w: footer: %w", ErrCorrupt, err)
	}

	f.blocks, err = cbor.ToSlice(fields[0], unmarshalHandle)
	if err != nil {
		return f, fmt.Errorf("%w: block index: %w", ErrCorrupt, err)
	}
	if f.filter, err = filter.Unmarshal(fields[1]); err != nil {
		return f, fmt.Errorf("%w: filter: %w", ErrCorrupt, err)
	}
	if f.entries, err = cbor.ToInt[int](fields[2]); err != nil {
		return f, fmt.Errorf("%w: entry count: %w", ErrCorrupt, err)
	}
	digest, err := cbor.ToBytes(fields[3])
	if err != nil {
		return f, fmt.Errorf("%w: digest: %w", ErrCorrupt, err)
	}
	if len(digest) != len(f.digest) {
		return f, fmt.Errorf("%w: digest is %d bytes", ErrCorrupt, len(digest))
	}
	copy(f.digest[:], digest)

	total := 0
	next := uint64(len(magic))
	for i, block := range f.blocks {
		if i == 0 && block.Offset != next {
			return f, fmt.Errorf("%w: first block at offset %d", ErrCorrupt, block.Offset)
		}
		if block.Offset < next || end < blockHeaderSize || block.Offset > end-blockHeaderSize {
			return f, fmt.Errorf("%w: block %d offset %d out of range", ErrCorrupt, i, block.Offset)
		}
		if i > 0 && f.blocks[i-1].FirstKey.Compare(block.FirstKey) >= 0 {
			return f, fmt.Errorf("%w: block %d first key out of order", ErrCorrupt, i)
		}
		if block.Count <= 0 {
			return f, fmt.Errorf("%w: block %d is empty", ErrCorrupt, i)
		}
		total += block.Count
		next = block.Offset + blockHeaderSize
	}
	if total != f.entries {
		return f, fmt.Errorf("%w: block counts sum to %d, footer says %d", ErrCorrupt, total, f.entries)
	}
	return f, nil
}

func unmarshalHandle(v cbor.Value) (BlockHandle, error) {
	fields, err := cbor.ToArray(v, 3, func(v cbor.Value) (cbor.Value, error) { return v, nil })
	if err != nil {
		return BlockHandle{}, err
	}
	var handle BlockHandle
	if handle.FirstKey, err = cbor.KeyFromValue(fields[0]); err != nil {
		return BlockHandle{}, err
	}
	if handle.Offset, err = cbor.ToInt[uint64](fields[1]); err != nil {
		return BlockHandle{}, err
	}
	if handle.Count, err = cbor.ToInt[int](fields[2]); err != nil {
		return BlockHandle{}, err
	}
	return handle, nil
}
